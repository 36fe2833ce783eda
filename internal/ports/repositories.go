package ports

import (
	"context"

	"github.com/boardstack/core/internal/domain/entities"
)

// BoardRepository defines board document operations. Documents live at
// path board/{boardId}.
type BoardRepository interface {
	Create(ctx context.Context, board *entities.Board) error
	GetByID(ctx context.Context, id string) (*entities.Board, error)
	Update(ctx context.Context, board *entities.Board) error
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, owner entities.UserID) ([]*entities.Board, error)
}

// CardRepository defines card document operations. Documents live at
// path board/{boardId}/card/{cardId}.
type CardRepository interface {
	Create(ctx context.Context, boardID string, card *entities.Card) error
	GetByID(ctx context.Context, boardID, cardID string) (*entities.Card, error)
	Update(ctx context.Context, boardID string, card *entities.Card) error
	Delete(ctx context.Context, boardID, cardID string) error
	List(ctx context.Context, boardID string) ([]*entities.Card, error)
	ListByMember(ctx context.Context, boardID string, member entities.UserID) ([]*entities.Card, error)
	DeleteByBoard(ctx context.Context, boardID string) error
}

// TaskRepository defines task document operations. Documents live at
// path board/{boardId}/card/{cardId}/task/{taskId}.
type TaskRepository interface {
	Create(ctx context.Context, boardID, cardID string, task *entities.Task) error
	GetByID(ctx context.Context, boardID, cardID, taskID string) (*entities.Task, error)
	Update(ctx context.Context, boardID, cardID string, task *entities.Task) error
	Delete(ctx context.Context, boardID, cardID, taskID string) error
	List(ctx context.Context, boardID, cardID string) ([]*entities.Task, error)
	DeleteByCard(ctx context.Context, boardID, cardID string) error
	DeleteByBoard(ctx context.Context, boardID string) error
}

// InvitationRepository defines invitation document operations. Documents
// live at path invitation/{id}.
type InvitationRepository interface {
	Create(ctx context.Context, inv *entities.Invitation) error
	GetByID(ctx context.Context, id string) (*entities.Invitation, error)
	Update(ctx context.Context, inv *entities.Invitation) error
	DeleteByBoard(ctx context.Context, boardID string) error
}

// UserRepository defines account document operations. Documents live at
// path user/{userId}.
type UserRepository interface {
	Upsert(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id entities.UserID) (*entities.User, error)
}

// Repositories bundles every repository bound to the same storage handle,
// either the shared pool or a single transaction.
type Repositories struct {
	Boards      BoardRepository
	Cards       CardRepository
	Tasks       TaskRepository
	Invitations InvitationRepository
	Users       UserRepository
}

// UnitOfWork runs fn against transaction-bound repositories. Every write
// issued through the passed Repositories either commits as a whole or
// rolls back; multi-aggregate mutations (invite accept, cascading delete)
// must go through it.
type UnitOfWork interface {
	Run(ctx context.Context, fn func(repos Repositories) error) error
}
