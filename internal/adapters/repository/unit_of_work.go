package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/boardstack/core/internal/infrastructure/database"
	"github.com/boardstack/core/internal/ports"
)

// UnitOfWorkImpl runs multi-aggregate mutations inside a single database
// transaction. Invite acceptance and cascading deletes must not be
// expressed as independent best-effort writes; this is the primitive
// that makes them all-or-nothing.
type UnitOfWorkImpl struct {
	db    *database.DB
	store *DocumentStore
}

// NewUnitOfWork creates a unit of work bound to the shared pool.
func NewUnitOfWork(db *database.DB, store *DocumentStore) ports.UnitOfWork {
	return &UnitOfWorkImpl{db: db, store: store}
}

// Run executes fn against transaction-bound repositories. The
// transaction commits when fn returns nil and rolls back otherwise.
func (u *UnitOfWorkImpl) Run(ctx context.Context, fn func(repos ports.Repositories) error) error {
	return u.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		store := u.store.withTx(tx)
		return fn(ports.Repositories{
			Boards:      NewBoardRepository(store),
			Cards:       NewCardRepository(store),
			Tasks:       NewTaskRepository(store),
			Invitations: NewInvitationRepository(store),
			Users:       NewUserRepository(store),
		})
	})
}
