package services

import (
	"context"
	"fmt"

	"github.com/boardstack/core/internal/domain/entities"
	"github.com/boardstack/core/internal/ports"
)

// fakeStore backs the in-memory repositories the service tests run
// against. failures maps an operation name to an error to inject.
type fakeStore struct {
	boards   map[string]*entities.Board
	cards    map[string]map[string]*entities.Card
	tasks    map[string]map[string]map[string]*entities.Task
	invites  map[string]*entities.Invitation
	users    map[entities.UserID]*entities.User
	failures map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		boards:   make(map[string]*entities.Board),
		cards:    make(map[string]map[string]*entities.Card),
		tasks:    make(map[string]map[string]map[string]*entities.Task),
		invites:  make(map[string]*entities.Invitation),
		users:    make(map[entities.UserID]*entities.User),
		failures: make(map[string]error),
	}
}

func (s *fakeStore) fail(op string) error { return s.failures[op] }

func (s *fakeStore) repos() ports.Repositories {
	return ports.Repositories{
		Boards:      &fakeBoardRepo{s},
		Cards:       &fakeCardRepo{s},
		Tasks:       &fakeTaskRepo{s},
		Invitations: &fakeInviteRepo{s},
		Users:       &fakeUserRepo{s},
	}
}

// fakeUnitOfWork runs the function against the same store with no
// transactional semantics; tests assert on observable outcomes only.
type fakeUnitOfWork struct {
	store *fakeStore
}

func (u *fakeUnitOfWork) Run(ctx context.Context, fn func(repos ports.Repositories) error) error {
	return fn(u.store.repos())
}

type fakeBoardRepo struct{ s *fakeStore }

func (r *fakeBoardRepo) Create(ctx context.Context, board *entities.Board) error {
	if err := r.s.fail("board.create"); err != nil {
		return err
	}
	r.s.boards[board.ID] = board
	return nil
}

func (r *fakeBoardRepo) GetByID(ctx context.Context, id string) (*entities.Board, error) {
	if err := r.s.fail("board.get"); err != nil {
		return nil, err
	}
	b, ok := r.s.boards[id]
	if !ok {
		return nil, fmt.Errorf("board %s: %w", id, entities.ErrBoardNotFound)
	}
	cp := *b
	cp.Members = append([]entities.UserID(nil), b.Members...)
	cp.Columns = append([]entities.Column(nil), b.Columns...)
	return &cp, nil
}

func (r *fakeBoardRepo) Update(ctx context.Context, board *entities.Board) error {
	if err := r.s.fail("board.update"); err != nil {
		return err
	}
	if _, ok := r.s.boards[board.ID]; !ok {
		return fmt.Errorf("board %s: %w", board.ID, entities.ErrBoardNotFound)
	}
	r.s.boards[board.ID] = board
	return nil
}

func (r *fakeBoardRepo) Delete(ctx context.Context, id string) error {
	if err := r.s.fail("board.delete"); err != nil {
		return err
	}
	delete(r.s.boards, id)
	return nil
}

func (r *fakeBoardRepo) ListByOwner(ctx context.Context, owner entities.UserID) ([]*entities.Board, error) {
	var out []*entities.Board
	for _, b := range r.s.boards {
		if b.OwnerID == owner {
			out = append(out, b)
		}
	}
	return out, nil
}

type fakeCardRepo struct{ s *fakeStore }

func (r *fakeCardRepo) Create(ctx context.Context, boardID string, card *entities.Card) error {
	if r.s.cards[boardID] == nil {
		r.s.cards[boardID] = make(map[string]*entities.Card)
	}
	r.s.cards[boardID][card.ID] = card
	return nil
}

func (r *fakeCardRepo) GetByID(ctx context.Context, boardID, cardID string) (*entities.Card, error) {
	c, ok := r.s.cards[boardID][cardID]
	if !ok {
		return nil, fmt.Errorf("card %s: %w", cardID, entities.ErrCardNotFound)
	}
	cp := *c
	cp.Members = append([]entities.UserID(nil), c.Members...)
	return &cp, nil
}

func (r *fakeCardRepo) Update(ctx context.Context, boardID string, card *entities.Card) error {
	if _, ok := r.s.cards[boardID][card.ID]; !ok {
		return fmt.Errorf("card %s: %w", card.ID, entities.ErrCardNotFound)
	}
	r.s.cards[boardID][card.ID] = card
	return nil
}

func (r *fakeCardRepo) Delete(ctx context.Context, boardID, cardID string) error {
	if err := r.s.fail("card.delete"); err != nil {
		return err
	}
	delete(r.s.cards[boardID], cardID)
	return nil
}

func (r *fakeCardRepo) List(ctx context.Context, boardID string) ([]*entities.Card, error) {
	var out []*entities.Card
	for _, c := range r.s.cards[boardID] {
		out = append(out, c)
	}
	return out, nil
}

func (r *fakeCardRepo) ListByMember(ctx context.Context, boardID string, member entities.UserID) ([]*entities.Card, error) {
	out := []*entities.Card{}
	for _, c := range r.s.cards[boardID] {
		if c.HasMember(member) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCardRepo) DeleteByBoard(ctx context.Context, boardID string) error {
	if err := r.s.fail("card.deleteByBoard"); err != nil {
		return err
	}
	delete(r.s.cards, boardID)
	return nil
}

type fakeTaskRepo struct{ s *fakeStore }

func (r *fakeTaskRepo) Create(ctx context.Context, boardID, cardID string, task *entities.Task) error {
	if r.s.tasks[boardID] == nil {
		r.s.tasks[boardID] = make(map[string]map[string]*entities.Task)
	}
	if r.s.tasks[boardID][cardID] == nil {
		r.s.tasks[boardID][cardID] = make(map[string]*entities.Task)
	}
	r.s.tasks[boardID][cardID][task.ID] = task
	return nil
}

func (r *fakeTaskRepo) GetByID(ctx context.Context, boardID, cardID, taskID string) (*entities.Task, error) {
	t, ok := r.s.tasks[boardID][cardID][taskID]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", taskID, entities.ErrTaskNotFound)
	}
	cp := *t
	cp.Assigned = append([]entities.UserID(nil), t.Assigned...)
	return &cp, nil
}

func (r *fakeTaskRepo) Update(ctx context.Context, boardID, cardID string, task *entities.Task) error {
	if _, ok := r.s.tasks[boardID][cardID][task.ID]; !ok {
		return fmt.Errorf("task %s: %w", task.ID, entities.ErrTaskNotFound)
	}
	r.s.tasks[boardID][cardID][task.ID] = task
	return nil
}

func (r *fakeTaskRepo) Delete(ctx context.Context, boardID, cardID, taskID string) error {
	delete(r.s.tasks[boardID][cardID], taskID)
	return nil
}

func (r *fakeTaskRepo) List(ctx context.Context, boardID, cardID string) ([]*entities.Task, error) {
	var out []*entities.Task
	for _, t := range r.s.tasks[boardID][cardID] {
		out = append(out, t)
	}
	return out, nil
}

func (r *fakeTaskRepo) DeleteByCard(ctx context.Context, boardID, cardID string) error {
	if err := r.s.fail("task.deleteByCard"); err != nil {
		return err
	}
	delete(r.s.tasks[boardID], cardID)
	return nil
}

func (r *fakeTaskRepo) DeleteByBoard(ctx context.Context, boardID string) error {
	if err := r.s.fail("task.deleteByBoard"); err != nil {
		return err
	}
	delete(r.s.tasks, boardID)
	return nil
}

type fakeInviteRepo struct{ s *fakeStore }

func (r *fakeInviteRepo) Create(ctx context.Context, inv *entities.Invitation) error {
	r.s.invites[inv.ID] = inv
	return nil
}

func (r *fakeInviteRepo) GetByID(ctx context.Context, id string) (*entities.Invitation, error) {
	inv, ok := r.s.invites[id]
	if !ok {
		return nil, fmt.Errorf("invitation %s: %w", id, entities.ErrInviteNotFound)
	}
	cp := *inv
	return &cp, nil
}

func (r *fakeInviteRepo) Update(ctx context.Context, inv *entities.Invitation) error {
	if _, ok := r.s.invites[inv.ID]; !ok {
		return fmt.Errorf("invitation %s: %w", inv.ID, entities.ErrInviteNotFound)
	}
	r.s.invites[inv.ID] = inv
	return nil
}

func (r *fakeInviteRepo) DeleteByBoard(ctx context.Context, boardID string) error {
	for id, inv := range r.s.invites {
		if inv.BoardID == boardID {
			delete(r.s.invites, id)
		}
	}
	return nil
}

type fakeUserRepo struct{ s *fakeStore }

func (r *fakeUserRepo) Upsert(ctx context.Context, user *entities.User) error {
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id entities.UserID) (*entities.User, error) {
	u, ok := r.s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, entities.ErrUserNotFound)
	}
	cp := *u
	return &cp, nil
}

// fakeMailer records outbound messages.
type fakeMailer struct {
	to      []string
	bodies  []string
	sendErr error
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.to = append(m.to, to)
	m.bodies = append(m.bodies, body)
	return nil
}
