package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/boardstack/core/internal/domain/entities"
	"github.com/boardstack/core/internal/infrastructure/config"
	"github.com/boardstack/core/internal/infrastructure/logger"
	"github.com/boardstack/core/internal/ports"
)

type testEnv struct {
	store   *fakeStore
	boards  *BoardService
	cards   *CardService
	tasks   *TaskService
	invites *InviteService
}

func newTestEnv(policy config.BoardUpdatePolicy) *testEnv {
	store := newFakeStore()
	repos := store.repos()
	uow := &fakeUnitOfWork{store: store}
	access := NewAccessEvaluator(repos.Boards, policy)
	log := logger.NewNop()
	return &testEnv{
		store:   store,
		boards:  NewBoardService(repos.Boards, uow, access, log),
		cards:   NewCardService(repos.Cards, uow, access, log),
		tasks:   NewTaskService(repos.Tasks, repos.Cards, uow, access, log),
		invites: NewInviteService(repos.Invitations, uow, access, log),
	}
}

const owner = entities.UserID("user:owner@x.io")

func (e *testEnv) mustCreateBoard(t *testing.T, req ports.CreateBoardRequest) *entities.Board {
	t.Helper()
	board, err := e.boards.CreateBoard(context.Background(), owner, req)
	if err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}
	return board
}

func strptr(s string) *string { return &s }

func TestCreateBoardDefaults(t *testing.T) {
	env := newTestEnv(config.BoardUpdateOwnerOnly)

	board := env.mustCreateBoard(t, ports.CreateBoardRequest{Title: "Roadmap"})

	if board.OwnerID != owner {
		t.Fatalf("owner = %q", board.OwnerID)
	}
	if board.Members == nil || len(board.Members) != 0 {
		t.Fatalf("members should be an empty set, got %v", board.Members)
	}
	if len(board.Columns) != 4 || board.Columns[0].ID != "todo" {
		t.Fatalf("expected default columns, got %v", board.Columns)
	}
}

func TestCreateBoardRequiresTitle(t *testing.T) {
	env := newTestEnv(config.BoardUpdateOwnerOnly)
	_, err := env.boards.CreateBoard(context.Background(), owner, ports.CreateBoardRequest{Title: "  "})
	if !errors.Is(err, entities.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestCreateBoardNormalizesColumns(t *testing.T) {
	env := newTestEnv(config.BoardUpdateOwnerOnly)

	board := env.mustCreateBoard(t, ports.CreateBoardRequest{
		Title:   "Sprint",
		Columns: json.RawMessage(`["backlog", {"id":"wip","title":"In flight"}, {"title":"dropped"}]`),
	})

	if len(board.Columns) != 2 {
		t.Fatalf("columns = %v", board.Columns)
	}
	if board.Columns[0] != (entities.Column{ID: "backlog", Title: "backlog"}) {
		t.Fatalf("columns[0] = %+v", board.Columns[0])
	}
	if board.Columns[1] != (entities.Column{ID: "wip", Title: "In flight"}) {
		t.Fatalf("columns[1] = %+v", board.Columns[1])
	}
}

func TestGetBoardAccess(t *testing.T) {
	env := newTestEnv(config.BoardUpdateOwnerOnly)
	board := env.mustCreateBoard(t, ports.CreateBoardRequest{Title: "Private"})

	stranger := entities.UserID("user:stranger@x.io")
	if _, err := env.boards.GetBoard(context.Background(), stranger, board.ID); !errors.Is(err, entities.ErrForbidden) {
		t.Fatalf("stranger err = %v, want ErrForbidden", err)
	}

	if _, err := env.boards.GetBoard(context.Background(), owner, "missing"); !errors.Is(err, entities.ErrBoardNotFound) {
		t.Fatalf("missing err = %v, want ErrBoardNotFound", err)
	}

	env.store.boards[board.ID].Members = []entities.UserID{stranger}
	if _, err := env.boards.GetBoard(context.Background(), stranger, board.ID); err != nil {
		t.Fatalf("member should have access: %v", err)
	}
}

func TestUpdateBoardEmptyPatchIsNoOp(t *testing.T) {
	env := newTestEnv(config.BoardUpdateOwnerOnly)
	board := env.mustCreateBoard(t, ports.CreateBoardRequest{Title: "Stable"})

	got, err := env.boards.UpdateBoard(context.Background(), owner, board.ID, ports.UpdateBoardRequest{})
	if err != nil {
		t.Fatalf("UpdateBoard: %v", err)
	}
	if got.UpdatedAt != nil {
		t.Fatalf("empty patch must not stamp updatedAt")
	}
	if got.Title != "Stable" {
		t.Fatalf("title = %q", got.Title)
	}
}

func TestUpdateBoardPolicy(t *testing.T) {
	member := entities.UserID("user:member@x.io")

	t.Run("owner_only rejects members", func(t *testing.T) {
		env := newTestEnv(config.BoardUpdateOwnerOnly)
		board := env.mustCreateBoard(t, ports.CreateBoardRequest{Title: "B"})
		env.store.boards[board.ID].Members = []entities.UserID{member}

		_, err := env.boards.UpdateBoard(context.Background(), member, board.ID, ports.UpdateBoardRequest{Title: strptr("New")})
		if !errors.Is(err, entities.ErrForbidden) {
			t.Fatalf("err = %v, want ErrForbidden", err)
		}
	})

	t.Run("owner_or_member admits members", func(t *testing.T) {
		env := newTestEnv(config.BoardUpdateOwnerOrMember)
		board := env.mustCreateBoard(t, ports.CreateBoardRequest{Title: "B"})
		env.store.boards[board.ID].Members = []entities.UserID{member}

		got, err := env.boards.UpdateBoard(context.Background(), member, board.ID, ports.UpdateBoardRequest{Title: strptr("New")})
		if err != nil {
			t.Fatalf("UpdateBoard: %v", err)
		}
		if got.Title != "New" {
			t.Fatalf("title = %q", got.Title)
		}
	})
}

func TestUpdateBoardReplacesColumnsWholesale(t *testing.T) {
	env := newTestEnv(config.BoardUpdateOwnerOnly)
	board := env.mustCreateBoard(t, ports.CreateBoardRequest{Title: "Reorder"})

	got, err := env.boards.UpdateBoard(context.Background(), owner, board.ID, ports.UpdateBoardRequest{
		Columns: json.RawMessage(`[{"id":"done","title":"Done"},{"id":"todo","title":"To do"}]`),
	})
	if err != nil {
		t.Fatalf("UpdateBoard: %v", err)
	}
	if len(got.Columns) != 2 || got.Columns[0].ID != "done" || got.Columns[1].ID != "todo" {
		t.Fatalf("columns = %v", got.Columns)
	}
	if got.UpdatedAt == nil {
		t.Fatalf("column replacement should stamp updatedAt")
	}
}

func TestAddColumn(t *testing.T) {
	env := newTestEnv(config.BoardUpdateOwnerOnly)
	board := env.mustCreateBoard(t, ports.CreateBoardRequest{Title: "Cols"})

	got, err := env.boards.AddColumn(context.Background(), owner, board.ID, ports.AddColumnRequest{Title: "In Review"})
	if err != nil {
		t.Fatalf("AddColumn: %v", err)
	}
	last := got.Columns[len(got.Columns)-1]
	if last.ID != "in-review" || last.Title != "In Review" {
		t.Fatalf("last column = %+v", last)
	}
	if len(got.Columns) != 5 {
		t.Fatalf("defaults should be seeded before appending, got %v", got.Columns)
	}

	// A colliding slug picks up a numeric suffix.
	got, err = env.boards.AddColumn(context.Background(), owner, board.ID, ports.AddColumnRequest{Title: "In Review"})
	if err != nil {
		t.Fatalf("AddColumn: %v", err)
	}
	last = got.Columns[len(got.Columns)-1]
	if last.ID != "in-review-2" {
		t.Fatalf("collision suffix: got %q", last.ID)
	}
}

func TestAddColumnTimeBasedFallback(t *testing.T) {
	env := newTestEnv(config.BoardUpdateOwnerOnly)
	board := env.mustCreateBoard(t, ports.CreateBoardRequest{Title: "Cols"})

	got, err := env.boards.AddColumn(context.Background(), owner, board.ID, ports.AddColumnRequest{Title: "日本語"})
	if err != nil {
		t.Fatalf("AddColumn: %v", err)
	}
	last := got.Columns[len(got.Columns)-1]
	if len(last.ID) < 5 || last.ID[:4] != "col-" {
		t.Fatalf("unslugifiable title should get a time-based id, got %q", last.ID)
	}
}

func TestAddColumnOwnerOnly(t *testing.T) {
	env := newTestEnv(config.BoardUpdateOwnerOrMember)
	board := env.mustCreateBoard(t, ports.CreateBoardRequest{Title: "Cols"})
	member := entities.UserID("user:member@x.io")
	env.store.boards[board.ID].Members = []entities.UserID{member}

	_, err := env.boards.AddColumn(context.Background(), member, board.ID, ports.AddColumnRequest{Title: "X"})
	if !errors.Is(err, entities.ErrForbidden) {
		t.Fatalf("members must not add columns even under the relaxed policy, err = %v", err)
	}
}

func TestDeleteBoardCascades(t *testing.T) {
	env := newTestEnv(config.BoardUpdateOwnerOnly)
	board := env.mustCreateBoard(t, ports.CreateBoardRequest{Title: "Doomed"})

	ctx := context.Background()
	card, err := env.cards.CreateCard(ctx, owner, board.ID, ports.CreateCardRequest{Name: "c1"})
	if err != nil {
		t.Fatalf("CreateCard: %v", err)
	}
	if _, err := env.tasks.CreateTask(ctx, owner, board.ID, card.ID, ports.CreateTaskRequest{Title: "t1"}); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	inv, err := env.invites.CreateInvite(ctx, owner, board.ID, "guest@x.io")
	if err != nil {
		t.Fatalf("CreateInvite: %v", err)
	}

	if err := env.boards.DeleteBoard(ctx, owner, board.ID); err != nil {
		t.Fatalf("DeleteBoard: %v", err)
	}

	if _, ok := env.store.boards[board.ID]; ok {
		t.Fatalf("board should be gone")
	}
	if len(env.store.cards[board.ID]) != 0 {
		t.Fatalf("cards should be gone")
	}
	if len(env.store.tasks[board.ID]) != 0 {
		t.Fatalf("tasks should be gone")
	}
	if _, ok := env.store.invites[inv.ID]; ok {
		t.Fatalf("invitations referencing the board should be gone")
	}
}

func TestDeleteBoardPartialFailure(t *testing.T) {
	env := newTestEnv(config.BoardUpdateOwnerOnly)
	board := env.mustCreateBoard(t, ports.CreateBoardRequest{Title: "Sticky"})

	env.store.failures["card.deleteByBoard"] = errors.New("disk on fire")

	err := env.boards.DeleteBoard(context.Background(), owner, board.ID)
	if !errors.Is(err, entities.ErrPartialDeletion) {
		t.Fatalf("err = %v, want ErrPartialDeletion", err)
	}
}

func TestDeleteBoardOwnerOnly(t *testing.T) {
	env := newTestEnv(config.BoardUpdateOwnerOrMember)
	board := env.mustCreateBoard(t, ports.CreateBoardRequest{Title: "Mine"})
	member := entities.UserID("user:member@x.io")
	env.store.boards[board.ID].Members = []entities.UserID{member}

	if err := env.boards.DeleteBoard(context.Background(), member, board.ID); !errors.Is(err, entities.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestListBoardsReturnsOwnBoardsOnly(t *testing.T) {
	env := newTestEnv(config.BoardUpdateOwnerOnly)
	env.mustCreateBoard(t, ports.CreateBoardRequest{Title: "Mine"})

	other := entities.UserID("user:other@x.io")
	if _, err := env.boards.CreateBoard(context.Background(), other, ports.CreateBoardRequest{Title: "Theirs"}); err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}

	mine, err := env.boards.ListBoards(context.Background(), owner)
	if err != nil {
		t.Fatalf("ListBoards: %v", err)
	}
	if len(mine) != 1 || mine[0].Title != "Mine" {
		t.Fatalf("boards = %v", mine)
	}
}
