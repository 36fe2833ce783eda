package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/boardstack/core/internal/domain/entities"
	"github.com/boardstack/core/internal/infrastructure/logger"
	"github.com/boardstack/core/internal/ports"
)

// BoardService owns board-level invariants: column normalization,
// membership mutation and the default-column fallback.
type BoardService struct {
	boardRepo ports.BoardRepository
	uow       ports.UnitOfWork
	access    *AccessEvaluator
	logger    *logger.Logger
}

// NewBoardService creates a new board service
func NewBoardService(boardRepo ports.BoardRepository, uow ports.UnitOfWork, access *AccessEvaluator, logger *logger.Logger) *BoardService {
	return &BoardService{
		boardRepo: boardRepo,
		uow:       uow,
		access:    access,
		logger:    logger,
	}
}

// decodeColumns turns the raw JSON column payload into whatever shape the
// client sent; normalization handles the rest.
func decodeColumns(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

// ListBoards retrieves the requester's own boards.
func (s *BoardService) ListBoards(ctx context.Context, requester entities.UserID) ([]*entities.Board, error) {
	boards, err := s.boardRepo.ListByOwner(ctx, requester)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	for _, b := range boards {
		b.Columns = b.ColumnsOrDefault()
	}
	return boards, nil
}

// CreateBoard creates a board owned by the requester with a normalized,
// never-empty column list and an empty members set.
func (s *BoardService) CreateBoard(ctx context.Context, requester entities.UserID, req ports.CreateBoardRequest) (*entities.Board, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("board title is required: %w", entities.ErrInvalidInput)
	}

	board := &entities.Board{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		OwnerID:     requester,
		Members:     []entities.UserID{},
		Columns:     entities.NormalizeColumns(decodeColumns(req.Columns)),
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.boardRepo.Create(ctx, board); err != nil {
		return nil, fmt.Errorf("failed to create board: %w", err)
	}

	s.logger.Infow("Board created", "board_id", board.ID, "owner", requester)

	return board, nil
}

// GetBoard retrieves a board the requester owns or is a member of, with
// the default column list backfilled when none is stored.
func (s *BoardService) GetBoard(ctx context.Context, requester entities.UserID, boardID string) (*entities.Board, error) {
	board, _, err := s.access.EnsureAccess(ctx, boardID, requester)
	if err != nil {
		return nil, err
	}
	board.Columns = board.ColumnsOrDefault()
	return board, nil
}

// UpdateBoard applies a partial patch to a board. Absent fields stay
// untouched; an empty patch is a no-op that still returns current state;
// updatedAt is stamped only when something changed. Who may update is
// governed by the configured board-update policy.
func (s *BoardService) UpdateBoard(ctx context.Context, requester entities.UserID, boardID string, req ports.UpdateBoardRequest) (*entities.Board, error) {
	board, role, err := s.access.EnsureAccess(ctx, boardID, requester)
	if err != nil {
		return nil, err
	}
	if !s.access.CanUpdateBoard(role) {
		return nil, fmt.Errorf("board %s: %w", boardID, entities.ErrForbidden)
	}

	changed := false
	if req.Title != nil {
		board.Title = *req.Title
		changed = true
	}
	if req.Description != nil {
		board.Description = *req.Description
		changed = true
	}
	if req.Members != nil {
		board.Members = entities.NormalizeMembers(req.Members)
		changed = true
	}
	if cols := decodeColumns(req.Columns); cols != nil {
		// Wholesale replacement: the reorder protocol submits the full
		// list and the last writer wins.
		board.Columns = entities.NormalizeColumns(cols)
		changed = true
	}

	if changed {
		now := time.Now().UTC()
		board.UpdatedAt = &now
		if err := s.boardRepo.Update(ctx, board); err != nil {
			return nil, fmt.Errorf("failed to update board: %w", err)
		}
		s.logger.Infow("Board updated", "board_id", board.ID, "requester", requester)
	}

	board.Columns = board.ColumnsOrDefault()
	return board, nil
}

// AddColumn appends a column to the board, deriving the id from the
// title unless an explicit one is given. The existing list is seeded
// with the system default when the board currently has none.
func (s *BoardService) AddColumn(ctx context.Context, requester entities.UserID, boardID string, req ports.AddColumnRequest) (*entities.Board, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("column title is required: %w", entities.ErrInvalidInput)
	}

	board, err := s.access.EnsureOwner(ctx, boardID, requester)
	if err != nil {
		return nil, err
	}

	cols := board.ColumnsOrDefault()

	id := req.ID
	if id == "" {
		id = entities.SlugifyColumnID(req.Title)
	}
	if id == "" {
		id = entities.TimeBasedColumnID(time.Now())
	}
	id = uniqueColumnID(cols, id)

	board.Columns = append(cols, entities.Column{ID: id, Title: req.Title})
	now := time.Now().UTC()
	board.UpdatedAt = &now

	if err := s.boardRepo.Update(ctx, board); err != nil {
		return nil, fmt.Errorf("failed to add column: %w", err)
	}

	s.logger.Infow("Column added", "board_id", board.ID, "column_id", id)

	return board, nil
}

// uniqueColumnID suffixes the candidate until it collides with nothing;
// column ids are unique within a board.
func uniqueColumnID(cols []entities.Column, candidate string) string {
	taken := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		taken[c.ID] = struct{}{}
	}
	if _, ok := taken[candidate]; !ok {
		return candidate
	}
	for n := 2; ; n++ {
		next := fmt.Sprintf("%s-%d", candidate, n)
		if _, ok := taken[next]; !ok {
			return next
		}
	}
}

// DeleteBoard removes the board and, in the same transaction, every
// descendant card and task plus the invitations that reference it. A
// document store does not cascade on its own; the tree walk here is the
// cascade.
func (s *BoardService) DeleteBoard(ctx context.Context, requester entities.UserID, boardID string) error {
	if _, err := s.access.EnsureOwner(ctx, boardID, requester); err != nil {
		return err
	}

	err := s.uow.Run(ctx, func(repos ports.Repositories) error {
		if err := repos.Tasks.DeleteByBoard(ctx, boardID); err != nil {
			return err
		}
		if err := repos.Cards.DeleteByBoard(ctx, boardID); err != nil {
			return fmt.Errorf("%w: %w", entities.ErrPartialDeletion, err)
		}
		if err := repos.Boards.Delete(ctx, boardID); err != nil {
			return fmt.Errorf("%w: %w", entities.ErrPartialDeletion, err)
		}
		if err := repos.Invitations.DeleteByBoard(ctx, boardID); err != nil {
			return fmt.Errorf("%w: %w", entities.ErrPartialDeletion, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete board: %w", err)
	}

	s.logger.Infow("Board deleted", "board_id", boardID, "requester", requester)

	return nil
}
