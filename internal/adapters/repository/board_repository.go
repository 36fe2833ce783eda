package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/boardstack/core/internal/domain/entities"
	"github.com/boardstack/core/internal/ports"
)

// BoardRepositoryImpl implements the BoardRepository interface on top of
// the document store.
type BoardRepositoryImpl struct {
	store *DocumentStore
}

// NewBoardRepository creates a new board repository
func NewBoardRepository(store *DocumentStore) ports.BoardRepository {
	return &BoardRepositoryImpl{store: store}
}

func (r *BoardRepositoryImpl) Create(ctx context.Context, board *entities.Board) error {
	if err := r.store.Put(ctx, boardPath(board.ID), board); err != nil {
		return fmt.Errorf("create board: %w", err)
	}
	return nil
}

func (r *BoardRepositoryImpl) GetByID(ctx context.Context, id string) (*entities.Board, error) {
	raw, err := r.store.Get(ctx, boardPath(id))
	if err != nil {
		if errors.Is(err, errNoDocument) {
			return nil, entities.ErrBoardNotFound
		}
		return nil, fmt.Errorf("get board: %w", err)
	}
	var board entities.Board
	if err := json.Unmarshal(raw, &board); err != nil {
		return nil, fmt.Errorf("decode board: %w", err)
	}
	return &board, nil
}

func (r *BoardRepositoryImpl) Update(ctx context.Context, board *entities.Board) error {
	if err := r.store.Put(ctx, boardPath(board.ID), board); err != nil {
		return fmt.Errorf("update board: %w", err)
	}
	return nil
}

func (r *BoardRepositoryImpl) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, boardPath(id)); err != nil {
		return fmt.Errorf("delete board: %w", err)
	}
	return nil
}

func (r *BoardRepositoryImpl) ListByOwner(ctx context.Context, owner entities.UserID) ([]*entities.Board, error) {
	docs, err := r.store.ListWhereField(ctx, "board/", "ownerId", string(owner))
	if err != nil {
		return nil, fmt.Errorf("list boards by owner: %w", err)
	}
	return decodeInto[entities.Board](docs)
}
