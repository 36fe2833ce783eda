package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/boardstack/core/internal/domain/entities"
	"github.com/boardstack/core/internal/ports"
)

// CardRepositoryImpl implements the CardRepository interface on top of
// the document store.
type CardRepositoryImpl struct {
	store *DocumentStore
}

// NewCardRepository creates a new card repository
func NewCardRepository(store *DocumentStore) ports.CardRepository {
	return &CardRepositoryImpl{store: store}
}

func (r *CardRepositoryImpl) Create(ctx context.Context, boardID string, card *entities.Card) error {
	if err := r.store.Put(ctx, cardPath(boardID, card.ID), card); err != nil {
		return fmt.Errorf("create card: %w", err)
	}
	return nil
}

func (r *CardRepositoryImpl) GetByID(ctx context.Context, boardID, cardID string) (*entities.Card, error) {
	raw, err := r.store.Get(ctx, cardPath(boardID, cardID))
	if err != nil {
		if errors.Is(err, errNoDocument) {
			return nil, entities.ErrCardNotFound
		}
		return nil, fmt.Errorf("get card: %w", err)
	}
	var card entities.Card
	if err := json.Unmarshal(raw, &card); err != nil {
		return nil, fmt.Errorf("decode card: %w", err)
	}
	return &card, nil
}

func (r *CardRepositoryImpl) Update(ctx context.Context, boardID string, card *entities.Card) error {
	if err := r.store.Put(ctx, cardPath(boardID, card.ID), card); err != nil {
		return fmt.Errorf("update card: %w", err)
	}
	return nil
}

func (r *CardRepositoryImpl) Delete(ctx context.Context, boardID, cardID string) error {
	if err := r.store.Delete(ctx, cardPath(boardID, cardID)); err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	return nil
}

func (r *CardRepositoryImpl) List(ctx context.Context, boardID string) ([]*entities.Card, error) {
	docs, err := r.store.ListChildren(ctx, boardPath(boardID)+"/card/")
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	return decodeInto[entities.Card](docs)
}

func (r *CardRepositoryImpl) ListByMember(ctx context.Context, boardID string, member entities.UserID) ([]*entities.Card, error) {
	docs, err := r.store.ListWhereArrayContains(ctx, boardPath(boardID)+"/card/", "members", string(member))
	if err != nil {
		return nil, fmt.Errorf("list cards by member: %w", err)
	}
	return decodeInto[entities.Card](docs)
}

func (r *CardRepositoryImpl) DeleteByBoard(ctx context.Context, boardID string) error {
	if err := r.store.DeletePrefix(ctx, boardPath(boardID)+"/card/"); err != nil {
		return fmt.Errorf("delete cards by board: %w", err)
	}
	return nil
}
