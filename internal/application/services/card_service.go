package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/boardstack/core/internal/domain/entities"
	"github.com/boardstack/core/internal/infrastructure/logger"
	"github.com/boardstack/core/internal/ports"
)

// CardService owns card lifecycle inside a board, including the
// status-to-column contract and membership-set mutation.
type CardService struct {
	cardRepo ports.CardRepository
	uow      ports.UnitOfWork
	access   *AccessEvaluator
	logger   *logger.Logger
}

// NewCardService creates a new card service
func NewCardService(cardRepo ports.CardRepository, uow ports.UnitOfWork, access *AccessEvaluator, logger *logger.Logger) *CardService {
	return &CardService{
		cardRepo: cardRepo,
		uow:      uow,
		access:   access,
		logger:   logger,
	}
}

func parseDeadline(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return nil, fmt.Errorf("deadline must be RFC 3339: %w", entities.ErrInvalidInput)
	}
	return &t, nil
}

// ListCards retrieves all cards on a board the requester can access.
func (s *CardService) ListCards(ctx context.Context, requester entities.UserID, boardID string) ([]*entities.Card, error) {
	if _, _, err := s.access.EnsureAccess(ctx, boardID, requester); err != nil {
		return nil, err
	}
	cards, err := s.cardRepo.List(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	return cards, nil
}

// ListCardsByMember retrieves the cards whose membership set contains the
// given identity, normalized before matching.
func (s *CardService) ListCardsByMember(ctx context.Context, requester entities.UserID, boardID, member string) ([]*entities.Card, error) {
	if _, _, err := s.access.EnsureAccess(ctx, boardID, requester); err != nil {
		return nil, err
	}
	id := entities.NormalizeUserID(member)
	if id == "" {
		return []*entities.Card{}, nil
	}
	cards, err := s.cardRepo.ListByMember(ctx, boardID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards by member: %w", err)
	}
	return cards, nil
}

// CreateCard creates a card under the board. Status is stored as given;
// the board is not consulted, an orphaned status is tolerated.
func (s *CardService) CreateCard(ctx context.Context, requester entities.UserID, boardID string, req ports.CreateCardRequest) (*entities.Card, error) {
	if _, _, err := s.access.EnsureAccess(ctx, boardID, requester); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("card name is required: %w", entities.ErrInvalidInput)
	}

	deadline, err := parseDeadline(req.Deadline)
	if err != nil {
		return nil, err
	}

	card := &entities.Card{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		Members:     entities.NormalizeMembers(req.Members),
		Priority:    req.Priority,
		Deadline:    deadline,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.cardRepo.Create(ctx, boardID, card); err != nil {
		return nil, fmt.Errorf("failed to create card: %w", err)
	}

	s.logger.Infow("Card created", "board_id", boardID, "card_id", card.ID)

	return card, nil
}

// GetCard retrieves a card on a board the requester can access.
func (s *CardService) GetCard(ctx context.Context, requester entities.UserID, boardID, cardID string) (*entities.Card, error) {
	if _, _, err := s.access.EnsureAccess(ctx, boardID, requester); err != nil {
		return nil, err
	}
	card, err := s.cardRepo.GetByID(ctx, boardID, cardID)
	if err != nil {
		return nil, err
	}
	return card, nil
}

// UpdateCard applies a partial patch to a card. A status change is a
// plain overwrite with no referential check against the board's columns;
// this is how optimistic card moves reconcile.
func (s *CardService) UpdateCard(ctx context.Context, requester entities.UserID, boardID, cardID string, req ports.UpdateCardRequest) (*entities.Card, error) {
	if _, _, err := s.access.EnsureAccess(ctx, boardID, requester); err != nil {
		return nil, err
	}
	card, err := s.cardRepo.GetByID(ctx, boardID, cardID)
	if err != nil {
		return nil, err
	}

	changed := false
	if req.Name != nil {
		card.Name = *req.Name
		changed = true
	}
	if req.Description != nil {
		card.Description = *req.Description
		changed = true
	}
	if req.Status != nil {
		card.Status = *req.Status
		changed = true
	}
	if req.Members != nil {
		card.Members = entities.NormalizeMembers(req.Members)
		changed = true
	}
	if req.Priority != nil {
		card.Priority = *req.Priority
		changed = true
	}
	if req.Deadline != nil {
		deadline, err := parseDeadline(req.Deadline)
		if err != nil {
			return nil, err
		}
		card.Deadline = deadline
		changed = true
	}

	if changed {
		now := time.Now().UTC()
		card.UpdatedAt = &now
		if err := s.cardRepo.Update(ctx, boardID, card); err != nil {
			return nil, fmt.Errorf("failed to update card: %w", err)
		}
	}

	return card, nil
}

// DeleteCard removes the card and all of its tasks in one transaction,
// tasks first. A failure after task removal began surfaces as a partial
// deletion so the caller knows to retry.
func (s *CardService) DeleteCard(ctx context.Context, requester entities.UserID, boardID, cardID string) error {
	if _, _, err := s.access.EnsureAccess(ctx, boardID, requester); err != nil {
		return err
	}
	if _, err := s.cardRepo.GetByID(ctx, boardID, cardID); err != nil {
		return err
	}

	err := s.uow.Run(ctx, func(repos ports.Repositories) error {
		if err := repos.Tasks.DeleteByCard(ctx, boardID, cardID); err != nil {
			return err
		}
		if err := repos.Cards.Delete(ctx, boardID, cardID); err != nil {
			return fmt.Errorf("%w: %w", entities.ErrPartialDeletion, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete card: %w", err)
	}

	s.logger.Infow("Card deleted", "board_id", boardID, "card_id", cardID)

	return nil
}
