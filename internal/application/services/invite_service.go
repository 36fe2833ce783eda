package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/boardstack/core/internal/domain/entities"
	"github.com/boardstack/core/internal/infrastructure/logger"
	"github.com/boardstack/core/internal/ports"
)

// InviteService creates, looks up and accepts invitations. Accept is the
// one operation that touches three aggregates at once; it runs inside a
// unit of work so the invitation flip, the board membership and the card
// membership land together or not at all.
type InviteService struct {
	inviteRepo ports.InvitationRepository
	uow        ports.UnitOfWork
	access     *AccessEvaluator
	logger     *logger.Logger
}

// NewInviteService creates a new invite service
func NewInviteService(inviteRepo ports.InvitationRepository, uow ports.UnitOfWork, access *AccessEvaluator, logger *logger.Logger) *InviteService {
	return &InviteService{
		inviteRepo: inviteRepo,
		uow:        uow,
		access:     access,
		logger:     logger,
	}
}

// CreateInvite invites an email to a board. Only the board owner may
// invite; the target email is lower-cased before storage.
func (s *InviteService) CreateInvite(ctx context.Context, requester entities.UserID, boardID, toEmail string) (*entities.Invitation, error) {
	toEmail = strings.ToLower(strings.TrimSpace(toEmail))
	if toEmail == "" {
		return nil, fmt.Errorf("invite email is required: %w", entities.ErrInvalidInput)
	}

	if _, err := s.access.EnsureOwner(ctx, boardID, requester); err != nil {
		return nil, err
	}

	inv := &entities.Invitation{
		ID:            uuid.NewString(),
		BoardID:       boardID,
		InviteFrom:    requester,
		InviteToEmail: toEmail,
		Status:        entities.InviteStatusPending,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.inviteRepo.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	s.logger.Infow("Invitation created", "invitation_id", inv.ID, "board_id", boardID, "invite_to", toEmail)

	return inv, nil
}

// AcceptInvite accepts a pending invitation on behalf of the verified
// requester email. The invitation must exist, belong to the path's
// board, still be pending, and name the requester. On success the
// invitation is marked accepted, the board gains the requester as a
// member, and so does the card when it exists — atomically.
func (s *InviteService) AcceptInvite(ctx context.Context, requesterEmail, boardID, cardID, invitationID string) error {
	if invitationID == "" {
		return fmt.Errorf("invitation id is required: %w", entities.ErrInvalidInput)
	}

	userID := entities.UserIDFromEmail(requesterEmail)

	err := s.uow.Run(ctx, func(repos ports.Repositories) error {
		inv, err := repos.Invitations.GetByID(ctx, invitationID)
		if err != nil {
			return err
		}
		if inv.BoardID != boardID {
			return fmt.Errorf("invitation %s: %w", invitationID, entities.ErrInviteBoardMismatch)
		}
		if !inv.IsPending() {
			return fmt.Errorf("invitation %s: %w", invitationID, entities.ErrInviteNotPending)
		}
		if !inv.IsFor(requesterEmail) {
			return fmt.Errorf("invitation %s: %w", invitationID, entities.ErrNotInvited)
		}

		board, err := repos.Boards.GetByID(ctx, boardID)
		if err != nil {
			return err
		}
		if board.AddMember(userID) {
			now := time.Now().UTC()
			board.UpdatedAt = &now
			if err := repos.Boards.Update(ctx, board); err != nil {
				return err
			}
		}

		if cardID != "" {
			card, err := repos.Cards.GetByID(ctx, boardID, cardID)
			switch {
			case errors.Is(err, entities.ErrCardNotFound):
				// The invite is still valid for the board alone.
			case err != nil:
				return err
			default:
				if card.AddMember(userID) {
					now := time.Now().UTC()
					card.UpdatedAt = &now
					if err := repos.Cards.Update(ctx, boardID, card); err != nil {
						return err
					}
				}
			}
		}

		now := time.Now().UTC()
		inv.Status = entities.InviteStatusAccepted
		inv.AcceptedAt = &now
		return repos.Invitations.Update(ctx, inv)
	})
	if err != nil {
		return err
	}

	s.logger.Infow("Invitation accepted", "invitation_id", invitationID, "board_id", boardID, "user", userID)

	return nil
}
