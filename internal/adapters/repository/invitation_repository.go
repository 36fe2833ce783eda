package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/boardstack/core/internal/domain/entities"
	"github.com/boardstack/core/internal/ports"
)

// InvitationRepositoryImpl implements the InvitationRepository interface
// on top of the document store.
type InvitationRepositoryImpl struct {
	store *DocumentStore
}

// NewInvitationRepository creates a new invitation repository
func NewInvitationRepository(store *DocumentStore) ports.InvitationRepository {
	return &InvitationRepositoryImpl{store: store}
}

func (r *InvitationRepositoryImpl) Create(ctx context.Context, inv *entities.Invitation) error {
	if err := r.store.Put(ctx, invitationPath(inv.ID), inv); err != nil {
		return fmt.Errorf("create invitation: %w", err)
	}
	return nil
}

func (r *InvitationRepositoryImpl) GetByID(ctx context.Context, id string) (*entities.Invitation, error) {
	raw, err := r.store.Get(ctx, invitationPath(id))
	if err != nil {
		if errors.Is(err, errNoDocument) {
			return nil, entities.ErrInviteNotFound
		}
		return nil, fmt.Errorf("get invitation: %w", err)
	}
	var inv entities.Invitation
	if err := json.Unmarshal(raw, &inv); err != nil {
		return nil, fmt.Errorf("decode invitation: %w", err)
	}
	return &inv, nil
}

func (r *InvitationRepositoryImpl) Update(ctx context.Context, inv *entities.Invitation) error {
	if err := r.store.Put(ctx, invitationPath(inv.ID), inv); err != nil {
		return fmt.Errorf("update invitation: %w", err)
	}
	return nil
}

func (r *InvitationRepositoryImpl) DeleteByBoard(ctx context.Context, boardID string) error {
	if err := r.store.DeleteWhereField(ctx, "invitation/", "boardId", boardID); err != nil {
		return fmt.Errorf("delete invitations by board: %w", err)
	}
	return nil
}
