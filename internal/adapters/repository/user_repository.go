package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/boardstack/core/internal/domain/entities"
	"github.com/boardstack/core/internal/ports"
)

// UserRepositoryImpl implements the UserRepository interface on top of
// the document store. User documents are keyed by the canonical identity.
type UserRepositoryImpl struct {
	store *DocumentStore
}

// NewUserRepository creates a new user repository
func NewUserRepository(store *DocumentStore) ports.UserRepository {
	return &UserRepositoryImpl{store: store}
}

func (r *UserRepositoryImpl) Upsert(ctx context.Context, user *entities.User) error {
	if err := r.store.Put(ctx, userPath(string(user.ID)), user); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (r *UserRepositoryImpl) GetByID(ctx context.Context, id entities.UserID) (*entities.User, error) {
	raw, err := r.store.Get(ctx, userPath(string(id)))
	if err != nil {
		if errors.Is(err, errNoDocument) {
			return nil, entities.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	var user entities.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &user, nil
}
