package services

import (
	"context"
	"fmt"

	"github.com/boardstack/core/internal/domain/entities"
	"github.com/boardstack/core/internal/infrastructure/config"
	"github.com/boardstack/core/internal/ports"
)

// Role is the requester's standing on a board.
type Role int

const (
	RoleNone Role = iota
	RoleMember
	RoleOwner
)

// AccessEvaluator decides what a requester may do with a board and its
// descendants. Not-found is always reported before forbidden so the two
// outcomes never blur; the system does not attempt to hide existence.
type AccessEvaluator struct {
	boardRepo    ports.BoardRepository
	updatePolicy config.BoardUpdatePolicy
}

// NewAccessEvaluator creates a new access evaluator
func NewAccessEvaluator(boardRepo ports.BoardRepository, updatePolicy config.BoardUpdatePolicy) *AccessEvaluator {
	return &AccessEvaluator{boardRepo: boardRepo, updatePolicy: updatePolicy}
}

// Authorize evaluates the requester's role on the board. Ownership wins
// over membership; the owner never needs to appear in the members list.
func (e *AccessEvaluator) Authorize(board *entities.Board, requester entities.UserID) Role {
	if board.OwnerID == requester {
		return RoleOwner
	}
	if board.HasMember(requester) {
		return RoleMember
	}
	return RoleNone
}

// EnsureAccess loads the board and requires the requester to be owner or
// member. Returns ErrBoardNotFound when the board does not exist and
// ErrForbidden when the requester has no standing.
func (e *AccessEvaluator) EnsureAccess(ctx context.Context, boardID string, requester entities.UserID) (*entities.Board, Role, error) {
	board, err := e.boardRepo.GetByID(ctx, boardID)
	if err != nil {
		return nil, RoleNone, err
	}
	role := e.Authorize(board, requester)
	if role == RoleNone {
		return nil, RoleNone, fmt.Errorf("board %s: %w", boardID, entities.ErrForbidden)
	}
	return board, role, nil
}

// EnsureOwner loads the board and requires the requester to own it.
func (e *AccessEvaluator) EnsureOwner(ctx context.Context, boardID string, requester entities.UserID) (*entities.Board, error) {
	board, err := e.boardRepo.GetByID(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if e.Authorize(board, requester) != RoleOwner {
		return nil, fmt.Errorf("board %s: %w", boardID, entities.ErrForbidden)
	}
	return board, nil
}

// CanUpdateBoard applies the configured board-update policy. Owners may
// always update; members only under the relaxed policy.
func (e *AccessEvaluator) CanUpdateBoard(role Role) bool {
	switch role {
	case RoleOwner:
		return true
	case RoleMember:
		return e.updatePolicy == config.BoardUpdateOwnerOrMember
	default:
		return false
	}
}
