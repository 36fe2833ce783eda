package ports

import (
	"context"
	"encoding/json"

	"github.com/boardstack/core/internal/domain/entities"
)

// Mailer delivers transactional mail. Delivery transport is outside the
// core; the default adapter only logs.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Request types

// CreateBoardRequest creates a board owned by the requester. Columns is
// left as raw JSON because clients send heterogeneous lists (objects,
// bare strings); normalization happens in the service.
type CreateBoardRequest struct {
	Title       string          `json:"title" validate:"required"`
	Description string          `json:"description" validate:"omitempty,max=2000"`
	Columns     json.RawMessage `json:"columns"`
}

// UpdateBoardRequest patches a board. Absent fields are left untouched;
// an empty patch is a no-op that still returns current state.
type UpdateBoardRequest struct {
	Title       *string         `json:"title" validate:"omitempty,min=1"`
	Description *string         `json:"description" validate:"omitempty,max=2000"`
	Members     []string        `json:"members"`
	Columns     json.RawMessage `json:"columns"`
}

// AddColumnRequest appends a column to a board. When ID is empty the id
// is derived from the title.
type AddColumnRequest struct {
	Title string `json:"title" validate:"required"`
	ID    string `json:"id" validate:"omitempty,max=100"`
}

// CreateCardRequest creates a card under a board.
type CreateCardRequest struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description" validate:"omitempty,max=2000"`
	Status      string   `json:"status"`
	Members     []string `json:"members"`
	Priority    string   `json:"priority"`
	Deadline    *string  `json:"deadline"`
}

// UpdateCardRequest patches a card. A nil field is left untouched.
type UpdateCardRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=1"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	Status      *string  `json:"status"`
	Members     []string `json:"members"`
	Priority    *string  `json:"priority"`
	Deadline    *string  `json:"deadline"`
}

// CreateTaskRequest creates a task under a card.
type CreateTaskRequest struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description" validate:"omitempty,max=2000"`
	Status      string   `json:"status"`
	OwnerID     string   `json:"ownerId"`
	Assigned    []string `json:"assigned"`
	Attachments []string `json:"attachments"`
}

// UpdateTaskRequest patches a task. A nil field is left untouched.
type UpdateTaskRequest struct {
	Title       *string  `json:"title" validate:"omitempty,min=1"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	Status      *string  `json:"status"`
	OwnerID     *string  `json:"ownerId"`
	Assigned    []string `json:"assigned"`
	Attachments []string `json:"attachments"`
}

// AssignTaskRequest identifies the member to assign or unassign. Either a
// canonical user id or a bare email is accepted.
type AssignTaskRequest struct {
	UserID string `json:"userId"`
	Email  string `json:"email" validate:"omitempty,email"`
}

// Member resolves the submitted identity, preferring UserID.
func (r AssignTaskRequest) Member() entities.UserID {
	if r.UserID != "" {
		return entities.NormalizeUserID(r.UserID)
	}
	return entities.NormalizeUserID(r.Email)
}

// CreateInviteRequest invites an email to a board.
type CreateInviteRequest struct {
	InviteToEmail string `json:"inviteToEmail" validate:"required,email"`
}

// AcceptInviteRequest accepts a pending invitation in the context of a
// board and card.
type AcceptInviteRequest struct {
	InvitationID string `json:"invitationId" validate:"required"`
}

// SignupRequest starts the email-code exchange.
type SignupRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// SigninRequest completes the email-code exchange.
type SigninRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,min=4,max=8"`
}
