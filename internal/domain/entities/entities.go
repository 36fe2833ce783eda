package entities

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Common errors
var (
	ErrBoardNotFound       = errors.New("board not found")
	ErrCardNotFound        = errors.New("card not found")
	ErrTaskNotFound        = errors.New("task not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrInviteNotFound      = errors.New("invitation not found")
	ErrForbidden           = errors.New("forbidden")
	ErrNotInvited          = errors.New("requester is not the invited identity")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInviteNotPending    = errors.New("invitation is not pending")
	ErrInviteBoardMismatch = errors.New("invitation does not belong to this board")
	ErrPartialDeletion     = errors.New("cascading delete partially applied")
	ErrStoreUnavailable    = errors.New("document store unavailable")
)

// UserID is the canonical identity of a user, derived from an email
// address: "user:<lowercased-email>". A value that carries neither the
// prefix nor an "@" is passed through untouched so opaque external ids
// keep working.
type UserID string

// NormalizeUserID maps any of the accepted identity spellings onto the
// canonical form. The same function is applied at every ingress boundary:
// membership arrays, ownerId, assigned sets and invite matching.
func NormalizeUserID(idOrEmail string) UserID {
	s := strings.TrimSpace(idOrEmail)
	if s == "" {
		return ""
	}
	if rest, ok := strings.CutPrefix(s, "user:"); ok {
		return UserID("user:" + strings.ToLower(rest))
	}
	if strings.Contains(s, "@") {
		return UserID("user:" + strings.ToLower(s))
	}
	return UserID(s)
}

// UserIDFromEmail builds the canonical identity for a verified email.
func UserIDFromEmail(email string) UserID {
	return UserID("user:" + strings.ToLower(strings.TrimSpace(email)))
}

// NormalizeMembers normalizes a raw membership list into a duplicate-free
// list of canonical identities, preserving first-seen order.
func NormalizeMembers(raw []string) []UserID {
	out := make([]UserID, 0, len(raw))
	seen := make(map[UserID]struct{}, len(raw))
	for _, m := range raw {
		id := NormalizeUserID(m)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Column is a named ordered bucket that a card's status references.
type Column struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// DefaultColumns returns the system default column list. A board never
// resolves to an empty column list; this is the fallback.
func DefaultColumns() []Column {
	return []Column{
		{ID: "todo", Title: "To do"},
		{ID: "doing", Title: "In progress"},
		{ID: "review", Title: "Review"},
		{ID: "done", Title: "Done"},
	}
}

// NormalizeColumns accepts the heterogeneous column input clients send:
// column objects, bare strings, or malformed entries. Bare strings become
// {id: s, title: s}; entries without a usable id are dropped. A missing,
// non-list or empty-after-normalization input yields the default list.
func NormalizeColumns(input any) []Column {
	raw, ok := input.([]any)
	if !ok {
		if cols, ok := input.([]Column); ok {
			if len(cols) == 0 {
				return DefaultColumns()
			}
			return cols
		}
		return DefaultColumns()
	}
	out := make([]Column, 0, len(raw))
	for _, item := range raw {
		switch v := item.(type) {
		case string:
			if v != "" {
				out = append(out, Column{ID: v, Title: v})
			}
		case map[string]any:
			id, _ := v["id"].(string)
			if id == "" {
				continue
			}
			title, _ := v["title"].(string)
			if title == "" {
				title = id
			}
			out = append(out, Column{ID: id, Title: title})
		case Column:
			if v.ID != "" {
				if v.Title == "" {
					v.Title = v.ID
				}
				out = append(out, v)
			}
		}
	}
	if len(out) == 0 {
		return DefaultColumns()
	}
	return out
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// SlugifyColumnID derives a column id from its title: lower-case,
// non-alphanumeric runs collapsed to single hyphens, leading and trailing
// hyphens stripped. Returns "" when nothing survives; callers fall back
// to a time-based id.
func SlugifyColumnID(title string) string {
	slug := nonAlnum.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(slug, "-")
}

// TimeBasedColumnID is the fallback id for titles that slugify to nothing.
func TimeBasedColumnID(now time.Time) string {
	return fmt.Sprintf("col-%d", now.UnixMilli())
}

// Board is the top-level workspace. The owner has implicit full access and
// is never required to appear in Members.
type Board struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	OwnerID     UserID     `json:"ownerId"`
	Members     []UserID   `json:"members"`
	Columns     []Column   `json:"columns"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// HasMember reports whether the identity is present in Members. The owner
// is not implicitly a member; ownership is checked separately.
func (b *Board) HasMember(id UserID) bool {
	for _, m := range b.Members {
		if m == id {
			return true
		}
	}
	return false
}

// AddMember appends the identity to Members if absent. Reports whether
// the set changed.
func (b *Board) AddMember(id UserID) bool {
	if id == "" || b.HasMember(id) {
		return false
	}
	b.Members = append(b.Members, id)
	return true
}

// ColumnsOrDefault backfills the default list when the stored column list
// is empty. Read paths always go through this.
func (b *Board) ColumnsOrDefault() []Column {
	if len(b.Columns) == 0 {
		return DefaultColumns()
	}
	return b.Columns
}

// HasColumnID reports whether a column with the given id exists.
func (b *Board) HasColumnID(id string) bool {
	for _, c := range b.Columns {
		if c.ID == id {
			return true
		}
	}
	return false
}

// Card is a work item on a board. Status references a column id on the
// parent board; referential integrity is not enforced at write time, an
// orphaned status simply renders outside any visible column.
type Card struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status,omitempty"`
	Members     []UserID   `json:"members"`
	Priority    string     `json:"priority,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// HasMember reports membership-set containment on the canonical identity.
func (c *Card) HasMember(id UserID) bool {
	for _, m := range c.Members {
		if m == id {
			return true
		}
	}
	return false
}

// AddMember appends the identity if absent. Reports whether the set changed.
func (c *Card) AddMember(id UserID) bool {
	if id == "" || c.HasMember(id) {
		return false
	}
	c.Members = append(c.Members, id)
	return true
}

// Task is a sub-item of a card, independently assignable to members.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status,omitempty"`
	OwnerID     UserID     `json:"ownerId,omitempty"`
	Assigned    []UserID   `json:"assigned"`
	Attachments []string   `json:"attachments"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// IsAssigned reports whether the identity is in the assigned set.
func (t *Task) IsAssigned(id UserID) bool {
	for _, m := range t.Assigned {
		if m == id {
			return true
		}
	}
	return false
}

// Assign adds the identity to the assigned set. Assigning an already
// present member is a no-op; reports whether the set changed.
func (t *Task) Assign(id UserID) bool {
	if id == "" || t.IsAssigned(id) {
		return false
	}
	t.Assigned = append(t.Assigned, id)
	return true
}

// Unassign removes the identity from the assigned set. Removing an absent
// member is a no-op; reports whether the set changed.
func (t *Task) Unassign(id UserID) bool {
	for i, m := range t.Assigned {
		if m == id {
			t.Assigned = append(t.Assigned[:i], t.Assigned[i+1:]...)
			return true
		}
	}
	return false
}

// InviteStatus is the invitation lifecycle state.
type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "pending"
	InviteStatusAccepted InviteStatus = "accepted"
)

// Invitation grants board (and optionally card) membership to an invited
// email. It transitions exactly once, pending -> accepted, and is
// immutable afterward; a fresh invitation must be created to re-invite.
type Invitation struct {
	ID            string       `json:"id"`
	BoardID       string       `json:"boardId"`
	InviteFrom    UserID       `json:"inviteFrom"`
	InviteToEmail string       `json:"inviteToEmail"`
	Status        InviteStatus `json:"status"`
	CreatedAt     time.Time    `json:"createdAt"`
	AcceptedAt    *time.Time   `json:"acceptedAt,omitempty"`
}

// IsPending reports whether the invitation is still actionable.
func (i *Invitation) IsPending() bool {
	return i.Status == InviteStatusPending
}

// IsFor reports whether the given email matches the invited identity,
// case-insensitively.
func (i *Invitation) IsFor(email string) bool {
	return strings.EqualFold(strings.TrimSpace(email), i.InviteToEmail)
}

// User is an account document keyed by its canonical identity. The
// sign-in code is stored hashed and expires; both fields are cleared on a
// successful sign-in.
type User struct {
	ID            UserID     `json:"id"`
	Email         string     `json:"email"`
	CodeHash      string     `json:"codeHash,omitempty"`
	CodeExpiresAt *time.Time `json:"codeExpiresAt,omitempty"`
	LastSignIn    *time.Time `json:"lastSignIn,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
}
