package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/boardstack/core/internal/application/services"
	"github.com/boardstack/core/internal/domain/entities"
	"github.com/boardstack/core/internal/infrastructure/logger"
	"github.com/boardstack/core/internal/ports"
)

// AuthHandler handles the email-code exchange endpoints
type AuthHandler struct {
	authService *services.AuthService
	logger      *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Signup requests a one-time sign-in code for an email
func (h *AuthHandler) Signup(c echo.Context) error {
	var req ports.SignupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.authService.Signup(c.Request().Context(), req.Email); err != nil {
		h.logger.Errorw("Signup failed", "error", err, "email", req.Email)
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, OKResponse{OK: true})
}

// Signin exchanges a one-time code for a bearer token
func (h *AuthHandler) Signin(c echo.Context) error {
	var req ports.SigninRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token, err := h.authService.Signin(c.Request().Context(), req.Email, req.Code)
	if err != nil {
		h.logger.Warnw("Signin failed", "error", err, "email", req.Email)
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, TokenResponse{OK: true, Token: token})
}

// Utility functions and helper types

// requesterEmail returns the verified email the auth middleware stored.
func requesterEmail(c echo.Context) string {
	if email, ok := c.Get("user_email").(string); ok {
		return email
	}
	return ""
}

// requesterID returns the canonical identity of the verified caller.
func requesterID(c echo.Context) entities.UserID {
	return entities.UserIDFromEmail(requesterEmail(c))
}

// toHTTPError resolves the domain error taxonomy into HTTP status codes.
func toHTTPError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, entities.ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, entities.ErrForbidden), errors.Is(err, entities.ErrNotInvited):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, entities.ErrBoardNotFound),
		errors.Is(err, entities.ErrCardNotFound),
		errors.Is(err, entities.ErrTaskNotFound),
		errors.Is(err, entities.ErrInviteNotFound),
		errors.Is(err, entities.ErrUserNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, entities.ErrInviteNotPending), errors.Is(err, entities.ErrInviteBoardMismatch):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrMailDelivery):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	case errors.Is(err, entities.ErrPartialDeletion), errors.Is(err, entities.ErrStoreUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
}

// Response types

type OKResponse struct {
	OK bool `json:"ok"`
}

type TokenResponse struct {
	OK    bool   `json:"ok"`
	Token string `json:"token"`
}

type BoardResponse struct {
	OK    bool            `json:"ok"`
	Board *entities.Board `json:"board"`
}

type BoardListResponse struct {
	OK     bool              `json:"ok"`
	Boards []*entities.Board `json:"boards"`
}

type CardResponse struct {
	OK   bool           `json:"ok"`
	Card *entities.Card `json:"card"`
}

type CardListResponse struct {
	OK    bool             `json:"ok"`
	Cards []*entities.Card `json:"cards"`
}

type TaskResponse struct {
	OK   bool           `json:"ok"`
	Task *entities.Task `json:"task"`
}

type TaskListResponse struct {
	OK    bool             `json:"ok"`
	Tasks []*entities.Task `json:"tasks"`
}

type InvitationResponse struct {
	OK         bool                 `json:"ok"`
	Invitation *entities.Invitation `json:"invitation"`
}
