package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/boardstack/core/internal/application/services"
	"github.com/boardstack/core/internal/infrastructure/logger"
	"github.com/boardstack/core/internal/ports"
)

// InviteHandler handles invitation-related requests
type InviteHandler struct {
	inviteService *services.InviteService
	logger        *logger.Logger
}

// NewInviteHandler creates a new invite handler
func NewInviteHandler(inviteService *services.InviteService, logger *logger.Logger) *InviteHandler {
	return &InviteHandler{
		inviteService: inviteService,
		logger:        logger,
	}
}

// CreateInvite invites an email to a board
func (h *InviteHandler) CreateInvite(c echo.Context) error {
	var req ports.CreateInviteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	inv, err := h.inviteService.CreateInvite(c.Request().Context(), requesterID(c), c.Param("id"), req.InviteToEmail)
	if err != nil {
		h.logger.Errorw("Create invite failed", "error", err, "board_id", c.Param("id"))
		return toHTTPError(err)
	}

	return c.JSON(http.StatusCreated, InvitationResponse{OK: true, Invitation: inv})
}

// AcceptInvite accepts a pending invitation on behalf of the caller.
// The verified email from the bearer token decides eligibility; the
// invitation id in the body is checked against the path's board.
func (h *InviteHandler) AcceptInvite(c echo.Context) error {
	var req ports.AcceptInviteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	err := h.inviteService.AcceptInvite(c.Request().Context(), requesterEmail(c), c.Param("boardId"), c.Param("cardId"), req.InvitationID)
	if err != nil {
		h.logger.Warnw("Accept invite failed", "error", err, "board_id", c.Param("boardId"), "invitation_id", req.InvitationID)
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, OKResponse{OK: true})
}
