package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/boardstack/core/internal/application/services"
	"github.com/boardstack/core/internal/infrastructure/logger"
	"github.com/boardstack/core/internal/ports"
)

// CardHandler handles card-related requests
type CardHandler struct {
	cardService *services.CardService
	logger      *logger.Logger
}

// NewCardHandler creates a new card handler
func NewCardHandler(cardService *services.CardService, logger *logger.Logger) *CardHandler {
	return &CardHandler{
		cardService: cardService,
		logger:      logger,
	}
}

// ListCards returns all cards on a board
func (h *CardHandler) ListCards(c echo.Context) error {
	cards, err := h.cardService.ListCards(c.Request().Context(), requesterID(c), c.Param("boardId"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, CardListResponse{OK: true, Cards: cards})
}

// ListCardsByMember returns the cards whose membership contains the given user
func (h *CardHandler) ListCardsByMember(c echo.Context) error {
	cards, err := h.cardService.ListCardsByMember(c.Request().Context(), requesterID(c), c.Param("boardId"), c.Param("userId"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, CardListResponse{OK: true, Cards: cards})
}

// CreateCard creates a card under a board
func (h *CardHandler) CreateCard(c echo.Context) error {
	var req ports.CreateCardRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	card, err := h.cardService.CreateCard(c.Request().Context(), requesterID(c), c.Param("boardId"), req)
	if err != nil {
		h.logger.Errorw("Create card failed", "error", err, "board_id", c.Param("boardId"))
		return toHTTPError(err)
	}

	return c.JSON(http.StatusCreated, CardResponse{OK: true, Card: card})
}

// GetCard returns a single card
func (h *CardHandler) GetCard(c echo.Context) error {
	card, err := h.cardService.GetCard(c.Request().Context(), requesterID(c), c.Param("boardId"), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, CardResponse{OK: true, Card: card})
}

// UpdateCard applies a partial patch to a card
func (h *CardHandler) UpdateCard(c echo.Context) error {
	var req ports.UpdateCardRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	card, err := h.cardService.UpdateCard(c.Request().Context(), requesterID(c), c.Param("boardId"), c.Param("id"), req)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, CardResponse{OK: true, Card: card})
}

// DeleteCard removes a card and its tasks
func (h *CardHandler) DeleteCard(c echo.Context) error {
	if err := h.cardService.DeleteCard(c.Request().Context(), requesterID(c), c.Param("boardId"), c.Param("id")); err != nil {
		h.logger.Errorw("Delete card failed", "error", err, "board_id", c.Param("boardId"), "card_id", c.Param("id"))
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, OKResponse{OK: true})
}
