package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/boardstack/core/internal/application/services"
	"github.com/boardstack/core/internal/infrastructure/logger"
	"github.com/boardstack/core/internal/ports"
)

// BoardHandler handles board-related requests
type BoardHandler struct {
	boardService *services.BoardService
	logger       *logger.Logger
}

// NewBoardHandler creates a new board handler
func NewBoardHandler(boardService *services.BoardService, logger *logger.Logger) *BoardHandler {
	return &BoardHandler{
		boardService: boardService,
		logger:       logger,
	}
}

// ListBoards returns the requester's own boards
// @Summary List boards
// @Tags boards
// @Produce json
// @Success 200 {object} BoardListResponse
// @Security BearerAuth
// @Router /boards [get]
func (h *BoardHandler) ListBoards(c echo.Context) error {
	boards, err := h.boardService.ListBoards(c.Request().Context(), requesterID(c))
	if err != nil {
		h.logger.Errorw("List boards failed", "error", err)
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, BoardListResponse{OK: true, Boards: boards})
}

// CreateBoard creates a board owned by the requester
// @Summary Create board
// @Tags boards
// @Accept json
// @Produce json
// @Param request body ports.CreateBoardRequest true "Board"
// @Success 201 {object} BoardResponse
// @Security BearerAuth
// @Router /boards [post]
func (h *BoardHandler) CreateBoard(c echo.Context) error {
	var req ports.CreateBoardRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	board, err := h.boardService.CreateBoard(c.Request().Context(), requesterID(c), req)
	if err != nil {
		h.logger.Errorw("Create board failed", "error", err)
		return toHTTPError(err)
	}

	return c.JSON(http.StatusCreated, BoardResponse{OK: true, Board: board})
}

// GetBoard returns a board the requester may access
func (h *BoardHandler) GetBoard(c echo.Context) error {
	board, err := h.boardService.GetBoard(c.Request().Context(), requesterID(c), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, BoardResponse{OK: true, Board: board})
}

// UpdateBoard applies a partial patch to a board
func (h *BoardHandler) UpdateBoard(c echo.Context) error {
	var req ports.UpdateBoardRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	board, err := h.boardService.UpdateBoard(c.Request().Context(), requesterID(c), c.Param("id"), req)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, BoardResponse{OK: true, Board: board})
}

// AddColumn appends a column to a board
func (h *BoardHandler) AddColumn(c echo.Context) error {
	var req ports.AddColumnRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	board, err := h.boardService.AddColumn(c.Request().Context(), requesterID(c), c.Param("id"), req)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, BoardResponse{OK: true, Board: board})
}

// DeleteBoard removes a board and all of its descendants
func (h *BoardHandler) DeleteBoard(c echo.Context) error {
	if err := h.boardService.DeleteBoard(c.Request().Context(), requesterID(c), c.Param("id")); err != nil {
		h.logger.Errorw("Delete board failed", "error", err, "board_id", c.Param("id"))
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, OKResponse{OK: true})
}
