package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/boardstack/core/internal/application/services"
	"github.com/boardstack/core/internal/domain/entities"
	"github.com/boardstack/core/internal/infrastructure/logger"
	"github.com/boardstack/core/internal/ports"
)

// TaskHandler handles task-related requests
type TaskHandler struct {
	taskService *services.TaskService
	logger      *logger.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService *services.TaskService, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		logger:      logger,
	}
}

// ListTasks returns all tasks under a card
func (h *TaskHandler) ListTasks(c echo.Context) error {
	tasks, err := h.taskService.ListTasks(c.Request().Context(), requesterID(c), c.Param("boardId"), c.Param("cardId"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, TaskListResponse{OK: true, Tasks: tasks})
}

// CreateTask creates a task under a card
func (h *TaskHandler) CreateTask(c echo.Context) error {
	var req ports.CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.taskService.CreateTask(c.Request().Context(), requesterID(c), c.Param("boardId"), c.Param("cardId"), req)
	if err != nil {
		h.logger.Errorw("Create task failed", "error", err, "board_id", c.Param("boardId"), "card_id", c.Param("cardId"))
		return toHTTPError(err)
	}

	return c.JSON(http.StatusCreated, TaskResponse{OK: true, Task: task})
}

// GetTask returns a single task
func (h *TaskHandler) GetTask(c echo.Context) error {
	task, err := h.taskService.GetTask(c.Request().Context(), requesterID(c), c.Param("boardId"), c.Param("cardId"), c.Param("taskId"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, TaskResponse{OK: true, Task: task})
}

// UpdateTask applies a partial patch to a task
func (h *TaskHandler) UpdateTask(c echo.Context) error {
	var req ports.UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.taskService.UpdateTask(c.Request().Context(), requesterID(c), c.Param("boardId"), c.Param("cardId"), c.Param("taskId"), req)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, TaskResponse{OK: true, Task: task})
}

// DeleteTask removes a task
func (h *TaskHandler) DeleteTask(c echo.Context) error {
	if err := h.taskService.DeleteTask(c.Request().Context(), requesterID(c), c.Param("boardId"), c.Param("cardId"), c.Param("taskId")); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, OKResponse{OK: true})
}

// AssignTask adds a member to the task's assigned set
func (h *TaskHandler) AssignTask(c echo.Context) error {
	member, err := h.bindMember(c)
	if err != nil {
		return err
	}

	task, err := h.taskService.AssignMember(c.Request().Context(), requesterID(c), c.Param("boardId"), c.Param("cardId"), c.Param("taskId"), member)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, TaskResponse{OK: true, Task: task})
}

// UnassignTask removes a member from the task's assigned set
func (h *TaskHandler) UnassignTask(c echo.Context) error {
	member, err := h.bindMember(c)
	if err != nil {
		return err
	}

	task, err := h.taskService.UnassignMember(c.Request().Context(), requesterID(c), c.Param("boardId"), c.Param("cardId"), c.Param("taskId"), member)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, TaskResponse{OK: true, Task: task})
}

func (h *TaskHandler) bindMember(c echo.Context) (entities.UserID, error) {
	var req ports.AssignTaskRequest
	if err := c.Bind(&req); err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if err := c.Validate(&req); err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	member := req.Member()
	if member == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "userId or email is required")
	}
	return member, nil
}
