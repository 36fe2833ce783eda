package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/boardstack/core/internal/domain/entities"
	"github.com/boardstack/core/internal/infrastructure/logger"
	"github.com/boardstack/core/internal/ports"
)

// TaskService owns task lifecycle nested one level below cards, with
// idempotent set-based assignment.
type TaskService struct {
	taskRepo ports.TaskRepository
	cardRepo ports.CardRepository
	uow      ports.UnitOfWork
	access   *AccessEvaluator
	logger   *logger.Logger
}

// NewTaskService creates a new task service
func NewTaskService(taskRepo ports.TaskRepository, cardRepo ports.CardRepository, uow ports.UnitOfWork, access *AccessEvaluator, logger *logger.Logger) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		cardRepo: cardRepo,
		uow:      uow,
		access:   access,
		logger:   logger,
	}
}

// ListTasks retrieves all tasks under a card.
func (s *TaskService) ListTasks(ctx context.Context, requester entities.UserID, boardID, cardID string) ([]*entities.Task, error) {
	if _, _, err := s.access.EnsureAccess(ctx, boardID, requester); err != nil {
		return nil, err
	}
	tasks, err := s.taskRepo.List(ctx, boardID, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// CreateTask creates a task under an existing card. Owner and assigned
// identities are normalized before storage.
func (s *TaskService) CreateTask(ctx context.Context, requester entities.UserID, boardID, cardID string, req ports.CreateTaskRequest) (*entities.Task, error) {
	if _, _, err := s.access.EnsureAccess(ctx, boardID, requester); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("task title is required: %w", entities.ErrInvalidInput)
	}
	if _, err := s.cardRepo.GetByID(ctx, boardID, cardID); err != nil {
		return nil, err
	}

	attachments := req.Attachments
	if attachments == nil {
		attachments = []string{}
	}

	task := &entities.Task{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		OwnerID:     entities.NormalizeUserID(req.OwnerID),
		Assigned:    entities.NormalizeMembers(req.Assigned),
		Attachments: attachments,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.taskRepo.Create(ctx, boardID, cardID, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.Infow("Task created", "board_id", boardID, "card_id", cardID, "task_id", task.ID)

	return task, nil
}

// GetTask retrieves a task.
func (s *TaskService) GetTask(ctx context.Context, requester entities.UserID, boardID, cardID, taskID string) (*entities.Task, error) {
	if _, _, err := s.access.EnsureAccess(ctx, boardID, requester); err != nil {
		return nil, err
	}
	task, err := s.taskRepo.GetByID(ctx, boardID, cardID, taskID)
	if err != nil {
		return nil, err
	}
	return task, nil
}

// UpdateTask applies a partial patch to a task.
func (s *TaskService) UpdateTask(ctx context.Context, requester entities.UserID, boardID, cardID, taskID string, req ports.UpdateTaskRequest) (*entities.Task, error) {
	if _, _, err := s.access.EnsureAccess(ctx, boardID, requester); err != nil {
		return nil, err
	}
	task, err := s.taskRepo.GetByID(ctx, boardID, cardID, taskID)
	if err != nil {
		return nil, err
	}

	changed := false
	if req.Title != nil {
		task.Title = *req.Title
		changed = true
	}
	if req.Description != nil {
		task.Description = *req.Description
		changed = true
	}
	if req.Status != nil {
		task.Status = *req.Status
		changed = true
	}
	if req.OwnerID != nil {
		task.OwnerID = entities.NormalizeUserID(*req.OwnerID)
		changed = true
	}
	if req.Assigned != nil {
		task.Assigned = entities.NormalizeMembers(req.Assigned)
		changed = true
	}
	if req.Attachments != nil {
		task.Attachments = req.Attachments
		changed = true
	}

	if changed {
		now := time.Now().UTC()
		task.UpdatedAt = &now
		if err := s.taskRepo.Update(ctx, boardID, cardID, task); err != nil {
			return nil, fmt.Errorf("failed to update task: %w", err)
		}
	}

	return task, nil
}

// DeleteTask removes a task.
func (s *TaskService) DeleteTask(ctx context.Context, requester entities.UserID, boardID, cardID, taskID string) error {
	if _, _, err := s.access.EnsureAccess(ctx, boardID, requester); err != nil {
		return err
	}
	if err := s.taskRepo.Delete(ctx, boardID, cardID, taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// AssignMember adds a member to the task's assigned set. The operation
// is an idempotent set union executed read-modify-write inside a
// transaction, so concurrent assignments neither duplicate entries nor
// clobber each other.
func (s *TaskService) AssignMember(ctx context.Context, requester entities.UserID, boardID, cardID, taskID string, member entities.UserID) (*entities.Task, error) {
	return s.mutateAssigned(ctx, requester, boardID, cardID, taskID, member, (*entities.Task).Assign)
}

// UnassignMember removes a member from the task's assigned set.
// Unassigning an absent member is a no-op.
func (s *TaskService) UnassignMember(ctx context.Context, requester entities.UserID, boardID, cardID, taskID string, member entities.UserID) (*entities.Task, error) {
	return s.mutateAssigned(ctx, requester, boardID, cardID, taskID, member, (*entities.Task).Unassign)
}

func (s *TaskService) mutateAssigned(ctx context.Context, requester entities.UserID, boardID, cardID, taskID string, member entities.UserID, mutate func(*entities.Task, entities.UserID) bool) (*entities.Task, error) {
	if member == "" {
		return nil, fmt.Errorf("member identity is required: %w", entities.ErrInvalidInput)
	}
	if _, _, err := s.access.EnsureAccess(ctx, boardID, requester); err != nil {
		return nil, err
	}

	var task *entities.Task
	err := s.uow.Run(ctx, func(repos ports.Repositories) error {
		var err error
		task, err = repos.Tasks.GetByID(ctx, boardID, cardID, taskID)
		if err != nil {
			return err
		}
		if !mutate(task, member) {
			return nil
		}
		now := time.Now().UTC()
		task.UpdatedAt = &now
		return repos.Tasks.Update(ctx, boardID, cardID, task)
	})
	if err != nil {
		return nil, err
	}

	return task, nil
}
