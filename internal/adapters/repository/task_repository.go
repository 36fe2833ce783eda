package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/boardstack/core/internal/domain/entities"
	"github.com/boardstack/core/internal/ports"
)

// TaskRepositoryImpl implements the TaskRepository interface on top of
// the document store.
type TaskRepositoryImpl struct {
	store *DocumentStore
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(store *DocumentStore) ports.TaskRepository {
	return &TaskRepositoryImpl{store: store}
}

func (r *TaskRepositoryImpl) Create(ctx context.Context, boardID, cardID string, task *entities.Task) error {
	if err := r.store.Put(ctx, taskPath(boardID, cardID, task.ID), task); err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepositoryImpl) GetByID(ctx context.Context, boardID, cardID, taskID string) (*entities.Task, error) {
	raw, err := r.store.Get(ctx, taskPath(boardID, cardID, taskID))
	if err != nil {
		if errors.Is(err, errNoDocument) {
			return nil, entities.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	var task entities.Task
	if err := json.Unmarshal(raw, &task); err != nil {
		return nil, fmt.Errorf("decode task: %w", err)
	}
	return &task, nil
}

func (r *TaskRepositoryImpl) Update(ctx context.Context, boardID, cardID string, task *entities.Task) error {
	if err := r.store.Put(ctx, taskPath(boardID, cardID, task.ID), task); err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

func (r *TaskRepositoryImpl) Delete(ctx context.Context, boardID, cardID, taskID string) error {
	if err := r.store.Delete(ctx, taskPath(boardID, cardID, taskID)); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

func (r *TaskRepositoryImpl) List(ctx context.Context, boardID, cardID string) ([]*entities.Task, error) {
	docs, err := r.store.ListChildren(ctx, cardPath(boardID, cardID)+"/task/")
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return decodeInto[entities.Task](docs)
}

func (r *TaskRepositoryImpl) DeleteByCard(ctx context.Context, boardID, cardID string) error {
	if err := r.store.DeletePrefix(ctx, cardPath(boardID, cardID)+"/task/"); err != nil {
		return fmt.Errorf("delete tasks by card: %w", err)
	}
	return nil
}

func (r *TaskRepositoryImpl) DeleteByBoard(ctx context.Context, boardID string) error {
	if err := r.store.DeleteMatching(ctx, boardPath(boardID)+"/card/", "/task/"); err != nil {
		return fmt.Errorf("delete tasks by board: %w", err)
	}
	return nil
}
