package repo

import (
	"context"
	"errors"

	dom "todoweb/internal/domain"
)

// ErrNotFound is returned when no task has the requested id.
var ErrNotFound = errors.New("task not found")

// TaskRepo is the durable store for tasks. List returns tasks in id
// order, which is creation order for every implementation.
type TaskRepo interface {
	List(ctx context.Context, f dom.Filter) ([]dom.Task, error)
	GetByID(ctx context.Context, id int64) (dom.Task, error)
	Create(ctx context.Context, text string) (dom.Task, error)
	Update(ctx context.Context, id int64, text string) (dom.Task, error)
	MarkCompleted(ctx context.Context, id int64) (dom.Task, error)
	Delete(ctx context.Context, id int64) error
	DeleteCompleted(ctx context.Context) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
}
