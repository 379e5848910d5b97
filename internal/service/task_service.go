package service

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"todoweb/internal/cache"
	dom "todoweb/internal/domain"
	"todoweb/internal/dto"
	"todoweb/internal/repo"

	"golang.org/x/sync/singleflight"
)

var ErrNotFound = errors.New("not found")

type TaskService struct {
	repo  repo.TaskRepo
	cache *cache.TaskCache
	log   *slog.Logger
	sf    singleflight.Group
	// gen counts cache invalidations. A list read that saw the counter
	// move while it was in flight must not populate the cache.
	gen atomic.Uint64
}

// NewTaskService creates a TaskService. If c is nil, caching is disabled.
func NewTaskService(r repo.TaskRepo, c *cache.TaskCache, log *slog.Logger) *TaskService {
	return &TaskService{repo: r, cache: c, log: log}
}

func (s *TaskService) List(ctx context.Context, f dom.Filter) ([]dom.Task, error) {
	if s.cache == nil {
		return s.repo.List(ctx, f)
	}
	v, err, _ := s.sf.Do(listFlightKey(f), func() (interface{}, error) {
		gen := s.gen.Load()
		if list, err := s.cache.GetList(ctx, f); err == nil && list != nil {
			return list, nil
		} else if err != nil {
			s.log.Warn("task cache read failed", "filter", f.Key(), "error", err)
		}
		list, err := s.repo.List(ctx, f)
		if err != nil {
			return nil, err
		}
		if s.gen.Load() != gen {
			return list, nil
		}
		if err := s.cache.SetList(ctx, f, list); err != nil {
			s.log.Warn("task cache write failed", "filter", f.Key(), "error", err)
		}
		if s.gen.Load() != gen {
			// A write landed between the check and SetList.
			s.dropCache(ctx)
		}
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]dom.Task), nil
}

func (s *TaskService) GetByID(ctx context.Context, id int64) (dom.Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	return t, mapErr(err)
}

// Create validates f and stores a new task. Invalid input returns a
// *dto.ValidationError and leaves the store untouched.
func (s *TaskService) Create(ctx context.Context, f dto.TaskForm) (dom.Task, error) {
	f, err := f.Validate()
	if err != nil {
		return dom.Task{}, err
	}
	t, err := s.repo.Create(ctx, f.Task)
	if err != nil {
		return dom.Task{}, err
	}
	s.invalidateCache(ctx)
	return t, nil
}

// Update replaces the text of task id. Validation runs before the lookup,
// so an invalid form never touches the store.
func (s *TaskService) Update(ctx context.Context, id int64, f dto.TaskForm) (dom.Task, error) {
	f, err := f.Validate()
	if err != nil {
		return dom.Task{}, err
	}
	t, err := s.repo.Update(ctx, id, f.Task)
	if err != nil {
		return dom.Task{}, mapErr(err)
	}
	s.invalidateCache(ctx)
	return t, nil
}

// Complete marks task id as completed. Completing a completed task is a no-op.
func (s *TaskService) Complete(ctx context.Context, id int64) (dom.Task, error) {
	t, err := s.repo.MarkCompleted(ctx, id)
	if err != nil {
		return dom.Task{}, mapErr(err)
	}
	s.invalidateCache(ctx)
	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapErr(err)
	}
	s.invalidateCache(ctx)
	return nil
}

// DeleteCompleted removes every completed task and returns how many went.
func (s *TaskService) DeleteCompleted(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteCompleted(ctx)
	if err != nil {
		return 0, err
	}
	s.invalidateCache(ctx)
	return n, nil
}

// DeleteAll empties the store and returns how many tasks went.
func (s *TaskService) DeleteAll(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	s.invalidateCache(ctx)
	return n, nil
}

func (s *TaskService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// invalidateCache runs after every write. Reads already in flight keep
// their result but neither cache it nor hand it to later callers.
func (s *TaskService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	s.gen.Add(1)
	for _, f := range listFilters {
		s.sf.Forget(listFlightKey(f))
	}
	s.dropCache(ctx)
}

func (s *TaskService) dropCache(ctx context.Context) {
	if err := s.cache.InvalidateAll(ctx); err != nil {
		s.log.Warn("task cache invalidation failed", "error", err)
	}
}

var listFilters = []dom.Filter{
	{},
	{Completed: boolPtr(true)},
	{Completed: boolPtr(false)},
}

func listFlightKey(f dom.Filter) string { return "list:" + f.Key() }

func boolPtr(b bool) *bool { return &b }

func mapErr(err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
