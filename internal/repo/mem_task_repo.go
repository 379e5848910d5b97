package repo

import (
	"context"
	"sort"
	"sync"

	dom "todoweb/internal/domain"
)

// MemTaskRepo keeps tasks in process memory. Used with DB_DRIVER=memory
// and in tests.
type MemTaskRepo struct {
	mu     sync.Mutex
	nextID int64
	tasks  map[int64]dom.Task
}

func NewMemTaskRepo() *MemTaskRepo {
	return &MemTaskRepo{nextID: 1, tasks: make(map[int64]dom.Task)}
}

func (r *MemTaskRepo) List(_ context.Context, f dom.Filter) ([]dom.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := []dom.Task{}
	for _, t := range r.tasks {
		if f.Matches(t) {
			list = append(list, t)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (r *MemTaskRepo) GetByID(_ context.Context, id int64) (dom.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return dom.Task{}, ErrNotFound
	}
	return t, nil
}

func (r *MemTaskRepo) Create(_ context.Context, text string) (dom.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := dom.Task{ID: r.nextID, Text: text}
	r.tasks[t.ID] = t
	r.nextID++
	return t, nil
}

func (r *MemTaskRepo) Update(_ context.Context, id int64, text string) (dom.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return dom.Task{}, ErrNotFound
	}
	t.Text = text
	r.tasks[id] = t
	return t, nil
}

func (r *MemTaskRepo) MarkCompleted(_ context.Context, id int64) (dom.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return dom.Task{}, ErrNotFound
	}
	t.Completed = true
	r.tasks[id] = t
	return t, nil
}

func (r *MemTaskRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *MemTaskRepo) DeleteCompleted(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, t := range r.tasks {
		if t.Completed {
			delete(r.tasks, id)
			n++
		}
	}
	return n, nil
}

func (r *MemTaskRepo) DeleteAll(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := int64(len(r.tasks))
	r.tasks = make(map[int64]dom.Task)
	return n, nil
}

func (r *MemTaskRepo) Ping(context.Context) error { return nil }
