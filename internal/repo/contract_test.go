package repo_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	dom "todoweb/internal/domain"
	"todoweb/internal/repo"
)

func boolPtr(b bool) *bool { return &b }

// seed creates tasks in order and completes the ones flagged true.
func seed(t *testing.T, r repo.TaskRepo, tasks ...dom.Task) []dom.Task {
	t.Helper()
	ctx := context.Background()
	out := make([]dom.Task, 0, len(tasks))
	for _, want := range tasks {
		created, err := r.Create(ctx, want.Text)
		if err != nil {
			t.Fatalf("Create(%q): %v", want.Text, err)
		}
		if want.Completed {
			created, err = r.MarkCompleted(ctx, created.ID)
			if err != nil {
				t.Fatalf("MarkCompleted(%d): %v", created.ID, err)
			}
		}
		out = append(out, created)
	}
	return out
}

func texts(list []dom.Task) []string {
	out := make([]string, len(list))
	for i, t := range list {
		out[i] = t.Text
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// testTaskRepo runs the behaviour every TaskRepo must share. newRepo must
// return an empty store.
func testTaskRepo(t *testing.T, newRepo func(t *testing.T) repo.TaskRepo) {
	ctx := context.Background()

	t.Run("CreateThenList", func(t *testing.T) {
		r := newRepo(t)
		created, err := r.Create(ctx, "buy milk")
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if created.ID <= 0 {
			t.Errorf("Create: id = %d, want > 0", created.ID)
		}
		if created.Completed {
			t.Error("Create: new task is completed")
		}
		list, err := r.List(ctx, dom.Filter{})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(list) != 1 || list[0] != created {
			t.Errorf("List = %+v, want [%+v]", list, created)
		}
	})

	t.Run("EmptyListIsNotNil", func(t *testing.T) {
		r := newRepo(t)
		list, err := r.List(ctx, dom.Filter{})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if list == nil || len(list) != 0 {
			t.Errorf("List = %#v, want empty non-nil slice", list)
		}
	})

	t.Run("ListInCreationOrder", func(t *testing.T) {
		r := newRepo(t)
		seed(t, r, dom.Task{Text: "a"}, dom.Task{Text: "b"}, dom.Task{Text: "c"})
		list, err := r.List(ctx, dom.Filter{})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if got := texts(list); !equalStrings(got, []string{"a", "b", "c"}) {
			t.Errorf("List order = %v, want [a b c]", got)
		}
	})

	t.Run("ListFilter", func(t *testing.T) {
		r := newRepo(t)
		seed(t, r,
			dom.Task{Text: "one"},
			dom.Task{Text: "two", Completed: true},
			dom.Task{Text: "three"},
		)
		active, err := r.List(ctx, dom.Filter{Completed: boolPtr(false)})
		if err != nil {
			t.Fatalf("List(active): %v", err)
		}
		if got := texts(active); !equalStrings(got, []string{"one", "three"}) {
			t.Errorf("List(active) = %v, want [one three]", got)
		}
		done, err := r.List(ctx, dom.Filter{Completed: boolPtr(true)})
		if err != nil {
			t.Fatalf("List(completed): %v", err)
		}
		if got := texts(done); !equalStrings(got, []string{"two"}) {
			t.Errorf("List(completed) = %v, want [two]", got)
		}
	})

	t.Run("GetByID", func(t *testing.T) {
		r := newRepo(t)
		tasks := seed(t, r, dom.Task{Text: "x"})
		got, err := r.GetByID(ctx, tasks[0].ID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if got != tasks[0] {
			t.Errorf("GetByID = %+v, want %+v", got, tasks[0])
		}
		if _, err := r.GetByID(ctx, tasks[0].ID+100); !errors.Is(err, repo.ErrNotFound) {
			t.Errorf("GetByID(missing) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("UpdateKeepsIDAndCompletion", func(t *testing.T) {
		r := newRepo(t)
		tasks := seed(t, r, dom.Task{Text: "old", Completed: true})
		got, err := r.Update(ctx, tasks[0].ID, "new")
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		want := dom.Task{ID: tasks[0].ID, Text: "new", Completed: true}
		if got != want {
			t.Errorf("Update = %+v, want %+v", got, want)
		}
		stored, err := r.GetByID(ctx, tasks[0].ID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if stored != want {
			t.Errorf("stored = %+v, want %+v", stored, want)
		}
		if _, err := r.Update(ctx, tasks[0].ID+100, "x"); !errors.Is(err, repo.ErrNotFound) {
			t.Errorf("Update(missing) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("MarkCompletedIsIdempotent", func(t *testing.T) {
		r := newRepo(t)
		tasks := seed(t, r, dom.Task{Text: "pay bills"})
		for i := 0; i < 2; i++ {
			got, err := r.MarkCompleted(ctx, tasks[0].ID)
			if err != nil {
				t.Fatalf("MarkCompleted #%d: %v", i+1, err)
			}
			if !got.Completed {
				t.Errorf("MarkCompleted #%d: completed = false", i+1)
			}
		}
		if _, err := r.MarkCompleted(ctx, tasks[0].ID+100); !errors.Is(err, repo.ErrNotFound) {
			t.Errorf("MarkCompleted(missing) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		r := newRepo(t)
		tasks := seed(t, r, dom.Task{Text: "a"}, dom.Task{Text: "b"})
		if err := r.Delete(ctx, tasks[0].ID); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := r.GetByID(ctx, tasks[0].ID); !errors.Is(err, repo.ErrNotFound) {
			t.Errorf("GetByID after Delete error = %v, want ErrNotFound", err)
		}
		if err := r.Delete(ctx, tasks[0].ID); !errors.Is(err, repo.ErrNotFound) {
			t.Errorf("second Delete error = %v, want ErrNotFound", err)
		}
		list, err := r.List(ctx, dom.Filter{})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if got := texts(list); !equalStrings(got, []string{"b"}) {
			t.Errorf("List after Delete = %v, want [b]", got)
		}
	})

	t.Run("DeleteCompleted", func(t *testing.T) {
		r := newRepo(t)
		seed(t, r,
			dom.Task{Text: "buy milk"},
			dom.Task{Text: "pay bills", Completed: true},
			dom.Task{Text: "walk dog", Completed: true},
			dom.Task{Text: "call mom"},
		)
		n, err := r.DeleteCompleted(ctx)
		if err != nil {
			t.Fatalf("DeleteCompleted: %v", err)
		}
		if n != 2 {
			t.Errorf("DeleteCompleted removed %d, want 2", n)
		}
		list, err := r.List(ctx, dom.Filter{})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if got := texts(list); !equalStrings(got, []string{"buy milk", "call mom"}) {
			t.Errorf("List = %v, want [buy milk call mom]", got)
		}
		for _, task := range list {
			if task.Completed {
				t.Errorf("task %+v survived DeleteCompleted", task)
			}
		}

		n, err = r.DeleteCompleted(ctx)
		if err != nil {
			t.Fatalf("DeleteCompleted with no matches: %v", err)
		}
		if n != 0 {
			t.Errorf("DeleteCompleted with no matches removed %d", n)
		}
	})

	t.Run("DeleteAll", func(t *testing.T) {
		r := newRepo(t)
		if _, err := r.DeleteAll(ctx); err != nil {
			t.Fatalf("DeleteAll on empty store: %v", err)
		}
		seed(t, r, dom.Task{Text: "a"}, dom.Task{Text: "b", Completed: true})
		n, err := r.DeleteAll(ctx)
		if err != nil {
			t.Fatalf("DeleteAll: %v", err)
		}
		if n != 2 {
			t.Errorf("DeleteAll removed %d, want 2", n)
		}
		list, err := r.List(ctx, dom.Filter{})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(list) != 0 {
			t.Errorf("List after DeleteAll = %v, want empty", list)
		}
	})

	t.Run("IDsAreNotReused", func(t *testing.T) {
		r := newRepo(t)
		first := seed(t, r, dom.Task{Text: "a"})[0]
		if err := r.Delete(ctx, first.ID); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		second := seed(t, r, dom.Task{Text: "b"})[0]
		if second.ID == first.ID {
			t.Errorf("id %d reused after delete", first.ID)
		}
	})

	t.Run("ConcurrentMarkCompleted", func(t *testing.T) {
		r := newRepo(t)
		const n = 20
		tasks := make([]dom.Task, 0, n)
		for i := 0; i < n; i++ {
			tasks = append(tasks, dom.Task{Text: fmt.Sprintf("task %d", i)})
		}
		tasks = seed(t, r, tasks...)

		var wg sync.WaitGroup
		errs := make(chan error, 2*n)
		for _, task := range tasks {
			for j := 0; j < 2; j++ {
				wg.Add(1)
				go func(id int64) {
					defer wg.Done()
					if _, err := r.MarkCompleted(ctx, id); err != nil {
						errs <- err
					}
				}(task.ID)
			}
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Errorf("MarkCompleted: %v", err)
		}

		active, err := r.List(ctx, dom.Filter{Completed: boolPtr(false)})
		if err != nil {
			t.Fatalf("List active: %v", err)
		}
		if len(active) != 0 {
			t.Errorf("active tasks after concurrent completion = %v, want none", texts(active))
		}
	})

	t.Run("Ping", func(t *testing.T) {
		if err := newRepo(t).Ping(ctx); err != nil {
			t.Errorf("Ping: %v", err)
		}
	})
}
