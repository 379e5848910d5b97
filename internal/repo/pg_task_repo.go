package repo

import (
	"context"
	"errors"
	"fmt"

	dom "todoweb/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const taskColumns = `id, task, completed`

// PGTaskRepo implements TaskRepo with Postgres.
type PGTaskRepo struct {
	db *pgxpool.Pool
}

func NewPGTaskRepo(db *pgxpool.Pool) *PGTaskRepo {
	return &PGTaskRepo{db: db}
}

func (r *PGTaskRepo) List(ctx context.Context, f dom.Filter) ([]dom.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	var args []any
	if f.Completed != nil {
		query += ` WHERE completed = $1`
		args = append(args, *f.Completed)
	}
	query += ` ORDER BY id ASC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()
	list := []dom.Task{}
	for rows.Next() {
		var t dom.Task
		if err := rows.Scan(&t.ID, &t.Text, &t.Completed); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func (r *PGTaskRepo) GetByID(ctx context.Context, id int64) (dom.Task, error) {
	return r.queryOne(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
}

func (r *PGTaskRepo) Create(ctx context.Context, text string) (dom.Task, error) {
	return r.queryOne(ctx, `
		INSERT INTO tasks (task)
		VALUES ($1)
		RETURNING `+taskColumns, text)
}

func (r *PGTaskRepo) Update(ctx context.Context, id int64, text string) (dom.Task, error) {
	return r.queryOne(ctx, `
		UPDATE tasks SET task = $2
		WHERE id = $1
		RETURNING `+taskColumns, id, text)
}

func (r *PGTaskRepo) MarkCompleted(ctx context.Context, id int64) (dom.Task, error) {
	return r.queryOne(ctx, `
		UPDATE tasks SET completed = TRUE
		WHERE id = $1
		RETURNING `+taskColumns, id)
}

func (r *PGTaskRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGTaskRepo) DeleteCompleted(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE completed = TRUE`)
	if err != nil {
		return 0, fmt.Errorf("delete completed tasks: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PGTaskRepo) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM tasks`)
	if err != nil {
		return 0, fmt.Errorf("delete all tasks: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PGTaskRepo) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// queryOne runs a single-row statement and maps pgx.ErrNoRows to ErrNotFound.
func (r *PGTaskRepo) queryOne(ctx context.Context, query string, args ...any) (dom.Task, error) {
	var t dom.Task
	err := r.db.QueryRow(ctx, query, args...).Scan(&t.ID, &t.Text, &t.Completed)
	if errors.Is(err, pgx.ErrNoRows) {
		return dom.Task{}, ErrNotFound
	}
	if err != nil {
		return dom.Task{}, err
	}
	return t, nil
}
