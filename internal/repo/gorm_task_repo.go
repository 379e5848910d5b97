package repo

import (
	"context"
	"errors"
	"fmt"

	dom "todoweb/internal/domain"

	"gorm.io/gorm"
)

// taskRecord is the ORM mapping of the tasks table. It stays private so
// the column layout never leaks into the domain type.
type taskRecord struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Task      string `gorm:"column:task;size:100;not null"`
	Completed bool   `gorm:"column:completed;not null;default:false"`
}

func (taskRecord) TableName() string { return "tasks" }

func (r taskRecord) toDomain() dom.Task {
	return dom.Task{ID: r.ID, Text: r.Task, Completed: r.Completed}
}

// GormTaskRepo implements TaskRepo on top of gorm. Any dialector works;
// the app opens it on SQLite.
type GormTaskRepo struct {
	db *gorm.DB
}

func NewGormTaskRepo(db *gorm.DB) *GormTaskRepo {
	return &GormTaskRepo{db: db}
}

func (r *GormTaskRepo) List(ctx context.Context, f dom.Filter) ([]dom.Task, error) {
	q := r.db.WithContext(ctx).Order("id ASC")
	if f.Completed != nil {
		q = q.Where("completed = ?", *f.Completed)
	}
	var recs []taskRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	list := make([]dom.Task, len(recs))
	for i := range recs {
		list[i] = recs[i].toDomain()
	}
	return list, nil
}

func (r *GormTaskRepo) GetByID(ctx context.Context, id int64) (dom.Task, error) {
	rec, err := first(r.db.WithContext(ctx), id)
	if err != nil {
		return dom.Task{}, err
	}
	return rec.toDomain(), nil
}

func (r *GormTaskRepo) Create(ctx context.Context, text string) (dom.Task, error) {
	rec := taskRecord{Task: text}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return dom.Task{}, fmt.Errorf("create task: %w", err)
	}
	return rec.toDomain(), nil
}

func (r *GormTaskRepo) Update(ctx context.Context, id int64, text string) (dom.Task, error) {
	return r.modify(ctx, id, func(rec *taskRecord) { rec.Task = text })
}

func (r *GormTaskRepo) MarkCompleted(ctx context.Context, id int64) (dom.Task, error) {
	return r.modify(ctx, id, func(rec *taskRecord) { rec.Completed = true })
}

func (r *GormTaskRepo) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&taskRecord{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete task %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormTaskRepo) DeleteCompleted(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Where("completed = ?", true).Delete(&taskRecord{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete completed tasks: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *GormTaskRepo) DeleteAll(ctx context.Context) (int64, error) {
	// gorm refuses unconditioned deletes without this flag.
	res := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&taskRecord{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete all tasks: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *GormTaskRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// modify loads the row, applies change and saves it inside one
// transaction, so a missing id surfaces as ErrNotFound.
func (r *GormTaskRepo) modify(ctx context.Context, id int64, change func(*taskRecord)) (dom.Task, error) {
	var out taskRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := first(tx, id)
		if err != nil {
			return err
		}
		change(&rec)
		if err := tx.Save(&rec).Error; err != nil {
			return fmt.Errorf("update task %d: %w", id, err)
		}
		out = rec
		return nil
	})
	if err != nil {
		return dom.Task{}, err
	}
	return out.toDomain(), nil
}

func first(db *gorm.DB, id int64) (taskRecord, error) {
	var rec taskRecord
	err := db.First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return taskRecord{}, ErrNotFound
	}
	if err != nil {
		return taskRecord{}, fmt.Errorf("get task %d: %w", id, err)
	}
	return rec, nil
}
