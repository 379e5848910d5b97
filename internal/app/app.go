package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"todoweb/internal/cache"
	"todoweb/internal/config"
	"todoweb/internal/migrations"
	"todoweb/internal/repo"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type App struct {
	cfg    config.Config
	log    *slog.Logger
	store  repo.TaskRepo
	closer []func() error
	router *gin.Engine
}

func New(cfg config.Config, log *slog.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log}

	store, err := a.openStore(cfg.DB)
	if err != nil {
		a.closeAll()
		return nil, err
	}
	a.store = store

	var taskCache *cache.TaskCache
	if cfg.Redis.Enabled() {
		rdb, err := newRedis(cfg.Redis)
		if err != nil {
			a.closeAll()
			return nil, err
		}
		a.closer = append(a.closer, rdb.Close)
		taskCache = cache.NewTaskCache(rdb, cfg.Redis.DefaultTTL.Duration())
	} else {
		log.Info("redis not configured, list cache disabled")
	}

	router, err := newRouter(cfg, log, store, taskCache)
	if err != nil {
		a.closeAll()
		return nil, err
	}
	a.router = router
	return a, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

// Close releases the store and cache connections. It gives up waiting
// when ctx ends; the remaining closers keep running in the background.
func (a *App) Close(ctx context.Context) error {
	done := make(chan error, 1)
	go func() { done <- a.closeAll() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("close app: %w", ctx.Err())
	}
}

// closeAll releases resources in reverse order of acquisition.
func (a *App) closeAll() error {
	var firstErr error
	for i := len(a.closer) - 1; i >= 0; i-- {
		if err := a.closer[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closer = nil
	return firstErr
}

func (a *App) openStore(cfg config.DBConfig) (repo.TaskRepo, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		if err := runPGMigrations(cfg.PGDSN, a.log); err != nil {
			return nil, err
		}
		pool, err := newPostgres(cfg.PGDSN)
		if err != nil {
			return nil, err
		}
		a.closer = append(a.closer, func() error { pool.Close(); return nil })
		a.log.Info("task store ready", "driver", cfg.Driver)
		return repo.NewPGTaskRepo(pool), nil
	case config.DriverSQLite:
		db, err := newSQLite(cfg.SQLitePath, a.log)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("sqlite handle: %w", err)
		}
		a.closer = append(a.closer, sqlDB.Close)
		a.log.Info("task store ready", "driver", cfg.Driver, "path", cfg.SQLitePath)
		return repo.NewGormTaskRepo(db), nil
	case config.DriverMemory:
		a.log.Warn("task store is in memory, tasks are lost on restart")
		return repo.NewMemTaskRepo(), nil
	default:
		return nil, fmt.Errorf("unknown db driver %q", cfg.Driver)
	}
}

func newPostgres(dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pg parse config: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("pg connect: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg ping: %w", err)
	}

	return pool, nil
}

// newSQLite opens the gorm handle and brings the schema up to date.
func newSQLite(path string, log *slog.Logger) (*gorm.DB, error) {
	db, err := repo.OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := migrations.Up(ctx, sqlDB, goose.DialectSQLite3, log); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

func newRedis(cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return rdb, nil
}

func runPGMigrations(dsn string, log *slog.Logger) error {
	db, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return fmt.Errorf("goose open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return migrations.Up(ctx, db, goose.DialectPostgres, log)
}

func newRouter(cfg config.Config, log *slog.Logger, store repo.TaskRepo, taskCache *cache.TaskCache) (*gin.Engine, error) {
	if !cfg.App.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))

	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  cfg.HTTP.CORSAllowOrigins,
			AllowMethods:  []string{"GET", "POST", "HEAD"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders: []string{"Content-Length", "Content-Type"},
			MaxAge:        12 * time.Hour,
		}))
	}

	if err := Setup(r, cfg, log, store, taskCache); err != nil {
		return nil, err
	}
	return r, nil
}
