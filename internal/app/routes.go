package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"todoweb/internal/cache"
	"todoweb/internal/config"
	"todoweb/internal/handlers"
	"todoweb/internal/repo"
	"todoweb/internal/service"
	"todoweb/internal/web"

	"github.com/gin-gonic/gin"
)

// Setup registers all routes on the given engine.
func Setup(r *gin.Engine, cfg config.Config, log *slog.Logger, store repo.TaskRepo, taskCache *cache.TaskCache) error {
	tmpl, err := web.Templates()
	if err != nil {
		return err
	}
	r.SetHTMLTemplate(tmpl)

	taskSvc := service.NewTaskService(store, taskCache, log)

	r.GET("/health", healthHandler(cfg, taskSvc))
	r.GET("/version", versionHandler(cfg))

	todo := r.Group(cfg.HTTP.BasePath)
	taskHandler := handlers.NewTaskHandler(taskSvc, cfg.HTTP.BasePath, log)
	registerTaskRoutes(todo, taskHandler)
	return nil
}

func healthHandler(cfg config.Config, svc *service.TaskService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := svc.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "env": cfg.App.Env, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "env": cfg.App.Env})
	}
}

func versionHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"version": cfg.App.Version})
	}
}

func registerTaskRoutes(g *gin.RouterGroup, h *handlers.TaskHandler) {
	g.GET("/", h.Index)
	g.POST("/addTask", h.Add)
	g.GET("/deleteTask/:id", h.Delete)
	g.POST("/deleteTask/:id", h.Delete)
	g.GET("/completedTask/:id", h.Complete)
	g.GET("/updateTask/:id", h.EditForm)
	g.POST("/updateTask/:id", h.Update)
	g.GET("/deleteAllCompleted", h.DeleteAllCompleted)
	g.GET("/deleteAll", h.DeleteAll)
}
