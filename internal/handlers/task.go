package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	dom "todoweb/internal/domain"
	"todoweb/internal/dto"
	"todoweb/internal/service"

	"github.com/gin-gonic/gin"
)

const indexTemplate = "index.html"

type TaskHandler struct {
	svc  *service.TaskService
	base string
	log  *slog.Logger
}

// NewTaskHandler returns a handler serving the to-do pages mounted at
// base ("" for the site root, otherwise "/prefix" without a trailing slash).
func NewTaskHandler(svc *service.TaskService, base string, log *slog.Logger) *TaskHandler {
	return &TaskHandler{svc: svc, base: base, log: log}
}

// Index renders the list with an empty add form.
// GET / [?completed=true|false]
func (h *TaskHandler) Index(c *gin.Context) {
	f, ok := parseFilter(c)
	if !ok {
		return
	}
	h.render(c, http.StatusOK, f, dto.IndexView{})
}

// Add creates a task from the submitted form. Invalid input is dropped
// and the user lands on the list either way.
// POST /addTask
func (h *TaskHandler) Add(c *gin.Context) {
	var form dto.TaskForm
	if err := c.ShouldBind(&form); err != nil {
		h.log.Info("add task: bad form", "error", err)
		h.redirect(c)
		return
	}
	t, err := h.svc.Create(c.Request.Context(), form)
	if err != nil {
		var verr *dto.ValidationError
		if errors.As(err, &verr) {
			h.log.Info("add task: rejected", "error", verr)
			h.redirect(c)
			return
		}
		h.fail(c, err)
		return
	}
	h.log.Debug("task created", "id", t.ID)
	h.redirect(c)
}

// Delete removes one task.
// GET, POST /deleteTask/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	h.redirect(c)
}

// Complete marks one task as done.
// GET /completedTask/:id
func (h *TaskHandler) Complete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if _, err := h.svc.Complete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	h.redirect(c)
}

// EditForm renders the list with the edit form pre-filled from the task.
// GET /updateTask/:id
func (h *TaskHandler) EditForm(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	t, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, dom.Filter{}, dto.IndexView{
		Editing:  &t,
		EditForm: dto.TaskFormFromTask(t),
	})
}

// Update replaces the task text. On invalid input the edit form is shown
// again with the submitted value and the errors.
// POST /updateTask/:id
func (h *TaskHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var form dto.TaskForm
	if err := c.ShouldBind(&form); err != nil {
		c.String(http.StatusBadRequest, http.StatusText(http.StatusBadRequest))
		return
	}
	_, err := h.svc.Update(c.Request.Context(), id, form)
	if err == nil {
		h.redirect(c)
		return
	}
	var verr *dto.ValidationError
	if !errors.As(err, &verr) {
		h.fail(c, err)
		return
	}
	t, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, dom.Filter{}, dto.IndexView{
		Editing:    &t,
		EditForm:   form,
		EditErrors: verr.Fields,
	})
}

// DeleteAllCompleted removes every completed task.
// GET /deleteAllCompleted
func (h *TaskHandler) DeleteAllCompleted(c *gin.Context) {
	n, err := h.svc.DeleteCompleted(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.log.Debug("completed tasks deleted", "count", n)
	h.redirect(c)
}

// DeleteAll empties the list.
// GET /deleteAll
func (h *TaskHandler) DeleteAll(c *gin.Context) {
	n, err := h.svc.DeleteAll(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.log.Debug("all tasks deleted", "count", n)
	h.redirect(c)
}

func (h *TaskHandler) render(c *gin.Context, status int, f dom.Filter, view dto.IndexView) {
	list, err := h.svc.List(c.Request.Context(), f)
	if err != nil {
		h.fail(c, err)
		return
	}
	view.Base = h.base
	view.Tasks = list
	view.Filter = f.Key()
	c.HTML(status, indexTemplate, view)
}

func (h *TaskHandler) redirect(c *gin.Context) {
	c.Redirect(http.StatusFound, h.base+"/")
}

// fail ends the request without a custom message: 404 for unknown tasks,
// 500 for everything else.
func (h *TaskHandler) fail(c *gin.Context, err error) {
	if errors.Is(err, service.ErrNotFound) {
		abort(c, http.StatusNotFound)
		return
	}
	h.log.Error("request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
	abort(c, http.StatusInternalServerError)
}

func abort(c *gin.Context, status int) {
	c.String(status, http.StatusText(status))
	c.Abort()
}

// parseID reads a positive task id. Anything else does not name a task,
// so it is answered like an unknown id.
func parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		abort(c, http.StatusNotFound)
		return 0, false
	}
	return id, true
}

func parseFilter(c *gin.Context) (dom.Filter, bool) {
	raw, ok := c.GetQuery("completed")
	if !ok || raw == "" {
		return dom.Filter{}, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		abort(c, http.StatusBadRequest)
		return dom.Filter{}, false
	}
	return dom.Filter{Completed: &v}, true
}
