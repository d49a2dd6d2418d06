package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/TaskTracker/internal/middleware"
	"github.com/atinyakov/TaskTracker/internal/models"
	"github.com/atinyakov/TaskTracker/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// TaskService defines the owner-scoped task operations required by TaskHandler.
type TaskService interface {
	ListTasks(ctx context.Context, ownerID string, q models.TaskQuery) ([]models.Task, error)
	GetTask(ctx context.Context, ownerID, id string) (*models.Task, error)
	CreateTask(ctx context.Context, ownerID string, in models.NewTask) (*models.Task, error)
	UpdateTask(ctx context.Context, ownerID, id string, patch models.TaskPatch) (*models.Task, error)
	DeleteTask(ctx context.Context, ownerID, id string) (*models.Task, error)
}

// TaskHandler handles task requests. Every operation acts on the
// authenticated caller's tasks only.
type TaskHandler struct {
	TaskService TaskService
	Log         *zap.Logger
}

// Create handles POST /tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, err := service.DecodeNewTask(r.Body)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	task, err := h.TaskService.CreateTask(r.Context(), middleware.GetUserIDFromContext(r.Context()), in)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// List handles GET /tasks?completed=&sortBy=&limit=&skip=.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := service.ParseTaskQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	tasks, err := h.TaskService.ListTasks(r.Context(), middleware.GetUserIDFromContext(r.Context()), q)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// Get handles GET /tasks/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	task, err := h.TaskService.GetTask(r.Context(), middleware.GetUserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// Update handles PATCH /tasks/{id}.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	patch, err := service.DecodeTaskPatch(r.Body)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	task, err := h.TaskService.UpdateTask(r.Context(), middleware.GetUserIDFromContext(r.Context()), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// Delete handles DELETE /tasks/{id} and returns the removed task.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	task, err := h.TaskService.DeleteTask(r.Context(), middleware.GetUserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}
