package http

import (
	"context"
	"io"
	"net/http"

	"github.com/atinyakov/taskmanager/internal/middleware"
	"github.com/atinyakov/taskmanager/internal/models"
	"github.com/atinyakov/taskmanager/internal/validation"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TaskService defines the task operations required by the HTTP handlers.
type TaskService interface {
	Create(ctx context.Context, ownerID uuid.UUID, nt models.NewTask) (*models.Task, error)
	List(ctx context.Context, ownerID uuid.UUID, q models.TaskQuery) ([]models.Task, error)
	Get(ctx context.Context, ownerID, id uuid.UUID) (*models.Task, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, u models.TaskUpdate) (*models.Task, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) (*models.Task, error)
}

// TaskHandler handles the caller's task requests.
type TaskHandler struct {
	Tasks TaskService
	Log   *zap.Logger
}

// taskID parses the {id} path parameter. A malformed id cannot name an
// existing task, so it is reported as not found.
func taskID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, models.ErrNotFound
	}
	return id, nil
}

func ownerID(r *http.Request) uuid.UUID {
	return middleware.UserFromContext(r.Context()).ID
}

// Create adds a task owned by the caller.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var nt models.NewTask
	if err := decodeJSON(r, &nt); err != nil {
		writeError(w, h.Log, err)
		return
	}

	t, err := h.Tasks.Create(r.Context(), ownerID(r), nt)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// List returns the caller's tasks. Supported query parameters are
// completed, limit, skip and sortBy=field[:asc|desc].
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := validation.ParseTaskQuery(r.URL.Query())
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	tasks, err := h.Tasks.List(r.Context(), ownerID(r), q)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

// Get returns one of the caller's tasks.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	t, err := h.Tasks.Get(r.Context(), ownerID(r), id)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Update applies a partial update to one of the caller's tasks.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, h.Log, invalidBody())
		return
	}
	upd, err := validation.DecodeTaskUpdate(body)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	id, err := taskID(r)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	t, err := h.Tasks.Update(r.Context(), ownerID(r), id, upd)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Delete removes one of the caller's tasks and returns it.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	t, err := h.Tasks.Delete(r.Context(), ownerID(r), id)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}
