package service

import (
	"context"

	"github.com/atinyakov/taskmanager/internal/models"
	"github.com/atinyakov/taskmanager/internal/validation"
	"github.com/google/uuid"
)

// TaskRepository defines the persistence operations needed by TaskService.
// Every method is scoped to the owner and reports foreign tasks as
// models.ErrNotFound.
type TaskRepository interface {
	CreateTask(ctx context.Context, t *models.Task) error
	ListTasks(ctx context.Context, ownerID uuid.UUID, q models.TaskQuery) ([]models.Task, error)
	GetTask(ctx context.Context, ownerID, id uuid.UUID) (*models.Task, error)
	UpdateTask(ctx context.Context, ownerID, id uuid.UUID, u models.TaskUpdate) (*models.Task, error)
	DeleteTask(ctx context.Context, ownerID, id uuid.UUID) (*models.Task, error)
}

// TaskService implements task business logic for authenticated owners.
type TaskService struct {
	repo TaskRepository
}

// NewTaskService constructs a TaskService with the provided TaskRepository.
func NewTaskService(repo TaskRepository) *TaskService {
	return &TaskService{repo: repo}
}

// Create stores a new task owned by ownerID.
func (s *TaskService) Create(ctx context.Context, ownerID uuid.UUID, nt models.NewTask) (*models.Task, error) {
	nt = validation.NormalizeNewTask(nt)
	if err := validation.ValidateNewTask(nt); err != nil {
		return nil, err
	}

	t := &models.Task{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Description: nt.Description,
		Completed:   nt.Completed,
	}
	if err := s.repo.CreateTask(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// List returns the owner's tasks filtered, paginated and sorted by q.
func (s *TaskService) List(ctx context.Context, ownerID uuid.UUID, q models.TaskQuery) ([]models.Task, error) {
	return s.repo.ListTasks(ctx, ownerID, q)
}

// Get returns one of the owner's tasks.
func (s *TaskService) Get(ctx context.Context, ownerID, id uuid.UUID) (*models.Task, error) {
	return s.repo.GetTask(ctx, ownerID, id)
}

// Update applies u to one of the owner's tasks. An update with no fields is a
// validation error.
func (s *TaskService) Update(ctx context.Context, ownerID, id uuid.UUID, u models.TaskUpdate) (*models.Task, error) {
	if u.Description == nil && u.Completed == nil {
		return nil, &models.ValidationError{Fields: map[string]string{"body": "invalid updates"}}
	}
	return s.repo.UpdateTask(ctx, ownerID, id, u)
}

// Delete removes one of the owner's tasks and returns it.
func (s *TaskService) Delete(ctx context.Context, ownerID, id uuid.UUID) (*models.Task, error) {
	return s.repo.DeleteTask(ctx, ownerID, id)
}
