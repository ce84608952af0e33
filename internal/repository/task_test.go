package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/atinyakov/taskmanager/internal/models"
	"github.com/google/uuid"
)

var taskRowColumns = []string{"id", "owner_id", "description", "completed", "created_at", "updated_at"}

func setupTaskMock(t *testing.T) (*PostgresTaskRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	return NewPostgresTaskRepository(db), mock, func() { db.Close() }
}

func boolPtr(b bool) *bool { return &b }
func intPtr(n int) *int    { return &n }

func TestCreateTask(t *testing.T) {
	repo, mock, cleanup := setupTaskMock(t)
	defer cleanup()

	now := time.Now()
	task := &models.Task{ID: uuid.New(), OwnerID: uuid.New(), Description: "buy milk"}
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO tasks (id, owner_id, description, completed)`)).
		WithArgs(task.ID, task.OwnerID, "buy milk", false).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	if err := repo.CreateTask(context.Background(), task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !task.UpdatedAt.Equal(now) {
		t.Errorf("UpdatedAt = %v; want %v", task.UpdatedAt, now)
	}
}

func TestBuildListQuery(t *testing.T) {
	owner := uuid.New()
	cases := []struct {
		name      string
		q         models.TaskQuery
		wantQuery string
		wantArgs  []any
	}{
		{
			name:      "owner only",
			q:         models.TaskQuery{},
			wantQuery: `SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = $1`,
			wantArgs:  []any{owner},
		},
		{
			name:      "completed filter",
			q:         models.TaskQuery{Completed: boolPtr(true)},
			wantQuery: `SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = $1 AND completed = $2`,
			wantArgs:  []any{owner, true},
		},
		{
			name: "everything",
			q: models.TaskQuery{
				Completed: boolPtr(false),
				Limit:     intPtr(2),
				Skip:      intPtr(4),
				Sort:      &models.TaskSort{Field: "created_at", Direction: models.SortDesc},
			},
			wantQuery: `SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = $1 AND completed = $2 ORDER BY created_at DESC LIMIT $3 OFFSET $4`,
			wantArgs:  []any{owner, false, 2, 4},
		},
		{
			name:      "skip without limit",
			q:         models.TaskQuery{Skip: intPtr(1), Sort: &models.TaskSort{Field: "description"}},
			wantQuery: `SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = $1 ORDER BY description ASC OFFSET $2`,
			wantArgs:  []any{owner, 1},
		},
		{
			name:      "zero limit is unbounded",
			q:         models.TaskQuery{Limit: intPtr(0), Skip: intPtr(3)},
			wantQuery: `SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = $1 OFFSET $2`,
			wantArgs:  []any{owner, 3},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			query, args, err := buildListQuery(owner, tc.q)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if query != tc.wantQuery {
				t.Errorf("query = %q; want %q", query, tc.wantQuery)
			}
			if len(args) != len(tc.wantArgs) {
				t.Fatalf("args = %v; want %v", args, tc.wantArgs)
			}
			for i := range args {
				if args[i] != tc.wantArgs[i] {
					t.Errorf("args[%d] = %v; want %v", i, args[i], tc.wantArgs[i])
				}
			}
		})
	}
}

func TestBuildListQuery_RejectsUnknownColumn(t *testing.T) {
	_, _, err := buildListQuery(uuid.New(), models.TaskQuery{
		Sort: &models.TaskSort{Field: "1; DROP TABLE tasks"},
	})
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListTasks(t *testing.T) {
	repo, mock, cleanup := setupTaskMock(t)
	defer cleanup()

	owner := uuid.New()
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM tasks WHERE owner_id = $1 AND completed = $2`)).
		WithArgs(owner, true).
		WillReturnRows(sqlmock.NewRows(taskRowColumns).
			AddRow(uuid.NewString(), owner.String(), "one", true, now, now).
			AddRow(uuid.NewString(), owner.String(), "two", true, now, now))

	tasks, err := repo.ListTasks(context.Background(), owner, models.TaskQuery{Completed: boolPtr(true)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tasks) != 2 || tasks[0].Description != "one" || tasks[1].OwnerID != owner {
		t.Errorf("unexpected tasks: %+v", tasks)
	}
}

func TestListTasks_Empty(t *testing.T) {
	repo, mock, cleanup := setupTaskMock(t)
	defer cleanup()

	owner := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM tasks WHERE owner_id = $1`)).
		WithArgs(owner).
		WillReturnRows(sqlmock.NewRows(taskRowColumns))

	tasks, err := repo.ListTasks(context.Background(), owner, models.TaskQuery{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tasks == nil || len(tasks) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", tasks)
	}
}

func TestGetTask_ScopedToOwner(t *testing.T) {
	repo, mock, cleanup := setupTaskMock(t)
	defer cleanup()

	owner, other, id := uuid.New(), uuid.New(), uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM tasks WHERE id = $1 AND owner_id = $2`)).
		WithArgs(id, other).
		WillReturnRows(sqlmock.NewRows(taskRowColumns))

	_, err := repo.GetTask(context.Background(), other, id)
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign task, got %v", err)
	}

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM tasks WHERE id = $1 AND owner_id = $2`)).
		WithArgs(id, owner).
		WillReturnRows(sqlmock.NewRows(taskRowColumns).AddRow(id.String(), owner.String(), "mine", false, now, now))

	task, err := repo.GetTask(context.Background(), owner, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.ID != id || task.Description != "mine" {
		t.Errorf("unexpected task: %+v", task)
	}
}

func TestUpdateTask(t *testing.T) {
	repo, mock, cleanup := setupTaskMock(t)
	defer cleanup()

	owner, id := uuid.New(), uuid.New()
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE tasks`)).
		WithArgs(id, owner, nil, true).
		WillReturnRows(sqlmock.NewRows(taskRowColumns).AddRow(id.String(), owner.String(), "keep", true, now, now))

	task, err := repo.UpdateTask(context.Background(), owner, id, models.TaskUpdate{Completed: boolPtr(true)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !task.Completed || task.Description != "keep" {
		t.Errorf("unexpected task: %+v", task)
	}

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE tasks`)).
		WithArgs(id, owner, "new", nil).
		WillReturnRows(sqlmock.NewRows(taskRowColumns))
	desc := "new"
	if _, err := repo.UpdateTask(context.Background(), owner, id, models.TaskUpdate{Description: &desc}); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteTask(t *testing.T) {
	repo, mock, cleanup := setupTaskMock(t)
	defer cleanup()

	owner, id := uuid.New(), uuid.New()
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`DELETE FROM tasks WHERE id = $1 AND owner_id = $2 RETURNING`)).
		WithArgs(id, owner).
		WillReturnRows(sqlmock.NewRows(taskRowColumns).AddRow(id.String(), owner.String(), "bye", false, now, now))

	task, err := repo.DeleteTask(context.Background(), owner, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Description != "bye" {
		t.Errorf("unexpected task: %+v", task)
	}

	mock.ExpectQuery(regexp.QuoteMeta(`DELETE FROM tasks`)).
		WithArgs(id, owner).
		WillReturnError(errors.New("boom"))
	if _, err := repo.DeleteTask(context.Background(), owner, id); err == nil || errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected driver error, got %v", err)
	}
}
