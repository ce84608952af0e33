package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/atinyakov/taskmanager/internal/models"
	"github.com/google/uuid"
)

const taskColumns = `id, owner_id, description, completed, created_at, updated_at`

// sortableColumns are the only columns an ORDER BY may name.
var sortableColumns = map[string]bool{
	"description": true,
	"completed":   true,
	"created_at":  true,
	"updated_at":  true,
}

// PostgresTaskRepository implements task persistence against PostgreSQL.
// Every read and write is scoped to an owner id.
type PostgresTaskRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresTaskRepository creates a PostgresTaskRepository using the provided *sql.DB.
func NewPostgresTaskRepository(db *sql.DB) *PostgresTaskRepository {
	return &PostgresTaskRepository{DB: db}
}

// CreateTask inserts t and fills its timestamps.
func (r *PostgresTaskRepository) CreateTask(ctx context.Context, t *models.Task) error {
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO tasks (id, owner_id, description, completed)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`, t.ID, t.OwnerID, t.Description, t.Completed).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// ListTasks returns the owner's tasks matching q.
//
//	ctx:     context for cancellation and deadlines
//	ownerID: identifier of the owning user
//	q:       optional completed filter, skip/limit window and single-column sort
//
// Without a sort the order is whatever the database returns.
func (r *PostgresTaskRepository) ListTasks(ctx context.Context, ownerID uuid.UUID, q models.TaskQuery) ([]models.Task, error) {
	query, args, err := buildListQuery(ownerID, q)
	if err != nil {
		return nil, err
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ListTasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]models.Task, 0)
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Description, &t.Completed, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListTasks: %w", err)
	}
	return tasks, nil
}

// GetTask fetches a single task of the owner.
// Returns models.ErrNotFound if it does not exist or belongs to someone else.
func (r *PostgresTaskRepository) GetTask(ctx context.Context, ownerID, id uuid.UUID) (*models.Task, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND owner_id = $2`, id, ownerID)
	return scanTask(row)
}

// UpdateTask applies the non-nil fields of u in a single statement.
// Returns models.ErrNotFound if the task does not exist or belongs to someone else.
func (r *PostgresTaskRepository) UpdateTask(ctx context.Context, ownerID, id uuid.UUID, u models.TaskUpdate) (*models.Task, error) {
	row := r.DB.QueryRowContext(ctx, `
		UPDATE tasks
		   SET description = COALESCE($3, description),
		       completed = COALESCE($4, completed),
		       updated_at = now()
		 WHERE id = $1 AND owner_id = $2
		RETURNING `+taskColumns, id, ownerID, u.Description, u.Completed)
	return scanTask(row)
}

// DeleteTask removes a task of the owner and returns the deleted record.
// Returns models.ErrNotFound if it does not exist or belongs to someone else.
func (r *PostgresTaskRepository) DeleteTask(ctx context.Context, ownerID, id uuid.UUID) (*models.Task, error) {
	row := r.DB.QueryRowContext(ctx,
		`DELETE FROM tasks WHERE id = $1 AND owner_id = $2 RETURNING `+taskColumns, id, ownerID)
	return scanTask(row)
}

func buildListQuery(ownerID uuid.UUID, q models.TaskQuery) (string, []any, error) {
	var sb strings.Builder
	args := []any{ownerID}

	sb.WriteString(`SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = $1`)

	if q.Completed != nil {
		args = append(args, *q.Completed)
		fmt.Fprintf(&sb, " AND completed = $%d", len(args))
	}

	if q.Sort != nil {
		if !sortableColumns[q.Sort.Field] {
			return "", nil, fmt.Errorf("%w: cannot sort by %q", models.ErrValidation, q.Sort.Field)
		}
		dir := "ASC"
		if q.Sort.Direction == models.SortDesc {
			dir = "DESC"
		}
		fmt.Fprintf(&sb, " ORDER BY %s %s", q.Sort.Field, dir)
	}

	if q.Limit != nil && *q.Limit > 0 {
		args = append(args, *q.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}
	if q.Skip != nil {
		args = append(args, *q.Skip)
		fmt.Fprintf(&sb, " OFFSET $%d", len(args))
	}

	return sb.String(), args, nil
}

func scanTask(row *sql.Row) (*models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.OwnerID, &t.Description, &t.Completed, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("task: %w", err)
	}
	return &t, nil
}
