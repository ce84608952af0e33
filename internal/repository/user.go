// Package repository provides PostgreSQL persistence for users, their
// sessions and their tasks.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/taskmanager/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// userColumns lists every user column except the avatar blob.
const userColumns = `id, name, email, password_hash, age, created_at, updated_at`

// PostgresUserRepository implements the credential store against PostgreSQL.
type PostgresUserRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresUserRepository creates a PostgresUserRepository with the given database connection.
func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

// CreateUser inserts u and fills its timestamps.
// Returns models.ErrEmailTaken if the email is already registered.
func (r *PostgresUserRepository) CreateUser(ctx context.Context, u *models.User) error {
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, age)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, u.ID, u.Name, u.Email, u.PasswordHash, u.Age).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUserByEmail fetches a user by normalized email.
// Returns models.ErrNotFound if no user has that email.
func (r *PostgresUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// GetUserByID fetches a user by id.
// Returns models.ErrNotFound if the user does not exist.
func (r *PostgresUserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// ListUsers returns every user ordered by registration time.
func (r *PostgresUserRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Age, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// UpdateUser persists the mutable profile fields of u and refreshes UpdatedAt.
func (r *PostgresUserRepository) UpdateUser(ctx context.Context, u *models.User) error {
	err := r.DB.QueryRowContext(ctx, `
		UPDATE users SET name = $2, email = $3, password_hash = $4, age = $5, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, u.ID, u.Name, u.Email, u.PasswordHash, u.Age).Scan(&u.UpdatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return models.ErrNotFound
	case isUniqueViolation(err):
		return models.ErrEmailTaken
	case err != nil:
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// DeleteUser removes the user and, in the same transaction, every task the
// user owns. Sessions go with the user row.
func (r *PostgresUserRepository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE owner_id = $1`, id); err != nil {
		return fmt.Errorf("delete tasks: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// SetAvatar replaces the user's avatar. A nil avatar clears it.
func (r *PostgresUserRepository) SetAvatar(ctx context.Context, id uuid.UUID, avatar []byte) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET avatar = $2, updated_at = now() WHERE id = $1`, id, avatar)
	if err != nil {
		return fmt.Errorf("set avatar: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// GetAvatar returns the PNG avatar of a user.
// Returns models.ErrNotFound if the user does not exist or has no avatar.
func (r *PostgresUserRepository) GetAvatar(ctx context.Context, id uuid.UUID) ([]byte, error) {
	var avatar []byte
	err := r.DB.QueryRowContext(ctx, `SELECT avatar FROM users WHERE id = $1`, id).Scan(&avatar)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get avatar: %w", err)
	}
	if len(avatar) == 0 {
		return nil, models.ErrNotFound
	}
	return avatar, nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Age, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
