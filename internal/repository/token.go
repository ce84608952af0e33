package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/atinyakov/taskmanager/internal/models"
	"github.com/google/uuid"
)

// PostgresTokenRepository stores the active sessions of each user. Every
// issuance is an independent row, so concurrent logins never conflict.
type PostgresTokenRepository struct {
	DB *sql.DB
}

// NewPostgresTokenRepository creates a PostgresTokenRepository with the given database connection.
func NewPostgresTokenRepository(db *sql.DB) *PostgresTokenRepository {
	return &PostgresTokenRepository{DB: db}
}

// AddToken appends a session to its user's list.
func (r *PostgresTokenRepository) AddToken(ctx context.Context, t models.Token) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO user_tokens (user_id, token, expires_at) VALUES ($1, $2, $3)`,
		t.UserID, t.Value, t.ExpiresAt)
	if err != nil {
		return fmt.Errorf("add token: %w", err)
	}
	return nil
}

// RemoveToken deletes exactly the matching session. Removing an absent token is not an error.
func (r *PostgresTokenRepository) RemoveToken(ctx context.Context, userID uuid.UUID, token string) error {
	_, err := r.DB.ExecContext(ctx,
		`DELETE FROM user_tokens WHERE user_id = $1 AND token = $2`, userID, token)
	if err != nil {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}

// RemoveAllTokens deletes every session of the user.
func (r *PostgresTokenRepository) RemoveAllTokens(ctx context.Context, userID uuid.UUID) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM user_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("remove tokens: %w", err)
	}
	return nil
}

// TokenExists reports whether token is one of the user's active sessions.
func (r *PostgresTokenRepository) TokenExists(ctx context.Context, userID uuid.UUID, token string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM user_tokens WHERE user_id = $1 AND token = $2)`,
		userID, token,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("token exists: %w", err)
	}
	return exists, nil
}

// ListTokens returns the user's sessions in issuance order.
func (r *PostgresTokenRepository) ListTokens(ctx context.Context, userID uuid.UUID) ([]models.Token, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT token, expires_at, created_at FROM user_tokens WHERE user_id = $1 ORDER BY id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	defer rows.Close()

	var tokens []models.Token
	for rows.Next() {
		t := models.Token{UserID: userID}
		if err := rows.Scan(&t.Value, &t.ExpiresAt, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}
