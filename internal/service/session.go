package service

import (
	"context"
	"errors"
	"time"

	"github.com/atinyakov/taskmanager/internal/models"
	"github.com/google/uuid"
)

// TokenRepository defines the session persistence required by SessionService.
type TokenRepository interface {
	AddToken(ctx context.Context, t models.Token) error
	// RemoveToken must succeed when the token is already absent.
	RemoveToken(ctx context.Context, userID uuid.UUID, token string) error
	RemoveAllTokens(ctx context.Context, userID uuid.UUID) error
	TokenExists(ctx context.Context, userID uuid.UUID, token string) (bool, error)
}

// TokenManager signs and verifies bearer tokens.
type TokenManager interface {
	Generate(userID uuid.UUID) (string, time.Time, error)
	Parse(token string) (uuid.UUID, error)
}

// UserFinder resolves a user id to a user.
type UserFinder interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// SessionService issues, verifies and revokes bearer tokens. A token is valid
// only while its signature holds and it is still in the owner's session list.
type SessionService struct {
	tokens TokenRepository
	users  UserFinder
	signer TokenManager
}

// NewSessionService constructs a SessionService.
func NewSessionService(tokens TokenRepository, users UserFinder, signer TokenManager) *SessionService {
	return &SessionService{tokens: tokens, users: users, signer: signer}
}

// Issue creates a new session for u. Earlier sessions stay valid.
func (s *SessionService) Issue(ctx context.Context, u *models.User) (string, error) {
	value, expiresAt, err := s.signer.Generate(u.ID)
	if err != nil {
		return "", err
	}
	if err := s.tokens.AddToken(ctx, models.Token{Value: value, UserID: u.ID, ExpiresAt: expiresAt}); err != nil {
		return "", err
	}
	return value, nil
}

// Revoke ends the single session identified by token.
func (s *SessionService) Revoke(ctx context.Context, u *models.User, token string) error {
	return s.tokens.RemoveToken(ctx, u.ID, token)
}

// RevokeAll ends every session of u.
func (s *SessionService) RevokeAll(ctx context.Context, u *models.User) error {
	return s.tokens.RemoveAllTokens(ctx, u.ID)
}

// Verify resolves a raw bearer token to its user. It fails with
// models.ErrUnauthorized when the signature is bad or expired, the user is
// gone, or the token has been revoked.
func (s *SessionService) Verify(ctx context.Context, raw string) (*models.User, string, error) {
	userID, err := s.signer.Parse(raw)
	if err != nil {
		return nil, "", models.ErrUnauthorized
	}

	u, err := s.users.GetUserByID(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, "", models.ErrUnauthorized
	}
	if err != nil {
		return nil, "", err
	}

	active, err := s.tokens.TokenExists(ctx, userID, raw)
	if err != nil {
		return nil, "", err
	}
	if !active {
		return nil, "", models.ErrUnauthorized
	}
	return u, raw, nil
}
