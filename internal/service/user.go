// Package service provides the business logic for accounts, sessions and
// tasks, delegating persistence to repository interfaces.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/atinyakov/taskmanager/internal/models"
	"github.com/atinyakov/taskmanager/internal/validation"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt work factor used for new hashes.
const PasswordCost = 8

// dummyHash is compared against when an email is unknown so that both login
// failure paths cost the same.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-credential"), PasswordCost)

// UserRepository defines the persistence operations required by UserService.
type UserRepository interface {
	// CreateUser inserts a user. Returns models.ErrEmailTaken on duplicate email.
	CreateUser(ctx context.Context, u *models.User) error
	// GetUserByEmail returns models.ErrNotFound when no user matches.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUserByID returns models.ErrNotFound when no user matches.
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	// UpdateUser persists profile fields. Returns models.ErrEmailTaken on duplicate email.
	UpdateUser(ctx context.Context, u *models.User) error
	// DeleteUser removes the user together with every task the user owns.
	DeleteUser(ctx context.Context, id uuid.UUID) error
	SetAvatar(ctx context.Context, id uuid.UUID, avatar []byte) error
	GetAvatar(ctx context.Context, id uuid.UUID) ([]byte, error)
}

// Notifier delivers account notifications. Implementations must not block
// and must not report failures to the caller.
type Notifier interface {
	Notify(kind models.NotificationKind, email, name string)
}

// ImageProcessor turns an uploaded image into the stored avatar encoding.
type ImageProcessor interface {
	Process(data []byte) ([]byte, error)
}

// UserService implements the credential store: registration, login checks,
// profile updates, deletion and avatars.
type UserService struct {
	repo     UserRepository
	notifier Notifier
	images   ImageProcessor
}

// NewUserService constructs a UserService.
func NewUserService(repo UserRepository, notifier Notifier, images ImageProcessor) *UserService {
	return &UserService{repo: repo, notifier: notifier, images: images}
}

// Register validates r, stores the user with a hashed password and sends a
// welcome notification.
func (s *UserService) Register(ctx context.Context, r models.Registration) (*models.User, error) {
	r = validation.NormalizeRegistration(r)
	if err := validation.ValidateRegistration(r); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), PasswordCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{
		ID:           uuid.New(),
		Name:         r.Name,
		Email:        r.Email,
		Age:          *r.Age,
		PasswordHash: hash,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	s.notifier.Notify(models.NotifyWelcome, u.Email, u.Name)
	return u, nil
}

// Authenticate returns the user owning email if password matches. Unknown
// emails and wrong passwords both yield models.ErrUnauthorized.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.repo.GetUserByEmail(ctx, validation.NormalizeEmail(email))
	if errors.Is(err, models.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, models.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return nil, models.ErrUnauthorized
	}
	return u, nil
}

// UpdateFields applies a validated partial update to u. The password is
// re-hashed only when it differs from the current one.
func (s *UserService) UpdateFields(ctx context.Context, u *models.User, upd models.UserUpdate) (*models.User, error) {
	upd = validation.NormalizeUserUpdate(upd)
	if err := validation.ValidateUserUpdate(upd); err != nil {
		return nil, err
	}

	updated := *u
	if upd.Name != nil {
		updated.Name = *upd.Name
	}
	if upd.Email != nil {
		updated.Email = *upd.Email
	}
	if upd.Age != nil {
		updated.Age = *upd.Age
	}
	if upd.Password != nil && bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(*upd.Password)) != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*upd.Password), PasswordCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		updated.PasswordHash = hash
	}

	if err := s.repo.UpdateUser(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteUser removes u and every task u owns, then sends an account-deleted
// notification.
func (s *UserService) DeleteUser(ctx context.Context, u *models.User) error {
	if err := s.repo.DeleteUser(ctx, u.ID); err != nil {
		return err
	}
	s.notifier.Notify(models.NotifyAccountDeleted, u.Email, u.Name)
	return nil
}

// ListUsers returns every registered user.
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.repo.ListUsers(ctx)
}

// SetAvatar converts an uploaded image and stores it as u's avatar.
// Undecodable images yield a validation error.
func (s *UserService) SetAvatar(ctx context.Context, u *models.User, data []byte) error {
	avatar, err := s.images.Process(data)
	if err != nil {
		return err
	}
	return s.repo.SetAvatar(ctx, u.ID, avatar)
}

// DeleteAvatar clears u's avatar.
func (s *UserService) DeleteAvatar(ctx context.Context, u *models.User) error {
	return s.repo.SetAvatar(ctx, u.ID, nil)
}

// GetAvatar returns the stored PNG avatar of the user with id.
func (s *UserService) GetAvatar(ctx context.Context, id uuid.UUID) ([]byte, error) {
	return s.repo.GetAvatar(ctx, id)
}
