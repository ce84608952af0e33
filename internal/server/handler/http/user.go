// Package http provides the HTTP handlers and router of the task manager API.
package http

import (
	"context"
	"io"
	"net/http"

	"github.com/atinyakov/taskmanager/internal/middleware"
	"github.com/atinyakov/taskmanager/internal/models"
	"github.com/atinyakov/taskmanager/internal/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxJSONBody bounds the size of JSON request bodies.
const maxJSONBody = 1 << 20

// UserService defines the account operations required by the HTTP handlers.
type UserService interface {
	Register(ctx context.Context, r models.Registration) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	UpdateFields(ctx context.Context, u *models.User, upd models.UserUpdate) (*models.User, error)
	DeleteUser(ctx context.Context, u *models.User) error
	ListUsers(ctx context.Context) ([]models.User, error)
	SetAvatar(ctx context.Context, u *models.User, data []byte) error
	DeleteAvatar(ctx context.Context, u *models.User) error
	GetAvatar(ctx context.Context, id uuid.UUID) ([]byte, error)
}

// SessionService issues and revokes bearer tokens.
type SessionService interface {
	Issue(ctx context.Context, u *models.User) (string, error)
	Revoke(ctx context.Context, u *models.User, token string) error
	RevokeAll(ctx context.Context, u *models.User) error
}

// UserHandler handles account and session requests.
type UserHandler struct {
	Users    UserService
	Sessions SessionService
	Log      *zap.Logger
}

// authResponse is returned by registration and login.
type authResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Create registers a new user and opens a first session for it.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var reg models.Registration
	if err := decodeJSON(r, &reg); err != nil {
		writeError(w, h.Log, err)
		return
	}

	u, err := h.Users.Register(r.Context(), reg)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	token, err := h.Sessions.Issue(r.Context(), u)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{User: u, Token: token})
}

// Login exchanges credentials for a new bearer token.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}

	u, err := h.Users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	token, err := h.Sessions.Issue(r.Context(), u)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{User: u, Token: token})
}

// Logout revokes the token the request was made with.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromContext(r.Context())
	if err := h.Sessions.Revoke(r.Context(), u, middleware.TokenFromContext(r.Context())); err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// LogoutAll revokes every token of the caller.
func (h *UserHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromContext(r.Context())
	if err := h.Sessions.RevokeAll(r.Context(), u); err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// List returns every registered user.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.ListUsers(r.Context())
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// Profile returns the caller.
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, middleware.UserFromContext(r.Context()))
}

// Update applies a partial profile update to the caller.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, h.Log, invalidBody())
		return
	}
	upd, err := validation.DecodeUserUpdate(body)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}

	u, err := h.Users.UpdateFields(r.Context(), middleware.UserFromContext(r.Context()), upd)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// Delete removes the caller together with their tasks and returns the
// removed user.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromContext(r.Context())
	if err := h.Users.DeleteUser(r.Context(), u); err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
