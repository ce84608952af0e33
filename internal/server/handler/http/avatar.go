package http

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"github.com/atinyakov/taskmanager/internal/middleware"
	"github.com/atinyakov/taskmanager/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// avatarField is the multipart form field carrying the upload.
const avatarField = "avatar"

// AvatarHandler handles avatar upload, removal and retrieval.
type AvatarHandler struct {
	Users UserService
	// MaxBytes caps the size of the uploaded file.
	MaxBytes int64
	// Extensions lists the accepted filename extensions, lowercased with a
	// leading dot.
	Extensions []string
	Log        *zap.Logger
}

func avatarError(msg string) error {
	return &models.ValidationError{Fields: map[string]string{avatarField: msg}}
}

// Upload stores the caller's new avatar.
func (h *AvatarHandler) Upload(w http.ResponseWriter, r *http.Request) {
	// multipart framing needs some room beyond the file itself
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes+64<<10)

	file, header, err := r.FormFile(avatarField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, h.Log, avatarError("file too large"))
			return
		}
		writeError(w, h.Log, avatarError("please upload an image"))
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !slices.Contains(h.Extensions, ext) {
		writeError(w, h.Log, avatarError("please upload an image"))
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, h.MaxBytes+1))
	if err != nil {
		writeError(w, h.Log, avatarError("please upload an image"))
		return
	}
	if int64(len(data)) > h.MaxBytes {
		writeError(w, h.Log, avatarError("file too large"))
		return
	}

	if err := h.Users.SetAvatar(r.Context(), middleware.UserFromContext(r.Context()), data); err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Delete removes the caller's avatar.
func (h *AvatarHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Users.DeleteAvatar(r.Context(), middleware.UserFromContext(r.Context())); err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Get serves the avatar of the user named by the id query parameter.
func (h *AvatarHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.URL.Query().Get("id"))
	if err != nil {
		writeError(w, h.Log, models.ErrNotFound)
		return
	}

	avatar, err := h.Users.GetAvatar(r.Context(), id)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(avatar)
}
