// internal/server/user_handlers.go
package server

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"loanbridge/internal/common/errors"
	"loanbridge/internal/models"
)

const maxProfilePictureBytes = 5 << 20 // 5 MiB

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	user, err := s.users.GetByID(r.Context(), sess.UserID)
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", map[string]interface{}{
		"user": user,
	})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	var upd models.ProfileUpdate
	if err := decodeBody(r, &upd); err != nil {
		s.errs.WriteError(w, r, errors.NewValidationFailedError("profile", "invalid request body"))
		return
	}
	if upd.Email != nil && *upd.Email != "" && !strings.Contains(*upd.Email, "@") {
		s.errs.WriteError(w, r, errors.NewValidationFailedError("email", "email must contain '@'"))
		return
	}

	user, err := s.users.UpdateProfile(r.Context(), sess.UserID, upd)
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Profile updated", map[string]interface{}{
		"user": user,
	})
}

// handleUploadPicture stores the uploaded image under the configured upload
// directory and records its path on the user.
func (s *Server) handleUploadPicture(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	if err := r.ParseMultipartForm(maxProfilePictureBytes); err != nil {
		s.errs.WriteError(w, r, errors.NewValidationFailedError("picture", "multipart form too large or malformed"))
		return
	}
	file, header, err := r.FormFile("picture")
	if err != nil {
		s.errs.WriteError(w, r, errors.NewValidationFailedError("picture", "picture file is required"))
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		s.errs.WriteError(w, r, errors.NewValidationFailedError("picture", "unsupported image type"))
		return
	}

	dir := s.cfg.Server.UploadDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.errs.WriteError(w, r, fmt.Errorf("creating upload directory: %w", err))
		return
	}

	name := fmt.Sprintf("%s-%s%s", sess.UserID, uuid.New().String(), ext)
	path := filepath.Join(dir, name)
	dst, err := os.Create(path)
	if err != nil {
		s.errs.WriteError(w, r, fmt.Errorf("creating upload file: %w", err))
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(file, maxProfilePictureBytes)); err != nil {
		s.errs.WriteError(w, r, fmt.Errorf("writing upload: %w", err))
		return
	}

	if err := s.users.UpdateProfilePicture(r.Context(), sess.UserID, path); err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Profile picture updated", map[string]interface{}{
		"profilePicture": path,
	})
}
