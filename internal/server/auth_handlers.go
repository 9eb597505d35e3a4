// internal/server/auth_handlers.go
package server

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"regexp"

	"loanbridge/internal/common/errors"
)

var mobileNumberRe = regexp.MustCompile(`^\d{10}$`)

type mobileAuthRequest struct {
	Mobile string `json:"mobile"`
}

// handleMobileAuth issues an OTP to the given mobile number.
func (s *Server) handleMobileAuth(w http.ResponseWriter, r *http.Request) {
	var req mobileAuthRequest
	if err := decodeBody(r, &req); err != nil {
		s.errs.WriteError(w, r, errors.NewValidationFailedError("mobile", "invalid request body"))
		return
	}
	if !mobileNumberRe.MatchString(req.Mobile) {
		s.errs.WriteError(w, r, errors.NewValidationFailedError("mobile", "mobile must be a 10-digit number"))
		return
	}

	if err := s.otp.Issue(r.Context(), req.Mobile); err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "OTP sent", nil)
}

type verifyOTPRequest struct {
	Mobile string `json:"mobile"`
	OTP    string `json:"otp"`
}

// handleVerifyMobileOTP verifies the code, upserts the user, and issues the
// bearer token pair.
func (s *Server) handleVerifyMobileOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := decodeBody(r, &req); err != nil {
		s.errs.WriteError(w, r, errors.NewValidationFailedError("otp", "invalid request body"))
		return
	}
	if !mobileNumberRe.MatchString(req.Mobile) || req.OTP == "" {
		s.errs.WriteError(w, r, errors.NewValidationFailedError("otp", "mobile and otp are required"))
		return
	}

	if err := s.otp.Verify(r.Context(), req.Mobile, req.OTP); err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	user, err := s.users.UpsertByMobile(r.Context(), req.Mobile)
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	sess, err := s.tokens.Issue(r.Context(), user)
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Login successful", map[string]interface{}{
		"accessToken":  sess.AccessToken,
		"refreshToken": sess.RefreshToken,
		"user":         user,
	})
}

type adminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleAdminLogin authenticates a back-office user against the users table
// and returns an admin token pair.
func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := decodeBody(r, &req); err != nil {
		s.errs.WriteError(w, r, errors.NewValidationFailedError("credentials", "invalid request body"))
		return
	}
	if req.Email == "" || req.Password == "" {
		s.errs.WriteError(w, r, errors.NewValidationFailedError("credentials", "email and password are required"))
		return
	}

	admin, err := s.users.GetAdminByEmail(r.Context(), req.Email)
	if err != nil {
		// Missing account and bad password look the same to the caller.
		s.errs.WriteError(w, r, errors.NewAuthTokenInvalidError("invalid credentials"))
		return
	}

	if !verifyPassword(admin.PasswordHash, req.Password) {
		s.errs.WriteError(w, r, errors.NewAuthTokenInvalidError("invalid credentials"))
		return
	}

	sess, err := s.tokens.Issue(r.Context(), admin)
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Login successful", map[string]interface{}{
		"accessToken":  sess.AccessToken,
		"refreshToken": sess.RefreshToken,
	})
}

// verifyPassword compares a stored sha256 hex digest in constant time.
func verifyPassword(storedHash, password string) bool {
	sum := sha256.Sum256([]byte(password))
	digest := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(storedHash), []byte(digest)) == 1
}
