// internal/server/wizard_handlers.go
package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"loanbridge/internal/common/errors"
	"loanbridge/internal/partners"
	"loanbridge/internal/wizard"
)

type createSessionRequest struct {
	Strict bool `json:"strict,omitempty"`
}

// handleCreateSession opens a wizard session. An Authorization header is
// optional here: the wizard is browsable anonymously and only the final
// submit requires a token.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	_ = decodeBody(r, &req)

	userID := ""
	if authSess, err := s.authenticate(r); err == nil {
		userID = authSess.UserID
	}

	strict := req.Strict || s.cfg.Wizard.StrictAdvance
	sess, err := s.sessions.Create(r.Context(), userID, strict)
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "", s.sessionView(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *wizard.Session) (interface{}, error) {
		return nil, nil
	})
}

type setFieldRequest struct {
	Field string          `json:"field"`
	Value json.RawMessage `json:"value"`
}

func (s *Server) handleSetField(w http.ResponseWriter, r *http.Request) {
	var req setFieldRequest
	if err := decodeBody(r, &req); err != nil {
		s.errs.WriteError(w, r, errors.NewValidationFailedError("field", "invalid request body"))
		return
	}

	s.withSession(w, r, func(sess *wizard.Session) (interface{}, error) {
		upd, err := wizard.ParseFieldUpdate(req.Field, req.Value)
		if err != nil {
			return nil, err
		}
		sess.Controller.ApplyField(upd)
		return nil, nil
	})
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *wizard.Session) (interface{}, error) {
		return nil, sess.Controller.Next()
	})
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *wizard.Session) (interface{}, error) {
		return nil, sess.Controller.Back()
	})
}

type jumpRequest struct {
	Step int `json:"step"`
}

func (s *Server) handleJump(w http.ResponseWriter, r *http.Request) {
	var req jumpRequest
	if err := decodeBody(r, &req); err != nil {
		s.errs.WriteError(w, r, errors.NewValidationFailedError("step", "invalid request body"))
		return
	}

	s.withSession(w, r, func(sess *wizard.Session) (interface{}, error) {
		return nil, sess.Controller.JumpToStep(req.Step)
	})
}

type toggleContactEditRequest struct {
	Target string `json:"target"` // "mobile" | "email"
}

func (s *Server) handleToggleContactEdit(w http.ResponseWriter, r *http.Request) {
	var req toggleContactEditRequest
	if err := decodeBody(r, &req); err != nil {
		s.errs.WriteError(w, r, errors.NewValidationFailedError("target", "invalid request body"))
		return
	}

	s.withSession(w, r, func(sess *wizard.Session) (interface{}, error) {
		switch req.Target {
		case "mobile":
			sess.Controller.ToggleMobileEdit()
		case "email":
			sess.Controller.ToggleEmailEdit()
		default:
			return nil, errors.NewValidationFailedError("target", "target must be 'mobile' or 'email'")
		}
		return nil, nil
	})
}

type verifyIncomeRequest struct {
	SalarySlip wizard.FileMeta `json:"salarySlip"`
}

// handleVerifyIncome attaches the salary slip and starts the verification
// sub-machine. The session surfaces its pending state until the resolve
// deadline passes.
func (s *Server) handleVerifyIncome(w http.ResponseWriter, r *http.Request) {
	var req verifyIncomeRequest
	if err := decodeBody(r, &req); err != nil {
		s.errs.WriteError(w, r, errors.NewValidationFailedError("salarySlip", "invalid request body"))
		return
	}
	if req.SalarySlip.Name == "" {
		s.errs.WriteError(w, r, errors.NewValidationFailedError("salarySlip", "a salary slip file is required"))
		return
	}

	s.withSession(w, r, func(sess *wizard.Session) (interface{}, error) {
		sess.Controller.StartIncomeVerification(req.SalarySlip, s.verifier, time.Now())
		return nil, nil
	})
}

// handleSubmit runs the submission pipeline with the request's own bearer
// token; a request without one fails locally before any network call. The
// pipeline mutates the session in place (banner, form reset, deferred step
// reset) and this handler persists whatever state it left behind, success
// or not.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)

	s.withSession(w, r, func(sess *wizard.Session) (interface{}, error) {
		result := s.pipeline.Submit(r.Context(), sess, token)
		return map[string]interface{}{"result": result}, nil
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")
	if token == header {
		return ""
	}
	return token
}

// withSession loads the session, ticks its clock, applies fn, saves, and
// renders the session view merged with fn's extra data. Errors from fn are
// rendered without saving.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request, fn func(*wizard.Session) (interface{}, error)) {
	sess, err := s.sessions.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}
	sess.Tick(time.Now())

	extra, err := fn(sess)
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	if err := s.sessions.Save(r.Context(), sess); err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	view := s.sessionView(sess)
	if m, ok := extra.(map[string]interface{}); ok {
		for k, v := range m {
			view[k] = v
		}
	}
	writeSuccess(w, http.StatusOK, "", view)
}

// sessionView renders one wizard session the way the pages consume it:
// the step position, the form, the derived EMI, the control enablement,
// and the employment fields visible for the selected type.
func (s *Server) sessionView(sess *wizard.Session) map[string]interface{} {
	c := &sess.Controller

	view := map[string]interface{}{
		"id":               sess.ID,
		"activeStep":       c.ActiveStep,
		"stepLabel":        c.ActiveStep.String(),
		"form":             c.Form,
		"ui":               c.UI,
		"emi":              c.EMI(),
		"canGoBack":        c.CanGoBack(),
		"canGoNext":        c.CanGoNext(),
		"canSubmit":        wizard.CanSubmit(c.Form),
		"income":           c.Income,
		"employmentFields": wizard.VisibleEmploymentFields(c.Form.EmploymentType),
	}
	if sess.Banner != nil {
		view["banner"] = sess.Banner
	}
	if c.ActiveStep == wizard.StepFinalReview {
		view["offers"] = partners.Offers()
	}
	return view
}
