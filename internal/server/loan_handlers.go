// internal/server/loan_handlers.go
package server

import (
	"net/http"

	"github.com/google/uuid"

	"loanbridge/internal/common/errors"
	"loanbridge/internal/models"
)

// applyRequest mirrors the wire payload the submission pipeline builds.
type applyRequest struct {
	Amount             int64                  `json:"amount"`
	TenureMonths       int                    `json:"tenure_months"`
	InterestRate       float64                `json:"interest_rate"`
	Purpose            string                 `json:"purpose"`
	Employment         map[string]interface{} `json:"employment"`
	Contact            map[string]interface{} `json:"contact"`
	DocumentsSubmitted map[string]string      `json:"documents_submitted"`
	ConsentShare       bool                   `json:"consent_share"`
	ConsentCreditPull  bool                   `json:"consent_credit_pull"`
}

// handleApply persists a new application, then fans out to the optional
// integrations on a best-effort basis. Indexing, notification, and workflow
// failures never fail the submission itself.
func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	var req applyRequest
	if err := decodeBody(r, &req); err != nil {
		s.errs.WriteError(w, r, errors.NewValidationFailedError("application", "invalid request body"))
		return
	}
	if req.Amount <= 0 || req.TenureMonths <= 0 || req.InterestRate <= 0 {
		s.errs.WriteError(w, r, errors.NewValidationFailedError("application", "amount, tenure_months, and interest_rate must be positive"))
		return
	}
	if req.Purpose == "" {
		s.errs.WriteError(w, r, errors.NewValidationFailedError("purpose", "purpose is required"))
		return
	}
	if !req.ConsentShare {
		s.errs.WriteError(w, r, errors.NewConsentRequiredError())
		return
	}

	docs := req.DocumentsSubmitted
	if docs == nil {
		docs = map[string]string{}
	}
	for _, slot := range []string{"pan_card", "aadhaar_front", "aadhaar_back", "salary_slip"} {
		if docs[slot] == "" {
			docs[slot] = models.DocNotUploaded
		}
	}

	employmentType := ""
	if req.Employment != nil {
		if t, ok := req.Employment["type"].(string); ok {
			employmentType = t
		}
	}

	app := &models.LoanApplication{
		ID:                 uuid.New().String(),
		UserID:             sess.UserID,
		Amount:             req.Amount,
		TenureMonths:       req.TenureMonths,
		InterestRate:       req.InterestRate,
		Purpose:            req.Purpose,
		EmploymentType:     employmentType,
		EmploymentDetails:  req.Employment,
		ContactDetails:     req.Contact,
		DocumentsSubmitted: docs,
		ConsentShare:       req.ConsentShare,
		ConsentCreditPull:  req.ConsentCreditPull,
		Status:             models.StatusSubmitted,
	}

	if err := s.apps.Create(r.Context(), app); err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	if s.indexer != nil {
		if err := s.indexer.IndexApplication(r.Context(), app); err != nil {
			s.logger.Warn("application indexing failed", map[string]interface{}{
				"application_id": app.ID,
				"error":          err.Error(),
			})
		}
	}
	if s.notifier != nil {
		if user, err := s.users.GetByID(r.Context(), sess.UserID); err == nil {
			s.notifier.ApplicationSubmitted(r.Context(), user, app)
		}
	}
	if s.workflow != nil {
		if err := s.workflow.StartReview(r.Context(), app); err != nil {
			s.logger.Warn("review workflow start failed", map[string]interface{}{
				"application_id": app.ID,
				"error":          err.Error(),
			})
		}
	}

	writeSuccess(w, http.StatusOK, "Application submitted successfully!", map[string]interface{}{
		"applicationId": app.ID,
		"status":        app.Status,
	})
}

func (s *Server) handleListLoans(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	apps, err := s.apps.ListByUser(r.Context(), sess.UserID)
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", map[string]interface{}{
		"applications": apps,
	})
}

// handleGetLoan returns one application. Customers may only read their own.
func (s *Server) handleGetLoan(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	id := r.PathValue("id")

	app, err := s.apps.GetByID(r.Context(), id)
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}
	if app.UserID != sess.UserID && sess.Role != models.RoleAdmin {
		s.errs.WriteError(w, r, errors.NewForbiddenError("application belongs to another user"))
		return
	}

	writeSuccess(w, http.StatusOK, "", map[string]interface{}{
		"application": app,
	})
}
