// internal/server/admin_handlers.go
package server

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"loanbridge/internal/common/errors"
	"loanbridge/internal/models"
)

type approveRequest struct {
	Terms map[string]interface{} `json:"terms"`
}

// handleApprove rules on an application, re-indexes it, and fans out the
// decision to the applicant and the partner CRM.
func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	app, err := s.apps.GetByID(r.Context(), id)
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}
	if app.IsDecided() {
		s.errs.WriteError(w, r, errors.NewDuplicateApplicationError("application already decided"))
		return
	}

	var req approveRequest
	// Approving with no body at all is allowed; the terms are optional.
	if err := decodeBody(r, &req); err != nil && err != io.EOF {
		s.errs.WriteError(w, r, errors.NewValidationFailedError("terms", "invalid request body"))
		return
	}

	if err := s.apps.UpdateDecision(r.Context(), id, models.StatusApproved, "", req.Terms); err != nil {
		s.errs.WriteError(w, r, err)
		return
	}
	app.Status = models.StatusApproved
	app.ApprovedTerms = req.Terms

	s.fanOutDecision(r, app)

	writeSuccess(w, http.StatusOK, "Application approved", map[string]interface{}{
		"applicationId": app.ID,
		"status":        app.Status,
	})
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	app, err := s.apps.GetByID(r.Context(), id)
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}
	if app.IsDecided() {
		s.errs.WriteError(w, r, errors.NewDuplicateApplicationError("application already decided"))
		return
	}

	var req rejectRequest
	if err := decodeBody(r, &req); err != nil {
		s.errs.WriteError(w, r, errors.NewValidationFailedError("reason", "invalid request body"))
		return
	}
	if req.Reason == "" {
		s.errs.WriteError(w, r, errors.NewValidationFailedError("reason", "a rejection reason is required"))
		return
	}

	if err := s.apps.UpdateDecision(r.Context(), id, models.StatusRejected, req.Reason, nil); err != nil {
		s.errs.WriteError(w, r, err)
		return
	}
	app.Status = models.StatusRejected
	app.DecisionReason = req.Reason

	s.fanOutDecision(r, app)

	writeSuccess(w, http.StatusOK, "Application rejected", map[string]interface{}{
		"applicationId": app.ID,
		"status":        app.Status,
	})
}

// fanOutDecision re-indexes the decided application and notifies the
// applicant. Approved deals are also pushed to the partner CRM. All of it is
// best effort.
func (s *Server) fanOutDecision(r *http.Request, app *models.LoanApplication) {
	ctx := r.Context()

	if s.indexer != nil {
		if err := s.indexer.IndexApplication(ctx, app); err != nil {
			s.logger.Warn("decision re-index failed", map[string]interface{}{
				"application_id": app.ID,
				"error":          err.Error(),
			})
		}
	}

	user, err := s.users.GetByID(ctx, app.UserID)
	if err != nil {
		s.logger.Warn("applicant lookup failed for decision fan-out", map[string]interface{}{
			"application_id": app.ID,
			"error":          err.Error(),
		})
		return
	}

	if s.notifier != nil {
		s.notifier.ApplicationDecided(ctx, user, app)
	}
	if s.crm != nil && app.Status == models.StatusApproved {
		if dealID, err := s.crm.PushApprovedDeal(ctx, user, app); err != nil {
			s.logger.Warn("partner CRM push failed", map[string]interface{}{
				"application_id": app.ID,
				"error":          err.Error(),
			})
		} else {
			s.logger.Info("approved deal pushed to partner CRM", map[string]interface{}{
				"application_id": app.ID,
				"deal_id":        dealID,
			})
		}
	}
}

func (s *Server) handleAdminSearch(w http.ResponseWriter, r *http.Request) {
	if s.indexer == nil {
		s.errs.WriteError(w, r, errors.NewUpstreamUnavailableError("elasticsearch", fmt.Errorf("search backend not configured")))
		return
	}

	q := r.URL.Query()
	size := 20
	if v := q.Get("size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			size = n
		}
	}

	result, err := s.indexer.Search(r.Context(), q.Get("q"), q.Get("status"), size)
	if err != nil {
		s.errs.WriteError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", map[string]interface{}{
		"total": result.Total,
		"hits":  result.Hits,
	})
}
