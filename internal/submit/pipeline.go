// Package submit drives the final-step submission: token check, payload
// transformation, one best-effort POST to the origination API, and the
// success/error state that follows. No retry, no idempotency key, no
// offline queueing.
package submit

import (
	"context"
	"strings"
	"time"

	"loanbridge/internal/action"
	"loanbridge/internal/common/errors"
	"loanbridge/internal/common/logger"
	"loanbridge/internal/common/metrics"
	"loanbridge/internal/wizard"
)

// LoaderKey names the shared busy flag the submission toggles. The submit
// control itself is not gated on it, matching the original inconsistency.
const LoaderKey = "submitLoanApplication"

const genericFailure = "Something went wrong while submitting your application. Please try again."

// Result is what the wizard surface renders after a submit click.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Pipeline performs submissions against the origination API.
type Pipeline struct {
	actions     *action.Factory
	applyURL    string
	bannerDelay time.Duration
	now         func() time.Time
	logger      logger.Logger
}

// Option tweaks pipeline construction.
type Option func(*Pipeline)

// WithClock injects the time source, used by tests to drive the banner
// clear deterministically.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

func NewPipeline(actions *action.Factory, originationBaseURL string, bannerDelay time.Duration, log logger.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		actions:     actions,
		applyURL:    strings.TrimSuffix(originationBaseURL, "/") + "/loans/apply",
		bannerDelay: bannerDelay,
		now:         time.Now,
		logger:      log.WithFields(map[string]interface{}{"component": "submission-pipeline"}),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Submit runs the full pipeline against the session's current form state.
// The token is scoped to this call and never retained, so one caller's
// credentials cannot leak into another caller's submit. The session is
// mutated in place; the caller persists it.
func (p *Pipeline) Submit(ctx context.Context, sess *wizard.Session, token string) Result {
	form := sess.Controller.Form

	if !wizard.CanSubmit(form) {
		return p.fail(sess, errors.NewConsentRequiredError().Message)
	}

	// Local failure before any network call when no token was supplied.
	if token == "" {
		metrics.SubmissionsTotal.WithLabelValues("blocked").Inc()
		return p.fail(sess, errors.NewAuthTokenMissingError().Message)
	}

	payload, err := BuildPayload(form)
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues("blocked").Inc()
		return p.fail(sess, errors.AsStandard(err).Message)
	}

	res := p.actions.Execute(ctx, action.Options{
		Method:    "POST",
		URL:       p.applyURL,
		LoaderKey: LoaderKey,
		AuthToken: func() string { return token },
	}, payload)

	if !res.Success {
		metrics.SubmissionsTotal.WithLabelValues("failed").Inc()
		msg := res.Error
		if msg == "" {
			msg = genericFailure
		}
		p.logger.Warn("submission failed", map[string]interface{}{
			"sessionId": sess.ID,
			"error":     msg,
		})
		// Form state is kept so the user can retry.
		return p.fail(sess, msg)
	}

	msg := res.Message
	if msg == "" {
		msg = "Application submitted successfully!"
	}

	now := p.now().UTC()
	sess.Controller.Form = wizard.NewFormState()
	sess.Controller.UI = wizard.UIState{}
	sess.Controller.Income = wizard.IncomeVerification{}
	sess.Banner = &wizard.Banner{
		Kind:    "success",
		Message: msg,
		ClearAt: now.Add(p.bannerDelay),
	}
	// The step index resets when the banner clears, not immediately.
	sess.PendingStepReset = true

	metrics.SubmissionsTotal.WithLabelValues("success").Inc()
	p.logger.Info("application submitted", map[string]interface{}{
		"sessionId": sess.ID,
	})

	return Result{Success: true, Message: msg}
}

func (p *Pipeline) fail(sess *wizard.Session, msg string) Result {
	sess.Banner = &wizard.Banner{Kind: "error", Message: msg}
	return Result{Success: false, Error: msg}
}
