// Package server exposes the HTTP surface: customer loan APIs, mobile-OTP
// auth, profile management, the admin back office, and the wizard session
// endpoints.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"loanbridge/internal/auth"
	"loanbridge/internal/common/config"
	"loanbridge/internal/common/errors"
	"loanbridge/internal/common/logger"
	"loanbridge/internal/common/observability"
	"loanbridge/internal/models"
	"loanbridge/internal/notify"
	"loanbridge/internal/repository"
	"loanbridge/internal/search"
	"loanbridge/internal/submit"
	"loanbridge/internal/wizard"
	"loanbridge/internal/workflow"
)

// Server wires the HTTP handlers to their collaborators.
type Server struct {
	cfg      *config.Config
	logger   logger.Logger
	errs     *errors.ErrorHandler
	obs      *observability.Observability
	users    *repository.UserRepository
	apps     *repository.ApplicationRepository
	tokens   *auth.TokenService
	otp      *auth.OTPService
	sessions *wizard.SessionStore
	pipeline *submit.Pipeline
	verifier wizard.IncomeVerifier
	indexer  *search.Indexer
	notifier *notify.Notifier
	crm      DealPusher
	workflow *workflow.Publisher

	httpServer *http.Server
}

// DealPusher is satisfied by the partner CRM client.
type DealPusher interface {
	PushApprovedDeal(ctx context.Context, user *models.User, app *models.LoanApplication) (string, error)
}

// Options collects the server's collaborators. Optional integrations
// (indexer, notifier, crm, workflow) may be nil.
type Options struct {
	Config   *config.Config
	Logger   logger.Logger
	Users    *repository.UserRepository
	Apps     *repository.ApplicationRepository
	Tokens   *auth.TokenService
	OTP      *auth.OTPService
	Sessions *wizard.SessionStore
	Pipeline *submit.Pipeline
	Verifier wizard.IncomeVerifier
	Indexer  *search.Indexer
	Notifier *notify.Notifier
	CRM      DealPusher
	Workflow *workflow.Publisher
	Obs      *observability.Observability
}

func New(opts Options) *Server {
	s := &Server{
		cfg:      opts.Config,
		logger:   opts.Logger.WithFields(map[string]interface{}{"component": "server"}),
		errs:     errors.NewErrorHandler(opts.Logger),
		obs:      opts.Obs,
		users:    opts.Users,
		apps:     opts.Apps,
		tokens:   opts.Tokens,
		otp:      opts.OTP,
		sessions: opts.Sessions,
		pipeline: opts.Pipeline,
		verifier: opts.Verifier,
		indexer:  opts.Indexer,
		notifier: opts.Notifier,
		crm:      opts.CRM,
		workflow: opts.Workflow,
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpServer = &http.Server{
		Addr:         opts.Config.Server.Address,
		Handler:      s.instrument(mux),
		ReadTimeout:  config.GetDuration(opts.Config.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(opts.Config.Server.WriteTimeout),
	}

	return s
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	// Auth
	mux.HandleFunc("POST /auth/mobile-auth", s.handleMobileAuth)
	mux.HandleFunc("POST /auth/verify-mobile-otp", s.handleVerifyMobileOTP)
	mux.HandleFunc("POST /admin/login", s.handleAdminLogin)

	// Loans
	mux.Handle("POST /loans/apply", s.requireAuth(http.HandlerFunc(s.handleApply)))
	mux.Handle("GET /loans", s.requireAuth(http.HandlerFunc(s.handleListLoans)))
	mux.Handle("GET /loans/{id}", s.requireAuth(http.HandlerFunc(s.handleGetLoan)))

	// Profile
	mux.Handle("GET /users/profile", s.requireAuth(http.HandlerFunc(s.handleGetProfile)))
	mux.Handle("PUT /users/profile", s.requireAuth(http.HandlerFunc(s.handleUpdateProfile)))
	mux.Handle("POST /users/profile/picture", s.requireAuth(http.HandlerFunc(s.handleUploadPicture)))

	// Admin back office
	mux.Handle("POST /admin/loans/{id}/approve", s.requireAdmin(http.HandlerFunc(s.handleApprove)))
	mux.Handle("POST /admin/loans/{id}/reject", s.requireAdmin(http.HandlerFunc(s.handleReject)))
	mux.Handle("GET /admin/loans/search", s.requireAdmin(http.HandlerFunc(s.handleAdminSearch)))

	// Wizard sessions
	mux.HandleFunc("POST /wizard/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /wizard/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("POST /wizard/sessions/{id}/fields", s.handleSetField)
	mux.HandleFunc("POST /wizard/sessions/{id}/next", s.handleNext)
	mux.HandleFunc("POST /wizard/sessions/{id}/back", s.handleBack)
	mux.HandleFunc("POST /wizard/sessions/{id}/jump", s.handleJump)
	mux.HandleFunc("POST /wizard/sessions/{id}/toggle-contact-edit", s.handleToggleContactEdit)
	mux.HandleFunc("POST /wizard/sessions/{id}/verify-income", s.handleVerifyIncome)
	mux.HandleFunc("POST /wizard/sessions/{id}/submit", s.handleSubmit)

	// Operational
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.Handle("GET /metrics", promhttp.Handler())
}

// Handler returns the full middleware-wrapped handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start blocks serving HTTP until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server listening", map[string]interface{}{
		"address": s.httpServer.Addr,
	})
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
