// Package httpapi is the JSON-over-HTTP transport of the portal: public
// auth endpoints, session self-service and the admin console API.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/tvportal/internal/logging"
	"github.com/dmitrijs2005/tvportal/internal/server/metrics"
	"github.com/dmitrijs2005/tvportal/internal/server/models"
	"github.com/dmitrijs2005/tvportal/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Sessions interface {
	Login(ctx context.Context, email, password string, meta models.RequestMeta) (*services.LoginResult, error)
	Validate(ctx context.Context, token string) (*models.Principal, error)
	AdminBlock(ctx context.Context, actor models.Principal, targetID string, blocked bool, meta models.RequestMeta) error
	AdminKick(ctx context.Context, actor models.Principal, targetID string, meta models.RequestMeta) error
	AdminSetPassword(ctx context.Context, actor models.Principal, targetID, password string, meta models.RequestMeta) error
	AdminSetRole(ctx context.Context, actor models.Principal, targetID string, role models.Role, meta models.RequestMeta) error
	ChangeOwnPassword(ctx context.Context, p models.Principal, current, next string) error
	ListAccounts(ctx context.Context, actor models.Principal) ([]models.Account, error)
}

type Maintenance interface {
	Status(ctx context.Context) (*models.MaintenanceConfig, error)
	Set(ctx context.Context, actor models.Principal, active bool, message string, meta models.RequestMeta) (*services.MaintenanceUpdate, error)
	LogoutAll(ctx context.Context, actor models.Principal, meta models.RequestMeta) (int64, error)
	Notice(ctx context.Context) (*models.SystemNotice, error)
	SetNotice(ctx context.Context, actor models.Principal, active bool, text string, meta models.RequestMeta) (*models.SystemNotice, error)
}

type Audit interface {
	List(ctx context.Context, actor models.Principal, filter models.AuditFilter) ([]models.AuditRecord, error)
	Export(ctx context.Context, actor models.Principal, filter models.AuditFilter) (*services.AuditExport, error)
}

type Accounts interface {
	Signup(ctx context.Context, email, password string) (*models.Account, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
}

// Options tune the transport.
type Options struct {
	Address      string
	SecureCookie bool
}

type Server struct {
	opts        Options
	sessions    Sessions
	maintenance Maintenance
	audit       Audit
	accounts    Accounts
	logger      logging.Logger
}

func NewServer(opts Options, l logging.Logger, s Sessions, m Maintenance, a Audit, acc Accounts) *Server {
	return &Server{
		opts:        opts,
		sessions:    s,
		maintenance: m,
		audit:       a,
		accounts:    acc,
		logger:      l.With("module", "http_server"),
	}
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLog)
	r.Use(instrument)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/api/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Post("/api/auth/signup", s.handleSignup)
	r.Post("/api/auth/login", s.handleLogin)
	r.Post("/api/auth/logout", s.handleLogout)
	r.Post("/api/password/forgot", s.handleForgotPassword)
	r.Post("/api/password/reset", s.handleResetPassword)
	r.Get("/api/public/maintenance", s.handleMaintenanceStatus)
	r.Get("/api/public/notice", s.handleNotice)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		r.Get("/api/session", s.handleSession)
		r.Post("/api/password/change", s.handleChangePassword)

		r.Route("/api/admin", func(r chi.Router) {
			r.Use(requireAdmin)

			r.Get("/users", s.handleListUsers)
			r.Post("/users/{id}/block", s.handleBlock)
			r.Post("/users/{id}/kick", s.handleKick)
			r.Post("/users/{id}/set-password", s.handleSetPassword)
			r.Post("/users/{id}/role", s.handleSetRole)
			r.Post("/maintenance", s.handleSetMaintenance)
			r.Post("/logout-all", s.handleLogoutAll)
			r.Post("/notice", s.handleSetNotice)
			r.Post("/notice/off", s.handleNoticeOff)
			r.Get("/audit", s.handleListAudit)
			r.Post("/audit/export", s.handleExportAudit)
		})
	})

	return r
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Address,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.opts.Address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "tvportal"})
}
