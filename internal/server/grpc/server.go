// Package grpc serves the SessionAuthority API for the admin CLI and other
// internal callers.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/tvportal/internal/logging"
	"github.com/dmitrijs2005/tvportal/internal/server/models"
	"github.com/dmitrijs2005/tvportal/internal/server/services"
	"github.com/dmitrijs2005/tvportal/internal/sessionrpc"
	"google.golang.org/grpc"
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

type GRPCServer struct {
	address     string
	sessions    Sessions
	maintenance Maintenance
	audit       Audit
	logger      logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, s Sessions, m Maintenance, au Audit) *GRPCServer {
	return &GRPCServer{
		address:     a,
		logger:      l.With("module", "grpc_server"),
		sessions:    s,
		maintenance: m,
		audit:       au,
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(metricsInterceptor, s.sessionInterceptor))
	sessionrpc.RegisterSessionAuthorityServer(srv, &handler{s})
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
