// Package server wires configuration, storage and services together and
// runs the HTTP and gRPC transports until a termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/tvportal/internal/logging"
	"github.com/dmitrijs2005/tvportal/internal/server/auth"
	"github.com/dmitrijs2005/tvportal/internal/server/config"
	"github.com/dmitrijs2005/tvportal/internal/server/httpapi"
	"github.com/dmitrijs2005/tvportal/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/tvportal/internal/server/services"
	"github.com/dmitrijs2005/tvportal/internal/server/storage"

	gs "github.com/dmitrijs2005/tvportal/internal/server/grpc"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	sessions    *services.SessionService
	maintenance *services.MaintenanceService
	audit       *services.AuditService
	accounts    *services.AccountService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger, err := logging.New(c.LogFormat, c.LogLevel, os.Stdout)
	if err != nil {
		return nil, err
	}

	var (
		db *sql.DB
		rm repomanager.RepositoryManager
	)

	if c.DatabaseDSN == "" {
		logger.Warn(ctx, "No database DSN configured, using in-memory storage")
		mm := repomanager.NewInMemoryRepositoryManager()
		mm.SetLoginRetention(c.LoginWindow)
		rm = mm
	} else {
		db, err = repomanager.OpenPostgres(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		pm := repomanager.NewPostgresRepositoryManager()
		if err := pm.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrations error: %w", err)
		}
		rm = pm
	}

	hasher, err := auth.NewPasswordHasher(c.BcryptCost)
	if err != nil {
		return nil, err
	}

	var store services.ObjectStore
	if c.S3Bucket != "" {
		s3, err := storage.NewS3Store(ctx, storage.S3Options{
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("object storage init error: %w", err)
		}
		store = s3
	}

	audit := services.NewAuditService(db, rm, store, logger)
	ledger := services.NewLoginLedger(db, rm, services.PolicyFromConfig(c), logger)

	return &App{
		config:      c,
		logger:      logger,
		db:          db,
		sessions:    services.NewSessionService(db, rm, c, hasher, ledger, audit, logger),
		maintenance: services.NewMaintenanceService(db, rm, audit, logger),
		audit:       audit,
		accounts:    services.NewAccountService(db, rm, c, hasher, services.LogResetNotifier{Logger: logger}, logger),
	}, nil
}

// Accounts exposes the account service for bootstrap tooling.
func (app *App) Accounts() *services.AccountService {
	return app.accounts
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.sessions, app.maintenance, app.audit)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewServer(httpapi.Options{
		Address:      app.config.EndpointAddrHTTP,
		SecureCookie: app.config.SecureCookie,
	}, app.logger, app.sessions, app.maintenance, app.audit, app.accounts)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.Close(); err != nil {
		app.logger.Error(context.Background(), "Error closing database", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")
}

// Close releases the database handle, if any.
func (app *App) Close() error {
	if app.db == nil {
		return nil
	}
	return app.db.Close()
}
