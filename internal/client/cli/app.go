package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/tvportal/internal/client/client"
	"github.com/dmitrijs2005/tvportal/internal/client/config"
	"github.com/dmitrijs2005/tvportal/internal/client/repositories/session"
	"github.com/dmitrijs2005/tvportal/internal/filex"
)

const dbFileName = "portalctl.db"

type App struct {
	config   *config.Config
	api      client.Client
	sessions session.Repository
	db       *sql.DB
	dataDir  string
	email    string
	loggedIn bool
	reader   *bufio.Reader
	out      io.Writer
}

func NewApp(c *config.Config) (*App, error) {

	ctx := context.Background()

	dataDir, err := filex.EnsureDataDir(c.DataDir)
	if err != nil {
		return nil, err
	}

	db, err := client.InitDatabase(ctx, filepath.Join(dataDir, dbFileName))
	if err != nil {
		log.Printf("error initializing database: %s", err.Error())
		return nil, err
	}

	apiClient, err := client.NewSessionAuthorityClient(c.ServerEndpointAddr, c.RequestTimeout)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &App{
		config:   c,
		api:      apiClient,
		sessions: session.NewSQLiteRepository(db),
		db:       db,
		dataDir:  dataDir,
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}, nil
}

func (a *App) isLoggedIn() bool {
	return a.loggedIn
}

func (a *App) getStatus() string {
	if a.email == "" {
		return ""
	}
	return fmt.Sprintf(" (%s)", a.email)
}

// restore picks up a session saved by an earlier run for the same server.
func (a *App) restore(ctx context.Context) {
	s, err := a.sessions.Get(ctx, a.config.ServerEndpointAddr)
	if err != nil {
		log.Printf("error reading saved session: %v", err)
		return
	}
	if s == nil {
		return
	}
	a.api.SetToken(s.Token)
	a.email = s.Email
	a.loggedIn = true
}

func (a *App) Run(ctx context.Context) {
	defer a.close()

	fmt.Fprintln(a.out, "portalctl (type 'help' for commands)")
	a.restore(ctx)
	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) close() {
	if err := a.api.Close(); err != nil {
		log.Printf("error closing connection: %v", err)
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}
