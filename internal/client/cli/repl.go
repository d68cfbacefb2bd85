package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/tvportal/internal/client/client"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. App satisfies
// it; tests use a stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context, args []string) error
	Logout(ctx context.Context) error
	Whoami(ctx context.Context) error
	ChangePassword(ctx context.Context) error
	Status(ctx context.Context) error
	Maintenance(ctx context.Context, args []string) error
	LogoutAll(ctx context.Context) error
	Notice(ctx context.Context, args []string) error
	Users(ctx context.Context) error
	Block(ctx context.Context, args []string, blocked bool) error
	Kick(ctx context.Context, args []string) error
	SetPassword(ctx context.Context, args []string) error
	Role(ctx context.Context, args []string) error
	Audit(ctx context.Context, args []string) error
	Export(ctx context.Context, args []string) error
}

var errUsage = errors.New("usage")

// runREPL reads commands line by line from reader and dispatches them to a.
// It returns on EOF or "exit"/"quit". Command errors are printed; an
// invalid-session error also drops the stored session.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("portalctl%s> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || strings.TrimSpace(line) == "") {
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: whoami, status, maintenance on [message] | off, notice [on <text> | off], logoutall, users, " +
					"block <id>, unblock <id>, kick <id>, setpass <id>, role <id> <USER|ADMIN>, passwd, " +
					"audit [query], export [since], logout, exit")
			} else {
				printlnFn("Available commands: login [email], status, exit")
			}

		case "login":
			cmdErr = a.Login(ctx, args)
		case "logout":
			cmdErr = a.Logout(ctx)
		case "whoami":
			cmdErr = a.Whoami(ctx)
		case "passwd":
			cmdErr = a.ChangePassword(ctx)
		case "status":
			cmdErr = a.Status(ctx)
		case "maintenance":
			cmdErr = a.Maintenance(ctx, args)
		case "logoutall":
			cmdErr = a.LogoutAll(ctx)
		case "notice":
			cmdErr = a.Notice(ctx, args)
		case "users":
			cmdErr = a.Users(ctx)
		case "block":
			cmdErr = a.Block(ctx, args, true)
		case "unblock":
			cmdErr = a.Block(ctx, args, false)
		case "kick":
			cmdErr = a.Kick(ctx, args)
		case "setpass":
			cmdErr = a.SetPassword(ctx, args)
		case "role":
			cmdErr = a.Role(ctx, args)
		case "audit":
			cmdErr = a.Audit(ctx, args)
		case "export":
			cmdErr = a.Export(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", cmdErr.Error())
			if errors.Is(cmdErr, client.ErrSessionInvalid) {
				_ = a.Logout(ctx)
			}
		}

		if err != nil {
			return
		}
	}
}
