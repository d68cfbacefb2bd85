package cli

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/tvportal/internal/common"
	"github.com/dmitrijs2005/tvportal/internal/filex"
	"github.com/dmitrijs2005/tvportal/internal/netx"
)

// downloadExport is a test seam for netx.DownloadFromPresignedURL.
var downloadExport = netx.DownloadFromPresignedURL

const auditTake = 50

func (a *App) Status(ctx context.Context) error {
	m, err := a.api.MaintenanceStatus(ctx)
	if err != nil {
		return err
	}
	if !m.Active {
		fmt.Fprintln(a.out, "Maintenance: off")
		return nil
	}
	fmt.Fprintf(a.out, "Maintenance: ON since %s: %s\n", m.UpdatedAt, m.Message)
	return nil
}

// Maintenance handles "maintenance on [message...]" and "maintenance off".
func (a *App) Maintenance(ctx context.Context, args []string) error {
	if len(args) == 0 || (args[0] != "on" && args[0] != "off") {
		return fmt.Errorf("%w: maintenance on [message] | maintenance off", errUsage)
	}
	active := args[0] == "on"

	m, err := a.api.SetMaintenance(ctx, active, strings.Join(args[1:], " "))
	if err != nil {
		return err
	}

	if m.Active {
		fmt.Fprintf(a.out, "Maintenance enabled, %d user sessions revoked\n", m.Kicked)
	} else {
		fmt.Fprintln(a.out, "Maintenance disabled")
	}
	return nil
}

// Notice handles "notice" (show), "notice on <text...>" and "notice off".
func (a *App) Notice(ctx context.Context, args []string) error {
	if len(args) == 0 {
		n, err := a.api.Notice(ctx)
		if err != nil {
			return err
		}
		if !n.Active {
			fmt.Fprintln(a.out, "Notice: none")
			return nil
		}
		fmt.Fprintf(a.out, "Notice since %s: %s\n", n.UpdatedAt, n.Text)
		return nil
	}

	switch {
	case args[0] == "on" && len(args) > 1:
		if _, err := a.api.SetNotice(ctx, true, strings.Join(args[1:], " ")); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Notice published")
	case args[0] == "off" && len(args) == 1:
		if _, err := a.api.SetNotice(ctx, false, ""); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Notice cleared")
	default:
		return fmt.Errorf("%w: notice | notice on <text> | notice off", errUsage)
	}
	return nil
}

func (a *App) LogoutAll(ctx context.Context) error {
	n, err := a.api.LogoutAll(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d user sessions revoked\n", n)
	return nil
}

func (a *App) Users(ctx context.Context) error {
	list, err := a.api.ListAccounts(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMAIL\tROLE\tBLOCKED\tLAST LOGIN\tIP")
	for _, u := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\t%s\n", u.ID, u.Email, u.Role, u.Blocked, u.LastLoginAt, u.LastLoginIP)
	}
	return tw.Flush()
}

func oneID(args []string, usage string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%w: %s", errUsage, usage)
	}
	return args[0], nil
}

func (a *App) Block(ctx context.Context, args []string, blocked bool) error {
	verb := "unblock"
	if blocked {
		verb = "block"
	}
	id, err := oneID(args, verb+" <id>")
	if err != nil {
		return err
	}
	if err := a.api.SetBlocked(ctx, id, blocked); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Account %s %sed, sessions revoked\n", id, verb)
	return nil
}

func (a *App) Kick(ctx context.Context, args []string) error {
	id, err := oneID(args, "kick <id>")
	if err != nil {
		return err
	}
	if err := a.api.Kick(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Account %s sessions revoked\n", id)
	return nil
}

func (a *App) SetPassword(ctx context.Context, args []string) error {
	id, err := oneID(args, "setpass <id>")
	if err != nil {
		return err
	}

	password, err := getPassword(a.out, "New password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.api.SetPassword(ctx, id, password); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Password of %s set, sessions revoked\n", id)
	return nil
}

func (a *App) Role(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: role <id> <USER|ADMIN>", errUsage)
	}
	role := strings.ToUpper(args[1])
	if err := a.api.SetRole(ctx, args[0], role); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Account %s is now %s\n", args[0], role)
	return nil
}

// Audit lists recent audit records, optionally filtered by a free-text
// query.
func (a *App) Audit(ctx context.Context, args []string) error {
	recs, err := a.api.ListAudit(ctx, strings.Join(args, " "), "", auditTake)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tACTOR\tACTION\tTARGET\tMETA")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.CreatedAt, r.ActorEmail, r.Action, r.Target, r.Meta)
	}
	return tw.Flush()
}

// Export asks the server for an NDJSON export of audit records since the
// given RFC 3339 time and downloads it into the data directory.
func (a *App) Export(ctx context.Context, args []string) error {
	since := ""
	if len(args) > 0 {
		since = args[0]
	}

	exp, err := a.api.ExportAudit(ctx, since)
	if err != nil {
		return err
	}

	body, err := downloadExport(ctx, exp.URL)
	if err != nil {
		return fmt.Errorf("download %s: %w", exp.Key, err)
	}

	dst := filepath.Join(a.dataDir, path.Base(exp.Key))
	if err := filex.WriteFileAtomic(dst, body); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Exported %d records to %s\n", exp.Count, dst)
	return nil
}
