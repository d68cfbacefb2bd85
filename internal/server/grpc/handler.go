package grpc

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/dmitrijs2005/tvportal/internal/server/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// handler implements sessionrpc.SessionAuthorityServer.
type handler struct {
	s *GRPCServer
}

func str(in *structpb.Struct, key string) string {
	return in.GetFields()[key].GetStringValue()
}

func boolean(in *structpb.Struct, key string) bool {
	return in.GetFields()[key].GetBoolValue()
}

// requestMeta resolves the caller address like the HTTP API does: the
// first x-forwarded-for entry, then x-real-ip, then the peer address.
func requestMeta(ctx context.Context) models.RequestMeta {
	var m models.RequestMeta
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get("x-forwarded-for"); len(v) > 0 && v[0] != "" {
			m.IP = strings.TrimSpace(strings.Split(v[0], ",")[0])
		} else if v := md.Get("x-real-ip"); len(v) > 0 {
			m.IP = strings.TrimSpace(v[0])
		}
		if v := md.Get("user-agent"); len(v) > 0 {
			m.UserAgent = v[0]
		}
	}
	if m.IP == "" {
		if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
			m.IP = p.Addr.String()
			if host, _, err := net.SplitHostPort(m.IP); err == nil {
				m.IP = host
			}
		}
	}
	return m
}

func newStruct(m map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

func accountFields(a *models.Account) map[string]any {
	m := map[string]any{
		"id":         a.ID,
		"email":      a.Email,
		"role":       string(a.Role),
		"blocked":    a.Blocked,
		"created_at": a.CreatedAt.UTC().Format(time.RFC3339),
	}
	if a.LastLoginAt != nil {
		m["last_login_at"] = a.LastLoginAt.UTC().Format(time.RFC3339)
		m["last_login_ip"] = a.LastLoginIP
	}
	return m
}

func (h *handler) actor(ctx context.Context) (models.Principal, error) {
	p, ok := principalFrom(ctx)
	if !ok {
		return p, status.Error(codes.Unauthenticated, "missing token")
	}
	return p, nil
}

func (h *handler) Login(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	res, err := h.s.sessions.Login(ctx, str(in, "email"), str(in, "password"), requestMeta(ctx))
	if err != nil {
		return nil, toStatus(err)
	}
	h.s.logger.Info(ctx, "Logged in", "account_id", res.Account.ID)
	return newStruct(map[string]any{
		"token":      res.Token,
		"expires_at": res.ExpiresAt.UTC().Format(time.RFC3339),
		"account":    accountFields(res.Account),
	})
}

func (h *handler) Validate(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	p, err := h.s.sessions.Validate(ctx, in.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	return newStruct(map[string]any{"id": p.AccountID, "email": p.Email, "role": string(p.Role)})
}

func (h *handler) GetMaintenanceStatus(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	cfg, err := h.s.maintenance.Status(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return newStruct(map[string]any{
		"active":     cfg.Active,
		"message":    cfg.Message,
		"updated_at": cfg.UpdatedAt.UTC().Format(time.RFC3339),
	})
}

func (h *handler) SetMaintenance(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	p, err := h.actor(ctx)
	if err != nil {
		return nil, err
	}
	upd, err := h.s.maintenance.Set(ctx, p, boolean(in, "active"), str(in, "message"), requestMeta(ctx))
	if err != nil {
		return nil, toStatus(err)
	}
	return newStruct(map[string]any{
		"active":     upd.Active,
		"message":    upd.Message,
		"updated_at": upd.UpdatedAt.UTC().Format(time.RFC3339),
		"kicked":     upd.Kicked,
	})
}

func (h *handler) LogoutAll(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	p, err := h.actor(ctx)
	if err != nil {
		return nil, err
	}
	n, err := h.s.maintenance.LogoutAll(ctx, p, requestMeta(ctx))
	if err != nil {
		return nil, toStatus(err)
	}
	return newStruct(map[string]any{"kicked": n})
}

func (h *handler) GetNotice(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	n, err := h.s.maintenance.Notice(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return noticeStruct(n)
}

func (h *handler) SetNotice(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	p, err := h.actor(ctx)
	if err != nil {
		return nil, err
	}
	n, err := h.s.maintenance.SetNotice(ctx, p, boolean(in, "active"), str(in, "text"), requestMeta(ctx))
	if err != nil {
		return nil, toStatus(err)
	}
	return noticeStruct(n)
}

func noticeStruct(n *models.SystemNotice) (*structpb.Struct, error) {
	return newStruct(map[string]any{
		"active":     n.Active,
		"text":       n.Text,
		"updated_at": n.UpdatedAt.UTC().Format(time.RFC3339),
	})
}

func (h *handler) ListAccounts(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	p, err := h.actor(ctx)
	if err != nil {
		return nil, err
	}
	list, err := h.s.sessions.ListAccounts(ctx, p)
	if err != nil {
		return nil, toStatus(err)
	}
	items := make([]any, 0, len(list))
	for i := range list {
		items = append(items, accountFields(&list[i]))
	}
	return newStruct(map[string]any{"accounts": items})
}

func (h *handler) BlockAccount(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	p, err := h.actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.s.sessions.AdminBlock(ctx, p, str(in, "id"), boolean(in, "blocked"), requestMeta(ctx)); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (h *handler) KickAccount(ctx context.Context, in *wrapperspb.StringValue) (*emptypb.Empty, error) {
	p, err := h.actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.s.sessions.AdminKick(ctx, p, in.GetValue(), requestMeta(ctx)); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (h *handler) SetAccountPassword(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	p, err := h.actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.s.sessions.AdminSetPassword(ctx, p, str(in, "id"), str(in, "password"), requestMeta(ctx)); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (h *handler) SetAccountRole(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	p, err := h.actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.s.sessions.AdminSetRole(ctx, p, str(in, "id"), models.Role(str(in, "role")), requestMeta(ctx)); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (h *handler) ChangePassword(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	p, err := h.actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.s.sessions.ChangeOwnPassword(ctx, p, str(in, "current_password"), str(in, "new_password")); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func auditFilter(in *structpb.Struct) (models.AuditFilter, error) {
	f := models.AuditFilter{
		Query:  str(in, "q"),
		Action: str(in, "action"),
		Take:   int(in.GetFields()["take"].GetNumberValue()),
	}
	if v := str(in, "since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, status.Error(codes.InvalidArgument, "since must be RFC 3339")
		}
		f.Since = t
	}
	return f, nil
}

func (h *handler) ListAudit(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	p, err := h.actor(ctx)
	if err != nil {
		return nil, err
	}
	filter, err := auditFilter(in)
	if err != nil {
		return nil, err
	}
	recs, err := h.s.audit.List(ctx, p, filter)
	if err != nil {
		return nil, toStatus(err)
	}

	items := make([]any, 0, len(recs))
	for _, r := range recs {
		items = append(items, map[string]any{
			"id":          r.ID,
			"actor_email": r.ActorEmail,
			"action":      string(r.Action),
			"target":      r.Target,
			"meta":        string(r.Meta),
			"ip":          r.IP,
			"created_at":  r.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return newStruct(map[string]any{"records": items})
}

func (h *handler) ExportAudit(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	p, err := h.actor(ctx)
	if err != nil {
		return nil, err
	}
	filter, err := auditFilter(in)
	if err != nil {
		return nil, err
	}
	exp, err := h.s.audit.Export(ctx, p, filter)
	if err != nil {
		return nil, toStatus(err)
	}
	return newStruct(map[string]any{"key": exp.Key, "url": exp.URL, "count": exp.Count})
}
