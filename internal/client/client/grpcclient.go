package client

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/tvportal/internal/client/models"
	"github.com/dmitrijs2005/tvportal/internal/common"
	"github.com/dmitrijs2005/tvportal/internal/sessionrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type GRPCClient struct {
	endpointURL string
	timeout     time.Duration
	conn        *grpc.ClientConn
	rpc         *sessionrpc.Client
	accessToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

// accessTokenInterceptor attaches the current session token and the call
// deadline. Calls made before login go out without a token.
func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if s.accessToken != "" {
		ctx = withAccessToken(ctx, s.accessToken)
	}

	return invoker(ctx, method, req, reply, cc, opts...)
}

func NewSessionAuthorityClient(endpointURL string, timeout time.Duration) (*GRPCClient, error) {
	return newGRPCClient(endpointURL, timeout)
}

func newGRPCClient(endpointURL string, timeout time.Duration, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, timeout: timeout}

	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, opts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.rpc = sessionrpc.NewClient(conn)
	return c, nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) SetToken(token string) {
	s.accessToken = token
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated:
		if st.Message() == common.ErrSessionInvalid.Error() {
			return ErrSessionInvalid
		}
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.PermissionDenied:
		return ErrForbidden
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s", ErrUnavailable, st.Message())
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrInvalidInput, st.Message())
	case codes.NotFound:
		return ErrNotFound
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}

func newStruct(m map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return out, nil
}

func field(st *structpb.Struct, key string) *structpb.Value {
	return st.GetFields()[key]
}

func toMaintenance(st *structpb.Struct) *models.Maintenance {
	return &models.Maintenance{
		Active:    field(st, "active").GetBoolValue(),
		Message:   field(st, "message").GetStringValue(),
		UpdatedAt: field(st, "updated_at").GetStringValue(),
		Kicked:    int64(field(st, "kicked").GetNumberValue()),
	}
}

func toNotice(st *structpb.Struct) *models.Notice {
	return &models.Notice{
		Active:    field(st, "active").GetBoolValue(),
		Text:      field(st, "text").GetStringValue(),
		UpdatedAt: field(st, "updated_at").GetStringValue(),
	}
}

func toAccount(st *structpb.Struct) models.Account {
	return models.Account{
		ID:          field(st, "id").GetStringValue(),
		Email:       field(st, "email").GetStringValue(),
		Role:        field(st, "role").GetStringValue(),
		Blocked:     field(st, "blocked").GetBoolValue(),
		CreatedAt:   field(st, "created_at").GetStringValue(),
		LastLoginAt: field(st, "last_login_at").GetStringValue(),
		LastLoginIP: field(st, "last_login_ip").GetStringValue(),
	}
}

// Login authenticates and keeps the returned token for later calls.
func (s *GRPCClient) Login(ctx context.Context, email string, password []byte) (string, string, error) {
	req, err := newStruct(map[string]any{"email": email, "password": string(password)})
	if err != nil {
		return "", "", err
	}

	resp, err := s.rpc.Login(ctx, req)
	if err != nil {
		return "", "", s.mapError(err)
	}

	s.accessToken = field(resp, "token").GetStringValue()
	return s.accessToken, field(resp, "expires_at").GetStringValue(), nil
}

func (s *GRPCClient) Whoami(ctx context.Context) (*models.Whoami, error) {
	if s.accessToken == "" {
		return nil, ErrSessionInvalid
	}
	resp, err := s.rpc.Validate(ctx, wrapperspb.String(s.accessToken))
	if err != nil {
		return nil, s.mapError(err)
	}
	return &models.Whoami{
		ID:    field(resp, "id").GetStringValue(),
		Email: field(resp, "email").GetStringValue(),
		Role:  field(resp, "role").GetStringValue(),
	}, nil
}

func (s *GRPCClient) MaintenanceStatus(ctx context.Context) (*models.Maintenance, error) {
	resp, err := s.rpc.GetMaintenanceStatus(ctx)
	if err != nil {
		return nil, s.mapError(err)
	}
	return toMaintenance(resp), nil
}

func (s *GRPCClient) SetMaintenance(ctx context.Context, active bool, message string) (*models.Maintenance, error) {
	req, err := newStruct(map[string]any{"active": active, "message": message})
	if err != nil {
		return nil, err
	}
	resp, err := s.rpc.SetMaintenance(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}
	return toMaintenance(resp), nil
}

func (s *GRPCClient) LogoutAll(ctx context.Context) (int64, error) {
	resp, err := s.rpc.LogoutAll(ctx)
	if err != nil {
		return 0, s.mapError(err)
	}
	return int64(field(resp, "kicked").GetNumberValue()), nil
}

func (s *GRPCClient) Notice(ctx context.Context) (*models.Notice, error) {
	resp, err := s.rpc.GetNotice(ctx)
	if err != nil {
		return nil, s.mapError(err)
	}
	return toNotice(resp), nil
}

func (s *GRPCClient) SetNotice(ctx context.Context, active bool, text string) (*models.Notice, error) {
	req, err := newStruct(map[string]any{"active": active, "text": text})
	if err != nil {
		return nil, err
	}
	resp, err := s.rpc.SetNotice(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}
	return toNotice(resp), nil
}

func (s *GRPCClient) ListAccounts(ctx context.Context) ([]models.Account, error) {
	resp, err := s.rpc.ListAccounts(ctx)
	if err != nil {
		return nil, s.mapError(err)
	}
	values := field(resp, "accounts").GetListValue().GetValues()
	out := make([]models.Account, 0, len(values))
	for _, v := range values {
		out = append(out, toAccount(v.GetStructValue()))
	}
	return out, nil
}

func (s *GRPCClient) SetBlocked(ctx context.Context, id string, blocked bool) error {
	req, err := newStruct(map[string]any{"id": id, "blocked": blocked})
	if err != nil {
		return err
	}
	return s.mapError(s.rpc.BlockAccount(ctx, req))
}

func (s *GRPCClient) Kick(ctx context.Context, id string) error {
	return s.mapError(s.rpc.KickAccount(ctx, id))
}

func (s *GRPCClient) SetPassword(ctx context.Context, id string, password []byte) error {
	req, err := newStruct(map[string]any{"id": id, "password": string(password)})
	if err != nil {
		return err
	}
	return s.mapError(s.rpc.SetAccountPassword(ctx, req))
}

func (s *GRPCClient) SetRole(ctx context.Context, id, role string) error {
	req, err := newStruct(map[string]any{"id": id, "role": role})
	if err != nil {
		return err
	}
	return s.mapError(s.rpc.SetAccountRole(ctx, req))
}

func (s *GRPCClient) ChangePassword(ctx context.Context, current, next []byte) error {
	req, err := newStruct(map[string]any{"current_password": string(current), "new_password": string(next)})
	if err != nil {
		return err
	}
	return s.mapError(s.rpc.ChangePassword(ctx, req))
}

func (s *GRPCClient) ListAudit(ctx context.Context, query, action string, take int) ([]models.AuditRecord, error) {
	req, err := newStruct(map[string]any{"q": query, "action": action, "take": take})
	if err != nil {
		return nil, err
	}
	resp, err := s.rpc.ListAudit(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}

	values := field(resp, "records").GetListValue().GetValues()
	out := make([]models.AuditRecord, 0, len(values))
	for _, v := range values {
		r := v.GetStructValue()
		out = append(out, models.AuditRecord{
			ID:         int64(field(r, "id").GetNumberValue()),
			ActorEmail: field(r, "actor_email").GetStringValue(),
			Action:     field(r, "action").GetStringValue(),
			Target:     field(r, "target").GetStringValue(),
			Meta:       field(r, "meta").GetStringValue(),
			IP:         field(r, "ip").GetStringValue(),
			CreatedAt:  field(r, "created_at").GetStringValue(),
		})
	}
	return out, nil
}

func (s *GRPCClient) ExportAudit(ctx context.Context, since string) (*models.AuditExport, error) {
	req, err := newStruct(map[string]any{"since": since})
	if err != nil {
		return nil, err
	}
	resp, err := s.rpc.ExportAudit(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}
	return &models.AuditExport{
		Key:   field(resp, "key").GetStringValue(),
		URL:   field(resp, "url").GetStringValue(),
		Count: int64(field(resp, "count").GetNumberValue()),
	}, nil
}
