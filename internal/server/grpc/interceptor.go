package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/tvportal/internal/common"
	"github.com/dmitrijs2005/tvportal/internal/server/metrics"
	"github.com/dmitrijs2005/tvportal/internal/server/models"
	"github.com/dmitrijs2005/tvportal/internal/sessionrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const principalKey ctxKey = "principal"

// publicMethods are callable without a session.
var publicMethods = map[string]bool{
	sessionrpc.MethodLogin:                true,
	sessionrpc.MethodValidate:             true,
	sessionrpc.MethodGetMaintenanceStatus: true,
	sessionrpc.MethodGetNotice:            true,
}

func principalFrom(ctx context.Context) (models.Principal, bool) {
	p, ok := ctx.Value(principalKey).(models.Principal)
	return p, ok
}

// sessionInterceptor re-validates the caller's session token on every
// non-public call and stores the live principal in the context.
func (s *GRPCServer) sessionInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	if publicMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	var accessToken string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values := md.Get(common.AccessTokenHeaderName)
		if len(values) > 0 {
			accessToken = values[0]
		}
	}
	if len(accessToken) == 0 {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	p, err := s.sessions.Validate(ctx, accessToken)
	if err != nil {
		return nil, toStatus(err)
	}

	return handler(context.WithValue(ctx, principalKey, *p), req)
}

func metricsInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	resp, err := handler(ctx, req)
	metrics.GRPCRequests.WithLabelValues(info.FullMethod, status.Code(err).String()).Inc()
	return resp, err
}

// toStatus maps service errors to gRPC codes.
func toStatus(err error) error {
	var me *common.MaintenanceError
	switch {
	case errors.As(err, &me):
		msg := me.Message
		if msg == "" {
			msg = common.ErrMaintenance.Error()
		}
		return status.Error(codes.Unavailable, msg)
	case errors.Is(err, common.ErrMaintenance):
		return status.Error(codes.Unavailable, common.ErrMaintenance.Error())
	case errors.Is(err, common.ErrAuthenticationFailure):
		return status.Error(codes.Unauthenticated, "invalid credentials")
	case errors.Is(err, common.ErrSessionInvalid):
		return status.Error(codes.Unauthenticated, "session invalid")
	case errors.Is(err, common.ErrForbidden):
		return status.Error(codes.PermissionDenied, "forbidden")
	case errors.Is(err, common.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, "already exists")
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "not found")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
