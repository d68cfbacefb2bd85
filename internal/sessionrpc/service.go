// Package sessionrpc describes the SessionAuthority gRPC service. Messages
// are protobuf well-known types, so the contract needs no generated code:
// requests and responses are google.protobuf.Struct, StringValue or Empty.
package sessionrpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "tvportal.session.v1.SessionAuthority"

// Full method names.
const (
	MethodLogin                = "/" + ServiceName + "/Login"
	MethodValidate             = "/" + ServiceName + "/Validate"
	MethodGetMaintenanceStatus = "/" + ServiceName + "/GetMaintenanceStatus"
	MethodSetMaintenance       = "/" + ServiceName + "/SetMaintenance"
	MethodLogoutAll            = "/" + ServiceName + "/LogoutAll"
	MethodGetNotice            = "/" + ServiceName + "/GetNotice"
	MethodSetNotice            = "/" + ServiceName + "/SetNotice"
	MethodListAccounts         = "/" + ServiceName + "/ListAccounts"
	MethodBlockAccount         = "/" + ServiceName + "/BlockAccount"
	MethodKickAccount          = "/" + ServiceName + "/KickAccount"
	MethodSetAccountPassword   = "/" + ServiceName + "/SetAccountPassword"
	MethodSetAccountRole       = "/" + ServiceName + "/SetAccountRole"
	MethodChangePassword       = "/" + ServiceName + "/ChangePassword"
	MethodListAudit            = "/" + ServiceName + "/ListAudit"
	MethodExportAudit          = "/" + ServiceName + "/ExportAudit"
)

// SessionAuthorityServer is the server API.
//
// Struct fields per method:
//
//	Login                  {email, password} -> {token, expires_at, account}
//	Validate               token -> {id, email, role}
//	GetMaintenanceStatus   -> {active, message, updated_at}
//	SetMaintenance         {active, message} -> {active, message, updated_at, kicked}
//	LogoutAll              -> {kicked}
//	GetNotice              -> {active, text, updated_at}
//	SetNotice              {active, text} -> {active, text, updated_at}
//	ListAccounts           -> {accounts: [...]}
//	BlockAccount           {id, blocked}
//	KickAccount            id
//	SetAccountPassword     {id, password}
//	SetAccountRole         {id, role}
//	ChangePassword         {current_password, new_password}
//	ListAudit              {q, action, since, take} -> {records: [...]}
//	ExportAudit            {q, action, since} -> {key, url, count}
type SessionAuthorityServer interface {
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Validate(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	GetMaintenanceStatus(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	SetMaintenance(context.Context, *structpb.Struct) (*structpb.Struct, error)
	LogoutAll(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetNotice(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	SetNotice(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListAccounts(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	BlockAccount(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	KickAccount(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	SetAccountPassword(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	SetAccountRole(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	ChangePassword(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	ListAudit(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportAudit(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func newStruct() *structpb.Struct { return &structpb.Struct{} }
func newString() *wrapperspb.StringValue { return &wrapperspb.StringValue{} }
func newEmpty() *emptypb.Empty { return &emptypb.Empty{} }

// unary builds the MethodDesc for one method, running the server's
// interceptor chain the same way generated code does.
func unary[Req, Resp any](name string, newReq func() Req, call func(SessionAuthorityServer, context.Context, Req) (Resp, error)) grpc.MethodDesc {
	full := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := newReq()
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(SessionAuthorityServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: full}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(Req))
			})
		},
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SessionAuthorityServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Login", newStruct, SessionAuthorityServer.Login),
		unary("Validate", newString, SessionAuthorityServer.Validate),
		unary("GetMaintenanceStatus", newEmpty, SessionAuthorityServer.GetMaintenanceStatus),
		unary("SetMaintenance", newStruct, SessionAuthorityServer.SetMaintenance),
		unary("LogoutAll", newEmpty, SessionAuthorityServer.LogoutAll),
		unary("GetNotice", newEmpty, SessionAuthorityServer.GetNotice),
		unary("SetNotice", newStruct, SessionAuthorityServer.SetNotice),
		unary("ListAccounts", newEmpty, SessionAuthorityServer.ListAccounts),
		unary("BlockAccount", newStruct, SessionAuthorityServer.BlockAccount),
		unary("KickAccount", newString, SessionAuthorityServer.KickAccount),
		unary("SetAccountPassword", newStruct, SessionAuthorityServer.SetAccountPassword),
		unary("SetAccountRole", newStruct, SessionAuthorityServer.SetAccountRole),
		unary("ChangePassword", newStruct, SessionAuthorityServer.ChangePassword),
		unary("ListAudit", newStruct, SessionAuthorityServer.ListAudit),
		unary("ExportAudit", newStruct, SessionAuthorityServer.ExportAudit),
	},
	Streams: []grpc.StreamDesc{},
}

func RegisterSessionAuthorityServer(s grpc.ServiceRegistrar, srv SessionAuthorityServer) {
	s.RegisterService(&ServiceDesc, srv)
}
