package sessionrpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Client calls SessionAuthority over any connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts ...grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Login(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, MethodLogin, in, opts...)
}

func (c *Client) Validate(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, MethodValidate, in, opts...)
}

func (c *Client) GetMaintenanceStatus(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, MethodGetMaintenanceStatus, &emptypb.Empty{}, opts...)
}

func (c *Client) SetMaintenance(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, MethodSetMaintenance, in, opts...)
}

func (c *Client) LogoutAll(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, MethodLogoutAll, &emptypb.Empty{}, opts...)
}

func (c *Client) GetNotice(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, MethodGetNotice, &emptypb.Empty{}, opts...)
}

func (c *Client) SetNotice(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, MethodSetNotice, in, opts...)
}

func (c *Client) ListAccounts(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, MethodListAccounts, &emptypb.Empty{}, opts...)
}

func (c *Client) BlockAccount(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) error {
	_, err := invoke[emptypb.Empty](ctx, c.cc, MethodBlockAccount, in, opts...)
	return err
}

func (c *Client) KickAccount(ctx context.Context, id string, opts ...grpc.CallOption) error {
	_, err := invoke[emptypb.Empty](ctx, c.cc, MethodKickAccount, wrapperspb.String(id), opts...)
	return err
}

func (c *Client) SetAccountPassword(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) error {
	_, err := invoke[emptypb.Empty](ctx, c.cc, MethodSetAccountPassword, in, opts...)
	return err
}

func (c *Client) SetAccountRole(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) error {
	_, err := invoke[emptypb.Empty](ctx, c.cc, MethodSetAccountRole, in, opts...)
	return err
}

func (c *Client) ChangePassword(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) error {
	_, err := invoke[emptypb.Empty](ctx, c.cc, MethodChangePassword, in, opts...)
	return err
}

func (c *Client) ListAudit(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, MethodListAudit, in, opts...)
}

func (c *Client) ExportAudit(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, MethodExportAudit, in, opts...)
}
