package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name of the inspector.
const ServiceName = "beacon.inspector.v1.Inspector"

const (
	matchRuleMethod          = "/" + ServiceName + "/MatchRule"
	applicableContextsMethod = "/" + ServiceName + "/ApplicableContexts"
)

// InspectorServer is the server side of the inspector service.
// Requests and responses are structpb.Struct documents.
type InspectorServer interface {
	MatchRule(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ApplicableContexts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// InspectorServiceDesc describes the inspector service for grpc.Server.RegisterService.
var InspectorServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*InspectorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "MatchRule", Handler: matchRuleHandler},
		{MethodName: "ApplicableContexts", Handler: applicableContextsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "beacon/inspector/v1/inspector.proto",
}

// RegisterInspectorServer registers srv with s.
func RegisterInspectorServer(s grpc.ServiceRegistrar, srv InspectorServer) {
	s.RegisterService(&InspectorServiceDesc, srv)
}

func matchRuleHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InspectorServer).MatchRule(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: matchRuleMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(InspectorServer).MatchRule(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func applicableContextsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InspectorServer).ApplicableContexts(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: applicableContextsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(InspectorServer).ApplicableContexts(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// InspectorClient calls the inspector service.
type InspectorClient struct {
	cc grpc.ClientConnInterface
}

// NewInspectorClient wraps a client connection.
func NewInspectorClient(cc grpc.ClientConnInterface) *InspectorClient {
	return &InspectorClient{cc: cc}
}

// MatchRule calls the MatchRule method.
func (c *InspectorClient) MatchRule(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, matchRuleMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// ApplicableContexts calls the ApplicableContexts method.
func (c *InspectorClient) ApplicableContexts(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, applicableContextsMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
