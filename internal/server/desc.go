package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "winelabel.v1.LabelService"

const (
	methodExtractLabels = "/" + ServiceName + "/ExtractLabels"
	methodParseTexts    = "/" + ServiceName + "/ParseTexts"
	methodExportLabels  = "/" + ServiceName + "/ExportLabels"
)

// LabelServiceServer is the server API. Requests and responses are
// google.protobuf.Struct documents; see Response for the reply shape.
type LabelServiceServer interface {
	ExtractLabels(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ParseTexts(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportLabels(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func RegisterLabelServiceServer(s grpc.ServiceRegistrar, srv LabelServiceServer) {
	s.RegisterService(&LabelServiceDesc, srv)
}

var LabelServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LabelServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ExtractLabels", Handler: unaryHandler(methodExtractLabels, LabelServiceServer.ExtractLabels)},
		{MethodName: "ParseTexts", Handler: unaryHandler(methodParseTexts, LabelServiceServer.ParseTexts)},
		{MethodName: "ExportLabels", Handler: unaryHandler(methodExportLabels, LabelServiceServer.ExportLabels)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "winelabel/v1/label.proto",
}

type unaryMethod func(LabelServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LabelServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(LabelServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// LabelServiceClient calls a remote LabelService.
type LabelServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewLabelServiceClient(cc grpc.ClientConnInterface) *LabelServiceClient {
	return &LabelServiceClient{cc: cc}
}

func (c *LabelServiceClient) ExtractLabels(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodExtractLabels, in, opts...)
}

func (c *LabelServiceClient) ParseTexts(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodParseTexts, in, opts...)
}

func (c *LabelServiceClient) ExportLabels(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodExportLabels, in, opts...)
}

func (c *LabelServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
