// gRPC service description and client for swornref.v1.Reference
package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "swornref.v1.Reference"

// Full method names
const (
	Reference_Get_FullMethodName             = "/" + ServiceName + "/Get"
	Reference_ParentOf_FullMethodName        = "/" + ServiceName + "/ParentOf"
	Reference_ChildrenOf_FullMethodName      = "/" + ServiceName + "/ChildrenOf"
	Reference_Breadcrumbs_FullMethodName     = "/" + ServiceName + "/Breadcrumbs"
	Reference_ParseIdentifier_FullMethodName = "/" + ServiceName + "/ParseIdentifier"
	Reference_RulesetNames_FullMethodName    = "/" + ServiceName + "/RulesetNames"
	Reference_Search_FullMethodName          = "/" + ServiceName + "/Search"
	Reference_AllIdentifiers_FullMethodName  = "/" + ServiceName + "/AllIdentifiers"
)

// ReferenceServer is the server API. Messages are protobuf well-known types,
// so no generated code is needed on either side.
type ReferenceServer interface {
	Get(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	ParentOf(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
	ChildrenOf(context.Context, *wrapperspb.StringValue) (*structpb.ListValue, error)
	Breadcrumbs(context.Context, *wrapperspb.StringValue) (*structpb.ListValue, error)
	ParseIdentifier(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	RulesetNames(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	Search(context.Context, *wrapperspb.StringValue) (*structpb.ListValue, error)
	AllIdentifiers(*emptypb.Empty, grpc.ServerStreamingServer[wrapperspb.StringValue]) error
}

// RegisterReferenceServer registers srv on s
func RegisterReferenceServer(s grpc.ServiceRegistrar, srv ReferenceServer) {
	s.RegisterService(&Reference_ServiceDesc, srv)
}

func unaryMethod[Req proto.Message](name string, newReq func() Req, call func(ReferenceServer, context.Context, Req) (any, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := newReq()
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ReferenceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(ReferenceServer), ctx, req.(Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func newStringValue() *wrapperspb.StringValue { return new(wrapperspb.StringValue) }
func newEmpty() *emptypb.Empty                { return new(emptypb.Empty) }

func allIdentifiersHandler(srv any, stream grpc.ServerStream) error {
	m := new(emptypb.Empty)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(ReferenceServer).AllIdentifiers(m, &grpc.GenericServerStream[emptypb.Empty, wrapperspb.StringValue]{ServerStream: stream})
}

// Reference_ServiceDesc describes swornref.v1.Reference
var Reference_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ReferenceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("Get", newStringValue, func(s ReferenceServer, ctx context.Context, in *wrapperspb.StringValue) (any, error) {
			return s.Get(ctx, in)
		}),
		unaryMethod("ParentOf", newStringValue, func(s ReferenceServer, ctx context.Context, in *wrapperspb.StringValue) (any, error) {
			return s.ParentOf(ctx, in)
		}),
		unaryMethod("ChildrenOf", newStringValue, func(s ReferenceServer, ctx context.Context, in *wrapperspb.StringValue) (any, error) {
			return s.ChildrenOf(ctx, in)
		}),
		unaryMethod("Breadcrumbs", newStringValue, func(s ReferenceServer, ctx context.Context, in *wrapperspb.StringValue) (any, error) {
			return s.Breadcrumbs(ctx, in)
		}),
		unaryMethod("ParseIdentifier", newStringValue, func(s ReferenceServer, ctx context.Context, in *wrapperspb.StringValue) (any, error) {
			return s.ParseIdentifier(ctx, in)
		}),
		unaryMethod("RulesetNames", newEmpty, func(s ReferenceServer, ctx context.Context, in *emptypb.Empty) (any, error) {
			return s.RulesetNames(ctx, in)
		}),
		unaryMethod("Search", newStringValue, func(s ReferenceServer, ctx context.Context, in *wrapperspb.StringValue) (any, error) {
			return s.Search(ctx, in)
		}),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "AllIdentifiers",
			Handler:       allIdentifiersHandler,
			ServerStreams: true,
		},
	},
	Metadata: "swornref/v1/reference.proto",
}

// ReferenceClient is the client API for swornref.v1.Reference
type ReferenceClient struct {
	cc grpc.ClientConnInterface
}

// NewReferenceClient creates a client on cc
func NewReferenceClient(cc grpc.ClientConnInterface) *ReferenceClient {
	return &ReferenceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in proto.Message, opts ...grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches the node for an identifier
func (c *ReferenceClient) Get(ctx context.Context, id string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, Reference_Get_FullMethodName, wrapperspb.String(id), opts...)
}

// ParentOf returns the parent identifier, or "" for roots
func (c *ReferenceClient) ParentOf(ctx context.Context, id string, opts ...grpc.CallOption) (string, error) {
	out, err := invoke[wrapperspb.StringValue](ctx, c.cc, Reference_ParentOf_FullMethodName, wrapperspb.String(id), opts...)
	if err != nil {
		return "", err
	}
	return out.GetValue(), nil
}

// ChildrenOf returns the identifiers directly under id
func (c *ReferenceClient) ChildrenOf(ctx context.Context, id string, opts ...grpc.CallOption) ([]string, error) {
	out, err := invoke[structpb.ListValue](ctx, c.cc, Reference_ChildrenOf_FullMethodName, wrapperspb.String(id), opts...)
	if err != nil {
		return nil, err
	}
	return stringList(out), nil
}

// Breadcrumbs returns the display chain for id
func (c *ReferenceClient) Breadcrumbs(ctx context.Context, id string, opts ...grpc.CallOption) ([]string, error) {
	out, err := invoke[structpb.ListValue](ctx, c.cc, Reference_Breadcrumbs_FullMethodName, wrapperspb.String(id), opts...)
	if err != nil {
		return nil, err
	}
	return stringList(out), nil
}

// ParseIdentifier returns the parsed parts of id
func (c *ReferenceClient) ParseIdentifier(ctx context.Context, id string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, Reference_ParseIdentifier_FullMethodName, wrapperspb.String(id), opts...)
}

// RulesetNames returns the configured document names
func (c *ReferenceClient) RulesetNames(ctx context.Context, opts ...grpc.CallOption) ([]string, error) {
	out, err := invoke[structpb.ListValue](ctx, c.cc, Reference_RulesetNames_FullMethodName, &emptypb.Empty{}, opts...)
	if err != nil {
		return nil, err
	}
	return stringList(out), nil
}

// Search runs a term search; each hit is a struct with identifier, name,
// snippet and score
func (c *ReferenceClient) Search(ctx context.Context, terms string, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	return invoke[structpb.ListValue](ctx, c.cc, Reference_Search_FullMethodName, wrapperspb.String(terms), opts...)
}

// AllIdentifiers streams every identifier in index order
func (c *ReferenceClient) AllIdentifiers(ctx context.Context, opts ...grpc.CallOption) (grpc.ServerStreamingClient[wrapperspb.StringValue], error) {
	stream, err := c.cc.NewStream(ctx, &Reference_ServiceDesc.Streams[0], Reference_AllIdentifiers_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[emptypb.Empty, wrapperspb.StringValue]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(&emptypb.Empty{}); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

func stringList(l *structpb.ListValue) []string {
	out := make([]string, 0, len(l.GetValues()))
	for _, v := range l.GetValues() {
		out = append(out, v.GetStringValue())
	}
	return out
}
