package inspect

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	// ServiceName is the fully qualified gRPC service name
	ServiceName = "sbr.inspect.v1.RouteInspector"

	GetRouteIDMethod    = "/" + ServiceName + "/GetRouteID"
	GetRouteMethod      = "/" + ServiceName + "/GetRoute"
	ListRoutesMethod    = "/" + ServiceName + "/ListRoutes"
	GetStatisticsMethod = "/" + ServiceName + "/GetStatistics"
	WriteMapInfoMethod  = "/" + ServiceName + "/WriteMapInfo"
)

// ListRoutesStreamDesc describes the ListRoutes stream for clients.
var ListRoutesStreamDesc = &grpc.StreamDesc{
	StreamName:    "ListRoutes",
	ServerStreams: true,
}

// ServiceDesc is the grpc.ServiceDesc for RouteInspectorServer.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RouteInspectorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetRouteID", Handler: getRouteIDHandler},
		{MethodName: "GetRoute", Handler: getRouteHandler},
		{MethodName: "GetStatistics", Handler: getStatisticsHandler},
		{MethodName: "WriteMapInfo", Handler: writeMapInfoHandler},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "ListRoutes",
			Handler:       listRoutesHandler,
			ServerStreams: true,
		},
	},
	Metadata: "sbr/inspect/v1/inspect.proto",
}

// RegisterRouteInspectorServer registers srv with s.
func RegisterRouteInspectorServer(s grpc.ServiceRegistrar, srv RouteInspectorServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func getRouteIDHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.UInt32Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RouteInspectorServer).GetRouteID(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetRouteIDMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RouteInspectorServer).GetRouteID(ctx, req.(*wrapperspb.UInt32Value))
	}
	return interceptor(ctx, in, info, handler)
}

func getRouteHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.UInt32Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RouteInspectorServer).GetRoute(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetRouteMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RouteInspectorServer).GetRoute(ctx, req.(*wrapperspb.UInt32Value))
	}
	return interceptor(ctx, in, info, handler)
}

func getStatisticsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RouteInspectorServer).GetStatistics(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetStatisticsMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RouteInspectorServer).GetStatistics(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func writeMapInfoHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RouteInspectorServer).WriteMapInfo(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: WriteMapInfoMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RouteInspectorServer).WriteMapInfo(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func listRoutesHandler(srv interface{}, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(RouteInspectorServer).ListRoutes(in, &listRoutesServer{stream})
}

type listRoutesServer struct {
	grpc.ServerStream
}

func (x *listRoutesServer) Send(route *structpb.Struct) error {
	return x.ServerStream.SendMsg(route)
}
