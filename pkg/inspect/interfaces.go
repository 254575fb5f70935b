package inspect

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// RouteInspectorServer is the server API of the route inspection service.
type RouteInspectorServer interface {
	// GetRouteID resolves a message id to its route id; 0 means no route.
	GetRouteID(ctx context.Context, msgID *wrapperspb.UInt32Value) (*wrapperspb.UInt32Value, error)

	// GetRoute returns the Route for a message id, or codes.NotFound.
	GetRoute(ctx context.Context, msgID *wrapperspb.UInt32Value) (*structpb.Struct, error)

	// ListRoutes streams one Route struct per route, starting at a ListRequest's StartIndex.
	ListRoutes(req *structpb.Struct, stream ListRoutesServer) error

	// GetStatistics returns the Statistics struct.
	GetStatistics(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error)

	// WriteMapInfo writes a dump described by a DumpRequest and returns its DumpSummary.
	WriteMapInfo(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// ListRoutesServer is the server side of the ListRoutes stream.
type ListRoutesServer interface {
	Send(route *structpb.Struct) error
	grpc.ServerStream
}
