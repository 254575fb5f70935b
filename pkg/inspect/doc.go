// Package inspect defines the route inspection service of a software bus.
//
// The service is the ground-command view of the routing layer:
//   - GetRouteID: resolve a message id to its route id
//   - GetRoute: snapshot one route with its destinations
//   - ListRoutes: stream every route, read from the table in throttled chunks
//   - GetStatistics: routing counters
//   - WriteMapInfo: write a routing or map info dump file on the server
//
// Messages are protobuf well-known types, so no generated code is required:
// message ids travel as wrapperspb.UInt32Value and structured replies as
// structpb.Struct. The types in this package convert between those structs and Go
// values and are shared by the server and pkg/inspectclient.
//
// Example usage:
//
//	server := grpc.NewServer()
//	inspect.RegisterRouteInspectorServer(server, impl)
//
//	// client side
//	reply := new(structpb.Struct)
//	err := conn.Invoke(ctx, inspect.GetRouteMethod, wrapperspb.UInt32(0x0803), reply)
//	route, err := inspect.RouteFromStruct(reply)
package inspect
