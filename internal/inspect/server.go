// Package inspect serves the route inspection gRPC service over a bus.
package inspect

import (
	"context"
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"sync"

	"github.com/npillmayer/schuko/tracing"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/nasa/cFE-sub018/internal/bus"
	"github.com/nasa/cFE-sub018/internal/catalog"
	"github.com/nasa/cFE-sub018/internal/mapdump"
	"github.com/nasa/cFE-sub018/internal/sbr"
	api "github.com/nasa/cFE-sub018/pkg/inspect"
	"github.com/nasa/cFE-sub018/pkg/sb"
	sbrpkg "github.com/nasa/cFE-sub018/pkg/sbr"
)

// tracer writes to trace with key 'sb.inspect'
func tracer() tracing.Trace {
	return tracing.Select("sb.inspect")
}

// Server implements api.RouteInspectorServer on top of a bus.
type Server struct {
	config     *Config
	bus        *bus.Bus
	names      *catalog.Catalog
	jwtAuth    *JWTAuth
	grpcServer *grpc.Server

	mu       sync.Mutex
	listener net.Listener
	dumpMu   sync.Mutex // one dump at a time
}

var _ api.RouteInspectorServer = (*Server)(nil)

// NewServer creates an inspection server for b. names may be nil.
func NewServer(b *bus.Bus, config *Config, names *catalog.Catalog) (*Server, error) {
	if b == nil {
		return nil, errors.New("bus cannot be nil")
	}
	if config == nil {
		return nil, errors.New("config cannot be nil")
	}

	// Make a copy and set defaults
	configCopy := *config
	configCopy.SetDefaults()
	if err := configCopy.Validate(); err != nil {
		return nil, err
	}

	var jwtAuth *JWTAuth
	if configCopy.SecretKey != "" {
		jwtAuth = NewJWTAuth(configCopy.SecretKey, configCopy.TokenTTL)
	}
	auth := NewAuthenticator(jwtAuth, configCopy.NoAuth)

	s := &Server{
		config:  &configCopy,
		bus:     b,
		names:   names,
		jwtAuth: jwtAuth,
	}
	s.grpcServer = grpc.NewServer(
		grpc.ChainUnaryInterceptor(RecoveryInterceptor(), auth.UnaryInterceptor()),
		grpc.ChainStreamInterceptor(StreamRecoveryInterceptor(), auth.StreamInterceptor()),
	)
	api.RegisterRouteInspectorServer(s.grpcServer, s)

	return s, nil
}

// JWTAuth returns the token issuer, or nil when no secret is configured.
func (s *Server) JWTAuth() *JWTAuth {
	return s.jwtAuth
}

// Start listens on the configured address and serves until Stop.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}
	return s.Serve(lis)
}

// Serve serves on an existing listener until Stop.
func (s *Server) Serve(lis net.Listener) error {
	s.mu.Lock()
	s.listener = lis
	s.mu.Unlock()

	tracer().Infof("route inspector listening on %s", lis.Addr())
	return s.grpcServer.Serve(lis)
}

// Addr returns the listening address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop gracefully stops the server, forcing it down if ctx ends first.
func (s *Server) Stop(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.grpcServer.Stop()
		<-done
		return ctx.Err()
	}
}

// GetRouteID resolves a message id. Unknown and invalid ids resolve to 0.
func (s *Server) GetRouteID(ctx context.Context, in *wrapperspb.UInt32Value) (*wrapperspb.UInt32Value, error) {
	route := sb.InvalidRouteID
	err := s.bus.Do(ctx, func(table *sbr.Table) {
		route = table.GetRouteID(sb.MsgID(in.GetValue()))
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.UInt32(uint32(route)), nil
}

// GetRoute returns one route with its destinations.
func (s *Server) GetRoute(ctx context.Context, in *wrapperspb.UInt32Value) (*structpb.Struct, error) {
	id := sb.MsgID(in.GetValue())
	info, ok, err := s.bus.Lookup(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	if !ok {
		return nil, status.Errorf(codes.NotFound, "no route for msgid %v", id)
	}
	return s.routeStruct(info)
}

// ListRoutes streams routes, reading at most ListChunk routes per lock hold.
func (s *Server) ListRoutes(in *structpb.Struct, stream api.ListRoutesServer) error {
	req := api.ListRequestFromStruct(in)
	chunk := req.MaxLoop
	if chunk == 0 || chunk > s.config.ListChunk {
		chunk = s.config.ListChunk
	}

	throttle := &sbrpkg.Throttle{StartIndex: req.StartIndex, MaxLoop: chunk}
	for {
		infos, err := s.bus.RouteInfo(stream.Context(), throttle)
		if err != nil {
			return toStatus(err)
		}
		for _, info := range infos {
			route, err := s.routeStruct(info)
			if err != nil {
				return err
			}
			if err := stream.Send(route); err != nil {
				return err
			}
		}
		if throttle.NextIndex == 0 {
			return nil
		}
		throttle.StartIndex = throttle.NextIndex
	}
}

// GetStatistics returns the bus counters.
func (s *Server) GetStatistics(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	stats, err := s.bus.Statistics(ctx)
	if err != nil {
		return nil, toStatus(err)
	}

	out, err := api.Statistics{
		Strategy:          stats.Strategy,
		RoutesInUse:       stats.RoutesInUse,
		MaxRoutes:         stats.MaxRoutes,
		Subscriptions:     stats.Subscriptions,
		PeakSubscriptions: stats.PeakSubscriptions,
		MaxDestinations:   stats.MaxDestinations,
		TotalCollisions:   stats.TotalCollisions,
		MaxCollisions:     stats.MaxCollisions,
		MsgsRouted:        stats.MsgsRouted,
		NoSubscribers:     stats.NoSubscribers,
	}.ToStruct()
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode statistics: %v", err)
	}
	return out, nil
}

// WriteMapInfo writes a JSON dump into the dump directory.
func (s *Server) WriteMapInfo(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := api.DumpRequestFromStruct(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	kind, err := mapdump.ParseKind(req.Kind)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	// Only a file name is accepted; dumps never leave the dump directory
	file := filepath.Base(req.File)
	switch {
	case req.File == "" || file == "." || file == string(filepath.Separator):
		file = DefaultDumpFile(kind)
	case file == "..":
		return nil, status.Errorf(codes.InvalidArgument, "invalid dump file name %q", req.File)
	}
	path := filepath.Join(s.config.DumpDir, file)

	s.dumpMu.Lock()
	defer s.dumpMu.Unlock()

	summary, err := mapdump.Dump(ctx, s.bus, mapdump.NewJSONSink(path), kind)
	if err != nil {
		return nil, toStatus(err)
	}
	tracer().Infof("client %s wrote %s dump to %s", GetClientID(ctx), kind, path)

	out, err := api.DumpSummary{
		Session: summary.Session,
		Kind:    summary.Kind,
		Path:    path,
		Routes:  summary.Routes,
		Records: summary.Records,
		Digest:  summary.Digest,
	}.ToStruct()
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode summary: %v", err)
	}
	return out, nil
}

// DefaultDumpFile returns the file name used when a dump request names none.
func DefaultDumpFile(kind mapdump.Kind) string {
	return "sb_" + kind.String() + ".json"
}

func (s *Server) routeStruct(info bus.RouteInfo) (*structpb.Struct, error) {
	route := api.Route{
		RouteID:  info.RouteID,
		Index:    info.Index,
		MsgID:    info.MsgID,
		Sequence: info.Sequence,
	}
	if s.names != nil {
		if entry, ok := s.names.Name(info.MsgID); ok {
			route.Name = entry.Name
		}
	}
	for _, d := range info.Destinations {
		route.Destinations = append(route.Destinations, api.Destination{
			PipeID:   d.Pipe,
			Active:   d.Active,
			MsgCount: d.MsgCount,
		})
	}

	out, err := route.ToStruct()
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode route: %v", err)
	}
	return out, nil
}

// toStatus maps bus and context errors onto gRPC status codes
func toStatus(err error) error {
	switch {
	case errors.Is(err, bus.ErrClosed):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
