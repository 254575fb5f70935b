// Package inspectclient is the Go client of the route inspection service.
package inspectclient

import (
	"context"
	"errors"
	"fmt"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/nasa/cFE-sub018/pkg/inspect"
	"github.com/nasa/cFE-sub018/pkg/sb"
)

// ErrNotFound is returned when a message id has no route
var ErrNotFound = errors.New("route not found")

// Client provides a gRPC client for the route inspection service
type Client struct {
	config Config
	conn   *grpc.ClientConn
}

// NewClient creates a new client. The connection is established lazily.
func NewClient(config Config) (*Client, error) {
	config.SetDefaults()

	if config.Address == "" {
		return nil, fmt.Errorf("Address is required")
	}

	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if config.Token != "" {
		opts = append(opts, grpc.WithPerRPCCredentials(bearerToken(config.Token)))
	}
	opts = append(opts, config.DialOptions...)

	conn, err := grpc.NewClient(config.Address, opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid Address: %w", err)
	}

	return &Client{
		config: config,
		conn:   conn,
	}, nil
}

// Close closes the underlying connection
func (c *Client) Close() error {
	return c.conn.Close()
}

// GetRouteID resolves a message id; sb.InvalidRouteID means it has no route.
func (c *Client) GetRouteID(ctx context.Context, id sb.MsgID) (sb.RouteID, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	out := new(wrapperspb.UInt32Value)
	if err := c.conn.Invoke(ctx, inspect.GetRouteIDMethod, wrapperspb.UInt32(uint32(id)), out); err != nil {
		return sb.InvalidRouteID, fmt.Errorf("get route id failed: %w", err)
	}
	return sb.RouteID(out.GetValue()), nil
}

// GetRoute fetches one route. It returns ErrNotFound if id has no route.
func (c *Client) GetRoute(ctx context.Context, id sb.MsgID) (*inspect.Route, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, inspect.GetRouteMethod, wrapperspb.UInt32(uint32(id)), out); err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("%w: %v", ErrNotFound, id)
		}
		return nil, fmt.Errorf("get route failed: %w", err)
	}

	route, err := inspect.RouteFromStruct(out)
	if err != nil {
		return nil, err
	}
	return &route, nil
}

// ListRoutes calls fn for each streamed route until the stream ends or fn returns an error.
// The stream is not bounded by the client timeout; use ctx for that.
func (c *Client) ListRoutes(ctx context.Context, req inspect.ListRequest, fn func(inspect.Route) error) error {
	in, err := req.ToStruct()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := c.conn.NewStream(ctx, inspect.ListRoutesStreamDesc, inspect.ListRoutesMethod)
	if err != nil {
		return fmt.Errorf("list routes failed: %w", err)
	}
	if err := stream.SendMsg(in); err != nil {
		return fmt.Errorf("list routes failed: %w", err)
	}
	if err := stream.CloseSend(); err != nil {
		return fmt.Errorf("list routes failed: %w", err)
	}

	for {
		out := new(structpb.Struct)
		if err := stream.RecvMsg(out); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("list routes failed: %w", err)
		}

		route, err := inspect.RouteFromStruct(out)
		if err != nil {
			return err
		}
		if err := fn(route); err != nil {
			return err
		}
	}
}

// AllRoutes collects every route into a slice.
func (c *Client) AllRoutes(ctx context.Context) ([]inspect.Route, error) {
	var routes []inspect.Route
	err := c.ListRoutes(ctx, inspect.ListRequest{}, func(r inspect.Route) error {
		routes = append(routes, r)
		return nil
	})
	return routes, err
}

// GetStatistics fetches the routing counters.
func (c *Client) GetStatistics(ctx context.Context) (*inspect.Statistics, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, inspect.GetStatisticsMethod, &emptypb.Empty{}, out); err != nil {
		return nil, fmt.Errorf("get statistics failed: %w", err)
	}

	stats, err := inspect.StatisticsFromStruct(out)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// WriteMapInfo asks the server to write a dump. It needs an admin token.
func (c *Client) WriteMapInfo(ctx context.Context, req inspect.DumpRequest) (*inspect.DumpSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	in, err := req.ToStruct()
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, inspect.WriteMapInfoMethod, in, out); err != nil {
		return nil, fmt.Errorf("write map info failed: %w", err)
	}

	summary, err := inspect.DumpSummaryFromStruct(out)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// bearerToken attaches an authorization header to every call
type bearerToken string

func (t bearerToken) GetRequestMetadata(ctx context.Context, uri ...string) (map[string]string, error) {
	return map[string]string{"authorization": "Bearer " + string(t)}, nil
}

func (t bearerToken) RequireTransportSecurity() bool {
	return false
}
