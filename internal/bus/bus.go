package bus

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/npillmayer/schuko/tracing"

	"github.com/nasa/cFE-sub018/internal/sbr"
	"github.com/nasa/cFE-sub018/pkg/sb"
	sbrpkg "github.com/nasa/cFE-sub018/pkg/sbr"
)

var (
	// ErrClosed is returned for operations on a closed bus
	ErrClosed = errors.New("bus is closed")
	// ErrInvalidMsgID is returned when a message id is outside the configured range
	ErrInvalidMsgID = errors.New("invalid message id")
	// ErrRouteTableFull is returned when no new route can be created
	ErrRouteTableFull = errors.New("route table full")
	// ErrDestinationsExhausted is returned when the destination pool is empty
	ErrDestinationsExhausted = errors.New("destination pool exhausted")
	// ErrTooManyDestinations is returned when a route already has the maximum number of pipes
	ErrTooManyDestinations = errors.New("too many destinations for message id")
	// ErrDuplicateSubscription is returned when a pipe is already subscribed to a message id
	ErrDuplicateSubscription = errors.New("pipe already subscribed to message id")
	// ErrNotSubscribed is returned when a pipe is not subscribed to a message id
	ErrNotSubscribed = errors.New("pipe not subscribed to message id")
)

// tracer writes to trace with key 'sb.bus'
func tracer() tracing.Trace {
	return tracing.Select("sb.bus")
}

// Destination describes one pipe subscribed to a route.
type Destination struct {
	Pipe     sb.PipeID
	Active   bool
	MsgCount uint32
}

// RouteInfo is a snapshot of one route taken under the bus lock.
type RouteInfo struct {
	RouteID      sb.RouteID
	Index        uint32
	MsgID        sb.MsgID
	Sequence     sb.SequenceCount
	Destinations []Destination
}

// Delivery is the result of routing one message.
type Delivery struct {
	RouteID  sb.RouteID
	Sequence sb.SequenceCount
	Pipes    []sb.PipeID
}

// Statistics provides aggregate counters about the bus
type Statistics struct {
	Strategy          string
	RoutesInUse       int
	MaxRoutes         int
	Subscriptions     int
	PeakSubscriptions int
	MaxDestinations   int
	TotalCollisions   uint64
	MaxCollisions     uint32
	MsgsRouted        uint64
	NoSubscribers     uint64
}

// Bus owns the route table and the destination lists, and serializes all access to
// them behind one mutex. The route table itself does no locking; every path into it
// goes through this lock.
// It is safe for concurrent use.
type Bus struct {
	mu     sync.Mutex
	config *Config
	table  *sbr.Table
	dests  *destArena
	stats  Statistics
	closed bool
}

// New creates a bus with the given configuration.
func New(config *Config) (*Bus, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	// Make a copy and set defaults
	cfg := *config
	if config.Routing != nil {
		routing := *config.Routing
		cfg.Routing = &routing
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	table, err := sbr.NewTable(cfg.Routing)
	if err != nil {
		return nil, fmt.Errorf("failed to create route table: %w", err)
	}

	tracer().Infof("route table ready: strategy=%s routes=%d highest msgid=%v",
		table.Strategy(), table.Capacity(), table.MsgIDRange().Highest)

	return &Bus{
		config: &cfg,
		table:  table,
		dests:  newDestArena(cfg.MaxDestinations),
	}, nil
}

// Subscribe adds pipe to the destination list of id, creating the route on first use.
func (b *Bus) Subscribe(ctx context.Context, id sb.MsgID, pipe sb.PipeID) (sb.RouteID, error) {
	if err := ctx.Err(); err != nil {
		return sb.InvalidRouteID, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return sb.InvalidRouteID, ErrClosed
	}
	if !b.table.MsgIDRange().IsValid(id) {
		return sb.InvalidRouteID, fmt.Errorf("%w: %v", ErrInvalidMsgID, id)
	}

	// Get the route, adding one if it does not exist already
	route := b.table.GetRouteID(id)
	if !b.table.IsValidRouteID(route) {
		if b.table.InUse() >= b.table.Capacity() {
			tracer().Errorf("subscribe %v: route table full (%d routes)", id, b.table.Capacity())
			return sb.InvalidRouteID, fmt.Errorf("%w: %d routes", ErrRouteTableFull, b.table.Capacity())
		}

		var collisions uint32
		route, collisions = b.table.AddRoute(id)
		if !b.table.IsValidRouteID(route) {
			return sb.InvalidRouteID, fmt.Errorf("%w: %v", ErrRouteTableFull, id)
		}

		b.stats.TotalCollisions += uint64(collisions)
		if collisions > b.stats.MaxCollisions {
			b.stats.MaxCollisions = collisions
		}
		if collisions > 0 {
			tracer().Debugf("msg hash collision: msgid=%v collisions=%d", id, collisions)
		}
	}

	count := 0
	for h := b.table.DestListHead(route); h != sb.NoDest; {
		node := b.dests.get(h)
		if node == nil {
			break
		}
		if node.pipe == pipe {
			return route, fmt.Errorf("%w: msgid=%v pipe=%d", ErrDuplicateSubscription, id, pipe)
		}
		count++
		h = node.next
	}
	if count >= b.config.MaxDestPerRoute {
		return route, fmt.Errorf("%w: msgid=%v limit=%d", ErrTooManyDestinations, id, b.config.MaxDestPerRoute)
	}

	h, ok := b.dests.alloc(pipe)
	if !ok {
		return route, ErrDestinationsExhausted
	}

	// New destinations go at the head of the list
	b.dests.get(h).next = b.table.DestListHead(route)
	b.table.SetDestListHead(route, h)

	b.stats.Subscriptions = b.dests.used
	if b.stats.Subscriptions > b.stats.PeakSubscriptions {
		b.stats.PeakSubscriptions = b.stats.Subscriptions
	}

	return route, nil
}

// Unsubscribe removes pipe from the destination list of id.
// The route itself is kept: routes are never freed.
func (b *Bus) Unsubscribe(ctx context.Context, id sb.MsgID, pipe sb.PipeID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	if !b.table.MsgIDRange().IsValid(id) {
		return fmt.Errorf("%w: %v", ErrInvalidMsgID, id)
	}

	route := b.table.GetRouteID(id)
	prev := sb.NoDest
	for h := b.table.DestListHead(route); h != sb.NoDest; {
		node := b.dests.get(h)
		if node == nil {
			break
		}
		if node.pipe == pipe {
			if prev == sb.NoDest {
				b.table.SetDestListHead(route, node.next)
			} else {
				b.dests.get(prev).next = node.next
			}
			b.dests.release(h)
			b.stats.Subscriptions = b.dests.used
			return nil
		}
		prev = h
		h = node.next
	}

	return fmt.Errorf("%w: msgid=%v pipe=%d", ErrNotSubscribed, id, pipe)
}

// SetRouteState enables or disables delivery of id to pipe without unsubscribing.
func (b *Bus) SetRouteState(ctx context.Context, id sb.MsgID, pipe sb.PipeID, active bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	if !b.table.MsgIDRange().IsValid(id) {
		return fmt.Errorf("%w: %v", ErrInvalidMsgID, id)
	}

	node := b.findDest(b.table.GetRouteID(id), pipe)
	if node == nil {
		return fmt.Errorf("%w: msgid=%v pipe=%d", ErrNotSubscribed, id, pipe)
	}
	node.active = active
	return nil
}

// Route resolves id to the pipes that would receive it. When incrementSeq is set the
// route's sequence counter is advanced first and the new value reported. A message id
// with no route or no destinations is counted, not treated as an error.
func (b *Bus) Route(ctx context.Context, id sb.MsgID, incrementSeq bool) (Delivery, error) {
	if err := ctx.Err(); err != nil {
		return Delivery{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return Delivery{}, ErrClosed
	}
	if !b.table.MsgIDRange().IsValid(id) {
		return Delivery{}, fmt.Errorf("%w: %v", ErrInvalidMsgID, id)
	}

	route := b.table.GetRouteID(id)
	if !b.table.IsValidRouteID(route) {
		b.stats.NoSubscribers++
		return Delivery{RouteID: sb.InvalidRouteID}, nil
	}

	if incrementSeq {
		b.table.IncrementSequenceCounter(route)
	}

	delivery := Delivery{
		RouteID:  route,
		Sequence: b.table.SequenceCounter(route),
	}
	for h := b.table.DestListHead(route); h != sb.NoDest; {
		node := b.dests.get(h)
		if node == nil {
			break
		}
		if node.active {
			node.count++
			delivery.Pipes = append(delivery.Pipes, node.pipe)
		}
		h = node.next
	}

	if len(delivery.Pipes) == 0 {
		b.stats.NoSubscribers++
	} else {
		b.stats.MsgsRouted++
	}

	return delivery, nil
}

// RouteInfo snapshots the routes selected by throttle while holding the lock once.
// A nil throttle snapshots every route.
func (b *Bus) RouteInfo(ctx context.Context, throttle *sbrpkg.Throttle) ([]RouteInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	var infos []RouteInfo
	b.table.ForEachRouteID(func(route sb.RouteID) {
		infos = append(infos, b.snapshot(route))
	}, throttle)

	return infos, nil
}

// Lookup snapshots the route for id. The second result is false if id has no route.
func (b *Bus) Lookup(ctx context.Context, id sb.MsgID) (RouteInfo, bool, error) {
	if err := ctx.Err(); err != nil {
		return RouteInfo{}, false, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return RouteInfo{}, false, ErrClosed
	}

	route := b.table.GetRouteID(id)
	if !b.table.IsValidRouteID(route) {
		return RouteInfo{}, false, nil
	}
	return b.snapshot(route), true, nil
}

// Do runs fn with the lock held, giving it exclusive use of the route table.
// fn must not retain the table or call back into the bus.
func (b *Bus) Do(ctx context.Context, fn func(*sbr.Table)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	fn(b.table)
	return nil
}

// Statistics returns a copy of the bus counters.
func (b *Bus) Statistics(ctx context.Context) (Statistics, error) {
	if err := ctx.Err(); err != nil {
		return Statistics{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return Statistics{}, ErrClosed
	}

	stats := b.stats
	stats.Strategy = b.table.Strategy().String()
	stats.RoutesInUse = b.table.InUse()
	stats.MaxRoutes = b.table.Capacity()
	stats.MaxDestinations = len(b.dests.nodes)
	return stats, nil
}

// Reset clears every route, destination and counter.
func (b *Bus) Reset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}

	b.table.Init()
	b.dests.reset()
	b.stats = Statistics{}
	tracer().Infof("bus reset")
	return nil
}

// Close closes the bus. Further operations return ErrClosed.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil // Already closed, idempotent
	}
	b.closed = true
	return nil
}

func (b *Bus) snapshot(route sb.RouteID) RouteInfo {
	info := RouteInfo{
		RouteID:  route,
		Index:    sb.RouteIDToValue(route),
		MsgID:    b.table.GetMsgID(route),
		Sequence: b.table.SequenceCounter(route),
	}
	for h := b.table.DestListHead(route); h != sb.NoDest; {
		node := b.dests.get(h)
		if node == nil {
			break
		}
		info.Destinations = append(info.Destinations, Destination{
			Pipe:     node.pipe,
			Active:   node.active,
			MsgCount: node.count,
		})
		h = node.next
	}
	return info
}

func (b *Bus) findDest(route sb.RouteID, pipe sb.PipeID) *destination {
	for h := b.table.DestListHead(route); h != sb.NoDest; {
		node := b.dests.get(h)
		if node == nil {
			return nil
		}
		if node.pipe == pipe {
			return node
		}
		h = node.next
	}
	return nil
}
