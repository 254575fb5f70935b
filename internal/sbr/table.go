// Package sbr implements the software bus route table and its message id maps.
package sbr

import (
	"fmt"

	"github.com/nasa/cFE-sub018/pkg/sb"
	"github.com/nasa/cFE-sub018/pkg/sbr"
)

type routeEntry struct {
	msgID sb.MsgID
	head  sb.DestHandle
	seq   sb.SequenceCount
}

// Table implements the sbr.Resolver interface with a fixed-capacity array of routes.
// Routes are allocated in order and never freed, so a RouteID stays bound to its
// message id until Init.
//
// Table does no locking. Every call, including reads, must be serialized by the owner.
type Table struct {
	config *Config
	valid  sb.MsgIDRange
	routes []routeEntry
	next   uint32 // first unused entry in routes
	ids    IDMap
}

// NewTable creates a route table with the given configuration.
// All memory is allocated here; no later call allocates.
func NewTable(config *Config) (*Table, error) {
	if config == nil {
		return nil, ErrNilConfig
	}

	// Make a copy and set defaults
	configCopy := *config
	configCopy.SetDefaults()

	if err := configCopy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid route table config: %w", err)
	}

	t := &Table{
		config: &configCopy,
		valid:  configCopy.MsgIDRange(),
		routes: make([]routeEntry, configCopy.MaxRoutes),
	}

	switch configCopy.Strategy {
	case HashStrategy:
		hm, err := NewHashMap(t.valid, configCopy.HashSize(), t)
		if err != nil {
			return nil, err
		}
		t.ids = hm
	default:
		t.ids = NewDirectMap(t.valid)
	}

	t.Init()
	return t, nil
}

// Init clears every route and the message id map.
func (t *Table) Init() {
	for i := range t.routes {
		t.routes[i] = routeEntry{msgID: sb.InvalidMsgID}
	}
	t.next = 0
	t.ids.Reset()
}

// AddRoute allocates the next free route for id.
func (t *Table) AddRoute(id sb.MsgID) (sb.RouteID, uint32) {
	k, ok := checkKey(t.valid, id)
	if !ok || int(t.next) >= len(t.routes) {
		return sb.InvalidRouteID, 0
	}

	route := sb.ValueToRouteID(t.next)
	collisions := t.ids.set(k, route)

	t.routes[t.next] = routeEntry{msgID: id}
	t.next++

	return route, collisions
}

// GetRouteID resolves id to its route.
func (t *Table) GetRouteID(id sb.MsgID) sb.RouteID {
	k, ok := checkKey(t.valid, id)
	if !ok {
		return sb.InvalidRouteID
	}
	return t.ids.get(k)
}

// GetMsgID returns the message id a route was created for.
func (t *Table) GetMsgID(route sb.RouteID) sb.MsgID {
	if !t.IsValidRouteID(route) {
		return sb.InvalidMsgID
	}
	return t.routes[sb.RouteIDToValue(route)].msgID
}

// DestListHead returns the destination list head stored for a route.
func (t *Table) DestListHead(route sb.RouteID) sb.DestHandle {
	if !t.IsValidRouteID(route) {
		return sb.NoDest
	}
	return t.routes[sb.RouteIDToValue(route)].head
}

// SetDestListHead stores a destination list head for a route.
func (t *Table) SetDestListHead(route sb.RouteID, head sb.DestHandle) {
	if t.IsValidRouteID(route) {
		t.routes[sb.RouteIDToValue(route)].head = head
	}
}

// SequenceCounter returns the current sequence count of a route.
func (t *Table) SequenceCounter(route sb.RouteID) sb.SequenceCount {
	if !t.IsValidRouteID(route) {
		return 0
	}
	return t.routes[sb.RouteIDToValue(route)].seq
}

// IncrementSequenceCounter advances the sequence count of a route.
func (t *Table) IncrementSequenceCounter(route sb.RouteID) {
	if t.IsValidRouteID(route) {
		entry := &t.routes[sb.RouteIDToValue(route)]
		entry.seq = t.config.NextSequence(entry.seq)
	}
}

// ForEachRouteID calls fn for allocated routes in ascending index order.
//
// With a throttle the range [StartIndex, StartIndex+MaxLoop) is visited, clipped to the
// allocated routes. NextIndex is set to the end of that range, or to 0 when the range
// reached the last allocated route.
func (t *Table) ForEachRouteID(fn sbr.Callback, throttle *sbr.Throttle) {
	start := uint32(0)
	end := t.next

	if throttle != nil {
		start = throttle.StartIndex

		// Return next index of zero if full range is processed
		throttle.NextIndex = 0

		if uint64(start)+uint64(throttle.MaxLoop) < uint64(end) {
			end = start + throttle.MaxLoop
			throttle.NextIndex = end
		}
	}

	if fn == nil {
		return
	}

	for i := start; i < end; i++ {
		fn(sb.ValueToRouteID(i))
	}
}

// IsValidRouteID reports whether route refers to an allocated route.
func (t *Table) IsValidRouteID(route sb.RouteID) bool {
	return route != sb.InvalidRouteID && uint32(route) <= t.next
}

// InUse returns the number of allocated routes.
func (t *Table) InUse() int {
	return int(t.next)
}

// Capacity returns the maximum number of routes.
func (t *Table) Capacity() int {
	return len(t.routes)
}

// Strategy returns the message id map strategy the table was built with.
func (t *Table) Strategy() Strategy {
	return t.config.Strategy
}

// MsgIDRange returns the range of message ids the table accepts.
func (t *Table) MsgIDRange() sb.MsgIDRange {
	return t.valid
}

// Verify that Table implements the Resolver interface at compile time
var _ sbr.Resolver = (*Table)(nil)
