package sbr

import (
	"github.com/nasa/cFE-sub018/pkg/sb"
)

// Callback is invoked once per allocated route by ForEachRouteID.
type Callback func(route sb.RouteID)

// Throttle limits how many routes a single ForEachRouteID call visits.
type Throttle struct {
	// StartIndex is the 0-based table index of the first route to visit
	StartIndex uint32

	// MaxLoop is the maximum number of routes visited by one call
	MaxLoop uint32

	// NextIndex is set by ForEachRouteID: the StartIndex for the following call,
	// or 0 once the end of the allocated routes has been reached
	NextIndex uint32
}

// Resolver maps message ids to routes and stores per-route bookkeeping.
//
// Invalid inputs never fail loudly: they produce sb.InvalidRouteID, sb.InvalidMsgID,
// sb.NoDest or a zero count, and mutating calls become no-ops.
//
// Implementations are not safe for concurrent use; the caller provides mutual exclusion.
type Resolver interface {
	// Init clears every route and the message id map.
	Init()

	// AddRoute allocates a new route for id and reports the map collisions it took.
	// It must be called at most once per id: a second call allocates a second route.
	// Returns sb.InvalidRouteID if id is invalid or the table is full.
	AddRoute(id sb.MsgID) (sb.RouteID, uint32)

	// GetRouteID resolves id to its route, or sb.InvalidRouteID if it has none.
	GetRouteID(id sb.MsgID) sb.RouteID

	// GetMsgID returns the message id a route was created for.
	GetMsgID(route sb.RouteID) sb.MsgID

	// DestListHead returns the destination list head stored for a route.
	DestListHead(route sb.RouteID) sb.DestHandle

	// SetDestListHead stores a destination list head for a route. Ownership is not transferred.
	SetDestListHead(route sb.RouteID, head sb.DestHandle)

	// SequenceCounter returns the current sequence count of a route.
	SequenceCounter(route sb.RouteID) sb.SequenceCount

	// IncrementSequenceCounter advances the sequence count of a route.
	IncrementSequenceCounter(route sb.RouteID)

	// ForEachRouteID calls fn for allocated routes in ascending index order.
	// A nil throttle visits every route; otherwise the visited range is limited and
	// throttle.NextIndex is updated for the next call.
	ForEachRouteID(fn Callback, throttle *Throttle)

	// IsValidRouteID reports whether route refers to an allocated route.
	IsValidRouteID(route sb.RouteID) bool

	// InUse returns the number of allocated routes.
	InUse() int

	// Capacity returns the maximum number of routes.
	Capacity() int
}
