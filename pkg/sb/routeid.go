package sb

// RouteID is an opaque handle to a route record.
// The underlying value is the 0-based table index plus one, so the zero value is invalid.
type RouteID uint32

// InvalidRouteID is the "no route" handle.
const InvalidRouteID RouteID = 0

// ValueToRouteID converts a raw 0-based table index into a route handle.
// The result is not validated.
func ValueToRouteID(index uint32) RouteID {
	return RouteID(index + 1)
}

// RouteIDToValue converts a route handle back into its raw 0-based table index.
// The result is not validated.
func RouteIDToValue(id RouteID) uint32 {
	return uint32(id) - 1
}

// DestHandle is a non-owning reference to the head of a destination list.
// The delivery layer allocates and interprets it; NoDest plays the role of a nil pointer.
type DestHandle uint32

// NoDest is the empty destination list.
const NoDest DestHandle = 0

// PipeID identifies a subscriber's receive pipe.
type PipeID uint32
