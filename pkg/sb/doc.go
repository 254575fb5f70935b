// Package sb provides the identifier types shared by the software bus components.
//
// This package defines the values that flow between the bus and its routing resolver:
//   - MsgID: mission-configured identifier for a class of bus messages
//   - RouteID: 1-based handle to an allocated route record (0 means no route)
//   - DestHandle: weak reference to a destination list owned by the delivery layer
//   - SequenceCount: per-route CCSDS packet sequence counter
//
// All values are plain integers so they can be copied freely and zero-initialized
// memory already encodes "no route" and "no destination".
//
// Example usage:
//
//	valid := sb.DefaultMsgIDRange()
//	if !valid.IsValid(id) {
//		return ErrInvalidMsgID
//	}
//
//	// Convert between a raw 0-based table index and a route handle
//	route := sb.ValueToRouteID(0) // RouteID(1)
//	index := sb.RouteIDToValue(route)
//
//	// Advance a route's sequence counter
//	next := sb.NextSequenceCount(cnt)
package sb
