// Package sbr provides interfaces for message-id-to-route resolution.
//
// This package defines the core abstractions for the software bus routing (SBR) component:
//   - Resolver: maps a MsgID to a dense RouteID and keeps per-route bookkeeping
//   - Throttle: chunking directive for cooperative full-table scans
//   - Callback: per-route visitor used by ForEachRouteID
//
// A route is created the first time anything subscribes to a MsgID and is never freed.
// Its RouteID stays stable for the life of the process, so callers resolve a MsgID once
// per publish/subscribe call and then use the RouteID to reach the destination list head
// and the sequence counter.
//
// Resolvers perform no locking. The owning bus serializes every call, reads included,
// behind a single lock held for the duration of the call. Long housekeeping scans use a
// Throttle so the lock can be released between chunks.
//
// Example usage:
//
//	// Subscribe path: find or create the route
//	route := resolver.GetRouteID(msgID)
//	if !resolver.IsValidRouteID(route) {
//		route, collisions = resolver.AddRoute(msgID)
//		if !resolver.IsValidRouteID(route) {
//			return ErrRouteTableFull
//		}
//	}
//	resolver.SetDestListHead(route, head)
//
//	// Housekeeping: visit routes 16 at a time, releasing the lock between chunks
//	throttle := sbr.Throttle{MaxLoop: 16}
//	for {
//		lock()
//		resolver.ForEachRouteID(collect, &throttle)
//		unlock()
//		if throttle.NextIndex == 0 {
//			break
//		}
//		throttle.StartIndex = throttle.NextIndex
//	}
package sbr
