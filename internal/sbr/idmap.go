package sbr

import (
	"github.com/nasa/cFE-sub018/pkg/sb"
)

// Key is a message id that has already been checked against a MsgIDRange.
// Maps index with it directly; the zero Key is message id 0, which every range accepts.
type Key struct {
	id sb.MsgID
}

// MsgID returns the validated message id.
func (k Key) MsgID() sb.MsgID {
	return k.id
}

func checkKey(valid sb.MsgIDRange, id sb.MsgID) (Key, bool) {
	if !valid.IsValid(id) {
		return Key{}, false
	}
	return Key{id: id}, true
}

// IDMap resolves message ids to routes. The unexported methods seal the interface
// to DirectMap and HashMap; one of them is chosen when a Table is built.
type IDMap interface {
	// Set associates id with route and returns the number of collisions taken.
	// An invalid id is ignored and reports 0 collisions.
	Set(id sb.MsgID, route sb.RouteID) uint32

	// Get returns the route associated with id, or sb.InvalidRouteID.
	Get(id sb.MsgID) sb.RouteID

	// Reset marks every entry as unassigned.
	Reset()

	set(k Key, route sb.RouteID) uint32
	get(k Key) sb.RouteID
}

// MsgIDLookup recovers the message id a route was created for.
// The hash map uses it to tell colliding message ids apart.
type MsgIDLookup interface {
	GetMsgID(route sb.RouteID) sb.MsgID
}
