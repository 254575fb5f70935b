package sbr

import (
	"github.com/nasa/cFE-sub018/pkg/sb"
)

// DirectMap maps message ids to routes with one array slot per valid message id.
type DirectMap struct {
	valid  sb.MsgIDRange
	routes []sb.RouteID // indexed by message id, zero = unassigned
}

// NewDirectMap creates a direct map covering every id in valid.
func NewDirectMap(valid sb.MsgIDRange) *DirectMap {
	return &DirectMap{
		valid:  valid,
		routes: make([]sb.RouteID, valid.Size()),
	}
}

// Set associates id with route. Direct indexing never collides.
func (m *DirectMap) Set(id sb.MsgID, route sb.RouteID) uint32 {
	k, ok := checkKey(m.valid, id)
	if !ok {
		return 0
	}
	return m.set(k, route)
}

// Get returns the route associated with id, or sb.InvalidRouteID.
func (m *DirectMap) Get(id sb.MsgID) sb.RouteID {
	k, ok := checkKey(m.valid, id)
	if !ok {
		return sb.InvalidRouteID
	}
	return m.get(k)
}

// Reset marks every entry as unassigned.
func (m *DirectMap) Reset() {
	clear(m.routes)
}

func (m *DirectMap) set(k Key, route sb.RouteID) uint32 {
	m.routes[k.id] = route
	return 0
}

func (m *DirectMap) get(k Key) sb.RouteID {
	return m.routes[k.id]
}

var _ IDMap = (*DirectMap)(nil)
