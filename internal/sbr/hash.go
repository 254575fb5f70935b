package sbr

import (
	"fmt"

	"github.com/nasa/cFE-sub018/pkg/sb"
)

const hashMix = 0x45d9f3b

// hashMsgID disperses a message id over 32 bits. Callers mask the result to the table size.
func hashMsgID(id sb.MsgID) uint32 {
	h := uint32(id)
	h = ((h >> 16) ^ h) * hashMix
	h = ((h >> 16) ^ h) * hashMix
	h = (h >> 16) ^ h
	return h
}

// HashMap maps message ids to routes with an open-addressed, linearly probed table.
//
// Slots hold only route ids. The message id behind an occupied slot is recovered through
// the MsgIDLookup, so two ids that hash to the same slot are told apart without storing
// keys. Nothing is ever removed, and the table is sized so that it can never fill up.
type HashMap struct {
	valid  sb.MsgIDRange
	slots  []sb.RouteID // zero = empty
	mask   uint32
	lookup MsgIDLookup
}

// NewHashMap creates a hash map with size slots. size must be a power of two.
func NewHashMap(valid sb.MsgIDRange, size int, lookup MsgIDLookup) (*HashMap, error) {
	if !isPowerOfTwo(size) {
		return nil, fmt.Errorf("%w: %d", ErrHashSizeNotPowerOfTwo, size)
	}
	return &HashMap{
		valid:  valid,
		slots:  make([]sb.RouteID, size),
		mask:   uint32(size - 1),
		lookup: lookup,
	}, nil
}

// Set stores route at the first free slot on id's probe sequence and returns
// the number of occupied slots it stepped over.
func (m *HashMap) Set(id sb.MsgID, route sb.RouteID) uint32 {
	k, ok := checkKey(m.valid, id)
	if !ok {
		return 0
	}
	return m.set(k, route)
}

// Get probes from id's home slot until it finds a route created for id or an empty slot.
func (m *HashMap) Get(id sb.MsgID) sb.RouteID {
	k, ok := checkKey(m.valid, id)
	if !ok {
		return sb.InvalidRouteID
	}
	return m.get(k)
}

// Reset marks every slot as empty.
func (m *HashMap) Reset() {
	clear(m.slots)
}

func (m *HashMap) set(k Key, route sb.RouteID) uint32 {
	i := hashMsgID(k.id) & m.mask
	collisions := uint32(0)

	// The probe is bounded by the table size; a full table would otherwise spin forever.
	for n := 0; n < len(m.slots); n++ {
		if m.slots[i] == sb.InvalidRouteID {
			m.slots[i] = route
			return collisions
		}
		i = (i + 1) & m.mask
		collisions++
	}
	return collisions
}

func (m *HashMap) get(k Key) sb.RouteID {
	i := hashMsgID(k.id) & m.mask

	for n := 0; n < len(m.slots); n++ {
		route := m.slots[i]
		if route == sb.InvalidRouteID {
			return sb.InvalidRouteID
		}
		if m.lookup.GetMsgID(route) == k.id {
			return route
		}
		i = (i + 1) & m.mask
	}
	return sb.InvalidRouteID
}

var _ IDMap = (*HashMap)(nil)
