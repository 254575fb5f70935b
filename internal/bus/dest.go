package bus

import (
	"github.com/nasa/cFE-sub018/pkg/sb"
)

// destination is one node of a route's destination list.
type destination struct {
	pipe   sb.PipeID
	active bool
	count  uint32 // messages routed to this pipe
	next   sb.DestHandle
	inUse  bool
}

// destArena owns every destination node. Handles are 1-based indices so that
// sb.NoDest is never a live node; free nodes are chained through next.
type destArena struct {
	nodes []destination
	free  sb.DestHandle
	used  int
}

func newDestArena(size int) *destArena {
	a := &destArena{nodes: make([]destination, size)}
	a.reset()
	return a
}

func (a *destArena) reset() {
	for i := range a.nodes {
		a.nodes[i] = destination{next: sb.DestHandle(i + 2)}
	}
	if len(a.nodes) > 0 {
		a.nodes[len(a.nodes)-1].next = sb.NoDest
		a.free = 1
	} else {
		a.free = sb.NoDest
	}
	a.used = 0
}

func (a *destArena) alloc(pipe sb.PipeID) (sb.DestHandle, bool) {
	h := a.free
	if h == sb.NoDest {
		return sb.NoDest, false
	}
	node := &a.nodes[h-1]
	a.free = node.next
	*node = destination{pipe: pipe, active: true, inUse: true}
	a.used++
	return h, true
}

func (a *destArena) release(h sb.DestHandle) {
	node := a.get(h)
	if node == nil {
		return
	}
	*node = destination{next: a.free}
	a.free = h
	a.used--
}

// get returns the live node behind h, or nil.
func (a *destArena) get(h sb.DestHandle) *destination {
	if h == sb.NoDest || int(h) > len(a.nodes) {
		return nil
	}
	node := &a.nodes[h-1]
	if !node.inUse {
		return nil
	}
	return node
}
