package sbr

import (
	"testing"

	"github.com/nasa/cFE-sub018/pkg/sb"
	"github.com/nasa/cFE-sub018/pkg/sbr"
)

func newTestTable(t testing.TB, strategy Strategy) *Table {
	t.Helper()
	table, err := NewTable(DefaultConfig().WithStrategy(strategy))
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}
	return table
}

func forEachStrategy(t *testing.T, fn func(t *testing.T, strategy Strategy)) {
	for _, strategy := range []Strategy{DirectStrategy, HashStrategy} {
		t.Run(strategy.String(), func(t *testing.T) {
			fn(t, strategy)
		})
	}
}

func countRoutes(table *Table, throttle *sbr.Throttle) int {
	count := 0
	table.ForEachRouteID(func(sb.RouteID) { count++ }, throttle)
	return count
}

func TestNewTable_NilConfig(t *testing.T) {
	if _, err := NewTable(nil); err != ErrNilConfig {
		t.Fatalf("Expected ErrNilConfig, got %v", err)
	}
}

func TestNewTable_InvalidConfig(t *testing.T) {
	_, err := NewTable(&Config{MaxRoutes: 100, Strategy: HashStrategy})
	if err == nil {
		t.Fatal("Expected error for hash size that is not a power of two")
	}
}

func TestNewTable_DoesNotModifyCallerConfig(t *testing.T) {
	config := &Config{}
	if _, err := NewTable(config); err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}
	if config.MaxRoutes != 0 || config.NextSequence != nil {
		t.Error("Expected caller config to be left untouched")
	}
}

func TestTable_InvalidMsgID(t *testing.T) {
	forEachStrategy(t, func(t *testing.T, strategy Strategy) {
		table := newTestTable(t, strategy)

		for _, id := range []sb.MsgID{sb.InvalidMsgID, sb.DefaultHighestValidMsgID + 1} {
			route, collisions := table.AddRoute(id)
			if table.IsValidRouteID(route) {
				t.Errorf("AddRoute(%v) returned valid route %d", id, route)
			}
			if collisions != 0 {
				t.Errorf("AddRoute(%v) reported %d collisions", id, collisions)
			}
			if got := table.GetRouteID(id); got != sb.InvalidRouteID {
				t.Errorf("GetRouteID(%v) = %d, want invalid", id, got)
			}
		}

		if table.InUse() != 0 {
			t.Errorf("Expected no routes allocated, got %d", table.InUse())
		}
	})
}

func TestTable_General(t *testing.T) {
	forEachStrategy(t, func(t *testing.T, strategy Strategy) {
		table := newTestTable(t, strategy)
		capacity := table.Capacity()

		if got := countRoutes(table, nil); got != 0 {
			t.Fatalf("Expected 0 callbacks with no routes, got %d", got)
		}

		// Add maximum message id value
		highest := sb.DefaultHighestValidMsgID
		route, collisions := table.AddRoute(highest)
		if collisions != 0 {
			t.Errorf("Expected 0 collisions on empty table, got %d", collisions)
		}
		if !table.IsValidRouteID(route) {
			t.Fatal("Expected valid route for highest message id")
		}
		if got := countRoutes(table, nil); got != 1 {
			t.Fatalf("Expected 1 callback, got %d", got)
		}

		// Fill routing table
		count := 0
		for {
			r, _ := table.AddRoute(sb.MsgID(count))
			if !table.IsValidRouteID(r) {
				break
			}
			count++
		}
		if count+1 != capacity {
			t.Fatalf("Expected table full after %d adds, got %d", capacity-1, count)
		}

		// One more for good luck
		if r, _ := table.AddRoute(sb.MsgID(count)); table.IsValidRouteID(r) {
			t.Error("Expected AddRoute on a full table to fail")
		}

		// Maximum message id is still in the table
		if got := table.GetMsgID(route); got != highest {
			t.Errorf("Expected msg id %v, got %v", highest, got)
		}
		if got := table.GetRouteID(highest); got != route {
			t.Errorf("Expected route %d, got %d", route, got)
		}

		if got := countRoutes(table, nil); got != capacity {
			t.Fatalf("Expected %d callbacks on full table, got %d", capacity, got)
		}

		// Throttled: all but one, then the rest
		throttle := sbr.Throttle{StartIndex: 0, MaxLoop: uint32(capacity - 1)}
		if got := countRoutes(table, &throttle); got != capacity-1 {
			t.Errorf("Expected %d callbacks in first chunk, got %d", capacity-1, got)
		}
		if throttle.NextIndex != uint32(capacity-1) {
			t.Errorf("Expected NextIndex %d, got %d", capacity-1, throttle.NextIndex)
		}

		throttle.StartIndex = throttle.NextIndex
		throttle.MaxLoop = uint32(capacity)
		if got := countRoutes(table, &throttle); got != 1 {
			t.Errorf("Expected 1 callback in second chunk, got %d", got)
		}
		if throttle.NextIndex != 0 {
			t.Errorf("Expected NextIndex 0 after full pass, got %d", throttle.NextIndex)
		}
	})
}

func TestTable_GetSet(t *testing.T) {
	forEachStrategy(t, func(t *testing.T, strategy Strategy) {
		table := newTestTable(t, strategy)

		// Invalid route ids
		for _, route := range []sb.RouteID{sb.InvalidRouteID, sb.ValueToRouteID(uint32(table.Capacity()))} {
			if got := table.GetMsgID(route); got != sb.InvalidMsgID {
				t.Errorf("GetMsgID(%d) = %v, want invalid", route, got)
			}
			if got := table.DestListHead(route); got != sb.NoDest {
				t.Errorf("DestListHead(%d) = %d, want none", route, got)
			}
			if got := table.SequenceCounter(route); got != 0 {
				t.Errorf("SequenceCounter(%d) = %d, want 0", route, got)
			}
			table.SetDestListHead(route, 9)
			table.IncrementSequenceCounter(route)
		}

		// Every slot still pristine
		for i := 0; i < table.Capacity(); i++ {
			entry := table.routes[i]
			if entry.msgID != sb.InvalidMsgID || entry.head != sb.NoDest || entry.seq != 0 {
				t.Fatalf("Route slot %d modified through an invalid handle: %+v", i, entry)
			}
		}

		ids := []sb.MsgID{sb.InvalidMsgID, 1, sb.DefaultHighestValidMsgID}
		routes := make([]sb.RouteID, len(ids))
		for i, id := range ids {
			routes[i], _ = table.AddRoute(id)
		}

		for i, id := range ids {
			if got := table.GetMsgID(routes[i]); got != id {
				t.Errorf("GetMsgID(route %d) = %v, want %v", i, got, id)
			}
		}

		table.IncrementSequenceCounter(routes[1])
		table.IncrementSequenceCounter(routes[1])
		table.SetDestListHead(routes[1], 2)
		table.SetDestListHead(routes[2], 1)

		if got := table.SequenceCounter(routes[1]); got != 2 {
			t.Errorf("Expected sequence count 2, got %d", got)
		}
		if got := table.SequenceCounter(routes[2]); got != 0 {
			t.Errorf("Expected sequence count 0, got %d", got)
		}
		if got := table.DestListHead(routes[0]); got != sb.NoDest {
			t.Errorf("Expected no dest for invalid route, got %d", got)
		}
		if got := table.DestListHead(routes[1]); got != 2 {
			t.Errorf("Expected dest 2, got %d", got)
		}
		if got := table.DestListHead(routes[2]); got != 1 {
			t.Errorf("Expected dest 1, got %d", got)
		}
	})
}

func TestTable_InjectedSequenceRule(t *testing.T) {
	calls := 0
	config := DefaultConfig()
	config.NextSequence = func(sb.SequenceCount) sb.SequenceCount {
		calls++
		return 0x1234
	}

	table, err := NewTable(config)
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}

	route, _ := table.AddRoute(0x0801)
	table.IncrementSequenceCounter(route)
	table.IncrementSequenceCounter(sb.InvalidRouteID)

	if calls != 1 {
		t.Errorf("Expected next-count rule called once, got %d", calls)
	}
	if got := table.SequenceCounter(route); got != 0x1234 {
		t.Errorf("Expected injected count 0x1234, got %#x", got)
	}
}

func TestTable_SequenceCounterWraps(t *testing.T) {
	table := newTestTable(t, DirectStrategy)
	route, _ := table.AddRoute(3)

	for i := 0; i <= int(sb.MaxSequenceCount); i++ {
		table.IncrementSequenceCounter(route)
	}

	if got := table.SequenceCounter(route); got != 0 {
		t.Errorf("Expected sequence count to wrap to 0, got %d", got)
	}
}

func TestTable_DuplicateAddRouteAllocatesTwice(t *testing.T) {
	forEachStrategy(t, func(t *testing.T, strategy Strategy) {
		table := newTestTable(t, strategy)

		first, _ := table.AddRoute(0x0880)
		second, _ := table.AddRoute(0x0880)

		if first == second {
			t.Fatal("Expected duplicate AddRoute to allocate a second route")
		}
		if table.InUse() != 2 {
			t.Errorf("Expected 2 routes in use, got %d", table.InUse())
		}
		if table.GetMsgID(second) != 0x0880 {
			t.Errorf("Expected second route to carry the same msg id")
		}
	})
}

func TestTable_UnallocatedRouteIsInvalid(t *testing.T) {
	table := newTestTable(t, DirectStrategy)
	route, _ := table.AddRoute(10)

	next := route + 1
	if table.IsValidRouteID(next) {
		t.Error("Expected route beyond the allocation cursor to be invalid")
	}
	table.SetDestListHead(next, 5)
	if table.routes[sb.RouteIDToValue(next)].head != sb.NoDest {
		t.Error("Expected write through unallocated route to be ignored")
	}
}

func TestTable_Init(t *testing.T) {
	forEachStrategy(t, func(t *testing.T, strategy Strategy) {
		table := newTestTable(t, strategy)
		route, _ := table.AddRoute(0x0803)
		table.SetDestListHead(route, 4)
		table.IncrementSequenceCounter(route)

		table.Init()

		if table.InUse() != 0 {
			t.Errorf("Expected 0 routes after Init, got %d", table.InUse())
		}
		if got := table.GetRouteID(0x0803); got != sb.InvalidRouteID {
			t.Errorf("Expected msg id unmapped after Init, got %d", got)
		}

		again, _ := table.AddRoute(0x0803)
		if again != route {
			t.Errorf("Expected allocation to restart at %d, got %d", route, again)
		}
		if table.DestListHead(again) != sb.NoDest || table.SequenceCounter(again) != 0 {
			t.Error("Expected fresh route state after Init")
		}
	})
}

func TestTable_HashCollisions(t *testing.T) {
	config := DefaultConfig().
		WithHighestValidMsgID(fullWidth.Highest).
		WithStrategy(HashStrategy)
	table, err := NewTable(config)
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}

	ids := []sb.MsgID{hashesToZero, hashesToAllOnes, hashesToLow31}
	want := []uint32{0, 0, 2}
	routes := make([]sb.RouteID, len(ids))

	for i, id := range ids {
		var collisions uint32
		routes[i], collisions = table.AddRoute(id)
		if collisions != want[i] {
			t.Errorf("AddRoute #%d collisions = %d, want %d", i+1, collisions, want[i])
		}
	}

	for i, id := range ids {
		if got := table.GetRouteID(id); got != routes[i] {
			t.Errorf("GetRouteID(%#x) = %d, want %d", uint32(id), got, routes[i])
		}
	}
}

func TestTable_RoundTripAllStrategies(t *testing.T) {
	forEachStrategy(t, func(t *testing.T, strategy Strategy) {
		table := newTestTable(t, strategy)

		// Spread ids over the whole range so the hash map sees real collisions
		step := sb.MsgID(int(sb.DefaultHighestValidMsgID) / table.Capacity())
		for i := 0; i < table.Capacity(); i++ {
			id := sb.MsgID(i) * step
			route, _ := table.AddRoute(id)
			if !table.IsValidRouteID(route) {
				t.Fatalf("AddRoute(%v) failed", id)
			}
		}

		for i := 0; i < table.Capacity(); i++ {
			id := sb.MsgID(i) * step
			route := table.GetRouteID(id)
			if got := table.GetMsgID(route); got != id {
				t.Fatalf("GetMsgID(GetRouteID(%v)) = %v", id, got)
			}
		}
	})
}
