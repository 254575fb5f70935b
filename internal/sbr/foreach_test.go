package sbr

import (
	"testing"

	"github.com/nasa/cFE-sub018/pkg/sb"
	"github.com/nasa/cFE-sub018/pkg/sbr"
)

func fillTable(t *testing.T, n int) *Table {
	t.Helper()
	table, err := NewTable(DefaultConfig().WithMaxRoutes(n))
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}
	for i := 0; i < n; i++ {
		table.AddRoute(sb.MsgID(i))
	}
	return table
}

func TestForEachRouteID_AscendingOrder(t *testing.T) {
	table := fillTable(t, 16)

	var visited []uint32
	table.ForEachRouteID(func(route sb.RouteID) {
		visited = append(visited, sb.RouteIDToValue(route))
	}, nil)

	if len(visited) != 16 {
		t.Fatalf("Expected 16 visits, got %d", len(visited))
	}
	for i, idx := range visited {
		if idx != uint32(i) {
			t.Fatalf("Visit %d was index %d", i, idx)
		}
	}
}

func TestForEachRouteID_ChainedChunks(t *testing.T) {
	tests := []struct {
		name    string
		routes  int
		maxLoop uint32
	}{
		{"one per call", 10, 1},
		{"uneven chunks", 10, 3},
		{"exact multiple", 12, 4},
		{"chunk larger than table", 5, 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := fillTable(t, tt.routes)
			seen := make(map[uint32]int)
			calls := 0

			throttle := sbr.Throttle{MaxLoop: tt.maxLoop}
			for {
				calls++
				table.ForEachRouteID(func(route sb.RouteID) {
					seen[sb.RouteIDToValue(route)]++
				}, &throttle)
				if throttle.NextIndex == 0 {
					break
				}
				throttle.StartIndex = throttle.NextIndex
				if calls > tt.routes+1 {
					t.Fatal("Chunked scan did not terminate")
				}
			}

			if len(seen) != tt.routes {
				t.Fatalf("Expected %d distinct indices, got %d", tt.routes, len(seen))
			}
			for idx, n := range seen {
				if n != 1 {
					t.Errorf("Index %d visited %d times", idx, n)
				}
			}
		})
	}
}

func TestForEachRouteID_StartBeyondEnd(t *testing.T) {
	table := fillTable(t, 4)

	throttle := sbr.Throttle{StartIndex: 9, MaxLoop: 2, NextIndex: 77}
	if got := countRoutes(table, &throttle); got != 0 {
		t.Errorf("Expected no visits, got %d", got)
	}
	if throttle.NextIndex != 0 {
		t.Errorf("Expected NextIndex 0, got %d", throttle.NextIndex)
	}
}

func TestForEachRouteID_MaxLoopOverflow(t *testing.T) {
	table := fillTable(t, 4)

	throttle := sbr.Throttle{StartIndex: 2, MaxLoop: ^uint32(0)}
	if got := countRoutes(table, &throttle); got != 2 {
		t.Errorf("Expected 2 visits, got %d", got)
	}
	if throttle.NextIndex != 0 {
		t.Errorf("Expected NextIndex 0, got %d", throttle.NextIndex)
	}
}

func TestForEachRouteID_NilCallback(t *testing.T) {
	table := fillTable(t, 4)

	throttle := sbr.Throttle{MaxLoop: 2}
	table.ForEachRouteID(nil, &throttle)

	if throttle.NextIndex != 2 {
		t.Errorf("Expected throttle to advance even without a callback, got %d", throttle.NextIndex)
	}
}
