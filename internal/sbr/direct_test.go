package sbr

import (
	"testing"

	"github.com/nasa/cFE-sub018/pkg/sb"
)

func TestDirectMap_SetGet(t *testing.T) {
	valid := sb.DefaultMsgIDRange()
	m := NewDirectMap(valid)

	if got := m.Set(0, 5); got != 0 {
		t.Errorf("Expected 0 collisions, got %d", got)
	}
	if got := m.Get(0); got != 5 {
		t.Errorf("Expected RouteID 5, got %d", got)
	}
	if got := m.Get(valid.Highest); got != sb.InvalidRouteID {
		t.Errorf("Expected unset highest id to be invalid, got %d", got)
	}
}

func TestDirectMap_InvalidMsgID(t *testing.T) {
	valid := sb.DefaultMsgIDRange()
	m := NewDirectMap(valid)

	for _, id := range []sb.MsgID{sb.InvalidMsgID, valid.Highest + 1} {
		if got := m.Set(id, 3); got != 0 {
			t.Errorf("Set(%v) reported %d collisions", id, got)
		}
		if got := m.Get(id); got != sb.InvalidRouteID {
			t.Errorf("Get(%v) = %d, want invalid", id, got)
		}
	}

	for i, r := range m.routes {
		if r != sb.InvalidRouteID {
			t.Fatalf("Invalid Set mutated slot %d", i)
		}
	}
}

func TestDirectMap_Reset(t *testing.T) {
	m := NewDirectMap(sb.DefaultMsgIDRange())
	m.Set(7, 1)
	m.Set(0x1FFF, 2)

	m.Reset()

	if m.Get(7) != sb.InvalidRouteID || m.Get(0x1FFF) != sb.InvalidRouteID {
		t.Error("Expected all entries cleared after Reset")
	}
}

func TestDirectMap_RoundTrip(t *testing.T) {
	valid := sb.MsgIDRange{Highest: 0x3FF}
	m := NewDirectMap(valid)

	for id := sb.MsgID(0); id <= valid.Highest; id++ {
		m.Set(id, sb.ValueToRouteID(uint32(id)))
	}
	for id := sb.MsgID(0); id <= valid.Highest; id++ {
		if got := m.Get(id); got != sb.ValueToRouteID(uint32(id)) {
			t.Fatalf("Get(%v) = %d, want %d", id, got, sb.ValueToRouteID(uint32(id)))
		}
	}
}
