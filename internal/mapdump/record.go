package mapdump

import (
	"fmt"
	"strings"
	"time"

	"github.com/nasa/cFE-sub018/pkg/sb"
)

// Kind selects what a dump contains.
type Kind int

const (
	// RoutingInfo writes one record per route destination
	RoutingInfo Kind = iota

	// MapInfo writes one record per route: the message id and its table index
	MapInfo
)

// String returns the file name stem used for the kind.
func (k Kind) String() string {
	switch k {
	case RoutingInfo:
		return "routing"
	case MapInfo:
		return "map"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind converts a name into a Kind.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "routing", "route", "routes":
		return RoutingInfo, nil
	case "map":
		return MapInfo, nil
	default:
		return RoutingInfo, fmt.Errorf("%w: %q", ErrUnknownKind, name)
	}
}

// Record is one line of a dump. Pipe, State and MsgCount are only set for RoutingInfo.
type Record struct {
	MsgID    sb.MsgID  `json:"msg_id"`
	Index    uint32    `json:"index"`
	Pipe     sb.PipeID `json:"pipe_id,omitempty"`
	State    uint8     `json:"state,omitempty"`
	MsgCount uint32    `json:"msg_count,omitempty"`
}

// Header describes a dump run.
type Header struct {
	Session   string    `json:"session"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

// Summary closes a dump run.
type Summary struct {
	Session string `json:"session"`
	Kind    string `json:"kind"`
	Routes  uint32 `json:"routes"`
	Records uint32 `json:"records"`
	Digest  string `json:"sha3_256"`
}
