package inspect

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/nasa/cFE-sub018/pkg/sb"
)

// ErrMissingField is returned when a struct lacks a required field
var ErrMissingField = errors.New("missing field")

// Struct field names
const (
	FieldRouteID           = "route_id"
	FieldIndex             = "index"
	FieldMsgID             = "msg_id"
	FieldName              = "name"
	FieldSequence          = "sequence"
	FieldDestinations      = "destinations"
	FieldPipeID            = "pipe_id"
	FieldActive            = "active"
	FieldMsgCount          = "msg_count"
	FieldStartIndex        = "start_index"
	FieldMaxLoop           = "max_loop"
	FieldKind              = "kind"
	FieldFile              = "file"
	FieldSession           = "session"
	FieldPath              = "path"
	FieldRoutes            = "routes"
	FieldRecords           = "records"
	FieldDigest            = "sha3_256"
	FieldStrategy          = "strategy"
	FieldRoutesInUse       = "routes_in_use"
	FieldMaxRoutes         = "max_routes"
	FieldSubscriptions     = "subscriptions"
	FieldPeakSubscriptions = "peak_subscriptions"
	FieldMaxDestinations   = "max_destinations"
	FieldTotalCollisions   = "total_collisions"
	FieldMaxCollisions     = "max_collisions"
	FieldMsgsRouted        = "msgs_routed"
	FieldNoSubscribers     = "no_subscribers"
)

// Destination is one pipe subscribed to a route.
type Destination struct {
	PipeID   sb.PipeID
	Active   bool
	MsgCount uint32
}

// Route is a snapshot of one route.
type Route struct {
	RouteID      sb.RouteID
	Index        uint32
	MsgID        sb.MsgID
	Name         string // catalog name, if known
	Sequence     sb.SequenceCount
	Destinations []Destination
}

// Statistics mirrors the routing counters of the bus.
type Statistics struct {
	Strategy          string
	RoutesInUse       int
	MaxRoutes         int
	Subscriptions     int
	PeakSubscriptions int
	MaxDestinations   int
	TotalCollisions   uint64
	MaxCollisions     uint32
	MsgsRouted        uint64
	NoSubscribers     uint64
}

// ListRequest selects where a ListRoutes stream starts and how many routes are read
// per table visit. A zero MaxLoop lets the server choose.
type ListRequest struct {
	StartIndex uint32
	MaxLoop    uint32
}

// DumpRequest asks the server to write a dump of the given kind ("routing" or "map").
// File optionally names the output file inside the server's dump directory.
type DumpRequest struct {
	Kind string
	File string
}

// DumpSummary describes a written dump.
type DumpSummary struct {
	Session string
	Kind    string
	Path    string
	Routes  uint32
	Records uint32
	Digest  string
}

// ToStruct converts the route into its wire form.
func (r Route) ToStruct() (*structpb.Struct, error) {
	dests := make([]interface{}, 0, len(r.Destinations))
	for _, d := range r.Destinations {
		dests = append(dests, map[string]interface{}{
			FieldPipeID:   uint32(d.PipeID),
			FieldActive:   d.Active,
			FieldMsgCount: d.MsgCount,
		})
	}

	fields := map[string]interface{}{
		FieldRouteID:      uint32(r.RouteID),
		FieldIndex:        r.Index,
		FieldMsgID:        uint32(r.MsgID),
		FieldSequence:     uint32(r.Sequence),
		FieldDestinations: dests,
	}
	if r.Name != "" {
		fields[FieldName] = r.Name
	}
	return structpb.NewStruct(fields)
}

// RouteFromStruct converts a wire struct into a Route.
func RouteFromStruct(s *structpb.Struct) (Route, error) {
	if err := require(s, FieldRouteID, FieldMsgID); err != nil {
		return Route{}, err
	}

	route := Route{
		RouteID:  sb.RouteID(number(s, FieldRouteID)),
		Index:    uint32(number(s, FieldIndex)),
		MsgID:    sb.MsgID(number(s, FieldMsgID)),
		Name:     s.GetFields()[FieldName].GetStringValue(),
		Sequence: sb.SequenceCount(number(s, FieldSequence)),
	}
	for _, v := range s.GetFields()[FieldDestinations].GetListValue().GetValues() {
		d := v.GetStructValue()
		route.Destinations = append(route.Destinations, Destination{
			PipeID:   sb.PipeID(number(d, FieldPipeID)),
			Active:   d.GetFields()[FieldActive].GetBoolValue(),
			MsgCount: uint32(number(d, FieldMsgCount)),
		})
	}
	return route, nil
}

// ToStruct converts the statistics into their wire form.
func (s Statistics) ToStruct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		FieldStrategy:          s.Strategy,
		FieldRoutesInUse:       s.RoutesInUse,
		FieldMaxRoutes:         s.MaxRoutes,
		FieldSubscriptions:     s.Subscriptions,
		FieldPeakSubscriptions: s.PeakSubscriptions,
		FieldMaxDestinations:   s.MaxDestinations,
		FieldTotalCollisions:   s.TotalCollisions,
		FieldMaxCollisions:     s.MaxCollisions,
		FieldMsgsRouted:        s.MsgsRouted,
		FieldNoSubscribers:     s.NoSubscribers,
	})
}

// StatisticsFromStruct converts a wire struct into Statistics.
func StatisticsFromStruct(s *structpb.Struct) (Statistics, error) {
	if err := require(s, FieldStrategy, FieldRoutesInUse); err != nil {
		return Statistics{}, err
	}
	return Statistics{
		Strategy:          s.GetFields()[FieldStrategy].GetStringValue(),
		RoutesInUse:       int(number(s, FieldRoutesInUse)),
		MaxRoutes:         int(number(s, FieldMaxRoutes)),
		Subscriptions:     int(number(s, FieldSubscriptions)),
		PeakSubscriptions: int(number(s, FieldPeakSubscriptions)),
		MaxDestinations:   int(number(s, FieldMaxDestinations)),
		TotalCollisions:   uint64(number(s, FieldTotalCollisions)),
		MaxCollisions:     uint32(number(s, FieldMaxCollisions)),
		MsgsRouted:        uint64(number(s, FieldMsgsRouted)),
		NoSubscribers:     uint64(number(s, FieldNoSubscribers)),
	}, nil
}

// ToStruct converts the request into its wire form.
func (r ListRequest) ToStruct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		FieldStartIndex: r.StartIndex,
		FieldMaxLoop:    r.MaxLoop,
	})
}

// ListRequestFromStruct converts a wire struct into a ListRequest. Missing fields are zero.
func ListRequestFromStruct(s *structpb.Struct) ListRequest {
	return ListRequest{
		StartIndex: uint32(number(s, FieldStartIndex)),
		MaxLoop:    uint32(number(s, FieldMaxLoop)),
	}
}

// ToStruct converts the request into its wire form.
func (r DumpRequest) ToStruct() (*structpb.Struct, error) {
	fields := map[string]interface{}{
		FieldKind: r.Kind,
	}
	if r.File != "" {
		fields[FieldFile] = r.File
	}
	return structpb.NewStruct(fields)
}

// DumpRequestFromStruct converts a wire struct into a DumpRequest.
func DumpRequestFromStruct(s *structpb.Struct) (DumpRequest, error) {
	if err := require(s, FieldKind); err != nil {
		return DumpRequest{}, err
	}
	return DumpRequest{
		Kind: s.GetFields()[FieldKind].GetStringValue(),
		File: s.GetFields()[FieldFile].GetStringValue(),
	}, nil
}

// ToStruct converts the summary into its wire form.
func (d DumpSummary) ToStruct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		FieldSession: d.Session,
		FieldKind:    d.Kind,
		FieldPath:    d.Path,
		FieldRoutes:  d.Routes,
		FieldRecords: d.Records,
		FieldDigest:  d.Digest,
	})
}

// DumpSummaryFromStruct converts a wire struct into a DumpSummary.
func DumpSummaryFromStruct(s *structpb.Struct) (DumpSummary, error) {
	if err := require(s, FieldSession); err != nil {
		return DumpSummary{}, err
	}
	return DumpSummary{
		Session: s.GetFields()[FieldSession].GetStringValue(),
		Kind:    s.GetFields()[FieldKind].GetStringValue(),
		Path:    s.GetFields()[FieldPath].GetStringValue(),
		Routes:  uint32(number(s, FieldRoutes)),
		Records: uint32(number(s, FieldRecords)),
		Digest:  s.GetFields()[FieldDigest].GetStringValue(),
	}, nil
}

// number reads a numeric field. Struct numbers are float64, exact for every 32 bit value.
func number(s *structpb.Struct, key string) float64 {
	return s.GetFields()[key].GetNumberValue()
}

func require(s *structpb.Struct, keys ...string) error {
	for _, key := range keys {
		if _, ok := s.GetFields()[key]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingField, key)
		}
	}
	return nil
}
