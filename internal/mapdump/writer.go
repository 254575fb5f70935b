// Package mapdump writes routing and map info dumps of a bus.
//
// A Writer walks the route table one route per cycle using a throttle with
// MaxLoop 1, so no single step holds the bus lock for more than one route.
package mapdump

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"time"

	"github.com/google/uuid"
	"github.com/npillmayer/schuko/tracing"
	"github.com/sugawarayuuta/sonnet"
	"golang.org/x/crypto/sha3"

	"github.com/nasa/cFE-sub018/internal/bus"
	"github.com/nasa/cFE-sub018/pkg/sbr"
)

var (
	// ErrNilSource is returned when a writer is created without a source
	ErrNilSource = errors.New("source cannot be nil")
	// ErrNilSink is returned when a writer is created without a sink
	ErrNilSink = errors.New("sink cannot be nil")
	// ErrUnknownKind is returned for an unrecognised dump kind
	ErrUnknownKind = errors.New("unknown dump kind")
	// ErrFinished is returned by Step after the dump has completed or been aborted
	ErrFinished = errors.New("dump already finished")
)

// tracer writes to trace with key 'sb.mapdump'
func tracer() tracing.Trace {
	return tracing.Select("sb.mapdump")
}

// Source provides throttled route snapshots. *bus.Bus implements it.
type Source interface {
	RouteInfo(ctx context.Context, throttle *sbr.Throttle) ([]bus.RouteInfo, error)
}

var _ Source = (*bus.Bus)(nil)

// Sink receives the records of one dump.
// Every Begin is followed by exactly one End or Abort.
type Sink interface {
	Begin(ctx context.Context, header Header) error
	Write(ctx context.Context, record Record) error
	End(ctx context.Context, summary Summary) error
	Abort(ctx context.Context) error
}

// Writer produces one dump from a source into a sink.
// It is not safe for concurrent use.
type Writer struct {
	source Source
	sink   Sink
	kind   Kind
	header Header

	digest   hash.Hash
	next     uint32 // table index of the next route
	routes   uint32
	records  uint32
	started  bool
	finished bool
}

// NewWriter creates a writer for one dump of the given kind.
func NewWriter(source Source, sink Sink, kind Kind) (*Writer, error) {
	if source == nil {
		return nil, ErrNilSource
	}
	if sink == nil {
		return nil, ErrNilSink
	}
	if kind != RoutingInfo && kind != MapInfo {
		return nil, fmt.Errorf("%w: %v", ErrUnknownKind, kind)
	}

	return &Writer{
		source: source,
		sink:   sink,
		kind:   kind,
		header: Header{
			Session:   uuid.New().String(),
			Kind:      kind.String(),
			CreatedAt: time.Now().UTC(),
		},
		digest: sha3.New256(),
	}, nil
}

// Session returns the unique id of this dump.
func (w *Writer) Session() string {
	return w.header.Session
}

// Step writes the records of a single route. It reports true once the last route
// has been written and the sink has been finalised.
func (w *Writer) Step(ctx context.Context) (bool, error) {
	if w.finished {
		return true, ErrFinished
	}

	if !w.started {
		if err := w.sink.Begin(ctx, w.header); err != nil {
			return false, fmt.Errorf("failed to begin dump: %w", err)
		}
		w.started = true
	}

	throttle := &sbr.Throttle{StartIndex: w.next, MaxLoop: 1}
	infos, err := w.source.RouteInfo(ctx, throttle)
	if err != nil {
		return false, w.abort(ctx, fmt.Errorf("failed to read route %d: %w", w.next, err))
	}

	for _, info := range infos {
		w.routes++
		for _, record := range w.collect(info) {
			if err := w.write(ctx, record); err != nil {
				return false, w.abort(ctx, err)
			}
		}
	}

	if throttle.NextIndex != 0 {
		w.next = throttle.NextIndex
		return false, nil
	}

	// End of the allocated routes
	summary := w.summary()
	if err := w.sink.End(ctx, summary); err != nil {
		return false, w.abort(ctx, fmt.Errorf("failed to end dump: %w", err))
	}
	w.finished = true
	tracer().Infof("%s dump %s complete: %d routes, %d records", w.kind, w.header.Session, summary.Routes, summary.Records)
	return true, nil
}

// Run steps the writer until the dump is complete or ctx is done.
func (w *Writer) Run(ctx context.Context) (Summary, error) {
	for {
		select {
		case <-ctx.Done():
			return Summary{}, w.abort(ctx, ctx.Err())
		default:
		}

		done, err := w.Step(ctx)
		if err != nil {
			return Summary{}, err
		}
		if done {
			return w.summary(), nil
		}
	}
}

// Dump writes a complete dump of the given kind from source into sink.
func Dump(ctx context.Context, source Source, sink Sink, kind Kind) (Summary, error) {
	w, err := NewWriter(source, sink, kind)
	if err != nil {
		return Summary{}, err
	}
	return w.Run(ctx)
}

// abort discards a started dump and ends the writer. It returns err.
func (w *Writer) abort(ctx context.Context, err error) error {
	if w.started && !w.finished {
		if abortErr := w.sink.Abort(context.WithoutCancel(ctx)); abortErr != nil {
			tracer().Errorf("%s dump %s: abort failed: %v", w.kind, w.header.Session, abortErr)
		}
		tracer().Infof("%s dump %s aborted: %v", w.kind, w.header.Session, err)
	}
	w.finished = true
	return err
}

func (w *Writer) collect(info bus.RouteInfo) []Record {
	if w.kind == MapInfo {
		return []Record{{MsgID: info.MsgID, Index: info.Index}}
	}

	records := make([]Record, 0, len(info.Destinations))
	for _, dest := range info.Destinations {
		record := Record{
			MsgID:    info.MsgID,
			Index:    info.Index,
			Pipe:     dest.Pipe,
			MsgCount: dest.MsgCount,
		}
		if dest.Active {
			record.State = 1
		}
		records = append(records, record)
	}
	return records
}

func (w *Writer) write(ctx context.Context, record Record) error {
	encoded, err := sonnet.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	w.digest.Write(encoded)
	w.digest.Write([]byte{'\n'})

	if err := w.sink.Write(ctx, record); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	w.records++
	return nil
}

func (w *Writer) summary() Summary {
	return Summary{
		Session: w.header.Session,
		Kind:    w.header.Kind,
		Routes:  w.routes,
		Records: w.records,
		Digest:  hex.EncodeToString(w.digest.Sum(nil)),
	}
}
