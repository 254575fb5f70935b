package main

import (
	"sync"

	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
)

// traceSelector hands out one standard-logger tracer per key, all at the same level
type traceSelector struct {
	mu      sync.Mutex
	level   tracing.TraceLevel
	tracers map[string]tracing.Trace
}

func newTraceSelector(level tracing.TraceLevel) *traceSelector {
	return &traceSelector{
		level:   level,
		tracers: make(map[string]tracing.Trace),
	}
}

// Select implements tracing.TraceSelector
func (s *traceSelector) Select(key string) tracing.Trace {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tracers[key]
	if !ok {
		t = gologadapter.New()
		t.SetTraceLevel(s.level)
		s.tracers[key] = t
	}
	return t
}

// setupTracing routes component tracing to the standard logger at the given level
func setupTracing(level string) {
	tracing.SetTraceSelector(newTraceSelector(tracing.TraceLevelFromString(level)))
}

var _ tracing.TraceSelector = (*traceSelector)(nil)
