package flow

import "time"

// TraceEvent records one executed step for debugging.
type TraceEvent struct {
	Step     int
	Type     StepType
	Tool     string
	Duration time.Duration
	Skipped  bool
	Err      string
	Output   map[string]any
}

// Tracer receives step lifecycle notifications.
type Tracer interface {
	StepStarted(flow string, step int, stepType StepType)
	StepFinished(flow string, event TraceEvent)
}

// Metrics receives counters and latencies from the orchestrator.
type Metrics interface {
	Count(name string, delta int64, tags map[string]string)
	Latency(name string, d time.Duration, tags map[string]string)
}

// NopTracer discards all events.
type NopTracer struct{}

var _ Tracer = (*NopTracer)(nil)

func (NopTracer) StepStarted(string, int, StepType) {}
func (NopTracer) StepFinished(string, TraceEvent)   {}

// NopMetrics discards all measurements.
type NopMetrics struct{}

var _ Metrics = (*NopMetrics)(nil)

func (NopMetrics) Count(string, int64, map[string]string)          {}
func (NopMetrics) Latency(string, time.Duration, map[string]string) {}
