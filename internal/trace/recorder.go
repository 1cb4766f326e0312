package trace

import "sync"

// Sink is the minimal interface the selection pass depends on.
//
// Record must be inert: it must not panic and must not return errors.
// Callers assume Record may be a no-op.
type Sink interface {
	Record(event Event)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Record(Event) {}

// SafeRecord records an event and guarantees inertness even if the sink is
// buggy. Panics are swallowed.
func SafeRecord(s Sink, event Event) {
	if s == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	s.Record(event)
}

// Recorder is an in-memory collector. It is safe for concurrent use so that
// one recorder can be shared by callers that reuse a session.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Record(event Event) {
	if r == nil {
		return
	}
	defer func() {
		_ = recover()
	}()

	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
}

// Snapshot returns a point-in-time copy of all recorded events.
func (r *Recorder) Snapshot() []Event {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Trace builds a canonical DecisionTrace from the recorded events. The
// returned trace is independent from the recorder.
func (r *Recorder) Trace(datasetHash, statusDate string) DecisionTrace {
	tr := DecisionTrace{DatasetHash: datasetHash, StatusDate: statusDate}
	tr.Events = r.Snapshot()
	tr.Canonicalize()
	return tr
}
