package trace

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// DecisionTrace is the canonical record of one generation run: for every
// row, whether it was selected for a status request and why.
//
// Invariants:
//   - DatasetHash and StatusDate identify the input; both are required.
//   - Exactly the logical decisions are recorded. No timestamps, session
//     IDs or anything else that differs between identical runs.
//
// Canonical representation:
//   - Events are sorted via Canonicalize() by row index, then kind.
//   - JSON serialization uses a custom marshaler to fix field order and omit
//     absent optional fields.
//
// Two runs over the same dataset, mapping, status date and options produce
// byte-identical CanonicalJSON.
type DecisionTrace struct {
	DatasetHash string
	StatusDate  string
	Events      []Event
}

// EventKind is the stable discriminator for Event. The string values are
// part of the canonical bytes; do not rename.
type EventKind string

const (
	EventRowSelected EventKind = "RowSelected"
	EventRowSkipped  EventKind = "RowSkipped"
)

// Skip reasons, in the order the filter evaluates them.
const (
	ReasonMilestone       = "milestone"
	ReasonSummary         = "summary"
	ReasonActualFinish    = "actual-finish"
	ReasonCompletedStatus = "completed-status"
	ReasonOnTrack         = "on-track"
)

// Event is a single row decision.
//
// Determinism constraints:
//   - Row is the zero-based data row index, not a pointer or map key.
//   - Empty Flags are normalized to nil (omitted in JSON).
type Event struct {
	Kind EventKind

	// Row is the zero-based index of the data row.
	Row int

	// Task is the resolved task name, for readability only.
	Task string

	// Reason is set on RowSkipped events.
	Reason string

	// Flags are the anomaly flag names that selected the row.
	Flags []string

	// SlackHint is the float annotation of a selected row, if any.
	SlackHint string
}

// Validate checks basic invariants and returns a descriptive error.
func (t *DecisionTrace) Validate() error {
	if t == nil {
		return errors.New("trace is nil")
	}
	if t.DatasetHash == "" {
		return errors.New("datasetHash is required")
	}
	if t.StatusDate == "" {
		return errors.New("statusDate is required")
	}
	for i := range t.Events {
		e := t.Events[i]
		if e.Row < 0 {
			return fmt.Errorf("events[%d].row must be non-negative", i)
		}
		switch e.Kind {
		case EventRowSelected:
			if len(e.Flags) == 0 {
				return fmt.Errorf("events[%d].flags is required for kind %q", i, e.Kind)
			}
		case EventRowSkipped:
			if e.Reason == "" {
				return fmt.Errorf("events[%d].reason is required for kind %q", i, e.Kind)
			}
		case "":
			return fmt.Errorf("events[%d].kind is required", i)
		default:
			return fmt.Errorf("events[%d].kind %q is unknown", i, e.Kind)
		}
	}
	return nil
}

// Canonicalize normalizes and sorts the trace into its canonical form.
//
// Rules:
//   - Flags are copied and sorted; empty Flags become nil.
//   - Events are stably sorted by (row, kindOrder, reason).
func (t *DecisionTrace) Canonicalize() {
	if t == nil {
		return
	}
	for i := range t.Events {
		if len(t.Events[i].Flags) == 0 {
			t.Events[i].Flags = nil
			continue
		}
		flags := make([]string, len(t.Events[i].Flags))
		copy(flags, t.Events[i].Flags)
		sort.Strings(flags)
		t.Events[i].Flags = flags
	}

	sort.SliceStable(t.Events, func(i, j int) bool {
		a := t.Events[i]
		b := t.Events[j]
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		if kindOrder(a.Kind) != kindOrder(b.Kind) {
			return kindOrder(a.Kind) < kindOrder(b.Kind)
		}
		return a.Reason < b.Reason
	})
}

func kindOrder(k EventKind) int {
	switch k {
	case EventRowSelected:
		return 10
	case EventRowSkipped:
		return 20
	default:
		return 1000
	}
}

// Selected returns the row indices of RowSelected events in trace order.
func (t DecisionTrace) Selected() []int {
	var rows []int
	for _, e := range t.Events {
		if e.Kind == EventRowSelected {
			rows = append(rows, e.Row)
		}
	}
	return rows
}

// CanonicalJSON returns the canonical JSON encoding of the trace.
// It canonicalizes a copy to avoid mutating the caller's slices.
func (t DecisionTrace) CanonicalJSON() ([]byte, error) {
	c := DecisionTrace{DatasetHash: t.DatasetHash, StatusDate: t.StatusDate}
	c.Events = make([]Event, len(t.Events))
	copy(c.Events, t.Events)
	c.Canonicalize()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(&c)
}

// Hash returns the sha256 hex of the canonical JSON bytes.
func (t DecisionTrace) Hash() (string, error) {
	b, err := t.CanonicalJSON()
	if err != nil {
		return "", err
	}
	return ComputeHash(b), nil
}

// MarshalJSON fixes field order. It does not sort; see CanonicalJSON.
func (t DecisionTrace) MarshalJSON() ([]byte, error) {
	if t.DatasetHash == "" {
		return nil, errors.New("datasetHash is required")
	}
	var buf bytes.Buffer
	buf.WriteByte('{')

	buf.WriteString("\"datasetHash\":")
	dh, _ := json.Marshal(t.DatasetHash)
	buf.Write(dh)
	buf.WriteByte(',')

	buf.WriteString("\"statusDate\":")
	sd, _ := json.Marshal(t.StatusDate)
	buf.Write(sd)
	buf.WriteByte(',')

	buf.WriteString("\"events\":[")
	for i := range t.Events {
		if i > 0 {
			buf.WriteByte(',')
		}
		eb, err := json.Marshal(t.Events[i])
		if err != nil {
			return nil, err
		}
		buf.Write(eb)
	}
	buf.WriteByte(']')

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON fixes field order and omits empty optional fields.
func (e Event) MarshalJSON() ([]byte, error) {
	if e.Kind == "" {
		return nil, errors.New("kind is required")
	}
	var flags []string
	if len(e.Flags) > 0 {
		flags = make([]string, len(e.Flags))
		copy(flags, e.Flags)
		sort.Strings(flags)
	}

	var buf bytes.Buffer
	buf.WriteByte('{')

	// kind (always first)
	buf.WriteString("\"kind\":")
	kb, _ := json.Marshal(string(e.Kind))
	buf.Write(kb)

	fmt.Fprintf(&buf, ",\"row\":%d", e.Row)

	if e.Task != "" {
		buf.WriteString(",\"task\":")
		tb, _ := json.Marshal(e.Task)
		buf.Write(tb)
	}

	if e.Reason != "" {
		buf.WriteString(",\"reason\":")
		rb, _ := json.Marshal(e.Reason)
		buf.Write(rb)
	}

	if len(flags) > 0 {
		buf.WriteString(",\"flags\":[")
		for i := range flags {
			if i > 0 {
				buf.WriteByte(',')
			}
			fb, _ := json.Marshal(flags[i])
			buf.Write(fb)
		}
		buf.WriteByte(']')
	}

	if e.SlackHint != "" {
		buf.WriteString(",\"slackHint\":")
		sb, _ := json.Marshal(e.SlackHint)
		buf.Write(sb)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}
