// Package engine holds the state of one schedule-review session: the loaded
// dataset, its column mapping and the last generated result.
//
// A Session is not safe for concurrent use. Each Generate call is a pure
// function of the dataset, mapping, status date and options; calling it
// again replaces the previous result.
package engine

import (
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"schedupdate/internal/dates"
	"schedupdate/internal/fields"
	"schedupdate/internal/phase"
	"schedupdate/internal/render"
	"schedupdate/internal/selection"
	"schedupdate/internal/table"
	"schedupdate/internal/trace"
)

// Options configure one generation run.
type Options struct {
	Selection selection.Options
	Deadline  string
	SignOff   []string
}

// DefaultOptions uses the stock selection thresholds and message wording.
func DefaultOptions() Options {
	return Options{Selection: selection.DefaultOptions(), Deadline: render.DefaultDeadline}
}

// Result is the complete output of a successful run.
type Result struct {
	StatusDate dates.Date
	Entries    []selection.Entry
	Message    string
	Trace      trace.DecisionTrace
}

// Session is the explicit replacement for page-level state: create one per
// dataset and Reset it to start over.
type Session struct {
	ID string

	log         *zap.Logger
	table       *table.Table
	datasetHash string
	mapping     fields.Mapping
	result      *Result
}

// NewSession returns an empty session. A nil logger discards logs.
func NewSession(log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	id := uuid.NewString()
	return &Session{ID: id, log: log.With(zap.String("session", id))}
}

// Load parses text, auto-detects the mapping and overlays stored when it
// still fits the new headers. Any previous result is discarded.
func (s *Session) Load(text string, stored fields.Mapping) fields.MappingStatus {
	s.table = table.Parse(text)
	rows := make([][]string, len(s.table.Rows))
	for i, r := range s.table.Rows {
		rows[i] = r.Values()
	}
	s.datasetHash = trace.DatasetHash(s.table.Headers, rows)
	auto := fields.AutoDetect(s.table.Headers)
	s.mapping = fields.Merge(auto, stored, s.table.Headers)
	s.result = nil

	st := s.mapping.Check()
	s.log.Debug("dataset loaded",
		zap.Int("headers", len(s.table.Headers)),
		zap.Int("rows", s.table.Len()),
		zap.Int("mapped_keys", len(s.mapping)),
		zap.Bool("stored_mapping", len(stored) > 0),
	)
	if !st.OK {
		s.log.Info("required fields unmapped", zap.Strings("missing", keyStrings(st.Missing)))
	}
	return st
}

// Loaded reports whether a dataset is present.
func (s *Session) Loaded() bool { return s.table != nil }

// Headers returns the dataset's header row.
func (s *Session) Headers() []string {
	if s.table == nil {
		return nil
	}
	return append([]string(nil), s.table.Headers...)
}

// Mapping returns a copy of the current mapping.
func (s *Session) Mapping() fields.Mapping {
	return s.mapping.Clone()
}

// MappingStatus reports which required keys are unresolved.
func (s *Session) MappingStatus() fields.MappingStatus {
	return s.mapping.Check()
}

// ApplyMapping overrides individual keys. An empty header unmaps the key.
// Headers the dataset does not contain are ignored.
func (s *Session) ApplyMapping(overrides fields.Mapping) fields.MappingStatus {
	present := make(map[string]bool)
	for _, h := range s.Headers() {
		present[h] = true
	}
	valid := make(fields.Mapping, len(overrides))
	for k, h := range overrides {
		if h == "" || present[h] {
			valid[k] = h
			continue
		}
		s.log.Warn("mapping override names unknown header", zap.String("key", string(k)), zap.String("header", h))
	}
	s.mapping = s.mapping.Apply(valid)
	s.result = nil
	return s.mapping.Check()
}

// Generate runs the selection for statusDate and renders the message.
//
// Preconditions are checked in order: a status date is given, a dataset is
// loaded, the required keys are mapped, the status date parses. The first
// failure is returned as a *PreconditionError and the previous result is
// dropped.
func (s *Session) Generate(statusDate string, opts Options) (*Result, error) {
	s.result = nil
	if strings.TrimSpace(statusDate) == "" {
		return nil, precondition(ErrStatusDateMissing)
	}
	if s.table == nil || s.mapping == nil {
		return nil, precondition(ErrNoDataset)
	}
	if !s.mapping.Check().OK {
		return nil, precondition(ErrMappingIncomplete)
	}
	date := dates.Parse(statusDate)
	if date.IsZero() {
		return nil, precondition(ErrStatusDateInvalid)
	}

	tasks := make([]fields.Task, len(s.table.Rows))
	for i, r := range s.table.Rows {
		tasks[i] = fields.Task{Row: r, Mapping: s.mapping}
	}

	rec := trace.NewRecorder()
	entries := selection.Select(tasks, date, opts.Selection, rec)
	res := &Result{
		StatusDate: date,
		Entries:    entries,
		Message: render.Message(entries, render.MessageOptions{
			StatusDate: date,
			Deadline:   opts.Deadline,
			SignOff:    opts.SignOff,
		}),
		Trace: rec.Trace(s.datasetHash, dates.Canonical(date)),
	}
	s.result = res

	construction := 0
	for _, e := range entries {
		if e.Phase.Category == phase.Construction {
			construction++
		}
	}
	s.log.Info("needs-update selection complete",
		zap.String("status_date", dates.Canonical(date)),
		zap.Int("rows", len(tasks)),
		zap.Int("selected", len(entries)),
		zap.Int("construction", construction),
		zap.Int("preconstruction_and_post", len(entries)-construction),
	)
	return res, nil
}

// Result returns the last successful result, or nil.
func (s *Session) Result() *Result { return s.result }

// Message returns the last rendered message, "" before any Generate.
func (s *Session) Message() string {
	if s.result == nil {
		return ""
	}
	return s.result.Message
}

// ExportCSV renders the last result's entries. It fails with
// ErrNothingToExport when nothing was generated or nothing was selected.
func (s *Session) ExportCSV() ([]byte, error) {
	if s.result == nil || len(s.result.Entries) == 0 {
		return nil, precondition(ErrNothingToExport)
	}
	return render.ExportCSV(s.result.Entries, s.result.StatusDate), nil
}

// ExportFilename is the suggested name for ExportCSV output.
func (s *Session) ExportFilename() string {
	suffix := "export"
	if s.result != nil {
		suffix = dates.Canonical(s.result.StatusDate)
	}
	return "schedule_needs_update_" + suffix + ".csv"
}

// Reset discards the dataset and result, and the mapping unless keepMapping.
func (s *Session) Reset(keepMapping bool) {
	s.table = nil
	s.datasetHash = ""
	s.result = nil
	if !keepMapping {
		s.mapping = nil
	}
}

// Preview is a small projection of the dataset for checking a mapping.
type Preview struct {
	Headers []string
	Rows    [][]string
}

// DefaultPreviewRows is the row count shown by mapping previews.
const DefaultPreviewRows = 20

// Preview returns up to n rows projected onto the mapped required headers,
// or onto the first three headers when none of them is mapped.
func (s *Session) Preview(n int) Preview {
	if s.table == nil {
		return Preview{}
	}
	var headers []string
	for _, k := range fields.Required {
		if h := s.mapping[k]; h != "" {
			headers = append(headers, h)
		}
	}
	if len(headers) == 0 {
		headers = s.table.Headers
		if len(headers) > 3 {
			headers = headers[:3]
		}
		headers = append([]string(nil), headers...)
	}

	if n < 0 || n > s.table.Len() {
		n = s.table.Len()
	}
	rows := make([][]string, 0, n)
	for _, r := range s.table.Rows[:n] {
		cells := make([]string, len(headers))
		for i, h := range headers {
			cells[i], _ = r.Value(h)
		}
		rows = append(rows, cells)
	}
	return Preview{Headers: headers, Rows: rows}
}

// GroupByChoices lists the optional keys usable as a group-by value that
// are currently mapped: resource names, WBS, then text fields in order.
func (s *Session) GroupByChoices() []fields.Key {
	candidates := []fields.Key{fields.ResourceNames, fields.WBS}
	for i := 1; i <= fields.TextFieldCount; i++ {
		candidates = append(candidates, fields.TextKey(i))
	}
	var out []fields.Key
	for _, k := range candidates {
		if s.mapping[k] != "" {
			out = append(out, k)
		}
	}
	return out
}

func keyStrings(keys []fields.Key) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = string(k)
	}
	return out
}
