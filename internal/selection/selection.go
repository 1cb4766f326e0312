// Package selection filters schedule rows down to the tasks that need a
// status update and enriches the survivors for rendering.
package selection

import (
	"schedupdate/internal/classify"
	"schedupdate/internal/dates"
	"schedupdate/internal/fields"
	"schedupdate/internal/phase"
	"schedupdate/internal/reconcile"
	"schedupdate/internal/trace"
)

// Options controls the filter. The zero value excludes milestones and
// summaries and measures against current dates with a zero threshold; use
// DefaultOptions for the stock behaviour.
type Options struct {
	UseBaseline       bool
	Threshold         float64
	LowFloatDays      float64
	IncludeMilestones bool
	IncludeSummary    bool

	// GroupBy names an optional key whose raw value is carried on each
	// entry. Empty means none.
	GroupBy fields.Key
}

// DefaultOptions prefers baselines, flags gaps over 15 points and excludes
// milestones and summaries.
func DefaultOptions() Options {
	return Options{
		UseBaseline:  true,
		Threshold:    reconcile.DefaultThreshold,
		LowFloatDays: reconcile.DefaultLowFloatDays,
	}
}

func (o Options) reconcile() reconcile.Options {
	return reconcile.Options{UseBaseline: o.UseBaseline, Threshold: o.Threshold, LowFloatDays: o.LowFloatDays}
}

// Entry is a task that needs an update. Raw fields are the trimmed source
// text, kept for display; dates are not reformatted here.
type Entry struct {
	Row int

	Name            string
	Status          string
	Start           string
	Finish          string
	ActualStart     string
	ActualFinish    string
	BaselineStart   string
	BaselineFinish  string
	Baseline5Start  string
	Baseline5Finish string
	TotalSlack      string
	TaskType        string
	CompletedBy     string
	GroupValue      string

	// PlannedStart and PlannedFinish are the canonical resolved planned
	// dates, "" when absent.
	PlannedStart  string
	PlannedFinish string

	Phase phase.Tag
	Flags reconcile.Flags
}

// Select evaluates every task in order and returns the ones needing an
// update, in their original order. One trace event is recorded per task; a
// nil sink records nothing.
func Select(tasks []fields.Task, statusDate dates.Date, opts Options, sink trace.Sink) []Entry {
	tags := phase.Infer(tasks)
	ropts := opts.reconcile()

	var out []Entry
	for i, t := range tasks {
		name := t.Value(fields.TaskName)
		skip := func(reason string) {
			trace.SafeRecord(sink, trace.Event{Kind: trace.EventRowSkipped, Row: i, Task: name, Reason: reason})
		}

		if !opts.IncludeMilestones && classify.IsMilestone(t) {
			skip(trace.ReasonMilestone)
			continue
		}
		if !opts.IncludeSummary && classify.IsSummary(t) {
			skip(trace.ReasonSummary)
			continue
		}
		if t.Value(fields.ActualFinish) != "" {
			skip(trace.ReasonActualFinish)
			continue
		}
		if classify.IsCompletedByStatus(t.Value(fields.Status)) {
			skip(trace.ReasonCompletedStatus)
			continue
		}

		flags := reconcile.Derive(t, statusDate, ropts)
		if !flags.NeedsUpdate() {
			skip(trace.ReasonOnTrack)
			continue
		}
		trace.SafeRecord(sink, trace.Event{
			Kind:      trace.EventRowSelected,
			Row:       i,
			Task:      name,
			Flags:     flags.Names(),
			SlackHint: flags.SlackHint,
		})
		out = append(out, newEntry(i, t, flags, tags[i], opts.GroupBy))
	}
	return out
}

func newEntry(row int, t fields.Task, flags reconcile.Flags, tag phase.Tag, groupBy fields.Key) Entry {
	e := Entry{
		Row:             row,
		Name:            t.Value(fields.TaskName),
		Status:          t.Value(fields.Status),
		Start:           t.Value(fields.Start),
		Finish:          t.Value(fields.Finish),
		ActualStart:     t.Value(fields.ActualStart),
		ActualFinish:    t.Value(fields.ActualFinish),
		BaselineStart:   t.Value(fields.BaselineStart),
		BaselineFinish:  t.Value(fields.BaselineFinish),
		Baseline5Start:  t.Value(fields.Baseline5Start),
		Baseline5Finish: t.Value(fields.Baseline5Finish),
		TotalSlack:      t.Value(fields.TotalSlack),
		TaskType:        t.Value(fields.TaskType),
		CompletedBy:     t.Value(fields.CompletedBy),
		PlannedStart:    dates.Canonical(flags.Planned.Start),
		PlannedFinish:   dates.Canonical(flags.Planned.Finish),
		Phase:           tag,
		Flags:           flags,
	}
	if groupBy != "" {
		e.GroupValue = t.Value(groupBy)
	}
	return e
}
