// Package reconcile compares a task's reported progress with the progress
// its planned interval implies on a status date, and derives the anomaly
// flags that decide whether the task needs a status request.
//
// Results are computed fresh for every (task, status date, options) tuple;
// nothing here is cached.
package reconcile

import (
	"math"
	"strconv"

	"schedupdate/internal/dates"
	"schedupdate/internal/fields"
)

const (
	// DefaultThreshold is the allowed gap, in percentage points, between
	// reported and expected progress before a task is flagged.
	DefaultThreshold = 15.0

	// DefaultLowFloatDays is the largest positive total slack still
	// annotated as low float.
	DefaultLowFloatDays = 5.0
)

// State is the lifecycle a task is expected to be in on the status date.
type State string

const (
	StateUnknown    State = "Unknown"
	StateNotStarted State = "Not started"
	StateInProgress State = "In progress"
	StateFinished   State = "Finished"
)

// Expected is the progress a planned interval implies on a status date.
// Percent is nil when the state is unknown.
type Expected struct {
	State   State
	Percent *float64
}

// ExpectedState evaluates the planned interval against the status date.
// The finish boundary is inclusive: a task planned to finish on the status
// date is expected to be finished.
func ExpectedState(plannedStart, plannedFinish, statusDate dates.Date) Expected {
	if plannedStart.IsZero() || plannedFinish.IsZero() || statusDate.IsZero() {
		return Expected{State: StateUnknown}
	}
	if statusDate.Before(plannedStart) {
		return Expected{State: StateNotStarted, Percent: percent(0)}
	}
	if statusDate.OnOrAfter(plannedFinish) {
		return Expected{State: StateFinished, Percent: percent(100)}
	}
	elapsed := float64(dates.DayDifference(plannedStart, statusDate))
	span := float64(dates.DayDifference(plannedStart, plannedFinish))
	pct := math.Round(elapsed/span*100*10) / 10
	pct = math.Max(0, math.Min(100, pct))
	return Expected{State: StateInProgress, Percent: percent(pct)}
}

func percent(v float64) *float64 { return &v }

// Interval is a resolved planned (start, finish) pair. Either side may be
// absent.
type Interval struct {
	Start  dates.Date
	Finish dates.Date
}

// PlannedInterval resolves the dates progress is measured against.
//
// With useBaseline, a complete Baseline5 pair wins outright; otherwise a
// complete primary baseline pair fills only the sides still missing. Any side
// still absent falls back to the current scheduled start/finish.
func PlannedInterval(t fields.Task, useBaseline bool) Interval {
	var iv Interval
	if useBaseline {
		if t.Value(fields.Baseline5Start) != "" && t.Value(fields.Baseline5Finish) != "" {
			iv.Start = t.Date(fields.Baseline5Start)
			iv.Finish = t.Date(fields.Baseline5Finish)
		}
		if (iv.Start.IsZero() || iv.Finish.IsZero()) &&
			t.Value(fields.BaselineStart) != "" && t.Value(fields.BaselineFinish) != "" {
			if iv.Start.IsZero() {
				iv.Start = t.Date(fields.BaselineStart)
			}
			if iv.Finish.IsZero() {
				iv.Finish = t.Date(fields.BaselineFinish)
			}
		}
	}
	if iv.Start.IsZero() {
		iv.Start = t.Date(fields.Start)
	}
	if iv.Finish.IsZero() {
		iv.Finish = t.Date(fields.Finish)
	}
	return iv
}

// Options tune flag derivation.
type Options struct {
	UseBaseline  bool
	Threshold    float64
	LowFloatDays float64
}

// DefaultOptions returns the stock thresholds with baselines preferred.
func DefaultOptions() Options {
	return Options{UseBaseline: true, Threshold: DefaultThreshold, LowFloatDays: DefaultLowFloatDays}
}

// Flags is the reconciliation of one task on one status date.
type Flags struct {
	Planned      Interval
	ActualStart  dates.Date
	ActualFinish dates.Date

	Expected        Expected
	ReportedPercent *float64

	ShouldHaveStarted bool
	MissingProgress   bool
	ProgressBehind    bool
	ProgressAhead     bool
	ShouldBeFinished  bool

	SlackHint string
}

// NeedsUpdate reports whether any anomaly flag is set. It is the only gate
// for including a task in a status request.
func (f Flags) NeedsUpdate() bool {
	return f.ShouldHaveStarted || f.MissingProgress || f.ProgressBehind ||
		f.ProgressAhead || f.ShouldBeFinished
}

// Names lists the set flags in a fixed order.
func (f Flags) Names() []string {
	var out []string
	if f.ShouldHaveStarted {
		out = append(out, "should-have-started")
	}
	if f.MissingProgress {
		out = append(out, "missing-progress")
	}
	if f.ProgressBehind {
		out = append(out, "progress-behind")
	}
	if f.ProgressAhead {
		out = append(out, "progress-ahead")
	}
	if f.ShouldBeFinished {
		out = append(out, "should-be-finished")
	}
	return out
}

// Derive reconciles t against statusDate. The five flags are evaluated
// independently and may hold together.
func Derive(t fields.Task, statusDate dates.Date, opts Options) Flags {
	f := Flags{
		Planned:      PlannedInterval(t, opts.UseBaseline),
		ActualStart:  t.Date(fields.ActualStart),
		ActualFinish: t.Date(fields.ActualFinish),
	}
	f.Expected = ExpectedState(f.Planned.Start, f.Planned.Finish, statusDate)
	if pct, ok := t.Number(fields.PercentComplete); ok {
		f.ReportedPercent = &pct
	}
	reported := f.ReportedPercent

	if statusDate.OnOrAfter(f.Planned.Start) && f.ActualStart.IsZero() &&
		(reported == nil || *reported == 0) {
		f.ShouldHaveStarted = true
	}

	if f.Expected.State == StateInProgress {
		if reported == nil {
			f.MissingProgress = true
		} else if f.Expected.Percent != nil {
			delta := *reported - *f.Expected.Percent
			f.ProgressBehind = delta < -opts.Threshold
			f.ProgressAhead = delta > opts.Threshold
		}
	}

	if statusDate.OnOrAfter(f.Planned.Finish) &&
		(f.ActualFinish.IsZero() || (reported != nil && *reported < 100)) {
		f.ShouldBeFinished = true
	}

	if slack, ok := t.Number(fields.TotalSlack); ok {
		f.SlackHint = SlackHint(slack, opts.LowFloatDays)
	}
	return f
}

// SlackHint annotates total slack: "(No float)" at or below zero,
// "(Low float: N days)" up to lowFloatDays, empty otherwise.
func SlackHint(slack, lowFloatDays float64) string {
	switch {
	case slack <= 0:
		return "(No float)"
	case slack <= lowFloatDays:
		return "(Low float: " + FormatNumber(slack) + " days)"
	default:
		return ""
	}
}

// FormatNumber renders v in its shortest form: 44.4, 100, 2.5.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
