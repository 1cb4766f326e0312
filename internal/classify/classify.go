// Package classify decides whether a schedule row is a milestone or a
// summary (rollup) task, and whether its status text already marks it done.
//
// Each predicate evaluates independent signals in a fixed order and returns
// on the first one that holds.
package classify

import (
	"strings"

	"schedupdate/internal/fields"
)

var (
	milestoneFlags = map[string]bool{"yes": true, "true": true, "1": true, "x": true}
	summaryFlags   = map[string]bool{"yes": true, "true": true, "1": true}
	doneStatuses   = map[string]bool{
		"complete":  true,
		"completed": true,
		"done":      true,
		"finished":  true,
		"closed":    true,
	}
)

// IsMilestone reports whether t is a milestone. Signals, in order:
// the milestone field is yes/true/1/x; the duration is present and zero;
// the task name contains "milestone".
func IsMilestone(t fields.Task) bool {
	if milestoneFlags[strings.ToLower(t.Value(fields.Milestone))] {
		return true
	}
	if t.Value(fields.Duration) != "" {
		if d, ok := t.Number(fields.Duration); ok && d == 0 {
			return true
		}
	}
	return strings.Contains(strings.ToLower(t.Value(fields.TaskName)), "milestone")
}

// IsSummary reports whether t is a summary task. Signals, in order:
// the summary field is yes/true/1; the outline level is present and <= 1;
// the WBS / outline number ends with a period.
func IsSummary(t fields.Task) bool {
	if summaryFlags[strings.ToLower(t.Value(fields.Summary))] {
		return true
	}
	if level, ok := t.Number(fields.OutlineLevel); ok && level <= 1 {
		return true
	}
	return strings.HasSuffix(t.Value(fields.WBS), ".")
}

// IsCompletedByStatus reports whether status text says the task is done.
func IsCompletedByStatus(status string) bool {
	return doneStatuses[strings.ToLower(strings.TrimSpace(status))]
}
