// Package fields maps human-authored column headers onto a closed set of
// logical schedule fields and reads typed values through that mapping.
package fields

import (
	"fmt"
	"strings"
)

// Key is a logical field. The string values are persisted with stored
// mappings; do not rename.
type Key string

const (
	TaskName        Key = "taskName"
	Start           Key = "start"
	Finish          Key = "finish"
	Status          Key = "status"
	ActualStart     Key = "actualStart"
	ActualFinish    Key = "actualFinish"
	BaselineStart   Key = "baselineStart"
	BaselineFinish  Key = "baselineFinish"
	Baseline5Start  Key = "baseline5Start"
	Baseline5Finish Key = "baseline5Finish"
	TotalSlack      Key = "totalSlack"
	PercentComplete Key = "percentComplete"
	Duration        Key = "duration"
	WBS             Key = "wbs"
	OutlineLevel    Key = "outlineLevel"
	ResourceNames   Key = "resourceNames"
	Summary         Key = "summary"
	Milestone       Key = "milestone"
	TaskType        Key = "taskType"
	CompletedBy     Key = "completedBy"
)

// TextFieldCount is the number of generic "Text N" slots.
const TextFieldCount = 30

// TextKey returns the key of generic text slot n (1-based).
func TextKey(n int) Key { return Key(fmt.Sprintf("text%d", n)) }

// Required lists the keys without which a dataset cannot be reconciled.
var Required = []Key{TaskName, Start, Finish}

type aliasEntry struct {
	key     Key
	aliases []string
}

// aliasTable is evaluated in order. Aliases are already normalized.
var aliasTable = []aliasEntry{
	{TaskName, []string{"task name", "name", "task", "activity", "title"}},
	{Start, []string{"start", "start date", "planned start"}},
	{Finish, []string{"finish", "finish date", "planned finish"}},
	{Status, []string{"status", "status_field", "task status"}},
	{ActualStart, []string{"actual start", "actual start date", "start (actual)", "actual_start"}},
	{ActualFinish, []string{"actual finish", "actual finish date", "finish (actual)", "actual_finish"}},
	{BaselineStart, []string{"baseline start", "baseline start date"}},
	{BaselineFinish, []string{"baseline finish", "baseline finish date"}},
	{Baseline5Start, []string{"baseline5 start", "baseline 5 start"}},
	{Baseline5Finish, []string{"baseline5 finish", "baseline 5 finish"}},
	{TotalSlack, []string{"total slack", "slack", "total float"}},
	{PercentComplete, []string{"% complete", "percent complete", "pct complete"}},
	{Duration, []string{"duration", "remaining duration", "duration remaining"}},
	{WBS, []string{"wbs", "outline number"}},
	{OutlineLevel, []string{"outline level", "level"}},
	{ResourceNames, []string{"resource names", "resources", "resource"}},
	{Summary, []string{"summary", "summary task", "is summary", "summary?"}},
	{Milestone, []string{"milestone", "milestone?", "is milestone", "milestones"}},
	{TaskType, []string{"task type", "task_type", "work type", "type"}},
	{CompletedBy, []string{"completed by", "completed_by", "scheduler", "scheduler name", "completed by user"}},
}

// Keys returns every known key: the alias table order followed by the
// text slots.
func Keys() []Key {
	out := make([]Key, 0, len(aliasTable)+TextFieldCount)
	for _, e := range aliasTable {
		out = append(out, e.key)
	}
	for n := 1; n <= TextFieldCount; n++ {
		out = append(out, TextKey(n))
	}
	return out
}

// IsKnown reports whether k is one of Keys().
func IsKnown(k Key) bool {
	for _, e := range aliasTable {
		if e.key == k {
			return true
		}
	}
	for n := 1; n <= TextFieldCount; n++ {
		if TextKey(n) == k {
			return true
		}
	}
	return false
}

// Aliases returns the normalized header aliases for k in priority order.
func Aliases(k Key) []string {
	for _, e := range aliasTable {
		if e.key == k {
			return append([]string(nil), e.aliases...)
		}
	}
	for n := 1; n <= TextFieldCount; n++ {
		if TextKey(n) == k {
			return []string{fmt.Sprintf("text %d", n), fmt.Sprintf("text%d", n)}
		}
	}
	return nil
}

// NormalizeHeader trims and lower-cases a header for alias comparison.
func NormalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}
