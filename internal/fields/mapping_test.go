package fields

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schedupdate/internal/table"
)

func TestAutoDetect_MSProjectHeaders(t *testing.T) {
	headers := []string{
		"ID", " Task Name ", "Duration", "Start", "Finish", "% Complete",
		"Actual Start", "Actual Finish", "Baseline Start", "Baseline Finish",
		"Baseline5 Start", "Baseline5 Finish", "Total Slack", "Outline Level",
		"WBS", "Resource Names", "Summary", "Milestone", "Text 3", "text12",
	}

	got := AutoDetect(headers)
	want := Mapping{
		TaskName:        " Task Name ",
		Duration:        "Duration",
		Start:           "Start",
		Finish:          "Finish",
		PercentComplete: "% Complete",
		ActualStart:     "Actual Start",
		ActualFinish:    "Actual Finish",
		BaselineStart:   "Baseline Start",
		BaselineFinish:  "Baseline Finish",
		Baseline5Start:  "Baseline5 Start",
		Baseline5Finish: "Baseline5 Finish",
		TotalSlack:      "Total Slack",
		OutlineLevel:    "Outline Level",
		WBS:             "WBS",
		ResourceNames:   "Resource Names",
		Summary:         "Summary",
		Milestone:       "Milestone",
		TextKey(3):      "Text 3",
		TextKey(12):     "text12",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mapping mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, got.Check().OK)
}

func TestAutoDetect_AliasPriorityAndFirstHeaderWins(t *testing.T) {
	// "task name" outranks "name" even though "Name" comes first.
	got := AutoDetect([]string{"Name", "Task Name", "START", "start", "Planned Finish"})
	assert.Equal(t, "Task Name", got[TaskName])
	assert.Equal(t, "START", got[Start])
	assert.Equal(t, "Planned Finish", got[Finish])
}

func TestAutoDetect_MissingRequired(t *testing.T) {
	got := AutoDetect([]string{"Activity", "Begin", "End"})
	st := got.Check()
	assert.False(t, st.OK)
	assert.Equal(t, []Key{Start, Finish}, st.Missing)
}

func TestCheck_StatusKeyDoesNotCountAsRequired(t *testing.T) {
	m := Mapping{TaskName: "Name", Status: "Status"}
	assert.Equal(t, MappingStatus{OK: false, Missing: []Key{Start, Finish}}, m.Check())

	m[Start] = "Start"
	m[Finish] = "Finish"
	assert.Equal(t, MappingStatus{OK: true}, m.Check())
}

func TestMerge_StoredAppliedWhenRequiredSatisfied(t *testing.T) {
	headers := []string{"Activity Name", "Begin", "End", "Start", "Finish", "Name"}
	auto := AutoDetect(headers)
	stored := Mapping{TaskName: "Activity Name", Start: "Begin", Finish: "End", Status: "Gone"}

	got := Merge(auto, stored, headers)
	assert.Equal(t, "Activity Name", got[TaskName])
	assert.Equal(t, "Begin", got[Start])
	assert.Equal(t, "End", got[Finish])
	_, hasStatus := got[Status]
	assert.False(t, hasStatus, "stale stored header must be dropped")
}

func TestMerge_StoredIgnoredWhenRequiredBroken(t *testing.T) {
	headers := []string{"Name", "Start", "Finish", "Owner"}
	auto := AutoDetect(headers)
	stored := Mapping{TaskName: "Name", Start: "Begin", Finish: "Finish", CompletedBy: "Owner"}

	got := Merge(auto, stored, headers)
	if diff := cmp.Diff(auto, got); diff != "" {
		t.Fatalf("expected auto-detection to prevail (-want +got):\n%s", diff)
	}
}

func TestApply_Overrides(t *testing.T) {
	m := Mapping{TaskName: "Name", Start: "Start", Finish: "Finish", Status: "Status"}
	got := m.Apply(Mapping{TaskName: "Activity", Status: "", Key("bogus"): "x"})

	assert.Equal(t, "Activity", got[TaskName])
	_, hasStatus := got[Status]
	assert.False(t, hasStatus)
	_, hasBogus := got[Key("bogus")]
	assert.False(t, hasBogus)
	assert.Equal(t, "Name", m[TaskName], "Apply must not mutate the receiver")
}

func TestStringsRoundTrip_DropsUnknownKeys(t *testing.T) {
	m := FromStrings(map[string]string{"taskName": "Name", "text30": "Text30", "rowData": "nope", "start": ""})
	assert.Equal(t, Mapping{TaskName: "Name", TextKey(30): "Text30"}, m)
	assert.Equal(t, map[string]string{"taskName": "Name", "text30": "Text30"}, m.Strings())
}

func TestTask_ValuesAndNumbers(t *testing.T) {
	tbl := table.Parse("Name,Slack,Pct,Start\n  Pour slab  ,\"1,250 days\",40%,Mon 1/8/24\n")
	require.Equal(t, 1, tbl.Len())
	task := Task{Row: tbl.Rows[0], Mapping: AutoDetect(tbl.Headers).Apply(Mapping{TotalSlack: "Slack", PercentComplete: "Pct"})}

	assert.Equal(t, "Pour slab", task.Value(TaskName))
	slack, ok := task.Number(TotalSlack)
	assert.True(t, ok)
	assert.Equal(t, 1250.0, slack)
	pct, ok := task.Number(PercentComplete)
	assert.True(t, ok)
	assert.Equal(t, 40.0, pct)
	assert.Equal(t, "2024-01-08", task.Date(Start).String())

	_, ok = task.Number(Duration)
	assert.False(t, ok, "unmapped key has no number")
	_, ok = task.Lookup(Status)
	assert.False(t, ok)
}

func TestParseNumber(t *testing.T) {
	testCases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"0", 0, true},
		{"0 days", 0, true},
		{"-3d", -3, true},
		{".5", 0.5, true},
		{"2.5 edays", 2.5, true},
		{"", 0, false},
		{"n/a", 0, false},
		{"days 5", 0, false},
	}
	for _, tc := range testCases {
		got, ok := ParseNumber(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ParseNumber(%q) = %v, %v; want %v, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
