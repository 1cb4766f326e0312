package classify

import (
	"testing"

	"schedupdate/internal/fields"
	"schedupdate/internal/table"
)

func taskFrom(t *testing.T, csv string) fields.Task {
	t.Helper()
	tbl := table.Parse(csv)
	if tbl.Len() != 1 {
		t.Fatalf("expected one row, got %d", tbl.Len())
	}
	return fields.Task{Row: tbl.Rows[0], Mapping: fields.AutoDetect(tbl.Headers)}
}

func TestIsMilestone(t *testing.T) {
	testCases := []struct {
		name string
		csv  string
		want bool
	}{
		{"flag yes", "Name,Milestone\nPour,Yes\n", true},
		{"flag x", "Name,Milestone\nPour,x\n", true},
		{"flag no", "Name,Milestone,Duration\nPour,No,5 days\n", false},
		{"zero duration", "Name,Duration\nNTP,0 days\n", true},
		{"zero duration bare", "Name,Duration\nNTP,0\n", true},
		{"non-zero duration", "Name,Duration\nPour,3d\n", false},
		{"empty duration", "Name,Duration\nPour,\n", false},
		{"name contains milestone", "Name\nMilestone: Dry-in\n", true},
		{"name substring any case", "Name\nDry-in MILESTONE\n", true},
		{"plain task", "Name\nFrame walls\n", false},
		{"unmapped milestone field", "Name,Start\nFrame walls,1/1/24\n", false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsMilestone(taskFrom(t, tc.csv)); got != tc.want {
				t.Fatalf("IsMilestone = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsSummary(t *testing.T) {
	testCases := []struct {
		name string
		csv  string
		want bool
	}{
		{"flag true", "Name,Summary\nPhase,TRUE\n", true},
		{"flag x is not summary", "Name,Summary\nPhase,x\n", false},
		{"outline level 1", "Name,Outline Level\nPhase,1\n", true},
		{"outline level 0", "Name,Outline Level\nProject,0\n", true},
		{"outline level 2", "Name,Outline Level\nTask,2\n", false},
		{"wbs trailing period", "Name,WBS\nPhase,3.\n", true},
		{"wbs nested", "Name,WBS\nTask,3.1\n", false},
		{"nothing mapped", "Name\nTask\n", false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsSummary(taskFrom(t, tc.csv)); got != tc.want {
				t.Fatalf("IsSummary = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsCompletedByStatus(t *testing.T) {
	for _, s := range []string{"Complete", "completed", " DONE ", "Finished", "closed"} {
		if !IsCompletedByStatus(s) {
			t.Errorf("expected %q to count as completed", s)
		}
	}
	for _, s := range []string{"", "In Progress", "complete-ish", "not done"} {
		if IsCompletedByStatus(s) {
			t.Errorf("expected %q not to count as completed", s)
		}
	}
}
