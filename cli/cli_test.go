package cli_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	icl "schedupdate/internal/cli"
)

const schedule = "Task Name,Start,Finish,% Complete,Actual Start,Actual Finish,Summary,Resource Names\n" +
	"Preconstruction,2023-11-01,2023-12-31,,,,Yes,\n" +
	"Permits,2023-11-01,2023-12-15,100,2023-11-01,2023-12-15,No,Ana\n" +
	"Design,2024-01-01,2024-01-10,,,,No,Ana\n" +
	"Construction,2024-01-01,2024-06-30,,,,Yes,\n" +
	"Sitework,2024-01-01,2024-02-28,,,,Yes,\n" +
	"Grading,2024-01-02,2024-01-04,50,2024-01-02,,No,Bo\n"

type output struct {
	res    icl.CLIResult
	err    error
	stdout string
	stderr string
}

// workspace isolates HOME and the working directory so that config
// discovery and the default preferences store stay inside a temp dir.
func workspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("SCHEDUPDATE_LOG_LEVEL", "error")
	{
		wd, err := os.Getwd()
		if err != nil {
			t.Fatal(err)
		}
		if err := os.Chdir(dir); err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { _ = os.Chdir(wd) })
	}
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return b
}

func run(t *testing.T, stdin string, args ...string) output {
	t.Helper()
	var stdout, stderr bytes.Buffer
	res, err := icl.RunWithIO(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return output{res: res, err: err, stdout: stdout.String(), stderr: stderr.String()}
}

func TestGenerate_WritesMessageExportAndTrace(t *testing.T) {
	dir := workspace(t)
	writeFile(t, filepath.Join(dir, "schedule.csv"), schedule)

	out := run(t, "", "generate",
		"--csv", "schedule.csv",
		"--status-date", "2024-01-05",
		"--export-dir", "out",
		"--trace", "trace.json",
	)
	require.NoError(t, out.err)
	assert.Equal(t, icl.ExitSuccess, out.res.ExitCode)

	assert.True(t, strings.HasPrefix(out.stdout, "Team,\n\n"))
	assert.Contains(t, out.stdout, "Preconstruction & post\n1. Design: Planned 1/1/24-1/10/24; Actual None-None. ")
	assert.Contains(t, out.stdout, "\n\nConstruction\n1. Sitework – Grading: ")
	assert.True(t, strings.HasSuffix(out.stdout, "Thank you,\nScheduling & Data Analytics\n"))

	export := string(readFile(t, filepath.Join(dir, "out", "schedule_needs_update_2024-01-05.csv")))
	lines := strings.Split(export, "\r\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "Task Name,Phase,Status,"))
	assert.True(t, strings.HasPrefix(lines[1], "Design,Preconstruction & Post Construction,"))
	assert.True(t, strings.HasPrefix(lines[2], "Grading,Construction,"))

	tr := string(readFile(t, filepath.Join(dir, "trace.json")))
	assert.Contains(t, tr, `"statusDate":"2024-01-05"`)
	assert.Contains(t, tr, `{"kind":"RowSkipped","row":1,"task":"Permits","reason":"actual-finish"}`)
}

func TestGenerate_IdenticalRunsIdenticalArtifacts(t *testing.T) {
	dir := workspace(t)
	writeFile(t, filepath.Join(dir, "schedule.csv"), schedule)

	args := []string{"generate", "--csv", "schedule.csv", "--status-date", "Fri 1/5/24", "--out", "msg.txt", "--trace", "trace.json"}
	first := run(t, "", args...)
	require.NoError(t, first.err)
	msg1 := readFile(t, filepath.Join(dir, "msg.txt"))
	trace1 := readFile(t, filepath.Join(dir, "trace.json"))

	second := run(t, "", args...)
	require.NoError(t, second.err)
	if !bytes.Equal(msg1, readFile(t, filepath.Join(dir, "msg.txt"))) {
		t.Fatalf("expected identical message bytes")
	}
	if !bytes.Equal(trace1, readFile(t, filepath.Join(dir, "trace.json"))) {
		t.Fatalf("expected identical trace bytes")
	}
	assert.Empty(t, first.stdout, "message goes to --out only")
}

func TestGenerate_ReadsStdinWithByteOrderMark(t *testing.T) {
	workspace(t)
	out := run(t, "\xEF\xBB\xBF"+schedule, "generate", "--csv", "-", "--status-date", "2024-01-05")
	require.NoError(t, out.err)
	assert.Contains(t, out.stdout, "1. Design: ")
}

func TestGenerate_PreconditionFailures(t *testing.T) {
	dir := workspace(t)
	writeFile(t, filepath.Join(dir, "schedule.csv"), schedule)
	writeFile(t, filepath.Join(dir, "unmapped.csv"), "Col A,Col B,Col C\nDesign,2024-01-01,2024-01-10\n")

	testCases := []struct {
		name string
		args []string
		want string
	}{
		{"empty status date", []string{"--csv", "unmapped.csv", "--status-date", ""}, "Please set the status date."},
		{"unmapped columns", []string{"--csv", "unmapped.csv", "--status-date", "2024-01-05"}, "Please map Task Name, Start, and Finish in the column mapping section."},
		{"unparseable status date", []string{"--csv", "schedule.csv", "--status-date", "2024-02-30"}, "Invalid status date."},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := run(t, "", append([]string{"generate"}, tc.args...)...)
			require.Error(t, out.err)
			assert.Equal(t, icl.ExitPrecondition, out.res.ExitCode)
			assert.Equal(t, tc.want, out.err.Error())
			assert.Empty(t, out.stdout)
		})
	}
}

func TestGenerate_ExportWithNothingSelected(t *testing.T) {
	dir := workspace(t)
	writeFile(t, filepath.Join(dir, "later.csv"), "Task Name,Start,Finish\nLater,2025-01-01,2025-02-01\n")

	out := run(t, "", "generate", "--csv", "later.csv", "--status-date", "2024-01-05",
		"--export", "x.csv", "--trace", "trace.json", "--threshold", "20")
	require.Error(t, out.err)
	assert.Equal(t, icl.ExitPrecondition, out.res.ExitCode)
	assert.Equal(t, "Generate the email body first.", out.err.Error())
	assert.Empty(t, out.stdout)
	assert.NoFileExists(t, filepath.Join(dir, "x.csv"))
	assert.NoFileExists(t, filepath.Join(dir, "trace.json"))
	assert.NoFileExists(t, filepath.Join(dir, ".schedupdate", "settings.json"))

	out = run(t, "", "generate", "--csv", "later.csv", "--status-date", "2024-01-05", "--export-dir", "exports")
	require.Error(t, out.err)
	assert.Equal(t, icl.ExitPrecondition, out.res.ExitCode)
	assert.NoDirExists(t, filepath.Join(dir, "exports"))
}

func TestGenerate_InvalidInvocation(t *testing.T) {
	dir := workspace(t)
	writeFile(t, filepath.Join(dir, "schedule.csv"), schedule)

	testCases := map[string][]string{
		"missing csv flag":       {"generate", "--status-date", "2024-01-05"},
		"unknown flag":           {"generate", "--csv", "schedule.csv", "--bogus"},
		"unknown command":        {"frobnicate"},
		"positional args":        {"generate", "--csv", "schedule.csv", "extra"},
		"unknown map key":        {"generate", "--csv", "schedule.csv", "--map", "nope=Task Name"},
		"malformed map":          {"generate", "--csv", "schedule.csv", "--map", "taskName"},
		"threshold out of range": {"generate", "--csv", "schedule.csv", "--threshold", "101"},
		"unknown group-by":       {"generate", "--csv", "schedule.csv", "--group-by", "color"},
		"export and export-dir":  {"generate", "--csv", "schedule.csv", "--export", "a.csv", "--export-dir", "out"},
		"missing csv file":       {"generate", "--csv", "nope.csv"},
	}
	for name, args := range testCases {
		t.Run(name, func(t *testing.T) {
			out := run(t, "", args...)
			require.Error(t, out.err)
			assert.Equal(t, icl.ExitInvalidInvocation, out.res.ExitCode, "err=%v", out.err)
		})
	}
}

func TestGenerate_RemembersSettingsAndFlagsWin(t *testing.T) {
	dir := workspace(t)
	writeFile(t, filepath.Join(dir, "schedule.csv"), schedule)

	first := run(t, "", "generate", "--csv", "schedule.csv", "--status-date", "2024-01-05", "--deadline", "Friday noon")
	require.NoError(t, first.err)
	assert.Contains(t, first.stdout, "Please reply by Friday noon.\n")
	assert.FileExists(t, filepath.Join(dir, ".schedupdate", "settings.json"))

	second := run(t, "", "generate", "--csv", "schedule.csv", "--status-date", "2024-01-05")
	require.NoError(t, second.err)
	assert.Contains(t, second.stdout, "Please reply by Friday noon.\n")

	third := run(t, "", "generate", "--csv", "schedule.csv", "--status-date", "2024-01-05", "--deadline", "Monday")
	require.NoError(t, third.err)
	assert.Contains(t, third.stdout, "Please reply by Monday.\n")
}

func TestGenerate_IncludeSummaryFlag(t *testing.T) {
	dir := workspace(t)
	writeFile(t, filepath.Join(dir, "schedule.csv"), schedule)

	out := run(t, "", "generate", "--csv", "schedule.csv", "--status-date", "2024-01-05", "--include-summary")
	require.NoError(t, out.err)
	assert.Contains(t, out.stdout, "Construction: Planned 1/1/24-6/30/24;")
}

func TestMapping_OverrideSaveAndClear(t *testing.T) {
	dir := workspace(t)
	writeFile(t, filepath.Join(dir, "odd.csv"), "Col A,Col B,Col C\nDesign,2024-01-01,2024-01-10\n")

	out := run(t, "", "mapping", "--csv", "odd.csv")
	require.NoError(t, out.err)
	assert.Contains(t, out.stdout, "Missing required: taskName, start, finish\n")
	assert.Contains(t, out.stdout, "Preview (1 row):\n")
	assert.Contains(t, out.stdout, "Design  2024-01-01  2024-01-10\n")

	out = run(t, "", "mapping", "--csv", "odd.csv",
		"--map", "taskName=Col A", "--map", "start=Col B", "--map", "finish=Col C", "--save")
	require.NoError(t, out.err)
	assert.Contains(t, out.stdout, "Required fields: ok\n")
	assert.Contains(t, out.stdout, "Mapping saved.\n")

	out = run(t, "", "generate", "--csv", "odd.csv", "--status-date", "2024-01-05")
	require.NoError(t, out.err)
	assert.Contains(t, out.stdout, "1. Design: Planned 1/1/24-1/10/24;")

	out = run(t, "", "prefs", "clear")
	require.NoError(t, out.err)
	assert.Equal(t, "Cleared stored mapping and settings.\n", out.stdout)

	out = run(t, "", "generate", "--csv", "odd.csv", "--status-date", "2024-01-05")
	assert.Equal(t, icl.ExitPrecondition, out.res.ExitCode)
}

func TestMapping_SQLiteBackend(t *testing.T) {
	dir := workspace(t)
	t.Setenv("SCHEDUPDATE_STORE_BACKEND", "sqlite")
	writeFile(t, filepath.Join(dir, "odd.csv"), "Col A,Col B,Col C\nDesign,2024-01-01,2024-01-10\n")

	out := run(t, "", "mapping", "--csv", "odd.csv",
		"--map", "taskName=Col A", "--map", "start=Col B", "--map", "finish=Col C", "--save")
	require.NoError(t, out.err)
	assert.FileExists(t, filepath.Join(dir, ".schedupdate", "prefs.db"))

	out = run(t, "", "generate", "--csv", "odd.csv", "--status-date", "2024-01-05")
	require.NoError(t, out.err)
	assert.Contains(t, out.stdout, "1. Design: ")
}

func TestConfigInit_WritesOnceUnlessForced(t *testing.T) {
	dir := workspace(t)
	path := filepath.Join(dir, ".schedupdate", "config.yaml")

	out := run(t, "", "config", "init")
	require.NoError(t, out.err)
	assert.Equal(t, "Wrote "+path+"\n", out.stdout)
	assert.Contains(t, string(readFile(t, path)), "threshold: 15")

	out = run(t, "", "config", "init")
	require.Error(t, out.err)
	assert.Equal(t, icl.ExitConfigError, out.res.ExitCode)

	out = run(t, "", "config", "init", "--force")
	require.NoError(t, out.err)
}

func TestConfig_FileDrivesDefaultsAndBadFileFails(t *testing.T) {
	dir := workspace(t)
	writeFile(t, filepath.Join(dir, "schedule.csv"), schedule)
	writeFile(t, filepath.Join(dir, "schedupdate.yaml"), "deadline: Thursday\nstore:\n  backend: none\n")

	out := run(t, "", "generate", "--csv", "schedule.csv", "--status-date", "2024-01-05")
	require.NoError(t, out.err)
	assert.Contains(t, out.stdout, "Please reply by Thursday.\n")
	assert.NoDirExists(t, filepath.Join(dir, ".schedupdate"))

	out = run(t, "", "config", "show")
	require.NoError(t, out.err)
	assert.Contains(t, out.stdout, "source: schedupdate.yaml\n")

	writeFile(t, filepath.Join(dir, "bad.yaml"), "threshold: 500\n")
	out = run(t, "", "--config", "bad.yaml", "generate", "--csv", "schedule.csv")
	require.Error(t, out.err)
	assert.Equal(t, icl.ExitConfigError, out.res.ExitCode)

	out = run(t, "", "--config", "missing.yaml", "generate", "--csv", "schedule.csv")
	assert.Equal(t, icl.ExitConfigError, out.res.ExitCode)
}

func TestHelp(t *testing.T) {
	workspace(t)
	out := run(t, "", "--help")
	require.NoError(t, out.err)
	assert.Contains(t, out.stdout, "generate")
	assert.Contains(t, out.stdout, "mapping")
}
