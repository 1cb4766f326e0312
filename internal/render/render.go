// Package render turns selected entries into the status-request message body
// and the needs-update CSV export.
package render

import (
	"bytes"
	"strconv"
	"strings"

	"schedupdate/internal/dates"
	"schedupdate/internal/phase"
	"schedupdate/internal/reconcile"
	"schedupdate/internal/selection"
	"schedupdate/internal/table"
)

const (
	// DefaultDeadline is used when no reply deadline is supplied.
	DefaultDeadline = "EOD tomorrow"

	// NothingToUpdate is the body line for an empty selection.
	NothingToUpdate = "Nothing needs an update for this date."

	preambleAsk = "Please provide a status update on the following tasks. " +
		"PMs & PEs please see 1st section. Superintendents & PMs please see 2nd section. " +
		"Please provide actual start/finish & % complete (or confirm no change). Please reply by "

	prePostHeading      = "Preconstruction & post"
	constructionHeading = "Construction"
)

// DefaultSignOff closes every message.
var DefaultSignOff = []string{"Thank you,", "Scheduling & Data Analytics"}

// Question texts.
const (
	askCompletion = "Complete? If yes, what was the actual finish date? If not, current % and forecast finish?"
	askStarted    = "Started yet? If yes, actual start and % complete. If not, when will it start and what will be the new start and finish dates?"
)

// Question picks the follow-up for an entry. Order: a recorded actual start
// asks about completion or on-track; then should-have-started; then
// should-be-finished; then any progress gap; else a generic confirmation.
func Question(e selection.Entry, statusDate dates.Date) string {
	f := e.Flags
	onTrack := "Current % complete? Still on track for " + dates.Display(f.Planned.Finish) + "?"

	if !f.ActualStart.IsZero() {
		if f.ShouldBeFinished {
			return askCompletion
		}
		return onTrack
	}
	switch {
	case f.ShouldHaveStarted:
		return askStarted
	case f.ShouldBeFinished:
		return askCompletion
	case f.MissingProgress || f.ProgressBehind || f.ProgressAhead:
		return onTrack
	default:
		return "Quick confirm: status and % complete as of " + dates.Display(statusDate) + "."
	}
}

// MessageOptions configure the text body.
type MessageOptions struct {
	StatusDate dates.Date
	Deadline   string
	SignOff    []string
}

// Message renders the plain-text request. Lines are joined with "\n".
func Message(entries []selection.Entry, opts MessageOptions) string {
	deadline := strings.TrimSpace(opts.Deadline)
	if deadline == "" {
		deadline = DefaultDeadline
	}
	signOff := opts.SignOff
	if len(signOff) == 0 {
		signOff = DefaultSignOff
	}

	lines := []string{"Team,", "", preambleAsk + deadline + ".", ""}

	if len(entries) == 0 {
		lines = append(lines, NothingToUpdate)
		lines = append(lines, signOff...)
		return strings.Join(lines, "\n")
	}

	var prePost, construction []selection.Entry
	for _, e := range entries {
		if e.Phase.Category == phase.Construction {
			construction = append(construction, e)
		} else {
			prePost = append(prePost, e)
		}
	}

	if len(construction) == 0 {
		lines = appendBlock(lines, entries, opts.StatusDate)
	} else {
		if len(prePost) > 0 {
			lines = append(lines, prePostHeading)
			lines = appendBlock(lines, prePost, opts.StatusDate)
			lines = append(lines, "")
		}
		lines = append(lines, constructionHeading)
		lines = appendBlock(lines, construction, opts.StatusDate)
	}

	lines = append(lines, signOff...)
	return strings.Join(lines, "\n")
}

func appendBlock(lines []string, entries []selection.Entry, statusDate dates.Date) []string {
	for i, e := range entries {
		lines = append(lines, taskLine(i+1, e, statusDate))
	}
	return lines
}

func taskLine(n int, e selection.Entry, statusDate dates.Date) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(n))
	b.WriteString(". ")
	if e.Phase.SubPhase != "" {
		b.WriteString(e.Phase.SubPhase)
		b.WriteString(" – ")
	}
	b.WriteString(e.Name)
	if e.TaskType != "" {
		b.WriteString(" (" + e.TaskType + ")")
	}
	b.WriteString(": Planned ")
	b.WriteString(orRaw(dates.Display(e.Flags.Planned.Start), e.Start))
	b.WriteString("-")
	b.WriteString(orRaw(dates.Display(e.Flags.Planned.Finish), e.Finish))
	b.WriteString("; Actual ")
	b.WriteString(orNone(e.ActualStart))
	b.WriteString("-")
	b.WriteString(orNone(e.ActualFinish))
	b.WriteString(". ")
	b.WriteString(Question(e, statusDate))
	if e.CompletedBy != "" {
		b.WriteString(" (Completed by: " + e.CompletedBy + ")")
	}
	return b.String()
}

func orRaw(formatted, raw string) string {
	if formatted != "" {
		return formatted
	}
	return raw
}

func orNone(s string) string {
	if s == "" {
		return "None"
	}
	return s
}

// ExportHeaders are the fixed columns of the needs-update CSV.
var ExportHeaders = []string{
	"Task Name", "Phase", "Status", "Start", "Finish", "Actual Start", "Actual Finish",
	"Baseline Start", "Baseline Finish", "Baseline5 Start", "Baseline5 Finish",
	"Total Slack", "Expected State", "Expected %", "Reported %", "Question",
}

// PhaseLabel is the human label of a phase category.
func PhaseLabel(c phase.Category) string {
	if c == phase.Construction {
		return "Construction"
	}
	return "Preconstruction & Post Construction"
}

// ExportCSV renders the entries as CSV with CRLF row separators. Cells are
// quoted the way table.Parse reads them back.
func ExportCSV(entries []selection.Entry, statusDate dates.Date) []byte {
	var buf bytes.Buffer
	writeRecord(&buf, ExportHeaders)
	for _, e := range entries {
		buf.WriteString("\r\n")
		writeRecord(&buf, []string{
			e.Name,
			PhaseLabel(e.Phase.Category),
			e.Status,
			e.Start,
			e.Finish,
			e.ActualStart,
			e.ActualFinish,
			e.BaselineStart,
			e.BaselineFinish,
			e.Baseline5Start,
			e.Baseline5Finish,
			e.TotalSlack,
			string(e.Flags.Expected.State),
			optionalNumber(e.Flags.Expected.Percent),
			optionalNumber(e.Flags.ReportedPercent),
			Question(e, statusDate),
		})
	}
	return buf.Bytes()
}

func optionalNumber(v *float64) string {
	if v == nil {
		return ""
	}
	return reconcile.FormatNumber(*v)
}

func writeRecord(buf *bytes.Buffer, cells []string) {
	for i, c := range cells {
		if i > 0 {
			buf.WriteByte(table.Delimiter)
		}
		buf.WriteString(EscapeCell(c))
	}
}

// EscapeCell quotes a cell containing a delimiter, quote or line break and
// doubles its internal quotes. Other cells are written as is.
func EscapeCell(s string) string {
	if !strings.ContainsAny(s, "\",\r\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
