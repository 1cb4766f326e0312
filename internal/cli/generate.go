package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"schedupdate/internal/dates"
	"schedupdate/internal/engine"
	"schedupdate/internal/fields"
	"schedupdate/internal/prefs"
	"schedupdate/internal/reconcile"
	"schedupdate/internal/render"
	"schedupdate/internal/selection"
)

type generateFlags struct {
	csv        string
	statusDate string

	threshold         int
	useBaseline       bool
	includeMilestones bool
	includeSummary    bool
	groupBy           string
	deadline          string
	maps              []string

	out       string
	export    string
	exportDir string
	trace     string
}

func (a *app) newGenerateCmd() *cobra.Command {
	f := &generateFlags{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write the status-request message for tasks that need an update",
		Long: `generate selects the tasks that need a status update as of --status-date
and prints the request message.

Run settings come from the config file, then from the settings remembered by
the last successful run, then from flags given on this command line.`,
		Example: `  schedupdate generate --csv schedule.csv --status-date 2024-01-05
  schedupdate generate --csv - --threshold 20 --export-dir out < schedule.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runGenerate(cmd.Flags(), f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.csv, "csv", "", "schedule CSV export to read (- for stdin)")
	fl.StringVar(&f.statusDate, "status-date", "", "status date (default today)")
	fl.IntVar(&f.threshold, "threshold", int(reconcile.DefaultThreshold), "percentage points of progress gap that flag a task (0-100)")
	fl.BoolVar(&f.useBaseline, "use-baseline", true, "measure against baseline dates when present")
	fl.BoolVar(&f.includeMilestones, "include-milestones", false, "consider milestone rows")
	fl.BoolVar(&f.includeSummary, "include-summary", false, "consider summary rows")
	fl.StringVar(&f.groupBy, "group-by", "", "optional field key carried on each selected task")
	fl.StringVar(&f.deadline, "deadline", render.DefaultDeadline, "reply deadline named in the message")
	fl.StringArrayVar(&f.maps, "map", nil, "column mapping override key=Header (repeatable)")
	fl.StringVar(&f.out, "out", "", "write the message to a file instead of stdout")
	fl.StringVar(&f.export, "export", "", "write the selected tasks as CSV to this file")
	fl.StringVar(&f.exportDir, "export-dir", "", "write the selected tasks as CSV into this directory")
	fl.StringVar(&f.trace, "trace", "", "write the canonical decision trace as JSON to this file")
	_ = cmd.MarkFlagRequired("csv")
	cmd.MarkFlagsMutuallyExclusive("export", "export-dir")
	return cmd
}

func (a *app) runGenerate(fl *pflag.FlagSet, f *generateFlags) error {
	overrides, err := parseMapFlags(f.maps)
	if err != nil {
		return err
	}
	if fl.Changed("threshold") && (f.threshold < 0 || f.threshold > 100) {
		return invalidInvocationf("--threshold %d out of range [0, 100]", f.threshold)
	}
	if fl.Changed("group-by") && f.groupBy != "" && !fields.IsKnown(fields.Key(f.groupBy)) {
		return invalidInvocationf("invalid --group-by: unknown field key %q", f.groupBy)
	}

	text, err := a.readCSV(f.csv)
	if err != nil {
		return err
	}

	store := a.openStore()
	defer a.closeStore(store)

	settings := a.resolveSettings(store, fl, f)
	sess, _ := a.loadSession(store, text, overrides)
	if len(overrides) > 0 {
		if err := store.SaveMapping(sess.Mapping().Strings()); err != nil {
			a.log.Warn("failed to save mapping", zap.Error(err))
		}
	}

	statusDate := f.statusDate
	if !fl.Changed("status-date") {
		statusDate = dates.Canonical(dates.Today())
	}
	res, err := sess.Generate(statusDate, a.engineOptions(settings))
	if err != nil {
		return err
	}

	// An export with nothing selected fails before any output is written.
	exportPath := f.export
	if f.exportDir != "" {
		exportPath = filepath.Join(f.exportDir, sess.ExportFilename())
	}
	var exported []byte
	if exportPath != "" {
		if exported, err = sess.ExportCSV(); err != nil {
			return err
		}
	}

	if err := store.SaveSettings(settings); err != nil {
		a.log.Warn("failed to save settings", zap.Error(err))
	}

	if err := a.writeOutput(f.out, []byte(res.Message+"\n")); err != nil {
		return err
	}

	if f.trace != "" {
		b, err := res.Trace.CanonicalJSON()
		if err != nil {
			return internalErrorf("failed to encode trace: %v", err)
		}
		if err := a.writeOutput(f.trace, b); err != nil {
			return err
		}
		a.log.Debug("trace written", zap.String("path", f.trace))
	}

	if exportPath != "" {
		if f.exportDir != "" {
			if err := os.MkdirAll(f.exportDir, 0o755); err != nil {
				return internalErrorf("failed to create export directory: %v", err)
			}
		}
		if err := a.writeOutput(exportPath, exported); err != nil {
			return err
		}
		a.log.Info("export written", zap.String("path", exportPath), zap.Int("tasks", len(res.Entries)))
	}
	return nil
}

// resolveSettings layers config < remembered settings < changed flags.
func (a *app) resolveSettings(store prefs.Store, fl *pflag.FlagSet, f *generateFlags) prefs.Settings {
	s := prefs.Settings{
		Threshold:         a.cfg.Threshold,
		UseBaseline:       a.cfg.UseBaseline,
		IncludeMilestones: a.cfg.IncludeMilestones,
		IncludeSummary:    a.cfg.IncludeSummary,
		GroupBy:           a.cfg.GroupBy,
		Deadline:          a.cfg.Deadline,
	}

	stored, ok, err := store.LoadSettings()
	switch {
	case err != nil:
		a.log.Warn("failed to load stored settings", zap.Error(err))
	case ok:
		s.Threshold = stored.Threshold
		s.UseBaseline = stored.UseBaseline
		s.IncludeMilestones = stored.IncludeMilestones
		s.IncludeSummary = stored.IncludeSummary
		if stored.GroupBy == "" || fields.IsKnown(fields.Key(stored.GroupBy)) {
			s.GroupBy = stored.GroupBy
		}
		if strings.TrimSpace(stored.Deadline) != "" {
			s.Deadline = stored.Deadline
		}
	}

	if fl.Changed("threshold") {
		s.Threshold = f.threshold
	}
	if fl.Changed("use-baseline") {
		s.UseBaseline = f.useBaseline
	}
	if fl.Changed("include-milestones") {
		s.IncludeMilestones = f.includeMilestones
	}
	if fl.Changed("include-summary") {
		s.IncludeSummary = f.includeSummary
	}
	if fl.Changed("group-by") {
		s.GroupBy = f.groupBy
	}
	if fl.Changed("deadline") {
		s.Deadline = f.deadline
	}
	a.log.Debug("run settings resolved",
		zap.Int("threshold", s.Threshold),
		zap.Bool("use_baseline", s.UseBaseline),
		zap.Bool("include_milestones", s.IncludeMilestones),
		zap.Bool("include_summary", s.IncludeSummary),
		zap.String("group_by", s.GroupBy),
		zap.Bool("remembered", ok),
	)
	return s
}

func (a *app) engineOptions(s prefs.Settings) engine.Options {
	return engine.Options{
		Selection: selection.Options{
			UseBaseline:       s.UseBaseline,
			Threshold:         float64(s.Threshold),
			LowFloatDays:      a.cfg.LowFloatDays,
			IncludeMilestones: s.IncludeMilestones,
			IncludeSummary:    s.IncludeSummary,
			GroupBy:           fields.Key(s.GroupBy),
		},
		Deadline: s.Deadline,
		SignOff:  a.cfg.SignOff,
	}
}
