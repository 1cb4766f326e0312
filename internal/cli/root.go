// Package cli implements the schedupdate command line. Commands are wired to
// engine.Session; every failure is returned as an error carrying its exit
// code (see ExitCode).
package cli

import (
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"schedupdate/internal/config"
	"schedupdate/internal/prefs"
)

// skipConfig marks commands that must run even with a broken config file.
const skipConfig = "schedupdate/skip-config"

type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configPath string
	verbose    bool
	logJSON    bool

	cfg *config.Config
	log *zap.Logger
}

func (a *app) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "schedupdate",
		Short: "Find schedule tasks that need a status update and draft the request",
		Long: `schedupdate reads a project schedule exported as CSV, decides which tasks
need a status update as of a status date, and writes the request message
(and optionally a CSV of the selected tasks).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[skipConfig] == "" {
				cfg, err := config.Load(a.configPath)
				if err != nil {
					return configErrorf("%v", err)
				}
				a.cfg = cfg
			} else {
				a.cfg = config.DefaultConfig()
			}
			log, err := a.newLogger()
			if err != nil {
				return configErrorf("failed to initialize logger: %v", err)
			}
			a.log = log
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return invalidInvocationf("%v", err)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default ./schedupdate.yaml, then ~/.schedupdate/config.yaml)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	pf.BoolVar(&a.logJSON, "log-json", false, "write logs as JSON")

	root.AddCommand(
		a.newGenerateCmd(),
		a.newMappingCmd(),
		a.newConfigCmd(),
		a.newPrefsCmd(),
	)
	return root
}

// newLogger builds a production zap config writing to the app's stderr.
func (a *app) newLogger() (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	level, err := zapcore.ParseLevel(a.cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	if a.verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	var enc zapcore.Encoder
	if a.logJSON || a.cfg.Log.JSON {
		enc = zapcore.NewJSONEncoder(zc.EncoderConfig)
	} else {
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewConsoleEncoder(ec)
	}
	core := zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(a.stderr)), zc.Level)
	return zap.New(core), nil
}

// openStore opens the configured preferences backend. Stored preferences
// are advisory: a backend that cannot be opened is logged and replaced by
// a store that remembers nothing.
func (a *app) openStore() prefs.Store {
	store, err := prefs.Open(a.cfg.Store.Backend, a.cfg.Store.Dir)
	if err != nil {
		a.log.Warn("preferences unavailable", zap.String("backend", a.cfg.Store.Backend), zap.Error(err))
		return prefs.NopStore{}
	}
	return store
}

func (a *app) closeStore(store prefs.Store) {
	if err := store.Close(); err != nil {
		a.log.Warn("failed to close preferences store", zap.Error(err))
	}
}
