package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"schedupdate/internal/config"
	"schedupdate/internal/prefs"
)

func (a *app) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the schedupdate config file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:         "init",
		Short:       "Write the default config file",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfig: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := a.configPath
			if path == "" {
				path = config.DefaultPath()
			}
			if err := config.DefaultConfig().Save(path, force); err != nil {
				if errors.Is(err, config.ErrExists) {
					return configErrorf("%v (use --force to overwrite)", err)
				}
				return configErrorf("%v", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			source := a.cfg.Source
			if source == "" {
				source = "(defaults)"
			}
			fmt.Fprintf(w, "source: %s\n", source)
			fmt.Fprintf(w, "threshold: %d\n", a.cfg.Threshold)
			fmt.Fprintf(w, "use_baseline: %t\n", a.cfg.UseBaseline)
			fmt.Fprintf(w, "include_milestones: %t\n", a.cfg.IncludeMilestones)
			fmt.Fprintf(w, "include_summary: %t\n", a.cfg.IncludeSummary)
			fmt.Fprintf(w, "group_by: %q\n", a.cfg.GroupBy)
			fmt.Fprintf(w, "deadline: %q\n", a.cfg.Deadline)
			fmt.Fprintf(w, "low_float_days: %v\n", a.cfg.LowFloatDays)
			fmt.Fprintf(w, "store: %s %s\n", a.cfg.Store.Backend, a.cfg.Store.Dir)
			fmt.Fprintf(w, "log: %s json=%t\n", a.cfg.Log.Level, a.cfg.Log.JSON)
			return nil
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}

func (a *app) newPrefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Manage the remembered mapping and settings",
	}
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Forget the stored mapping and settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := prefs.Open(a.cfg.Store.Backend, a.cfg.Store.Dir)
			if err != nil {
				return configErrorf("failed to open preferences: %v", err)
			}
			defer a.closeStore(store)
			if err := store.Clear(); err != nil {
				return internalErrorf("failed to clear preferences: %v", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cleared stored mapping and settings.")
			return nil
		},
	}
	cmd.AddCommand(clearCmd)
	return cmd
}
