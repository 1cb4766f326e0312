package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"schedupdate/internal/engine"
	"schedupdate/internal/fields"
)

func (a *app) newMappingCmd() *cobra.Command {
	var (
		csvPath string
		maps    []string
		save    bool
		rows    int
	)
	cmd := &cobra.Command{
		Use:   "mapping",
		Short: "Show how the CSV columns map to schedule fields",
		Long: `mapping resolves the CSV headers to schedule fields, applying the stored
mapping and any --map overrides, and prints the result with a preview of the
mapped rows. With --save the resolved mapping is remembered for later runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			overrides, err := parseMapFlags(maps)
			if err != nil {
				return err
			}
			text, err := a.readCSV(csvPath)
			if err != nil {
				return err
			}
			store := a.openStore()
			defer a.closeStore(store)

			sess, status := a.loadSession(store, text, overrides)
			writeMapping(cmd.OutOrStdout(), sess, status, rows)

			if save {
				if err := store.SaveMapping(sess.Mapping().Strings()); err != nil {
					return internalErrorf("failed to save mapping: %v", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Mapping saved.")
			}
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&csvPath, "csv", "", "schedule CSV export to read (- for stdin)")
	fl.StringArrayVar(&maps, "map", nil, "column mapping override key=Header (repeatable)")
	fl.BoolVar(&save, "save", false, "remember the resolved mapping")
	fl.IntVar(&rows, "rows", engine.DefaultPreviewRows, "preview row count")
	_ = cmd.MarkFlagRequired("csv")
	return cmd
}

func writeMapping(w io.Writer, sess *engine.Session, status fields.MappingStatus, rows int) {
	m := sess.Mapping()

	fmt.Fprintln(w, "Mapping:")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, k := range m.SortedKeys() {
		fmt.Fprintf(tw, "  %s\t%s\n", k, m[k])
	}
	_ = tw.Flush()

	if status.OK {
		fmt.Fprintln(w, "Required fields: ok")
	} else {
		fmt.Fprintf(w, "Missing required: %s\n", keyList(status.Missing))
	}
	if choices := sess.GroupByChoices(); len(choices) > 0 {
		fmt.Fprintf(w, "Group-by choices: %s\n", keyList(choices))
	}

	p := sess.Preview(rows)
	fmt.Fprintf(w, "\nPreview (%s):\n", plural(len(p.Rows), "row", "rows"))
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(p.Headers, "\t"))
	for _, r := range p.Rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	_ = tw.Flush()
}
