package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"mcbench/internal/history"
	"mcbench/internal/metrics"

	"github.com/spf13/cobra"
)

// newHistoryCmd は保存された実行を表示するサブコマンドを作成する
func newHistoryCmd(stdout io.Writer) *cobra.Command {
	var (
		dbPath string
		limit  int
		runID  string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List benchmark runs recorded with --history",
		Example: `  mcbench history --db results.db --limit 5
  mcbench history --db results.db --run 1f0c...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := history.Open(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			if runID != "" {
				e, err := store.Get(cmd.Context(), runID)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(stdout, metrics.Header)
				_, _ = fmt.Fprintln(stdout, e.Summary.Format())
				return nil
			}

			entries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printHistory(stdout, entries)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "history database path")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list (0: all)")
	cmd.Flags().StringVar(&runID, "run", "", "print the summary line of this run")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}

func printHistory(w io.Writer, entries []history.Entry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "RUN ID\tSTARTED\tCLIENTS\tFILES\tOVERLAP\tSTYLE\tMODE\tTOTAL(MB/s)\tMAX(sec)\tMIN(sec)")
	for _, e := range entries {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d%%\t%s\t%s\t%.2f\t%.6f\t%.6f\n",
			e.RunID, e.StartTime.Local().Format("2006-01-02 15:04:05"),
			e.Clients, e.Files, e.Overlap, e.Style, e.Mode,
			e.Summary.TotalThroughput, e.Summary.MaxTime, e.Summary.MinTime)
	}
	return tw.Flush()
}
