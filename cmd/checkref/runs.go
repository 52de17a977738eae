package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/inodb/checkref/internal/duckdb"
	"github.com/inodb/checkref/internal/reconcile"
)

func newRunsCmd() *cobra.Command {
	var (
		runID    string
		switches bool
	)

	cmd := &cobra.Command{
		Use:   "runs <results.duckdb>",
		Short: "List runs stored with --results-db",
		Long: `List the runs stored in a results database. With --run, print the class
counts of one run; add --switches to list its switched sites.`,
		Example: `  checkref runs runs.duckdb
  checkref runs runs.duckdb --run 3f1c... --switches`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := duckdb.Open(args[0])
			if err != nil {
				return err
			}
			defer store.Close()

			w := cmd.OutOrStdout()
			if runID == "" {
				return listRuns(w, store)
			}
			return showRun(w, store, runID, switches)
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Show one run")
	cmd.Flags().BoolVar(&switches, "switches", false, "List switched sites of the run")

	return cmd
}

func listRuns(w io.Writer, store *duckdb.Store) error {
	runs, err := store.Runs()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN_ID\tCREATED\tTARGET\tREFERENCE\tBUILDS\tMISMATCH\tCOMMON")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s/%s\t%t\t%d\n",
			r.ID, r.CreatedAt.Format(time.RFC3339),
			r.Target.Path, r.Reference.Path,
			r.TargetBuild, r.ReferenceBuild, r.Mismatch, r.Common)
	}
	return tw.Flush()
}

func showRun(w io.Writer, store *duckdb.Store, runID string, switches bool) error {
	tally, err := store.ClassCounts(runID)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, c := range reconcile.Classes() {
		fmt.Fprintf(tw, "%s\t%d\n", c, tally.Count(c))
	}
	fmt.Fprintf(tw, "TOTAL\t%d\n", tally.Total())
	if err := tw.Flush(); err != nil {
		return err
	}
	if !switches {
		return nil
	}

	sites, err := store.Sites(runID)
	if err != nil {
		return err
	}
	fmt.Fprintln(w)
	for _, s := range sites {
		if s.Class == reconcile.Switch {
			fmt.Fprintf(w, "%s\t%s\t%s|%s\n", s.Chrom, s.Key.Pos, s.Target, s.Reference)
		}
	}
	return nil
}
