package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YatinSharma37/Anuvadika/internal/runstore"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent pipeline runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore(cmd.Context())
			if err != nil {
				return err
			}
			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOutput {
				if runs == nil {
					runs = []*runstore.Run{}
				}
				return writeJSON(cmd, runs)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded yet")
				return nil
			}
			headers := []string{"ID", "Status", "Stage", "Source", "Task", "Model", "Language", "Started", "Duration"}
			aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight}
			fmt.Fprintln(out, renderTable(headers, buildRunRows(runs), aligns))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", runstore.DefaultListLimit, "Maximum number of runs to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print runs as JSON")
	return cmd
}
