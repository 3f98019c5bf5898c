package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run (a unique id prefix is enough)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore(cmd.Context())
			if err != nil {
				return err
			}
			id := strings.TrimSpace(args[0])
			run, err := store.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			if run == nil {
				return fmt.Errorf("run %q not found", id)
			}
			if jsonOutput {
				return writeJSON(cmd, run)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderDetails(runDetails(run)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the run as JSON")
	return cmd
}
