package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/YatinSharma37/Anuvadika/internal/packager"
)

func newLibraryCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "library",
		Short: "List packaged runs in the library folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			entries, err := packager.List(cfg.Paths.LibraryDir)
			if err != nil {
				return err
			}
			if jsonOutput {
				if entries == nil {
					entries = []packager.Entry{}
				}
				return writeJSON(cmd, entries)
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintf(out, "Library %s is empty\n", cfg.Paths.LibraryDir)
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Modified", "Files", "Size", "Subtitles", "Video"},
				buildLibraryRows(entries),
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
			))
			var total uint64
			for _, e := range entries {
				total += uint64(e.TotalBytes())
			}
			fmt.Fprintf(out, "%d runs, %s in %s\n", len(entries), humanize.Bytes(total), cfg.Paths.LibraryDir)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print entries as JSON")
	return cmd
}

func buildLibraryRows(entries []packager.Entry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.RunID,
			formatAge(e.Modified),
			humanize.Comma(int64(len(e.Files))),
			humanize.Bytes(uint64(e.TotalBytes())),
			yesNo(e.HasSubtitles()),
			yesNo(e.HasVideo()),
		})
	}
	return rows
}
