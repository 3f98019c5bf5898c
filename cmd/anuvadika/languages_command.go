package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YatinSharma37/Anuvadika/internal/language"
)

func newLanguagesCommand() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:         "languages",
		Short:       "List languages the recognizer understands",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			langs := language.Supported()
			if jsonOutput {
				return writeJSON(cmd, langs)
			}
			rows := make([][]string, 0, len(langs))
			for _, l := range langs {
				rows = append(rows, []string{l.Code, l.Name, language.ToISO3(l.Code)})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"Code", "Name", "ISO 639-2"}, rows, nil))
			fmt.Fprintln(out, "Pass a code with --language, or auto to detect. Translation always targets English.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print languages as JSON")
	return cmd
}
