package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/Veraticus/textami/internal/cli"
)

func columnsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "columns <dataset>",
		Short: "Classify the columns of a spreadsheet",
		Long: `Analyze a dataset (XLSX, CSV, TSV or gsheets:<id>#Range) and report the
data type, content complexity and rendering module chosen for every column.
Name an XLSX sheet with file.xlsx#Sheet.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.pipeline.AnalyzeColumns(ctx, args[0])
			if err != nil {
				return err
			}

			return writeResult(cmd, result, func(w io.Writer) error {
				return cli.PrintColumnsAnalysis(w, result)
			})
		},
	}

	addFormatFlag(cmd)
	return cmd
}
