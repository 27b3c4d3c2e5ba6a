package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Veraticus/textami/internal/common"
)

// Output formats accepted by --format.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

func addFormatFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", formatTable, "output format (table, json, yaml)")
}

// writeResult prints v in the requested format; table uses the styled printer.
func writeResult(cmd *cobra.Command, v any, table func(io.Writer) error) error {
	format, _ := cmd.Flags().GetString("format")
	w := cmd.OutOrStdout()

	switch format {
	case formatTable, "":
		return table(w)
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return common.InvalidInput("unknown output format %q", format)
	}
}
