package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/textami/internal/cli"
	"github.com/Veraticus/textami/internal/common"
	"github.com/Veraticus/textami/internal/document"
)

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <template>",
		Short: "Find and classify the placeholders in a template",
		Long: `Analyze a template document (DOCX, text, Markdown, HTML or gdocs:<id>)
and list the placeholders it contains with their semantic type and confidence.

Without a configured llm.provider the placeholders are still detected but not
classified. With --styles the Word styles of a DOCX template are mapped to
semantic HTML elements instead.`,
		Args: cobra.ExactArgs(1),
		RunE: runAnalyze,
	}

	cmd.Flags().String("sample", "", "free text describing the data the template will be filled with")
	cmd.Flags().Bool("styles", false, "build a style manifest for a DOCX template")
	cmd.Flags().String("preview", "", "with --styles, write an HTML preview of the document to this file")
	addFormatFlag(cmd)

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	locator := args[0]

	if styles, _ := cmd.Flags().GetBool("styles"); styles {
		return runAnalyzeStyles(cmd, locator)
	}

	a, err := newApp(ctx, appOptions{withInference: true})
	if err != nil {
		return err
	}
	defer a.Close()

	sample, _ := cmd.Flags().GetString("sample")
	result, err := a.pipeline.AnalyzeDocument(ctx, locator, sample)
	if err != nil {
		return err
	}

	return writeResult(cmd, result, func(w io.Writer) error {
		return cli.PrintDocumentAnalysis(w, result)
	})
}

func runAnalyzeStyles(cmd *cobra.Command, locator string) error {
	if !strings.EqualFold(filepath.Ext(locator), ".docx") {
		return common.InvalidInput("--styles needs a .docx template, got %s", locator)
	}

	data, err := os.ReadFile(locator) // #nosec G304
	if err != nil {
		return common.InvalidInput("cannot read %s: %v", locator, err)
	}

	report, err := document.AnalyzeStyles(data, locator, time.Now().UTC())
	if err != nil {
		return err
	}

	if preview, _ := cmd.Flags().GetString("preview"); preview != "" {
		if err := os.WriteFile(preview, []byte(report.Preview()), 0o600); err != nil {
			return fmt.Errorf("failed to write preview: %w", err)
		}
		slog.Info("Preview written", "file", preview)
	}

	return writeResult(cmd, report.Manifest, func(w io.Writer) error {
		return cli.PrintStyleManifest(w, report.Manifest)
	})
}
