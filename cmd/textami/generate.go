package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"github.com/Veraticus/textami/internal/cli"
	"github.com/Veraticus/textami/internal/common"
	"github.com/Veraticus/textami/internal/pipeline"
)

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Render one document per dataset row",
		Long: `Render a batch of documents from a template and a dataset using a mapping
file written by 'textami map'. Documents go to the configured storage backend
(storage.backend: fs, sqlite or drive). Rows that fail are reported and do not
stop the batch.`,
		Args: cobra.NoArgs,
		RunE: runGenerate,
	}

	cmd.Flags().StringP("mapping", "m", "", "mapping file written by 'textami map'")
	cmd.Flags().String("template", "", "template to render (defaults to the mapping file's)")
	cmd.Flags().String("dataset", "", "dataset to read rows from (defaults to the mapping file's)")
	cmd.Flags().Int("batch-size", 0, "maximum rows to render (defaults to generation.batch_size)")
	cmd.Flags().Bool("no-progress", false, "disable the progress bar")
	addFormatFlag(cmd)

	return cmd
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	req := pipeline.BatchRequest{}

	if path, _ := cmd.Flags().GetString("mapping"); path != "" {
		f, plan, err := loadPlan(path)
		if err != nil {
			return err
		}
		req.TemplateLocator, req.DatasetLocator, req.Plan = f.Template, f.Dataset, plan
	}
	if v, _ := cmd.Flags().GetString("template"); v != "" {
		req.TemplateLocator = v
	}
	if v, _ := cmd.Flags().GetString("dataset"); v != "" {
		req.DatasetLocator = v
	}
	if req.TemplateLocator == "" || req.DatasetLocator == "" {
		return common.InvalidInput("a template and a dataset are required; pass --mapping or --template and --dataset")
	}

	a, err := newApp(cmd.Context(), appOptions{withOutput: true})
	if err != nil {
		return err
	}
	defer a.Close()

	req.BatchSize = a.cfg.Generation.BatchSize
	if n, _ := cmd.Flags().GetInt("batch-size"); n != 0 {
		req.BatchSize = n
	}

	interrupts := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx, cancel := interrupts.HandleInterrupts(cmd.Context(), a.outputHint)
	defer cancel()

	if quiet, _ := cmd.Flags().GetBool("no-progress"); !quiet {
		var (
			once sync.Once
			bar  *cli.Progress
		)
		req.Progress = func(done, total int) {
			once.Do(func() { bar = cli.NewProgress(cmd.ErrOrStderr(), total, "Generating documents") })
			bar.Update(done, total)
		}
	}

	report, err := a.pipeline.GenerateBatch(ctx, req)
	if err != nil {
		return err
	}

	if err := writeResult(cmd, report, func(w io.Writer) error {
		return cli.PrintGenerationReport(w, report)
	}); err != nil {
		return err
	}

	if !report.Success {
		return fmt.Errorf("no documents were generated (%d rows failed)", report.TotalErrors)
	}
	return nil
}
