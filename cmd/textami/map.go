package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Veraticus/textami/internal/cli"
	"github.com/Veraticus/textami/internal/mapping"
	"github.com/Veraticus/textami/internal/model"
	"github.com/Veraticus/textami/internal/pipeline"
)

func mapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map <template> <dataset>",
		Short: "Propose which column fills which placeholder",
		Long: `Analyze a template and a dataset, ask the configured model for a one-to-one
mapping between placeholders and columns, and save it as a YAML mapping file
for 'textami generate'. With --review every proposal is confirmed interactively.`,
		Args: cobra.ExactArgs(2),
		RunE: runMap,
	}

	cmd.Flags().StringP("output", "o", "mapping.yaml", "mapping file to write")
	cmd.Flags().String("sample", "", "free text describing the data the template will be filled with")
	cmd.Flags().Bool("review", false, "confirm each proposal interactively")
	addFormatFlag(cmd)

	return cmd
}

func runMap(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	templateLocator, datasetLocator := args[0], args[1]

	a, err := newApp(ctx, appOptions{withInference: true})
	if err != nil {
		return err
	}
	defer a.Close()

	sample, _ := cmd.Flags().GetString("sample")
	doc, err := a.pipeline.AnalyzeDocument(ctx, templateLocator, sample)
	if err != nil {
		return err
	}
	if doc.Degraded {
		slog.Warn("Placeholders were not classified", "warning", doc.Warning)
	}

	cols, err := a.pipeline.AnalyzeColumns(ctx, datasetLocator)
	if err != nil {
		return err
	}

	plan, err := a.pipeline.ProposeMappings(ctx, doc.Placeholders, cols.Columns)
	if err != nil {
		return err
	}

	if review, _ := cmd.Flags().GetBool("review"); review && len(plan.Intelligence.Proposals) > 0 {
		reviewed, err := cli.NewReviewer(cmd.InOrStdin(), cmd.ErrOrStderr()).Review(ctx, plan.Intelligence)
		if err != nil {
			return fmt.Errorf("review aborted: %w", err)
		}
		fmt.Fprintln(cmd.ErrOrStderr(), cli.Summary(plan.Intelligence, reviewed))
		plan = keepAccepted(plan, reviewed)
	}

	out, _ := cmd.Flags().GetString("output")
	if out != "" {
		if err := mapping.SaveFile(out, mapping.File{
			Template:     templateLocator,
			Dataset:      datasetLocator,
			Placeholders: doc.Placeholders,
			Modules:      plan.Modules,
			Intelligence: plan.Intelligence,
		}); err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatSuccess("Mapping saved to "+out))
	}

	return writeResult(cmd, plan, func(w io.Writer) error {
		return cli.PrintPlan(w, plan)
	})
}

// keepAccepted drops the module mappings of columns whose proposal was rejected.
func keepAccepted(plan pipeline.Plan, reviewed model.MappingIntelligence) pipeline.Plan {
	accepted := make(map[string]bool, len(reviewed.Proposals))
	for _, p := range reviewed.Proposals {
		accepted[p.Column] = true
	}

	modules := make([]model.ModuleMapping, 0, len(plan.Modules))
	for _, m := range plan.Modules {
		if accepted[m.Column] {
			modules = append(modules, m)
		}
	}
	return pipeline.Plan{Intelligence: reviewed, Modules: modules}
}

// loadPlan reads a mapping file written by `textami map`.
func loadPlan(path string) (mapping.File, pipeline.Plan, error) {
	if _, err := os.Stat(path); err != nil {
		return mapping.File{}, pipeline.Plan{}, fmt.Errorf("mapping file %s: %w", path, err)
	}
	f, err := mapping.LoadFile(path)
	if err != nil {
		return mapping.File{}, pipeline.Plan{}, err
	}
	return f, pipeline.Plan{Intelligence: f.Intelligence, Modules: f.Modules}, nil
}
