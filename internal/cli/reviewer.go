package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Veraticus/textami/internal/model"
)

// Reviewer walks a user through mapping proposals one at a time.
type Reviewer struct {
	reader *LineReader
	writer io.Writer
}

// NewReviewer creates a Reviewer reading answers from r and prompting on w.
func NewReviewer(r io.Reader, w io.Writer) *Reviewer {
	return &Reviewer{reader: NewLineReader(r), writer: w}
}

// Review asks about every proposal: [a]ccept, [r]eject, accept [A]ll remaining
// or [q]uit rejecting the rest. An empty answer accepts. Rejected proposals move
// to the unmapped lists and the overall confidence is recomputed.
func (rv *Reviewer) Review(ctx context.Context, intel model.MappingIntelligence) (model.MappingIntelligence, error) {
	accepted := make([]model.MappingProposal, 0, len(intel.Proposals))
	rejected := make([]model.MappingProposal, 0)

	acceptRest, rejectRest := false, false
	for i, p := range intel.Proposals {
		switch {
		case acceptRest:
			accepted = append(accepted, p)
			continue
		case rejectRest:
			rejected = append(rejected, p)
			continue
		}

		content := fmt.Sprintf("%s → %s (%s)\n%s %.0f%%\n%s",
			BoldStyle.Render(p.Placeholder), p.ColumnHeader, p.Column,
			SubtleStyle.Render("confidence"), p.Confidence,
			SubtleStyle.Render(p.Reasoning))
		if _, err := fmt.Fprintln(rv.writer, RenderBox(fmt.Sprintf("Mapping %d of %d", i+1, len(intel.Proposals)), content)); err != nil {
			return model.MappingIntelligence{}, fmt.Errorf("failed to write proposal: %w", err)
		}

		for {
			if _, err := fmt.Fprint(rv.writer, FormatPrompt("[a]ccept, [r]eject, [A]ccept all, [q]uit")); err != nil {
				return model.MappingIntelligence{}, fmt.Errorf("failed to write prompt: %w", err)
			}
			answer, err := rv.reader.ReadLine(ctx)
			if err != nil {
				return model.MappingIntelligence{}, err
			}

			switch answer {
			case "", "a", "y":
				accepted = append(accepted, p)
			case "r", "n":
				rejected = append(rejected, p)
			case "A":
				accepted = append(accepted, p)
				acceptRest = true
			case "q", "Q":
				rejected = append(rejected, p)
				rejectRest = true
			default:
				if _, err := fmt.Fprintln(rv.writer, FormatWarning(fmt.Sprintf("Unknown answer %q", answer))); err != nil {
					return model.MappingIntelligence{}, fmt.Errorf("failed to write warning: %w", err)
				}
				continue
			}
			break
		}
	}

	return withRejections(intel, accepted, rejected), nil
}

func withRejections(intel model.MappingIntelligence, accepted, rejected []model.MappingProposal) model.MappingIntelligence {
	out := model.MappingIntelligence{
		Proposals:            accepted,
		UnmappedPlaceholders: append([]string{}, intel.UnmappedPlaceholders...),
		UnmappedColumns:      append([]string{}, intel.UnmappedColumns...),
	}
	for _, p := range rejected {
		out.UnmappedPlaceholders = append(out.UnmappedPlaceholders, p.Placeholder)
		out.UnmappedColumns = append(out.UnmappedColumns, p.Column)
	}

	total := 0.0
	for _, p := range accepted {
		total += p.Confidence
	}
	if len(accepted) > 0 {
		out.OverallConfidence = total / float64(len(accepted))
	}
	return out
}

// Summary describes how many proposals survived review.
func Summary(before, after model.MappingIntelligence) string {
	dropped := len(before.Proposals) - len(after.Proposals)
	if dropped == 0 {
		return FormatSuccess(fmt.Sprintf("All %d mappings accepted", len(after.Proposals)))
	}
	return FormatWarning(fmt.Sprintf("%d accepted, %d rejected: %s", len(after.Proposals), dropped,
		strings.Join(after.UnmappedPlaceholders[len(before.UnmappedPlaceholders):], ", ")))
}
