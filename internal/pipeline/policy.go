// Package pipeline wires the analysis, mapping and generation components into
// the operations the CLI and HTTP server expose.
package pipeline

import "fmt"

// Operation names an inference-backed step.
type Operation string

// Inference-backed operations.
const (
	OpExtract Operation = "extract"
	OpMap     Operation = "map"
)

// FailurePolicy is what an operation does when semantic inference fails.
type FailurePolicy int

const (
	// Degrade returns a well-formed but impoverished result with a warning.
	Degrade FailurePolicy = iota
	// Fail aborts the operation with common.ErrInferenceFailure.
	Fail
)

func (p FailurePolicy) String() string {
	switch p {
	case Degrade:
		return "degrade"
	case Fail:
		return "fail"
	default:
		return fmt.Sprintf("FailurePolicy(%d)", int(p))
	}
}

// inferencePolicy is the single source of truth for how each operation reacts
// to inference failure. A placeholder list is still useful unclassified; a
// mapping nobody verified is not safe to render against.
var inferencePolicy = map[Operation]FailurePolicy{
	OpExtract: Degrade,
	OpMap:     Fail,
}

// PolicyFor returns the failure policy of op. Unknown operations fail.
func PolicyFor(op Operation) FailurePolicy {
	if p, ok := inferencePolicy[op]; ok {
		return p
	}
	return Fail
}
