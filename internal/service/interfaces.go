// Package service defines the contracts between the core pipeline and its collaborators.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/textami/internal/model"
)

// DocumentProvider yields the textual content of a template document.
// Implementations return common.ErrMalformedContainer when the input is not the
// expected container format.
type DocumentProvider interface {
	GetContent(ctx context.Context, locator string) (model.DocumentContent, error)
}

// SpreadsheetProvider yields the header row and data rows of a tabular dataset.
type SpreadsheetProvider interface {
	GetRows(ctx context.Context, locator string) (model.Table, error)
}

// TemplateRenderer substitutes row data into a template.
type TemplateRenderer interface {
	// Prepare rewrites raw placeholder tokens into module syntax.
	Prepare(template []byte, rewrites map[string]string) ([]byte, error)
	// Render produces one output document from a prepared template.
	Render(template []byte, data map[string]any) ([]byte, error)
}

// BlobStore stores and retrieves opaque documents.
type BlobStore interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
	Get(ctx context.Context, locator string) ([]byte, error)
}

// InferenceRequest is a prompt-shaped request to the semantic inference capability.
type InferenceRequest struct {
	// Operation labels the request for metrics and logs.
	Operation string
	System    string
	Prompt    string
	// Schema is the JSON Schema an answer must satisfy before it is cached.
	// Answers that fail it are still returned for the caller to reject.
	Schema string
}

// Inferencer is the semantic inference capability. Infer returns a JSON document
// or an error; free text never comes back as a success.
type Inferencer interface {
	Infer(ctx context.Context, req InferenceRequest) ([]byte, error)
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
