package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/Veraticus/textami/internal/common"
)

// SchemaError lists the violations found when an inference result does not
// match its expected shape. Its messages are suitable for a correction prompt.
type SchemaError struct {
	Violations []string
}

func (e *SchemaError) Error() string {
	return "response does not match schema: " + strings.Join(e.Violations, "; ")
}

func (e *SchemaError) Unwrap() error {
	return common.ErrInferenceFailure
}

// Validate checks raw against the JSON schema document. Violations come back
// as a *SchemaError.
func Validate(raw []byte, schema string) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return fmt.Errorf("%w: validation error: %w", common.ErrInferenceFailure, err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return &SchemaError{Violations: errs}
	}
	return nil
}

// DecodeStrict validates raw against the JSON schema document and then decodes it
// into v. The schema pins required fields and their types; fields it does not
// name are ignored by the decoder.
func DecodeStrict(raw []byte, schema string, v any) error {
	if err := Validate(raw, schema); err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: decode: %w", common.ErrInferenceFailure, err)
	}
	return nil
}
