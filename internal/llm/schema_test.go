package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/textami/internal/common"
)

const pairSchema = `{
  "type": "object",
  "required": ["name", "score"],
  "additionalProperties": false,
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "score": {"type": "number"}
  }
}`

type pair struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

func TestDecodeStrict(t *testing.T) {
	var p pair
	require.NoError(t, DecodeStrict([]byte(`{"name":"a","score":3}`), pairSchema, &p))
	assert.Equal(t, pair{Name: "a", Score: 3}, p)
}

func TestDecodeStrictRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "missing field", raw: `{"name":"a"}`},
		{name: "wrong type", raw: `{"name":"a","score":"high"}`},
		{name: "extra field", raw: `{"name":"a","score":1,"note":"x"}`},
		{name: "empty name", raw: `{"name":"","score":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p pair
			err := DecodeStrict([]byte(tt.raw), pairSchema, &p)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrInferenceFailure)

			var se *SchemaError
			require.True(t, errors.As(err, &se))
			assert.NotEmpty(t, se.Violations)
		})
	}
}

func TestDecodeStrictMalformedJSON(t *testing.T) {
	var p pair
	err := DecodeStrict([]byte(`{"name":`), pairSchema, &p)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInferenceFailure)
}
