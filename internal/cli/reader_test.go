package cli

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineReader_ReadLine(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "successful read", input: "a\n", want: "a"},
		{name: "extra whitespace", input: "  r  \n", want: "r"},
		{name: "empty line", input: "\n", want: ""},
		{name: "no trailing newline", input: "A", want: "A"},
		{name: "eof", input: "", wantErr: io.EOF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewLineReader(strings.NewReader(tt.input)).ReadLine(context.Background())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLineReader_ContextCancellation(t *testing.T) {
	t.Run("already canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewLineReader(strings.NewReader("a\n")).ReadLine(ctx)
		assert.Equal(t, ErrInputCancelled, err)
	})

	t.Run("canceled while waiting", func(t *testing.T) {
		pr, pw := io.Pipe()
		defer func() { _ = pw.Close() }()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := NewLineReader(pr).ReadLine(ctx)
		assert.Equal(t, ErrInputCancelled, err)
	})
}

func TestLineReader_MultipleReads(t *testing.T) {
	r := NewLineReader(strings.NewReader("line1\nline2\nline3\n"))
	ctx := context.Background()

	for _, want := range []string{"line1", "line2", "line3"} {
		got, err := r.ReadLine(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}
