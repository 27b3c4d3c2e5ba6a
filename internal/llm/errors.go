package llm

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Veraticus/textami/internal/common"
)

// ErrNotJSON is returned when a provider answers with something other than a JSON document.
var ErrNotJSON = errors.New("inference response is not JSON")

func retryable(err error) error {
	return &common.RetryableError{Err: err, Retryable: true}
}

// statusError classifies a non-200 provider response. Rate limits and server
// errors are retried, everything else fails immediately.
func statusError(provider string, status int, body []byte) error {
	snippet := string(body)
	if len(snippet) > 512 {
		snippet = snippet[:512]
	}

	switch {
	case status == http.StatusTooManyRequests:
		return retryable(fmt.Errorf("%s API status %d: %w", provider, status, common.ErrRateLimit))
	case status >= 500:
		return retryable(fmt.Errorf("%s API error (status %d): %s", provider, status, snippet))
	default:
		return &common.RetryableError{
			Err:       fmt.Errorf("%s API error (status %d): %s", provider, status, snippet),
			Retryable: false,
		}
	}
}
