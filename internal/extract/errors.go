package extract

import (
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// RateLimitError reports that the inference endpoint throttled the request
// (HTTP 429). It is the only failure the scheduler retries.
type RateLimitError struct {
	Status int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("inference endpoint throttled (status %d)", e.Status)
}

// RequestError reports any other inference-call failure. Requests failing
// this way are dropped without retry.
type RequestError struct {
	Status int
	Err    error
}

func (e *RequestError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("inference request failed (status %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("inference request failed: %v", e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// IsRateLimit reports whether err is a throttling failure.
func IsRateLimit(err error) bool {
	var rle *RateLimitError
	return errors.As(err, &rle)
}

// classify maps go-openai errors onto the pipeline's failure taxonomy.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == 429 {
			return &RateLimitError{Status: apiErr.HTTPStatusCode}
		}
		return &RequestError{Status: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == 429 {
			return &RateLimitError{Status: reqErr.HTTPStatusCode}
		}
		return &RequestError{Status: reqErr.HTTPStatusCode, Err: err}
	}
	return &RequestError{Err: err}
}
