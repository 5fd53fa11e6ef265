package extract

import (
	"errors"
	"fmt"
)

// ErrEmptyResponse is returned when the webhook answers 2xx with an
// empty body.
var ErrEmptyResponse = errors.New("webhook returned an empty response")

// ConfigError blocks a submission before any network or log activity
// happens. It is not retryable until the user fixes the settings.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return e.Reason
}

// NetworkError wraps a transport-level failure of the webhook call.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("webhook request failed: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// HTTPStatusError reports a non-2xx webhook response.
type HTTPStatusError struct {
	Status int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("webhook returned status %d", e.Status)
}

// ResponseFormatError wraps a JSON parse failure of a non-empty
// webhook response body.
type ResponseFormatError struct {
	Err error
}

func (e *ResponseFormatError) Error() string {
	return fmt.Sprintf("webhook response is not valid JSON: %v", e.Err)
}

func (e *ResponseFormatError) Unwrap() error {
	return e.Err
}
