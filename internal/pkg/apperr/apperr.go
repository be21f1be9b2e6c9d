// Package apperr defines the error taxonomy shared across modules.
//
// Media absence is deliberately not represented here: a missing image or
// video is a normal value (nil), never an error.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedResponse marks AI output that fails schema validation
	// after sanitization.
	ErrMalformedResponse = errors.New("malformed AI response")
	// ErrUnauthorized marks a transport command from an unrecognized
	// operator identity.
	ErrUnauthorized = errors.New("unauthorized")
)

// ConfigError is a missing or invalid required setting. Fatal at startup.
type ConfigError struct {
	Missing []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("missing required configuration: %v", e.Missing)
}

// RemoteError is a non-2xx reply from an external API, carrying the HTTP
// status and response body for the logs.
type RemoteError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.Service, e.StatusCode, e.Body)
}

// Malformed wraps detail onto ErrMalformedResponse so callers can match it
// with errors.Is.
func Malformed(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrMalformedResponse}, args...)...)
}
