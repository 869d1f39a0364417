package auth

import (
	"fmt"
	"strings"
)

// ConfigurationError reports credential fields missing for the selected mode.
// It is raised at construction time only.
type ConfigurationError struct {
	Mode    Mode
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("auth mode %q: missing required configuration: %s", e.Mode, strings.Join(e.Missing, ", "))
}

// AuthenticationError wraps a token acquisition failure from the underlying
// strategy. It is never retried by this layer.
type AuthenticationError struct {
	Message string
	Err     error
}

func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed: %s: %v", e.Message, e.Err)
	}
	return "authentication failed: " + e.Message
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// InvalidOperationError reports an operation invoked in a mode that does not
// support it, e.g. UpdateAccessToken outside client_provided_token mode.
type InvalidOperationError struct {
	Operation string
	Mode      Mode
}

func (e *InvalidOperationError) Error() string {
	return fmt.Sprintf("%s is not supported in auth mode %q", e.Operation, e.Mode)
}
