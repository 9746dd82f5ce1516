package embed

import "fmt"

// ConfigurationError reports missing signing credentials. No URL is ever
// issued while the issuer is unconfigured.
type ConfigurationError struct {
	Missing string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s not configured", e.Missing)
}

// ValidationError reports a malformed embed request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// SigningError wraps a token signing failure. Callers may retry.
type SigningError struct {
	Err error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("failed to sign embed token: %v", e.Err)
}

func (e *SigningError) Unwrap() error {
	return e.Err
}
