package domain

import (
	"fmt"
	"time"
)

// Per-call failure taxonomy. Every one of these is fatal to the call that
// raised it and to nothing else: the dispatch boundary converts them into
// JSON-RPC error responses and the stream keeps going.

// ConfigurationError reports a missing API key. It is checked before any
// argument validation so a misconfigured process fails the same way for
// every call.
type ConfigurationError struct {
	EnvVar string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s API key environment variable is required", e.EnvVar)
}

// ValidationError reports a tool argument that the input schema marks
// required but the caller did not supply.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// UnknownToolError reports an invocation of a name absent from the registry.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool: %s", e.Name)
}

// NetworkError wraps a transport-level failure (connection refused, DNS,
// TLS). The underlying message is surfaced unmodified.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return e.Err.Error() }
func (e *NetworkError) Unwrap() error { return e.Err }

// TimeoutError reports a request aborted by the per-request deadline.
type TimeoutError struct {
	URL     string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request to %s timed out after %s", e.URL, e.Timeout)
}

// TooManyRedirectsError reports a redirect chain longer than the configured
// cap. The upstream proxy should never do this; treating it as a distinct
// failure keeps a misconfigured proxy from looping the client forever.
type TooManyRedirectsError struct {
	URL   string
	Limit int
}

func (e *TooManyRedirectsError) Error() string {
	return fmt.Sprintf("stopped after %d redirects fetching %s", e.Limit, e.URL)
}
