package upstream

import (
	"fmt"
	"time"
)

// ConfigurationError reports a provider that cannot be called because a
// required setting (usually an API key) is missing. It is never retried.
type ConfigurationError struct {
	Provider string
	Setting  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: not configured (missing %s)", e.Provider, e.Setting)
}

// TimeoutError reports that every attempt against Host exceeded the per-call timeout.
type TimeoutError struct {
	Host  string
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: timed out after %s", e.Host, e.After)
}

// UpstreamError reports a non-2xx response, a transport failure (Status 0),
// or an undecodable body. Message is a short summary safe to log; it is
// never forwarded to API callers.
type UpstreamError struct {
	Host    string
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Host, e.Message)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Host, e.Status, e.Message)
}

// CircuitOpenError is returned without any network I/O while Host's circuit is open.
type CircuitOpenError struct {
	Host  string
	Until time.Time
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("%s: circuit open until %s after repeated failures", e.Host, e.Until.UTC().Format(time.RFC3339))
}
