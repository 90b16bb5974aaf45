package servicedef

import "fmt"

// DriverError is a failure raised by the driver under test. The adapter keeps the original error
// under ID, so that RetryableNegative can hand it back verbatim.
type DriverError struct {
	ID        string `json:"id"`
	ErrorType string `json:"errorType"`
	Msg       string `json:"msg"`
	Code      string `json:"code"`
	Retryable *bool  `json:"retryable,omitempty"`
}

func (e *DriverError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("DriverError : %s : %s (%s)", e.ErrorType, e.Msg, e.Code)
	}
	return fmt.Sprintf("DriverError : %s : %s", e.ErrorType, e.Msg)
}

// FrontendError is a failure in harness-side code that the driver called into. It travels in
// both directions: the harness sends it when a callback handler fails, and the adapter answers
// with it when it surfaces such a failure.
type FrontendError struct {
	Msg string `json:"msg"`
}

func (e *FrontendError) Error() string {
	return "FrontendError : " + e.Msg
}

// BackendError reports a bug in the adapter itself.
type BackendError struct {
	Msg string `json:"msg"`
}

func (e *BackendError) Error() string {
	return "BackendError : " + e.Msg
}

// ErrorCategory is a driver-neutral name for a kind of failure. Tests assert on categories; the
// mapping from a driver's own error types lives with the test runner.
type ErrorCategory string

const (
	ErrServiceUnavailable    ErrorCategory = "service-unavailable"
	ErrSessionExpired        ErrorCategory = "session-expired"
	ErrNotLeader             ErrorCategory = "not-leader"
	ErrForbiddenOnReadOnly   ErrorCategory = "forbidden-on-read-only"
	ErrClientError           ErrorCategory = "client-error"
	ErrFatalDiscovery        ErrorCategory = "fatal-discovery"
	ErrSecurity              ErrorCategory = "security"
	ErrTokenExpired          ErrorCategory = "token-expired"
	ErrIllegalState          ErrorCategory = "illegal-state"
	ErrTransient             ErrorCategory = "transient"
	ErrNotSingle             ErrorCategory = "not-single"
	ErrInvalidConfiguration  ErrorCategory = "invalid-configuration"
	ErrConnectionReadTimeout ErrorCategory = "connection-read-timeout"
	ErrIncompleteCommit      ErrorCategory = "incomplete-commit"
	ErrConnectivity          ErrorCategory = "connectivity"
	ErrResultConsumed        ErrorCategory = "result-consumed"
	ErrIllegalArgument       ErrorCategory = "illegal-argument"
	ErrProtocol              ErrorCategory = "protocol"
	ErrTransaction           ErrorCategory = "transaction"
	ErrManagedTransaction    ErrorCategory = "managed-transaction"
	ErrUntrustedServer       ErrorCategory = "untrusted-server"
)

var AllErrorCategories = []ErrorCategory{
	ErrServiceUnavailable, ErrSessionExpired, ErrNotLeader, ErrForbiddenOnReadOnly, ErrClientError,
	ErrFatalDiscovery, ErrSecurity, ErrTokenExpired, ErrIllegalState, ErrTransient, ErrNotSingle,
	ErrInvalidConfiguration, ErrConnectionReadTimeout, ErrIncompleteCommit, ErrConnectivity,
	ErrResultConsumed, ErrIllegalArgument, ErrProtocol, ErrTransaction, ErrManagedTransaction,
	ErrUntrustedServer,
}
