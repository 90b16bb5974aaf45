package backend

import (
	"fmt"

	"github.com/launchdarkly/bolt-contract-tests/servicedef"
)

// ProtocolError is a framing or connectivity failure on the channel. After one, the channel is
// unusable and the test run should stop.
type ProtocolError struct {
	Op  string
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("harness protocol error (%s): %s", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// CallbackError is returned when a callback handler failed while a request was in progress. The
// adapter was told about the failure with a FrontendError; Response is what it answered to the
// original request afterward.
type CallbackError struct {
	Response interface{}
	Err      error
}

func (e *CallbackError) Error() string {
	return "FrontendError : " + e.Err.Error()
}

func (e *CallbackError) Unwrap() error {
	return e.Err
}

// UnknownHandleError means the adapter referred to a handle id that the harness never registered.
// It fails the test instead of being reported back to the adapter.
type UnknownHandleError struct {
	Kind string
	ID   string
}

func (e *UnknownHandleError) Error() string {
	return fmt.Sprintf("adapter provided unknown %s id: %s not found", e.Kind, e.ID)
}

// UnexpectedResponse builds the error for a response of the wrong kind.
func UnexpectedResponse(expected string, actual interface{}) error {
	return fmt.Errorf("should be %s but was %s: %+v", expected, servicedef.MessageName(actual), actual)
}
