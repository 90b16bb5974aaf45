package frontend

import "fmt"

// ApplicationError is returned from a transaction function to fail the attempt the way an error
// in user code would. The adapter decides whether to retry.
type ApplicationError struct {
	Msg string
}

func (e *ApplicationError) Error() string {
	return "ApplicationError : " + e.Msg
}

func NewApplicationError(format string, args ...interface{}) *ApplicationError {
	return &ApplicationError{Msg: fmt.Sprintf(format, args...)}
}
