package packstream

import (
	"fmt"
)

type OverflowError struct {
	msg string
}

func (e *OverflowError) Error() string {
	return e.msg
}

type UnsupportedTypeError struct {
	value interface{}
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("packing of type %T is not supported", e.value)
}

type IoError struct {
	inner error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("IO error: %s", e.inner)
}

func (e *IoError) Unwrap() error {
	return e.inner
}

type IllegalFormatError struct {
	msg string
}

func (e *IllegalFormatError) Error() string {
	return e.msg
}
