package pipeline

import "fmt"

// ValidationError is a request the caller got wrong.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// UpstreamError is a transport failure talking to the generation backend.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream generation backend: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// InternalError is any other failure.
type InternalError struct {
	Err error
}

func (e *InternalError) Error() string {
	return e.Err.Error()
}

func (e *InternalError) Unwrap() error {
	return e.Err
}
