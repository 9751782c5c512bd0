package ragflow

import "fmt"

// SessionCreationError means the backend rejected the session bootstrap or
// its response was missing the expected identifier. Fatal to the turn.
type SessionCreationError struct {
	StatusCode int
	Message    string
}

func (e *SessionCreationError) Error() string {
	return fmt.Sprintf("ragflow session creation failed (status %d): %s", e.StatusCode, e.Message)
}

// UpstreamError is a failed completion call: transport error, non-success
// HTTP status, or a non-zero backend code.
type UpstreamError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ragflow %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("ragflow %s failed (status %d): %s", e.Op, e.StatusCode, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
