package upload

import (
	"fmt"
)

const maxErrorBodyLength = 1024

// ProtocolError reports a server response with a status code the upload
// protocol does not allow for the given step.
type ProtocolError struct {
	Step       string
	StatusCode int
	Body       string
}

func (e *ProtocolError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: HTTP %d", e.Step, e.StatusCode)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Step, e.StatusCode, e.Body)
}

// UploadError wraps a lower-level failure together with the in-flight session
// so the caller can decide whether to resume from the last confirmed offset.
// Session is nil when no session existed yet.
type UploadError struct {
	Message string
	Session *Session
	Err     error
}

func (e *UploadError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// PreconditionError reports invalid input detected before any request is
// attempted.
type PreconditionError struct {
	Message string
}

func (e *PreconditionError) Error() string {
	return e.Message
}

func uploadErrorf(session *Session, err error, format string, v ...interface{}) *UploadError {
	return &UploadError{
		Message: fmt.Sprintf(format, v...),
		Session: session,
		Err:     err,
	}
}

func errorSnippet(body []byte) string {
	if len(body) > maxErrorBodyLength {
		body = body[:maxErrorBodyLength]
	}
	return string(body)
}
