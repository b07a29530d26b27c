package upload

import (
	"fmt"
)

// Status is the lifecycle state of an upload session.
type Status int

const (
	// StatusNotStarted means the session exists but no chunk has been sent.
	StatusNotStarted Status = iota
	// StatusInProgress means chunks are being transmitted.
	StatusInProgress
	// StatusAwaitingVerification means the client believes every byte has
	// been sent and is waiting for the server to confirm.
	StatusAwaitingVerification
	// StatusCompleted means the server confirmed the upload and the
	// completion call succeeded. Terminal.
	StatusCompleted
	// StatusFailed means the upload loop aborted on an unrecoverable
	// error. Terminal for the loop; the caller may resume the session in
	// a new attempt.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusNotStarted:
		return "not started"
	case StatusInProgress:
		return "in progress"
	case StatusAwaitingVerification:
		return "awaiting verification"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown (%d)", int(s))
	}
}

// Session tracks the progress of one resumable upload: the ticket that
// authorizes it, the source it reads from, and how many bytes the client
// believes the server holds. A session is mutated only by the upload loop
// and is not safe for concurrent use; independent sessions may run in
// parallel.
type Session struct {
	ticket       *Ticket
	source       Source
	chunkSize    int64
	bytesWritten int64
	status       Status
	clipURI      string
}

func newSession(ticket *Ticket, source Source, chunkSize int64) (*Session, error) {
	if ticket == nil {
		return nil, &PreconditionError{Message: "upload ticket is nil"}
	}
	if source == nil {
		return nil, &PreconditionError{Message: "content source is nil"}
	}
	if chunkSize <= 0 {
		return nil, &PreconditionError{Message: fmt.Sprintf("chunk size must be positive, got %d", chunkSize)}
	}
	if source.Length() < 0 {
		return nil, &PreconditionError{Message: fmt.Sprintf("content source reports negative length %d", source.Length())}
	}
	return &Session{
		ticket:    ticket,
		source:    source,
		chunkSize: chunkSize,
		status:    StatusNotStarted,
	}, nil
}

// Ticket returns the ticket the session was created with.
func (s *Session) Ticket() *Ticket {
	return s.ticket
}

// Status ...
func (s *Session) Status() Status {
	return s.status
}

// BytesWritten returns the number of bytes the client believes the server
// durably holds.
func (s *Session) BytesWritten() int64 {
	return s.bytesWritten
}

// Length returns the total number of bytes to upload.
func (s *Session) Length() int64 {
	return s.source.Length()
}

// ClipURI returns the final resource location assigned by the server. Empty
// until the session completes.
func (s *Session) ClipURI() string {
	return s.clipURI
}

// AllBytesWritten reports whether the client believes every byte has been
// sent.
func (s *Session) AllBytesWritten() bool {
	return s.bytesWritten >= s.source.Length()
}

func (s *Session) start() {
	s.status = StatusInProgress
}

// advance credits n sent bytes, clamped to the total length.
func (s *Session) advance(n int64) {
	s.bytesWritten += n
	if length := s.source.Length(); s.bytesWritten > length {
		s.bytesWritten = length
	}
	s.recomputeStatus()
}

// reconcile adopts the server-reported offset as ground truth, discarding
// the client's own count.
func (s *Session) reconcile(serverBytes int64) {
	s.bytesWritten = serverBytes
	if s.bytesWritten < 0 {
		s.bytesWritten = 0
	}
	if length := s.source.Length(); s.bytesWritten > length {
		s.bytesWritten = length
	}
	s.recomputeStatus()
}

// restart makes a failed session eligible for another loop run. Completed
// sessions stay completed.
func (s *Session) restart() {
	if s.status == StatusCompleted {
		return
	}
	s.recomputeStatus()
}

func (s *Session) recomputeStatus() {
	if s.AllBytesWritten() {
		s.status = StatusAwaitingVerification
	} else {
		s.status = StatusInProgress
	}
}

func (s *Session) complete(clipURI string) {
	s.clipURI = clipURI
	s.status = StatusCompleted
}

func (s *Session) fail() {
	s.status = StatusFailed
}
