package upload

import (
	"time"
)

// chunkStats tracks chunk timing for progress reporting. A session is
// single-threaded, so no locking is needed.
type chunkStats struct {
	sum            time.Duration
	finishedChunks int64
}

func (s *chunkStats) update(d time.Duration) {
	s.sum += d
	s.finishedChunks++
}

func (s *chunkStats) average() time.Duration {
	if s.finishedChunks == 0 {
		return 0
	}
	return s.sum / time.Duration(s.finishedChunks)
}
