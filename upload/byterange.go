package upload

import (
	"strconv"
	"strings"
)

// Range is a half-open [Start, End) byte window.
type Range struct {
	Start int64
	End   int64
}

// Len returns the number of bytes in the window.
func (r Range) Len() int64 {
	return r.End - r.Start
}

// nextRange computes the byte window for the next chunk. Seekable sources
// are read from their current position; non-seekable ones from the number of
// bytes written so far. The end is clamped to the total length, so the
// result always satisfies start <= end <= length. Callers must not invoke
// this once written == length: the window would be empty.
func nextRange(written, position, chunkSize, length int64, seekable bool) Range {
	start := written
	if seekable {
		start = position
	}
	end := start + chunkSize
	if end > length {
		end = length
	}
	return Range{Start: start, End: end}
}

// parseRangeHeader parses a Range header of the form "bytes=<start>-<end>"
// (the "bytes=" prefix is optional). It returns false for anything it cannot
// parse in full: a malformed header carries no offset information and is
// never an error.
func parseRangeHeader(value string) (Range, bool) {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "bytes=")

	parts := strings.SplitN(value, "-", 2)
	if len(parts) != 2 {
		return Range{}, false
	}
	start, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		return Range{}, false
	}
	end, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return Range{}, false
	}
	if start < 0 || end < start {
		return Range{}, false
	}
	return Range{Start: start, End: end}, true
}
