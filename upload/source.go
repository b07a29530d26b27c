package upload

import (
	"fmt"
	"io"
	"os"
)

// Source is a readable byte source with a known total length. The upload
// loop reads from it sequentially and never closes it; ownership stays with
// the caller. A Source is not assumed to be safe for concurrent use.
type Source interface {
	// Length returns the total number of bytes the source holds.
	Length() int64

	// Seekable reports whether the source supports random access.
	Seekable() bool

	// Position returns the current read position. Only meaningful for
	// seekable sources.
	Position() (int64, error)

	// ReadRange returns the bytes in the half-open window [start, end).
	// Seekable sources position themselves; non-seekable sources only
	// serve the next sequential window.
	ReadRange(start, end int64) ([]byte, error)
}

// Seeker is implemented by sources that can reposition, which is required to
// resume from a server-reported offset that is behind the client's.
type Seeker interface {
	SeekTo(pos int64) error
}

// FileSource reads upload data from a file on disk.
type FileSource struct {
	file   *os.File
	length int64
}

// NewFileSource opens the file at path for uploading. The caller owns the
// returned source and should Close it when the upload is done.
func NewFileSource(path string) (*FileSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		if closeErr := file.Close(); closeErr != nil {
			return nil, fmt.Errorf("stat file: %v (close file: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("stat file: %w", err)
	}
	return &FileSource{file: file, length: info.Size()}, nil
}

// Length ...
func (s *FileSource) Length() int64 {
	return s.length
}

// Seekable ...
func (s *FileSource) Seekable() bool {
	return true
}

// Position ...
func (s *FileSource) Position() (int64, error) {
	return s.file.Seek(0, io.SeekCurrent)
}

// ReadRange ...
func (s *FileSource) ReadRange(start, end int64) ([]byte, error) {
	if start < 0 || end < start {
		return nil, fmt.Errorf("invalid range [%d, %d)", start, end)
	}
	if _, err := s.file.Seek(start, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to %d: %w", start, err)
	}
	buf := make([]byte, end-start)
	n, err := io.ReadFull(s.file, buf)
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("read range [%d, %d): %w", start, end, err)
	}
	return buf[:n], nil
}

// SeekTo ...
func (s *FileSource) SeekTo(pos int64) error {
	_, err := s.file.Seek(pos, io.SeekStart)
	return err
}

// Close closes the underlying file.
func (s *FileSource) Close() error {
	return s.file.Close()
}

// BytesSource serves upload data from an in-memory buffer.
type BytesSource struct {
	data []byte
	pos  int64
}

// NewBytesSource ...
func NewBytesSource(data []byte) *BytesSource {
	return &BytesSource{data: data}
}

// Length ...
func (s *BytesSource) Length() int64 {
	return int64(len(s.data))
}

// Seekable ...
func (s *BytesSource) Seekable() bool {
	return true
}

// Position ...
func (s *BytesSource) Position() (int64, error) {
	return s.pos, nil
}

// ReadRange ...
func (s *BytesSource) ReadRange(start, end int64) ([]byte, error) {
	if start < 0 || end < start || start > int64(len(s.data)) {
		return nil, fmt.Errorf("invalid range [%d, %d) for %d bytes", start, end, len(s.data))
	}
	if end > int64(len(s.data)) {
		end = int64(len(s.data))
	}
	s.pos = end
	return s.data[start:end], nil
}

// SeekTo ...
func (s *BytesSource) SeekTo(pos int64) error {
	if pos < 0 || pos > int64(len(s.data)) {
		return fmt.Errorf("position %d out of range [0, %d]", pos, len(s.data))
	}
	s.pos = pos
	return nil
}

// ReaderSource wraps a non-seekable stream with a declared length. It can
// only serve sequential windows: if the server loses bytes mid-upload there
// is no way to rewind, and the upload fails instead.
type ReaderSource struct {
	reader io.Reader
	length int64
	pos    int64
}

// NewReaderSource ...
func NewReaderSource(reader io.Reader, length int64) *ReaderSource {
	return &ReaderSource{reader: reader, length: length}
}

// Length ...
func (s *ReaderSource) Length() int64 {
	return s.length
}

// Seekable ...
func (s *ReaderSource) Seekable() bool {
	return false
}

// Position ...
func (s *ReaderSource) Position() (int64, error) {
	return 0, fmt.Errorf("source is not seekable")
}

// ReadRange ...
func (s *ReaderSource) ReadRange(start, end int64) ([]byte, error) {
	if start != s.pos {
		return nil, fmt.Errorf("non-sequential read at %d, stream is at %d", start, s.pos)
	}
	if end < start {
		return nil, fmt.Errorf("invalid range [%d, %d)", start, end)
	}
	buf := make([]byte, end-start)
	n, err := io.ReadFull(s.reader, buf)
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("read range [%d, %d): %w", start, end, err)
	}
	s.pos += int64(n)
	return buf[:n], nil
}
