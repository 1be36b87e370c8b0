package record

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ChunkSink is an append-only byte accumulator with read-back, exclusively
// owned by one recording session. Implementations do not need to be
// concurrency-safe on their own: the store serialises all access per session.
type ChunkSink interface {
	// Append writes p to the end of the accumulated buffer.
	Append(p []byte) error

	// ReadAll returns the complete accumulated buffer.
	ReadAll() ([]byte, error)

	// Destroy releases the backing storage. It is called exactly once, after
	// which the sink must not be used again.
	Destroy() error
}

// SinkFactory allocates a fresh empty sink for a new session.
type SinkFactory func(sessionID string) (ChunkSink, error)

// Compile-time interface assertions.
var (
	_ ChunkSink = (*fileSink)(nil)
	_ ChunkSink = (*memorySink)(nil)
)

// fileSink accumulates chunks in a spool file on local disk.
type fileSink struct {
	path string
	f    *os.File
}

// NewFileSinkFactory returns a SinkFactory spooling each session to
// "<dir>/<session id>.part". The directory is created if missing.
func NewFileSinkFactory(dir string) (SinkFactory, error) {
	if dir == "" {
		return nil, errors.New("record: spool directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("record: create spool directory: %w", err)
	}
	return func(sessionID string) (ChunkSink, error) {
		path := filepath.Join(dir, sessionID+".part")
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, fmt.Errorf("record: create spool file: %w", err)
		}
		return &fileSink{path: path, f: f}, nil
	}, nil
}

func (s *fileSink) Append(p []byte) error {
	if _, err := s.f.Write(p); err != nil {
		return fmt.Errorf("record: append to spool file: %w", err)
	}
	return nil
}

func (s *fileSink) ReadAll() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("record: read spool file: %w", err)
	}
	return data, nil
}

func (s *fileSink) Destroy() error {
	closeErr := s.f.Close()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("record: remove spool file: %w", err)
	}
	return closeErr
}

// memorySink accumulates chunks in memory. Used in tests and available for
// deployments that prefer not to touch disk.
type memorySink struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// NewMemorySinkFactory returns a SinkFactory backed by in-memory buffers.
func NewMemorySinkFactory() SinkFactory {
	return func(string) (ChunkSink, error) {
		return &memorySink{}, nil
	}
}

func (s *memorySink) Append(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf.Write(p)
	return nil
}

func (s *memorySink) ReadAll() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, s.buf.Len())
	copy(out, s.buf.Bytes())
	return out, nil
}

func (s *memorySink) Destroy() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf.Reset()
	return nil
}
