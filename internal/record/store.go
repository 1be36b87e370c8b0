package record

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/MrWong99/vocalis/pkg/audio"
)

// Store is the concurrency-safe table of live recording sessions. A single
// lock covers every mutation so that "check expected sequence, append,
// increment" is atomic per session: two appends racing on the same sequence
// number result in exactly one success.
//
// The zero value is not usable; construct with NewStore.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*RecordingSession
	newSink  SinkFactory
}

// NewStore creates an empty Store allocating per-session sinks from newSink.
func NewStore(newSink SinkFactory) *Store {
	return &Store{
		sessions: make(map[string]*RecordingSession),
		newSink:  newSink,
	}
}

// Create validates the MIME type, allocates backing storage and inserts a new
// session. Returns ErrUnsupportedMediaType for MIME types outside the
// allow-list.
func (st *Store) Create(mimeType string, mode Mode, language, targetLanguage string) (*RecordingSession, error) {
	if !AllowedMIMEType(mimeType) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMediaType, mimeType)
	}

	id := newSessionID()
	sink, err := st.newSink(id)
	if err != nil {
		return nil, fmt.Errorf("record: allocate session storage: %w", err)
	}

	sess := &RecordingSession{
		ID:             id,
		MIMEType:       audio.CanonicalMIME(mimeType),
		Mode:           mode,
		Language:       language,
		TargetLanguage: targetLanguage,
		CreatedAt:      time.Now(),
		sink:           sink,
	}

	st.mu.Lock()
	st.sessions[id] = sess
	st.mu.Unlock()
	return sess, nil
}

// Get returns the session for id.
func (st *Store) Get(id string) (*RecordingSession, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	sess, ok := st.sessions[id]
	return sess, ok
}

// AppendChunk validates and applies one chunk: the session must exist, must
// not be finalizing, the chunk must be non-empty and seq must equal the
// session's expected sequence. On success the chunk is appended to storage,
// the counters advance and the next expected sequence is returned.
func (st *Store) AppendChunk(id string, seq int64, chunk []byte) (int64, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	sess, ok := st.sessions[id]
	if !ok {
		return 0, ErrUnknownSession
	}
	if sess.finalizing {
		return 0, ErrAlreadyFinalizing
	}
	if len(chunk) == 0 {
		return 0, ErrEmptyChunk
	}
	if seq != sess.expectedSeq {
		return 0, &SequenceError{Expected: sess.expectedSeq}
	}

	if err := sess.sink.Append(chunk); err != nil {
		return 0, err
	}
	sess.expectedSeq++
	sess.chunkCount++
	sess.totalBytes += int64(len(chunk))
	return sess.expectedSeq, nil
}

// BeginFinalize marks the session as finalizing and returns it. An empty
// session (no appended chunk) is removed and destroyed before
// ErrEmptyRecording is returned; a session already finalizing yields
// ErrAlreadyFinalizing and stays untouched.
func (st *Store) BeginFinalize(id string) (*RecordingSession, error) {
	st.mu.Lock()
	sess, ok := st.sessions[id]
	if !ok {
		st.mu.Unlock()
		return nil, ErrUnknownSession
	}
	if sess.finalizing {
		st.mu.Unlock()
		return nil, ErrAlreadyFinalizing
	}
	if sess.chunkCount == 0 {
		delete(st.sessions, id)
		st.mu.Unlock()
		destroySink(sess)
		return nil, ErrEmptyRecording
	}
	sess.finalizing = true
	st.mu.Unlock()
	return sess, nil
}

// ResetFinalize clears the finalizing flag so the client can retry finalize.
// A vanished session is ignored.
func (st *Store) ResetFinalize(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if sess, ok := st.sessions[id]; ok {
		sess.finalizing = false
	}
}

// Remove atomically pops the session, or returns nil when it is already gone.
// A session with a finalize in flight is left alone: destroying its sink here
// would pull the bytes out from under the finalize that owns them. The caller
// owns the returned session's sink.
func (st *Store) Remove(id string) *RecordingSession {
	st.mu.Lock()
	defer st.mu.Unlock()
	sess, ok := st.sessions[id]
	if !ok || sess.finalizing {
		return nil
	}
	delete(st.sessions, id)
	return sess
}

// take pops the session regardless of the finalizing flag. Only the finalize
// that set the flag may call it.
func (st *Store) take(id string) *RecordingSession {
	st.mu.Lock()
	defer st.mu.Unlock()
	sess, ok := st.sessions[id]
	if !ok {
		return nil
	}
	delete(st.sessions, id)
	return sess
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Sweep removes and destroys sessions created more than maxAge ago that are
// not currently finalizing, returning how many were evicted. It backs the
// optional abandoned-session reaper.
func (st *Store) Sweep(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	st.mu.Lock()
	var expired []*RecordingSession
	for id, sess := range st.sessions {
		if !sess.finalizing && sess.CreatedAt.Before(cutoff) {
			delete(st.sessions, id)
			expired = append(expired, sess)
		}
	}
	st.mu.Unlock()

	for _, sess := range expired {
		slog.Info("evicting abandoned recording session",
			"session_id", sess.ID,
			"age", time.Since(sess.CreatedAt).Round(time.Second))
		destroySink(sess)
	}
	return len(expired)
}

// destroySink releases a session's storage, logging instead of failing:
// storage cleanup must never mask the caller's primary result.
func destroySink(sess *RecordingSession) {
	if err := sess.sink.Destroy(); err != nil {
		slog.Warn("failed to release session storage",
			"session_id", sess.ID, "error", err)
	}
}
