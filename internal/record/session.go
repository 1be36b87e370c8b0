// Package record implements the chunked browser-recording upload protocol:
// a session-based, strictly ordered, resumable upload of streamed audio
// chunks that are reassembled server-side and handed to the transcription
// pipeline on finalize.
//
// The Store owns all live sessions behind a single lock; the Recorder drives
// the start/append/finalize/cancel lifecycle on top of it and orchestrates
// decode, transcription and translation.
package record

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/MrWong99/vocalis/pkg/audio"
)

// Mode selects what happens to the transcript after transcription.
type Mode string

const (
	// ModeTranscribe returns the transcript as-is.
	ModeTranscribe Mode = "transcribe"

	// ModeTranslate additionally translates the transcript into the target
	// language.
	ModeTranslate Mode = "translate"
)

// ParseMode maps a client-supplied mode string to a Mode. Anything other
// than "translate" (including empty and unrecognised values) resolves to
// ModeTranscribe.
func ParseMode(s string) Mode {
	if Mode(s) == ModeTranslate {
		return ModeTranslate
	}
	return ModeTranscribe
}

// allowedMIMETypes is the upload allow-list: canonical WAV variants plus the
// compressed containers produced by browser recorders.
var allowedMIMETypes = map[string]struct{}{
	"audio/wav":   {},
	"audio/x-wav": {},
	"audio/webm":  {},
	"audio/ogg":   {},
}

// AllowedMIMEType reports whether mimeType is accepted for upload.
// Comparison is case-insensitive with MIME parameters stripped.
func AllowedMIMEType(mimeType string) bool {
	_, ok := allowedMIMETypes[audio.CanonicalMIME(mimeType)]
	return ok
}

// RecordingSession tracks one in-progress chunked upload. All mutable fields
// are guarded by the owning store's lock; handlers never mutate a session
// directly.
type RecordingSession struct {
	// ID is the server-generated opaque session identifier.
	ID string

	// MIMEType is the canonical declared container format of the chunks.
	// Immutable after creation.
	MIMEType string

	// Mode is the processing mode requested at session start. Finalize may
	// override it.
	Mode Mode

	// Language is the optional spoken-language code from session start.
	Language string

	// TargetLanguage is the optional translation target code from session
	// start.
	TargetLanguage string

	// CreatedAt records when the session was started.
	CreatedAt time.Time

	sink        ChunkSink
	expectedSeq int64
	chunkCount  int64
	totalBytes  int64
	finalizing  bool
}

// ExpectedSequence returns the sequence number the next append must carry.
// Only meaningful as a snapshot; the store may advance it concurrently.
func (s *RecordingSession) ExpectedSequence() int64 { return s.expectedSeq }

// newSessionID returns a 32-character random hex identifier.
func newSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms.
		panic("record: read random bytes: " + err.Error())
	}
	return hex.EncodeToString(b)
}
