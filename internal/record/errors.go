package record

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by the store and recorder. The HTTP layer maps
// them to wire codes and status codes; everything else is treated as an
// internal fault.
var (
	// ErrUnsupportedMediaType is returned by Start when the declared MIME
	// type is not in the upload allow-list.
	ErrUnsupportedMediaType = errors.New("record: unsupported media type")

	// ErrUnknownSession is returned when a session id does not exist,
	// either because it never did or because the session already ended.
	ErrUnknownSession = errors.New("record: unknown session")

	// ErrEmptyChunk is returned by Append when the chunk carries no bytes.
	ErrEmptyChunk = errors.New("record: empty chunk")

	// ErrEmptyRecording is returned by Finalize when no chunk was ever
	// appended. The session is removed.
	ErrEmptyRecording = errors.New("record: recording has no audio data")

	// ErrAlreadyFinalizing is returned when a finalize is already in flight
	// for the session.
	ErrAlreadyFinalizing = errors.New("record: session is already finalizing")

	// ErrAudioTooLong is returned when the decoded recording exceeds the
	// configured duration limit. The session is removed.
	ErrAudioTooLong = errors.New("record: audio duration exceeds the limit")

	// ErrDecodeFailed wraps decoder faults the uploaded bytes did not cause,
	// such as a missing ffmpeg binary or a failed subprocess spawn. Input
	// that cannot be decoded surfaces as audio.ErrInvalidAudio instead. The
	// session is removed.
	ErrDecodeFailed = errors.New("record: audio decode failed")
)

// SequenceError reports an append whose sequence number does not match the
// session's expected value. Expected is surfaced so the client can
// resynchronise or abort.
type SequenceError struct {
	Expected int64
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("record: out-of-order chunk, expected sequence %d", e.Expected)
}

// UpstreamError reports a failed remote provider call during finalize.
// The session is preserved so the client may retry finalize without
// re-uploading chunks.
type UpstreamError struct {
	// Op names the failed pipeline stage: "transcription", "translation"
	// or "tts".
	Op string

	// Err is the provider error.
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("record: %s failed: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
