package record

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrWong99/vocalis/internal/lang"
	"github.com/MrWong99/vocalis/internal/textfmt"
	"github.com/MrWong99/vocalis/pkg/audio"
	"github.com/MrWong99/vocalis/pkg/provider/stt"
	"github.com/MrWong99/vocalis/pkg/provider/translate"
)

// DefaultMaxDuration is the recording length limit enforced after decoding,
// before any remote call.
const DefaultMaxDuration = 120 * time.Second

// Result is the payload returned by a successful finalize or single-shot
// transcription.
type Result struct {
	// SessionID identifies the finalized session. Empty for single-shot
	// transcriptions.
	SessionID string

	// Mode is the resolved processing mode.
	Mode Mode

	// Text is the normalised transcript.
	Text string

	// TranslatedText is the normalised translation. Empty unless Mode is
	// ModeTranslate.
	TranslatedText string

	// Duration is the decoded recording length.
	Duration time.Duration
}

// StartRequest carries the parameters of a new chunked upload session.
type StartRequest struct {
	// MIMEType is the declared container format of the chunks.
	MIMEType string

	// Mode selects transcribe or translate. Unrecognised values fall back
	// to transcribe.
	Mode string

	// Language is an optional spoken-language code ("default" or empty
	// means auto-detect).
	Language string

	// TargetLanguage is an optional translation target code.
	TargetLanguage string
}

// FinalizeRequest closes a session. The override fields replace the values
// given at session start when non-empty.
type FinalizeRequest struct {
	SessionID      string
	Mode           string
	Language       string
	TargetLanguage string
}

// Recorder drives the chunked upload lifecycle on top of a session store and
// runs the decode → transcribe → translate pipeline on finalize. It is safe
// for concurrent use.
type Recorder struct {
	store       *Store
	decoder     audio.Decoder
	transcriber stt.Transcriber
	translator  translate.Translator
	maxDuration time.Duration
}

// Option is a functional option for Recorder.
type Option func(*Recorder)

// WithMaxDuration overrides DefaultMaxDuration.
func WithMaxDuration(d time.Duration) Option {
	return func(r *Recorder) {
		if d > 0 {
			r.maxDuration = d
		}
	}
}

// NewRecorder constructs a Recorder. All collaborators are required.
func NewRecorder(store *Store, decoder audio.Decoder, transcriber stt.Transcriber, translator translate.Translator, opts ...Option) *Recorder {
	r := &Recorder{
		store:       store,
		decoder:     decoder,
		transcriber: transcriber,
		translator:  translator,
		maxDuration: DefaultMaxDuration,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Store exposes the underlying session store for readiness checks and the
// abandoned-session reaper.
func (r *Recorder) Store() *Store { return r.store }

// Start creates a new session. Returns ErrUnsupportedMediaType for MIME
// types outside the allow-list.
func (r *Recorder) Start(req StartRequest) (*RecordingSession, error) {
	sess, err := r.store.Create(req.MIMEType, ParseMode(req.Mode), req.Language, req.TargetLanguage)
	if err != nil {
		return nil, err
	}
	slog.Info("recording session started",
		"session_id", sess.ID,
		"mime_type", sess.MIMEType,
		"mode", sess.Mode)
	return sess, nil
}

// Append applies one ordered chunk and returns the next expected sequence
// number.
func (r *Recorder) Append(sessionID string, seq int64, chunk []byte) (int64, error) {
	return r.store.AppendChunk(sessionID, seq, chunk)
}

// Finalize closes the session and runs the transcription pipeline over the
// accumulated bytes.
//
// Terminal failures (empty recording, undecodable audio, duration limit,
// internal faults) remove the session and release its storage. Upstream
// provider failures preserve the session with the finalizing guard reset so
// the client may retry finalize without re-uploading chunks. On success the
// session is torn down exactly once.
func (r *Recorder) Finalize(ctx context.Context, req FinalizeRequest) (Result, error) {
	sess, err := r.store.BeginFinalize(req.SessionID)
	if err != nil {
		return Result{}, err
	}

	data, err := sess.sink.ReadAll()
	if err != nil {
		// Broken storage is unrecoverable for this session.
		r.teardown(req.SessionID)
		return Result{}, fmt.Errorf("record: read session storage: %w", err)
	}

	mode := sess.Mode
	if req.Mode != "" {
		mode = ParseMode(req.Mode)
	}
	language := sess.Language
	if req.Language != "" {
		language = req.Language
	}
	targetLanguage := sess.TargetLanguage
	if req.TargetLanguage != "" {
		targetLanguage = req.TargetLanguage
	}

	res, err := r.pipeline(ctx, data, sess.MIMEType, mode, language, targetLanguage)
	if err != nil {
		var upstream *UpstreamError
		if errors.As(err, &upstream) {
			// Retryable: keep the accumulated bytes for another finalize.
			r.store.ResetFinalize(req.SessionID)
			return Result{}, err
		}
		r.teardown(req.SessionID)
		return Result{}, err
	}

	r.teardown(req.SessionID)
	res.SessionID = req.SessionID
	slog.Info("recording finalized",
		"session_id", req.SessionID,
		"mode", res.Mode,
		"duration", res.Duration.Round(time.Millisecond))
	return res, nil
}

// Cancel removes the session and releases its storage. Canceling an unknown
// session is not an error, and a cancel racing an in-flight finalize is a
// no-op — the finalize tears the session down itself. The return value
// reports whether a session was actually removed.
func (r *Recorder) Cancel(sessionID string) bool {
	sess := r.store.Remove(sessionID)
	if sess == nil {
		return false
	}
	destroySink(sess)
	slog.Info("recording session canceled", "session_id", sessionID)
	return true
}

// Process runs the same decode → transcribe → translate pipeline over one
// complete upload, without any session bookkeeping. It backs the single-shot
// transcription endpoint.
func (r *Recorder) Process(ctx context.Context, data []byte, mimeType string, mode Mode, language, targetLanguage string) (Result, error) {
	if !AllowedMIMEType(mimeType) {
		return Result{}, fmt.Errorf("%w: %q", ErrUnsupportedMediaType, mimeType)
	}
	return r.pipeline(ctx, data, mimeType, mode, language, targetLanguage)
}

// pipeline decodes, enforces the duration limit and calls the remote
// providers. Provider failures are wrapped in UpstreamError; every other
// error is terminal for the recording.
func (r *Recorder) pipeline(ctx context.Context, data []byte, mimeType string, mode Mode, language, targetLanguage string) (Result, error) {
	wav, err := r.decoder.PrepareWAV(ctx, data, mimeType)
	if err != nil {
		if errors.Is(err, audio.ErrInvalidAudio) {
			return Result{}, err
		}
		return Result{}, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	duration, err := audio.WAVDuration(wav)
	if err != nil {
		return Result{}, fmt.Errorf("record: measure decoded audio: %w", err)
	}
	if duration > r.maxDuration {
		return Result{}, fmt.Errorf("%w: %s exceeds %s",
			ErrAudioTooLong, duration.Round(time.Second), r.maxDuration)
	}

	text, err := r.transcriber.Transcribe(ctx, stt.Request{
		WAV:      wav,
		Language: lang.Hint(language),
	})
	if err != nil {
		return Result{}, &UpstreamError{Op: "transcription", Err: err}
	}

	res := Result{
		Mode:     mode,
		Text:     textfmt.FormatStructured(text),
		Duration: duration,
	}

	if mode == ModeTranslate {
		translated, err := r.translator.Translate(ctx, translate.Request{
			Text:       res.Text,
			TargetLang: lang.Name(targetLanguage),
		})
		if err != nil {
			return Result{}, &UpstreamError{Op: "translation", Err: err}
		}
		res.TranslatedText = textfmt.FormatStructured(translated)
	}

	return res, nil
}

// teardown removes the session and releases its storage, tolerating a
// session that is already gone. It bypasses the finalizing guard because it
// runs on behalf of the finalize that set it.
func (r *Recorder) teardown(sessionID string) {
	if sess := r.store.take(sessionID); sess != nil {
		destroySink(sess)
	}
}
