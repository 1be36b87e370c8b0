// Package stt defines the batch speech-to-text provider contract.
//
// Transcribers receive a complete recording as canonical WAV
// (mono, 16 kHz, 16-bit PCM) and return the full transcript in one call.
// Implementations live in subpackages (openai, whisper) plus a mock for
// tests; the recording pipeline composes them through a fallback group so
// a failing primary degrades to the next configured transcriber.
package stt

import "context"

// Request carries one complete recording to transcribe.
type Request struct {
	// WAV is the canonical WAV byte buffer (mono, 16 kHz, 16-bit PCM).
	WAV []byte

	// Language is an optional ISO 639-1 hint (e.g. "en", "de"). Empty means
	// the provider auto-detects the spoken language.
	Language string
}

// Transcriber converts a complete recording into text.
//
// Implementations must be safe for concurrent use.
type Transcriber interface {
	// Name identifies the provider in logs and metrics.
	Name() string

	// Transcribe returns the transcript of the recording in req. The returned
	// text is raw provider output; callers apply their own normalisation.
	Transcribe(ctx context.Context, req Request) (string, error)
}
