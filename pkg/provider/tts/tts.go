// Package tts defines the text-to-speech provider contract used for voice
// preview playback.
package tts

import "context"

// DefaultVoice is used when a request does not name a voice.
const DefaultVoice = "nova"

// Request carries one text snippet to synthesize.
type Request struct {
	// Text is the text to speak. Must not be empty.
	Text string

	// Voice is the provider voice identifier (e.g. "nova", "onyx").
	// Empty means [DefaultVoice].
	Voice string
}

// Synthesizer converts text into spoken audio.
//
// Implementations must be safe for concurrent use.
type Synthesizer interface {
	// Name identifies the provider in logs and metrics.
	Name() string

	// Synthesize returns a complete WAV byte buffer speaking req.Text.
	Synthesize(ctx context.Context, req Request) ([]byte, error)
}
