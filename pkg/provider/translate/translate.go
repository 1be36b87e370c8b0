// Package translate defines the text translation provider contract.
//
// Translators receive a finished transcript and a human-readable target
// language name and return the translated text. Implementations live in
// subpackages (openai, anyllm) plus a mock for tests.
package translate

import (
	"context"
	"fmt"
)

// Request carries one transcript to translate.
type Request struct {
	// Text is the source text.
	Text string

	// TargetLang is the human-readable target language name
	// (e.g. "Deutsch (German)"), not an ISO code. Chat models follow
	// language names far more reliably than bare codes.
	TargetLang string
}

// Translator translates a transcript into a target language.
//
// Implementations must be safe for concurrent use.
type Translator interface {
	// Name identifies the provider in logs and metrics.
	Name() string

	// Translate returns the translation of req.Text into req.TargetLang.
	Translate(ctx context.Context, req Request) (string, error)
}

// ChatPrompt renders the instruction sent to chat-based translation backends.
// Both the openai and anyllm implementations use the same wire prompt so that
// switching backends does not change output structure.
func ChatPrompt(target, text string) string {
	return fmt.Sprintf("Translate the following text to %s. "+
		"Format the translation into clear paragraphs separated by blank lines. "+
		"Return only the translated text.\n\n%s", target, text)
}
