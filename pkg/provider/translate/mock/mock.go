// Package mock provides a test double for the translate.Translator interface.
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/vocalis/pkg/provider/translate"
)

// TranslateCall records a single invocation of Translator.Translate.
type TranslateCall struct {
	// Ctx is the context passed to Translate.
	Ctx context.Context
	// Req is the request passed to Translate.
	Req translate.Request
}

// Translator is a mock implementation of translate.Translator.
type Translator struct {
	mu sync.Mutex

	// ProviderName is returned by Name. Defaults to "mock".
	ProviderName string

	// Text is the translation returned by Translate when Err is nil.
	Text string

	// Err, if non-nil, is returned as the error from Translate.
	Err error

	// Calls records every call to Translate in order.
	Calls []TranslateCall
}

// Ensure Translator implements translate.Translator at compile time.
var _ translate.Translator = (*Translator)(nil)

// Name returns ProviderName, or "mock" when unset.
func (t *Translator) Name() string {
	if t.ProviderName == "" {
		return "mock"
	}
	return t.ProviderName
}

// Translate records the call and returns Text, Err.
func (t *Translator) Translate(ctx context.Context, req translate.Request) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Calls = append(t.Calls, TranslateCall{Ctx: ctx, Req: req})
	if t.Err != nil {
		return "", t.Err
	}
	return t.Text, nil
}

// CallCount returns the number of Translate calls. Thread-safe.
func (t *Translator) CallCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.Calls)
}
