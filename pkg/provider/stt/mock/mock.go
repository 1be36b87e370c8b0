// Package mock provides a test double for the stt.Transcriber interface.
//
// Pre-populate Text or Err to control the outcome and inspect Calls to verify
// what audio and language hints the caller submitted.
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/vocalis/pkg/provider/stt"
)

// TranscribeCall records a single invocation of Transcriber.Transcribe.
type TranscribeCall struct {
	// Ctx is the context passed to Transcribe.
	Ctx context.Context
	// Req is a copy of the request passed to Transcribe.
	Req stt.Request
}

// Transcriber is a mock implementation of stt.Transcriber.
type Transcriber struct {
	mu sync.Mutex

	// ProviderName is returned by Name. Defaults to "mock".
	ProviderName string

	// Text is the transcript returned by Transcribe when Err is nil.
	Text string

	// Err, if non-nil, is returned as the error from Transcribe.
	Err error

	// Calls records every call to Transcribe in order.
	Calls []TranscribeCall
}

// Ensure Transcriber implements stt.Transcriber at compile time.
var _ stt.Transcriber = (*Transcriber)(nil)

// Name returns ProviderName, or "mock" when unset.
func (t *Transcriber) Name() string {
	if t.ProviderName == "" {
		return "mock"
	}
	return t.ProviderName
}

// Transcribe records the call and returns Text, Err.
func (t *Transcriber) Transcribe(ctx context.Context, req stt.Request) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cp := req
	cp.WAV = make([]byte, len(req.WAV))
	copy(cp.WAV, req.WAV)
	t.Calls = append(t.Calls, TranscribeCall{Ctx: ctx, Req: cp})
	if t.Err != nil {
		return "", t.Err
	}
	return t.Text, nil
}

// CallCount returns the number of Transcribe calls. Thread-safe.
func (t *Transcriber) CallCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.Calls)
}

// Reset clears all recorded calls. Thread-safe.
func (t *Transcriber) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Calls = nil
}
