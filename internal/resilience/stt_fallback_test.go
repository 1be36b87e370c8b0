package resilience

import (
	"context"
	"errors"
	"testing"

	"github.com/MrWong99/vocalis/pkg/provider/stt"
	sttmock "github.com/MrWong99/vocalis/pkg/provider/stt/mock"
)

func TestSTTFallback_PrimarySuccess(t *testing.T) {
	primary := &sttmock.Transcriber{Text: "hello"}
	secondary := &sttmock.Transcriber{Text: "unused"}

	fb := NewSTTFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("secondary", secondary)

	text, err := fb.Transcribe(context.Background(), stt.Request{WAV: []byte("RIFF"), Language: "en"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "hello" {
		t.Errorf("text = %q, want %q", text, "hello")
	}
	if primary.CallCount() != 1 {
		t.Fatalf("primary called %d times, want 1", primary.CallCount())
	}
	if secondary.CallCount() != 0 {
		t.Fatalf("secondary called %d times, want 0", secondary.CallCount())
	}
}

func TestSTTFallback_Failover(t *testing.T) {
	primary := &sttmock.Transcriber{Err: errors.New("primary down")}
	secondary := &sttmock.Transcriber{Text: "from fallback"}

	fb := NewSTTFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("secondary", secondary)

	text, err := fb.Transcribe(context.Background(), stt.Request{WAV: []byte("RIFF")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "from fallback" {
		t.Errorf("text = %q, want %q", text, "from fallback")
	}
	if secondary.CallCount() != 1 {
		t.Fatalf("secondary called %d times, want 1", secondary.CallCount())
	}
}

func TestSTTFallback_AllFail(t *testing.T) {
	primary := &sttmock.Transcriber{Err: errors.New("primary down")}
	secondary := &sttmock.Transcriber{Err: errors.New("secondary down")}

	fb := NewSTTFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("secondary", secondary)

	_, err := fb.Transcribe(context.Background(), stt.Request{WAV: []byte("RIFF")})
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("err = %v, want ErrAllFailed", err)
	}
}

func TestSTTFallback_CircuitOpensAfterRepeatedFailures(t *testing.T) {
	primary := &sttmock.Transcriber{Err: errors.New("primary down")}
	secondary := &sttmock.Transcriber{Text: "ok"}

	fb := NewSTTFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 2},
	})
	fb.AddFallback("secondary", secondary)

	for range 4 {
		if _, err := fb.Transcribe(context.Background(), stt.Request{WAV: []byte("RIFF")}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	// After MaxFailures the primary's breaker is open and is skipped.
	if primary.CallCount() != 2 {
		t.Errorf("primary called %d times, want 2", primary.CallCount())
	}
	if secondary.CallCount() != 4 {
		t.Errorf("secondary called %d times, want 4", secondary.CallCount())
	}
}
