package observe

import (
	"context"
	"time"

	"github.com/MrWong99/vocalis/pkg/audio"
	"github.com/MrWong99/vocalis/pkg/provider/stt"
	"github.com/MrWong99/vocalis/pkg/provider/translate"
	"github.com/MrWong99/vocalis/pkg/provider/tts"
)

// Provider decorators that record per-call latency and request/error counters
// around the configured backends. main wraps every provider exactly once, so
// fallback chains are measured as a single logical call.

type instrumentedTranscriber struct {
	inner stt.Transcriber
	m     *Metrics
}

// WrapTranscriber returns t with latency and request metrics recorded on
// every Transcribe call.
func WrapTranscriber(t stt.Transcriber, m *Metrics) stt.Transcriber {
	return &instrumentedTranscriber{inner: t, m: m}
}

func (t *instrumentedTranscriber) Name() string { return t.inner.Name() }

func (t *instrumentedTranscriber) Transcribe(ctx context.Context, req stt.Request) (string, error) {
	start := time.Now()
	text, err := t.inner.Transcribe(ctx, req)
	t.m.STTDuration.Record(ctx, time.Since(start).Seconds())
	t.m.RecordProviderRequest(ctx, t.inner.Name(), "stt", statusOf(err))
	if err != nil {
		t.m.RecordProviderError(ctx, t.inner.Name(), "stt")
	}
	return text, err
}

type instrumentedTranslator struct {
	inner translate.Translator
	m     *Metrics
}

// WrapTranslator returns t with latency and request metrics recorded on
// every Translate call.
func WrapTranslator(t translate.Translator, m *Metrics) translate.Translator {
	return &instrumentedTranslator{inner: t, m: m}
}

func (t *instrumentedTranslator) Name() string { return t.inner.Name() }

func (t *instrumentedTranslator) Translate(ctx context.Context, req translate.Request) (string, error) {
	start := time.Now()
	text, err := t.inner.Translate(ctx, req)
	t.m.TranslateDuration.Record(ctx, time.Since(start).Seconds())
	t.m.RecordProviderRequest(ctx, t.inner.Name(), "translate", statusOf(err))
	if err != nil {
		t.m.RecordProviderError(ctx, t.inner.Name(), "translate")
	}
	return text, err
}

type instrumentedSynthesizer struct {
	inner tts.Synthesizer
	m     *Metrics
}

// WrapSynthesizer returns s with latency and request metrics recorded on
// every Synthesize call.
func WrapSynthesizer(s tts.Synthesizer, m *Metrics) tts.Synthesizer {
	return &instrumentedSynthesizer{inner: s, m: m}
}

func (s *instrumentedSynthesizer) Name() string { return s.inner.Name() }

func (s *instrumentedSynthesizer) Synthesize(ctx context.Context, req tts.Request) ([]byte, error) {
	start := time.Now()
	audio, err := s.inner.Synthesize(ctx, req)
	s.m.TTSDuration.Record(ctx, time.Since(start).Seconds())
	s.m.RecordProviderRequest(ctx, s.inner.Name(), "tts", statusOf(err))
	if err != nil {
		s.m.RecordProviderError(ctx, s.inner.Name(), "tts")
	}
	return audio, err
}

type instrumentedDecoder struct {
	inner audio.Decoder
	m     *Metrics
}

// WrapDecoder returns d with decode latency recorded on every PrepareWAV
// call. Decode runs in-process (or in an ffmpeg subprocess), so unlike the
// provider wrappers there are no request/error counters to keep.
func WrapDecoder(d audio.Decoder, m *Metrics) audio.Decoder {
	return &instrumentedDecoder{inner: d, m: m}
}

func (d *instrumentedDecoder) PrepareWAV(ctx context.Context, data []byte, mimeType string) ([]byte, error) {
	start := time.Now()
	wav, err := d.inner.PrepareWAV(ctx, data, mimeType)
	d.m.DecodeDuration.Record(ctx, time.Since(start).Seconds())
	return wav, err
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
