package observe

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/MrWong99/vocalis/pkg/provider/stt"
	sttmock "github.com/MrWong99/vocalis/pkg/provider/stt/mock"
	"github.com/MrWong99/vocalis/pkg/provider/translate"
	translatemock "github.com/MrWong99/vocalis/pkg/provider/translate/mock"
	"github.com/MrWong99/vocalis/pkg/provider/tts"
	ttsmock "github.com/MrWong99/vocalis/pkg/provider/tts/mock"
)

func TestWrapTranscriber_RecordsLatencyAndRequests(t *testing.T) {
	m, reader := newTestMetrics(t)
	inner := &sttmock.Transcriber{ProviderName: "mock", Text: "hello"}
	wrapped := WrapTranscriber(inner, m)

	text, err := wrapped.Transcribe(context.Background(), stt.Request{WAV: []byte("RIFF")})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "hello" {
		t.Errorf("text = %q, want %q", text, "hello")
	}
	if wrapped.Name() != "mock" {
		t.Errorf("Name = %q, want %q", wrapped.Name(), "mock")
	}

	rm := collect(t, reader)
	if met := findMetric(rm, "vocalis.stt.duration"); met == nil {
		t.Error("stt duration histogram not recorded")
	}
	if met := findMetric(rm, "vocalis.provider.requests"); met == nil {
		t.Error("provider request counter not recorded")
	}
	if met := findMetric(rm, "vocalis.provider.errors"); met != nil {
		t.Error("provider error counter recorded for a successful call")
	}
}

func TestWrapTranslator_CountsErrors(t *testing.T) {
	m, reader := newTestMetrics(t)
	inner := &translatemock.Translator{ProviderName: "mock", Err: errors.New("boom")}
	wrapped := WrapTranslator(inner, m)

	if _, err := wrapped.Translate(context.Background(), translate.Request{Text: "hi"}); err == nil {
		t.Fatal("expected the inner error to propagate")
	}

	rm := collect(t, reader)
	met := findMetric(rm, "vocalis.provider.errors")
	if met == nil {
		t.Fatal("provider error counter not recorded")
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok || sum.DataPoints[0].Value != 1 {
		t.Errorf("error count = %+v, want 1", met.Data)
	}
}

type stubDecoder struct {
	wav []byte
	err error
}

func (d *stubDecoder) PrepareWAV(context.Context, []byte, string) ([]byte, error) {
	return d.wav, d.err
}

func TestWrapDecoder_RecordsDuration(t *testing.T) {
	m, reader := newTestMetrics(t)
	wrapped := WrapDecoder(&stubDecoder{wav: []byte("RIFF")}, m)

	wav, err := wrapped.PrepareWAV(context.Background(), []byte("input"), "audio/wav")
	if err != nil {
		t.Fatalf("PrepareWAV: %v", err)
	}
	if len(wav) == 0 {
		t.Error("no wav returned")
	}

	rm := collect(t, reader)
	if met := findMetric(rm, "vocalis.decode.duration"); met == nil {
		t.Error("decode duration histogram not recorded")
	}
}

func TestWrapDecoder_RecordsDurationOnFailure(t *testing.T) {
	m, reader := newTestMetrics(t)
	wrapped := WrapDecoder(&stubDecoder{err: errors.New("boom")}, m)

	if _, err := wrapped.PrepareWAV(context.Background(), []byte("input"), "audio/webm"); err == nil {
		t.Fatal("expected the inner error to propagate")
	}

	rm := collect(t, reader)
	if met := findMetric(rm, "vocalis.decode.duration"); met == nil {
		t.Error("decode duration histogram not recorded for a failed decode")
	}
}

func TestWrapSynthesizer_RecordsDuration(t *testing.T) {
	m, reader := newTestMetrics(t)
	inner := &ttsmock.Synthesizer{ProviderName: "mock", Audio: []byte("RIFF")}
	wrapped := WrapSynthesizer(inner, m)

	audio, err := wrapped.Synthesize(context.Background(), tts.Request{Text: "hi", Voice: "nova"})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if len(audio) == 0 {
		t.Error("no audio returned")
	}

	rm := collect(t, reader)
	if met := findMetric(rm, "vocalis.tts.duration"); met == nil {
		t.Error("tts duration histogram not recorded")
	}
}
