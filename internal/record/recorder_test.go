package record_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrWong99/vocalis/internal/record"
	"github.com/MrWong99/vocalis/pkg/audio"
	"github.com/MrWong99/vocalis/pkg/provider/stt"
	sttmock "github.com/MrWong99/vocalis/pkg/provider/stt/mock"
	translatemock "github.com/MrWong99/vocalis/pkg/provider/translate/mock"
)

// wavBytes returns a canonical WAV buffer holding ms milliseconds of silence.
func wavBytes(ms int) []byte {
	samples := audio.CanonicalSampleRate * ms / 1000
	return audio.EncodeWAV(make([]byte, samples*2), audio.CanonicalSampleRate, audio.CanonicalChannels)
}

func newTestRecorder(transcriber stt.Transcriber, translator *translatemock.Translator, opts ...record.Option) *record.Recorder {
	store := record.NewStore(record.NewMemorySinkFactory())
	return record.NewRecorder(store, audio.NewFFmpegDecoder(""), transcriber, translator, opts...)
}

func TestStartRejectsUnsupportedMIMEType(t *testing.T) {
	t.Parallel()

	r := newTestRecorder(&sttmock.Transcriber{}, &translatemock.Translator{})
	_, err := r.Start(record.StartRequest{MIMEType: "audio/mp4"})
	if !errors.Is(err, record.ErrUnsupportedMediaType) {
		t.Fatalf("expected ErrUnsupportedMediaType, got %v", err)
	}
	if r.Store().Len() != 0 {
		t.Error("no session may be created for a rejected MIME type")
	}
}

func TestStartDefaultsToTranscribeMode(t *testing.T) {
	t.Parallel()

	r := newTestRecorder(&sttmock.Transcriber{}, &translatemock.Translator{})
	for _, mode := range []string{"", "transcribe", "shout"} {
		sess, err := r.Start(record.StartRequest{MIMEType: "audio/wav", Mode: mode})
		if err != nil {
			t.Fatalf("Start(mode=%q): %v", mode, err)
		}
		if sess.Mode != record.ModeTranscribe {
			t.Errorf("Start(mode=%q): mode = %q, want transcribe", mode, sess.Mode)
		}
	}
}

func TestFinalizeEndToEndTranslate(t *testing.T) {
	t.Parallel()

	transcriber := &sttmock.Transcriber{Text: "Hello world"}
	translator := &translatemock.Translator{Text: "Hola mundo"}
	r := newTestRecorder(transcriber, translator)

	sess, err := r.Start(record.StartRequest{
		MIMEType:       "audio/wav",
		Mode:           "translate",
		Language:       "en",
		TargetLanguage: "es",
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Stream the recording in two ordered chunks.
	wav := wavBytes(500)
	split := len(wav) / 2
	next, err := r.Append(sess.ID, 0, wav[:split])
	if err != nil {
		t.Fatalf("append seq=0: %v", err)
	}
	if next != 1 {
		t.Errorf("next sequence = %d, want 1", next)
	}
	next, err = r.Append(sess.ID, 1, wav[split:])
	if err != nil {
		t.Fatalf("append seq=1: %v", err)
	}
	if next != 2 {
		t.Errorf("next sequence = %d, want 2", next)
	}

	res, err := r.Finalize(context.Background(), record.FinalizeRequest{SessionID: sess.ID})
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if res.SessionID != sess.ID {
		t.Errorf("result session id = %q, want %q", res.SessionID, sess.ID)
	}
	if res.Mode != record.ModeTranslate {
		t.Errorf("result mode = %q, want translate", res.Mode)
	}
	if res.Text != "Hello world" {
		t.Errorf("result text = %q, want %q", res.Text, "Hello world")
	}
	if res.TranslatedText != "Hola mundo" {
		t.Errorf("result translation = %q, want %q", res.TranslatedText, "Hola mundo")
	}
	if res.Duration <= 0 {
		t.Errorf("result duration = %v, want > 0", res.Duration)
	}

	// Language hints reach the providers resolved: "en" as ISO hint, "es" as
	// display name.
	if got := transcriber.Calls[0].Req.Language; got != "en" {
		t.Errorf("transcriber language hint = %q, want en", got)
	}
	if got := translator.Calls[0].Req.TargetLang; got != "Español (Spanish)" {
		t.Errorf("translator target = %q, want the display name", got)
	}

	// The session is gone after a successful finalize.
	if _, ok := r.Store().Get(sess.ID); ok {
		t.Error("session should have been removed after finalize")
	}
}

func TestFinalizeTranscribeModeSkipsTranslation(t *testing.T) {
	t.Parallel()

	translator := &translatemock.Translator{Text: "should not be used"}
	r := newTestRecorder(&sttmock.Transcriber{Text: "note to self"}, translator)

	sess, err := r.Start(record.StartRequest{MIMEType: "audio/wav"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := r.Append(sess.ID, 0, wavBytes(200)); err != nil {
		t.Fatalf("Append: %v", err)
	}

	res, err := r.Finalize(context.Background(), record.FinalizeRequest{SessionID: sess.ID})
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if res.TranslatedText != "" {
		t.Errorf("translation = %q, want empty in transcribe mode", res.TranslatedText)
	}
	if translator.CallCount() != 0 {
		t.Errorf("translator was called %d times in transcribe mode", translator.CallCount())
	}
}

func TestFinalizeEmptyRecording(t *testing.T) {
	t.Parallel()

	transcriber := &sttmock.Transcriber{Text: "never"}
	r := newTestRecorder(transcriber, &translatemock.Translator{})

	sess, err := r.Start(record.StartRequest{MIMEType: "audio/wav"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	_, err = r.Finalize(context.Background(), record.FinalizeRequest{SessionID: sess.ID})
	if !errors.Is(err, record.ErrEmptyRecording) {
		t.Fatalf("expected ErrEmptyRecording, got %v", err)
	}
	if _, ok := r.Store().Get(sess.ID); ok {
		t.Error("empty session should have been removed")
	}
	if transcriber.CallCount() != 0 {
		t.Error("transcription must not run for an empty recording")
	}
}

func TestFinalizeDurationLimit(t *testing.T) {
	t.Parallel()

	transcriber := &sttmock.Transcriber{Text: "never"}
	r := newTestRecorder(transcriber, &translatemock.Translator{},
		record.WithMaxDuration(300*time.Millisecond))

	sess, err := r.Start(record.StartRequest{MIMEType: "audio/wav"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := r.Append(sess.ID, 0, wavBytes(500)); err != nil {
		t.Fatalf("Append: %v", err)
	}

	_, err = r.Finalize(context.Background(), record.FinalizeRequest{SessionID: sess.ID})
	if !errors.Is(err, record.ErrAudioTooLong) {
		t.Fatalf("expected ErrAudioTooLong, got %v", err)
	}
	if transcriber.CallCount() != 0 {
		t.Error("transcription must not run when the recording is too long")
	}
	if _, ok := r.Store().Get(sess.ID); ok {
		t.Error("over-length session should have been removed")
	}
}

func TestFinalizeDecodeFailureCleansUp(t *testing.T) {
	t.Parallel()

	transcriber := &sttmock.Transcriber{Text: "never"}
	r := newTestRecorder(transcriber, &translatemock.Translator{})

	sess, err := r.Start(record.StartRequest{MIMEType: "audio/wav"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := r.Append(sess.ID, 0, []byte("this is not audio at all")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	_, err = r.Finalize(context.Background(), record.FinalizeRequest{SessionID: sess.ID})
	if !errors.Is(err, audio.ErrInvalidAudio) {
		t.Fatalf("expected ErrInvalidAudio, got %v", err)
	}
	if _, ok := r.Store().Get(sess.ID); ok {
		t.Error("undecodable session should have been removed")
	}
	if transcriber.CallCount() != 0 {
		t.Error("transcription must not run for undecodable audio")
	}
}

func TestFinalizeUpstreamFailurePreservesSession(t *testing.T) {
	t.Parallel()

	transcriber := &sttmock.Transcriber{Err: errors.New("backend unavailable")}
	r := newTestRecorder(transcriber, &translatemock.Translator{})

	sess, err := r.Start(record.StartRequest{MIMEType: "audio/wav"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := r.Append(sess.ID, 0, wavBytes(200)); err != nil {
		t.Fatalf("Append: %v", err)
	}

	_, err = r.Finalize(context.Background(), record.FinalizeRequest{SessionID: sess.ID})
	var upstream *record.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstream.Op != "transcription" {
		t.Errorf("upstream op = %q, want transcription", upstream.Op)
	}
	if _, ok := r.Store().Get(sess.ID); !ok {
		t.Fatal("session must be preserved after an upstream failure")
	}

	// The provider recovers; retrying finalize succeeds without re-uploading.
	transcriber.Err = nil
	transcriber.Text = "recovered"
	res, err := r.Finalize(context.Background(), record.FinalizeRequest{SessionID: sess.ID})
	if err != nil {
		t.Fatalf("retry Finalize: %v", err)
	}
	if res.Text != "recovered" {
		t.Errorf("retry text = %q, want %q", res.Text, "recovered")
	}
	if _, ok := r.Store().Get(sess.ID); ok {
		t.Error("session should be gone after the successful retry")
	}
}

func TestFinalizeOverrides(t *testing.T) {
	t.Parallel()

	transcriber := &sttmock.Transcriber{Text: "text"}
	translator := &translatemock.Translator{Text: "texte"}
	r := newTestRecorder(transcriber, translator)

	sess, err := r.Start(record.StartRequest{
		MIMEType: "audio/wav",
		Mode:     "transcribe",
		Language: "en",
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := r.Append(sess.ID, 0, wavBytes(200)); err != nil {
		t.Fatalf("Append: %v", err)
	}

	res, err := r.Finalize(context.Background(), record.FinalizeRequest{
		SessionID:      sess.ID,
		Mode:           "translate",
		Language:       "de",
		TargetLanguage: "fr",
	})
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if res.Mode != record.ModeTranslate {
		t.Errorf("mode = %q, want translate after override", res.Mode)
	}
	if got := transcriber.Calls[0].Req.Language; got != "de" {
		t.Errorf("language hint = %q, want the override de", got)
	}
	if got := translator.Calls[0].Req.TargetLang; got != "Français (French)" {
		t.Errorf("target = %q, want the override display name", got)
	}
}

func TestConcurrentFinalizeExactlyOnce(t *testing.T) {
	t.Parallel()

	gate := make(chan struct{})
	started := make(chan struct{})
	transcriber := &gatedTranscriber{gate: gate, started: started, text: "done"}
	r := newTestRecorder(transcriber, &translatemock.Translator{})

	sess, err := r.Start(record.StartRequest{MIMEType: "audio/wav"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := r.Append(sess.ID, 0, wavBytes(200)); err != nil {
		t.Fatalf("Append: %v", err)
	}

	firstDone := make(chan error, 1)
	go func() {
		_, err := r.Finalize(context.Background(), record.FinalizeRequest{SessionID: sess.ID})
		firstDone <- err
	}()

	<-started // the first finalize is inside the pipeline now

	_, err = r.Finalize(context.Background(), record.FinalizeRequest{SessionID: sess.ID})
	if !errors.Is(err, record.ErrAlreadyFinalizing) {
		t.Errorf("second finalize: expected ErrAlreadyFinalizing, got %v", err)
	}

	close(gate)
	if err := <-firstDone; err != nil {
		t.Fatalf("first finalize: %v", err)
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	t.Parallel()

	r := newTestRecorder(&sttmock.Transcriber{}, &translatemock.Translator{})

	if r.Cancel("never-existed") {
		t.Error("canceling an unknown session should report nothing removed")
	}

	sess, err := r.Start(record.StartRequest{MIMEType: "audio/webm"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !r.Cancel(sess.ID) {
		t.Error("first cancel should remove the session")
	}
	if r.Cancel(sess.ID) {
		t.Error("second cancel should find nothing")
	}
	if _, err := r.Append(sess.ID, 0, []byte("late")); !errors.Is(err, record.ErrUnknownSession) {
		t.Errorf("append after cancel: expected ErrUnknownSession, got %v", err)
	}
}

func TestCancelDuringFinalizeIsNoOp(t *testing.T) {
	t.Parallel()

	gate := make(chan struct{})
	started := make(chan struct{})
	transcriber := &gatedTranscriber{gate: gate, started: started, text: "kept"}
	r := newTestRecorder(transcriber, &translatemock.Translator{})

	sess, err := r.Start(record.StartRequest{MIMEType: "audio/wav"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := r.Append(sess.ID, 0, wavBytes(200)); err != nil {
		t.Fatalf("Append: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := r.Finalize(context.Background(), record.FinalizeRequest{SessionID: sess.ID})
		done <- err
	}()

	<-started // the finalize holds the session now

	// The cancel must not destroy the bytes the finalize is reading.
	if r.Cancel(sess.ID) {
		t.Error("cancel during an in-flight finalize should remove nothing")
	}

	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("finalize after racing cancel: %v", err)
	}
	if _, ok := r.Store().Get(sess.ID); ok {
		t.Error("session should be gone after the finalize completed")
	}
}

func TestProcessSingleShot(t *testing.T) {
	t.Parallel()

	transcriber := &sttmock.Transcriber{Text: "one shot"}
	r := newTestRecorder(transcriber, &translatemock.Translator{})

	res, err := r.Process(context.Background(), wavBytes(300), "audio/wav",
		record.ModeTranscribe, "en", "")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Text != "one shot" {
		t.Errorf("text = %q, want %q", res.Text, "one shot")
	}
	if res.SessionID != "" {
		t.Errorf("session id = %q, want empty for single-shot", res.SessionID)
	}

	_, err = r.Process(context.Background(), wavBytes(300), "audio/mp4",
		record.ModeTranscribe, "", "")
	if !errors.Is(err, record.ErrUnsupportedMediaType) {
		t.Errorf("expected ErrUnsupportedMediaType, got %v", err)
	}
}

// gatedTranscriber blocks inside Transcribe until its gate closes, so tests
// can observe a finalize that is still in flight.
type gatedTranscriber struct {
	gate    chan struct{}
	started chan struct{}
	text    string
}

func (g *gatedTranscriber) Name() string { return "gated" }

func (g *gatedTranscriber) Transcribe(ctx context.Context, _ stt.Request) (string, error) {
	close(g.started)
	select {
	case <-g.gate:
		return g.text, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
