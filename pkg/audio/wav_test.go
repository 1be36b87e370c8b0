package audio_test

import (
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/MrWong99/vocalis/pkg/audio"
)

// sinePCM generates ms milliseconds of silent 16-bit mono PCM at the given rate.
func silencePCM(ms, sampleRate int) []byte {
	samples := sampleRate * ms / 1000
	return make([]byte, samples*2)
}

func TestEncodeDecodeRoundtrip(t *testing.T) {
	t.Parallel()

	pcm := silencePCM(250, 16000)
	wav := audio.EncodeWAV(pcm, 16000, 1)

	info, err := audio.DecodeWAV(wav)
	if err != nil {
		t.Fatalf("DecodeWAV: unexpected error: %v", err)
	}
	if info.SampleRate != 16000 {
		t.Errorf("SampleRate = %d, want 16000", info.SampleRate)
	}
	if info.Channels != 1 {
		t.Errorf("Channels = %d, want 1", info.Channels)
	}
	if info.BitsPerSample != 16 {
		t.Errorf("BitsPerSample = %d, want 16", info.BitsPerSample)
	}
	if len(info.Data) != len(pcm) {
		t.Errorf("payload length = %d, want %d", len(info.Data), len(pcm))
	}
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := audio.DecodeWAV([]byte("definitely not audio"))
	if !errors.Is(err, audio.ErrNotWAV) {
		t.Fatalf("DecodeWAV: expected ErrNotWAV, got %v", err)
	}
}

func TestDecodeWAVTruncatedChunk(t *testing.T) {
	t.Parallel()

	wav := audio.EncodeWAV(silencePCM(100, 16000), 16000, 1)
	// Corrupt the fmt chunk size so it points past the end of the file.
	binary.LittleEndian.PutUint32(wav[16:20], 1<<30)

	_, err := audio.DecodeWAV(wav)
	if !errors.Is(err, audio.ErrMalformedWAV) {
		t.Fatalf("DecodeWAV: expected ErrMalformedWAV, got %v", err)
	}
}

func TestDecodeWAVStreamedDataSize(t *testing.T) {
	t.Parallel()

	// ffmpeg writing to a pipe stamps 0xFFFFFFFF into the data chunk size.
	pcm := silencePCM(100, 16000)
	wav := audio.EncodeWAV(pcm, 16000, 1)
	binary.LittleEndian.PutUint32(wav[40:44], 0xFFFFFFFF)

	info, err := audio.DecodeWAV(wav)
	if err != nil {
		t.Fatalf("DecodeWAV: unexpected error: %v", err)
	}
	if len(info.Data) != len(pcm) {
		t.Errorf("payload length = %d, want %d", len(info.Data), len(pcm))
	}
}

func TestWAVDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		ms         int
		sampleRate int
		channels   int
	}{
		{"quarter second mono 16k", 250, 16000, 1},
		{"one second mono 8k", 1000, 8000, 1},
		{"half second stereo 48k", 500, 48000, 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			samples := tc.sampleRate * tc.ms / 1000
			pcm := make([]byte, samples*2*tc.channels)
			wav := audio.EncodeWAV(pcm, tc.sampleRate, tc.channels)

			d, err := audio.WAVDuration(wav)
			if err != nil {
				t.Fatalf("WAVDuration: unexpected error: %v", err)
			}
			want := time.Duration(tc.ms) * time.Millisecond
			if d != want {
				t.Errorf("WAVDuration = %v, want %v", d, want)
			}
		})
	}
}
