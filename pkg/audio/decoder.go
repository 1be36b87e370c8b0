package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ErrInvalidAudio is returned by a Decoder when the submitted bytes cannot be
// decoded as the declared container format — the upload itself is at fault
// rather than the decoding machinery.
var ErrInvalidAudio = errors.New("audio: input could not be decoded")

// Decoder converts uploaded audio bytes into canonical WAV
// (mono, 16 kHz, 16-bit PCM).
//
// Implementations must be safe for concurrent use; several uploads may be
// finalised at the same time.
type Decoder interface {
	// PrepareWAV decodes data (whose container format is declared by
	// mimeType) and returns a canonical WAV byte buffer.
	//
	// Failures caused by the input wrap [ErrInvalidAudio]; any other error
	// indicates a fault in the decoder itself.
	PrepareWAV(ctx context.Context, data []byte, mimeType string) ([]byte, error)
}

// Compile-time assertion that FFmpegDecoder implements Decoder.
var _ Decoder = (*FFmpegDecoder)(nil)

// FFmpegDecoder implements Decoder by piping compressed uploads through an
// ffmpeg subprocess. WAV input is normalised in-process without spawning
// ffmpeg: the PCM payload is downmixed and resampled with the converters in
// this package.
//
// The zero value uses the "ffmpeg" binary from PATH.
type FFmpegDecoder struct {
	// Command is the ffmpeg executable. Empty means "ffmpeg".
	Command string
}

// NewFFmpegDecoder returns an FFmpegDecoder using the given executable, or
// "ffmpeg" from PATH when command is empty.
func NewFFmpegDecoder(command string) *FFmpegDecoder {
	return &FFmpegDecoder{Command: command}
}

// PrepareWAV implements [Decoder].
func (d *FFmpegDecoder) PrepareWAV(ctx context.Context, data []byte, mimeType string) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidAudio)
	}
	if IsWAV(mimeType) {
		return normalizeWAV(data)
	}
	return d.decodeCompressed(ctx, data, CanonicalMIME(mimeType))
}

// normalizeWAV converts a WAV upload to canonical format without ffmpeg.
func normalizeWAV(data []byte) ([]byte, error) {
	info, err := DecodeWAV(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAudio, err)
	}
	if info.BitsPerSample != 16 {
		return nil, fmt.Errorf("%w: unsupported sample width %d bits", ErrInvalidAudio, info.BitsPerSample)
	}

	// Fast path: already canonical.
	if info.SampleRate == CanonicalSampleRate && info.Channels == CanonicalChannels {
		return data, nil
	}

	pcm := DownmixMono(info.Data, info.Channels)
	pcm = ResampleMono16(pcm, info.SampleRate, CanonicalSampleRate)
	return EncodeWAV(pcm, CanonicalSampleRate, CanonicalChannels), nil
}

// decodeCompressed runs ffmpeg with the upload on stdin and canonical WAV on
// stdout. The demuxer is chosen from the MIME type so that ffmpeg does not
// have to probe ambiguous containers.
func (d *FFmpegDecoder) decodeCompressed(ctx context.Context, data []byte, mimeType string) ([]byte, error) {
	command := d.Command
	if command == "" {
		command = "ffmpeg"
	}

	args := []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "error",
	}
	if format := demuxerFor(mimeType); format != "" {
		args = append(args, "-f", format)
	}
	args = append(args,
		"-i", "pipe:0",
		"-ac", strconv.Itoa(CanonicalChannels),
		"-ar", strconv.Itoa(CanonicalSampleRate),
		"-f", "wav",
		"pipe:1",
	)

	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Stdin = bytes.NewReader(data)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// ffmpeg ran but rejected the stream — the upload is at fault.
			return nil, fmt.Errorf("%w: ffmpeg: %s", ErrInvalidAudio, strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("audio: run ffmpeg: %w", err)
	}

	out := stdout.Bytes()
	if _, err := DecodeWAV(out); err != nil {
		return nil, fmt.Errorf("audio: ffmpeg produced unreadable WAV: %w", err)
	}
	return out, nil
}

// demuxerFor maps a canonical MIME type to an ffmpeg demuxer name. An empty
// return lets ffmpeg probe the stream.
func demuxerFor(mimeType string) string {
	switch mimeType {
	case "audio/webm":
		return "webm"
	case "audio/ogg":
		return "ogg"
	}
	return ""
}
