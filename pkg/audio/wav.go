// Package audio provides the audio plumbing for Vocalis: a minimal RIFF/WAV
// codec, PCM sample-rate and channel conversion, and a Decoder that turns
// arbitrary browser-recorded uploads (WAV, WEBM, OGG) into the canonical
// mono 16 kHz WAV format expected by the transcription providers.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

const (
	// CanonicalSampleRate is the sample rate of canonical WAV output.
	CanonicalSampleRate = 16000

	// CanonicalChannels is the channel count of canonical WAV output.
	CanonicalChannels = 1

	// bitsPerSample is fixed at 16 for the signed little-endian PCM audio
	// used throughout the pipeline.
	bitsPerSample = 16

	// wavHeaderSize is the size of the RIFF header written by EncodeWAV.
	wavHeaderSize = 44
)

// ErrNotWAV is returned by DecodeWAV when the input does not carry a
// RIFF/WAVE signature.
var ErrNotWAV = errors.New("audio: not a RIFF/WAVE file")

// ErrMalformedWAV is returned by DecodeWAV when the container signature is
// present but the chunk structure is truncated or inconsistent.
var ErrMalformedWAV = errors.New("audio: malformed WAV file")

// WAVInfo describes the PCM payload of a decoded WAV file.
type WAVInfo struct {
	// SampleRate is the sample rate in Hz.
	SampleRate int

	// Channels is the number of interleaved channels.
	Channels int

	// BitsPerSample is the sample width. Only 16 is produced by this package.
	BitsPerSample int

	// Data is the raw PCM payload of the data chunk.
	Data []byte
}

// Duration returns the playback duration of the PCM payload. Returns 0 for
// degenerate headers.
func (w WAVInfo) Duration() time.Duration {
	bytesPerSec := w.SampleRate * w.Channels * w.BitsPerSample / 8
	if bytesPerSec <= 0 {
		return 0
	}
	return time.Duration(len(w.Data)) * time.Second / time.Duration(bytesPerSec)
}

// EncodeWAV wraps raw 16-bit signed little-endian PCM data in a standard
// RIFF/WAV container. The returned byte slice is suitable for direct
// inclusion in a multipart form upload.
func EncodeWAV(pcm []byte, sampleRate, channels int) []byte {
	byteRate := sampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8
	dataSize := len(pcm)

	buf := make([]byte, wavHeaderSize+dataSize)

	// RIFF chunk descriptor
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize)) // file size − 8
	copy(buf[8:12], "WAVE")

	// fmt sub-chunk
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)                    // sub-chunk size (PCM)
	binary.LittleEndian.PutUint16(buf[20:22], 1)                     // audio format: PCM
	binary.LittleEndian.PutUint16(buf[22:24], uint16(channels))      // num channels
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))    // sample rate
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))      // byte rate
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))    // block align
	binary.LittleEndian.PutUint16(buf[34:36], uint16(bitsPerSample)) // bits per sample

	// data sub-chunk
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))
	copy(buf[44:], pcm)

	return buf
}

// DecodeWAV parses a RIFF/WAVE byte buffer and returns the format description
// plus the raw PCM payload. It walks the chunk list rather than assuming the
// fixed 44-byte layout, so files with LIST/INFO chunks (as emitted by ffmpeg)
// decode correctly.
//
// Returns [ErrNotWAV] when the RIFF signature is absent and [ErrMalformedWAV]
// when the chunk structure is truncated.
func DecodeWAV(data []byte) (WAVInfo, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return WAVInfo{}, ErrNotWAV
	}

	var (
		info    WAVInfo
		sawFmt  bool
		sawData bool
	)

	// Walk the chunk list after the 12-byte RIFF header.
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if size < 0 || body+size > len(data) {
			// Streamed WAV (ffmpeg writing to a pipe) carries 0xFFFFFFFF in the
			// data chunk size; the payload then runs to the end of the buffer.
			if id == "data" {
				size = len(data) - body
			} else {
				return WAVInfo{}, fmt.Errorf("%w: chunk %q exceeds file size", ErrMalformedWAV, id)
			}
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return WAVInfo{}, fmt.Errorf("%w: fmt chunk too small", ErrMalformedWAV)
			}
			format := binary.LittleEndian.Uint16(data[body : body+2])
			if format != 1 { // PCM
				return WAVInfo{}, fmt.Errorf("%w: unsupported audio format %d (want PCM)", ErrMalformedWAV, format)
			}
			info.Channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			info.SampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			info.BitsPerSample = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
			sawFmt = true

		case "data":
			info.Data = data[body : body+size]
			sawData = true
		}

		// Chunks are word-aligned.
		pos = body + size
		if size%2 == 1 {
			pos++
		}
	}

	if !sawFmt || !sawData {
		return WAVInfo{}, fmt.Errorf("%w: missing fmt or data chunk", ErrMalformedWAV)
	}
	if info.SampleRate <= 0 || info.Channels <= 0 {
		return WAVInfo{}, fmt.Errorf("%w: invalid format values", ErrMalformedWAV)
	}
	return info, nil
}

// WAVDuration returns the playback duration of a WAV byte buffer.
func WAVDuration(data []byte) (time.Duration, error) {
	info, err := DecodeWAV(data)
	if err != nil {
		return 0, err
	}
	return info.Duration(), nil
}
