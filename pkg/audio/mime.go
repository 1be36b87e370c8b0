package audio

import "strings"

// CanonicalMIME lowercases a MIME type and strips any parameters, so
// "audio/webm;codecs=opus" and "Audio/WebM" both canonicalise to "audio/webm".
func CanonicalMIME(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

// IsWAV reports whether the canonical MIME type names an uncompressed WAV
// container.
func IsWAV(mimeType string) bool {
	switch CanonicalMIME(mimeType) {
	case "audio/wav", "audio/x-wav":
		return true
	}
	return false
}
