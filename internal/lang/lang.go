// Package lang holds the language and voice catalogues offered to clients.
package lang

// AutoDetect is the pseudo language code meaning "let the transcriber detect
// the spoken language". It must never be sent to a provider as a hint.
const AutoDetect = "default"

// Language pairs an ISO 639-1 code with its display name.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Voice pairs a provider voice identifier with its display name.
type Voice struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Languages lists the selectable transcription and translation languages.
// The first entry is the auto-detect pseudo language.
var Languages = []Language{
	{Code: AutoDetect, Name: "Default (Auto-detect)"},
	{Code: "en", Name: "English"},
	{Code: "zh", Name: "中文 (Chinese, Mandarin)"},
	{Code: "es", Name: "Español (Spanish)"},
	{Code: "de", Name: "Deutsch (German)"},
	{Code: "fr", Name: "Français (French)"},
	{Code: "ja", Name: "日本語 (Japanese)"},
	{Code: "pt", Name: "Português (Portuguese)"},
	{Code: "ru", Name: "Русский (Russian)"},
	{Code: "ar", Name: "العربية (Arabic)"},
	{Code: "it", Name: "Italiano (Italian)"},
	{Code: "ko", Name: "한국어 (Korean)"},
	{Code: "hi", Name: "हिन्दी (Hindi)"},
	{Code: "nl", Name: "Nederlands (Dutch)"},
	{Code: "tr", Name: "Türkçe (Turkish)"},
	{Code: "pl", Name: "Polski (Polish)"},
	{Code: "id", Name: "Bahasa Indonesia (Indonesian)"},
	{Code: "th", Name: "ภาษาไทย (Thai)"},
	{Code: "sv", Name: "Svenska (Swedish)"},
	{Code: "he", Name: "עברית (Hebrew)"},
	{Code: "cs", Name: "Čeština (Czech)"},
}

// FemaleVoices lists the selectable female preview voices, preferred first.
var FemaleVoices = []Voice{
	{ID: "nova", Name: "Nova"},
	{ID: "alloy", Name: "Alloy"},
	{ID: "verse", Name: "Verse"},
	{ID: "sol", Name: "Sol"},
}

// MaleVoices lists the selectable male preview voices, preferred first.
var MaleVoices = []Voice{
	{ID: "onyx", Name: "Onyx"},
	{ID: "sage", Name: "Sage"},
	{ID: "echo", Name: "Echo"},
	{ID: "ember", Name: "Ember"},
}

// VoiceSampleText is spoken when a client previews a voice without supplying
// its own text.
const VoiceSampleText = "This is a short sample to preview the selected voice."

// Name returns the display name for a language code, or the code itself when
// it is not in the catalogue. Chat models handle the display name better than
// a bare code, so translation prompts go through this lookup.
func Name(code string) string {
	for _, l := range Languages {
		if l.Code == code {
			return l.Name
		}
	}
	return code
}

// Hint converts a client-supplied language code into a provider hint:
// the empty string (meaning auto-detect) for "" or AutoDetect, the code
// itself otherwise.
func Hint(code string) string {
	if code == "" || code == AutoDetect {
		return ""
	}
	return code
}
