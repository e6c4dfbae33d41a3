package reply

import "strings"

var languageCodes = map[string]string{
	"english": "en",
	"spanish": "es",
	"español": "es",
	"espanol": "es",
	"japanese": "ja",
	"日本語":     "ja",
	"ja":       "ja",
	"en":       "en",
	"es":       "es",
}

// LanguageCode maps a language name to the model's output language code.
// Unknown names fall back to English.
func LanguageCode(name string) string {
	if c, ok := languageCodes[strings.ToLower(strings.TrimSpace(name))]; ok {
		return c
	}
	return "en"
}
