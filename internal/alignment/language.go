package alignment

import "sort"

// FallbackLanguage is used when neither the requested nor the configured
// default language is supported
const FallbackLanguage = "eng"

// supportedLanguages maps ISO 639-3 codes accepted by the aligner to their names
var supportedLanguages = map[string]string{
	"vie": "Vietnamese",
	"deu": "German",
	"eng": "English",
	"fra": "French",
	"spa": "Spanish",
	"ita": "Italian",
	"por": "Portuguese",
	"rus": "Russian",
	"zho": "Chinese",
	"jpn": "Japanese",
	"kor": "Korean",
}

// IsSupportedLanguage reports whether the aligner accepts the language code
func IsSupportedLanguage(code string) bool {
	_, ok := supportedLanguages[code]
	return ok
}

// LanguageName returns the display name of a supported language code
func LanguageName(code string) string {
	return supportedLanguages[code]
}

// SupportedLanguages returns the supported language codes in sorted order
func SupportedLanguages() []string {
	codes := make([]string, 0, len(supportedLanguages))
	for code := range supportedLanguages {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
