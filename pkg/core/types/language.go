package types

import "fmt"

// Language is a closed set of supported reply languages.
type Language string

const (
	LangEnglish   Language = "English"
	LangHindi     Language = "Hindi"
	LangGujarati  Language = "Gujarati"
	LangMarathi   Language = "Marathi"
	LangTamil     Language = "Tamil"
	LangTelugu    Language = "Telugu"
	LangBengali   Language = "Bengali"
	LangKannada   Language = "Kannada"
	LangMalayalam Language = "Malayalam"
	LangPunjabi   Language = "Punjabi"
)

// DefaultLanguage is used when settings are absent or corrupt.
const DefaultLanguage = LangEnglish

// Languages returns all supported languages in a stable order.
func Languages() []Language {
	return []Language{
		LangEnglish, LangHindi, LangGujarati, LangMarathi, LangTamil,
		LangTelugu, LangBengali, LangKannada, LangMalayalam, LangPunjabi,
	}
}

// Valid reports whether l is a supported language.
func (l Language) Valid() bool {
	for _, v := range Languages() {
		if l == v {
			return true
		}
	}
	return false
}

// ParseLanguage validates a language name.
func ParseLanguage(name string) (Language, error) {
	l := Language(name)
	if !l.Valid() {
		return "", fmt.Errorf("unsupported language %q", name)
	}
	return l, nil
}
