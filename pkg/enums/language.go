package enums

import (
	"fmt"
	"strings"
)

// Language is the console UI and content language.
type Language string

const (
	LanguageRussian Language = "ru"
	LanguageUzbek   Language = "uz"
)

// DefaultLanguage is used until the operator picks one.
const DefaultLanguage = LanguageRussian

// String implements fmt.Stringer.
func (l Language) String() string {
	return string(l)
}

// IsValid reports whether the value is a supported Language.
func (l Language) IsValid() bool {
	return l == LanguageRussian || l == LanguageUzbek
}

// PromptName returns the English language name used inside model prompts.
func (l Language) PromptName() string {
	if l == LanguageUzbek {
		return "Uzbek"
	}
	return "Russian"
}

// ParseLanguage converts raw input into a Language. "uzb" is accepted as an alias of "uz".
func ParseLanguage(value string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "ru":
		return LanguageRussian, nil
	case "uz", "uzb":
		return LanguageUzbek, nil
	}
	return "", fmt.Errorf("invalid language %q", value)
}

// LanguageOrDefault parses value and falls back to DefaultLanguage on blank or unknown input.
func LanguageOrDefault(value string) Language {
	if lang, err := ParseLanguage(value); err == nil {
		return lang
	}
	return DefaultLanguage
}
