package config

import "strings"

const (
	LangEN = "en"
	LangES = "es"
)

// UILanguage maps a configured language to one the CLI has messages for.
// Prompts may still ask the model to answer in any other language.
func UILanguage(lang string) string {
	base, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(lang)), "-")
	switch base {
	case LangES:
		return LangES
	default:
		return LangEN
	}
}
