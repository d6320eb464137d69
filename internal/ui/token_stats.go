package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/thomas-vilte/matepr/internal/i18n"
	"github.com/thomas-vilte/matepr/internal/models"
)

func PrintTokenUsage(w io.Writer, usage *models.TokenUsage, t *i18n.Translations) {
	if usage == nil || usage.TotalTokens == 0 {
		return
	}
	_, _ = color.New(color.FgCyan).Fprint(w, "📊 ")
	_, _ = fmt.Fprint(w, t.GetMessage("token_usage", 0, map[string]interface{}{
		"Input":    usage.InputTokens,
		"Output":   usage.OutputTokens,
		"Provider": usage.Provider,
	}))
	if usage.DurationMs > 0 {
		_, _ = Dim.Fprintf(w, " (%s)", (time.Duration(usage.DurationMs) * time.Millisecond).Round(10*time.Millisecond))
	}
	_, _ = fmt.Fprintln(w)
}
