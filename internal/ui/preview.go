package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"github.com/thomas-vilte/matepr/internal/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("5")).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("6")).
			Padding(0, 1)

	ruleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// clipboardWrite is replaced in tests.
var clipboardWrite = clipboard.WriteAll

// RenderPreview prints the generated title in a box followed by the raw markdown body.
func RenderPreview(w io.Writer, content *models.GeneratedContent) {
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, titleStyle.Render(content.Title))
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, strings.TrimSpace(content.Body))
	_, _ = fmt.Fprintln(w, ruleStyle.Render(strings.Repeat("─", 40)))
}

// CopyToClipboard copies the title and body as one markdown document.
func CopyToClipboard(content *models.GeneratedContent) error {
	return clipboardWrite(ClipboardText(content))
}

func ClipboardText(content *models.GeneratedContent) string {
	return "# " + content.Title + "\n\n" + strings.TrimSpace(content.Body) + "\n"
}
