package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/thomas-vilte/matepr/internal/ai/gateway"
	"github.com/thomas-vilte/matepr/internal/config"
	domainErrors "github.com/thomas-vilte/matepr/internal/errors"
	"github.com/thomas-vilte/matepr/internal/i18n"
)

var _ gateway.Chooser = (*ProviderChooser)(nil)

// ProviderChooser asks the operator to pick an AI provider on the terminal.
type ProviderChooser struct {
	in    *bufio.Reader
	out   io.Writer
	trans *i18n.Translations
}

func NewProviderChooser(in io.Reader, out io.Writer, trans *i18n.Translations) *ProviderChooser {
	return &ProviderChooser{in: bufio.NewReader(in), out: out, trans: trans}
}

// Choose accepts a list number or a provider name. An empty answer picks def.
func (c *ProviderChooser) Choose(ctx context.Context, options []gateway.ProviderID, def gateway.ProviderID) (gateway.ProviderID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	SuspendActiveSpinner()
	defer ResumeSuspendedSpinner()

	_, _ = fmt.Fprintf(c.out, "\n%s\n", Info.Sprint(c.trans.GetMessage("choose_provider", 0, nil)))
	for i, id := range options {
		marker := ""
		if id == def {
			marker = Dim.Sprint(" *")
		}
		_, _ = fmt.Fprintf(c.out, "  %d) %s%s\n", i+1, id, marker)
	}
	_, _ = fmt.Fprint(c.out, c.trans.GetMessage("enter_selection", 0, map[string]interface{}{
		"Default": def,
	}))

	line, err := c.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	if answer == "" {
		return def, nil
	}

	if n, err := strconv.Atoi(answer); err == nil {
		if n >= 1 && n <= len(options) {
			return options[n-1], nil
		}
	} else {
		for _, id := range options {
			if string(id) == answer {
				return id, nil
			}
		}
	}
	return "", domainErrors.ErrUnknownProvider.
		WithContext("provider", answer).
		WithSuggestion("Choose one of: " + joinProviders(options))
}

func joinProviders(ids []config.AI) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = string(id)
	}
	return strings.Join(names, ", ")
}
