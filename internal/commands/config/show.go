package config

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/thomas-vilte/matepr/internal/config"
	"github.com/thomas-vilte/matepr/internal/i18n"
	"github.com/thomas-vilte/matepr/internal/ui"
	"github.com/urfave/cli/v3"
)

const visibleSecretChars = 4

func (c *ConfigCommandFactory) newShowCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: t.GetMessage("config_show_usage", 0, nil),
		Action: func(ctx context.Context, command *cli.Command) error {
			w := command.Root().Writer
			sources := c.sources(cfg)

			_, _ = ui.Info.Fprintln(w, t.GetMessage("config_header", 0, nil))
			_, _ = fmt.Fprintln(w, "━━━━━━━━━━━━━━━━━━━━━━━")
			ui.PrintKeyValue(w, t.GetMessage("config_file", 0, nil), cfg.PathFile)
			ui.PrintKeyValue(w, t.GetMessage("config_language", 0, nil), cfg.Language)

			_, _ = fmt.Fprintf(w, "\n%s\n", t.GetMessage("config_providers", 0, nil))
			for _, ai := range config.SupportedAIs() {
				value := credentialLabel(t, sources, config.AICredential(ai))
				if _, ok := config.Resolve(sources, config.AICredential(ai)); ok {
					value = fmt.Sprintf("%s, %s", cfg.ModelFor(ai), value)
				}
				ui.PrintKeyValue(w, string(ai), value)
			}

			_, _ = fmt.Fprintln(w)
			writeSection(w, t, t.GetMessage("config_jira", 0, nil), cfg.Jira.BaseURL, cfg.Jira.Email,
				credentialLabel(t, sources, config.CredentialJira))
			writeSection(w, t, t.GetMessage("config_confluence", 0, nil), cfg.Confluence.BaseURL, cfg.Confluence.TemplatePageID,
				credentialLabel(t, sources, config.CredentialConfluence))
			ui.PrintKeyValue(w, t.GetMessage("config_github", 0, nil), credentialLabel(t, sources, config.CredentialGitHub))
			return nil
		},
	}
}

func writeSection(w io.Writer, t *i18n.Translations, title, location, detail, credential string) {
	if location == "" {
		ui.PrintKeyValue(w, title, t.GetMessage("not_configured", 0, nil))
		return
	}
	parts := []string{location}
	if detail != "" {
		parts = append(parts, detail)
	}
	parts = append(parts, credential)
	ui.PrintKeyValue(w, title, strings.Join(parts, ", "))
}

func credentialLabel(t *i18n.Translations, sources []config.CredentialSource, key config.CredentialKey) string {
	cred, ok := config.Resolve(sources, key)
	if !ok {
		return t.GetMessage("not_configured", 0, nil)
	}
	return t.GetMessage("credential_from", 0, map[string]interface{}{
		"Value":  maskSecret(cred.Value),
		"Source": cred.Source,
	})
}

// maskSecret keeps the last few characters so the operator can tell keys apart.
func maskSecret(s string) string {
	r := []rune(s)
	if len(r) <= visibleSecretChars*2 {
		return strings.Repeat("*", len(r))
	}
	return strings.Repeat("*", 8) + string(r[len(r)-visibleSecretChars:])
}
