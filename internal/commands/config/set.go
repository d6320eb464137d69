package config

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/thomas-vilte/matepr/internal/config"
	domainErrors "github.com/thomas-vilte/matepr/internal/errors"
	"github.com/thomas-vilte/matepr/internal/i18n"
	"github.com/thomas-vilte/matepr/internal/ui"
	"github.com/urfave/cli/v3"
)

func (c *ConfigCommandFactory) newSetCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     t.GetMessage("config_set_usage", 0, nil),
		ArgsUsage: t.GetMessage("config_set_args_usage", 0, nil),
		Action: func(ctx context.Context, command *cli.Command) error {
			if command.Args().Len() < 2 {
				return domainErrors.ErrInvalidConfig.
					WithContext("reason", "missing arguments").
					WithSuggestion(t.GetMessage("config_set_args_usage", 0, nil))
			}

			key := strings.ToLower(command.Args().Get(0))
			value := command.Args().Get(1)

			if err := setValue(cfg, key, value); err != nil {
				return err
			}
			if err := config.SaveConfig(cfg); err != nil {
				return err
			}

			ui.PrintSuccess(command.Root().Writer, t.GetMessage("config_set_success", 0, map[string]interface{}{
				"Key": key,
			}))
			return nil
		},
	}
}

// setValue applies one dotted key, e.g. "ai.claude.model" or "jira.base_url".
func setValue(cfg *config.Config, key, value string) error {
	switch key {
	case "lang", "language":
		cfg.Language = value
		return nil
	case "github.token":
		cfg.GitHub.Token = value
		return nil
	case "jira.base_url":
		cfg.Jira.BaseURL = strings.TrimRight(value, "/")
		return nil
	case "jira.email":
		cfg.Jira.Email = value
		return nil
	case "jira.api_token":
		cfg.Jira.APIToken = value
		return nil
	case "confluence.base_url":
		cfg.Confluence.BaseURL = strings.TrimRight(value, "/")
		return nil
	case "confluence.email":
		cfg.Confluence.Email = value
		return nil
	case "confluence.api_token":
		cfg.Confluence.APIToken = value
		return nil
	case "confluence.template_page_id":
		cfg.Confluence.TemplatePageID = value
		return nil
	case "prompt.template_chars":
		return setInt(&cfg.Prompt.TemplateChars, key, value)
	case "prompt.diff_chars":
		return setInt(&cfg.Prompt.DiffChars, key, value)
	case "prompt.overall_diff_chars":
		return setInt(&cfg.Prompt.OverallDiffChars, key, value)
	case "prompt.description_diff_chars":
		return setInt(&cfg.Prompt.DescriptionDiffChars, key, value)
	case "prompt.legacy":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return invalidValue(key, value, err)
		}
		cfg.Prompt.Legacy = b
		return nil
	}

	if rest, ok := strings.CutPrefix(key, "ai."); ok {
		return setProviderValue(cfg, rest, value)
	}
	return unknownKey(key)
}

func setProviderValue(cfg *config.Config, rest, value string) error {
	name, field, ok := strings.Cut(rest, ".")
	if !ok || !config.IsSupportedAI(config.AI(name)) {
		return unknownKey("ai." + rest)
	}
	if cfg.AIProviders == nil {
		cfg.AIProviders = map[string]config.AIProviderConfig{}
	}
	p := cfg.AIProviders[name]
	key := "ai." + rest

	switch field {
	case "api_key":
		p.APIKey = value
	case "model":
		p.Model = value
	case "base_url":
		p.BaseURL = value
	case "max_tokens":
		if err := setInt(&p.MaxTokens, key, value); err != nil {
			return err
		}
	case "timeout_seconds":
		if err := setInt(&p.TimeoutSeconds, key, value); err != nil {
			return err
		}
	default:
		return unknownKey(key)
	}
	cfg.AIProviders[name] = p
	return nil
}

func setInt(dst *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return invalidValue(key, value, err)
	}
	*dst = n
	return nil
}

func invalidValue(key, value string, err error) error {
	return domainErrors.ErrInvalidConfig.
		WithContext("key", key).
		WithContext("value", value).
		WithError(err)
}

func unknownKey(key string) error {
	return domainErrors.ErrInvalidConfig.
		WithContext("reason", "unknown configuration key").
		WithContext("key", key).
		WithSuggestion(fmt.Sprintf("Keys look like language, github.token, jira.base_url or ai.<%s>.model",
			strings.Join(aiNames(), "|")))
}

func aiNames() []string {
	names := make([]string, 0, len(config.SupportedAIs()))
	for _, ai := range config.SupportedAIs() {
		names = append(names, string(ai))
	}
	return names
}
