package config

import (
	"github.com/thomas-vilte/matepr/internal/config"
	"github.com/thomas-vilte/matepr/internal/i18n"
	"github.com/urfave/cli/v3"
)

type ConfigCommandFactory struct {
	sources func(cfg *config.Config) []config.CredentialSource
}

type Option func(*ConfigCommandFactory)

// WithSources replaces the credential sources show reports on.
func WithSources(fn func(cfg *config.Config) []config.CredentialSource) Option {
	return func(c *ConfigCommandFactory) {
		c.sources = fn
	}
}

func NewConfigCommandFactory(opts ...Option) *ConfigCommandFactory {
	c := &ConfigCommandFactory{
		sources: func(cfg *config.Config) []config.CredentialSource {
			return config.DefaultSources(cfg, "")
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *ConfigCommandFactory) CreateCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: t.GetMessage("config_usage", 0, nil),
		Commands: []*cli.Command{
			c.newShowCommand(t, cfg),
			c.newPathCommand(t, cfg),
			c.newSetCommand(t, cfg),
		},
	}
}
