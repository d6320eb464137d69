package config

import (
	"context"
	"fmt"

	"github.com/thomas-vilte/matepr/internal/config"
	"github.com/thomas-vilte/matepr/internal/i18n"
	"github.com/urfave/cli/v3"
)

func (c *ConfigCommandFactory) newPathCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "path",
		Usage: t.GetMessage("config_path_usage", 0, nil),
		Action: func(ctx context.Context, command *cli.Command) error {
			_, err := fmt.Fprintln(command.Root().Writer, cfg.PathFile)
			return err
		},
	}
}
