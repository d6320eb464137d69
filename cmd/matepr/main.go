package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/thomas-vilte/matepr/internal/commands/config"
	"github.com/thomas-vilte/matepr/internal/commands/pr"
	"github.com/thomas-vilte/matepr/internal/commands/registry"
	cfg "github.com/thomas-vilte/matepr/internal/config"
	"github.com/thomas-vilte/matepr/internal/factory"
	"github.com/thomas-vilte/matepr/internal/git"
	"github.com/thomas-vilte/matepr/internal/i18n"
	"github.com/thomas-vilte/matepr/internal/logger"
	"github.com/thomas-vilte/matepr/internal/ui"
	"github.com/thomas-vilte/matepr/internal/version"
	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, translations, err := initializeApp()
	if err != nil {
		ui.HandleAppError(err)
		os.Exit(1)
	}

	if err := app.Run(ctx, os.Args); err != nil {
		ui.StopActiveSpinner()
		ui.HandleAppError(err, translations)
		os.Exit(1)
	}
}

func initializeApp() (*cli.Command, *i18n.Translations, error) {
	homeDir, err := cfg.DefaultDir()
	if err != nil {
		return nil, nil, err
	}

	cfgApp, err := cfg.LoadConfig(homeDir)
	if err != nil {
		return nil, nil, err
	}

	translations, err := i18n.NewTranslations(cfg.UILanguage(cfgApp.Language))
	if err != nil {
		return nil, nil, err
	}

	sources := cfg.DefaultSources(cfgApp, "")
	prFactory := factory.NewPrServiceFactory(cfgApp, translations, sources,
		git.NewGitService(), os.Stdin, os.Stderr)

	commands := registry.NewRegistry(cfgApp, translations)
	if err := commands.Register("create", pr.NewCreateCommand(prFactory.CreateSession)); err != nil {
		return nil, nil, err
	}
	if err := commands.Register("config", config.NewConfigCommandFactory()); err != nil {
		return nil, nil, err
	}

	return &cli.Command{
		Name:    "matepr",
		Usage:   translations.GetMessage("app_usage", 0, nil),
		Version: version.FullVersion(),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: translations.GetMessage("flag_debug", 0, nil),
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: translations.GetMessage("flag_verbose", 0, nil),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logger.Initialize(cmd.Bool("debug"), cmd.Bool("verbose"))
			logger.Debug(ctx, "configuration loaded", "path", cfgApp.PathFile, "language", cfgApp.Language)
			return ctx, nil
		},
		Commands:              commands.CreateCommands(),
		EnableShellCompletion: true,
	}, translations, nil
}
