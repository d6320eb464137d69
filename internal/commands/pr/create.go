package pr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/thomas-vilte/matepr/internal/ai/gateway"
	"github.com/thomas-vilte/matepr/internal/commands/completion_helper"
	cfg "github.com/thomas-vilte/matepr/internal/config"
	domainErrors "github.com/thomas-vilte/matepr/internal/errors"
	"github.com/thomas-vilte/matepr/internal/i18n"
	"github.com/thomas-vilte/matepr/internal/logger"
	"github.com/thomas-vilte/matepr/internal/models"
	"github.com/thomas-vilte/matepr/internal/services"
	"github.com/thomas-vilte/matepr/internal/services/cost"
	"github.com/thomas-vilte/matepr/internal/ui"
	"github.com/urfave/cli/v3"
)

// Workflow is the part of services.PRService the command drives.
type Workflow interface {
	BuildContext(ctx context.Context, req services.GenerateRequest) (models.PromptContext, error)
	Generate(ctx context.Context, pc models.PromptContext) (*models.GeneratedContent, error)
	FallbackContent(pc models.PromptContext) *models.GeneratedContent
	Publish(ctx context.Context, content *models.GeneratedContent, req services.PublishRequest) (*services.PublishResult, error)
}

// ProviderSelector reports which AI provider the run will use.
type ProviderSelector interface {
	SelectProvider(ctx context.Context) (gateway.ProviderID, error)
	Selected() *gateway.ProviderClient
}

type Session struct {
	Workflow  Workflow
	Providers ProviderSelector
}

// Options are the flags that change how a session is wired.
type Options struct {
	TemplatePath string
	Provider     string
}

// SessionProvider builds the collaborators for one run.
type SessionProvider func(ctx context.Context, opts Options) (*Session, error)

type CreateCommand struct {
	sessions SessionProvider
}

func NewCreateCommand(sessions SessionProvider) *CreateCommand {
	return &CreateCommand{sessions: sessions}
}

func (c *CreateCommand) CreateCommand(t *i18n.Translations, _ *cfg.Config) *cli.Command {
	return &cli.Command{
		Name:    "create",
		Aliases: []string{"c"},
		Usage:   t.GetMessage("create_usage", 0, nil),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "base",
				Aliases: []string{"b"},
				Usage:   t.GetMessage("flag_base", 0, nil),
				Value:   "main",
			},
			&cli.StringFlag{
				Name:    "ticket",
				Aliases: []string{"t"},
				Usage:   t.GetMessage("flag_ticket", 0, nil),
			},
			&cli.StringFlag{
				Name:  "template",
				Usage: t.GetMessage("flag_template", 0, nil),
			},
			&cli.StringFlag{
				Name:    "provider",
				Aliases: []string{"p"},
				Usage:   t.GetMessage("flag_provider", 0, nil),
			},
			&cli.BoolFlag{
				Name:  "draft",
				Usage: t.GetMessage("flag_draft", 0, nil),
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: t.GetMessage("flag_dry_run", 0, nil),
			},
			&cli.BoolFlag{
				Name:  "copy",
				Usage: t.GetMessage("flag_copy", 0, nil),
			},
		},
		ShellComplete: completion_helper.DefaultFlagComplete,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return c.run(ctx, cmd, t)
		},
	}
}

func (c *CreateCommand) run(ctx context.Context, cmd *cli.Command, t *i18n.Translations) error {
	start := time.Now()
	base := cmd.String("base")
	ctx = logger.With(ctx, "base", base)
	log := logger.FromContext(ctx)
	out := cmd.Root().Writer
	errOut := cmd.Root().ErrWriter
	in := cmd.Root().Reader

	log.Info("executing create command",
		"ticket", cmd.String("ticket"),
		"provider", cmd.String("provider"),
		"dry_run", cmd.Bool("dry-run"))

	session, err := c.sessions(ctx, Options{
		TemplatePath: cmd.String("template"),
		Provider:     cmd.String("provider"),
	})
	if err != nil {
		return err
	}

	spinner := ui.NewSmartSpinner(t.GetMessage("collecting_changes", 0, map[string]interface{}{"Base": base}))
	spinner.Start()
	pc, err := session.Workflow.BuildContext(ctx, services.GenerateRequest{
		Base:      base,
		TicketKey: strings.ToUpper(strings.TrimSpace(cmd.String("ticket"))),
	})
	spinner.Stop()
	if err != nil {
		log.Error("failed to collect changes",
			"error", err,
			"duration_ms", time.Since(start).Milliseconds())
		return err
	}

	ui.ShowFilesTree(out, pc.Changes.Files, t.GetMessage("files_changed", pc.Changes.TotalFiles, map[string]interface{}{
		"Count": pc.Changes.TotalFiles,
	}))

	content, err := c.generate(ctx, errOut, session, pc, t)
	if err != nil {
		return err
	}

	if len(content.MissingSections) > 0 {
		ui.PrintWarning(out, t.GetMessage("missing_template_sections", 0, map[string]interface{}{
			"Sections": strings.Join(content.MissingSections, ", "),
		}))
	}

	ui.RenderPreview(out, content)
	if u := content.Usage; u != nil {
		ui.PrintTokenUsage(out, u, t)
		if usd := cost.NewCalculator().EstimateCost(u.Provider, u.Model, u.InputTokens, u.OutputTokens); usd > 0 {
			ui.PrintKeyValue(out, t.GetMessage("estimated_cost", 0, nil), fmt.Sprintf("$%.4f", usd))
		}
	}

	if cmd.Bool("copy") {
		if err := ui.CopyToClipboard(content); err != nil {
			log.Warn("clipboard write failed", "error", err)
			ui.PrintWarning(out, t.GetMessage("clipboard_failed", 0, nil))
		} else {
			ui.PrintSuccess(out, t.GetMessage("copied_to_clipboard", 0, nil))
		}
	}

	if cmd.Bool("dry-run") {
		ui.PrintInfo(out, t.GetMessage("dry_run_done", 0, nil))
		return nil
	}

	if !ui.AskConfirmation(in, out, t.GetMessage("confirm_create", 0, nil)) {
		ui.PrintInfo(out, t.GetMessage("operation_cancelled", 0, nil))
		return nil
	}

	res, err := session.Workflow.Publish(ctx, content, services.PublishRequest{
		Head:  pc.Changes.HeadBranch,
		Base:  base,
		Draft: cmd.Bool("draft"),
	})
	if err != nil {
		log.Error("failed to publish pull request",
			"error", err,
			"duration_ms", time.Since(start).Milliseconds())
		return err
	}

	if res.Existing {
		ui.PrintInfo(out, t.GetMessage("pr_exists", 0, map[string]interface{}{
			"Branch": pc.Changes.HeadBranch,
			"URL":    res.PullRequest.URL,
		}))
	} else {
		ui.PrintSuccess(out, t.GetMessage("pr_created", 0, map[string]interface{}{
			"Number": res.PullRequest.Number,
			"URL":    res.PullRequest.URL,
		}))
	}

	log.Info("create command finished",
		"number", res.PullRequest.Number,
		"existing", res.Existing,
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

// generate asks the AI for the content. A missing provider or a failed
// generation falls back to the deterministic description.
func (c *CreateCommand) generate(ctx context.Context, errOut io.Writer, session *Session, pc models.PromptContext, t *i18n.Translations) (*models.GeneratedContent, error) {
	log := logger.FromContext(ctx)

	id, err := session.Providers.SelectProvider(ctx)
	switch {
	case errors.Is(err, domainErrors.ErrNoProviderConfigured):
		log.Warn("no AI provider configured", "error", err)
		ui.PrintWarning(errOut, t.GetMessage("no_provider_available", 0, nil))
		return session.Workflow.FallbackContent(pc), nil
	case err != nil:
		return nil, err
	}

	model := ""
	if sel := session.Providers.Selected(); sel != nil {
		model = sel.Model.Model
	}
	spinner := ui.NewSmartSpinner(t.GetMessage("generating_with", 0, map[string]interface{}{
		"Provider": id,
		"Model":    model,
	}))
	spinner.Start()

	content, err := session.Workflow.Generate(ctx, pc)
	if err != nil {
		log.Warn("AI generation failed, using fallback", "provider", id, "error", err)
		spinner.Warning(t.GetMessage("ai_fallback", 0, nil))
		ui.FprintAppError(errOut, err, t)
		return session.Workflow.FallbackContent(pc), nil
	}
	spinner.Success(t.GetMessage("generation_done", 0, nil))
	return content, nil
}
