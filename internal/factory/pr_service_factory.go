package factory

import (
	"context"
	"io"

	"github.com/thomas-vilte/matepr/internal/ai"
	"github.com/thomas-vilte/matepr/internal/ai/gateway"
	"github.com/thomas-vilte/matepr/internal/changes"
	"github.com/thomas-vilte/matepr/internal/commands/pr"
	"github.com/thomas-vilte/matepr/internal/config"
	domainErrors "github.com/thomas-vilte/matepr/internal/errors"
	"github.com/thomas-vilte/matepr/internal/git"
	"github.com/thomas-vilte/matepr/internal/httpclient"
	"github.com/thomas-vilte/matepr/internal/i18n"
	"github.com/thomas-vilte/matepr/internal/logger"
	"github.com/thomas-vilte/matepr/internal/models"
	"github.com/thomas-vilte/matepr/internal/services"
	"github.com/thomas-vilte/matepr/internal/templates"
	"github.com/thomas-vilte/matepr/internal/tickets/jira"
	"github.com/thomas-vilte/matepr/internal/ui"
	"github.com/thomas-vilte/matepr/internal/vcs"
	"github.com/thomas-vilte/matepr/internal/vcs/github"
	"github.com/thomas-vilte/matepr/internal/wiki/confluence"
)

// PRServiceFactory wires the collaborators of one create run from the config file
// and the credential sources.
type PRServiceFactory struct {
	config  *config.Config
	trans   *i18n.Translations
	sources []config.CredentialSource
	git     *git.GitService
	in      io.Reader
	out     io.Writer
}

func NewPrServiceFactory(cfg *config.Config, trans *i18n.Translations, sources []config.CredentialSource, gitService *git.GitService, in io.Reader, out io.Writer) *PRServiceFactory {
	return &PRServiceFactory{
		config:  cfg,
		trans:   trans,
		sources: sources,
		git:     gitService,
		in:      in,
		out:     out,
	}
}

// CreateSession satisfies pr.SessionProvider.
func (f *PRServiceFactory) CreateSession(ctx context.Context, opts pr.Options) (*pr.Session, error) {
	gw := gateway.NewGateway(f.config, f.sources,
		gateway.WithChooser(ui.NewProviderChooser(f.in, f.out, f.trans)))
	if opts.Provider != "" {
		if err := gw.Use(ctx, gateway.ProviderID(opts.Provider)); err != nil {
			return nil, err
		}
	}

	serviceOpts := []services.PROption{
		services.WithChangesProvider(changes.NewAggregator(f.git)),
		services.WithGitReader(f.git),
		services.WithGenerator(gw),
		services.WithTemplateResolver(f.templateResolver(ctx, opts.TemplatePath)),
		services.WithVCSClient(f.vcsClient(ctx)),
		services.WithTicketKeyFromBranch(jira.KeyFromBranch),
		services.WithPromptBuilder(ai.NewPromptBuilder(
			ai.WithLimits(ai.LimitsFromConfig(f.config.Prompt)),
			ai.WithLanguage(f.config.Language),
		)),
	}
	if tickets := f.ticketProvider(ctx); tickets != nil {
		serviceOpts = append(serviceOpts, services.WithTicketProvider(tickets))
	}

	return &pr.Session{
		Workflow:  services.NewPRService(serviceOpts...),
		Providers: gw,
	}, nil
}

func (f *PRServiceFactory) ticketProvider(ctx context.Context) *jira.JiraService {
	if f.config.Jira.BaseURL == "" {
		return nil
	}
	cred, ok := config.Resolve(f.sources, config.CredentialJira)
	if !ok {
		logger.Warn(ctx, "jira is configured without an API token, tickets will not be fetched")
		return nil
	}
	return jira.NewJiraService(f.config.Jira, cred.Value, httpclient.New(httpclient.DefaultTimeout))
}

func (f *PRServiceFactory) templateResolver(ctx context.Context, explicit string) *templates.Resolver {
	root, err := f.git.TopLevel(ctx)
	if err != nil {
		logger.Debug(ctx, "repository root unknown, looking for templates in the working directory", "error", err)
		root = "."
	}

	var opts []templates.Option
	if explicit != "" {
		opts = append(opts, templates.WithExplicitPath(explicit))
	}
	if c := f.config.Confluence; c.TemplatePageID != "" {
		cred, _ := config.Resolve(f.sources, config.CredentialConfluence)
		client := confluence.NewClient(c, cred.Value, httpclient.New(httpclient.DefaultTimeout))
		opts = append(opts, templates.WithWikiPage(client, c.TemplatePageID))
	}
	return templates.NewResolver(root, opts...)
}

// vcsClient never fails the session: without a remote or a token the error
// surfaces only when the run tries to publish.
func (f *PRServiceFactory) vcsClient(ctx context.Context) vcs.VCSClient {
	repo, err := f.git.RepoIdentity(ctx)
	if err != nil {
		return unavailableVCS{err: err}
	}
	cred, ok := config.Resolve(f.sources, config.CredentialGitHub)
	if !ok {
		return unavailableVCS{err: domainErrors.ErrTokenMissing.WithContext("host", repo.Host)}
	}
	client, err := github.NewGitHubClient(repo.Host, repo.Owner, repo.Repo, cred.Value)
	if err != nil {
		return unavailableVCS{err: err}
	}
	logger.Debug(ctx, "github client ready", "owner", repo.Owner, "repo", repo.Repo, "token_source", cred.Source)
	return client
}

type unavailableVCS struct {
	err error
}

func (u unavailableVCS) CreatePullRequest(context.Context, vcs.NewPullRequest) (*models.PullRequest, error) {
	return nil, u.err
}

func (u unavailableVCS) FindOpenPullRequest(context.Context, string) (*models.PullRequest, error) {
	return nil, u.err
}
