package github

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-github/v66/github"
	domainErrors "github.com/thomas-vilte/matepr/internal/errors"
	"github.com/thomas-vilte/matepr/internal/logger"
	"github.com/thomas-vilte/matepr/internal/models"
	"github.com/thomas-vilte/matepr/internal/vcs"
	"golang.org/x/oauth2"
)

var _ vcs.VCSClient = (*GitHubClient)(nil)

const (
	defaultHost    = "github.com"
	requestTimeout = 30 * time.Second
)

type PullRequestsService interface {
	Create(ctx context.Context, owner, repo string, pull *github.NewPullRequest) (*github.PullRequest, *github.Response, error)
	List(ctx context.Context, owner, repo string, opts *github.PullRequestListOptions) ([]*github.PullRequest, *github.Response, error)
}

type GitHubClient struct {
	prService PullRequestsService
	owner     string
	repo      string
}

// NewGitHubClient authenticates with token. Hosts other than github.com are
// treated as GitHub Enterprise Server.
func NewGitHubClient(host, owner, repo, token string) (*GitHubClient, error) {
	if token == "" {
		return nil, domainErrors.ErrTokenMissing
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(context.Background(), ts)
	httpClient.Timeout = requestTimeout

	client := github.NewClient(httpClient)
	if host != "" && host != defaultHost {
		var err error
		client, err = client.WithEnterpriseURLs(
			fmt.Sprintf("https://%s/api/v3/", host),
			fmt.Sprintf("https://%s/api/uploads/", host))
		if err != nil {
			return nil, domainErrors.ErrVCSNotSupported.WithError(err).WithContext("host", host)
		}
	}
	return NewGitHubClientWithServices(client.PullRequests, owner, repo), nil
}

func NewGitHubClientWithServices(prService PullRequestsService, owner, repo string) *GitHubClient {
	return &GitHubClient{
		prService: prService,
		owner:     owner,
		repo:      repo,
	}
}

func (ghc *GitHubClient) CreatePullRequest(ctx context.Context, pr vcs.NewPullRequest) (*models.PullRequest, error) {
	log := logger.FromContext(ctx)
	log.Debug("creating github pull request",
		"owner", ghc.owner,
		"repo", ghc.repo,
		"head", pr.Head,
		"base", pr.Base,
		"draft", pr.Draft)

	created, resp, err := ghc.prService.Create(ctx, ghc.owner, ghc.repo, &github.NewPullRequest{
		Title: github.String(pr.Title),
		Body:  github.String(pr.Body),
		Head:  github.String(pr.Head),
		Base:  github.String(pr.Base),
		Draft: github.Bool(pr.Draft),
	})
	if err != nil {
		return nil, ghc.wrap(domainErrors.ErrCreatePR, "create PR", resp, err)
	}

	log.Info("github pull request created",
		"number", created.GetNumber(),
		"url", created.GetHTMLURL())
	return toModel(created), nil
}

func (ghc *GitHubClient) FindOpenPullRequest(ctx context.Context, head string) (*models.PullRequest, error) {
	prs, resp, err := ghc.prService.List(ctx, ghc.owner, ghc.repo, &github.PullRequestListOptions{
		State:       "open",
		Head:        ghc.owner + ":" + head,
		ListOptions: github.ListOptions{PerPage: 1},
	})
	if err != nil {
		return nil, ghc.wrap(domainErrors.ErrListPRs, "list PRs", resp, err)
	}
	if len(prs) == 0 {
		return nil, nil
	}
	return toModel(prs[0]), nil
}

func (ghc *GitHubClient) wrap(base *domainErrors.AppError, op string, resp *github.Response, err error) error {
	if resp != nil && resp.StatusCode == http.StatusUnauthorized {
		return domainErrors.ErrGitHubTokenInvalid.
			WithError(err).
			WithContext("operation", op)
	}
	e := base.WithError(err).
		WithContext("operation", op).
		WithContext("repo", fmt.Sprintf("%s/%s", ghc.owner, ghc.repo))
	if resp != nil {
		e = e.WithContext("status", resp.StatusCode)
	}
	return e
}

func toModel(pr *github.PullRequest) *models.PullRequest {
	return &models.PullRequest{
		Number: pr.GetNumber(),
		URL:    pr.GetHTMLURL(),
		Title:  pr.GetTitle(),
		Head:   pr.GetHead().GetRef(),
		Base:   pr.GetBase().GetRef(),
		Draft:  pr.GetDraft(),
	}
}
