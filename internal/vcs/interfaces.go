package vcs

import (
	"context"

	"github.com/thomas-vilte/matepr/internal/models"
)

// NewPullRequest is what the workflow driver hands to the host.
type NewPullRequest struct {
	Title string
	Body  string
	Head  string
	Base  string
	Draft bool
}

// VCSClient is the source-control host as the PR workflow sees it.
type VCSClient interface {
	// CreatePullRequest opens a pull request from pr.Head into pr.Base.
	CreatePullRequest(ctx context.Context, pr NewPullRequest) (*models.PullRequest, error)
	// FindOpenPullRequest returns the open pull request for head, or nil when there is none.
	FindOpenPullRequest(ctx context.Context, head string) (*models.PullRequest, error)
}
