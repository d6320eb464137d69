package models

type (
	// RepoIdentity locates the repository on the source-control host. It is only used to build links.
	RepoIdentity struct {
		Host          string
		Owner         string
		Repo          string
		CurrentBranch string
	}

	// PRTemplate is a caller-supplied markdown skeleton the PR body should conform to.
	PRTemplate struct {
		Name     string
		Source   string
		Content  string
		Headings []string
	}

	// PromptContext is assembled for every prompt render.
	PromptContext struct {
		Ticket      Ticket
		Changes     ChangeSet
		Template    *PRTemplate
		OverallDiff string
		Repo        *RepoIdentity
	}

	// GeneratedContent is the output of the generation pipeline.
	GeneratedContent struct {
		Title   string
		Body    string
		Summary string
		Usage   *TokenUsage
		// Fallback is set when the content was built without a model.
		Fallback bool
		// MissingSections lists template headings the body dropped.
		MissingSections []string
	}

	// PullRequest is a pull request as reported back by the source-control host.
	PullRequest struct {
		Number int
		URL    string
		Title  string
		Head   string
		Base   string
		Draft  bool
	}
)

// HasTemplate reports whether a non-empty template was supplied.
func (p PromptContext) HasTemplate() bool {
	return p.Template != nil && p.Template.Content != ""
}
