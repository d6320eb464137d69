package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	domainErrors "github.com/thomas-vilte/matepr/internal/errors"
	"github.com/thomas-vilte/matepr/internal/models"
	"github.com/thomas-vilte/matepr/internal/templates"
	"github.com/thomas-vilte/matepr/internal/vcs"
)

var (
	isSummaryPrompt = mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, `"summary"`) && !strings.Contains(p, `"title"`)
	})
	isDescriptionPrompt = mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, `"title"`)
	})
)

func sampleChangeSet() models.ChangeSet {
	return models.ChangeSet{
		BaseBranch: "main",
		HeadBranch: "feature/PROJ-7-rate-limit",
		Files: []models.FileChange{
			{Path: "auth/limiter.go", Status: models.StatusAdded, Insertions: 40},
			{Path: "auth/login.go", Status: models.StatusModified, Insertions: 3, Deletions: 1},
		},
		TotalInsertions: 43,
		TotalDeletions:  1,
		TotalFiles:      2,
		Commits:         []string{"add limiter\n\nlong body", "wire limiter"},
	}
}

func TestBuildContext(t *testing.T) {
	ctx := context.Background()

	t.Run("collects every source", func(t *testing.T) {
		changes := new(MockChangesProvider)
		git := new(MockGitReader)
		tickets := new(MockTicketProvider)
		tmpl := new(MockTemplateResolver)

		changes.On("GetChanges", ctx, "main", true).Return(sampleChangeSet(), nil)
		tickets.On("GetTicket", ctx, "PROJ-7").Return(&models.Ticket{Key: "PROJ-7", Summary: "Rate limit logins"}, nil)
		tmpl.On("Resolve", ctx).Return(&models.PRTemplate{Content: "## Summary"}, nil)
		git.On("DiffText", ctx, "main", "").Return("diff --git a b", nil)
		git.On("RepoIdentity", ctx).Return(&models.RepoIdentity{Owner: "acme", Repo: "api"}, nil)

		svc := NewPRService(WithChangesProvider(changes), WithGitReader(git),
			WithTicketProvider(tickets), WithTemplateResolver(tmpl))

		pc, err := svc.BuildContext(ctx, GenerateRequest{Base: "main", TicketKey: "PROJ-7"})

		require.NoError(t, err)
		assert.Equal(t, "Rate limit logins", pc.Ticket.Summary)
		assert.True(t, pc.HasTemplate())
		assert.Equal(t, "diff --git a b", pc.OverallDiff)
		require.NotNil(t, pc.Repo)
		assert.Equal(t, "feature/PROJ-7-rate-limit", pc.Repo.CurrentBranch)
		assert.Equal(t, 2, pc.Changes.TotalFiles)
	})

	t.Run("optional sources degrade to absence", func(t *testing.T) {
		changes := new(MockChangesProvider)
		git := new(MockGitReader)
		tmpl := new(MockTemplateResolver)

		changes.On("GetChanges", ctx, "main", true).Return(sampleChangeSet(), nil)
		tmpl.On("Resolve", ctx).Return(nil, domainErrors.ErrTemplateFetch)
		git.On("DiffText", ctx, "main", "").Return("", errors.New("git exploded"))
		git.On("RepoIdentity", ctx).Return(nil, domainErrors.ErrGetRepoURL)

		svc := NewPRService(WithChangesProvider(changes), WithGitReader(git), WithTemplateResolver(tmpl))

		pc, err := svc.BuildContext(ctx, GenerateRequest{Base: "main", TicketKey: "PROJ-7"})

		require.NoError(t, err)
		assert.Equal(t, "PROJ-7", pc.Ticket.Key)
		assert.Nil(t, pc.Template)
		assert.Nil(t, pc.Repo)
		assert.Empty(t, pc.OverallDiff)
	})

	t.Run("missing explicit template file fails", func(t *testing.T) {
		changes := new(MockChangesProvider)
		changes.On("GetChanges", ctx, "main", true).Return(sampleChangeSet(), nil)
		resolver := templates.NewResolver(t.TempDir(), templates.WithExplicitPath("does-not-exist.md"))

		svc := NewPRService(WithChangesProvider(changes), WithTemplateResolver(resolver))

		_, err := svc.BuildContext(ctx, GenerateRequest{Base: "main"})

		assert.ErrorIs(t, err, domainErrors.ErrTemplateFileMissing)
	})

	t.Run("comparison error propagates", func(t *testing.T) {
		changes := new(MockChangesProvider)
		changes.On("GetChanges", ctx, "main", true).Return(models.ChangeSet{}, domainErrors.ErrComparison)

		_, err := NewPRService(WithChangesProvider(changes)).BuildContext(ctx, GenerateRequest{Base: "main"})

		assert.ErrorIs(t, err, domainErrors.ErrComparison)
	})

	t.Run("ticket errors propagate", func(t *testing.T) {
		changes := new(MockChangesProvider)
		tickets := new(MockTicketProvider)
		changes.On("GetChanges", ctx, "main", true).Return(sampleChangeSet(), nil)
		tickets.On("GetTicket", ctx, "PROJ-404").Return(nil, domainErrors.ErrTicketNotFound)

		_, err := NewPRService(WithChangesProvider(changes), WithTicketProvider(tickets)).
			BuildContext(ctx, GenerateRequest{Base: "main", TicketKey: "PROJ-404"})

		assert.ErrorIs(t, err, domainErrors.ErrTicketNotFound)
	})

	keyFromBranch := func(branch string) (string, bool) {
		if strings.Contains(branch, "PROJ-7") {
			return "PROJ-7", true
		}
		return "", false
	}

	t.Run("ticket key inferred from the branch", func(t *testing.T) {
		changes := new(MockChangesProvider)
		tickets := new(MockTicketProvider)
		changes.On("GetChanges", ctx, "main", true).Return(sampleChangeSet(), nil)
		tickets.On("GetTicket", ctx, "PROJ-7").Return(&models.Ticket{Key: "PROJ-7", Summary: "Rate limit logins"}, nil)

		pc, err := NewPRService(WithChangesProvider(changes), WithTicketProvider(tickets),
			WithTicketKeyFromBranch(keyFromBranch)).
			BuildContext(ctx, GenerateRequest{Base: "main"})

		require.NoError(t, err)
		assert.Equal(t, "Rate limit logins", pc.Ticket.Summary)
		tickets.AssertExpectations(t)
	})

	t.Run("inferred ticket that cannot be fetched keeps the key", func(t *testing.T) {
		changes := new(MockChangesProvider)
		tickets := new(MockTicketProvider)
		changes.On("GetChanges", ctx, "main", true).Return(sampleChangeSet(), nil)
		tickets.On("GetTicket", ctx, "PROJ-7").Return(nil, domainErrors.ErrTicketNotFound)

		pc, err := NewPRService(WithChangesProvider(changes), WithTicketProvider(tickets),
			WithTicketKeyFromBranch(keyFromBranch)).
			BuildContext(ctx, GenerateRequest{Base: "main"})

		require.NoError(t, err)
		assert.Equal(t, "PROJ-7", pc.Ticket.Key)
		assert.Empty(t, pc.Ticket.Summary)
	})

	t.Run("explicit key wins over the branch", func(t *testing.T) {
		changes := new(MockChangesProvider)
		changes.On("GetChanges", ctx, "main", true).Return(sampleChangeSet(), nil)

		pc, err := NewPRService(WithChangesProvider(changes), WithTicketKeyFromBranch(keyFromBranch)).
			BuildContext(ctx, GenerateRequest{Base: "main", TicketKey: "OPS-1"})

		require.NoError(t, err)
		assert.Equal(t, "OPS-1", pc.Ticket.Key)
	})
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()
	pc := models.PromptContext{
		Ticket:  models.Ticket{Key: "PROJ-7", Summary: "Rate limit logins"},
		Changes: sampleChangeSet(),
	}

	t.Run("summary is threaded into the description prompt", func(t *testing.T) {
		gen := new(MockGenerator)
		gen.On("Generate", ctx, isSummaryPrompt).
			Return(`{"summary":"Adds a token bucket limiter."}`, &models.TokenUsage{TotalTokens: 10}, nil).Once()
		gen.On("Generate", ctx, mock.MatchedBy(func(p string) bool {
			return strings.Contains(p, `"title"`) && strings.Contains(p, "Adds a token bucket limiter.")
		})).Return("```json\n{\"title\":\"PROJ-7: Rate limit logins\",\"body\":\"## Summary\\nDone\"}\n```",
			&models.TokenUsage{TotalTokens: 5}, nil).Once()

		out, err := NewPRService(WithGenerator(gen)).Generate(ctx, pc)

		require.NoError(t, err)
		assert.Equal(t, "PROJ-7: Rate limit logins", out.Title)
		assert.Equal(t, "## Summary\nDone", out.Body)
		assert.Equal(t, "Adds a token bucket limiter.", out.Summary)
		assert.Equal(t, 15, out.Usage.TotalTokens)
		assert.False(t, out.Fallback)
		gen.AssertExpectations(t)
	})

	t.Run("empty summary is not fatal", func(t *testing.T) {
		gen := new(MockGenerator)
		gen.On("Generate", ctx, isSummaryPrompt).Return("", nil, domainErrors.ErrEmptyResponse).Once()
		gen.On("Generate", ctx, mock.MatchedBy(func(p string) bool {
			return strings.Contains(p, "No summary is available")
		})).Return(`{"title":"Rate limit logins","body":"b"}`, nil, nil).Once()

		out, err := NewPRService(WithGenerator(gen)).Generate(ctx, pc)

		require.NoError(t, err)
		assert.Equal(t, "PROJ-7: Rate limit logins", out.Title)
		assert.Empty(t, out.Summary)
	})

	t.Run("summary dispatch failure stops the pipeline", func(t *testing.T) {
		gen := new(MockGenerator)
		gen.On("Generate", ctx, isSummaryPrompt).Return("", nil, domainErrors.ErrProviderAuth).Once()

		_, err := NewPRService(WithGenerator(gen)).Generate(ctx, pc)

		assert.ErrorIs(t, err, domainErrors.ErrProviderAuth)
		gen.AssertNotCalled(t, "Generate", ctx, isDescriptionPrompt)
	})

	t.Run("description failure propagates", func(t *testing.T) {
		gen := new(MockGenerator)
		gen.On("Generate", ctx, isSummaryPrompt).Return(`{"summary":"s"}`, nil, nil).Once()
		gen.On("Generate", ctx, isDescriptionPrompt).Return("", nil, domainErrors.ErrEmptyResponse).Once()

		_, err := NewPRService(WithGenerator(gen)).Generate(ctx, pc)

		assert.ErrorIs(t, err, domainErrors.ErrEmptyResponse)
	})

	t.Run("missing title falls back to the ticket", func(t *testing.T) {
		gen := new(MockGenerator)
		gen.On("Generate", ctx, isSummaryPrompt).Return(`{"summary":"s"}`, nil, nil).Once()
		gen.On("Generate", ctx, isDescriptionPrompt).Return(`{"body":"only a body"}`, nil, nil).Once()

		out, err := NewPRService(WithGenerator(gen)).Generate(ctx, pc)

		require.NoError(t, err)
		assert.Equal(t, "PROJ-7: Rate limit logins", out.Title)
		assert.Equal(t, "only a body", out.Body)
	})

	t.Run("reports template sections the body dropped", func(t *testing.T) {
		withTmpl := pc
		withTmpl.Template = &models.PRTemplate{Content: "## Summary\n\n## Testing\n"}
		gen := new(MockGenerator)
		gen.On("Generate", ctx, isSummaryPrompt).Return(`{"summary":"s"}`, nil, nil).Once()
		gen.On("Generate", ctx, isDescriptionPrompt).Return(`{"title":"t","body":"## Summary\n\nx"}`, nil, nil).Once()

		out, err := NewPRService(WithGenerator(gen)).Generate(ctx, withTmpl)

		require.NoError(t, err)
		assert.Equal(t, []string{"Testing"}, out.MissingSections)
	})

	t.Run("no generator", func(t *testing.T) {
		_, err := NewPRService().Generate(ctx, pc)

		assert.ErrorIs(t, err, domainErrors.ErrNoProviderConfigured)
	})
}

func TestFallbackContent(t *testing.T) {
	pc := models.PromptContext{
		Ticket:  models.Ticket{Key: "PROJ-7", Summary: "Rate limit logins"},
		Changes: sampleChangeSet(),
	}

	out := NewPRService().FallbackContent(pc)

	assert.True(t, out.Fallback)
	assert.Equal(t, "PROJ-7: Rate limit logins", out.Title)
	assert.Equal(t, "## Summary\n\nRate limit logins\n\n"+
		"## Changes (2 files, +43 -1)\n\n"+
		"- `auth/limiter.go` (added, +40 -0)\n"+
		"- `auth/login.go` (modified, +3 -1)\n\n"+
		"## Commits\n\n"+
		"- add limiter\n"+
		"- wire limiter", out.Body)

	again := NewPRService().FallbackContent(pc)
	assert.Equal(t, out, again)
}

func TestFallbackContent_Template(t *testing.T) {
	pc := models.PromptContext{
		Changes:  models.ChangeSet{HeadBranch: "feature/add-login"},
		Template: &models.PRTemplate{Content: "## What\n\n- [ ] Tested\n"},
	}

	out := NewPRService().FallbackContent(pc)

	assert.Equal(t, "Add login", out.Title)
	assert.True(t, strings.HasPrefix(out.Body, "## What\n\n- [ ] Tested\n\n## Changes (0 files"))
}

func TestPublish(t *testing.T) {
	ctx := context.Background()
	content := &models.GeneratedContent{Title: "T", Body: "B"}
	req := PublishRequest{Head: "feature/x", Base: "main", Draft: true}

	t.Run("creates", func(t *testing.T) {
		client := new(MockVCSClient)
		client.On("FindOpenPullRequest", ctx, "feature/x").Return(nil, nil)
		client.On("CreatePullRequest", ctx, vcs.NewPullRequest{Title: "T", Body: "B", Head: "feature/x", Base: "main", Draft: true}).
			Return(&models.PullRequest{Number: 9}, nil)

		res, err := NewPRService(WithVCSClient(client)).Publish(ctx, content, req)

		require.NoError(t, err)
		assert.False(t, res.Existing)
		assert.Equal(t, 9, res.PullRequest.Number)
		client.AssertExpectations(t)
	})

	t.Run("existing pull request", func(t *testing.T) {
		client := new(MockVCSClient)
		client.On("FindOpenPullRequest", ctx, "feature/x").Return(&models.PullRequest{Number: 4}, nil)

		res, err := NewPRService(WithVCSClient(client)).Publish(ctx, content, req)

		require.NoError(t, err)
		assert.True(t, res.Existing)
		client.AssertNotCalled(t, "CreatePullRequest", mock.Anything, mock.Anything)
	})

	t.Run("create error", func(t *testing.T) {
		client := new(MockVCSClient)
		client.On("FindOpenPullRequest", ctx, "feature/x").Return(nil, nil)
		client.On("CreatePullRequest", ctx, mock.Anything).Return(nil, domainErrors.ErrCreatePR)

		_, err := NewPRService(WithVCSClient(client)).Publish(ctx, content, req)

		assert.ErrorIs(t, err, domainErrors.ErrCreatePR)
	})

	t.Run("no client", func(t *testing.T) {
		_, err := NewPRService().Publish(ctx, content, req)

		assert.ErrorIs(t, err, domainErrors.ErrVCSNotSupported)
	})
}

func TestEnsureTitle(t *testing.T) {
	withKey := models.PromptContext{Ticket: models.Ticket{Key: "PROJ-1", Summary: "Ticket summary"}}
	noKey := models.PromptContext{Changes: models.ChangeSet{HeadBranch: "fix/ABC-12-broken_cache"}}

	tests := []struct {
		name  string
		title string
		pc    models.PromptContext
		want  string
	}{
		{"keeps prefixed title", "PROJ-1: Fix it", withKey, "PROJ-1: Fix it"},
		{"prefix is case-insensitive", "proj-1: fix it", withKey, "proj-1: fix it"},
		{"adds missing prefix", "Fix it", withKey, "PROJ-1: Fix it"},
		{"empty uses ticket summary", "  ", withKey, "PROJ-1: Ticket summary"},
		{"empty without key uses branch", "", noKey, "Broken cache"},
		{"nothing at all", "", models.PromptContext{}, "Update"},
		{"long summary is cut", "", models.PromptContext{Ticket: models.Ticket{Key: "K-1", Summary: strings.Repeat("x", 80)}},
			"K-1: " + strings.Repeat("x", 57) + "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EnsureTitle(tt.title, tt.pc))
		})
	}
}
