package services

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/thomas-vilte/matepr/internal/models"
	"github.com/thomas-vilte/matepr/internal/vcs"
)

type (
	MockChangesProvider struct {
		mock.Mock
	}

	MockGitReader struct {
		mock.Mock
	}

	MockTicketProvider struct {
		mock.Mock
	}

	MockTemplateResolver struct {
		mock.Mock
	}

	MockGenerator struct {
		mock.Mock
	}

	MockVCSClient struct {
		mock.Mock
	}
)

func (m *MockChangesProvider) GetChanges(ctx context.Context, base string, detailed bool) (models.ChangeSet, error) {
	args := m.Called(ctx, base, detailed)
	return args.Get(0).(models.ChangeSet), args.Error(1)
}

func (m *MockGitReader) DiffText(ctx context.Context, base, path string) (string, error) {
	args := m.Called(ctx, base, path)
	return args.String(0), args.Error(1)
}

func (m *MockGitReader) RepoIdentity(ctx context.Context) (*models.RepoIdentity, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RepoIdentity), args.Error(1)
}

func (m *MockTicketProvider) GetTicket(ctx context.Context, key string) (*models.Ticket, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}

func (m *MockTemplateResolver) Resolve(ctx context.Context) (*models.PRTemplate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PRTemplate), args.Error(1)
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, *models.TokenUsage, error) {
	args := m.Called(ctx, prompt)
	var usage *models.TokenUsage
	if v := args.Get(1); v != nil {
		usage = v.(*models.TokenUsage)
	}
	return args.String(0), usage, args.Error(2)
}

func (m *MockVCSClient) CreatePullRequest(ctx context.Context, pr vcs.NewPullRequest) (*models.PullRequest, error) {
	args := m.Called(ctx, pr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PullRequest), args.Error(1)
}

func (m *MockVCSClient) FindOpenPullRequest(ctx context.Context, head string) (*models.PullRequest, error) {
	args := m.Called(ctx, head)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PullRequest), args.Error(1)
}
