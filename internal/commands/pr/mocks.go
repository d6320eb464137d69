package pr

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/thomas-vilte/matepr/internal/ai/gateway"
	"github.com/thomas-vilte/matepr/internal/models"
	"github.com/thomas-vilte/matepr/internal/services"
)

type MockWorkflow struct {
	mock.Mock
}

type MockProviderSelector struct {
	mock.Mock
}

func (m *MockWorkflow) BuildContext(ctx context.Context, req services.GenerateRequest) (models.PromptContext, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(models.PromptContext), args.Error(1)
}

func (m *MockWorkflow) Generate(ctx context.Context, pc models.PromptContext) (*models.GeneratedContent, error) {
	args := m.Called(ctx, pc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GeneratedContent), args.Error(1)
}

func (m *MockWorkflow) FallbackContent(pc models.PromptContext) *models.GeneratedContent {
	args := m.Called(pc)
	return args.Get(0).(*models.GeneratedContent)
}

func (m *MockWorkflow) Publish(ctx context.Context, content *models.GeneratedContent, req services.PublishRequest) (*services.PublishResult, error) {
	args := m.Called(ctx, content, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PublishResult), args.Error(1)
}

func (m *MockProviderSelector) SelectProvider(ctx context.Context) (gateway.ProviderID, error) {
	args := m.Called(ctx)
	return args.Get(0).(gateway.ProviderID), args.Error(1)
}

func (m *MockProviderSelector) Selected() *gateway.ProviderClient {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*gateway.ProviderClient)
}
