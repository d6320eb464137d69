package gateway

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/thomas-vilte/matepr/internal/config"
	domainErrors "github.com/thomas-vilte/matepr/internal/errors"
)

type mapSource map[config.CredentialKey]string

func (m mapSource) Name() string { return "test" }

func (m mapSource) Lookup(key config.CredentialKey) (string, bool) {
	v, ok := m[key]
	return v, ok
}

func keys(ids ...ProviderID) mapSource {
	src := mapSource{}
	for _, id := range ids {
		src[config.AICredential(id)] = "key-" + string(id)
	}
	return src
}

type fakeTransport struct {
	mu      sync.Mutex
	calls   int
	prompts []string
	native  []byte
	err     error
}

func (f *fakeTransport) Post(_ context.Context, prompt string, _ ModelConfig) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.prompts = append(f.prompts, prompt)
	return f.native, f.err
}

// fakeFactory hands out one fakeTransport per provider and counts constructions.
type fakeFactory struct {
	mu         sync.Mutex
	transports map[ProviderID]*fakeTransport
	built      map[ProviderID]int
	fail       map[ProviderID]error
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{
		transports: map[ProviderID]*fakeTransport{},
		built:      map[ProviderID]int{},
		fail:       map[ProviderID]error{},
	}
}

func (f *fakeFactory) build(_ context.Context, id ProviderID, _ config.Credential, _ ModelConfig) (Transport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[id]; err != nil {
		return nil, err
	}
	f.built[id]++
	t, ok := f.transports[id]
	if !ok {
		t = &fakeTransport{}
		f.transports[id] = t
	}
	return t, nil
}

type MockChooser struct {
	mock.Mock
}

func (m *MockChooser) Choose(ctx context.Context, options []ProviderID, def ProviderID) (ProviderID, error) {
	args := m.Called(ctx, options, def)
	return args.Get(0).(ProviderID), args.Error(1)
}

func newTestGateway(src config.CredentialSource, f *fakeFactory, opts ...Option) *Gateway {
	opts = append([]Option{WithTransportFactory(f.build)}, opts...)
	return NewGateway(&config.Config{}, []config.CredentialSource{src}, opts...)
}

func TestSelectProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("no providers", func(t *testing.T) {
		g := newTestGateway(keys(), newFakeFactory())

		_, err := g.SelectProvider(ctx)

		assert.ErrorIs(t, err, domainErrors.ErrNoProviderConfigured)
		assert.Equal(t, StateFailed, g.State())
	})

	t.Run("single provider is used without preference or chooser", func(t *testing.T) {
		chooser := new(MockChooser)
		g := newTestGateway(keys(ProviderCopilot), newFakeFactory(),
			WithPreference(), WithChooser(chooser))

		id, err := g.SelectProvider(ctx)

		require.NoError(t, err)
		assert.Equal(t, ProviderCopilot, id)
		assert.Equal(t, StateProviderSelected, g.State())
		chooser.AssertNotCalled(t, "Choose", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("chatgpt wins over gemini without prompting", func(t *testing.T) {
		chooser := new(MockChooser)
		g := newTestGateway(keys(ProviderGemini, ProviderChatGPT), newFakeFactory(), WithChooser(chooser))

		id, err := g.SelectProvider(ctx)

		require.NoError(t, err)
		assert.Equal(t, ProviderChatGPT, id)
		chooser.AssertNotCalled(t, "Choose", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("claude is the primary provider", func(t *testing.T) {
		g := newTestGateway(keys(ProviderCopilot, ProviderGemini, ProviderChatGPT, ProviderClaude), newFakeFactory())

		id, err := g.SelectProvider(ctx)

		require.NoError(t, err)
		assert.Equal(t, ProviderClaude, id)
		assert.Equal(t, []ProviderID{ProviderClaude, ProviderChatGPT, ProviderGemini, ProviderCopilot}, g.Configured())
	})

	t.Run("chooser breaks ties the preference list cannot", func(t *testing.T) {
		chooser := new(MockChooser)
		chooser.On("Choose", mock.Anything, []ProviderID{ProviderChatGPT, ProviderGemini}, ProviderChatGPT).
			Return(ProviderGemini, nil)
		g := newTestGateway(keys(ProviderGemini, ProviderChatGPT), newFakeFactory(),
			WithPreference(), WithChooser(chooser))

		id, err := g.SelectProvider(ctx)

		require.NoError(t, err)
		assert.Equal(t, ProviderGemini, id)
		chooser.AssertExpectations(t)
	})

	t.Run("without a chooser the most preferred present is used", func(t *testing.T) {
		g := newTestGateway(keys(ProviderGemini, ProviderChatGPT), newFakeFactory(), WithPreference())

		id, err := g.SelectProvider(ctx)

		require.NoError(t, err)
		assert.Equal(t, ProviderChatGPT, id)
	})

	t.Run("chooser errors propagate", func(t *testing.T) {
		chooser := new(MockChooser)
		chooser.On("Choose", mock.Anything, mock.Anything, mock.Anything).
			Return(ProviderID(""), errors.New("cancelled"))
		g := newTestGateway(keys(ProviderGemini, ProviderChatGPT), newFakeFactory(),
			WithPreference(), WithChooser(chooser))

		_, err := g.SelectProvider(ctx)

		assert.EqualError(t, err, "cancelled")
	})

	t.Run("selection sticks for the run", func(t *testing.T) {
		src := keys(ProviderGemini)
		g := newTestGateway(src, newFakeFactory())

		first, err := g.SelectProvider(ctx)
		require.NoError(t, err)
		src[config.AICredential(ProviderClaude)] = "late-key"
		second, err := g.SelectProvider(ctx)
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})

	t.Run("providers whose transport cannot be built are skipped", func(t *testing.T) {
		f := newFakeFactory()
		f.fail[ProviderClaude] = errors.New("boom")
		g := newTestGateway(keys(ProviderClaude, ProviderGemini), f)

		id, err := g.SelectProvider(ctx)

		require.NoError(t, err)
		assert.Equal(t, ProviderGemini, id)
	})
}

func TestConfigure_Idempotent(t *testing.T) {
	ctx := context.Background()
	src := keys(ProviderClaude)
	f := newFakeFactory()
	g := newTestGateway(src, f)

	require.NoError(t, g.Configure(ctx))
	assert.Equal(t, StateConfigured, g.State())
	src[config.AICredential(ProviderGemini)] = "new"
	require.NoError(t, g.Configure(ctx))

	assert.Equal(t, 1, f.built[ProviderClaude])
	assert.Zero(t, f.built[ProviderGemini])
	assert.Equal(t, []ProviderID{ProviderClaude}, g.Configured())
}

func TestUse(t *testing.T) {
	ctx := context.Background()

	t.Run("explicit provider", func(t *testing.T) {
		g := newTestGateway(keys(ProviderClaude, ProviderGemini), newFakeFactory())

		require.NoError(t, g.Use(ctx, ProviderGemini))
		id, err := g.SelectProvider(ctx)

		require.NoError(t, err)
		assert.Equal(t, ProviderGemini, id)
		assert.Equal(t, ProviderGemini, g.Selected().ID)
	})

	t.Run("unknown provider", func(t *testing.T) {
		g := newTestGateway(keys(ProviderClaude), newFakeFactory())

		assert.ErrorIs(t, g.Use(ctx, "llama"), domainErrors.ErrUnknownProvider)
	})

	t.Run("known but not configured", func(t *testing.T) {
		g := newTestGateway(keys(ProviderClaude), newFakeFactory())

		assert.ErrorIs(t, g.Use(ctx, ProviderCopilot), domainErrors.ErrNoProviderConfigured)
	})
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the extracted text and usage", func(t *testing.T) {
		f := newFakeFactory()
		f.transports[ProviderChatGPT] = &fakeTransport{
			native: []byte(`{"choices":[{"message":{"content":"{\"summary\":\"ok\"}"}}],"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`),
		}
		g := newTestGateway(keys(ProviderChatGPT), f)
		assert.Equal(t, StateUninitialized, g.State())

		text, usage, err := g.Generate(ctx, "prompt")

		require.NoError(t, err)
		assert.Equal(t, `{"summary":"ok"}`, text)
		require.NotNil(t, usage)
		assert.Equal(t, 5, usage.TotalTokens)
		assert.Equal(t, "chatgpt", usage.Provider)
		assert.Equal(t, string(config.ModelGPTV4o), usage.Model)
		assert.Equal(t, StateCompleted, g.State())
		assert.Equal(t, []string{"prompt"}, f.transports[ProviderChatGPT].prompts)
	})

	t.Run("empty response", func(t *testing.T) {
		f := newFakeFactory()
		f.transports[ProviderClaude] = &fakeTransport{native: []byte(`{"content":[]}`)}
		g := newTestGateway(keys(ProviderClaude), f)

		_, _, err := g.Generate(ctx, "p")

		assert.ErrorIs(t, err, domainErrors.ErrEmptyResponse)
		assert.ErrorIs(t, err, domainErrors.ErrProviderDispatch)
		assert.Equal(t, StateFailed, g.State())
	})

	t.Run("transport failure is not retried and does not fail over", func(t *testing.T) {
		f := newFakeFactory()
		f.transports[ProviderClaude] = &fakeTransport{err: domainErrors.ErrProviderDispatch.WithContext("status", 503)}
		f.transports[ProviderChatGPT] = &fakeTransport{native: []byte(`{"choices":[{"message":{"content":"x"}}]}`)}
		g := newTestGateway(keys(ProviderClaude, ProviderChatGPT), f)

		_, _, err := g.Generate(ctx, "p")

		assert.ErrorIs(t, err, domainErrors.ErrProviderDispatch)
		assert.Equal(t, 1, f.transports[ProviderClaude].calls)
		assert.Zero(t, f.transports[ProviderChatGPT].calls)
		assert.Equal(t, StateFailed, g.State())
	})

	t.Run("both stages use the same provider", func(t *testing.T) {
		f := newFakeFactory()
		f.transports[ProviderGemini] = &fakeTransport{native: []byte(`{"candidates":[{"content":{"parts":[{"text":"x"}]}}]}`)}
		g := newTestGateway(keys(ProviderGemini, ProviderCopilot), f)

		_, _, err := g.Generate(ctx, "summary")
		require.NoError(t, err)
		_, _, err = g.Generate(ctx, "description")
		require.NoError(t, err)

		assert.Equal(t, []string{"summary", "description"}, f.transports[ProviderGemini].prompts)
	})

	t.Run("no provider", func(t *testing.T) {
		_, _, err := newTestGateway(keys(), newFakeFactory()).Generate(ctx, "p")

		assert.ErrorIs(t, err, domainErrors.ErrNoProviderConfigured)
	})
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "uninitialized", StateUninitialized.String())
	assert.Equal(t, "dispatching", StateDispatching.String())
	assert.Equal(t, "unknown", State(99).String())
}
