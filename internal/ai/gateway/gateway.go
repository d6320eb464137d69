package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/thomas-vilte/matepr/internal/ai"
	"github.com/thomas-vilte/matepr/internal/config"
	domainErrors "github.com/thomas-vilte/matepr/internal/errors"
	"github.com/thomas-vilte/matepr/internal/logger"
	"github.com/thomas-vilte/matepr/internal/models"
)

type State int

const (
	StateUninitialized State = iota
	StateConfigured
	StateProviderSelected
	StateDispatching
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateConfigured:
		return "configured"
	case StateProviderSelected:
		return "provider_selected"
	case StateDispatching:
		return "dispatching"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Chooser breaks a tie between configured providers when the preference list
// cannot. def is the option to use when the operator just confirms.
type Chooser interface {
	Choose(ctx context.Context, options []ProviderID, def ProviderID) (ProviderID, error)
}

// ProviderClient is one configured backend binding, immutable once built.
type ProviderClient struct {
	ID         ProviderID
	Credential config.Credential
	Model      ModelConfig
	Transport  Transport
}

// Gateway owns the provider clients of a single run and dispatches prompts to
// the one it selects.
type Gateway struct {
	mu sync.Mutex

	cfg        *config.Config
	sources    []config.CredentialSource
	preference []ProviderID
	chooser    Chooser
	factory    TransportFactory

	clients  map[ProviderID]*ProviderClient
	selected *ProviderClient
	state    State
}

type Option func(*Gateway)

// WithPreference replaces the fixed provider preference order.
func WithPreference(ids ...ProviderID) Option {
	return func(g *Gateway) {
		g.preference = ids
	}
}

func WithChooser(c Chooser) Option {
	return func(g *Gateway) {
		g.chooser = c
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(g *Gateway) {
		g.factory = DefaultTransportFactory(client)
	}
}

func WithTransportFactory(f TransportFactory) Option {
	return func(g *Gateway) {
		g.factory = f
	}
}

// NewGateway builds an unconfigured gateway. Credentials are looked up in
// sources, in the given order.
func NewGateway(cfg *config.Config, sources []config.CredentialSource, opts ...Option) *Gateway {
	g := &Gateway{
		cfg:        cfg,
		sources:    sources,
		preference: config.SupportedAIs(),
		factory:    DefaultTransportFactory(nil),
		state:      StateUninitialized,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gateway) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Configure builds one client per provider with a credential. Calling it again
// keeps the clients built the first time.
func (g *Gateway) Configure(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.configureLocked(ctx)
}

func (g *Gateway) configureLocked(ctx context.Context) error {
	if g.state != StateUninitialized {
		return nil
	}
	log := logger.FromContext(ctx)

	g.clients = make(map[ProviderID]*ProviderClient)
	for _, id := range config.SupportedAIs() {
		cred, ok := config.Resolve(g.sources, config.AICredential(id))
		if !ok {
			continue
		}
		mc := ModelConfigFor(g.cfg, id)
		t, err := g.factory(ctx, id, cred, mc)
		if err != nil {
			log.Warn("skipping AI provider",
				"provider", id,
				"error", err)
			continue
		}
		g.clients[id] = &ProviderClient{ID: id, Credential: cred, Model: mc, Transport: t}
		log.Debug("AI provider configured",
			"provider", id,
			"model", mc.Model,
			"source", cred.Source)
	}

	g.state = StateConfigured
	return nil
}

// Configured lists the configured providers in preference order.
func (g *Gateway) Configured() []ProviderID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.configuredLocked()
}

func (g *Gateway) configuredLocked() []ProviderID {
	ids := make([]ProviderID, 0, len(g.clients))
	for _, id := range g.preference {
		if _, ok := g.clients[id]; ok {
			ids = append(ids, id)
		}
	}
	for _, id := range config.SupportedAIs() {
		if _, ok := g.clients[id]; ok && !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return ids
}

// SelectProvider picks the provider for this run: the only one configured,
// else the first in preference order, else whatever the Chooser returns.
// The choice sticks for the gateway's lifetime.
func (g *Gateway) SelectProvider(ctx context.Context) (ProviderID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.configureLocked(ctx); err != nil {
		return "", err
	}
	if g.selected != nil {
		return g.selected.ID, nil
	}

	switch len(g.clients) {
	case 0:
		g.state = StateFailed
		return "", domainErrors.ErrNoProviderConfigured
	case 1:
		for _, c := range g.clients {
			return g.selectLocked(ctx, c.ID, "only"), nil
		}
	}

	for _, id := range g.preference {
		if _, ok := g.clients[id]; ok {
			return g.selectLocked(ctx, id, "preference"), nil
		}
	}

	options := g.configuredLocked()
	choice := options[0]
	if g.chooser != nil {
		picked, err := g.chooser.Choose(ctx, options, choice)
		if err != nil {
			return "", err
		}
		if _, ok := g.clients[picked]; !ok {
			return "", domainErrors.ErrUnknownProvider.WithContext("provider", picked)
		}
		choice = picked
	}
	return g.selectLocked(ctx, choice, "chooser"), nil
}

// Use selects id explicitly, bypassing the preference order.
func (g *Gateway) Use(ctx context.Context, id ProviderID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !config.IsSupportedAI(id) {
		return domainErrors.ErrUnknownProvider.
			WithContext("provider", id).
			WithSuggestion("Use one of: claude, chatgpt, gemini, copilot")
	}
	if err := g.configureLocked(ctx); err != nil {
		return err
	}
	if _, ok := g.clients[id]; !ok {
		return domainErrors.ErrNoProviderConfigured.WithContext("provider", id)
	}
	g.selectLocked(ctx, id, "explicit")
	return nil
}

func (g *Gateway) selectLocked(ctx context.Context, id ProviderID, reason string) ProviderID {
	g.selected = g.clients[id]
	g.state = StateProviderSelected
	logger.Info(ctx, "AI provider selected",
		"provider", id,
		"model", g.selected.Model.Model,
		"reason", reason)
	return id
}

// Selected returns the selected client, or nil before selection.
func (g *Gateway) Selected() *ProviderClient {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.selected
}

// Generate sends prompt to the selected provider exactly once and returns the
// reply text. There is no retry and no failover to another provider.
func (g *Gateway) Generate(ctx context.Context, prompt string) (string, *models.TokenUsage, error) {
	if _, err := g.SelectProvider(ctx); err != nil {
		return "", nil, err
	}

	g.mu.Lock()
	client := g.selected
	g.state = StateDispatching
	g.mu.Unlock()

	log := logger.FromContext(ctx)
	if log.Enabled(ctx, slog.LevelDebug) {
		log.Debug("dispatching prompt",
			"provider", client.ID,
			"model", client.Model.Model,
			"prompt_chars", len(prompt),
			"tokens", ai.EstimateTokens(prompt))
	}

	start := time.Now()
	native, err := client.Transport.Post(ctx, prompt, client.Model)
	if err != nil {
		g.setState(StateFailed)
		return "", nil, err
	}

	c := capabilities[client.ID]
	text := c.extractText(native)
	if text == "" {
		g.setState(StateFailed)
		return "", nil, domainErrors.ErrEmptyResponse.WithContext("provider", client.ID)
	}

	usage := c.extractUsage(native)
	if usage == nil {
		usage = &models.TokenUsage{}
	}
	usage.Provider = string(client.ID)
	usage.Model = client.Model.Model
	usage.DurationMs = time.Since(start).Milliseconds()

	log.Info("AI response received",
		"provider", client.ID,
		"total", usage.TotalTokens,
		"duration", time.Duration(usage.DurationMs)*time.Millisecond)

	g.setState(StateCompleted)
	return text, usage, nil
}

func (g *Gateway) setState(s State) {
	g.mu.Lock()
	g.state = s
	g.mu.Unlock()
}
