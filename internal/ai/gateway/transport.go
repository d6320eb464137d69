package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/thomas-vilte/matepr/internal/config"
	domainErrors "github.com/thomas-vilte/matepr/internal/errors"
	"github.com/tidwall/gjson"
	"google.golang.org/genai"
)

const maxResponseBytes = 8 << 20

// Transport posts one prompt to one provider and returns the provider's native response body.
type Transport interface {
	Post(ctx context.Context, prompt string, mc ModelConfig) ([]byte, error)
}

// TransportFactory builds the transport for a configured provider.
type TransportFactory func(ctx context.Context, id ProviderID, cred config.Credential, mc ModelConfig) (Transport, error)

// DefaultTransportFactory uses the genai SDK for gemini and plain HTTP for the rest.
func DefaultTransportFactory(client *http.Client) TransportFactory {
	return func(ctx context.Context, id ProviderID, cred config.Credential, mc ModelConfig) (Transport, error) {
		if id == ProviderGemini {
			return NewGeminiTransport(ctx, cred, mc, client)
		}
		return NewHTTPTransport(id, cred, mc, client)
	}
}

type HTTPTransport struct {
	id     ProviderID
	cap    capability
	apiKey string
	client *http.Client
}

// NewHTTPTransport builds a JSON-over-HTTP transport. A nil client gets one
// with mc.Timeout.
func NewHTTPTransport(id ProviderID, cred config.Credential, mc ModelConfig, client *http.Client) (*HTTPTransport, error) {
	c, ok := capabilities[id]
	if !ok || c.endpoint == "" {
		return nil, domainErrors.ErrUnknownProvider.WithContext("provider", id)
	}
	if client == nil {
		client = &http.Client{Timeout: mc.Timeout}
	}
	return &HTTPTransport{id: id, cap: c, apiKey: cred.Value, client: client}, nil
}

func (t *HTTPTransport) Post(ctx context.Context, prompt string, mc ModelConfig) ([]byte, error) {
	payload, err := json.Marshal(t.cap.buildRequest(prompt, mc))
	if err != nil {
		return nil, domainErrors.ErrProviderDispatch.WithError(err).WithContext("provider", t.id)
	}

	endpoint := t.cap.endpoint
	if mc.BaseURL != "" {
		endpoint = mc.BaseURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, domainErrors.ErrProviderDispatch.WithError(err).WithContext("provider", t.id)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range t.cap.authHeaders(t.apiKey) {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, domainErrors.ErrProviderDispatch.WithError(err).WithContext("provider", t.id)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, domainErrors.ErrProviderDispatch.WithError(err).WithContext("provider", t.id)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(t.id, resp.StatusCode, body)
	}
	return body, nil
}

func statusError(id ProviderID, status int, body []byte) error {
	base := domainErrors.ErrProviderDispatch
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		base = domainErrors.ErrProviderAuth
	}

	msg := gjson.GetBytes(body, "error.message").String()
	if msg == "" {
		msg = strings.TrimSpace(string(body))
		if len(msg) > 200 {
			msg = msg[:200] + "..."
		}
	}
	return base.
		WithContext("provider", id).
		WithContext("status", status).
		WithError(fmt.Errorf("%s: %s", http.StatusText(status), msg))
}

// GeminiTransport goes through the genai SDK and returns the SDK response
// re-encoded as JSON so the gateway reads it like any other provider.
type GeminiTransport struct {
	client *genai.Client
}

func NewGeminiTransport(ctx context.Context, cred config.Credential, mc ModelConfig, httpClient *http.Client) (*GeminiTransport, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: mc.Timeout}
	}
	cc := &genai.ClientConfig{
		APIKey:     cred.Value,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if mc.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: mc.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, classifyGeminiError(err)
	}
	return &GeminiTransport{client: client}, nil
}

func (t *GeminiTransport) Post(ctx context.Context, prompt string, mc ModelConfig) ([]byte, error) {
	req := capabilities[ProviderGemini].buildRequest(prompt, mc).(geminiRequest)

	resp, err := t.client.Models.GenerateContent(ctx, req.Model, req.Contents, req.Config)
	if err != nil {
		return nil, classifyGeminiError(err)
	}

	native, err := json.Marshal(resp)
	if err != nil {
		return nil, domainErrors.ErrProviderDispatch.WithError(err).WithContext("provider", ProviderGemini)
	}
	return native, nil
}

func classifyGeminiError(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "api key") ||
		strings.Contains(msg, "unauthorized") ||
		strings.Contains(msg, "permission") ||
		strings.Contains(msg, "unauthenticated") {
		return domainErrors.ErrProviderAuth.WithError(err).WithContext("provider", ProviderGemini)
	}
	return domainErrors.ErrProviderDispatch.WithError(err).WithContext("provider", ProviderGemini)
}
