package gateway

import (
	"strings"
	"time"

	"github.com/thomas-vilte/matepr/internal/config"
	"github.com/thomas-vilte/matepr/internal/models"
	"github.com/tidwall/gjson"
	"google.golang.org/genai"
)

// ProviderID identifies one AI backend.
type ProviderID = config.AI

const (
	ProviderClaude  = config.AIClaude
	ProviderChatGPT = config.AIChatGPT
	ProviderGemini  = config.AIGemini
	ProviderCopilot = config.AICopilot
)

const (
	DefaultMaxTokens = 4096
	DefaultTimeout   = 60 * time.Second

	anthropicVersion  = "2023-06-01"
	githubAPIVersion  = "2022-11-28"
	claudeEndpoint    = "https://api.anthropic.com/v1/messages"
	openAIEndpoint    = "https://api.openai.com/v1/chat/completions"
	copilotEndpoint   = "https://models.github.ai/inference/chat/completions"
	geminiTemperature = 0.3
)

// ModelConfig is the per-provider model binding used for every call.
type ModelConfig struct {
	Model     string
	MaxTokens int
	Timeout   time.Duration
	// BaseURL replaces the provider endpoint (the API root for gemini).
	BaseURL string
}

// capability is everything the gateway knows about one provider's wire shape.
type capability struct {
	endpoint     string
	authHeaders  func(key string) map[string]string
	buildRequest func(prompt string, mc ModelConfig) any
	extractText  func(native []byte) string
	extractUsage func(native []byte) *models.TokenUsage
}

var capabilities = map[ProviderID]capability{
	ProviderClaude: {
		endpoint: claudeEndpoint,
		authHeaders: func(key string) map[string]string {
			return map[string]string{
				"x-api-key":         key,
				"anthropic-version": anthropicVersion,
			}
		},
		buildRequest: func(prompt string, mc ModelConfig) any {
			return claudeRequest{
				Model:     mc.Model,
				MaxTokens: mc.MaxTokens,
				Messages:  []chatMessage{{Role: "user", Content: prompt}},
			}
		},
		extractText: func(native []byte) string {
			var sb strings.Builder
			for _, block := range gjson.GetBytes(native, `content.#(type=="text")#.text`).Array() {
				sb.WriteString(block.String())
			}
			return sb.String()
		},
		extractUsage: usageFromPaths("usage.input_tokens", "usage.output_tokens", ""),
	},
	ProviderChatGPT: openAICapability(openAIEndpoint, nil),
	ProviderCopilot: openAICapability(copilotEndpoint, map[string]string{
		"Accept":               "application/vnd.github+json",
		"X-GitHub-Api-Version": githubAPIVersion,
	}),
	ProviderGemini: {
		buildRequest: func(prompt string, mc ModelConfig) any {
			cfg := &genai.GenerateContentConfig{
				Temperature:      genai.Ptr[float32](geminiTemperature),
				MaxOutputTokens:  int32(mc.MaxTokens),
				ResponseMIMEType: "application/json",
			}
			if strings.HasPrefix(mc.Model, "gemini-3") {
				cfg.ThinkingConfig = &genai.ThinkingConfig{IncludeThoughts: true}
			}
			return geminiRequest{
				Model:    mc.Model,
				Contents: genai.Text(prompt),
				Config:   cfg,
			}
		},
		extractText: func(native []byte) string {
			var sb strings.Builder
			for _, part := range gjson.GetBytes(native, "candidates.0.content.parts").Array() {
				if part.Get("thought").Bool() {
					continue
				}
				sb.WriteString(part.Get("text").String())
			}
			return sb.String()
		},
		extractUsage: usageFromPaths(
			"usageMetadata.promptTokenCount",
			"usageMetadata.candidatesTokenCount",
			"usageMetadata.totalTokenCount"),
	},
}

func openAICapability(endpoint string, extra map[string]string) capability {
	return capability{
		endpoint: endpoint,
		authHeaders: func(key string) map[string]string {
			h := map[string]string{"Authorization": "Bearer " + key}
			for k, v := range extra {
				h[k] = v
			}
			return h
		},
		buildRequest: func(prompt string, mc ModelConfig) any {
			return chatRequest{
				Model:     mc.Model,
				MaxTokens: mc.MaxTokens,
				Messages:  []chatMessage{{Role: "user", Content: prompt}},
			}
		},
		extractText: func(native []byte) string {
			return gjson.GetBytes(native, "choices.0.message.content").String()
		},
		extractUsage: usageFromPaths("usage.prompt_tokens", "usage.completion_tokens", "usage.total_tokens"),
	}
}

// usageFromPaths reads token counts with gjson. An empty total path sums input and output.
func usageFromPaths(input, output, total string) func([]byte) *models.TokenUsage {
	return func(native []byte) *models.TokenUsage {
		in := gjson.GetBytes(native, input)
		out := gjson.GetBytes(native, output)
		if !in.Exists() && !out.Exists() {
			return nil
		}
		u := &models.TokenUsage{
			InputTokens:  int(in.Int()),
			OutputTokens: int(out.Int()),
		}
		if total != "" {
			u.TotalTokens = int(gjson.GetBytes(native, total).Int())
		}
		if u.TotalTokens == 0 {
			u.TotalTokens = u.InputTokens + u.OutputTokens
		}
		return u
	}
}

type (
	chatMessage struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}

	claudeRequest struct {
		Model     string        `json:"model"`
		MaxTokens int           `json:"max_tokens"`
		Messages  []chatMessage `json:"messages"`
	}

	chatRequest struct {
		Model     string        `json:"model"`
		Messages  []chatMessage `json:"messages"`
		MaxTokens int           `json:"max_tokens,omitempty"`
	}

	geminiRequest struct {
		Model    string
		Contents []*genai.Content
		Config   *genai.GenerateContentConfig
	}
)

// ModelConfigFor resolves the model binding for id from the config file,
// filling defaults.
func ModelConfigFor(cfg *config.Config, id ProviderID) ModelConfig {
	mc := ModelConfig{
		Model:     string(cfg.ModelFor(id)),
		MaxTokens: DefaultMaxTokens,
		Timeout:   DefaultTimeout,
	}
	if cfg == nil {
		return mc
	}
	p := cfg.AIProviders[string(id)]
	if p.MaxTokens > 0 {
		mc.MaxTokens = p.MaxTokens
	}
	if p.TimeoutSeconds > 0 {
		mc.Timeout = time.Duration(p.TimeoutSeconds) * time.Second
	}
	mc.BaseURL = p.BaseURL
	return mc
}
