package config

import "slices"

type AI string

const (
	AIClaude  AI = "claude"
	AIChatGPT AI = "chatgpt"
	AIGemini  AI = "gemini"
	AICopilot AI = "copilot"
)

type Model string

const (
	ModelClaudeSonnet45 Model = "claude-sonnet-4-5"
	ModelClaudeHaiku45  Model = "claude-haiku-4-5"

	ModelGPTV4o     Model = "gpt-4o"
	ModelGPTV4oMini Model = "gpt-4o-mini"

	ModelGeminiV25Pro       Model = "gemini-2.5-pro"
	ModelGeminiV25Flash     Model = "gemini-2.5-flash"
	ModelGeminiV25FlashLite Model = "gemini-2.5-flash-lite"

	// GitHub Models catalogue ids carry the publisher prefix
	ModelCopilotGPT4o     Model = "openai/gpt-4o"
	ModelCopilotGPT4oMini Model = "openai/gpt-4o-mini"
)

// SupportedAIs returns every known provider in preference order.
func SupportedAIs() []AI {
	return []AI{
		AIClaude,
		AIChatGPT,
		AIGemini,
		AICopilot,
	}
}

func IsSupportedAI(ai AI) bool {
	return slices.Contains(SupportedAIs(), ai)
}

func ModelsForAI(ai AI) []Model {
	switch ai {
	case AIClaude:
		return []Model{ModelClaudeSonnet45, ModelClaudeHaiku45}
	case AIChatGPT:
		return []Model{ModelGPTV4o, ModelGPTV4oMini}
	case AIGemini:
		return []Model{
			ModelGeminiV25Flash,
			ModelGeminiV25Pro,
			ModelGeminiV25FlashLite,
		}
	case AICopilot:
		return []Model{ModelCopilotGPT4o, ModelCopilotGPT4oMini}
	default:
		return []Model{}
	}
}

func DefaultModelForAI(ai AI) Model {
	models := ModelsForAI(ai)
	if len(models) == 0 {
		return ""
	}
	return models[0]
}

// ModelFor returns the configured model for ai, or its default.
func (c *Config) ModelFor(ai AI) Model {
	if c != nil {
		if p, ok := c.AIProviders[string(ai)]; ok && p.Model != "" {
			return Model(p.Model)
		}
	}
	return DefaultModelForAI(ai)
}
