package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	domainErrors "github.com/thomas-vilte/matepr/internal/errors"
)

type (
	Config struct {
		Language string `json:"language"`
		PathFile string `json:"path_file"`

		AIProviders map[string]AIProviderConfig `json:"ai_providers,omitempty"`
		Jira        JiraConfig                  `json:"jira"`
		Confluence  ConfluenceConfig            `json:"confluence"`
		GitHub      GitHubConfig                `json:"github"`
		Prompt      PromptConfig                `json:"prompt"`
	}

	AIProviderConfig struct {
		APIKey         string `json:"api_key,omitempty"`
		Model          string `json:"model,omitempty"`
		MaxTokens      int    `json:"max_tokens,omitempty"`
		TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
		BaseURL        string `json:"base_url,omitempty"`
	}

	JiraConfig struct {
		BaseURL  string `json:"base_url,omitempty"`
		Email    string `json:"email,omitempty"`
		APIToken string `json:"api_token,omitempty"`
	}

	ConfluenceConfig struct {
		BaseURL        string `json:"base_url,omitempty"`
		Email          string `json:"email,omitempty"`
		APIToken       string `json:"api_token,omitempty"`
		TemplatePageID string `json:"template_page_id,omitempty"`
	}

	GitHubConfig struct {
		Token string `json:"token,omitempty"`
	}

	// PromptConfig overrides the prompt length budgets. Zero keeps the default.
	// TemplateChars stays unlimited unless set or Legacy is on.
	PromptConfig struct {
		TemplateChars        int  `json:"template_chars,omitempty"`
		DiffChars            int  `json:"diff_chars,omitempty"`
		OverallDiffChars     int  `json:"overall_diff_chars,omitempty"`
		DescriptionDiffChars int  `json:"description_diff_chars,omitempty"`
		Legacy               bool `json:"legacy,omitempty"`
	}
)

const (
	configDirName  = ".matepr"
	configFileName = "config.json"

	defaultLang = LangEN
)

// DefaultDir returns the user's home directory, where LoadConfig looks for .matepr/.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", domainErrors.ErrConfigMissing.WithError(err)
	}
	return home, nil
}

// Path resolves the config file location for dir. A path ending in .json is used as is.
func Path(dir string) string {
	if filepath.Ext(dir) == ".json" {
		return dir
	}
	return filepath.Join(dir, configDirName, configFileName)
}

func LoadConfig(dir string) (*Config, error) {
	configPath := Path(dir)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return createDefaultConfig(configPath)
	} else if err != nil {
		return nil, domainErrors.ErrConfigMissing.
			WithContext("path", configPath).
			WithError(err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, domainErrors.ErrConfigMissing.
			WithContext("path", configPath).
			WithError(err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, domainErrors.ErrInvalidConfig.
			WithContext("path", configPath).
			WithContext("reason", "malformed JSON").
			WithError(err)
	}
	config.PathFile = configPath

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func createDefaultConfig(path string) (*Config, error) {
	config := &Config{
		Language:    defaultLang,
		PathFile:    path,
		AIProviders: map[string]AIProviderConfig{},
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, domainErrors.ErrConfigMissing.
			WithContext("path", path).
			WithError(err)
	}

	if err := writeConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

func SaveConfig(config *Config) error {
	if err := validateConfig(config); err != nil {
		return err
	}

	if config.PathFile == "" {
		return domainErrors.ErrInvalidConfig.WithContext("reason", "config file path is not set")
	}

	return writeConfig(config)
}

func writeConfig(config *Config) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return domainErrors.ErrInvalidConfig.WithError(err)
	}

	// the file holds API tokens
	if err := os.WriteFile(config.PathFile, data, 0o600); err != nil {
		return domainErrors.ErrConfigMissing.
			WithContext("path", config.PathFile).
			WithError(err)
	}
	return nil
}

func validateConfig(config *Config) error {
	if config.Language == "" {
		return domainErrors.ErrInvalidConfig.WithContext("reason", "language cannot be empty")
	}

	for name, provider := range config.AIProviders {
		if !IsSupportedAI(AI(name)) {
			return domainErrors.ErrInvalidConfig.
				WithContext("reason", "unknown AI provider").
				WithContext("provider", name).
				WithSuggestion(fmt.Sprintf("Supported providers: %v", SupportedAIs()))
		}
		if provider.MaxTokens < 0 || provider.TimeoutSeconds < 0 {
			return domainErrors.ErrInvalidConfig.
				WithContext("reason", "max_tokens and timeout_seconds must not be negative").
				WithContext("provider", name)
		}
	}

	if config.Jira.BaseURL != "" && (config.Jira.Email == "" || config.Jira.APIToken == "") {
		return domainErrors.ErrInvalidConfig.
			WithContext("reason", "jira requires email and api_token when base_url is set")
	}

	if config.Confluence.TemplatePageID != "" && config.Confluence.BaseURL == "" {
		return domainErrors.ErrInvalidConfig.
			WithContext("reason", "confluence template_page_id requires base_url")
	}

	p := config.Prompt
	if p.TemplateChars < 0 || p.DiffChars < 0 || p.OverallDiffChars < 0 || p.DescriptionDiffChars < 0 {
		return domainErrors.ErrInvalidConfig.WithContext("reason", "prompt limits must not be negative")
	}

	return nil
}
