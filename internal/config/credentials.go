package config

import (
	"errors"
	"io/fs"
	"os"
	"sync"

	"github.com/joho/godotenv"
)

type CredentialKey string

const (
	CredentialGitHub     CredentialKey = "github"
	CredentialJira       CredentialKey = "jira"
	CredentialConfluence CredentialKey = "confluence"
)

// AICredential is the lookup key for an AI provider's API key.
func AICredential(ai AI) CredentialKey {
	return CredentialKey(ai)
}

// Credential is a resolved secret and the name of the source it came from.
type Credential struct {
	Value  string `masq:"secret"`
	Source string
}

// CredentialSource is one strategy for finding a secret. Sources are consulted
// in the order they are given to Resolve.
type CredentialSource interface {
	Name() string
	Lookup(key CredentialKey) (string, bool)
}

// Resolve returns the first non-empty value any source has for key.
func Resolve(sources []CredentialSource, key CredentialKey) (Credential, bool) {
	for _, src := range sources {
		if src == nil {
			continue
		}
		if v, ok := src.Lookup(key); ok && v != "" {
			return Credential{Value: v, Source: src.Name()}, true
		}
	}
	return Credential{}, false
}

// DefaultSources is config file, then environment, then a .env file.
func DefaultSources(cfg *Config, dotEnvPath string) []CredentialSource {
	return []CredentialSource{
		NewConfigFileSource(cfg),
		NewEnvSource(nil),
		NewDotEnvSource(dotEnvPath),
	}
}

type ConfigFileSource struct {
	cfg *Config
}

func NewConfigFileSource(cfg *Config) *ConfigFileSource {
	return &ConfigFileSource{cfg: cfg}
}

func (s *ConfigFileSource) Name() string { return "config" }

func (s *ConfigFileSource) Lookup(key CredentialKey) (string, bool) {
	if s.cfg == nil {
		return "", false
	}
	switch key {
	case CredentialGitHub:
		return s.cfg.GitHub.Token, s.cfg.GitHub.Token != ""
	case CredentialJira:
		return s.cfg.Jira.APIToken, s.cfg.Jira.APIToken != ""
	case CredentialConfluence:
		if s.cfg.Confluence.APIToken == "" && s.cfg.Confluence.BaseURL != "" && s.cfg.Confluence.BaseURL == s.cfg.Jira.BaseURL {
			// same Atlassian site, same token
			return s.cfg.Jira.APIToken, s.cfg.Jira.APIToken != ""
		}
		return s.cfg.Confluence.APIToken, s.cfg.Confluence.APIToken != ""
	}

	if p, ok := s.cfg.AIProviders[string(key)]; ok && p.APIKey != "" {
		return p.APIKey, true
	}
	if key == AICredential(AICopilot) {
		return s.Lookup(CredentialGitHub)
	}
	return "", false
}

// DefaultEnvVars lists the environment variables checked for each key, in order.
var DefaultEnvVars = map[CredentialKey][]string{
	AICredential(AIClaude):  {"ANTHROPIC_API_KEY", "CLAUDE_API_KEY"},
	AICredential(AIChatGPT): {"OPENAI_API_KEY"},
	AICredential(AIGemini):  {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	AICredential(AICopilot): {"GITHUB_MODELS_TOKEN", "GITHUB_TOKEN", "GH_TOKEN"},
	CredentialGitHub:        {"GITHUB_TOKEN", "GH_TOKEN"},
	CredentialJira:          {"JIRA_API_TOKEN"},
	CredentialConfluence:    {"CONFLUENCE_API_TOKEN", "JIRA_API_TOKEN"},
}

type EnvSource struct {
	vars   map[CredentialKey][]string
	getenv func(string) string
}

// NewEnvSource reads from the process environment. A nil vars uses DefaultEnvVars.
func NewEnvSource(vars map[CredentialKey][]string) *EnvSource {
	if vars == nil {
		vars = DefaultEnvVars
	}
	return &EnvSource{vars: vars, getenv: os.Getenv}
}

func (s *EnvSource) Name() string { return "env" }

func (s *EnvSource) Lookup(key CredentialKey) (string, bool) {
	return lookupVars(s.vars[key], s.getenv)
}

// DotEnvSource reads a .env file once, without touching the process environment.
type DotEnvSource struct {
	path string
	vars map[CredentialKey][]string

	once   sync.Once
	values map[string]string
	err    error
}

func NewDotEnvSource(path string) *DotEnvSource {
	if path == "" {
		path = ".env"
	}
	return &DotEnvSource{path: path, vars: DefaultEnvVars}
}

func (s *DotEnvSource) Name() string { return "dotenv:" + s.path }

func (s *DotEnvSource) Lookup(key CredentialKey) (string, bool) {
	s.once.Do(func() {
		s.values, s.err = godotenv.Read(s.path)
		if errors.Is(s.err, fs.ErrNotExist) {
			s.err = nil
		}
	})
	if s.values == nil {
		return "", false
	}
	return lookupVars(s.vars[key], func(name string) string { return s.values[name] })
}

// Err reports a .env file that exists but could not be parsed.
func (s *DotEnvSource) Err() error {
	return s.err
}

func lookupVars(names []string, get func(string) string) (string, bool) {
	for _, name := range names {
		if v := get(name); v != "" {
			return v, true
		}
	}
	return "", false
}
