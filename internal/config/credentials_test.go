package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	cfg := &Config{
		AIProviders: map[string]AIProviderConfig{"claude": {APIKey: "from-config"}},
		GitHub:      GitHubConfig{Token: "gh-config"},
	}
	env := &EnvSource{
		vars: DefaultEnvVars,
		getenv: func(name string) string {
			return map[string]string{
				"ANTHROPIC_API_KEY": "from-env",
				"OPENAI_API_KEY":    "openai-env",
			}[name]
		},
	}

	t.Run("earlier source wins", func(t *testing.T) {
		cred, ok := Resolve([]CredentialSource{NewConfigFileSource(cfg), env}, AICredential(AIClaude))

		require.True(t, ok)
		assert.Equal(t, Credential{Value: "from-config", Source: "config"}, cred)
	})

	t.Run("order is the caller's", func(t *testing.T) {
		cred, ok := Resolve([]CredentialSource{env, NewConfigFileSource(cfg)}, AICredential(AIClaude))

		require.True(t, ok)
		assert.Equal(t, "from-env", cred.Value)
		assert.Equal(t, "env", cred.Source)
	})

	t.Run("falls through to later sources", func(t *testing.T) {
		cred, ok := Resolve([]CredentialSource{NewConfigFileSource(cfg), env}, AICredential(AIChatGPT))

		require.True(t, ok)
		assert.Equal(t, "openai-env", cred.Value)
	})

	t.Run("copilot uses the github token", func(t *testing.T) {
		cred, ok := Resolve([]CredentialSource{NewConfigFileSource(cfg)}, AICredential(AICopilot))

		require.True(t, ok)
		assert.Equal(t, "gh-config", cred.Value)
	})

	t.Run("missing everywhere", func(t *testing.T) {
		_, ok := Resolve([]CredentialSource{NewConfigFileSource(cfg), env, nil}, AICredential(AIGemini))

		assert.False(t, ok)
	})
}

func TestConfigFileSource_ConfluenceSharesJiraToken(t *testing.T) {
	src := NewConfigFileSource(&Config{
		Jira:       JiraConfig{BaseURL: "https://acme.atlassian.net", APIToken: "atl"},
		Confluence: ConfluenceConfig{BaseURL: "https://acme.atlassian.net"},
	})

	v, ok := src.Lookup(CredentialConfluence)

	assert.True(t, ok)
	assert.Equal(t, "atl", v)
}

func TestEnvSource(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "google-key")

	v, ok := NewEnvSource(nil).Lookup(AICredential(AIGemini))

	assert.True(t, ok)
	assert.Equal(t, "google-key", v)
}

func TestDotEnvSource(t *testing.T) {
	t.Run("reads the file without exporting it", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte("OPENAI_API_KEY=sk-dotenv\n# comment\nJIRA_API_TOKEN=\"jira tok\"\n"), 0o600))
		t.Setenv("OPENAI_API_KEY", "")

		src := NewDotEnvSource(path)

		v, ok := src.Lookup(AICredential(AIChatGPT))
		assert.True(t, ok)
		assert.Equal(t, "sk-dotenv", v)

		v, ok = src.Lookup(CredentialJira)
		assert.True(t, ok)
		assert.Equal(t, "jira tok", v)

		assert.Empty(t, os.Getenv("OPENAI_API_KEY"))
		assert.NoError(t, src.Err())
	})

	t.Run("missing file is not an error", func(t *testing.T) {
		src := NewDotEnvSource(filepath.Join(t.TempDir(), "nope.env"))

		_, ok := src.Lookup(AICredential(AIClaude))

		assert.False(t, ok)
		assert.NoError(t, src.Err())
	})

	t.Run("name includes the path", func(t *testing.T) {
		assert.Equal(t, "dotenv:.env", NewDotEnvSource("").Name())
	})
}
