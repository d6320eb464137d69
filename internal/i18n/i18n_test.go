package i18n

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTranslations(t *testing.T) {
	t.Run("Should load the embedded catalogues", func(t *testing.T) {
		trans, err := NewTranslations("es")

		require.NoError(t, err)
		assert.Equal(t, "Operación cancelada", trans.GetMessage("operation_cancelled", 0, nil))
	})

	t.Run("Should fail with empty language", func(t *testing.T) {
		trans, err := NewTranslations("")

		assert.Error(t, err)
		assert.Nil(t, trans)
	})

	t.Run("Should let extra directories override messages", func(t *testing.T) {
		tmpDir := t.TempDir()
		createTestFile(t, tmpDir, "active.en.toml", `
[operation_cancelled]
other = "Bye"
`)

		trans, err := NewTranslations("en", tmpDir)

		require.NoError(t, err)
		assert.Equal(t, "Bye", trans.GetMessage("operation_cancelled", 0, nil))
	})

	t.Run("Should fail on a malformed locale file", func(t *testing.T) {
		tmpDir := t.TempDir()
		createTestFile(t, tmpDir, "active.en.toml", `[broken`)

		_, err := NewTranslations("en", tmpDir)

		assert.Error(t, err)
	})
}

func TestEmbeddedCataloguesMatch(t *testing.T) {
	en, err := NewTranslations("en")
	require.NoError(t, err)
	es, err := NewTranslations("es")
	require.NoError(t, err)

	for _, id := range []string{"app_usage", "create_usage", "flag_base", "pr_created", "choose_provider", "ai_fallback"} {
		assert.NotContains(t, en.GetMessage(id, 0, nil), "Translation missing", id)
		assert.NotContains(t, es.GetMessage(id, 0, nil), "Translation missing", id)
	}
}

func TestSetLanguage(t *testing.T) {
	t.Run("Should change to a valid language", func(t *testing.T) {
		trans, err := NewTranslations("en")
		require.NoError(t, err)

		require.NoError(t, trans.SetLanguage("es"))
		assert.Equal(t, "Operación cancelada", trans.GetMessage("operation_cancelled", 0, nil))
	})

	t.Run("Should fail with unsupported language", func(t *testing.T) {
		trans, err := NewTranslations("es")
		require.NoError(t, err)

		assert.Error(t, trans.SetLanguage("fr"))
	})
}

func TestGetMessage(t *testing.T) {
	trans, err := NewTranslations("en")
	require.NoError(t, err)

	t.Run("Should pick the plural form", func(t *testing.T) {
		assert.Equal(t, "1 file changed", trans.GetMessage("files_changed", 1, map[string]interface{}{"Count": 1}))
		assert.Equal(t, "3 files changed", trans.GetMessage("files_changed", 3, map[string]interface{}{"Count": 3}))
	})

	t.Run("Should render template data", func(t *testing.T) {
		msg := trans.GetMessage("pr_created", 0, map[string]interface{}{"Number": 7, "URL": "https://x/pull/7"})

		assert.Equal(t, "Pull request #7 created: https://x/pull/7", msg)
	})

	t.Run("Should handle missing messages", func(t *testing.T) {
		assert.Equal(t, "Translation missing: NonExistent", trans.GetMessage("NonExistent", 1, nil))
	})
}

func createTestFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
