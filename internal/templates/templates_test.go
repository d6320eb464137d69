package templates

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	domainErrors "github.com/thomas-vilte/matepr/internal/errors"
	"github.com/thomas-vilte/matepr/internal/wiki/confluence"
)

const prTemplate = `## Summary

Describe the change.

## Type of change

- [x] Bug fix
- [ ] New feature

## How was it tested?
`

type MockPageFetcher struct {
	mock.Mock
}

func (m *MockPageFetcher) GetPage(ctx context.Context, id string) (*confluence.Page, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*confluence.Page), args.Error(1)
}

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestAnalyze(t *testing.T) {
	o := Analyze(prTemplate)

	assert.Equal(t, []Heading{
		{Level: 2, Text: "Summary"},
		{Level: 2, Text: "Type of change"},
		{Level: 2, Text: "How was it tested?"},
	}, o.Headings)
	assert.Equal(t, []Checkbox{
		{Text: "Bug fix", Checked: true},
		{Text: "New feature", Checked: false},
	}, o.Checkboxes)
}

func TestAnalyze_InlineMarkup(t *testing.T) {
	o := Analyze("# The `api` **changes**\n")

	assert.Equal(t, []string{"The api changes"}, o.HeadingTexts())
	assert.Empty(t, o.Checkboxes)
}

func TestMissingHeadings(t *testing.T) {
	o := Analyze(prTemplate)

	body := "## summary\n\nFixed it.\n\n### Type of change:\n\n- [x] Bug fix\n"

	assert.Equal(t, []string{"How was it tested?"}, o.MissingHeadings(body))
	assert.Empty(t, o.MissingHeadings(prTemplate))
}

func TestFindLocal(t *testing.T) {
	t.Run("first candidate wins", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "PULL_REQUEST_TEMPLATE.md", "# Root")
		want := writeFile(t, root, ".github/pull_request_template.md", "# Github")

		tmpl, err := FindLocal(root)

		require.NoError(t, err)
		assert.Equal(t, want, tmpl.Source)
		assert.Equal(t, "# Github", tmpl.Content)
		assert.Equal(t, []string{"Github"}, tmpl.Headings)
	})

	t.Run("docs directory", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "docs/pull_request_template.md", "body")

		tmpl, err := FindLocal(root)

		require.NoError(t, err)
		assert.Equal(t, "pull_request_template.md", tmpl.Name)
	})

	t.Run("none", func(t *testing.T) {
		_, err := FindLocal(t.TempDir())

		assert.ErrorIs(t, err, domainErrors.ErrTemplateNotFound)
	})
}

func TestResolver(t *testing.T) {
	ctx := context.Background()

	t.Run("explicit relative path", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, ".github/pull_request_template.md", "# Local")
		writeFile(t, root, "tmpl/custom.md", "# Custom")

		tmpl, err := NewResolver(root, WithExplicitPath("tmpl/custom.md")).Resolve(ctx)

		require.NoError(t, err)
		assert.Equal(t, "# Custom", tmpl.Content)
	})

	t.Run("explicit path missing", func(t *testing.T) {
		_, err := NewResolver(t.TempDir(), WithExplicitPath("nope.md")).Resolve(ctx)

		assert.ErrorIs(t, err, domainErrors.ErrTemplateFileMissing)
		assert.False(t, errors.Is(err, domainErrors.ErrTemplateNotFound))
	})

	t.Run("local before wiki", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "PULL_REQUEST_TEMPLATE.md", "# Local")
		wiki := new(MockPageFetcher)

		tmpl, err := NewResolver(root, WithWikiPage(wiki, "42")).Resolve(ctx)

		require.NoError(t, err)
		assert.Equal(t, "# Local", tmpl.Content)
		wiki.AssertNotCalled(t, "GetPage", mock.Anything, mock.Anything)
	})

	t.Run("wiki fallback", func(t *testing.T) {
		wiki := new(MockPageFetcher)
		wiki.On("GetPage", mock.Anything, "42").Return(&confluence.Page{
			ID:      "42",
			Title:   "PR Template",
			Storage: "<h2>Summary</h2><p>x</p>",
		}, nil)

		tmpl, err := NewResolver(t.TempDir(), WithWikiPage(wiki, "42")).Resolve(ctx)

		require.NoError(t, err)
		assert.Equal(t, "## Summary\n\nx", tmpl.Content)
		assert.Equal(t, "confluence:42", tmpl.Source)
		assert.Equal(t, []string{"Summary"}, tmpl.Headings)
		wiki.AssertExpectations(t)
	})

	t.Run("wiki error", func(t *testing.T) {
		wiki := new(MockPageFetcher)
		wiki.On("GetPage", mock.Anything, "42").Return(nil, domainErrors.ErrTemplateFetch)

		_, err := NewResolver(t.TempDir(), WithWikiPage(wiki, "42")).Resolve(ctx)

		assert.ErrorIs(t, err, domainErrors.ErrTemplateFetch)
	})

	t.Run("nothing configured", func(t *testing.T) {
		_, err := NewResolver(t.TempDir()).Resolve(ctx)

		assert.ErrorIs(t, err, domainErrors.ErrTemplateNotFound)
	})
}
