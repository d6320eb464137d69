package templates

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	domainErrors "github.com/thomas-vilte/matepr/internal/errors"
	"github.com/thomas-vilte/matepr/internal/logger"
	"github.com/thomas-vilte/matepr/internal/models"
	"github.com/thomas-vilte/matepr/internal/wiki/confluence"
)

// LocalCandidates are the repository paths searched for a PR template, in order.
var LocalCandidates = []string{
	".github/pull_request_template.md",
	".github/PULL_REQUEST_TEMPLATE.md",
	"PULL_REQUEST_TEMPLATE.md",
	"docs/pull_request_template.md",
}

// PageFetcher reads a wiki page.
type PageFetcher interface {
	GetPage(ctx context.Context, id string) (*confluence.Page, error)
}

// Resolver finds the PR template for a run: an explicit file, else a template
// in the repository, else a wiki page.
type Resolver struct {
	root     string
	explicit string
	wiki     PageFetcher
	pageID   string
}

type Option func(*Resolver)

func WithExplicitPath(path string) Option {
	return func(r *Resolver) {
		r.explicit = path
	}
}

func WithWikiPage(f PageFetcher, pageID string) Option {
	return func(r *Resolver) {
		r.wiki = f
		r.pageID = pageID
	}
}

func NewResolver(root string, opts ...Option) *Resolver {
	r := &Resolver{root: root}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns ErrTemplateNotFound when no source has a template, and
// ErrTemplateFileMissing when the explicit path does not exist.
func (r *Resolver) Resolve(ctx context.Context) (*models.PRTemplate, error) {
	if r.explicit != "" {
		path := r.explicit
		if !filepath.IsAbs(path) {
			path = filepath.Join(r.root, path)
		}
		tmpl, err := LoadFile(path)
		if errors.Is(err, domainErrors.ErrTemplateNotFound) {
			return nil, domainErrors.ErrTemplateFileMissing.WithContext("path", path)
		}
		return tmpl, err
	}

	tmpl, err := FindLocal(r.root)
	if err == nil {
		logger.Debug(ctx, "using repository PR template", "path", tmpl.Source)
		return tmpl, nil
	}
	if !errors.Is(err, domainErrors.ErrTemplateNotFound) {
		return nil, err
	}

	if r.wiki != nil && r.pageID != "" {
		return FromWiki(ctx, r.wiki, r.pageID)
	}
	return nil, domainErrors.ErrTemplateNotFound
}

// FindLocal returns the first of LocalCandidates present under root.
func FindLocal(root string) (*models.PRTemplate, error) {
	for _, rel := range LocalCandidates {
		path := filepath.Join(root, filepath.FromSlash(rel))
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		return LoadFile(path)
	}
	return nil, domainErrors.ErrTemplateNotFound.WithContext("root", root)
}

func LoadFile(path string) (*models.PRTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domainErrors.ErrTemplateNotFound.WithContext("path", path)
		}
		return nil, domainErrors.ErrTemplateFetch.WithError(err).WithContext("path", path)
	}
	return New(filepath.Base(path), path, string(data)), nil
}

// FromWiki converts a wiki page to a markdown template.
func FromWiki(ctx context.Context, f PageFetcher, pageID string) (*models.PRTemplate, error) {
	page, err := f.GetPage(ctx, pageID)
	if err != nil {
		return nil, err
	}
	source := page.URL
	if source == "" {
		source = "confluence:" + page.ID
	}
	logger.Debug(ctx, "using wiki PR template", "page", page.Title, "source", source)
	return New(page.Title, source, page.Markdown()), nil
}

// New builds a template and fills its headings from content.
func New(name, source, content string) *models.PRTemplate {
	return &models.PRTemplate{
		Name:     name,
		Source:   source,
		Content:  content,
		Headings: Analyze(content).HeadingTexts(),
	}
}
