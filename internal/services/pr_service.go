package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/thomas-vilte/matepr/internal/ai"
	domainErrors "github.com/thomas-vilte/matepr/internal/errors"
	"github.com/thomas-vilte/matepr/internal/logger"
	"github.com/thomas-vilte/matepr/internal/models"
	"github.com/thomas-vilte/matepr/internal/templates"
	"github.com/thomas-vilte/matepr/internal/vcs"
)

const fallbackTitleChars = 60

// prChangesProvider builds the ChangeSet for a base branch.
type prChangesProvider interface {
	GetChanges(ctx context.Context, base string, detailed bool) (models.ChangeSet, error)
}

// prGitReader is the read-only git access the driver needs beyond the ChangeSet.
type prGitReader interface {
	DiffText(ctx context.Context, base, path string) (string, error)
	RepoIdentity(ctx context.Context) (*models.RepoIdentity, error)
}

type prTicketProvider interface {
	GetTicket(ctx context.Context, key string) (*models.Ticket, error)
}

type prTemplateResolver interface {
	Resolve(ctx context.Context) (*models.PRTemplate, error)
}

// prGenerator sends one prompt to the selected AI provider.
type prGenerator interface {
	Generate(ctx context.Context, prompt string) (string, *models.TokenUsage, error)
}

type PRService struct {
	changes   prChangesProvider
	git       prGitReader
	tickets   prTicketProvider
	templates prTemplateResolver
	generator prGenerator
	vcsClient vcs.VCSClient
	prompts   *ai.PromptBuilder

	keyFromBranch func(branch string) (string, bool)
}

type PROption func(*PRService)

func WithChangesProvider(c prChangesProvider) PROption {
	return func(s *PRService) {
		s.changes = c
	}
}

func WithGitReader(g prGitReader) PROption {
	return func(s *PRService) {
		s.git = g
	}
}

func WithTicketProvider(t prTicketProvider) PROption {
	return func(s *PRService) {
		s.tickets = t
	}
}

func WithTemplateResolver(t prTemplateResolver) PROption {
	return func(s *PRService) {
		s.templates = t
	}
}

func WithGenerator(g prGenerator) PROption {
	return func(s *PRService) {
		s.generator = g
	}
}

func WithVCSClient(c vcs.VCSClient) PROption {
	return func(s *PRService) {
		s.vcsClient = c
	}
}

func WithPromptBuilder(b *ai.PromptBuilder) PROption {
	return func(s *PRService) {
		s.prompts = b
	}
}

// WithTicketKeyFromBranch infers the ticket key from the head branch when the
// request carries none.
func WithTicketKeyFromBranch(fn func(branch string) (string, bool)) PROption {
	return func(s *PRService) {
		s.keyFromBranch = fn
	}
}

func NewPRService(opts ...PROption) *PRService {
	s := &PRService{prompts: ai.NewPromptBuilder()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type (
	GenerateRequest struct {
		Base string
		// TicketKey is optional. Without a ticket provider it is only used for the title.
		TicketKey string
	}

	PublishRequest struct {
		Head  string
		Base  string
		Draft bool
	}

	PublishResult struct {
		PullRequest *models.PullRequest
		// Existing is set when an open pull request for the branch was found instead of created.
		Existing bool
	}
)

// BuildContext collects everything the prompts need. Only the ChangeSet, an
// explicitly requested ticket and an explicit template file are required; the
// rest degrades to absence.
// A ticket key inferred from the branch never fails the build.
func (s *PRService) BuildContext(ctx context.Context, req GenerateRequest) (models.PromptContext, error) {
	log := logger.FromContext(ctx)

	if s.changes == nil {
		return models.PromptContext{}, domainErrors.NewAppError(domainErrors.TypeInternal, "changes provider not configured", nil)
	}
	cs, err := s.changes.GetChanges(ctx, req.Base, true)
	if err != nil {
		return models.PromptContext{}, err
	}
	key, inferred := req.TicketKey, false
	if key == "" && s.keyFromBranch != nil {
		if k, ok := s.keyFromBranch(cs.HeadBranch); ok {
			key, inferred = k, true
			log.Debug("ticket key inferred from branch", "branch", cs.HeadBranch, "key", key)
		}
	}
	pc := models.PromptContext{
		Changes: cs,
		Ticket:  models.Ticket{Key: key},
	}

	if key != "" && s.tickets != nil {
		ticket, err := s.tickets.GetTicket(ctx, key)
		switch {
		case err == nil:
			pc.Ticket = *ticket
		case inferred:
			// an inferred key is only a guess, keep it for the title
			log.Warn("ticket lookup failed for inferred key", "key", key, "error", err)
		default:
			return models.PromptContext{}, err
		}
	}

	if s.templates != nil {
		tmpl, err := s.templates.Resolve(ctx)
		switch {
		case err == nil:
			pc.Template = tmpl
		case errors.Is(err, domainErrors.ErrTemplateFileMissing):
			return models.PromptContext{}, err
		case errors.Is(err, domainErrors.ErrTemplateNotFound):
			log.Debug("no PR template found")
		default:
			log.Warn("PR template unavailable, continuing without it", "error", err)
		}
	}

	if s.git != nil {
		if diff, err := s.git.DiffText(ctx, req.Base, ""); err != nil {
			log.Warn("overall diff unavailable", "error", err)
		} else {
			pc.OverallDiff = diff
		}

		if repo, err := s.git.RepoIdentity(ctx); err != nil {
			log.Debug("repository identity unavailable, prompts will have no links", "error", err)
		} else {
			if repo.CurrentBranch == "" {
				repo.CurrentBranch = cs.HeadBranch
			}
			pc.Repo = repo
		}
	}

	log.Info("prompt context ready",
		"files", cs.TotalFiles,
		"commits", len(cs.Commits),
		"ticket", pc.Ticket.Key,
		"template", pc.HasTemplate())
	return pc, nil
}

// Generate runs the summary pass and then the description pass with the summary
// threaded in. An empty summary reply is tolerated; any other failure is returned
// so the caller can choose FallbackContent.
func (s *PRService) Generate(ctx context.Context, pc models.PromptContext) (*models.GeneratedContent, error) {
	log := logger.FromContext(ctx)
	if s.generator == nil {
		return nil, domainErrors.ErrNoProviderConfigured
	}

	usage := &models.TokenUsage{}

	summaryPrompt, err := s.prompts.BuildSummaryPrompt(pc)
	if err != nil {
		return nil, domainErrors.NewAppError(domainErrors.TypeInternal, "failed to render summary prompt", err)
	}
	var summary string
	raw, u, err := s.generator.Generate(ctx, summaryPrompt)
	switch {
	case err == nil:
		usage.Add(u)
		summary = ai.ParseSummary(raw)
	case errors.Is(err, domainErrors.ErrEmptyResponse):
		log.Warn("summary pass returned nothing, continuing without summary")
	default:
		return nil, err
	}

	descPrompt, err := s.prompts.BuildDescriptionPrompt(pc, summary)
	if err != nil {
		return nil, domainErrors.NewAppError(domainErrors.TypeInternal, "failed to render description prompt", err)
	}
	raw, u, err = s.generator.Generate(ctx, descPrompt)
	if err != nil {
		return nil, err
	}
	usage.Add(u)

	content := ai.ParseContent(raw)
	out := &models.GeneratedContent{
		Title:   EnsureTitle(content.Title, pc),
		Body:    strings.TrimSpace(content.Body),
		Summary: summary,
		Usage:   usage,
	}
	if pc.HasTemplate() {
		out.MissingSections = templates.Analyze(pc.Template.Content).MissingHeadings(out.Body)
		if len(out.MissingSections) > 0 {
			log.Warn("generated body dropped template sections", "missing", out.MissingSections)
		}
	}
	return out, nil
}

// FallbackContent builds a title and body from the context alone.
func (s *PRService) FallbackContent(pc models.PromptContext) *models.GeneratedContent {
	var sb strings.Builder
	if pc.HasTemplate() {
		sb.WriteString(strings.TrimSpace(pc.Template.Content))
		sb.WriteString("\n\n")
	} else if pc.Ticket.Summary != "" {
		sb.WriteString("## Summary\n\n")
		sb.WriteString(pc.Ticket.Summary)
		sb.WriteString("\n\n")
	}

	cs := pc.Changes
	fmt.Fprintf(&sb, "## Changes (%d files, +%d -%d)\n\n", cs.TotalFiles, cs.TotalInsertions, cs.TotalDeletions)
	for _, f := range cs.Files {
		fmt.Fprintf(&sb, "- `%s` (%s, +%d -%d)\n", f.Path, f.Status, f.Insertions, f.Deletions)
	}
	if len(cs.Commits) > 0 {
		sb.WriteString("\n## Commits\n\n")
		for _, c := range cs.Commits {
			fmt.Fprintf(&sb, "- %s\n", firstLine(c))
		}
	}

	return &models.GeneratedContent{
		Title:    EnsureTitle("", pc),
		Body:     strings.TrimSpace(sb.String()),
		Fallback: true,
	}
}

// Publish opens the pull request unless one is already open for the head branch.
func (s *PRService) Publish(ctx context.Context, content *models.GeneratedContent, req PublishRequest) (*PublishResult, error) {
	if s.vcsClient == nil {
		return nil, domainErrors.ErrVCSNotSupported
	}
	log := logger.FromContext(ctx)

	existing, err := s.vcsClient.FindOpenPullRequest(ctx, req.Head)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		log.Info("pull request already open", "number", existing.Number, "url", existing.URL)
		return &PublishResult{PullRequest: existing, Existing: true}, nil
	}

	pr, err := s.vcsClient.CreatePullRequest(ctx, vcs.NewPullRequest{
		Title: content.Title,
		Body:  content.Body,
		Head:  req.Head,
		Base:  req.Base,
		Draft: req.Draft,
	})
	if err != nil {
		return nil, err
	}
	return &PublishResult{PullRequest: pr}, nil
}

// EnsureTitle applies the ticket-key convention to a generated title, building
// one from the ticket or branch when the model gave none.
func EnsureTitle(title string, pc models.PromptContext) string {
	title = strings.TrimSpace(title)
	key := pc.Ticket.Key

	if title == "" {
		desc := pc.Ticket.Summary
		if desc == "" {
			desc = humanizeBranch(pc.Changes.HeadBranch)
		}
		if desc == "" {
			desc = "Update"
		}
		desc = truncateRunes(desc, fallbackTitleChars)
		if key == "" {
			return desc
		}
		return key + ": " + desc
	}

	if key != "" && !strings.HasPrefix(strings.ToUpper(title), strings.ToUpper(key)) {
		return key + ": " + title
	}
	return title
}

// humanizeBranch turns "feature/PROJ-1-add-login" into "Add login".
func humanizeBranch(branch string) string {
	if i := strings.LastIndex(branch, "/"); i >= 0 {
		branch = branch[i+1:]
	}
	words := strings.FieldsFunc(branch, func(r rune) bool { return r == '-' || r == '_' })
	// Drop a leading ticket key such as PROJ-1.
	if len(words) >= 2 && isUpperWord(words[0]) && isDigits(words[1]) {
		words = words[2:]
	}
	if len(words) == 0 {
		return ""
	}
	s := strings.Join(words, " ")
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func isUpperWord(s string) bool {
	for _, r := range s {
		if !unicode.IsUpper(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n-3])) + "..."
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
