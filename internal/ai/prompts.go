package ai

import (
	"bytes"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"text/template"

	"github.com/thomas-vilte/matepr/internal/config"
	"github.com/thomas-vilte/matepr/internal/diff"
	"github.com/thomas-vilte/matepr/internal/models"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Default prompt budgets, in characters unless noted.
const (
	DescriptionChars         = 500
	FileDiffChars            = 1500
	OverallDiffChars         = 3000
	DescriptionFileDiffChars = 1000
	LineNumbersShown         = 10
	LineLinksShown           = 3
	TitleBudget              = 60

	// LegacyTemplateChars is the template cap of the original summary prompt.
	// The extended prompt embeds the template in full.
	LegacyTemplateChars = 800

	diffTruncatedMarker = "\n(diff truncated for brevity)"
	defaultHost         = "github.com"
)

// PromptLimits bounds the content embedded in prompts. A zero TemplateChars
// embeds the template untruncated.
type PromptLimits struct {
	DescriptionChars         int
	FileDiffChars            int
	OverallDiffChars         int
	DescriptionFileDiffChars int
	LineNumbers              int
	LineLinks                int
	TemplateChars            int
}

func DefaultLimits() PromptLimits {
	return PromptLimits{
		DescriptionChars:         DescriptionChars,
		FileDiffChars:            FileDiffChars,
		OverallDiffChars:         OverallDiffChars,
		DescriptionFileDiffChars: DescriptionFileDiffChars,
		LineNumbers:              LineNumbersShown,
		LineLinks:                LineLinksShown,
	}
}

func LegacyLimits() PromptLimits {
	l := DefaultLimits()
	l.TemplateChars = LegacyTemplateChars
	return l
}

// LimitsFromConfig applies the non-zero overrides from the config file.
func LimitsFromConfig(p config.PromptConfig) PromptLimits {
	l := DefaultLimits()
	if p.Legacy {
		l = LegacyLimits()
	}
	if p.TemplateChars > 0 {
		l.TemplateChars = p.TemplateChars
	}
	if p.DiffChars > 0 {
		l.FileDiffChars = p.DiffChars
	}
	if p.OverallDiffChars > 0 {
		l.OverallDiffChars = p.OverallDiffChars
	}
	if p.DescriptionDiffChars > 0 {
		l.DescriptionFileDiffChars = p.DescriptionDiffChars
	}
	return l
}

type (
	PromptBuilder struct {
		limits   PromptLimits
		language string
	}

	PromptOption func(*PromptBuilder)
)

func WithLimits(l PromptLimits) PromptOption {
	return func(b *PromptBuilder) {
		b.limits = l
	}
}

// WithLanguage asks the model to write its answer in lang (a BCP 47 tag).
func WithLanguage(lang string) PromptOption {
	return func(b *PromptBuilder) {
		b.language = lang
	}
}

func NewPromptBuilder(opts ...PromptOption) *PromptBuilder {
	b := &PromptBuilder{limits: DefaultLimits()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *PromptBuilder) Limits() PromptLimits {
	return b.limits
}

// PromptData holds the parameters for template rendering
type PromptData struct {
	Ticket           models.Ticket
	Description      string
	Template         string
	TemplateHeadings []string
	Files            []FilePromptData
	TotalFiles       int
	Insertions       int
	Deletions        int
	OverallDiff      string
	Commits          []string
	Summary          string
	LanguageName     string
	TitleBudget      int
}

type FilePromptData struct {
	Path       string
	Status     models.FileStatus
	Insertions int
	Deletions  int
	Binary     bool
	Added      string
	Removed    string
	Diff       string
	URL        string
	LineURLs   []string
}

// BuildSummaryPrompt renders the first-stage prompt asking for a narrative
// {"summary": ...} of the change.
func (b *PromptBuilder) BuildSummaryPrompt(pc models.PromptContext) (string, error) {
	data := b.baseData(pc)
	data.Description = truncate(pc.Ticket.Description, b.limits.DescriptionChars, "...")
	if pc.HasTemplate() {
		data.Template = truncate(pc.Template.Content, b.limits.TemplateChars, "...")
	}
	data.OverallDiff = truncate(pc.OverallDiff, b.limits.OverallDiffChars, diffTruncatedMarker)

	for _, f := range pc.Changes.Files {
		fd := b.fileData(f, b.limits.FileDiffChars)
		fd.Added = formatLineNumbers(f.LineNumbers.Added, b.limits.LineNumbers)
		fd.Removed = formatLineNumbers(f.LineNumbers.Removed, b.limits.LineNumbers)
		if pc.Repo != nil && f.Status != models.StatusDeleted {
			fd.URL = fileURL(*pc.Repo, diff.TargetPath(f.Path))
			for _, n := range firstN(f.LineNumbers.Added, b.limits.LineLinks) {
				fd.LineURLs = append(fd.LineURLs, fd.URL+"#L"+strconv.Itoa(n))
			}
		}
		data.Files = append(data.Files, fd)
	}

	return RenderPrompt("summaryPrompt", summaryPromptTemplate, data)
}

// BuildDescriptionPrompt renders the second-stage prompt asking for the
// {"title", "body"} of the pull request. summary is the first stage's output
// and may be empty.
func (b *PromptBuilder) BuildDescriptionPrompt(pc models.PromptContext, summary string) (string, error) {
	data := b.baseData(pc)
	data.Description = pc.Ticket.Description
	data.Summary = strings.TrimSpace(summary)
	data.Commits = pc.Changes.Commits
	if pc.HasTemplate() {
		data.Template = pc.Template.Content
		data.TemplateHeadings = pc.Template.Headings
	}

	for _, f := range pc.Changes.Files {
		data.Files = append(data.Files, b.fileData(f, b.limits.DescriptionFileDiffChars))
	}

	return RenderPrompt("descriptionPrompt", descriptionPromptTemplate, data)
}

func (b *PromptBuilder) baseData(pc models.PromptContext) PromptData {
	return PromptData{
		Ticket:       pc.Ticket,
		TotalFiles:   pc.Changes.TotalFiles,
		Insertions:   pc.Changes.TotalInsertions,
		Deletions:    pc.Changes.TotalDeletions,
		LanguageName: languageName(b.language),
		TitleBudget:  TitleBudget,
	}
}

func (b *PromptBuilder) fileData(f models.FileChange, diffCap int) FilePromptData {
	return FilePromptData{
		Path:       f.Path,
		Status:     f.Status,
		Insertions: f.Insertions,
		Deletions:  f.Deletions,
		Binary:     f.Binary,
		Diff:       truncate(f.Diff, diffCap, diffTruncatedMarker),
	}
}

// RenderPrompt renders a prompt template with the provided data
func RenderPrompt(name, tmplStr string, data interface{}) (string, error) {
	tmpl, err := template.New(name).Parse(tmplStr)
	if err != nil {
		return "", fmt.Errorf("error parsing template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("error executing template %s: %w", name, err)
	}

	return buf.String(), nil
}

// truncate cuts s to limit runes and appends marker when it did. limit <= 0 means no limit.
func truncate(s string, limit int, marker string) string {
	if limit <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + marker
}

func firstN(nums []int, n int) []int {
	if n <= 0 {
		return nil
	}
	if len(nums) > n {
		return nums[:n]
	}
	return nums
}

func formatLineNumbers(nums []int, limit int) string {
	if len(nums) == 0 {
		return ""
	}
	shown := nums
	if limit > 0 {
		shown = firstN(nums, limit)
	}
	parts := make([]string, len(shown))
	for i, n := range shown {
		parts[i] = strconv.Itoa(n)
	}
	out := strings.Join(parts, ", ")
	if len(nums) > len(shown) {
		out += "..."
	}
	return out
}

func fileURL(repo models.RepoIdentity, path string) string {
	host := repo.Host
	if host == "" {
		host = defaultHost
	}
	return fmt.Sprintf("https://%s/%s/%s/blob/%s/%s",
		host, repo.Owner, repo.Repo, escapeSegments(repo.CurrentBranch), escapeSegments(path))
}

func escapeSegments(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}

// languageName returns the English name of lang, or "" for English and unknown tags.
func languageName(lang string) string {
	if lang == "" {
		return ""
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return ""
	}
	if base, _ := tag.Base(); base.String() == "en" {
		return ""
	}
	return display.English.Languages().Name(tag)
}

const fence = "```"

const summaryPromptTemplate = `# Task
Act as a senior engineer and write a detailed narrative summary of the changes in this branch: what changed, why it changed and how the pieces fit together.

# Ticket
- Key: {{.Ticket.Key}}
- Summary: {{.Ticket.Summary}}
- Type: {{.Ticket.IssueType}}
{{- if .Ticket.Status}}
- Status: {{.Ticket.Status}}
{{- end}}
- Description: {{.Description}}
{{- if .Template}}

# PR Template
The final description will follow this template:
{{.Template}}
{{- end}}

# Changed Files ({{.TotalFiles}} files, +{{.Insertions}} -{{.Deletions}})
{{- range .Files}}

## {{.Path}}
- Status: {{.Status}}
- Changes: +{{.Insertions}} -{{.Deletions}}{{if .Binary}} (binary){{end}}
{{- if .URL}}
- File: {{.URL}}
{{- end}}
{{- if .Added}}
- Added lines: {{.Added}}
{{- end}}
{{- if .Removed}}
- Removed lines: {{.Removed}}
{{- end}}
{{- range .LineURLs}}
- Line: {{.}}
{{- end}}
{{- if .Diff}}
Diff:
{{.Diff}}
{{- end}}
{{- end}}
{{- if .OverallDiff}}

# Overall Diff
{{.OverallDiff}}
{{- end}}

# Rules
1. Only describe what the diff shows. Do not invent changes.
2. Reference files by path. Use the links above when pointing at specific lines.
{{- if .LanguageName}}
3. Write the summary in {{.LanguageName}}.
{{- end}}

# Output Format
Return ONLY a single raw JSON object with exactly one string field:
{"summary": "<detailed narrative of the changes>"}
- Do NOT wrap the JSON in markdown code fences (` + fence + `).
- Do NOT use checklist or checkbox syntax ("- [ ]", "- [x]") in the summary.
- Do NOT add any text before or after the JSON object.
`

const descriptionPromptTemplate = `# Task
Write the title and body of a pull request for the changes below.

# Ticket
- Key: {{.Ticket.Key}}
- Summary: {{.Ticket.Summary}}
- Type: {{.Ticket.IssueType}}
- Description:
{{.Description}}

# Summary of the Changes
{{if .Summary}}{{.Summary}}{{else}}No summary is available. Rely on the files and commits below.{{end}}
{{- if .Commits}}

# Commits
{{- range .Commits}}
- {{.}}
{{- end}}
{{- end}}

# Changed Files ({{.TotalFiles}} files, +{{.Insertions}} -{{.Deletions}})
{{- range .Files}}

## {{.Path}} ({{.Status}}, +{{.Insertions}} -{{.Deletions}}{{if .Binary}}, binary{{end}})
{{- if .Diff}}
{{.Diff}}
{{- end}}
{{- end}}
{{if .Template}}
# PR Template
{{.Template}}

# Template Rules
1. Reproduce the template's structure exactly. Keep every heading, in the same order. Do NOT add or remove sections.
2. Keep every checkbox exactly as it is in the template: "- [ ]" stays unchecked and "- [x]" stays checked.
3. Only fill in placeholder content (comments, empty sections, example text) with information from the changes.
{{- if .TemplateHeadings}}
4. Required sections:
{{- range .TemplateHeadings}}
   - {{.}}
{{- end}}
{{- end}}
{{else}}
# Body Structure
Use these markdown sections:
## Summary
## Changes
## Testing
Do NOT use checklist or checkbox syntax ("- [ ]", "- [x]") anywhere in the body.
{{end}}
# Title Rules
{{- if .Ticket.Key}}
- The title MUST start with "{{.Ticket.Key}}: " followed by a short description.
{{- end}}
- Keep the description part of the title within {{.TitleBudget}} characters.
{{- if .LanguageName}}
- Write the title and body in {{.LanguageName}}.
{{- end}}

# Output Format
Return ONLY a single raw JSON object with exactly two string fields:
{"title": "<title>", "body": "<markdown body>"}
- Do NOT wrap the JSON in markdown code fences (` + fence + `).
- Do NOT add any text before or after the JSON object.
`
