package templates

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.TaskList))

type (
	Heading struct {
		Level int
		Text  string
	}

	Checkbox struct {
		Text    string
		Checked bool
	}

	// Outline is the structure of a markdown template that a generated body
	// is expected to keep.
	Outline struct {
		Headings   []Heading
		Checkboxes []Checkbox
	}
)

// Analyze parses content and collects its headings and task checkboxes in document order.
func Analyze(content string) Outline {
	src := []byte(content)
	root := markdown.Parser().Parse(text.NewReader(src))

	var o Outline
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			if t := strings.TrimSpace(inlineText(node, src)); t != "" {
				o.Headings = append(o.Headings, Heading{Level: node.Level, Text: t})
			}
			return ast.WalkSkipChildren, nil
		case *extast.TaskCheckBox:
			o.Checkboxes = append(o.Checkboxes, Checkbox{
				Text:    strings.TrimSpace(inlineText(node.Parent(), src)),
				Checked: node.IsChecked,
			})
		}
		return ast.WalkContinue, nil
	})
	return o
}

// HeadingTexts returns the heading titles.
func (o Outline) HeadingTexts() []string {
	out := make([]string, 0, len(o.Headings))
	for _, h := range o.Headings {
		out = append(out, h.Text)
	}
	return out
}

// MissingHeadings lists template headings that body does not contain, compared
// case-insensitively.
func (o Outline) MissingHeadings(body string) []string {
	present := make(map[string]struct{})
	for _, h := range Analyze(body).Headings {
		present[normalizeHeading(h.Text)] = struct{}{}
	}
	var missing []string
	for _, h := range o.Headings {
		if _, ok := present[normalizeHeading(h.Text)]; !ok {
			missing = append(missing, h.Text)
		}
	}
	return missing
}

func normalizeHeading(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.TrimRight(s, ": ")
}

// inlineText concatenates the text segments under n.
func inlineText(n ast.Node, src []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}
