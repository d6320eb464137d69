package confluence

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	blankLines = regexp.MustCompile(`\n{3,}`)
	spaceRun   = regexp.MustCompile(`\s+`)
)

type listFrame struct {
	ordered bool
	n       int
}

type storageWriter struct {
	sb    strings.Builder
	lists []listFrame

	inTask     bool
	taskStatus strings.Builder
	taskBody   strings.Builder
	capture    *strings.Builder
	skip       int
}

// StorageToMarkdown reduces Confluence storage XHTML to the markdown subset a
// PR template needs: headings, paragraphs, lists and task checkboxes.
func StorageToMarkdown(storage string) string {
	w := &storageWriter{}
	z := html.NewTokenizer(strings.NewReader(storage))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		tok := z.Token()
		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			w.start(tok.Data, tt == html.SelfClosingTagToken)
		case html.EndTagToken:
			w.end(tok.Data)
		case html.TextToken:
			w.text(tok.Data)
		}
	}
	out := blankLines.ReplaceAllString(w.sb.String(), "\n\n")
	return strings.TrimSpace(out)
}

func (w *storageWriter) start(tag string, selfClosing bool) {
	if w.skip > 0 {
		if !selfClosing && tag == "ac:parameter" {
			w.skip++
		}
		return
	}
	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		w.blockBreak()
		w.sb.WriteString(strings.Repeat("#", int(tag[1]-'0')) + " ")
	case "p":
		if len(w.lists) == 0 && !w.inTask {
			w.blockBreak()
		}
	case "ul", "ol":
		w.newline()
		w.lists = append(w.lists, listFrame{ordered: tag == "ol"})
	case "li":
		w.newline()
		if len(w.lists) == 0 {
			w.sb.WriteString("- ")
			return
		}
		top := &w.lists[len(w.lists)-1]
		top.n++
		w.sb.WriteString(strings.Repeat("  ", len(w.lists)-1))
		if top.ordered {
			fmt.Fprintf(&w.sb, "%d. ", top.n)
		} else {
			w.sb.WriteString("- ")
		}
	case "br":
		w.out().WriteString("\n")
	case "strong", "b":
		w.out().WriteString("**")
	case "em", "i":
		w.out().WriteString("_")
	case "code":
		w.out().WriteString("`")
	case "ac:task":
		w.newline()
		w.inTask = true
		w.taskStatus.Reset()
		w.taskBody.Reset()
	case "ac:task-status":
		w.capture = &w.taskStatus
	case "ac:task-body":
		w.capture = &w.taskBody
	case "ac:parameter":
		if !selfClosing {
			w.skip = 1
		}
	}
}

func (w *storageWriter) end(tag string) {
	if w.skip > 0 {
		if tag == "ac:parameter" {
			w.skip--
		}
		return
	}
	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		w.sb.WriteString("\n\n")
	case "p":
		if len(w.lists) == 0 && !w.inTask {
			w.sb.WriteString("\n\n")
		}
	case "ul", "ol":
		if len(w.lists) > 0 {
			w.lists = w.lists[:len(w.lists)-1]
		}
		if len(w.lists) == 0 {
			w.sb.WriteString("\n")
		}
	case "li":
		w.newline()
	case "strong", "b":
		w.out().WriteString("**")
	case "em", "i":
		w.out().WriteString("_")
	case "code":
		w.out().WriteString("`")
	case "ac:task-status", "ac:task-body":
		w.capture = nil
	case "ac:task":
		mark := " "
		if strings.TrimSpace(w.taskStatus.String()) == "complete" {
			mark = "x"
		}
		fmt.Fprintf(&w.sb, "- [%s] %s\n", mark, strings.TrimSpace(w.taskBody.String()))
		w.inTask = false
	case "ac:task-list":
		w.sb.WriteString("\n")
	}
}

func (w *storageWriter) text(s string) {
	if w.skip > 0 || (w.inTask && w.capture == nil) {
		return
	}
	s = spaceRun.ReplaceAllString(s, " ")
	if w.capture == nil && w.atLineStart() {
		s = strings.TrimLeft(s, " ")
	}
	if s == "" {
		return
	}
	w.out().WriteString(s)
}

func (w *storageWriter) out() *strings.Builder {
	if w.capture != nil {
		return w.capture
	}
	return &w.sb
}

func (w *storageWriter) atLineStart() bool {
	s := w.sb.String()
	return s == "" || strings.HasSuffix(s, "\n") || strings.HasSuffix(s, "- ") || strings.HasSuffix(s, ". ") || strings.HasSuffix(s, "# ")
}

func (w *storageWriter) newline() {
	s := w.sb.String()
	if s != "" && !strings.HasSuffix(s, "\n") {
		w.sb.WriteString("\n")
	}
}

func (w *storageWriter) blockBreak() {
	s := w.sb.String()
	if s == "" || strings.HasSuffix(s, "\n\n") {
		return
	}
	if strings.HasSuffix(s, "\n") {
		w.sb.WriteString("\n")
		return
	}
	w.sb.WriteString("\n\n")
}
