package ai

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/thomas-vilte/matepr/internal/regex"
)

// Content is the title and body recovered from a model reply.
type Content struct {
	Title string
	Body  string
}

// ParseContent recovers {title, body} from a model reply. It never fails:
// when nothing can be recovered the title is empty and the caller decides the fallback.
func ParseContent(raw string) Content {
	cleaned := StripFences(raw)

	if fields, ok := decodeObject(jsonCandidate(cleaned)); ok {
		title, hasTitle := fields["title"]
		body, hasBody := fields["body"]
		if hasTitle || hasBody {
			return Content{Title: cleanTitle(title), Body: strings.TrimSpace(body)}
		}
	}

	if title, ok := stringField(regex.JSONTitleField, cleaned); ok {
		body, _ := stringField(regex.JSONBodyField, cleaned)
		return Content{Title: cleanTitle(title), Body: strings.TrimSpace(body)}
	}

	var title string
	if m := regex.TitleLine.FindStringSubmatch(cleaned); m != nil {
		title = cleanTitle(m[1])
	}
	return Content{Title: title, Body: cleaned}
}

// ParseSummary recovers the narrative of a summary reply, falling back to the
// cleaned reply text.
func ParseSummary(raw string) string {
	cleaned := StripFences(raw)

	if fields, ok := decodeObject(jsonCandidate(cleaned)); ok {
		if summary, ok := fields["summary"]; ok {
			return strings.TrimSpace(summary)
		}
	}
	if summary, ok := stringField(regex.JSONSummaryField, cleaned); ok {
		return strings.TrimSpace(summary)
	}
	return cleaned
}

// StripFences removes a leading ```/```json fence and a trailing ``` fence.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	text = regex.MarkdownFenceStart.ReplaceAllString(text, "")
	text = regex.MarkdownFenceEnd.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// jsonCandidate returns text when it already is an object, otherwise the span
// from the first '{' to the last '}'.
func jsonCandidate(text string) string {
	if strings.HasPrefix(text, "{") && strings.HasSuffix(text, "}") {
		return text
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return ""
	}
	return text[start : end+1]
}

// decodeObject parses candidate as a JSON object, retrying once after
// SanitizeJSON. Non-string values are kept as their JSON text; null becomes "".
func decodeObject(candidate string) (map[string]string, bool) {
	if candidate == "" {
		return nil, false
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &obj); err != nil {
		if err := json.Unmarshal([]byte(SanitizeJSON(candidate)), &obj); err != nil {
			return nil, false
		}
	}

	fields := make(map[string]string, len(obj))
	for k, v := range obj {
		fields[strings.ToLower(k)] = rawToString(v)
	}
	return fields, true
}

func rawToString(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	if string(v) == "null" {
		return ""
	}
	return string(v)
}

func stringField(re *regexp.Regexp, text string) (string, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	var s string
	if err := json.Unmarshal([]byte(SanitizeJSON(m[1])), &s); err != nil {
		return strings.Trim(m[1], `"`), true
	}
	return s, true
}

func cleanTitle(title string) string {
	title = strings.TrimSpace(title)
	if i := strings.IndexByte(title, '\n'); i >= 0 {
		title = title[:i]
	}
	return strings.Trim(title, " \t*_`\"'")
}

// SanitizeJSON escapes the raw control characters LLMs sometimes leave inside
// string literals.
func SanitizeJSON(s string) string {
	return regex.JSONString.ReplaceAllStringFunc(s, func(m string) string {
		return jsonControlReplacer.Replace(m)
	})
}

var jsonControlReplacer = strings.NewReplacer("\n", `\n`, "\r", `\r`, "\t", `\t`)
