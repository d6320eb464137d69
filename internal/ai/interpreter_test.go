package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseContent(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantTitle string
		wantBody  string
	}{
		{
			name:      "fenced JSON",
			raw:       "```json\n{\"title\":\"T\",\"body\":\"B\"}\n```",
			wantTitle: "T",
			wantBody:  "B",
		},
		{
			name:      "bare fence without language",
			raw:       "```\n{\"title\":\"PROJ-1: add login\",\"body\":\"## Summary\\nDone\"}\n```",
			wantTitle: "PROJ-1: add login",
			wantBody:  "## Summary\nDone",
		},
		{
			name:      "JSON embedded in prose",
			raw:       "Sure! Here is the PR:\n{\"title\": \"PROJ-2: fix crash\", \"body\": \"Fixes {nil} deref\"}\nLet me know.",
			wantTitle: "PROJ-2: fix crash",
			wantBody:  "Fixes {nil} deref",
		},
		{
			name:      "raw newlines inside strings",
			raw:       "{\"title\": \"PROJ-3: tidy\", \"body\": \"line one\nline two\"}",
			wantTitle: "PROJ-3: tidy",
			wantBody:  "line one\nline two",
		},
		{
			name:      "missing body coalesces to empty",
			raw:       `{"title": "only title"}`,
			wantTitle: "only title",
			wantBody:  "",
		},
		{
			name:      "null title coalesces to empty",
			raw:       `{"title": null, "body": "text"}`,
			wantTitle: "",
			wantBody:  "text",
		},
		{
			name:      "truncated JSON keeps the string fields",
			raw:       `{"title": "PROJ-4: stream", "body": "partial body", "labels": [`,
			wantTitle: "PROJ-4: stream",
			wantBody:  "partial body",
		},
		{
			name:      "plain text with title marker",
			raw:       "Title: Foo\n\nSome body text",
			wantTitle: "Foo",
			wantBody:  "Title: Foo\n\nSome body text",
		},
		{
			name:      "markdown bold title marker",
			raw:       "**Title:** PROJ-5: bump deps\n\nBody here",
			wantTitle: "PROJ-5: bump deps",
			wantBody:  "**Title:** PROJ-5: bump deps\n\nBody here",
		},
		{
			name:      "nothing recoverable",
			raw:       "I could not generate a description.",
			wantTitle: "",
			wantBody:  "I could not generate a description.",
		},
		{
			name:      "empty input",
			raw:       "",
			wantTitle: "",
			wantBody:  "",
		},
		{
			name:      "JSON object without expected fields falls back to text",
			raw:       `{"foo": "bar"}`,
			wantTitle: "",
			wantBody:  `{"foo": "bar"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseContent(tt.raw)

			assert.Equal(t, tt.wantTitle, got.Title)
			assert.Equal(t, tt.wantBody, got.Body)
		})
	}
}

func TestParseContent_FreeTextBodyContainsText(t *testing.T) {
	got := ParseContent("Title: Foo\n\nSome body text")

	assert.Equal(t, "Foo", got.Title)
	assert.Contains(t, got.Body, "Some body text")
}

func TestParseContent_NeverPanics(t *testing.T) {
	inputs := []string{
		"{", "}", "}{", "```", "```json", "{\"title\":", "\"title\": \"", "\x00\xff",
		"{\"title\": \"a\\\"}", "Title:", "title:   ",
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() { ParseContent(in) }, in)
		assert.NotPanics(t, func() { ParseSummary(in) }, in)
	}
}

func TestParseSummary(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "JSON", raw: `{"summary": "Adds login."}`, want: "Adds login."},
		{name: "fenced", raw: "```json\n{\"summary\": \"Adds login.\"}\n```", want: "Adds login."},
		{name: "raw newline", raw: "{\"summary\": \"one\ntwo\"}", want: "one\ntwo"},
		{name: "plain text", raw: "This branch adds login.", want: "This branch adds login."},
		{name: "object without summary", raw: `{"text": "x"}`, want: `{"text": "x"}`},
		{name: "broken JSON", raw: `{"summary": "partial", `, want: "partial"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSummary(tt.raw))
		})
	}
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripFences("  ```\n{\"a\":1}```  "))
	assert.Equal(t, "no fences", StripFences("no fences"))
}

func TestSanitizeJSON(t *testing.T) {
	in := "{\"body\": \"a\nb\tc\"}\n"

	assert.Equal(t, "{\"body\": \"a\\nb\\tc\"}\n", SanitizeJSON(in))
}
