package regex

import "regexp"

var (
	// Unified diff patterns
	HunkHeader = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

	// git diff --shortstat, e.g. " 3 files changed, 10 insertions(+), 2 deletions(-)"
	ShortStatInsertions = regexp.MustCompile(`(\d+) insertions?\(\+\)`)
	ShortStatDeletions  = regexp.MustCompile(`(\d+) deletions?\(-\)`)

	// Renamed numstat paths: "old => new" or "dir/{a => b}/file"
	BracedRename = regexp.MustCompile(`\{([^{}]*) => ([^{}]*)\}`)

	// Issue and Ticket patterns
	JiraTicket = regexp.MustCompile(`([A-Z][A-Z0-9]+-\d+)`)

	// AI and JSON parsing
	MarkdownFenceStart = regexp.MustCompile("^```[a-zA-Z]*[ \t]*\n?")
	MarkdownFenceEnd   = regexp.MustCompile("\n?```[ \t]*$")
	JSONString         = regexp.MustCompile(`"(?:\\.|[^"\\])*"`)
	TitleLine          = regexp.MustCompile(`(?im)^[\s#*>-]*title\s*:\s*(.+)$`)

	// String fields of JSON too broken to decode
	JSONTitleField   = regexp.MustCompile(`(?i)"title"\s*:\s*("(?:\\.|[^"\\])*")`)
	JSONBodyField    = regexp.MustCompile(`(?i)"body"\s*:\s*("(?:\\.|[^"\\])*")`)
	JSONSummaryField = regexp.MustCompile(`(?i)"summary"\s*:\s*("(?:\\.|[^"\\])*")`)
)
