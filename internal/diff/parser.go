// Package diff turns unified diff text into line-addressable change records.
package diff

import (
	"strconv"
	"strings"

	"github.com/thomas-vilte/matepr/internal/models"
	"github.com/thomas-vilte/matepr/internal/regex"
)

var structuralPrefixes = []string{"diff --git", "index ", "+++", "---"}

// ParseLineNumbers returns the new-file line numbers added and the old-file line numbers
// removed by a unified diff. Empty or malformed input yields two empty slices.
func ParseLineNumbers(diffText string) models.LineNumbers {
	result := models.LineNumbers{
		Added:   []int{},
		Removed: []int{},
	}

	var oldLine, newLine int
	inHunk := false

	for _, line := range strings.Split(diffText, "\n") {
		line = strings.TrimSuffix(line, "\r")

		if oldStart, newStart, ok := parseHunkHeader(line); ok {
			oldLine = max(oldStart-1, 0)
			newLine = max(newStart-1, 0)
			inHunk = true
			continue
		}

		if !inHunk || isStructural(line) {
			continue
		}

		switch {
		case strings.HasPrefix(line, "+"):
			newLine++
			result.Added = append(result.Added, newLine)
		case strings.HasPrefix(line, "-"):
			oldLine++
			result.Removed = append(result.Removed, oldLine)
		case strings.HasPrefix(line, " "):
			oldLine++
			newLine++
		}
	}

	return result
}

// ParseFile parses a single file diff and returns it attached to a copy of the change record.
func ParseFile(change models.FileChange, diffText string) models.FileChange {
	change.Diff = diffText
	change.LineNumbers = ParseLineNumbers(diffText)
	return change
}

func parseHunkHeader(line string) (oldStart, newStart int, ok bool) {
	if !strings.HasPrefix(line, "@@") {
		return 0, 0, false
	}
	m := regex.HunkHeader.FindStringSubmatch(line)
	if m == nil {
		return 0, 0, false
	}
	oldStart, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, false
	}
	newStart, err = strconv.Atoi(m[3])
	if err != nil {
		return 0, 0, false
	}
	return oldStart, newStart, true
}

func isStructural(line string) bool {
	for _, p := range structuralPrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}
