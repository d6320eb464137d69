package models

// FileStatus is the change kind of a single file in a ChangeSet.
type FileStatus string

const (
	StatusAdded    FileStatus = "added"
	StatusModified FileStatus = "modified"
	StatusDeleted  FileStatus = "deleted"
	StatusRenamed  FileStatus = "renamed"
)

type (
	// LineNumbers holds the new-file (Added) and old-file (Removed) line numbers touched by a diff.
	LineNumbers struct {
		Added   []int `json:"added"`
		Removed []int `json:"removed"`
	}

	// FileChange is one modified file in the current changeset.
	FileChange struct {
		Path        string      `json:"path"`
		Status      FileStatus  `json:"status"`
		Insertions  int         `json:"insertions"`
		Deletions   int         `json:"deletions"`
		Binary      bool        `json:"binary,omitempty"`
		Diff        string      `json:"diff,omitempty"`
		LineNumbers LineNumbers `json:"line_numbers"`
	}

	// ChangeSet aggregates every FileChange between a base ref and the current branch.
	ChangeSet struct {
		BaseBranch      string       `json:"base_branch"`
		HeadBranch      string       `json:"head_branch"`
		Files           []FileChange `json:"files"`
		TotalInsertions int          `json:"total_insertions"`
		TotalDeletions  int          `json:"total_deletions"`
		TotalFiles      int          `json:"total_files"`
		Commits         []string     `json:"commits"`
	}

	// DiffStat is one row of a diff summary as reported by the version-control reader.
	DiffStat struct {
		Path       string
		Insertions int
		Deletions  int
		Binary     bool
	}

	// DiffSummary is the base-to-HEAD summary with its own totals.
	DiffSummary struct {
		Files      []DiffStat
		Insertions int
		Deletions  int
	}
)

// HasLineNumbers reports whether the diff parser recorded any line for this file.
func (f FileChange) HasLineNumbers() bool {
	return len(f.LineNumbers.Added) > 0 || len(f.LineNumbers.Removed) > 0
}
