package diff

import (
	"strings"

	"github.com/thomas-vilte/matepr/internal/regex"
)

const renameArrow = " => "

// IsRename reports whether a numstat path describes a rename.
func IsRename(path string) bool {
	return strings.Contains(path, renameArrow)
}

// TargetPath resolves a numstat rename ("old => new" or "dir/{a => b}/f")
// to the path the file has on the current branch. Other paths are returned as is.
func TargetPath(path string) string {
	if !IsRename(path) {
		return path
	}
	if regex.BracedRename.MatchString(path) {
		p := regex.BracedRename.ReplaceAllString(path, "$2")
		// "{ => sub}/f" and "{sub => }/f" leave doubled or leading slashes
		p = strings.ReplaceAll(p, "//", "/")
		return strings.TrimPrefix(p, "/")
	}
	_, after, _ := strings.Cut(path, renameArrow)
	return after
}
