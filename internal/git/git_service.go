package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	vcsurl "github.com/gitsight/go-vcsurl"
	"github.com/thomas-vilte/matepr/internal/errors"
	"github.com/thomas-vilte/matepr/internal/logger"
	"github.com/thomas-vilte/matepr/internal/models"
	"github.com/thomas-vilte/matepr/internal/regex"
)

// logRecordSeparator splits full commit messages in git log output.
const logRecordSeparator = "\x1e"

// GitService is the read-only version-control reader. It never mutates the repository.
type GitService struct {
	dir string
}

type Option func(*GitService)

// WithDir runs every git command inside dir instead of the process working directory.
func WithDir(dir string) Option {
	return func(s *GitService) {
		s.dir = dir
	}
}

func NewGitService(opts ...Option) *GitService {
	s := &GitService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *GitService) CurrentBranch(ctx context.Context) (string, error) {
	output, err := s.run(ctx, "branch", "--show-current")
	if err != nil {
		return "", errors.ErrGetBranch.WithError(err)
	}

	branchName := strings.TrimSpace(output)
	if branchName == "" {
		return "", errors.ErrNoBranch
	}

	return branchName, nil
}

// DiffSummary lists every file changed between base and HEAD (merge-base semantics),
// with totals as reported by git itself.
func (s *GitService) DiffSummary(ctx context.Context, base string) (models.DiffSummary, error) {
	rangeSpec := base + "...HEAD"

	numstat, err := s.run(ctx, "diff", "--numstat", "-M", rangeSpec)
	if err != nil {
		return models.DiffSummary{}, errors.ErrGetDiffSummary.WithError(err).WithContext("base", base)
	}

	shortstat, err := s.run(ctx, "diff", "--shortstat", "-M", rangeSpec)
	if err != nil {
		return models.DiffSummary{}, errors.ErrGetDiffSummary.WithError(err).WithContext("base", base)
	}

	summary := models.DiffSummary{Files: parseNumstat(numstat)}
	summary.Insertions, summary.Deletions = parseShortstat(shortstat)

	logger.Debug(ctx, "diff summary collected",
		"base", base,
		"files", len(summary.Files),
		"insertions", summary.Insertions,
		"deletions", summary.Deletions)

	return summary, nil
}

// DiffText returns the unified diff between base and HEAD. An empty path returns the whole diff.
func (s *GitService) DiffText(ctx context.Context, base, path string) (string, error) {
	args := []string{"diff", "-M", base + "...HEAD"}
	if path != "" {
		args = append(args, "--", path)
	}

	output, err := s.run(ctx, args...)
	if err != nil {
		return "", errors.ErrGetDiff.WithError(err).WithContext("path", path)
	}
	return output, nil
}

// Log returns the full commit messages in base..HEAD in the order git prints them.
func (s *GitService) Log(ctx context.Context, base string) ([]string, error) {
	output, err := s.run(ctx, "log", "--no-merges", "--pretty=format:%B"+logRecordSeparator, base+"..HEAD")
	if err != nil {
		return nil, errors.ErrGetCommits.WithError(err).WithContext("base", base)
	}

	messages := make([]string, 0)
	for _, record := range strings.Split(output, logRecordSeparator) {
		msg := strings.TrimSpace(record)
		if msg != "" {
			messages = append(messages, msg)
		}
	}
	return messages, nil
}

// RepoIdentity resolves owner/repo from the origin remote together with the current branch.
func (s *GitService) RepoIdentity(ctx context.Context) (*models.RepoIdentity, error) {
	output, err := s.run(ctx, "remote", "get-url", "origin")
	if err != nil {
		return nil, errors.ErrGetRepoURL.WithError(err)
	}

	identity, err := parseRepoURL(strings.TrimSpace(output))
	if err != nil {
		return nil, err
	}

	branch, err := s.CurrentBranch(ctx)
	if err != nil {
		return nil, err
	}
	identity.CurrentBranch = branch

	return identity, nil
}

// TopLevel returns the absolute path of the working tree root.
func (s *GitService) TopLevel(ctx context.Context) (string, error) {
	output, err := s.run(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", errors.ErrNotGitRepo.WithError(err)
	}
	return strings.TrimSpace(output), nil
}

// run keeps non-ASCII paths verbatim so numstat paths can be passed back to git diff.
func (s *GitService) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-c", "core.quotePath=false"}, args...)...)
	cmd.Dir = s.dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("git %s: %w: %s", args[0], err, msg)
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return stdout.String(), nil
}

func parseNumstat(output string) []models.DiffStat {
	stats := make([]models.DiffStat, 0)

	for _, line := range strings.Split(output, "\n") {
		parts := strings.SplitN(line, "\t", 3)
		if len(parts) != 3 {
			continue
		}

		stat := models.DiffStat{Path: strings.TrimSpace(parts[2])}
		if parts[0] == "-" && parts[1] == "-" {
			stat.Binary = true
		} else {
			stat.Insertions, _ = strconv.Atoi(parts[0])
			stat.Deletions, _ = strconv.Atoi(parts[1])
		}
		stats = append(stats, stat)
	}

	return stats
}

func parseShortstat(output string) (insertions, deletions int) {
	if m := regex.ShortStatInsertions.FindStringSubmatch(output); m != nil {
		insertions, _ = strconv.Atoi(m[1])
	}
	if m := regex.ShortStatDeletions.FindStringSubmatch(output); m != nil {
		deletions, _ = strconv.Atoi(m[1])
	}
	return insertions, deletions
}

func parseRepoURL(url string) (*models.RepoIdentity, error) {
	info, err := vcsurl.Parse(url)
	if err != nil {
		return nil, errors.ErrExtractRepoInfo.WithError(err).WithContext("url", url)
	}
	if info.Username == "" || info.Name == "" {
		return nil, errors.ErrExtractRepoInfo.WithContext("url", url)
	}

	return &models.RepoIdentity{
		Host:  string(info.Host),
		Owner: info.Username,
		Repo:  strings.TrimSuffix(info.Name, ".git"),
	}, nil
}
