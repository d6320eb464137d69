package changes

import (
	"context"

	"github.com/thomas-vilte/matepr/internal/diff"
	"github.com/thomas-vilte/matepr/internal/errors"
	"github.com/thomas-vilte/matepr/internal/logger"
	"github.com/thomas-vilte/matepr/internal/models"
	"golang.org/x/sync/errgroup"
)

// defaultConcurrency bounds the per-file diff reads issued at once.
const defaultConcurrency = 4

// Reader is the read-only view of the repository the aggregator needs.
type Reader interface {
	CurrentBranch(ctx context.Context) (string, error)
	DiffSummary(ctx context.Context, base string) (models.DiffSummary, error)
	DiffText(ctx context.Context, base, path string) (string, error)
	Log(ctx context.Context, base string) ([]string, error)
}

type Aggregator struct {
	reader      Reader
	concurrency int
}

type Option func(*Aggregator)

// WithConcurrency sets how many per-file diffs may be fetched in parallel.
func WithConcurrency(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

func NewAggregator(reader Reader, opts ...Option) *Aggregator {
	a := &Aggregator{reader: reader, concurrency: defaultConcurrency}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// GetChanges builds the ChangeSet between base and HEAD. With detailed set, every
// file also carries its own diff and line numbers; a file whose diff cannot be
// read is kept without them.
func (a *Aggregator) GetChanges(ctx context.Context, base string, detailed bool) (models.ChangeSet, error) {
	log := logger.FromContext(ctx)

	head, err := a.reader.CurrentBranch(ctx)
	if err != nil {
		return models.ChangeSet{}, err
	}
	if head == base {
		return models.ChangeSet{}, errors.ErrComparison.
			WithContext("base", base).
			WithContext("head", head)
	}

	summary, err := a.reader.DiffSummary(ctx, base)
	if err != nil {
		return models.ChangeSet{}, err
	}

	files := make([]models.FileChange, len(summary.Files))
	for i, stat := range summary.Files {
		files[i] = models.FileChange{
			Path:        stat.Path,
			Status:      DetermineStatus(stat.Path, stat.Insertions, stat.Deletions),
			Insertions:  stat.Insertions,
			Deletions:   stat.Deletions,
			Binary:      stat.Binary,
			LineNumbers: models.LineNumbers{Added: []int{}, Removed: []int{}},
		}
	}

	if detailed {
		if err := a.fillDiffs(ctx, base, files); err != nil {
			return models.ChangeSet{}, err
		}
	}

	commits, err := a.reader.Log(ctx, base)
	if err != nil {
		return models.ChangeSet{}, err
	}

	log.Debug("changes collected",
		"base", base,
		"head", head,
		"files", len(files),
		"commits", len(commits))

	return models.ChangeSet{
		BaseBranch:      base,
		HeadBranch:      head,
		Files:           files,
		TotalInsertions: summary.Insertions,
		TotalDeletions:  summary.Deletions,
		TotalFiles:      len(files),
		Commits:         commits,
	}, nil
}

// fillDiffs fetches every file's diff concurrently. Each goroutine writes only
// its own slot of files. Only context cancellation aborts the batch.
func (a *Aggregator) fillDiffs(ctx context.Context, base string, files []models.FileChange) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for i := range files {
		if files[i].Binary {
			continue
		}
		g.Go(func() error {
			path := diff.TargetPath(files[i].Path)
			text, err := a.reader.DiffText(gctx, base, path)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				logger.Warn(gctx, "skipping file diff",
					"path", path,
					"error", errors.ErrPartialDiffFetch.WithContext("path", path).WithError(err))
				return nil
			}
			files[i] = diff.ParseFile(files[i], text)
			return nil
		})
	}

	return g.Wait()
}

// DetermineStatus derives a file's status from its numstat row.
func DetermineStatus(path string, insertions, deletions int) models.FileStatus {
	switch {
	case diff.IsRename(path):
		return models.StatusRenamed
	case deletions == 0 && insertions > 0:
		return models.StatusAdded
	case insertions == 0 && deletions > 0:
		return models.StatusDeleted
	default:
		return models.StatusModified
	}
}
