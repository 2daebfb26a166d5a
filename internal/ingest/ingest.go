// Package ingest loads per-user CSV exports into the store, one transaction
// per file.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"glucose-levels-backend/config"
	"glucose-levels-backend/internal/logging"
	"glucose-levels-backend/internal/parse"
	"glucose-levels-backend/internal/store"
)

// FileResult records what happened to one export file.
type FileResult struct {
	File      string
	UserID    string
	Rows      int
	Sanitized int
	Err       error
}

// Summary describes an import run.
type Summary struct {
	RunID         string
	FilesSeen     int
	FilesImported int
	FilesFailed   int
	FilesSkipped  int
	RowsImported  int
	Failures      []FileResult
}

// Failed reports whether any export file could not be imported.
func (s Summary) Failed() bool {
	return s.FilesFailed > 0
}

// Service orchestrates directory imports. Parsing runs on a worker pool;
// commits happen on the calling goroutine, one file at a time.
type Service struct {
	cfg    config.ImportConfig
	store  store.Store
	parser fileParser
}

// NewService creates an import service writing to s.
func NewService(cfg config.ImportConfig, s store.Store) *Service {
	if cfg.Columns == (config.ColumnMapping{}) {
		cfg.Columns = config.DefaultColumns
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Service{cfg: cfg, store: s, parser: newFileParser(cfg)}
}

type exportFile struct {
	name string
	job  parseJob
}

// ImportDirectory imports every export file directly inside dir. A file that
// fails is rolled back and reported in the summary; the remaining files are
// still attempted. An error is returned only if dir cannot be read or ctx
// ends.
func (s *Service) ImportDirectory(ctx context.Context, dir string) (Summary, error) {
	summary := Summary{RunID: uuid.NewString()}
	ctx = logging.WithFields(ctx, "run_id", summary.RunID)
	logger := logging.FromContext(ctx)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return summary, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	var files []exportFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !parse.IsExportFile(entry.Name()) {
			summary.FilesSkipped++
			logger.Debug("skipping non-export file", "file", entry.Name())
			continue
		}
		userID, ok := parse.UserIDFromFilename(entry.Name())
		if !ok {
			summary.FilesSkipped++
			logger.Warn("skipping export file without a user id", "file", entry.Name())
			continue
		}
		files = append(files, exportFile{
			name: entry.Name(),
			job: parseJob{
				path:   filepath.Join(dir, entry.Name()),
				userID: userID,
				result: make(chan parseOutcome, 1),
			},
		})
	}
	summary.FilesSeen = len(files)
	logger.Info("import started", "dir", dir, "files", len(files), "workers", s.cfg.Workers)

	pool := NewWorkerPool(s.cfg.Workers, s.parser)
	pool.Start(ctx)

	// Bound the number of parsed-but-uncommitted files held in memory.
	inflight := make(chan struct{}, 2*s.cfg.Workers)
	go func() {
		defer pool.Close()
		for _, f := range files {
			select {
			case inflight <- struct{}{}:
				pool.Dispatch(f.job)
			case <-ctx.Done():
				f.job.result <- parseOutcome{err: ctx.Err()}
			}
		}
	}()

	for _, f := range files {
		outcome := <-f.job.result
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}

		res := s.commit(ctx, f, outcome)
		<-inflight

		if res.Err != nil {
			summary.FilesFailed++
			summary.Failures = append(summary.Failures, res)
			logger.Error("file import failed; batch rolled back", "file", res.File, "user_id", res.UserID, "error", res.Err)
			continue
		}
		summary.FilesImported++
		summary.RowsImported += res.Rows
		logger.Info("file imported", "file", res.File, "user_id", res.UserID, "rows", res.Rows, "sanitized", res.Sanitized)
	}

	logger.Info("import finished",
		"imported", summary.FilesImported,
		"failed", summary.FilesFailed,
		"skipped", summary.FilesSkipped,
		"rows", summary.RowsImported,
	)
	return summary, nil
}

// ImportFile parses and commits a single export file.
func (s *Service) ImportFile(ctx context.Context, path string) (FileResult, error) {
	name := filepath.Base(path)
	userID, ok := parse.UserIDFromFilename(name)
	if !ok {
		return FileResult{File: name}, fmt.Errorf("no user id in file name %q", name)
	}

	res, err := s.parser.parseFile(path, userID)
	f := exportFile{name: name, job: parseJob{path: path, userID: userID}}
	out := s.commit(ctx, f, parseOutcome{fileResult: res, err: err})
	return out, out.Err
}

func (s *Service) commit(ctx context.Context, f exportFile, outcome parseOutcome) FileResult {
	res := FileResult{File: f.name, UserID: f.job.userID}
	if outcome.err != nil {
		res.Err = outcome.err
		return res
	}

	if err := s.store.CreateBatch(ctx, outcome.levels); err != nil {
		res.Err = fmt.Errorf("commit: %w", err)
		return res
	}
	res.Rows = len(outcome.levels)
	res.Sanitized = outcome.sanitized
	return res
}

// IsFatal reports whether err aborted a file because of its content rather
// than because of I/O or the store.
func IsFatal(err error) bool {
	return errors.Is(err, ErrFatalRow) || errors.Is(err, ErrMissingColumn) || errors.Is(err, ErrMissingHeader)
}
