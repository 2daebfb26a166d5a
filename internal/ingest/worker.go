package ingest

import (
	"context"
	"log/slog"
)

// parseJob asks a worker to parse one export file.
type parseJob struct {
	path   string
	userID string
	result chan parseOutcome
}

type parseOutcome struct {
	fileResult
	err error
}

// WorkerPool parses export files concurrently. It never writes to the store.
type WorkerPool struct {
	size   int
	jobs   chan parseJob
	parser fileParser
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, parser fileParser) *WorkerPool {
	if size < 1 {
		size = 1
	}
	return &WorkerPool{
		size:   size,
		jobs:   make(chan parseJob, size),
		parser: parser,
	}
}

// Start launches the worker goroutines. They exit once Close is called and
// the queue is drained.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

// Dispatch queues a job.
func (wp *WorkerPool) Dispatch(job parseJob) {
	wp.jobs <- job
}

// Close stops accepting jobs.
func (wp *WorkerPool) Close() {
	close(wp.jobs)
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	slog.Debug("parse worker started", "worker", id)
	for job := range wp.jobs {
		if err := ctx.Err(); err != nil {
			job.result <- parseOutcome{err: err}
			continue
		}
		res, err := wp.parser.parseFile(job.path, job.userID)
		job.result <- parseOutcome{fileResult: res, err: err}
	}
	slog.Debug("parse worker shutting down", "worker", id)
}
