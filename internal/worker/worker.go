package worker

import (
	"context"
	"path"
	"sync"
	"time"

	"media-browser/internal/database"
	"media-browser/internal/events"
	"media-browser/internal/logging"
	"media-browser/internal/mediatypes"
	"media-browser/internal/metrics"
	"media-browser/internal/scanner"
)

// JobSource supplies and settles queued jobs.
type JobSource interface {
	Claim(ctx context.Context) (*database.ThumbJob, error)
	Complete(ctx context.Context, id int64) error
	Drop(ctx context.Context, id int64) error
}

// Generator produces thumbnail artifacts.
type Generator interface {
	Exists(relPath string) bool
	Generate(ctx context.Context, absPath, relPath string, mediaType mediatypes.MediaType) error
}

// Lister resolves paths and expands directories to their media files.
type Lister interface {
	Resolve(rel string) (string, error)
	Stat(rel string) (scanner.Node, error)
	MediaFiles(rel string) ([]scanner.Node, error)
}

// Publisher broadcasts completion events.
type Publisher interface {
	Publish(event events.ThumbCompletedEvent)
}

// Pool runs a fixed number of workers that claim thumbnail jobs, generate
// artifacts, and broadcast one completion event per successful job. Failed
// jobs are dropped without retry; the next request for the same path starts
// a fresh job.
type Pool struct {
	source    JobSource
	generator Generator
	lister    Lister
	bus       Publisher
	count     int

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// NewPool creates a pool of count workers.
func NewPool(count int, source JobSource, generator Generator, lister Lister, bus Publisher) *Pool {
	return &Pool{
		source:    source,
		generator: generator,
		lister:    lister,
		bus:       bus,
		count:     count,
	}
}

// Start launches the workers.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	for i := 0; i < p.count; i++ {
		p.wg.Add(1)
		go p.run(runCtx, i)
	}
	logging.Info("Started %d thumbnail workers", p.count)
}

// Stop cancels all workers and waits for them to finish their current job.
func (p *Pool) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return
	}
	p.started = false

	p.cancel()
	p.wg.Wait()
	logging.Info("Thumbnail workers stopped")
}

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()

	for {
		job, err := p.source.Claim(ctx)
		if err != nil {
			logging.Error("Worker %d claim failed: %v", id, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if job == nil {
			// Claim returns nil only on shutdown.
			return
		}
		p.process(ctx, id, job)
	}
}

func (p *Pool) process(ctx context.Context, id int, job *database.ThumbJob) {
	start := time.Now()
	logging.Debug("Worker %d processing %s job for %s", id, job.Kind, job.TargetPath)

	var err error
	switch job.Kind {
	case database.JobKindFile:
		err = p.generateFile(ctx, job.TargetPath)
	case database.JobKindDirectory:
		err = p.generateDirectory(ctx, job.TargetPath)
	default:
		logging.Warn("Worker %d dropping job with unknown kind %q", id, job.Kind)
		err = p.source.Drop(ctx, job.ID)
		if err != nil {
			logging.Error("Worker %d failed to drop job %d: %v", id, job.ID, err)
		}
		return
	}

	metrics.WorkerJobDuration.WithLabelValues(string(job.Kind)).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.WorkerJobsTotal.WithLabelValues(string(job.Kind), "failed").Inc()
		logging.Warn("Worker %d job for %s failed: %v", id, job.TargetPath, err)
		if dropErr := p.source.Drop(ctx, job.ID); dropErr != nil {
			logging.Error("Worker %d failed to drop job %d: %v", id, job.ID, dropErr)
		}
		return
	}

	if completeErr := p.source.Complete(ctx, job.ID); completeErr != nil {
		logging.Error("Worker %d failed to complete job %d: %v", id, job.ID, completeErr)
	}
	metrics.WorkerJobsTotal.WithLabelValues(string(job.Kind), "done").Inc()
	p.bus.Publish(completionEvent(job))
	logging.Debug("Worker %d finished %s in %v", id, job.TargetPath, time.Since(start))
}

func (p *Pool) generateFile(ctx context.Context, relPath string) error {
	node, err := p.lister.Stat(relPath)
	if err != nil {
		return err
	}
	if !mediatypes.Thumbable(node.MediaType) {
		// Nothing to generate; the job still completes so the event fires
		// and clients refresh.
		return nil
	}

	absPath, err := p.lister.Resolve(relPath)
	if err != nil {
		return err
	}
	return p.generator.Generate(ctx, absPath, relPath, node.MediaType)
}

// generateDirectory covers every thumbable file directly under the
// directory. Files that already have artifacts are skipped; a partial
// failure fails the whole job.
func (p *Pool) generateDirectory(ctx context.Context, relPath string) error {
	nodes, err := p.lister.MediaFiles(relPath)
	if err != nil {
		return err
	}

	for _, node := range nodes {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !mediatypes.Thumbable(node.MediaType) || p.generator.Exists(node.Path) {
			continue
		}

		absPath, err := p.lister.Resolve(node.Path)
		if err != nil {
			return err
		}
		if err := p.generator.Generate(ctx, absPath, node.Path, node.MediaType); err != nil {
			return err
		}
	}
	return nil
}

// completionEvent shapes the broadcast payload: directory jobs carry the
// directory path, file jobs carry the file path plus its parent.
func completionEvent(job *database.ThumbJob) events.ThumbCompletedEvent {
	if job.Kind == database.JobKindDirectory {
		return events.ThumbCompletedEvent{DirPath: job.TargetPath}
	}

	dir := path.Dir(job.TargetPath)
	if dir == "." {
		dir = ""
	}
	return events.ThumbCompletedEvent{DirPath: dir, FilePath: job.TargetPath}
}
