package core

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"printquote/internal/catalog"
	"printquote/internal/pricing"
	"printquote/internal/slicer"
)

// JobStore is the persistence contract the queue drives. Implemented by
// db.JobStore.
type JobStore interface {
	Create(ctx context.Context, job *Job) error
	Get(ctx context.Context, id string) (*Job, error)
	PendingIDs(ctx context.Context, limit int) ([]string, error)
	ClaimPending(ctx context.Context, id string) (bool, error)
	MarkCompleted(ctx context.Context, id string, result *JobResult) error
	MarkFailed(ctx context.Context, id, message string) error
	ResetProcessing(ctx context.Context) error
	PruneTerminal(ctx context.Context, cutoff time.Time) (int64, error)
}

// Slicer is the boundary to the external slicing tool.
type Slicer interface {
	Slice(ctx context.Context, modelPath string, fillDensity float64, supports bool) (*slicer.Result, error)
}

// CatalogProvider hands out consistent catalog snapshots for pricing.
type CatalogProvider interface {
	Snapshot() *catalog.Catalog
}

// WebhookSender receives job lifecycle events. May be nil.
type WebhookSender interface {
	SendJobEvent(event string, job *Job)
}

const (
	EventJobCompleted = "job_completed"
	EventJobFailed    = "job_failed"

	pendingSweepLimit = 100
	pruneInterval     = time.Hour
)

// QueueOptions configures the job queue.
type QueueOptions struct {
	Store     JobStore
	Slicer    Slicer
	Catalog   CatalogProvider
	Webhook   WebhookSender
	UploadDir string

	BufferSize    int           // job id channel capacity, default 100
	SweepInterval time.Duration // pending-row sweep period, default 2s
	Retention     time.Duration // terminal job retention, 0 keeps forever
}

// Queue is the job dispatcher: a single worker goroutine drains a FIFO of job
// ids, so at most one slicer invocation runs at a time. The id channel is the
// fast path; a periodic sweep of pending rows backstops channel overflow and
// worker restarts.
type Queue struct {
	store     JobStore
	slicer    Slicer
	catalog   CatalogProvider
	webhook   WebhookSender
	logger    *zap.Logger
	uploadDir string

	sweepInterval time.Duration
	retention     time.Duration

	jobCh  chan string
	stopCh chan struct{}

	mu      sync.Mutex
	running bool
	stopped bool
}

func NewQueue(opts QueueOptions, logger *zap.Logger) *Queue {
	if opts.BufferSize <= 0 {
		opts.BufferSize = 100
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = 2 * time.Second
	}
	return &Queue{
		store:         opts.Store,
		slicer:        opts.Slicer,
		catalog:       opts.Catalog,
		webhook:       opts.Webhook,
		logger:        logger,
		uploadDir:     opts.UploadDir,
		sweepInterval: opts.SweepInterval,
		retention:     opts.Retention,
		jobCh:         make(chan string, opts.BufferSize),
		stopCh:        make(chan struct{}),
	}
}

// Start recovers persisted state and launches the worker. Jobs interrupted
// mid-processing by a crash go back to pending and are re-dispatched.
func (q *Queue) Start() error {
	ctx := context.Background()
	if err := q.store.ResetProcessing(ctx); err != nil {
		return fmt.Errorf("failed to recover jobs: %w", err)
	}

	ids, err := q.store.PendingIDs(ctx, pendingSweepLimit)
	if err != nil {
		return fmt.Errorf("failed to query pending jobs: %w", err)
	}
	for _, id := range ids {
		q.notify(id)
	}

	q.ensureWorker()
	return nil
}

// Stop shuts the worker down. In-flight slicing runs to completion or failure.
func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return
	}
	q.stopped = true
	close(q.stopCh)
}

// Enqueue assigns the job an id and creation time, persists it as pending, and
// wakes the worker. The caller gets the id back immediately; slicing happens
// asynchronously.
func (q *Queue) Enqueue(ctx context.Context, job *Job) (string, error) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	job.Status = JobStatusPending
	job.CreatedAt = time.Now().UTC()

	if err := q.store.Create(ctx, job); err != nil {
		return "", err
	}

	q.notify(job.ID)
	q.ensureWorker()
	return job.ID, nil
}

func (q *Queue) notify(id string) {
	select {
	case q.jobCh <- id:
	default:
		// Channel full; the sweep ticker will pick the job up.
	}
}

// ensureWorker starts the worker goroutine if it is not running, so a crashed
// worker is respawned by the next submission.
func (q *Queue) ensureWorker() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running || q.stopped {
		return
	}
	q.running = true
	go q.run()
}

func (q *Queue) run() {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("queue worker crashed", zap.Any("panic", r))
		}
		q.mu.Lock()
		q.running = false
		q.mu.Unlock()
	}()

	sweep := time.NewTicker(q.sweepInterval)
	defer sweep.Stop()
	prune := time.NewTicker(pruneInterval)
	defer prune.Stop()

	for {
		select {
		case <-q.stopCh:
			return
		case id := <-q.jobCh:
			q.processJob(id)
		case <-sweep.C:
			q.dispatchPending()
		case <-prune.C:
			q.pruneOld()
		}
	}
}

func (q *Queue) dispatchPending() {
	ids, err := q.store.PendingIDs(context.Background(), pendingSweepLimit)
	if err != nil {
		q.logger.Error("failed to sweep pending jobs", zap.Error(err))
		return
	}
	for _, id := range ids {
		q.processJob(id)
	}
}

func (q *Queue) pruneOld() {
	if q.retention <= 0 {
		return
	}
	cutoff := time.Now().UTC().Add(-q.retention)
	n, err := q.store.PruneTerminal(context.Background(), cutoff)
	if err != nil {
		q.logger.Error("failed to prune old jobs", zap.Error(err))
		return
	}
	if n > 0 {
		q.logger.Info("pruned old jobs", zap.Int64("count", n))
	}
}

// processJob runs one job through slice + price. A fault in a single job must
// never take the worker down, so panics are converted to a failed status.
func (q *Queue) processJob(id string) {
	ctx := context.Background()

	claimed, err := q.store.ClaimPending(ctx, id)
	if err != nil {
		q.logger.Error("failed to claim job", zap.String("job_id", id), zap.Error(err))
		return
	}
	if !claimed {
		// Already dispatched via the other path, or no longer pending.
		return
	}

	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("job processing panicked", zap.String("job_id", id), zap.Any("panic", r))
			q.failJob(ctx, id, fmt.Sprintf("internal error: %v", r))
		}
	}()

	job, err := q.store.Get(ctx, id)
	if err != nil {
		q.logger.Error("failed to load claimed job", zap.String("job_id", id), zap.Error(err))
		return
	}

	cat := q.catalog.Snapshot()
	fill := job.FillDensity
	if fill <= 0 {
		fill = cat.GlobalSettings.DefaultFillDensity
	}

	q.logger.Info("processing job",
		zap.String("job_id", id),
		zap.String("file", job.OriginalFilename),
		zap.Float64("fill_density", fill))

	res, err := q.slicer.Slice(ctx, filepath.Join(q.uploadDir, job.Filename), fill, job.EnableSupports)
	if err != nil {
		q.failJob(ctx, id, err.Error())
		return
	}
	if res.Error != "" {
		q.failJob(ctx, id, res.Error)
		return
	}

	// Pricing errors are embedded in the result: slicing succeeded, so the job
	// still completes with a degraded quote.
	info, perr := pricing.Calculate(cat, pricing.Input{
		MaterialID:     job.MaterialID,
		ColorID:        job.ColorID,
		QualityID:      job.QualityID,
		FilamentGrams:  res.FilamentUsedG,
		PrintTime:      res.EstimatedTime,
		EnableSupports: job.EnableSupports,
	})
	if perr != nil {
		q.logger.Warn("pricing failed", zap.String("job_id", id), zap.Error(perr))
		info.Error = perr.Error()
	}

	result := &JobResult{
		FilamentUsedG: res.FilamentUsedG,
		EstimatedTime: res.EstimatedTime,
		HasSupports:   res.HasSupports,
		Size:          ModelSize{X: res.SizeX, Y: res.SizeY, Z: res.SizeZ},
		VolumeCM3:     res.VolumeCM3,
		FillDensity:   fill,
		PriceInfo:     info,
	}

	if err := q.store.MarkCompleted(ctx, id, result); err != nil {
		q.logger.Error("failed to store job result", zap.String("job_id", id), zap.Error(err))
		return
	}

	q.logger.Info("job completed",
		zap.String("job_id", id),
		zap.Float64("filament_g", res.FilamentUsedG),
		zap.Float64("total_price", info.TotalPrice))

	if q.webhook != nil {
		if job, err := q.store.Get(ctx, id); err == nil {
			q.webhook.SendJobEvent(EventJobCompleted, job)
		}
	}
}

func (q *Queue) failJob(ctx context.Context, id, message string) {
	if err := q.store.MarkFailed(ctx, id, message); err != nil {
		q.logger.Error("failed to mark job failed", zap.String("job_id", id), zap.Error(err))
		return
	}
	q.logger.Warn("job failed", zap.String("job_id", id), zap.String("reason", message))

	if q.webhook != nil {
		if job, err := q.store.Get(ctx, id); err == nil {
			q.webhook.SendJobEvent(EventJobFailed, job)
		}
	}
}
