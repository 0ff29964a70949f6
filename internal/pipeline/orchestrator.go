package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/JoaoFavoreto/Powerpoint-translator/internal/config"
	"github.com/JoaoFavoreto/Powerpoint-translator/internal/metrics"
	"github.com/JoaoFavoreto/Powerpoint-translator/internal/translate"
)

// Orchestrator manages the translation job queue and worker pool.
// Jobs are independent: each owns a private copy of its document, so
// workers share no mutable state beyond the job registry.
type Orchestrator struct {
	jobs  *JobStore
	queue chan *Job
	ports map[string]translate.Port
	stats *translate.Stats
	met   *metrics.Metrics
	log   *slog.Logger
	cfg   config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline.
func NewOrchestrator(cfg config.Config, ports map[string]translate.Port, met *metrics.Metrics, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:  NewJobStore(cfg.JobTTL),
		queue: make(chan *Job, cfg.MaxQueueSize),
		ports: ports,
		stats: translate.NewStats(time.Hour),
		met:   met,
		log:   log,
		cfg:   cfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for i := 0; i < o.cfg.WorkerCount; i++ {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.ports, o.stats, o.met, o.log, o.cfg.TranslateTimeout)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job := <-o.queue:
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline. The queue channel is never
// closed: handlers may still be submitting while shutdown is in
// flight, and a send would panic. Workers drain out through context
// cancellation instead; jobs still queued stay in StatusQueued.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// HasProvider reports whether a translation provider is configured.
func (o *Orchestrator) HasProvider(name string) bool {
	_, ok := o.ports[name]
	return ok
}

// ProviderStats returns the rolling provider latency snapshot.
func (o *Orchestrator) ProviderStats() translate.StatsSnapshot {
	return o.stats.Snapshot()
}
