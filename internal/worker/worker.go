// Package worker processes queued analysis report jobs in the background.
package worker

import (
	"context"
	"sync"
	"time"

	"stockpulse/internal/database"
	"stockpulse/internal/logging"
)

const staleJobAge = 5 * time.Minute

// Pool manages background processing of report jobs.
type Pool struct {
	builder    *ReportBuilder
	jobQueue   chan string
	workerWg   sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
}

// NewPool creates a worker pool that renders and delivers reports.
func NewPool(builder *ReportBuilder) *Pool {
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		builder:    builder,
		jobQueue:   make(chan string, 100),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start begins processing jobs with the specified number of workers.
func (p *Pool) Start(numWorkers int) {
	p.workerWg.Add(1)
	go p.requeueStaleJobs()

	for i := 0; i < numWorkers; i++ {
		p.workerWg.Add(1)
		go p.worker(i)
	}

	go p.pickupPendingJobs()
}

// pickupPendingJobs enqueues jobs left pending by a previous run.
func (p *Pool) pickupPendingJobs() {
	// Wait a moment for workers to be ready
	select {
	case <-time.After(1 * time.Second):
	case <-p.ctx.Done():
		return
	}

	ids, err := database.ListPendingReportJobs()
	if err != nil {
		logging.Error("Failed to query pending report jobs: %v", err)
		return
	}
	for _, id := range ids {
		p.Enqueue(id)
	}
	if len(ids) > 0 {
		logging.Printf("Picked up %d pending report jobs on startup", len(ids))
	}
}

// Stop gracefully shuts down all workers. The queue channel is never
// closed; late Enqueue calls from pickup goroutines are no-ops once the
// context is cancelled, and anything left unprocessed stays pending in
// the database for the next run.
func (p *Pool) Stop() {
	p.cancelFunc()
	p.workerWg.Wait()
}

// Enqueue adds a job to the processing queue.
func (p *Pool) Enqueue(jobID string) {
	if p.ctx.Err() != nil {
		logging.Debug("Pool stopped, not enqueueing report job: %s", jobID)
		return
	}
	select {
	case p.jobQueue <- jobID:
		logging.Debug("Enqueued report job: %s", jobID)
	default:
		logging.Warning("Job queue full, dropping report job: %s", jobID)
	}
}

func (p *Pool) worker(id int) {
	defer p.workerWg.Done()
	logging.Debug("Report worker %d started", id)

	for {
		select {
		case jobID := <-p.jobQueue:
			p.processJob(jobID)
		case <-p.ctx.Done():
			logging.Debug("Report worker %d stopping", id)
			return
		}
	}
}

func (p *Pool) processJob(jobID string) {
	job, err := database.GetReportJob(jobID)
	if err != nil {
		logging.Error("Failed to load report job %s: %v", jobID, err)
		return
	}

	// Another worker may have grabbed it between enqueue and now
	if job.Status != database.StatusPending {
		logging.Debug("Report job %s is not pending (status: %s), skipping", jobID, job.Status)
		return
	}

	if err := database.UpdateReportJobStatus(jobID, database.StatusInProgress, ""); err != nil {
		logging.Error("Failed to mark report job %s in progress: %v", jobID, err)
		return
	}

	logging.Printf("Processing report job %s (%s %s for %s)", jobID, job.Symbol, job.Period, job.Recipient)

	if err := p.builder.BuildAndSend(p.ctx, job); err != nil {
		logging.Error("Report job %s failed: %v", jobID, err)
		if dbErr := database.UpdateReportJobStatus(jobID, database.StatusFailed, err.Error()); dbErr != nil {
			logging.Error("Failed to record report job failure: %v", dbErr)
		}
		return
	}

	if err := database.UpdateReportJobStatus(jobID, database.StatusCompleted, ""); err != nil {
		logging.Error("Failed to mark report job %s completed: %v", jobID, err)
	}
}

// requeueStaleJobs periodically returns jobs stuck in progress to the queue.
func (p *Pool) requeueStaleJobs() {
	defer p.workerWg.Done()

	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			requeued, err := database.RequeueStaleReportJobs(staleJobAge)
			if err != nil {
				logging.Error("Failed to requeue stale report jobs: %v", err)
				continue
			}
			if requeued > 0 {
				logging.Warning("Requeued %d stale report jobs", requeued)
				go p.pickupPendingJobs()
			}
		case <-p.ctx.Done():
			return
		}
	}
}
