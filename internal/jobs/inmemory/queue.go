package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dvloznov/expense-tracker/internal/jobs"
	"github.com/google/uuid"
)

// Queue is an in-memory implementation of job publisher and consumer.
// Jobs are distributed over per-user lanes: each lane is a buffered
// channel drained by a single goroutine, so imports for one user run
// one at a time in publish order while different users proceed in
// parallel. This implementation is suitable for single-instance
// deployments and testing; for multi-instance deployments, migrate to
// Cloud Tasks or Pub/Sub with an equivalent ordering key.
type Queue struct {
	mu        sync.Mutex
	lanes     map[string]chan *jobs.ImportStatementJob
	laneSize  int
	handler   jobs.JobHandler
	store     jobs.JobStore
	closeChan chan struct{}
	wg        sync.WaitGroup
	started   bool
	closed    bool
}

// NewQueue creates a new in-memory job queue.
// laneSize determines how many jobs can be queued per user before
// PublishImportStatement blocks.
func NewQueue(laneSize int, store jobs.JobStore) *Queue {
	return &Queue{
		lanes:     make(map[string]chan *jobs.ImportStatementJob),
		laneSize:  laneSize,
		store:     store,
		closeChan: make(chan struct{}),
	}
}

// PublishImportStatement implements the Publisher interface.
// It enqueues a statement import job on the owner's lane.
func (q *Queue) PublishImportStatement(ctx context.Context, job *jobs.ImportStatementJob) error {
	if job.UserID == "" {
		return fmt.Errorf("job has no user ID")
	}

	// Generate job ID if not provided
	if job.JobID == "" {
		job.JobID = uuid.New().String()
	}

	// Set initial status and timestamp
	if job.Status == "" {
		job.Status = jobs.JobStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	if job.MaxRetries == 0 {
		job.MaxRetries = 3 // Default retry count
	}

	// Save job to store
	if q.store != nil {
		if err := q.store.SaveJob(ctx, job); err != nil {
			return fmt.Errorf("failed to save job: %w", err)
		}
	}

	lane, err := q.lane(job.UserID)
	if err != nil {
		return err
	}

	select {
	case lane <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closeChan:
		return fmt.Errorf("queue is closed")
	}
}

// lane returns the user's job channel, creating it and its drain
// goroutine on first use.
func (q *Queue) lane(userID string) (chan *jobs.ImportStatementJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil, fmt.Errorf("queue is closed")
	}

	lane, ok := q.lanes[userID]
	if !ok {
		lane = make(chan *jobs.ImportStatementJob, q.laneSize)
		q.lanes[userID] = lane
		if q.started {
			q.wg.Add(1)
			go q.drainLane(lane)
		}
	}
	return lane, nil
}

// Start implements the Consumer interface.
// It launches one drain goroutine per existing lane; lanes created
// later start their drainer on creation.
func (q *Queue) Start(ctx context.Context, handler jobs.JobHandler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return fmt.Errorf("queue is closed")
	}
	if q.started {
		return fmt.Errorf("queue already started")
	}
	q.started = true
	q.handler = handler

	for _, lane := range q.lanes {
		q.wg.Add(1)
		go q.drainLane(lane)
	}

	return nil
}

// drainLane processes one user's jobs sequentially.
func (q *Queue) drainLane(lane chan *jobs.ImportStatementJob) {
	defer q.wg.Done()

	for {
		select {
		case <-q.closeChan:
			return
		case job := <-lane:
			if job == nil {
				return
			}
			q.processJob(context.Background(), job)
		}
	}
}

// processJob executes a single job with retry logic.
func (q *Queue) processJob(ctx context.Context, job *jobs.ImportStatementJob) {
	// Update job status to running
	job.Status = jobs.JobStatusRunning
	now := time.Now()
	job.StartedAt = &now

	if q.store != nil {
		_ = q.store.SaveJob(ctx, job)
	}

	// Execute the job handler
	err := q.handler(ctx, job)

	// Update job status based on result
	completedAt := time.Now()
	job.CompletedAt = &completedAt

	if err != nil {
		job.Error = err.Error()

		// Check if we should retry
		if job.RetryCount < job.MaxRetries {
			job.RetryCount++
			job.Status = jobs.JobStatusRetrying

			// Re-enqueue with backoff, back onto the same user lane
			backoff := time.Duration(job.RetryCount) * time.Second
			time.AfterFunc(backoff, func() {
				// Reset for retry
				job.Status = jobs.JobStatusPending
				job.StartedAt = nil
				job.CompletedAt = nil
				_ = q.PublishImportStatement(context.Background(), job)
			})
		} else {
			job.Status = jobs.JobStatusFailed
		}
	} else {
		job.Status = jobs.JobStatusCompleted
		job.Error = ""
	}

	if q.store != nil {
		_ = q.store.SaveJob(ctx, job)
	}
}

// Stop implements the Consumer interface.
// It stops the queue and waits for all in-flight jobs to complete.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeChan)
	q.mu.Unlock()

	// Wait for lane drainers to finish with timeout
	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements the Publisher interface.
// It closes the queue and releases resources.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}

// Ensure Queue implements both Publisher and Consumer interfaces.
var _ jobs.Publisher = (*Queue)(nil)
var _ jobs.Consumer = (*Queue)(nil)
