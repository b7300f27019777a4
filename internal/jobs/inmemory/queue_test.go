package inmemory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dvloznov/expense-tracker/internal/jobs"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestQueueProcessesJobsInPublishOrder(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store)
	defer q.Close()

	var mu sync.Mutex
	var order []string

	handler := func(ctx context.Context, job jobs.Job) error {
		mu.Lock()
		order = append(order, job.GetID())
		mu.Unlock()
		return nil
	}
	if err := q.Start(context.Background(), handler); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	for i := 1; i <= 3; i++ {
		job := &jobs.ImportStatementJob{
			JobID:  fmt.Sprintf("job-%d", i),
			UserID: "user-1",
			GCSURI: "gs://bucket/statement.pdf",
		}
		if err := q.PublishImportStatement(context.Background(), job); err != nil {
			t.Fatalf("publish %d failed: %v", i, err)
		}
	}

	waitFor(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 3
	})

	mu.Lock()
	defer mu.Unlock()
	for i, id := range []string{"job-1", "job-2", "job-3"} {
		if order[i] != id {
			t.Fatalf("processing order = %v, want publish order", order)
		}
	}
}

func TestQueueSerializesPerUserOnly(t *testing.T) {
	q := NewQueue(10, nil)
	defer q.Close()

	releaseA := make(chan struct{})
	otherUserDone := make(chan struct{})

	var mu sync.Mutex
	started := map[string]int{}

	handler := func(ctx context.Context, job jobs.Job) error {
		j := job.(*jobs.ImportStatementJob)
		mu.Lock()
		started[j.JobID]++
		mu.Unlock()

		switch j.JobID {
		case "a-1":
			<-releaseA
		case "b-1":
			close(otherUserDone)
		}
		return nil
	}
	if err := q.Start(context.Background(), handler); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	publish := func(jobID, userID string) {
		t.Helper()
		err := q.PublishImportStatement(context.Background(), &jobs.ImportStatementJob{
			JobID:  jobID,
			UserID: userID,
		})
		if err != nil {
			t.Fatalf("publish %s failed: %v", jobID, err)
		}
	}
	publish("a-1", "user-a")
	publish("a-2", "user-a")
	publish("b-1", "user-b")

	// Another user's job completes while user-a's first job is still held.
	select {
	case <-otherUserDone:
	case <-time.After(2 * time.Second):
		t.Fatal("user-b job blocked behind user-a's job")
	}

	// The held job keeps the same user's next job from starting.
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	if started["a-2"] != 0 {
		mu.Unlock()
		t.Fatal("a-2 started while a-1 was still running")
	}
	mu.Unlock()

	close(releaseA)
	waitFor(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return started["a-2"] == 1
	})
}

func TestQueueRetriesFailedJob(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store)
	defer q.Close()

	var mu sync.Mutex
	attempts := 0

	handler := func(ctx context.Context, job jobs.Job) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts == 1 {
			return fmt.Errorf("transient failure")
		}
		return nil
	}
	if err := q.Start(context.Background(), handler); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	job := &jobs.ImportStatementJob{JobID: "retry-1", UserID: "user-1", MaxRetries: 2}
	if err := q.PublishImportStatement(context.Background(), job); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	waitFor(t, 5*time.Second, func() bool {
		saved, err := store.GetJob(context.Background(), "retry-1")
		return err == nil && saved.Status == jobs.JobStatusCompleted
	})

	saved, err := store.GetJob(context.Background(), "retry-1")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if saved.RetryCount != 1 {
		t.Errorf("retry count = %d, want 1", saved.RetryCount)
	}
	if saved.Error != "" {
		t.Errorf("completed job still carries error %q", saved.Error)
	}
}

func TestQueueRejectsAfterClose(t *testing.T) {
	q := NewQueue(1, nil)
	if err := q.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	err := q.PublishImportStatement(context.Background(), &jobs.ImportStatementJob{
		JobID:  "late",
		UserID: "user-1",
	})
	if err == nil {
		t.Error("publish on closed queue did not fail")
	}
}

func TestStoreSaveGetList(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if err := store.SaveJob(ctx, &jobs.ImportStatementJob{}); err == nil {
		t.Error("saving a job without ID did not fail")
	}

	for i := 1; i <= 3; i++ {
		job := &jobs.ImportStatementJob{
			JobID:      fmt.Sprintf("job-%d", i),
			UserID:     "user-1",
			DocumentID: "doc-1",
			Status:     jobs.JobStatusPending,
		}
		if err := store.SaveJob(ctx, job); err != nil {
			t.Fatalf("SaveJob failed: %v", err)
		}
	}

	got, err := store.GetJob(ctx, "job-2")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	// Mutating the returned copy must not touch the stored job.
	got.Status = jobs.JobStatusFailed
	again, _ := store.GetJob(ctx, "job-2")
	if again.Status != jobs.JobStatusPending {
		t.Error("GetJob returned a shared pointer instead of a copy")
	}

	if _, err := store.GetJob(ctx, "nope"); err == nil {
		t.Error("GetJob for unknown ID did not fail")
	}

	listed, err := store.ListJobs(ctx, jobs.JobFilter{UserID: "user-1", Status: jobs.JobStatusPending})
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(listed) != 3 {
		t.Errorf("listed %d jobs, want 3", len(listed))
	}

	none, err := store.ListJobs(ctx, jobs.JobFilter{UserID: "user-2"})
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("listed %d jobs for unknown user, want 0", len(none))
	}

	if err := store.UpdateJobStatus(ctx, "job-3", jobs.JobStatusCompleted, ""); err != nil {
		t.Fatalf("UpdateJobStatus failed: %v", err)
	}
	updated, _ := store.GetJob(ctx, "job-3")
	if updated.Status != jobs.JobStatusCompleted {
		t.Errorf("status = %s, want completed", updated.Status)
	}
}
