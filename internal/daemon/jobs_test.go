package daemon

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/cphub/cphub/internal/queue"
)

// fakeJobQueue stands in for the RabbitMQ producer and result
// consumer, recording published jobs and letting tests deliver
// results to subscribers.
type fakeJobQueue struct {
	mu        sync.Mutex
	published []*queue.SubmissionJob
	handlers  map[string]queue.ResultHandler
}

func newFakeJobQueue() *fakeJobQueue {
	return &fakeJobQueue{handlers: make(map[string]queue.ResultHandler)}
}

func (q *fakeJobQueue) PublishSubmission(ctx context.Context, job *queue.SubmissionJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.published = append(q.published, job)
	return nil
}

func (q *fakeJobQueue) Subscribe(jobID string, handler queue.ResultHandler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[jobID] = handler
}

func (q *fakeJobQueue) Unsubscribe(jobID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.handlers, jobID)
}

func (q *fakeJobQueue) handlerFor(jobID string) queue.ResultHandler {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.handlers[jobID]
}

// deliver waits for a subscriber on jobID and hands it the result.
func (q *fakeJobQueue) deliver(result *queue.SubmissionResult) {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if handler := q.handlerFor(result.JobID.String()); handler != nil {
			handler(result)
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestJobsUnavailableWithoutQueue(t *testing.T) {
	srv := newTestServer(t, passingExecutor())
	token := loginDemo(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/v1/jobs", token, map[string]any{
		"problemId": 1,
		"language":  "javascript",
		"code":      "function solution() {}",
	})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("enqueue status = %d, want 503", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/v1/jobs/6b1e1c2e-0000-0000-0000-000000000000", token, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("wait status = %d, want 503", rec.Code)
	}
}

func TestEnqueueAndWaitJob(t *testing.T) {
	srv := newTestServer(t, passingExecutor())
	q := newFakeJobQueue()
	srv.AttachQueue(q, q)
	token := loginDemo(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/v1/jobs", token, map[string]any{
		"problemId": 1,
		"language":  "javascript",
		"code":      "function solution(nums, target) { return [0, 1]; }",
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("enqueue status = %d, body %s", rec.Code, rec.Body.String())
	}
	jobID, _ := decode(t, rec)["jobId"].(string)
	if jobID == "" {
		t.Fatal("enqueue returned no jobId")
	}

	q.mu.Lock()
	if len(q.published) != 1 {
		q.mu.Unlock()
		t.Fatalf("published %d jobs, want 1", len(q.published))
	}
	job := q.published[0]
	q.mu.Unlock()
	if job.UserID != "demo@example.com" {
		t.Errorf("job user = %q, want demo@example.com", job.UserID)
	}
	if job.ProblemID != 1 {
		t.Errorf("job problem = %d, want 1", job.ProblemID)
	}
	if len(job.Cases) != 0 {
		t.Errorf("job carries %d cases, want none (workers load official cases)", len(job.Cases))
	}

	go q.deliver(&queue.SubmissionResult{
		JobID:       job.ID,
		Status:      "completed",
		CompletedAt: time.Now(),
	})

	rec = doJSON(t, srv, http.MethodGet, "/v1/jobs/"+jobID+"?wait=2", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("wait status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["status"] != "completed" {
		t.Errorf("result status = %v, want completed", body["status"])
	}
	if body["jobId"] != jobID {
		t.Errorf("result jobId = %v, want %s", body["jobId"], jobID)
	}
	if q.handlerFor(jobID) != nil {
		t.Error("wait left its subscription registered")
	}
}

func TestWaitJobPending(t *testing.T) {
	srv := newTestServer(t, passingExecutor())
	q := newFakeJobQueue()
	srv.AttachQueue(q, q)
	token := loginDemo(t, srv)

	rec := doJSON(t, srv, http.MethodGet, "/v1/jobs/6b1e1c2e-0000-0000-0000-000000000000?wait=1", token, nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("wait status = %d, want 202", rec.Code)
	}
	if got := decode(t, rec)["status"]; got != "pending" {
		t.Errorf("status = %v, want pending", got)
	}
}

func TestEnqueueJobValidation(t *testing.T) {
	srv := newTestServer(t, passingExecutor())
	q := newFakeJobQueue()
	srv.AttachQueue(q, q)
	token := loginDemo(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/v1/jobs", token, map[string]any{
		"problemId": 999,
		"language":  "javascript",
		"code":      "function solution() {}",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown problem status = %d, want 404", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/v1/jobs", token, map[string]any{
		"problemId": 1,
		"language":  "brainfuck",
		"code":      "+++",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown language status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/v1/jobs/not-a-uuid", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad job id status = %d, want 400", rec.Code)
	}
}
