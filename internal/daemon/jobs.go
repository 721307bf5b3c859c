package daemon

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cphub/cphub/internal/domain"
	"github.com/cphub/cphub/internal/queue"
	"github.com/cphub/cphub/internal/sandbox"
)

// JobPublisher enqueues grading jobs for background workers.
type JobPublisher interface {
	PublishSubmission(ctx context.Context, job *queue.SubmissionJob) error
}

// ResultWaiter hands finished grading results to per-job subscribers.
type ResultWaiter interface {
	Subscribe(jobID string, handler queue.ResultHandler)
	Unsubscribe(jobID string)
}

// AttachQueue enables the async job endpoints. Until it is called they
// answer 503; cphubd attaches the queue when RABBITMQ_URL is set.
func (s *Server) AttachQueue(publisher JobPublisher, results ResultWaiter) {
	s.jobPublisher = publisher
	s.jobResults = results
}

type enqueueJobRequest struct {
	ProblemID int    `json:"problemId" validate:"required"`
	Language  string `json:"language" validate:"required"`
	Code      string `json:"code" validate:"required"`
}

type jobView struct {
	JobID  string `json:"jobId"`
	Status string `json:"status"`
}

type jobResultView struct {
	JobID       string                  `json:"jobId"`
	Status      string                  `json:"status"`
	Result      *domain.ExecutionResult `json:"result,omitempty"`
	Error       string                  `json:"error,omitempty"`
	CompletedAt time.Time               `json:"completedAt"`
}

// handleEnqueueJob publishes a grading job and returns immediately.
// The job carries no cases; workers grade against the problem's
// official cases.
func (s *Server) handleEnqueueJob(w http.ResponseWriter, r *http.Request) {
	if s.jobPublisher == nil {
		s.jsonError(w, http.StatusServiceUnavailable, "job queue is not configured", nil)
		return
	}

	var req enqueueJobRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.jsonError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if _, err := sandbox.ParseLanguage(req.Language); err != nil {
		s.jsonError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	problem, err := s.registry.Get(req.ProblemID)
	if err != nil {
		s.jsonError(w, http.StatusNotFound, "problem not found", nil)
		return
	}

	user, _ := UserFrom(r.Context())
	job := &queue.SubmissionJob{
		ID:        uuid.New(),
		UserID:    user.Email,
		ProblemID: problem.ID,
		Language:  req.Language,
		Code:      req.Code,
		Timeout:   s.cfg.SandboxTimeout,
	}
	if err := s.jobPublisher.PublishSubmission(r.Context(), job); err != nil {
		s.jsonError(w, http.StatusBadGateway, "failed to enqueue job", err)
		return
	}

	s.jsonResponse(w, http.StatusAccepted, jobView{
		JobID:  job.ID.String(),
		Status: "queued",
	})
}

// handleWaitJob long-polls for a job's result. Answers 200 with the
// result when it arrives within the wait window, 202 when the job is
// still pending.
func (s *Server) handleWaitJob(w http.ResponseWriter, r *http.Request) {
	if s.jobResults == nil {
		s.jsonError(w, http.StatusServiceUnavailable, "job queue is not configured", nil)
		return
	}

	jobID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid job id", nil)
		return
	}

	wait := 30 * time.Second
	if v := r.URL.Query().Get("wait"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs < 1 || secs > 60 {
			s.jsonError(w, http.StatusBadRequest, "wait must be between 1 and 60 seconds", nil)
			return
		}
		wait = time.Duration(secs) * time.Second
	}

	results := make(chan *queue.SubmissionResult, 1)
	s.jobResults.Subscribe(jobID.String(), func(result *queue.SubmissionResult) {
		select {
		case results <- result:
		default:
		}
	})
	defer s.jobResults.Unsubscribe(jobID.String())

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case result := <-results:
		s.jsonResponse(w, http.StatusOK, jobResultView{
			JobID:       result.JobID.String(),
			Status:      result.Status,
			Result:      result.Result,
			Error:       result.Error,
			CompletedAt: result.CompletedAt,
		})
	case <-timer.C:
		s.jsonResponse(w, http.StatusAccepted, jobView{
			JobID:  jobID.String(),
			Status: "pending",
		})
	case <-r.Context().Done():
	}
}
