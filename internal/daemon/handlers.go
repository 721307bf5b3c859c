package daemon

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cphub/cphub/internal/auth"
	"github.com/cphub/cphub/internal/catalog"
	"github.com/cphub/cphub/internal/domain"
	"github.com/cphub/cphub/internal/grader"
	"github.com/cphub/cphub/internal/sandbox"
	"github.com/cphub/cphub/internal/session"
)

// Version is the daemon version, set at build time.
var Version = "dev"

// userView is the API shape of an account; it never carries the
// password hash.
type userView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

func viewUser(u *domain.User) userView {
	return userView{
		ID:        u.ID.String(),
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
	}
}

type problemSummary struct {
	ID             int      `json:"id"`
	Slug           string   `json:"slug"`
	Title          string   `json:"title"`
	Difficulty     string   `json:"difficulty"`
	Category       string   `json:"category"`
	Tags           []string `json:"tags,omitempty"`
	AcceptanceRate float64  `json:"acceptanceRate,omitempty"`
}

type problemDetail struct {
	problemSummary
	Companies   []string          `json:"companies,omitempty"`
	Description string            `json:"description"`
	Examples    []domain.Example  `json:"examples,omitempty"`
	Constraints []string          `json:"constraints,omitempty"`
	StarterCode map[string]string `json:"starterCode,omitempty"`
	TestCases   []caseView        `json:"testCases"`
}

// caseView hides the expected output for hidden grading while still
// showing the input the case runs with.
type caseView struct {
	ID          int    `json:"id"`
	Input       string `json:"input"`
	Expected    string `json:"expected"`
	Description string `json:"description,omitempty"`
}

func summarize(p *domain.Problem) problemSummary {
	return problemSummary{
		ID:             p.ID,
		Slug:           p.Slug,
		Title:          p.Title,
		Difficulty:     string(p.Difficulty),
		Category:       p.Category,
		Tags:           p.Tags,
		AcceptanceRate: p.AcceptanceRate,
	}
}

func detail(p *domain.Problem) problemDetail {
	cases := make([]caseView, 0, len(p.TestCases))
	for _, tc := range p.TestCases {
		cases = append(cases, caseView{
			ID:          tc.ID,
			Input:       tc.Input,
			Expected:    tc.Expected,
			Description: tc.Description,
		})
	}
	return problemDetail{
		problemSummary: summarize(p),
		Companies:      p.Companies,
		Description:    p.Description,
		Examples:       p.Examples,
		Constraints:    p.Constraints,
		StarterCode:    p.StarterCode,
		TestCases:      cases,
	}
}

type runView struct {
	ID        string                  `json:"id"`
	SessionID string                  `json:"sessionId,omitempty"`
	ProblemID int                     `json:"problemId"`
	Language  string                  `json:"language"`
	Status    domain.RunStatus        `json:"status"`
	Result    *domain.ExecutionResult `json:"result,omitempty"`
	CreatedAt time.Time               `json:"createdAt"`
}

func viewRun(run *domain.Run) runView {
	return runView{
		ID:        run.ID.String(),
		SessionID: run.SessionID,
		ProblemID: run.ProblemID,
		Language:  run.Language,
		Status:    run.Status,
		Result:    run.Result,
		CreatedAt: run.CreatedAt,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"version": Version,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	backend := "custom"
	switch s.executor.(type) {
	case *sandbox.DockerExecutor:
		backend = "docker"
	case *sandbox.SubprocessExecutor:
		backend = "subprocess"
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"version":        Version,
		"uptimeSeconds":  int(time.Since(s.startedAt).Seconds()),
		"problems":       s.registry.Count(),
		"packs":          len(s.registry.ListPacks()),
		"sandboxBackend": backend,
	})
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.jsonError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	user, err := s.authService.Register(req.Email, req.Password, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailTaken):
			s.jsonError(w, http.StatusConflict, "email already registered", nil)
		case errors.Is(err, auth.ErrWeakPassword):
			s.jsonError(w, http.StatusBadRequest, err.Error(), nil)
		default:
			s.jsonError(w, http.StatusInternalServerError, "registration failed", err)
		}
		return
	}

	_, token, err := s.authService.Login(req.Email, req.Password)
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, "registration failed", err)
		return
	}

	s.jsonResponse(w, http.StatusCreated, map[string]any{
		"user":  viewUser(user),
		"token": token,
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.jsonError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	user, token, err := s.authService.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.jsonError(w, http.StatusUnauthorized, "invalid email or password", nil)
			return
		}
		s.jsonError(w, http.StatusInternalServerError, "login failed", err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"user":  viewUser(user),
		"token": token,
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())
	s.jsonResponse(w, http.StatusOK, viewUser(user))
}

func (s *Server) handleListProblems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := catalog.Filter{
		Difficulty: q.Get("difficulty"),
		Category:   q.Get("category"),
		Tag:        q.Get("tag"),
		Search:     q.Get("search"),
	}

	problems := s.registry.List(filter)
	summaries := make([]problemSummary, 0, len(problems))
	for _, p := range problems {
		summaries = append(summaries, summarize(p))
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"problems": summaries,
		"total":    len(summaries),
	})
}

func (s *Server) handleGetProblem(w http.ResponseWriter, r *http.Request) {
	idParam := chi.URLParam(r, "id")

	var (
		problem *domain.Problem
		err     error
	)
	if id, convErr := strconv.Atoi(idParam); convErr == nil {
		problem, err = s.registry.Get(id)
	} else {
		problem, err = s.registry.GetBySlug(idParam)
	}
	if err != nil {
		s.jsonError(w, http.StatusNotFound, "problem not found", nil)
		return
	}

	s.jsonResponse(w, http.StatusOK, detail(problem))
}

func (s *Server) handleListPacks(w http.ResponseWriter, r *http.Request) {
	packs := s.registry.ListPacks()
	out := make([]map[string]any, 0, len(packs))
	for _, p := range packs {
		out = append(out, map[string]any{
			"id":          p.ID,
			"name":        p.Name,
			"version":     p.Version,
			"description": p.Description,
			"problems":    len(p.ProblemIDs),
		})
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"packs": out})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.jsonError(w, http.StatusBadRequest, "limit must be a non-negative integer", nil)
			return
		}
		limit = n
	}

	entries, err := s.leaderboard.Top(limit)
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, "failed to load leaderboard", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"entries": entries})
}

type createSessionRequest struct {
	ProblemID int    `json:"problemId" validate:"required"`
	Language  string `json:"language" validate:"required"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())

	var req createSessionRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.jsonError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	sess, err := s.sessions.Create(user.Email, req.ProblemID, req.Language)
	if err != nil {
		if errors.Is(err, domain.ErrProblemNotFound) {
			s.jsonError(w, http.StatusNotFound, "problem not found", nil)
			return
		}
		s.jsonError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	s.jsonResponse(w, http.StatusCreated, sess)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())

	sessions, err := s.sessions.ListForUser(user.Email)
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, "failed to list sessions", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"sessions": sessions})
}

// sessionFromRequest resolves the {id} path param to the caller's
// session, writing the error response itself on failure.
func (s *Server) sessionFromRequest(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	user, _ := UserFrom(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid session id", nil)
		return nil, false
	}

	sess, err := s.sessions.Get(id, user.Email)
	if err != nil {
		s.jsonError(w, http.StatusNotFound, "session not found", nil)
		return nil, false
	}
	return sess, true
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, sess)
}

func (s *Server) handleAbandonSession(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid session id", nil)
		return
	}

	sess, err := s.sessions.Abandon(id, user.Email)
	if err != nil {
		s.sessionError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, sess)
}

type updateCodeRequest struct {
	Code string `json:"code"`
}

func (s *Server) handleUpdateCode(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid session id", nil)
		return
	}

	var req updateCodeRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.jsonError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	sess, err := s.sessions.UpdateCode(id, user.Email, req.Code)
	if err != nil {
		s.sessionError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, sess)
}

type switchLanguageRequest struct {
	Language string `json:"language" validate:"required"`
}

func (s *Server) handleSwitchLanguage(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid session id", nil)
		return
	}

	var req switchLanguageRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.jsonError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	sess, err := s.sessions.SwitchLanguage(id, user.Email, req.Language)
	if err != nil {
		s.sessionError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, sess)
}

type addCaseRequest struct {
	Input    string `json:"input" validate:"required"`
	Expected string `json:"expected" validate:"required"`
}

func (s *Server) handleAddCustomCase(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid session id", nil)
		return
	}

	var req addCaseRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.jsonError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	sess, err := s.sessions.AddCustomCase(id, user.Email, req.Input, req.Expected)
	if err != nil {
		s.sessionError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, sess)
}

func (s *Server) handleRemoveCustomCase(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid session id", nil)
		return
	}
	caseID, err := strconv.Atoi(chi.URLParam(r, "caseID"))
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid case id", nil)
		return
	}

	sess, err := s.sessions.RemoveCustomCase(id, user.Email, caseID)
	if err != nil {
		s.sessionError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, sess)
}

type runRequest struct {
	// Code, when present, replaces the session's editor contents
	// before grading.
	Code string `json:"code"`
}

func (s *Server) handleRunSession(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())

	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	if !sess.IsOpen() {
		s.jsonError(w, http.StatusConflict, "session is closed", nil)
		return
	}

	if r.ContentLength > 0 {
		var req runRequest
		if err := s.decodeAndValidate(r, &req); err != nil {
			s.jsonError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
		if req.Code != "" {
			updated, err := s.sessions.UpdateCode(sess.ID, user.Email, req.Code)
			if err != nil {
				s.sessionError(w, err)
				return
			}
			sess = updated
		}
	}

	problem, err := s.registry.Get(sess.ProblemID)
	if err != nil {
		s.jsonError(w, http.StatusNotFound, "problem not found", nil)
		return
	}

	cases := make([]domain.TestCase, 0, len(problem.TestCases)+len(sess.CustomCases))
	cases = append(cases, problem.TestCases...)
	cases = append(cases, sess.CustomCases...)

	run, ok := s.gradeSession(w, r, user.Email, sess, cases)
	if !ok {
		return
	}

	if _, err := s.sessions.AttachRun(sess.ID, user.Email, run.ID); err != nil {
		s.logger.Warn("failed to attach run to session", "session_id", sess.ID, "error", err)
	}

	s.jsonResponse(w, http.StatusOK, viewRun(run))
}

func (s *Server) handleSubmitSession(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())

	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	if !sess.IsOpen() {
		s.jsonError(w, http.StatusConflict, "session is closed", nil)
		return
	}

	problem, err := s.registry.Get(sess.ProblemID)
	if err != nil {
		s.jsonError(w, http.StatusNotFound, "problem not found", nil)
		return
	}

	// Official submissions grade against the problem's cases only;
	// custom cases never count toward solving.
	run, ok := s.gradeSession(w, r, user.Email, sess, problem.TestCases)
	if !ok {
		return
	}

	closed, err := s.sessions.Submit(sess.ID, user.Email)
	if err != nil {
		s.sessionError(w, err)
		return
	}

	if s.submissions != nil {
		sub := &domain.Submission{
			ID:            run.ID,
			SessionID:     sess.ID,
			UserID:        user.Email,
			ProblemID:     sess.ProblemID,
			Language:      sess.Language,
			Code:          sess.Code,
			Status:        run.Status,
			CreatedAt:     time.Now(),
			ExecutionTime: run.Result.ExecutionTime,
			Passed:        run.Result.TestCasesPassed,
			Total:         run.Result.TotalTestCases,
			Output:        run.Result.Output,
		}
		if err := s.submissions.Save(sub); err != nil {
			s.logger.Error("failed to record submission", "run_id", run.ID, "error", err)
		}
	}

	elapsed := int(closed.Elapsed().Seconds())
	var prog any
	if run.Status == domain.RunStatusCompleted && run.Result.AllPassed() {
		prog = s.progress.SolveProblem(user.Email, problem.ID, problem.Title, problem.Difficulty, elapsed)
	} else {
		prog = s.progress.AttemptProblem(user.Email, problem.ID, problem.Title, problem.Difficulty, elapsed)
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"session":  closed,
		"run":      viewRun(run),
		"progress": prog,
	})
}

// gradeSession runs the grader for a session, writing the error
// response itself on failure.
func (s *Server) gradeSession(w http.ResponseWriter, r *http.Request, userID string, sess *session.Session, cases []domain.TestCase) (*domain.Run, bool) {
	if err := s.resilient.Allow(r.Context(), userID); err != nil {
		s.jsonError(w, http.StatusTooManyRequests, "submission rate limit exceeded", nil)
		return nil, false
	}

	lang, err := sandbox.ParseLanguage(sess.Language)
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, err.Error(), nil)
		return nil, false
	}

	run, err := s.grader.Run(r.Context(), grader.RunRequest{
		RunID:     uuid.New(),
		SessionID: sess.ID.String(),
		UserID:    userID,
		ProblemID: sess.ProblemID,
		Language:  lang,
		Code:      sess.Code,
		Cases:     cases,
	})
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, "grading failed", err)
		return nil, false
	}
	return run, true
}

type anonymousRunRequest struct {
	ProblemID int    `json:"problemId" validate:"required"`
	Language  string `json:"language" validate:"required"`
	Code      string `json:"code" validate:"required"`
	Cases     []struct {
		Input    string `json:"input"`
		Expected string `json:"expected"`
	} `json:"cases"`
}

func (s *Server) handleAnonymousRun(w http.ResponseWriter, r *http.Request) {
	var req anonymousRunRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.jsonError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	problem, err := s.registry.Get(req.ProblemID)
	if err != nil {
		s.jsonError(w, http.StatusNotFound, "problem not found", nil)
		return
	}

	lang, err := sandbox.ParseLanguage(req.Language)
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	// Anonymous callers share one rate-limit key.
	if err := s.resilient.Allow(r.Context(), "anonymous"); err != nil {
		s.jsonError(w, http.StatusTooManyRequests, "submission rate limit exceeded", nil)
		return
	}

	cases := make([]domain.TestCase, 0, len(problem.TestCases)+len(req.Cases))
	cases = append(cases, problem.TestCases...)
	nextID := len(problem.TestCases) + 1
	for _, c := range req.Cases {
		cases = append(cases, domain.TestCase{ID: nextID, Input: c.Input, Expected: c.Expected, Custom: true})
		nextID++
	}

	run, err := s.grader.Run(r.Context(), grader.RunRequest{
		RunID:     uuid.New(),
		ProblemID: req.ProblemID,
		Language:  lang,
		Code:      req.Code,
		Cases:     cases,
	})
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, "grading failed", err)
		return
	}

	s.jsonResponse(w, http.StatusOK, viewRun(run))
}

func (s *Server) handleCancelRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.jsonError(w, http.StatusBadRequest, "invalid run id", nil)
		return
	}

	if err := s.grader.Cancel(id); err != nil {
		s.jsonError(w, http.StatusNotFound, "run not found or already finished", nil)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())

	prog := s.progress.GetProgress(user.Email)
	resp := map[string]any{"progress": prog}
	if entry, ok, err := s.leaderboard.RankOf(user.Email); err == nil && ok {
		resp["rank"] = entry.Rank
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

type weeklyGoalRequest struct {
	Goal int `json:"goal" validate:"required,min=1,max=200"`
}

func (s *Server) handleSetWeeklyGoal(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())

	var req weeklyGoalRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.jsonError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	s.jsonResponse(w, http.StatusOK, s.progress.SetWeeklyGoal(user.Email, req.Goal))
}

func (s *Server) handleResetWeekly(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())
	s.jsonResponse(w, http.StatusOK, s.progress.ResetWeeklyProgress(user.Email))
}

type learningPathRequest struct {
	Topic   string  `json:"topic" validate:"required"`
	Percent float64 `json:"percent" validate:"min=0,max=100"`
}

func (s *Server) handleUpdateLearningPath(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())

	var req learningPathRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.jsonError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	s.jsonResponse(w, http.StatusOK, s.progress.UpdateLearningPath(user.Email, req.Topic, req.Percent))
}

func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFrom(r.Context())

	if s.submissions == nil {
		s.jsonResponse(w, http.StatusOK, map[string]any{"submissions": []*domain.Submission{}})
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.jsonError(w, http.StatusBadRequest, "limit must be a non-negative integer", nil)
			return
		}
		limit = n
	}

	var (
		subs []*domain.Submission
		err  error
	)
	if raw := r.URL.Query().Get("problemId"); raw != "" {
		problemID, convErr := strconv.Atoi(raw)
		if convErr != nil {
			s.jsonError(w, http.StatusBadRequest, "problemId must be an integer", nil)
			return
		}
		subs, err = s.submissions.ListByProblem(user.Email, problemID)
	} else {
		subs, err = s.submissions.ListByUser(user.Email, limit)
	}
	if err != nil {
		s.jsonError(w, http.StatusInternalServerError, "failed to list submissions", err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"submissions": subs})
}

// sessionError maps session service errors to HTTP statuses.
func (s *Server) sessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		s.jsonError(w, http.StatusNotFound, "session not found", nil)
	case errors.Is(err, session.ErrClosed):
		s.jsonError(w, http.StatusConflict, "session is closed", nil)
	default:
		s.jsonError(w, http.StatusBadRequest, err.Error(), nil)
	}
}
