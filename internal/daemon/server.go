package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	"github.com/cphub/cphub/internal/auth"
	"github.com/cphub/cphub/internal/catalog"
	"github.com/cphub/cphub/internal/config"
	"github.com/cphub/cphub/internal/domain"
	"github.com/cphub/cphub/internal/grader"
	"github.com/cphub/cphub/internal/leaderboard"
	"github.com/cphub/cphub/internal/progress"
	"github.com/cphub/cphub/internal/sandbox"
	"github.com/cphub/cphub/internal/session"
	"github.com/cphub/cphub/internal/storage/local"
	"github.com/cphub/cphub/internal/storage/postgres"
	"github.com/cphub/cphub/internal/storage/sqlite"
)

// SubmissionRecorder persists official submission attempts. Optional;
// when nil the daemon still grades but keeps no submission history.
type SubmissionRecorder interface {
	Save(sub *domain.Submission) error
	ListByUser(userID string, limit int) ([]*domain.Submission, error)
	ListByProblem(userID string, problemID int) ([]*domain.Submission, error)
}

// Options carries optional overrides for NewServer. Zero values mean
// "build from config"; tests inject fakes here.
type Options struct {
	Logger      *slog.Logger
	Executor    sandbox.Executor
	Submissions SubmissionRecorder
}

// Server is the cphub daemon's HTTP surface. It owns the problem
// registry, the sandbox executor, and the services built on top of
// them, and serves the /v1 API the CLI and web client talk to.
type Server struct {
	cfg    *config.Config
	logger *slog.Logger

	httpServer *http.Server
	router     chi.Router

	registry    *catalog.Registry
	executor    sandbox.Executor
	resilient   *sandbox.ResilientExecutor
	grader      *grader.Service
	sessions    *session.Service
	authService *auth.Service
	progress    *progress.Service
	leaderboard *leaderboard.Service
	submissions SubmissionRecorder

	jobPublisher JobPublisher
	jobResults   ResultWaiter

	validate  *validator.Validate
	startedAt time.Time
}

// NewServer wires up the daemon from configuration.
func NewServer(ctx context.Context, cfg *config.Config, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	dataDir := cfg.DataDir
	if dataDir == "" {
		hubDir, err := config.EnsureHubDir()
		if err != nil {
			return nil, fmt.Errorf("failed to prepare hub directory: %w", err)
		}
		dataDir = filepath.Join(hubDir, "data")
	}

	store, err := local.NewStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	registry := catalog.NewRegistry(logger)
	if err := registry.LoadFrom(catalog.NewLoader(cfg.ProblemsPath)); err != nil {
		return nil, fmt.Errorf("failed to load problem packs: %w", err)
	}
	logger.Info("problem catalog loaded", "problems", registry.Count())

	executor := opts.Executor
	if executor == nil {
		executor = buildExecutor(cfg, logger)
	}
	resilient := sandbox.NewResilientExecutor(executor, sandbox.ResilientConfig{
		MaxConcurrent: cfg.SandboxPoolSize,
		RatePerSecond: int(cfg.SandboxRatePerSecond),
		Logger:        logger,
	})

	graderSvc := grader.NewService(grader.Config{
		Timeout:     time.Duration(cfg.SandboxTimeout) * time.Second,
		CaseTimeout: time.Duration(cfg.SandboxCaseTimeout) * time.Second,
	}, resilient)

	// Storage precedence: postgres when DATABASE_URL is set, sqlite
	// when SQLITE_PATH is set, otherwise JSON files under the data dir.
	var (
		userRepo      auth.Repository
		progressStore progress.Store
	)
	submissions := opts.Submissions
	if cfg.DatabaseURL != "" {
		pdb, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		if err := pdb.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("failed to prepare postgres schema: %w", err)
		}
		userRepo = postgres.NewUserRepository(pdb)
		progressStore = postgres.NewProgressStore(pdb)
		logger.Info("postgres storage enabled")
	}
	if userRepo == nil {
		userRepo, err = auth.NewFileRepository(store)
		if err != nil {
			return nil, fmt.Errorf("failed to open user repository: %w", err)
		}
	}
	if progressStore == nil && cfg.SQLitePath != "" {
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		if err := db.Migrate(); err != nil {
			return nil, fmt.Errorf("failed to migrate sqlite database: %w", err)
		}
		progressStore = sqlite.NewProgressStore(db)
		if submissions == nil {
			submissions = sqlite.NewSubmissionStore(db)
		}
		logger.Info("sqlite storage enabled", "path", cfg.SQLitePath)
	}
	if progressStore == nil {
		progressStore, err = progress.NewLocalStore(dataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open progress store: %w", err)
		}
	}
	progressSvc := progress.NewService(progressStore)

	tokens := auth.NewTokenIssuer(cfg.TokenSecret, time.Duration(cfg.TokenMaxAge)*time.Second)
	authSvc := auth.NewService(userRepo, tokens, logger)

	s := &Server{
		cfg:         cfg,
		logger:      logger,
		registry:    registry,
		executor:    executor,
		resilient:   resilient,
		grader:      graderSvc,
		sessions:    session.NewService(session.NewLocalStore(store), registry, logger),
		authService: authSvc,
		progress:    progressSvc,
		leaderboard: leaderboard.NewService(progressSvc),
		submissions: submissions,
		validate:    validator.New(),
		startedAt:   time.Now(),
	}

	s.router = s.setupRoutes()
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Bind, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// buildExecutor creates the configured sandbox backend, falling back
// to the subprocess executor when Docker is not reachable.
func buildExecutor(cfg *config.Config, logger *slog.Logger) sandbox.Executor {
	if cfg.SandboxExecutor == "docker" {
		docker, err := sandbox.NewDockerExecutor(sandbox.DockerConfig{
			MemoryMB:   int64(cfg.SandboxMemoryMB),
			CPULimit:   cfg.SandboxCPULimit,
			NetworkOff: true,
		})
		if err == nil {
			logger.Info("sandbox executor ready", "backend", "docker")
			return docker
		}
		logger.Warn("docker unavailable, falling back to subprocess sandbox", "error", err)
	}
	logger.Info("sandbox executor ready", "backend", "subprocess")
	return sandbox.NewSubprocessExecutor()
}

func (s *Server) setupRoutes() chi.Router {
	r := chi.NewRouter()

	r.Use(correlationIDMiddleware)
	r.Use(loggingMiddleware)
	r.Use(recoveryMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.cfg.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", CorrelationIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/status", s.handleStatus)

		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		r.Get("/problems", s.handleListProblems)
		r.Get("/problems/{id}", s.handleGetProblem)
		r.Get("/packs", s.handleListPacks)
		r.Get("/leaderboard", s.handleLeaderboard)

		// Anonymous practice: grades code without a session and
		// records nothing in the ledger.
		r.Post("/runs", s.handleAnonymousRun)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/auth/me", s.handleMe)

			r.Post("/sessions", s.handleCreateSession)
			r.Get("/sessions", s.handleListSessions)
			r.Get("/sessions/{id}", s.handleGetSession)
			r.Delete("/sessions/{id}", s.handleAbandonSession)
			r.Put("/sessions/{id}/code", s.handleUpdateCode)
			r.Put("/sessions/{id}/language", s.handleSwitchLanguage)
			r.Post("/sessions/{id}/cases", s.handleAddCustomCase)
			r.Delete("/sessions/{id}/cases/{caseID}", s.handleRemoveCustomCase)
			r.Post("/sessions/{id}/runs", s.handleRunSession)
			r.Post("/sessions/{id}/submit", s.handleSubmitSession)
			r.Post("/runs/{id}/cancel", s.handleCancelRun)

			r.Post("/jobs", s.handleEnqueueJob)
			r.Get("/jobs/{id}", s.handleWaitJob)

			r.Get("/progress", s.handleGetProgress)
			r.Put("/progress/weekly-goal", s.handleSetWeeklyGoal)
			r.Post("/progress/weekly-reset", s.handleResetWeekly)
			r.Put("/progress/learning-path", s.handleUpdateLearningPath)
			r.Get("/progress/submissions", s.handleListSubmissions)
		})
	})

	return r
}

// Start begins serving HTTP requests. It blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info("daemon listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and releases the sandbox backend.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("daemon shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown failed: %w", err)
	}
	return s.resilient.Close()
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) jsonError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		s.logger.Error(message, "error", err, "status", status)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func (s *Server) decodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := s.validate.Struct(dst); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}
