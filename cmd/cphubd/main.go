package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cphub/cphub/internal/config"
	"github.com/cphub/cphub/internal/daemon"
	"github.com/cphub/cphub/internal/queue"
)

const (
	pidFileName = "cphubd.pid"
)

func main() {
	if err := run(); err != nil {
		slog.Error("daemon error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Ensure ~/.cphub directory exists
	hubDir, err := config.EnsureHubDir()
	if err != nil {
		return fmt.Errorf("ensure hub dir: %w", err)
	}

	// Environment configuration first, then local overrides
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	local, err := config.LoadLocalConfig()
	if err != nil {
		return fmt.Errorf("load local config: %w", err)
	}
	applyLocalConfig(cfg, local)

	// First start on a loopback daemon: generate and persist a secret
	// instead of demanding TOKEN_SECRET
	if cfg.IsDefaultTokenSecret() {
		secret, err := config.EnsureTokenSecret()
		if err != nil {
			return fmt.Errorf("ensure token secret: %w", err)
		}
		cfg.TokenSecret = secret
	}

	logLevel := parseLogLevel(local.Daemon.LogLevel)
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}
	logFile, err := setupLogging(hubDir, logLevel)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}

	// Write PID file
	pidPath := filepath.Join(hubDir, pidFileName)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	// Problems directory (try configured path first, then ~/.cphub)
	if _, err := os.Stat(cfg.ProblemsPath); os.IsNotExist(err) {
		cfg.ProblemsPath = filepath.Join(hubDir, "problems")
	}

	server, err := daemon.NewServer(context.Background(), cfg, daemon.Options{})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	// Optional RabbitMQ worker: drain the submission queue alongside
	// the HTTP API, and route the async /v1/jobs endpoints through the
	// same broker.
	var (
		consumer *queue.Consumer
		results  *queue.ResultConsumer
	)
	if cfg.RabbitMQURL != "" {
		conn, err := queue.NewConnection(cfg.RabbitMQURL)
		if err != nil {
			return fmt.Errorf("connect to rabbitmq: %w", err)
		}
		defer conn.Close()

		consumer = queue.NewConsumer(conn, server.JobHandler(), queue.DefaultConsumerConfig())
		if err := consumer.Start(context.Background()); err != nil {
			return fmt.Errorf("start queue consumer: %w", err)
		}

		results = queue.NewResultConsumer(conn)
		if err := results.Start(context.Background()); err != nil {
			return fmt.Errorf("start result consumer: %w", err)
		}

		server.AttachQueue(queue.NewProducer(conn), results)
		slog.Info("submission queue worker started")
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh

		slog.Info("received signal, shutting down", "signal", sig.String())

		if consumer != nil {
			consumer.Stop()
		}
		if results != nil {
			results.Stop()
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
		close(done)
	}()

	if err := server.Start(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	slog.Info("daemon stopped")
	return nil
}

// applyLocalConfig overlays ~/.cphub/config.yaml onto the environment
// configuration. Local values win for the daemon and sandbox knobs.
func applyLocalConfig(cfg *config.Config, local *config.LocalConfig) {
	if local.Daemon.Port != 0 {
		cfg.Port = local.Daemon.Port
	}
	if local.Daemon.Bind != "" {
		cfg.Bind = local.Daemon.Bind
	}
	if local.Sandbox.Executor != "" {
		cfg.SandboxExecutor = local.Sandbox.Executor
	}
	if local.Sandbox.Docker.MemoryMB != 0 {
		cfg.SandboxMemoryMB = local.Sandbox.Docker.MemoryMB
	}
	if local.Sandbox.Docker.CPULimit != 0 {
		cfg.SandboxCPULimit = local.Sandbox.Docker.CPULimit
	}
	if local.Grading.TimeoutSeconds != 0 {
		cfg.SandboxTimeout = local.Grading.TimeoutSeconds
	}
	if local.Grading.CaseTimeoutSeconds != 0 {
		cfg.SandboxCaseTimeout = local.Grading.CaseTimeoutSeconds
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func setupLogging(hubDir string, level slog.Level) (*os.File, error) {
	logPath := filepath.Join(hubDir, "logs", "cphubd.log")

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	handler := slog.NewJSONHandler(logFile, &slog.HandlerOptions{
		Level: level,
	})

	// Also log to stderr for foreground mode
	multiHandler := &multiHandler{
		handlers: []slog.Handler{
			handler,
			slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			}),
		},
	}

	slog.SetDefault(slog.New(multiHandler))

	return logFile, nil
}

func writePIDFile(path string) error {
	pid := os.Getpid()
	return os.WriteFile(path, []byte(fmt.Sprintf("%d\n", pid)), 0644)
}

// multiHandler logs to multiple handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, r.Level) {
			if err := handler.Handle(ctx, r); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}
