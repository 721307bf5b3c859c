package sandbox

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
)

// DockerConfig holds Docker executor settings
type DockerConfig struct {
	MemoryMB   int64
	CPULimit   float64
	NetworkOff bool
	Images     map[Language]string // optional per-language image overrides
}

// DockerExecutor runs each invocation in a throwaway container with
// memory/CPU limits and, by default, no network. One container per
// invocation; nothing is reused between cases.
type DockerExecutor struct {
	client  *client.Client
	cfg     DockerConfig
	configs map[Language]LanguageConfig
}

// NewDockerExecutor creates a Docker-backed executor. It fails fast
// when the Docker daemon is unreachable so callers can fall back to
// the subprocess executor.
func NewDockerExecutor(cfg DockerConfig) (*DockerExecutor, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := cli.Ping(ctx); err != nil {
		cli.Close()
		return nil, fmt.Errorf("docker not reachable: %w", err)
	}

	if cfg.MemoryMB == 0 {
		cfg.MemoryMB = 256
	}
	if cfg.CPULimit == 0 {
		cfg.CPULimit = 0.5
	}

	return &DockerExecutor{
		client:  cli,
		cfg:     cfg,
		configs: DefaultLanguageConfigs(),
	}, nil
}

func (e *DockerExecutor) Check(ctx context.Context, lang Language, code string) error {
	cfg, ok := e.configs[lang]
	if !ok {
		return fmt.Errorf("unsupported language: %s", lang)
	}

	name := "source" + cfg.FileExt
	cmd := append(append([]string{}, cfg.CheckCommand...), "/workspace/"+name)
	res, err := e.runOnce(ctx, lang, cmd, map[string]string{name: code})
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return &ConstructionError{Message: res.Stderr}
	}
	return nil
}

func (e *DockerExecutor) Invoke(ctx context.Context, req InvokeRequest) (*InvokeResult, error) {
	cfg, ok := e.configs[req.Language]
	if !ok {
		return nil, fmt.Errorf("unsupported language: %s", req.Language)
	}

	harness, err := buildHarness(req.Language, req.Code, req.Input)
	if err != nil {
		return nil, err
	}

	name := "main" + cfg.FileExt
	cmd := append(append([]string{}, cfg.RunCommand...), "/workspace/"+name)
	return e.runOnce(ctx, req.Language, cmd, map[string]string{name: harness})
}

// Close closes the Docker client
func (e *DockerExecutor) Close() error {
	return e.client.Close()
}

// runOnce creates a container, copies the files in, runs the command
// to completion (or ctx deadline), and collects demuxed output.
func (e *DockerExecutor) runOnce(ctx context.Context, lang Language, cmd []string, files map[string]string) (*InvokeResult, error) {
	img := e.image(lang)
	if err := e.ensureImage(ctx, img); err != nil {
		return nil, fmt.Errorf("ensure image: %w", err)
	}

	containerCfg := &container.Config{
		Image:           img,
		Cmd:             cmd,
		WorkingDir:      "/workspace",
		NetworkDisabled: e.cfg.NetworkOff,
		Tty:             false,
		Labels: map[string]string{
			"cphub.sandbox": "true",
			"cphub.lang":    lang.String(),
		},
	}
	hostCfg := &container.HostConfig{
		Resources: container.Resources{
			Memory:   e.cfg.MemoryMB * 1024 * 1024,
			NanoCPUs: int64(e.cfg.CPULimit * 1e9),
		},
	}

	resp, err := e.client.ContainerCreate(ctx, containerCfg, hostCfg, nil, nil, "")
	if err != nil {
		return nil, fmt.Errorf("create container: %w", err)
	}
	defer func() {
		_ = e.client.ContainerRemove(context.Background(), resp.ID, container.RemoveOptions{Force: true})
	}()

	if err := e.copyFiles(ctx, resp.ID, files); err != nil {
		return nil, fmt.Errorf("copy files: %w", err)
	}

	start := time.Now()
	if err := e.client.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return nil, fmt.Errorf("start container: %w", err)
	}

	statusCh, errCh := e.client.ContainerWait(ctx, resp.ID, container.WaitConditionNotRunning)

	var exitCode int
	timedOut := false
	select {
	case status := <-statusCh:
		exitCode = int(status.StatusCode)
	case err := <-errCh:
		if ctx.Err() != nil {
			timedOut = true
			exitCode = -1
			timeout := 1
			_ = e.client.ContainerStop(context.Background(), resp.ID, container.StopOptions{Timeout: &timeout})
		} else {
			return nil, fmt.Errorf("wait container: %w", err)
		}
	}
	duration := time.Since(start)

	stdout, stderr, err := e.collectLogs(resp.ID)
	if err != nil {
		return nil, err
	}

	return &InvokeResult{
		Output:   stdout,
		Stderr:   shortenOutput(stderr, "/workspace"),
		ExitCode: exitCode,
		TimedOut: timedOut,
		Duration: duration,
	}, nil
}

func (e *DockerExecutor) copyFiles(ctx context.Context, containerID string, files map[string]string) error {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)

	for name, content := range files {
		header := &tar.Header{
			Name: name,
			Mode: 0o644,
			Size: int64(len(content)),
		}
		if err := tw.WriteHeader(header); err != nil {
			return fmt.Errorf("write tar header: %w", err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			return fmt.Errorf("write tar content: %w", err)
		}
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("close tar: %w", err)
	}

	return e.client.CopyToContainer(ctx, containerID, "/workspace", &buf, container.CopyToContainerOptions{})
}

// collectLogs reads demuxed stdout/stderr from a finished container.
// A background context is used so logs survive a deadline expiry.
func (e *DockerExecutor) collectLogs(containerID string) (string, string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	reader, err := e.client.ContainerLogs(ctx, containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		return "", "", fmt.Errorf("container logs: %w", err)
	}
	defer reader.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, reader); err != nil {
		return "", "", fmt.Errorf("demux logs: %w", err)
	}
	return stdout.String(), stderr.String(), nil
}

func (e *DockerExecutor) image(lang Language) string {
	if img, ok := e.cfg.Images[lang]; ok && img != "" {
		return img
	}
	return e.configs[lang].DockerImage
}

func (e *DockerExecutor) ensureImage(ctx context.Context, img string) error {
	_, err := e.client.ImageInspect(ctx, img)
	if err == nil {
		return nil // Already present
	}

	reader, err := e.client.ImagePull(ctx, img, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("pull image %s: %w", img, err)
	}
	defer reader.Close()
	_, _ = io.Copy(io.Discard, reader)
	return nil
}
