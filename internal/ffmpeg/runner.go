package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"jofsarpur/internal/services"
)

const defaultLogLevel = "error"

// Process is a started stream-copy invocation.
type Process interface {
	// Wait blocks until the process exits. It returns nil for exit status 0.
	Wait() error
}

// Runner starts stream-copy processes.
type Runner interface {
	Start(ctx context.Context, sourceURL, destination string) (Process, error)
}

// Executor abstracts command execution for testability.
type Executor interface {
	Start(ctx context.Context, binary string, args []string) (Process, error)
}

// ExitError reports a non-zero exit status.
type ExitError struct {
	Code int
	// Stderr holds the last lines the process wrote to standard error.
	Stderr string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("exit status %d", e.Code)
	if tail := lastLine(e.Stderr); tail != "" {
		msg += ": " + tail
	}
	return msg
}

// ExitCode extracts the exit status from err: 0 for nil, the process status
// for an ExitError anywhere in the chain, and -1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return -1
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithLogLevel sets the value passed to -loglevel.
func WithLogLevel(level string) Option {
	return func(c *Client) {
		if level = strings.TrimSpace(level); level != "" {
			c.logLevel = level
		}
	}
}

// WithTimeout bounds each process. Zero disables the limit.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.timeout = timeout }
}

// Client wraps ffmpeg CLI interactions.
type Client struct {
	binary   string
	logLevel string
	timeout  time.Duration
	exec     Executor
}

// New constructs an ffmpeg client.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("ffmpeg binary required")
	}
	client := &Client{
		binary:   binary,
		logLevel: defaultLogLevel,
		exec:     commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Args returns the ffmpeg arguments used to copy sourceURL into destination.
func (c *Client) Args(sourceURL, destination string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-loglevel", c.logLevel,
		"-y",
		"-i", sourceURL,
		"-c", "copy",
		"-bsf:a", "aac_adtstoasc",
		destination,
	}
}

// Start launches ffmpeg. The process is killed when ctx is cancelled or the
// configured timeout elapses.
func (c *Client) Start(ctx context.Context, sourceURL, destination string) (Process, error) {
	if strings.TrimSpace(sourceURL) == "" {
		return nil, services.Wrap(services.ErrValidation, "ffmpeg", "start", "source url required", nil)
	}
	if strings.TrimSpace(destination) == "" {
		return nil, services.Wrap(services.ErrValidation, "ffmpeg", "start", "destination required", nil)
	}

	runCtx, cancel := ctx, context.CancelFunc(func() {})
	if c.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
	}

	proc, err := c.exec.Start(runCtx, c.binary, c.Args(sourceURL, destination))
	if err != nil {
		cancel()
		return nil, services.Wrap(services.ErrExternalTool, "ffmpeg", "start", c.binary, err)
	}
	return &process{ctx: runCtx, parent: ctx, cancel: cancel, inner: proc, timeout: c.timeout}, nil
}

// process classifies the outcome of the wrapped process.
type process struct {
	ctx     context.Context
	parent  context.Context
	cancel  context.CancelFunc
	inner   Process
	timeout time.Duration
}

func (p *process) Wait() error {
	defer p.cancel()
	err := p.inner.Wait()
	if err == nil {
		return nil
	}
	switch {
	case p.parent.Err() != nil:
		return fmt.Errorf("ffmpeg interrupted: %w", p.parent.Err())
	case errors.Is(p.ctx.Err(), context.DeadlineExceeded):
		return services.Wrap(services.ErrTimeout, "ffmpeg", "copy", fmt.Sprintf("killed after %s", p.timeout), err)
	default:
		return services.Wrap(services.ErrExternalTool, "ffmpeg", "copy", "", err)
	}
}

func lastLine(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
