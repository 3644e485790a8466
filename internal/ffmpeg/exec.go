package ffmpeg

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"sync"
)

const stderrTailLines = 20

type commandExecutor struct{}

func (commandExecutor) Start(ctx context.Context, binary string, args []string) (Process, error) {
	tail := &tailBuffer{limit: stderrTailLines}
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	cmd.Stderr = tail
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &commandProcess{cmd: cmd, stderr: tail}, nil
}

type commandProcess struct {
	cmd    *exec.Cmd
	stderr *tailBuffer
}

func (p *commandProcess) Wait() error {
	err := p.cmd.Wait()
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Code: exitErr.ExitCode(), Stderr: p.stderr.String()}
	}
	return err
}

// tailBuffer keeps the last limit lines written to it.
type tailBuffer struct {
	mu      sync.Mutex
	limit   int
	lines   []string
	partial strings.Builder
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range string(p) {
		if c == '\n' || c == '\r' {
			b.push()
			continue
		}
		b.partial.WriteRune(c)
	}
	return len(p), nil
}

func (b *tailBuffer) push() {
	line := strings.TrimSpace(b.partial.String())
	b.partial.Reset()
	if line == "" {
		return
	}
	b.lines = append(b.lines, line)
	if len(b.lines) > b.limit {
		b.lines = b.lines[len(b.lines)-b.limit:]
	}
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	lines := append([]string(nil), b.lines...)
	if rest := strings.TrimSpace(b.partial.String()); rest != "" {
		lines = append(lines, rest)
	}
	return strings.Join(lines, "\n")
}
