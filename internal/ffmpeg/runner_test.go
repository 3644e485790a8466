package ffmpeg_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"
	"time"

	"jofsarpur/internal/ffmpeg"
	"jofsarpur/internal/services"
)

type stubProcess struct {
	wait func() error
}

func (p stubProcess) Wait() error { return p.wait() }

type stubExecutor struct {
	binary   string
	args     []string
	startErr error
	wait     func(ctx context.Context) error
}

func (s *stubExecutor) Start(ctx context.Context, binary string, args []string) (ffmpeg.Process, error) {
	s.binary = binary
	s.args = append([]string(nil), args...)
	if s.startErr != nil {
		return nil, s.startErr
	}
	return stubProcess{wait: func() error {
		if s.wait == nil {
			return nil
		}
		return s.wait(ctx)
	}}, nil
}

func TestStartBuildsStreamCopyArgs(t *testing.T) {
	exec := &stubExecutor{}
	client, err := ffmpeg.New("/usr/bin/ffmpeg", ffmpeg.WithExecutor(exec), ffmpeg.WithLogLevel("warning"))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	proc, err := client.Start(context.Background(), "https://cdn.example/p1.m3u8", "/tv/show/ep1.mp4")
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if err := proc.Wait(); err != nil {
		t.Fatalf("Wait returned error: %v", err)
	}

	want := []string{
		"-hide_banner", "-nostdin", "-loglevel", "warning", "-y",
		"-i", "https://cdn.example/p1.m3u8",
		"-c", "copy", "-bsf:a", "aac_adtstoasc",
		"/tv/show/ep1.mp4",
	}
	if exec.binary != "/usr/bin/ffmpeg" {
		t.Fatalf("unexpected binary %q", exec.binary)
	}
	if !reflect.DeepEqual(exec.args, want) {
		t.Fatalf("unexpected args:\n got %v\nwant %v", exec.args, want)
	}
}

func TestWaitWrapsExitError(t *testing.T) {
	exec := &stubExecutor{wait: func(context.Context) error {
		return &ffmpeg.ExitError{Code: 1, Stderr: "Opening input\nServer returned 404 Not Found"}
	}}
	client, _ := ffmpeg.New("ffmpeg", ffmpeg.WithExecutor(exec))

	proc, err := client.Start(context.Background(), "src", "dst")
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	err = proc.Wait()
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
	if ffmpeg.ExitCode(err) != 1 {
		t.Fatalf("expected exit code 1, got %d", ffmpeg.ExitCode(err))
	}
	if !strings.Contains(err.Error(), "404 Not Found") {
		t.Fatalf("expected last stderr line in message, got %q", err.Error())
	}
}

func TestStartFailureIsExternalToolError(t *testing.T) {
	client, _ := ffmpeg.New("ffmpeg", ffmpeg.WithExecutor(&stubExecutor{startErr: errors.New("no such file")}))
	_, err := client.Start(context.Background(), "src", "dst")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
}

func TestTimeoutIsReported(t *testing.T) {
	exec := &stubExecutor{wait: func(ctx context.Context) error {
		<-ctx.Done()
		return &ffmpeg.ExitError{Code: -1}
	}}
	client, _ := ffmpeg.New("ffmpeg", ffmpeg.WithExecutor(exec), ffmpeg.WithTimeout(10*time.Millisecond))

	proc, err := client.Start(context.Background(), "src", "dst")
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if err := proc.Wait(); !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestCancellationIsReported(t *testing.T) {
	exec := &stubExecutor{wait: func(ctx context.Context) error {
		<-ctx.Done()
		return &ffmpeg.ExitError{Code: -1}
	}}
	client, _ := ffmpeg.New("ffmpeg", ffmpeg.WithExecutor(exec))

	ctx, cancel := context.WithCancel(context.Background())
	proc, err := client.Start(ctx, "src", "dst")
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	cancel()
	if err := proc.Wait(); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestStartValidatesArguments(t *testing.T) {
	client, _ := ffmpeg.New("ffmpeg", ffmpeg.WithExecutor(&stubExecutor{}))
	if _, err := client.Start(context.Background(), "", "dst"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty source, got %v", err)
	}
	if _, err := ffmpeg.New("  "); err == nil {
		t.Fatal("expected error for empty binary")
	}
}

func TestExitCode(t *testing.T) {
	if ffmpeg.ExitCode(nil) != 0 {
		t.Fatal("nil error should map to 0")
	}
	if ffmpeg.ExitCode(errors.New("spawn")) != -1 {
		t.Fatal("non-exit error should map to -1")
	}
}

func TestCommandExecutorCapturesStderrTail(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in requires a POSIX shell")
	}
	dir := t.TempDir()
	script := filepath.Join(dir, "fake-ffmpeg")
	body := "#!/bin/sh\nfor i in $(seq 1 30); do echo \"line $i\" >&2; done\nexit 3\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}

	client, err := ffmpeg.New(script)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	proc, err := client.Start(context.Background(), "src", filepath.Join(dir, "out.mp4"))
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	err = proc.Wait()

	var exitErr *ffmpeg.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got %v", err)
	}
	if exitErr.Code != 3 {
		t.Fatalf("expected exit code 3, got %d", exitErr.Code)
	}
	lines := strings.Split(exitErr.Stderr, "\n")
	if len(lines) != 20 || lines[0] != "line 11" || lines[19] != "line 30" {
		t.Fatalf("expected last 20 stderr lines, got %q", exitErr.Stderr)
	}
}

func TestCommandExecutorSuccess(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in requires a POSIX shell")
	}
	dir := t.TempDir()
	script := filepath.Join(dir, "fake-ffmpeg")
	if err := os.WriteFile(script, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	client, _ := ffmpeg.New(script)
	proc, err := client.Start(context.Background(), "src", "dst")
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if err := proc.Wait(); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}
