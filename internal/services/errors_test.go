package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"jofsarpur/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "ffmpeg", "copy", "exited 1", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"ffmpeg", "copy", "exited 1"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestFailureKindMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"configuration", services.Wrap(services.ErrConfiguration, "template", "resolve", "missing field", nil), services.KindConfiguration},
		{"process", services.Wrap(services.ErrExternalTool, "ffmpeg", "wait", "", errors.New("exit 1")), services.KindProcess},
		{"metadata", services.Wrap(services.ErrMetadataFetch, "ruv", "series", "", nil), services.KindMetadata},
		{"timeout", services.Wrap(services.ErrExternalTool, "ffmpeg", "wait", "", context.DeadlineExceeded), services.KindTimeout},
		{"interrupted", fmt.Errorf("run: %w", context.Canceled), services.KindInterrupted},
		{"other", errors.New("?"), services.KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := services.FailureKind(tt.err); got != tt.want {
				t.Fatalf("FailureKind() = %q, want %q", got, tt.want)
			}
		})
	}
}
