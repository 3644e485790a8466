package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"jofsarpur/internal/config"
	"jofsarpur/internal/notifications"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func newServer(t *testing.T, status int) (*httptest.Server, func() []captured) {
	t.Helper()
	var (
		mu       sync.Mutex
		requests []captured
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		requests = append(requests, captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		mu.Unlock()
		w.WriteHeader(status)
		_, _ = w.Write([]byte("nope"))
	}))
	t.Cleanup(server.Close)
	return server, func() []captured {
		mu.Lock()
		defer mu.Unlock()
		return append([]captured(nil), requests...)
	}
}

func serviceFor(url string) notifications.Service {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = url
	cfg.Notifications.RequestTimeout = 2
	return notifications.NewService(&cfg)
}

func TestNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyError(context.Background(), errors.New("boom"), "x"); err != nil {
		t.Fatalf("noop service returned %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	server, requests := newServer(t, http.StatusOK)
	svc := serviceFor(server.URL + "/jofsarpur")
	ctx := context.Background()

	if err := svc.NotifyRunStarted(ctx, 1); err != nil {
		t.Fatalf("NotifyRunStarted: %v", err)
	}
	if err := svc.NotifyRunCompleted(ctx, 3, 0, 61500*time.Millisecond); err != nil {
		t.Fatalf("NotifyRunCompleted: %v", err)
	}
	if err := svc.NotifyRunCompleted(ctx, 3, 2, time.Minute); err != nil {
		t.Fatalf("NotifyRunCompleted: %v", err)
	}
	if err := svc.NotifyError(ctx, errors.New("metadata fetch error"), "Landinn 100:a"); err != nil {
		t.Fatalf("NotifyError: %v", err)
	}
	if err := svc.TestNotification(ctx); err != nil {
		t.Fatalf("TestNotification: %v", err)
	}

	got := requests()
	if len(got) != 5 {
		t.Fatalf("expected 5 requests, got %d", len(got))
	}
	if got[0].body != "Downloading 1 episode" || got[0].tags != "jofsarpur,run,started" {
		t.Fatalf("unexpected start payload: %+v", got[0])
	}
	if !strings.Contains(got[1].body, "3 episodes downloaded in 1m2s") || got[1].priority != "" {
		t.Fatalf("unexpected completion payload: %+v", got[1])
	}
	if got[2].title != "jofsarpur - Downloads Complete (with errors)" || got[2].priority != "high" {
		t.Fatalf("unexpected failure summary: %+v", got[2])
	}
	if !strings.Contains(got[3].body, "with Landinn 100:a: metadata fetch error") {
		t.Fatalf("unexpected error payload: %+v", got[3])
	}
	if got[4].priority != "low" {
		t.Fatalf("unexpected test payload: %+v", got[4])
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	server, _ := newServer(t, http.StatusForbidden)
	err := serviceFor(server.URL).TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "ntfy returned 403: nope") {
		t.Fatalf("expected HTTP error, got %v", err)
	}
}
