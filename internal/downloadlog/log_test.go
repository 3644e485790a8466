package downloadlog_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"jofsarpur/internal/downloadlog"
)

func TestLoadMissingFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "downloads.json")
	log, err := downloadlog.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if log.Len() != 0 {
		t.Fatalf("expected empty log, got %d entries", log.Len())
	}
	if err := log.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected unchanged log not to be written, stat err=%v", err)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "downloads.json")
	if err := os.WriteFile(path, []byte(`{"31685": [`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := downloadlog.Load(path); err == nil {
		t.Fatal("expected malformed log to be rejected")
	}
}

func TestLoadExistingLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "downloads.json")
	if err := os.WriteFile(path, []byte(`{"31685": ["a", "b"], "35000": ["c"]}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	log, err := downloadlog.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !log.Contains("31685", "b") || !log.Contains("35000", "c") {
		t.Fatal("expected loaded entries to be present")
	}
	if log.Contains("35000", "a") {
		t.Fatal("membership must be per series")
	}
	if got := log.SeriesIDs(); !reflect.DeepEqual(got, []string{"31685", "35000"}) {
		t.Fatalf("unexpected series ids: %v", got)
	}
}

func TestAddAndFlushRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "downloads.json")
	log, err := downloadlog.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !log.Add("31685", "p1") {
		t.Fatal("expected first insertion to be new")
	}
	if log.Add("31685", "p1") {
		t.Fatal("expected duplicate insertion to report false")
	}
	log.Add("31685", "p2")
	log.Add("40000", "q1")
	if err := log.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var onDisk map[string][]string
	if err := json.Unmarshal(data, &onDisk); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string][]string{"31685": {"p1", "p2"}, "40000": {"q1"}}
	if !reflect.DeepEqual(onDisk, want) {
		t.Fatalf("unexpected file contents: %v", onDisk)
	}

	reloaded, err := downloadlog.Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reflect.DeepEqual(reloaded.Snapshot(), want) {
		t.Fatalf("reloaded log differs: %v", reloaded.Snapshot())
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	log := downloadlog.New("")
	log.Add("1", "a")
	snap := log.Snapshot()
	snap["1"][0] = "mutated"
	snap["2"] = []string{"b"}
	if !log.Contains("1", "a") || log.Contains("2", "b") {
		t.Fatal("snapshot mutations must not leak into the log")
	}
}

func TestSyncEachCompletionWritesImmediately(t *testing.T) {
	path := filepath.Join(t.TempDir(), "downloads.json")
	log, err := downloadlog.Load(path, downloadlog.WithSyncEachCompletion(true))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	log.Add("31685", "p1")

	reloaded, err := downloadlog.Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reloaded.Contains("31685", "p1") {
		t.Fatal("expected entry on disk without an explicit flush")
	}
}

func TestOpenHoldsExclusiveLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "downloads.json")
	first, err := downloadlog.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if _, err := downloadlog.Open(path); !errors.Is(err, downloadlog.ErrLocked) {
		t.Fatalf("expected ErrLocked while held, got %v", err)
	}

	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	second, err := downloadlog.Open(path)
	if err != nil {
		t.Fatalf("Open after Close: %v", err)
	}
	_ = second.Close()
}

func TestConcurrentAdds(t *testing.T) {
	log := downloadlog.New(filepath.Join(t.TempDir(), "downloads.json"))

	var wg sync.WaitGroup
	for worker := 0; worker < 8; worker++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				log.Add("s", fmt.Sprintf("%d-%d", worker, i))
				log.Add("s", fmt.Sprintf("%d-%d", worker, i))
			}
		}(worker)
	}
	wg.Wait()

	if log.Len() != 400 {
		t.Fatalf("expected 400 unique entries, got %d", log.Len())
	}
	if err := log.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}
