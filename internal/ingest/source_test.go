package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/roeblinglabs/bridgewatch/internal/observability"
)

func TestFileSourceFetch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "current_ships.json")
	if err := os.WriteFile(path, []byte(sampleSnapshot), 0o644); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}

	snap, err := FileSource{Path: path}.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(snap.Vessels) != 3 {
		t.Fatalf("vessels = %d, want 3", len(snap.Vessels))
	}
}

func TestFileSourceMissingFile(t *testing.T) {
	_, err := FileSource{Path: filepath.Join(t.TempDir(), "absent.json")}.Fetch(context.Background())
	if err == nil {
		t.Fatal("expected error for missing snapshot file")
	}
}

func TestHTTPSourceFetchCachesAndRecords(t *testing.T) {
	var gotUserAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleSnapshot))
	}))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	metrics, err := observability.NewIngestCollector(reg)
	if err != nil {
		t.Fatalf("NewIngestCollector: %v", err)
	}

	cachePath := filepath.Join(t.TempDir(), "cache.json")
	source := &HTTPSource{
		Client:    srv.Client(),
		URL:       srv.URL,
		UserAgent: "bridgewatch-test",
		CachePath: cachePath,
		Timeout:   5 * time.Second,
		Metrics:   metrics,
	}

	snap, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(snap.Vessels) != 3 {
		t.Fatalf("vessels = %d, want 3", len(snap.Vessels))
	}
	if gotUserAgent != "bridgewatch-test" {
		t.Fatalf("User-Agent = %q, want bridgewatch-test", gotUserAgent)
	}

	cached, err := FileSource{Path: cachePath}.Fetch(context.Background())
	if err != nil {
		t.Fatalf("cached fetch: %v", err)
	}
	if len(cached.Vessels) != len(snap.Vessels) {
		t.Fatalf("cached vessels = %d, want %d", len(cached.Vessels), len(snap.Vessels))
	}

	if got := testutil.ToFloat64(metrics.VesselsIngested); got != 3 {
		t.Fatalf("bridgewatch_ingest_vessels = %v, want 3", got)
	}
	if got := testutil.ToFloat64(metrics.FetchErrors); got != 0 {
		t.Fatalf("bridgewatch_ingest_fetch_errors_total = %v, want 0", got)
	}
}

func TestHTTPSourceFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	metrics, err := observability.NewIngestCollector(reg)
	if err != nil {
		t.Fatalf("NewIngestCollector: %v", err)
	}

	source := &HTTPSource{Client: srv.Client(), URL: srv.URL, Metrics: metrics}
	if _, err := source.Fetch(context.Background()); err == nil {
		t.Fatal("expected error for non-200 response")
	}
	if got := testutil.ToFloat64(metrics.FetchErrors); got != 1 {
		t.Fatalf("bridgewatch_ingest_fetch_errors_total = %v, want 1", got)
	}
}

func TestWriteSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")

	snap, err := DecodeSnapshot(mustOpen(t, writeSample(t)))
	if err != nil {
		t.Fatalf("DecodeSnapshot: %v", err)
	}
	if err := WriteSnapshot(path, snap); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	again, err := FileSource{Path: path}.Fetch(context.Background())
	if err != nil {
		t.Fatalf("re-read: %v", err)
	}
	if !again.Timestamp.Equal(snap.Timestamp) {
		t.Fatalf("timestamp = %v, want %v", again.Timestamp, snap.Timestamp)
	}
	if len(again.Vessels) != len(snap.Vessels) {
		t.Fatalf("vessels = %d, want %d", len(again.Vessels), len(snap.Vessels))
	}
	if again.Vessels[0].Name != snap.Vessels[0].Name {
		t.Fatalf("vessel name = %q, want %q", again.Vessels[0].Name, snap.Vessels[0].Name)
	}
}

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.json")
	if err := os.WriteFile(path, []byte(sampleSnapshot), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	return path
}

func mustOpen(t *testing.T, path string) *os.File {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}
