package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/roeblinglabs/bridgewatch/internal/logging"
	"github.com/roeblinglabs/bridgewatch/internal/observability"
	"github.com/roeblinglabs/bridgewatch/model"
)

// Source produces AIS snapshots for the refresh loop.
type Source interface {
	Fetch(ctx context.Context) (model.Snapshot, error)
}

// FileSource reads snapshots from a JSON file on every fetch. It serves
// both local operation against a collector-written file and restart
// warm-up from the HTTP source's cache.
type FileSource struct {
	Path string
}

func (s FileSource) Fetch(ctx context.Context) (model.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return model.Snapshot{}, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("open snapshot file: %w", err)
	}
	defer f.Close()
	return DecodeSnapshot(f)
}

// HTTPSource polls an AIS snapshot endpoint. Responses are decoded with
// the same tolerant rules as file snapshots and optionally cached to
// disk so a restart does not begin from an empty fleet.
type HTTPSource struct {
	Client    *http.Client
	URL       string
	UserAgent string

	// CachePath, when set, receives a copy of each successfully decoded
	// payload via an atomic write.
	CachePath string

	Timeout time.Duration
	Log     logging.Logger
	Metrics *observability.IngestCollector
}

func (s *HTTPSource) Fetch(ctx context.Context) (model.Snapshot, error) {
	start := time.Now()
	snap, err := s.fetch(ctx)
	s.Metrics.ObserveFetch(time.Since(start), err)
	if err != nil {
		return model.Snapshot{}, err
	}
	s.Metrics.SetSnapshot(snap.Timestamp, len(snap.Vessels))
	return snap, nil
}

func (s *HTTPSource) fetch(ctx context.Context) (model.Snapshot, error) {
	log := s.Log
	if log == nil {
		log = logging.Noop()
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, s.URL, nil)
	if err != nil {
		return model.Snapshot{}, err
	}
	req.Header.Set("Accept", "application/json")
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("fetch snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return model.Snapshot{}, fmt.Errorf("fetch snapshot: status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("read snapshot body: %w", err)
	}

	snap, err := DecodeSnapshot(bytes.NewReader(raw))
	if err != nil {
		return model.Snapshot{}, err
	}

	if s.CachePath != "" {
		if err := writeCache(s.CachePath, raw); err != nil {
			log.Warn(ctx, "snapshot cache write failed",
				logging.String("path", s.CachePath), logging.Err(err))
		}
	}

	log.Debug(ctx, "snapshot fetched",
		logging.String("url", s.URL),
		logging.Int("vessels", len(snap.Vessels)),
	)
	return snap, nil
}

// writeCache replaces the cache file atomically so readers never observe
// a partial document.
func writeCache(path string, raw []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// WriteSnapshot marshals a snapshot to the cache file shape.
func WriteSnapshot(path string, snap model.Snapshot) error {
	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	return writeCache(path, raw)
}
