package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/roeblinglabs/bridgewatch/model"
)

// ErrNoVessels is returned when a decoded payload carries no vessel array.
var ErrNoVessels = errors.New("ingest: payload has no vessels")

// DecodeSnapshot reads one AIS snapshot document, the shape written by
// the upstream collector:
//
//	{"timestamp": "...", "vessels": [ {...}, ... ]}
//
// Field extraction is tolerant: numeric fields may arrive as JSON
// numbers or strings, keys may use either the collector's AIS casing
// ("Latitude", "Sog", "Dimension") or lowercase variants, and absent
// fields decode to nil rather than zero.
func DecodeSnapshot(r io.Reader) (model.Snapshot, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return model.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}

	rawVessels, ok := payload["vessels"].([]any)
	if !ok {
		return model.Snapshot{}, ErrNoVessels
	}

	snap := model.Snapshot{
		Timestamp: decodeTimestamp(payload["timestamp"]),
		Vessels:   make([]model.VesselReport, 0, len(rawVessels)),
	}
	for _, raw := range rawVessels {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		snap.Vessels = append(snap.Vessels, decodeVessel(item))
	}
	return snap, nil
}

func decodeVessel(item map[string]any) model.VesselReport {
	report := model.VesselReport{
		Name:       getString(item, "name", "Name", "vesselName"),
		ShipType:   getString(item, "ShipType", "ship_type", "shipType"),
		Latitude:   getNumber(item, "Latitude", "latitude", "lat"),
		Longitude:  getNumber(item, "Longitude", "longitude", "lon", "lng"),
		SpeedKnots: getNumber(item, "Sog", "sog", "speed_knots"),
		CourseDeg:  getNumber(item, "Cog", "cog", "course"),
		MMSI:       getMMSI(item, "mmsi", "MMSI", "Mmsi"),
	}

	if dim, ok := anyMap(item, "Dimension", "dimension"); ok {
		report.DimensionA = getNumber(dim, "A", "a", "dimension_a")
		report.DimensionB = getNumber(dim, "B", "b", "dimension_b")
	} else {
		report.DimensionA = getNumber(item, "dimension_a")
		report.DimensionB = getNumber(item, "dimension_b")
	}

	if report.Latitude != nil && math.IsNaN(*report.Latitude) {
		report.Latitude = nil
	}
	if report.Longitude != nil && math.IsNaN(*report.Longitude) {
		report.Longitude = nil
	}
	return report
}

func decodeTimestamp(raw any) time.Time {
	switch v := raw.(type) {
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return time.Time{}
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts.UTC()
			}
		}
		if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.Unix(normalizeUnix(unix), 0).UTC()
		}
	case json.Number:
		if unix, err := v.Int64(); err == nil {
			return time.Unix(normalizeUnix(unix), 0).UTC()
		}
		if f, err := v.Float64(); err == nil {
			return time.Unix(normalizeUnix(int64(f)), 0).UTC()
		}
	}
	return time.Time{}
}

// normalizeUnix folds millisecond and microsecond epochs down to seconds.
func normalizeUnix(ts int64) int64 {
	switch {
	case ts > 1_000_000_000_000_000:
		return ts / 1_000_000
	case ts > 1_000_000_000_000:
		return ts / 1_000
	default:
		return ts
	}
}

func anyMap(item map[string]any, keys ...string) (map[string]any, bool) {
	for _, key := range keys {
		if m, ok := item[key].(map[string]any); ok {
			return m, true
		}
	}
	return nil, false
}

func getString(item map[string]any, keys ...string) string {
	for _, key := range keys {
		raw, ok := item[key]
		if !ok || raw == nil {
			continue
		}
		if value, ok := raw.(string); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func getNumber(item map[string]any, keys ...string) *float64 {
	for _, key := range keys {
		raw, ok := item[key]
		if !ok || raw == nil {
			continue
		}
		if value, ok := toFloat64(raw); ok {
			return &value
		}
	}
	return nil
}

func getMMSI(item map[string]any, keys ...string) *int64 {
	for _, key := range keys {
		raw, ok := item[key]
		if !ok || raw == nil {
			continue
		}
		if mmsi, ok := toInt64(raw); ok {
			return &mmsi
		}
	}
	return nil
}

func toFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func toInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, true
		}
		if f, err := v.Float64(); err == nil {
			return int64(f), true
		}
	case float64:
		return int64(v), true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int64(f), true
		}
	}
	return 0, false
}
