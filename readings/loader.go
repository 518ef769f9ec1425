// Package readings fetches a source's data payload and validates its rows
// into sensor readings.
package readings

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/hoelk-f/heatspace/errors"
	"github.com/hoelk-f/heatspace/linkeddata"
	"github.com/hoelk-f/heatspace/metric"
)

// SensorReading is one timestamped observation. Every field must be
// present and parseable or the row is discarded.
type SensorReading struct {
	TS          time.Time `json:"ts"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
}

// Fetcher issues the cache-bypassing GET the payload is loaded with.
// Satisfied by *fetch.Client.
type Fetcher interface {
	Get(ctx context.Context, url, accept string) (*resty.Response, error)
}

// Loader loads and validates source payloads.
type Loader struct {
	fetcher Fetcher
	metrics *metric.Metrics
}

// NewLoader creates a Loader. metrics may be nil.
func NewLoader(fetcher Fetcher, metrics *metric.Metrics) *Loader {
	return &Loader{fetcher: fetcher, metrics: metrics}
}

// Load fetches the payload at accessURL and returns the most recent limit
// readings in ascending timestamp order (the last element is the newest).
// Rows failing validation are dropped individually; if validation
// eliminates every row the load fails with ErrNoValidReadings. A limit of
// zero or less yields an empty result, not an error.
func (l *Loader) Load(ctx context.Context, accessURL string, limit int) ([]SensorReading, error) {
	rows, dropped, err := l.load(ctx, accessURL, limit)
	l.metrics.ReadingsLoad(err, dropped)
	return rows, err
}

// Latest returns the single most recent reading of the payload.
func (l *Loader) Latest(ctx context.Context, accessURL string) (SensorReading, error) {
	rows, err := l.Load(ctx, accessURL, 1)
	if err != nil {
		return SensorReading{}, err
	}
	return rows[len(rows)-1], nil
}

func (l *Loader) load(ctx context.Context, accessURL string, limit int) ([]SensorReading, int, error) {
	if limit <= 0 {
		return []SensorReading{}, 0, nil
	}

	resp, err := l.fetcher.Get(ctx, accessURL, "application/json")
	if err != nil {
		return nil, 0, err
	}
	if !resp.IsSuccess() {
		return nil, 0, errors.WrapNotFound(errors.ErrSourceUnavailable, "readings", "Load", "fetch "+accessURL)
	}

	var rows []any
	if err := json.Unmarshal(resp.Body(), &rows); err != nil {
		return nil, 0, errors.WrapUnparseable(errors.ErrSourceUnavailable, "readings", "Load", "decode "+accessURL)
	}
	if len(rows) == 0 {
		return nil, 0, errors.WrapInvalid(errors.ErrEmptySource, "readings", "Load", "read "+accessURL)
	}

	// Rows validate independently; a non-object element is just another
	// invalid row, not a payload failure.
	valid := make([]SensorReading, 0, len(rows))
	for _, raw := range rows {
		row, isObject := raw.(map[string]any)
		if !isObject {
			continue
		}
		if reading, rowOK := coerceRow(row); rowOK {
			valid = append(valid, reading)
		}
	}
	dropped := len(rows) - len(valid)
	if len(valid) == 0 {
		return nil, dropped, errors.WrapInvalid(errors.ErrNoValidReadings, "readings", "Load", "validate "+accessURL)
	}

	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].TS.Before(valid[j].TS)
	})

	if limit < len(valid) {
		valid = valid[len(valid)-limit:]
	}
	return valid, dropped, nil
}

// coerceRow validates one payload row: ts must parse to an instant and the
// four measurements must coerce to finite numbers.
func coerceRow(row map[string]any) (SensorReading, bool) {
	ts, tsOK := row["ts"].(string)
	if !tsOK {
		return SensorReading{}, false
	}
	instant, instantOK := linkeddata.ParseInstant(ts)
	if !instantOK {
		return SensorReading{}, false
	}

	reading := SensorReading{TS: instant}
	fields := []struct {
		name   string
		target *float64
	}{
		{"temperature", &reading.Temperature},
		{"humidity", &reading.Humidity},
		{"lat", &reading.Lat},
		{"lng", &reading.Lng},
	}
	for _, f := range fields {
		n, numOK := coerceNumber(row[f.name])
		if !numOK {
			return SensorReading{}, false
		}
		*f.target = n
	}
	return reading, true
}

// coerceNumber accepts JSON numbers and numeric strings, rejecting
// anything that does not coerce to a finite float64.
func coerceNumber(v any) (float64, bool) {
	var n float64
	switch value := v.(type) {
	case float64:
		n = value
	case json.Number:
		f, err := value.Float64()
		if err != nil {
			return 0, false
		}
		n = f
	case string:
		var parsed float64
		if err := json.Unmarshal([]byte(value), &parsed); err != nil {
			return 0, false
		}
		n = parsed
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}
