// Package models pkg/models/metrics.go
package models

import "time"

// SpectrumBins is the fixed number of spectrum analyzer bands.
const SpectrumBins = 32

// MetricsSnapshot is one tick's worth of derived telemetry. Snapshots are
// immutable once published; readers always receive copies.
type MetricsSnapshot struct {
	InputLatencyMs  float64   `json:"input_latency_ms"`
	OutputLatencyMs float64   `json:"output_latency_ms"`
	TotalLatencyMs  float64   `json:"total_latency_ms"`
	Spectrum        []float64 `json:"spectrum"`
	Playing         bool      `json:"is_playing"`
}

// Clone returns a deep copy of the snapshot so callers can hand it out
// without sharing the spectrum slice.
func (s MetricsSnapshot) Clone() MetricsSnapshot {
	out := s
	out.Spectrum = make([]float64, len(s.Spectrum))
	copy(out.Spectrum, s.Spectrum)

	return out
}

// LatencyPoint is a single entry of the latency history buffer.
type LatencyPoint struct {
	Timestamp      time.Time `json:"timestamp"`
	TotalLatencyMs float64   `json:"total_latency_ms"`
	Playing        bool      `json:"is_playing"`
}
