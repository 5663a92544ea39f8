package metrics

import (
	"sync"
	"time"

	"github.com/cyberasio/core/pkg/models"
)

// RingHistory is a fixed-size ring buffer of latency samples. Writers
// overwrite the oldest entry once the buffer is full; readers always see
// points ordered newest first.
type RingHistory struct {
	mu     sync.RWMutex
	points []models.LatencyPoint
	pos    int
	count  int
	size   int
}

// NewHistory creates a new HistoryStore holding up to size points.
func NewHistory(size int) HistoryStore {
	if size < 1 {
		size = 1
	}

	return &RingHistory{
		points: make([]models.LatencyPoint, size),
		size:   size,
	}
}

// Add records a latency sample, overwriting the oldest point when full.
func (h *RingHistory) Add(timestamp time.Time, totalLatencyMs float64, playing bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.points[h.pos] = models.LatencyPoint{
		Timestamp:      timestamp,
		TotalLatencyMs: totalLatencyMs,
		Playing:        playing,
	}

	h.pos = (h.pos + 1) % h.size

	if h.count < h.size {
		h.count++
	}
}

// GetPoints retrieves the recorded points, newest first.
func (h *RingHistory) GetPoints() []models.LatencyPoint {
	h.mu.RLock()
	defer h.mu.RUnlock()

	points := make([]models.LatencyPoint, h.count)

	for i := 0; i < h.count; i++ {
		idx := (h.pos - i - 1 + h.size) % h.size
		points[i] = h.points[idx]
	}

	return points
}

// GetLastPoint returns the most recent point, or nil if none recorded.
func (h *RingHistory) GetLastPoint() *models.LatencyPoint {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.count == 0 {
		return nil
	}

	idx := (h.pos - 1 + h.size) % h.size
	p := h.points[idx]

	return &p
}
