package metrics

import (
	"time"

	"github.com/cyberasio/core/pkg/models"
)

//go:generate mockgen -destination=mock_metrics.go -package=metrics github.com/cyberasio/core/pkg/metrics HistoryStore

type HistoryStore interface {
	Add(timestamp time.Time, totalLatencyMs float64, playing bool)
	GetPoints() []models.LatencyPoint
	GetLastPoint() *models.LatencyPoint
}
