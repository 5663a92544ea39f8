package web

import "github.com/cyberasio/core/pkg/models"

type deviceEntry struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Status string `json:"status"`
}

type devicesResponse struct {
	Devices []deviceEntry `json:"devices"`
}

type configResponse struct {
	Config models.AudioConfig `json:"config"`
}

type statusBlock struct {
	Server        string `json:"server"`
	AudioEngine   string `json:"audio_engine"`
	DeviceManager string `json:"device_manager"`
	ConfigManager string `json:"config_manager"`
}

type statusResponse struct {
	Status statusBlock `json:"status"`
}

type resultResponse struct {
	Result  string `json:"result"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type metricsResponse struct {
	Metrics models.MetricsSnapshot `json:"metrics"`
}

type historyResponse struct {
	History []models.LatencyPoint `json:"history"`
}

type spectrumFrame struct {
	Spectrum []float64 `json:"spectrum"`
}
