package web

import "github.com/cyberasio/core/pkg/models"

// Collaborator surfaces are declared here on the consumer side so the server
// can be wired with any implementation and degrades route by route when one
// is absent.

// AudioEngine is the playback surface the audio routes drive.
type AudioEngine interface {
	Ready() bool
	Playing() bool
	Snapshot() models.MetricsSnapshot
	Play()
	Pause()
	StopPlayback()
	SetActiveDevice(id int)
	Subscribe(fn func(models.MetricsSnapshot)) func()
}

// DeviceService lists and activates the simulated devices.
type DeviceService interface {
	Devices() []models.Device
	Activate(id int) error
}

// SettingsService reads and applies the audio configuration.
type SettingsService interface {
	AudioConfig() models.AudioConfig
	SetAudioConfig(cfg models.AudioConfig) error
	SetActiveDevice(id int)
}

// HistoryService exposes the recorded latency history, newest first.
type HistoryService interface {
	GetPoints() []models.LatencyPoint
}
