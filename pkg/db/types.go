package db

import "time"

// DeviceProfile holds the audio configuration last applied to a device.
type DeviceProfile struct {
	DeviceID   int       `json:"device_id"`
	SampleRate int       `json:"sample_rate"`
	BufferSize int       `json:"buffer_size"`
	BitDepth   int       `json:"bit_depth"`
	Channels   int       `json:"channels"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// AuditEntry records a configuration or transport state change.
type AuditEntry struct {
	ID        int64     `json:"id"`
	Source    string    `json:"source"`
	Detail    string    `json:"detail"`
	Timestamp time.Time `json:"timestamp"`
}
