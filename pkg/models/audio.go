// Package models pkg/models/audio.go
package models

import (
	"errors"
	"fmt"
)

// Defaults applied when no stored or supplied configuration exists.
const (
	DefaultSampleRate = 48000
	DefaultBufferSize = 256
	DefaultBitDepth   = 24
	DefaultChannels   = 2

	MinBufferSize = 32
	MaxBufferSize = 2048
	MaxChannels   = 8
)

var (
	ErrInvalidSampleRate = errors.New("invalid sample rate")
	ErrInvalidBufferSize = errors.New("invalid buffer size")
	ErrInvalidBitDepth   = errors.New("invalid bit depth")
	ErrInvalidChannels   = errors.New("invalid channel count")
)

// SupportedSampleRates lists the rates the simulated driver accepts.
var SupportedSampleRates = []int{44100, 48000, 88200, 96000, 192000}

// SupportedBitDepths lists the depths the simulated driver accepts.
var SupportedBitDepths = []int{16, 24, 32}

// AudioConfig describes the driver-level audio settings.
type AudioConfig struct {
	SampleRate int `json:"sample_rate"`
	BufferSize int `json:"buffer_size"`
	BitDepth   int `json:"bit_depth"`
	Channels   int `json:"channels"`
}

// DefaultAudioConfig returns the factory configuration.
func DefaultAudioConfig() AudioConfig {
	return AudioConfig{
		SampleRate: DefaultSampleRate,
		BufferSize: DefaultBufferSize,
		BitDepth:   DefaultBitDepth,
		Channels:   DefaultChannels,
	}
}

// Validate checks the configuration against the simulated driver limits:
// a known sample rate, a power-of-two buffer in [32, 2048], a known bit
// depth and 1-8 channels.
func (c AudioConfig) Validate() error {
	if !containsInt(SupportedSampleRates, c.SampleRate) {
		return fmt.Errorf("%w: %d Hz", ErrInvalidSampleRate, c.SampleRate)
	}

	if c.BufferSize < MinBufferSize || c.BufferSize > MaxBufferSize ||
		c.BufferSize&(c.BufferSize-1) != 0 {
		return fmt.Errorf("%w: %d samples", ErrInvalidBufferSize, c.BufferSize)
	}

	if !containsInt(SupportedBitDepths, c.BitDepth) {
		return fmt.Errorf("%w: %d bits", ErrInvalidBitDepth, c.BitDepth)
	}

	if c.Channels < 1 || c.Channels > MaxChannels {
		return fmt.Errorf("%w: %d", ErrInvalidChannels, c.Channels)
	}

	return nil
}

// BufferLatencyMs returns the one-way buffer latency implied by the
// configuration, in milliseconds.
func (c AudioConfig) BufferLatencyMs() float64 {
	if c.SampleRate == 0 {
		return 0
	}

	return float64(c.BufferSize) / float64(c.SampleRate) * 1000.0
}

// SystemConfig bundles the audio settings with the runtime state the panel
// persists between sessions.
type SystemConfig struct {
	Audio            AudioConfig `json:"audio"`
	ActiveDeviceID   int         `json:"active_device_id"`
	CurrentAudioFile string      `json:"current_audio_file"`
	AutoSave         bool        `json:"auto_save"`
}

// DefaultSystemConfig returns the factory system state.
func DefaultSystemConfig() SystemConfig {
	return SystemConfig{
		Audio:            DefaultAudioConfig(),
		ActiveDeviceID:   -1,
		CurrentAudioFile: "T-Rex Roar (Default)",
		AutoSave:         true,
	}
}

// Validate checks the audio settings and the device reference.
func (c SystemConfig) Validate() error {
	if err := c.Audio.Validate(); err != nil {
		return err
	}

	if c.ActiveDeviceID < -1 {
		return fmt.Errorf("invalid active device id: %d", c.ActiveDeviceID)
	}

	return nil
}

func containsInt(values []int, v int) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}

	return false
}
