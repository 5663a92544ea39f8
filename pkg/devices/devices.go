// Package devices pkg/devices/devices.go maintains the audio device table.
// Real driver enumeration is out of scope, so scanning always falls back to
// the fixed mock set; activation and per-device capability checks behave as
// they would against real hardware.
package devices

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/cyberasio/core/pkg/models"
)

var (
	ErrDeviceNotFound = errors.New("device not found")
	ErrDeviceDisabled = errors.New("device is disabled")
)

// Manager owns the device table. Only Activate, Deactivate, and Scan mutate
// it; all reads hand out copies.
type Manager struct {
	mu       sync.RWMutex
	devices  []models.Device
	activeID int

	log *zap.Logger
}

// NewManager creates a device manager populated with the default table.
func NewManager(logger *zap.Logger) *Manager {
	m := &Manager{log: logger}
	m.populate()

	return m
}

// Scan rebuilds the device table from enumeration. The mock fallback resets
// every device to its default status, including the active selection.
func (m *Manager) Scan() []models.Device {
	m.mu.Lock()
	m.populate()
	devices := m.copyDevices()
	m.mu.Unlock()

	m.log.Info("device scan complete", zap.Int("count", len(devices)))

	return devices
}

// Devices returns a copy of the device table.
func (m *Manager) Devices() []models.Device {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.copyDevices()
}

// Device returns the device with the given ID.
func (m *Manager) Device(id int) (models.Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	idx := m.indexOf(id)
	if idx < 0 {
		return models.Device{}, fmt.Errorf("%w: id %d", ErrDeviceNotFound, id)
	}

	return m.devices[idx], nil
}

// Activate makes the given device the active one, deactivating any previous
// selection. Disabled devices cannot be activated.
func (m *Manager) Activate(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: id %d", ErrDeviceNotFound, id)
	}

	if m.devices[idx].Status == models.DeviceStatusDisabled {
		return fmt.Errorf("%w: id %d", ErrDeviceDisabled, id)
	}

	if m.activeID != -1 && m.activeID != id {
		if prev := m.indexOf(m.activeID); prev >= 0 {
			m.setStatusLocked(prev, models.DeviceStatusInactive)
		}
	}

	m.setStatusLocked(idx, models.DeviceStatusActive)
	m.activeID = id

	m.log.Info("activated device",
		zap.Int("device_id", id),
		zap.String("name", m.devices[idx].Name))

	return nil
}

// Deactivate marks the given device inactive. Deactivating a device that is
// not active is a no-op on the selection.
func (m *Manager) Deactivate(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.activeID == id {
		m.activeID = -1
	}

	if idx := m.indexOf(id); idx >= 0 {
		m.setStatusLocked(idx, models.DeviceStatusInactive)
		m.log.Info("deactivated device", zap.Int("device_id", id))
	}
}

// SetStatus overrides a device's status, simulating an external monitoring
// event. Moving the active device out of Active clears the selection.
func (m *Manager) SetStatus(id int, status models.DeviceStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: id %d", ErrDeviceNotFound, id)
	}

	m.setStatusLocked(idx, status)

	if m.activeID == id && status != models.DeviceStatusActive {
		m.activeID = -1
	}

	return nil
}

// Active returns the currently active device, if any.
func (m *Manager) Active() (models.Device, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if idx := m.indexOf(m.activeID); idx >= 0 {
		return m.devices[idx], true
	}

	return models.Device{}, false
}

// ActiveID returns the active device ID, or -1 if none.
func (m *Manager) ActiveID() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.activeID
}

// IsActive reports whether the given device is the active one.
func (m *Manager) IsActive(id int) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.activeID == id
}

// ValidateConfig checks an audio configuration against a device's
// capabilities.
func (m *Manager) ValidateConfig(id int, cfg models.AudioConfig) error {
	device, err := m.Device(id)
	if err != nil {
		return err
	}

	if !device.SupportsSampleRate(cfg.SampleRate) {
		return fmt.Errorf("%w: %d Hz not supported by %s",
			models.ErrInvalidSampleRate, cfg.SampleRate, device.Name)
	}

	if cfg.BufferSize < device.MinBufferSize || cfg.BufferSize > device.MaxBufferSize {
		return fmt.Errorf("%w: %d outside %d..%d for %s",
			models.ErrInvalidBufferSize, cfg.BufferSize,
			device.MinBufferSize, device.MaxBufferSize, device.Name)
	}

	if !device.SupportsBitDepth(cfg.BitDepth) {
		return fmt.Errorf("%w: %d bit not supported by %s",
			models.ErrInvalidBitDepth, cfg.BitDepth, device.Name)
	}

	return nil
}

// Info returns a flat string map describing a device.
func (m *Manager) Info(id int) (map[string]string, error) {
	device, err := m.Device(id)
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"id":              strconv.Itoa(device.ID),
		"name":            device.Name,
		"type":            string(device.Type),
		"status":          string(device.Status),
		"max_sample_rate": strconv.Itoa(device.MaxSampleRate),
		"min_buffer_size": strconv.Itoa(device.MinBufferSize),
		"max_buffer_size": strconv.Itoa(device.MaxBufferSize),
		"is_input":        strconv.FormatBool(device.Input),
		"is_output":       strconv.FormatBool(device.Output),
	}, nil
}

func (m *Manager) populate() {
	m.devices = []models.Device{
		mockDevice(1, "Generic HD Audio Device (WDM)", models.DeviceTypeWDM),
		mockDevice(2, "Realtek ASIO (KS)", models.DeviceTypeKS),
		mockDevice(3, "NVIDIA Broadcast (WASAPI)", models.DeviceTypeWASAPI),
		mockDevice(4, "Focusrite USB ASIO (WDM)", models.DeviceTypeWDM),
	}

	m.activeID = 1
}

func (m *Manager) copyDevices() []models.Device {
	devices := make([]models.Device, len(m.devices))
	copy(devices, m.devices)

	return devices
}

func (m *Manager) indexOf(id int) int {
	for i := range m.devices {
		if m.devices[i].ID == id {
			return i
		}
	}

	return -1
}

func (m *Manager) setStatusLocked(idx int, status models.DeviceStatus) {
	old := m.devices[idx].Status
	if old == status {
		return
	}

	m.devices[idx].Status = status
	m.log.Debug("device status changed",
		zap.Int("device_id", m.devices[idx].ID),
		zap.String("from", string(old)),
		zap.String("to", string(status)))
}

func mockDevice(id int, name string, deviceType models.DeviceType) models.Device {
	status := models.DeviceStatusInactive

	switch id {
	case 1:
		status = models.DeviceStatusActive
	case 2:
		// Disabled for demo purposes
		status = models.DeviceStatusDisabled
	}

	return models.Device{
		ID:            id,
		Name:          name,
		Type:          deviceType,
		Status:        status,
		MaxSampleRate: 192000,
		MinBufferSize: 32,
		MaxBufferSize: 2048,
		SampleRates:   []int{44100, 48000, 88200, 96000, 192000},
		BitDepths:     []int{16, 24, 32},
		Input:         true,
		Output:        true,
	}
}
