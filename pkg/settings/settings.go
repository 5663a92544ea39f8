// Package settings pkg/settings/settings.go manages the runtime system
// configuration: the active audio parameters, device selection, and loaded
// audio file. Changes fan out to registered listeners and, when a store is
// attached, persist across restarts.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cyberasio/core/pkg/db"
	"github.com/cyberasio/core/pkg/models"
)

const (
	keyAudioConfig  = "audio_config"
	keyActiveDevice = "active_device"
	keyCurrentFile  = "current_file"
	keyAutoSave     = "auto_save"
)

// ChangeFunc is called with a copy of the configuration after each applied change.
type ChangeFunc func(models.SystemConfig)

// Manager holds the current system configuration. The zero device ID state
// comes from models.DefaultSystemConfig. A nil store disables persistence.
type Manager struct {
	mu        sync.RWMutex
	current   models.SystemConfig
	listeners map[int]ChangeFunc
	nextID    int

	store db.Service
	log   *zap.Logger
}

// NewManager creates a settings manager starting from the default
// configuration. store may be nil to run without persistence.
func NewManager(store db.Service, logger *zap.Logger) *Manager {
	return &Manager{
		current:   models.DefaultSystemConfig(),
		listeners: make(map[int]ChangeFunc),
		store:     store,
		log:       logger,
	}
}

// Load applies settings persisted by a previous run. Missing or malformed
// entries keep their defaults.
func (m *Manager) Load() error {
	if m.store == nil {
		return nil
	}

	stored, err := m.store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if raw, ok := stored[keyAudioConfig]; ok {
		var cfg models.AudioConfig

		switch err := json.Unmarshal([]byte(raw), &cfg); {
		case err != nil:
			m.log.Warn("ignoring malformed stored audio config", zap.Error(err))
		case cfg.Validate() != nil:
			m.log.Warn("ignoring invalid stored audio config", zap.String("raw", raw))
		default:
			m.current.Audio = cfg
		}
	}

	if raw, ok := stored[keyActiveDevice]; ok {
		if id, err := strconv.Atoi(raw); err == nil {
			m.current.ActiveDeviceID = id
		}
	}

	if raw, ok := stored[keyCurrentFile]; ok {
		m.current.CurrentAudioFile = raw
	}

	if raw, ok := stored[keyAutoSave]; ok {
		m.current.AutoSave = raw == "true"
	}

	return nil
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() models.SystemConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.current
}

// AudioConfig returns a copy of the current audio parameters.
func (m *Manager) AudioConfig() models.AudioConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.current.Audio
}

// SetAudioConfig validates and applies new audio parameters.
func (m *Manager) SetAudioConfig(cfg models.AudioConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	m.current.Audio = cfg
	snapshot := m.current
	m.mu.Unlock()

	raw, _ := json.Marshal(cfg)
	m.persist(snapshot, keyAudioConfig, string(raw),
		fmt.Sprintf("audio config set to %d Hz, %d samples, %d bit, %d ch",
			cfg.SampleRate, cfg.BufferSize, cfg.BitDepth, cfg.Channels))
	m.notify(snapshot)

	return nil
}

// SetSystemConfig validates and replaces the whole system configuration in
// one step.
func (m *Manager) SetSystemConfig(cfg models.SystemConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	m.current = cfg
	snapshot := m.current
	m.mu.Unlock()

	if snapshot.AutoSave {
		if err := m.Save(); err != nil {
			m.log.Error("failed to persist configuration", zap.Error(err))
		}
	}

	m.audit("system configuration replaced")
	m.notify(snapshot)

	return nil
}

// ResetToDefaults restores the factory configuration.
func (m *Manager) ResetToDefaults() {
	m.mu.Lock()
	m.current = models.DefaultSystemConfig()
	snapshot := m.current
	m.mu.Unlock()

	if snapshot.AutoSave {
		if err := m.Save(); err != nil {
			m.log.Error("failed to persist configuration", zap.Error(err))
		}
	}

	m.audit("configuration reset to defaults")
	m.notify(snapshot)
}

// SetActiveDevice records which device is active. id -1 means none.
func (m *Manager) SetActiveDevice(id int) {
	m.mu.Lock()
	m.current.ActiveDeviceID = id
	snapshot := m.current
	m.mu.Unlock()

	m.persist(snapshot, keyActiveDevice, strconv.Itoa(id),
		fmt.Sprintf("active device set to %d", id))
	m.notify(snapshot)
}

// SetCurrentFile records the name of the loaded audio file.
func (m *Manager) SetCurrentFile(name string) {
	m.mu.Lock()
	m.current.CurrentAudioFile = name
	snapshot := m.current
	m.mu.Unlock()

	m.persist(snapshot, keyCurrentFile, name, "audio file loaded: "+name)
	m.notify(snapshot)
}

// SetAutoSave toggles write-through persistence. The flag itself is always
// persisted so the preference survives restarts.
func (m *Manager) SetAutoSave(enabled bool) {
	m.mu.Lock()
	m.current.AutoSave = enabled
	snapshot := m.current
	m.mu.Unlock()

	m.persist(snapshot, keyAutoSave, strconv.FormatBool(enabled),
		"auto save set to "+strconv.FormatBool(enabled))
	m.notify(snapshot)
}

// Save writes every setting to the store regardless of the auto-save flag.
func (m *Manager) Save() error {
	if m.store == nil {
		return nil
	}

	snapshot := m.Get()

	raw, err := json.Marshal(snapshot.Audio)
	if err != nil {
		return fmt.Errorf("failed to encode audio config: %w", err)
	}

	for key, value := range map[string]string{
		keyAudioConfig:  string(raw),
		keyActiveDevice: strconv.Itoa(snapshot.ActiveDeviceID),
		keyCurrentFile:  snapshot.CurrentAudioFile,
		keyAutoSave:     strconv.FormatBool(snapshot.AutoSave),
	} {
		if err := m.store.SaveSetting(key, value); err != nil {
			return fmt.Errorf("failed to save %s: %w", key, err)
		}
	}

	return nil
}

// SaveDeviceProfile records the configuration applied to a device so it can
// be restored the next time the device is activated.
func (m *Manager) SaveDeviceProfile(deviceID int, cfg models.AudioConfig) error {
	if m.store == nil {
		return nil
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	profile := &db.DeviceProfile{
		DeviceID:   deviceID,
		SampleRate: cfg.SampleRate,
		BufferSize: cfg.BufferSize,
		BitDepth:   cfg.BitDepth,
		Channels:   cfg.Channels,
	}

	if err := m.store.SaveDeviceProfile(profile); err != nil {
		return fmt.Errorf("failed to save device profile: %w", err)
	}

	return nil
}

// HasDeviceProfile reports whether a profile is stored for the device.
func (m *Manager) HasDeviceProfile(deviceID int) bool {
	_, ok := m.DeviceProfile(deviceID)

	return ok
}

// RemoveDeviceProfile deletes the stored profile for a device.
func (m *Manager) RemoveDeviceProfile(deviceID int) error {
	if m.store == nil {
		return nil
	}

	if err := m.store.DeleteDeviceProfile(deviceID); err != nil {
		return fmt.Errorf("failed to remove device profile: %w", err)
	}

	return nil
}

// DeviceProfile returns the stored configuration for a device, if any.
func (m *Manager) DeviceProfile(deviceID int) (models.AudioConfig, bool) {
	if m.store == nil {
		return models.AudioConfig{}, false
	}

	profile, err := m.store.GetDeviceProfile(deviceID)
	if err != nil {
		if !errors.Is(err, db.ErrProfileNotFound) {
			m.log.Warn("failed to load device profile",
				zap.Int("device_id", deviceID), zap.Error(err))
		}

		return models.AudioConfig{}, false
	}

	return models.AudioConfig{
		SampleRate: profile.SampleRate,
		BufferSize: profile.BufferSize,
		BitDepth:   profile.BitDepth,
		Channels:   profile.Channels,
	}, true
}

// OnChange registers fn to run after every applied change. The returned func
// removes the registration and is safe to call more than once.
func (m *Manager) OnChange(fn ChangeFunc) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	var once sync.Once

	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.listeners, id)
			m.mu.Unlock()
		})
	}
}

// notify runs listeners outside the lock so a listener can call back into
// the manager.
func (m *Manager) notify(snapshot models.SystemConfig) {
	m.mu.RLock()
	listeners := make([]ChangeFunc, 0, len(m.listeners))

	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}
	m.mu.RUnlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
}

func (m *Manager) persist(snapshot models.SystemConfig, key, value, detail string) {
	if m.store == nil {
		return
	}

	if snapshot.AutoSave || key == keyAutoSave {
		if err := m.store.SaveSetting(key, value); err != nil {
			m.log.Error("failed to persist setting",
				zap.String("key", key), zap.Error(err))
		}
	}

	m.audit(detail)
}

func (m *Manager) audit(detail string) {
	if m.store == nil {
		return
	}

	if err := m.store.AddAuditEntry(&db.AuditEntry{
		Source:    "settings",
		Detail:    detail,
		Timestamp: time.Now(),
	}); err != nil {
		m.log.Error("failed to record audit entry", zap.Error(err))
	}
}
