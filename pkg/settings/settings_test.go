package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/cyberasio/core/pkg/db"
	"github.com/cyberasio/core/pkg/models"
)

func TestDefaults(t *testing.T) {
	m := NewManager(nil, zap.NewNop())

	cfg := m.Get()
	assert.Equal(t, models.DefaultAudioConfig(), cfg.Audio)
	assert.Equal(t, -1, cfg.ActiveDeviceID)
	assert.True(t, cfg.AutoSave)
}

func TestSetAudioConfigValidation(t *testing.T) {
	m := NewManager(nil, zap.NewNop())

	bad := models.AudioConfig{SampleRate: 48000, BufferSize: 300, BitDepth: 24, Channels: 2}
	assert.ErrorIs(t, m.SetAudioConfig(bad), models.ErrInvalidBufferSize)
	assert.Equal(t, models.DefaultAudioConfig(), m.AudioConfig())

	good := models.AudioConfig{SampleRate: 96000, BufferSize: 512, BitDepth: 32, Channels: 2}
	require.NoError(t, m.SetAudioConfig(good))
	assert.Equal(t, good, m.AudioConfig())
}

func TestSetSystemConfig(t *testing.T) {
	m := NewManager(nil, zap.NewNop())

	var notified []models.SystemConfig

	m.OnChange(func(cfg models.SystemConfig) {
		notified = append(notified, cfg)
	})

	next := models.SystemConfig{
		Audio:            models.AudioConfig{SampleRate: 96000, BufferSize: 512, BitDepth: 32, Channels: 2},
		ActiveDeviceID:   3,
		CurrentAudioFile: "session.wav",
		AutoSave:         false,
	}
	require.NoError(t, m.SetSystemConfig(next))
	assert.Equal(t, next, m.Get())
	require.Len(t, notified, 1)

	bad := next
	bad.Audio.BufferSize = 300
	assert.ErrorIs(t, m.SetSystemConfig(bad), models.ErrInvalidBufferSize)
	assert.Equal(t, next, m.Get(), "rejected config must not apply")
	assert.Len(t, notified, 1)
}

func TestResetToDefaults(t *testing.T) {
	m := NewManager(nil, zap.NewNop())

	m.SetActiveDevice(3)
	m.SetCurrentFile("session.wav")

	m.ResetToDefaults()
	assert.Equal(t, models.DefaultSystemConfig(), m.Get())
}

func TestOnChange(t *testing.T) {
	m := NewManager(nil, zap.NewNop())

	var got []models.SystemConfig

	unsubscribe := m.OnChange(func(cfg models.SystemConfig) {
		got = append(got, cfg)
	})

	m.SetActiveDevice(2)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].ActiveDeviceID)

	m.SetCurrentFile("roar.wav")
	require.Len(t, got, 2)
	assert.Equal(t, "roar.wav", got[1].CurrentAudioFile)

	unsubscribe()
	unsubscribe() // safe to call again

	m.SetActiveDevice(3)
	assert.Len(t, got, 2)
}

func TestLoadFromStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDB := db.NewMockService(ctrl)
	mockDB.EXPECT().GetSettings().Return(map[string]string{
		"audio_config":  `{"sample_rate":96000,"buffer_size":512,"bit_depth":32,"channels":2}`,
		"active_device": "2",
		"current_file":  "session.wav",
		"auto_save":     "false",
	}, nil)

	m := NewManager(mockDB, zap.NewNop())
	require.NoError(t, m.Load())

	cfg := m.Get()
	assert.Equal(t, 96000, cfg.Audio.SampleRate)
	assert.Equal(t, 512, cfg.Audio.BufferSize)
	assert.Equal(t, 2, cfg.ActiveDeviceID)
	assert.Equal(t, "session.wav", cfg.CurrentAudioFile)
	assert.False(t, cfg.AutoSave)
}

func TestLoadIgnoresMalformedEntries(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDB := db.NewMockService(ctrl)
	mockDB.EXPECT().GetSettings().Return(map[string]string{
		"audio_config":  "not json",
		"active_device": "never",
	}, nil)

	m := NewManager(mockDB, zap.NewNop())
	require.NoError(t, m.Load())

	cfg := m.Get()
	assert.Equal(t, models.DefaultAudioConfig(), cfg.Audio)
	assert.Equal(t, -1, cfg.ActiveDeviceID)
}

func TestLoadStoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDB := db.NewMockService(ctrl)
	mockDB.EXPECT().GetSettings().Return(nil, db.ErrDatabaseError)

	m := NewManager(mockDB, zap.NewNop())
	assert.ErrorIs(t, m.Load(), db.ErrDatabaseError)
}

func TestWriteThroughPersistence(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDB := db.NewMockService(ctrl)
	mockDB.EXPECT().SaveSetting("active_device", "3").Return(nil)
	mockDB.EXPECT().AddAuditEntry(gomock.Any()).Return(nil)

	m := NewManager(mockDB, zap.NewNop())
	m.SetActiveDevice(3)
}

func TestAutoSaveOffSkipsSettings(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDB := db.NewMockService(ctrl)

	// The flag itself is always written; later changes only hit the audit log.
	mockDB.EXPECT().SaveSetting("auto_save", "false").Return(nil)
	mockDB.EXPECT().AddAuditEntry(gomock.Any()).Return(nil).Times(2)

	m := NewManager(mockDB, zap.NewNop())
	m.SetAutoSave(false)
	m.SetActiveDevice(2)
}

func TestSaveWritesAllKeys(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDB := db.NewMockService(ctrl)
	mockDB.EXPECT().SaveSetting("audio_config", gomock.Any()).Return(nil)
	mockDB.EXPECT().SaveSetting("active_device", "-1").Return(nil)
	mockDB.EXPECT().SaveSetting("current_file", "T-Rex Roar (Default)").Return(nil)
	mockDB.EXPECT().SaveSetting("auto_save", "true").Return(nil)

	m := NewManager(mockDB, zap.NewNop())
	require.NoError(t, m.Save())
}

func TestDeviceProfileRoundTrip(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDB := db.NewMockService(ctrl)
	mockDB.EXPECT().SaveDeviceProfile(gomock.Any()).DoAndReturn(func(p *db.DeviceProfile) error {
		assert.Equal(t, 2, p.DeviceID)
		assert.Equal(t, 88200, p.SampleRate)

		return nil
	})
	mockDB.EXPECT().GetDeviceProfile(2).Return(&db.DeviceProfile{
		DeviceID:   2,
		SampleRate: 88200,
		BufferSize: 128,
		BitDepth:   24,
		Channels:   2,
	}, nil)
	mockDB.EXPECT().GetDeviceProfile(4).Return(nil, db.ErrProfileNotFound)

	m := NewManager(mockDB, zap.NewNop())

	cfg := models.AudioConfig{SampleRate: 88200, BufferSize: 128, BitDepth: 24, Channels: 2}
	require.NoError(t, m.SaveDeviceProfile(2, cfg))

	got, ok := m.DeviceProfile(2)
	require.True(t, ok)
	assert.Equal(t, cfg, got)

	_, ok = m.DeviceProfile(4)
	assert.False(t, ok)
}

func TestHasAndRemoveDeviceProfile(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDB := db.NewMockService(ctrl)
	mockDB.EXPECT().GetDeviceProfile(2).Return(&db.DeviceProfile{
		DeviceID:   2,
		SampleRate: 48000,
		BufferSize: 256,
		BitDepth:   24,
		Channels:   2,
	}, nil)
	mockDB.EXPECT().GetDeviceProfile(4).Return(nil, db.ErrProfileNotFound)
	mockDB.EXPECT().DeleteDeviceProfile(2).Return(nil)

	m := NewManager(mockDB, zap.NewNop())

	assert.True(t, m.HasDeviceProfile(2))
	assert.False(t, m.HasDeviceProfile(4))
	assert.NoError(t, m.RemoveDeviceProfile(2))
}

func TestProfilesWithoutStore(t *testing.T) {
	m := NewManager(nil, zap.NewNop())

	assert.False(t, m.HasDeviceProfile(1))
	assert.NoError(t, m.RemoveDeviceProfile(1))
	assert.NoError(t, m.SaveDeviceProfile(1, models.DefaultAudioConfig()))
}
