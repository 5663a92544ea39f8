package devices

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cyberasio/core/pkg/models"
)

func TestDefaultTable(t *testing.T) {
	m := NewManager(zap.NewNop())

	devs := m.Devices()
	require.Len(t, devs, 4)

	assert.Equal(t, "Generic HD Audio Device (WDM)", devs[0].Name)
	assert.Equal(t, models.DeviceStatusActive, devs[0].Status)
	assert.Equal(t, models.DeviceTypeWDM, devs[0].Type)

	assert.Equal(t, "Realtek ASIO (KS)", devs[1].Name)
	assert.Equal(t, models.DeviceStatusDisabled, devs[1].Status)
	assert.Equal(t, models.DeviceTypeKS, devs[1].Type)

	assert.Equal(t, "NVIDIA Broadcast (WASAPI)", devs[2].Name)
	assert.Equal(t, models.DeviceStatusInactive, devs[2].Status)

	assert.Equal(t, "Focusrite USB ASIO (WDM)", devs[3].Name)
	assert.Equal(t, models.DeviceStatusInactive, devs[3].Status)

	for _, d := range devs {
		assert.Equal(t, 192000, d.MaxSampleRate)
		assert.Equal(t, 32, d.MinBufferSize)
		assert.Equal(t, 2048, d.MaxBufferSize)
		assert.True(t, d.Input)
		assert.True(t, d.Output)
	}

	assert.Equal(t, 1, m.ActiveID())
}

func TestDeviceLookup(t *testing.T) {
	m := NewManager(zap.NewNop())

	device, err := m.Device(3)
	require.NoError(t, err)
	assert.Equal(t, "NVIDIA Broadcast (WASAPI)", device.Name)

	_, err = m.Device(99)
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestActivate(t *testing.T) {
	m := NewManager(zap.NewNop())

	require.NoError(t, m.Activate(3))

	assert.Equal(t, 3, m.ActiveID())
	assert.True(t, m.IsActive(3))
	assert.False(t, m.IsActive(1))

	// Previous active device drops back to inactive
	device, err := m.Device(1)
	require.NoError(t, err)
	assert.Equal(t, models.DeviceStatusInactive, device.Status)

	active, ok := m.Active()
	require.True(t, ok)
	assert.Equal(t, 3, active.ID)
}

func TestActivateUnknownDevice(t *testing.T) {
	m := NewManager(zap.NewNop())

	err := m.Activate(99)
	assert.ErrorIs(t, err, ErrDeviceNotFound)
	assert.Equal(t, 1, m.ActiveID())
}

func TestActivateDisabledDevice(t *testing.T) {
	m := NewManager(zap.NewNop())

	err := m.Activate(2)
	assert.ErrorIs(t, err, ErrDeviceDisabled)
	assert.Equal(t, 1, m.ActiveID())
}

func TestActivateSameDeviceTwice(t *testing.T) {
	m := NewManager(zap.NewNop())

	require.NoError(t, m.Activate(1))
	require.NoError(t, m.Activate(1))

	assert.Equal(t, 1, m.ActiveID())

	device, err := m.Device(1)
	require.NoError(t, err)
	assert.Equal(t, models.DeviceStatusActive, device.Status)
}

func TestDeactivate(t *testing.T) {
	m := NewManager(zap.NewNop())

	m.Deactivate(1)

	assert.Equal(t, -1, m.ActiveID())

	_, ok := m.Active()
	assert.False(t, ok)

	device, err := m.Device(1)
	require.NoError(t, err)
	assert.Equal(t, models.DeviceStatusInactive, device.Status)

	// Deactivating a non-active device leaves the selection alone
	require.NoError(t, m.Activate(3))
	m.Deactivate(4)
	assert.Equal(t, 3, m.ActiveID())
}

func TestSetStatus(t *testing.T) {
	m := NewManager(zap.NewNop())

	require.NoError(t, m.SetStatus(3, models.DeviceStatusError))

	device, err := m.Device(3)
	require.NoError(t, err)
	assert.Equal(t, models.DeviceStatusError, device.Status)

	assert.ErrorIs(t, m.SetStatus(99, models.DeviceStatusError), ErrDeviceNotFound)

	// Dropping the active device out of Active clears the selection
	require.NoError(t, m.SetStatus(1, models.DeviceStatusDisabled))
	assert.Equal(t, -1, m.ActiveID())

	_, ok := m.Active()
	assert.False(t, ok)
}

func TestScanResetsTable(t *testing.T) {
	m := NewManager(zap.NewNop())

	require.NoError(t, m.Activate(4))

	devs := m.Scan()
	require.Len(t, devs, 4)
	assert.Equal(t, models.DeviceStatusActive, devs[0].Status)
	assert.Equal(t, 1, m.ActiveID())
}

func TestValidateConfig(t *testing.T) {
	m := NewManager(zap.NewNop())

	tests := []struct {
		name    string
		id      int
		cfg     models.AudioConfig
		wantErr error
	}{
		{
			name: "valid",
			id:   1,
			cfg:  models.AudioConfig{SampleRate: 96000, BufferSize: 512, BitDepth: 24, Channels: 2},
		},
		{
			name:    "unknown device",
			id:      42,
			cfg:     models.DefaultAudioConfig(),
			wantErr: ErrDeviceNotFound,
		},
		{
			name:    "unsupported sample rate",
			id:      1,
			cfg:     models.AudioConfig{SampleRate: 22050, BufferSize: 256, BitDepth: 24, Channels: 2},
			wantErr: models.ErrInvalidSampleRate,
		},
		{
			name:    "buffer below device minimum",
			id:      1,
			cfg:     models.AudioConfig{SampleRate: 48000, BufferSize: 16, BitDepth: 24, Channels: 2},
			wantErr: models.ErrInvalidBufferSize,
		},
		{
			name:    "buffer above device maximum",
			id:      1,
			cfg:     models.AudioConfig{SampleRate: 48000, BufferSize: 4096, BitDepth: 24, Channels: 2},
			wantErr: models.ErrInvalidBufferSize,
		},
		{
			name:    "unsupported bit depth",
			id:      1,
			cfg:     models.AudioConfig{SampleRate: 48000, BufferSize: 256, BitDepth: 20, Channels: 2},
			wantErr: models.ErrInvalidBitDepth,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.ValidateConfig(tt.id, tt.cfg)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestInfo(t *testing.T) {
	m := NewManager(zap.NewNop())

	info, err := m.Info(2)
	require.NoError(t, err)

	assert.Equal(t, "2", info["id"])
	assert.Equal(t, "Realtek ASIO (KS)", info["name"])
	assert.Equal(t, "KS", info["type"])
	assert.Equal(t, "Disabled", info["status"])
	assert.Equal(t, "192000", info["max_sample_rate"])
	assert.Equal(t, "true", info["is_output"])

	_, err = m.Info(42)
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}
