package models

// DeviceType identifies the driver model a device is exposed through.
type DeviceType string

const (
	DeviceTypeWDM    DeviceType = "WDM"
	DeviceTypeKS     DeviceType = "KS"
	DeviceTypeWASAPI DeviceType = "WASAPI"
	DeviceTypeASIO   DeviceType = "ASIO"
)

// DeviceStatus is the lifecycle state of a device in the panel.
type DeviceStatus string

const (
	DeviceStatusActive   DeviceStatus = "Active"
	DeviceStatusInactive DeviceStatus = "Inactive"
	DeviceStatusDisabled DeviceStatus = "Disabled"
	DeviceStatusError    DeviceStatus = "Error"
)

// Device describes one entry of the simulated device table. Only id, name,
// type and status cross the REST surface; the capability fields back
// configuration validation.
type Device struct {
	ID            int          `json:"id"`
	Name          string       `json:"name"`
	Type          DeviceType   `json:"type"`
	Status        DeviceStatus `json:"status"`
	MaxSampleRate int          `json:"max_sample_rate"`
	MinBufferSize int          `json:"min_buffer_size"`
	MaxBufferSize int          `json:"max_buffer_size"`
	SampleRates   []int        `json:"supported_sample_rates"`
	BitDepths     []int        `json:"supported_bit_depths"`
	Input         bool         `json:"is_input"`
	Output        bool         `json:"is_output"`
}

// SupportsSampleRate reports whether the device accepts the given rate.
func (d Device) SupportsSampleRate(rate int) bool {
	return containsInt(d.SampleRates, rate)
}

// SupportsBitDepth reports whether the device accepts the given depth.
func (d Device) SupportsBitDepth(depth int) bool {
	return containsInt(d.BitDepths, depth)
}
