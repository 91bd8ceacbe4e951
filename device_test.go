package winml

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDevice(t *testing.T) {
	cases := map[string]Device{
		"":                         DeviceDefault,
		"Default":                  DeviceDefault,
		"cpu":                      DeviceCPU,
		"DirectX":                  DeviceDirectX,
		"directml":                 DeviceDirectX,
		"DirectXHighPerformance":   DeviceDirectXHighPerformance,
		"directx-high-performance": DeviceDirectXHighPerformance,
		"directx_min_power":        DeviceDirectXMinPower,
		"CUDA":                     DeviceCUDA,
		"coreml":                   DeviceCoreML,
	}
	for in, want := range cases {
		got, err := ParseDevice(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestParseDeviceUnknown(t *testing.T) {
	_, err := ParseDevice("tpu")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownDevice))
}

func TestDeviceNamesParseBack(t *testing.T) {
	for _, d := range []Device{DeviceDefault, DeviceCPU, DeviceDirectX, DeviceDirectXHighPerformance, DeviceDirectXMinPower, DeviceCUDA, DeviceCoreML} {
		got, err := ParseDevice(d.String())
		require.NoError(t, err)
		assert.Equal(t, d, got)
	}
}

func TestLibraryPath(t *testing.T) {
	assert.Equal(t, "./lib/onnxruntime.dll", libraryPath("./lib/", "windows", "amd64"))
	assert.Equal(t, "./lib/onnxruntime_arm64.so", libraryPath("./lib/", "linux", "arm64"))
	assert.Equal(t, "./lib/onnxruntime_arm64.dylib", libraryPath("./lib/", "darwin", "arm64"))
	assert.Equal(t, "./lib/onnxruntime_amd64.so", libraryPath("./lib/", "plan9", "386"))
}
