package winml

import (
	"fmt"
	"strings"

	"github.com/getcharzp/go-winml/internal/onnx"
)

// Device 推理设备
type Device = onnx.Device

const (
	DeviceDefault                = onnx.DeviceDefault
	DeviceCPU                    = onnx.DeviceCPU
	DeviceDirectX                = onnx.DeviceDirectX
	DeviceDirectXHighPerformance = onnx.DeviceDirectXHighPerformance
	DeviceDirectXMinPower        = onnx.DeviceDirectXMinPower
	DeviceCUDA                   = onnx.DeviceCUDA
	DeviceCoreML                 = onnx.DeviceCoreML
)

// ErrUnknownDevice 无法识别的设备名
var ErrUnknownDevice = onnx.ErrUnknownDevice

// ParseDevice 解析设备名，大小写与 - _ 分隔符不敏感
func ParseDevice(s string) (Device, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("_", "", "-", "", " ", "").Replace(key)

	switch key {
	case "", "default":
		return DeviceDefault, nil
	case "cpu":
		return DeviceCPU, nil
	case "directx", "dx", "dml", "directml":
		return DeviceDirectX, nil
	case "directxhighperformance", "highperformance", "gpu":
		return DeviceDirectXHighPerformance, nil
	case "directxminpower", "minpower":
		return DeviceDirectXMinPower, nil
	case "cuda":
		return DeviceCUDA, nil
	case "coreml":
		return DeviceCoreML, nil
	}
	return DeviceDefault, fmt.Errorf("%w: %q", ErrUnknownDevice, s)
}
