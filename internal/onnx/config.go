package onnx

import (
	"errors"
	"fmt"
	"log/slog"

	ort "github.com/yalue/onnxruntime_go"
)

// ErrUnknownDevice 未知的推理设备
var ErrUnknownDevice = errors.New("未知的推理设备")

// Device 推理设备，决定使用哪个执行后端
type Device int

const (
	DeviceDefault Device = iota
	DeviceCPU
	DeviceDirectX
	DeviceDirectXHighPerformance
	DeviceDirectXMinPower
	DeviceCUDA
	DeviceCoreML
)

var deviceNames = map[Device]string{
	DeviceDefault:                "default",
	DeviceCPU:                    "cpu",
	DeviceDirectX:                "directx",
	DeviceDirectXHighPerformance: "directx-high-performance",
	DeviceDirectXMinPower:        "directx-min-power",
	DeviceCUDA:                   "cuda",
	DeviceCoreML:                 "coreml",
}

func (d Device) String() string {
	if name, ok := deviceNames[d]; ok {
		return name
	}
	return fmt.Sprintf("device(%d)", int(d))
}

// IsDirectX 是否为 DirectML 后端
func (d Device) IsDirectX() bool {
	return d == DeviceDirectX || d == DeviceDirectXHighPerformance || d == DeviceDirectXMinPower
}

// Config onnxruntime 配置信息
type Config struct {
	OnnxRuntimeLibPath string
	Device             Device
	IntraOpThreads     int
	InterOpThreads     int

	SessionOptions *ort.SessionOptions
}

// New 初始化运行时环境并按设备构建会话选项
func (c *Config) New() error {
	if err := acquireEnvironment(c.OnnxRuntimeLibPath); err != nil {
		return err
	}

	opts, err := newSessionOptions(c)
	if err != nil {
		releaseEnvironment()
		return err
	}
	c.SessionOptions = opts
	return nil
}

// Destroy 释放会话选项与运行时环境引用
func (c *Config) Destroy() {
	if c.SessionOptions == nil {
		return
	}
	_ = c.SessionOptions.Destroy()
	c.SessionOptions = nil
	releaseEnvironment()
}

func newSessionOptions(c *Config) (*ort.SessionOptions, error) {
	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("创建会话选项失败: %w", err)
	}

	if c.IntraOpThreads > 0 {
		if err := opts.SetIntraOpNumThreads(c.IntraOpThreads); err != nil {
			_ = opts.Destroy()
			return nil, fmt.Errorf("设置算子内线程数失败: %w", err)
		}
	}
	if c.InterOpThreads > 0 {
		if err := opts.SetInterOpNumThreads(c.InterOpThreads); err != nil {
			_ = opts.Destroy()
			return nil, fmt.Errorf("设置算子间线程数失败: %w", err)
		}
	}

	if err := appendProvider(opts, c.Device); err != nil {
		_ = opts.Destroy()
		return nil, err
	}
	return opts, nil
}

// appendProvider 为设备追加执行后端，CPU 不需要额外后端
func appendProvider(opts *ort.SessionOptions, device Device) error {
	switch {
	case device == DeviceDefault || device == DeviceCPU:
		return nil
	case device.IsDirectX():
		// DirectML 只按适配器序号选择设备，性能偏好交给驱动
		slog.Debug("使用 DirectML 后端", "device", device.String())
		if err := opts.AppendExecutionProviderDirectML(0); err != nil {
			return fmt.Errorf("启用 DirectML 失败: %w", err)
		}
		return nil
	case device == DeviceCUDA:
		cudaOpts, err := ort.NewCUDAProviderOptions()
		if err != nil {
			return fmt.Errorf("创建 CUDA 选项失败: %w", err)
		}
		defer cudaOpts.Destroy()
		if err := cudaOpts.Update(map[string]string{"device_id": "0"}); err != nil {
			return fmt.Errorf("设置 CUDA 选项失败: %w", err)
		}
		if err := opts.AppendExecutionProviderCUDA(cudaOpts); err != nil {
			return fmt.Errorf("启用 CUDA 失败: %w", err)
		}
		return nil
	case device == DeviceCoreML:
		if err := opts.AppendExecutionProviderCoreML(0); err != nil {
			return fmt.Errorf("启用 CoreML 失败: %w", err)
		}
		return nil
	}
	return fmt.Errorf("%w: %d", ErrUnknownDevice, int(device))
}
