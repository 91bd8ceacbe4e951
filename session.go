package winml

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/getcharzp/go-winml/internal/onnx"
	"github.com/google/uuid"
	"github.com/up-zero/gotool/convertutil"
)

// Options 构建会话的可选项
type Options struct {
	OnnxRuntimeLibPath string
	IntraOpThreads     int
	InterOpThreads     int
	ImageFormat        ImageFormat
}

// Option 修改 Options
type Option func(*Options)

// WithLibraryPath 指定 onnxruntime 动态库路径
func WithLibraryPath(path string) Option {
	return func(o *Options) { o.OnnxRuntimeLibPath = path }
}

// WithThreads 指定算子内/算子间线程数，0 表示由运行时决定
func WithThreads(intra, inter int) Option {
	return func(o *Options) {
		o.IntraOpThreads = intra
		o.InterOpThreads = inter
	}
}

// WithImageFormat 指定 BindImage 使用的像素变换
func WithImageFormat(f ImageFormat) Option {
	return func(o *Options) { o.ImageFormat = f }
}

// ModelSession 模型、设备与推理会话三者的组合，创建一次后可反复推理
type ModelSession struct {
	ModelPath string
	Device    Device
	Format    ImageFormat

	config  *onnx.Config
	session *onnx.Session
}

// Build 在指定设备上加载模型并创建会话
func Build(modelPath string, device Device, opts ...Option) (*ModelSession, error) {
	o := Options{OnnxRuntimeLibPath: DefaultLibraryPath()}
	for _, opt := range opts {
		opt(&o)
	}

	oc := &onnx.Config{Device: device}
	_ = convertutil.CopyProperties(o, oc)

	if err := oc.New(); err != nil {
		return nil, err
	}

	slog.Debug("加载模型", "path", modelPath, "device", device.String())
	session, err := oc.NewSession(modelPath)
	if err != nil {
		oc.Destroy()
		return nil, fmt.Errorf("加载模型 %s 失败: %w", modelPath, err)
	}

	return &ModelSession{
		ModelPath: modelPath,
		Device:    device,
		Format:    o.ImageFormat,
		config:    oc,
		session:   session,
	}, nil
}

// Inputs 模型声明的输入
func (m *ModelSession) Inputs() []Feature {
	return features(m.session.Inputs)
}

// Outputs 模型声明的输出
func (m *ModelSession) Outputs() []Feature {
	return features(m.session.Outputs)
}

// NewBinding 为一次推理创建空的绑定
func (m *ModelSession) NewBinding() *Binding {
	return newBinding(m)
}

// Predict 创建绑定交给 bind 填充后执行一次推理。
// bind 返回错误时不会推理，已绑定的张量全部释放。
func (m *ModelSession) Predict(ctx context.Context, bind func(*Binding) error) (*EvaluationResult, error) {
	b := m.NewBinding()
	defer b.release()

	if err := bind(b); err != nil {
		return nil, err
	}
	res, err := m.Evaluate(ctx, b)
	if err != nil {
		return nil, err
	}
	for v := range b.takeOutputs() {
		res.owned[v] = true
	}
	return res, nil
}

// Evaluate 使用已填充的绑定执行一次推理，绑定可在之后复用。
// 预绑定的输出仍归绑定所有，结果只释放运行时分配的输出。
func (m *ModelSession) Evaluate(ctx context.Context, b *Binding) (*EvaluationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	start := time.Now()
	outputs, err := m.session.Run(b.inputs, b.outputs)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	latency := time.Since(start)
	slog.Debug("推理完成", "run_id", runID, "model", m.ModelPath, "latency", latency)

	return newResult(runID, latency, outputs, b), nil
}

// Close 释放会话与运行时引用，之后的推理返回 onnx.ErrSessionClosed
func (m *ModelSession) Close() {
	m.session.Destroy()
	if m.config != nil {
		m.config.Destroy()
		m.config = nil
	}
}
