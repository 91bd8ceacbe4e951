package onnx

import (
	"errors"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var (
	// ErrSessionClosed 会话已释放
	ErrSessionClosed = errors.New("会话已释放")
	// ErrMissingInput 推理时缺少必需的输入
	ErrMissingInput = errors.New("缺少输入")
	// ErrUnboundHalfOutput 动态形状的半精度输出没有预先绑定
	ErrUnboundHalfOutput = errors.New("动态形状的半精度输出需要预先绑定")
)

// Session 一个模型在某个设备上的推理会话
type Session struct {
	ModelPath string
	Inputs    []ort.InputOutputInfo
	Outputs   []ort.InputOutputInfo

	mu      sync.RWMutex
	session *ort.DynamicAdvancedSession
}

// NewSession 加载模型并创建会话，输入输出名取自模型声明
func (c *Config) NewSession(modelPath string) (*Session, error) {
	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("读取模型输入输出失败: %w", err)
	}

	session, err := ort.NewDynamicAdvancedSession(modelPath, names(inputs), names(outputs), c.SessionOptions)
	if err != nil {
		return nil, fmt.Errorf("创建会话失败: %w", err)
	}

	return &Session{
		ModelPath: modelPath,
		Inputs:    inputs,
		Outputs:   outputs,
		session:   session,
	}, nil
}

// Input 按名称查找输入声明
func (s *Session) Input(name string) (ort.InputOutputInfo, bool) {
	return lookup(s.Inputs, name)
}

// Output 按名称查找输出声明
func (s *Session) Output(name string) (ort.InputOutputInfo, bool) {
	return lookup(s.Outputs, name)
}

// Run 执行一次推理。outputs 中未给出的输出由 onnxruntime 分配，
// 半精度输出按声明形状预分配。返回值包含全部输出，调用方负责释放未绑定的部分。
func (s *Session) Run(inputs, outputs map[string]ort.Value) (map[string]ort.Value, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.session == nil {
		return nil, ErrSessionClosed
	}

	in, err := s.orderInputs(inputs)
	if err != nil {
		return nil, err
	}
	half, err := s.halfOutputs(outputs)
	if err != nil {
		return nil, err
	}

	out := make([]ort.Value, len(s.Outputs))
	allocated := make([]ort.Value, 0, len(half))
	for i, info := range s.Outputs {
		out[i] = outputs[info.Name]
		if !half[info.Name] {
			continue
		}
		v, err := NewOutputTensorFor(info.DataType, info.Dimensions)
		if err != nil {
			destroyValues(allocated)
			return nil, fmt.Errorf("预分配输出 %s 失败: %w", info.Name, err)
		}
		out[i] = v
		allocated = append(allocated, v)
	}

	if err := s.session.Run(in, out); err != nil {
		destroyValues(allocated)
		return nil, fmt.Errorf("推理失败: %w", err)
	}

	result := make(map[string]ort.Value, len(out))
	for i, info := range s.Outputs {
		result[info.Name] = out[i]
	}
	return result, nil
}

// orderInputs 按声明顺序排列输入，缺少的输入报错并给出名称
func (s *Session) orderInputs(inputs map[string]ort.Value) ([]ort.Value, error) {
	in := make([]ort.Value, len(s.Inputs))
	for i, info := range s.Inputs {
		v, ok := inputs[info.Name]
		if !ok || v == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingInput, info.Name)
		}
		in[i] = v
	}
	return in, nil
}

// halfOutputs 找出未绑定且需要预分配的半精度输出，动态形状无法预分配
func (s *Session) halfOutputs(outputs map[string]ort.Value) (map[string]bool, error) {
	half := make(map[string]bool)
	for _, info := range s.Outputs {
		if outputs[info.Name] != nil || !IsHalf(info.DataType) {
			continue
		}
		if !staticShape(info.Dimensions) {
			return nil, fmt.Errorf("%w: %s %v", ErrUnboundHalfOutput, info.Name, info.Dimensions)
		}
		half[info.Name] = true
	}
	return half, nil
}

func staticShape(dims []int64) bool {
	if len(dims) == 0 {
		return false
	}
	for _, d := range dims {
		if d <= 0 {
			return false
		}
	}
	return true
}

func destroyValues(values []ort.Value) {
	for _, v := range values {
		_ = v.Destroy()
	}
}

// Destroy 释放会话
func (s *Session) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil {
		_ = s.session.Destroy()
		s.session = nil
	}
}

func names(infos []ort.InputOutputInfo) []string {
	out := make([]string, len(infos))
	for i, info := range infos {
		out[i] = info.Name
	}
	return out
}

func lookup(infos []ort.InputOutputInfo, name string) (ort.InputOutputInfo, bool) {
	for _, info := range infos {
		if info.Name == name {
			return info, true
		}
	}
	return ort.InputOutputInfo{}, false
}
