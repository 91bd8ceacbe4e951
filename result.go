package winml

import (
	"fmt"
	"sort"
	"time"

	"github.com/getcharzp/go-winml/internal/onnx"
	ort "github.com/yalue/onnxruntime_go"
)

// EvaluationResult 一次推理的输出
type EvaluationResult struct {
	RunID   string
	Latency time.Duration

	outputs map[string]ort.Value
	owned   map[ort.Value]bool
}

func newResult(runID string, latency time.Duration, outputs map[string]ort.Value, b *Binding) *EvaluationResult {
	r := &EvaluationResult{
		RunID:   runID,
		Latency: latency,
		outputs: outputs,
		owned:   make(map[ort.Value]bool),
	}
	for name, v := range outputs {
		if v == nil {
			continue
		}
		if bound, ok := b.outputs[name]; ok && bound == v {
			continue
		}
		r.owned[v] = true
	}
	return r
}

// Names 输出名称，按字典序
func (r *EvaluationResult) Names() []string {
	names := make([]string, 0, len(r.outputs))
	for name := range r.outputs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup 按名称取输出张量
func (r *EvaluationResult) Lookup(name string) (ort.Value, bool) {
	v, ok := r.outputs[name]
	return v, ok && v != nil
}

// Float32s 按名称读取输出并转为 float32
func (r *EvaluationResult) Float32s(name string) ([]float32, error) {
	v, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("输出 %s 不存在", name)
	}
	data, err := onnx.Float32Data(v)
	if err != nil {
		return nil, fmt.Errorf("读取输出 %s 失败: %w", name, err)
	}
	return data, nil
}

// Destroy 释放结果持有的输出
func (r *EvaluationResult) Destroy() {
	for v := range r.owned {
		_ = v.Destroy()
	}
	clear(r.owned)
	clear(r.outputs)
}
