package winml

import (
	"errors"
	"fmt"
	"image"

	"github.com/getcharzp/go-winml/internal/onnx"
	ort "github.com/yalue/onnxruntime_go"
)

// ErrUnknownBinding 绑定了模型未声明的名称
var ErrUnknownBinding = errors.New("模型未声明该输入输出")

// Binding 一次推理的命名槽位到张量的映射
type Binding struct {
	model   *ModelSession
	inputs  map[string]ort.Value
	outputs map[string]ort.Value

	// 由绑定创建的张量，输入在 release 时释放，输出交给推理结果
	owned map[ort.Value]bool
}

func newBinding(m *ModelSession) *Binding {
	return &Binding{
		model:   m,
		inputs:  make(map[string]ort.Value),
		outputs: make(map[string]ort.Value),
		owned:   make(map[ort.Value]bool),
	}
}

// Bind 绑定调用方持有的张量，调用方负责释放
func (b *Binding) Bind(name string, v ort.Value) error {
	if _, ok := b.model.session.Input(name); ok {
		b.setInput(name, v, false)
		return nil
	}
	if _, ok := b.model.session.Output(name); ok {
		b.setOutput(name, v, false)
		return nil
	}
	return fmt.Errorf("%w: %s", ErrUnknownBinding, name)
}

// BindTensor 按输入声明的元素类型创建张量并绑定
func (b *Binding) BindTensor(name string, shape []int64, data []float32) error {
	info, ok := b.model.session.Input(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBinding, name)
	}

	v, err := onnx.NewInputTensor(info.DataType, shape, data)
	if err != nil {
		return fmt.Errorf("创建输入 %s 失败: %w", name, err)
	}
	b.setInput(name, v, true)
	return nil
}

// BindImage 按输入声明的形状缩放图像并绑定
func (b *Binding) BindImage(name string, img image.Image) error {
	info, ok := b.model.session.Input(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBinding, name)
	}

	data, shape, err := ImageTensor(img, info.Dimensions, b.model.Format)
	if err != nil {
		return fmt.Errorf("转换图像输入 %s 失败: %w", name, err)
	}
	return b.BindTensor(name, shape, data)
}

// BindOutput 按输出声明的元素类型预分配张量，推理结果直接写入其中
func (b *Binding) BindOutput(name string, shape []int64) error {
	info, ok := b.model.session.Output(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBinding, name)
	}

	v, err := onnx.NewOutputTensorFor(info.DataType, shape)
	if err != nil {
		return fmt.Errorf("创建输出 %s 失败: %w", name, err)
	}
	b.setOutput(name, v, true)
	return nil
}

func (b *Binding) setInput(name string, v ort.Value, owned bool) {
	if old, ok := b.inputs[name]; ok && b.owned[old] {
		_ = old.Destroy()
		delete(b.owned, old)
	}
	b.inputs[name] = v
	if owned {
		b.owned[v] = true
	}
}

func (b *Binding) setOutput(name string, v ort.Value, owned bool) {
	if old, ok := b.outputs[name]; ok && b.owned[old] {
		_ = old.Destroy()
		delete(b.owned, old)
	}
	b.outputs[name] = v
	if owned {
		b.owned[v] = true
	}
}

// takeOutputs 把绑定创建的输出交给推理结果，之后由结果释放
func (b *Binding) takeOutputs() map[ort.Value]bool {
	taken := make(map[ort.Value]bool)
	for name, v := range b.outputs {
		if b.owned[v] {
			taken[v] = true
			delete(b.owned, v)
			delete(b.outputs, name)
		}
	}
	return taken
}

func (b *Binding) release() {
	for v := range b.owned {
		_ = v.Destroy()
	}
	clear(b.owned)
	clear(b.inputs)
	clear(b.outputs)
}
