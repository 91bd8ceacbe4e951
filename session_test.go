package winml

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/getcharzp/go-winml/internal/onnx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ort "github.com/yalue/onnxruntime_go"
)

// closedSession 只有输入输出声明、没有底层会话
func closedSession() *ModelSession {
	return &ModelSession{
		ModelPath: "SqueezeNet.onnx",
		session: &onnx.Session{
			Inputs: []ort.InputOutputInfo{{
				Name:         "data_0",
				OrtValueType: ort.ONNXTypeTensor,
				Dimensions:   ort.NewShape(1, 3, 224, 224),
				DataType:     ort.TensorElementDataTypeFloat,
			}},
			Outputs: []ort.InputOutputInfo{{
				Name:         "softmaxout_1",
				OrtValueType: ort.ONNXTypeTensor,
				Dimensions:   ort.NewShape(1, 1000, 1, 1),
				DataType:     ort.TensorElementDataTypeFloat,
			}},
		},
	}
}

func TestBindUnknownName(t *testing.T) {
	m := closedSession()
	b := m.NewBinding()

	assert.ErrorIs(t, b.Bind("nope", nil), ErrUnknownBinding)
	assert.ErrorIs(t, b.BindTensor("softmaxout_1", []int64{1}, []float32{0}), ErrUnknownBinding)
	assert.ErrorIs(t, b.BindImage("nope", image.NewRGBA(image.Rect(0, 0, 1, 1))), ErrUnknownBinding)
	assert.ErrorIs(t, b.BindOutput("data_0", []int64{1}), ErrUnknownBinding)
}

func TestPredictBindError(t *testing.T) {
	m := closedSession()
	boom := errors.New("boom")

	_, err := m.Predict(context.Background(), func(*Binding) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestEvaluateClosedSession(t *testing.T) {
	m := closedSession()
	m.Close()
	m.Close()

	_, err := m.Predict(context.Background(), func(*Binding) error { return nil })
	assert.ErrorIs(t, err, onnx.ErrSessionClosed)
	_, err = m.Evaluate(context.Background(), m.NewBinding())
	assert.ErrorIs(t, err, onnx.ErrSessionClosed)

	require.Len(t, m.Inputs(), 1)
	require.Len(t, m.Outputs(), 1)
	assert.ErrorIs(t, m.NewBinding().Bind("nope", nil), ErrUnknownBinding)
}

func TestEvaluateCanceled(t *testing.T) {
	m := closedSession()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Evaluate(ctx, m.NewBinding())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestModelSessionFeatures(t *testing.T) {
	m := closedSession()

	require.Len(t, m.Inputs(), 1)
	assert.Equal(t, "data_0", m.Inputs()[0].Name)
	assert.Equal(t, []int64{1, 3, 224, 224}, m.Inputs()[0].Shape)
	require.Len(t, m.Outputs(), 1)
	assert.Equal(t, "F32", m.Outputs()[0].Element)
}

func TestResultLookup(t *testing.T) {
	r := newResult("run", 0, map[string]ort.Value{"a": nil}, closedSession().NewBinding())

	_, ok := r.Lookup("a")
	assert.False(t, ok)
	_, err := r.Float32s("missing")
	assert.Error(t, err)
	assert.Equal(t, []string{"a"}, r.Names())
	r.Destroy()
}
