package onnx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ort "github.com/yalue/onnxruntime_go"
)

func info(name string, elemType ort.TensorElementDataType, dims ...int64) ort.InputOutputInfo {
	return ort.InputOutputInfo{
		Name:         name,
		OrtValueType: ort.ONNXTypeTensor,
		Dimensions:   ort.NewShape(dims...),
		DataType:     elemType,
	}
}

func TestRunClosedSession(t *testing.T) {
	s := &Session{Inputs: []ort.InputOutputInfo{info("x", ort.TensorElementDataTypeFloat, 1)}}
	_, err := s.Run(nil, nil)
	assert.ErrorIs(t, err, ErrSessionClosed)

	s.Destroy()
	_, err = s.Run(nil, nil)
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestOrderInputsMissing(t *testing.T) {
	s := &Session{Inputs: []ort.InputOutputInfo{
		info("images", ort.TensorElementDataTypeFloat, 1, 3, -1, -1),
		info("scale", ort.TensorElementDataTypeFloat, 1),
	}}

	_, err := s.orderInputs(map[string]ort.Value{"scale": nil})
	require.ErrorIs(t, err, ErrMissingInput)
	assert.Contains(t, err.Error(), "images")
}

func TestOrderInputsEmpty(t *testing.T) {
	in, err := (&Session{}).orderInputs(nil)
	require.NoError(t, err)
	assert.Empty(t, in)
}

func TestHalfOutputs(t *testing.T) {
	s := &Session{Outputs: []ort.InputOutputInfo{
		info("probs", ort.TensorElementDataTypeFloat, 1, -1, 97),
		info("logits", ort.TensorElementDataTypeFloat16, 1, 1000),
		info("emb", ort.TensorElementDataTypeBFloat16, 1, 8),
	}}

	half, err := s.halfOutputs(nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"logits": true, "emb": true}, half)
}

func TestHalfOutputsDynamic(t *testing.T) {
	s := &Session{Outputs: []ort.InputOutputInfo{
		info("maps", ort.TensorElementDataTypeFloat16, 1, 1, -1, -1),
	}}

	_, err := s.halfOutputs(nil)
	require.ErrorIs(t, err, ErrUnboundHalfOutput)
	assert.Contains(t, err.Error(), "maps")
}
