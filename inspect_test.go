package winml

import (
	"bytes"
	"testing"

	"github.com/getcharzp/go-winml/internal/onnx"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	ort "github.com/yalue/onnxruntime_go"
)

func TestFeatures(t *testing.T) {
	got := features([]ort.InputOutputInfo{
		{
			Name:         "data_0",
			OrtValueType: ort.ONNXTypeTensor,
			Dimensions:   ort.NewShape(1, 3, 224, 224),
			DataType:     ort.TensorElementDataTypeFloat,
		},
		{
			Name:         "seq",
			OrtValueType: ort.ONNXTypeSequence,
		},
	})

	want := []Feature{
		{Name: "data_0", Tensor: true, Shape: []int64{1, 3, 224, 224}, Element: "F32", Required: true},
		{Name: "seq", Tensor: false, Shape: nil, Element: "Undefined", Required: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("features mismatch (-want +got):\n%s", diff)
	}
}

func TestModelInfoWrite(t *testing.T) {
	info := &ModelInfo{
		Path:        "SqueezeNet.onnx",
		Name:        "squeezenet_old",
		Version:     9223372036854775807,
		Author:      "onnx-caffe2",
		Domain:      "",
		Description: "",
		Metadata:    []onnx.KeyValue{{Key: "Image.BitmapPixelFormat", Value: "Bgr8"}},
		Inputs: []Feature{
			{Name: "data_0", Tensor: true, Shape: []int64{1, 3, 224, 224}, Element: "F32", Required: true},
		},
		Outputs: []Feature{
			{Name: "softmaxout_1", Tensor: true, Shape: []int64{1, 1000, 1, 1}, Element: "F32", Required: true},
			{Name: "hidden", Tensor: false},
			{Name: "opt", Tensor: true, Shape: []int64{-1}, Element: "I64"},
		},
	}

	var buf bytes.Buffer
	info.Write(&buf, false)
	out := buf.String()

	assert.Contains(t, out, "Model squeezenet_old in SqueezeNet.onnx")
	assert.Contains(t, out, "Author: onnx-caffe2")
	assert.Contains(t, out, `"Image.BitmapPixelFormat":"Bgr8"`)
	assert.Contains(t, out, "data_0")
	assert.Contains(t, out, "[1, 3, 224, 224]")
	assert.Contains(t, out, "softmaxout_1")
	assert.Contains(t, out, "[1, 1000, 1, 1]")
	assert.Contains(t, out, "opt*")
	assert.NotContains(t, out, "hidden")
	assert.NotContains(t, out, "\x1b[")
}

func TestModelInfoWriteColor(t *testing.T) {
	info := &ModelInfo{Name: "m", Path: "m.onnx"}

	var buf bytes.Buffer
	info.Write(&buf, true)
	assert.Contains(t, buf.String(), ansiRed+"m"+ansiReset)
}

func TestFormatShape(t *testing.T) {
	assert.Equal(t, "[]", FormatShape(nil))
	assert.Equal(t, "[1, -1, 48, 320]", FormatShape([]int64{1, -1, 48, 320}))
}
