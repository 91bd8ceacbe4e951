package onnx

import (
	"encoding/binary"
	"fmt"
	"math"

	ort "github.com/yalue/onnxruntime_go"
	"github.com/x448/float16"
)

// NewInputTensor 按声明的元素类型把 float32 数据包装成输入张量
func NewInputTensor(elemType ort.TensorElementDataType, shape []int64, data []float32) (ort.Value, error) {
	s := ort.NewShape(shape...)
	if int(s.FlattenedSize()) != len(data) {
		return nil, fmt.Errorf("数据长度 %d 与形状 %v 不匹配", len(data), shape)
	}

	switch elemType {
	case ort.TensorElementDataTypeFloat:
		return ort.NewTensor(s, data)
	case ort.TensorElementDataTypeFloat16:
		return ort.NewCustomDataTensor(s, EncodeFloat16(data), ort.TensorElementDataTypeFloat16)
	case ort.TensorElementDataTypeDouble:
		d := make([]float64, len(data))
		for i, v := range data {
			d[i] = float64(v)
		}
		return ort.NewTensor(s, d)
	case ort.TensorElementDataTypeUint8:
		d := make([]uint8, len(data))
		for i, v := range data {
			d[i] = uint8(max(0, min(255, math.Round(float64(v)))))
		}
		return ort.NewTensor(s, d)
	}
	return nil, fmt.Errorf("不支持的输入类型: %s", ElementTypeName(elemType))
}

// NewOutputTensorFor 按声明的元素类型预分配输出张量。
// 半精度输出必须预分配，运行时分配时 onnxruntime_go 只按元素个数拷贝字节
func NewOutputTensorFor(elemType ort.TensorElementDataType, shape []int64) (ort.Value, error) {
	s := ort.NewShape(shape...)
	switch elemType {
	case ort.TensorElementDataTypeFloat:
		return ort.NewEmptyTensor[float32](s)
	case ort.TensorElementDataTypeDouble:
		return ort.NewEmptyTensor[float64](s)
	case ort.TensorElementDataTypeFloat16, ort.TensorElementDataTypeBFloat16:
		if err := s.Validate(); err != nil {
			return nil, err
		}
		return ort.NewCustomDataTensor(s, make([]byte, 2*s.FlattenedSize()), elemType)
	}
	return nil, fmt.Errorf("不支持的输出类型: %s", ElementTypeName(elemType))
}

// IsHalf 是否为 16 位浮点
func IsHalf(t ort.TensorElementDataType) bool {
	return t == ort.TensorElementDataTypeFloat16 || t == ort.TensorElementDataTypeBFloat16
}

// Float32Data 读取输出张量并统一转为 float32
func Float32Data(v ort.Value) ([]float32, error) {
	switch t := v.(type) {
	case *ort.Tensor[float32]:
		return append([]float32(nil), t.GetData()...), nil
	case *ort.Tensor[float64]:
		src := t.GetData()
		out := make([]float32, len(src))
		for i, f := range src {
			out[i] = float32(f)
		}
		return out, nil
	case *ort.Tensor[uint8]:
		src := t.GetData()
		out := make([]float32, len(src))
		for i, f := range src {
			out[i] = float32(f)
		}
		return out, nil
	case *ort.CustomDataTensor:
		return decodeHalf(ort.TensorElementDataType(t.DataType()), t.GetData(), t.GetShape().FlattenedSize())
	case nil:
		return nil, fmt.Errorf("输出为空")
	}
	return nil, fmt.Errorf("不支持的输出类型 %T", v)
}

// EncodeFloat16 转换为小端 IEEE 754 binary16 字节
func EncodeFloat16(data []float32) []byte {
	out := make([]byte, len(data)*2)
	for i, v := range data {
		binary.LittleEndian.PutUint16(out[i*2:], float16.Fromfloat32(v).Bits())
	}
	return out
}

// DecodeFloat16 EncodeFloat16 的逆过程
func DecodeFloat16(b []byte) ([]float32, error) {
	if len(b)%2 != 0 {
		return nil, fmt.Errorf("float16 数据长度 %d 不是偶数", len(b))
	}
	out := make([]float32, len(b)/2)
	for i := range out {
		out[i] = float16.Frombits(binary.LittleEndian.Uint16(b[i*2:])).Float32()
	}
	return out, nil
}

// decodeHalf 解码 n 个 16 位浮点，字节数不足说明输出未预分配
func decodeHalf(elemType ort.TensorElementDataType, b []byte, n int64) ([]float32, error) {
	if int64(len(b)) != 2*n {
		return nil, fmt.Errorf("%s 输出字节数 %d 与元素个数 %d 不符，需要预分配输出", ElementTypeName(elemType), len(b), n)
	}
	switch elemType {
	case ort.TensorElementDataTypeFloat16:
		return DecodeFloat16(b)
	case ort.TensorElementDataTypeBFloat16:
		out := make([]float32, n)
		for i := range out {
			out[i] = math.Float32frombits(uint32(binary.LittleEndian.Uint16(b[i*2:])) << 16)
		}
		return out, nil
	}
	return nil, fmt.Errorf("不支持的输出类型: %s", ElementTypeName(elemType))
}

var elementTypeNames = map[ort.TensorElementDataType]string{
	ort.TensorElementDataTypeUndefined:  "Undefined",
	ort.TensorElementDataTypeUint8:      "U8",
	ort.TensorElementDataTypeBool:       "Bool",
	ort.TensorElementDataTypeString:     "String",
	ort.TensorElementDataTypeUint16:     "U16",
	ort.TensorElementDataTypeUint32:     "U32",
	ort.TensorElementDataTypeUint64:     "U64",
	ort.TensorElementDataTypeInt8:       "I8",
	ort.TensorElementDataTypeInt16:      "I16",
	ort.TensorElementDataTypeInt32:      "I32",
	ort.TensorElementDataTypeInt64:      "I64",
	ort.TensorElementDataTypeFloat:      "F32",
	ort.TensorElementDataTypeFloat16:    "F16",
	ort.TensorElementDataTypeDouble:     "F64",
	ort.TensorElementDataTypeComplex64:  "C64",
	ort.TensorElementDataTypeComplex128: "C128",
	ort.TensorElementDataTypeBFloat16:   "BF16",
}

// ElementTypeName 元素类型简称，如 F32、I64
func ElementTypeName(t ort.TensorElementDataType) string {
	if name, ok := elementTypeNames[t]; ok {
		return name
	}
	return "Unknown"
}

// Value 运行时张量
type Value = ort.Value
