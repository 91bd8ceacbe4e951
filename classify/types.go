package classify

import (
	"context"
	"image"

	winml "github.com/getcharzp/go-winml"
)

// Config 图像分类配置
type Config struct {
	OnnxRuntimeLibPath string
	ModelPath          string
	LabelsPath         string // 可选，每行一个类别名
	Device             winml.Device
	IntraOpThreads     int

	InputName   string  // 为空时取模型第一个输入
	OutputName  string  // 为空时取模型第一个输出
	OutputShape []int64 // 为空时由运行时分配输出

	ImageFormat  winml.ImageFormat
	ApplySoftmax bool // 模型输出 logits 时需要
	TopK         int

	Iterations  int
	Warmup      int
	ReloadImage bool // 每次迭代重新解码图片
}

// DefaultConfig SqueezeNet (ONNX model zoo) 的默认配置
func DefaultConfig() Config {
	return Config{
		OnnxRuntimeLibPath: winml.DefaultLibraryPath(),
		ModelPath:          "SqueezeNet.onnx",
		Device:             winml.DeviceDirectXHighPerformance,
		InputName:          "data_0",
		OutputName:         "softmaxout_1",
		OutputShape:        []int64{1, 1000, 1, 1},
		ImageFormat:        winml.ImageFormat{Order: winml.ChannelBGR},
		TopK:               1,
		Iterations:         1000,
		ReloadImage:        true,
	}
}

// Prediction 单个类别得分
type Prediction struct {
	Index int
	Label string
	Score float32
}

// Classifier 图像分类器
type Classifier struct {
	cfg     Config
	session *winml.ModelSession
	labels  []string

	// scores 推理一次并返回输出分数
	scores func(ctx context.Context, img image.Image) ([]float32, error)
}
