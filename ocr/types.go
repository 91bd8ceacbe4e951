package ocr

import (
	"image"
	"strings"

	winml "github.com/getcharzp/go-winml"
	"github.com/getcharzp/go-winml/internal/onnx"
)

const (
	defaultMaxSideLen   = 960
	defaultDetThreshold = 0.3
	defaultBoxThreshold = 0.6
	defaultUnclipRatio  = 1.5
	defaultLanguage     = "zh-Hans"
)

// Config OCR 配置信息。显式给出的模型路径优先于 WeightsDir 下的默认文件
type Config struct {
	OnnxRuntimeLibPath string
	Device             winml.Device
	IntraOpThreads     int

	Language     string // BCP-47 标签，默认 zh-Hans
	WeightsDir   string
	DetModelPath string
	RecModelPath string
	DictPath     string

	MaxSideLen   int
	DetThreshold float32
	BoxThreshold float32
	UnclipRatio  float64
	Workers      int // 并发识别的文本行数，默认 1
}

// TextBox 检测到的文本区域，坐标为原图坐标
type TextBox struct {
	Box   image.Rectangle
	Score float32
}

// Line 识别出的一行文本
type Line struct {
	Text  string
	Score float32
	Box   image.Rectangle
}

// Result 一张图片的识别结果，按从上到下、从左到右排列
type Result struct {
	Lines []Line
}

// Text 全部文本，每行以换行分隔
func (r *Result) Text() string {
	texts := make([]string, len(r.Lines))
	for i, l := range r.Lines {
		texts[i] = l.Text
	}
	return strings.Join(texts, "\n")
}

// Engine 指定语言的 OCR 引擎
type Engine struct {
	cfg        Config
	lang       Language
	oc         *onnx.Config
	detSession *onnx.Session
	recSession *onnx.Session
	dict       []string
}
