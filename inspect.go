package winml

import (
	"fmt"
	"io"
	"strings"

	"github.com/getcharzp/go-winml/internal/onnx"
	"github.com/olekukonko/tablewriter"
	ort "github.com/yalue/onnxruntime_go"
)

// Feature 模型声明的一个输入或输出
type Feature struct {
	Name     string
	Tensor   bool
	Shape    []int64
	Element  string
	Required bool
}

func features(infos []ort.InputOutputInfo) []Feature {
	out := make([]Feature, len(infos))
	for i, info := range infos {
		out[i] = Feature{
			Name:     info.Name,
			Tensor:   info.OrtValueType == ort.ONNXTypeTensor,
			Shape:    append([]int64(nil), info.Dimensions...),
			Element:  onnx.ElementTypeName(info.DataType),
			Required: true,
		}
	}
	return out
}

// ModelInfo 模型元数据与输入输出声明
type ModelInfo struct {
	Path        string
	Name        string
	Version     int64
	Author      string
	Domain      string
	Description string
	Metadata    []onnx.KeyValue
	Inputs      []Feature
	Outputs     []Feature
}

// Info 读取当前会话模型的元数据
func (m *ModelSession) Info() (*ModelInfo, error) {
	md, err := onnx.ReadMetadata(m.ModelPath)
	if err != nil {
		return nil, err
	}
	return &ModelInfo{
		Path:        m.ModelPath,
		Name:        md.GraphName,
		Version:     md.Version,
		Author:      md.Producer,
		Domain:      md.Domain,
		Description: md.Description,
		Metadata:    md.Custom,
		Inputs:      m.Inputs(),
		Outputs:     m.Outputs(),
	}, nil
}

// Inspect 打印模型元数据与输入输出张量形状
func (m *ModelSession) Inspect(w io.Writer, color bool) error {
	info, err := m.Info()
	if err != nil {
		return err
	}
	info.Write(w, color)
	return nil
}

const (
	ansiReset   = "\x1b[0m"
	ansiRed     = "\x1b[31m"
	ansiGreen   = "\x1b[32m"
	ansiYellow  = "\x1b[33m"
	ansiBlue    = "\x1b[34m"
	ansiMagenta = "\x1b[35m"
	ansiCyan    = "\x1b[36m"
)

// Write 输出可读的模型信息，非张量特征不列出
func (info *ModelInfo) Write(w io.Writer, color bool) {
	paint := func(code, s string) string {
		if !color {
			return s
		}
		return code + s + ansiReset
	}

	fmt.Fprintf(w, "Model %s in %s\n", paint(ansiRed, info.Name), paint(ansiMagenta, info.Path))
	fmt.Fprintf(w, "%s: %s\n", paint(ansiYellow, "Version"), paint(ansiGreen, fmt.Sprint(info.Version)))
	fmt.Fprintf(w, "%s: %s\n", paint(ansiYellow, "Author"), paint(ansiGreen, info.Author))
	fmt.Fprintf(w, "%s: %s\n", paint(ansiYellow, "Domain"), paint(ansiGreen, info.Domain))
	fmt.Fprintf(w, "%s: %s\n\n", paint(ansiYellow, "Description"), info.Description)

	for _, kv := range info.Metadata {
		fmt.Fprintf(w, "%q:%q\n", kv.Key, kv.Value)
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"KIND", "NAME", "TYPE", "SHAPE", "ELEMENT"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetBorder(false)

	rows := func(kind string, fs []Feature) {
		for _, f := range fs {
			if !f.Tensor {
				continue
			}
			name := paint(ansiRed, f.Name)
			if !f.Required {
				name += "*"
			}
			table.Append([]string{
				paint(ansiYellow, kind),
				name,
				paint(ansiCyan, "Tensor"),
				paint(ansiGreen, FormatShape(f.Shape)),
				paint(ansiBlue, f.Element),
			})
		}
	}
	rows("Input", info.Inputs)
	rows("Output", info.Outputs)
	table.Render()
}

// FormatShape 形如 [1, 3, 224, 224]，动态维度显示为 -1
func FormatShape(shape []int64) string {
	parts := make([]string, len(shape))
	for i, d := range shape {
		parts[i] = fmt.Sprint(d)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
