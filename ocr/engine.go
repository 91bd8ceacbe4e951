package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"time"

	winml "github.com/getcharzp/go-winml"
	"github.com/getcharzp/go-winml/internal/onnx"
	"github.com/getcharzp/go-winml/internal/util"
	"github.com/up-zero/gotool/convertutil"
	ort "github.com/yalue/onnxruntime_go"
	"golang.org/x/sync/errgroup"
)

// ErrEngineNotReady 引擎未初始化或已释放
var ErrEngineNotReady = errors.New("OCR 引擎未初始化")

// TryCreateFromLanguage 按语言标签创建引擎，其余配置取自 cfg
func TryCreateFromLanguage(tag string, cfg Config) (*Engine, error) {
	cfg.Language = tag
	return NewEngine(cfg)
}

// NewEngine 初始化引擎
func NewEngine(cfg Config) (*Engine, error) {
	cfg = withDefaults(cfg)

	lang, err := ParseLanguage(cfg.Language)
	if err != nil {
		return nil, err
	}
	cfg = resolvePaths(cfg, lang)

	oc := new(onnx.Config)
	_ = convertutil.CopyProperties(cfg, oc)
	if err := oc.New(); err != nil {
		return nil, err
	}

	engine := &Engine{cfg: cfg, lang: lang, oc: oc}

	engine.detSession, err = oc.NewSession(cfg.DetModelPath)
	if err != nil {
		engine.Destroy()
		return nil, fmt.Errorf("创建检测会话失败: %w", err)
	}

	engine.recSession, err = oc.NewSession(cfg.RecModelPath)
	if err != nil {
		engine.Destroy()
		return nil, fmt.Errorf("创建识别会话失败: %w", err)
	}

	dict, err := util.LoadDict(cfg.DictPath)
	if err != nil {
		engine.Destroy()
		return nil, fmt.Errorf("加载字符集失败: %w", err)
	}
	// 与 PaddleOCR 的 use_space_char 一致，字典末尾追加空格
	engine.dict = append(dict, " ")

	slog.Debug("OCR 引擎已创建", "language", lang.String(), "det", cfg.DetModelPath, "rec", cfg.RecModelPath)
	return engine, nil
}

func withDefaults(cfg Config) Config {
	if cfg.Language == "" {
		cfg.Language = defaultLanguage
	}
	if cfg.MaxSideLen <= 0 {
		cfg.MaxSideLen = defaultMaxSideLen
	}
	if cfg.DetThreshold <= 0 {
		cfg.DetThreshold = defaultDetThreshold
	}
	if cfg.BoxThreshold <= 0 {
		cfg.BoxThreshold = defaultBoxThreshold
	}
	if cfg.UnclipRatio <= 0 {
		cfg.UnclipRatio = defaultUnclipRatio
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.OnnxRuntimeLibPath == "" {
		cfg.OnnxRuntimeLibPath = winml.DefaultLibraryPath()
	}
	return cfg
}

// resolvePaths 补全未显式给出的模型与字典路径。
// 中文使用 det.onnx / rec.onnx / dict.txt，其他语言为 rec_<key>.onnx / dict_<key>.txt
func resolvePaths(cfg Config, lang Language) Config {
	dir := cfg.WeightsDir
	if dir == "" {
		dir = "./paddle_weights"
	}

	rec, dict := "rec_"+lang.Key+".onnx", "dict_"+lang.Key+".txt"
	if lang.Key == "ch" {
		rec, dict = "rec.onnx", "dict.txt"
	}

	if cfg.DetModelPath == "" {
		cfg.DetModelPath = filepath.Join(dir, "det.onnx")
	}
	if cfg.RecModelPath == "" {
		cfg.RecModelPath = filepath.Join(dir, rec)
	}
	if cfg.DictPath == "" {
		cfg.DictPath = filepath.Join(dir, dict)
	}
	return cfg
}

// Language 引擎识别的语言
func (e *Engine) Language() Language {
	return e.lang
}

// RunDetect 检测文本区域
func (e *Engine) RunDetect(img image.Image) ([]TextBox, error) {
	if e.detSession == nil {
		return nil, ErrEngineNotReady
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, nil
	}

	data, shape, err := e.preprocessDet(img)
	if err != nil {
		return nil, err
	}

	info := e.detSession.Inputs[0]
	input, err := onnx.NewInputTensor(info.DataType, shape, data)
	if err != nil {
		return nil, err
	}
	defer input.Destroy()

	// 概率图 [1, 1, H, W]
	outInfo := e.detSession.Outputs[0]
	bound, err := halfOutput(outInfo, []int64{1, 1, shape[2], shape[3]})
	if err != nil {
		return nil, err
	}
	outputs, err := e.detSession.Run(map[string]onnx.Value{info.Name: input}, bound)
	if err != nil {
		destroyAll(bound)
		return nil, fmt.Errorf("检测推理失败: %w", err)
	}
	defer destroyAll(outputs)

	output := outputs[outInfo.Name]
	prob, err := onnx.Float32Data(output)
	if err != nil {
		return nil, fmt.Errorf("获取检测输出失败: %w", err)
	}

	mapH, mapW := int(shape[2]), int(shape[3])
	if len(prob) != mapH*mapW {
		return nil, fmt.Errorf("检测输出大小 %d 与输入 %dx%d 不一致", len(prob), mapW, mapH)
	}

	boxes := extractBoxes(prob, mapW, mapH, detParams{
		threshold:    e.cfg.DetThreshold,
		boxThreshold: e.cfg.BoxThreshold,
		unclipRatio:  e.cfg.UnclipRatio,
	})
	return scaleBoxes(boxes, mapW, mapH, b), nil
}

// RunRecognize 识别一个文本区域
func (e *Engine) RunRecognize(img image.Image, box TextBox) (Line, error) {
	if e.recSession == nil {
		return Line{}, ErrEngineNotReady
	}
	line := Line{Box: box.Box}

	data, shape := preprocessRec(img, box.Box)
	if data == nil {
		return line, nil
	}

	info := e.recSession.Inputs[0]
	input, err := onnx.NewInputTensor(info.DataType, shape, data)
	if err != nil {
		return line, err
	}
	defer input.Destroy()

	// [1, T, C]，T 为输入宽度 / 8，C 为字典大小 + 空白符
	outInfo := e.recSession.Outputs[0]
	classes := int64(len(e.dict) + 1)
	if len(outInfo.Dimensions) == 3 && outInfo.Dimensions[2] > 0 {
		classes = outInfo.Dimensions[2]
	}
	bound, err := halfOutput(outInfo, []int64{1, shape[3] / recStride, classes})
	if err != nil {
		return line, err
	}
	outputs, err := e.recSession.Run(map[string]onnx.Value{info.Name: input}, bound)
	if err != nil {
		destroyAll(bound)
		return line, fmt.Errorf("识别推理失败: %w", err)
	}
	defer destroyAll(outputs)

	output := outputs[outInfo.Name]
	probs, err := onnx.Float32Data(output)
	if err != nil {
		return line, fmt.Errorf("获取识别输出失败: %w", err)
	}

	outShape := output.GetShape()
	if len(outShape) != 3 {
		return line, fmt.Errorf("识别输出形状异常: %v", outShape)
	}
	line.Text, line.Score = ctcDecode(probs, int(outShape[1]), int(outShape[2]), e.dict)
	return line, nil
}

// Recognize 检测并识别整张图片，文本行并发识别但保持顺序，空行被丢弃。
// 空图片返回空结果
func (e *Engine) Recognize(ctx context.Context, img image.Image) (*Result, error) {
	return recognizeAll(ctx, img, e.cfg.Workers, e.RunDetect, e.RunRecognize)
}

func recognizeAll(
	ctx context.Context,
	img image.Image,
	workers int,
	detect func(image.Image) ([]TextBox, error),
	recognize func(image.Image, TextBox) (Line, error),
) (*Result, error) {
	result := &Result{Lines: []Line{}}
	if img.Bounds().Empty() {
		return result, nil
	}

	boxes, err := detect(img)
	if err != nil {
		return nil, err
	}

	lines := make([]Line, len(boxes))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i, box := range boxes {
		i, box := i, box
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			line, err := recognize(img, box)
			if err != nil {
				return err
			}
			lines[i] = line
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, l := range lines {
		if l.Text != "" {
			result.Lines = append(result.Lines, l)
		}
	}
	return result, nil
}

// Run 重复读取图片并识别，onResult 每次收到识别结果，返回总耗时
func (e *Engine) Run(ctx context.Context, imagePath string, iterations int, onResult func(iter int, r *Result)) (time.Duration, error) {
	start := time.Now()
	for i := 0; i < max(iterations, 1); i++ {
		if err := ctx.Err(); err != nil {
			return time.Since(start), err
		}

		img, err := winml.LoadImage(imagePath)
		if err != nil {
			return time.Since(start), err
		}
		result, err := e.Recognize(ctx, img)
		if err != nil {
			return time.Since(start), err
		}
		if onResult != nil {
			onResult(i, result)
		}
	}
	return time.Since(start), nil
}

// Destroy 释放会话
func (e *Engine) Destroy() {
	if e.detSession != nil {
		e.detSession.Destroy()
		e.detSession = nil
	}
	if e.recSession != nil {
		e.recSession.Destroy()
		e.recSession = nil
	}
	if e.oc != nil {
		e.oc.Destroy()
		e.oc = nil
	}
}

// halfOutput 半精度输出的形状依赖输入，运行时无法正确分配，按推导的形状预先绑定
func halfOutput(info ort.InputOutputInfo, shape []int64) (map[string]onnx.Value, error) {
	if !onnx.IsHalf(info.DataType) {
		return nil, nil
	}
	v, err := onnx.NewOutputTensorFor(info.DataType, shape)
	if err != nil {
		return nil, fmt.Errorf("预分配输出 %s 失败: %w", info.Name, err)
	}
	return map[string]onnx.Value{info.Name: v}, nil
}

func destroyAll(values map[string]onnx.Value) {
	for _, v := range values {
		if v != nil {
			_ = v.Destroy()
		}
	}
}
