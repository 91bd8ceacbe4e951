package classify

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	winml "github.com/getcharzp/go-winml"
	"github.com/getcharzp/go-winml/internal/util"
)

// NewClassifier 加载模型与可选的类别文件
func NewClassifier(cfg Config) (*Classifier, error) {
	session, err := winml.Build(cfg.ModelPath, cfg.Device,
		winml.WithLibraryPath(cfg.OnnxRuntimeLibPath),
		winml.WithThreads(cfg.IntraOpThreads, 0),
		winml.WithImageFormat(cfg.ImageFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("创建分类会话失败: %w", err)
	}

	c := &Classifier{cfg: cfg, session: session}
	c.scores = c.sessionScores

	if err := c.resolveNames(session.Inputs(), session.Outputs()); err != nil {
		session.Close()
		return nil, err
	}

	if cfg.LabelsPath != "" {
		labels, err := util.LoadDict(cfg.LabelsPath)
		if err != nil {
			session.Close()
			return nil, fmt.Errorf("加载类别失败: %w", err)
		}
		c.labels = labels
	}
	return c, nil
}

// Session 底层模型会话
func (c *Classifier) Session() *winml.ModelSession {
	return c.session
}

// resolveNames 未指定输入输出名时取模型声明的第一个
func (c *Classifier) resolveNames(inputs, outputs []winml.Feature) error {
	if c.cfg.InputName == "" {
		if len(inputs) == 0 {
			return fmt.Errorf("模型 %s 没有声明输入", c.cfg.ModelPath)
		}
		c.cfg.InputName = inputs[0].Name
	}
	if c.cfg.OutputName == "" {
		if len(outputs) == 0 {
			return fmt.Errorf("模型 %s 没有声明输出", c.cfg.ModelPath)
		}
		c.cfg.OutputName = outputs[0].Name
	}
	return nil
}

// Classify 对一张图片推理一次，返回得分最高的 TopK 个类别
func (c *Classifier) Classify(ctx context.Context, img image.Image) ([]Prediction, error) {
	scores, err := c.scores(ctx, img)
	if err != nil {
		return nil, err
	}
	return c.rank(scores), nil
}

func (c *Classifier) sessionScores(ctx context.Context, img image.Image) ([]float32, error) {
	res, err := c.session.Predict(ctx, func(b *winml.Binding) error {
		if err := b.BindImage(c.cfg.InputName, img); err != nil {
			return err
		}
		if len(c.cfg.OutputShape) > 0 {
			return b.BindOutput(c.cfg.OutputName, c.cfg.OutputShape)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	defer res.Destroy()

	return res.Float32s(c.cfg.OutputName)
}

func (c *Classifier) rank(scores []float32) []Prediction {
	if c.cfg.ApplySoftmax {
		scores = util.Softmax(scores)
	}

	k := c.cfg.TopK
	if k <= 0 {
		k = 1
	}
	top := util.TopK(scores, k)
	out := make([]Prediction, len(top))
	for i, idx := range top {
		out[i] = Prediction{Index: idx, Label: c.label(idx), Score: scores[idx]}
	}
	return out
}

func (c *Classifier) label(idx int) string {
	if idx >= 0 && idx < len(c.labels) {
		return c.labels[idx]
	}
	return ""
}

// Run 重复推理并统计耗时。onResult 每次迭代收到排序后的预测，可为 nil。
// ctx 取消时返回已完成迭代的报告和 ctx.Err()。
func (c *Classifier) Run(ctx context.Context, imagePath string, onResult func(iter int, preds []Prediction)) (*Report, error) {
	img, err := winml.LoadImage(imagePath)
	if err != nil {
		return nil, err
	}

	for i := 0; i < c.cfg.Warmup; i++ {
		if _, err := c.Classify(ctx, img); err != nil {
			return nil, fmt.Errorf("预热失败: %w", err)
		}
	}

	iterations := max(c.cfg.Iterations, 1)
	latencies := make([]time.Duration, 0, iterations)
	start := time.Now()

	for i := 0; i < iterations; i++ {
		if err := ctx.Err(); err != nil {
			return newReport(latencies, time.Since(start)), err
		}

		iterStart := time.Now()
		if c.cfg.ReloadImage {
			if img, err = winml.LoadImage(imagePath); err != nil {
				return newReport(latencies, time.Since(start)), err
			}
		}
		preds, err := c.Classify(ctx, img)
		if err != nil {
			return newReport(latencies, time.Since(start)), fmt.Errorf("第 %d 次推理失败: %w", i, err)
		}
		latencies = append(latencies, time.Since(iterStart))

		if onResult != nil {
			onResult(i, preds)
		}
	}

	report := newReport(latencies, time.Since(start))
	slog.Debug("分类完成", "iterations", report.Iterations, "elapsed", report.Elapsed, "throughput", report.Throughput)
	return report, nil
}

// Close 释放会话
func (c *Classifier) Close() {
	if c.session != nil {
		c.session.Close()
	}
}
