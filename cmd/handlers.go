package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/up-zero/gotool/imageutil"

	winml "github.com/getcharzp/go-winml"
	"github.com/getcharzp/go-winml/classify"
	"github.com/getcharzp/go-winml/envconfig"
	"github.com/getcharzp/go-winml/ocr"
)

// ClassifyHandler 重复分类一张图片并输出耗时
func ClassifyHandler(cmd *cobra.Command, args []string) error {
	rf, err := getRuntimeFlags(cmd)
	if err != nil {
		return err
	}

	cfg := classify.DefaultConfig()
	cfg.OnnxRuntimeLibPath = rf.lib
	cfg.Device = rf.device
	cfg.IntraOpThreads = rf.threads
	cfg.ModelPath, _ = cmd.Flags().GetString("model")
	cfg.LabelsPath, _ = cmd.Flags().GetString("labels")
	cfg.Iterations, _ = cmd.Flags().GetInt("iterations")
	cfg.Warmup, _ = cmd.Flags().GetInt("warmup")
	cfg.TopK, _ = cmd.Flags().GetInt("top")
	cfg.InputName, _ = cmd.Flags().GetString("input")
	cfg.OutputName, _ = cmd.Flags().GetString("output")
	cfg.ApplySoftmax, _ = cmd.Flags().GetBool("softmax")

	shape, _ := cmd.Flags().GetString("output-shape")
	if cfg.OutputShape, err = parseShape(shape); err != nil {
		return err
	}
	if rgb, _ := cmd.Flags().GetBool("rgb"); rgb {
		cfg.ImageFormat.Order = winml.ChannelRGB
	}
	if imagenet, _ := cmd.Flags().GetBool("imagenet"); imagenet {
		cfg.ImageFormat = winml.ImageNetFormat
	}
	if noReload, _ := cmd.Flags().GetBool("no-reload"); noReload {
		cfg.ReloadImage = false
	}
	quiet, _ := cmd.Flags().GetBool("quiet")

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Loading model file %s on the %s device\n\n", cfg.ModelPath, cfg.Device)

	c, err := classify.NewClassifier(cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	report, err := c.Run(commandContext(cmd), args[0], func(_ int, preds []classify.Prediction) {
		if quiet {
			return
		}
		for _, p := range preds {
			if p.Label != "" {
				fmt.Fprintf(out, "res:%d %g %s\n", p.Index, p.Score, p.Label)
			} else {
				fmt.Fprintf(out, "res:%d %g\n", p.Index, p.Score)
			}
		}
	})
	if report != nil {
		fmt.Fprintln(out, report.Elapsed)
		report.Write(out)
	}
	return err
}

// OCRHandler 识别图片中的文字
func OCRHandler(cmd *cobra.Command, args []string) error {
	rf, err := getRuntimeFlags(cmd)
	if err != nil {
		return err
	}

	cfg := ocr.Config{
		OnnxRuntimeLibPath: rf.lib,
		Device:             rf.device,
		IntraOpThreads:     rf.threads,
	}
	cfg.Language, _ = cmd.Flags().GetString("lang")
	if cfg.Language == "" {
		cfg.Language = envconfig.OCRLanguage()
	}
	cfg.WeightsDir, _ = cmd.Flags().GetString("weights")
	if cfg.WeightsDir == "" {
		cfg.WeightsDir = envconfig.OCRWeights()
	}
	cfg.DetModelPath, _ = cmd.Flags().GetString("det")
	cfg.RecModelPath, _ = cmd.Flags().GetString("rec")
	cfg.DictPath, _ = cmd.Flags().GetString("dict")
	cfg.Workers, _ = cmd.Flags().GetInt("workers")
	iterations, _ := cmd.Flags().GetInt("iterations")
	drawPath, _ := cmd.Flags().GetString("draw")

	engine, err := ocr.NewEngine(cfg)
	if err != nil {
		return err
	}
	defer engine.Destroy()
	slog.Debug("OCR", "language", engine.Language().String(), "device", rf.device.String())

	out := cmd.OutOrStdout()
	elapsed, err := engine.Run(commandContext(cmd), args[0], iterations, func(_ int, r *ocr.Result) {
		fmt.Fprintln(out, len(r.Lines))
		for _, l := range r.Lines {
			fmt.Fprintln(out, l.Text)
		}
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(out, elapsed)

	if drawPath != "" {
		return drawDetections(engine, args[0], drawPath)
	}
	return nil
}

func drawDetections(engine *ocr.Engine, imagePath, dst string) error {
	img, err := winml.LoadImage(imagePath)
	if err != nil {
		return err
	}
	boxes, err := engine.RunDetect(img)
	if err != nil {
		return err
	}
	if err := imageutil.Save(dst, ocr.DrawBoxes(img, boxes), 100); err != nil {
		return fmt.Errorf("保存图像失败 %s: %w", dst, err)
	}
	return nil
}

// InspectHandler 打印模型信息
func InspectHandler(cmd *cobra.Command, args []string) error {
	rf, err := getRuntimeFlags(cmd)
	if err != nil {
		return err
	}

	start := time.Now()
	session, err := winml.Build(args[0], rf.device,
		winml.WithLibraryPath(rf.lib),
		winml.WithThreads(rf.threads, 0),
	)
	if err != nil {
		return err
	}
	defer session.Close()
	slog.Debug("模型已加载", "path", args[0], "elapsed", time.Since(start))

	return session.Inspect(cmd.OutOrStdout(), useColor(cmd))
}
