package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	winml "github.com/getcharzp/go-winml"
	"github.com/getcharzp/go-winml/classify"
	"github.com/getcharzp/go-winml/envconfig"
	"github.com/getcharzp/go-winml/ocr"
)

// NewCLI 构建命令行
func NewCLI() *cobra.Command {
	cobra.EnableCommandSorting = false

	rootCmd := &cobra.Command{
		Use:           "winml",
		Short:         "Image classification and OCR on ONNX Runtime",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().String("lib", "", "onnxruntime shared library (env WINML_ORT_LIB)")
	rootCmd.PersistentFlags().String("device", "", "execution device: default, cpu, directx, directx-high-performance, directx-min-power, cuda, coreml (env WINML_DEVICE)")
	rootCmd.PersistentFlags().Int("threads", 0, "intra-op threads, 0 lets the runtime decide (env WINML_THREADS)")

	rootCmd.AddCommand(
		newClassifyCmd(),
		newOCRCmd(),
		newInspectCmd(),
		newLanguagesCmd(),
		newEnvCmd(),
	)
	return rootCmd
}

func newClassifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify IMAGE",
		Short: "Classify an image repeatedly and report throughput",
		Args:  cobra.ExactArgs(1),
		RunE:  ClassifyHandler,
	}
	def := classify.DefaultConfig()
	cmd.Flags().StringP("model", "m", def.ModelPath, "ONNX classification model")
	cmd.Flags().String("labels", "", "class labels, one per line")
	cmd.Flags().IntP("iterations", "n", def.Iterations, "number of evaluations")
	cmd.Flags().Int("warmup", 0, "untimed evaluations before the loop")
	cmd.Flags().Int("top", def.TopK, "predictions to print per evaluation")
	cmd.Flags().String("input", def.InputName, "input tensor name, empty for the first declared input")
	cmd.Flags().String("output", def.OutputName, "output tensor name, empty for the first declared output")
	cmd.Flags().String("output-shape", "1,1000,1,1", "pre-bound output shape, empty to let the runtime allocate")
	cmd.Flags().Bool("softmax", false, "apply softmax to the output")
	cmd.Flags().Bool("rgb", false, "feed RGB instead of BGR")
	cmd.Flags().Bool("imagenet", false, "normalise pixels with ImageNet mean/std (implies --rgb)")
	cmd.Flags().Bool("no-reload", false, "decode the image once instead of every iteration")
	cmd.Flags().BoolP("quiet", "q", false, "only print the summary")
	return cmd
}

func newOCRCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ocr IMAGE",
		Short: "Extract lines of text from an image",
		Args:  cobra.ExactArgs(1),
		RunE:  OCRHandler,
	}
	cmd.Flags().String("lang", "", "BCP-47 language tag (env WINML_OCR_LANG, default zh-Hans)")
	cmd.Flags().String("weights", "", "directory holding det.onnx, rec*.onnx and dict*.txt (env WINML_OCR_WEIGHTS)")
	cmd.Flags().String("det", "", "detection model, overrides --weights")
	cmd.Flags().String("rec", "", "recognition model, overrides --weights")
	cmd.Flags().String("dict", "", "recognition dictionary, overrides --weights")
	cmd.Flags().IntP("iterations", "n", 1, "number of recognitions")
	cmd.Flags().Int("workers", 1, "lines recognised concurrently")
	cmd.Flags().String("draw", "", "write the image with detected boxes to this path")
	return cmd
}

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect MODEL",
		Short: "Print a model's metadata and declared inputs and outputs",
		Args:  cobra.ExactArgs(1),
		RunE:  InspectHandler,
	}
	cmd.Flags().Bool("color", false, "colourise output (disabled by WINML_NOCOLOR)")
	return cmd
}

func newLanguagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List OCR languages",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, l := range ocr.AvailableLanguages() {
				fmt.Fprintln(cmd.OutOrStdout(), l)
			}
		},
	}
}

func newEnvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Show environment configuration",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			writeEnv(cmd.OutOrStdout(), envconfig.AsMap())
		},
	}
}

func writeEnv(w io.Writer, vars map[string]envconfig.EnvVar) {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"NAME", "VALUE", "DESCRIPTION"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	for _, k := range keys {
		v := vars[k]
		table.Append([]string{v.Name, fmt.Sprint(v.Value), v.Description})
	}
	table.Render()
}

// runtimeFlags 公共参数，命令行优先于环境变量
type runtimeFlags struct {
	lib     string
	device  winml.Device
	threads int
}

func getRuntimeFlags(cmd *cobra.Command) (runtimeFlags, error) {
	var rf runtimeFlags

	rf.lib, _ = cmd.Flags().GetString("lib")
	if rf.lib == "" {
		rf.lib = envconfig.LibraryPath()
	}
	if rf.lib == "" {
		rf.lib = winml.DefaultLibraryPath()
	}

	name, _ := cmd.Flags().GetString("device")
	if name == "" {
		name = envconfig.Device()
	}
	device, err := winml.ParseDevice(name)
	if err != nil {
		return rf, err
	}
	rf.device = device

	rf.threads, _ = cmd.Flags().GetInt("threads")
	if rf.threads == 0 {
		rf.threads = int(envconfig.Threads())
	}
	return rf, nil
}

// parseShape 解析 "1,1000,1,1"，空串返回 nil
func parseShape(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	shape := make([]int64, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid shape %q: %w", s, err)
		}
		shape = append(shape, n)
	}
	return shape, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func useColor(cmd *cobra.Command) bool {
	color, _ := cmd.Flags().GetBool("color")
	if envconfig.NoColor() {
		return false
	}
	if f, ok := cmd.OutOrStdout().(*os.File); ok && color {
		fi, err := f.Stat()
		return err == nil && fi.Mode()&os.ModeCharDevice != 0
	}
	return color
}
