package envconfig

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Var 读取环境变量，去掉首尾空白与引号
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}

// String 返回读取字符串变量的函数
func String(key string) func() string {
	return func() string {
		return Var(key)
	}
}

// Bool 返回读取布尔变量的函数，无法解析时记录警告并返回 false
func Bool(key string) func() bool {
	return func() bool {
		if s := Var(key); s != "" {
			b, err := strconv.ParseBool(s)
			if err != nil {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", false)
				return false
			}
			return b
		}
		return false
	}
}

// Uint 返回读取无符号整数变量的函数
func Uint(key string, defaultValue uint) func() uint {
	return func() uint {
		if s := Var(key); s != "" {
			if n, err := strconv.ParseUint(s, 10, 64); err != nil {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			} else {
				return uint(n)
			}
		}
		return defaultValue
	}
}

var (
	// LibraryPath onnxruntime 动态库路径 (WINML_ORT_LIB)
	LibraryPath = String("WINML_ORT_LIB")
	// Device 推理设备名 (WINML_DEVICE)
	Device = String("WINML_DEVICE")
	// Threads 算子内线程数，0 为运行时默认 (WINML_THREADS)
	Threads = Uint("WINML_THREADS", 0)
	// OCRWeights OCR 模型目录 (WINML_OCR_WEIGHTS)
	OCRWeights = String("WINML_OCR_WEIGHTS")
	// OCRLanguage OCR 语言标签 (WINML_OCR_LANG)
	OCRLanguage = String("WINML_OCR_LANG")
	// NoColor 关闭彩色输出 (WINML_NOCOLOR)
	NoColor = Bool("WINML_NOCOLOR")
)

// LogLevel 日志级别 (WINML_DEBUG)。0/false 为 INFO，1/true 为 DEBUG，2 为 TRACE
func LogLevel() slog.Level {
	level := slog.LevelInfo
	if s := Var("WINML_DEBUG"); s != "" {
		if b, err := strconv.ParseBool(s); err == nil {
			if b {
				level = slog.LevelDebug
			}
		} else if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			level = slog.Level(i * -4)
		} else {
			slog.Warn("invalid environment variable, using default", "key", "WINML_DEBUG", "value", s, "default", level)
		}
	}
	return level
}

// EnvVar 一个配置项的说明与当前值
type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap 全部配置项
func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"WINML_ORT_LIB":     {"WINML_ORT_LIB", LibraryPath(), "onnxruntime 动态库路径"},
		"WINML_DEVICE":      {"WINML_DEVICE", Device(), "推理设备 (default, cpu, directx, cuda, coreml ...)"},
		"WINML_THREADS":     {"WINML_THREADS", Threads(), "算子内线程数"},
		"WINML_OCR_WEIGHTS": {"WINML_OCR_WEIGHTS", OCRWeights(), "OCR 模型目录"},
		"WINML_OCR_LANG":    {"WINML_OCR_LANG", OCRLanguage(), "OCR 语言标签"},
		"WINML_NOCOLOR":     {"WINML_NOCOLOR", NoColor(), "关闭彩色输出"},
		"WINML_DEBUG":       {"WINML_DEBUG", LogLevel(), "日志级别"},
	}
}
