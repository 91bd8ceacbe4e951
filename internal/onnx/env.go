package onnx

import (
	"fmt"
	"log/slog"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var (
	envMu   sync.Mutex
	envRefs int
	envLib  string
)

// acquireEnvironment 进程内只初始化一次环境，之后按引用计数共享
func acquireEnvironment(libPath string) error {
	envMu.Lock()
	defer envMu.Unlock()

	if envRefs > 0 {
		if libPath != "" && libPath != envLib {
			return fmt.Errorf("onnxruntime 已使用 %s 初始化, 无法切换到 %s", envLib, libPath)
		}
		envRefs++
		return nil
	}

	if libPath == "" {
		return fmt.Errorf("未指定 onnxruntime 库路径")
	}
	ort.SetSharedLibraryPath(libPath)
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("初始化 onnxruntime 失败: %w", err)
	}
	slog.Debug("onnxruntime 已初始化", "lib", libPath, "version", ort.GetVersion())

	envLib = libPath
	envRefs = 1
	return nil
}

func releaseEnvironment() {
	envMu.Lock()
	defer envMu.Unlock()

	if envRefs == 0 {
		return
	}
	envRefs--
	if envRefs > 0 {
		return
	}
	if err := ort.DestroyEnvironment(); err != nil {
		slog.Warn("释放 onnxruntime 失败", "error", err)
	}
	envLib = ""
}
