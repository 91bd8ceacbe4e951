package winml

import (
	"fmt"
	"runtime"
)

// DefaultLibraryPath 根据运行时环境判断加载哪个库文件
func DefaultLibraryPath() string {
	return libraryPath("./lib/", runtime.GOOS, runtime.GOARCH)
}

func libraryPath(baseDir, goos, goarch string) string {
	libName := "onnxruntime"

	switch goos {
	case "windows":
		return baseDir + libName + ".dll"
	case "darwin":
		return fmt.Sprintf("%s%s_%s.dylib", baseDir, libName, goarch)
	case "linux":
		return fmt.Sprintf("%s%s_%s.so", baseDir, libName, goarch)
	}
	return baseDir + libName + "_amd64.so"
}
