// Package util 启动辅助：打开浏览器、探测端口
package util

import (
	"errors"
	"fmt"
	"net"
	"os/exec"
	"runtime"
)

// browserCommands 按优先级列出在 goos 上打开 url 的命令
func browserCommands(goos, url string) [][]string {
	switch goos {
	case "windows":
		// rundll32 在 Windows 7 上比 cmd /c start 稳定
		return [][]string{
			{"rundll32", "url.dll,FileProtocolHandler", url},
			{"explorer", url},
		}
	case "darwin":
		return [][]string{{"open", url}}
	default:
		cmds := [][]string{{"xdg-open", url}}
		for _, b := range []string{"google-chrome", "firefox", "chromium-browser", "sensible-browser"} {
			cmds = append(cmds, []string{b, url})
		}
		return cmds
	}
}

// OpenBrowser 依次尝试各候选命令，直到有一个成功启动
func OpenBrowser(url string) error {
	var errs []error
	for _, argv := range browserCommands(runtime.GOOS, url) {
		err := exec.Command(argv[0], argv[1:]...).Start()
		if err == nil {
			return nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", argv[0], err))
	}
	return fmt.Errorf("open browser: %w", errors.Join(errs...))
}

// PortAvailable 端口当前是否可监听
func PortAvailable(port int) bool {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return false
	}
	_ = ln.Close()
	return true
}

// FindAvailablePort 从 startPort 起向后查找可用端口，最多尝试 attempts 个
func FindAvailablePort(startPort, attempts int) (int, error) {
	for i := 0; i < attempts; i++ {
		port := startPort + i
		if port > 65535 {
			break
		}
		if PortAvailable(port) {
			return port, nil
		}
	}
	return 0, fmt.Errorf("no free port in [%d, %d)", startPort, startPort+attempts)
}
