package util

import (
	"fmt"
	"os/exec"
	"runtime"
)

// browserCommands 按优先级列出各平台打开网址的命令
func browserCommands(goos, url string) [][]string {
	switch goos {
	case "windows":
		// rundll32 在 Windows 7 上比 cmd /c start 更稳定
		return [][]string{
			{"rundll32", "url.dll,FileProtocolHandler", url},
			{"explorer", url},
		}
	case "darwin":
		return [][]string{{"open", url}}
	default:
		return [][]string{
			{"xdg-open", url},
			{"google-chrome", url},
			{"firefox", url},
			{"chromium-browser", url},
			{"sensible-browser", url},
		}
	}
}

// OpenBrowser 用系统默认浏览器打开看板地址，依次尝试备选命令
func OpenBrowser(url string) error {
	var lastErr error
	for _, args := range browserCommands(runtime.GOOS, url) {
		if err := exec.Command(args[0], args[1:]...).Start(); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	return fmt.Errorf("open browser failed: %w", lastErr)
}
