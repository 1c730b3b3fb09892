//go:build windows
// +build windows

package rebuildlog

import (
	"os"
	"syscall"
	"unsafe"
)

const SupportsColorEscapes = true

var (
	kernel32       = syscall.NewLazyDLL("kernel32.dll")
	getConsoleMode = kernel32.NewProc("GetConsoleMode")
)

func GetTerminalInfo(file *os.File) (info TerminalInfo) {
	var mode uint32
	ok, _, _ := getConsoleMode.Call(file.Fd(), uintptr(unsafe.Pointer(&mode)))
	if ok != 0 {
		info.IsTTY = true
		info.UseColorEscapes = os.Getenv("NO_COLOR") == ""
	}
	return
}

func writeStringWithColor(file *os.File, text string) {
	file.WriteString(text)
}
