//go:build darwin
// +build darwin

package rebuildlog

import (
	"os"

	"golang.org/x/sys/unix"
)

const SupportsColorEscapes = true

// GetTerminalInfo asks the kernel whether file is a TTY via the same
// termios ioctl esbuild's own terminal detection uses.
func GetTerminalInfo(file *os.File) (info TerminalInfo) {
	fd := int(file.Fd())
	if _, err := unix.IoctlGetTermios(fd, unix.TIOCGETA); err == nil {
		info.IsTTY = true
		info.UseColorEscapes = os.Getenv("NO_COLOR") == "" && os.Getenv("TERM") != "dumb"
	}
	return
}

func writeStringWithColor(file *os.File, text string) {
	file.WriteString(text)
}
