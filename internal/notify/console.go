package notify

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
)

const (
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorReset  = "\033[0m"
)

// IsTerminal reports whether the file refers to a terminal device.
var IsTerminal = func(file *os.File) bool {
	if file == nil {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Console prints user messages with a status marker, coloured when writing
// to a terminal.
type Console struct {
	mu    sync.Mutex
	out   io.Writer
	color bool
}

// NewConsole writes to file, enabling colours when it is a terminal.
func NewConsole(file *os.File) *Console {
	return &Console{out: file, color: IsTerminal(file)}
}

// NewPlainConsole writes to out without colours.
func NewPlainConsole(out io.Writer) *Console {
	return &Console{out: out}
}

// Warn prints a warning.
func (c *Console) Warn(message string) {
	c.print(colorYellow, "WARN", message)
}

// Error prints a failure.
func (c *Console) Error(message string) {
	c.print(colorRed, "FAIL", message)
}

// Success prints a completed step.
func (c *Console) Success(message string) {
	c.print(colorGreen, "OK", message)
}

func (c *Console) print(color, marker, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.color {
		fmt.Fprintf(c.out, "%s[%s]%s %s\n", color, marker, colorReset, message)
		return
	}
	fmt.Fprintf(c.out, "[%s] %s\n", marker, message)
}
