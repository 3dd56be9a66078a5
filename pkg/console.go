package pkg

import (
	"fmt"
	"io"

	"github.com/mitchellh/colorstring"
)

// Console prints task banners and status messages for humans
type Console struct {
	out      io.Writer
	colorize colorstring.Colorize
}

// NewConsole returns a Console writing to out. Colour codes are stripped unless color is true.
func NewConsole(out io.Writer, color bool) *Console {
	return &Console{
		out: out,
		colorize: colorstring.Colorize{
			Colors:  colorstring.DefaultColors,
			Disable: !color,
			Reset:   true,
		},
	}
}

// printf only colours the format, arguments are printed verbatim
func (c *Console) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.out, c.colorize.Color(format), args...)
}

// Task prints a top-level step
func (c *Console) Task(msg string) {
	c.printf("[blue][bold]==>[default] %s\n", msg)
}

// Subtask prints a message belonging to the last task
func (c *Console) Subtask(msg string) {
	c.printf("[green][bold]  ->[reset] %s\n", msg)
}

// Error prints a failure message
func (c *Console) Error(msg string) {
	c.printf("[red][bold]Error:[reset] %s\n", msg)
}
