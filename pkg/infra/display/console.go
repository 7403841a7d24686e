package display

import (
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/m-mizutani/emailfinder/pkg/domain/model"
)

// Console prints every status change as one line. Success lines are green,
// error lines red, pending lines uncolored.
type Console struct {
	mu      sync.Mutex
	w       io.Writer
	prefix  string
	success *color.Color
	failure *color.Color
}

// ConsoleOption is a functional option for Console
type ConsoleOption func(*Console)

// WithPrefix prepends prefix to every line, e.g. the submitted filename
func WithPrefix(prefix string) ConsoleOption {
	return func(c *Console) {
		c.prefix = prefix
	}
}

// WithoutColor disables ANSI colors regardless of the terminal
func WithoutColor() ConsoleOption {
	return func(c *Console) {
		c.success.DisableColor()
		c.failure.DisableColor()
	}
}

// NewConsole creates a Console writing to w
func NewConsole(w io.Writer, opts ...ConsoleOption) *Console {
	c := &Console{
		w:       w,
		success: color.New(color.FgGreen),
		failure: color.New(color.FgRed, color.Bold),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetPending implements interfaces.StatusDisplay
func (c *Console) SetPending() {
	c.println(nil, model.PendingMessage)
}

// SetSuccess implements interfaces.StatusDisplay
func (c *Console) SetSuccess() {
	c.println(c.success, model.SuccessMessage)
}

// SetError implements interfaces.StatusDisplay
func (c *Console) SetError(description string) {
	c.println(c.failure, model.ErrorText(description))
}

func (c *Console) println(col *color.Color, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	line := c.prefix + text
	if col == nil {
		_, _ = io.WriteString(c.w, line+"\n")
		return
	}
	_, _ = col.Fprintln(c.w, line)
}
