// Package monitoring holds the process-wide diagnostic logger used by the
// parsing and analysis packages.
package monitoring

import (
	"fmt"
	"log"
	"sync"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf.
var Logf func(format string, v ...any) = log.Printf

// SetLogger replaces the package logger and returns a function that
// restores the previous one. Passing nil mutes logging.
func SetLogger(f func(format string, v ...any)) (restore func()) {
	prev := Logf
	if f == nil {
		f = func(string, ...any) {}
	}
	Logf = f
	return func() { Logf = prev }
}

// Capture records formatted log lines. Install it with SetLogger(c.Logf).
type Capture struct {
	mu    sync.Mutex
	lines []string
}

// Logf formats and stores one line.
func (c *Capture) Logf(format string, v ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, fmt.Sprintf(format, v...))
}

// Lines returns a copy of the recorded lines.
func (c *Capture) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}
