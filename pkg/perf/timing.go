// Package perf logs how long rendering takes. Set PANELBAR_PERF=1 to enable;
// lines go to panelbar-perf.log in the state directory.
package perf

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/b/panelbar/pkg/paths"
)

var (
	mu      sync.Mutex
	out     io.Writer
	enabled bool
	once    sync.Once
)

func setup() {
	once.Do(func() {
		if os.Getenv("PANELBAR_PERF") != "1" {
			return
		}
		if _, err := paths.EnsureStateDir(); err != nil {
			return
		}
		f, err := os.OpenFile(paths.StatePath("panelbar-perf.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return
		}
		out, enabled = f, true
	})
}

// SetOutput enables logging to w, or disables it for nil.
func SetOutput(w io.Writer) {
	once.Do(func() {})
	mu.Lock()
	out, enabled = w, w != nil
	mu.Unlock()
}

// Timer tracks elapsed time for a named operation
type Timer struct {
	name  string
	start time.Time
}

// Start begins timing an operation
func Start(name string) *Timer {
	return &Timer{name: name, start: time.Now()}
}

// Stop ends timing and logs the result
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Log("%s: %v", t.name, elapsed)
	return elapsed
}

// Track times fn.
func Track(name string, fn func()) time.Duration {
	t := Start(name)
	fn()
	return t.Stop()
}

// Log writes a custom message to the perf log
func Log(format string, args ...interface{}) {
	if !IsEnabled() {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(out, "%s: %s\n", time.Now().Format("15:04:05.000"), fmt.Sprintf(format, args...))
}

// IsEnabled returns whether performance logging is enabled
func IsEnabled() bool {
	setup()
	mu.Lock()
	defer mu.Unlock()
	return enabled
}
