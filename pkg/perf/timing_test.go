package perf

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestTrackLogs(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)

	d := Track("render DP-1/bar", func() { time.Sleep(time.Millisecond) })
	if d < time.Millisecond {
		t.Errorf("Track() = %v, want at least 1ms", d)
	}
	if !strings.Contains(buf.String(), "render DP-1/bar: ") {
		t.Errorf("log = %q, missing timer line", buf.String())
	}
}

func TestDisabled(t *testing.T) {
	SetOutput(nil)
	if IsEnabled() {
		t.Fatal("IsEnabled() = true after SetOutput(nil)")
	}
	Log("dropped %d", 1)
}
