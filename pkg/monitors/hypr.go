// Package monitors reads outputs and workspaces from Hyprland.
package monitors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strconv"
	"strings"
)

var ErrNotFound = errors.New("monitor not found")

// MonitorInfo is an enabled output.
type MonitorInfo struct {
	Name   string
	Scale  float64
	Width  uint32
	Height uint32
}

type Workspace struct {
	ID      int
	Name    string
	Monitor string
	Active  bool // shown on its monitor
	Windows int
}

// Desktop is a snapshot of the compositor state.
type Desktop struct {
	Monitors   []MonitorInfo
	Workspaces []Workspace
}

// OnMonitor returns the workspaces of one monitor, ordered by name.
func (d Desktop) OnMonitor(name string) []Workspace {
	var out []Workspace
	for _, ws := range d.Workspaces {
		if ws.Monitor == name {
			out = append(out, ws)
		}
	}
	return out
}

// Find returns the monitor called name.
func Find(mons []MonitorInfo, name string) (MonitorInfo, error) {
	for _, m := range mons {
		if m.Name == name {
			return m, nil
		}
	}
	return MonitorInfo{}, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Diff lists monitors that disappeared and ones that are new or changed.
func Diff(prev, next []MonitorInfo) (removed []string, changed []MonitorInfo) {
	old := make(map[string]MonitorInfo, len(prev))
	for _, m := range prev {
		old[m.Name] = m
	}
	seen := make(map[string]bool, len(next))
	for _, m := range next {
		seen[m.Name] = true
		if o, ok := old[m.Name]; !ok || o != m {
			changed = append(changed, m)
		}
	}
	for _, m := range prev {
		if !seen[m.Name] {
			removed = append(removed, m.Name)
		}
	}
	return removed, changed
}

type hyprMonitor struct {
	ID              int     `json:"id"`
	Name            string  `json:"name"`
	Width           uint32  `json:"width"`
	Height          uint32  `json:"height"`
	Scale           float64 `json:"scale"`
	Disabled        bool    `json:"disabled"`
	ActiveWorkspace struct {
		ID int `json:"id"`
	} `json:"activeWorkspace"`
}

type hyprWorkspace struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Monitor string `json:"monitor"`
	Windows int    `json:"windows"`
}

func hyprctl(ctx context.Context, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, "hyprctl", args...).Output()
	if err != nil {
		return nil, fmt.Errorf("hyprctl %s failed: %w", strings.Join(args, " "), err)
	}
	return out, nil
}

func parseMonitors(data []byte) ([]hyprMonitor, error) {
	var raw []hyprMonitor
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse monitors: %w", err)
	}
	out := raw[:0]
	for _, m := range raw {
		if !m.Disabled {
			out = append(out, m)
		}
	}
	return out, nil
}

// ParseMonitors decodes `hyprctl monitors -j`, skipping disabled outputs.
func ParseMonitors(data []byte) ([]MonitorInfo, error) {
	raw, err := parseMonitors(data)
	if err != nil {
		return nil, err
	}
	mons := make([]MonitorInfo, 0, len(raw))
	for _, m := range raw {
		mons = append(mons, MonitorInfo{Name: m.Name, Scale: m.Scale, Width: m.Width, Height: m.Height})
	}
	return mons, nil
}

// ParseDesktop combines `hyprctl monitors -j` and `hyprctl workspaces -j`.
func ParseDesktop(monitorData, workspaceData []byte) (Desktop, error) {
	raw, err := parseMonitors(monitorData)
	if err != nil {
		return Desktop{}, err
	}
	var wss []hyprWorkspace
	if err := json.Unmarshal(workspaceData, &wss); err != nil {
		return Desktop{}, fmt.Errorf("parse workspaces: %w", err)
	}

	active := make(map[string]int, len(raw))
	var d Desktop
	for _, m := range raw {
		active[m.Name] = m.ActiveWorkspace.ID
		d.Monitors = append(d.Monitors, MonitorInfo{Name: m.Name, Scale: m.Scale, Width: m.Width, Height: m.Height})
	}
	for _, ws := range wss {
		// Special workspaces have negative ids.
		if ws.ID < 0 {
			continue
		}
		id, ok := active[ws.Monitor]
		d.Workspaces = append(d.Workspaces, Workspace{
			ID:      ws.ID,
			Name:    ws.Name,
			Monitor: ws.Monitor,
			Active:  ok && id == ws.ID,
			Windows: ws.Windows,
		})
	}
	sort.SliceStable(d.Workspaces, func(i, j int) bool {
		return lessName(d.Workspaces[i].Name, d.Workspaces[j].Name)
	})
	return d, nil
}

// lessName orders numeric names numerically, before any other names.
func lessName(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		return na < nb
	case errA == nil:
		return true
	case errB == nil:
		return false
	}
	return a < b
}

// ListMonitors returns the enabled outputs.
func ListMonitors(ctx context.Context) ([]MonitorInfo, error) {
	out, err := hyprctl(ctx, "monitors", "-j")
	if err != nil {
		return nil, err
	}
	return ParseMonitors(out)
}

// Snapshot fetches monitors and workspaces.
func Snapshot(ctx context.Context) (Desktop, error) {
	mons, err := hyprctl(ctx, "monitors", "-j")
	if err != nil {
		return Desktop{}, err
	}
	wss, err := hyprctl(ctx, "workspaces", "-j")
	if err != nil {
		return Desktop{}, err
	}
	return ParseDesktop(mons, wss)
}

// Dispatch runs a hyprland dispatcher, e.g. Dispatch(ctx, "workspace", "3").
func Dispatch(ctx context.Context, args ...string) error {
	_, err := hyprctl(ctx, append([]string{"dispatch"}, args...)...)
	return err
}
