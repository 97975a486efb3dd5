// Package host runs the bar: it composes what the modules publish, drives one
// bar and one menu panel per monitor, and routes clicks back to the modules.
package host

import (
	"io"
	"log"
	"sync"

	"github.com/b/panelbar/pkg/menu"
	"github.com/b/panelbar/pkg/tui"
	"github.com/b/panelbar/pkg/watch"
)

var debugLog = log.New(io.Discard, "", 0)

// SetDebugLog sets the logger for monitor loops and the supervisor.
func SetDebugLog(l *log.Logger) {
	if l != nil {
		debugLog = l
	}
}

// Interaction is a resolved mouse interaction with a module's element.
type Interaction struct {
	Monitor string
	// InMenu is set when the element is inside an open menu.
	InMenu bool
	Kind   tui.InteractKind
	Tag    tui.InteractTag
	// Shell runs a command detached from the panel the event came from.
	Shell func(cmd string, args ...string)
}

// Handler receives interactions for the tags it was registered with. It
// runs on the monitor loop and must not block.
type Handler func(Interaction)

// Layout orders region ids within the three bar sections.
type Layout struct {
	Left, Center, Right []string
}

type entry struct {
	menus   menu.Menus
	handler Handler
}

// Registry is where modules publish bar regions and menus. It is safe for
// concurrent use; every change bumps Revision.
type Registry struct {
	mu      sync.Mutex
	layout  Layout
	shared  map[string]tui.Elem
	byMon   map[string]map[string]tui.Elem
	entries map[tui.InteractTag]entry
	hidden  map[string]bool
	// bars holds the composed bar per monitor until a region or the layout
	// changes. Menus and handlers do not affect it.
	bars map[string]tui.Elem
	rev  *watch.Value[uint64]
}

func NewRegistry(layout Layout) *Registry {
	return &Registry{
		layout:  layout,
		shared:  make(map[string]tui.Elem),
		byMon:   make(map[string]map[string]tui.Elem),
		entries: make(map[tui.InteractTag]entry),
		hidden:  make(map[string]bool),
		bars:    make(map[string]tui.Elem),
		rev:     watch.New[uint64](0),
	}
}

// Revision changes whenever anything in the registry does.
func (r *Registry) Revision() *watch.Receiver[uint64] {
	return r.rev.Subscribe()
}

// dropBars forgets every composed bar. r.mu must be held.
func (r *Registry) dropBars() {
	clear(r.bars)
}

func (r *Registry) changed() {
	r.rev.Update(func(v uint64) uint64 { return v + 1 })
}

func (r *Registry) SetLayout(l Layout) {
	r.mu.Lock()
	r.layout = l
	r.dropBars()
	r.mu.Unlock()
	r.changed()
}

// SetShared publishes the region id for every monitor.
func (r *Registry) SetShared(id string, e tui.Elem) {
	r.mu.Lock()
	r.shared[id] = e
	r.dropBars()
	r.mu.Unlock()
	r.changed()
}

// SetMonitor publishes the region id for one monitor. It takes precedence
// over a shared region with the same id.
func (r *Registry) SetMonitor(id, monitor string, e tui.Elem) {
	r.mu.Lock()
	m := r.byMon[id]
	if m == nil {
		m = make(map[string]tui.Elem)
		r.byMon[id] = m
	}
	m[monitor] = e
	delete(r.bars, monitor)
	r.mu.Unlock()
	r.changed()
}

// Register attaches menus and a handler to tag, replacing earlier ones.
func (r *Registry) Register(tag tui.InteractTag, menus menu.Menus, h Handler) {
	r.mu.Lock()
	r.entries[tag] = entry{menus: menus, handler: h}
	r.mu.Unlock()
	r.changed()
}

func (r *Registry) Unregister(tag tui.InteractTag) {
	r.mu.Lock()
	_, ok := r.entries[tag]
	delete(r.entries, tag)
	r.mu.Unlock()
	if ok {
		r.changed()
	}
}

// Clear drops the region id and every tag starting with id.
func (r *Registry) Clear(id string) {
	r.mu.Lock()
	delete(r.shared, id)
	delete(r.byMon, id)
	r.dropBars()
	for tag := range r.entries {
		if tag.HasPrefix(id) {
			delete(r.entries, tag)
		}
	}
	r.mu.Unlock()
	r.changed()
}

// SetHidden hides or shows the bar on a monitor.
func (r *Registry) SetHidden(monitor string, hidden bool) {
	r.mu.Lock()
	old := r.hidden[monitor]
	r.hidden[monitor] = hidden
	r.mu.Unlock()
	if old != hidden {
		r.changed()
	}
}

func (r *Registry) Hidden(monitor string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hidden[monitor]
}

// Menus implements menu.Source.
func (r *Registry) Menus(tag tui.InteractTag) (menu.Menus, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[tag]
	return e.menus, ok
}

// Route hands ev to the handler registered for its tag. It reports whether
// there was one.
func (r *Registry) Route(ev Interaction) bool {
	r.mu.Lock()
	e, ok := r.entries[ev.Tag]
	r.mu.Unlock()
	if !ok || e.handler == nil {
		return false
	}
	e.handler(ev)
	return true
}

func (r *Registry) region(id, monitor string) tui.Elem {
	if m, ok := r.byMon[id]; ok {
		if e, ok := m[monitor]; ok {
			return e
		}
	}
	return r.shared[id]
}

func (r *Registry) section(ids []string, monitor string) tui.Elem {
	b := tui.NewStackBuilder(tui.AxisX)
	for _, id := range ids {
		e := r.region(id, monitor)
		if e.IsEmpty() {
			continue
		}
		if b.Len() > 0 {
			b.Spacing(1)
		}
		b.Fit(e)
	}
	return b.Build()
}

// Bar composes the bar for monitor: left, center and right sections with
// the free space split evenly around the center. The same element is
// returned until one of its regions or the layout changes.
func (r *Registry) Bar(monitor string) tui.Elem {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.bars[monitor]; ok {
		return e
	}
	row := tui.NewStackBuilder(tui.AxisX).
		Spacing(1).
		Fit(r.section(r.layout.Left, monitor)).
		Fill(1, tui.Empty()).
		Fit(r.section(r.layout.Center, monitor)).
		Fill(1, tui.Empty()).
		Fit(r.section(r.layout.Right, monitor)).
		Spacing(1).
		Build()
	e := tui.Center(tui.AxisY, row)
	r.bars[monitor] = e
	return e
}
