package modules

import (
	"context"
	"time"

	"github.com/b/panelbar/pkg/menu"
	"github.com/b/panelbar/pkg/tui"
)

const minClockSleep = 250 * time.Millisecond

// Clock shows the local time, updated when the minute changes.
type Clock struct {
	Format        string
	TooltipFormat string
	env           Env
}

func (c *Clock) Run(ctx context.Context, id string, sink Sink) error {
	defer sink.Clear(id)
	tag := tui.NewTag(id)
	for {
		now := c.env.now()
		c.publish(id, tag, now, sink)
		if !sleep(ctx, untilNextMinute(now)) {
			return nil
		}
	}
}

func (c *Clock) publish(id string, tag tui.InteractTag, now time.Time, sink Sink) {
	style := c.env.style(c.env.Palette.Fg)
	sink.SetShared(id, tui.Text(now.Format(c.Format), style).Interactive(tag))
	var menus menu.Menus
	if c.TooltipFormat != "" {
		menus.Tooltip = c.env.box(tui.Text(now.Format(c.TooltipFormat), style))
	}
	sink.Register(tag, menus, nil)
}

// untilNextMinute never returns less than minClockSleep so a clock that
// is slightly early does not spin.
func untilNextMinute(now time.Time) time.Duration {
	next := now.Truncate(time.Minute).Add(time.Minute)
	return max(next.Sub(now), minClockSleep)
}
