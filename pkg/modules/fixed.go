package modules

import (
	"context"

	"github.com/b/panelbar/pkg/tui"
)

// Fixed shows a constant text.
type Fixed struct {
	Text string
	env  Env
}

func (f *Fixed) Run(ctx context.Context, id string, sink Sink) error {
	sink.SetShared(id, tui.Text(f.Text, f.env.style(f.env.Palette.Fg)))
	<-ctx.Done()
	sink.Clear(id)
	return nil
}
