package termlink

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/b/panelbar/pkg/terminal"
)

const (
	dialAttempts = 10
	dialBackoff  = 100 * time.Millisecond
)

// Client is the agent side of the connection.
type Client struct {
	*link
	term    string
	updates chan terminal.Update
}

// Dial connects to the host socket and announces term with its current
// sizes. The host may still be starting, so a refused connection is
// retried a few times.
func Dial(ctx context.Context, socketPath, term string, sizes terminal.Sizes) (*Client, error) {
	var d net.Dialer
	var nc net.Conn
	var err error
	for i := 0; i < dialAttempts; i++ {
		nc, err = d.DialContext(ctx, "unix", socketPath)
		if err == nil {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(dialBackoff):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", socketPath, err)
	}

	hello, err := NewMessage(MsgHello, sizes)
	if err != nil {
		nc.Close()
		return nil, err
	}
	hello.Term = term
	if err := writeMessage(nc, hello); err != nil {
		nc.Close()
		return nil, fmt.Errorf("hello: %w", err)
	}

	c := &Client{
		link:    newLink(nc, newScanner(nc)),
		term:    term,
		updates: make(chan terminal.Update, 64),
	}
	c.start(c.deliver, func() { close(c.updates) })
	return c, nil
}

func (c *Client) deliver(msg Message) bool {
	u, ok, err := DecodeUpdate(msg)
	if err != nil {
		debugLog.Printf("termlink: %v", err)
		return true
	}
	if !ok {
		return true
	}
	select {
	case c.updates <- u:
		return true
	case <-c.done:
		return false
	}
}

// Term is the id this client announced.
func (c *Client) Term() string { return c.term }

// Updates delivers host output in order. It is closed when the connection
// ends.
func (c *Client) Updates() <-chan terminal.Update { return c.updates }

// Send queues an input event for the host.
func (c *Client) Send(ev terminal.Event) {
	msg, err := EncodeEvent(ev)
	if err != nil {
		debugLog.Printf("termlink: %v", err)
		return
	}
	c.send(msg)
}

// Ping asks the host for a pong; a dead host shows up as a write error.
func (c *Client) Ping() {
	c.send(Message{Type: MsgPing})
}
