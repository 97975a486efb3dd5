package termlink

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net"
	"sync"
	"time"
)

var debugLog = log.New(io.Discard, "", 0)

// SetDebugLog sets the logger for connection events.
func SetDebugLog(l *log.Logger) {
	if l != nil {
		debugLog = l
	}
}

const (
	writeTimeout = 5 * time.Second
	maxLine      = 16 * 1024 * 1024
)

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	// Frames with images can be large.
	scanner.Buffer(make([]byte, 64*1024), maxLine)
	return scanner
}

func writeMessage(conn net.Conn, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_, err = conn.Write(append(data, '\n'))
	return err
}

// outbox is an unbounded queue drained by a single writer goroutine.
// Pushing never blocks.
type outbox struct {
	mu    sync.Mutex
	items []Message
	ready chan struct{}
}

func newOutbox() *outbox {
	return &outbox{ready: make(chan struct{}, 1)}
}

func (o *outbox) push(msg Message) {
	o.mu.Lock()
	o.items = append(o.items, msg)
	o.mu.Unlock()
	select {
	case o.ready <- struct{}{}:
	default:
	}
}

func (o *outbox) drain() []Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	items := o.items
	o.items = nil
	return items
}

// link is one end of a socket connection: a reader goroutine handing
// messages to deliver and a writer goroutine draining the outbox.
type link struct {
	nc      net.Conn
	scanner *bufio.Scanner
	out     *outbox
	done    chan struct{}
	once    sync.Once
	mu      sync.Mutex
	err     error
}

func newLink(nc net.Conn, scanner *bufio.Scanner) *link {
	return &link{nc: nc, scanner: scanner, out: newOutbox(), done: make(chan struct{})}
}

// start runs the reader and writer. deliver returns false to stop reading;
// finished runs after the reader exits.
func (l *link) start(deliver func(Message) bool, finished func()) {
	go l.writeLoop()
	go func() {
		defer finished()
		l.readLoop(deliver)
	}()
}

func (l *link) readLoop(deliver func(Message) bool) {
	for l.scanner.Scan() {
		var msg Message
		if err := json.Unmarshal(l.scanner.Bytes(), &msg); err != nil {
			debugLog.Printf("termlink: bad message: %v", err)
			continue
		}
		switch msg.Type {
		case MsgPing:
			l.send(Message{Type: MsgPong})
			continue
		case MsgPong:
			continue
		}
		if !deliver(msg) {
			return
		}
	}
	err := l.scanner.Err()
	if err == nil {
		err = ErrClosed
	}
	l.fail(err)
}

func (l *link) writeLoop() {
	for {
		select {
		case <-l.out.ready:
		case <-l.done:
			return
		}
		for _, msg := range l.out.drain() {
			if err := writeMessage(l.nc, msg); err != nil {
				l.fail(err)
				return
			}
		}
	}
}

func (l *link) send(msg Message) {
	select {
	case <-l.done:
		return
	default:
	}
	l.out.push(msg)
}

// fail records the first error and tears the connection down.
func (l *link) fail(err error) {
	l.once.Do(func() {
		l.mu.Lock()
		l.err = err
		l.mu.Unlock()
		close(l.done)
		l.nc.Close()
	})
}

func (l *link) Done() <-chan struct{} { return l.done }

// Err returns why the connection ended, nil while it is open.
func (l *link) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

func (l *link) Close() error {
	l.fail(ErrClosed)
	if err := l.Err(); err != nil && !errors.Is(err, ErrClosed) {
		return err
	}
	return nil
}
