package termlink

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/b/panelbar/pkg/terminal"
)

const helloTimeout = 10 * time.Second

// Conn is the host side of one agent connection.
type Conn struct {
	*link
	term   string
	sizes  terminal.Sizes
	events chan terminal.Event
}

func newConn(nc net.Conn, scanner *bufio.Scanner, term string, sizes terminal.Sizes) *Conn {
	c := &Conn{
		link:   newLink(nc, scanner),
		term:   term,
		sizes:  sizes,
		events: make(chan terminal.Event, 64),
	}
	c.start(c.deliver, func() { close(c.events) })
	return c
}

func (c *Conn) deliver(msg Message) bool {
	ev, ok, err := DecodeEvent(msg)
	if err != nil {
		debugLog.Printf("termlink: %s: %v", c.term, err)
		return true
	}
	if !ok {
		return true
	}
	select {
	case c.events <- ev:
		return true
	case <-c.done:
		return false
	}
}

// Term is the id the agent announced.
func (c *Conn) Term() string { return c.term }

// Sizes reported in the handshake.
func (c *Conn) Sizes() terminal.Sizes { return c.sizes }

// Events delivers agent input. It is closed when the connection ends.
func (c *Conn) Events() <-chan terminal.Event { return c.events }

// Send queues an update. It never blocks; updates after the connection
// ended are dropped.
func (c *Conn) Send(u terminal.Update) {
	msg, err := EncodeUpdate(u)
	if err != nil {
		debugLog.Printf("termlink: %s: %v", c.term, err)
		return
	}
	c.send(msg)
}

// Server accepts agent connections and hands them to whoever waits for
// their terminal id.
type Server struct {
	socketPath string
	pidPath    string
	listener   net.Listener
	done       chan struct{}
	stopOnce   sync.Once

	mu      sync.Mutex
	pending map[string]*Conn
	waiters map[string]chan *Conn
}

// NewServer creates a server for the given runtime directory and instance.
func NewServer(runtimeDir, instance string) *Server {
	return &Server{
		socketPath: SocketPath(runtimeDir, instance),
		pidPath:    PidPath(runtimeDir, instance),
		done:       make(chan struct{}),
		pending:    make(map[string]*Conn),
		waiters:    make(map[string]chan *Conn),
	}
}

// Start begins listening for agent connections
func (s *Server) Start() error {
	if err := s.checkAndClaimPid(); err != nil {
		return err
	}

	// Remove stale socket if exists (safe now that we own the pidfile)
	removeStale(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		removeStale(s.pidPath)
		return fmt.Errorf("failed to listen on socket: %w", err)
	}
	s.listener = listener

	go s.acceptLoop()
	return nil
}

// checkAndClaimPid checks for an existing host and claims the pidfile
func (s *Server) checkAndClaimPid() error {
	if data, err := os.ReadFile(s.pidPath); err == nil {
		pidStr := strings.TrimSpace(string(data))
		if pid, err := strconv.Atoi(pidStr); err == nil && pid > 0 && pid != os.Getpid() {
			if process, err := os.FindProcess(pid); err == nil {
				// On Unix, FindProcess always succeeds, so we need to send signal 0
				if err := process.Signal(syscall.Signal(0)); err == nil {
					return fmt.Errorf("panelbar already running with pid %d", pid)
				}
			}
		}
		removeStale(s.pidPath)
	}

	if err := os.WriteFile(s.pidPath, []byte(strconv.Itoa(os.Getpid())), 0644); err != nil {
		return fmt.Errorf("failed to write pidfile: %w", err)
	}
	return nil
}

// Stop closes the listener and every connection
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		if s.listener != nil {
			s.listener.Close()
		}
		s.mu.Lock()
		for term, c := range s.pending {
			c.Close()
			delete(s.pending, term)
		}
		s.mu.Unlock()
		removeStale(s.socketPath)
		removeStale(s.pidPath)
	})
}

// SocketPath is where agents connect.
func (s *Server) SocketPath() string {
	return s.socketPath
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				debugLog.Printf("termlink: accept: %v", err)
				time.Sleep(100 * time.Millisecond)
				continue
			}
		}
		go s.handleClient(conn)
	}
}

// handleClient reads the hello and registers the connection.
func (s *Server) handleClient(nc net.Conn) {
	scanner := newScanner(nc)
	nc.SetReadDeadline(time.Now().Add(helloTimeout))
	if !scanner.Scan() {
		debugLog.Printf("termlink: no hello: %v", scanner.Err())
		nc.Close()
		return
	}
	nc.SetReadDeadline(time.Time{})

	var msg Message
	if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil || msg.Type != MsgHello || msg.Term == "" {
		debugLog.Printf("termlink: %v from %s", ErrHandshake, nc.RemoteAddr())
		nc.Close()
		return
	}
	var sizes terminal.Sizes
	if len(msg.Payload) > 0 {
		if err := msg.Decode(&sizes); err != nil {
			debugLog.Printf("termlink: %s: %v", msg.Term, err)
		}
	}
	debugLog.Printf("termlink: %s connected (%s cells, %s px)", msg.Term, sizes.Cells, sizes.Pixels)
	s.deliver(newConn(nc, scanner, msg.Term, sizes))
}

func (s *Server) deliver(c *Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.done:
		c.Close()
		return
	default:
	}
	if w, ok := s.waiters[c.term]; ok {
		delete(s.waiters, c.term)
		w <- c
		return
	}
	if old, ok := s.pending[c.term]; ok {
		old.Close()
	}
	s.pending[c.term] = c
}

// Accept waits for the agent announcing term to connect.
func (s *Server) Accept(ctx context.Context, term string) (*Conn, error) {
	s.mu.Lock()
	if c, ok := s.pending[term]; ok {
		delete(s.pending, term)
		s.mu.Unlock()
		return c, nil
	}
	w := make(chan *Conn, 1)
	s.waiters[term] = w
	s.mu.Unlock()

	abandon := func() {
		s.mu.Lock()
		if s.waiters[term] == w {
			delete(s.waiters, term)
		}
		s.mu.Unlock()
		select {
		case c := <-w:
			c.Close()
		default:
		}
	}

	select {
	case c := <-w:
		return c, nil
	case <-ctx.Done():
		abandon()
		return nil, ctx.Err()
	case <-s.done:
		abandon()
		return nil, ErrClosed
	}
}
