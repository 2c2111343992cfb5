// Package network implements the lobby's connection multiplexer: one goroutine,
// locked to its OS thread, accepts and services every client connection by
// waiting on poll(2) instead of dedicating a goroutine to each socket.
package network

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"lobby-server/pkg/logger"
)

var (
	ErrNotInitialized     = errors.New("multiplexer not initialized")
	ErrAlreadyInitialized = errors.New("multiplexer already initialized")
	ErrAlreadyRunning     = errors.New("multiplexer already running")
	ErrServerClosed       = errors.New("multiplexer closed")
	ErrQueueFull          = errors.New("outbound queue full")
)

const (
	DefaultReadBufferSize    = 1024
	DefaultOutboundQueueSize = 64
)

// Options configures a Multiplexer
type Options struct {
	// ReadBufferSize bounds a single read; one byte is held back, so at most
	// ReadBufferSize-1 bytes arrive per read.
	ReadBufferSize int
	// OutboundQueueSize bounds the broadcasts waiting for the loop
	OutboundQueueSize int
	// WriteTimeout is applied to client sockets as SO_SNDTIMEO. Zero disables it.
	WriteTimeout time.Duration
	// Handler produces replies for inbound data. Defaults to EchoHandler.
	Handler Handler
}

// Multiplexer owns the listening socket and every client connection.
//
// Initialize binds the listener; Run services it until Stop is called, the
// context passed to Run is cancelled, or poll fails. Only Broadcast, Stop,
// Close, Port and ConnectionCount may be called from other goroutines.
type Multiplexer struct {
	opts    Options
	handler Handler
	logger  *logger.Logger

	mu          sync.Mutex
	initialized bool
	listenFD    int
	port        int
	wake        *wakePipe

	// loop-owned
	conns []*Conn
	buf   []byte

	outbound chan []byte
	stopped  atomic.Bool
	running  atomic.Bool
	count    atomic.Int64
}

// NewMultiplexer creates a multiplexer. Zero option values take defaults.
func NewMultiplexer(opts Options, log *logger.Logger) *Multiplexer {
	if opts.ReadBufferSize < 2 {
		opts.ReadBufferSize = DefaultReadBufferSize
	}
	if opts.OutboundQueueSize < 1 {
		opts.OutboundQueueSize = DefaultOutboundQueueSize
	}
	handler := opts.Handler
	if handler == nil {
		handler = EchoHandler{}
	}

	return &Multiplexer{
		opts:     opts,
		handler:  handler,
		logger:   log,
		listenFD: -1,
		buf:      make([]byte, opts.ReadBufferSize),
		outbound: make(chan []byte, opts.OutboundQueueSize),
	}
}

// Initialize binds a TCP listener on every local IPv4 interface. Port 0
// lets the OS choose; Port reports the result.
func (m *Multiplexer) Initialize(port int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return ErrAlreadyInitialized
	}
	if m.stopped.Load() {
		return ErrServerClosed
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		m.logger.Error("Failed to create socket: %v", err)
		return fmt.Errorf("failed to create socket: %w", err)
	}
	unix.CloseOnExec(fd)

	fail := func(stage string, err error) error {
		unix.Close(fd)
		m.logger.Error("%s failed on port %d: %v", stage, port, err)
		return fmt.Errorf("%s failed: %w", stage, err)
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return fail("setsockopt", err)
	}
	if err := unix.Bind(fd, &unix.SockaddrInet4{Port: port}); err != nil {
		return fail("bind", err)
	}
	if err := unix.Listen(fd, unix.SOMAXCONN); err != nil {
		return fail("listen", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		return fail("set nonblocking", err)
	}

	sa, err := unix.Getsockname(fd)
	if err != nil {
		return fail("getsockname", err)
	}
	if inet, ok := sa.(*unix.SockaddrInet4); ok {
		port = inet.Port
	}

	wake, err := newWakePipe()
	if err != nil {
		return fail("wake pipe", err)
	}

	m.listenFD = fd
	m.port = port
	m.wake = wake
	m.initialized = true

	m.logger.Info("Server listening on port %d", port)
	return nil
}

// Port returns the bound port, or 0 before Initialize
func (m *Multiplexer) Port() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.port
}

// ConnectionCount returns the number of tracked client connections
func (m *Multiplexer) ConnectionCount() int {
	return int(m.count.Load())
}

// Run services the listener and clients on the calling goroutine. It returns
// nil after Stop or context cancellation, including a Stop that arrives before
// Run, and an error if poll fails with anything other than EINTR. Run after
// Close, or after a previous Run finished, returns ErrServerClosed. Every
// connection is closed on return.
func (m *Multiplexer) Run(ctx context.Context) error {
	m.mu.Lock()
	initialized := m.initialized
	m.mu.Unlock()
	if !initialized {
		return ErrNotInitialized
	}
	if !m.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	if m.stopped.Load() {
		// Stop before the loop started still owns the listener; Close or a
		// finished Run already released it
		err := m.releaseIfHeld()
		m.running.Store(false)
		return err
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer m.shutdown()

	stopWatch := context.AfterFunc(ctx, m.Stop)
	defer stopWatch()

	m.mu.Lock()
	if m.wake == nil {
		m.mu.Unlock()
		return ErrServerClosed
	}
	listenFD := m.listenFD
	wakeFD := m.wake.r
	m.mu.Unlock()

	fds := make([]unix.PollFd, 0, 16)
	for {
		if m.stopped.Load() {
			return nil
		}

		m.flushOutbound()

		fds = append(fds[:0],
			unix.PollFd{Fd: int32(wakeFD), Events: unix.POLLIN},
			unix.PollFd{Fd: int32(listenFD), Events: unix.POLLIN},
		)
		for _, c := range m.conns {
			fds = append(fds, unix.PollFd{Fd: int32(c.fd), Events: unix.POLLIN})
		}

		if _, err := unix.Poll(fds, -1); err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			m.logger.Error("Poll error: %v", err)
			return fmt.Errorf("poll failed: %w", err)
		}

		if fds[0].Revents != 0 {
			m.wakeDrain()
		}
		if m.stopped.Load() {
			return nil
		}

		m.serviceClients(fds[2:])

		if fds[1].Revents&unix.POLLIN != 0 {
			m.acceptOne(listenFD)
		}
	}
}

// Stop makes Run return at its next wake-up. It is safe from any goroutine
// and may be called more than once.
func (m *Multiplexer) Stop() {
	m.stopped.Store(true)
	m.wakeup()
}

// Close stops the multiplexer and releases the listener even if Run never
// started.
func (m *Multiplexer) Close() error {
	m.Stop()
	if !m.running.Load() {
		m.release()
	}
	return nil
}

// Broadcast queues msg for every connected client. The loop writes it at the
// start of its next iteration, best effort: a failed write to one client does
// not affect the others. It never blocks; a full queue drops the message.
func (m *Multiplexer) Broadcast(msg []byte) error {
	if m.stopped.Load() {
		return ErrServerClosed
	}

	payload := append([]byte(nil), msg...)
	select {
	case m.outbound <- payload:
	default:
		m.logger.Warn("Outbound queue full, dropping %d byte broadcast", len(msg))
		return ErrQueueFull
	}

	m.wakeup()
	return nil
}

// BroadcastMessage is Broadcast for text
func (m *Multiplexer) BroadcastMessage(text string) error {
	return m.Broadcast([]byte(text))
}

func (m *Multiplexer) flushOutbound() {
	for {
		select {
		case msg := <-m.outbound:
			for _, c := range m.conns {
				if err := c.write(msg); err != nil {
					m.logger.Debug("Broadcast to %s failed: %v", c, err)
				}
			}
		default:
			return
		}
	}
}

func (m *Multiplexer) acceptOne(listenFD int) {
	nfd, sa, err := unix.Accept(listenFD)
	if err != nil {
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) || errors.Is(err, unix.ECONNABORTED) {
			return
		}
		m.logger.Error("Accept failed: %v", err)
		return
	}
	unix.CloseOnExec(nfd)

	// BSD accept inherits O_NONBLOCK from the listener; client sockets stay blocking
	if err := unix.SetNonblock(nfd, false); err != nil {
		m.logger.Error("Accept failed: %v", err)
		unix.Close(nfd)
		return
	}
	if m.opts.WriteTimeout > 0 {
		tv := unix.NsecToTimeval(m.opts.WriteTimeout.Nanoseconds())
		if err := unix.SetsockoptTimeval(nfd, unix.SOL_SOCKET, unix.SO_SNDTIMEO, &tv); err != nil {
			m.logger.Warn("Could not set write timeout: %v", err)
		}
	}

	c := newConn(nfd, sa)
	m.conns = append(m.conns, c)
	m.count.Add(1)
	m.logger.Info("New connection from %s", c)
}

// serviceClients reads every client poll marked ready. ready[i] belongs to
// m.conns[i]; clients that fail or disconnect are closed and dropped.
func (m *Multiplexer) serviceClients(ready []unix.PollFd) {
	kept := m.conns[:0]
	for i, c := range m.conns {
		if i < len(ready) && ready[i].Revents != 0 && !m.readFrom(c, ready[i].Revents) {
			c.close()
			m.count.Add(-1)
			continue
		}
		kept = append(kept, c)
	}
	for i := len(kept); i < len(m.conns); i++ {
		m.conns[i] = nil
	}
	m.conns = kept
}

// readFrom performs one read and hands the data to the handler. It returns
// false when the connection should be dropped.
func (m *Multiplexer) readFrom(c *Conn, revents int16) bool {
	if revents&unix.POLLNVAL != 0 {
		m.logger.Error("Invalid descriptor for %s", c)
		return false
	}

	n, err := unix.Read(c.fd, m.buf[:len(m.buf)-1])
	if err != nil {
		if errors.Is(err, unix.EINTR) || errors.Is(err, unix.EAGAIN) {
			return true
		}
		m.logger.Error("Read failed for %s: %v", c, err)
		return false
	}
	if n == 0 {
		m.logger.Info("Client disconnected: %s (in=%d out=%d bytes, connected %s)",
			c, c.BytesIn(), c.BytesOut(), time.Since(c.ConnectedAt()).Round(time.Millisecond))
		return false
	}

	data := m.buf[:n]
	c.bytesIn += int64(n)
	m.logger.Debug("Received %d bytes from %s: %q", n, c, data)

	reply := m.handler.HandleData(c, data)
	if len(reply) == 0 {
		return true
	}
	if err := c.write(reply); err != nil {
		m.logger.Error("Write failed for %s: %v", c, err)
		return false
	}
	return true
}

func (m *Multiplexer) wakeup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.wake != nil {
		m.wake.signal()
	}
}

func (m *Multiplexer) wakeDrain() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.wake != nil {
		m.wake.drain()
	}
}

func (m *Multiplexer) shutdown() {
	m.stopped.Store(true)

	for _, c := range m.conns {
		c.close()
	}
	m.conns = nil
	m.count.Store(0)

	m.release()
	m.running.Store(false)
	m.logger.Info("Multiplexer stopped")
}

// releaseIfHeld releases the descriptors if they are still open, returning
// ErrServerClosed if they were already gone
func (m *Multiplexer) releaseIfHeld() error {
	m.mu.Lock()
	held := m.wake != nil
	m.mu.Unlock()
	if !held {
		return ErrServerClosed
	}
	m.release()
	m.logger.Info("Multiplexer stopped before running")
	return nil
}

// release closes the listener and wake pipe; repeat calls do nothing
func (m *Multiplexer) release() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.listenFD >= 0 {
		unix.Close(m.listenFD)
		m.listenFD = -1
	}
	if m.wake != nil {
		m.wake.close()
		m.wake = nil
	}
}
