// Package client implements a line-oriented terminal client for the lobby server
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"lobby-server/pkg/logger"
)

const (
	dialTimeout    = 5 * time.Second
	readBufferSize = 1024
)

// Client sends each input line to the server and prints whatever comes back
type Client struct {
	serverAddr string
	display    *Display
	input      *InputHandler
	logger     *logger.Logger

	mu   sync.Mutex
	conn net.Conn
}

// NewClient creates a client reading commands from in
func NewClient(serverAddr string, in io.Reader, display *Display, log *logger.Logger) *Client {
	return &Client{
		serverAddr: serverAddr,
		display:    display,
		input:      NewInputHandler(in),
		logger:     log,
	}
}

// Start connects and runs until the input ends, /quit is entered, ctx is
// cancelled, or the server closes the connection.
func (c *Client) Start(ctx context.Context) error {
	c.display.PrintBanner()

	if err := c.connect(ctx); err != nil {
		c.display.PrintError(fmt.Sprintf("Failed to connect to server: %v", err))
		return err
	}
	defer c.Close()
	conn := c.connection()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		defer cancel()
		c.readLoop(conn)
	}()
	stop := context.AfterFunc(ctx, func() { c.Close() })
	defer stop()

	lines := make(chan string)
	go func() {
		defer close(lines)
		for {
			line, ok := c.input.ReadLine()
			if !ok {
				return
			}
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
	}()

	c.display.PrintSeparator()
	c.display.PrintInfo("Type a message and press Enter. /quit exits.")
	for {
		select {
		case <-ctx.Done():
			<-readDone
			return nil
		case line, ok := <-lines:
			if !ok || line == CmdQuit {
				c.display.PrintServerStatus("Disconnecting")
				return nil
			}
			if line == CmdHelp {
				c.display.PrintInfo("Lines are sent to the server as typed. /quit exits.")
				continue
			}
			if strings.HasPrefix(line, "/") {
				c.display.PrintWarning("Unknown command " + line + ", try " + CmdHelp)
				continue
			}
			if err := c.send(line + "\n"); err != nil {
				c.display.PrintError(fmt.Sprintf("Send failed: %v", err))
				return err
			}
		}
	}
}

func (c *Client) connect(ctx context.Context) error {
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.serverAddr)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	c.display.PrintServerStatus("Connected to " + c.serverAddr)
	c.logger.Info("Connected to server at %s", c.serverAddr)
	return nil
}

func (c *Client) readLoop(conn net.Conn) {
	buf := make([]byte, readBufferSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			c.display.PrintReply(buf[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				c.display.PrintServerStatus("Server closed the connection")
			} else if !errors.Is(err, net.ErrClosed) {
				c.logger.Error("Read failed: %v", err)
			}
			return
		}
	}
}

func (c *Client) send(text string) error {
	conn := c.connection()
	if conn == nil {
		return net.ErrClosed
	}
	_, err := io.WriteString(conn, text)
	return err
}

func (c *Client) connection() net.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}

// Close closes the connection; it is safe to call more than once
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
