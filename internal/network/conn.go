package network

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"
)

// Conn is a client connection tracked by the multiplexer. It is owned by the
// multiplexer's loop goroutine; handlers may read it but must not keep it.
type Conn struct {
	id          string
	fd          int
	remoteAddr  string
	connectedAt time.Time
	bytesIn     int64
	bytesOut    int64
}

func newConn(fd int, sa unix.Sockaddr) *Conn {
	return &Conn{
		id:          uuid.NewString(),
		fd:          fd,
		remoteAddr:  sockaddrString(sa),
		connectedAt: time.Now(),
	}
}

func (c *Conn) ID() string {
	return c.id
}

func (c *Conn) RemoteAddr() string {
	return c.remoteAddr
}

func (c *Conn) ConnectedAt() time.Time {
	return c.connectedAt
}

// BytesIn is the number of bytes read from the client so far
func (c *Conn) BytesIn() int64 {
	return c.bytesIn
}

// BytesOut is the number of bytes written to the client so far
func (c *Conn) BytesOut() int64 {
	return c.bytesOut
}

func (c *Conn) String() string {
	return fmt.Sprintf("%s (%s)", c.remoteAddr, c.id)
}

func (c *Conn) write(data []byte) error {
	n, err := writeAll(c.fd, data)
	c.bytesOut += int64(n)
	return err
}

func (c *Conn) close() {
	unix.Close(c.fd)
}

func writeAll(fd int, data []byte) (int, error) {
	written := 0
	for written < len(data) {
		n, err := unix.Write(fd, data[written:])
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return written, err
		}
		written += n
	}
	return written, nil
}

func sockaddrString(sa unix.Sockaddr) string {
	switch addr := sa.(type) {
	case *unix.SockaddrInet4:
		return net.JoinHostPort(net.IP(addr.Addr[:]).String(), strconv.Itoa(addr.Port))
	case *unix.SockaddrInet6:
		return net.JoinHostPort(net.IP(addr.Addr[:]).String(), strconv.Itoa(addr.Port))
	default:
		return "unknown"
	}
}
