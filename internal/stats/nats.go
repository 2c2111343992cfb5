package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Publisher is the part of a NATS connection the sink needs
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSSink publishes snapshots as SERVER_STATS JSON messages on a subject
type NATSSink struct {
	pub     Publisher
	conn    *nats.Conn
	subject string
}

// NewNATSSink connects to the NATS server at url
func NewNATSSink(url, subject string) (*NATSSink, error) {
	conn, err := nats.Connect(url,
		nats.Name("lobby-server"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSSink{pub: conn, conn: conn, subject: subject}, nil
}

// NewPublisherSink wraps an existing publisher, such as a shared NATS connection
func NewPublisherSink(pub Publisher, subject string) *NATSSink {
	conn, _ := pub.(*nats.Conn)
	return &NATSSink{pub: pub, conn: conn, subject: subject}
}

func (s *NATSSink) Publish(ctx context.Context, snap Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := snap.Message().ToJSON()
	if err != nil {
		return fmt.Errorf("failed to encode stats: %w", err)
	}
	if err := s.pub.Publish(s.subject, data); err != nil {
		return fmt.Errorf("failed to publish stats: %w", err)
	}
	return nil
}

// Close flushes pending messages and closes a connection the sink opened
func (s *NATSSink) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Drain()
}
