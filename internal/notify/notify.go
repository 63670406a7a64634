// Package notify announces promoted files to downstream consumers.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Message is published once per promoted file.
type Message struct {
	RunID       string    `json:"run_id"`
	Owner       string    `json:"owner"`
	Bucket      string    `json:"bucket"`
	Key         string    `json:"key"`
	Destination string    `json:"destination"`
	Rows        int       `json:"rows"`
	PromotedAt  time.Time `json:"promoted_at"`
}

// Notifier delivers promotion messages.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Nop drops every message.
type Nop struct{}

func (Nop) Notify(context.Context, Message) error { return nil }

// publisher is the subset of *nats.Conn used here.
type publisher interface {
	Publish(subject string, data []byte) error
}

// NATS publishes messages as JSON on a single subject.
type NATS struct {
	conn    publisher
	subject string
	close   func()
}

// Dial connects to the NATS server at url.
func Dial(url, subject string, timeout time.Duration) (*NATS, error) {
	nc, err := nats.Connect(url,
		nats.Name("ticketcast"),
		nats.Timeout(timeout),
		nats.MaxReconnects(5),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATS{conn: nc, subject: subject, close: nc.Close}, nil
}

// Notify publishes msg. The context is checked but not passed through,
// since core NATS publish is fire-and-forget.
func (n *NATS) Notify(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", n.subject, err)
	}
	return nil
}

// Close closes the connection.
func (n *NATS) Close() {
	if n.close != nil {
		n.close()
	}
}
