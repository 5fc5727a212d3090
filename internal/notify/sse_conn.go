package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

const sseKeepAliveInterval = 30 * time.Second

// SSEConn streams events to one dashboard over Server-Sent Events.
type SSEConn struct {
	id        string
	writer    http.ResponseWriter
	flusher   http.Flusher
	send      chan Event
	done      chan struct{}
	closeOnce sync.Once
}

func NewSSEConn(w http.ResponseWriter) (*SSEConn, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, http.ErrNotSupported
	}

	return &SSEConn{
		id:      NewConnID(),
		writer:  w,
		flusher: flusher,
		send:    make(chan Event, 128),
		done:    make(chan struct{}),
	}, nil
}

func (c *SSEConn) ID() string {
	return c.id
}

func (c *SSEConn) Send(evt Event) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- evt:
		return true
	default:
		return false
	}
}

func (c *SSEConn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
	})
	return nil
}

// Run writes queued events until the client goes away or the conn closes.
func (c *SSEConn) Run(ctx context.Context) error {
	ticker := time.NewTicker(sseKeepAliveInterval)
	defer ticker.Stop()
	defer func() { _ = c.Close() }()

	for {
		select {
		case evt := <-c.send:
			if err := c.writeEvent(evt); err != nil {
				return err
			}
		case <-ticker.C:
			if err := c.writeKeepAlive(); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return nil
		}
	}
}

func (c *SSEConn) writeEvent(evt Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	if _, err := c.writer.Write([]byte("event: " + string(evt.Kind) + "\n")); err != nil {
		return err
	}
	if _, err := c.writer.Write([]byte("data: ")); err != nil {
		return err
	}
	if _, err := c.writer.Write(data); err != nil {
		return err
	}
	if _, err := c.writer.Write([]byte("\n\n")); err != nil {
		return err
	}

	c.flusher.Flush()
	return nil
}

func (c *SSEConn) writeKeepAlive() error {
	if _, err := c.writer.Write([]byte(":keepalive\n\n")); err != nil {
		return err
	}
	c.flusher.Flush()
	return nil
}
