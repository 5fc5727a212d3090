package notify

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// WSConn streams events to one dashboard over a WebSocket.
type WSConn struct {
	id   string
	ws   *websocket.Conn
	send chan Event
	done chan struct{}

	closeOnce sync.Once
}

func NewWSConn(ws *websocket.Conn) *WSConn {
	return &WSConn{
		id:   NewConnID(),
		ws:   ws,
		send: make(chan Event, 128),
		done: make(chan struct{}),
	}
}

func (c *WSConn) ID() string {
	return c.id
}

func (c *WSConn) Send(evt Event) bool {
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

func (c *WSConn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
	return nil
}

// WritePump owns all writes on the socket. It returns when the peer goes
// away or the conn is closed.
func (c *WSConn) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer func() { _ = c.Close() }()

	for {
		select {
		case evt := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(evt); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// ReadPump discards inbound frames and keeps the pong deadline fresh.
func (c *WSConn) ReadPump() {
	defer func() { _ = c.Close() }()

	c.ws.SetReadLimit(1024)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			return
		}
	}
}
