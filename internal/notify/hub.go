package notify

import (
	"log/slog"
	"sync"

	"github.com/eleven-am/classwatch/internal/shared"
)

// Conn is one attached dashboard, SSE or WebSocket flavored. Send must not
// block; a conn that cannot keep up reports false and gets detached.
type Conn interface {
	ID() string
	Send(evt Event) bool
	Close() error
}

// Hub fans bus events out to attached dashboard connections.
type Hub struct {
	bus Bus
	log *slog.Logger

	mu    sync.Mutex
	conns map[string]Conn

	cancel func()
	done   chan struct{}
}

func NewHub(bus Bus, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		bus:   bus,
		log:   logger.With("component", "notify_hub"),
		conns: make(map[string]Conn),
	}
}

func (h *Hub) Start() {
	ch, cancel := h.bus.Subscribe(256)
	h.cancel = cancel
	h.done = make(chan struct{})

	go func() {
		defer close(h.done)
		for evt := range ch {
			h.dispatch(evt)
		}
	}()
}

func (h *Hub) Stop() {
	if h.cancel != nil {
		h.cancel()
		<-h.done
	}

	h.mu.Lock()
	conns := make([]Conn, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.conns = make(map[string]Conn)
	h.mu.Unlock()

	for _, c := range conns {
		_ = c.Close()
	}
}

func (h *Hub) Attach(c Conn) {
	h.mu.Lock()
	h.conns[c.ID()] = c
	count := len(h.conns)
	h.mu.Unlock()
	h.log.Info("dashboard attached", "conn_id", c.ID(), "total", count)
}

func (h *Hub) Detach(id string) {
	h.mu.Lock()
	c, ok := h.conns[id]
	if ok {
		delete(h.conns, id)
	}
	h.mu.Unlock()

	if ok {
		_ = c.Close()
		h.log.Info("dashboard detached", "conn_id", id)
	}
}

func (h *Hub) ConnCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *Hub) dispatch(evt Event) {
	h.mu.Lock()
	conns := make([]Conn, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		if !c.Send(evt) {
			h.log.Warn("dropping slow dashboard connection", "conn_id", c.ID())
			h.Detach(c.ID())
		}
	}
}

// NewConnID tags a dashboard connection.
func NewConnID() string {
	return shared.NewID("conn_")
}
