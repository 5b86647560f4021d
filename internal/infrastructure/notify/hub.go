package notify

import (
	"context"
	"net/http"
	"sync"
	"time"

	"agentdesk/internal/core/domain"
	"agentdesk/internal/core/ports"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// HubMetrics is the slice of the metrics collector the hub reports to.
type HubMetrics interface {
	StreamConnected()
	StreamDisconnected()
	NotificationDropped()
}

type nopHubMetrics struct{}

func (nopHubMetrics) StreamConnected()     {}
func (nopHubMetrics) StreamDisconnected()  {}
func (nopHubMetrics) NotificationDropped() {}

type Options struct {
	PingInterval   time.Duration
	PongTimeout    time.Duration
	WriteTimeout   time.Duration
	BufferSize     int
	AllowedOrigins []string
}

func (o *Options) setDefaults() {
	if o.PingInterval <= 0 {
		o.PingInterval = 30 * time.Second
	}
	if o.PongTimeout <= 0 {
		o.PongTimeout = 60 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.BufferSize <= 0 {
		o.BufferSize = 16
	}
}

// Hub fans notifications out to the websocket subscribers of each session.
// A subscriber that falls BufferSize messages behind loses the overflow.
type Hub struct {
	opts     Options
	upgrader websocket.Upgrader
	relay    *RedisRelay
	metrics  HubMetrics
	logger   *zap.SugaredLogger

	mu          sync.RWMutex
	subscribers map[domain.SessionID]map[*subscriber]struct{}
}

type subscriber struct {
	send chan domain.Notification
}

func NewHub(opts Options, metrics HubMetrics, logger *zap.SugaredLogger) *Hub {
	opts.setDefaults()
	if metrics == nil {
		metrics = nopHubMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	h := &Hub{
		opts:        opts,
		metrics:     metrics,
		logger:      logger,
		subscribers: make(map[domain.SessionID]map[*subscriber]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

var (
	_ ports.Notifier           = (*Hub)(nil)
	_ ports.NotificationStream = (*Hub)(nil)
)

// UseRelay makes Notify also publish through relay so that subscribers
// connected to other replicas receive it.
func (h *Hub) UseRelay(relay *RedisRelay) {
	h.relay = relay
}

// RunRelay feeds notifications from other replicas into local delivery until
// ctx ends. It returns at once when no relay is set.
func (h *Hub) RunRelay(ctx context.Context, ready chan<- struct{}) error {
	if h.relay == nil {
		return nil
	}
	return h.relay.Run(ctx, func(n domain.Notification) { h.Deliver(n) }, ready)
}

func (h *Hub) Notify(ctx context.Context, n domain.Notification) error {
	h.Deliver(n)
	if h.relay != nil {
		return h.relay.Publish(ctx, n)
	}
	return nil
}

// Deliver hands n to the local subscribers of its session without blocking.
func (h *Hub) Deliver(n domain.Notification) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for sub := range h.subscribers[n.SessionID] {
		select {
		case sub.send <- n:
			delivered++
		default:
			h.metrics.NotificationDropped()
			h.logger.Warnw("Dropping notification for slow subscriber",
				"session_id", n.SessionID,
				"level", n.Level,
			)
		}
	}
	return delivered
}

// Subscribers counts local subscribers of a session.
func (h *Hub) Subscribers(id domain.SessionID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[id])
}

func (h *Hub) subscribe(id domain.SessionID) *subscriber {
	sub := &subscriber{send: make(chan domain.Notification, h.opts.BufferSize)}

	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.subscribers[id]
	if !ok {
		subs = make(map[*subscriber]struct{})
		h.subscribers[id] = subs
	}
	subs[sub] = struct{}{}
	return sub
}

func (h *Hub) unsubscribe(id domain.SessionID, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.subscribers[id]
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.subscribers, id)
	}
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	if len(h.opts.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.opts.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// ServeSession streams the session's notifications as JSON text frames until
// the client goes away or stops answering pings.
func (h *Hub) ServeSession(w http.ResponseWriter, r *http.Request, id domain.SessionID) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warnw("Websocket upgrade failed", "session_id", id, "error", err)
		return
	}
	defer conn.Close()

	sub := h.subscribe(id)
	defer h.unsubscribe(id, sub)

	h.metrics.StreamConnected()
	defer h.metrics.StreamDisconnected()

	h.logger.Infow("Notification stream opened", "session_id", id)

	conn.SetReadDeadline(time.Now().Add(h.opts.PongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.opts.PongTimeout))
	})

	// The client never sends anything meaningful; reading only surfaces
	// close frames and pong deadlines.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.logger.Infow("Notification stream read failed", "session_id", id, "error", err)
				}
				return
			}
		}
	}()

	ping := time.NewTicker(h.opts.PingInterval)
	defer ping.Stop()

	for {
		select {
		case n := <-sub.send:
			conn.SetWriteDeadline(time.Now().Add(h.opts.WriteTimeout))
			if err := conn.WriteJSON(n); err != nil {
				h.logger.Infow("Notification write failed", "session_id", id, "error", err)
				return
			}

		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(h.opts.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.logger.Infow("Ping failed", "session_id", id, "error", err)
				return
			}

		case <-closed:
			h.logger.Infow("Notification stream closed", "session_id", id)
			return

		case <-r.Context().Done():
			return
		}
	}
}
