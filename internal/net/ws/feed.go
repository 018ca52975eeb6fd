package ws

import (
	"context"
	"encoding/json"
	nethttp "net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"ordnance/internal/telemetry"
	"ordnance/logging"
)

const (
	writeWait      = 10 * time.Second
	pingInterval   = 2 * time.Second
	defaultBacklog = 256
)

// FeedConfig configures a Feed.
type FeedConfig struct {
	Logger telemetry.Logger
	// Backlog bounds the messages queued per observer before it is dropped.
	Backlog int
}

// Feed is a logging sink that streams every routed event to websocket
// observers. Observers may pass ?category=weapons,system to filter.
type Feed struct {
	logger   telemetry.Logger
	upgrader websocket.Upgrader
	backlog  int

	mu          sync.Mutex
	subscribers map[uint64]*subscriber
	closed      bool
	nextID      atomic.Uint64

	sent    atomic.Uint64
	dropped atomic.Uint64
}

type subscriber struct {
	id         uint64
	conn       *websocket.Conn
	send       chan []byte
	categories map[string]struct{}
	once       sync.Once
	done       chan struct{}
}

func (s *subscriber) wants(category string) bool {
	if len(s.categories) == 0 {
		return true
	}
	_, ok := s.categories[category]
	return ok
}

func (s *subscriber) stop() {
	s.once.Do(func() {
		close(s.done)
	})
}

type eventMessage struct {
	Type     logging.EventType   `json:"type"`
	Tick     uint64              `json:"tick"`
	Time     string              `json:"time"`
	Severity logging.Severity    `json:"severity"`
	Category string              `json:"category,omitempty"`
	Actor    logging.EntityRef   `json:"actor"`
	Targets  []logging.EntityRef `json:"targets,omitempty"`
	Payload  any                 `json:"payload,omitempty"`
	Extra    map[string]any      `json:"extra,omitempty"`
	TraceID  string              `json:"traceId,omitempty"`
}

// FeedStats summarises the feed's activity.
type FeedStats struct {
	Subscribers int    `json:"subscribers"`
	Sent        uint64 `json:"sent"`
	Dropped     uint64 `json:"dropped"`
}

// NewFeed constructs an empty feed.
func NewFeed(cfg FeedConfig) *Feed {
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.Discard
	}
	backlog := cfg.Backlog
	if backlog <= 0 {
		backlog = defaultBacklog
	}
	return &Feed{
		logger:  logger,
		backlog: backlog,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *nethttp.Request) bool {
				return true
			},
		},
		subscribers: make(map[uint64]*subscriber),
	}
}

// Handle upgrades the request and streams events until the observer leaves.
func (f *Feed) Handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Printf("feed upgrade failed: %v", err)
		return
	}

	sub := &subscriber{
		id:         f.nextID.Add(1),
		conn:       conn,
		send:       make(chan []byte, f.backlog),
		categories: parseCategories(r.URL.Query().Get("category")),
		done:       make(chan struct{}),
	}
	if !f.add(sub) {
		message := websocket.FormatCloseMessage(websocket.CloseGoingAway, "feed closed")
		conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(writeWait))
		conn.Close()
		return
	}

	go f.writeLoop(sub)

	// Observers only listen; reading drains control frames and notices the
	// peer going away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			f.remove(sub)
			return
		}
	}
}

func (f *Feed) add(sub *subscriber) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return false
	}
	f.subscribers[sub.id] = sub
	return true
}

func (f *Feed) remove(sub *subscriber) {
	f.mu.Lock()
	if existing, ok := f.subscribers[sub.id]; ok && existing == sub {
		delete(f.subscribers, sub.id)
	}
	f.mu.Unlock()
	sub.stop()
	sub.conn.Close()
}

func (f *Feed) writeLoop(sub *subscriber) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-sub.done:
			message := websocket.FormatCloseMessage(websocket.CloseGoingAway, "")
			sub.conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(writeWait))
			sub.conn.Close()
			return
		case data := <-sub.send:
			sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sub.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				f.logger.Printf("feed write to observer %d failed: %v", sub.id, err)
				f.remove(sub)
				return
			}
			f.sent.Add(1)
		case <-ticker.C:
			if err := sub.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				f.remove(sub)
				return
			}
		}
	}
}

// Write satisfies logging.Sink. Observers whose backlog is full are
// disconnected rather than slowing the router.
func (f *Feed) Write(event logging.Event) error {
	f.mu.Lock()
	targets := make([]*subscriber, 0, len(f.subscribers))
	for _, sub := range f.subscribers {
		if sub.wants(event.Category) {
			targets = append(targets, sub)
		}
	}
	f.mu.Unlock()
	if len(targets) == 0 {
		return nil
	}

	data, err := json.Marshal(eventMessage{
		Type:     event.Type,
		Tick:     event.Tick,
		Time:     event.Time.Format(time.RFC3339Nano),
		Severity: event.Severity,
		Category: event.Category,
		Actor:    event.Actor,
		Targets:  event.Targets,
		Payload:  event.Payload,
		Extra:    event.Extra,
		TraceID:  event.TraceID,
	})
	if err != nil {
		f.logger.Printf("feed failed to marshal %s: %v", event.Type, err)
		return nil
	}

	for _, sub := range targets {
		select {
		case <-sub.done:
		case sub.send <- data:
		default:
			f.dropped.Add(1)
			f.logger.Printf("feed observer %d backlog full, disconnecting", sub.id)
			go f.remove(sub)
		}
	}
	return nil
}

// Close satisfies logging.Sink by disconnecting every observer.
func (f *Feed) Close(context.Context) error {
	f.mu.Lock()
	f.closed = true
	subs := make([]*subscriber, 0, len(f.subscribers))
	for id, sub := range f.subscribers {
		subs = append(subs, sub)
		delete(f.subscribers, id)
	}
	f.mu.Unlock()
	for _, sub := range subs {
		sub.stop()
	}
	return nil
}

// Stats reports the current observer count and delivery totals.
func (f *Feed) Stats() FeedStats {
	f.mu.Lock()
	count := len(f.subscribers)
	f.mu.Unlock()
	return FeedStats{Subscribers: count, Sent: f.sent.Load(), Dropped: f.dropped.Load()}
}

func parseCategories(raw string) map[string]struct{} {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	out := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out[part] = struct{}{}
		}
	}
	return out
}
