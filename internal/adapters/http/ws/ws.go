// Package ws streams draft events to browsers over WebSocket.
//
// A connection starts with a catch-up: the events after ?since= when the log still holds
// them, otherwise a full snapshot. Live events follow. A subscriber that fell behind and
// lost events is sent a fresh snapshot instead of a gap.
package ws

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/okian/playoffdraft/internal/adapters/mq/broker"
	service "github.com/okian/playoffdraft/internal/app"
	"github.com/okian/playoffdraft/internal/domain/dedupe"
	"github.com/okian/playoffdraft/internal/domain/realtime"
	"github.com/okian/playoffdraft/pkg/logger"
	"github.com/okian/playoffdraft/pkg/metrics"
)

// Default connection timings.
const (
	defaultPongWait = 60 * time.Second
	defaultSeenSize = 1024
	writeWait       = 10 * time.Second
	maxMessageSize  = 512
)

// Frame kinds.
const (
	KindSnapshot = "snapshot"
	KindEvent    = "event"
)

// Frame is one message sent to the browser.
type Frame struct {
	Kind  string          `json:"kind"`
	Seq   uint64          `json:"seq"`
	Event *realtime.Event `json:"event,omitempty"`
	State *realtime.State `json:"state,omitempty"`
}

// Hub is the event fan-out a connection subscribes to. *broker.Broker implements it.
type Hub interface {
	Subscribe(client string) (*broker.Subscription, error)
	Unsubscribe(sub *broker.Subscription)
	Log() *realtime.Log
}

// StateSource provides the authoritative snapshot.
type StateSource interface {
	State(ctx context.Context) (realtime.State, error)
}

// Handler upgrades GET /ws requests and streams events.
type Handler struct {
	hub      Hub
	source   StateSource
	upgrader websocket.Upgrader
	pongWait time.Duration
	seenSize int
	logger   logger.Logger
}

// NewHandler creates a stream handler over hub and source.
func NewHandler(hub Hub, source StateSource, opts ...Option) *Handler {
	h := &Handler{
		hub:      hub,
		source:   source,
		pongWait: defaultPongWait,
		seenSize: defaultSeenSize,
		upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = logger.Get().Named("ws")
	}
	return h
}

func (h *Handler) pingPeriod() time.Duration {
	return h.pongWait * 9 / 10
}

// ServeHTTP handles GET /ws?client=&since=.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	client := r.URL.Query().Get("client")
	if client == "" {
		client = service.ActorFrom(r.Context()).ClientID
	}
	if client == "" {
		client = uuid.NewString()
	}
	since, resume := parseSince(r.URL.Query().Get("since"))

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		metrics.RecordErrorByComponent("ws", "upgrade_failed")
		h.logger.Warn(r.Context(), "websocket upgrade failed", logger.Error(err))
		return
	}
	defer conn.Close()

	sub, err := h.hub.Subscribe(client)
	if err != nil {
		h.closeWith(conn, websocket.CloseTryAgainLater, "event stream unavailable")
		return
	}
	defer h.hub.Unsubscribe(sub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.readPump(conn, cancel)

	// Catch-up and the live channel overlap; each event id is sent once.
	seen := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(h.seenSize))
	h.logger.Debug(ctx, "stream opened", logger.String("client", client), logger.Bool("resume", resume))
	if err := h.catchUp(ctx, conn, seen, client, since, resume); err != nil {
		h.logger.Debug(ctx, "catch-up failed", logger.String("client", client), logger.Error(err))
		return
	}
	h.writePump(ctx, conn, seen, sub)
	h.logger.Debug(ctx, "stream closed", logger.String("client", client))
}

func parseSince(raw string) (uint64, bool) {
	if raw == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// catchUp replays the log after since when it is complete, and sends a snapshot otherwise.
func (h *Handler) catchUp(ctx context.Context, conn *websocket.Conn, seen dedupe.Deduper, client string, since uint64, resume bool) error {
	if resume {
		events, complete := h.hub.Log().Since(since)
		if complete {
			for i := range events {
				if events[i].Origin != "" && events[i].Origin == client {
					continue
				}
				if seen.SeenAndRecord(ctx, events[i].ID) {
					continue
				}
				if err := h.write(conn, Frame{Kind: KindEvent, Seq: events[i].Seq, Event: &events[i]}); err != nil {
					return err
				}
			}
			return nil
		}
	}
	return h.snapshot(ctx, conn)
}

// snapshot reads the log position first so nothing after it is missed; events between the
// two reads arrive again and are ignored by the replica.
func (h *Handler) snapshot(ctx context.Context, conn *websocket.Conn) error {
	seq := h.hub.Log().Last()
	st, err := h.source.State(ctx)
	if err != nil {
		h.closeWith(conn, websocket.CloseInternalServerErr, "snapshot unavailable")
		return err
	}
	return h.write(conn, Frame{Kind: KindSnapshot, Seq: seq, State: &st})
}

func (h *Handler) writePump(ctx context.Context, conn *websocket.Conn, seen dedupe.Deduper, sub *broker.Subscription) {
	ticker := time.NewTicker(h.pingPeriod())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				h.closeWith(conn, websocket.CloseGoingAway, "server shutting down")
				return
			}
			if sub.Stale() {
				if err := h.snapshot(ctx, conn); err != nil {
					return
				}
				continue
			}
			if seen.SeenAndRecord(ctx, ev.ID) {
				continue
			}
			if err := h.write(conn, Frame{Kind: KindEvent, Seq: ev.Seq, Event: &ev}); err != nil {
				return
			}
		case <-ticker.C:
			if sub.Stale() {
				if err := h.snapshot(ctx, conn); err != nil {
					return
				}
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards client messages and cancels the stream when the peer goes away.
func (h *Handler) readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(h.pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Handler) write(conn *websocket.Conn, f Frame) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(f)
}

func (h *Handler) closeWith(conn *websocket.Conn, code int, text string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(writeWait))
}
