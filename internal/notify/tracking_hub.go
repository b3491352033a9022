package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	evt "github.com/RoyceAzure/lab/grocery/internal/domain/model/event"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	sendBuffer   = 16
	writeTimeout = 10 * time.Second
)

const MessageTypeSnapshot = "snapshot"

// TrackingMessage 推送給追蹤頁面的訊息, Type 為 snapshot 或事件類型
type TrackingMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func (c *client) writeLoop() {
	defer c.conn.Close()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// TrackingHub 依訂單 id 分組的 websocket 連線
// 同時實作 EventPublisher, 訂單事件會推送給訂閱該訂單的連線
type TrackingHub struct {
	mu       sync.RWMutex
	clients  map[string]map[*client]struct{}
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

func NewTrackingHub(logger zerolog.Logger) *TrackingHub {
	return &TrackingHub{
		clients: make(map[string]map[*client]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: logger,
	}
}

// Serve 升級連線並阻塞到用戶端斷線, snapshot 為第一則訊息
func (h *TrackingHub) Serve(w http.ResponseWriter, r *http.Request, orderID string, snapshot any) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	if snapshot != nil {
		data, err := json.Marshal(TrackingMessage{Type: MessageTypeSnapshot, Data: snapshot})
		if err != nil {
			conn.Close()
			return err
		}
		c.send <- data
	}

	h.register(orderID, c)
	defer h.unregister(orderID, c)
	go c.writeLoop()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return nil
		}
	}
}

func (h *TrackingHub) Publish(ctx context.Context, events ...evt.Event) error {
	for _, e := range events {
		switch e.Type() {
		case evt.OrderCreatedEventName, evt.OrderStatusChangedEventName, evt.OrderPaymentUpdatedEventName:
		default:
			continue
		}
		data, err := json.Marshal(TrackingMessage{Type: string(e.Type()), Data: e})
		if err != nil {
			return err
		}
		h.broadcast(e.GetAggregateID(), data)
	}
	return nil
}

func (h *TrackingHub) Subscribers(orderID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[orderID])
}

// Close 關閉所有連線
func (h *TrackingHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for orderID, set := range h.clients {
		for c := range set {
			close(c.send)
		}
		delete(h.clients, orderID)
	}
}

func (h *TrackingHub) broadcast(orderID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[orderID] {
		select {
		case c.send <- data:
		default:
			h.logger.Warn().Str("order_id", orderID).Msg("tracking client too slow, message dropped")
		}
	}
}

func (h *TrackingHub) register(orderID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[orderID]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[orderID] = set
	}
	set[c] = struct{}{}
}

func (h *TrackingHub) unregister(orderID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[orderID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, orderID)
	}
}
