package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hypr/internal/models"
	"github.com/ternarybob/hypr/internal/services/quotes"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// WSMessage is the envelope for all outbound WebSocket frames.
type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// wsSubscriber adapts one WebSocket connection to the registry's Subscriber
// interface. The write mutex serializes broadcasts with the initial snapshot
// so frames never interleave on the wire.
type wsSubscriber struct {
	id      string
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (s *wsSubscriber) ID() string {
	return s.id
}

func (s *wsSubscriber) Send(data []models.PopularQuote) error {
	payload, err := json.Marshal(WSMessage{Type: "quotes", Data: data})
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

// WebSocketHandler upgrades connections and registers them for quote pushes.
type WebSocketHandler struct {
	broadcaster *quotes.Broadcaster
	logger      arbor.ILogger
}

// NewWebSocketHandler creates the quotes WebSocket handler.
func NewWebSocketHandler(broadcaster *quotes.Broadcaster, logger arbor.ILogger) *WebSocketHandler {
	return &WebSocketHandler{
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// HandleWebSocket handles WebSocket connections for the quote feed.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	sub := &wsSubscriber{
		id:   uuid.New().String(),
		conn: conn,
	}

	registry := h.broadcaster.Registry()
	if err := registry.Add(sub); err != nil {
		if errors.Is(err, quotes.ErrRegistryFull) {
			h.logger.Warn().Msg("Subscriber registry full, refusing WebSocket connection")
		}
		conn.Close()
		return
	}

	h.logger.Debug().
		Str("subscriber_id", sub.id).
		Int("subscribers", registry.Count()).
		Msg("WebSocket client connected")

	// Send the current quote set immediately so a new client does not wait
	// for the next broadcast tick.
	if snapshot, err := h.broadcaster.GetPopularQuotes(r.Context()); err == nil {
		if err := sub.Send(snapshot); err != nil {
			h.logger.Debug().Err(err).Msg("Failed to send initial quote snapshot")
		}
	}

	defer func() {
		registry.Remove(sub.id)
		conn.Close()
		h.logger.Debug().
			Str("subscriber_id", sub.id).
			Int("subscribers", registry.Count()).
			Msg("WebSocket client disconnected")
	}()

	// Read messages from client (keep connection alive)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn().Err(err).Msg("WebSocket error")
			}
			break
		}
	}
}
