package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"touchbridge/internal/feedback"
	"touchbridge/internal/frontend"
	"touchbridge/internal/metrics"
	"touchbridge/internal/protocol"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
	readLimit  = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The page is served by this process to devices on the local network
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub tracks connected touchpad pages, relays their events to the loop and
// broadcasts feedback to them. It implements feedback.Sink.
type Hub struct {
	logger     zerolog.Logger
	loop       Poster
	clients    map[*pageClient]bool
	clientsMu  sync.RWMutex
	broadcast  chan protocol.PageNotice
	register   chan *pageClient
	unregister chan *pageClient

	ctxMu sync.RWMutex
	ctx   context.Context
	done  chan struct{}
}

var _ feedback.Sink = (*Hub)(nil)

// pageClient represents a connected touchpad page
type pageClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	ip   string
}

// NewHub creates a hub. It relays page events once attached to a server.
func NewHub() *Hub {
	return &Hub{
		logger:     log.With().Str("component", "ws").Logger(),
		clients:    make(map[*pageClient]bool),
		broadcast:  make(chan protocol.PageNotice, 64),
		register:   make(chan *pageClient),
		unregister: make(chan *pageClient),
		ctx:        context.Background(),
		done:       make(chan struct{}),
	}
}

func (h *Hub) context() context.Context {
	h.ctxMu.RLock()
	defer h.ctxMu.RUnlock()
	return h.ctx
}

// run owns the client set until ctx is done.
func (h *Hub) run(ctx context.Context) {
	h.ctxMu.Lock()
	h.ctx = ctx
	h.ctxMu.Unlock()

	logger := h.logger
	defer close(h.done)

	for {
		select {
		case client := <-h.register:
			h.clientsMu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.clientsMu.Unlock()
			metrics.PageConnectionsCurrent.Inc()
			logger.Info().Str("remote", client.ip).Int("clients", n).Msg("touchpad page connected")

		case client := <-h.unregister:
			h.remove(client)

		case notice := <-h.broadcast:
			h.broadcastNotice(notice)

		case <-ctx.Done():
			h.clientsMu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
				metrics.PageConnectionsCurrent.Dec()
			}
			h.clientsMu.Unlock()
			return
		}
	}
}

func (h *Hub) remove(client *pageClient) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)
	metrics.PageConnectionsCurrent.Dec()
	h.logger.Info().Str("remote", client.ip).Int("clients", len(h.clients)).Msg("touchpad page disconnected")
}

func (h *Hub) broadcastNotice(notice protocol.PageNotice) {
	data, err := json.Marshal(notice)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to marshal notice")
		return
	}

	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			// slow page
			close(client.send)
			delete(h.clients, client)
			metrics.PageConnectionsCurrent.Dec()
		}
	}
}

// Clients returns the number of connected pages.
func (h *Hub) Clients() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// publish queues a notice for the pages. It never blocks: when the hub is
// not draining its queue the notice is dropped.
func (h *Hub) publish(notice protocol.PageNotice) {
	select {
	case h.broadcast <- notice:
	default:
		metrics.DroppedNoticesTotal.Inc()
		h.logger.Debug().Str("type", string(notice.Type)).Msg("notice dropped")
	}
}

// ShowFeedback pushes a feedback notice to every page.
func (h *Hub) ShowFeedback(c feedback.Category) {
	h.publish(protocol.PageNotice{Type: protocol.NoticeFeedback, Category: string(c), Connected: true})
}

// SetStatus pushes a status notice to every page.
func (h *Hub) SetStatus(msg string, connected bool) {
	h.publish(protocol.PageNotice{Type: protocol.NoticeStatus, Message: msg, Connected: connected})
}

func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("failed to upgrade connection")
		return
	}

	client := &pageClient{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
		ip:   r.RemoteAddr,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump pumps page events from the websocket connection to the loop.
func (c *pageClient) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(readLimit)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn().Err(err).Msg("read error")
			}
			return
		}
		if !c.handleMessage(message) {
			return
		}
	}
}

// writePump pumps notices from the hub to the websocket connection.
func (c *pageClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage relays one page event. It returns false once the loop has stopped.
func (c *pageClient) handleMessage(data []byte) bool {
	logger := c.hub.logger

	var msg protocol.PageEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		logger.Warn().Err(err).Msg("invalid message format")
		return true
	}

	ev, err := frontend.EventFromPage(msg)
	if err != nil {
		logger.Warn().Err(err).Str("remote", c.ip).Msg("ignoring page event")
		return true
	}

	if err := c.hub.loop.Post(c.hub.context(), ev); err != nil {
		if errors.Is(err, frontend.ErrStopped) || errors.Is(err, context.Canceled) {
			return false
		}
		logger.Error().Err(err).Msg("failed to post event")
	}
	return true
}
