package services

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"trading-backend/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// QuoteHub fans live quote ticks out to connected websocket clients.
type QuoteHub struct {
	clients    map[*QuoteClient]bool
	broadcast  chan models.Quote
	register   chan *QuoteClient
	unregister chan *QuoteClient
	logger     *slog.Logger
}

// QuoteClient is one websocket subscriber.
type QuoteClient struct {
	hub  *QuoteHub
	conn *websocket.Conn
	send chan []byte
}

// NewQuoteHub creates the hub; call Run in a goroutine to start it.
func NewQuoteHub(logger *slog.Logger) *QuoteHub {
	return &QuoteHub{
		clients:    make(map[*QuoteClient]bool),
		broadcast:  make(chan models.Quote),
		register:   make(chan *QuoteClient),
		unregister: make(chan *QuoteClient),
		logger:     logger,
	}
}

// Run processes register/unregister/broadcast events until the process exits.
func (h *QuoteHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.logger.Debug("quote client connected", "clients", len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.logger.Debug("quote client disconnected", "clients", len(h.clients))
			}

		case quote := <-h.broadcast:
			message, err := json.Marshal(quote)
			if err != nil {
				h.logger.Error("marshal quote", "err", err)
				continue
			}
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow client: drop it rather than block the hub.
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// BroadcastQuote publishes a quote tick to every connected client.
func (h *QuoteHub) BroadcastQuote(quote models.Quote) {
	h.broadcast <- quote
}

// RegisterClient attaches a websocket connection to the hub and returns its
// client. The caller starts the client's pumps.
func (h *QuoteHub) RegisterClient(conn *websocket.Conn) *QuoteClient {
	client := &QuoteClient{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
	}
	h.register <- client
	return client
}

// ReadPump drains inbound frames and enforces the pong deadline.
func (c *QuoteClient) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("websocket read", "err", err)
			}
			return
		}
	}
}

// WritePump flushes outbound messages and keeps the connection alive with
// pings.
func (c *QuoteClient) WritePump() {
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

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)
			if err := w.Close(); err != nil {
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
