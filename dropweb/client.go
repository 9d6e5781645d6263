package dropweb

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/stakeworks/merkledrop/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu            sync.Mutex
	subscriptions map[string]bool
}

func (c *Client) subscribed(method string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subscriptions[method]
}

func (c *Client) addSubscription(method string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscriptions[method] = true
}

// readPump handles websocket reads and subscription management.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err) {
				log.Trace(log.WebMonitoring, "websocket close", "err", err)
			}
			return
		}
		var req SubscriptionRequest
		if err := json.Unmarshal(message, &req); err != nil {
			log.Warn(log.WebMonitoring, "invalid subscription message", "err", err)
			continue
		}
		switch req.Method {
		case SubRootChange, SubHolderChange, SubClaims:
			c.addSubscription(req.Method)
			log.Debug(log.WebMonitoring, "subscribed", "method", req.Method)
		default:
			log.Warn(log.WebMonitoring, "unknown subscription method", "method", req.Method)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWs upgrades an HTTP request to a websocket event subscription.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error(log.WebMonitoring, "websocket upgrade failed", "err", err)
		return
	}
	client := &Client{
		hub:           h,
		conn:          conn,
		send:          make(chan []byte, 256),
		subscriptions: make(map[string]bool),
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}
