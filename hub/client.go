package hub

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/Merka34/pocket-scrum-bk/handlers"
	"github.com/Merka34/pocket-scrum-bk/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Package-level WebSocket upgrader
var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins
	},
}

const pingInterval = 15 * time.Second

// Client wraps one websocket connection. Writes go through a buffered
// channel drained by a single writer goroutine, as gorilla requires.
type Client struct {
	id     string
	conn   *websocket.Conn
	events chan models.Event
	once   sync.Once
	done   chan struct{}
}

// ID returns the connection identifier.
func (c *Client) ID() string {
	return c.id
}

// Send queues an event for delivery. A client that has fallen too far
// behind loses events rather than blocking the room.
func (c *Client) Send(event models.Event) {
	select {
	case c.events <- event:
	case <-c.done:
	default:
		log.Printf("client %s: send buffer full, dropping %s", c.id, event.Type)
	}
}

func (c *Client) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// Serve returns the gin handler that upgrades the request and runs the
// connection until it drops, dispatching every inbound message to the
// session handlers.
func Serve(sessions *handlers.SessionHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("websocket upgrade: %v", err)
			return
		}

		client := &Client{
			id:     uuid.New().String(),
			conn:   conn,
			events: make(chan models.Event, 32),
			done:   make(chan struct{}),
		}
		defer client.close()

		go client.writePump()
		client.readPump(sessions)
	}
}

// writePump is the connection's single writer: queued events plus the
// keep-alive ping.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case event := <-c.events:
			if err := c.conn.WriteJSON(event); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
				c.close()
				return
			}
		case <-c.done:
			return
		}
	}
}

// readPump decodes inbound envelopes and hands them to the session
// handlers. A read error means the client is gone.
func (c *Client) readPump(sessions *handlers.SessionHandler) {
	defer sessions.Disconnect(c)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg models.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.Send(models.Event{
				Type:    models.EventTypeError,
				Payload: models.ErrorPayload{Error: "malformed message"},
			})
			continue
		}
		sessions.Dispatch(c, msg)
	}
}
