package socket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ninthgrid/ninthgrid-backend/internal/logger"
)

type InboundMessage struct {
	Action  string `json:"action,omitempty"`  // "subscribe" | "unsubscribe"
	Channel string `json:"channel,omitempty"`
}

const (
	OutboundChanBuffer = 256

	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 << 10
)

type Client struct {
	ID        string
	UserID    string
	Conn      *websocket.Conn
	Hub       *Hub
	Log       *logger.Logger
	cancelFn  context.CancelFunc
	Outbound  chan Message
	closeOnce sync.Once
}

// NewClient builds a Client. The cancel function comes from the handler so the
// HTTP context can finish while the socket lives on.
func NewClient(conn *websocket.Conn, hub *Hub, userID string,
	cancel context.CancelFunc, log *logger.Logger) *Client {

	id := uuid.NewString()
	return &Client{
		ID:       id,
		UserID:   userID,
		Conn:     conn,
		Hub:      hub,
		Log:      log.With("client", id, "userID", userID),
		cancelFn: cancel,
		Outbound: make(chan Message, OutboundChanBuffer),
	}
}

func (c *Client) ReadLoop(ctx context.Context)  { c.readLoop(ctx) }
func (c *Client) WriteLoop(ctx context.Context) { c.writeLoop(ctx) }

// Send queues msg without blocking; it reports false when the buffer is full.
func (c *Client) Send(msg Message) bool {
	select {
	case c.Outbound <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) readLoop(ctx context.Context) {
	defer c.Close()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if ctx.Err() != nil {
			return
		}
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			c.Log.Debug("websocket read error, closing client", "error", err)
			return
		}
		c.handleInbound(data)
	}
}

func (c *Client) handleInbound(data []byte) {
	var inbound InboundMessage
	if err := json.Unmarshal(data, &inbound); err != nil {
		c.Log.Debug("failed to unmarshal inbound message", "error", err, "raw", string(data))
		return
	}
	if !ChannelAllowed(inbound.Channel) {
		c.Log.Debug("ignoring inbound message for foreign channel", "channel", inbound.Channel)
		return
	}
	switch inbound.Action {
	case "subscribe":
		c.Hub.Subscribe(c, []string{inbound.Channel})
	case "unsubscribe":
		c.Hub.UnsubscribeFromChannel(c, inbound.Channel)
	default:
		c.Log.Debug("inbound WS message unhandled", "message", inbound)
	}
}

func (c *Client) writeLoop(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			c.Log.Debug("writeLoop ctx done, shutting down")
			_ = c.Conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(writeWait))
			return

		case msg, ok := <-c.Outbound:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteJSON(msg); err != nil {
				c.Log.Warn("failed writing JSON", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Log.Debug("ping error, shutting down", "error", err)
				return
			}
		}
	}
}

// Close is safe to call from both pumps; only the first call acts.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.Log.Debug("closing client connection")
		c.Hub.Unsubscribe(c)
		if c.cancelFn != nil {
			c.cancelFn()
		}
		if c.Conn != nil {
			_ = c.Conn.Close()
		}
		close(c.Outbound)
	})
}
