// isobusd - ISOBUS/J1939 Tractor Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/isobusd

package websocket

import (
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/isobusd/internal/logging"
	"github.com/tomtom215/isobusd/internal/telemetry"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
	sendBuffer     = 256
	controlBuffer  = 8
)

// clientIDCounter hands out monotonically increasing ids so broadcasts
// visit clients in a stable order.
var clientIDCounter atomic.Uint64

// inbound is a message received from the browser.
type inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// SubscribeRequest restricts a client to the named categories. English and
// legacy names are both accepted. An empty list restores the full stream.
type SubscribeRequest struct {
	Categories []string `json:"categories"`
}

// Client is a middleman between the websocket connection and the hub
type Client struct {
	id   uint64
	hub  *Hub
	conn *websocket.Conn
	send chan Message

	// control carries replies to client requests. Only the hub closes send,
	// so readPump never writes to it.
	control chan Message

	// filter is a bitmask of telemetry categories; zero means everything.
	filter atomic.Uint32
}

// NewClient creates a new Client with a unique id
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:      clientIDCounter.Add(1),
		hub:     hub,
		conn:    conn,
		send:    make(chan Message, sendBuffer),
		control: make(chan Message, controlBuffer),
	}
}

// ID returns the client's unique identifier
func (c *Client) ID() uint64 {
	return c.id
}

// Subscribe replaces the client's category filter. Unknown names are
// ignored; the resolved categories are returned.
func (c *Client) Subscribe(names []string) []telemetry.Category {
	var mask uint32
	var resolved []telemetry.Category
	for _, name := range names {
		cat, ok := telemetry.ParseCategory(name)
		if !ok || mask&(1<<uint(cat)) != 0 {
			continue
		}
		mask |= 1 << uint(cat)
		resolved = append(resolved, cat)
	}
	c.filter.Store(mask)
	return resolved
}

func (c *Client) accepts(out outbound) bool {
	mask := c.filter.Load()
	if !out.filtered || mask == 0 {
		return true
	}
	return out.categorized && mask&(1<<uint(out.category)) != 0
}

// handle processes one inbound message.
func (c *Client) handle(msg inbound) {
	var reply Message
	switch msg.Type {
	case MessageTypePing:
		reply = Message{Type: MessageTypePong}
	case MessageTypeSubscribe:
		var req SubscribeRequest
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &req); err != nil {
				logging.Debug().Err(err).Uint64("client_id", c.id).Msg("invalid subscribe request")
				return
			}
		}
		cats := c.Subscribe(req.Categories)
		names := make([]string, 0, len(cats))
		for _, cat := range cats {
			names = append(names, cat.String())
		}
		reply = Message{Type: MessageTypeSubscribe, Data: SubscribeRequest{Categories: names}}
	default:
		return
	}

	select {
	case c.control <- reply:
	default:
	}
}

// readPump pumps messages from the websocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.Unregister <- c:
		case <-time.After(writeWait):
			// hub is no longer running
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Error().Err(err).Msg("unexpected websocket close error")
			}
			return
		}

		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			logging.Debug().Err(err).Uint64("client_id", c.id).Msg("ignoring malformed websocket message")
			continue
		}
		c.handle(msg)
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}

			if !ok {
				// the hub closed the channel
				if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					logging.Debug().Err(err).Msg("failed to write close message")
				}
				return
			}

			payload, err := MarshalMessage(message)
			if err != nil {
				logging.Error().Err(err).Str("message_type", message.Type).Msg("failed to marshal websocket message")
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logging.Debug().Err(err).Msg("failed to write websocket message")
				return
			}

		case reply := <-c.control:
			if err := c.writeJSON(reply); err != nil {
				logging.Debug().Err(err).Msg("failed to write websocket reply")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline for ping")
				return
			}

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) writeJSON(msg Message) error {
	payload, err := MarshalMessage(msg)
	if err != nil {
		return err
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Start begins reading and writing for the client
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}
