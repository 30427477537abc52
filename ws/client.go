package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var (
	pongWait     = 10 * time.Second
	pingInterval = (pongWait * 9) / 10
	writeWait    = 10 * time.Second
)

const egressSize = 64

// Client is one websocket connection. Its ID is the connection identifier
// rooms seat players by.
type Client struct {
	ID       string
	PlayerID string
	Username string

	connection *websocket.Conn
	manager    *Manager
	egress     chan Event
	done       chan struct{}
	closeOnce  sync.Once
	logger     *zap.Logger
}

func NewClient(conn *websocket.Conn, manager *Manager, playerID, username string) *Client {
	id := uuid.NewString()

	return &Client{
		ID:         id,
		PlayerID:   playerID,
		Username:   username,
		connection: conn,
		manager:    manager,
		egress:     make(chan Event, egressSize),
		done:       make(chan struct{}),
		logger:     manager.logger.With(zap.String("conn_id", id)),
	}
}

// readMessages reads incoming messages and hands them to the manager's
// dispatch loop in arrival order. It returns when the connection fails.
func (c *Client) readMessages() {
	c.connection.SetReadLimit(c.manager.maxMessageBytes)

	if err := c.connection.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Debug("set read deadline", zap.Error(err))
		return
	}

	c.connection.SetPongHandler(c.pongHandler)

	for {
		_, payload, err := c.connection.ReadMessage()

		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Warn("unexpected socket closure", zap.Error(err))
			}
			return
		}

		var evt Event

		if err := json.Unmarshal(payload, &evt); err != nil {
			c.manager.submit(func() {
				c.PushError("", ErrMalformedEvent.Error())
			})
			continue
		}

		if !c.manager.submit(func() {
			c.manager.dispatch(evt, c)
		}) {
			return
		}
	}
}

// writeMessages writes events pushed to the client's egress and keeps the
// connection alive with pings.
func (c *Client) writeMessages() {
	ticker := time.NewTicker(pingInterval)

	defer func() {
		ticker.Stop()
		c.close()
		c.connection.Close()
	}()

	for {
		select {
		case <-c.done:
			c.connection.SetWriteDeadline(time.Now().Add(time.Second))
			c.connection.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case message := <-c.egress:
			data, err := json.Marshal(message)

			if err != nil {
				c.logger.Error("marshalling event", zap.String("type", message.Type), zap.Error(err))
				continue
			}

			c.connection.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.connection.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Debug("write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			c.connection.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("ping failed", zap.Error(err))
				return
			}
		}
	}
}

// Sets a new read deadline when a pong is received for a ping message.
func (c *Client) pongHandler(pongMsg string) error {
	return c.connection.SetReadDeadline(time.Now().Add(pongWait))
}

// PushToEgress queues an event for delivery. A client that cannot keep up
// is closed rather than allowed to stall the dispatch loop.
func (c *Client) PushToEgress(evt Event) {
	select {
	case <-c.done:
		return
	default:
	}

	select {
	case c.egress <- evt:
	default:
		c.logger.Warn("egress full, closing connection", zap.String("type", evt.Type))
		c.close()
	}
}

// Creates an event and pushes to client's egress
func (c *Client) PushEventToEgress(evtType string, payload any) error {
	evt, err := NewEvent(evtType, payload)
	if err != nil {
		return err
	}
	c.PushToEgress(evt)
	return nil
}

func (c *Client) PushError(traceID, message string) {
	evt, err := NewErrorEvent(traceID, message)
	if err != nil {
		c.logger.Error("building error event", zap.Error(err))
		return
	}
	c.PushToEgress(evt)
}

// close stops the write pump, which sends a close frame and shuts the
// connection. The read pump then fails, which unregisters the client.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}
