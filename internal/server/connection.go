package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/holdemroom/internal/holdemerr"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var ErrConnectionClosed = websocket.ErrCloseSent

// Connection wraps one WebSocket client. Commands run on the read
// pump; outbound messages, including dispatched game states, go
// through the buffered send channel so the dispatcher never blocks.
type Connection struct {
	conn      *websocket.Conn
	send      chan *Message
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	service   *Service
}

// NewConnection creates a connection wrapper.
func NewConnection(conn *websocket.Conn, logger *log.Logger, service *Service) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &Connection{
		conn:    conn,
		send:    make(chan *Message, 256),
		logger:  logger.WithPrefix("conn"),
		ctx:     ctx,
		cancel:  cancel,
		service: service,
	}
}

// Start begins the read and write pumps and sends the hello banner.
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()

	hello, _ := NewMessage(MessageTypeHello, HelloData{Server: "holdemroom", Version: "1"})
	_ = c.Send(hello)
}

// Close tears the connection down and drops its subscriptions.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		if c.service != nil {
			c.service.Unsubscribe(c)
		}
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// Send queues a message for the client. It never blocks; a full
// buffer closes the connection, and re-subscription recovers the
// stream.
func (c *Connection) Send(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			// Channel closed during shutdown.
			c.logger.Debug("send on closed connection", "error", r)
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// readPump handles incoming messages from the client.
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("websocket error", "error", err)
			}
			break
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client.
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("write failed", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage decodes and runs one command, echoing its requestId on
// the response. A rejected command answers with its error kind and
// reason; the connection stays open.
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("received message", "type", msg.Type, "requestId", msg.RequestID)

	switch msg.Type {
	case MessageTypeCreateGame:
		handle(c, msg, MessageTypeGameCreated, c.service.CreateGame)
	case MessageTypeJoinGame:
		handle(c, msg, MessageTypeAuthOK, c.service.JoinGame)
	case MessageTypeAuthGame:
		handle(c, msg, MessageTypeAuthOK, c.service.AuthGame)
	case MessageTypeStartHand:
		handle(c, msg, MessageTypeGameState, c.service.StartHand)
	case MessageTypeAction:
		handle(c, msg, MessageTypeGameState, c.service.Act)
	case MessageTypeReveal:
		handle(c, msg, MessageTypeGameState, c.service.Reveal)
	case MessageTypeAdvance:
		handle(c, msg, MessageTypeGameState, c.service.Advance)
	case MessageTypeNextHand:
		handle(c, msg, MessageTypeGameState, c.service.NextHand)
	case MessageTypeNextGame:
		handle(c, msg, MessageTypeGameState, c.service.NextGame)
	case MessageTypeLegalActions:
		handle(c, msg, MessageTypeActions, c.service.LegalActions)
	case MessageTypeSubscribe:
		c.handleSubscribe(msg)
	default:
		c.sendError(msg.RequestID, holdemerr.Newf(holdemerr.InvalidState, "Unknown message type %q", msg.Type))
	}
}

// handle decodes the request payload, runs the command, and replies.
func handle[Req any, Resp any](c *Connection, msg *Message, respType MessageType, fn func(context.Context, Req) (Resp, error)) {
	var data Req
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError(msg.RequestID, holdemerr.New(holdemerr.InvalidState, "Malformed request payload"))
			return
		}
	}

	resp, err := fn(c.ctx, data)
	if err != nil {
		c.sendError(msg.RequestID, err)
		return
	}
	c.reply(msg.RequestID, respType, resp)
}

func (c *Connection) handleSubscribe(msg *Message) {
	var data SubscribeData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		c.sendError(msg.RequestID, holdemerr.New(holdemerr.InvalidState, "Malformed request payload"))
		return
	}

	subscribed, snapshot, err := c.service.Subscribe(c.ctx, data, c)
	if err != nil {
		c.sendError(msg.RequestID, err)
		return
	}
	c.reply(msg.RequestID, MessageTypeSubscribed, subscribed)
	c.reply("", MessageTypeGameState, snapshot)
}

func (c *Connection) reply(requestID string, msgType MessageType, data any) {
	msg, err := NewMessage(msgType, data)
	if err != nil {
		c.logger.Error("encode response failed", "type", msgType, "error", err)
		return
	}
	msg.RequestID = requestID
	_ = c.Send(msg)
}

func (c *Connection) sendError(requestID string, err error) {
	kind := holdemerr.KindOf(err)
	if kind == holdemerr.Internal {
		c.logger.Error("command failed", "error", err)
	}
	c.reply(requestID, MessageTypeError, ErrorData{
		Kind:    string(kind),
		Message: holdemerr.MessageOf(err),
	})
}
