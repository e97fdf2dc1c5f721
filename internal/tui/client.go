package tui

import (
	"context"
	"encoding/json"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/holdemroom/internal/server"
)

// Client subscribes to a room's table stream and forwards each
// projected state to the Bubble Tea program.
type Client struct {
	url      string
	roomCode string
	logger   *log.Logger
}

// NewClient creates a client for the server's /ws endpoint.
func NewClient(url, roomCode string, logger *log.Logger) *Client {
	return &Client{url: url, roomCode: roomCode, logger: logger.WithPrefix("client")}
}

// Run connects, subscribes in table mode, and pumps states into the
// program until the stream or the context ends.
func (c *Client) Run(ctx context.Context, program *tea.Program) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		program.Send(DisconnectedMsg{Err: err})
		return fmt.Errorf("dial %s: %w", c.url, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	sub, err := server.NewMessage(server.MessageTypeSubscribe, server.SubscribeData{
		RoomCode: c.roomCode,
		Mode:     "table",
	})
	if err != nil {
		return err
	}
	sub.RequestID = "subscribe-1"
	if err := conn.WriteJSON(sub); err != nil {
		program.Send(DisconnectedMsg{Err: err})
		return fmt.Errorf("subscribe: %w", err)
	}

	for {
		var msg server.Message
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				program.Send(DisconnectedMsg{})
				return nil
			}
			program.Send(DisconnectedMsg{Err: err})
			return err
		}

		switch msg.Type {
		case server.MessageTypeHello:
			// Banner, nothing to do.

		case server.MessageTypeSubscribed:
			c.logger.Debug("subscribed", "room", c.roomCode)
			program.Send(ConnectedMsg{})

		case server.MessageTypeGameState:
			var data server.GameStateData
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				c.logger.Warn("malformed game state", "error", err)
				continue
			}
			program.Send(StateMsg{View: data.State, Revision: data.Revision, Reason: data.Reason})

		case server.MessageTypeError:
			var data server.ErrorData
			_ = json.Unmarshal(msg.Data, &data)
			err := fmt.Errorf("%s: %s", data.Kind, data.Message)
			program.Send(DisconnectedMsg{Err: err})
			return err

		default:
			c.logger.Debug("ignoring message", "type", msg.Type)
		}
	}
}
