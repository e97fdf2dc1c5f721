package server

import (
	"encoding/json"
	"time"

	"github.com/lox/holdemroom/internal/game"
)

// MessageType identifies a WebSocket message.
type MessageType string

const (
	// Client to server messages
	MessageTypeCreateGame   MessageType = "create_game"
	MessageTypeJoinGame     MessageType = "join_game"
	MessageTypeAuthGame     MessageType = "auth_game"
	MessageTypeStartHand    MessageType = "start_hand"
	MessageTypeAction       MessageType = "action"
	MessageTypeReveal       MessageType = "reveal"
	MessageTypeAdvance      MessageType = "advance"
	MessageTypeNextHand     MessageType = "next_hand"
	MessageTypeNextGame     MessageType = "next_game"
	MessageTypeLegalActions MessageType = "legal_actions"
	MessageTypeSubscribe    MessageType = "subscribe"

	// Server to client messages
	MessageTypeHello       MessageType = "hello"
	MessageTypeSubscribed  MessageType = "subscribed"
	MessageTypeGameCreated MessageType = "game_created"
	MessageTypeAuthOK      MessageType = "auth_ok"
	MessageTypeGameState   MessageType = "game_state"
	MessageTypeActions     MessageType = "actions"
	MessageTypeError       MessageType = "error"
)

// String returns the string representation of the message type.
func (mt MessageType) String() string {
	return string(mt)
}

// Message is the WebSocket envelope. RequestID is echoed from the
// request on any direct response.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a message with the current timestamp.
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server Messages

type CreateGameData struct {
	SmallBlind    int `json:"smallBlind,omitempty"`
	BigBlind      int `json:"bigBlind,omitempty"`
	StartingChips int `json:"startingChips,omitempty"`
}

type JoinGameData struct {
	RoomCode string `json:"roomCode"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// AuthGameData re-verifies a room credential without seating.
type AuthGameData struct {
	RoomCode string `json:"roomCode"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type StartHandData struct {
	GameID string `json:"gameId"`
}

type ActionData struct {
	Token  string `json:"token"`
	Kind   string `json:"kind"`
	Amount int    `json:"amount,omitempty"`
}

type TokenData struct {
	Token string `json:"token"`
}

type NextGameData struct {
	RoomCode string `json:"roomCode"`
	Token    string `json:"token"`
}

type SubscribeData struct {
	RoomCode string `json:"roomCode"`
	Mode     string `json:"mode"`
	Token    string `json:"token,omitempty"`
}

// Server → Client Messages

type HelloData struct {
	Server  string `json:"server"`
	Version string `json:"version"`
}

type SubscribedData struct {
	RoomCode string `json:"roomCode"`
	Mode     string `json:"mode"`
}

type GameCreatedData struct {
	GameID   string `json:"gameId"`
	RoomCode string `json:"roomCode"`
}

type AuthOKData struct {
	SeatID    string `json:"seatId"`
	AuthToken string `json:"authToken"`
	Position  int    `json:"position"`
}

// GameStateData carries one projected transition. Reason names the
// committing command, or "snapshot" for the subscribe-time state.
type GameStateData struct {
	State    *game.GameView `json:"state"`
	Revision uint64         `json:"revision"`
	Reason   string         `json:"reason"`
}

type ActionsData struct {
	Actions game.ValidActions `json:"actions"`
}

type ErrorData struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}
