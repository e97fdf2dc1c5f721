// Package store persists rooms, games, event logs and snapshots. Two
// backends implement the same interface: an in-memory store for tests
// and single-process runs, and a SQLite store for durability.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/lox/holdemroom/internal/game"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrConflict indicates a uniqueness violation (room code, player
	// name within a room).
	ErrConflict = errors.New("store: conflict")

	// ErrSequence indicates an append would create a gap or duplicate
	// in a game's event sequence.
	ErrSequence = errors.New("store: sequence violation")
)

// Room is a persistent container for credentials and successive games.
type Room struct {
	ID      string
	Code    string
	Config  game.Config
	Created time.Time
}

// RoomPlayer is a credential scoped to a room. The password is stored
// as a bcrypt hash.
type RoomPlayer struct {
	ID           string
	RoomID       string
	Name         string
	PasswordHash string
}

// Game is the persistent record of one game.
type Game struct {
	ID       string
	RoomID   string
	RoomCode string
	Config   game.Config
	Seed     int64
	Archived bool
	Created  time.Time
}

// Store is the full persistence interface. All operations are
// transactional per game; appends preserve sequence order.
type Store interface {
	game.Store

	CreateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, code string) (*Room, error)

	CreateRoomPlayer(ctx context.Context, player RoomPlayer) error
	GetRoomPlayer(ctx context.Context, roomID, name string) (*RoomPlayer, error)

	CreateGame(ctx context.Context, g Game) error
	GetGame(ctx context.Context, gameID string) (*Game, error)
	// GetRoomGame returns the room's current (unarchived) game.
	GetRoomGame(ctx context.Context, roomID string) (*Game, error)
	// ArchiveGame marks a game as no longer current for its room.
	ArchiveGame(ctx context.Context, gameID string) error

	Close() error
}
