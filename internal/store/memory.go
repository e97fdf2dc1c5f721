package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/coder/quartz"

	"github.com/lox/holdemroom/internal/game"
)

// MemStore is an in-memory Store. Writers and readers share one
// RWMutex; appends validate sequence continuity the same way the
// SQLite backend's unique index does.
type MemStore struct {
	mu        sync.RWMutex
	clock     quartz.Clock
	rooms     map[string]Room        // code -> room
	players   map[string]RoomPlayer  // roomID/name -> player
	games     map[string]Game        // gameID -> game
	events    map[string][]game.Event
	snapshots map[string]game.Snapshot
}

// NewMemStore creates an empty in-memory store.
func NewMemStore(clock quartz.Clock) *MemStore {
	return &MemStore{
		clock:     clock,
		rooms:     make(map[string]Room),
		players:   make(map[string]RoomPlayer),
		games:     make(map[string]Game),
		events:    make(map[string][]game.Event),
		snapshots: make(map[string]game.Snapshot),
	}
}

func (m *MemStore) AppendEvents(ctx context.Context, gameID string, events []game.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	log := m.events[gameID]
	next := uint64(1)
	if len(log) > 0 {
		next = log[len(log)-1].Seq + 1
	}
	for i, ev := range events {
		if ev.Seq != next+uint64(i) {
			return fmt.Errorf("%w: event %d has seq %d, want %d", ErrSequence, i, ev.Seq, next+uint64(i))
		}
	}
	m.events[gameID] = append(log, events...)
	return nil
}

func (m *MemStore) ReadEvents(ctx context.Context, gameID string, fromSeq uint64) ([]game.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []game.Event
	for _, ev := range m.events[gameID] {
		if ev.Seq > fromSeq {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (m *MemStore) ReadSnapshot(ctx context.Context, gameID string) (*game.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap, ok := m.snapshots[gameID]
	if !ok {
		return nil, ErrNotFound
	}
	out := snap
	out.State = snap.State.Clone()
	return &out, nil
}

func (m *MemStore) WriteSnapshot(ctx context.Context, gameID string, snap game.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	snap.State = snap.State.Clone()
	m.snapshots[gameID] = snap
	return nil
}

func (m *MemStore) CreateRoom(ctx context.Context, room Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rooms[room.Code]; ok {
		return fmt.Errorf("%w: room code %s", ErrConflict, room.Code)
	}
	if room.Created.IsZero() {
		room.Created = m.clock.Now()
	}
	m.rooms[room.Code] = room
	return nil
}

func (m *MemStore) GetRoom(ctx context.Context, code string) (*Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	room, ok := m.rooms[code]
	if !ok {
		return nil, ErrNotFound
	}
	return &room, nil
}

func (m *MemStore) CreateRoomPlayer(ctx context.Context, player RoomPlayer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := player.RoomID + "/" + player.Name
	if _, ok := m.players[key]; ok {
		return fmt.Errorf("%w: player %s", ErrConflict, player.Name)
	}
	m.players[key] = player
	return nil
}

func (m *MemStore) GetRoomPlayer(ctx context.Context, roomID, name string) (*RoomPlayer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	player, ok := m.players[roomID+"/"+name]
	if !ok {
		return nil, ErrNotFound
	}
	return &player, nil
}

func (m *MemStore) CreateGame(ctx context.Context, g Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.games[g.ID]; ok {
		return fmt.Errorf("%w: game %s", ErrConflict, g.ID)
	}
	if g.Created.IsZero() {
		g.Created = m.clock.Now()
	}
	m.games[g.ID] = g
	return nil
}

func (m *MemStore) GetGame(ctx context.Context, gameID string) (*Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, ok := m.games[gameID]
	if !ok {
		return nil, ErrNotFound
	}
	return &g, nil
}

func (m *MemStore) GetRoomGame(ctx context.Context, roomID string) (*Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, g := range m.games {
		if g.RoomID == roomID && !g.Archived {
			out := g
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemStore) ArchiveGame(ctx context.Context, gameID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.games[gameID]
	if !ok {
		return ErrNotFound
	}
	g.Archived = true
	m.games[gameID] = g
	return nil
}

func (m *MemStore) Close() error { return nil }
