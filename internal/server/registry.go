package server

import (
	"context"
	"errors"
	rand "math/rand/v2"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/holdemroom/internal/game"
	"github.com/lox/holdemroom/internal/gameid"
	"github.com/lox/holdemroom/internal/holdemerr"
	"github.com/lox/holdemroom/internal/randutil"
	"github.com/lox/holdemroom/internal/store"
)

// roomCodeAttempts bounds collision retries during code generation.
const roomCodeAttempts = 10

// Registry maps room codes to their current game and owns the live
// orchestrators. Room credentials outlive individual games; NextGame
// archives the finished game and starts a fresh one under the same
// code.
type Registry struct {
	mu     sync.Mutex
	store  store.Store
	clock  quartz.Clock
	logger *log.Logger
	rng    *rand.Rand
	games  map[string]*game.Orchestrator
	notify game.NotifyFunc
}

// NewRegistry creates a registry backed by the store.
func NewRegistry(st store.Store, clock quartz.Clock, logger *log.Logger) *Registry {
	return &Registry{
		store:  st,
		clock:  clock,
		logger: logger.WithPrefix("registry"),
		rng:    randutil.New(clock.Now().UnixNano()),
		games:  make(map[string]*game.Orchestrator),
	}
}

// SetNotify registers the callback wired onto every orchestrator the
// registry creates or loads.
func (r *Registry) SetNotify(fn game.NotifyFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notify = fn
	for _, orch := range r.games {
		orch.SetNotify(fn)
	}
}

// CreateGame creates a room with a fresh code and its first game.
func (r *Registry) CreateGame(ctx context.Context, cfg game.Config) (*game.Orchestrator, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	code, err := r.newRoomCode(ctx)
	if err != nil {
		return nil, "", err
	}

	room := store.Room{
		ID:      gameid.Generate(),
		Code:    code,
		Config:  cfg,
		Created: r.clock.Now(),
	}
	if err := r.store.CreateRoom(ctx, room); err != nil {
		return nil, "", holdemerr.New(holdemerr.StorageUnavailable, "Could not create room")
	}

	orch, err := r.startGame(ctx, &room)
	if err != nil {
		return nil, "", err
	}
	return orch, code, nil
}

// ByRoomCode resolves a room code to its room and current game.
func (r *Registry) ByRoomCode(ctx context.Context, code string) (*game.Orchestrator, *store.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, err := r.store.GetRoom(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, holdemerr.Newf(holdemerr.NotFound, "Room %s not found", code)
		}
		return nil, nil, holdemerr.New(holdemerr.StorageUnavailable, "Could not load room")
	}

	g, err := r.store.GetRoomGame(ctx, room.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, holdemerr.Newf(holdemerr.NotFound, "Room %s has no game", code)
		}
		return nil, nil, holdemerr.New(holdemerr.StorageUnavailable, "Could not load game")
	}

	orch, err := r.orchestrator(ctx, g.ID)
	if err != nil {
		return nil, nil, err
	}
	return orch, room, nil
}

// ByGameID resolves a game id to its live orchestrator.
func (r *Registry) ByGameID(ctx context.Context, gameID string) (*game.Orchestrator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.orchestrator(ctx, gameID)
}

// NextGame archives the room's current game and starts a fresh one
// with the same configuration. Seats reset; room credentials survive.
func (r *Registry) NextGame(ctx context.Context, code string) (*game.Orchestrator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, err := r.store.GetRoom(ctx, code)
	if err != nil {
		return nil, holdemerr.Newf(holdemerr.NotFound, "Room %s not found", code)
	}

	current, err := r.store.GetRoomGame(ctx, room.ID)
	if err == nil {
		if aerr := r.store.ArchiveGame(ctx, current.ID); aerr != nil {
			return nil, holdemerr.New(holdemerr.StorageUnavailable, "Could not archive game")
		}
		delete(r.games, current.ID)
	}

	return r.startGame(ctx, room)
}

// startGame creates and registers the next game for a room. Callers
// hold the registry mutex.
func (r *Registry) startGame(ctx context.Context, room *store.Room) (*game.Orchestrator, error) {
	id := gameid.Generate()
	seed := r.rng.Int64()

	rec := store.Game{
		ID:       id,
		RoomID:   room.ID,
		RoomCode: room.Code,
		Config:   room.Config,
		Seed:     seed,
		Created:  r.clock.Now(),
	}
	if err := r.store.CreateGame(ctx, rec); err != nil {
		return nil, holdemerr.New(holdemerr.StorageUnavailable, "Could not create game")
	}

	orch, err := game.CreateGame(ctx, r.store, r.clock, r.logger, id, room.Code, room.Config, seed)
	if err != nil {
		return nil, err
	}
	if r.notify != nil {
		orch.SetNotify(r.notify)
	}
	r.games[id] = orch
	r.logger.Info("game created", "room", room.Code, "game", id)
	return orch, nil
}

// orchestrator returns the cached orchestrator or rebuilds it from the
// log. Callers hold the registry mutex.
func (r *Registry) orchestrator(ctx context.Context, gameID string) (*game.Orchestrator, error) {
	if orch, ok := r.games[gameID]; ok {
		return orch, nil
	}
	orch, err := game.LoadGame(ctx, r.store, r.clock, r.logger, gameID)
	if err != nil {
		return nil, err
	}
	if r.notify != nil {
		orch.SetNotify(r.notify)
	}
	r.games[gameID] = orch
	return orch, nil
}

// newRoomCode generates a code not yet present in the store.
func (r *Registry) newRoomCode(ctx context.Context) (string, error) {
	for i := 0; i < roomCodeAttempts; i++ {
		code := gameid.NewRoomCode(r.rng)
		if _, err := r.store.GetRoom(ctx, code); errors.Is(err, store.ErrNotFound) {
			return code, nil
		}
	}
	return "", holdemerr.New(holdemerr.Internal, "Could not allocate a room code")
}
