package server

import (
	"sync"

	"github.com/charmbracelet/log"

	"github.com/lox/holdemroom/internal/game"
)

// Sink receives outbound messages for one subscriber. Send must not
// block; connections buffer internally and fail fast when full.
type Sink interface {
	Send(msg *Message) error
}

// subscription binds a sink to a room under one projection policy.
type subscription struct {
	sink Sink
	mode game.ViewMode
	seat int
}

// Dispatcher fans committed state transitions out to subscribers.
// Projections are computed once per mode per revision (player mode
// once per distinct viewing seat) and shared across subscribers.
type Dispatcher struct {
	mu     sync.Mutex
	logger *log.Logger
	rooms  map[string][]*subscription
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(logger *log.Logger) *Dispatcher {
	return &Dispatcher{
		logger: logger.WithPrefix("dispatch"),
		rooms:  make(map[string][]*subscription),
	}
}

// Subscribe registers a sink for a room. Seat is ignored in table
// mode. Subscriptions are keyed by room code so they survive game
// rotation within the room.
func (d *Dispatcher) Subscribe(roomCode string, mode game.ViewMode, seat int, sink Sink) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rooms[roomCode] = append(d.rooms[roomCode], &subscription{sink: sink, mode: mode, seat: seat})
}

// Unsubscribe removes every subscription held by the sink.
func (d *Dispatcher) Unsubscribe(sink Sink) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for code, subs := range d.rooms {
		kept := subs[:0]
		for _, sub := range subs {
			if sub.sink != sink {
				kept = append(kept, sub)
			}
		}
		if len(kept) == 0 {
			delete(d.rooms, code)
		} else {
			d.rooms[code] = kept
		}
	}
}

// Dispatch projects and delivers one committed transition to the
// room's subscribers. It runs inside the game's command lane, so
// revisions arrive in order with no gaps; failed sinks are dropped.
func (d *Dispatcher) Dispatch(state *game.State, revision uint64, reason string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	subs := d.rooms[state.RoomCode]
	if len(subs) == 0 {
		return
	}

	var tableMsg *Message
	playerMsgs := make(map[int]*Message)
	kept := subs[:0]

	for _, sub := range subs {
		var msg *Message
		var err error
		switch sub.mode {
		case game.ViewPlayer:
			msg = playerMsgs[sub.seat]
			if msg == nil {
				msg, err = d.stateMessage(state, game.ViewPlayer, sub.seat, revision, reason)
				if err == nil {
					playerMsgs[sub.seat] = msg
				}
			}
		default:
			msg = tableMsg
			if msg == nil {
				msg, err = d.stateMessage(state, game.ViewTable, -1, revision, reason)
				if err == nil {
					tableMsg = msg
				}
			}
		}
		if err != nil {
			d.logger.Error("projection failed", "room", state.RoomCode, "error", err)
			kept = append(kept, sub)
			continue
		}

		if err := sub.sink.Send(msg); err != nil {
			d.logger.Debug("dropping subscriber", "room", state.RoomCode, "error", err)
			continue
		}
		kept = append(kept, sub)
	}

	if len(kept) == 0 {
		delete(d.rooms, state.RoomCode)
	} else {
		d.rooms[state.RoomCode] = kept
	}
}

func (d *Dispatcher) stateMessage(state *game.State, mode game.ViewMode, seat int, revision uint64, reason string) (*Message, error) {
	return NewMessage(MessageTypeGameState, GameStateData{
		State:    game.Project(state, mode, seat),
		Revision: revision,
		Reason:   reason,
	})
}
