package server

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/holdemroom/internal/fileutil"
	"github.com/lox/holdemroom/internal/game"
	"github.com/lox/holdemroom/internal/phh"
)

// archiveTimeout bounds the event read behind one export.
const archiveTimeout = 30 * time.Second

// Archiver exports each completed hand as a PHH document under
// <dir>/<roomCode>/<handNo>.phh. Export is best effort: failures are
// logged and never fail the committing command.
type Archiver struct {
	mu       sync.Mutex
	store    game.Store
	dir      string
	logger   *log.Logger
	archived map[string]int // game id to last exported hand
}

// NewArchiver creates an archiver writing under dir.
func NewArchiver(st game.Store, dir string, logger *log.Logger) *Archiver {
	return &Archiver{
		store:    st,
		dir:      dir,
		logger:   logger.WithPrefix("archive"),
		archived: make(map[string]int),
	}
}

// OnTransition observes committed transitions and exports the hand the
// first time it is seen complete. It runs inside the command lane, so
// the write happens on a separate goroutine.
func (a *Archiver) OnTransition(state *game.State, revision uint64, reason string) {
	if !state.HandDone || state.HandNumber == 0 {
		return
	}

	a.mu.Lock()
	if a.archived[state.ID] >= state.HandNumber {
		a.mu.Unlock()
		return
	}
	a.archived[state.ID] = state.HandNumber
	a.mu.Unlock()

	go a.export(state.ID, state.RoomCode, state.HandNumber)
}

func (a *Archiver) export(gameID, roomCode string, handNo int) {
	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()

	events, err := a.store.ReadEvents(ctx, gameID, 0)
	if err != nil {
		a.logger.Warn("hand export skipped, event read failed", "game", gameID, "hand", handNo, "error", err)
		return
	}

	hand, err := phh.Build(events, handNo, roomCode)
	if err != nil {
		a.logger.Warn("hand export skipped", "game", gameID, "hand", handNo, "error", err)
		return
	}

	data, err := hand.Bytes()
	if err != nil {
		a.logger.Warn("hand export skipped, encode failed", "game", gameID, "hand", handNo, "error", err)
		return
	}

	dir := filepath.Join(a.dir, roomCode)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		a.logger.Warn("hand export skipped, mkdir failed", "dir", dir, "error", err)
		return
	}

	path := filepath.Join(dir, fmt.Sprintf("%d.phh", handNo))
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		a.logger.Warn("hand export failed", "path", path, "error", err)
		return
	}
	a.logger.Debug("hand exported", "path", path)
}
