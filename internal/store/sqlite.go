package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lox/holdemroom/internal/game"
)

// SQLiteStore persists everything in a single SQLite database. Event
// appends run inside one transaction per call; a unique index on
// (game_id, seq) backs the sequence guarantee.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS rooms (
	id         TEXT PRIMARY KEY,
	code       TEXT NOT NULL UNIQUE,
	config     TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS room_players (
	id            TEXT PRIMARY KEY,
	room_id       TEXT NOT NULL REFERENCES rooms(id),
	name          TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	UNIQUE (room_id, name)
);

CREATE TABLE IF NOT EXISTS games (
	id         TEXT PRIMARY KEY,
	room_id    TEXT NOT NULL REFERENCES rooms(id),
	room_code  TEXT NOT NULL,
	config     TEXT NOT NULL,
	seed       INTEGER NOT NULL,
	archived   INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
	game_id TEXT NOT NULL,
	seq     INTEGER NOT NULL,
	hand_no INTEGER NOT NULL,
	kind    TEXT NOT NULL,
	body    TEXT NOT NULL,
	PRIMARY KEY (game_id, seq)
);

CREATE TABLE IF NOT EXISTS snapshots (
	game_id  TEXT PRIMARY KEY,
	hand_no  INTEGER NOT NULL,
	last_seq INTEGER NOT NULL,
	state    TEXT NOT NULL
);
`

// OpenSQLite opens (and if necessary initializes) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_fk=1")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) AppendEvents(ctx context.Context, gameID string, events []game.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var last sql.NullInt64
	if err := tx.QueryRowContext(ctx,
		`SELECT MAX(seq) FROM events WHERE game_id = ?`, gameID).Scan(&last); err != nil {
		return fmt.Errorf("read tail: %w", err)
	}
	next := uint64(last.Int64) + 1

	for i, ev := range events {
		if ev.Seq != next+uint64(i) {
			return fmt.Errorf("%w: event %d has seq %d, want %d", ErrSequence, i, ev.Seq, next+uint64(i))
		}
		body, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("marshal event %d: %w", ev.Seq, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO events (game_id, seq, hand_no, kind, body) VALUES (?, ?, ?, ?, ?)`,
			gameID, ev.Seq, ev.HandNo, string(ev.Kind), string(body)); err != nil {
			return fmt.Errorf("insert event %d: %w", ev.Seq, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) ReadEvents(ctx context.Context, gameID string, fromSeq uint64) ([]game.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT body FROM events WHERE game_id = ? AND seq > ? ORDER BY seq`, gameID, fromSeq)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []game.Event
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var ev game.Event
		if err := json.Unmarshal([]byte(body), &ev); err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ReadSnapshot(ctx context.Context, gameID string) (*game.Snapshot, error) {
	var handNo int
	var lastSeq uint64
	var stateJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT hand_no, last_seq, state FROM snapshots WHERE game_id = ?`, gameID).
		Scan(&handNo, &lastSeq, &stateJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	state := game.NewState()
	if err := json.Unmarshal([]byte(stateJSON), state); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &game.Snapshot{HandNo: handNo, LastSeq: lastSeq, State: state}, nil
}

func (s *SQLiteStore) WriteSnapshot(ctx context.Context, gameID string, snap game.Snapshot) error {
	stateJSON, err := json.Marshal(snap.State)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (game_id, hand_no, last_seq, state) VALUES (?, ?, ?, ?)
		 ON CONFLICT (game_id) DO UPDATE SET hand_no = excluded.hand_no,
		 last_seq = excluded.last_seq, state = excluded.state`,
		gameID, snap.HandNo, snap.LastSeq, string(stateJSON))
	return err
}

func (s *SQLiteStore) CreateRoom(ctx context.Context, room Room) error {
	cfg, err := json.Marshal(room.Config)
	if err != nil {
		return err
	}
	created := room.Created
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO rooms (id, code, config, created_at) VALUES (?, ?, ?, ?)`,
		room.ID, room.Code, string(cfg), created)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: room code %s", ErrConflict, room.Code)
	}
	return err
}

func (s *SQLiteStore) GetRoom(ctx context.Context, code string) (*Room, error) {
	var room Room
	var cfg string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, code, config, created_at FROM rooms WHERE code = ?`, code).
		Scan(&room.ID, &room.Code, &cfg, &room.Created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(cfg), &room.Config); err != nil {
		return nil, fmt.Errorf("decode room config: %w", err)
	}
	return &room, nil
}

func (s *SQLiteStore) CreateRoomPlayer(ctx context.Context, player RoomPlayer) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO room_players (id, room_id, name, password_hash) VALUES (?, ?, ?, ?)`,
		player.ID, player.RoomID, player.Name, player.PasswordHash)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: player %s", ErrConflict, player.Name)
	}
	return err
}

func (s *SQLiteStore) GetRoomPlayer(ctx context.Context, roomID, name string) (*RoomPlayer, error) {
	var player RoomPlayer
	err := s.db.QueryRowContext(ctx,
		`SELECT id, room_id, name, password_hash FROM room_players WHERE room_id = ? AND name = ?`,
		roomID, name).
		Scan(&player.ID, &player.RoomID, &player.Name, &player.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *SQLiteStore) CreateGame(ctx context.Context, g Game) error {
	cfg, err := json.Marshal(g.Config)
	if err != nil {
		return err
	}
	created := g.Created
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO games (id, room_id, room_code, config, seed, archived, created_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?)`,
		g.ID, g.RoomID, g.RoomCode, string(cfg), g.Seed, created)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: game %s", ErrConflict, g.ID)
	}
	return err
}

func (s *SQLiteStore) GetGame(ctx context.Context, gameID string) (*Game, error) {
	return s.scanGame(s.db.QueryRowContext(ctx,
		`SELECT id, room_id, room_code, config, seed, archived, created_at
		 FROM games WHERE id = ?`, gameID))
}

func (s *SQLiteStore) GetRoomGame(ctx context.Context, roomID string) (*Game, error) {
	return s.scanGame(s.db.QueryRowContext(ctx,
		`SELECT id, room_id, room_code, config, seed, archived, created_at
		 FROM games WHERE room_id = ? AND archived = 0
		 ORDER BY created_at DESC LIMIT 1`, roomID))
}

func (s *SQLiteStore) ArchiveGame(ctx context.Context, gameID string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE games SET archived = 1 WHERE id = ?`, gameID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) scanGame(row *sql.Row) (*Game, error) {
	var g Game
	var cfg string
	var archived int
	err := row.Scan(&g.ID, &g.RoomID, &g.RoomCode, &cfg, &g.Seed, &archived, &g.Created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	g.Archived = archived != 0
	if err := json.Unmarshal([]byte(cfg), &g.Config); err != nil {
		return nil, fmt.Errorf("decode game config: %w", err)
	}
	return &g, nil
}

// isUniqueViolation detects SQLite unique constraint failures without
// binding to the driver's error type.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "constraint failed")
}
