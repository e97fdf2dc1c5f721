package server

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/holdemroom/internal/auth"
	"github.com/lox/holdemroom/internal/game"
	"github.com/lox/holdemroom/internal/gameid"
	"github.com/lox/holdemroom/internal/holdemerr"
	"github.com/lox/holdemroom/internal/store"
)

// Service glues the command surface together: it resolves rooms and
// tokens, runs commands through the game orchestrators, and feeds
// every committed transition to the dispatcher and the hand archiver.
type Service struct {
	store      store.Store
	clock      quartz.Clock
	logger     *log.Logger
	defaults   game.Config
	issuer     *auth.Issuer
	registry   *Registry
	dispatcher *Dispatcher
	archiver   *Archiver
}

// NewService wires a service. archiveDir may be empty to disable the
// PHH hand archive.
func NewService(st store.Store, clock quartz.Clock, logger *log.Logger, defaults game.Config, archiveDir string) *Service {
	s := &Service{
		store:      st,
		clock:      clock,
		logger:     logger.WithPrefix("service"),
		defaults:   defaults,
		issuer:     auth.NewIssuer(),
		registry:   NewRegistry(st, clock, logger),
		dispatcher: NewDispatcher(logger),
	}
	if archiveDir != "" {
		s.archiver = NewArchiver(st, archiveDir, logger)
	}
	s.registry.SetNotify(func(state *game.State, revision uint64, reason string) {
		s.dispatcher.Dispatch(state, revision, reason)
		if s.archiver != nil {
			s.archiver.OnTransition(state, revision, reason)
		}
	})
	return s
}

// CreateGame creates a room and its first game.
func (s *Service) CreateGame(ctx context.Context, data CreateGameData) (*GameCreatedData, error) {
	cfg := s.defaults
	if data.SmallBlind > 0 {
		cfg.SmallBlind = data.SmallBlind
	}
	if data.BigBlind > 0 {
		cfg.BigBlind = data.BigBlind
	}
	if data.StartingChips > 0 {
		cfg.StartingChips = data.StartingChips
	}
	if cfg.SmallBlind <= 0 || cfg.BigBlind <= cfg.SmallBlind || cfg.StartingChips < cfg.BigBlind {
		return nil, holdemerr.New(holdemerr.InvalidAmount, "Invalid blind structure")
	}

	orch, code, err := s.registry.CreateGame(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &GameCreatedData{GameID: orch.ID(), RoomCode: code}, nil
}

// JoinGame registers or verifies a room credential and seats the
// player while the game is still waiting. Rejoining after a restart
// re-issues a token for the existing seat.
func (s *Service) JoinGame(ctx context.Context, data JoinGameData) (*AuthOKData, error) {
	if data.Name == "" || data.Password == "" {
		return nil, holdemerr.New(holdemerr.InvalidState, "Name and password are required")
	}

	orch, room, err := s.registry.ByRoomCode(ctx, data.RoomCode)
	if err != nil {
		return nil, err
	}

	player, err := s.store.GetRoomPlayer(ctx, room.ID, data.Name)
	switch {
	case errors.Is(err, store.ErrNotFound):
		hash, herr := auth.HashPassword(data.Password)
		if herr != nil {
			return nil, holdemerr.New(holdemerr.Internal, "Could not store credential")
		}
		player = &store.RoomPlayer{
			ID:           gameid.Generate(),
			RoomID:       room.ID,
			Name:         data.Name,
			PasswordHash: hash,
		}
		if cerr := s.store.CreateRoomPlayer(ctx, *player); cerr != nil {
			if errors.Is(cerr, store.ErrConflict) {
				return nil, holdemerr.Newf(holdemerr.Conflict, "Name %q is taken", data.Name)
			}
			return nil, holdemerr.New(holdemerr.StorageUnavailable, "Could not store credential")
		}
	case err != nil:
		return nil, holdemerr.New(holdemerr.StorageUnavailable, "Could not load credential")
	default:
		if verr := auth.VerifyPassword(player.PasswordHash, data.Password); verr != nil {
			return nil, holdemerr.New(holdemerr.Unauthenticated, "Invalid name or password")
		}
	}

	st := orch.State()
	seat := st.SeatByName(data.Name)
	if seat == nil {
		if _, jerr := orch.Join(ctx, player.ID, data.Name); jerr != nil {
			return nil, jerr
		}
		st = orch.State()
		seat = st.SeatByName(data.Name)
	}

	token, err := s.issuer.Issue(auth.Session{
		SeatID:   player.ID,
		GameID:   orch.ID(),
		Position: seat.Position,
	})
	if err != nil {
		return nil, holdemerr.New(holdemerr.Internal, "Could not issue token")
	}
	return &AuthOKData{SeatID: player.ID, AuthToken: token, Position: seat.Position}, nil
}

// AuthGame verifies an existing room credential without seating.
func (s *Service) AuthGame(ctx context.Context, data AuthGameData) (*AuthOKData, error) {
	orch, room, err := s.registry.ByRoomCode(ctx, data.RoomCode)
	if err != nil {
		return nil, err
	}

	player, err := s.store.GetRoomPlayer(ctx, room.ID, data.Name)
	if err != nil {
		return nil, holdemerr.New(holdemerr.Unauthenticated, "Invalid name or password")
	}
	if err := auth.VerifyPassword(player.PasswordHash, data.Password); err != nil {
		return nil, holdemerr.New(holdemerr.Unauthenticated, "Invalid name or password")
	}

	position := -1
	if seat := orch.State().SeatByName(data.Name); seat != nil {
		position = seat.Position
	}

	token, err := s.issuer.Issue(auth.Session{
		SeatID:   player.ID,
		GameID:   orch.ID(),
		Position: position,
	})
	if err != nil {
		return nil, holdemerr.New(holdemerr.Internal, "Could not issue token")
	}
	return &AuthOKData{SeatID: player.ID, AuthToken: token, Position: position}, nil
}

// StartHand deals the first hand of a waiting game.
func (s *Service) StartHand(ctx context.Context, data StartHandData) (*GameStateData, error) {
	orch, err := s.registry.ByGameID(ctx, data.GameID)
	if err != nil {
		return nil, err
	}
	if _, err := orch.StartHand(ctx); err != nil {
		return nil, err
	}
	return s.projected(orch, game.ViewTable, -1, "start_hand"), nil
}

// Act submits one betting action for the token's seat.
func (s *Service) Act(ctx context.Context, data ActionData) (*GameStateData, error) {
	sess, orch, err := s.session(ctx, data.Token)
	if err != nil {
		return nil, err
	}
	kind, err := parseActionKind(data.Kind)
	if err != nil {
		return nil, err
	}
	if _, err := orch.Act(ctx, sess.Position, kind, data.Amount); err != nil {
		return nil, err
	}
	return s.projected(orch, game.ViewPlayer, sess.Position, "action:"+data.Kind), nil
}

// Reveal flips the remaining hole cards in an all-in hand and deals
// the next street.
func (s *Service) Reveal(ctx context.Context, data TokenData) (*GameStateData, error) {
	sess, orch, err := s.session(ctx, data.Token)
	if err != nil {
		return nil, err
	}
	if _, err := orch.Reveal(ctx, sess.Position); err != nil {
		return nil, err
	}
	return s.projected(orch, game.ViewPlayer, sess.Position, "reveal"), nil
}

// Advance moves a locked board to the next street or runs the
// showdown.
func (s *Service) Advance(ctx context.Context, data TokenData) (*GameStateData, error) {
	sess, orch, err := s.session(ctx, data.Token)
	if err != nil {
		return nil, err
	}
	if _, err := orch.Advance(ctx); err != nil {
		return nil, err
	}
	return s.projected(orch, game.ViewPlayer, sess.Position, "advance"), nil
}

// NextHand rotates the dealer and deals again after a completed hand.
func (s *Service) NextHand(ctx context.Context, data TokenData) (*GameStateData, error) {
	sess, orch, err := s.session(ctx, data.Token)
	if err != nil {
		return nil, err
	}
	if _, err := orch.NextHand(ctx); err != nil {
		return nil, err
	}
	return s.projected(orch, game.ViewPlayer, sess.Position, "next_hand"), nil
}

// NextGame archives the room's current game and starts a fresh one.
// The token must belong to the game being rotated away.
func (s *Service) NextGame(ctx context.Context, data NextGameData) (*GameStateData, error) {
	sess, err := s.issuer.Resolve(data.Token)
	if err != nil {
		return nil, holdemerr.New(holdemerr.Unauthenticated, "Invalid token")
	}
	current, _, err := s.registry.ByRoomCode(ctx, data.RoomCode)
	if err != nil {
		return nil, err
	}
	if current.ID() != sess.GameID {
		return nil, holdemerr.New(holdemerr.Forbidden, "Token is not for this room's game")
	}

	orch, err := s.registry.NextGame(ctx, data.RoomCode)
	if err != nil {
		return nil, err
	}
	// The caller's token was bound to the archived game; players re-auth
	// against the fresh one.
	s.issuer.Revoke(data.Token)
	return s.projected(orch, game.ViewTable, -1, "next_game"), nil
}

// LegalActions returns the action affordances for the token's seat.
func (s *Service) LegalActions(ctx context.Context, data TokenData) (*ActionsData, error) {
	sess, orch, err := s.session(ctx, data.Token)
	if err != nil {
		return nil, err
	}
	return &ActionsData{Actions: orch.LegalActionsFor(sess.Position)}, nil
}

// Subscribe registers the sink on the room's stream and returns the
// subscribe-time snapshot. Player mode requires a token whose seat is
// in the room's current game.
func (s *Service) Subscribe(ctx context.Context, data SubscribeData, sink Sink) (*SubscribedData, *GameStateData, error) {
	mode := game.ViewMode(data.Mode)
	if mode != game.ViewTable && mode != game.ViewPlayer {
		return nil, nil, holdemerr.Newf(holdemerr.InvalidState, "Unknown mode %q", data.Mode)
	}

	orch, _, err := s.registry.ByRoomCode(ctx, data.RoomCode)
	if err != nil {
		return nil, nil, err
	}

	seat := -1
	if mode == game.ViewPlayer {
		sess, rerr := s.issuer.Resolve(data.Token)
		if rerr != nil {
			return nil, nil, holdemerr.New(holdemerr.Unauthenticated, "Invalid token")
		}
		if sess.GameID != orch.ID() || sess.Position < 0 {
			return nil, nil, holdemerr.New(holdemerr.Forbidden, "Token has no seat in this game")
		}
		seat = sess.Position
	}

	s.dispatcher.Subscribe(data.RoomCode, mode, seat, sink)

	st, revision := orch.StateRevision()
	snapshot := &GameStateData{
		State:    game.Project(st, mode, seat),
		Revision: revision,
		Reason:   "snapshot",
	}
	return &SubscribedData{RoomCode: data.RoomCode, Mode: data.Mode}, snapshot, nil
}

// Unsubscribe drops every subscription held by the sink.
func (s *Service) Unsubscribe(sink Sink) {
	s.dispatcher.Unsubscribe(sink)
}

// session resolves a token to its session and live orchestrator.
func (s *Service) session(ctx context.Context, token string) (auth.Session, *game.Orchestrator, error) {
	sess, err := s.issuer.Resolve(token)
	if err != nil {
		return auth.Session{}, nil, holdemerr.New(holdemerr.Unauthenticated, "Invalid token")
	}
	orch, err := s.registry.ByGameID(ctx, sess.GameID)
	if err != nil {
		return auth.Session{}, nil, err
	}
	return sess, orch, nil
}

// projected builds the post-command state response in the caller's
// view.
func (s *Service) projected(orch *game.Orchestrator, mode game.ViewMode, seat int, reason string) *GameStateData {
	st, revision := orch.StateRevision()
	return &GameStateData{
		State:    game.Project(st, mode, seat),
		Revision: revision,
		Reason:   reason,
	}
}

func parseActionKind(kind string) (game.ActionKind, error) {
	switch k := game.ActionKind(kind); k {
	case game.ActionFold, game.ActionCheck, game.ActionCall, game.ActionBet, game.ActionRaise, game.ActionAllIn:
		return k, nil
	default:
		return "", holdemerr.Newf(holdemerr.InvalidState, "Unknown action %q", kind)
	}
}
