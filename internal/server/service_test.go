package server

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/holdemroom/internal/game"
	"github.com/lox/holdemroom/internal/gameid"
	"github.com/lox/holdemroom/internal/holdemerr"
	"github.com/lox/holdemroom/internal/store"
)

func newTestService(t *testing.T, archiveDir string) (context.Context, *Service) {
	t.Helper()
	clock := quartz.NewMock(t)
	st := store.NewMemStore(clock)
	defaults := game.Config{SmallBlind: 5, BigBlind: 10, StartingChips: 200}
	return context.Background(), NewService(st, clock, log.New(io.Discard), defaults, archiveDir)
}

// joinTwo creates a room and seats alice and bob, returning the room
// code, game id and both auth results.
func joinTwo(t *testing.T, ctx context.Context, svc *Service) (string, string, *AuthOKData, *AuthOKData) {
	t.Helper()

	created, err := svc.CreateGame(ctx, CreateGameData{})
	require.NoError(t, err)
	require.True(t, gameid.ValidateRoomCode(created.RoomCode))
	require.NoError(t, gameid.Validate(created.GameID))

	alice, err := svc.JoinGame(ctx, JoinGameData{RoomCode: created.RoomCode, Name: "alice", Password: "pw-a"})
	require.NoError(t, err)
	bob, err := svc.JoinGame(ctx, JoinGameData{RoomCode: created.RoomCode, Name: "bob", Password: "pw-b"})
	require.NoError(t, err)

	assert.Equal(t, 0, alice.Position)
	assert.Equal(t, 1, bob.Position)
	return created.RoomCode, created.GameID, alice, bob
}

func TestCreateGameBlindValidation(t *testing.T) {
	ctx, svc := newTestService(t, "")

	_, err := svc.CreateGame(ctx, CreateGameData{SmallBlind: 10, BigBlind: 10})
	assert.Equal(t, holdemerr.InvalidAmount, holdemerr.KindOf(err))

	_, err = svc.CreateGame(ctx, CreateGameData{BigBlind: 50, StartingChips: 40})
	assert.Equal(t, holdemerr.InvalidAmount, holdemerr.KindOf(err))

	created, err := svc.CreateGame(ctx, CreateGameData{SmallBlind: 25, BigBlind: 50, StartingChips: 5000})
	require.NoError(t, err)
	assert.NotEmpty(t, created.RoomCode)
}

func TestJoinGameCredentials(t *testing.T) {
	ctx, svc := newTestService(t, "")
	code, _, _, _ := joinTwo(t, ctx, svc)

	// Re-joining with the right password re-issues a token for the same
	// seat instead of seating again.
	again, err := svc.JoinGame(ctx, JoinGameData{RoomCode: code, Name: "alice", Password: "pw-a"})
	require.NoError(t, err)
	assert.Equal(t, 0, again.Position)

	_, err = svc.JoinGame(ctx, JoinGameData{RoomCode: code, Name: "alice", Password: "wrong"})
	assert.Equal(t, holdemerr.Unauthenticated, holdemerr.KindOf(err))

	_, err = svc.JoinGame(ctx, JoinGameData{RoomCode: code, Name: "", Password: "pw"})
	assert.Equal(t, holdemerr.InvalidState, holdemerr.KindOf(err))

	_, err = svc.JoinGame(ctx, JoinGameData{RoomCode: "ZZZZZZ", Name: "eve", Password: "pw"})
	assert.Equal(t, holdemerr.NotFound, holdemerr.KindOf(err))
}

func TestAuthGameVerifiesWithoutSeating(t *testing.T) {
	ctx, svc := newTestService(t, "")
	code, _, _, _ := joinTwo(t, ctx, svc)

	ok, err := svc.AuthGame(ctx, AuthGameData{RoomCode: code, Name: "bob", Password: "pw-b"})
	require.NoError(t, err)
	assert.Equal(t, 1, ok.Position)
	assert.NotEmpty(t, ok.AuthToken)

	_, err = svc.AuthGame(ctx, AuthGameData{RoomCode: code, Name: "bob", Password: "nope"})
	assert.Equal(t, holdemerr.Unauthenticated, holdemerr.KindOf(err))

	_, err = svc.AuthGame(ctx, AuthGameData{RoomCode: code, Name: "stranger", Password: "pw"})
	assert.Equal(t, holdemerr.Unauthenticated, holdemerr.KindOf(err))
}

func TestHandFlowThroughService(t *testing.T) {
	ctx, svc := newTestService(t, "")
	code, gameID, alice, bob := joinTwo(t, ctx, svc)

	sink := &fakeSink{}
	sub, snapshot, err := svc.Subscribe(ctx, SubscribeData{RoomCode: code, Mode: "table"}, sink)
	require.NoError(t, err)
	assert.Equal(t, "table", sub.Mode)
	assert.Equal(t, "snapshot", snapshot.Reason)
	assert.Equal(t, game.StatusWaiting, snapshot.State.Status)

	state, err := svc.StartHand(ctx, StartHandData{GameID: gameID})
	require.NoError(t, err)
	assert.Equal(t, 1, state.State.HandNumber)
	assert.Equal(t, "start_hand", state.Reason)

	// The table subscriber saw the committed transition.
	require.NotEmpty(t, sink.msgs)
	assert.Equal(t, "hand_start", sink.lastState(t).Reason)

	// Alice is the dealer and opens; her affordances say so.
	actions, err := svc.LegalActions(ctx, TokenData{Token: alice.AuthToken})
	require.NoError(t, err)
	assert.True(t, actions.Actions.CanFold)
	assert.True(t, actions.Actions.CanCall)

	// Bob is not to act.
	actions, err = svc.LegalActions(ctx, TokenData{Token: bob.AuthToken})
	require.NoError(t, err)
	assert.False(t, actions.Actions.CanFold)

	state, err = svc.Act(ctx, ActionData{Token: alice.AuthToken, Kind: "fold"})
	require.NoError(t, err)
	assert.Equal(t, game.StatusPlaying, state.State.Status)
	assert.Equal(t, []int{1}, state.State.Winners)

	// Next hand rotates the dealer.
	state, err = svc.NextHand(ctx, TokenData{Token: bob.AuthToken})
	require.NoError(t, err)
	assert.Equal(t, 2, state.State.HandNumber)
	assert.Equal(t, 1, state.State.DealerPosition)
}

func TestActRejectsBadInput(t *testing.T) {
	ctx, svc := newTestService(t, "")
	_, gameID, alice, _ := joinTwo(t, ctx, svc)
	_, err := svc.StartHand(ctx, StartHandData{GameID: gameID})
	require.NoError(t, err)

	_, err = svc.Act(ctx, ActionData{Token: "bogus", Kind: "fold"})
	assert.Equal(t, holdemerr.Unauthenticated, holdemerr.KindOf(err))

	_, err = svc.Act(ctx, ActionData{Token: alice.AuthToken, Kind: "straddle"})
	assert.Equal(t, holdemerr.InvalidState, holdemerr.KindOf(err))
}

func TestSubscribePlayerModeNeedsSeatToken(t *testing.T) {
	ctx, svc := newTestService(t, "")
	code, _, alice, _ := joinTwo(t, ctx, svc)

	_, _, err := svc.Subscribe(ctx, SubscribeData{RoomCode: code, Mode: "spectate"}, &fakeSink{})
	assert.Equal(t, holdemerr.InvalidState, holdemerr.KindOf(err))

	_, _, err = svc.Subscribe(ctx, SubscribeData{RoomCode: code, Mode: "player"}, &fakeSink{})
	assert.Equal(t, holdemerr.Unauthenticated, holdemerr.KindOf(err))

	sink := &fakeSink{}
	_, snapshot, err := svc.Subscribe(ctx, SubscribeData{RoomCode: code, Mode: "player", Token: alice.AuthToken}, sink)
	require.NoError(t, err)
	assert.Equal(t, "snapshot", snapshot.Reason)
}

func TestNextGameRotation(t *testing.T) {
	ctx, svc := newTestService(t, "")
	code, gameID, alice, bob := joinTwo(t, ctx, svc)

	// A subscription made before rotation keeps receiving afterwards.
	sink := &fakeSink{}
	_, _, err := svc.Subscribe(ctx, SubscribeData{RoomCode: code, Mode: "table"}, sink)
	require.NoError(t, err)

	state, err := svc.NextGame(ctx, NextGameData{RoomCode: code, Token: alice.AuthToken})
	require.NoError(t, err)
	assert.Equal(t, game.StatusWaiting, state.State.Status)
	assert.NotEqual(t, gameID, state.State.ID)
	assert.Empty(t, state.State.Players)

	// The rotating caller's token was revoked with the archived game.
	_, err = svc.LegalActions(ctx, TokenData{Token: alice.AuthToken})
	assert.Equal(t, holdemerr.Unauthenticated, holdemerr.KindOf(err))

	// Other tokens survive but no longer address the room's current game.
	_, err = svc.NextGame(ctx, NextGameData{RoomCode: code, Token: bob.AuthToken})
	assert.Equal(t, holdemerr.Forbidden, holdemerr.KindOf(err))

	// Players re-join the fresh game under their existing credentials.
	rejoined, err := svc.JoinGame(ctx, JoinGameData{RoomCode: code, Name: "bob", Password: "pw-b"})
	require.NoError(t, err)
	assert.Equal(t, 0, rejoined.Position)

	require.NotEmpty(t, sink.msgs)
	assert.Equal(t, "join", sink.lastState(t).Reason)
}

func TestArchiverExportsCompletedHand(t *testing.T) {
	dir := t.TempDir()
	ctx, svc := newTestService(t, dir)
	code, gameID, alice, _ := joinTwo(t, ctx, svc)

	_, err := svc.StartHand(ctx, StartHandData{GameID: gameID})
	require.NoError(t, err)
	_, err = svc.Act(ctx, ActionData{Token: alice.AuthToken, Kind: "fold"})
	require.NoError(t, err)

	path := filepath.Join(dir, code, "1.phh")
	require.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, 5*time.Second, 10*time.Millisecond, "hand archive %s never appeared", path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `variant = "NT"`)
	assert.Contains(t, string(data), "p1 f")
}
