package game_test

import (
	"context"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/holdemroom/internal/game"
	"github.com/lox/holdemroom/internal/holdemerr"
	"github.com/lox/holdemroom/internal/store"
)

func newTestGame(t *testing.T, cfg game.Config, seed int64, names ...string) (context.Context, *store.MemStore, *game.Orchestrator) {
	t.Helper()

	ctx := context.Background()
	clock := quartz.NewMock(t)
	st := store.NewMemStore(clock)
	logger := log.New(io.Discard)

	orch, err := game.CreateGame(ctx, st, clock, logger, "g1", "K7XQ2M", cfg, seed)
	require.NoError(t, err)

	for i, name := range names {
		_, err := orch.Join(ctx, "seat-"+name, name)
		require.NoError(t, err, "join %d", i)
	}
	return ctx, st, orch
}

func totalChips(s *game.State) int {
	total := 0
	for i := range s.Seats {
		total += s.Seats[i].Chips + s.Seats[i].TotalBet
	}
	return total
}

func TestJoinRules(t *testing.T) {
	ctx, _, orch := newTestGame(t, game.Config{SmallBlind: 5, BigBlind: 10, StartingChips: 200}, 1, "alice")

	_, err := orch.Join(ctx, "seat-x", "alice")
	assert.Equal(t, holdemerr.Conflict, holdemerr.KindOf(err))

	_, err = orch.Join(ctx, "seat-bob", "bob")
	require.NoError(t, err)

	_, err = orch.StartHand(ctx)
	require.NoError(t, err)

	_, err = orch.Join(ctx, "seat-carol", "carol")
	assert.Equal(t, holdemerr.InvalidState, holdemerr.KindOf(err))
}

func TestStartHandRequiresTwoSeats(t *testing.T) {
	ctx, _, orch := newTestGame(t, game.Config{SmallBlind: 5, BigBlind: 10, StartingChips: 200}, 1, "alice")

	_, err := orch.StartHand(ctx)
	require.Error(t, err)
	assert.Equal(t, "Need at least two seats with chips", holdemerr.MessageOf(err))
}

func TestStartHandHeadsUp(t *testing.T) {
	ctx, _, orch := newTestGame(t, game.Config{SmallBlind: 5, BigBlind: 10, StartingChips: 200}, 7, "alice", "bob")

	s, err := orch.StartHand(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, s.HandNumber)
	assert.Equal(t, 0, s.Dealer)
	assert.Equal(t, 0, s.Current) // dealer posted small and opens
	assert.Equal(t, 10, s.CurrentBet)
	assert.Equal(t, 15, s.Pot())
	assert.Len(t, s.Seats[0].HoleCards, 2)
	assert.Len(t, s.Seats[1].HoleCards, 2)
	assert.Equal(t, 400, totalChips(s))

	_, err = orch.StartHand(ctx)
	assert.Equal(t, "Hand already in progress", holdemerr.MessageOf(err))
}

func TestHandResolvesByFold(t *testing.T) {
	ctx, _, orch := newTestGame(t, game.Config{SmallBlind: 5, BigBlind: 10, StartingChips: 200}, 7, "alice", "bob")
	_, err := orch.StartHand(ctx)
	require.NoError(t, err)

	s, err := orch.Act(ctx, 0, game.ActionFold, 0)
	require.NoError(t, err)

	assert.True(t, s.HandDone)
	assert.Empty(t, s.Community)
	assert.Equal(t, []int{1}, s.Winners)
	require.Len(t, s.Pots, 1)
	assert.Equal(t, game.WonByFold, s.Pots[0].WinningRank)
	assert.Equal(t, 195, s.Seats[0].Chips)
	assert.Equal(t, 205, s.Seats[1].Chips)

	// The folder's cards were never revealed.
	assert.False(t, s.Seats[0].ShowCards)
	assert.False(t, s.Seats[1].ShowCards)
}

func TestHeadsUpAllInPreflop(t *testing.T) {
	ctx, _, orch := newTestGame(t, game.Config{SmallBlind: 10, BigBlind: 20, StartingChips: 500}, 7, "alice", "bob")
	_, err := orch.StartHand(ctx)
	require.NoError(t, err)

	_, err = orch.Act(ctx, 0, game.ActionAllIn, 0)
	require.NoError(t, err)

	s, err := orch.Act(ctx, 1, game.ActionAllIn, 0)
	require.NoError(t, err)

	assert.Equal(t, game.SeatAllIn, s.Seats[0].Status)
	assert.Equal(t, game.SeatAllIn, s.Seats[1].Status)
	assert.Equal(t, 1000, s.Pot())
	assert.True(t, s.ActionFinished)
	assert.Equal(t, -1, s.Current)

	// No seat can act again, so both hands flip face up immediately.
	assert.True(t, s.Seats[0].ShowCards)
	assert.True(t, s.Seats[1].ShowCards)

	// The board still runs out street by street.
	for _, want := range []int{3, 4, 5} {
		s, err = orch.Advance(ctx)
		require.NoError(t, err)
		assert.Len(t, s.Community, want)
	}

	s, err = orch.Advance(ctx)
	require.NoError(t, err)
	assert.True(t, s.HandDone)
	assert.Equal(t, game.Showdown, s.Round)
	assert.NotEmpty(t, s.Winners)
	assert.Equal(t, 1000, totalChips(s))
}

func TestAdvanceRejectedWhileBettingOpen(t *testing.T) {
	ctx, _, orch := newTestGame(t, game.Config{SmallBlind: 5, BigBlind: 10, StartingChips: 200}, 7, "alice", "bob")
	_, err := orch.StartHand(ctx)
	require.NoError(t, err)

	_, err = orch.Advance(ctx)
	require.Error(t, err)
	assert.Equal(t, "Betting is still open", holdemerr.MessageOf(err))
}

func TestFullHandToShowdown(t *testing.T) {
	ctx, _, orch := newTestGame(t, game.Config{SmallBlind: 5, BigBlind: 10, StartingChips: 200}, 7, "alice", "bob")
	_, err := orch.StartHand(ctx)
	require.NoError(t, err)

	// Preflop: dealer limps, big blind checks its option.
	_, err = orch.Act(ctx, 0, game.ActionCall, 0)
	require.NoError(t, err)
	_, err = orch.Act(ctx, 1, game.ActionCheck, 0)
	require.NoError(t, err)

	// Flop, turn, river check through.
	for street := 0; street < 3; street++ {
		s, err := orch.Advance(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, s.Current) // postflop the non-dealer opens

		_, err = orch.Act(ctx, 1, game.ActionCheck, 0)
		require.NoError(t, err)
		_, err = orch.Act(ctx, 0, game.ActionCheck, 0)
		require.NoError(t, err)
	}

	s, err := orch.Advance(ctx)
	require.NoError(t, err)

	assert.Equal(t, game.Showdown, s.Round)
	assert.True(t, s.HandDone)
	assert.Len(t, s.Community, 5)
	assert.NotEmpty(t, s.Winners)
	require.NotEmpty(t, s.Pots)
	assert.NotEmpty(t, s.Pots[0].WinningRank)
	assert.Equal(t, 400, totalChips(s))
	assert.True(t, s.Seats[0].ShowCards)
	assert.True(t, s.Seats[1].ShowCards)

	// Next hand rotates the dealer.
	s, err = orch.NextHand(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, s.HandNumber)
	assert.Equal(t, 1, s.Dealer)
}

func TestDealDeterminism(t *testing.T) {
	cfg := game.Config{SmallBlind: 5, BigBlind: 10, StartingChips: 200}

	ctx, _, a := newTestGame(t, cfg, 1234, "alice", "bob")
	_, _, b := newTestGame(t, cfg, 1234, "alice", "bob")
	_, _, c := newTestGame(t, cfg, 99, "alice", "bob")

	sa, err := a.StartHand(ctx)
	require.NoError(t, err)
	sb, err := b.StartHand(ctx)
	require.NoError(t, err)
	sc, err := c.StartHand(ctx)
	require.NoError(t, err)

	assert.Equal(t, sa.Seats[0].HoleCards, sb.Seats[0].HoleCards)
	assert.Equal(t, sa.Seats[1].HoleCards, sb.Seats[1].HoleCards)
	assert.Equal(t, sa.Deck, sb.Deck)
	assert.NotEqual(t, sa.Deck, sc.Deck)
}

func TestReplayMatchesLiveState(t *testing.T) {
	ctx, st, orch := newTestGame(t, game.Config{SmallBlind: 5, BigBlind: 10, StartingChips: 200}, 7, "alice", "bob")
	_, err := orch.StartHand(ctx)
	require.NoError(t, err)
	_, err = orch.Act(ctx, 0, game.ActionRaise, 30)
	require.NoError(t, err)
	_, err = orch.Act(ctx, 1, game.ActionCall, 0)
	require.NoError(t, err)

	events, err := st.ReadEvents(ctx, "g1", 0)
	require.NoError(t, err)
	assert.Equal(t, orch.State(), game.Derive(events).Clone())
}

func TestSnapshotResume(t *testing.T) {
	ctx, st, orch := newTestGame(t, game.Config{SmallBlind: 5, BigBlind: 10, StartingChips: 200}, 7, "alice", "bob")
	_, err := orch.StartHand(ctx)
	require.NoError(t, err)
	_, err = orch.Act(ctx, 0, game.ActionFold, 0)
	require.NoError(t, err)

	// Completing the hand persisted a snapshot at its boundary.
	snap, err := st.ReadSnapshot(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, 1, snap.HandNo)
	assert.Equal(t, orch.State().LastSeq, snap.LastSeq)

	// Resuming from the snapshot plus the tail matches a full replay.
	tail, err := st.ReadEvents(ctx, "g1", snap.LastSeq)
	require.NoError(t, err)
	resumed := game.DeriveFrom(snap.State, tail)
	assert.Equal(t, orch.State(), resumed.Clone())

	// A cold load lands on the same state.
	clock := quartz.NewMock(t)
	loaded, err := game.LoadGame(ctx, st, clock, log.New(io.Discard), "g1")
	require.NoError(t, err)
	assert.Equal(t, orch.State(), loaded.State())
}

func TestLoadGameNotFound(t *testing.T) {
	ctx := context.Background()
	clock := quartz.NewMock(t)
	st := store.NewMemStore(clock)

	_, err := game.LoadGame(ctx, st, clock, log.New(io.Discard), "missing")
	require.Error(t, err)
	assert.Equal(t, holdemerr.NotFound, holdemerr.KindOf(err))
}

func TestNotifyRevisionOrder(t *testing.T) {
	ctx, _, orch := newTestGame(t, game.Config{SmallBlind: 5, BigBlind: 10, StartingChips: 200}, 7, "alice", "bob")

	type transition struct {
		revision uint64
		reason   string
	}
	var seen []transition
	orch.SetNotify(func(state *game.State, revision uint64, reason string) {
		seen = append(seen, transition{revision, reason})
	})

	_, err := orch.StartHand(ctx)
	require.NoError(t, err)
	_, err = orch.Act(ctx, 0, game.ActionFold, 0)
	require.NoError(t, err)

	require.Len(t, seen, 2)
	assert.Equal(t, "hand_start", seen[0].reason)
	assert.Equal(t, "action:fold", seen[1].reason)
	assert.Greater(t, seen[1].revision, seen[0].revision)
}

// An all-in called by a covering stack locks betting for the rest of
// the hand: the chip holder can only Advance or Reveal while the board
// runs out.
func TestAllInCalledByCoveringStack(t *testing.T) {
	ctx, _, orch := newTestGame(t, game.Config{SmallBlind: 5, BigBlind: 10, StartingChips: 200}, 7, "alice", "bob")

	// Hand 1 resolves by fold so the stacks are uneven.
	_, err := orch.StartHand(ctx)
	require.NoError(t, err)
	_, err = orch.Act(ctx, 0, game.ActionFold, 0)
	require.NoError(t, err)
	_, err = orch.NextHand(ctx)
	require.NoError(t, err)

	// Hand 2: bob deals and limps, alice shoves for 195, bob calls
	// with 10 behind.
	_, err = orch.Act(ctx, 1, game.ActionCall, 0)
	require.NoError(t, err)
	_, err = orch.Act(ctx, 0, game.ActionAllIn, 0)
	require.NoError(t, err)
	s, err := orch.Act(ctx, 1, game.ActionCall, 0)
	require.NoError(t, err)

	require.Equal(t, game.SeatAllIn, s.Seats[0].Status)
	require.Equal(t, game.SeatActive, s.Seats[1].Status)
	assert.Equal(t, 10, s.Seats[1].Chips)
	assert.True(t, s.ActionFinished)
	assert.Equal(t, -1, s.Current)

	// One seat can still act, so nothing flips yet, and there is
	// nothing to reveal before the flop.
	assert.False(t, s.Seats[0].ShowCards)
	_, err = orch.Reveal(ctx, 1)
	require.Error(t, err)
	assert.Equal(t, "Nothing to reveal", holdemerr.MessageOf(err))

	// The lock survives the street change; the flop flips the cards.
	s, err = orch.Advance(ctx)
	require.NoError(t, err)
	assert.Len(t, s.Community, 3)
	assert.True(t, s.ActionFinished)
	assert.Equal(t, -1, s.Current)
	assert.True(t, s.Seats[0].ShowCards)
	assert.True(t, s.Seats[1].ShowCards)

	// The covering seat cannot bet into an all-in opponent.
	_, err = orch.Act(ctx, 1, game.ActionBet, 10)
	require.Error(t, err)
	assert.Equal(t, "Board must be advanced before actions", holdemerr.MessageOf(err))

	// Only the chip holder may reveal-advance.
	_, err = orch.Reveal(ctx, 0)
	assert.Equal(t, holdemerr.Forbidden, holdemerr.KindOf(err))

	s, err = orch.Reveal(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, s.Community, 4)

	s, err = orch.Advance(ctx)
	require.NoError(t, err)
	assert.Len(t, s.Community, 5)
	assert.True(t, s.ActionFinished)

	s, err = orch.Advance(ctx)
	require.NoError(t, err)
	assert.True(t, s.HandDone)
	assert.Equal(t, game.Showdown, s.Round)
	assert.NotEmpty(t, s.Winners)
	assert.Equal(t, 400, totalChips(s))
}

// Stacks that cannot cover the blinds go all-in posting them; the hand
// locks and flips at deal time.
func TestBlindsAllInLockHandAtStart(t *testing.T) {
	ctx, _, orch := newTestGame(t, game.Config{SmallBlind: 60, BigBlind: 100, StartingChips: 60}, 7, "alice", "bob")

	s, err := orch.StartHand(ctx)
	require.NoError(t, err)

	assert.Equal(t, game.SeatAllIn, s.Seats[0].Status)
	assert.Equal(t, game.SeatAllIn, s.Seats[1].Status)
	assert.True(t, s.ActionFinished)
	assert.Equal(t, -1, s.Current)
	assert.True(t, s.Seats[0].ShowCards)
	assert.True(t, s.Seats[1].ShowCards)
}

// Replaying any prefix of the log lands on the same chip total: the
// stacks plus committed bets always account for every chip in play.
func TestChipConservationEveryPrefix(t *testing.T) {
	ctx, st, orch := newTestGame(t, game.Config{SmallBlind: 5, BigBlind: 10, StartingChips: 200}, 7, "alice", "bob")

	_, err := orch.StartHand(ctx)
	require.NoError(t, err)
	_, err = orch.Act(ctx, 0, game.ActionRaise, 30)
	require.NoError(t, err)
	_, err = orch.Act(ctx, 1, game.ActionAllIn, 0)
	require.NoError(t, err)
	_, err = orch.Act(ctx, 0, game.ActionCall, 0)
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		_, err = orch.Advance(ctx)
		require.NoError(t, err)
	}

	events, err := st.ReadEvents(ctx, "g1", 0)
	require.NoError(t, err)

	s := game.NewState()
	for _, ev := range events {
		s = game.Apply(s, ev)
		if s.HandNumber > 0 {
			assert.Equal(t, 400, totalChips(s), "after event %d (%s)", ev.Seq, ev.Kind)
		}
	}
	assert.True(t, s.HandDone)
}

func TestRevealOnlyForLastChipHolder(t *testing.T) {
	ctx, _, orch := newTestGame(t, game.Config{SmallBlind: 5, BigBlind: 10, StartingChips: 200}, 7, "alice", "bob")
	_, err := orch.StartHand(ctx)
	require.NoError(t, err)

	_, err = orch.Reveal(ctx, 0)
	require.Error(t, err)
	assert.Equal(t, "Nothing to reveal", holdemerr.MessageOf(err))
}
