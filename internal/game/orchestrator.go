package game

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/holdemroom/internal/holdemerr"
	"github.com/lox/holdemroom/internal/randutil"
	"github.com/lox/holdemroom/poker"
)

// Store is the slice of the persistence layer the orchestrator needs.
// Appends are atomic per game and preserve sequence order.
type Store interface {
	AppendEvents(ctx context.Context, gameID string, events []Event) error
	ReadEvents(ctx context.Context, gameID string, fromSeq uint64) ([]Event, error)
	ReadSnapshot(ctx context.Context, gameID string) (*Snapshot, error)
	WriteSnapshot(ctx context.Context, gameID string, snap Snapshot) error
}

// NotifyFunc receives every committed state transition in revision
// order. It is invoked inside the game's command lane; implementations
// must not block.
type NotifyFunc func(state *State, revision uint64, reason string)

// appendTimeout bounds the storage append inside a command handler.
const appendTimeout = 5 * time.Second

// Orchestrator owns one game's command lane. All commands for the game
// serialize through its mutex; the only suspension point inside a
// handler is the storage append, which is also the commit point: once
// the append succeeds the command runs to completion.
type Orchestrator struct {
	mu       sync.Mutex
	store    Store
	clock    quartz.Clock
	logger   *log.Logger
	id       string
	state    *State
	revision uint64
	notify   NotifyFunc
}

// CreateGame starts a new game by committing its GameCreated event.
func CreateGame(ctx context.Context, store Store, clock quartz.Clock, logger *log.Logger, id, roomCode string, cfg Config, seed int64) (*Orchestrator, error) {
	o := &Orchestrator{
		store:  store,
		clock:  clock,
		logger: logger.WithPrefix("game").With("game", id),
		id:     id,
		state:  NewState(),
	}
	ev := o.event(EventGameCreated, -1, &GameCreatedPayload{
		GameID:   id,
		RoomCode: roomCode,
		Config:   cfg,
		Seed:     seed,
	})
	if err := o.commit(ctx, "create", []Event{ev}, Apply(o.state, ev)); err != nil {
		return nil, err
	}
	return o, nil
}

// LoadGame rebuilds an orchestrator from the persisted log, resuming
// from a snapshot when one exists.
func LoadGame(ctx context.Context, store Store, clock quartz.Clock, logger *log.Logger, id string) (*Orchestrator, error) {
	o := &Orchestrator{
		store:  store,
		clock:  clock,
		logger: logger.WithPrefix("game").With("game", id),
		id:     id,
	}
	if err := o.replay(ctx); err != nil {
		return nil, err
	}
	if o.state.LastSeq == 0 {
		return nil, holdemerr.Newf(holdemerr.NotFound, "Game %s not found", id)
	}
	return o, nil
}

// SetNotify registers the dispatch callback for committed transitions.
func (o *Orchestrator) SetNotify(fn NotifyFunc) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.notify = fn
}

// ID returns the game id.
func (o *Orchestrator) ID() string { return o.id }

// State returns a copy of the current derived state.
func (o *Orchestrator) State() *State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.Clone()
}

// Revision returns the current revision counter.
func (o *Orchestrator) Revision() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.revision
}

// StateRevision returns the state and revision as one consistent pair.
func (o *Orchestrator) StateRevision() (*State, uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.Clone(), o.revision
}

// LegalActionsFor computes the action affordances for a seat.
func (o *Orchestrator) LegalActionsFor(pos int) ValidActions {
	o.mu.Lock()
	defer o.mu.Unlock()
	return LegalActions(o.state, pos)
}

// Join seats a player in a waiting game.
func (o *Orchestrator) Join(ctx context.Context, seatID, name string) (*State, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state.Status != StatusWaiting {
		return nil, holdemerr.New(holdemerr.InvalidState, "Game has already started")
	}
	if o.state.SeatByName(name) != nil {
		return nil, holdemerr.Newf(holdemerr.Conflict, "Name %q is taken", name)
	}
	ev := o.event(EventPlayerJoined, -1, &PlayerJoinedPayload{
		SeatID:   seatID,
		Name:     name,
		Position: len(o.state.Seats),
		Chips:    o.state.Config.StartingChips,
	})
	if err := o.commit(ctx, "join", []Event{ev}, Apply(o.state, ev)); err != nil {
		return nil, err
	}
	return o.state.Clone(), nil
}

// StartHand deals the first hand of a waiting game, or the next hand
// once the previous one has completed.
func (o *Orchestrator) StartHand(ctx context.Context) (*State, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch {
	case o.state.Status == StatusFinished:
		return nil, holdemerr.New(holdemerr.InvalidState, "Game is over")
	case o.state.Status == StatusPlaying && !o.state.HandDone:
		return nil, holdemerr.New(holdemerr.InvalidState, "Hand already in progress")
	}
	return o.startHand(ctx)
}

// NextHand rotates the dealer and deals again after HandComplete.
func (o *Orchestrator) NextHand(ctx context.Context) (*State, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state.Status != StatusPlaying || !o.state.HandDone {
		return nil, holdemerr.New(holdemerr.InvalidState, "Hand is not complete")
	}
	return o.startHand(ctx)
}

func (o *Orchestrator) startHand(ctx context.Context) (*State, error) {
	st := o.state
	withChips := 0
	for i := range st.Seats {
		if st.Seats[i].Chips > 0 && st.Seats[i].Status != SeatSittingOut {
			withChips++
		}
	}
	if withChips < 2 {
		return nil, holdemerr.New(holdemerr.InvalidState, "Need at least two seats with chips")
	}

	handNo := st.HandNumber + 1
	dealer := o.nextDealer(st)

	// The per-hand RNG derives from the game seed and hand number, so a
	// cold restart replays identical shuffles.
	deck := poker.NewDeck(randutil.New(st.Seed ^ int64(randutil.Mix(uint64(handNo)))))

	hole := make(map[int][2]poker.Card, withChips)
	n := len(st.Seats)
	for i := 1; i <= n; i++ {
		pos := (dealer + i) % n
		seat := &st.Seats[pos]
		if seat.Chips <= 0 || seat.Status == SeatSittingOut {
			continue
		}
		cards := deck.Deal(2)
		hole[pos] = [2]poker.Card{cards[0], cards[1]}
	}

	stage := newStage(o, st)
	stage.emit(EventHandStart, -1, &HandStartPayload{
		HandNo:    handNo,
		Dealer:    dealer,
		Deck:      deck.Cards(),
		HoleCards: hole,
	})

	sb := stage.state.smallBlindPosition()
	bb := stage.state.bigBlindPosition()
	stage.emit(EventPostBlind, sb, &PostBlindPayload{
		Blind:  "small",
		Amount: min(st.Config.SmallBlind, stage.state.Seats[sb].Chips),
	})
	stage.emit(EventPostBlind, bb, &PostBlindPayload{
		Blind:  "big",
		Amount: min(st.Config.BigBlind, stage.state.Seats[bb].Chips),
	})
	// Short blinds can lock the hand before anyone acts.
	stage.revealIfLocked()

	if err := o.commit(ctx, "hand_start", stage.events, stage.state); err != nil {
		return nil, err
	}
	return o.state.Clone(), nil
}

// nextDealer picks the dealer seat: position 0's side of the table for
// the first hand, then clockwise rotation to the next funded seat.
func (o *Orchestrator) nextDealer(st *State) int {
	n := len(st.Seats)
	from := 0
	if st.HandNumber > 0 {
		from = st.Dealer + 1
	}
	for i := 0; i < n; i++ {
		pos := (from + i) % n
		if st.Seats[pos].Chips > 0 && st.Seats[pos].Status != SeatSittingOut {
			return pos
		}
	}
	return 0
}

// Act validates and commits one betting action for the seat.
func (o *Orchestrator) Act(ctx context.Context, pos int, kind ActionKind, amount int) (*State, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	st := o.state
	if err := ValidateAction(st, pos, kind, amount); err != nil {
		return nil, err
	}
	seat := &st.Seats[pos]

	stage := newStage(o, st)
	switch kind {
	case ActionFold:
		stage.emit(EventFold, pos, nil)
	case ActionCheck:
		stage.emit(EventCheck, pos, nil)
	case ActionCall:
		moved := min(st.CurrentBet-seat.CurrentBet, seat.Chips)
		stage.emit(EventCall, pos, &ActionPayload{Amount: moved, To: seat.CurrentBet + moved})
	case ActionBet:
		stage.emit(EventBet, pos, &ActionPayload{Amount: amount, To: amount})
	case ActionRaise:
		stage.emit(EventRaise, pos, &ActionPayload{Amount: amount - seat.CurrentBet, To: amount})
	case ActionAllIn:
		stage.emit(EventAllIn, pos, &ActionPayload{Amount: seat.Chips, To: seat.CurrentBet + seat.Chips})
	}

	if stage.state.inHandCount() == 1 {
		// Everyone else folded; award without a showdown.
		pots, payouts := DistributePots(stage.state)
		stage.emit(EventAwardPot, -1, &AwardPotPayload{Pots: pots, Payouts: payouts})
		stage.emit(EventHandComplete, -1, nil)
	} else {
		stage.revealIfLocked()
	}

	if err := o.commit(ctx, "action:"+string(kind), stage.events, stage.state); err != nil {
		return nil, err
	}
	o.maybeSnapshot(ctx)
	return o.state.Clone(), nil
}

// Advance moves the hand to the next street once betting has ended, or
// runs the showdown at the end of the river.
func (o *Orchestrator) Advance(ctx context.Context) (*State, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.advance(ctx, nil)
}

// Reveal lets the last seat still holding chips in an all-in hand flip
// the hole cards face up and deal the next street.
func (o *Orchestrator) Reveal(ctx context.Context, pos int) (*State, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	st := o.state
	if !st.ActionFinished || st.Round == Preflop || st.Round == Showdown {
		return nil, holdemerr.New(holdemerr.InvalidState, "Nothing to reveal")
	}
	if st.countStatus(SeatActive) != 1 || st.Seats[pos].Status != SeatActive {
		return nil, holdemerr.New(holdemerr.Forbidden, "Only the remaining chip holder may reveal")
	}
	return o.advance(ctx, &pos)
}

func (o *Orchestrator) advance(ctx context.Context, revealer *int) (*State, error) {
	st := o.state
	if st.Status != StatusPlaying || st.HandDone {
		return nil, holdemerr.New(holdemerr.InvalidState, "No hand in progress")
	}
	if st.Round == Showdown {
		return nil, holdemerr.New(holdemerr.InvalidState, "Hand is at showdown")
	}
	if !st.ActionFinished && st.Current != -1 {
		return nil, holdemerr.New(holdemerr.InvalidState, "Betting is still open")
	}

	stage := newStage(o, st)
	if revealer != nil {
		stage.revealRemaining()
	}

	if st.Round == River {
		stage.emit(EventShowdown, -1, nil)
		pots, payouts := DistributePots(stage.state)
		stage.emit(EventAwardPot, -1, &AwardPotPayload{Pots: pots, Payouts: payouts})
		stage.emit(EventHandComplete, -1, nil)
	} else {
		next := st.Round.next()
		dealt := 1
		if next == Flop {
			dealt = 3
		}
		deck := poker.DeckFrom(st.Deck)
		deck.DealOne() // burn
		cards := deck.Deal(dealt)
		stage.emit(EventAdvanceRound, -1, &AdvanceRoundPayload{Round: next})
		stage.emit(EventDealCommunity, -1, &DealCommunityPayload{Round: next, Cards: cards, Burned: 1})
		if stage.state.ActionFinished {
			stage.revealRemaining()
		}
	}

	if err := o.commit(ctx, "advance", stage.events, stage.state); err != nil {
		return nil, err
	}
	o.maybeSnapshot(ctx)
	return o.state.Clone(), nil
}

// stage accumulates the events of one command, keeping a working state
// in step so later emissions can depend on earlier ones. Nothing is
// persisted until commit.
type stage struct {
	o      *Orchestrator
	state  *State
	events []Event
}

func newStage(o *Orchestrator, st *State) *stage {
	return &stage{o: o, state: st.Clone()}
}

func (sg *stage) emit(kind EventKind, seat int, payload any) {
	ev := Event{
		Seq:     sg.state.LastSeq + 1,
		HandNo:  sg.state.HandNumber,
		Kind:    kind,
		Seat:    seat,
		Time:    sg.o.clock.Now(),
		Payload: payload,
	}
	if kind == EventHandStart {
		ev.HandNo = payload.(*HandStartPayload).HandNo
	}
	sg.state = Apply(sg.state, ev)
	sg.events = append(sg.events, ev)
}

// revealIfLocked flips cards when closure has left no seat able to act.
func (sg *stage) revealIfLocked() {
	if sg.state.ActionFinished && sg.state.countStatus(SeatActive) == 0 {
		sg.revealRemaining()
	}
}

// revealRemaining emits RevealCards for in-hand seats still hidden.
func (sg *stage) revealRemaining() {
	var hidden []int
	for i := range sg.state.Seats {
		if sg.state.Seats[i].InHand() && !sg.state.Seats[i].ShowCards {
			hidden = append(hidden, sg.state.Seats[i].Position)
		}
	}
	if len(hidden) > 0 {
		sg.emit(EventRevealCards, -1, &RevealCardsPayload{Seats: hidden})
	}
}

// event builds a single event against the current committed state.
func (o *Orchestrator) event(kind EventKind, seat int, payload any) Event {
	return Event{
		Seq:     o.state.LastSeq + 1,
		HandNo:  o.state.HandNumber,
		Kind:    kind,
		Seat:    seat,
		Time:    o.clock.Now(),
		Payload: payload,
	}
}

// commit is the transactional boundary: append all staged events (with
// one retry), then adopt the staged state and notify subscribers. On
// append failure the in-memory state is rebuilt by replay so it cannot
// drift from the log.
func (o *Orchestrator) commit(ctx context.Context, reason string, events []Event, next *State) error {
	actx, cancel := context.WithTimeout(ctx, appendTimeout)
	err := o.store.AppendEvents(actx, o.id, events)
	cancel()
	if err != nil {
		o.logger.Warn("event append failed, retrying", "reason", reason, "error", err)
		actx, cancel = context.WithTimeout(ctx, appendTimeout)
		err = o.store.AppendEvents(actx, o.id, events)
		cancel()
	}
	if err != nil {
		o.logger.Error("event append failed", "reason", reason, "error", err)
		if rerr := o.replay(ctx); rerr != nil {
			o.logger.Error("replay after failed append", "error", rerr)
		}
		return holdemerr.New(holdemerr.StorageUnavailable, "Event log unavailable")
	}
	o.state = next
	o.revision++
	if o.notify != nil {
		o.notify(next.Clone(), o.revision, reason)
	}
	return nil
}

// replay rebuilds state from the snapshot (if any) and the log.
func (o *Orchestrator) replay(ctx context.Context) error {
	start := NewState()
	if snap, err := o.store.ReadSnapshot(ctx, o.id); err == nil && snap != nil {
		start = snap.State
	}
	events, err := o.store.ReadEvents(ctx, o.id, start.LastSeq)
	if err != nil {
		return err
	}
	o.state = DeriveFrom(start, events)
	return nil
}

// maybeSnapshot persists a snapshot at hand boundaries, best effort.
func (o *Orchestrator) maybeSnapshot(ctx context.Context) {
	if !o.state.HandDone {
		return
	}
	snap := Snapshot{
		HandNo:  o.state.HandNumber,
		LastSeq: o.state.LastSeq,
		State:   o.state.Clone(),
	}
	if err := o.store.WriteSnapshot(ctx, o.id, snap); err != nil {
		o.logger.Warn("snapshot write failed", "hand", snap.HandNo, "error", err)
	}
}
