package game

import (
	"github.com/lox/holdemroom/poker"
)

// Config holds the per-game table stakes.
type Config struct {
	SmallBlind    int `json:"smallBlind"`
	BigBlind      int `json:"bigBlind"`
	StartingChips int `json:"startingChips"`
}

// Status is the lifecycle phase of a game.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Round is a betting street.
type Round string

const (
	Preflop  Round = "preflop"
	Flop     Round = "flop"
	Turn     Round = "turn"
	River    Round = "river"
	Showdown Round = "showdown"
)

// next returns the street that follows r. Showdown is terminal.
func (r Round) next() Round {
	switch r {
	case Preflop:
		return Flop
	case Flop:
		return Turn
	case Turn:
		return River
	default:
		return Showdown
	}
}

// SeatStatus is the in-hand status of a seat.
type SeatStatus string

const (
	SeatActive     SeatStatus = "active"
	SeatFolded     SeatStatus = "folded"
	SeatAllIn      SeatStatus = "all_in"
	SeatOut        SeatStatus = "out"
	SeatSittingOut SeatStatus = "sitting_out"
)

// ActionKind is a betting action.
type ActionKind string

const (
	ActionFold  ActionKind = "fold"
	ActionCheck ActionKind = "check"
	ActionCall  ActionKind = "call"
	ActionBet   ActionKind = "bet"
	ActionRaise ActionKind = "raise"
	ActionAllIn ActionKind = "all_in"
)

// Seat is a player's position in a game. CurrentBet is the chips
// committed on the current street, TotalBet the cumulative commitment
// for the hand.
type Seat struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Position   int          `json:"position"`
	Chips      int          `json:"chips"`
	CurrentBet int          `json:"currentBet"`
	TotalBet   int          `json:"totalBet"`
	HoleCards  []poker.Card `json:"holeCards,omitempty"`
	Status     SeatStatus   `json:"status"`
	LastAction ActionKind   `json:"lastAction,omitempty"`
	ShowCards  bool         `json:"showCards"`
}

// InHand reports whether the seat still contends for the pot.
func (s *Seat) InHand() bool {
	return s.Status == SeatActive || s.Status == SeatAllIn
}

// Payout records chips awarded to one seat.
type Payout struct {
	Seat   int `json:"seat"`
	Amount int `json:"amount"`
}

// Pot is one pot of the per-level breakdown. Pot 0 is the main pot,
// later entries are side pots. Winners and WinningRank are populated
// only once the pot has been awarded.
type Pot struct {
	Amount      int    `json:"amount"`
	Eligible    []int  `json:"eligible"`
	Winners     []int  `json:"winners,omitempty"`
	WinningRank string `json:"winningRank,omitempty"`
}

// State is the full derived state of a game: the fold of Apply over the
// event log. It is never mutated in place by command handlers; Apply
// returns a fresh copy.
type State struct {
	ID         string       `json:"id"`
	RoomCode   string       `json:"roomCode"`
	Status     Status       `json:"status"`
	Config     Config       `json:"config"`
	Seed       int64        `json:"seed"`
	HandNumber int          `json:"handNumber"`
	Round      Round        `json:"round"`
	Dealer     int          `json:"dealer"`
	Current    int          `json:"current"` // -1 when no seat is to act
	CurrentBet int          `json:"currentBet"`
	LastRaise  int          `json:"lastRaise"`
	Community  []poker.Card `json:"community"`
	Deck       []poker.Card `json:"deck"` // undealt remainder
	Pots       []Pot        `json:"pots,omitempty"`
	Winners    []int        `json:"winners,omitempty"`
	Seats      []Seat       `json:"seats"`

	// ActionFinished is true when betting cannot continue on any
	// remaining street; only Advance and Reveal are accepted.
	ActionFinished bool `json:"actionFinished"`

	// HandDone is set by HandComplete and cleared by the next HandStart.
	HandDone bool `json:"handDone"`

	// LastSeq is the sequence number of the last applied event.
	LastSeq uint64 `json:"lastSeq"`
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	out := *s
	out.Community = append([]poker.Card(nil), s.Community...)
	out.Deck = append([]poker.Card(nil), s.Deck...)
	out.Winners = append([]int(nil), s.Winners...)
	out.Pots = make([]Pot, len(s.Pots))
	for i, p := range s.Pots {
		out.Pots[i] = p
		out.Pots[i].Eligible = append([]int(nil), p.Eligible...)
		out.Pots[i].Winners = append([]int(nil), p.Winners...)
	}
	out.Seats = make([]Seat, len(s.Seats))
	for i, seat := range s.Seats {
		out.Seats[i] = seat
		out.Seats[i].HoleCards = append([]poker.Card(nil), seat.HoleCards...)
	}
	return &out
}

// Pot returns the total chips committed this hand across all seats.
func (s *State) Pot() int {
	total := 0
	for i := range s.Seats {
		total += s.Seats[i].TotalBet
	}
	return total
}

// SeatByName returns the seat with the given display name, or nil.
func (s *State) SeatByName(name string) *Seat {
	for i := range s.Seats {
		if s.Seats[i].Name == name {
			return &s.Seats[i]
		}
	}
	return nil
}

// SeatByID returns the seat with the given id, or nil.
func (s *State) SeatByID(id string) *Seat {
	for i := range s.Seats {
		if s.Seats[i].ID == id {
			return &s.Seats[i]
		}
	}
	return nil
}

// nextActive returns the first active seat clockwise from position
// `from` (inclusive), or -1 when none remain.
func (s *State) nextActive(from int) int {
	n := len(s.Seats)
	if n == 0 {
		return -1
	}
	for i := 0; i < n; i++ {
		pos := ((from+i)%n + n) % n
		if s.Seats[pos].Status == SeatActive {
			return pos
		}
	}
	return -1
}

// countStatus returns the number of seats with the given status.
func (s *State) countStatus(status SeatStatus) int {
	n := 0
	for i := range s.Seats {
		if s.Seats[i].Status == status {
			n++
		}
	}
	return n
}

// inHandCount returns the number of seats still contending for the pot.
func (s *State) inHandCount() int {
	n := 0
	for i := range s.Seats {
		if s.Seats[i].InHand() {
			n++
		}
	}
	return n
}

// bigBlindPosition returns the big blind seat for the current dealer.
// Heads-up the dealer posts the small blind and the other seat the big.
func (s *State) bigBlindPosition() int {
	if s.seatedCount() == 2 {
		return s.nextSeated(s.Dealer + 1)
	}
	sb := s.nextSeated(s.Dealer + 1)
	return s.nextSeated(sb + 1)
}

// smallBlindPosition returns the small blind seat for the current dealer.
func (s *State) smallBlindPosition() int {
	if s.seatedCount() == 2 {
		return s.Dealer
	}
	return s.nextSeated(s.Dealer + 1)
}

// seatedCount counts seats dealt into the current hand.
func (s *State) seatedCount() int {
	n := 0
	for i := range s.Seats {
		if s.Seats[i].Status != SeatOut && s.Seats[i].Status != SeatSittingOut {
			n++
		}
	}
	return n
}

// nextSeated returns the first seat clockwise from `from` that was
// dealt into the hand.
func (s *State) nextSeated(from int) int {
	n := len(s.Seats)
	if n == 0 {
		return -1
	}
	for i := 0; i < n; i++ {
		pos := ((from+i)%n + n) % n
		if s.Seats[pos].Status != SeatOut && s.Seats[pos].Status != SeatSittingOut {
			return pos
		}
	}
	return -1
}

// streetClosed reports whether every active seat has matched the
// current bet and acted this street. All-in seats never block closure.
func (s *State) streetClosed() bool {
	for i := range s.Seats {
		seat := &s.Seats[i]
		if seat.Status != SeatActive {
			continue
		}
		if seat.CurrentBet != s.CurrentBet || seat.LastAction == "" {
			return false
		}
	}
	return true
}

// refreshClosure recomputes ActionFinished: betting locks for the rest
// of the hand once at least one seat is all-in, at most one seat can
// still act, and every remaining bet is level. LastAction is not
// consulted, so the lock survives the street reset on advancement.
func (s *State) refreshClosure() {
	if s.countStatus(SeatAllIn) == 0 || s.countStatus(SeatActive) > 1 {
		s.ActionFinished = false
		return
	}
	for i := range s.Seats {
		if s.Seats[i].Status == SeatActive && s.Seats[i].CurrentBet != s.CurrentBet {
			s.ActionFinished = false
			return
		}
	}
	s.ActionFinished = true
}
