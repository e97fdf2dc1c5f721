package game

import (
	"github.com/lox/holdemroom/internal/holdemerr"
)

// ValidActions describes what the seat to act may legally do, with the
// numeric bounds a UI needs for hinting. MinRaise and MaxRaise are
// raise-to totals, not increments.
type ValidActions struct {
	CanFold    bool `json:"canFold"`
	CanCheck   bool `json:"canCheck"`
	CanCall    bool `json:"canCall"`
	CanBet     bool `json:"canBet"`
	CanRaise   bool `json:"canRaise"`
	CanAllIn   bool `json:"canAllIn"`
	CanAdvance bool `json:"canAdvance"`
	CallAmount int  `json:"callAmount"`
	MinBet     int  `json:"minBet"`
	MinRaise   int  `json:"minRaise"`
	MaxRaise   int  `json:"maxRaise"`
}

// ValidateAction checks whether the seat may perform the action right
// now. Amount is the raise-to total for bet and raise; it is ignored
// for the other kinds.
func ValidateAction(s *State, pos int, kind ActionKind, amount int) error {
	if s.Status != StatusPlaying {
		return holdemerr.New(holdemerr.InvalidState, "No hand in progress")
	}
	if s.Round == Showdown {
		return holdemerr.New(holdemerr.InvalidState, "Hand is at showdown")
	}
	if s.ActionFinished || s.Current == -1 {
		return holdemerr.New(holdemerr.InvalidState, "Board must be advanced before actions")
	}
	if pos != s.Current {
		return holdemerr.New(holdemerr.InvalidState, "Not your turn")
	}
	seat := &s.Seats[pos]
	if seat.Status != SeatActive {
		return holdemerr.New(holdemerr.InvalidState, "Seat cannot act")
	}

	switch kind {
	case ActionFold:
		return nil

	case ActionCheck:
		if seat.CurrentBet != s.CurrentBet {
			return holdemerr.Newf(holdemerr.InvalidState, "Cannot check, %d to call", s.CurrentBet-seat.CurrentBet)
		}
		return nil

	case ActionCall:
		if s.CurrentBet <= seat.CurrentBet {
			return holdemerr.New(holdemerr.InvalidState, "Nothing to call")
		}
		return nil

	case ActionBet:
		if s.CurrentBet != 0 {
			return holdemerr.New(holdemerr.InvalidState, "Cannot bet into an open bet, raise instead")
		}
		if amount < s.Config.BigBlind {
			return holdemerr.Newf(holdemerr.InvalidAmount, "Bet must be at least %d", s.Config.BigBlind)
		}
		if amount > seat.Chips {
			return holdemerr.New(holdemerr.InvalidAmount, "Insufficient chips")
		}
		return nil

	case ActionRaise:
		if s.CurrentBet == 0 {
			return holdemerr.New(holdemerr.InvalidState, "Nothing to raise, bet instead")
		}
		if amount <= s.CurrentBet {
			return holdemerr.Newf(holdemerr.InvalidAmount, "Raise must exceed current bet of %d", s.CurrentBet)
		}
		if amount-seat.CurrentBet > seat.Chips {
			return holdemerr.New(holdemerr.InvalidAmount, "Insufficient chips")
		}
		// A raise below the minimum increment is legal only as an
		// all-in; it does not reopen the action.
		if amount-s.CurrentBet < s.LastRaise && amount-seat.CurrentBet != seat.Chips {
			return holdemerr.Newf(holdemerr.InvalidAmount, "Raise must be to at least %d", s.CurrentBet+s.LastRaise)
		}
		return nil

	case ActionAllIn:
		if seat.Chips <= 0 {
			return holdemerr.New(holdemerr.InvalidState, "No chips to commit")
		}
		return nil

	default:
		return holdemerr.Newf(holdemerr.InvalidState, "Unknown action %q", kind)
	}
}

// LegalActions computes the action affordances for a seat. Outside the
// seat's turn every betting flag is false; CanAdvance reports whether
// the game is waiting on an Advance instead.
func LegalActions(s *State, pos int) ValidActions {
	va := ValidActions{
		CanAdvance: s.Status == StatusPlaying && s.Round != Showdown && !s.HandDone &&
			(s.ActionFinished || s.Current == -1),
	}
	if s.Status != StatusPlaying || s.Round == Showdown || s.ActionFinished || s.Current != pos {
		return va
	}
	seat := &s.Seats[pos]
	if seat.Status != SeatActive {
		return va
	}

	va.CanFold = true
	va.CanAllIn = seat.Chips > 0
	va.CallAmount = min(s.CurrentBet-seat.CurrentBet, seat.Chips)
	va.MaxRaise = seat.Chips + seat.CurrentBet

	if s.CurrentBet == seat.CurrentBet {
		va.CanCheck = true
	} else {
		va.CanCall = true
	}

	if s.CurrentBet == 0 {
		if seat.Chips >= s.Config.BigBlind {
			va.CanBet = true
			va.MinBet = s.Config.BigBlind
		}
	} else {
		minTo := s.CurrentBet + s.LastRaise
		if va.MaxRaise > s.CurrentBet {
			va.CanRaise = true
			va.MinRaise = min(minTo, va.MaxRaise)
		}
	}
	return va
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
