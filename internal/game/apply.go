package game

import (
	"github.com/lox/holdemroom/poker"
)

// Apply folds one event into the state and returns the result. It is
// pure and total: the input state is never mutated, and events of an
// unknown kind pass through untouched. All game semantics live here;
// the orchestrator only decides which events to append.
func Apply(s *State, ev Event) *State {
	out := s.Clone()
	out.LastSeq = ev.Seq

	switch ev.Kind {
	case EventGameCreated:
		p := ev.Payload.(*GameCreatedPayload)
		out.ID = p.GameID
		out.RoomCode = p.RoomCode
		out.Config = p.Config
		out.Seed = p.Seed
		out.Status = StatusWaiting
		out.Round = Preflop
		out.Dealer = -1
		out.Current = -1

	case EventPlayerJoined:
		p := ev.Payload.(*PlayerJoinedPayload)
		out.Seats = append(out.Seats, Seat{
			ID:       p.SeatID,
			Name:     p.Name,
			Position: p.Position,
			Chips:    p.Chips,
			Status:   SeatActive,
		})

	case EventHandStart:
		applyHandStart(out, ev.Payload.(*HandStartPayload))

	case EventPostBlind:
		applyPostBlind(out, ev.Seat, ev.Payload.(*PostBlindPayload))

	case EventCheck:
		seat := &out.Seats[ev.Seat]
		seat.LastAction = ActionCheck
		advanceTurn(out, ev.Seat)

	case EventCall:
		p := ev.Payload.(*ActionPayload)
		seat := &out.Seats[ev.Seat]
		commit(out, seat, p.Amount)
		seat.LastAction = ActionCall
		advanceTurn(out, ev.Seat)

	case EventBet:
		p := ev.Payload.(*ActionPayload)
		seat := &out.Seats[ev.Seat]
		commit(out, seat, p.Amount)
		out.CurrentBet = p.To
		out.LastRaise = p.To
		seat.LastAction = ActionBet
		advanceTurn(out, ev.Seat)

	case EventRaise:
		p := ev.Payload.(*ActionPayload)
		seat := &out.Seats[ev.Seat]
		applyRaiseTo(out, seat, p)
		seat.LastAction = ActionRaise
		advanceTurn(out, ev.Seat)

	case EventAllIn:
		p := ev.Payload.(*ActionPayload)
		seat := &out.Seats[ev.Seat]
		if p.To > out.CurrentBet {
			applyRaiseTo(out, seat, p)
		} else {
			commit(out, seat, p.Amount)
		}
		seat.Status = SeatAllIn
		seat.LastAction = ActionAllIn
		advanceTurn(out, ev.Seat)

	case EventFold:
		seat := &out.Seats[ev.Seat]
		seat.Status = SeatFolded
		seat.LastAction = ActionFold
		advanceTurn(out, ev.Seat)

	case EventAdvanceRound:
		p := ev.Payload.(*AdvanceRoundPayload)
		out.Round = p.Round
		out.CurrentBet = 0
		out.LastRaise = 0
		for i := range out.Seats {
			out.Seats[i].CurrentBet = 0
			out.Seats[i].LastAction = ""
		}
		out.Current = out.nextActive(out.Dealer + 1)
		out.refreshClosure()
		if out.ActionFinished {
			out.Current = -1
		}

	case EventDealCommunity:
		p := ev.Payload.(*DealCommunityPayload)
		consumed := p.Burned + len(p.Cards)
		if consumed <= len(out.Deck) {
			out.Deck = out.Deck[consumed:]
		} else {
			out.Deck = nil
		}
		out.Community = append(out.Community, p.Cards...)

	case EventShowdown:
		out.Round = Showdown
		out.Current = -1
		for i := range out.Seats {
			if out.Seats[i].InHand() {
				out.Seats[i].ShowCards = true
			}
		}

	case EventAwardPot:
		p := ev.Payload.(*AwardPotPayload)
		out.Pots = make([]Pot, len(p.Pots))
		copy(out.Pots, p.Pots)
		out.Winners = nil
		for _, pot := range p.Pots {
			out.Winners = append(out.Winners, pot.Winners...)
		}
		for _, payout := range p.Payouts {
			out.Seats[payout.Seat].Chips += payout.Amount
		}
		// The award consumes the seats' commitments; chip conservation
		// holds over every event prefix.
		for i := range out.Seats {
			out.Seats[i].CurrentBet = 0
			out.Seats[i].TotalBet = 0
		}

	case EventHandComplete:
		out.HandDone = true
		out.Current = -1
		out.ActionFinished = false
		withChips := 0
		for i := range out.Seats {
			if out.Seats[i].Chips > 0 {
				withChips++
			}
		}
		if withChips <= 1 {
			out.Status = StatusFinished
		}

	case EventRevealCards:
		p := ev.Payload.(*RevealCardsPayload)
		for _, pos := range p.Seats {
			if pos >= 0 && pos < len(out.Seats) {
				out.Seats[pos].ShowCards = true
			}
		}
	}

	return out
}

func applyHandStart(s *State, p *HandStartPayload) {
	s.Status = StatusPlaying
	s.HandNumber = p.HandNo
	s.Round = Preflop
	s.Dealer = p.Dealer
	s.Current = -1
	s.CurrentBet = 0
	s.LastRaise = s.Config.BigBlind
	s.Community = nil
	s.Deck = append([]poker.Card(nil), p.Deck...)
	s.Pots = nil
	s.Winners = nil
	s.ActionFinished = false
	s.HandDone = false

	for i := range s.Seats {
		seat := &s.Seats[i]
		seat.CurrentBet = 0
		seat.TotalBet = 0
		seat.LastAction = ""
		seat.ShowCards = false
		seat.HoleCards = nil
		if seat.Status == SeatSittingOut {
			continue
		}
		if seat.Chips <= 0 {
			seat.Status = SeatOut
			continue
		}
		seat.Status = SeatActive
		if hole, ok := p.HoleCards[seat.Position]; ok {
			seat.HoleCards = []poker.Card{hole[0], hole[1]}
		}
	}
}

func applyPostBlind(s *State, pos int, p *PostBlindPayload) {
	seat := &s.Seats[pos]
	commit(s, seat, p.Amount)
	switch p.Blind {
	case "small":
		if s.CurrentBet < p.Amount {
			s.CurrentBet = p.Amount
		}
	case "big":
		// The table owes the configured big blind even when posted
		// short, and the first actor sits after the blind.
		s.CurrentBet = s.Config.BigBlind
		s.Current = s.nextActive(pos + 1)
		s.refreshClosure()
		if s.ActionFinished {
			s.Current = -1
		}
	}
}

// commit moves amount chips from the seat's stack into its street and
// hand commitments, marking it all-in when the stack empties.
func commit(s *State, seat *Seat, amount int) {
	if amount > seat.Chips {
		amount = seat.Chips
	}
	seat.Chips -= amount
	seat.CurrentBet += amount
	seat.TotalBet += amount
	if seat.Chips == 0 && seat.Status == SeatActive {
		seat.Status = SeatAllIn
	}
}

// applyRaiseTo commits a raise to p.To. A full raise (increment at
// least the last raise) reopens action for the other seats; a short
// all-in does not.
func applyRaiseTo(s *State, seat *Seat, p *ActionPayload) {
	increment := p.To - s.CurrentBet
	commit(s, seat, p.Amount)
	fullRaise := increment >= s.LastRaise
	s.CurrentBet = p.To
	if fullRaise {
		s.LastRaise = increment
		for i := range s.Seats {
			if s.Seats[i].Position != seat.Position && s.Seats[i].Status == SeatActive {
				s.Seats[i].LastAction = ""
			}
		}
	}
}

// advanceTurn moves the action after the seat at pos has acted: either
// to the next active seat, or to no one when the street has closed.
func advanceTurn(s *State, pos int) {
	if s.inHandCount() <= 1 {
		// Hand resolves by fold; the orchestrator awards the pot.
		s.Current = -1
		s.ActionFinished = false
		return
	}
	s.refreshClosure()
	if s.ActionFinished || s.streetClosed() {
		s.Current = -1
		return
	}
	s.Current = s.nextActive(pos + 1)
}
