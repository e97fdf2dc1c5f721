package game

import (
	"github.com/lox/holdemroom/poker"
)

// ViewMode selects the projection policy for a subscriber.
type ViewMode string

const (
	// ViewTable is the shared display: no deck, hole cards only at
	// showdown or for seats that have shown.
	ViewTable ViewMode = "table"
	// ViewPlayer is a seat-scoped view: the table view plus the
	// viewer's own hole cards.
	ViewPlayer ViewMode = "player"
)

// GameView is the wire projection of a game state. Fields hidden by
// the projection policy are omitted or empty.
type GameView struct {
	ID             string       `json:"id"`
	RoomCode       string       `json:"roomCode"`
	Status         Status       `json:"status"`
	CurrentRound   Round        `json:"currentRound"`
	Pot            int          `json:"pot"`
	Pots           []PotView    `json:"pots"`
	CurrentBet     int          `json:"currentBet"`
	CurrentPlayer  *int         `json:"currentPlayerPosition"`
	HandNumber     int          `json:"handNumber"`
	CommunityCards []poker.Card `json:"communityCards"`
	Winners        []int        `json:"winners"`
	DealerPosition int          `json:"dealerPosition"`
	ActionFinished bool         `json:"action_finished"`
	Players        []PlayerView `json:"players"`
}

// PotView is one pot of the projected breakdown.
type PotView struct {
	Amount      int    `json:"amount"`
	Eligible    []int  `json:"eligible"`
	Winners     []int  `json:"winners,omitempty"`
	WinningRank string `json:"winningRank,omitempty"`
}

// PlayerView is one seat under the projection policy.
type PlayerView struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Position     int          `json:"position"`
	Chips        int          `json:"chips"`
	CurrentBet   int          `json:"currentBet"`
	TotalBet     int          `json:"totalBet"`
	Status       SeatStatus   `json:"status"`
	LastAction   ActionKind   `json:"lastAction,omitempty"`
	HoleCards    []poker.Card `json:"holeCards"`
	ShowCards    bool         `json:"showCards"`
	IsDealer     bool         `json:"isDealer"`
	IsSmallBlind bool         `json:"isSmallBlind"`
	IsBigBlind   bool         `json:"isBigBlind"`
}

// Project sanitizes the state for one subscriber. For ViewPlayer the
// viewer is a seat position; for ViewTable it is ignored. Hole cards of
// other seats appear only at showdown or when that seat has shown; pot
// winners and rank labels appear only once the hand has resolved.
func Project(s *State, mode ViewMode, viewer int) *GameView {
	resolved := s.Round == Showdown || s.HandDone

	view := &GameView{
		ID:             s.ID,
		RoomCode:       s.RoomCode,
		Status:         s.Status,
		CurrentRound:   s.Round,
		Pot:            s.Pot(),
		CurrentBet:     s.CurrentBet,
		HandNumber:     s.HandNumber,
		CommunityCards: append([]poker.Card{}, s.Community...),
		DealerPosition: s.Dealer,
		ActionFinished: s.ActionFinished,
	}
	if s.Current >= 0 {
		pos := s.Current
		view.CurrentPlayer = &pos
	}
	if resolved {
		view.Winners = append([]int{}, s.Winners...)
	}

	pots := s.Pots
	if pots == nil && s.Status == StatusPlaying {
		pots = ComputePots(s.Seats)
	}
	view.Pots = make([]PotView, len(pots))
	for i, pot := range pots {
		view.Pots[i] = PotView{
			Amount:   pot.Amount,
			Eligible: append([]int{}, pot.Eligible...),
		}
		if resolved {
			view.Pots[i].Winners = append([]int{}, pot.Winners...)
			view.Pots[i].WinningRank = pot.WinningRank
		}
	}

	sb := -1
	bb := -1
	if s.Status == StatusPlaying && s.seatedCount() >= 2 {
		sb = s.smallBlindPosition()
		bb = s.bigBlindPosition()
	}

	view.Players = make([]PlayerView, len(s.Seats))
	for i := range s.Seats {
		seat := &s.Seats[i]
		pv := PlayerView{
			ID:           seat.ID,
			Name:         seat.Name,
			Position:     seat.Position,
			Chips:        seat.Chips,
			CurrentBet:   seat.CurrentBet,
			TotalBet:     seat.TotalBet,
			Status:       seat.Status,
			LastAction:   seat.LastAction,
			HoleCards:    []poker.Card{},
			ShowCards:    seat.ShowCards,
			IsDealer:     seat.Position == s.Dealer,
			IsSmallBlind: seat.Position == sb,
			IsBigBlind:   seat.Position == bb,
		}
		visible := s.Round == Showdown || seat.ShowCards ||
			(mode == ViewPlayer && seat.Position == viewer && seat.InHand())
		if visible {
			pv.HoleCards = append([]poker.Card{}, seat.HoleCards...)
		}
		view.Players[i] = pv
	}
	return view
}
