package game

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/lox/holdemroom/poker"
)

// EventKind identifies an event in the closed vocabulary. The log is
// authoritative: every state transition is one of these.
type EventKind string

const (
	EventGameCreated   EventKind = "game_created"
	EventPlayerJoined  EventKind = "player_joined"
	EventHandStart     EventKind = "hand_start"
	EventPostBlind     EventKind = "post_blind"
	EventCheck         EventKind = "check"
	EventCall          EventKind = "call"
	EventBet           EventKind = "bet"
	EventRaise         EventKind = "raise"
	EventFold          EventKind = "fold"
	EventAllIn         EventKind = "all_in"
	EventDealCommunity EventKind = "deal_community"
	EventAdvanceRound  EventKind = "advance_round"
	EventShowdown      EventKind = "showdown"
	EventAwardPot      EventKind = "award_pot"
	EventHandComplete  EventKind = "hand_complete"
	EventRevealCards   EventKind = "reveal_cards"
)

// Event is one immutable entry in a game's log. Seq is strictly
// increasing per game; Seat is -1 for events not tied to a seat.
// Payload is typed per kind and shape-checked when decoding.
type Event struct {
	Seq     uint64
	HandNo  int
	Kind    EventKind
	Seat    int
	Time    time.Time
	Payload any
}

// GameCreatedPayload seeds a fresh game.
type GameCreatedPayload struct {
	GameID   string `json:"gameId"`
	RoomCode string `json:"roomCode"`
	Config   Config `json:"config"`
	Seed     int64  `json:"seed"`
}

// PlayerJoinedPayload seats a player.
type PlayerJoinedPayload struct {
	SeatID   string `json:"seatId"`
	Name     string `json:"name"`
	Position int    `json:"position"`
	Chips    int    `json:"chips"`
}

// HandStartPayload begins a hand. Deck is the post-deal remainder and
// HoleCards the two cards dealt to each position, so replay reproduces
// every later deal without re-running the shuffle.
type HandStartPayload struct {
	HandNo    int                   `json:"handNo"`
	Dealer    int                   `json:"dealer"`
	Deck      []poker.Card          `json:"deck"`
	HoleCards map[int][2]poker.Card `json:"holeCards"`
}

// PostBlindPayload is a forced bet. Amount is the chips actually moved,
// which may be short of the configured blind.
type PostBlindPayload struct {
	Blind  string `json:"blind"` // "small" or "big"
	Amount int    `json:"amount"`
}

// ActionPayload covers call, bet, raise and all_in. Amount is the chips
// leaving the stack; To the seat's street commitment afterwards.
type ActionPayload struct {
	Amount int `json:"amount"`
	To     int `json:"to"`
}

// AdvanceRoundPayload moves to the next street.
type AdvanceRoundPayload struct {
	Round Round `json:"round"`
}

// DealCommunityPayload appends community cards. Burned is the number of
// cards discarded from the deck before the deal.
type DealCommunityPayload struct {
	Round  Round        `json:"round"`
	Cards  []poker.Card `json:"cards"`
	Burned int          `json:"burned"`
}

// AwardPotPayload records the pot resolution: the per-pot breakdown
// with winners and rank labels, and the explicit chip payouts.
type AwardPotPayload struct {
	Pots    []Pot    `json:"pots"`
	Payouts []Payout `json:"payouts"`
}

// RevealCardsPayload flips hole cards face up for the listed seats.
type RevealCardsPayload struct {
	Seats []int `json:"seats"`
}

type eventEnvelope struct {
	Seq     uint64          `json:"seq"`
	HandNo  int             `json:"handNo"`
	Kind    EventKind       `json:"kind"`
	Seat    int             `json:"seat"`
	Time    time.Time       `json:"ts"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MarshalJSON serializes the event with its payload inline.
func (e Event) MarshalJSON() ([]byte, error) {
	env := eventEnvelope{
		Seq:    e.Seq,
		HandNo: e.HandNo,
		Kind:   e.Kind,
		Seat:   e.Seat,
		Time:   e.Time,
	}
	if e.Payload != nil {
		raw, err := json.Marshal(e.Payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", e.Kind, err)
		}
		env.Payload = raw
	}
	return json.Marshal(env)
}

// UnmarshalJSON decodes the envelope and the kind-specific payload.
func (e *Event) UnmarshalJSON(data []byte) error {
	var env eventEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	payload, err := decodePayload(env.Kind, env.Payload)
	if err != nil {
		return err
	}
	*e = Event{
		Seq:     env.Seq,
		HandNo:  env.HandNo,
		Kind:    env.Kind,
		Seat:    env.Seat,
		Time:    env.Time,
		Payload: payload,
	}
	return nil
}

// decodePayload shape-checks the payload for the given kind. Unknown
// kinds keep their raw bytes so Apply can skip them.
func decodePayload(kind EventKind, raw json.RawMessage) (any, error) {
	var payload any
	switch kind {
	case EventGameCreated:
		payload = &GameCreatedPayload{}
	case EventPlayerJoined:
		payload = &PlayerJoinedPayload{}
	case EventHandStart:
		payload = &HandStartPayload{}
	case EventPostBlind:
		payload = &PostBlindPayload{}
	case EventCall, EventBet, EventRaise, EventAllIn:
		payload = &ActionPayload{}
	case EventAdvanceRound:
		payload = &AdvanceRoundPayload{}
	case EventDealCommunity:
		payload = &DealCommunityPayload{}
	case EventAwardPot:
		payload = &AwardPotPayload{}
	case EventRevealCards:
		payload = &RevealCardsPayload{}
	case EventCheck, EventFold, EventShowdown, EventHandComplete:
		return nil, nil
	default:
		return raw, nil
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("event %s: missing payload", kind)
	}
	if err := json.Unmarshal(raw, payload); err != nil {
		return nil, fmt.Errorf("event %s: %w", kind, err)
	}
	return payload, nil
}
