package phh

import (
	"fmt"
	"strings"

	"github.com/lox/holdemroom/internal/game"
)

// Build renders one completed hand from a game's event log as a PHH
// document. The events must be the full log from the start of the
// game; the builder replays them to recover starting stacks.
func Build(events []game.Event, handNo int, table string) (*HandHistory, error) {
	state := game.NewState()
	var hand *HandHistory
	var seats []int // positions dealt into the hand, in seat order

	for _, ev := range events {
		prev := state
		state = game.Apply(state, ev)

		if ev.HandNo != handNo {
			continue
		}

		switch ev.Kind {
		case game.EventHandStart:
			p := ev.Payload.(*game.HandStartPayload)
			hand = &HandHistory{
				Variant:   "NT", // no-limit Texas hold'em
				Table:     table,
				HandID:    fmt.Sprintf("%s-%d", table, handNo),
				MinBet:    state.Config.BigBlind,
				Antes:     []int{},
				Timestamp: ev.Time,
				Time:      ev.Time.UTC().Format("15:04:05"),
				TimeZone:  "UTC",
			}
			for i := range state.Seats {
				seat := &state.Seats[i]
				if !seat.InHand() {
					continue
				}
				seats = append(seats, seat.Position)
				hand.Players = append(hand.Players, seat.Name)
				hand.StartingStacks = append(hand.StartingStacks, prev.Seats[i].Chips)
				hand.Antes = append(hand.Antes, 0)
			}
			hand.SeatCount = len(seats)
			hand.BlindsOrStraddles = make([]int, len(seats))
			for _, pos := range seats {
				hole := p.HoleCards[pos]
				hand.Actions = append(hand.Actions,
					fmt.Sprintf("d dh p%d %s%s", playerNo(seats, pos), hole[0], hole[1]))
			}

		case game.EventPostBlind:
			if hand == nil {
				continue
			}
			p := ev.Payload.(*game.PostBlindPayload)
			if n := playerNo(seats, ev.Seat); n > 0 {
				hand.BlindsOrStraddles[n-1] = p.Amount
			}

		case game.EventFold:
			hand.Actions = append(hand.Actions, fmt.Sprintf("p%d f", playerNo(seats, ev.Seat)))

		case game.EventCheck, game.EventCall:
			hand.Actions = append(hand.Actions, fmt.Sprintf("p%d cc", playerNo(seats, ev.Seat)))

		case game.EventBet, game.EventRaise, game.EventAllIn:
			p := ev.Payload.(*game.ActionPayload)
			if p.To > prev.CurrentBet {
				hand.Actions = append(hand.Actions,
					fmt.Sprintf("p%d cbr %d", playerNo(seats, ev.Seat), p.To))
			} else {
				hand.Actions = append(hand.Actions, fmt.Sprintf("p%d cc", playerNo(seats, ev.Seat)))
			}

		case game.EventDealCommunity:
			p := ev.Payload.(*game.DealCommunityPayload)
			cards := make([]string, len(p.Cards))
			for i, c := range p.Cards {
				cards[i] = c.String()
			}
			street := string(p.Round)
			if street != "" {
				street = strings.ToUpper(street[:1]) + street[1:]
			}
			hand.Actions = append(hand.Actions,
				fmt.Sprintf("d db %s %s", street, strings.Join(cards, "")))

		case game.EventShowdown:
			for _, pos := range seats {
				seat := &state.Seats[pos]
				if seat.InHand() && len(seat.HoleCards) == 2 {
					hand.Actions = append(hand.Actions,
						fmt.Sprintf("p%d sm %s%s", playerNo(seats, pos), seat.HoleCards[0], seat.HoleCards[1]))
				}
			}

		case game.EventAwardPot:
			p := ev.Payload.(*game.AwardPotPayload)
			hand.Winnings = make([]int, len(seats))
			for _, payout := range p.Payouts {
				if n := playerNo(seats, payout.Seat); n > 0 {
					hand.Winnings[n-1] = payout.Amount
				}
			}

		case game.EventHandComplete:
			hand.FinishingStacks = make([]int, len(seats))
			for i, pos := range seats {
				hand.FinishingStacks[i] = state.Seats[pos].Chips
			}
			return hand, nil
		}
	}

	if hand == nil {
		return nil, fmt.Errorf("phh: hand %d not found in log", handNo)
	}
	return nil, fmt.Errorf("phh: hand %d is incomplete", handNo)
}

// playerNo maps a seat position to its 1-based PHH player number, or 0
// when the seat was not dealt in.
func playerNo(seats []int, pos int) int {
	for i, p := range seats {
		if p == pos {
			return i + 1
		}
	}
	return 0
}
