package game

import (
	"sort"

	"github.com/lox/holdemroom/poker"
)

// WonByFold is the rank label recorded when a pot resolves without a
// showdown.
const WonByFold = "won by fold"

// ComputePots builds the per-level pot breakdown from the seats'
// cumulative commitments. Pots are not maintained incrementally; this
// recomputes the full decomposition on demand.
//
// Levels are the distinct all-in commitments in ascending order,
// followed by one open level at the highest commitment whenever a
// non-folded seat can still bet. The open pot may hold zero chips.
// Folded seats contribute chips but are never eligible.
func ComputePots(seats []Seat) []Pot {
	caps := make([]int, 0, len(seats))
	seen := make(map[int]bool)
	maxBet := 0
	openSeats := false
	for i := range seats {
		seat := &seats[i]
		if seat.TotalBet > maxBet {
			maxBet = seat.TotalBet
		}
		if seat.Status == SeatAllIn && seat.TotalBet > 0 && !seen[seat.TotalBet] {
			seen[seat.TotalBet] = true
			caps = append(caps, seat.TotalBet)
		}
		if seat.Status == SeatActive && seat.TotalBet > 0 {
			openSeats = true
		}
	}
	if maxBet == 0 {
		return nil
	}
	sort.Ints(caps)

	levels := caps
	if openSeats && (len(caps) == 0 || maxBet >= caps[len(caps)-1]) {
		levels = append(levels, maxBet)
	}

	var pots []Pot
	carry := 0
	prev := 0
	for li, level := range levels {
		open := openSeats && li == len(levels)-1
		pot := Pot{Amount: carry}
		carry = 0
		for i := range seats {
			seat := &seats[i]
			pot.Amount += sliceOf(seat.TotalBet, prev, level)
			if seat.Status == SeatFolded || seat.TotalBet < level {
				continue
			}
			if open && seat.Status == SeatAllIn && level == prev {
				// A capped seat at exactly this level contends in the
				// capped pot, not the zero open pot above it.
				continue
			}
			pot.Eligible = append(pot.Eligible, seat.Position)
		}
		if len(pot.Eligible) == 0 {
			// Everyone at this level folded; their chips roll forward.
			carry = pot.Amount
		} else {
			pots = append(pots, pot)
		}
		prev = level
	}
	if carry > 0 && len(pots) > 0 {
		pots[len(pots)-1].Amount += carry
	}
	return pots
}

func sliceOf(totalBet, lo, hi int) int {
	if totalBet < lo {
		return 0
	}
	if totalBet > hi {
		totalBet = hi
	}
	return totalBet - lo
}

// DistributePots resolves every pot at showdown: winners are the argmax
// set of seven-card hand values among eligible seats, split shares
// round down, and remainder chips go one each clockwise from the seat
// left of the dealer. The returned pots carry winners and rank labels;
// payouts list the explicit chip awards.
func DistributePots(s *State) ([]Pot, []Payout) {
	pots := ComputePots(s.Seats)
	amounts := make(map[int]int)

	byFold := s.inHandCount() == 1

	for pi := range pots {
		pot := &pots[pi]
		if len(pot.Eligible) == 1 {
			pos := pot.Eligible[0]
			pot.Winners = []int{pos}
			if byFold {
				pot.WinningRank = WonByFold
			} else {
				pot.WinningRank = handValue(s, pos).String()
			}
			amounts[pos] += pot.Amount
			continue
		}

		var best poker.HandValue
		var winners []int
		for _, pos := range pot.Eligible {
			value := handValue(s, pos)
			if winners == nil {
				best = value
				winners = []int{pos}
				continue
			}
			switch value.Compare(best) {
			case 1:
				best = value
				winners = []int{pos}
			case 0:
				winners = append(winners, pos)
			}
		}
		pot.Winners = winners
		pot.WinningRank = best.String()

		share := pot.Amount / len(winners)
		remainder := pot.Amount % len(winners)
		for _, pos := range clockwiseFrom(winners, s.Dealer+1, len(s.Seats)) {
			amount := share
			if remainder > 0 {
				amount++
				remainder--
			}
			amounts[pos] += amount
		}
	}

	payouts := make([]Payout, 0, len(amounts))
	for _, pos := range clockwiseFrom(keysOf(amounts), s.Dealer+1, len(s.Seats)) {
		if amounts[pos] > 0 {
			payouts = append(payouts, Payout{Seat: pos, Amount: amounts[pos]})
		}
	}
	return pots, payouts
}

func handValue(s *State, pos int) poker.HandValue {
	cards := append([]poker.Card(nil), s.Seats[pos].HoleCards...)
	cards = append(cards, s.Community...)
	return poker.EvaluateCards(cards)
}

// clockwiseFrom orders seat positions clockwise starting at start.
func clockwiseFrom(positions []int, start, n int) []int {
	out := append([]int(nil), positions...)
	sort.Slice(out, func(i, j int) bool {
		di := ((out[i]-start)%n + n) % n
		dj := ((out[j]-start)%n + n) % n
		return di < dj
	})
	return out
}

func keysOf(m map[int]int) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
