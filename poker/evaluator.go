package poker

import (
	"math/bits"
)

// Category enumerates poker hand categories from weakest to strongest.
type Category uint8

const (
	HighCard Category = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

// String returns the human-readable category label.
func (c Category) String() string {
	switch c {
	case HighCard:
		return "High Card"
	case Pair:
		return "Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	default:
		return "Unknown"
	}
}

// HandValue is the strength of the best five-card hand found among
// five to seven cards. Values order lexicographically on
// (Category, TieBreakers); equal values are exact ties.
//
// TieBreakers holds category-specific rank ordinals (0-12, deuce
// through ace), most significant first, unused positions zero. Two
// pair, for example, carries [high pair, low pair, kicker, 0, 0].
type HandValue struct {
	Category    Category
	TieBreakers [5]uint8
}

// Compare returns 1 if v beats o, -1 if o beats v, 0 on an exact tie.
func (v HandValue) Compare(o HandValue) int {
	if v.Category != o.Category {
		if v.Category > o.Category {
			return 1
		}
		return -1
	}
	for i := range v.TieBreakers {
		if v.TieBreakers[i] != o.TieBreakers[i] {
			if v.TieBreakers[i] > o.TieBreakers[i] {
				return 1
			}
			return -1
		}
	}
	return 0
}

// String returns the category label used in award records.
func (v HandValue) String() string {
	return v.Category.String()
}

// EvaluateCards ranks the best five-card hand among cards.
func EvaluateCards(cards []Card) HandValue {
	return Evaluate(NewHand(cards...))
}

// Evaluate ranks the best five-card hand in h.
func Evaluate(h Hand) HandValue {
	var suitMasks [4]uint16
	var rankMask uint16
	for suit := uint8(0); suit < 4; suit++ {
		m := h.GetSuitMask(suit)
		suitMasks[suit] = m
		rankMask |= m
	}

	// Flush first. With at most seven cards only one suit can hold
	// five, and a flush cannot coexist with quads or a full house.
	for _, m := range suitMasks {
		if bits.OnesCount16(m) < 5 {
			continue
		}
		if high := straightHigh(m); high > 0 {
			return HandValue{Category: StraightFlush, TieBreakers: [5]uint8{high}}
		}
		return HandValue{Category: Flush, TieBreakers: topRanks(m, 5)}
	}

	s0, s1, s2, s3 := suitMasks[0], suitMasks[1], suitMasks[2], suitMasks[3]

	quads := s0 & s1 & s2 & s3
	tripCandidates := (s0 & s1 & s2) | (s0 & s1 & s3) | (s0 & s2 & s3) | (s1 & s2 & s3)
	trips := tripCandidates &^ quads
	pairs := ((s0 & s1) | (s0 & s2) | (s0 & s3) | (s1 & s2) | (s1 & s3) | (s2 & s3)) &^ tripCandidates

	if quad := highestRank(quads); quad >= 0 {
		tb := [5]uint8{uint8(quad)}
		fillTopRanks(&tb, 1, rankMask&^(1<<uint(quad)), 1)
		return HandValue{Category: FourOfAKind, TieBreakers: tb}
	}

	if trip := highestRank(trips); trip >= 0 {
		// A second trip can serve as the pair of a full house.
		pairCandidates := pairs | (trips &^ (1 << uint(trip)))
		if pair := highestRank(pairCandidates); pair >= 0 {
			return HandValue{Category: FullHouse, TieBreakers: [5]uint8{uint8(trip), uint8(pair)}}
		}
	}

	if high := straightHigh(rankMask); high > 0 {
		return HandValue{Category: Straight, TieBreakers: [5]uint8{high}}
	}

	if trip := highestRank(trips); trip >= 0 {
		tb := [5]uint8{uint8(trip)}
		fillTopRanks(&tb, 1, rankMask&^(1<<uint(trip)), 2)
		return HandValue{Category: ThreeOfAKind, TieBreakers: tb}
	}

	if p1 := highestRank(pairs); p1 >= 0 {
		if p2 := highestRank(pairs &^ (1 << uint(p1))); p2 >= 0 {
			tb := [5]uint8{uint8(p1), uint8(p2)}
			fillTopRanks(&tb, 2, rankMask&^(1<<uint(p1))&^(1<<uint(p2)), 1)
			return HandValue{Category: TwoPair, TieBreakers: tb}
		}
		tb := [5]uint8{uint8(p1)}
		fillTopRanks(&tb, 1, rankMask&^(1<<uint(p1)), 3)
		return HandValue{Category: Pair, TieBreakers: tb}
	}

	return HandValue{Category: HighCard, TieBreakers: topRanks(rankMask, 5)}
}

// highestRank returns the highest rank bit set in the mask, -1 when empty.
func highestRank(mask uint16) int {
	if mask == 0 {
		return -1
	}
	return bits.Len16(mask) - 1
}

// topRanks collects the n highest ranks in mask into a tiebreaker tuple.
func topRanks(mask uint16, n int) [5]uint8 {
	var tb [5]uint8
	fillTopRanks(&tb, 0, mask, n)
	return tb
}

func fillTopRanks(tb *[5]uint8, start int, mask uint16, n int) {
	for i := 0; i < n && mask != 0; i++ {
		r := bits.Len16(mask) - 1
		tb[start+i] = uint8(r)
		mask &^= 1 << uint(r)
	}
}

// straightHigh returns the high-card rank of the best straight present
// in the rank mask (0 when none). The wheel reports the five as its
// high card, ranking it below every other straight.
func straightHigh(mask uint16) uint8 {
	const wheel = 0x100F // A-2-3-4-5
	mask &= RanksMask

	// The cascade marks the low card of every five-long run.
	seq := mask & (mask >> 1) & (mask >> 2) & (mask >> 3) & (mask >> 4)
	if seq != 0 {
		low := uint8(bits.Len16(seq) - 1)
		return low + 4
	}
	if mask&wheel == wheel {
		return 3
	}
	return 0
}
