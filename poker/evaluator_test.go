package poker

import (
	rand "math/rand/v2"
	"testing"

	oracle "github.com/chehsunliu/poker"
)

func TestEvaluateCategories(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		cards string
		want  Category
	}{
		{"high card", "As Kd 9h 7c 5s 3d 2c", HighCard},
		{"pair", "As Ad 9h 7c 5s 3d 2c", Pair},
		{"two pair", "As Ad 9h 9c 5s 3d 2c", TwoPair},
		{"trips", "As Ad Ah 9c 5s 3d 2c", ThreeOfAKind},
		{"straight", "9s 8d 7h 6c 5s Ad 2c", Straight},
		{"wheel", "As 2d 3h 4c 5s 9d Kc", Straight},
		{"broadway", "As Kd Qh Jc Ts 3d 2c", Straight},
		{"flush", "As Ks 9s 7s 5s 3d 2c", Flush},
		{"full house", "As Ad Ah 9c 9s 3d 2c", FullHouse},
		{"trips twice is a boat", "As Ad Ah 9c 9s 9d 2c", FullHouse},
		{"quads", "As Ad Ah Ac 5s 3d 2c", FourOfAKind},
		{"straight flush", "9s 8s 7s 6s 5s Ad 2c", StraightFlush},
		{"steel wheel", "As 2s 3s 4s 5s 9d Kc", StraightFlush},
		{"five card high card", "As Kd 9h 7c 5s", HighCard},
	}

	for _, tt := range tests {
		got := EvaluateCards(MustCards(tt.cards))
		if got.Category != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got.Category, tt.want)
		}
	}
}

func TestEvaluateTieBreakers(t *testing.T) {
	t.Parallel()

	// Two pair: aces and nines with a king kicker.
	v := EvaluateCards(MustCards("As Ad 9h 9c Ks 3d 2c"))
	if v.Category != TwoPair {
		t.Fatalf("expected two pair, got %v", v.Category)
	}
	want := [5]uint8{Ace, Nine, King, 0, 0}
	if v.TieBreakers != want {
		t.Errorf("tiebreakers = %v, want %v", v.TieBreakers, want)
	}

	// Kicker outside the best five is ignored.
	a := EvaluateCards(MustCards("As Ad Kh Qc Js 9d 2c"))
	b := EvaluateCards(MustCards("As Ad Kh Qc Js 9d 3c"))
	if a.Compare(b) != 0 {
		t.Errorf("sixth card changed the hand value: %v vs %v", a, b)
	}
}

func TestWheelRanksBelowOtherStraights(t *testing.T) {
	t.Parallel()

	wheel := EvaluateCards(MustCards("As 2d 3h 4c 5s 9d Kc"))
	six := EvaluateCards(MustCards("2s 3d 4h 5c 6s 9d Kc"))
	if wheel.Compare(six) != -1 {
		t.Errorf("wheel should lose to a six-high straight: %v vs %v", wheel, six)
	}
}

func TestSplitPotHands(t *testing.T) {
	t.Parallel()

	// Board plays for both seats.
	board := "As Ks Qd Jc Th"
	a := EvaluateCards(MustCards(board + " 2c 3d"))
	b := EvaluateCards(MustCards(board + " 4h 5s"))
	if a.Compare(b) != 0 {
		t.Errorf("board-plays hands should tie: %v vs %v", a, b)
	}
}

// randomHand draws n distinct cards from the rng.
func randomHand(rng *rand.Rand, n int) []Card {
	cards := make([]Card, 0, 52)
	for suit := uint8(0); suit < 4; suit++ {
		for rank := uint8(0); rank < 13; rank++ {
			cards = append(cards, NewCard(rank, suit))
		}
	}
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return cards[:n]
}

func TestCompareTotalOrder(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(7, 7))
	values := make([]HandValue, 200)
	for i := range values {
		values[i] = EvaluateCards(randomHand(rng, 7))
	}

	for _, a := range values {
		if a.Compare(a) != 0 {
			t.Fatalf("hand does not tie with itself: %v", a)
		}
		for _, b := range values {
			if a.Compare(b) != -b.Compare(a) {
				t.Fatalf("compare not antisymmetric: %v vs %v", a, b)
			}
			for _, c := range values {
				if a.Compare(b) >= 0 && b.Compare(c) >= 0 && a.Compare(c) < 0 {
					t.Fatalf("compare not transitive: %v, %v, %v", a, b, c)
				}
			}
		}
	}
}

// oracleRank evaluates through chehsunliu/poker, where lower is
// stronger.
func oracleRank(cards []Card) int32 {
	converted := make([]oracle.Card, len(cards))
	for i, c := range cards {
		converted[i] = oracle.NewCard(c.String())
	}
	return oracle.Evaluate(converted)
}

// oracleCategory maps the oracle's rank class onto our categories.
func oracleCategory(rank int32) Category {
	switch oracle.RankClass(rank) {
	case 1:
		return StraightFlush
	case 2:
		return FourOfAKind
	case 3:
		return FullHouse
	case 4:
		return Flush
	case 5:
		return Straight
	case 6:
		return ThreeOfAKind
	case 7:
		return TwoPair
	case 8:
		return Pair
	default:
		return HighCard
	}
}

func TestEvaluateAgainstOracle(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(42, 42))
	for i := 0; i < 2000; i++ {
		handA := randomHand(rng, 7)
		handB := randomHand(rng, 7)

		ourA, ourB := EvaluateCards(handA), EvaluateCards(handB)
		refA, refB := oracleRank(handA), oracleRank(handB)

		if got, want := ourA.Category, oracleCategory(refA); got != want {
			t.Fatalf("category mismatch for %v: got %v, want %v", handA, got, want)
		}

		ourCmp := ourA.Compare(ourB)
		refCmp := 0
		if refA < refB {
			refCmp = 1
		} else if refA > refB {
			refCmp = -1
		}
		if ourCmp != refCmp {
			t.Fatalf("ordering mismatch: %v vs %v, got %d, oracle %d", handA, handB, ourCmp, refCmp)
		}
	}
}
