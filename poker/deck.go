package poker

import (
	rand "math/rand/v2"
)

// Deck is an ordered run of cards dealt from the front. Hands record
// the post-deal remainder so replay reproduces every later deal
// without re-running the shuffle.
type Deck struct {
	cards []Card
}

// NewDeck creates a 52-card deck shuffled with the provided RNG.
func NewDeck(rng *rand.Rand) *Deck {
	cards := make([]Card, 0, 52)
	for suit := uint8(0); suit < 4; suit++ {
		for rank := uint8(0); rank < 13; rank++ {
			cards = append(cards, NewCard(rank, suit))
		}
	}

	// Fisher-Yates
	for i := len(cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}

	return &Deck{cards: cards}
}

// DeckFrom rebuilds a deck from a recorded remainder.
func DeckFrom(cards []Card) *Deck {
	d := &Deck{cards: make([]Card, len(cards))}
	copy(d.cards, cards)
	return d
}

// Deal removes and returns the next n cards, or nil if fewer remain.
func (d *Deck) Deal(n int) []Card {
	if n > len(d.cards) {
		return nil
	}
	dealt := make([]Card, n)
	copy(dealt, d.cards[:n])
	d.cards = d.cards[n:]
	return dealt
}

// DealOne removes and returns the next card (zero Card when empty).
func (d *Deck) DealOne() Card {
	if len(d.cards) == 0 {
		return 0
	}
	c := d.cards[0]
	d.cards = d.cards[1:]
	return c
}

// Remaining returns the number of undealt cards.
func (d *Deck) Remaining() int {
	return len(d.cards)
}

// Cards returns a copy of the undealt remainder in order.
func (d *Deck) Cards() []Card {
	out := make([]Card, len(d.cards))
	copy(out, d.cards)
	return out
}
