package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/holdemroom/poker"
)

func TestComputePotsNoCommitments(t *testing.T) {
	seats := []Seat{
		{Position: 0, Status: SeatActive},
		{Position: 1, Status: SeatActive},
	}
	assert.Nil(t, ComputePots(seats))
}

func TestComputePotsSingleLevel(t *testing.T) {
	seats := []Seat{
		{Position: 0, Status: SeatActive, TotalBet: 50},
		{Position: 1, Status: SeatActive, TotalBet: 50},
		{Position: 2, Status: SeatFolded, TotalBet: 20},
	}
	pots := ComputePots(seats)
	require.Len(t, pots, 1)
	assert.Equal(t, 120, pots[0].Amount)
	assert.Equal(t, []int{0, 1}, pots[0].Eligible)
}

// Three-way with one short all-in: the capped pot takes everyone's
// chips up to the cap, and the open pot above it excludes the capped
// seat even when it holds zero chips.
func TestComputePotsSidePotShape(t *testing.T) {
	seats := []Seat{
		{Position: 0, Status: SeatActive, Chips: 50, TotalBet: 50},
		{Position: 1, Status: SeatAllIn, Chips: 0, TotalBet: 50},
		{Position: 2, Status: SeatActive, Chips: 150, TotalBet: 50},
	}
	pots := ComputePots(seats)
	require.Len(t, pots, 2)

	assert.Equal(t, 150, pots[0].Amount)
	assert.Equal(t, []int{0, 1, 2}, pots[0].Eligible)

	assert.Equal(t, 0, pots[1].Amount)
	assert.Equal(t, []int{0, 2}, pots[1].Eligible)
}

func TestComputePotsLayeredAllIns(t *testing.T) {
	seats := []Seat{
		{Position: 0, Status: SeatAllIn, TotalBet: 25},
		{Position: 1, Status: SeatAllIn, TotalBet: 75},
		{Position: 2, Status: SeatActive, TotalBet: 100},
	}
	pots := ComputePots(seats)
	require.Len(t, pots, 3)

	assert.Equal(t, 75, pots[0].Amount) // 25 from each
	assert.Equal(t, []int{0, 1, 2}, pots[0].Eligible)
	assert.Equal(t, 100, pots[1].Amount) // 50 more from seats 1 and 2
	assert.Equal(t, []int{1, 2}, pots[1].Eligible)
	assert.Equal(t, 25, pots[2].Amount) // seat 2's uncalled remainder
	assert.Equal(t, []int{2}, pots[2].Eligible)
}

// Chips a folded seat committed above an all-in cap still land in the
// side pot its remaining contender can win.
func TestComputePotsFoldedChipsAboveCap(t *testing.T) {
	seats := []Seat{
		{Position: 0, Status: SeatAllIn, TotalBet: 30},
		{Position: 1, Status: SeatFolded, TotalBet: 60},
		{Position: 2, Status: SeatActive, TotalBet: 60},
	}
	pots := ComputePots(seats)
	require.Len(t, pots, 2)
	assert.Equal(t, 90, pots[0].Amount)
	assert.Equal(t, []int{0, 2}, pots[0].Eligible)
	assert.Equal(t, 60, pots[1].Amount)
	assert.Equal(t, []int{2}, pots[1].Eligible)
}

func TestComputePotsConservation(t *testing.T) {
	seats := []Seat{
		{Position: 0, Status: SeatAllIn, TotalBet: 13},
		{Position: 1, Status: SeatFolded, TotalBet: 40},
		{Position: 2, Status: SeatActive, TotalBet: 90},
		{Position: 3, Status: SeatAllIn, TotalBet: 55},
	}
	pots := ComputePots(seats)
	total := 0
	for _, p := range pots {
		total += p.Amount
	}
	assert.Equal(t, 13+40+90+55, total)
}

func TestDistributeSplitPotOddChip(t *testing.T) {
	board := poker.MustCards("As Ks Qd Jc Th")
	s := &State{
		Status:    StatusPlaying,
		Round:     River,
		Dealer:    0,
		Community: board,
		Seats: []Seat{
			{Position: 0, Status: SeatActive, TotalBet: 67, HoleCards: poker.MustCards("2c 3d")},
			{Position: 1, Status: SeatActive, TotalBet: 67, HoleCards: poker.MustCards("2h 3s")},
			{Position: 2, Status: SeatFolded, TotalBet: 67},
		},
	}
	require.Equal(t, 201, s.Pot())

	pots, payouts := DistributePots(s)
	require.Len(t, pots, 1)
	assert.ElementsMatch(t, []int{0, 1}, pots[0].Winners)
	assert.Equal(t, "Straight", pots[0].WinningRank)

	// The odd chip lands on the first winner clockwise of the dealer.
	require.Len(t, payouts, 2)
	assert.Equal(t, Payout{Seat: 1, Amount: 101}, payouts[0])
	assert.Equal(t, Payout{Seat: 0, Amount: 100}, payouts[1])
}

func TestDistributeWonByFold(t *testing.T) {
	s := &State{
		Status: StatusPlaying,
		Round:  Preflop,
		Dealer: 0,
		Seats: []Seat{
			{Position: 0, Status: SeatFolded, TotalBet: 10},
			{Position: 1, Status: SeatActive, TotalBet: 20, HoleCards: poker.MustCards("2c 3d")},
		},
	}
	pots, payouts := DistributePots(s)
	require.Len(t, pots, 1)
	assert.Equal(t, []int{1}, pots[0].Winners)
	assert.Equal(t, WonByFold, pots[0].WinningRank)
	require.Len(t, payouts, 1)
	assert.Equal(t, Payout{Seat: 1, Amount: 30}, payouts[0])
}

// Side pot resolution where the uncapped seats hold the best hand: the
// short all-in wins nothing and the zero open pot pays nothing.
func TestDistributeSidePotBestHandTakesAll(t *testing.T) {
	s := &State{
		Status:    StatusPlaying,
		Round:     River,
		Dealer:    0,
		Community: poker.MustCards("Ah Kd 8c 4s 2d"),
		Seats: []Seat{
			{Position: 0, Status: SeatActive, Chips: 50, TotalBet: 50, HoleCards: poker.MustCards("Qc Jd")},
			{Position: 1, Status: SeatAllIn, Chips: 0, TotalBet: 50, HoleCards: poker.MustCards("9h 7s")},
			{Position: 2, Status: SeatActive, Chips: 150, TotalBet: 50, HoleCards: poker.MustCards("Ad Ac")},
		},
	}
	pots, payouts := DistributePots(s)
	require.Len(t, pots, 2)
	assert.Equal(t, []int{2}, pots[0].Winners)
	assert.Equal(t, "Three of a Kind", pots[0].WinningRank)
	assert.Equal(t, []int{2}, pots[1].Winners)

	require.Len(t, payouts, 1)
	assert.Equal(t, Payout{Seat: 2, Amount: 150}, payouts[0])
}
