// Package phh encodes completed hands as Poker Hand History (PHH)
// TOML documents for archival.
package phh

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/BurntSushi/toml"
)

// HandHistory is a single hand in PHH form.
type HandHistory struct {
	Variant           string   `toml:"variant"`
	Table             string   `toml:"table,omitempty"`
	SeatCount         int      `toml:"seat_count,omitempty"`
	Antes             []int    `toml:"antes"`
	BlindsOrStraddles []int    `toml:"blinds_or_straddles"`
	MinBet            int      `toml:"min_bet"`
	StartingStacks    []int    `toml:"starting_stacks"`
	FinishingStacks   []int    `toml:"finishing_stacks,omitempty"`
	Winnings          []int    `toml:"winnings,omitempty"`
	Actions           []string `toml:"actions"`
	Players           []string `toml:"players,omitempty"`
	HandID            string   `toml:"hand"`
	Time              string   `toml:"time,omitempty"`
	TimeZone          string   `toml:"time_zone,omitempty"`

	Timestamp time.Time `toml:"-"`
}

// Encode writes the hand to w as a PHH TOML document.
func (h *HandHistory) Encode(w io.Writer) error {
	if h == nil {
		return fmt.Errorf("phh: hand history is nil")
	}
	enc := toml.NewEncoder(w)
	enc.Indent = "\t"
	return enc.Encode(h)
}

// Bytes renders the hand as a PHH TOML document.
func (h *HandHistory) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := h.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
