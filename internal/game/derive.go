package game

// Snapshot is a materialized state at a known point in the log. Replay
// resumes from here with events whose Seq is greater than LastSeq.
type Snapshot struct {
	HandNo  int    `json:"handNo"`
	LastSeq uint64 `json:"lastSeq"`
	State   *State `json:"state"`
}

// NewState returns the empty pre-GameCreated state.
func NewState() *State {
	return &State{
		Status:  StatusWaiting,
		Round:   Preflop,
		Dealer:  -1,
		Current: -1,
	}
}

// Derive folds Apply over the events in order, starting from the empty
// state. For any (config, seed, event sequence) the result is
// bit-for-bit identical across runs and restarts.
func Derive(events []Event) *State {
	return DeriveFrom(NewState(), events)
}

// DeriveFrom resumes a replay from a snapshot state, skipping events
// already reflected in it.
func DeriveFrom(start *State, events []Event) *State {
	s := start
	for _, ev := range events {
		if ev.Seq <= s.LastSeq {
			continue
		}
		s = Apply(s, ev)
	}
	return s
}
