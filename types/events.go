package types

// RunState is a step of a run.
type RunState int

const (
	StateIdle RunState = iota
	StateCollecting
	StatePlanning
	StateExecuting
	StateCombining
	StateInserting
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateIdle:       "idle",
	StateCollecting: "collecting",
	StatePlanning:   "planning",
	StateExecuting:  "executing",
	StateCombining:  "combining",
	StateInserting:  "inserting",
	StateDone:       "done",
	StateFailed:     "failed",
}

func (s RunState) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether no further transitions follow s.
func (s RunState) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Event reports progress of a run to a subscriber.
type Event struct {
	State RunState

	// Chunk is the 0-based chunk index while executing, -1 otherwise.
	Chunk int
	Total int

	// Usage is the total consumed so far by the run.
	Usage Usage

	// Err is set on StateFailed.
	Err     error
	Message string
}

// EventHandler receives run events in order. It is called synchronously from
// the run and must not block.
type EventHandler func(Event)
