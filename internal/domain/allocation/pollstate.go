package allocation

import "fmt"

// PollState is the derived polling state of an allocation.
type PollState string

const (
	PollWaiting   PollState = "waiting"
	PollDelivered PollState = "delivered"
	PollEnded     PollState = "ended"
	PollExpired   PollState = "expired"
)

var validPollStates = map[PollState]bool{
	PollWaiting:   true,
	PollDelivered: true,
	PollEnded:     true,
	PollExpired:   true,
}

func NewPollState(s string) (PollState, error) {
	state := PollState(s)
	if !state.IsValid() {
		return "", fmt.Errorf("invalid poll state: %s", s)
	}
	return state, nil
}

func (s PollState) String() string {
	return string(s)
}

func (s PollState) IsValid() bool {
	return validPollStates[s]
}

// IsTerminal reports whether the allocation is excluded from poll cycles.
func (s PollState) IsTerminal() bool {
	return s == PollDelivered || s == PollEnded || s == PollExpired
}

// CanTransitionTo only allows leaving waiting.
func (s PollState) CanTransitionTo(next PollState) bool {
	return s == PollWaiting && next.IsTerminal()
}
