package valueobjects

import "fmt"

// DecisionStatus is the operator decision state shared by clients and number requests.
type DecisionStatus string

const (
	DecisionPending  DecisionStatus = "pending"
	DecisionApproved DecisionStatus = "approved"
	DecisionDenied   DecisionStatus = "denied"
)

var validDecisionStatuses = map[DecisionStatus]bool{
	DecisionPending:  true,
	DecisionApproved: true,
	DecisionDenied:   true,
}

// A decision is taken once; approved and denied are terminal.
var decisionTransitions = map[DecisionStatus][]DecisionStatus{
	DecisionPending: {DecisionApproved, DecisionDenied},
}

func NewDecisionStatus(s string) (DecisionStatus, error) {
	status := DecisionStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid decision status: %s", s)
	}
	return status, nil
}

func (s DecisionStatus) String() string {
	return string(s)
}

func (s DecisionStatus) IsValid() bool {
	return validDecisionStatuses[s]
}

func (s DecisionStatus) IsPending() bool {
	return s == DecisionPending
}

func (s DecisionStatus) IsApproved() bool {
	return s == DecisionApproved
}

func (s DecisionStatus) IsTerminal() bool {
	return s == DecisionApproved || s == DecisionDenied
}

func (s DecisionStatus) CanTransitionTo(next DecisionStatus) bool {
	for _, allowed := range decisionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
