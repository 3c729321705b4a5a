package models

import "time"

// SessionPhase is the process-wide trading session state.
type SessionPhase int

const (
	PhaseClosed SessionPhase = iota
	PhaseOpen
)

func (p SessionPhase) String() string {
	if p == PhaseOpen {
		return "OPEN"
	}
	return "CLOSED"
}

// AlertEvent is one triggered alert, appended to the day journal and
// exported in the end-of-day report.
type AlertEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Strategy  string    `json:"strategy"`
	Message   string    `json:"message"`
}

// StrategyDescriptor identifies a configured strategy. Created once at
// startup and never mutated.
type StrategyDescriptor struct {
	Name         string
	PollInterval time.Duration
	Enabled      bool
}
