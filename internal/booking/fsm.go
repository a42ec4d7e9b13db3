// Package booking drives the four-step appointment booking wizard.
package booking

// Step is the current wizard page.
type Step int

const (
	StepDepartment Step = iota + 1
	StepDoctor
	StepTimeSlot
	StepConfirm
)

// Valid reports whether s is one of the four steps.
func (s Step) Valid() bool {
	return s >= StepDepartment && s <= StepConfirm
}

func (s Step) String() string {
	switch s {
	case StepDepartment:
		return "department"
	case StepDoctor:
		return "doctor"
	case StepTimeSlot:
		return "time_slot"
	case StepConfirm:
		return "confirm"
	}
	return "unknown"
}

// FSM holds the allowed step transitions: forward by one or back by one.
type FSM struct {
	transitions map[Step][]Step
}

// NewFSM creates a new FSM with predefined transitions.
func NewFSM() *FSM {
	return &FSM{
		transitions: map[Step][]Step{
			StepDepartment: {StepDoctor},
			StepDoctor:     {StepTimeSlot, StepDepartment},
			StepTimeSlot:   {StepConfirm, StepDoctor},
			StepConfirm:    {StepTimeSlot},
		},
	}
}

// CanTransition checks if transition is allowed.
func (f *FSM) CanTransition(from, to Step) bool {
	allowed, ok := f.transitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

var defaultFSM = NewFSM()
