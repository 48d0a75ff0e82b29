package cerebrum

import (
	"errors"
	"fmt"

	"github.com/voodooEntity/cyberfocus/src/system/interlingua"
)

// Phase names the half of a cycle a component was executing.
type Phase string

const (
	PhaseUpdate Phase = "update"
	PhaseEmit   Phase = "emit"
)

var (
	ErrNegativeStep       = errors.New("priority step must not be negative")
	ErrDuplicateComponent = errors.New("component already registered")
	ErrEmptyComponentName = errors.New("component name must not be empty")
	ErrNilComponent       = errors.New("component must not be nil")
	ErrDuplicateTierName  = errors.New("tier name already used in strategy")
	ErrAlreadyStarted     = errors.New("engine already started")
)

// ComponentStepError wraps an error returned by a component. It is fatal to
// the cycle it happened in.
type ComponentStepError struct {
	Component string
	Phase     Phase
	Cycle     int
	Err       error
}

func (e *ComponentStepError) Error() string {
	return fmt.Sprintf("cycle %d: component %q failed in %s: %v", e.Cycle, e.Component, e.Phase, e.Err)
}

func (e *ComponentStepError) Unwrap() error {
	return e.Err
}

// Decision is the outcome of one arbitration.
type Decision struct {
	Focus *interlingua.Element
	// Entry is the winning strategy entry, nil when the fallback picked the
	// focus or the content was empty.
	Entry *PriorityEntry
	// Descriptor is the index inside the winning tier whose matches formed
	// the candidate set, -1 without a winning entry.
	Descriptor int
	Candidates int
	Fallback   bool
}

// TierName returns the winning tier's name or "" without a winner.
func (d Decision) TierName() string {
	if d.Entry == nil {
		return ""
	}
	return d.Entry.Tier.Name
}
