package pipeline

import "fmt"

// State is a step of one pipeline run:
// Idle → Preflight → Capturing → Recognizing → Delivering → Done,
// with Aborted reachable from every step before Done.
type State int

const (
	StateIdle State = iota
	StatePreflight
	StateCapturing
	StateRecognizing
	StateDelivering
	StateDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePreflight:
		return "preflight"
	case StateCapturing:
		return "capturing"
	case StateRecognizing:
		return "recognizing"
	case StateDelivering:
		return "delivering"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// StageError records which step a run failed in. It unwraps to the
// underlying cause, so errors.Is works against the failure sentinels.
type StageError struct {
	Stage State
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
