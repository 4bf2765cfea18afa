package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrEmptyQuery is returned when a query is blank. It is a caller error, not a stage fault.
var ErrEmptyQuery = errors.New("query must not be empty")

// ErrInvalidStageSequence is returned when a stage set is not exactly the eight kinds in order.
var ErrInvalidStageSequence = errors.New("invalid stage sequence")

// ErrInvalidTransition is returned when a session status change is not allowed.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrUnknownStage is returned when a stage name does not match any known kind.
var ErrUnknownStage = errors.New("unknown stage")

// StageFault wraps an error raised while a stage executed.
type StageFault struct {
	Number int
	Stage  StageKind
	Err    error
}

func (f *StageFault) Error() string {
	return fmt.Sprintf("stage %d (%s) failed: %v", f.Number, f.Stage.DisplayName(), f.Err)
}

func (f *StageFault) Unwrap() error {
	return f.Err
}
