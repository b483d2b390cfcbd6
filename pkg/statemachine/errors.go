package statemachine

import (
	"errors"
	"fmt"
)

// ErrNoTransition matches every *NoTransitionError.
var ErrNoTransition = errors.New("statemachine: no transition")

// NoTransitionError reports a (state, event) pair absent from the table.
type NoTransitionError struct {
	From  string
	Event string
}

func (e *NoTransitionError) Error() string {
	return fmt.Sprintf("statemachine: no transition from %q on %q", e.From, e.Event)
}

func (e *NoTransitionError) Is(target error) bool { return target == ErrNoTransition }

// DuplicateTransitionError is returned by New when a row is declared twice.
type DuplicateTransitionError struct {
	From  string
	Event string
}

func (e *DuplicateTransitionError) Error() string {
	return fmt.Sprintf("statemachine: duplicate transition from %q on %q", e.From, e.Event)
}

func name(v any) string {
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(v)
}
