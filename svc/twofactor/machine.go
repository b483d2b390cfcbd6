package twofactor

import (
	"github.com/dmitrymomot/twofactor/pkg/statemachine"
)

// State of an account's two-factor setup.
type State string

const (
	StateDisabled      State = "disabled"
	StatePendingEnable State = "pending_enable"
	StateEnabled       State = "enabled"
)

func (s State) String() string { return string(s) }

// Event drives a transition.
type Event string

const (
	EventStartSetup Event = "start_setup"
	EventConfirm    Event = "confirm"
	EventDisable    Event = "disable"
	EventReset      Event = "reset"
)

func (e Event) String() string { return string(e) }

type (
	transition = statemachine.Transition[State, Event, *operation]
	guard      = statemachine.Guard[State, Event, *operation]
	action     = statemachine.Action[State, Event, *operation]
)

// newMachine wires the lifecycle table. Every pair not listed here is rejected with
// ErrInvalidStateTransition before anything is written.
func newMachine(l *Lifecycle) *statemachine.Machine[State, Event, *operation] {
	return statemachine.MustNew(
		transition{
			From: StateDisabled, Event: EventStartSetup, To: StatePendingEnable,
			Actions: []action{l.issueSetup},
		},
		transition{
			From: StatePendingEnable, Event: EventStartSetup, To: StatePendingEnable,
			Actions: []action{l.issueSetup},
		},
		transition{
			From: StatePendingEnable, Event: EventConfirm, To: StateEnabled,
			Guards:  []guard{l.requireCode},
			Actions: []action{l.commitEnabled, l.notify},
		},
		transition{
			From: StateEnabled, Event: EventDisable, To: StateDisabled,
			Guards:  []guard{l.requireCode},
			Actions: []action{l.commitCleared, l.notify},
		},
		// Reset clears the durable record right away, so an account is never enabled
		// with an unconfirmed secret. The new secret is issued before the write.
		transition{
			From: StateEnabled, Event: EventReset, To: StatePendingEnable,
			Guards:  []guard{l.requireCode},
			Actions: []action{l.issueSetup, l.commitCleared, l.notify},
		},
	)
}
