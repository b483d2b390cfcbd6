// Package statemachine provides an immutable, generic transition table with guards
// and actions.
//
// Unlike an in-memory machine that tracks its own current state, Machine is
// stateless: the caller loads the state from storage, fires an event and persists
// the result. This fits request-scoped workflows where the authoritative state
// lives in a database row.
//
//	m := statemachine.MustNew(
//		statemachine.Transition[State, Event, *Op]{
//			From: Disabled, Event: StartSetup, To: Pending,
//			Actions: []statemachine.Action[State, Event, *Op]{issueSecret},
//		},
//	)
//	next, err := m.Fire(ctx, current, StartSetup, op)
//	if errors.Is(err, statemachine.ErrNoTransition) {
//		// event not allowed in this state
//	}
package statemachine
