package statemachine

import "context"

// Guard decides whether a transition may proceed. A non-nil error vetoes it and is
// returned to the caller unchanged.
type Guard[S, E comparable, D any] func(ctx context.Context, from S, event E, data D) error

// Action runs after every guard passed. Actions run in order; the first error aborts
// the remaining ones.
type Action[S, E comparable, D any] func(ctx context.Context, from, to S, event E, data D) error

// Transition is one row of the table.
type Transition[S, E comparable, D any] struct {
	From    S
	Event   E
	To      S
	Guards  []Guard[S, E, D]
	Actions []Action[S, E, D]
}

type key[S, E comparable] struct {
	from  S
	event E
}

// Machine is an immutable transition table. It holds no current state: callers derive
// the state from their own records and ask the machine where an event leads.
// A Machine is safe for concurrent use.
type Machine[S, E comparable, D any] struct {
	table map[key[S, E]]Transition[S, E, D]
	order []key[S, E]
}

// New builds a Machine. Each (from, event) pair may appear once.
func New[S, E comparable, D any](transitions ...Transition[S, E, D]) (*Machine[S, E, D], error) {
	m := &Machine[S, E, D]{table: make(map[key[S, E]]Transition[S, E, D], len(transitions))}
	for _, t := range transitions {
		k := key[S, E]{t.From, t.Event}
		if _, dup := m.table[k]; dup {
			return nil, &DuplicateTransitionError{From: name(t.From), Event: name(t.Event)}
		}
		m.table[k] = t
		m.order = append(m.order, k)
	}
	return m, nil
}

// MustNew is New that panics, for package-level tables.
func MustNew[S, E comparable, D any](transitions ...Transition[S, E, D]) *Machine[S, E, D] {
	m, err := New(transitions...)
	if err != nil {
		panic(err)
	}
	return m
}

// Target returns the destination of event from state without running guards.
func (m *Machine[S, E, D]) Target(from S, event E) (S, bool) {
	t, ok := m.table[key[S, E]{from, event}]
	return t.To, ok
}

// Events lists the events accepted in state, in table order.
func (m *Machine[S, E, D]) Events(from S) []E {
	var out []E
	for _, k := range m.order {
		if k.from == from {
			out = append(out, k.event)
		}
	}
	return out
}

// Fire runs the guards and actions of the (from, event) row and returns the new state.
// A missing row yields *NoTransitionError. On any error the returned state is from.
func (m *Machine[S, E, D]) Fire(ctx context.Context, from S, event E, data D) (S, error) {
	t, ok := m.table[key[S, E]{from, event}]
	if !ok {
		return from, &NoTransitionError{From: name(from), Event: name(event)}
	}
	for _, g := range t.Guards {
		if err := g(ctx, from, event, data); err != nil {
			return from, err
		}
	}
	for _, a := range t.Actions {
		if err := a(ctx, from, t.To, event, data); err != nil {
			return from, err
		}
	}
	return t.To, nil
}
