// Package selection tracks which transformation options are chosen and in
// what order. Order is significant: it becomes the pipeline execution order.
//
// At most one tone option and at most one length option may be selected at a
// time. Selecting a second one evicts the first; the newcomer is appended at
// the end. Neutral options never conflict.
//
// Eviction is not undone by toggling again: an evicted option that is
// re-selected goes to the end, not back to its old position.
package selection

import (
	"errors"
	"fmt"
	"slices"

	"wordsmith/internal/catalog"
)

var ErrInvalidOption = errors.New("invalid transformation option")

// State is an ordered, duplicate-free list of option ids. The zero value is
// the empty selection. States are values; operations return new states.
type State struct {
	ids []string
}

// Of builds a state by toggling ids in order, so the result always satisfies
// the exclusion rules.
func Of(ids ...string) (State, error) {
	var s State
	var err error
	for _, id := range ids {
		if s.Contains(id) {
			continue
		}
		if s, err = Toggle(s, id); err != nil {
			return State{}, err
		}
	}
	return s, nil
}

func (s State) IDs() []string { return slices.Clone(s.ids) }
func (s State) Len() int      { return len(s.ids) }
func (s State) Empty() bool   { return len(s.ids) == 0 }

func (s State) Contains(id string) bool { return slices.Contains(s.ids, id) }

// Toggle removes id when selected, otherwise evicts conflicting peers and
// appends it.
func Toggle(s State, id string) (State, error) {
	opt, ok := catalog.Lookup(id)
	if !ok {
		return s, fmt.Errorf("%w: %q", ErrInvalidOption, id)
	}
	if s.Contains(id) {
		return State{ids: slices.DeleteFunc(slices.Clone(s.ids), func(x string) bool { return x == id })}, nil
	}
	next := make([]string, 0, len(s.ids)+1)
	for _, x := range s.ids {
		if opt.Category.Exclusive() && categoryOf(x) == opt.Category {
			continue
		}
		next = append(next, x)
	}
	return State{ids: append(next, id)}, nil
}

func Clear() State { return State{} }

// IsBlocked reports whether selecting id would evict another option. Used to
// dim a button without touching the state.
func IsBlocked(s State, id string) bool {
	opt, ok := catalog.Lookup(id)
	if !ok || !opt.Category.Exclusive() || s.Contains(id) {
		return false
	}
	for _, x := range s.ids {
		if categoryOf(x) == opt.Category {
			return true
		}
	}
	return false
}

func categoryOf(id string) catalog.Category {
	o, _ := catalog.Lookup(id)
	return o.Category
}

// Manager holds a current selection for the presentation layer.
type Manager struct {
	state State
}

func (m *Manager) Toggle(id string) error {
	next, err := Toggle(m.state, id)
	if err != nil {
		return err
	}
	m.state = next
	return nil
}

// Select makes id the only selected option.
func (m *Manager) Select(id string) error {
	next, err := Toggle(Clear(), id)
	if err != nil {
		return err
	}
	m.state = next
	return nil
}

func (m *Manager) Clear()                    { m.state = Clear() }
func (m *Manager) State() State              { return m.state }
func (m *Manager) Selected() []string        { return m.state.IDs() }
func (m *Manager) IsSelected(id string) bool { return m.state.Contains(id) }
func (m *Manager) IsBlocked(id string) bool  { return IsBlocked(m.state, id) }
func (m *Manager) Len() int                  { return m.state.Len() }
