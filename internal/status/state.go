package status

import (
	"fmt"
	"slices"
	"sync"

	"github.com/matheus3301/flasher/internal/bus"
)

// State represents a flashd lifecycle state.
type State string

const (
	Booting  State = "BOOTING"
	Serving  State = "SERVING"
	Draining State = "DRAINING"
	Stopped  State = "STOPPED"
	Error    State = "ERROR"
)

// validTransitions defines allowed state transitions. STOPPED is final.
var validTransitions = map[State][]State{
	Booting:  {Serving, Stopped, Error},
	Serving:  {Draining, Error},
	Draining: {Stopped, Error},
	Error:    {Stopped},
}

// Machine tracks and enforces daemon lifecycle transitions.
type Machine struct {
	mu       sync.RWMutex
	current  State
	lastErr  error
	bus      *bus.Bus
	watchers []func(State)
}

// NewMachine creates a new state machine starting in Booting state.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current: Booting,
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Err returns the error recorded by Fail, if any.
func (m *Machine) Err() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// Watch registers fn to be called with the new state after every
// successful transition.
func (m *Machine) Watch(fn func(State)) {
	m.mu.Lock()
	m.watchers = append(m.watchers, fn)
	m.mu.Unlock()
}

// Transition attempts to move to a new state. Returns error if transition is invalid.
func (m *Machine) Transition(to State) error {
	return m.transition(to, nil)
}

// Fail moves the machine to Error and records err.
func (m *Machine) Fail(err error) error {
	return m.transition(Error, err)
}

func (m *Machine) transition(to State, cause error) error {
	m.mu.Lock()
	allowed := validTransitions[m.current]
	if !slices.Contains(allowed, to) {
		from := m.current
		m.mu.Unlock()
		return fmt.Errorf("invalid transition from %s to %s", from, to)
	}
	from := m.current
	m.current = to
	if cause != nil {
		m.lastErr = cause
	}
	watchers := slices.Clone(m.watchers)
	m.mu.Unlock()

	m.bus.Emit(bus.KindDaemonStatus, bus.StatusChanged{
		From: string(from),
		To:   string(to),
		Err:  cause,
	})
	for _, fn := range watchers {
		fn(to)
	}
	return nil
}
