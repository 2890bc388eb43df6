package flash

import (
	"fmt"
	"sort"
)

// DefaultGroup is the group handlers get when they don't name one.
const DefaultGroup = "flash"

// Registry holds the independent flash groups of one request, e.g. "flash"
// for the page and "api" for an embedded widget. It is rotated exactly once,
// by the middleware that created it.
type Registry struct {
	groups       map[string]*Map
	defaultGroup string
	rotated      bool
}

// NewRegistry creates a registry holding only an empty default group. An
// empty defaultGroup means DefaultGroup.
func NewRegistry(defaultGroup string) *Registry {
	return Load(nil, defaultGroup)
}

// Load builds a registry from persisted state. Every persisted group becomes
// a Map whose now is the persisted generation. If state holds no groups the
// registry gets the empty default group.
func Load(state State, defaultGroup string) *Registry {
	if defaultGroup == "" {
		defaultGroup = DefaultGroup
	}
	r := &Registry{
		groups:       make(map[string]*Map, len(state)+1),
		defaultGroup: defaultGroup,
	}
	for id, gen := range state {
		r.groups[id] = MapFrom(gen)
	}
	if len(r.groups) == 0 {
		r.groups[defaultGroup] = NewMap()
	}
	return r
}

// Group returns the map for id, creating an empty one if needed. It panics
// with an error wrapping ErrAlreadyRotated once the registry has rotated.
func (r *Registry) Group(id string) *Map {
	if r.rotated {
		panic(fmt.Errorf("%w: group %q requested after rotation", ErrAlreadyRotated, id))
	}
	m, ok := r.groups[id]
	if !ok {
		m = NewMap()
		r.groups[id] = m
	}
	return m
}

// Default returns the default group. Like Group it panics after rotation.
func (r *Registry) Default() *Map {
	return r.Group(r.defaultGroup)
}

// DefaultName returns the id of the default group.
func (r *Registry) DefaultName() string {
	return r.defaultGroup
}

// Groups returns the group ids in sorted order.
func (r *Registry) Groups() []string {
	ids := make([]string, 0, len(r.groups))
	for id := range r.groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Rotated reports whether Rotate has already run.
func (r *Registry) Rotated() bool {
	return r.rotated
}

// Rotate snapshots every group's next generation, then rotates and seals
// each group. The snapshot is what the following request must load as its
// now. A second call returns ErrAlreadyRotated and leaves the registry
// untouched.
func (r *Registry) Rotate() (State, error) {
	if r.rotated {
		return nil, ErrAlreadyRotated
	}
	r.rotated = true

	state := make(State, len(r.groups))
	for id, m := range r.groups {
		state[id] = m.Pending()
		m.Rotate()
		m.sealed = true
	}
	return state, nil
}
