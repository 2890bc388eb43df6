package flash

import "fmt"

// Map is a two-generation flash: messages added to next become visible as
// now on the following request, after Rotate. The zero value is not usable;
// construct with NewMap or MapFrom.
//
// A Map belongs to a single request and is not safe for concurrent use.
// Once its Registry has rotated, the Map is sealed: reads still work, every
// write panics with an error wrapping ErrAlreadyRotated.
type Map struct {
	now    Generation
	next   Generation
	sealed bool
}

// NewMap creates a map with both generations empty.
func NewMap() *Map {
	return &Map{
		now:  Generation{},
		next: Generation{},
	}
}

// MapFrom imports a persisted generation as now. next starts empty.
func MapFrom(now Generation) *Map {
	return &Map{
		now:  now.Clone(),
		next: Generation{},
	}
}

// Now returns the messages visible on this request for channel.
func (m *Map) Now(channel string) []string {
	return m.now.Get(channel)
}

// Next returns the messages queued for the following request on channel,
// creating an empty entry if the channel is new.
func (m *Map) Next(channel string) []string {
	if m.sealed {
		return m.next.Get(channel)
	}
	return m.next.ensure(channel)
}

// Add queues messages on channel for the following request.
func (m *Map) Add(channel string, msgs ...string) {
	m.mustBeOpen("Add")
	m.next.push(channel, msgs...)
}

// AddNow appends messages to channel for this request only.
func (m *Map) AddNow(channel string, msgs ...string) {
	m.mustBeOpen("AddNow")
	m.now.push(channel, msgs...)
}

// Rotate advances the generations: now becomes a copy of next and next is
// cleared. It returns a copy of the new now.
func (m *Map) Rotate() Generation {
	m.mustBeOpen("Rotate")
	m.now = m.next.Clone()
	m.next = Generation{}
	return m.now.Clone()
}

// Keep carries messages from now forward so they survive the next
// rotation. With no channels every channel is kept; messages already queued
// on next stay ahead of the kept ones.
func (m *Map) Keep(channels ...string) {
	m.mustBeOpen("Keep")
	if len(channels) == 0 {
		m.next = m.next.Mix(m.now)
		return
	}
	for _, c := range channels {
		if len(m.next[c]) == 0 {
			m.next[c] = cloneValues(m.now[c])
			continue
		}
		m.next[c] = append(m.next[c], m.now[c]...)
	}
}

// Discard drops messages queued for the following request. With no
// channels all of next is cleared. now is never touched.
func (m *Map) Discard(channels ...string) {
	m.mustBeOpen("Discard")
	if len(channels) == 0 {
		m.next = Generation{}
		return
	}
	for _, c := range channels {
		delete(m.next, c)
	}
}

// Current returns a copy of the now generation.
func (m *Map) Current() Generation {
	return m.now.Clone()
}

// Pending returns a copy of the next generation.
func (m *Map) Pending() Generation {
	return m.next.Clone()
}

// Empty reports whether neither generation holds a message.
func (m *Map) Empty() bool {
	return m.now.Empty() && m.next.Empty()
}

// mustBeOpen panics when a write reaches a map whose request already
// finished. Such a write would otherwise be lost without a trace.
func (m *Map) mustBeOpen(op string) {
	if m.sealed {
		panic(fmt.Errorf("%w: %s after rotation", ErrAlreadyRotated, op))
	}
}
