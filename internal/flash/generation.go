package flash

import (
	"slices"
	"sort"
)

// Generation maps channel names (e.g. "info", "errors") to the messages
// queued on them for one request.
type Generation map[string][]string

// Get returns the messages for channel, or an empty slice if the channel
// was never written. It never creates the channel.
func (g Generation) Get(channel string) []string {
	if v, ok := g[channel]; ok && v != nil {
		return v
	}
	return []string{}
}

// Len returns the number of channels, including channels that were created
// but hold no messages.
func (g Generation) Len() int {
	return len(g)
}

// Empty reports whether no channel holds a message.
func (g Generation) Empty() bool {
	for _, v := range g {
		if len(v) > 0 {
			return false
		}
	}
	return true
}

// Count returns the total number of messages across all channels.
func (g Generation) Count() int {
	n := 0
	for _, v := range g {
		n += len(v)
	}
	return n
}

// Channels returns the channel names in sorted order.
func (g Generation) Channels() []string {
	names := make([]string, 0, len(g))
	for name := range g {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy; the result shares no slice storage with g.
func (g Generation) Clone() Generation {
	out := make(Generation, len(g))
	for name, v := range g {
		out[name] = cloneValues(v)
	}
	return out
}

// Mix merges other into a copy of g. Channels missing from g are adopted
// from other; channels present in both keep g's messages first, followed
// by other's.
func (g Generation) Mix(other Generation) Generation {
	out := g.Clone()
	for name, v := range other {
		if existing, ok := out[name]; ok {
			out[name] = append(existing, v...)
			continue
		}
		out[name] = cloneValues(v)
	}
	return out
}

// ensure returns the channel's messages, creating an empty entry first.
func (g Generation) ensure(channel string) []string {
	v, ok := g[channel]
	if !ok || v == nil {
		v = []string{}
		g[channel] = v
	}
	return v
}

func (g Generation) push(channel string, msgs ...string) {
	g[channel] = append(g.ensure(channel), msgs...)
}

// compact returns a copy without channels that hold no messages.
func (g Generation) compact() Generation {
	out := make(Generation, len(g))
	for name, v := range g {
		if len(v) > 0 {
			out[name] = cloneValues(v)
		}
	}
	return out
}

func cloneValues(v []string) []string {
	if v == nil {
		return []string{}
	}
	return slices.Clone(v)
}
