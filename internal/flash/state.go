package flash

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// State is the persisted form of a registry: group id -> channel -> messages.
// It is what a session store keeps between two requests.
type State map[string]Generation

// Empty reports whether no group holds a message.
func (s State) Empty() bool {
	for _, g := range s {
		if !g.Empty() {
			return false
		}
	}
	return true
}

// Count returns the total number of messages across all groups.
func (s State) Count() int {
	n := 0
	for _, g := range s {
		n += g.Count()
	}
	return n
}

// Compact drops channels without messages and groups left empty.
func (s State) Compact() State {
	out := make(State, len(s))
	for id, g := range s {
		if c := g.compact(); len(c) > 0 {
			out[id] = c
		}
	}
	return out
}

// UnmarshalJSON decodes persisted state, normalizing loose shapes the way
// DecodeState does.
func (s *State) UnmarshalJSON(data []byte) error {
	// Numbers stay json.Number so their text survives unchanged.
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedState, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after state", ErrMalformedState)
	}
	decoded, err := DecodeState(raw)
	if err != nil {
		return err
	}
	*s = decoded
	return nil
}

// DecodeState converts a loosely typed nested map into State. A scalar
// channel value becomes a one-element sequence and a null channel becomes
// empty. A group that is not a map, or a channel holding a map, is an error
// wrapping ErrMalformedState.
func DecodeState(raw map[string]any) (State, error) {
	state := make(State, len(raw))
	for id, v := range raw {
		gen, err := decodeGeneration(v)
		if err != nil {
			return nil, fmt.Errorf("group %q: %w", id, err)
		}
		if gen != nil {
			state[id] = gen
		}
	}
	return state, nil
}

func decodeGeneration(v any) (Generation, error) {
	switch g := v.(type) {
	case nil:
		return nil, nil
	case Generation:
		return g.Clone(), nil
	case map[string][]string:
		return Generation(g).Clone(), nil
	case map[string]any:
		gen := make(Generation, len(g))
		for channel, cv := range g {
			values, err := decodeValues(cv)
			if err != nil {
				return nil, fmt.Errorf("channel %q: %w", channel, err)
			}
			gen[channel] = values
		}
		return gen, nil
	default:
		return nil, fmt.Errorf("%w: expected a map of channels, got %T", ErrMalformedState, v)
	}
}

func decodeValues(v any) ([]string, error) {
	switch vv := v.(type) {
	case nil:
		return []string{}, nil
	case string:
		return []string{vv}, nil
	case []string:
		return cloneValues(vv), nil
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			s, err := scalar(item)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	default:
		s, err := scalar(v)
		if err != nil {
			return nil, err
		}
		return []string{s}, nil
	}
}

func scalar(v any) (string, error) {
	switch sv := v.(type) {
	case string:
		return sv, nil
	case nil:
		return "", nil
	case bool, float64, float32, int, int64, int32, uint, uint64, uint32, json.Number:
		return fmt.Sprint(sv), nil
	default:
		return "", fmt.Errorf("%w: unsupported message type %T", ErrMalformedState, v)
	}
}
