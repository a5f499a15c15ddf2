package analyzer

import (
	"fmt"
	"strings"

	"github.com/ccollicutt/boxlog/pkg/entry"
)

// MatchState records which of a pair's two markers a correlation group saw.
type MatchState uint8

const (
	// MatchNone means neither marker was seen.
	MatchNone MatchState = iota

	// MatchOpeningSeen means only the opening marker was seen.
	MatchOpeningSeen

	// MatchClosingSeen means only the closing marker was seen.
	MatchClosingSeen

	// MatchBoth means both markers were seen.
	MatchBoth
)

// Combine merges two observations. None is the identity, Both absorbs,
// and OpeningSeen with ClosingSeen gives Both.
func (s MatchState) Combine(o MatchState) MatchState {
	switch {
	case s == o, o == MatchNone:
		return s
	case s == MatchNone:
		return o
	default:
		return MatchBoth
	}
}

// Mismatched reports whether exactly one marker was seen.
func (s MatchState) Mismatched() bool {
	return s == MatchOpeningSeen || s == MatchClosingSeen
}

func (s MatchState) String() string {
	switch s {
	case MatchNone:
		return "none"
	case MatchOpeningSeen:
		return "opening_seen"
	case MatchClosingSeen:
		return "closing_seen"
	case MatchBoth:
		return "both"
	default:
		return fmt.Sprintf("MatchState(%d)", uint8(s))
	}
}

// MarshalText encodes the state by name.
func (s MatchState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Mismatch is a correlation group that saw one marker but not the other.
type Mismatch struct {
	// Keys are the key values shared by every entry in the group.
	Keys entry.KeyValues `json:"keys"`

	State MatchState `json:"state"`

	// Origin is where the group's first entry was read from.
	Origin entry.Origin `json:"origin"`
}

// groupState is the running state of one correlation group.
type groupState struct {
	keys   entry.KeyValues
	state  MatchState
	origin entry.Origin
}

// groupTracker accumulates marker observations per correlation group,
// remembering the order groups first appeared in.
type groupTracker struct {
	opening string
	closing string
	order   []entry.GroupKey
	groups  map[entry.GroupKey]*groupState
}

func newGroupTracker(opening, closing string) *groupTracker {
	return &groupTracker{
		opening: opening,
		closing: closing,
		groups:  make(map[entry.GroupKey]*groupState),
	}
}

// observe folds one entry into its group. Every group starts at MatchNone.
func (t *groupTracker) observe(e *entry.LogEntry) {
	key := e.GroupKey()
	g, ok := t.groups[key]
	if !ok {
		g = &groupState{keys: e.KeyValues, origin: e.Origin}
		t.groups[key] = g
		t.order = append(t.order, key)
	}
	if strings.Contains(e.Message, t.opening) {
		g.state = g.state.Combine(MatchOpeningSeen)
	}
	if strings.Contains(e.Message, t.closing) {
		g.state = g.state.Combine(MatchClosingSeen)
	}
}

// mismatches returns the groups that saw exactly one marker.
func (t *groupTracker) mismatches() []Mismatch {
	out := make([]Mismatch, 0)
	for _, key := range t.order {
		g := t.groups[key]
		if g.state.Mismatched() {
			out = append(out, Mismatch{Keys: g.keys, State: g.state, Origin: g.origin})
		}
	}
	return out
}

// FindMismatched groups entries by their key values and returns the groups
// whose messages contained only the opening or only the closing marker.
// Groups that saw neither or both are omitted. Markers match as substrings.
// The result holds one element per group, in order of first appearance.
func FindMismatched(entries []entry.LogEntry, opening, closing string) []Mismatch {
	t := newGroupTracker(opening, closing)
	for i := range entries {
		t.observe(&entries[i])
	}
	return t.mismatches()
}
