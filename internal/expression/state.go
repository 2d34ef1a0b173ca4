package expression

import (
	"github.com/kozaktomas/facepoke/internal/landmark"
)

// State is the current set of active edits per landmark group for one
// editing session. It is owned by exactly one session and is not safe for
// concurrent use; the session serializes access.
type State struct {
	entries map[landmark.Group]Edit
	order   []landmark.Group // first-touch order, for stable snapshots
}

// NewState creates an empty expression state.
func NewState() *State {
	return &State{entries: make(map[landmark.Group]Edit)}
}

// Apply merges a normalized edit into the state and reports the edit that
// now represents the group. Under ModePrimary the edit replaces any
// previous entry for its group, so re-applying the same edit is a no-op.
//
// Composition is purely mechanical: no physical-plausibility checks happen
// here, the rendering engine owns those.
func (s *State) Apply(e Edit) Edit {
	if _, seen := s.entries[e.Group]; !seen {
		s.order = append(s.order, e.Group)
	}
	// ModePrimary is the only defined mode; new modes add cases here.
	s.entries[e.Group] = e
	return e
}

// Get returns the active edit for a group, if any.
func (s *State) Get(g landmark.Group) (Edit, bool) {
	e, ok := s.entries[g]
	return e, ok
}

// Len returns the number of groups with an active edit.
func (s *State) Len() int {
	return len(s.entries)
}

// Snapshot returns the active edits in first-touch order. The slice and
// the param maps inside it are copies.
func (s *State) Snapshot() []Edit {
	out := make([]Edit, 0, len(s.order))
	for _, g := range s.order {
		e := s.entries[g]
		e.Params = e.Params.Clone()
		out = append(out, e)
	}
	return out
}

// Reset discards all entries. The caller signals the dispatch protocol to
// restore the backend separately.
func (s *State) Reset() {
	s.entries = make(map[landmark.Group]Edit)
	s.order = nil
}

// Accumulate folds the params of every active edit into a single map,
// summing contributions from different groups. Two eyes both nudging
// pupil_x add up, matching how the engine composes controls.
func (s *State) Accumulate() Params {
	acc := make(Params)
	for _, e := range s.entries {
		for name, value := range e.Params {
			acc[name] += value
		}
	}
	return acc
}

// ParamVector serializes accumulated params as a dense vector in the
// canonical landmark.AllParams order. Used by the emotion index and the
// history store.
func ParamVector(p Params) []float32 {
	vec := make([]float32, len(landmark.AllParams))
	for i, name := range landmark.AllParams {
		vec[i] = float32(p[name])
	}
	return vec
}
