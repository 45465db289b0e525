// Package dataflow implements a generic worklist fixed-point over a
// predecessor/successor graph, parameterized by an index type, a per-block
// abstract state, and the block items the transfer function consumes.
//
// Unlike a design that joins predecessor states when a block is popped off
// the worklist, this engine joins *at the successor*: a block's entry state
// is already the fully-joined state by the time it is dequeued, so running
// the block only ever needs its own recorded entry (or the default state,
// at the entry index).
package dataflow

// SuccessorTarget is one edge leaving a block item: either a further index
// to join into, or a Return edge that is consumed without inducing more
// work (a function exit).
type SuccessorTarget[Idx comparable] struct {
	isReturn bool
	target   Idx
}

// To builds a successor edge into idx.
func To[Idx comparable](idx Idx) SuccessorTarget[Idx] {
	return SuccessorTarget[Idx]{target: idx}
}

// ReturnEdge builds a successor edge representing a function return: it is
// consumed by the engine but never enqueues further work.
func ReturnEdge[Idx comparable]() SuccessorTarget[Idx] {
	return SuccessorTarget[Idx]{isReturn: true}
}

// Analysis is the set of callbacks the engine needs to run the fixed point.
// Go generics stand in for the trait/associated-type shape this kind of
// engine is usually built with: Idx is the block-item index, State is the
// abstract per-block state, and Item is the decoded instruction type.
type Analysis[Idx comparable, State any, Item any] struct {
	// InitialIdx is the function entry index.
	InitialIdx Idx
	// Item returns the item at idx, or ok=false past the end of the
	// sequence.
	Item func(idx Idx) (item Item, ok bool)
	// NextIdx returns the straight-line successor of idx (idx+1, in effect).
	NextIdx func(idx Idx) Idx
	// Successors returns the edges leaving idx. An empty result means idx
	// does not end a block: the engine keeps advancing through the item
	// sequence without consulting the worklist.
	Successors func(idx Idx) []SuccessorTarget[Idx]
	// ApplyEffect is the per-item transfer function; it mutates state.
	ApplyEffect func(state *State, item Item)
	// JoinStates computes the lattice join of two block-entry states.
	JoinStates func(a, b State) State
	// CloneState returns an independent copy of s.
	CloneState func(s State) State
	// EqualStates reports structural equality of two states.
	EqualStates func(a, b State) bool
	// DefaultState returns the state used at InitialIdx when no
	// predecessor has seeded it yet (the function-entry state).
	DefaultState func() State
}

// Results holds the per-index entry states computed by Run.
type Results[Idx comparable, State any, Item any] struct {
	entryStates map[Idx]State
	analysis    Analysis[Idx, State, Item]
}

// Run executes the fixed-point worklist algorithm to completion.
func Run[Idx comparable, State any, Item any](a Analysis[Idx, State, Item]) *Results[Idx, State, Item] {
	entryStates := make(map[Idx]State)
	worklist := []Idx{a.InitialIdx}

	for len(worklist) > 0 {
		idx := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		state := entryState(a, entryStates, idx)

		cur := idx
		for {
			item, ok := a.Item(cur)
			if !ok {
				break
			}
			a.ApplyEffect(&state, item)

			succs := a.Successors(cur)
			if len(succs) == 0 {
				cur = a.NextIdx(cur)
				continue
			}

			for _, succ := range succs {
				if succ.isReturn {
					continue
				}
				target := succ.target
				if existing, seeded := entryStates[target]; seeded {
					joined := a.JoinStates(state, existing)
					if !a.EqualStates(joined, existing) {
						entryStates[target] = joined
						worklist = append(worklist, target)
					}
				} else {
					entryStates[target] = a.CloneState(state)
					worklist = append(worklist, target)
				}
			}
			break
		}
	}

	return &Results[Idx, State, Item]{entryStates: entryStates, analysis: a}
}

func entryState[Idx comparable, State any, Item any](a Analysis[Idx, State, Item], entryStates map[Idx]State, idx Idx) State {
	if s, ok := entryStates[idx]; ok {
		return a.CloneState(s)
	}
	return a.DefaultState()
}

// EntryState returns the recorded entry state for idx and whether one was
// ever seeded (false at indices no edge ever targeted, e.g. the function's
// own entry index).
func (r *Results[Idx, State, Item]) EntryState(idx Idx) (State, bool) {
	s, ok := r.entryStates[idx]
	if !ok {
		var zero State
		return zero, false
	}
	return r.analysis.CloneState(s), true
}

// ForEachWithInput replays the full item sequence from InitialIdx, adopting
// the recorded entry state whenever one was computed for the current index,
// applying the transfer function, and invoking after with the resulting
// state. It returns the final state after the last item.
func (r *Results[Idx, State, Item]) ForEachWithInput(after func(idx Idx, item Item, state State)) State {
	state := r.analysis.DefaultState()
	idx := r.analysis.InitialIdx
	for {
		item, ok := r.analysis.Item(idx)
		if !ok {
			return state
		}
		if s, seeded := r.entryStates[idx]; seeded {
			state = r.analysis.CloneState(s)
		}
		r.analysis.ApplyEffect(&state, item)
		after(idx, item, state)
		idx = r.analysis.NextIdx(idx)
	}
}
