package analysis

import (
	"github.com/dolscan/dolscan/internal/dataflow"
	"github.com/dolscan/dolscan/internal/ppc32"
	"github.com/dolscan/dolscan/internal/value"
)

// Signature is the reconstructed calling convention of one function: which
// of the first 8 integer parameter slots are actually consumed, and
// whether the function appears to produce a value in r3.
type Signature struct {
	// Parameters lists the observed parameter indices (0 == r3, 1 == r4,
	// ...), in first-observed order.
	Parameters []uint8
	HasReturn  bool
}

// ParamCount is the number of distinct parameter slots observed in use.
func (s Signature) ParamCount() int { return len(s.Parameters) }

// Reconstruct replays f's instruction sequence through the already-computed
// fixed point, per the same entry-state-substitution rule the dataflow
// engine's own replay uses, watching for GPR reads that still carry their
// original Param(n) value and inspecting r3's final state for a return
// value. It runs an independent Transfer over arena so replay never
// mutates the states results already holds.
func Reconstruct(f *Function, results *dataflow.Results[int, BlockState, InstrItem], arena *value.Arena) Signature {
	t := &Transfer{Arena: arena}

	state := InitialState()
	seen := map[uint8]bool{}
	var order []uint8

	for idx, item := range f.Instrs {
		if seeded, ok := results.EntryState(idx); ok {
			state = seeded
		}

		err := t.Apply(&state, item.Addr, item.Inst, func(r ppc32.Gpr, before value.Value) {
			if n, ok := before.AsParam(); ok && !seen[n] {
				seen[n] = true
				order = append(order, n)
			}
		})
		if err != nil {
			panic(err)
		}
	}

	hasReturn := value.IsInitialized(state.GPR(3)) && !state.GPRRead(3)
	return Signature{Parameters: order, HasReturn: hasReturn}
}
