package analysis

import (
	"github.com/dolscan/dolscan/internal/dataflow"
	"github.com/dolscan/dolscan/internal/ppc32"
	"github.com/dolscan/dolscan/internal/value"
	"github.com/dolscan/dolscan/internal/window"
)

// InstrItem is one decoded instruction, with its absolute address, indexed
// by its position within the function window.
type InstrItem struct {
	Addr uint32
	Inst ppc32.Instruction
}

// Function is one fully-decoded instruction window, ready for abstract
// interpretation.
type Function struct {
	EntryAddr uint32
	Instrs    []InstrItem

	addrToIdx map[uint32]int
}

// Decode runs the windowed decoder to exhaustion, collecting every
// instruction in the guessed function body. On a decode error (an
// unhandled opcode or a truncated stream), it still returns every
// instruction decoded before the failure, so a caller can report a partial
// result alongside the error rather than discarding it.
func Decode(buffer []byte, rng window.AddrRange) (*Function, error) {
	d := window.NewDecoder(buffer, rng)
	f := &Function{EntryAddr: rng.Start, addrToIdx: map[uint32]int{}}
	for {
		addr, inst, ok, err := d.NextInstructionWithOffset()
		if err != nil {
			return f, err
		}
		if !ok {
			break
		}
		f.addrToIdx[addr] = len(f.Instrs)
		f.Instrs = append(f.Instrs, InstrItem{Addr: addr, Inst: inst})
	}
	return f, nil
}

// successors computes the CFG edges leaving instruction index idx, per the
// transfer function's documented (and deliberately limited) edge model:
// an unlinked Bc connects to its fall-through and taken target, a Bclr is a
// return edge, and every other instruction (including a linked Bc/Branch,
// and an unlinked Branch — which produces no edge at all) just falls
// through to the next index without ending the block.
func (f *Function) successors(idx int) []dataflow.SuccessorTarget[int] {
	item := f.Instrs[idx]

	switch in := item.Inst.(type) {
	case ppc32.Bclr:
		return []dataflow.SuccessorTarget[int]{dataflow.ReturnEdge[int]()}

	case ppc32.Bc:
		if in.Link {
			return nil
		}
		var out []dataflow.SuccessorTarget[int]
		if fallthroughIdx, ok := f.addrToIdx[item.Addr+4]; ok {
			out = append(out, dataflow.To(fallthroughIdx))
		}
		if target, ok := ppc32.BranchTarget(item.Addr, in); ok {
			if targetIdx, ok := f.addrToIdx[target]; ok {
				out = append(out, dataflow.To(targetIdx))
			}
		}
		return out

	default:
		return nil
	}
}

// Analysis builds the dataflow.Analysis callback set that runs the
// transfer function over this function's instruction window.
func (f *Function) Analysis(t *Transfer) dataflow.Analysis[int, BlockState, InstrItem] {
	return dataflow.Analysis[int, BlockState, InstrItem]{
		InitialIdx: 0,
		Item: func(idx int) (InstrItem, bool) {
			if idx < 0 || idx >= len(f.Instrs) {
				return InstrItem{}, false
			}
			return f.Instrs[idx], true
		},
		NextIdx: func(idx int) int { return idx + 1 },
		Successors: func(idx int) []dataflow.SuccessorTarget[int] {
			return f.successors(idx)
		},
		ApplyEffect: func(state *BlockState, item InstrItem) {
			if err := t.Apply(state, item.Addr, item.Inst, nil); err != nil {
				panic(err)
			}
		},
		JoinStates:   Join,
		CloneState:   Clone,
		EqualStates:  Equal,
		DefaultState: InitialState,
	}
}

// Run runs the fixed-point analysis over f using arena for any symbolic
// expressions the transfer function allocates.
func (f *Function) Run(arena *value.Arena) *dataflow.Results[int, BlockState, InstrItem] {
	t := &Transfer{Arena: arena}
	return dataflow.Run(f.Analysis(t))
}
