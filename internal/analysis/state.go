// Package analysis implements the abstract machine state, the per-
// instruction transfer function, and the signature reconstructor that
// together turn a decoded instruction window into a symbolic description of
// a function's behavior.
package analysis

import (
	"github.com/dolscan/dolscan/internal/ppc32"
	"github.com/dolscan/dolscan/internal/value"
)

// CRField is one of the 8 four-bit condition register groups.
type CRField struct {
	Lt, Gt, Eq, So value.Value
}

func joinCRField(a, b CRField) CRField {
	return CRField{
		Lt: value.Join(a.Lt, b.Lt),
		Gt: value.Join(a.Gt, b.Gt),
		Eq: value.Join(a.Eq, b.Eq),
		So: value.Join(a.So, b.So),
	}
}

func equalCRField(a, b CRField) bool {
	return value.Equal(a.Lt, b.Lt) && value.Equal(a.Gt, b.Gt) &&
		value.Equal(a.Eq, b.Eq) && value.Equal(a.So, b.So)
}

type gprSlot struct {
	Value value.Value
	Read  bool
}

// BlockState is the abstract machine state at a program point: 32 GPR
// slots (each with a read-witness bit), the modeled SPR bank, 8 CR fields,
// an ordered symbolic memory map, and a diverging flag marking "control
// cannot fall through this point" (set at a function return).
type BlockState struct {
	gpr                 [32]gprSlot
	lr, ctr, msr        value.Value
	xerSo, xerOv, xerCa value.Value
	cr                  [8]CRField
	memory              Memory
	diverging           bool
}

// InitialState builds the abstract state at function entry: GPR1 is the
// inbound stack pointer, GPR3..GPR10 are the first 8 inbound parameters, LR
// is the inbound return address, and everything else starts Uninitialized.
func InitialState() BlockState {
	var s BlockState
	s.gpr[1].Value = value.CallerStack
	for i := 0; i < 8; i++ {
		s.gpr[3+i].Value = value.Parameter(uint8(i))
	}
	s.lr = value.ReturnAddress
	return s
}

// GPR returns the current value of general-purpose register r.
func (b BlockState) GPR(r ppc32.Gpr) value.Value { return b.gpr[r].Value }

// GPRRead reports whether r has been read since it was last written.
func (b BlockState) GPRRead(r ppc32.Gpr) bool { return b.gpr[r].Read }

// SetGPR overwrites r's value and clears its read-witness bit.
func (b *BlockState) SetGPR(r ppc32.Gpr, v value.Value) { b.gpr[r] = gprSlot{Value: v} }

// MarkRead records that r's current value was observed by a read.
func (b *BlockState) MarkRead(r ppc32.Gpr) { b.gpr[r].Read = true }

// LR, CTR, and MSR access the corresponding SPR slots.
func (b BlockState) LR() value.Value  { return b.lr }
func (b BlockState) CTR() value.Value { return b.ctr }
func (b BlockState) MSR() value.Value { return b.msr }

func (b *BlockState) setLR(v value.Value)  { b.lr = v }
func (b *BlockState) setCTR(v value.Value) { b.ctr = v }

// CR returns CR field n (0..7).
func (b BlockState) CR(n int) CRField { return b.cr[n] }

// Diverging reports whether control cannot fall through this point.
func (b BlockState) Diverging() bool { return b.diverging }

// Memory returns the symbolic memory map at this point.
func (b BlockState) Memory() Memory { return b.memory }

// Clone returns an independent copy of b, deep-copying the memory map so
// mutations to the clone never alias the original.
func Clone(b BlockState) BlockState {
	out := b
	out.memory = b.memory.clone()
	return out
}

// Equal is structural equality over every field of the abstract state.
func Equal(a, b BlockState) bool {
	if a.diverging != b.diverging {
		return false
	}
	for i := 0; i < 32; i++ {
		if !value.Equal(a.gpr[i].Value, b.gpr[i].Value) || a.gpr[i].Read != b.gpr[i].Read {
			return false
		}
	}
	if !value.Equal(a.lr, b.lr) || !value.Equal(a.ctr, b.ctr) || !value.Equal(a.msr, b.msr) {
		return false
	}
	if !value.Equal(a.xerSo, b.xerSo) || !value.Equal(a.xerOv, b.xerOv) || !value.Equal(a.xerCa, b.xerCa) {
		return false
	}
	for i := 0; i < 8; i++ {
		if !equalCRField(a.cr[i], b.cr[i]) {
			return false
		}
	}
	return a.memory.equal(b.memory)
}

// Join computes the BlockState join: if exactly one side is diverging, the
// other side wins outright; joining two diverging states is a hard failure
// since there is nothing meaningful to merge past a function return.
func Join(a, b BlockState) BlockState {
	if a.diverging && b.diverging {
		panic("analysis: attempted to join two diverging states")
	}
	if a.diverging {
		return b
	}
	if b.diverging {
		return a
	}

	var out BlockState
	for i := 0; i < 32; i++ {
		out.gpr[i].Value = value.Join(a.gpr[i].Value, b.gpr[i].Value)
		out.gpr[i].Read = a.gpr[i].Read || b.gpr[i].Read
	}
	out.lr = value.Join(a.lr, b.lr)
	out.ctr = value.Join(a.ctr, b.ctr)
	out.msr = value.Join(a.msr, b.msr)
	out.xerSo = value.Join(a.xerSo, b.xerSo)
	out.xerOv = value.Join(a.xerOv, b.xerOv)
	out.xerCa = value.Join(a.xerCa, b.xerCa)
	for i := 0; i < 8; i++ {
		out.cr[i] = joinCRField(a.cr[i], b.cr[i])
	}
	out.memory = joinMemory(a.memory, b.memory)
	out.diverging = false
	return out
}

// clobberCallerSaved resets every caller-saved register to Uninitialized:
// GPR0 and GPR2..GPR12 (GPR1 is preserved), and every SPR and CR field.
func clobberCallerSaved(state *BlockState) {
	state.gpr[0] = gprSlot{}
	for i := 2; i <= 12; i++ {
		state.gpr[i] = gprSlot{}
	}
	state.lr = value.Value{}
	state.ctr = value.Value{}
	state.msr = value.Value{}
	state.xerSo = value.Value{}
	state.xerOv = value.Value{}
	state.xerCa = value.Value{}
	for i := 0; i < 8; i++ {
		state.cr[i] = CRField{}
	}
}
