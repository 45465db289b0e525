package analysis

import (
	"fmt"

	"github.com/dolscan/dolscan/internal/ppc32"
	"github.com/dolscan/dolscan/internal/value"
)

// ReadHook is invoked once per GPR read, before the per-mnemonic handler
// runs, with the register's value as it stood immediately before the read.
type ReadHook func(r ppc32.Gpr, before value.Value)

// Transfer carries the per-function arena that symbolic expressions built
// during the analysis of that function are allocated from.
type Transfer struct {
	Arena *value.Arena
}

// readRegisters lists the GPR operands a mnemonic consumes (as opposed to
// merely overwrites). Only the handful of mnemonics the transfer function
// below models need an entry; every other decoded instruction is a hard
// failure before this distinction matters.
func readRegisters(inst ppc32.Instruction) []ppc32.Gpr {
	switch in := inst.(type) {
	case ppc32.Stwu:
		return []ppc32.Gpr{in.Dest, in.Source}
	case ppc32.Stw:
		return []ppc32.Gpr{in.Dest, in.Source}
	case ppc32.Lwz:
		return []ppc32.Gpr{in.Source}
	case ppc32.Or:
		return []ppc32.Gpr{in.Source, in.OrWith}
	case ppc32.Mtspr:
		return []ppc32.Gpr{in.Source}
	case ppc32.Addi:
		return []ppc32.Gpr{in.Source}
	default:
		return nil
	}
}

// Apply runs the transfer function for one instruction at addr, mutating
// state in place. onRead, if non-nil, is invoked for every GPR read with
// the pre-read value (used by the signature reconstructor; ordinary
// fixed-point iteration passes nil).
func (t *Transfer) Apply(state *BlockState, addr uint32, inst ppc32.Instruction, onRead ReadHook) error {
	for _, r := range readRegisters(inst) {
		if onRead != nil {
			onRead(r, state.GPR(r))
		}
		state.MarkRead(r)
	}

	switch in := inst.(type) {
	case ppc32.Stwu:
		// Read rS before writing rA: the common stwu r1,-16(r1) prologue
		// idiom uses the same register for both, and the store must see
		// its pre-update value even though rA is rewritten in this call.
		ea := value.Add(state.GPR(in.Dest), value.I16(in.Imm), t.Arena)
		storedVal := state.GPR(in.Source)
		state.SetGPR(in.Dest, ea)
		state.memory.Set(ea, storedVal)

	case ppc32.Stw:
		ea := value.Add(state.GPR(in.Dest), value.I16(in.Imm), t.Arena)
		state.memory.Set(ea, state.GPR(in.Source))

	case ppc32.Lwz:
		ea := t.effectiveAddress(state, in.Source, in.Imm)
		v, ok := state.memory.Get(ea)
		if !ok {
			return fmt.Errorf("analysis: at %#x: read from a memory address never written in this function window", addr)
		}
		state.SetGPR(in.Dest, v)

	case ppc32.Or:
		var result value.Value
		if in.Source == in.OrWith {
			// mr rd,rs: the canonical "or rd,rs,rs" move-register idiom.
			result = state.GPR(in.Source)
		} else {
			result = value.BitOr(state.GPR(in.Source), state.GPR(in.OrWith), t.Arena)
		}
		state.SetGPR(in.Dest, result)
		if in.Rc {
			state.cr[0] = CRField{
				Lt: value.OneIfNegative(result, t.Arena),
				Gt: value.OneIfPositive(result, t.Arena),
				Eq: value.OneIfZero(result, t.Arena),
				So: state.xerSo,
			}
		}

	case ppc32.Mfspr:
		v, err := readSpr(state, in.Spr)
		if err != nil {
			return fmt.Errorf("analysis: at %#x: %w", addr, err)
		}
		state.SetGPR(in.Dest, v)

	case ppc32.Mtspr:
		if err := writeSpr(state, in.Spr, state.GPR(in.Source)); err != nil {
			return fmt.Errorf("analysis: at %#x: %w", addr, err)
		}

	case ppc32.Addi:
		var result value.Value
		if in.Source == 0 {
			result = value.I16(in.Imm)
		} else {
			result = value.Add(state.GPR(in.Source), value.I16(in.Imm), t.Arena)
		}
		state.SetGPR(in.Dest, result)

	case ppc32.Branch:
		clobberCallerSaved(state)
		if in.Link {
			target, _ := ppc32.BranchTarget(addr, in)
			state.SetGPR(3, value.CallResult(target))
		}

	case ppc32.Bc:
		clobberCallerSaved(state)
		if in.Link {
			target, _ := ppc32.BranchTarget(addr, in)
			state.SetGPR(3, value.CallResult(target))
		}

	case ppc32.Bclr:
		state.diverging = true

	default:
		return fmt.Errorf("analysis: at %#x: %T is not modeled by the transfer function", addr, inst)
	}

	return nil
}

// effectiveAddress implements the ra=0 => literal-zero-base addressing
// convention Lwz (and, by the same rule, Addi) uses.
func (t *Transfer) effectiveAddress(state *BlockState, base ppc32.Gpr, imm int16) value.Value {
	if base == 0 {
		return value.I16(imm)
	}
	return value.Add(state.GPR(base), value.I16(imm), t.Arena)
}

func readSpr(state *BlockState, spr ppc32.Spr) (value.Value, error) {
	switch spr.Kind {
	case ppc32.SprLr:
		return state.lr, nil
	case ppc32.SprCtr:
		return state.ctr, nil
	default:
		return value.Value{}, fmt.Errorf("spr %s is not modeled by mfspr", spr)
	}
}

func writeSpr(state *BlockState, spr ppc32.Spr, v value.Value) error {
	switch spr.Kind {
	case ppc32.SprLr:
		state.setLR(v)
		return nil
	case ppc32.SprCtr:
		state.setCTR(v)
		return nil
	default:
		return fmt.Errorf("spr %s is not modeled by mtspr", spr)
	}
}
