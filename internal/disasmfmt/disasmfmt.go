// Package disasmfmt renders a decoded instruction as column-aligned text,
// with mnemonic and operand columns aligned the way an assembly listing
// would align them.
package disasmfmt

import (
	"fmt"
	"strings"

	"github.com/dolscan/dolscan/internal/ppc32"
)

// Options controls column widths. Zero-value Options falls back to
// DefaultOptions's widths at render time.
type Options struct {
	MnemonicColumn int // column operands start at
}

// DefaultOptions gives a mnemonic-only column layout (no label column:
// raw machine code has no source-level labels to align against).
func DefaultOptions() Options {
	return Options{MnemonicColumn: 8}
}

// Line renders one decoded instruction as "0xADDR: mnemonic operand, ...".
func Line(addr uint32, inst ppc32.Instruction, opts Options) string {
	if opts.MnemonicColumn == 0 {
		opts = DefaultOptions()
	}
	mnemonic, operands := split(addr, inst)

	var sb strings.Builder
	fmt.Fprintf(&sb, "0x%08X: ", addr)
	sb.WriteString(mnemonic)
	if operands != "" {
		pad := opts.MnemonicColumn - len(mnemonic)
		if pad < 1 {
			pad = 1
		}
		sb.WriteString(strings.Repeat(" ", pad))
		sb.WriteString(operands)
	}
	return sb.String()
}

// split returns the bare mnemonic and a comma-joined operand string for
// one decoded instruction.
func split(addr uint32, inst ppc32.Instruction) (mnemonic, operands string) {
	switch in := inst.(type) {
	case ppc32.Branch:
		target, _ := ppc32.BranchTarget(addr, in)
		if in.Link {
			return "bl", fmt.Sprintf("0x%08X", target)
		}
		return "b", fmt.Sprintf("0x%08X", target)

	case ppc32.Bc:
		target, _ := ppc32.BranchTarget(addr, in)
		name := "bc"
		if in.Link {
			name = "bcl"
		}
		return name, fmt.Sprintf("%s, %d, 0x%08X", in.Bo, in.Bi, target)

	case ppc32.Bclr:
		name := "bclr"
		if in.Link {
			name = "bclrl"
		}
		return name, fmt.Sprintf("%s, %d", in.Bo, in.Bi)

	case ppc32.Addi:
		return "addi", fmt.Sprintf("%s, %s, %d", in.Dest, in.Source, in.Imm)

	case ppc32.Addis:
		if in.Add == nil {
			return "lis", fmt.Sprintf("%s, %d", in.Dest, in.Imm)
		}
		return "addis", fmt.Sprintf("%s, %s, %d", in.Dest, *in.Add, in.Imm)

	case ppc32.Ori:
		return "ori", fmt.Sprintf("%s, %s, 0x%04X", in.Dest, in.Source, in.Imm)

	case ppc32.Oris:
		return "oris", fmt.Sprintf("%s, %s, 0x%04X", in.Dest, in.Source, in.Imm)

	case ppc32.Or:
		if in.Source == in.OrWith {
			return rc("mr", in.Rc), fmt.Sprintf("%s, %s", in.Dest, in.Source)
		}
		return rc("or", in.Rc), fmt.Sprintf("%s, %s, %s", in.Dest, in.Source, in.OrWith)

	case ppc32.And:
		return "and", fmt.Sprintf("%s, %s, %s", in.Dest, in.Source1, in.Source2)

	case ppc32.Add:
		return rc(oe("add", in.Oe), in.Rc), fmt.Sprintf("%s, %s, %s", in.Dest, in.A, in.B)

	case ppc32.Subf:
		return rc(oe("subf", in.Oe), in.Rc), fmt.Sprintf("%s, %s, %s", in.Dest, in.A, in.B)

	case ppc32.Neg:
		return rc(oe("neg", in.Oe), in.Rc), fmt.Sprintf("%s, %s", in.Dest, in.Source)

	case ppc32.Cmpi:
		return "cmpwi", fmt.Sprintf("cr%d, %s, %d", in.Crf, in.Source, int16(in.Imm))

	case ppc32.Cmpli:
		return "cmplwi", fmt.Sprintf("cr%d, %s, 0x%04X", in.Crf, in.Source, in.Imm)

	case ppc32.Cmp:
		return "cmpw", fmt.Sprintf("cr%d, %s, %s", in.Crf, in.A, in.B)

	case ppc32.Cmpl:
		return "cmplw", fmt.Sprintf("cr%d, %s, %s", in.Crf, in.A, in.B)

	case ppc32.Stw:
		return "stw", fmt.Sprintf("%s, %d(%s)", in.Source, in.Imm, in.Dest)

	case ppc32.Stwu:
		return "stwu", fmt.Sprintf("%s, %d(%s)", in.Source, in.Imm, in.Dest)

	case ppc32.Stwux:
		return "stwux", fmt.Sprintf("%s, %s, %s", in.Source, in.Dest, in.Index)

	case ppc32.Stmw:
		return "stmw", fmt.Sprintf("%s, %d(%s)", in.Source, in.Imm, in.Dest)

	case ppc32.Lwz:
		return "lwz", fmt.Sprintf("%s, %d(%s)", in.Dest, in.Imm, in.Source)

	case ppc32.Lwzu:
		return "lwzu", fmt.Sprintf("%s, %d(%s)", in.Dest, in.Imm, in.Source)

	case ppc32.Lhz:
		return "lhz", fmt.Sprintf("%s, %d(%s)", in.Dest, in.Imm, in.Source)

	case ppc32.Lbz:
		return "lbz", fmt.Sprintf("%s, %d(%s)", in.Dest, in.Imm, in.Source)

	case ppc32.Lmw:
		return "lmw", fmt.Sprintf("%s, %d(%s)", in.Dest, in.Imm, in.Source)

	case ppc32.Mfspr:
		return "mfspr", fmt.Sprintf("%s, %s", in.Dest, in.Spr)

	case ppc32.Mtspr:
		return "mtspr", fmt.Sprintf("%s, %s", in.Spr, in.Source)

	case ppc32.Mfmsr:
		return "mfmsr", in.Dest.String()

	case ppc32.Mtmsr:
		return "mtmsr", in.Source.String()

	case ppc32.Mftb:
		return "mftb", fmt.Sprintf("%s, %s", in.Dest, in.Tbr)

	case ppc32.Isync:
		return "isync", ""

	case ppc32.Hwsync:
		return "sync", ""

	case ppc32.Mtfsb1:
		return rc("mtfsb1", in.Rc), fmt.Sprintf("%d", in.Crf)

	case ppc32.Crxor:
		return "crxor", fmt.Sprintf("%d, %d, %d", in.CrbDest, in.CrbA, in.CrbB)

	case ppc32.Rlwinm:
		return rc("rlwinm", in.Rc), fmt.Sprintf("%s, %s, %d, %d, %d", in.Dest, in.Source, in.Rot, in.Ms, in.Me)

	case ppc32.Rlwnm:
		return rc("rlwnm", in.Rc), fmt.Sprintf("%s, %s, %s, %d, %d", in.Dest, in.Source, in.RotReg, in.Ms, in.Me)

	default:
		return fmt.Sprintf("%T", inst), ""
	}
}

func rc(mnemonic string, set bool) string {
	if set {
		return mnemonic + "."
	}
	return mnemonic
}

func oe(mnemonic string, set bool) string {
	if set {
		return mnemonic + "o"
	}
	return mnemonic
}
