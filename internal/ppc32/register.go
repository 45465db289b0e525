package ppc32

import "fmt"

// Gpr identifies one of the 32 general-purpose registers.
type Gpr uint8

func (g Gpr) String() string { return fmt.Sprintf("r%d", uint8(g)) }

// SprKind enumerates the special-purpose registers this analyzer recognizes.
type SprKind uint8

const (
	SprXer SprKind = iota
	SprLr
	SprCtr
	SprOther
)

// Spr is a decoded special-purpose register reference. For SprOther, Code
// carries the raw 10-bit SPR encoding.
type Spr struct {
	Kind SprKind
	Code uint16
}

func (s Spr) String() string {
	switch s.Kind {
	case SprXer:
		return "xer"
	case SprLr:
		return "lr"
	case SprCtr:
		return "ctr"
	default:
		return fmt.Sprintf("spr(%d)", s.Code)
	}
}

// sprFromWord combines the two 5-bit SPR fields as the ISA requires:
// low bits <11,15>, high bits <16,20>, combined low | (high << 5).
func sprFromWord(low, high uint16) Spr {
	code := low | (high << 5)
	switch code {
	case 1:
		return Spr{Kind: SprXer}
	case 8:
		return Spr{Kind: SprLr}
	case 9:
		return Spr{Kind: SprCtr}
	default:
		return Spr{Kind: SprOther, Code: code}
	}
}

// TimeBaseRegister enumerates the two halves of the PowerPC time base.
type TimeBaseRegister uint8

const (
	Tbu TimeBaseRegister = iota // upper time base
	Tbl                         // lower time base
)

func (t TimeBaseRegister) String() string {
	if t == Tbu {
		return "tbu"
	}
	return "tbl"
}

// tbrFromWord decodes the TBR field using the same low|high<<5 layout as SPRs.
func tbrFromWord(low, high uint16) (TimeBaseRegister, error) {
	switch code := low | (high << 5); code {
	case 268:
		return Tbu, nil
	case 269:
		return Tbl, nil
	default:
		return 0, fmt.Errorf("ppc32: invalid time base register code %d", code)
	}
}

// AddressingMode distinguishes absolute from PC-relative branch targets.
type AddressingMode uint8

const (
	Relative AddressingMode = iota
	Absolute
)

func addressingModeFromBit(bit uint32) AddressingMode {
	if bit != 0 {
		return Absolute
	}
	return Relative
}

// ComputeBranchTarget resolves a decoded branch displacement/target against
// the instruction's own address.
func ComputeBranchTarget(instrAddr uint32, mode AddressingMode, target int32) uint32 {
	if mode == Absolute {
		return uint32(target)
	}
	return uint32(int64(instrAddr) + int64(target))
}

// BranchOptions is the abstract classification of the 5-bit BO field,
// derived by the priority-ordered mask tests in the ISA reference.
type BranchOptions uint8

const (
	DecCTRBranchIfFalse BranchOptions = iota
	BranchIfFalse
	DecCTRBranchIfTrue
	BranchIfTrue
	DecCTRBranchIfNotZero
	DecCTRBranchIfZero
	BranchAlways
)

func (b BranchOptions) String() string {
	switch b {
	case DecCTRBranchIfFalse:
		return "dec_ctr_branch_if_false"
	case BranchIfFalse:
		return "branch_if_false"
	case DecCTRBranchIfTrue:
		return "dec_ctr_branch_if_true"
	case BranchIfTrue:
		return "branch_if_true"
	case DecCTRBranchIfNotZero:
		return "dec_ctr_branch_if_not_zero"
	case DecCTRBranchIfZero:
		return "dec_ctr_branch_if_zero"
	default:
		return "branch_always"
	}
}

// branchOptionsFromWord decodes the BO field (bits 6..10) by the priority
// order given in the ISA reference. The final case asserts mask&0b10100 ==
// 0b10100 and panics otherwise, matching the original decoder's hard
// assertion on an invalid BO operand.
func branchOptionsFromWord(mask uint8) BranchOptions {
	switch {
	case mask&0b11110 == 0b00000, mask&0b11110 == 0b00010:
		return DecCTRBranchIfFalse
	case mask&0b11100 == 0b00100:
		return BranchIfFalse
	case mask&0b11110 == 0b01000, mask&0b11110 == 0b01010:
		return DecCTRBranchIfTrue
	case mask&0b11100 == 0b01100:
		return BranchIfTrue
	case mask&0b10110 == 0b10000:
		return DecCTRBranchIfNotZero
	case mask&0b10110 == 0b10010:
		return DecCTRBranchIfZero
	default:
		if mask&0b10100 != 0b10100 {
			panic(fmt.Sprintf("ppc32: invalid BO operand %#b", mask))
		}
		return BranchAlways
	}
}
