// Package window wraps the raw ppc32 decoder with an address range and a
// heuristic that guesses where a function body ends.
package window

import (
	"github.com/dolscan/dolscan/internal/ppc32"
)

// RangeEnd is either unbounded or a fixed end address.
type RangeEnd struct {
	bounded bool
	end     uint32
}

// Unbounded is a RangeEnd with no fixed end.
var Unbounded = RangeEnd{}

// Bounded returns a RangeEnd that stops at end (exclusive).
func Bounded(end uint32) RangeEnd { return RangeEnd{bounded: true, end: end} }

// IsBounded reports whether this RangeEnd has a fixed end address.
func (r RangeEnd) IsBounded() bool { return r.bounded }

// End returns the fixed end address; only meaningful when IsBounded().
func (r RangeEnd) End() uint32 { return r.end }

// AddrRange identifies a starting address and how far decoding may run.
type AddrRange struct {
	Start uint32
	End   RangeEnd
}

type conditionalRange struct {
	lo, hi uint32 // [lo, hi)
}

func (c conditionalRange) contains(addr uint32) bool {
	return addr >= c.lo && addr < c.hi
}

// Decoder wraps a ppc32.Decoder with a bound and the function-end heuristic
// described for the windowed instruction stream: an unconditional return or
// jump reached from outside every conditional forward-branch interval seen
// so far is taken to be the end of the function body.
type Decoder struct {
	decoder           *ppc32.Decoder
	rng               AddrRange
	conditionalRanges []conditionalRange
	reachedEnd        bool
}

// NewDecoder constructs a windowed decoder over buffer, addressed starting
// at rng.Start.
func NewDecoder(buffer []byte, rng AddrRange) *Decoder {
	return &Decoder{
		decoder: ppc32.NewDecoder(buffer),
		rng:     rng,
	}
}

// NextInstructionWithOffset decodes the next instruction, returning its
// absolute address and the decoded instruction. ok is false when the window
// has ended (bound reached or heuristic fired), with err nil in that case.
func (d *Decoder) NextInstructionWithOffset() (addr uint32, inst ppc32.Instruction, ok bool, err error) {
	offset := d.decoder.Offset()
	instrAddr := d.rng.Start + offset

	if d.rng.End.IsBounded() && instrAddr >= d.rng.End.End() {
		return 0, nil, false, nil
	}
	if d.reachedEnd {
		return 0, nil, false, nil
	}

	instruction, decErr := d.decoder.DecodeInstruction()
	if decErr != nil {
		return 0, nil, false, decErr
	}

	if bc, isBc := instruction.(ppc32.Bc); isBc && !bc.Link && bc.Bo != ppc32.BranchAlways {
		target := ppc32.ComputeBranchTarget(instrAddr, bc.Mode, bc.Target)
		d.conditionalRanges = append(d.conditionalRanges, conditionalRange{lo: instrAddr, hi: target})
	}

	isUnconditionalReturn := false
	if bclr, isBclr := instruction.(ppc32.Bclr); isBclr && bclr.Bo == ppc32.BranchAlways && !bclr.Link {
		isUnconditionalReturn = true
	}
	if br, isBranch := instruction.(ppc32.Branch); isBranch && !br.Link {
		isUnconditionalReturn = true
	}

	if isUnconditionalReturn && !d.rng.End.IsBounded() {
		outsideAll := true
		for _, cr := range d.conditionalRanges {
			if cr.contains(instrAddr) {
				outsideAll = false
				break
			}
		}
		if outsideAll {
			d.reachedEnd = true
		}
	}

	return instrAddr, instruction, true, nil
}
