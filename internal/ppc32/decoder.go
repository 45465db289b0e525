package ppc32

import (
	"encoding/binary"
	"fmt"

	"github.com/dolscan/dolscan/internal/word"
)

// DecodeError is returned by Decoder.DecodeInstruction.
type DecodeError struct {
	// Kind distinguishes an unknown opcode from running out of bytes.
	Kind   DecodeErrorKind
	Word   word.Word
	Offset uint32
}

type DecodeErrorKind uint8

const (
	ErrUnhandledOpcode DecodeErrorKind = iota
	ErrUnexpectedEof
)

func (e *DecodeError) Error() string {
	switch e.Kind {
	case ErrUnexpectedEof:
		return fmt.Sprintf("ppc32: unexpected eof at offset %#x", e.Offset)
	default:
		return fmt.Sprintf("ppc32: unhandled opcode %#08x at offset %#x", uint32(e.Word), e.Offset)
	}
}

// Decoder decodes a stream of PowerPC instructions from a byte slice.
type Decoder struct {
	input  []byte
	offset uint32
}

// NewDecoder creates a decoder over input, starting at offset 0.
func NewDecoder(input []byte) *Decoder {
	return &Decoder{input: input}
}

// Offset returns the number of bytes consumed so far.
func (d *Decoder) Offset() uint32 { return d.offset }

func (d *Decoder) nextWord() (word.Word, bool) {
	if len(d.input) < 4 {
		return 0, false
	}
	w := word.Word(binary.BigEndian.Uint32(d.input[:4]))
	d.input = d.input[4:]
	d.offset += 4
	return w, true
}

// DecodeInstruction decodes the next instruction from the stream.
func (d *Decoder) DecodeInstruction() (Instruction, error) {
	w, ok := d.nextWord()
	if !ok {
		return nil, &DecodeError{Kind: ErrUnexpectedEof, Offset: d.offset}
	}
	return decodeFromWord(w, d.offset-4)
}

const extendedOpcode = 0b011111

// decodeFromWord dispatches on (primary, extended) exactly as the ISA
// table in spec.md §4.2 specifies. Variants that only declare a primary
// opcode ignore the extended field; the reserved primary 0b011111 is the
// gateway for every extended-opcode variant and has no bare-primary rule.
func decodeFromWord(w word.Word, offset uint32) (Instruction, error) {
	primary := w.Opcode()
	extended := w.ExtendedOpcode()

	switch primary {
	case 0b010010:
		return Branch{
			Target: w.I32(6, 29) << 2,
			Mode:   addressingModeFromBit(w.Bit(30)),
			Link:   w.Bit(31) != 0,
		}, nil
	case 0b010000:
		return Bc{
			Bo:     branchOptionsFromWord(w.U8(6, 10)),
			Bi:     w.I8(11, 15),
			Target: w.I32(16, 29) << 2,
			Mode:   addressingModeFromBit(w.Bit(30)),
			Link:   w.Bit(31) != 0,
		}, nil
	case 0b001110:
		return Addi{
			Dest:   Gpr(w.U8(6, 10)),
			Source: Gpr(w.U8(11, 15)),
			Imm:    w.I16(16, 31),
		}, nil
	case 0b001111:
		return decodeAddis(w), nil
	case 0b011000:
		return Ori{
			Source: Gpr(w.U8(6, 10)),
			Dest:   Gpr(w.U8(11, 15)),
			Imm:    w.U16(16, 31),
		}, nil
	case 0b011001:
		return Oris{
			Source: Gpr(w.U8(6, 10)),
			Dest:   Gpr(w.U8(11, 15)),
			Imm:    w.U16(16, 31),
		}, nil
	case 0b001011:
		return Cmpi{
			Crf:    w.U8(6, 8),
			L:      w.Bit(10) != 0,
			Source: Gpr(w.U8(11, 15)),
			Imm:    w.U16(16, 31),
		}, nil
	case 0b001010:
		return Cmpli{
			Crf:    w.U8(6, 8),
			L:      w.Bit(10) != 0,
			Source: Gpr(w.U8(11, 15)),
			Imm:    w.U16(16, 31),
		}, nil
	case 0b010101:
		return Rlwinm{
			Source: Gpr(w.U8(6, 10)),
			Dest:   Gpr(w.U8(11, 15)),
			Rot:    w.U8(16, 20),
			Ms:     w.U8(21, 25),
			Me:     w.U8(26, 30),
			Rc:     w.Bit(31) != 0,
		}, nil
	case 0b010111:
		return Rlwnm{
			Source: Gpr(w.U8(6, 10)),
			Dest:   Gpr(w.U8(11, 15)),
			RotReg: Gpr(w.U8(16, 20)),
			Ms:     w.U8(21, 25),
			Me:     w.U8(26, 30),
			Rc:     w.Bit(31) != 0,
		}, nil
	case 0b100100:
		return Stw{Source: Gpr(w.U8(6, 10)), Dest: Gpr(w.U8(11, 15)), Imm: w.I16(16, 31)}, nil
	case 0b100101:
		return Stwu{Source: Gpr(w.U8(6, 10)), Dest: Gpr(w.U8(11, 15)), Imm: w.I16(16, 31)}, nil
	case 0b101111:
		return Stmw{Source: Gpr(w.U8(6, 10)), Dest: Gpr(w.U8(11, 15)), Imm: w.I16(16, 31)}, nil
	case 0b100000:
		return Lwz{Dest: Gpr(w.U8(6, 10)), Source: Gpr(w.U8(11, 15)), Imm: w.I16(16, 31)}, nil
	case 0b100001:
		return Lwzu{Dest: Gpr(w.U8(6, 10)), Source: Gpr(w.U8(11, 15)), Imm: w.I16(16, 31)}, nil
	case 0b101000:
		return Lhz{Dest: Gpr(w.U8(6, 10)), Source: Gpr(w.U8(11, 15)), Imm: w.I16(16, 31)}, nil
	case 0b100010:
		return Lbz{Dest: Gpr(w.U8(6, 10)), Source: Gpr(w.U8(11, 15)), Imm: w.I16(16, 31)}, nil
	case 0b101110:
		return Lmw{Dest: Gpr(w.U8(6, 10)), Source: Gpr(w.U8(11, 15)), Imm: w.I16(16, 31)}, nil
	case 0b010011:
		// Primary 19 is shared by three extended-opcode variants.
		switch extended {
		case 0b010000:
			return Bclr{
				Bo:   branchOptionsFromWord(w.U8(6, 10)),
				Bi:   w.I8(11, 15),
				Link: w.Bit(31) != 0,
			}, nil
		case 0b11000001:
			return Crxor{CrbDest: w.U8(6, 10), CrbA: w.U8(11, 15), CrbB: w.U8(16, 20)}, nil
		case 0b10010110:
			return Isync{}, nil
		}
	case 0b111111:
		if extended == 0b100110 {
			return Mtfsb1{Crf: w.U8(6, 10), Rc: w.Bit(31) != 0}, nil
		}
	case extendedOpcode:
		if inst, ok := decodeExtended(w, extended); ok {
			return inst, nil
		}
	}

	return nil, &DecodeError{Kind: ErrUnhandledOpcode, Word: w, Offset: offset}
}

func decodeAddis(w word.Word) Instruction {
	var add *Gpr
	if r := w.U8(11, 15); r != 0 {
		g := Gpr(r)
		add = &g
	}
	return Addis{
		Dest: Gpr(w.U8(6, 10)),
		Add:  add,
		Imm:  w.I16(16, 31),
	}
}

// decodeExtended dispatches the second-level table gated by primary opcode
// 0b011111 (the only primary that is itself a pure gateway: it has no
// bare-primary rule of its own, see spec.md §4.2).
func decodeExtended(w word.Word, extended uint32) (Instruction, bool) {
	switch extended {
	case 0:
		return Cmp{Crf: w.U8(6, 8), L: w.Bit(10) != 0, A: Gpr(w.U8(11, 15)), B: Gpr(w.U8(16, 20))}, true
	case 0b100000:
		return Cmpl{Crf: w.U8(6, 8), L: w.Bit(10) != 0, A: Gpr(w.U8(11, 15)), B: Gpr(w.U8(16, 20))}, true
	case 0b10110111:
		return Stwux{Source: Gpr(w.U8(6, 10)), Dest: Gpr(w.U8(11, 15)), Index: Gpr(w.U8(16, 20))}, true
	case 0b101000:
		return Subf{
			Dest: Gpr(w.U8(6, 10)), B: Gpr(w.U8(11, 15)), A: Gpr(w.U8(16, 20)),
			Oe: w.Bit(21) != 0, Rc: w.Bit(31) != 0,
		}, true
	case 0b100001010:
		return Add{
			Dest: Gpr(w.U8(6, 10)), A: Gpr(w.U8(11, 15)), B: Gpr(w.U8(16, 20)),
			Oe: w.Bit(21) != 0, Rc: w.Bit(31) != 0,
		}, true
	case 0b1101000:
		return Neg{Dest: Gpr(w.U8(6, 10)), Source: Gpr(w.U8(11, 15)), Oe: w.Bit(21) != 0, Rc: w.Bit(31) != 0}, true
	case 0b110111100:
		return Or{Source: Gpr(w.U8(6, 10)), Dest: Gpr(w.U8(11, 15)), OrWith: Gpr(w.U8(16, 20)), Rc: w.Bit(31) != 0}, true
	case 0b11100:
		return And{Source1: Gpr(w.U8(6, 10)), Dest: Gpr(w.U8(11, 15)), Source2: Gpr(w.U8(16, 20))}, true
	case 0b101010011:
		return Mfspr{Dest: Gpr(w.U8(6, 10)), Spr: sprFromWord(w.U16(11, 15), w.U16(16, 20))}, true
	case 0b111010011:
		return Mtspr{Source: Gpr(w.U8(6, 10)), Spr: sprFromWord(w.U16(11, 15), w.U16(16, 20))}, true
	case 0b1010011:
		return Mfmsr{Dest: Gpr(w.U8(6, 10))}, true
	case 0b10010010:
		return Mtmsr{Source: Gpr(w.U8(6, 10))}, true
	case 0b101110011:
		tbr, err := tbrFromWord(w.U16(11, 15), w.U16(16, 20))
		if err != nil {
			panic(err) // matches the original decoder's hard failure on an invalid TBR code
		}
		return Mftb{Dest: Gpr(w.U8(6, 10)), Tbr: tbr}, true
	case 0b1001010110:
		return Hwsync{}, true
	default:
		return nil, false
	}
}
