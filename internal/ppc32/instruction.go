package ppc32

// Instruction is implemented by every decoded PowerPC instruction variant.
// Operand data lives on the concrete struct as typed fields; callers type
// switch on the concrete type (as with go/ast nodes) rather than probing a
// stringly-typed mnemonic/operand list.
type Instruction interface {
	isInstruction()
}

type Branch struct {
	Target int32
	Mode   AddressingMode
	Link   bool
}

type Bc struct {
	Bo     BranchOptions
	Bi     int8
	Target int32
	Mode   AddressingMode
	Link   bool
}

type Bclr struct {
	Bo   BranchOptions
	Bi   int8
	Link bool
}

type Rlwinm struct {
	Source Gpr
	Dest   Gpr
	Rot    uint8
	Ms     uint8
	Me     uint8
	Rc     bool
}

type Rlwnm struct {
	Source Gpr
	Dest   Gpr
	RotReg Gpr
	Ms     uint8
	Me     uint8
	Rc     bool
}

type Addis struct {
	Dest Gpr
	Add  *Gpr // nil when the <11,15> field is zero
	Imm  int16
}

type Addi struct {
	Dest   Gpr
	Source Gpr
	Imm    int16
}

type Ori struct {
	Source Gpr
	Dest   Gpr
	Imm    uint16
}

type Oris struct {
	Source Gpr
	Dest   Gpr
	Imm    uint16
}

type Cmpi struct {
	Crf    uint8
	L      bool
	Source Gpr
	Imm    uint16
}

type Cmpli struct {
	Crf    uint8
	L      bool
	Source Gpr
	Imm    uint16
}

type Cmp struct {
	Crf uint8
	L   bool
	A   Gpr
	B   Gpr
}

type Cmpl struct {
	Crf uint8
	L   bool
	A   Gpr
	B   Gpr
}

type Subf struct {
	Dest   Gpr
	B      Gpr
	A      Gpr
	Oe, Rc bool
}

type Neg struct {
	Dest, Source Gpr
	Oe, Rc       bool
}

type Add struct {
	Dest, A, B Gpr
	Oe, Rc     bool
}

type Or struct {
	Source, Dest, OrWith Gpr
	Rc                   bool
}

type And struct {
	Source1, Dest, Source2 Gpr
}

type Stw struct {
	Source, Dest Gpr
	Imm          int16
}

type Stwu struct {
	Source, Dest Gpr
	Imm          int16
}

type Stwux struct {
	Source, Dest, Index Gpr
}

type Stmw struct {
	Source, Dest Gpr
	Imm          int16
}

type Lwz struct {
	Dest, Source Gpr
	Imm          int16
}

type Lwzu struct {
	Dest, Source Gpr
	Imm          int16
}

type Lhz struct {
	Dest, Source Gpr
	Imm          int16
}

type Lbz struct {
	Dest, Source Gpr
	Imm          int16
}

type Lmw struct {
	Dest, Source Gpr
	Imm          int16
}

type Mfspr struct {
	Dest Gpr
	Spr  Spr
}

type Mtspr struct {
	Source Gpr
	Spr    Spr
}

type Mfmsr struct {
	Dest Gpr
}

type Mtmsr struct {
	Source Gpr
}

type Mftb struct {
	Dest Gpr
	Tbr  TimeBaseRegister
}

type Isync struct{}

type Hwsync struct{}

type Mtfsb1 struct {
	Crf uint8
	Rc  bool
}

type Crxor struct {
	CrbDest, CrbA, CrbB uint8
}

func (Branch) isInstruction()  {}
func (Bc) isInstruction()      {}
func (Bclr) isInstruction()    {}
func (Rlwinm) isInstruction()  {}
func (Rlwnm) isInstruction()   {}
func (Addis) isInstruction()   {}
func (Addi) isInstruction()    {}
func (Ori) isInstruction()     {}
func (Oris) isInstruction()    {}
func (Cmpi) isInstruction()    {}
func (Cmpli) isInstruction()   {}
func (Cmp) isInstruction()     {}
func (Cmpl) isInstruction()    {}
func (Subf) isInstruction()    {}
func (Neg) isInstruction()     {}
func (Add) isInstruction()     {}
func (Or) isInstruction()      {}
func (And) isInstruction()     {}
func (Stw) isInstruction()     {}
func (Stwu) isInstruction()    {}
func (Stwux) isInstruction()   {}
func (Stmw) isInstruction()    {}
func (Lwz) isInstruction()     {}
func (Lwzu) isInstruction()    {}
func (Lhz) isInstruction()     {}
func (Lbz) isInstruction()     {}
func (Lmw) isInstruction()     {}
func (Mfspr) isInstruction()   {}
func (Mtspr) isInstruction()   {}
func (Mfmsr) isInstruction()   {}
func (Mtmsr) isInstruction()   {}
func (Mftb) isInstruction()    {}
func (Isync) isInstruction()   {}
func (Hwsync) isInstruction()  {}
func (Mtfsb1) isInstruction()  {}
func (Crxor) isInstruction()   {}

// BranchTarget returns the resolved absolute target of a Branch or Bc
// instruction decoded at instrAddr, and false for every other variant.
func BranchTarget(instrAddr uint32, inst Instruction) (uint32, bool) {
	switch in := inst.(type) {
	case Branch:
		return ComputeBranchTarget(instrAddr, in.Mode, in.Target), true
	case Bc:
		return ComputeBranchTarget(instrAddr, in.Mode, in.Target), true
	default:
		return 0, false
	}
}
