package analysis_test

import (
	"testing"

	"github.com/dolscan/dolscan/internal/analysis"
	"github.com/dolscan/dolscan/internal/ppc32"
	"github.com/dolscan/dolscan/internal/value"
	"github.com/dolscan/dolscan/internal/window"
)

func be(words ...uint32) []byte {
	out := make([]byte, 0, len(words)*4)
	for _, w := range words {
		out = append(out, byte(w>>24), byte(w>>16), byte(w>>8), byte(w))
	}
	return out
}

func mustDecode(t *testing.T, buf []byte) *analysis.Function {
	t.Helper()
	f, err := analysis.Decode(buf, window.AddrRange{Start: 0x80000000, End: window.Unbounded})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return f
}

// addi r3,r0,-5 ; blr
func TestAddiTransferFunction(t *testing.T) {
	buf := be(0x3860fffb, 0x4e800020)
	f := mustDecode(t, buf)
	if len(f.Instrs) != 2 {
		t.Fatalf("expected 2 instructions, got %d", len(f.Instrs))
	}

	arena := value.NewArena()
	results := f.Run(arena)

	final := results.ForEachWithInput(func(idx int, item analysis.InstrItem, state analysis.BlockState) {})
	got, ok := final.GPR(3).AsInt()
	if !ok {
		t.Fatalf("r3 is not an int: %+v", final.GPR(3))
	}
	if int16(got.Val) != -5 {
		t.Fatalf("r3 = %#x, want -5", got.Val)
	}
	if !final.Diverging() {
		t.Fatalf("expected diverging state after blr")
	}
}

// or r4,r3,r3 (mr r4,r3) ; blr
func TestParameterInferenceSingleParamNoReturn(t *testing.T) {
	buf := be(0x7c641b78, 0x4e800020)
	f := mustDecode(t, buf)

	arena := value.NewArena()
	results := f.Run(arena)
	sig := analysis.Reconstruct(f, results, arena)

	if sig.ParamCount() != 1 {
		t.Fatalf("ParamCount = %d, want 1 (%+v)", sig.ParamCount(), sig.Parameters)
	}
	if sig.Parameters[0] != 0 {
		t.Fatalf("Parameters = %v, want [0]", sig.Parameters)
	}
	if sig.HasReturn {
		t.Fatalf("expected no return value (r3 was never written with a fresh value)")
	}
}

// stwu r1,-16(r1) ; stw r31,12(r1) ; lwz r31,12(r1) ; addi r1,r1,16 ; blr
func TestStackFrameRoundTrip(t *testing.T) {
	buf := be(0x9421fff0, 0x93e1000c, 0x83e1000c, 0x38210010, 0x4e800020)
	f := mustDecode(t, buf)
	if len(f.Instrs) != 5 {
		t.Fatalf("expected 5 instructions, got %d", len(f.Instrs))
	}

	arena := value.NewArena()
	results := f.Run(arena)

	final := results.ForEachWithInput(func(idx int, item analysis.InstrItem, state analysis.BlockState) {})

	// r1 ends up back at CallerStack: -16 then +16 folds away to the
	// original stack pointer expression.
	if !value.Equal(final.GPR(1), value.CallerStack) {
		t.Fatalf("r1 = %+v, want CallerStack", final.GPR(1))
	}
	if _, ok := final.GPR(31).AsInt(); ok {
		t.Fatalf("r31 should hold Uninitialized (never written before this window), not an int")
	}
	if value.IsInitialized(final.GPR(31)) {
		t.Fatalf("r31 should still be Uninitialized: %+v", final.GPR(31))
	}
}

// A decoded instruction the transfer function does not model (e.g. a bare
// Rlwinm) is a hard failure, per the "any other decoded mnemonic" rule.
func TestUnmodeledInstructionPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic for an unmodeled mnemonic")
		}
	}()

	arena := value.NewArena()
	tr := &analysis.Transfer{Arena: arena}
	f := &analysis.Function{EntryAddr: 0x80000000, Instrs: []analysis.InstrItem{{Addr: 0x80000000, Inst: ppc32.Rlwinm{}}}}
	a := f.Analysis(tr)
	var s analysis.BlockState
	a.ApplyEffect(&s, f.Instrs[0])
}
