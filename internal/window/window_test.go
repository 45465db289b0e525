package window_test

import (
	"testing"

	"github.com/dolscan/dolscan/internal/ppc32"
	"github.com/dolscan/dolscan/internal/window"
)

func be(words ...uint32) []byte {
	out := make([]byte, 0, len(words)*4)
	for _, w := range words {
		out = append(out, byte(w>>24), byte(w>>16), byte(w>>8), byte(w))
	}
	return out
}

func TestUnconditionalReturnTerminatesWindow(t *testing.T) {
	// addi r3,r0,1 ; stw r3,0(r1) ; blr ; <garbage>
	buf := be(
		0x38600001, // addi r3,r0,1
		0x90610000, // stw r3,0(r1)
		0x4E800020, // blr (bclr, bo=20=0b10100 -> BranchAlways, link=false)
		0xFFFFFFFF, // garbage, never reached
	)
	d := window.NewDecoder(buf, window.AddrRange{Start: 0x80000000, End: window.Unbounded})

	count := 0
	for {
		_, _, ok, err := d.NextInstructionWithOffset()
		if err != nil {
			t.Fatalf("unexpected decode error: %v", err)
		}
		if !ok {
			break
		}
		count++
		if count > 10 {
			t.Fatalf("window did not terminate")
		}
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}
}

func TestConditionalBranchRecordsRange(t *testing.T) {
	// A Bc forward over a blr: the blr inside the conditional range must NOT
	// terminate the window, since it lies inside a recorded interval.
	buf := be(
		0x4082000C, // bc bo=0b00100(4),bi=2,target=0xC -> BranchIfFalse, covers next two words
		0x4E800020, // blr inside conditional range: must not terminate
		0x60000000, // nop
		0x4E800020, // blr outside any conditional range: terminates here
	)
	d := window.NewDecoder(buf, window.AddrRange{Start: 0x80000000, End: window.Unbounded})

	var insts []ppc32.Instruction
	for {
		_, inst, ok, err := d.NextInstructionWithOffset()
		if err != nil {
			t.Fatalf("unexpected decode error: %v", err)
		}
		if !ok {
			break
		}
		insts = append(insts, inst)
		if len(insts) > 10 {
			t.Fatalf("window did not terminate")
		}
	}
	if len(insts) != 4 {
		t.Fatalf("len(insts) = %d, want 4", len(insts))
	}
}

func TestBoundedRangeStopsAtEnd(t *testing.T) {
	buf := be(0x38600001, 0x38600002, 0x38600003)
	d := window.NewDecoder(buf, window.AddrRange{Start: 0x1000, End: window.Bounded(0x1004)})

	count := 0
	for {
		_, _, ok, err := d.NextInstructionWithOffset()
		if err != nil {
			t.Fatalf("unexpected decode error: %v", err)
		}
		if !ok {
			break
		}
		count++
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
}
