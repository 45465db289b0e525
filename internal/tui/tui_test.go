package tui

import (
	"strings"
	"testing"

	"github.com/dolscan/dolscan/internal/analysis"
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

func TestNewPopulatesInstructionsAndSignature(t *testing.T) {
	// or r4,r3,r3 ; blr
	buf := be(0x7c641b78, 0x4e800020)
	rng := window.AddrRange{Start: 0x80000000, End: window.Unbounded}

	f, err := analysis.Decode(buf, rng)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	sig := analysis.RunAndReconstruct(f)
	arena := value.NewArena()
	results := f.Run(arena)

	ui := New(f, results, sig)

	if ui.InstructionsView.GetRowCount() != 3 { // header + 2 instructions
		t.Errorf("expected 3 rows, got %d", ui.InstructionsView.GetRowCount())
	}
	if !strings.Contains(ui.SignatureView.GetText(false), "Has return: false") {
		t.Errorf("expected signature text to report no return, got: %s", ui.SignatureView.GetText(false))
	}
}

func TestUpdateStateViewShowsEntryParameters(t *testing.T) {
	buf := be(0x7c641b78, 0x4e800020)
	rng := window.AddrRange{Start: 0x80000000, End: window.Unbounded}

	f, err := analysis.Decode(buf, rng)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	sig := analysis.RunAndReconstruct(f)
	arena := value.NewArena()
	results := f.Run(arena)

	ui := New(f, results, sig)
	ui.updateStateView(0)

	text := ui.StateView.GetText(false)
	if !strings.Contains(text, "r3  = param0") {
		t.Errorf("expected entry state to show r3 as param0, got:\n%s", text)
	}
}
