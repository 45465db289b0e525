package xref

import (
	"strings"
	"testing"

	"github.com/dolscan/dolscan/internal/ppc32"
)

func TestCollect_CallReference(t *testing.T) {
	items := []InstrItem{
		{Addr: 0x80001000, Inst: ppc32.Branch{Target: 0x100, Mode: ppc32.Relative, Link: true}},
		{Addr: 0x80001004, Inst: ppc32.Bclr{Bo: ppc32.BranchAlways, Link: false}},
	}

	g := NewGenerator()
	g.Collect(items)

	symbols := g.Symbols()
	if len(symbols) != 1 {
		t.Fatalf("expected 1 symbol, got %d", len(symbols))
	}

	sym := symbols[0]
	if sym.Addr != 0x80001100 {
		t.Errorf("expected target 0x80001100, got 0x%X", sym.Addr)
	}
	if !sym.IsFunction {
		t.Error("expected Link=true reference to mark a function")
	}
	if sym.InWindow {
		t.Error("target address was never decoded, should not be InWindow")
	}
	if len(sym.References) != 1 || sym.References[0].Type != RefCall {
		t.Errorf("expected one RefCall reference, got %+v", sym.References)
	}
}

func TestCollect_ConditionalBranchWithinWindow(t *testing.T) {
	items := []InstrItem{
		{Addr: 0x80001000, Inst: ppc32.Bc{Bo: ppc32.BranchAlways, Target: 8, Mode: ppc32.Relative}},
		{Addr: 0x80001004, Inst: ppc32.Addi{Dest: 3, Source: 0, Imm: 1}},
		{Addr: 0x80001008, Inst: ppc32.Bclr{Bo: ppc32.BranchAlways}},
	}

	g := NewGenerator()
	g.Collect(items)

	symbols := g.Symbols()
	if len(symbols) != 1 {
		t.Fatalf("expected 1 symbol, got %d", len(symbols))
	}
	if symbols[0].Addr != 0x80001008 {
		t.Errorf("expected target 0x80001008, got 0x%X", symbols[0].Addr)
	}
	if !symbols[0].InWindow {
		t.Error("expected target decoded within the window to be InWindow")
	}
	if symbols[0].IsFunction {
		t.Error("unlinked conditional branch should not mark a function")
	}
}

func TestReport_ListsFunctionsAndSummary(t *testing.T) {
	items := []InstrItem{
		{Addr: 0x80001000, Inst: ppc32.Branch{Target: 0x100, Mode: ppc32.Relative, Link: true}},
	}
	g := NewGenerator()
	g.Collect(items)

	report := Report(g.Symbols())
	if !strings.Contains(report, "0x80001100") {
		t.Errorf("expected target address in report, got:\n%s", report)
	}
	if !strings.Contains(report, "[function]") {
		t.Errorf("expected function tag in report, got:\n%s", report)
	}
	if !strings.Contains(report, "Functions:     1") {
		t.Errorf("expected function count summary line, got:\n%s", report)
	}
}
