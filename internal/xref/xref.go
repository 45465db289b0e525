// Package xref builds a cross-reference report of branch and call targets
// discovered during a windowed decode.
package xref

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dolscan/dolscan/internal/ppc32"
)

// ReferenceType indicates how an address is used at a reference site.
type ReferenceType int

const (
	RefBranch ReferenceType = iota // unconditional branch target
	RefCondBranch                  // conditional branch target
	RefCall                        // BL-equivalent (Link=true) call target
)

func (r ReferenceType) String() string {
	switch r {
	case RefBranch:
		return "branch"
	case RefCondBranch:
		return "cond-branch"
	case RefCall:
		return "call"
	default:
		return "unknown"
	}
}

// Reference is one site that refers to a Symbol's address.
type Reference struct {
	Type ReferenceType
	Addr uint32 // address of the referencing instruction
}

// Symbol is one address targeted by at least one branch or call.
type Symbol struct {
	Addr       uint32
	References []Reference
	IsFunction bool // targeted by at least one call (Link=true) reference
	InWindow   bool // the address also appears as a decoded instruction
}

// Generator accumulates references while walking a decoded instruction
// window, then renders them in a separate pass.
type Generator struct {
	symbols map[uint32]*Symbol
}

// NewGenerator creates an empty cross-reference generator.
func NewGenerator() *Generator {
	return &Generator{symbols: make(map[uint32]*Symbol)}
}

// InstrItem is the minimal view of a decoded instruction xref needs; it
// matches analysis.InstrItem's shape without importing that package, since
// xref is meant to stay usable from any walk of an ppc32.Instruction stream.
type InstrItem struct {
	Addr uint32
	Inst ppc32.Instruction
}

// Collect records every branch/call reference found in items, and marks
// which referenced addresses also appear as decoded instructions in items.
func (g *Generator) Collect(items []InstrItem) {
	inWindow := make(map[uint32]bool, len(items))
	for _, item := range items {
		inWindow[item.Addr] = true
	}

	for _, item := range items {
		switch in := item.Inst.(type) {
		case ppc32.Branch:
			target, ok := ppc32.BranchTarget(item.Addr, in)
			if !ok {
				continue
			}
			refType := RefBranch
			if in.Link {
				refType = RefCall
			}
			g.addReference(target, refType, item.Addr)

		case ppc32.Bc:
			target, ok := ppc32.BranchTarget(item.Addr, in)
			if !ok {
				continue
			}
			refType := RefCondBranch
			if in.Link {
				refType = RefCall
			}
			g.addReference(target, refType, item.Addr)
		}
	}

	for addr, sym := range g.symbols {
		sym.InWindow = inWindow[addr]
	}
}

func (g *Generator) addReference(target uint32, refType ReferenceType, from uint32) {
	sym, ok := g.symbols[target]
	if !ok {
		sym = &Symbol{Addr: target}
		g.symbols[target] = sym
	}
	sym.References = append(sym.References, Reference{Type: refType, Addr: from})
	if refType == RefCall {
		sym.IsFunction = true
	}
}

// Symbols returns every discovered symbol, sorted by address.
func (g *Generator) Symbols() []*Symbol {
	out := make([]*Symbol, 0, len(g.symbols))
	for _, sym := range g.symbols {
		out = append(out, sym)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Addr < out[j].Addr })
	return out
}

// Report renders a text cross-reference report with a name-then-
// indented-detail layout.
func Report(symbols []*Symbol) string {
	var sb strings.Builder

	sb.WriteString("Cross-Reference\n")
	sb.WriteString("===============\n\n")

	functionCount := 0
	externalCount := 0

	for _, sym := range symbols {
		sb.WriteString(fmt.Sprintf("0x%08X", sym.Addr))
		switch {
		case sym.IsFunction:
			sb.WriteString(" [function]")
			functionCount++
		case !sym.InWindow:
			sb.WriteString(" [external]")
			externalCount++
		default:
			sb.WriteString(" [label]")
		}
		sb.WriteString("\n")

		refsByType := make(map[ReferenceType][]Reference)
		for _, ref := range sym.References {
			refsByType[ref.Type] = append(refsByType[ref.Type], ref)
		}
		for _, refType := range []ReferenceType{RefCall, RefBranch, RefCondBranch} {
			refs := refsByType[refType]
			if len(refs) == 0 {
				continue
			}
			addrs := make([]string, len(refs))
			for i, ref := range refs {
				addrs[i] = fmt.Sprintf("0x%08X", ref.Addr)
			}
			sb.WriteString(fmt.Sprintf("  %-11s: %s\n", refType.String(), strings.Join(addrs, ", ")))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Summary\n")
	sb.WriteString("=======\n")
	sb.WriteString(fmt.Sprintf("Total targets: %d\n", len(symbols)))
	sb.WriteString(fmt.Sprintf("Functions:     %d\n", functionCount))
	sb.WriteString(fmt.Sprintf("External:      %d\n", externalCount))

	return sb.String()
}
