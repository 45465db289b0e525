package analysis

import (
	"github.com/dolscan/dolscan/internal/dol"
	"github.com/dolscan/dolscan/internal/value"
	"github.com/dolscan/dolscan/internal/window"
)

// Result bundles one function's decoded instructions, fixed-point analysis
// results, and reconstructed signature — everything the CLI, HTTP API, and
// terminal inspector render.
type Result struct {
	Function  *Function
	Signature Signature
}

// AnalyzeDol runs the full decode -> window -> dataflow -> signature
// pipeline over one function body starting at rng.Start within d.
func AnalyzeDol(d *dol.Dol, rng window.AddrRange) (*Result, error) {
	buf, err := d.SliceFromLoadAddr(rng.Start)
	if err != nil {
		return nil, err
	}

	f, err := Decode(buf, rng)
	if err != nil {
		return &Result{Function: f}, err
	}

	sig := RunAndReconstruct(f)
	return &Result{Function: f, Signature: sig}, nil
}

// RunAndReconstruct runs the fixed-point dataflow analysis over f in a
// fresh arena and reconstructs its signature. It is split out from
// AnalyzeDol so a caller that has already decoded (and wants a distinct
// error channel for a decode failure versus an analysis failure, as the
// HTTP API does) can call it directly.
func RunAndReconstruct(f *Function) Signature {
	arena := value.NewArena()
	results := f.Run(arena)
	return Reconstruct(f, results, arena)
}
