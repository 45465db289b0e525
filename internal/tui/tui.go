// Package tui is a read-only terminal browser for one function's decoded
// instructions and dataflow results.
package tui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/dolscan/dolscan/internal/analysis"
	"github.com/dolscan/dolscan/internal/dataflow"
	"github.com/dolscan/dolscan/internal/disasmfmt"
	"github.com/dolscan/dolscan/internal/ppc32"
	"github.com/dolscan/dolscan/internal/value"
)

// TUI is the inspector's text user interface: an instruction list on the
// left, the selected instruction's abstract state and the reconstructed
// signature on the right. There is no live execution to step, so there are
// no breakpoints, watchpoints, or a command line — only a cursor over a
// fixed result.
type TUI struct {
	App   *tview.Application
	Pages *tview.Pages

	MainLayout *tview.Flex

	InstructionsView *tview.Table
	StateView        *tview.TextView
	SignatureView    *tview.TextView

	function  *analysis.Function
	results   *dataflow.Results[int, analysis.BlockState, analysis.InstrItem]
	signature analysis.Signature

	selected int
}

// New builds the inspector over one analyzed function.
func New(f *analysis.Function, results *dataflow.Results[int, analysis.BlockState, analysis.InstrItem], sig analysis.Signature) *TUI {
	t := &TUI{
		App:       tview.NewApplication(),
		function:  f,
		results:   results,
		signature: sig,
	}

	t.initializeViews()
	t.buildLayout()
	t.setupKeyBindings()
	t.populateInstructions()

	return t
}

func (t *TUI) initializeViews() {
	t.InstructionsView = tview.NewTable().SetSelectable(true, false).SetFixed(1, 0)
	t.InstructionsView.SetBorder(true).SetTitle(" Instructions ")

	t.StateView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	t.StateView.SetBorder(true).SetTitle(" Block State ")

	t.SignatureView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	t.SignatureView.SetBorder(true).SetTitle(" Signature ")
}

func (t *TUI) buildLayout() {
	rightPanel := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.SignatureView, 4, 0, false).
		AddItem(t.StateView, 0, 1, false)

	t.MainLayout = tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(t.InstructionsView, 0, 2, true).
		AddItem(rightPanel, 0, 1, false)

	t.Pages = tview.NewPages().AddPage("main", t.MainLayout, true, true)
}

func (t *TUI) setupKeyBindings() {
	t.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlC:
			t.App.Stop()
			return nil
		case tcell.KeyEscape:
			t.App.Stop()
			return nil
		}
		if event.Rune() == 'q' {
			t.App.Stop()
			return nil
		}
		return event
	})

	t.InstructionsView.SetSelectionChangedFunc(func(row, col int) {
		idx := row - 1 // header occupies row 0
		if idx < 0 || idx >= len(t.function.Instrs) {
			return
		}
		t.selected = idx
		t.updateStateView(idx)
	})
}

func (t *TUI) populateInstructions() {
	t.InstructionsView.SetCell(0, 0, tview.NewTableCell("Addr").SetSelectable(false))
	t.InstructionsView.SetCell(0, 1, tview.NewTableCell("Instruction").SetSelectable(false))

	for i, item := range t.function.Instrs {
		line := disasmfmt.Line(item.Addr, item.Inst, disasmfmt.DefaultOptions())
		parts := strings.SplitN(line, ": ", 2)
		text := line
		if len(parts) == 2 {
			text = parts[1]
		}
		t.InstructionsView.SetCell(i+1, 0, tview.NewTableCell(fmt.Sprintf("0x%08X", item.Addr)))
		t.InstructionsView.SetCell(i+1, 1, tview.NewTableCell(text))
	}

	t.updateSignatureView()
	if len(t.function.Instrs) > 0 {
		t.InstructionsView.Select(1, 0)
	}
}

func (t *TUI) updateSignatureView() {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Parameters: %v\n", t.signature.Parameters)
	fmt.Fprintf(&sb, "Has return: %v\n", t.signature.HasReturn)
	t.SignatureView.SetText(sb.String())
}

// updateStateView renders the GPR, LR and CTR state in effect entering
// instruction idx (the replayed entry state, not a post-effect snapshot).
func (t *TUI) updateStateView(idx int) {
	t.StateView.Clear()

	state, ok := t.results.EntryState(idx)
	if !ok && idx == 0 {
		state, ok = analysis.InitialState(), true
	} else if !ok {
		t.results.ForEachWithInput(func(i int, _ analysis.InstrItem, s analysis.BlockState) {
			if i == idx-1 {
				state, ok = analysis.Clone(s), true
			}
		})
	}
	if !ok {
		t.StateView.SetText("[yellow]No recorded entry state for this instruction[white]")
		return
	}

	var lines []string
	for r := 0; r < 32; r++ {
		v := state.GPR(ppc32.Gpr(r))
		if !value.IsInitialized(v) {
			continue
		}
		lines = append(lines, fmt.Sprintf("r%-2d = %s", r, value.Describe(v)))
	}

	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("lr  = %s", value.Describe(state.LR())))
	lines = append(lines, fmt.Sprintf("ctr = %s", value.Describe(state.CTR())))

	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("diverging = %v", state.Diverging()))

	t.StateView.SetText(strings.Join(lines, "\n"))
}

// Run starts the inspector's event loop.
func (t *TUI) Run() error {
	return t.App.SetRoot(t.Pages, true).SetFocus(t.InstructionsView).Run()
}

// Stop stops the inspector.
func (t *TUI) Stop() {
	t.App.Stop()
}
