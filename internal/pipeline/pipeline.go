// Package pipeline composes the float-range, precision and float-to-fixed
// passes into their three-stage sequence: a small ordered list of named
// passes threaded through shared state.
package pipeline

import (
	"fmt"

	"github.com/pogliamarci/llvm-float-range/internal/f2f"
	"github.com/pogliamarci/llvm-float-range/internal/ir"
	"github.com/pogliamarci/llvm-float-range/internal/precision"
	"github.com/pogliamarci/llvm-float-range/internal/rangeanalysis"
)

// State threads one pass's output to the next.
type State struct {
	DT    *ir.DominatorTree
	Loops *ir.LoopInfo
	SCEV  *ir.ScalarEvolution
	FIA   *rangeanalysis.Analysis
	PEA   *precision.Analysis
	F2F   *f2f.Result
}

// Pass is one stage of the pipeline.
type Pass interface {
	Name() string
	Run(fn *ir.Function, st *State) error
}

// Pipeline runs an ordered list of passes over a single function.
type Pipeline struct {
	passes []Pass
}

// New builds a pipeline from an explicit pass list.
func New(passes ...Pass) *Pipeline { return &Pipeline{passes: passes} }

// Run executes every pass in order, threading state between them. scev
// supplies whatever loop trip counts are known ahead of time; this
// repository has no real scalar-evolution analysis of its own.
func (p *Pipeline) Run(fn *ir.Function, scev *ir.ScalarEvolution) (*State, error) {
	dt := ir.NewDominatorTree(fn)
	st := &State{DT: dt, Loops: ir.NewLoopInfo(fn, dt), SCEV: scev}
	for _, pass := range p.passes {
		if err := pass.Run(fn, st); err != nil {
			return nil, fmt.Errorf("%s: %w", pass.Name(), err)
		}
	}
	return st, nil
}

type rangePass struct{}

func (rangePass) Name() string { return "float-range-analysis" }

func (rangePass) Run(fn *ir.Function, st *State) error {
	a, err := rangeanalysis.Run(fn, st.DT, st.Loops, st.SCEV)
	if err != nil {
		return err
	}
	st.FIA = a
	return nil
}

// precisionPass runs the error analysis. A zero decimalBitWidth means
// "derive it from the range analysis" (precision.InternalDecimalBitWidth);
// a non-zero value overrides it, mirroring the float-to-fixed pass's own
// internal-bit-width override.
type precisionPass struct {
	decimalBitWidth uint64
}

func (precisionPass) Name() string { return "precision-analysis" }

func (p precisionPass) Run(fn *ir.Function, st *State) error {
	d := p.decimalBitWidth
	if d == 0 {
		d = precision.InternalDecimalBitWidth(st.FIA, fn)
	}
	a, err := precision.Run(fn, st.FIA, st.Loops, st.SCEV, d)
	if err != nil {
		return err
	}
	st.PEA = a
	return nil
}

type f2fPass struct {
	cfg f2f.Config
}

func (f2fPass) Name() string { return "float-to-fixed" }

func (p f2fPass) Run(fn *ir.Function, st *State) error {
	res, err := f2f.Run(fn, st.FIA, st.PEA, p.cfg)
	if err != nil {
		return err
	}
	st.F2F = res
	return nil
}

// Standard builds the canonical range -> precision -> float-to-fixed
// sequence.
func Standard(cfg f2f.Config) *Pipeline {
	return New(rangePass{}, precisionPass{}, f2fPass{cfg: cfg})
}
