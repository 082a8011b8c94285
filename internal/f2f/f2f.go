package f2f

import (
	"github.com/pogliamarci/llvm-float-range/internal/ir"
	"github.com/pogliamarci/llvm-float-range/internal/precision"
	"github.com/pogliamarci/llvm-float-range/internal/rangeanalysis"
)

// Result is what running the pass over one function produced.
type Result struct {
	Stats    Stats
	Warnings []string
	Changed  bool
	// Converted marks the instructions that now produce fixed-point values,
	// for conversion reports.
	Converted map[*ir.Instruction]bool
}

// Run converts fn's eligible floating-point instructions to fixed point,
// given its already-computed range and precision analyses.
func Run(fn *ir.Function, fia *rangeanalysis.Analysis, pea *precision.Analysis, cfg Config) (*Result, error) {
	decimalBitWidth := precision.InternalDecimalBitWidth(fia, fn)
	usePrecisionAnalysis := true
	if cfg.InternalBitWidth <= precision.WordLength {
		decimalBitWidth = cfg.InternalBitWidth
		usePrecisionAnalysis = false
	}

	conv := newConverter(decimalBitWidth)
	changed := false
	for _, inst := range fn.Instructions() {
		if conv.converted[inst] {
			continue
		}
		if !okToConvert(inst, usePrecisionAnalysis, decimalBitWidth, cfg, fia, pea) {
			continue
		}
		if err := conv.convert(inst); err != nil {
			return nil, err
		}
		changed = true
	}

	dt := ir.NewDominatorTree(fn)
	warnings := conv.reconvertOperands(fn, dt)

	return &Result{Stats: conv.stats, Warnings: warnings, Changed: changed, Converted: conv.converted}, nil
}
