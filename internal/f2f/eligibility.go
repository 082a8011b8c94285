package f2f

import (
	"math"

	"github.com/pogliamarci/llvm-float-range/internal/ir"
	"github.com/pogliamarci/llvm-float-range/internal/precision"
	"github.com/pogliamarci/llvm-float-range/internal/rangeanalysis"
)

// rangeOk reports whether r fits within a signed integer of integerBits bits
// without truncation.
func rangeOk(r rangeanalysis.Range, integerBits uint64) bool {
	if !r.IsValid() {
		return false
	}
	limit := math.Pow(2, float64(integerBits)-1)
	return -r.Min < limit && r.Max < limit
}

// okToConvert decides whether inst may be rewritten to fixed point, following
// one of two eligibility rules.
//
// Precision-guided mode requires the function's equivalent bit width to meet
// the configured threshold, and then accepts any FCmp whose both operand
// ranges are known, or any other instruction whose own range is not Top.
// Note Bottom/unreachable instructions are accepted too, not just bounded
// ones.
//
// Unchecked mode never accepts FCmp at all, and otherwise requires the
// instruction's own range and every operand's range to fit the configured
// integer width. It is a debug aid: it trades the precision guarantee for a
// direct headroom check against the forced decimal width.
func okToConvert(inst *ir.Instruction, usePrecisionAnalysis bool, decimalBitWidth uint64, cfg Config, fia *rangeanalysis.Analysis, pea *precision.Analysis) bool {
	if usePrecisionAnalysis {
		beq, ok := pea.EquivalentBitwidth()
		if !ok || beq < cfg.DecimalPrecision {
			return false
		}
		if inst.Op == ir.OpFCmp {
			return fia.Range(inst.Operands[0]).IsValid() && fia.Range(inst.Operands[1]).IsValid()
		}
		return !fia.Range(inst).IsTop()
	}

	if inst.Op == ir.OpFCmp {
		return false
	}
	if 2*decimalBitWidth >= precision.WordLength {
		return false
	}
	integerBits := precision.WordLength - 2*decimalBitWidth
	if !rangeOk(fia.Range(inst), integerBits) {
		return false
	}
	for _, op := range inst.AllOperands() {
		if !rangeOk(fia.Range(op), integerBits) {
			return false
		}
	}
	return true
}
