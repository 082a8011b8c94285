// Package precision implements the precision/error analysis:
// per-instruction error bounds derived from the range analysis, reduced to a
// single per-function equivalent decimal bit width that the float-to-fixed
// pass uses to decide whether a conversion would be precision-safe.
package precision

import (
	"math"

	"github.com/pogliamarci/llvm-float-range/internal/dataflow"
	"github.com/pogliamarci/llvm-float-range/internal/ir"
	"github.com/pogliamarci/llvm-float-range/internal/rangeanalysis"
)

// WordLength is the internal fixed-point word size the decimal bit width is
// budgeted against.
const WordLength = 64

// InternalDecimalBitWidth derives the decimal bit width from fn's minimum
// integer bit width: half of whatever headroom is left in the word after the
// integer part, split evenly between decimal and sign/guard bits. Returns 0
// if the integer bit width itself couldn't be bounded, or would already fill
// the word.
func InternalDecimalBitWidth(fia *rangeanalysis.Analysis, fn *ir.Function) uint64 {
	integerBits, ok := fia.MinimumIntegerBitWidth(fn)
	if !ok || integerBits >= WordLength {
		return 0
	}
	return (WordLength - integerBits) / 2
}

// Analysis holds the precision analysis results for one function.
type Analysis struct {
	fia             *rangeanalysis.Analysis
	decimalBitWidth uint64
	maxError        opt
	engine          *dataflow.Engine[opt]
}

// Run analyzes fn's error bounds given fia's already-computed ranges and a
// decimal bit width (see InternalDecimalBitWidth, or an explicit override).
func Run(fn *ir.Function, fia *rangeanalysis.Analysis, loops *ir.LoopInfo, scev *ir.ScalarEvolution, decimalBitWidth uint64) (*Analysis, error) {
	a := &Analysis{fia: fia, decimalBitWidth: decimalBitWidth, maxError: some(0)}
	a.engine = dataflow.NewEngine[opt](loops, scev, &visitor{a: a})
	if err := a.engine.Analyze(fn); err != nil {
		return nil, err
	}
	return a, nil
}

// MaximumError returns the largest error bound observed across the function,
// and whether that bound is known at all.
func (a *Analysis) MaximumError() (float64, bool) {
	return a.maxError.v, a.maxError.ok
}

// EquivalentBitwidth converts the maximum error into a decimal bit count,
// ceil(log2(1/epsilon)): the bits needed to represent a value to within the
// propagated error. An invalid or non-positive error yields no result: a
// zero error has no meaningful bit count, and a negative one cannot occur
// from the recurrences above but is guarded against rather than assumed
// impossible.
func (a *Analysis) EquivalentBitwidth() (uint64, bool) {
	if !a.maxError.ok || a.maxError.v <= 0 {
		return 0, false
	}
	bw := math.Ceil(math.Log2(1 / a.maxError.v))
	if bw < 0 {
		bw = 0
	}
	return uint64(bw), true
}

func (a *Analysis) quantError() opt {
	return some(math.Pow(2, -float64(a.decimalBitWidth)))
}

// getRangeMax is |range| at its widest bound, used by the multiplicative
// error recurrences. An unconstrained operand range makes the recurrence
// unknown too.
func (a *Analysis) getRangeMax(val ir.Value) opt {
	r := a.fia.Range(val)
	if !r.IsValid() {
		return none
	}
	return some(math.Max(math.Abs(r.Min), math.Abs(r.Max)))
}

// getError returns a value's error bound: a cached analysis result for an
// instruction, a simulated truncation error for a constant, or the bare
// quantization error for anything else (an unanalyzed leaf, e.g. a function
// argument).
func (a *Analysis) getError(val ir.Value) opt {
	if inst, ok := val.(*ir.Instruction); ok {
		if e, ok := a.engine.Result()[inst]; ok {
			return e
		}
	}
	if c, ok := val.(*ir.ConstFloat); ok {
		return a.constantError(c)
	}
	return a.quantError()
}

// constantError simulates converting c to the internal fixed-point
// representation and measures the truncation it introduces. This is a
// truncating cast toward zero, not a floor: the same rounding direction the
// float-to-fixed pass itself uses when converting float constants.
func (a *Analysis) constantError(c *ir.ConstFloat) opt {
	scale := math.Pow(2, float64(a.decimalBitWidth))
	truncated := float64(int64(c.Val*scale)) / scale
	return some(math.Abs(c.Val - truncated))
}

func (a *Analysis) update(val opt) opt {
	a.maxError = max2(val, a.maxError)
	return val
}

// visitor adapts Analysis to dataflow.Visitor[opt].
type visitor struct {
	a *Analysis
}

// VisitFAdd and VisitFSub share the same recurrence: errors accumulate
// additively regardless of the operation's sign, since the truncation errors
// of both operands contribute independently to the result's error.
// Subtraction does not cancel error.
func (v *visitor) VisitFAdd(inst *ir.Instruction) opt { return v.addSubError(inst) }
func (v *visitor) VisitFSub(inst *ir.Instruction) opt { return v.addSubError(inst) }

func (v *visitor) addSubError(inst *ir.Instruction) opt {
	e1 := v.a.getError(inst.Operands[0])
	e2 := v.a.getError(inst.Operands[1])
	return v.a.update(e1.add(e2))
}

// VisitFMul: e = |op1|*e2 + |op2|*e1 + e1*e2 + QE.
func (v *visitor) VisitFMul(inst *ir.Instruction) opt {
	op1, op2 := inst.Operands[0], inst.Operands[1]
	e1 := v.a.getError(op1)
	e2 := v.a.getError(op2)
	r1 := v.a.getRangeMax(op1)
	r2 := v.a.getRangeMax(op2)

	term := r1.mul(e2).add(r2.mul(e1)).add(e1.mul(e2)).add(v.a.quantError())
	return v.a.update(term)
}

// VisitFDiv: e = (|op1| / |op2|^2) * e2 + (1 / |op2|) * e1 + QE.
func (v *visitor) VisitFDiv(inst *ir.Instruction) opt {
	op1, op2 := inst.Operands[0], inst.Operands[1]
	e1 := v.a.getError(op1)
	e2 := v.a.getError(op2)
	r1 := v.a.getRangeMax(op1)
	r2 := v.a.getRangeMax(op2)

	term1 := r1.div(r2.pow(2)).mul(e2)
	term2 := some(1).div(r2).mul(e1)
	term := term1.add(term2).add(v.a.quantError())
	return v.a.update(term)
}

// VisitPhi takes the element-wise maximum error across incoming edges. It
// does not feed the running maximum-error accumulator; only real arithmetic
// contributes to that.
func (v *visitor) VisitPhi(inst *ir.Instruction) opt {
	result := none
	for idx, in := range inst.Incoming {
		e := v.a.getError(in.Value)
		if idx == 0 {
			result = e
			continue
		}
		result = max2(result, e)
	}
	return result
}

func (v *visitor) Unbounded() opt { return none }
