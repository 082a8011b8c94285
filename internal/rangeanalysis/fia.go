package rangeanalysis

import (
	"math"
	"strings"

	"github.com/pogliamarci/llvm-float-range/internal/dataflow"
	perrors "github.com/pogliamarci/llvm-float-range/internal/errors"
	"github.com/pogliamarci/llvm-float-range/internal/ir"
)

// ctrlDep records that a value's range can be refined at any block dominated
// by truePath (condition held) or falsePath (condition didn't hold). Either
// path may be nil when its successor block isn't solely reached through this
// branch.
type ctrlDep struct {
	Condition           *ir.Instruction
	TruePath, FalsePath *ir.BasicBlock
}

// Analysis holds the floating-point interval analysis results for one
// function.
type Analysis struct {
	dt            *ir.DominatorTree
	loops         *ir.LoopInfo
	controlDeps   map[ir.Value][]ctrlDep
	knownRanges   map[ir.Value]Range
	headerVisited map[*ir.Instruction]bool
	engine        *dataflow.Engine[Range]
	err           error
}

// Run analyzes fn, producing a per-instruction Range.
func Run(fn *ir.Function, dt *ir.DominatorTree, loops *ir.LoopInfo, scev *ir.ScalarEvolution) (*Analysis, error) {
	a := &Analysis{
		dt:            dt,
		loops:         loops,
		controlDeps:   buildControlDependencies(fn),
		knownRanges:   seedKnownRanges(fn),
		headerVisited: map[*ir.Instruction]bool{},
	}
	a.engine = dataflow.NewEngine[Range](loops, scev, &visitor{a: a})
	if err := a.engine.Analyze(fn); err != nil {
		return nil, err
	}
	if a.err != nil {
		return nil, a.err
	}
	return a, nil
}

// Range returns the analyzed range of any value: a constant's point range, an
// annotated range, a computed instruction range, or Top if none apply.
func (a *Analysis) Range(v ir.Value) Range {
	if c, ok := v.(*ir.ConstFloat); ok {
		return Point(c.Val)
	}
	if r, ok := a.knownRanges[v]; ok {
		return r
	}
	if inst, ok := v.(*ir.Instruction); ok {
		if r, ok := a.engine.Result()[inst]; ok {
			return r
		}
	}
	return Top
}

// getOperandRange is Range plus control-dependence refinement at the use
// site context.
func (a *Analysis) getOperandRange(val ir.Value, context *ir.BasicBlock) Range {
	return a.refineWithControlDependencies(a.Range(val), val, context)
}

func (a *Analysis) refineWithControlDependencies(r Range, val ir.Value, context *ir.BasicBlock) Range {
	for _, dep := range a.controlDeps[val] {
		if dep.TruePath != nil && a.dt.Dominates(dep.TruePath, context) {
			r = a.constrainRange(r, val, dep.Condition, true)
		}
		if dep.FalsePath != nil && a.dt.Dominates(dep.FalsePath, context) {
			r = a.constrainRange(r, val, dep.Condition, false)
		}
	}
	return r
}

// constrainRange narrows r using condition, which is known to have evaluated
// to isTrue. EQ/NE predicates never refine, and neither does a comparison
// against an unconstrained operand.
func (a *Analysis) constrainRange(r Range, operand ir.Value, condition *ir.Instruction, isTrue bool) Range {
	lhs, rhs := condition.Operands[0], condition.Operands[1]
	pred := condition.Pred
	if !isTrue {
		pred = pred.Inverse()
	}

	var other ir.Value
	switch operand {
	case lhs:
		other = rhs
	case rhs:
		other = lhs
		pred = pred.Flip()
	default:
		return r
	}

	otherRange := a.getOperandRange(other, condition.Block)
	if otherRange.IsTop() {
		return r
	}

	switch pred {
	case ir.PredGT, ir.PredGE:
		return New(math.Max(r.Min, otherRange.Min), r.Max)
	case ir.PredLT, ir.PredLE:
		return New(r.Min, math.Min(r.Max, otherRange.Max))
	default:
		return r
	}
}

// visitor adapts Analysis to dataflow.Visitor[Range].
type visitor struct {
	a *Analysis
}

func (v *visitor) operand(inst *ir.Instruction, idx int) Range {
	return v.a.getOperandRange(inst.Operands[idx], inst.Block)
}

func (v *visitor) VisitFAdd(inst *ir.Instruction) Range {
	return v.operand(inst, 0).Add(v.operand(inst, 1))
}

func (v *visitor) VisitFSub(inst *ir.Instruction) Range {
	return v.operand(inst, 0).Sub(v.operand(inst, 1))
}

func (v *visitor) VisitFMul(inst *ir.Instruction) Range {
	return v.operand(inst, 0).Mul(v.operand(inst, 1))
}

func (v *visitor) VisitFDiv(inst *ir.Instruction) Range {
	return v.operand(inst, 0).Div(v.operand(inst, 1))
}

// VisitPhi joins every incoming range. On the first visit to a loop header
// phi, only operands that dominate the phi (i.e. not carried around the back
// edge) are joined; the back edge hasn't produced a meaningful value yet.
// Every later visit joins all operands, including the back edge.
func (v *visitor) VisitPhi(inst *ir.Instruction) Range {
	a := v.a
	if a.loops.IsLoopHeader(inst.Block) && !a.headerVisited[inst] {
		a.headerVisited[inst] = true
		result := Bottom()
		found := false
		for _, in := range inst.Incoming {
			def, isInst := in.Value.(*ir.Instruction)
			if !isInst || a.dt.InstructionDominates(def, inst) {
				result = result.Join(a.getOperandRange(in.Value, in.Block))
				found = true
			}
		}
		if !found {
			a.err = perrors.Fatalf("rangeanalysis.VisitPhi", perrors.ErrPhiNoDominatingOperand, "%%%s", inst.Name())
		}
		return result
	}

	result := Bottom()
	for _, in := range inst.Incoming {
		result = result.Join(a.getOperandRange(in.Value, in.Block))
	}
	return result
}

func (v *visitor) Unbounded() Range { return Top }

// buildControlDependencies scans every conditional branch whose condition is
// an FCmp and attaches a ctrlDep to both of its operands.
func buildControlDependencies(fn *ir.Function) map[ir.Value][]ctrlDep {
	deps := map[ir.Value][]ctrlDep{}
	for _, b := range fn.Blocks {
		if len(b.Instructions) == 0 {
			continue
		}
		term := b.Instructions[len(b.Instructions)-1]
		if term.Op != ir.OpBr || term.Cond == nil {
			continue
		}
		cond, ok := term.Cond.(*ir.Instruction)
		if !ok || cond.Op != ir.OpFCmp {
			continue
		}

		truePath := guardedSuccessor(term.TrueSuccess)
		falsePath := guardedSuccessor(term.FalseSuccess)
		if truePath == nil && falsePath == nil {
			continue
		}
		if truePath != nil && truePath == falsePath {
			continue
		}

		dep := ctrlDep{Condition: cond, TruePath: truePath, FalsePath: falsePath}
		deps[cond.Operands[0]] = append(deps[cond.Operands[0]], dep)
		deps[cond.Operands[1]] = append(deps[cond.Operands[1]], dep)
	}
	return deps
}

func guardedSuccessor(b *ir.BasicBlock) *ir.BasicBlock {
	if b.SinglePredecessor() != nil {
		return b
	}
	return nil
}

// seedKnownRanges finds every llvm.float.range annotation call and records
// the range it asserts for its annotated operand. The callee is matched by
// prefix: intrinsic names carry per-type suffixes (llvm.float.range.f64).
func seedKnownRanges(fn *ir.Function) map[ir.Value]Range {
	known := map[ir.Value]Range{}
	for _, inst := range fn.Instructions() {
		if inst.Op != ir.OpCall || !strings.HasPrefix(inst.Callee, "llvm.float.range") || len(inst.Args) != 3 {
			continue
		}
		min, okMin := inst.Args[1].(*ir.ConstInt)
		max, okMax := inst.Args[2].(*ir.ConstInt)
		if !okMin || !okMax {
			continue
		}
		known[inst.Args[0]] = New(float64(min.Val), float64(max.Val))
	}
	return known
}

// computeBitsForValue estimates the signed integer bit width needed to hold
// v's value without truncation, or reports that no bound could be computed
// at all. An unconstrained float value blocks the whole function's bit
// width.
func (a *Analysis) computeBitsForValue(v ir.Value) (uint64, bool) {
	// Only float-typed values are ever range-analyzed; anything else (an
	// ICmp's i1 result, a plain integer constant, an unanalyzed call) simply
	// doesn't constrain the bit width.
	if !ir.IsFloat(v.Type()) {
		return 0, true
	}
	r := a.Range(v)
	switch {
	case r.IsBottom():
		return 0, true
	case r.IsValid():
		m := math.Max(boundMagnitude(r.Min), boundMagnitude(r.Max))
		if m < 1 {
			m = 1
		}
		bits := math.Ceil(math.Log2(m)) + 1
		if math.IsInf(bits, 1) || math.IsNaN(bits) {
			return 0, false
		}
		return uint64(bits), true
	default: // Top: a float value the analysis genuinely could not bound.
		return 0, false
	}
}

func boundMagnitude(x float64) float64 {
	if x < 0 {
		return math.Ceil(-x)
	}
	return math.Ceil(x + 1)
}

// MinimumIntegerBitWidth computes the smallest signed integer width able to
// represent every instruction and operand value in fn without truncation, or
// reports that the function as a whole can't be bounded.
func (a *Analysis) MinimumIntegerBitWidth(fn *ir.Function) (uint64, bool) {
	var maxBits uint64
	consider := func(v ir.Value) bool {
		bits, ok := a.computeBitsForValue(v)
		if !ok {
			return false
		}
		if bits > maxBits {
			maxBits = bits
		}
		return true
	}

	for _, inst := range fn.Instructions() {
		if !consider(inst) {
			return 0, false
		}
		for _, op := range inst.AllOperands() {
			if !consider(op) {
				return 0, false
			}
		}
	}
	return maxBits, true
}
