// Package dataflow implements the generic worklist fixpoint driver shared by
// the float-range and precision analyses. It is deliberately small and
// opcode-agnostic: the element lattice and the four arithmetic visitors plus
// a phi visitor are supplied by the caller as a type parameter and an
// interface.
package dataflow

import (
	"github.com/pogliamarci/llvm-float-range/internal/errors"
	"github.com/pogliamarci/llvm-float-range/internal/ir"
)

// Visitor computes a lattice value for one instruction. Implementations are
// FIA (Range) and PEA (optional float64 error bound).
type Visitor[T any] interface {
	VisitFAdd(inst *ir.Instruction) T
	VisitFSub(inst *ir.Instruction) T
	VisitFMul(inst *ir.Instruction) T
	VisitFDiv(inst *ir.Instruction) T
	VisitPhi(inst *ir.Instruction) T
	// Unbounded is the safe over-approximation assigned to an instruction
	// whose enclosing loop has no statically known trip count.
	Unbounded() T
}

// Engine runs the worklist to a fixpoint. Termination is bounded by loop
// trip counts, not by lattice monotonicity: control-dependent refinement
// makes the visitors non-monotone, so results for loops with complex
// branching depend on visit order. Seeding in program order with a FIFO
// queue keeps that order reproducible.
type Engine[T any] struct {
	loops   *ir.LoopInfo
	scev    *ir.ScalarEvolution
	visitor Visitor[T]

	iterationCount map[*ir.Instruction]int
	result         map[*ir.Instruction]T
}

// NewEngine creates a driver for one function's worth of analysis.
func NewEngine[T any](loops *ir.LoopInfo, scev *ir.ScalarEvolution, visitor Visitor[T]) *Engine[T] {
	return &Engine[T]{
		loops:          loops,
		scev:           scev,
		visitor:        visitor,
		iterationCount: map[*ir.Instruction]int{},
		result:         map[*ir.Instruction]T{},
	}
}

// Result returns the per-instruction lattice values computed so far.
func (e *Engine[T]) Result() map[*ir.Instruction]T { return e.result }

// isSupported: float binops, and phis of float type.
func isSupported(inst *ir.Instruction) bool {
	switch inst.Op {
	case ir.OpFAdd, ir.OpFSub, ir.OpFMul, ir.OpFDiv:
		return true
	case ir.OpPhi:
		return ir.IsFloat(inst.Ty)
	default:
		return false
	}
}

// Analyze seeds the worklist with every instruction of fn in program order
// and runs it to a fixpoint.
func (e *Engine[T]) Analyze(fn *ir.Function) error {
	wl := newWorklist()
	for _, inst := range fn.Instructions() {
		wl.enqueue(inst)
	}

	for !wl.empty() {
		cur := wl.dequeue()
		if !isSupported(cur) {
			continue
		}

		if loop := e.loops.LoopFor(cur.Block); loop != nil {
			tripCount, known := e.scev.MaxBackedgeTakenCount(loop)
			if !known {
				// Unknown trip count: abandon this value to the unbounded
				// element permanently.
				e.result[cur] = e.visitor.Unbounded()
				continue
			}
			if uint64(e.iterationCount[cur]) >= tripCount {
				continue
			}
		}

		t, err := e.visit(cur)
		if err != nil {
			return err
		}

		for _, user := range cur.Uses() {
			wl.enqueue(user)
		}

		e.result[cur] = t
		e.iterationCount[cur]++
	}
	return nil
}

func (e *Engine[T]) visit(inst *ir.Instruction) (T, error) {
	switch inst.Op {
	case ir.OpFAdd:
		return e.visitor.VisitFAdd(inst), nil
	case ir.OpFSub:
		return e.visitor.VisitFSub(inst), nil
	case ir.OpFMul:
		return e.visitor.VisitFMul(inst), nil
	case ir.OpFDiv:
		return e.visitor.VisitFDiv(inst), nil
	case ir.OpPhi:
		return e.visitor.VisitPhi(inst), nil
	default:
		var zero T
		return zero, errors.Fatalf("dataflow.Analyze", errors.ErrUnsupportedInstruction, "opcode %s", inst.Op)
	}
}

// worklist is a FIFO queue with set-membership gating: an instruction
// already queued is never enqueued twice.
type worklist struct {
	queue     []*ir.Instruction
	contained map[*ir.Instruction]bool
}

func newWorklist() *worklist {
	return &worklist{contained: map[*ir.Instruction]bool{}}
}

func (w *worklist) enqueue(inst *ir.Instruction) {
	if w.contained[inst] {
		return
	}
	w.contained[inst] = true
	w.queue = append(w.queue, inst)
}

func (w *worklist) dequeue() *ir.Instruction {
	inst := w.queue[0]
	w.queue = w.queue[1:]
	delete(w.contained, inst)
	return inst
}

func (w *worklist) empty() bool { return len(w.queue) == 0 }
