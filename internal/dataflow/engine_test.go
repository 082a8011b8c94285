package dataflow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pogliamarci/llvm-float-range/internal/dataflow"
	"github.com/pogliamarci/llvm-float-range/internal/ir"
)

// countingVisitor is a minimal Visitor[int]: every arithmetic op reports how
// many operands it has, phi reports the number of incoming edges, and
// Unbounded is a sentinel out-of-band value.
type countingVisitor struct{}

func (countingVisitor) VisitFAdd(inst *ir.Instruction) int { return len(inst.Operands) }
func (countingVisitor) VisitFSub(inst *ir.Instruction) int { return len(inst.Operands) }
func (countingVisitor) VisitFMul(inst *ir.Instruction) int { return len(inst.Operands) }
func (countingVisitor) VisitFDiv(inst *ir.Instruction) int { return len(inst.Operands) }
func (countingVisitor) VisitPhi(inst *ir.Instruction) int  { return len(inst.Incoming) }
func (countingVisitor) Unbounded() int                     { return -1 }

func TestEngine_VisitsEveryFloatInstruction(t *testing.T) {
	b := ir.NewBuilder("f")
	entry := b.Block("entry")
	b.SetBlock(entry)
	x := b.AddParam("x", ir.Double)
	y := b.FAdd("y", x, x)
	z := b.FMul("z", y, x)

	dt := ir.NewDominatorTree(b.Function())
	loops := ir.NewLoopInfo(b.Function(), dt)
	eng := dataflow.NewEngine[int](loops, ir.NewScalarEvolution(), countingVisitor{})
	require.NoError(t, eng.Analyze(b.Function()))

	assert.Equal(t, 2, eng.Result()[y])
	assert.Equal(t, 2, eng.Result()[z])
}

func TestEngine_UnknownTripCountLoopIsAbandonedToUnbounded(t *testing.T) {
	b := ir.NewBuilder("loop")
	entry := b.Block("entry")
	b.SetBlock(entry)
	x := b.AddParam("x", ir.Double)

	header := b.Block("header")
	ir.Link(entry, header)
	b.SetBlock(header)
	phi := b.Phi("acc", ir.Double)
	ir.AddIncoming(phi, ir.NewConstFloat(0), entry)
	cond := b.FCmp("cond", ir.PredLT, phi, ir.NewConstFloat(10))

	body := b.Block("body")
	exit := b.Block("exit")
	b.Br(cond, body, exit)

	b.SetBlock(body)
	next := b.FAdd("next", phi, x)
	ir.Link(body, header)
	ir.AddIncoming(phi, next, body)

	dt := ir.NewDominatorTree(b.Function())
	loops := ir.NewLoopInfo(b.Function(), dt)
	eng := dataflow.NewEngine[int](loops, ir.NewScalarEvolution(), countingVisitor{})
	require.NoError(t, eng.Analyze(b.Function()))

	assert.Equal(t, -1, eng.Result()[phi])
	assert.Equal(t, -1, eng.Result()[next])
}

func TestEngine_KnownTripCountRespectsIterationBudget(t *testing.T) {
	b := ir.NewBuilder("loop")
	entry := b.Block("entry")
	b.SetBlock(entry)

	header := b.Block("header")
	ir.Link(entry, header)
	b.SetBlock(header)
	phi := b.Phi("acc", ir.Double)
	ir.AddIncoming(phi, ir.NewConstFloat(0), entry)

	body := b.Block("body")
	b.SetBlock(body)
	next := b.FAdd("next", phi, ir.NewConstFloat(1))
	ir.Link(body, header)
	ir.AddIncoming(phi, next, body)
	ir.Link(header, body)

	dt := ir.NewDominatorTree(b.Function())
	loops := ir.NewLoopInfo(b.Function(), dt)
	scev := ir.NewScalarEvolution()
	scev.SetMaxBackedgeTakenCount(header, 3)

	eng := dataflow.NewEngine[int](loops, scev, countingVisitor{})
	require.NoError(t, eng.Analyze(b.Function()))

	assert.Equal(t, 2, eng.Result()[phi])
}
