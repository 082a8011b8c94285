package rangeanalysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pogliamarci/llvm-float-range/internal/ir"
)

func runOn(t *testing.T, fn *ir.Function) *Analysis {
	t.Helper()
	dt := ir.NewDominatorTree(fn)
	loops := ir.NewLoopInfo(fn, dt)
	a, err := Run(fn, dt, loops, ir.NewScalarEvolution())
	require.NoError(t, err)
	return a
}

func TestSeeding_AnnotationYieldsExactRange(t *testing.T) {
	b := ir.NewBuilder("f")
	entry := b.Block("entry")
	b.SetBlock(entry)
	x := b.AddParam("x", ir.Double)
	b.RangeAnnotation(x, -3, 3)

	a := runOn(t, b.Function())
	assert.True(t, a.Range(x).Equal(New(-3, 3)))
}

func TestSeeding_SuffixedIntrinsicNameStillMatches(t *testing.T) {
	b := ir.NewBuilder("f")
	entry := b.Block("entry")
	b.SetBlock(entry)
	x := b.AddParam("x", ir.Double)
	b.Call("", "llvm.float.range.f64", ir.Int(1), x, ir.NewConstInt(1, 64), ir.NewConstInt(7, 64))

	a := runOn(t, b.Function())
	assert.True(t, a.Range(x).Equal(New(1, 7)))
}

func TestRefinement_RequiresUniquePredecessor(t *testing.T) {
	// The false successor is also reachable from the true one, so it has two
	// predecessors and the branch outcome proves nothing inside it.
	b := ir.NewBuilder("f")
	entry := b.Block("entry")
	b.SetBlock(entry)
	x := b.AddParam("x", ir.Double)
	b.RangeAnnotation(x, -5, 5)
	cond := b.FCmp("gt0", ir.PredGT, x, ir.NewConstFloat(0))

	pos := b.Block("pos")
	shared := b.Block("shared")
	b.Br(cond, pos, shared)
	ir.Link(pos, shared)

	b.SetBlock(shared)
	y := b.FMul("y", x, x)

	a := runOn(t, b.Function())
	r := a.Range(y)
	require.True(t, r.IsValid())
	assert.Equal(t, -25.0, r.Min)
	assert.Equal(t, 25.0, r.Max)
}

func TestConstantFloat_IsPointRange(t *testing.T) {
	b := ir.NewBuilder("f")
	entry := b.Block("entry")
	b.SetBlock(entry)

	a := runOn(t, b.Function())
	assert.True(t, a.Range(ir.NewConstFloat(2.5)).Equal(Point(2.5)))
}
