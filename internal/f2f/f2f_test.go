package f2f

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pogliamarci/llvm-float-range/internal/ir"
	"github.com/pogliamarci/llvm-float-range/internal/precision"
	"github.com/pogliamarci/llvm-float-range/internal/rangeanalysis"
)

func TestFloatToFixedConstant_TruncatesTowardZero(t *testing.T) {
	c := ir.NewConstFloat(1.9)
	got := floatToFixedConstant(c, 4) // scale = 16
	// 1.9*16 = 30.4, truncated toward zero to 30, not rounded to 30 or floored
	// to 30 either way here; the distinguishing case is negative.
	assert.Equal(t, int64(30), got.Val)

	neg := ir.NewConstFloat(-1.9)
	gotNeg := floatToFixedConstant(neg, 4)
	// Truncation toward zero: -30.4 truncates to -30, not floored to -31.
	assert.Equal(t, int64(-30), gotNeg.Val)
}

func TestConvertMul_ReplacesUsesWithTheShift(t *testing.T) {
	b := ir.NewBuilder("f")
	entry := b.Block("entry")
	b.SetBlock(entry)
	x := b.AddParam("x", ir.Double)
	y := b.FMul("y", x, x)
	z := b.FAdd("z", y, x)

	conv := newConverter(8)
	require.NoError(t, conv.convert(y))

	// y mutated in place into the raw product; the ashr inserted right after
	// it is the value z should now consume.
	assert.Equal(t, ir.OpMul, y.Op)
	idx := -1
	for i, inst := range entry.Instructions {
		if inst == y {
			idx = i
		}
	}
	require.NotEqual(t, -1, idx)
	require.Less(t, idx+1, len(entry.Instructions))
	ashr := entry.Instructions[idx+1]
	assert.Equal(t, ir.OpAShr, ashr.Op)

	// z, the pre-existing consumer of y, must have been migrated onto the
	// shift by RAUW rather than left pointing at the raw product.
	assert.True(t, conv.converted[ashr])
	assert.False(t, conv.converted[y])
	assert.Same(t, ashr, z.Operands[0])
	assert.Equal(t, []*ir.Instruction{ashr}, y.Uses())
}

// The raw product of a converted multiply reads its converted operand
// directly; the back-conversion sweep must not mistake it for an ordinary
// unconverted consumer and splice a float value into integer arithmetic.
func TestReconvertOperands_SkipsConversionIntermediates(t *testing.T) {
	b := ir.NewBuilder("f")
	entry := b.Block("entry")
	b.SetBlock(entry)
	x := b.AddParam("x", ir.Double)
	y := b.FAdd("y", x, x)
	z := b.FMul("z", y, ir.NewConstFloat(0.5))

	conv := newConverter(8)
	require.NoError(t, conv.convert(y))
	require.NoError(t, conv.convert(z))

	dt := ir.NewDominatorTree(b.Function())
	warnings := conv.reconvertOperands(b.Function(), dt)
	assert.Empty(t, warnings)
	assert.Equal(t, 0, conv.stats.Reconverted)
	// z, now the raw i64 product, still reads the converted add directly.
	assert.Same(t, y, z.Operands[0])
}

// Converting a loop header phi first wraps its still-float back-edge operand
// in a scale-and-cast pair; converting that operand afterwards must move the
// phi onto the real fixed value and drop the dead pair.
func TestConvert_LoopCarriedOperandCollapsesEagerConversion(t *testing.T) {
	b := ir.NewBuilder("loop")
	entry := b.Block("entry")
	b.SetBlock(entry)
	x := b.AddParam("x", ir.Double)

	header := b.Block("header")
	ir.Link(entry, header)
	b.SetBlock(header)
	phi := b.Phi("acc", ir.Double)
	ir.AddIncoming(phi, ir.NewConstFloat(1), entry)

	body := b.Block("body")
	ir.Link(header, body)
	b.SetBlock(body)
	next := b.FMul("next", phi, x)
	ir.Link(body, header)
	ir.AddIncoming(phi, next, body)

	conv := newConverter(8)
	require.NoError(t, conv.convert(phi))
	require.NoError(t, conv.convert(next))

	// next was rewritten into the raw product and the shift inserted right
	// after it; the eager scale/cast pair for the old float value is gone.
	require.Len(t, body.Instructions, 2)
	assert.Equal(t, ir.OpMul, body.Instructions[0].Op)
	ashr := body.Instructions[1]
	assert.Equal(t, ir.OpAShr, ashr.Op)
	// The phi's back edge reads the shift, and nothing else reads it yet.
	assert.Same(t, ashr, phi.Incoming[1].Value)
	assert.Equal(t, []*ir.Instruction{phi}, ashr.Uses())
}

func TestReconvertOperands_WarnsWhenDefinitionDoesNotDominateUse(t *testing.T) {
	// Two sibling blocks both reachable only through entry: a value defined
	// in one can't dominate a use in the other.
	b := ir.NewBuilder("f")
	entry := b.Block("entry")
	b.SetBlock(entry)
	x := b.AddParam("x", ir.Double)
	cond := b.FCmp("cond", ir.PredGT, x, ir.NewConstFloat(0))

	left := b.Block("left")
	right := b.Block("right")
	b.Br(cond, left, right)

	b.SetBlock(left)
	fixedVal := b.FAdd("fixedVal", x, x)

	b.SetBlock(right)
	user := b.FAdd("user", fixedVal, x)

	conv := newConverter(8)
	require.NoError(t, conv.convert(fixedVal))
	require.False(t, conv.converted[user])

	dt := ir.NewDominatorTree(b.Function())
	warnings := conv.reconvertOperands(b.Function(), dt)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "does not dominate this use")
}

func TestOkToConvert_PrecisionGuidedRejectsBelowThreshold(t *testing.T) {
	builder := ir.NewBuilder("f")
	entry := builder.Block("entry")
	builder.SetBlock(entry)
	x := builder.AddParam("x", ir.Double)
	builder.RangeAnnotation(x, -1e15, 1e15)
	y := builder.FAdd("y", x, x)

	fn := builder.Function()
	dt := ir.NewDominatorTree(fn)
	loops := ir.NewLoopInfo(fn, dt)
	fia, err := rangeanalysis.Run(fn, dt, loops, ir.NewScalarEvolution())
	require.NoError(t, err)
	pea, err := precision.Run(fn, fia, loops, ir.NewScalarEvolution(), 10)
	require.NoError(t, err)

	cfg := DefaultConfig()
	assert.False(t, okToConvert(y, true, 10, cfg, fia, pea))
}

func TestOkToConvert_UncheckedModeRejectsFCmp(t *testing.T) {
	builder := ir.NewBuilder("f")
	entry := builder.Block("entry")
	builder.SetBlock(entry)
	x := builder.AddParam("x", ir.Double)
	builder.RangeAnnotation(x, -10, 10)
	cond := builder.FCmp("cond", ir.PredGT, x, ir.NewConstFloat(0))

	fn := builder.Function()
	dt := ir.NewDominatorTree(fn)
	loops := ir.NewLoopInfo(fn, dt)
	fia, err := rangeanalysis.Run(fn, dt, loops, ir.NewScalarEvolution())
	require.NoError(t, err)

	cfg := Config{DecimalPrecision: 16, InternalBitWidth: 20}
	assert.False(t, okToConvert(cond, false, 20, cfg, fia, nil))
}
