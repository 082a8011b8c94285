package f2f

import (
	"math"

	"github.com/pogliamarci/llvm-float-range/internal/ir"
)

// floatToFixedConstant converts a float constant into a fixed-point one by
// scaling and truncating toward zero. This is unchecked: for a value whose
// scaled magnitude exceeds the target width, the result of the float-to-int64
// conversion is implementation-dependent in Go. Keeping the
// scaled constant in range is the same responsibility the rangeOk
// eligibility check puts on instruction operands.
func floatToFixedConstant(c *ir.ConstFloat, decimalBitWidth uint64) *ir.ConstInt {
	scale := math.Pow(2, float64(decimalBitWidth))
	return ir.NewConstInt(int64(c.Val*scale), 64)
}

// insertFloatToFixedConversion inserts `fmul def, 2^d` then `fptosi ... to
// i64` right after def, and returns the cast: the fixed-point value other
// instructions can now consume.
func (c *converter) insertFloatToFixedConversion(def *ir.Instruction) *ir.Instruction {
	scale := ir.NewConstFloat(math.Pow(2, float64(c.decimalBitWidth)))
	mul := ir.InsertAfter(def, &ir.Instruction{Op: ir.OpFMul, Ty: ir.Double, Operands: []ir.Value{def, scale}})
	cast := ir.InsertAfter(mul, &ir.Instruction{Op: ir.OpFPToSI, Ty: ir.Int(64), Src: mul})
	c.produced[mul] = true
	c.produced[cast] = true
	return cast
}

// insertFloatToFixedConversionForArgument does the same for a function
// argument, which has no instruction to anchor "insert after" on: both new
// instructions are pushed to the front of the entry block instead, mul
// first so it still executes before the cast.
func (c *converter) insertFloatToFixedConversionForArgument(arg *ir.Argument) *ir.Instruction {
	entry := arg.Fn.Entry
	scale := ir.NewConstFloat(math.Pow(2, float64(c.decimalBitWidth)))
	mul := ir.PushFront(entry, &ir.Instruction{Op: ir.OpFMul, Ty: ir.Double, Operands: []ir.Value{arg, scale}})
	cast := ir.InsertAfter(mul, &ir.Instruction{Op: ir.OpFPToSI, Ty: ir.Int(64), Src: mul})
	c.produced[mul] = true
	c.produced[cast] = true
	return cast
}

// fixedToFloat inserts `sitofp def` then `fdiv ..., 2^d` right after def,
// converting a fixed-point value back to float for a consumer that wasn't
// itself converted.
func (c *converter) fixedToFloat(def *ir.Instruction) *ir.Instruction {
	cast := ir.InsertAfter(def, &ir.Instruction{Op: ir.OpSIToFP, Ty: ir.Double, Src: def})
	divisor := ir.NewConstFloat(math.Pow(2, float64(c.decimalBitWidth)))
	div := ir.InsertAfter(cast, &ir.Instruction{Op: ir.OpFDiv, Ty: ir.Double, Operands: []ir.Value{cast, divisor}})
	c.produced[cast] = true
	c.produced[div] = true
	return div
}
