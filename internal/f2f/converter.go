package f2f

import (
	perrors "github.com/pogliamarci/llvm-float-range/internal/errors"
	"github.com/pogliamarci/llvm-float-range/internal/ir"
)

// converter rewrites instructions to fixed point in place, one at a time, in
// program order.
type converter struct {
	decimalBitWidth uint64
	// converted marks an instruction as now producing a fixed-point result,
	// consulted both to skip re-wrapping an already-converted operand and,
	// after the rewrite sweep, to know which instructions a consumer might
	// need reconverted back to float.
	converted map[*ir.Instruction]bool
	// produced marks every other instruction the conversion machinery owns:
	// the raw-product/pre-shift intermediates of a converted multiply or
	// divide, and the inserted scale/cast sequences. The back-conversion
	// sweep must never treat these as ordinary consumers.
	produced map[*ir.Instruction]bool
	// cache avoids inserting a duplicate conversion sequence when the same
	// float value feeds more than one converted instruction.
	cache map[ir.Value]ir.Value
	// back caches fixed-to-float reconversions inserted in the second sweep.
	back  map[*ir.Instruction]*ir.Instruction
	stats Stats
}

func newConverter(decimalBitWidth uint64) *converter {
	return &converter{
		decimalBitWidth: decimalBitWidth,
		converted:       map[*ir.Instruction]bool{},
		produced:        map[*ir.Instruction]bool{},
		cache:           map[ir.Value]ir.Value{},
		back:            map[*ir.Instruction]*ir.Instruction{},
	}
}

// operand returns the fixed-point form of v: itself, if v is an instruction
// already converted in place; a cached conversion; or a freshly inserted one.
func (c *converter) operand(v ir.Value) (ir.Value, error) {
	if inst, ok := v.(*ir.Instruction); ok && c.converted[inst] {
		return inst, nil
	}
	if cached, ok := c.cache[v]; ok {
		return cached, nil
	}
	converted, err := c.floatToFixed(v)
	if err != nil {
		return nil, err
	}
	c.cache[v] = converted
	return converted, nil
}

func (c *converter) floatToFixed(v ir.Value) (ir.Value, error) {
	switch val := v.(type) {
	case *ir.ConstFloat:
		return floatToFixedConstant(val, c.decimalBitWidth), nil
	case *ir.Argument:
		return c.insertFloatToFixedConversionForArgument(val), nil
	case *ir.Instruction:
		return c.insertFloatToFixedConversion(val), nil
	default:
		return nil, perrors.Fatalf("f2f.floatToFixed", perrors.ErrUnsupportedConvOperand, "%s", v.Name())
	}
}

// convert rewrites inst according to its opcode.
func (c *converter) convert(inst *ir.Instruction) error {
	var fixed *ir.Instruction
	var err error
	switch inst.Op {
	case ir.OpFAdd:
		fixed, err = c.convertBinOp(inst, ir.OpAdd)
	case ir.OpFSub:
		fixed, err = c.convertBinOp(inst, ir.OpSub)
	case ir.OpFMul:
		fixed, err = c.convertMul(inst)
	case ir.OpFDiv:
		fixed, err = c.convertDiv(inst)
	case ir.OpFCmp:
		fixed, err = c.convertCmp(inst)
	case ir.OpPhi:
		fixed, err = c.convertPhi(inst)
	default:
		return perrors.Fatalf("f2f.convert", perrors.ErrUnsupportedConversion, "opcode %s", inst.Op)
	}
	if err != nil {
		return err
	}
	c.collapseEagerConversion(inst, fixed)
	c.stats.Converted++
	return nil
}

// collapseEagerConversion handles the loop-carried case: a converted loop
// header phi reads its back-edge operand before that operand is itself
// converted, so a scale-and-cast sequence was inserted for the still-float
// value. Now that the value has been converted in place, that sequence would
// rescale an already-fixed integer; its consumers move onto the real fixed
// result and the dead pair is removed.
func (c *converter) collapseEagerConversion(inst, fixed *ir.Instruction) {
	cast, ok := c.cache[inst].(*ir.Instruction)
	if !ok {
		return
	}
	ir.ReplaceAllUsesWith(cast, fixed)
	if mul, ok := cast.Src.(*ir.Instruction); ok {
		ir.Erase(cast)
		ir.Erase(mul)
	}
	c.cache[inst] = fixed
}

// convertBinOp rewrites inst in place: same arity, same node identity, so no
// use-list migration is needed beyond what Rewrite already does.
func (c *converter) convertBinOp(inst *ir.Instruction, op ir.Opcode) (*ir.Instruction, error) {
	lhs, err := c.operand(inst.Operands[0])
	if err != nil {
		return nil, err
	}
	rhs, err := c.operand(inst.Operands[1])
	if err != nil {
		return nil, err
	}
	inst.Rewrite(op, ir.Int(64), []ir.Value{lhs, rhs})
	c.converted[inst] = true
	return inst, nil
}

// convertMul rewrites inst into the raw product, then inserts an arithmetic
// shift to undo the doubled scale factor; the shift, not the product, is the
// value other instructions should consume.
func (c *converter) convertMul(inst *ir.Instruction) (*ir.Instruction, error) {
	lhs, err := c.operand(inst.Operands[0])
	if err != nil {
		return nil, err
	}
	rhs, err := c.operand(inst.Operands[1])
	if err != nil {
		return nil, err
	}
	inst.Rewrite(ir.OpMul, ir.Int(64), []ir.Value{lhs, rhs})
	c.produced[inst] = true

	shiftAmt := ir.NewConstInt(int64(c.decimalBitWidth), 64)
	ashr := ir.InsertAfter(inst, &ir.Instruction{Op: ir.OpAShr, Ty: ir.Int(64), Operands: []ir.Value{inst, shiftAmt}})
	ir.ReplaceAllUsesWith(inst, ashr)
	c.converted[ashr] = true
	return ashr, nil
}

// convertDiv rewrites inst into a pre-scaling shift, then inserts the signed
// division; the division, not the shift, is the value other instructions
// should consume.
func (c *converter) convertDiv(inst *ir.Instruction) (*ir.Instruction, error) {
	lhs, err := c.operand(inst.Operands[0])
	if err != nil {
		return nil, err
	}
	rhs, err := c.operand(inst.Operands[1])
	if err != nil {
		return nil, err
	}
	shiftAmt := ir.NewConstInt(int64(c.decimalBitWidth), 64)
	inst.Rewrite(ir.OpShl, ir.Int(64), []ir.Value{lhs, shiftAmt})
	c.produced[inst] = true

	sdiv := ir.InsertAfter(inst, &ir.Instruction{Op: ir.OpSDiv, Ty: ir.Int(64), Operands: []ir.Value{inst, rhs}})
	ir.ReplaceAllUsesWith(inst, sdiv)
	c.converted[sdiv] = true
	return sdiv, nil
}

// convertCmp rewrites an FCmp into an ICmp in place; its boolean result needs
// no reconversion downstream regardless of whether its consumer was itself
// converted.
func (c *converter) convertCmp(inst *ir.Instruction) (*ir.Instruction, error) {
	lhs, err := c.operand(inst.Operands[0])
	if err != nil {
		return nil, err
	}
	rhs, err := c.operand(inst.Operands[1])
	if err != nil {
		return nil, err
	}
	pred := inst.Pred.SignedICmp()
	inst.Rewrite(ir.OpICmp, &ir.IntType{Bits: 1}, []ir.Value{lhs, rhs})
	inst.Pred = pred
	c.converted[inst] = true
	return inst, nil
}

// convertPhi rewrites a phi's incoming values to their fixed-point forms.
func (c *converter) convertPhi(inst *ir.Instruction) (*ir.Instruction, error) {
	newIncoming := make([]ir.Incoming, len(inst.Incoming))
	for idx, in := range inst.Incoming {
		fixed, err := c.operand(in.Value)
		if err != nil {
			return nil, err
		}
		newIncoming[idx] = ir.Incoming{Value: fixed, Block: in.Block}
	}
	for _, in := range inst.Incoming {
		if def, ok := in.Value.(*ir.Instruction); ok {
			ir.DropUse(def, inst)
		}
	}
	inst.Ty = ir.Int(64)
	inst.Incoming = newIncoming
	for _, in := range newIncoming {
		if def, ok := in.Value.(*ir.Instruction); ok {
			ir.RecordUse(def, inst)
		}
	}
	c.converted[inst] = true
	return inst, nil
}
