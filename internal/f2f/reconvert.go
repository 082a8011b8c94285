package f2f

import (
	"fmt"

	"github.com/pogliamarci/llvm-float-range/internal/ir"
)

// reconvertOperands is the pass's second sweep: every instruction that was
// NOT itself converted but still reads a now-fixed-point value needs that
// value back in float form, unless the value is the boolean result of a
// converted FCmp, which every consumer accepts as-is. Instructions the
// conversion itself owns (the produced set: raw-product/pre-shift
// intermediates, inserted scale/cast pairs) are not consumers at all and
// are skipped outright.
//
// Inserting the reconversion is dominance-guarded: if the fixed-point
// definition doesn't dominate the use (can happen once operand conversions
// start moving values across blocks), the pass cannot safely insert a
// conversion at the use site, and instead leaves the mismatched operand in
// place and reports a warning rather than failing the whole pass.
func (c *converter) reconvertOperands(fn *ir.Function, dt *ir.DominatorTree) []string {
	var warnings []string
	for _, inst := range fn.Instructions() {
		if c.converted[inst] || c.produced[inst] {
			continue
		}
		for _, v := range append([]ir.Value(nil), inst.AllOperands()...) {
			def, ok := v.(*ir.Instruction)
			if !ok || !c.converted[def] {
				continue
			}
			if def.Op == ir.OpICmp {
				// A converted comparison's boolean result needs no float
				// reconversion at all.
				continue
			}
			if replacement, ok := c.back[def]; ok {
				inst.ReplaceOperand(def, replacement)
				continue
			}
			if !dt.InstructionDominates(def, inst) {
				warnings = append(warnings, fmt.Sprintf(
					"%%%s: fixed-point value %%%s does not dominate this use; left unconverted",
					inst.Name(), def.Name()))
				continue
			}
			replacement := c.fixedToFloat(def)
			c.back[def] = replacement
			inst.ReplaceOperand(def, replacement)
			c.stats.Reconverted++
		}
	}
	return warnings
}
