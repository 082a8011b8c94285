package ir

import (
	"fmt"
	"strings"
)

// Printer renders a Function as indented text for debug dumps and the CLI's
// before/after output.
type Printer struct {
	indent int
	output strings.Builder
}

// NewPrinter creates an empty printer.
func NewPrinter() *Printer { return &Printer{} }

func (p *Printer) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.output.WriteString("  ")
	}
}

func (p *Printer) writeLine(format string, args ...interface{}) {
	p.writeIndent()
	p.output.WriteString(fmt.Sprintf(format, args...))
	p.output.WriteString("\n")
}

// PrintFunction renders fn's blocks and instructions.
func PrintFunction(fn *Function) string {
	p := NewPrinter()
	p.writeLine("function %s {", fn.Name)
	p.indent++
	for _, b := range fn.Blocks {
		p.writeLine("%s:", b.Label)
		p.indent++
		for _, inst := range b.Instructions {
			p.writeLine("%s", inst.String())
		}
		p.indent--
	}
	p.indent--
	p.writeLine("}")
	return p.output.String()
}

// PrintTagged renders fn like PrintFunction with a tag column in front of
// every instruction, for pass reports that mark which instructions were
// rewritten.
func PrintTagged(fn *Function, tag func(*Instruction) string) string {
	p := NewPrinter()
	p.writeLine("function %s {", fn.Name)
	p.indent++
	for _, b := range fn.Blocks {
		p.writeLine("%s:", b.Label)
		p.indent++
		for _, inst := range b.Instructions {
			p.writeLine("%s %s", tag(inst), inst.String())
		}
		p.indent--
	}
	p.indent--
	p.writeLine("}")
	return p.output.String()
}

// String renders a single instruction in a compact textual form.
func (i *Instruction) String() string {
	switch i.Op {
	case OpPhi:
		parts := make([]string, len(i.Incoming))
		for idx, in := range i.Incoming {
			parts[idx] = fmt.Sprintf("[%s, %s]", in.Value.Name(), in.Block.Label)
		}
		return fmt.Sprintf("%%%s = phi %s", i.name, strings.Join(parts, ", "))
	case OpBr:
		return fmt.Sprintf("br %s, %s, %s", i.Cond.Name(), i.TrueSuccess.Label, i.FalseSuccess.Label)
	case OpCall:
		argNames := make([]string, len(i.Args))
		for idx, a := range i.Args {
			argNames[idx] = a.Name()
		}
		prefix := ""
		if i.name != "" {
			prefix = fmt.Sprintf("%%%s = ", i.name)
		}
		return fmt.Sprintf("%scall %s(%s)", prefix, i.Callee, strings.Join(argNames, ", "))
	case OpFCmp, OpICmp:
		return fmt.Sprintf("%%%s = %s %s %s, %s", i.name, i.Op, i.Pred, i.Operands[0].Name(), i.Operands[1].Name())
	case OpSIToFP, OpFPToSI:
		return fmt.Sprintf("%%%s = %s %s", i.name, i.Op, i.Src.Name())
	default:
		names := make([]string, len(i.Operands))
		for idx, o := range i.Operands {
			names[idx] = o.Name()
		}
		return fmt.Sprintf("%%%s = %s %s", i.name, i.Op, strings.Join(names, ", "))
	}
}
