// Package ir provides a small SSA-form intermediate representation used as
// the input and output of the float-range, precision and float-to-fixed
// passes. It stands in for a host compiler's IR: everything a real middle-end
// would already own (parsing, codegen, the rest of the instruction set) is
// out of scope here. Only the handful of floating-point and control-flow
// constructs the passes touch are modeled.
package ir

import "fmt"

// Opcode identifies the operation an Instruction performs.
type Opcode int

const (
	OpInvalid Opcode = iota

	// Floating-point instructions consumed by FIA/PEA.
	OpFAdd
	OpFSub
	OpFMul
	OpFDiv
	OpFCmp
	OpPhi
	OpBr
	OpCall

	// Integer/cast instructions produced by F2F.
	OpAdd
	OpSub
	OpMul
	OpAShr
	OpShl
	OpSDiv
	OpICmp
	OpSIToFP
	OpFPToSI
)

func (op Opcode) String() string {
	switch op {
	case OpFAdd:
		return "fadd"
	case OpFSub:
		return "fsub"
	case OpFMul:
		return "fmul"
	case OpFDiv:
		return "fdiv"
	case OpFCmp:
		return "fcmp"
	case OpPhi:
		return "phi"
	case OpBr:
		return "br"
	case OpCall:
		return "call"
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mul"
	case OpAShr:
		return "ashr"
	case OpShl:
		return "shl"
	case OpSDiv:
		return "sdiv"
	case OpICmp:
		return "icmp"
	case OpSIToFP:
		return "sitofp"
	case OpFPToSI:
		return "fptosi"
	default:
		return "<invalid>"
	}
}

// Predicate is a comparison predicate, shared between FCmp and ICmp. Ordered
// and unordered float variants collapse to the same signed integer predicate
// (NaN is not modeled), per spec.
type Predicate int

const (
	PredEQ Predicate = iota
	PredNE
	PredGT
	PredGE
	PredLT
	PredLE
)

func (p Predicate) Inverse() Predicate {
	switch p {
	case PredGT:
		return PredLE
	case PredGE:
		return PredLT
	case PredLT:
		return PredGE
	case PredLE:
		return PredGT
	case PredEQ:
		return PredNE
	case PredNE:
		return PredEQ
	default:
		panic(fmt.Sprintf("unhandled predicate %v", p))
	}
}

// Flip swaps the operand order a predicate is stated in, e.g. "a > b" becomes
// "b < a".
func (p Predicate) Flip() Predicate {
	switch p {
	case PredGT:
		return PredLT
	case PredGE:
		return PredLE
	case PredLT:
		return PredGT
	case PredLE:
		return PredGE
	default:
		return p
	}
}

func (p Predicate) SignedICmp() Predicate { return p }

func (p Predicate) String() string {
	switch p {
	case PredEQ:
		return "eq"
	case PredNE:
		return "ne"
	case PredGT:
		return "sgt"
	case PredGE:
		return "sge"
	case PredLT:
		return "slt"
	case PredLE:
		return "sle"
	default:
		return "<invalid>"
	}
}
