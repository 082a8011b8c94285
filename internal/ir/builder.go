package ir

// Builder constructs a Function instruction-by-instruction. It exists so
// tests and cmd/floatrange can assemble IR programmatically; this repository
// has no source-language front end, so a builder is the only way in.
type Builder struct {
	fn  *Function
	blk *BasicBlock
}

// NewBuilder creates a function named name and a builder positioned at its
// (not-yet-created) entry block.
func NewBuilder(name string) *Builder {
	return &Builder{fn: &Function{Name: name}}
}

// Function returns the function under construction.
func (b *Builder) Function() *Function { return b.fn }

// AddParam appends a new float or integer parameter to the function.
func (b *Builder) AddParam(name string, ty Type) *Argument {
	arg := &Argument{Nm: name, Ty: ty, Fn: b.fn}
	b.fn.Params = append(b.fn.Params, arg)
	return arg
}

// Block creates a new basic block and appends it to the function. The first
// block created becomes the entry block.
func (b *Builder) Block(label string) *BasicBlock {
	blk := &BasicBlock{Label: label, Function: b.fn}
	b.fn.Blocks = append(b.fn.Blocks, blk)
	if b.fn.Entry == nil {
		b.fn.Entry = blk
	}
	return blk
}

// SetBlock positions the builder to append subsequent instructions to blk.
func (b *Builder) SetBlock(blk *BasicBlock) { b.blk = blk }

// Link records blk as a predecessor of succ and succ as a successor of blk.
func Link(blk, succ *BasicBlock) {
	blk.Successors = append(blk.Successors, succ)
	succ.Predecessors = append(succ.Predecessors, blk)
}

func (b *Builder) nextID() int {
	id := b.fn.nextID
	b.fn.nextID++
	return id
}

func recordUses(inst *Instruction) {
	for _, op := range inst.AllOperands() {
		if def, ok := op.(*Instruction); ok {
			def.addUse(inst)
		}
	}
}

func (b *Builder) append(inst *Instruction) *Instruction {
	inst.ID = b.nextID()
	inst.Block = b.blk
	b.blk.Instructions = append(b.blk.Instructions, inst)
	recordUses(inst)
	return inst
}

// binOp emits one of FAdd/FSub/FMul/FDiv.
func (b *Builder) binOp(op Opcode, name string, lhs, rhs Value) *Instruction {
	inst := &Instruction{Op: op, Ty: Double, Operands: []Value{lhs, rhs}, name: name}
	return b.append(inst)
}

func (b *Builder) FAdd(name string, lhs, rhs Value) *Instruction { return b.binOp(OpFAdd, name, lhs, rhs) }
func (b *Builder) FSub(name string, lhs, rhs Value) *Instruction { return b.binOp(OpFSub, name, lhs, rhs) }
func (b *Builder) FMul(name string, lhs, rhs Value) *Instruction { return b.binOp(OpFMul, name, lhs, rhs) }
func (b *Builder) FDiv(name string, lhs, rhs Value) *Instruction { return b.binOp(OpFDiv, name, lhs, rhs) }

// FCmp emits a floating-point compare with the given predicate.
func (b *Builder) FCmp(name string, pred Predicate, lhs, rhs Value) *Instruction {
	inst := &Instruction{Op: OpFCmp, Ty: &IntType{Bits: 1}, Operands: []Value{lhs, rhs}, Pred: pred, name: name}
	return b.append(inst)
}

// Phi emits a phi node. Incoming edges are added with AddIncoming once the
// predecessor blocks exist (needed for loop headers, whose back-edge
// predecessor is created after the phi itself).
func (b *Builder) Phi(name string, ty Type) *Instruction {
	inst := &Instruction{Op: OpPhi, Ty: ty, name: name}
	return b.append(inst)
}

// AddIncoming appends one incoming edge to a phi instruction and updates its
// use-list.
func AddIncoming(phi *Instruction, val Value, pred *BasicBlock) {
	phi.Incoming = append(phi.Incoming, Incoming{Value: val, Block: pred})
	if def, ok := val.(*Instruction); ok {
		def.addUse(phi)
	}
}

// Br emits a conditional branch terminator.
func (b *Builder) Br(cond Value, trueBlock, falseBlock *BasicBlock) *Instruction {
	inst := &Instruction{Op: OpBr, Cond: cond, TrueSuccess: trueBlock, FalseSuccess: falseBlock}
	b.append(inst)
	Link(b.blk, trueBlock)
	Link(b.blk, falseBlock)
	return inst
}

// RangeAnnotation emits the llvm.float.range intrinsic call that seeds FIA
// with an initial Range for val.
func (b *Builder) RangeAnnotation(val Value, min, max int64) *Instruction {
	inst := &Instruction{
		Op:     OpCall,
		Ty:     &IntType{Bits: 1},
		Callee: "llvm.float.range",
		Args:   []Value{val, NewConstInt(min, 64), NewConstInt(max, 64)},
	}
	return b.append(inst)
}

// Call emits a generic, non-intrinsic call instruction. FIA/PEA treat its
// result as an unsupported leaf (§4.3, §4.4: "non-constant leaf").
func (b *Builder) Call(name, callee string, ty Type, args ...Value) *Instruction {
	inst := &Instruction{Op: OpCall, Ty: ty, Callee: callee, Args: args, name: name}
	return b.append(inst)
}
