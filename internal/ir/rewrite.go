package ir

// This file exposes the mutation primitives the float-to-fixed pass needs to
// rewrite instructions in place and splice new ones into a block, without
// giving every caller free rein over use-list bookkeeping.

// AllocID reserves the next instruction ID for fn.
func (f *Function) AllocID() int {
	id := f.nextID
	f.nextID++
	return id
}

// SetName gives an instruction a result name (used only for printing).
func (i *Instruction) SetName(name string) { i.name = name }

// DropUse removes user from def's use-list, if present.
func DropUse(def, user *Instruction) {
	for idx, u := range def.uses {
		if u == user {
			def.uses = append(def.uses[:idx], def.uses[idx+1:]...)
			return
		}
	}
}

// RecordUse appends user to def's use-list.
func RecordUse(def, user *Instruction) { def.addUse(user) }

// Rewrite replaces inst's opcode, type and operand list in place, dropping
// its use-list entries on the old operands and recording them on the new
// ones. It does not touch Incoming/Args/Cond/Src; callers mutating a phi or
// call use DropUse/RecordUse directly.
func (i *Instruction) Rewrite(op Opcode, ty Type, operands []Value) {
	for _, old := range i.Operands {
		if def, ok := old.(*Instruction); ok {
			DropUse(def, i)
		}
	}
	i.Op = op
	i.Ty = ty
	i.Operands = operands
	for _, v := range operands {
		if def, ok := v.(*Instruction); ok {
			RecordUse(def, i)
		}
	}
}

// ReplaceOperand substitutes every occurrence of old with new across i's
// opcode-specific operand fields, updating use-lists accordingly. It is a
// no-op if old does not occur.
func (i *Instruction) ReplaceOperand(old, new Value) {
	replaced := false
	for idx, op := range i.Operands {
		if op == old {
			i.Operands[idx] = new
			replaced = true
		}
	}
	for idx, in := range i.Incoming {
		if in.Value == old {
			i.Incoming[idx].Value = new
			replaced = true
		}
	}
	for idx, a := range i.Args {
		if a == old {
			i.Args[idx] = new
			replaced = true
		}
	}
	if i.Cond == old {
		i.Cond = new
		replaced = true
	}
	if i.Src == old {
		i.Src = new
		replaced = true
	}
	if !replaced {
		return
	}
	if def, ok := old.(*Instruction); ok {
		DropUse(def, i)
	}
	if def, ok := new.(*Instruction); ok {
		RecordUse(def, i)
	}
}

// ReplaceAllUsesWith redirects every recorded user of old to new, and clears
// old's use-list, except for new's own use of old (new is never rewritten to
// refer to itself). Used when a single float instruction is rewritten into a
// pair of fixed-point instructions (FMul->Mul+AShr, FDiv->Shl+SDiv): old is
// the first half, still read by new, the second half.
func ReplaceAllUsesWith(old, new *Instruction) {
	users := append([]*Instruction(nil), old.uses...)
	var remaining []*Instruction
	for _, user := range users {
		if user == new {
			remaining = append(remaining, user)
			continue
		}
		user.ReplaceOperand(old, new)
	}
	old.uses = remaining
}

// Erase unlinks inst from its block and drops its use-list records on its
// operands. Only safe once nothing reads inst's result.
func Erase(inst *Instruction) {
	for _, op := range inst.AllOperands() {
		if def, ok := op.(*Instruction); ok {
			DropUse(def, inst)
		}
	}
	b := inst.Block
	for idx, cur := range b.Instructions {
		if cur == inst {
			b.Instructions = append(b.Instructions[:idx], b.Instructions[idx+1:]...)
			break
		}
	}
}

// InsertAfter splices newInst into anchor's block immediately after anchor,
// assigning it an ID and recording its use-list.
func InsertAfter(anchor, newInst *Instruction) *Instruction {
	b := anchor.Block
	newInst.ID = b.Function.AllocID()
	newInst.Block = b
	for idx, cur := range b.Instructions {
		if cur == anchor {
			b.Instructions = append(b.Instructions, nil)
			copy(b.Instructions[idx+2:], b.Instructions[idx+1:])
			b.Instructions[idx+1] = newInst
			break
		}
	}
	recordUses(newInst)
	return newInst
}

// PushFront inserts newInst at the very start of b, ahead of every existing
// instruction, used for conversions anchored on a function argument, which
// has no instruction to insert after.
func PushFront(b *BasicBlock, newInst *Instruction) *Instruction {
	newInst.ID = b.Function.AllocID()
	newInst.Block = b
	b.Instructions = append([]*Instruction{newInst}, b.Instructions...)
	recordUses(newInst)
	return newInst
}
