package ir

// DominatorTree is a stand-in for the host compiler's dominator-tree
// analysis. It implements the iterative algorithm from Cooper, Harvey &
// Kennedy, "A Simple, Fast Dominance Algorithm".
type DominatorTree struct {
	idom  map[*BasicBlock]*BasicBlock
	index map[*BasicBlock]int
}

// NewDominatorTree computes the dominator tree of fn, rooted at its entry
// block.
func NewDominatorTree(fn *Function) *DominatorTree {
	if fn.Entry == nil {
		return &DominatorTree{idom: map[*BasicBlock]*BasicBlock{}, index: map[*BasicBlock]int{}}
	}

	rpo := reversePostorder(fn.Entry)
	index := make(map[*BasicBlock]int, len(rpo))
	for i, b := range rpo {
		index[b] = i
	}

	idom := make(map[*BasicBlock]*BasicBlock, len(rpo))
	idom[fn.Entry] = fn.Entry

	changed := true
	for changed {
		changed = false
		for _, b := range rpo[1:] {
			var newIdom *BasicBlock
			for _, pred := range b.Predecessors {
				if idom[pred] == nil {
					continue
				}
				if newIdom == nil {
					newIdom = pred
					continue
				}
				newIdom = intersect(pred, newIdom, idom, index)
			}
			if idom[b] != newIdom {
				idom[b] = newIdom
				changed = true
			}
		}
	}

	return &DominatorTree{idom: idom, index: index}
}

func intersect(b1, b2 *BasicBlock, idom map[*BasicBlock]*BasicBlock, index map[*BasicBlock]int) *BasicBlock {
	for b1 != b2 {
		for index[b1] > index[b2] {
			b1 = idom[b1]
		}
		for index[b2] > index[b1] {
			b2 = idom[b2]
		}
	}
	return b1
}

// Dominates reports whether a dominates b (every path from the entry block
// to b passes through a). A block dominates itself.
func (d *DominatorTree) Dominates(a, b *BasicBlock) bool {
	if a == b {
		return true
	}
	cur, ok := d.idom[b]
	if !ok {
		return false
	}
	for {
		if cur == a {
			return true
		}
		parent, ok := d.idom[cur]
		if !ok || parent == cur {
			return cur == a
		}
		cur = parent
	}
}

// InstructionDominates reports whether def dominates use. Within a single
// block, def dominates use when it is use itself or comes before it in the
// block's instruction list. Position, not ID, decides: instructions spliced
// in by InsertAfter/PushFront get fresh IDs wherever they land.
func (d *DominatorTree) InstructionDominates(def *Instruction, use *Instruction) bool {
	if def.Block == use.Block {
		for _, inst := range def.Block.Instructions {
			if inst == def {
				return true
			}
			if inst == use {
				return false
			}
		}
		return false
	}
	return d.Dominates(def.Block, use.Block)
}

// reversePostorder returns the blocks reachable from entry in reverse
// postorder, the order the dominator computation requires for fast
// convergence.
func reversePostorder(entry *BasicBlock) []*BasicBlock {
	visited := map[*BasicBlock]bool{}
	var post []*BasicBlock
	var visit func(b *BasicBlock)
	visit = func(b *BasicBlock) {
		if visited[b] {
			return
		}
		visited[b] = true
		for _, succ := range b.Successors {
			visit(succ)
		}
		post = append(post, b)
	}
	visit(entry)

	rpo := make([]*BasicBlock, len(post))
	for i, b := range post {
		rpo[len(post)-1-i] = b
	}
	return rpo
}
