package ir

// ScalarEvolution is a stand-in for the host compiler's scalar-evolution
// analysis, reduced to the single fact the passes need: a loop's maximum
// backedge-taken count, when statically known. A real implementation derives
// this from induction-variable recurrences; here the IR-construction side
// supplies the literal directly.
type ScalarEvolution struct {
	tripCounts map[*BasicBlock]uint64
}

// NewScalarEvolution creates an empty trip-count table; every loop starts
// with an unknown trip count.
func NewScalarEvolution() *ScalarEvolution {
	return &ScalarEvolution{tripCounts: map[*BasicBlock]uint64{}}
}

// SetMaxBackedgeTakenCount records that the loop headed by header runs its
// back edge at most count times.
func (s *ScalarEvolution) SetMaxBackedgeTakenCount(header *BasicBlock, count uint64) {
	s.tripCounts[header] = count
}

// MaxBackedgeTakenCount returns the loop's statically known trip count, and
// whether one is known at all.
func (s *ScalarEvolution) MaxBackedgeTakenCount(loop *Loop) (uint64, bool) {
	if loop == nil {
		return 0, false
	}
	count, ok := s.tripCounts[loop.Header]
	return count, ok
}
