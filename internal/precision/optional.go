package precision

import "math"

// opt is a minimal optional float64 with invalid-propagating arithmetic:
// an unknown bound on either side makes the combined bound unknown.
type opt struct {
	v  float64
	ok bool
}

func some(v float64) opt { return opt{v: v, ok: true} }

var none = opt{}

func (a opt) add(b opt) opt {
	if !a.ok || !b.ok {
		return none
	}
	return some(a.v + b.v)
}

func (a opt) mul(b opt) opt {
	if !a.ok || !b.ok {
		return none
	}
	return some(a.v * b.v)
}

func (a opt) div(b opt) opt {
	if !a.ok || !b.ok {
		return none
	}
	return some(a.v / b.v)
}

func (a opt) pow(y float64) opt {
	if !a.ok {
		return none
	}
	return some(math.Pow(a.v, y))
}

// max2 propagates invalid: an unbounded input makes the combined bound
// genuinely unknown, not merely small.
func max2(a, b opt) opt {
	if !a.ok || !b.ok {
		return none
	}
	if a.v >= b.v {
		return a
	}
	return b
}
