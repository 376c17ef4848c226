// Package interval builds, from a completed liveness analysis, one merged
// live interval per virtual register: a sorted list of non-overlapping
// [start, end] ranges over the two-point instruction position space.
package interval

import "math"

// LiveRange is one contiguous span of liveness, inclusive on both ends,
// expressed in the two-point position space (ir.Instruction.PosDef/PosUse).
type LiveRange struct {
	Start, End int
}

func (r LiveRange) overlaps(o LiveRange) bool {
	return !(r.End < o.Start || o.End < r.Start)
}

func (r LiveRange) adjacent(o LiveRange) bool {
	return r.End+1 == o.Start || o.End+1 == r.Start
}

// LiveInterval is the merged live range of one virtual register, plus its
// eventual allocation outcome: PhysReg >= 0 if register-allocated,
// SpillSlot a negative stack offset (-4, -8, ...) if spilled, -1 otherwise.
type LiveInterval struct {
	VReg      int
	Ranges    []LiveRange
	SpillSlot int
	PhysReg   int
}

// New creates an empty interval for vreg, unallocated.
func New(vreg int) *LiveInterval {
	return &LiveInterval{VReg: vreg, SpillSlot: -1, PhysReg: -1}
}

// AddRange merges [start, end] into the interval's range list, coalescing
// any ranges it overlaps or directly abuts.
func (li *LiveInterval) AddRange(start, end int) {
	nr := LiveRange{start, end}
	var merged []LiveRange
	placed := false

	for _, r := range li.Ranges {
		switch {
		case nr.overlaps(r) || nr.adjacent(r):
			nr = LiveRange{min(nr.Start, r.Start), max(nr.End, r.End)}
		case !placed && nr.Start < r.Start:
			merged = append(merged, nr, r)
			placed = true
		default:
			merged = append(merged, r)
		}
	}
	if !placed {
		merged = append(merged, nr)
	}

	li.Ranges = li.Ranges[:0]
	for _, r := range merged {
		if n := len(li.Ranges); n > 0 && (li.Ranges[n-1].overlaps(r) || li.Ranges[n-1].adjacent(r)) {
			li.Ranges[n-1] = LiveRange{
				min(li.Ranges[n-1].Start, r.Start),
				max(li.Ranges[n-1].End, r.End),
			}
		} else {
			li.Ranges = append(li.Ranges, r)
		}
	}
}

// Contains reports whether pos falls inside any range of the interval.
func (li *LiveInterval) Contains(pos int) bool {
	for _, r := range li.Ranges {
		if pos >= r.Start && pos <= r.End {
			return true
		}
	}
	return false
}

// Empty reports whether the interval has no ranges at all.
func (li *LiveInterval) Empty() bool { return len(li.Ranges) == 0 }

// Start returns the earliest live position, or math.MaxInt for an empty
// interval so it naturally sorts last.
func (li *LiveInterval) Start() int {
	if len(li.Ranges) == 0 {
		return math.MaxInt
	}
	return li.Ranges[0].Start
}

// End returns the latest live position, or -1 for an empty interval.
func (li *LiveInterval) End() int {
	if len(li.Ranges) == 0 {
		return -1
	}
	return li.Ranges[len(li.Ranges)-1].End
}

