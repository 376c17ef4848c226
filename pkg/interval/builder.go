package interval

import "github.com/kmanley/toyc/pkg/ir"

// Build constructs one merged LiveInterval per virtual register used in f,
// after liveness.Run(f) has populated its blocks' LiveIn/LiveOut/RPOOrder.
// Vregs with no live range at all (dead defs) are omitted.
func Build(f *ir.Function) map[int]*LiveInterval {
	intervals := make(map[int]*LiveInterval)
	for vreg := 0; vreg <= f.MaxVregID; vreg++ {
		iv := New(vreg)
		buildIntervalForVreg(f, vreg, iv)
		if !iv.Empty() {
			intervals[vreg] = iv
		}
	}
	return intervals
}

// buildIntervalForVreg walks f's blocks in RPO, extending iv with the exact
// live range vreg occupies in each block: from its cross-block liveIn point
// (or its first local def/use) to its cross-block liveOut point (or its
// last local use). A def that is never used and not live-out adds no range.
func buildIntervalForVreg(f *ir.Function, vreg int, iv *LiveInterval) {
	for _, bb := range f.RPOOrder {
		_, liveAtStart := bb.LiveIn[vreg]
		_, liveAtEnd := bb.LiveOut[vreg]

		if !liveAtStart && !liveAtEnd {
			hasDefUse := false
			for _, inst := range bb.Insts {
				if inst.DefReg() == vreg {
					hasDefUse = true
					break
				}
				for _, u := range inst.UseRegs() {
					if u == vreg {
						hasDefUse = true
						break
					}
				}
				if hasDefUse {
					break
				}
			}
			if !hasDefUse {
				continue
			}
		}

		rangeStart, rangeEnd := -1, -1
		if liveAtStart {
			rangeStart = bb.FirstPos()
		}
		if liveAtEnd {
			rangeEnd = bb.LastPos()
		}

		for _, inst := range bb.Insts {
			if inst.DefReg() == vreg {
				if rangeStart == -1 {
					rangeStart = inst.PosDef()
				}
				if liveAtEnd {
					rangeEnd = bb.LastPos()
				}
			}
			for _, u := range inst.UseRegs() {
				if u != vreg {
					continue
				}
				if rangeStart == -1 {
					if liveAtStart {
						rangeStart = bb.FirstPos()
					} else {
						rangeStart = inst.PosUse()
					}
				}
				if inst.PosUse() > rangeEnd {
					rangeEnd = inst.PosUse()
				}
				break
			}
		}

		if rangeStart != -1 && rangeEnd != -1 {
			iv.AddRange(rangeStart, rangeEnd)
		}
	}
}
