package ir

// BasicBlock is a straight-line sequence of instructions ending in a
// terminator (or, mid-construction, ending in a fallthrough to the next
// block in the owning function). Successor/predecessor lists are
// non-owning — they are populated by Function.BuildCFG and are only valid
// as long as the owning function is alive.
type BasicBlock struct {
	ID    int
	Name  string
	Insts []*Instruction

	Succs []*BasicBlock
	Preds []*BasicBlock

	// Liveness data, filled in by pkg/liveness.
	DefSet  map[int]struct{}
	UseSet  map[int]struct{}
	LiveIn  map[int]struct{}
	LiveOut map[int]struct{}
}

// NewBasicBlock creates an empty block with the given id and label.
func NewBasicBlock(id int, name string) *BasicBlock {
	return &BasicBlock{ID: id, Name: name}
}

// Append adds an instruction to the end of the block.
func (b *BasicBlock) Append(inst *Instruction) {
	b.Insts = append(b.Insts, inst)
}

// Terminator returns the block's last instruction if it is a terminator,
// else nil.
func (b *BasicBlock) Terminator() *Instruction {
	if len(b.Insts) == 0 {
		return nil
	}
	last := b.Insts[len(b.Insts)-1]
	if last.IsTerminator() {
		return last
	}
	return nil
}

// FirstPos returns the linear position of the block's first instruction
// (its def-position), or -1 for an empty block.
func (b *BasicBlock) FirstPos() int {
	if len(b.Insts) == 0 {
		return -1
	}
	return b.Insts[0].PosDef()
}

// LastPos returns the linear position of the block's last instruction (its
// use-position), or -1 for an empty block.
func (b *BasicBlock) LastPos() int {
	if len(b.Insts) == 0 {
		return -1
	}
	return b.Insts[len(b.Insts)-1].PosUse()
}
