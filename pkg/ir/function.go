package ir

// FuncParam is one formal parameter: a name (matching the vreg it is bound
// to, e.g. "0", "1"...) and its static type, always "i32" in this core.
type FuncParam struct {
	Name string
	Type string
}

// Function owns an ordered list of basic blocks, the first of which is
// always its entry block. RPOOrder, ParamVregs and MaxVregID are computed
// once the function is fully built; nothing recomputes them automatically.
type Function struct {
	Name       string
	ReturnType string // "i32" or "void"
	Params     []FuncParam

	Blocks   []*BasicBlock
	BlockMap map[string]*BasicBlock

	RPOOrder   []*BasicBlock
	ParamVregs []int
	MaxVregID  int
}

// NewFunction creates an empty function ready to receive blocks.
func NewFunction(name, returnType string, params []FuncParam) *Function {
	return &Function{
		Name:       name,
		ReturnType: returnType,
		Params:     params,
		BlockMap:   make(map[string]*BasicBlock),
		MaxVregID:  -1,
	}
}

// AddBlock appends a block and indexes it by name for BuildCFG/lookups.
func (f *Function) AddBlock(b *BasicBlock) {
	f.Blocks = append(f.Blocks, b)
	f.BlockMap[b.Name] = b
}

// EntryBlock returns the function's first block, or nil if it has none.
func (f *Function) EntryBlock() *BasicBlock {
	if len(f.Blocks) == 0 {
		return nil
	}
	return f.Blocks[0]
}

// BuildCFG (re)computes every block's Succs/Preds from its terminator's
// branch targets. A block with no terminator falls through to whichever
// block is textually next in f.Blocks — positional adjacency, not a stored
// "next" pointer, matching the original's Function::buildCFG.
func (f *Function) BuildCFG() {
	for _, b := range f.Blocks {
		b.Succs = nil
		b.Preds = nil
	}
	for idx, b := range f.Blocks {
		if len(b.Insts) == 0 {
			continue
		}
		last := b.Insts[len(b.Insts)-1]
		if last.IsTerminator() {
			for _, target := range last.BranchTargets() {
				if succ, ok := f.BlockMap[target]; ok {
					b.Succs = append(b.Succs, succ)
					succ.Preds = append(succ.Preds, b)
				}
			}
		} else if idx+1 < len(f.Blocks) {
			next := f.Blocks[idx+1]
			b.Succs = append(b.Succs, next)
			next.Preds = append(next.Preds, b)
		}
	}
}

// String renders the function as LLVM-IR-compatible text: a define header,
// the entry block's instructions with no label, then each subsequent block
// prefixed by a blank line and its label.
func (f *Function) String() string {
	retTy := "i32"
	if f.ReturnType == "void" {
		retTy = "void"
	}
	s := "define dso_local " + retTy + " @" + f.Name + "("
	for i, p := range f.Params {
		if i > 0 {
			s += ", "
		}
		s += "i32 noundef %" + p.Name
	}
	s += ") #0 {\n"

	for bi, bb := range f.Blocks {
		if bi > 0 {
			s += "\n" + bb.Name + ":\n"
		}
		for _, inst := range bb.Insts {
			s += "  " + inst.String() + "\n"
		}
	}
	s += "}\n"
	return s
}
