package irtext

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kmanley/toyc/pkg/ir"
)

var (
	retRe     = regexp.MustCompile(`^ret\s+(\w+)\s+(.+)$`)
	brRe      = regexp.MustCompile(`^br\s+label\s+%(\S+)$`)
	condBrRe  = regexp.MustCompile(`^br\s+i1\s+(%\d+|true|false),\s*label\s+%(\S+),\s*label\s+%(\S+)$`)
	storeRe   = regexp.MustCompile(`^store\s+(\w+)\s+(%\d+|-?\d+|true|false),\s*ptr\s+(%\d+)(?:,\s*align\s+(\d+))?$`)
	defRe     = regexp.MustCompile(`^(%\d+)\s*=\s*(.*)$`)
	allocaRe  = regexp.MustCompile(`^alloca\s+(\w+)(?:,\s*align\s+(\d+))?$`)
	loadRe    = regexp.MustCompile(`^load\s+(\w+),\s*ptr\s+(%\d+)(?:,\s*align\s+(\d+))?$`)
	callRe    = regexp.MustCompile(`^call\s+(\w+)\s+@(\w+)\((.*)\)$`)
	callArgRe = regexp.MustCompile(`(?:i32\s+(?:noundef\s+)?)(%\d+|-?\d+)`)
	icmpRe    = regexp.MustCompile(`^icmp\s+(\w+)\s+(\w+)\s+(%\d+|-?\d+),\s*(%\d+|-?\d+)$`)
	arithRe   = regexp.MustCompile(`^(add|sub|mul|sdiv|srem)\s+(?:nsw\s+)?(\w+)\s+(%\d+|-?\d+),\s*(%\d+|-?\d+)$`)
)

// parseInstruction parses one trimmed instruction line, trying each
// mnemonic in the same priority order the printer would have emitted it:
// ret, br, store, then "%def = ..." forms. An unrecognized line yields a
// harmless "ret void" placeholder rather than a parse error, matching the
// original's leniency.
func parseInstruction(line string) *ir.Instruction {
	s := strings.TrimSpace(line)

	if s == "ret void" {
		return ir.MakeRetVoid()
	}
	if strings.HasPrefix(s, "ret ") {
		if m := retRe.FindStringSubmatch(s); m != nil {
			return ir.MakeRet(m[1], parseOperand(strings.TrimSpace(m[2])))
		}
		return ir.MakeRetVoid()
	}

	if strings.HasPrefix(s, "br label ") {
		if m := brRe.FindStringSubmatch(s); m != nil {
			return ir.MakeBr(ir.LabelOp(m[1]))
		}
	}
	if strings.HasPrefix(s, "br i1 ") {
		if m := condBrRe.FindStringSubmatch(s); m != nil {
			return ir.MakeCondBr(parseOperand(m[1]), ir.LabelOp(m[2]), ir.LabelOp(m[3]))
		}
	}

	if strings.HasPrefix(s, "store ") {
		if m := storeRe.FindStringSubmatch(s); m != nil {
			align := 4
			if m[4] != "" {
				align, _ = strconv.Atoi(m[4])
			}
			return ir.MakeStore(m[1], parseOperand(m[2]), parseOperand(m[3]), align)
		}
	}

	if m := defRe.FindStringSubmatch(s); m != nil {
		defOp := parseOperand(m[1])
		rhs := strings.TrimSpace(m[2])

		if strings.HasPrefix(rhs, "alloca ") {
			if am := allocaRe.FindStringSubmatch(rhs); am != nil {
				align := 4
				if am[2] != "" {
					align, _ = strconv.Atoi(am[2])
				}
				return ir.MakeAlloca(defOp, am[1], align)
			}
		}

		if strings.HasPrefix(rhs, "load ") {
			if lm := loadRe.FindStringSubmatch(rhs); lm != nil {
				align := 4
				if lm[3] != "" {
					align, _ = strconv.Atoi(lm[3])
				}
				return ir.MakeLoad(defOp, lm[1], parseOperand(lm[2]), align)
			}
		}

		if strings.HasPrefix(rhs, "call ") {
			if cm := callRe.FindStringSubmatch(rhs); cm != nil {
				retType, callee, argStr := cm[1], cm[2], cm[3]
				var args []ir.Operand
				if argStr != "" {
					for _, am := range callArgRe.FindAllStringSubmatch(argStr, -1) {
						args = append(args, parseOperand(am[1]))
					}
				}
				return ir.MakeCall(defOp, retType, callee, args)
			}
		}

		if strings.HasPrefix(rhs, "icmp ") {
			if im := icmpRe.FindStringSubmatch(rhs); im != nil {
				pred := ir.ParseCmpPred(im[1])
				return ir.MakeICmp(pred, defOp, im[2], parseOperand(im[3]), parseOperand(im[4]))
			}
		}

		if am := arithRe.FindStringSubmatch(rhs); am != nil {
			opc, _ := ir.ParseArithOpcode(am[1])
			return ir.MakeBinOp(opc, defOp, am[2], parseOperand(am[3]), parseOperand(am[4]))
		}
	}

	return ir.MakeRetVoid()
}

// parseOperand parses one operand token: "%N" is a vreg, "%name" (non
// numeric) is a label, "true"/"false" is a bool literal, and a bare
// (possibly negative) integer is an immediate.
func parseOperand(text string) ir.Operand {
	s := strings.TrimSpace(text)
	if s == "" {
		return ir.NoneOperand()
	}
	if s == "true" {
		return ir.BoolLit(true)
	}
	if s == "false" {
		return ir.BoolLit(false)
	}
	if strings.HasPrefix(s, "%") {
		rest := s[1:]
		if isAllDigits(rest) {
			n, _ := strconv.Atoi(rest)
			return ir.VReg(n)
		}
		return ir.LabelOp(rest)
	}
	if n, err := strconv.Atoi(s); err == nil {
		return ir.Imm(int32(n))
	}
	return ir.NoneOperand()
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
