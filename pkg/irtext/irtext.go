// Package irtext parses the LLVM-IR-compatible text produced by
// (*ir.Module).String back into an *ir.Module, so the core's textual form
// round-trips: Parse(m.String()) reconstructs a module equivalent to m.
// It mirrors the original toyc::IRParser.
package irtext

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"

	"github.com/kmanley/toyc/pkg/ir"
)

// Parse reads a whole module's text: every "define ..." line through its
// matching "}" is collected as one function and handed to
// parseFunctionFromDefAndBody.
func Parse(text string) *ir.Module {
	mod := ir.NewModule("", "")

	type funcText struct {
		defLine string
		body    strings.Builder
	}
	var funcs []*funcText

	var cur *funcText
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "define "):
			cur = &funcText{defLine: trimmed}
			funcs = append(funcs, cur)
		case cur != nil:
			if trimmed == "}" {
				cur = nil
			} else {
				cur.body.WriteString(line)
				cur.body.WriteByte('\n')
			}
		}
	}

	for _, ft := range funcs {
		if fn := parseFunctionFromDefAndBody(ft.defLine, ft.body.String()); fn != nil {
			mod.AddFunction(fn)
		}
	}
	return mod
}

// ParseFunction parses text and returns the function named name, or the
// first function if name is empty. It returns nil if no such function
// exists.
func ParseFunction(text, name string) *ir.Function {
	mod := Parse(text)
	if len(mod.Functions) == 0 {
		return nil
	}
	if name == "" {
		return mod.Functions[0]
	}
	return mod.FindFunction(name)
}

var (
	defNameRe = regexp.MustCompile(`@(\w+)`)
	paramRe   = regexp.MustCompile(`%(\d+)`)
)

// parseFunctionFromDefAndBody rebuilds one Function from its "define ..."
// header line and the raw text of its body (everything between the header
// and the closing brace).
func parseFunctionFromDefAndBody(defLine, body string) *ir.Function {
	name := ""
	if m := defNameRe.FindStringSubmatch(defLine); m != nil {
		name = m[1]
	}

	retType := "i32"
	if idx := strings.Index(defLine, "void"); idx >= 0 && idx < strings.Index(defLine, "@") {
		retType = "void"
	}

	paramVregs := parseParameters(defLine)
	params := make([]ir.FuncParam, len(paramVregs))
	for i, v := range paramVregs {
		params[i] = ir.FuncParam{Name: strconv.Itoa(v), Type: "i32"}
	}

	fn := ir.NewFunction(name, retType, params)
	fn.ParamVregs = paramVregs

	entry := ir.NewBasicBlock(0, "entry")
	fn.AddBlock(entry)
	currentBB := entry

	maxVreg := -1
	for _, v := range paramVregs {
		if v > maxVreg {
			maxVreg = v
		}
	}

	sc := bufio.NewScanner(strings.NewReader(body))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		trimmed := strings.TrimSpace(sc.Text())
		if trimmed == "" || strings.HasPrefix(trimmed, ";") {
			continue
		}

		if strings.HasSuffix(trimmed, ":") {
			label := strings.TrimSpace(strings.TrimSuffix(trimmed, ":"))
			bb := ir.NewBasicBlock(len(fn.Blocks), label)
			fn.AddBlock(bb)
			currentBB = bb
			continue
		}

		inst := parseInstruction(trimmed)
		if dr := inst.DefReg(); dr > maxVreg {
			maxVreg = dr
		}
		for _, u := range inst.UseRegs() {
			if u > maxVreg {
				maxVreg = u
			}
		}
		currentBB.Append(inst)
	}

	fn.MaxVregID = maxVreg
	return fn
}

// parseParameters pulls every "%N" vreg reference out of a define line's
// parenthesized parameter list, in left-to-right order.
func parseParameters(defLine string) []int {
	lp := strings.IndexByte(defLine, '(')
	rp := strings.IndexByte(defLine, ')')
	if lp < 0 || rp < 0 || rp < lp {
		return nil
	}
	matches := paramRe.FindAllStringSubmatch(defLine[lp+1:rp], -1)
	vregs := make([]int, 0, len(matches))
	for _, m := range matches {
		n, _ := strconv.Atoi(m[1])
		vregs = append(vregs, n)
	}
	return vregs
}
