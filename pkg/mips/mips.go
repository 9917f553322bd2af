// Package mips implements the MIPS Emitter: the final pass that walks a
// colored TAC stream and renders SPIM-compatible assembly text. Operands
// whose Location was colored read and write a physical register
// directly; spilled and global Locations round-trip through $at/$v1
// scratch registers around each use, since register allocation never
// assigns those two.
package mips

import (
	"fmt"
	"sort"
	"strings"

	"github.com/decaflang/dcc/pkg/location"
	"github.com/decaflang/dcc/pkg/regalloc"
	"github.com/decaflang/dcc/pkg/tac"
)

// scratch registers reserved for spilled/global operand traffic; never
// assigned by pkg/regalloc (its PhysicalRegisters set is limited to
// t0-t9 and s0-s7).
const (
	scratchA = "$at"
	scratchB = "$v1"
	result   = "$v0" // holds LCall/ACall's return value on entry to the caller
)

// Assembler renders one translation unit's colored TAC into assembly
// text. It is a value, not a singleton: nothing here is package-level
// mutable state.
type Assembler struct {
	strings  map[string]string // literal -> label, insertion order tracked by strOrder
	strOrder []string

	globals []*location.Location // GP-relative Locations seen, for the .data section
	seenGP  map[string]bool

	vtables []*tac.Instruction // OpVTable instructions, emitted to .data in program order
}

// New returns a ready Assembler.
func New() *Assembler {
	return &Assembler{
		strings: make(map[string]string),
		seenGP:  make(map[string]bool),
	}
}

// Assemble renders prog's instructions as a complete .data/.text MIPS
// program.
func Assemble(prog *tac.Program) (string, error) {
	a := New()
	return a.assembleProgram(prog)
}

func (a *Assembler) assembleProgram(prog *tac.Program) (string, error) {
	// First pass: collect string literals, globals, and vtables so the
	// .data section can precede .text, then render .text into a separate
	// builder (label/scratch assignment needs nothing from .data beyond
	// the labels computed in this pass).
	var text strings.Builder
	var curFunc string
	var mainSeen bool

	for i, in := range prog.Instructions {
		switch in.Op {
		case tac.OpLoadConstString:
			a.internString(in.ImmStr)
		case tac.OpVTable:
			a.vtables = append(a.vtables, in)
		}
		for _, loc := range []*location.Location{in.Dst, in.Src1, in.Src2} {
			if loc != nil && loc.Segment == location.GPRelative && !a.seenGP[loc.Name] {
				a.seenGP[loc.Name] = true
				a.globals = append(a.globals, loc)
			}
		}
		if in.Op == tac.OpBeginFunc {
			curFunc = in.Begin.Name
			if curFunc == "main" {
				mainSeen = true
			}
		}
		lines, err := a.translate(in, curFunc)
		if err != nil {
			return "", fmt.Errorf("mips: instruction %d (%s): %w", i, in, err)
		}
		for _, l := range lines {
			writeLine(&text, l)
		}
	}
	if !mainSeen {
		return "", fmt.Errorf("mips: no main function in TAC stream")
	}

	var out strings.Builder
	out.WriteString(".data\n")
	a.writeData(&out)
	out.WriteString("\n.text\n.globl main\n")
	out.WriteString(text.String())
	return out.String(), nil
}

func writeLine(b *strings.Builder, line string) {
	if strings.HasSuffix(line, ":") {
		fmt.Fprintf(b, "%s\n", line)
	} else {
		fmt.Fprintf(b, "\t%s\n", line)
	}
}

// internString assigns literal a stable, first-use-ordered label so two
// occurrences of the same literal share one .data entry.
func (a *Assembler) internString(literal string) string {
	if label, ok := a.strings[literal]; ok {
		return label
	}
	label := fmt.Sprintf("_string%d", len(a.strOrder))
	a.strings[literal] = label
	a.strOrder = append(a.strOrder, literal)
	return label
}

func globalLabel(name string) string {
	return "gbl_" + name
}

func vtableLabel(class string) string {
	return "vtbl_" + class
}

// writeData renders the .data section: globals (in first-use order,
// which is deterministic because Assemble walks the instruction stream
// once, in order), then string literals, then vtables.
func (a *Assembler) writeData(out *strings.Builder) {
	for _, g := range a.globals {
		fmt.Fprintf(out, "%s:\t.word 0\n", globalLabel(g.Name))
	}
	for i, literal := range a.strOrder {
		fmt.Fprintf(out, "_string%d:\t.asciiz %s\n", i, quoteMIPS(literal))
	}
	for _, v := range a.vtables {
		labels := make([]string, len(v.VTableLabels))
		for i, l := range v.VTableLabels {
			if l == "" {
				// an interface slot a class never filled in (semantic
				// analysis should have rejected this); point at the
				// class's own label so assembly stays well-formed.
				labels[i] = vtableLabel(v.VTableClass)
				continue
			}
			labels[i] = l
		}
		fmt.Fprintf(out, "%s:\t.word %s\n", vtableLabel(v.VTableClass), strings.Join(labels, ", "))
	}
}

func quoteMIPS(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// loadOperand returns the register name holding loc's value, plus any
// lines that must run first to get it there. loc == nil means the
// operand isn't used by this instruction (no lines, empty name).
func (a *Assembler) loadOperand(loc *location.Location, scratch string) (string, []string) {
	if loc == nil {
		return "", nil
	}
	if loc.Register != location.RegNone {
		return regalloc.Name(loc.Register), nil
	}
	switch loc.Segment {
	case location.GPRelative:
		return scratch, []string{
			fmt.Sprintf("la %s, %s", scratch, globalLabel(loc.Name)),
			fmt.Sprintf("lw %s, 0(%s)", scratch, scratch),
		}
	default: // FPRelative, spilled
		return scratch, []string{fmt.Sprintf("lw %s, %d($fp)", scratch, loc.Offset)}
	}
}

// storeResult returns the register to compute into, and lines to run
// after the computation to commit it to memory if loc was spilled (or
// is a global, always memory-resident).
func (a *Assembler) storeResult(loc *location.Location, scratch string) (string, []string) {
	if loc == nil {
		return scratch, nil
	}
	if loc.Register != location.RegNone {
		return regalloc.Name(loc.Register), nil
	}
	switch loc.Segment {
	case location.GPRelative:
		// The global's address goes in $at, so a value computed into $at
		// moves to $v1 first.
		val := scratch
		var lines []string
		if scratch == scratchA {
			lines = append(lines, fmt.Sprintf("move %s, %s", scratchB, scratchA))
			val = scratchB
		}
		return scratch, append(lines,
			fmt.Sprintf("la %s, %s", scratchA, globalLabel(loc.Name)),
			fmt.Sprintf("sw %s, 0(%s)", val, scratchA),
		)
	default:
		return scratch, []string{fmt.Sprintf("sw %s, %d($fp)", scratch, loc.Offset)}
	}
}

// spillAcrossCall returns the lines that save every colored Location
// live across call (to its fp slot, the same slot a spilled Location
// would use) and the lines that reload them afterward. t0-t9 and s0-s7
// are both treated as caller-saved here, since the prologue/epilogue
// save neither, so anything live in a register across a jal/jalr would
// otherwise be clobbered by the callee. call's own Dst is excluded:
// the call is about to overwrite it, so its old value needs no saving.
func (a *Assembler) spillAcrossCall(call *tac.Instruction) (spill, refill []string) {
	if call.LiveOut == nil {
		return nil, nil
	}
	for _, loc := range call.LiveOut.Sorted() {
		if loc.Register == location.RegNone {
			continue
		}
		if call.Dst != nil && loc.Key() == call.Dst.Key() {
			continue
		}
		reg := regalloc.Name(loc.Register)
		spill = append(spill, fmt.Sprintf("sw %s, %d($fp)", reg, loc.Offset))
		refill = append(refill, fmt.Sprintf("lw %s, %d($fp)", reg, loc.Offset))
	}
	return spill, refill
}

// translate lowers a single TAC instruction to zero or more assembly
// lines (labels included as their own "label:" line).
func (a *Assembler) translate(in *tac.Instruction, funcLabel string) ([]string, error) {
	switch in.Op {
	case tac.OpLabel:
		return []string{in.Label + ":"}, nil

	case tac.OpLoadConstInt:
		dstReg, post := a.storeResult(in.Dst, scratchA)
		return append([]string{fmt.Sprintf("li %s, %d", dstReg, in.ImmInt)}, post...), nil

	case tac.OpLoadConstBool:
		dstReg, post := a.storeResult(in.Dst, scratchA)
		return append([]string{fmt.Sprintf("li %s, %d", dstReg, in.ImmInt)}, post...), nil

	case tac.OpLoadConstString:
		dstReg, post := a.storeResult(in.Dst, scratchA)
		label := a.internString(in.ImmStr)
		return append([]string{fmt.Sprintf("la %s, %s", dstReg, label)}, post...), nil

	case tac.OpLoadLabel:
		dstReg, post := a.storeResult(in.Dst, scratchA)
		return append([]string{fmt.Sprintf("la %s, %s", dstReg, in.Label)}, post...), nil

	case tac.OpAssign:
		srcReg, pre := a.loadOperand(in.Src1, scratchA)
		dstReg, post := a.storeResult(in.Dst, scratchA)
		lines := append([]string{}, pre...)
		if srcReg != dstReg {
			lines = append(lines, fmt.Sprintf("move %s, %s", dstReg, srcReg))
		}
		return append(lines, post...), nil

	case tac.OpLoad:
		baseReg, pre := a.loadOperand(in.Src1, scratchA)
		dstReg, post := a.storeResult(in.Dst, scratchB)
		lines := append([]string{}, pre...)
		lines = append(lines, fmt.Sprintf("lw %s, %d(%s)", dstReg, in.Offset, baseReg))
		return append(lines, post...), nil

	case tac.OpStore:
		baseReg, prebase := a.loadOperand(in.Dst, scratchA)
		valReg, preval := a.loadOperand(in.Src1, scratchB)
		lines := append([]string{}, prebase...)
		lines = append(lines, preval...)
		lines = append(lines, fmt.Sprintf("sw %s, %d(%s)", valReg, in.Offset, baseReg))
		return lines, nil

	case tac.OpBinaryOp:
		return a.translateBinaryOp(in)

	case tac.OpGoto:
		return []string{"j " + in.Label}, nil

	case tac.OpIfZ:
		condReg, pre := a.loadOperand(in.Src1, scratchA)
		return append(pre, fmt.Sprintf("beq %s, $zero, %s", condReg, in.Label)), nil

	case tac.OpBeginFunc:
		return a.prologue(in.Begin), nil

	case tac.OpEndFunc:
		return a.epilogue(funcLabel), nil

	case tac.OpReturn:
		var lines []string
		if in.Src1 != nil {
			reg, pre := a.loadOperand(in.Src1, scratchA)
			lines = append(lines, pre...)
			if reg != result {
				lines = append(lines, fmt.Sprintf("move %s, %s", result, reg))
			}
		}
		lines = append(lines, a.epilogue(funcLabel)...)
		return lines, nil

	case tac.OpPushParam:
		reg, pre := a.loadOperand(in.Src1, scratchA)
		lines := append([]string{}, pre...)
		lines = append(lines, "subu $sp, $sp, 4", fmt.Sprintf("sw %s, 4($sp)", reg))
		return lines, nil

	case tac.OpPopParams:
		if in.NumBytes == 0 {
			return nil, nil
		}
		return []string{fmt.Sprintf("addu $sp, $sp, %d", in.NumBytes)}, nil

	case tac.OpLCall:
		spill, refill := a.spillAcrossCall(in)
		lines := append([]string{}, spill...)
		lines = append(lines, "jal "+in.FuncLabel)
		if in.Dst != nil {
			dstReg, post := a.storeResult(in.Dst, scratchA)
			if dstReg != result {
				lines = append(lines, fmt.Sprintf("move %s, %s", dstReg, result))
			}
			lines = append(lines, post...)
		}
		return append(lines, refill...), nil

	case tac.OpACall:
		targetReg, pre := a.loadOperand(in.Src1, scratchA)
		spill, refill := a.spillAcrossCall(in)
		lines := append([]string{}, pre...)
		lines = append(lines, spill...)
		lines = append(lines, fmt.Sprintf("jalr %s", targetReg))
		if in.Dst != nil {
			dstReg, post := a.storeResult(in.Dst, scratchA)
			if dstReg != result {
				lines = append(lines, fmt.Sprintf("move %s, %s", dstReg, result))
			}
			lines = append(lines, post...)
		}
		return append(lines, refill...), nil

	case tac.OpVTable:
		return nil, nil // rendered into .data by writeData

	default:
		return nil, fmt.Errorf("unsupported opcode %s", in.Op)
	}
}

func (a *Assembler) translateBinaryOp(in *tac.Instruction) ([]string, error) {
	lReg, preL := a.loadOperand(in.Src1, scratchA)
	rReg, preR := a.loadOperand(in.Src2, scratchB)
	dstReg, post := a.storeResult(in.Dst, scratchA)
	lines := append([]string{}, preL...)
	lines = append(lines, preR...)

	switch in.BinOp {
	case tac.BinAdd:
		lines = append(lines, fmt.Sprintf("add %s, %s, %s", dstReg, lReg, rReg))
	case tac.BinSub:
		lines = append(lines, fmt.Sprintf("sub %s, %s, %s", dstReg, lReg, rReg))
	case tac.BinMul:
		lines = append(lines, fmt.Sprintf("mul %s, %s, %s", dstReg, lReg, rReg))
	case tac.BinDiv:
		lines = append(lines, fmt.Sprintf("div %s, %s", lReg, rReg), fmt.Sprintf("mflo %s", dstReg))
	case tac.BinMod:
		lines = append(lines, fmt.Sprintf("div %s, %s", lReg, rReg), fmt.Sprintf("mfhi %s", dstReg))
	case tac.BinLess:
		lines = append(lines, fmt.Sprintf("slt %s, %s, %s", dstReg, lReg, rReg))
	case tac.BinEqual:
		lines = append(lines, fmt.Sprintf("seq %s, %s, %s", dstReg, lReg, rReg))
	case tac.BinAnd:
		lines = append(lines, fmt.Sprintf("and %s, %s, %s", dstReg, lReg, rReg))
	case tac.BinOr:
		lines = append(lines, fmt.Sprintf("or %s, %s, %s", dstReg, lReg, rReg))
	default:
		return nil, fmt.Errorf("unsupported binary operator %s", in.BinOp)
	}
	return append(lines, post...), nil
}

// prologue reserves the saved-fp/ra slots, links fp to the caller's
// frame boundary, and reserves the locals/temporaries area: the
// classic Decaf MIPS entry sequence. Formals were already pushed by the
// caller at positive offsets from the fp this establishes; any formal
// the allocator colored is then loaded out of that slot into its
// register, since nothing else ever writes to the register on entry.
func (a *Assembler) prologue(begin *tac.BeginFuncInfo) []string {
	lines := []string{
		"subu $sp, $sp, 8",
		"sw $fp, 8($sp)",
		"sw $ra, 4($sp)",
		"addiu $fp, $sp, 8",
	}
	if begin.FrameSize > 0 {
		lines = append(lines, fmt.Sprintf("subu $sp, $sp, %d", begin.FrameSize))
	}
	for _, f := range begin.Formals {
		if f != nil && f.Register != location.RegNone {
			lines = append(lines, fmt.Sprintf("lw %s, %d($fp)", regalloc.Name(f.Register), f.Offset))
		}
	}
	return lines
}

// epilogue restores the caller's frame and returns. main never returns
// to a caller (nothing called it): it exits via syscall 10 instead of
// jr $ra, since $ra is meaningless on program entry.
func (a *Assembler) epilogue(funcLabel string) []string {
	lines := []string{
		"addiu $sp, $fp, -8",
		"lw $fp, 8($sp)",
		"lw $ra, 4($sp)",
		"addiu $sp, $sp, 8",
	}
	if funcLabel == "main" {
		return append(lines, "li $v0, 10", "syscall")
	}
	return append(lines, "jr $ra")
}

// sortedGlobalNames returns the names of locs in alphabetical order. The
// .data section does not use this order: writeData lists globals in
// first-use order.
func sortedGlobalNames(locs []*location.Location) []string {
	names := make([]string, len(locs))
	for i, l := range locs {
		names[i] = l.Name
	}
	sort.Strings(names)
	return names
}
