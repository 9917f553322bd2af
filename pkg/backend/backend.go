// Package backend wires the fixed pipeline together: Layout Planner,
// TAC Emitter, CFG Builder, Liveness Analyzer, Register Allocator, and
// MIPS Emitter run in that order over one checked *ast.Program. Pipeline
// is an ordinary value, not a process-wide singleton.
package backend

import (
	"fmt"

	"github.com/decaflang/dcc/pkg/ast"
	"github.com/decaflang/dcc/pkg/cfg"
	"github.com/decaflang/dcc/pkg/emit"
	"github.com/decaflang/dcc/pkg/layout"
	"github.com/decaflang/dcc/pkg/liveness"
	"github.com/decaflang/dcc/pkg/mips"
	"github.com/decaflang/dcc/pkg/regalloc"
	"github.com/decaflang/dcc/pkg/tac"
)

// Pipeline runs the back end's six passes. It carries no state between
// calls to Compile; every field a pass needs is constructed fresh.
type Pipeline struct{}

// New returns a ready Pipeline.
func New() *Pipeline {
	return &Pipeline{}
}

// Result is everything a caller might want out of a successful
// compilation: the TAC stream (for -d tac/-d cfg/-d live dumps) and the
// final assembly text.
type Result struct {
	TAC      *tac.Program
	Assembly string
}

// Compile runs every pass over prog and returns the assembled MIPS
// program.
func (p *Pipeline) Compile(prog *ast.Program) (*Result, error) {
	tacProg, err := p.EmitTAC(prog)
	if err != nil {
		return nil, err
	}
	if err := p.Allocate(tacProg); err != nil {
		return nil, err
	}
	asm, err := mips.Assemble(tacProg)
	if err != nil {
		return nil, err
	}
	return &Result{TAC: tacProg, Assembly: asm}, nil
}

// EmitTAC runs the Layout Planner and the TAC Emitter and links the
// result into a CFG, stopping short of liveness/allocation: enough for
// a `-d tac` dump, and the shared prefix `-d cfg`/`-d live` build on.
func (p *Pipeline) EmitTAC(prog *ast.Program) (*tac.Program, error) {
	planner := layout.New()
	if err := planner.Plan(prog); err != nil {
		return nil, err
	}

	tacProg, err := emit.New(planner).EmitProgram(prog)
	if err != nil {
		return nil, err
	}

	if err := cfg.Build(tacProg.Instructions); err != nil {
		return nil, err
	}
	return tacProg, nil
}

// Allocate runs liveness analysis and register allocation over every
// function in tacProg, in place: each Location's Register field is
// mutated directly, visible to every other reference sharing the same
// pointer (pkg/location's identity design note).
func (p *Pipeline) Allocate(tacProg *tac.Program) error {
	for _, fn := range SplitFunctions(tacProg.Instructions) {
		liveness.Analyze(fn)

		begin, ok := beginOf(fn)
		if !ok {
			return fmt.Errorf("backend: function body missing BeginFunc")
		}
		g := regalloc.BuildInterferenceGraph(fn)
		begin.Interferes = g
		regalloc.Color(g)
	}
	return nil
}

// SplitFunctions partitions a linear instruction stream into one slice
// per function, each running from its BeginFunc through its EndFunc
// inclusive: the unit liveness.Analyze and regalloc.BuildInterferenceGraph
// operate over. Exported so callers needing a stage between EmitTAC and
// Allocate (e.g. a `-d live` dump) can reuse the same partitioning.
func SplitFunctions(instrs []*tac.Instruction) [][]*tac.Instruction {
	var funcs [][]*tac.Instruction
	var cur []*tac.Instruction
	for _, in := range instrs {
		if in.Op == tac.OpBeginFunc {
			cur = []*tac.Instruction{in}
			continue
		}
		if cur == nil {
			continue
		}
		cur = append(cur, in)
		if in.Op == tac.OpEndFunc {
			funcs = append(funcs, cur)
			cur = nil
		}
	}
	return funcs
}

func beginOf(fn []*tac.Instruction) (*tac.BeginFuncInfo, bool) {
	if len(fn) == 0 || fn[0].Op != tac.OpBeginFunc {
		return nil, false
	}
	return fn[0].Begin, true
}
