// Package emit implements the TAC Emitter: a second AST walk that
// appends TAC instructions representing each node's runtime behavior
// and records the Location holding its result.
//
// Design note: Emitter is an ordinary value, constructed once per
// translation unit and threaded through every lowering call; nothing
// here is package-level mutable state.
package emit

import (
	"fmt"

	"github.com/decaflang/dcc/pkg/ast"
	"github.com/decaflang/dcc/pkg/layout"
	"github.com/decaflang/dcc/pkg/location"
	"github.com/decaflang/dcc/pkg/tac"
	"github.com/decaflang/dcc/pkg/types"
)

// Runtime builtin labels the emitted TAC calls into.
const (
	BuiltinAlloc        = "_Alloc"
	BuiltinReadLine     = "_ReadLine"
	BuiltinReadInteger  = "_ReadInteger"
	BuiltinStringEqual  = "_StringEqual"
	BuiltinPrintInt     = "_PrintInt"
	BuiltinPrintString  = "_PrintString"
	BuiltinPrintBool    = "_PrintBool"
	BuiltinHalt         = "_Halt"
)

// Runtime error message strings, each newline-terminated.
const (
	ErrArrayOutOfBounds = "Decaf runtime error: Array subscript out of bounds\n"
	ErrArrayBadSize     = "Decaf runtime error: Array size is <= 0\n"
)

// vtableLabel is the data label a class's VTable pseudo-instruction is
// assembled under.
func vtableLabel(class string) string {
	return "vtbl_" + class
}

// Emitter lowers a checked, laid-out *ast.Program into a *tac.Program.
// Plan (pkg/layout) must already have run over the same Program.
type Emitter struct {
	planner *layout.Planner
	prog    *tac.Program

	fn       *ast.FnDecl // function currently being lowered
	labelSeq int
	tempSeq  int
}

// New returns an Emitter that will consult planner to resolve class
// layouts (vtable slots, field offsets) during emission.
func New(planner *layout.Planner) *Emitter {
	return &Emitter{planner: planner, prog: &tac.Program{}}
}

// EmitProgram lowers every top-level declaration of prog and returns the
// resulting linear TAC stream. It requires a top-level
// function named "main" to exist: "*** Error: No main
// function found" otherwise.
func (e *Emitter) EmitProgram(prog *ast.Program) (*tac.Program, error) {
	hasMain := false
	for _, d := range prog.Decls {
		if fd, ok := d.(*ast.FnDecl); ok && fd.Name == "main" {
			hasMain = true
		}
	}
	if !hasMain {
		return nil, fmt.Errorf("*** Error: No main function found")
	}

	for _, d := range prog.Decls {
		switch t := d.(type) {
		case *ast.FnDecl:
			if err := e.emitFunction(t); err != nil {
				return nil, err
			}
		case *ast.ClassDecl:
			if err := e.emitClass(t); err != nil {
				return nil, err
			}
		case *ast.VarDecl, *ast.InterfaceDecl:
			// globals need no code; interfaces contribute no codegen
			// artifact.
		}
	}
	return e.prog, nil
}

// emitClass emits every method of c as a function (its first formal is
// the implicit `this`), followed by c's VTable pseudo-instruction.
func (e *Emitter) emitClass(c *ast.ClassDecl) error {
	for _, m := range c.Methods {
		if err := e.emitFunction(m); err != nil {
			return err
		}
	}
	e.prog.Emit(&tac.Instruction{
		Op:           tac.OpVTable,
		VTableClass:  c.Name,
		VTableLabels: append([]string(nil), c.VTableLabels...),
	})
	return nil
}

// emitFunction emits Label(f.label); BeginFunc(formals); body;
// EndFunc, backpatching BeginFunc's frame size once the body is fully
// lowered. A prototype (Body == nil, i.e. an interface method) emits
// nothing.
func (e *Emitter) emitFunction(f *ast.FnDecl) error {
	if f.Body == nil {
		return nil
	}

	layout.PlanFormals(f)
	e.fn = f
	e.tempSeq = 0

	e.prog.Emit(&tac.Instruction{Op: tac.OpLabel, Label: f.Label})
	begin := &tac.BeginFuncInfo{Name: f.Label, Formals: append([]*location.Location(nil), f.FormalLocs...)}
	if f.IsMethod {
		begin.Formals = append([]*location.Location{f.ThisLoc}, begin.Formals...)
	}
	e.prog.Emit(&tac.Instruction{Op: tac.OpBeginFunc, Begin: begin})

	if err := e.emitStmt(f.Body); err != nil {
		return err
	}

	begin.FrameSize = f.FrameSize()
	e.prog.Emit(&tac.Instruction{Op: tac.OpEndFunc})
	e.fn = nil
	return nil
}

// newTemp allocates a fresh compiler temporary in the current
// function's frame.
func (e *Emitter) newTemp() *location.Location {
	loc := e.fn.NextTemp(e.tempSeq)
	e.tempSeq++
	return loc
}

// newLabel returns a fresh, program-unique control-flow label.
func (e *Emitter) newLabel(prefix string) string {
	l := fmt.Sprintf("_%s%d", prefix, e.labelSeq)
	e.labelSeq++
	return l
}

// thisLoc resolves the Location holding `this` in the currently
// emitting method, by loading it from the enclosing function's formal
// scope.
func (e *Emitter) thisLoc() *location.Location {
	return e.fn.ThisLoc
}

// classOf returns the static class layout for a Named type, or nil if t
// doesn't name a known class (e.g. it's an interface name, which
// carries no layout of its own).
func (e *Emitter) classOf(t *types.Type) *ast.ClassDecl {
	if t == nil || t.Kind != types.KindNamed {
		return nil
	}
	c, _ := e.planner.Class(t.Name)
	return c
}
