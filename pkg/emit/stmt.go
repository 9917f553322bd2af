package emit

import (
	"fmt"

	"github.com/decaflang/dcc/pkg/ast"
	"github.com/decaflang/dcc/pkg/tac"
	"github.com/decaflang/dcc/pkg/types"
)

// emitStmt lowers a single statement, appending its TAC to e.prog.
func (e *Emitter) emitStmt(s ast.Stmt) error {
	switch t := s.(type) {
	case *ast.BlockStmt:
		return e.emitBlock(t)
	case *ast.IfStmt:
		return e.emitIf(t)
	case *ast.WhileStmt:
		return e.emitWhile(t)
	case *ast.ForStmt:
		return e.emitFor(t)
	case *ast.BreakStmt:
		return e.emitBreak(t)
	case *ast.ReturnStmt:
		return e.emitReturn(t)
	case *ast.PrintStmt:
		return e.emitPrint(t)
	case *ast.ExprStmt:
		_, err := e.emitExpr(t.X)
		return err
	default:
		return fmt.Errorf("emit: unsupported statement %T", s)
	}
}

// emitBlock allocates each declared local's frame slot, lowers the
// child statements in order, then relies on the block's own scope table
// going out of reach once its subtree finishes lowering. The parent
// climb never revisits a sibling block, so nothing further is needed to
// make the binding invisible outside the block.
func (e *Emitter) emitBlock(b *ast.BlockStmt) error {
	for _, v := range b.Locals {
		v.Loc = e.fn.NextLocal(v.Name)
	}
	for _, s := range b.Stmts {
		if err := e.emitStmt(s); err != nil {
			return err
		}
	}
	return nil
}

// emitIf lowers: test; IfZ test,L_else; Then; Goto L_end; L_else: Else;
// L_end: (collapsed to a single label when there's no else).
func (e *Emitter) emitIf(s *ast.IfStmt) error {
	testLoc, err := e.emitExpr(s.Test)
	if err != nil {
		return err
	}

	if s.Else == nil {
		lEnd := e.newLabel("L")
		e.prog.Emit(&tac.Instruction{Op: tac.OpIfZ, Src1: testLoc, Label: lEnd})
		if err := e.emitStmt(s.Then); err != nil {
			return err
		}
		e.prog.Emit(&tac.Instruction{Op: tac.OpLabel, Label: lEnd})
		return nil
	}

	lElse := e.newLabel("L")
	lEnd := e.newLabel("L")
	e.prog.Emit(&tac.Instruction{Op: tac.OpIfZ, Src1: testLoc, Label: lElse})
	if err := e.emitStmt(s.Then); err != nil {
		return err
	}
	e.prog.Emit(&tac.Instruction{Op: tac.OpGoto, Label: lEnd})
	e.prog.Emit(&tac.Instruction{Op: tac.OpLabel, Label: lElse})
	if err := e.emitStmt(s.Else); err != nil {
		return err
	}
	e.prog.Emit(&tac.Instruction{Op: tac.OpLabel, Label: lEnd})
	return nil
}

// emitWhile lowers: L_top: test; IfZ test,L_end; Body; Goto L_top;
// L_end: and records L_end on the node for Break to target.
func (e *Emitter) emitWhile(s *ast.WhileStmt) error {
	lTop := e.newLabel("L")
	lEnd := e.newLabel("L")
	ast.SetLoopEndLabel(s, lEnd)

	e.prog.Emit(&tac.Instruction{Op: tac.OpLabel, Label: lTop})
	testLoc, err := e.emitExpr(s.Test)
	if err != nil {
		return err
	}
	e.prog.Emit(&tac.Instruction{Op: tac.OpIfZ, Src1: testLoc, Label: lEnd})
	if err := e.emitStmt(s.Body); err != nil {
		return err
	}
	e.prog.Emit(&tac.Instruction{Op: tac.OpGoto, Label: lTop})
	e.prog.Emit(&tac.Instruction{Op: tac.OpLabel, Label: lEnd})
	return nil
}

// emitFor lowers: Init; L_top: Test; IfZ Test,L_end; Body; Step; Goto
// L_top; L_end:
func (e *Emitter) emitFor(s *ast.ForStmt) error {
	if s.Init != nil {
		if _, err := e.emitExpr(s.Init); err != nil {
			return err
		}
	}

	lTop := e.newLabel("L")
	lEnd := e.newLabel("L")
	ast.SetLoopEndLabel(s, lEnd)

	e.prog.Emit(&tac.Instruction{Op: tac.OpLabel, Label: lTop})
	if s.Test != nil {
		testLoc, err := e.emitExpr(s.Test)
		if err != nil {
			return err
		}
		e.prog.Emit(&tac.Instruction{Op: tac.OpIfZ, Src1: testLoc, Label: lEnd})
	}
	if err := e.emitStmt(s.Body); err != nil {
		return err
	}
	if s.Step != nil {
		if _, err := e.emitExpr(s.Step); err != nil {
			return err
		}
	}
	e.prog.Emit(&tac.Instruction{Op: tac.OpGoto, Label: lTop})
	e.prog.Emit(&tac.Instruction{Op: tac.OpLabel, Label: lEnd})
	return nil
}

// emitBreak climbs the parent chain to the nearest loop and emits Goto
// loop.endLabel. A Break outside any loop is a semantic error the
// (out-of-scope) checker should have already rejected, so an internal
// invariant violation here is a compiler bug, not a diagnosable
// condition.
func (e *Emitter) emitBreak(s *ast.BreakStmt) error {
	loop := s.Target()
	if loop == nil {
		panic("emit: break statement outside any loop (semantic analysis should have rejected this)")
	}
	e.prog.Emit(&tac.Instruction{Op: tac.OpGoto, Label: loop.EndLabel()})
	return nil
}

// emitReturn evaluates Value (if any) and emits Return.
func (e *Emitter) emitReturn(s *ast.ReturnStmt) error {
	if s.Value == nil {
		e.prog.Emit(&tac.Instruction{Op: tac.OpReturn})
		return nil
	}
	loc, err := e.emitExpr(s.Value)
	if err != nil {
		return err
	}
	e.prog.Emit(&tac.Instruction{Op: tac.OpReturn, Src1: loc})
	return nil
}

// emitPrint emits each argument's value followed by a call to the
// builtin matching its static type.
func (e *Emitter) emitPrint(s *ast.PrintStmt) error {
	for _, arg := range s.Args {
		loc, err := e.emitExpr(arg)
		if err != nil {
			return err
		}
		builtin, err := printBuiltinFor(arg)
		if err != nil {
			return err
		}
		e.prog.Emit(&tac.Instruction{Op: tac.OpPushParam, Src1: loc})
		e.prog.Emit(&tac.Instruction{Op: tac.OpLCall, FuncLabel: builtin})
		e.prog.Emit(&tac.Instruction{Op: tac.OpPopParams, NumBytes: 4})
	}
	return nil
}

func printBuiltinFor(arg ast.Expr) (string, error) {
	t := arg.StaticType()
	switch {
	case t.Equal(types.Int):
		return BuiltinPrintInt, nil
	case t.Equal(types.Bool):
		return BuiltinPrintBool, nil
	case t.Equal(types.String):
		return BuiltinPrintString, nil
	default:
		return "", fmt.Errorf("emit: Print does not support operand type %s", t)
	}
}
