package ast

import (
	"testing"

	"github.com/decaflang/dcc/pkg/types"
)

func TestLookupVarClimbsLocalsBeforeEnclosingScopes(t *testing.T) {
	prog := NewProgram()
	gx := NewVarDecl("x", types.Int)
	prog.AddDecl(gx)

	fn := NewFnDecl("f", types.Void)
	fx := NewVarDecl("x", types.Bool) // shadows the global inside f
	body := NewBlockStmt()
	body.AddLocal(fx)
	inner := NewExprStmt(NewFieldAccess(nil, "x"))
	body.AddStmt(inner)
	fn.SetBody(body)
	prog.AddDecl(fn)

	fieldAccess := inner.X.(*FieldAccess)
	resolved := LookupVar(fieldAccess, "x")
	if resolved != fx {
		t.Error("LookupVar should find the block-local x before the global x")
	}
	if resolved == gx {
		t.Error("LookupVar should not have resolved to the shadowed global")
	}
}

func TestLookupVarFallsThroughToGlobalWhenNoLocalShadow(t *testing.T) {
	prog := NewProgram()
	gx := NewVarDecl("g", types.Int)
	prog.AddDecl(gx)

	fn := NewFnDecl("f", types.Void)
	body := NewBlockStmt()
	access := NewFieldAccess(nil, "g")
	body.AddStmt(NewExprStmt(access))
	fn.SetBody(body)
	prog.AddDecl(fn)

	if LookupVar(access, "g") != gx {
		t.Error("LookupVar should climb to the program scope for an unshadowed global")
	}
}

func TestEnclosingFunctionAndClass(t *testing.T) {
	c := NewClassDecl("Shape", "")
	m := NewFnDecl("area", types.Int)
	m.IsMethod = true
	body := NewBlockStmt()
	ret := NewReturnStmt(NewIntLit(0))
	body.AddStmt(ret)
	m.SetBody(body)
	c.AddMethod(m)

	if EnclosingFunction(ret) != m {
		t.Error("EnclosingFunction should find the method containing this statement")
	}
	if EnclosingClass(ret) != c {
		t.Error("EnclosingClass should find the class containing this method")
	}
}

func TestEnclosingLoopFindsNearestLoop(t *testing.T) {
	brk := NewBreakStmt()
	innerLoop := NewWhileStmt(NewBoolLit(true), brk)
	NewForStmt(nil, nil, nil, innerLoop) // encloses innerLoop one level further out

	if got := EnclosingLoop(brk); got != innerLoop {
		t.Errorf("EnclosingLoop should find the nearest loop, got %v, want the inner while", got)
	}
}

func TestAddDeclRegistersIntoScopeTables(t *testing.T) {
	prog := NewProgram()
	v := NewVarDecl("n", types.Int)
	prog.AddDecl(v)
	if prog.Vars["n"] != v {
		t.Error("AddDecl should register a VarDecl into the program's Vars table")
	}

	fn := NewFnDecl("f", types.Void)
	prog.AddDecl(fn)
	if prog.Funcs["f"] != fn {
		t.Error("AddDecl should register an FnDecl into the program's Funcs table")
	}
}

func TestParentPointersSetOnConstruction(t *testing.T) {
	lit := NewIntLit(1)
	ret := NewReturnStmt(lit)
	if lit.Parent() != ret {
		t.Error("adopt should set the child's parent at construction time")
	}
}
