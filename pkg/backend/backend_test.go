package backend

import (
	"strings"
	"testing"

	"github.com/decaflang/dcc/pkg/ast"
	"github.com/decaflang/dcc/pkg/tac"
	"github.com/decaflang/dcc/pkg/types"
)

// simpleProgram builds `int main() { return 1 + 2; }`.
func simpleProgram() *ast.Program {
	prog := ast.NewProgram()
	main := ast.NewFnDecl("main", types.Int)
	body := ast.NewBlockStmt()
	body.AddStmt(ast.NewReturnStmt(ast.NewBinaryExpr(ast.OpAdd, ast.NewIntLit(1), ast.NewIntLit(2))))
	main.SetBody(body)
	prog.AddDecl(main)
	return prog
}

func TestCompileProducesAssembly(t *testing.T) {
	result, err := New().Compile(simpleProgram())
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if !strings.Contains(result.Assembly, "main:") {
		t.Error("assembled output should contain the main label")
	}
	if !strings.Contains(result.Assembly, "add") {
		t.Error("assembled output should lower the BinaryOp(+) to a MIPS add")
	}
}

func TestEmitTACStopsShortOfAllocation(t *testing.T) {
	p := New()
	tacProg, err := p.EmitTAC(simpleProgram())
	if err != nil {
		t.Fatalf("EmitTAC() error = %v", err)
	}
	for _, in := range tacProg.Instructions {
		if in.LiveIn != nil || in.LiveOut != nil {
			t.Error("EmitTAC should not run liveness: LiveIn/LiveOut must stay nil")
		}
		if in.Op == tac.OpBeginFunc && in.Begin.Interferes != nil {
			t.Error("EmitTAC should not run register allocation: Interferes must stay nil")
		}
	}
	// But CFG linkage should already be in place.
	var sawEdge bool
	for _, in := range tacProg.Instructions {
		if len(in.Next) > 0 {
			sawEdge = true
		}
	}
	if !sawEdge {
		t.Error("EmitTAC should link the CFG")
	}
}

func TestAllocateAttachesGraphAndLivenessToEveryFunction(t *testing.T) {
	p := New()
	tacProg, err := p.EmitTAC(simpleProgram())
	if err != nil {
		t.Fatalf("EmitTAC() error = %v", err)
	}
	if err := p.Allocate(tacProg); err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}

	// The function-entry Label precedes BeginFunc and is not part of the
	// function body SplitFunctions hands to liveness.
	var sawBegin, inFunc bool
	for _, in := range tacProg.Instructions {
		if in.Op == tac.OpBeginFunc {
			sawBegin = true
			inFunc = true
			if in.Begin.Interferes == nil {
				t.Error("Allocate should build and attach an interference graph to BeginFunc")
			}
		}
		if inFunc && in.LiveIn == nil {
			t.Error("Allocate should have populated LiveIn on every instruction from BeginFunc to EndFunc")
		}
		if in.Op == tac.OpEndFunc {
			inFunc = false
		}
	}
	if !sawBegin {
		t.Fatal("expected a BeginFunc instruction")
	}
}

func TestSplitFunctionsPartitionsOnBeginEndFunc(t *testing.T) {
	instrs := []*tac.Instruction{
		{Op: tac.OpLabel, Label: "_a"},
		{Op: tac.OpBeginFunc, Begin: &tac.BeginFuncInfo{Name: "_a"}},
		{Op: tac.OpEndFunc},
		{Op: tac.OpLabel, Label: "_b"},
		{Op: tac.OpBeginFunc, Begin: &tac.BeginFuncInfo{Name: "_b"}},
		{Op: tac.OpReturn},
		{Op: tac.OpEndFunc},
	}
	funcs := SplitFunctions(instrs)
	if len(funcs) != 2 {
		t.Fatalf("SplitFunctions returned %d functions, want 2", len(funcs))
	}
	if len(funcs[0]) != 2 || funcs[0][0].Op != tac.OpBeginFunc {
		t.Errorf("first function should be [BeginFunc, EndFunc], got %d instructions starting with %s", len(funcs[0]), funcs[0][0])
	}
	if len(funcs[1]) != 3 {
		t.Errorf("second function should have 3 instructions, got %d", len(funcs[1]))
	}
	// the label preceding BeginFunc is not part of the function body.
	for _, fn := range funcs {
		if fn[0].Op == tac.OpLabel {
			t.Error("SplitFunctions should not include the preceding Label instruction")
		}
	}
}

func TestCompileRejectsProgramWithoutMain(t *testing.T) {
	prog := ast.NewProgram()
	prog.AddDecl(ast.NewFnDecl("helper", types.Void))
	if _, err := New().Compile(prog); err == nil {
		t.Error("Compile should fail for a program with no main function")
	}
}
