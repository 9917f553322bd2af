package tac

import (
	"testing"

	"github.com/decaflang/dcc/pkg/location"
)

func TestProgramEmitAppendsAndReturns(t *testing.T) {
	p := &Program{}
	instr := p.Emit(&Instruction{Op: OpLabel, Label: "L0"})
	if len(p.Instructions) != 1 {
		t.Fatalf("len(Instructions) = %d, want 1", len(p.Instructions))
	}
	if p.Instructions[0] != instr {
		t.Error("Emit should return the same pointer it appended")
	}
}

func TestInstructionStringForms(t *testing.T) {
	x := location.New("x", location.FPRelative, -4)
	y := location.New("y", location.FPRelative, -8)

	tests := []struct {
		name string
		in   *Instruction
		want string
	}{
		{"load const int", &Instruction{Op: OpLoadConstInt, Dst: x, ImmInt: 42}, "x(fp-4) = 42"},
		{"assign", &Instruction{Op: OpAssign, Dst: x, Src1: y}, "x(fp-4) = y(fp-8)"},
		{"binary op", &Instruction{Op: OpBinaryOp, Dst: x, Src1: y, Src2: y, BinOp: BinAdd}, "x(fp-4) = y(fp-8) + y(fp-8)"},
		{"label", &Instruction{Op: OpLabel, Label: "L1"}, "L1:"},
		{"goto", &Instruction{Op: OpGoto, Label: "L1"}, "Goto L1"},
		{"ifz", &Instruction{Op: OpIfZ, Src1: x, Label: "L1"}, "IfZ x(fp-4) Goto L1"},
		{"return value", &Instruction{Op: OpReturn, Src1: x}, "Return x(fp-4)"},
		{"return void", &Instruction{Op: OpReturn}, "Return"},
		{"lcall void", &Instruction{Op: OpLCall, FuncLabel: "_foo"}, "LCall _foo"},
		{"lcall value", &Instruction{Op: OpLCall, Dst: x, FuncLabel: "_foo"}, "x(fp-4) = LCall _foo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGraphAddEdgeIsSymmetricAndIgnoresSelfLoops(t *testing.T) {
	g := NewGraph()
	a := location.New("a", location.FPRelative, -4)
	b := location.New("b", location.FPRelative, -8)

	g.AddEdge(a, b)
	if g.Degree(a.Key()) != 1 || g.Degree(b.Key()) != 1 {
		t.Fatalf("expected mutual degree 1, got a=%d b=%d", g.Degree(a.Key()), g.Degree(b.Key()))
	}

	g.AddEdge(a, a)
	if g.Degree(a.Key()) != 1 {
		t.Error("a Location should never interfere with itself")
	}
}

func TestGraphAddEdgeWithNilIsNoop(t *testing.T) {
	g := NewGraph()
	a := location.New("a", location.FPRelative, -4)
	g.AddEdge(a, nil)
	if g.Degree(a.Key()) != 0 {
		t.Error("AddEdge with a nil operand should not add a node or edge")
	}
}

func TestDumpIndentsNonLabelInstructions(t *testing.T) {
	p := &Program{}
	p.Emit(&Instruction{Op: OpLabel, Label: "main"})
	x := location.New("x", location.FPRelative, -4)
	p.Emit(&Instruction{Op: OpLoadConstInt, Dst: x, ImmInt: 1})

	got := p.Dump()
	want := "main:\n\tx(fp-4) = 1\n"
	if got != want {
		t.Errorf("Dump() = %q, want %q", got, want)
	}
}
