package liveness

import (
	"testing"

	"github.com/decaflang/dcc/pkg/cfg"
	"github.com/decaflang/dcc/pkg/location"
	"github.com/decaflang/dcc/pkg/tac"
)

// x = 1; y = x; Return y
func straightLine() (instrs []*tac.Instruction, x, y *location.Location) {
	x = location.New("x", location.FPRelative, -4)
	y = location.New("y", location.FPRelative, -8)
	instrs = []*tac.Instruction{
		{Op: tac.OpBeginFunc, Begin: &tac.BeginFuncInfo{Name: "f"}},
		{Op: tac.OpLoadConstInt, Dst: x, ImmInt: 1},
		{Op: tac.OpAssign, Dst: y, Src1: x},
		{Op: tac.OpReturn, Src1: y},
		{Op: tac.OpEndFunc},
	}
	return
}

func TestAnalyzeStraightLineLiveness(t *testing.T) {
	instrs, x, y := straightLine()
	if err := cfg.Build(instrs); err != nil {
		t.Fatalf("cfg.Build error = %v", err)
	}
	Analyze(instrs)

	loadX := instrs[1]
	assignY := instrs[2]
	ret := instrs[3]

	if !loadX.LiveOut.Contains(x) {
		t.Error("x should be live out of its own definition, since the next instruction uses it")
	}
	if loadX.LiveIn.Contains(x) {
		t.Error("x should not be live in before it is defined here")
	}
	if !assignY.LiveIn.Contains(x) {
		t.Error("x should be live in to the assign that reads it")
	}
	if !assignY.LiveOut.Contains(y) {
		t.Error("y should be live out of the assign, since Return reads it")
	}
	if assignY.LiveOut.Contains(x) {
		t.Error("x should not be live out of the assign: it is never read again")
	}
	if !ret.LiveIn.Contains(y) {
		t.Error("y should be live in to Return")
	}
	if ret.LiveOut.Len() != 0 {
		t.Error("nothing should be live out of Return")
	}
}

func TestGlobalsDoNotParticipate(t *testing.T) {
	g := location.New("g", location.GPRelative, 0)
	x := location.New("x", location.FPRelative, -4)
	instrs := []*tac.Instruction{
		{Op: tac.OpBeginFunc, Begin: &tac.BeginFuncInfo{Name: "f"}},
		{Op: tac.OpLoad, Dst: x, Src1: g, Offset: 0},
		{Op: tac.OpReturn, Src1: x},
		{Op: tac.OpEndFunc},
	}
	if err := cfg.Build(instrs); err != nil {
		t.Fatalf("cfg.Build error = %v", err)
	}
	Analyze(instrs)

	for i, in := range instrs {
		if in.LiveIn.Contains(g) || in.LiveOut.Contains(g) {
			t.Errorf("instruction %d: global location %s should never participate in liveness", i, g)
		}
	}
}

func TestLoopBackEdgeKeepsConditionVariableLive(t *testing.T) {
	// L1: IfZ x Goto L2; PushParam x; Goto L1; L2: EndFunc
	x := location.New("x", location.FPRelative, -4)
	instrs := []*tac.Instruction{
		{Op: tac.OpBeginFunc, Begin: &tac.BeginFuncInfo{Name: "f"}},
		{Op: tac.OpLabel, Label: "L1"},
		{Op: tac.OpIfZ, Src1: x, Label: "L2"},
		{Op: tac.OpPushParam, Src1: x},
		{Op: tac.OpGoto, Label: "L1"},
		{Op: tac.OpLabel, Label: "L2"},
		{Op: tac.OpEndFunc},
	}
	if err := cfg.Build(instrs); err != nil {
		t.Fatalf("cfg.Build error = %v", err)
	}
	Analyze(instrs)

	for i, in := range instrs[:len(instrs)-1] {
		if in.Op == tac.OpLabel && in.Label == "L2" {
			continue
		}
		if !in.LiveIn.Contains(x) && in.Op != tac.OpEndFunc {
			t.Errorf("instruction %d (%s): x should stay live around the loop body", i, in)
		}
	}
}
