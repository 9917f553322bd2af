package cfg

import (
	"testing"

	"github.com/decaflang/dcc/pkg/location"
	"github.com/decaflang/dcc/pkg/tac"
)

// linear builds: BeginFunc, IfZ x L1, PushParam x, Goto L2, L1:, PushParam x, L2:, EndFunc
func linearProgram() []*tac.Instruction {
	x := location.New("x", location.FPRelative, -4)
	return []*tac.Instruction{
		{Op: tac.OpBeginFunc, Begin: &tac.BeginFuncInfo{Name: "f"}},
		{Op: tac.OpIfZ, Src1: x, Label: "L1"},
		{Op: tac.OpPushParam, Src1: x},
		{Op: tac.OpGoto, Label: "L2"},
		{Op: tac.OpLabel, Label: "L1"},
		{Op: tac.OpPushParam, Src1: x},
		{Op: tac.OpLabel, Label: "L2"},
		{Op: tac.OpEndFunc},
	}
}

func TestBuildLinksFallthroughAndBranches(t *testing.T) {
	instrs := linearProgram()
	if err := Build(instrs); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	begin, ifz, push1, goTo, l1, push2, l2, end := instrs[0], instrs[1], instrs[2], instrs[3], instrs[4], instrs[5], instrs[6], instrs[7]

	if len(begin.Next) != 1 || begin.Next[0] != ifz {
		t.Error("BeginFunc should fall through to IfZ")
	}
	if len(ifz.Next) != 2 {
		t.Fatalf("IfZ should have 2 successors (branch + fallthrough), got %d", len(ifz.Next))
	}
	foundBranch, foundFall := false, false
	for _, n := range ifz.Next {
		if n == l1 {
			foundBranch = true
		}
		if n == push1 {
			foundFall = true
		}
	}
	if !foundBranch || !foundFall {
		t.Error("IfZ should link to both its label target and its fallthrough")
	}
	if len(push1.Next) != 1 || push1.Next[0] != goTo {
		t.Error("PushParam should fall through to Goto")
	}
	if len(goTo.Next) != 1 || goTo.Next[0] != l2 {
		t.Error("Goto should link only to its label target, not fall through")
	}
	if len(l1.Next) != 1 || l1.Next[0] != push2 {
		t.Error("L1 should fall through to the second PushParam")
	}
	if len(push2.Next) != 1 || push2.Next[0] != l2 {
		t.Error("second PushParam should fall through to L2")
	}
	if len(l2.Next) != 1 || l2.Next[0] != end {
		t.Error("L2 should fall through to EndFunc")
	}
	if len(end.Next) != 0 {
		t.Error("EndFunc should have no successors")
	}

	// symmetric Prev/Next invariant.
	for _, a := range instrs {
		for _, b := range a.Next {
			found := false
			for _, p := range b.Prev {
				if p == a {
					found = true
				}
			}
			if !found {
				t.Errorf("edge %v -> %v missing symmetric Prev entry", a, b)
			}
		}
	}

	// L2 is a convergence point: reached from both Goto and the second PushParam.
	if len(l2.Prev) != 2 {
		t.Errorf("L2 should have 2 predecessors, got %d", len(l2.Prev))
	}
}

func TestBuildUndefinedLabelErrors(t *testing.T) {
	instrs := []*tac.Instruction{
		{Op: tac.OpGoto, Label: "nowhere"},
	}
	if err := Build(instrs); err == nil {
		t.Error("Build should error on a Goto to an undefined label")
	}
}

func TestBuildResetsStaleLinks(t *testing.T) {
	instrs := linearProgram()
	if err := Build(instrs); err != nil {
		t.Fatalf("first Build() error = %v", err)
	}
	if err := Build(instrs); err != nil {
		t.Fatalf("second Build() error = %v", err)
	}
	// Rebuilding must not duplicate edges.
	if len(instrs[1].Next) != 2 {
		t.Errorf("rebuilding should not accumulate duplicate edges, got %d successors", len(instrs[1].Next))
	}
}
