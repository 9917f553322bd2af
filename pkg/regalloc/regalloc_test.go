package regalloc

import (
	"testing"

	"github.com/decaflang/dcc/pkg/location"
	"github.com/decaflang/dcc/pkg/tac"
)

func TestBuildInterferenceGraphFromLiveInCliques(t *testing.T) {
	a := location.New("a", location.FPRelative, -4)
	b := location.New("b", location.FPRelative, -8)
	c := location.New("c", location.FPRelative, -12)

	liveIn := location.NewSet()
	liveIn.Add(a)
	liveIn.Add(b)
	liveIn.Add(c)

	instrs := []*tac.Instruction{
		{Op: tac.OpLabel, Label: "L0", LiveIn: liveIn, LiveOut: location.NewSet()},
	}

	g := BuildInterferenceGraph(instrs)
	for _, pair := range [][2]*location.Location{{a, b}, {a, c}, {b, c}} {
		if g.Degree(pair[0].Key()) == 0 {
			t.Errorf("%s should interfere with its liveIn co-members", pair[0])
		}
	}
	if g.Degree(a.Key()) != 2 {
		t.Errorf("a should interfere with both b and c, got degree %d", g.Degree(a.Key()))
	}
}

func TestBuildInterferenceGraphKillVsLiveIn(t *testing.T) {
	// x = y (OpAssign): kills x, and x must interfere with whatever is
	// live-in alongside the assignment (simulating y live across x's def).
	x := location.New("x", location.FPRelative, -4)
	y := location.New("y", location.FPRelative, -8)

	liveIn := location.NewSet()
	liveIn.Add(y)

	instrs := []*tac.Instruction{
		{Op: tac.OpAssign, Dst: x, Src1: y, LiveIn: liveIn, LiveOut: location.NewSet()},
	}

	g := BuildInterferenceGraph(instrs)
	if g.Degree(x.Key()) != 1 {
		t.Errorf("x (killed here) should interfere with y (live-in here), got degree %d", g.Degree(x.Key()))
	}
}

func TestColorAssignsDistinctRegistersToInterferingNodes(t *testing.T) {
	locs := make([]*location.Location, 4)
	for i := range locs {
		locs[i] = location.New(string(rune('a'+i)), location.FPRelative, -4*(i+1))
	}

	g := tac.NewGraph()
	// complete graph on 4 nodes: every pair interferes.
	for i := 0; i < len(locs); i++ {
		for j := i + 1; j < len(locs); j++ {
			g.AddEdge(locs[i], locs[j])
		}
	}

	Color(g)

	seen := make(map[location.Register]bool)
	for _, l := range locs {
		if l.Spilled() {
			t.Errorf("%s should have been colored: only 4 nodes, well under %d registers", l, NumRegisters)
		}
		if seen[l.Register] {
			t.Errorf("register %v assigned to two mutually interfering nodes", l.Register)
		}
		seen[l.Register] = true
	}
}

func TestColorSpillsWhenDegreeExceedsRegisterCount(t *testing.T) {
	n := NumRegisters + 1
	locs := make([]*location.Location, n)
	for i := range locs {
		locs[i] = location.New(string(rune('a'+i)), location.FPRelative, -4*(i+1))
	}

	g := tac.NewGraph()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			g.AddEdge(locs[i], locs[j])
		}
	}

	Color(g)

	spilled := 0
	colored := make(map[location.Register]bool)
	for _, l := range locs {
		if l.Spilled() {
			spilled++
			continue
		}
		if colored[l.Register] {
			t.Errorf("register %v reused among mutually interfering nodes", l.Register)
		}
		colored[l.Register] = true
	}
	if spilled == 0 {
		t.Error("a clique one larger than the register file must force at least one spill")
	}
}

func TestNonInterferingNodesMayShareARegister(t *testing.T) {
	a := location.New("a", location.FPRelative, -4)
	b := location.New("b", location.FPRelative, -8)

	g := tac.NewGraph()
	g.AddNode(a)
	g.AddNode(b)

	Color(g)

	if a.Spilled() || b.Spilled() {
		t.Error("disjoint single-node components should always be colorable")
	}
}

func TestRegisterNameRoundTrip(t *testing.T) {
	for i, want := range PhysicalRegisters {
		reg := registerID(want)
		if got := Name(reg); got != "$"+want {
			t.Errorf("Name(registerID(%q)) = %q, want %q", want, got, "$"+want)
		}
		if int(reg) != i+1 {
			t.Errorf("registerID(%q) = %d, want %d", want, reg, i+1)
		}
	}
	if Name(location.RegNone) != "" {
		t.Error("Name(RegNone) should be empty")
	}
}
