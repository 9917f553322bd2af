// Package regalloc implements, per function, an interference graph built
// from the liveness sets, colored with a greedy highest-degree-first
// heuristic against the fixed 18-register MIPS general-purpose set.
package regalloc

import (
	"sort"

	"github.com/decaflang/dcc/pkg/liveness"
	"github.com/decaflang/dcc/pkg/location"
	"github.com/decaflang/dcc/pkg/tac"
)

// PhysicalRegisters is the fixed MIPS general-purpose register set:
// t0-t9 and s0-s7, 18 registers total.
var PhysicalRegisters = buildRegisterNames()

func buildRegisterNames() []string {
	names := make([]string, 0, 18)
	for i := 0; i < 10; i++ {
		names = append(names, "t"+string(rune('0'+i)))
	}
	for i := 0; i < 8; i++ {
		names = append(names, "s"+string(rune('0'+i)))
	}
	return names
}

// NumRegisters is |registers| in the spill rule: degree >= |registers|
// forces a Location to memory instead of a physical register.
const NumRegisters = 18

// BuildInterferenceGraph builds the per-function interference graph
// from the already-computed liveIn sets of instrs:
// nodes are every fpRelative Location appearing in any liveIn; each
// instruction's liveIn set forms a clique; additionally every Location
// in kill[i] is made adjacent to every Location in liveIn[i].
func BuildInterferenceGraph(instrs []*tac.Instruction) *tac.Graph {
	g := tac.NewGraph()

	for _, in := range instrs {
		liveIn := in.LiveIn
		if liveIn == nil {
			continue
		}
		members := liveIn.Sorted()
		for _, m := range members {
			g.AddNode(m)
		}
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				g.AddEdge(members[i], members[j])
			}
		}

		kill := liveness.Kill(in)
		for _, k := range kill.Sorted() {
			for _, m := range members {
				g.AddEdge(k, m)
			}
		}
	}
	return g
}

// Color assigns a physical register (or the "no register, stay in
// memory" sentinel) to every node in g by repeatedly simplifying: pick
// the highest-degree node, push it on a simplification stack with its
// original neighborhood, remove it and recompute degrees; once the
// graph is empty, pop the stack in reverse and greedily pick a register
// unused by any already-colored neighbor, or the sentinel if the node's
// original degree was >= NumRegisters.
func Color(g *tac.Graph) {
	type frame struct {
		key        location.Key
		loc        *location.Location
		neighbors  []location.Key
		origDegree int
	}

	// work on a mutable copy of the adjacency so simplification doesn't
	// destroy the graph Color was handed (callers may want to inspect it
	// afterward, e.g. for the coloring-validity property test).
	adj := make(map[location.Key]map[location.Key]bool, len(g.Adjacency))
	for k, neighbors := range g.Adjacency {
		set := make(map[location.Key]bool, len(neighbors))
		for nk := range neighbors {
			set[nk] = true
		}
		adj[k] = set
	}

	remaining := make(map[location.Key]bool, len(adj))
	for k := range adj {
		remaining[k] = true
	}

	var stack []frame

	for len(remaining) > 0 {
		// pick the highest-degree remaining node; break ties by Key so
		// the simplification order, and therefore the final coloring,
		// is deterministic across runs.
		var best location.Key
		bestDegree := -1
		first := true
		for k := range remaining {
			d := 0
			for nk := range adj[k] {
				if remaining[nk] {
					d++
				}
			}
			if first || d > bestDegree || (d == bestDegree && k.Less(best)) {
				best, bestDegree, first = k, d, false
			}
		}

		neighbors := make([]location.Key, 0, len(adj[best]))
		for nk := range adj[best] {
			neighbors = append(neighbors, nk)
		}
		sort.Slice(neighbors, func(i, j int) bool { return neighbors[i].Less(neighbors[j]) })

		stack = append(stack, frame{
			key:        best,
			loc:        g.Nodes[best],
			neighbors:  neighbors,
			origDegree: len(adj[best]),
		})
		delete(remaining, best)
	}

	colorOf := make(map[location.Key]string, len(stack))

	for i := len(stack) - 1; i >= 0; i-- {
		f := stack[i]
		if f.origDegree >= NumRegisters {
			f.loc.Register = location.RegNone
			continue
		}

		used := make(map[string]bool, len(f.neighbors))
		for _, nk := range f.neighbors {
			if c, ok := colorOf[nk]; ok {
				used[c] = true
			}
		}

		assigned := ""
		for _, r := range PhysicalRegisters {
			if !used[r] {
				assigned = r
				break
			}
		}
		if assigned == "" {
			// a node with fewer than NumRegisters neighbors always finds a
			// free register, so this branch is a guard only: spill to
			// memory rather than miscolor.
			f.loc.Register = location.RegNone
			continue
		}
		f.loc.Register = registerID(assigned)
		colorOf[f.key] = assigned
	}
}

// registerID maps a register name ("t0".."s7") to the location.Register
// ordinal the rest of the pipeline (the MIPS emitter) uses to print it.
// 0 is reserved as RegNone, so physical registers start at 1.
func registerID(name string) location.Register {
	for i, n := range PhysicalRegisters {
		if n == name {
			return location.Register(i + 1)
		}
	}
	return location.RegNone
}

// Name renders reg back to its MIPS register name ("$t0", "$s3", ...),
// or "" if reg is RegNone.
func Name(reg location.Register) string {
	if reg == location.RegNone {
		return ""
	}
	idx := int(reg) - 1
	if idx < 0 || idx >= len(PhysicalRegisters) {
		return ""
	}
	return "$" + PhysicalRegisters[idx]
}
