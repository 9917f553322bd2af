// Package liveness implements the classic iterative backward dataflow:
// liveIn/liveOut sets per instruction, computed to a fixed point over
// the function's CFG. Only fpRelative Locations participate; globals
// are excluded because they may alias and are always kept in memory,
// never colored.
package liveness

import (
	"fmt"
	"strings"

	"github.com/decaflang/dcc/pkg/location"
	"github.com/decaflang/dcc/pkg/tac"
)

// Analyze computes liveIn/liveOut for every instruction in instrs (a
// single function's body, BeginFunc..EndFunc inclusive), iterating to a
// fixed point.
func Analyze(instrs []*tac.Instruction) {
	for _, in := range instrs {
		in.LiveIn = location.NewSet()
		in.LiveOut = location.NewSet()
	}

	changed := true
	for changed {
		changed = false
		// Iterate in reverse program order: backward dataflow converges
		// faster when visited back-to-front, though correctness doesn't
		// depend on visitation order, only termination at a fixed point.
		for i := len(instrs) - 1; i >= 0; i-- {
			in := instrs[i]

			newOut := location.NewSet()
			for _, s := range in.Next {
				newOut = newOut.Union(s.LiveIn)
			}

			gen, kill := genKill(in)
			newIn := newOut.Minus(kill).Union(gen)

			if !newOut.Equal(in.LiveOut) {
				in.LiveOut = newOut
				changed = true
			}
			if !newIn.Equal(in.LiveIn) {
				in.LiveIn = newIn
				changed = true
			}
		}
	}
}

// Dump renders instrs one per line with its liveIn/liveOut sets, used by
// the `-d live` debug dump. Analyze must have already run over instrs.
func Dump(instrs []*tac.Instruction) string {
	var b strings.Builder
	for i, in := range instrs {
		fmt.Fprintf(&b, "%3d: %-40s in=%s out=%s\n", i, in, in.LiveIn, in.LiveOut)
	}
	return b.String()
}

// participates reports whether loc is counted by the dataflow: only
// fpRelative Locations do.
func participates(loc *location.Location) bool {
	return loc != nil && loc.Segment == location.FPRelative
}

func single(loc *location.Location) *location.Set {
	s := location.NewSet()
	if participates(loc) {
		s.Add(loc)
	}
	return s
}

func pair(a, b *location.Location) *location.Set {
	s := location.NewSet()
	if participates(a) {
		s.Add(a)
	}
	if participates(b) {
		s.Add(b)
	}
	return s
}

// Kill returns just the kill set for in, exported so pkg/regalloc can
// reuse the exact same table when building interference edges.
func Kill(in *tac.Instruction) *location.Set {
	_, kill := genKill(in)
	return kill
}

// genKill returns the gen and kill sets for in.
func genKill(in *tac.Instruction) (gen, kill *location.Set) {
	switch in.Op {
	case tac.OpLoadConstInt, tac.OpLoadConstString, tac.OpLoadConstBool, tac.OpLoadLabel:
		return location.NewSet(), single(in.Dst)
	case tac.OpAssign:
		return single(in.Src1), single(in.Dst)
	case tac.OpLoad:
		return single(in.Src1), single(in.Dst)
	case tac.OpStore:
		return pair(in.Dst, in.Src1), location.NewSet()
	case tac.OpBinaryOp:
		return pair(in.Src1, in.Src2), single(in.Dst)
	case tac.OpIfZ:
		return single(in.Src1), location.NewSet()
	case tac.OpReturn:
		return single(in.Src1), location.NewSet()
	case tac.OpPushParam:
		return single(in.Src1), location.NewSet()
	case tac.OpLCall, tac.OpACall:
		// OpLCall's callee is a static label, not an operand, so it has
		// no gen set. OpACall's Src1 holds the computed method address
		// and must stay live up through the jalr that reads it, so it's
		// gen here even though it isn't a Dst-producing use.
		gen := location.NewSet()
		if in.Op == tac.OpACall {
			gen = single(in.Src1)
		}
		return gen, single(in.Dst)
	default: // Label, Goto, BeginFunc, EndFunc, PopParams, VTable
		return location.NewSet(), location.NewSet()
	}
}
