// Package cfg builds the control-flow graph in a single pass over the
// linear TAC instruction stream that links each
// instruction to its successor(s) via label resolution and fallthrough,
// populating Prev/Next symmetrically.
package cfg

import (
	"fmt"
	"strings"

	"github.com/decaflang/dcc/pkg/tac"
)

// link records a successor edge from->to and the matching predecessor
// edge to->from.
func link(from, to *tac.Instruction) {
	if from == nil || to == nil {
		return
	}
	from.Next = append(from.Next, to)
	to.Prev = append(to.Prev, from)
}

// Build links every instruction in instrs into a CFG in place. It
// returns an error if a Goto or IfZ names a label that never appears in
// the stream.
func Build(instrs []*tac.Instruction) error {
	for _, in := range instrs {
		in.Next = nil
		in.Prev = nil
	}

	labelPos := make(map[string]int, len(instrs))
	for i, in := range instrs {
		if in.Op == tac.OpLabel {
			labelPos[in.Label] = i
		}
	}

	resolve := func(label string) (*tac.Instruction, error) {
		pos, ok := labelPos[label]
		if !ok {
			return nil, fmt.Errorf("cfg: undefined label %q", label)
		}
		return instrs[pos], nil
	}

	for i, in := range instrs {
		var fallthru *tac.Instruction
		if i+1 < len(instrs) {
			fallthru = instrs[i+1]
		}

		switch in.Op {
		case tac.OpGoto:
			target, err := resolve(in.Label)
			if err != nil {
				return err
			}
			link(in, target)
		case tac.OpIfZ:
			target, err := resolve(in.Label)
			if err != nil {
				return err
			}
			link(in, target)
			link(in, fallthru)
		case tac.OpReturn, tac.OpEndFunc:
			// terminates: no successor.
		default:
			link(in, fallthru)
		}
	}
	return nil
}

// Dump renders instrs one per line with each instruction's successor
// indices appended, used by the `-d cfg` debug dump. instrs must already
// have Next/Prev populated by Build.
func Dump(instrs []*tac.Instruction) string {
	pos := make(map[*tac.Instruction]int, len(instrs))
	for i, in := range instrs {
		pos[in] = i
	}

	var b strings.Builder
	for i, in := range instrs {
		fmt.Fprintf(&b, "%3d: %s", i, in)
		if len(in.Next) > 0 {
			succ := make([]string, len(in.Next))
			for j, n := range in.Next {
				succ[j] = fmt.Sprintf("%d", pos[n])
			}
			fmt.Fprintf(&b, "  -> %s", strings.Join(succ, ", "))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
