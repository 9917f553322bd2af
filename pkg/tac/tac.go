// Package tac implements the three-address-code instruction stream: a
// single linear list of Instructions, later linked into a CFG
// (pkg/cfg), analyzed for liveness (pkg/liveness), and colored
// (pkg/regalloc).
package tac

import (
	"fmt"
	"strings"

	"github.com/decaflang/dcc/pkg/location"
)

// Op is the closed instruction-opcode enumeration: one case per TAC
// form, rather than a generic source-language opcode set.
type Op uint8

const (
	OpLoadConstInt Op = iota
	OpLoadConstString
	OpLoadConstBool
	OpLoadLabel
	OpAssign
	OpLoad
	OpStore
	OpBinaryOp
	OpLabel
	OpGoto
	OpIfZ
	OpBeginFunc
	OpEndFunc
	OpReturn
	OpPushParam
	OpPopParams
	OpLCall
	OpACall
	OpVTable
)

func (o Op) String() string {
	switch o {
	case OpLoadConstInt:
		return "LoadConstInt"
	case OpLoadConstString:
		return "LoadConstString"
	case OpLoadConstBool:
		return "LoadConstBool"
	case OpLoadLabel:
		return "LoadLabel"
	case OpAssign:
		return "Assign"
	case OpLoad:
		return "Load"
	case OpStore:
		return "Store"
	case OpBinaryOp:
		return "BinaryOp"
	case OpLabel:
		return "Label"
	case OpGoto:
		return "Goto"
	case OpIfZ:
		return "IfZ"
	case OpBeginFunc:
		return "BeginFunc"
	case OpEndFunc:
		return "EndFunc"
	case OpReturn:
		return "Return"
	case OpPushParam:
		return "PushParam"
	case OpPopParams:
		return "PopParams"
	case OpLCall:
		return "LCall"
	case OpACall:
		return "ACall"
	case OpVTable:
		return "VTable"
	default:
		return "<bad-op>"
	}
}

// BinOp is the TAC-level binary operator, narrower than ast.Operator:
// relational `>`/`<=`/`>=` never reach a BinaryOp instruction directly
// (they rewrite to combinations of `<` and `==` during emission), so
// only the operators that are genuinely single TAC instructions appear
// here.
type BinOp uint8

const (
	BinAdd BinOp = iota
	BinSub
	BinMul
	BinDiv
	BinMod
	BinLess
	BinEqual
	BinAnd
	BinOr
)

func (b BinOp) String() string {
	switch b {
	case BinAdd:
		return "+"
	case BinSub:
		return "-"
	case BinMul:
		return "*"
	case BinDiv:
		return "/"
	case BinMod:
		return "%"
	case BinLess:
		return "<"
	case BinEqual:
		return "=="
	case BinAnd:
		return "&&"
	case BinOr:
		return "||"
	default:
		return "?"
	}
}

// BeginFuncInfo carries the per-function bookkeeping
// to a BeginFunc instruction: the formal Locations, the frame size
// (backpatched once the body is fully emitted), and the interference
// graph pkg/regalloc builds for this function.
type BeginFuncInfo struct {
	Name       string
	Formals    []*location.Location
	FrameSize  int // backpatched after body emission
	Interferes *Graph
}

// Graph is the per-function interference graph pkg/regalloc builds and
// colors; kept here (not in pkg/regalloc) so a BeginFunc instruction can
// carry one without an import cycle.
type Graph struct {
	// Adjacency maps a Location's Key to its interfering neighbors.
	Adjacency map[location.Key]map[location.Key]*location.Location
	// Nodes maps a Key back to the canonical *Location object sharing
	// that identity, so callers can recover the mutable Location (and
	// later its Register) from a Key alone.
	Nodes map[location.Key]*location.Location
}

// NewGraph returns an empty interference graph.
func NewGraph() *Graph {
	return &Graph{
		Adjacency: make(map[location.Key]map[location.Key]*location.Location),
		Nodes:     make(map[location.Key]*location.Location),
	}
}

// AddNode registers loc as a node with no edges yet, if not already
// present.
func (g *Graph) AddNode(loc *location.Location) {
	k := loc.Key()
	if _, ok := g.Adjacency[k]; !ok {
		g.Adjacency[k] = make(map[location.Key]*location.Location)
	}
	g.Nodes[k] = loc
}

// AddEdge makes a and b mutually interfere. A Location never interferes
// with itself.
func (g *Graph) AddEdge(a, b *location.Location) {
	if a == nil || b == nil {
		return
	}
	ka, kb := a.Key(), b.Key()
	if ka == kb {
		return
	}
	g.AddNode(a)
	g.AddNode(b)
	g.Adjacency[ka][kb] = b
	g.Adjacency[kb][ka] = a
}

// Degree returns the number of neighbors of the node with Key k.
func (g *Graph) Degree(k location.Key) int {
	return len(g.Adjacency[k])
}

// Instruction is a single TAC operation plus its CFG linkage
// (Prev/Next) and the liveness sets the dataflow pass writes.
type Instruction struct {
	Op Op

	Dst  *location.Location
	Src1 *location.Location
	Src2 *location.Location

	BinOp BinOp

	ImmInt int64
	ImmStr string

	// Label is the instruction's own label text for OpLabel, or the
	// branch/jump target for OpGoto/OpIfZ.
	Label string

	// Offset is the byte offset operand of OpLoad/OpStore.
	Offset int

	// FuncLabel is the callee for OpLCall. OpBeginFunc carries its
	// function's label in Begin.Name instead.
	FuncLabel string
	NumBytes  int // operand of OpPopParams

	Begin *BeginFuncInfo // only set on the OpBeginFunc instruction

	// VTable fields: the class name and the inheritance-ordered method
	// label list.
	VTableClass  string
	VTableLabels []string

	// Next/Prev are the CFG adjacency sets. IfZ carries two successors (branch
	// target and fallthrough); a Label instruction that several branches
	// converge on carries multiple predecessors. A plain single-pointer
	// link can't represent either, so both are slices, built by
	// pkg/cfg.Build and required to satisfy:
	// b is in a.Next iff a is in b.Prev.
	Next, Prev []*Instruction

	LiveIn, LiveOut *location.Set
}

// Program is the emitter's append-only output: one linear instruction
// stream for the whole translation unit.
type Program struct {
	Instructions []*Instruction
}

// Emit appends instr to the program and returns it, so callers can chain
// further field assignment (e.g. setting Begin on the returned pointer).
func (p *Program) Emit(instr *Instruction) *Instruction {
	p.Instructions = append(p.Instructions, instr)
	return instr
}

func (i *Instruction) String() string {
	switch i.Op {
	case OpLoadConstInt:
		return fmt.Sprintf("%s = %d", i.Dst, i.ImmInt)
	case OpLoadConstString:
		return fmt.Sprintf("%s = %q", i.Dst, i.ImmStr)
	case OpLoadConstBool:
		return fmt.Sprintf("%s = %v", i.Dst, i.ImmInt != 0)
	case OpLoadLabel:
		return fmt.Sprintf("%s = label %s", i.Dst, i.Label)
	case OpAssign:
		return fmt.Sprintf("%s = %s", i.Dst, i.Src1)
	case OpLoad:
		return fmt.Sprintf("%s = *(%s + %d)", i.Dst, i.Src1, i.Offset)
	case OpStore:
		return fmt.Sprintf("*(%s + %d) = %s", i.Dst, i.Offset, i.Src1)
	case OpBinaryOp:
		return fmt.Sprintf("%s = %s %s %s", i.Dst, i.Src1, i.BinOp, i.Src2)
	case OpLabel:
		return i.Label + ":"
	case OpGoto:
		return "Goto " + i.Label
	case OpIfZ:
		return fmt.Sprintf("IfZ %s Goto %s", i.Src1, i.Label)
	case OpBeginFunc:
		return fmt.Sprintf("BeginFunc %s", i.Begin.Name)
	case OpEndFunc:
		return "EndFunc"
	case OpReturn:
		if i.Src1 != nil {
			return "Return " + i.Src1.String()
		}
		return "Return"
	case OpPushParam:
		return "PushParam " + i.Src1.String()
	case OpPopParams:
		return fmt.Sprintf("PopParams %d", i.NumBytes)
	case OpLCall:
		if i.Dst != nil {
			return fmt.Sprintf("%s = LCall %s", i.Dst, i.FuncLabel)
		}
		return "LCall " + i.FuncLabel
	case OpACall:
		if i.Dst != nil {
			return fmt.Sprintf("%s = ACall %s", i.Dst, i.Src1)
		}
		return "ACall " + i.Src1.String()
	case OpVTable:
		return fmt.Sprintf("VTable %s: %s", i.VTableClass, strings.Join(i.VTableLabels, ", "))
	default:
		return "<bad instruction>"
	}
}

// Dump renders the program's instructions one per line, used by the
// `-d tac` debug dump.
func (p *Program) Dump() string {
	var b strings.Builder
	for _, i := range p.Instructions {
		if i.Op == OpLabel {
			fmt.Fprintf(&b, "%s\n", i)
		} else {
			fmt.Fprintf(&b, "\t%s\n", i)
		}
	}
	return b.String()
}
