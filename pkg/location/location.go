// Package location implements the Location value: the operand of every
// TAC instruction, carrying a segment, a byte offset, a debug name, and
// (after register allocation) a physical register.
//
// Design note: liveness and interference sets key on a stable value
// identity, the (Name, Segment, Offset) triple, used as the map/set key
// everywhere determinism matters. The Register field is a mutable
// annotation on the same object, not part of its identity: two
// references to "the same" Location keep a pointer to one shared
// *Location so that a register assignment written by the allocator is
// visible to every consumer.
package location

import "fmt"

// Segment is the storage class of a Location.
type Segment uint8

const (
	// GPRelative locations live in the global data segment, addressed
	// relative to the global pointer.
	GPRelative Segment = iota
	// FPRelative locations live in the current stack frame, addressed
	// relative to the frame pointer. Formals sit at positive offsets;
	// locals and compiler temporaries sit at offsets <= -8.
	FPRelative
)

func (s Segment) String() string {
	if s == GPRelative {
		return "gp"
	}
	return "fp"
}

// Register is a physical register assignment, or RegNone if the
// Location was never colored / was spilled to memory. The zero value is
// RegNone so an unallocated Location reads as "in memory" by default.
type Register uint8

const RegNone Register = 0

// Key is the stable, comparable identity of a Location: used as a map
// key for live-variable sets and interference-graph adjacency so that
// iteration order (via a sorted slice of Keys) is reproducible across
// runs.
type Key struct {
	Name    string
	Segment Segment
	Offset  int
}

// Less implements the canonical ordering (name, segment, offset) used to
// key ordered sets throughout the pipeline.
func (k Key) Less(o Key) bool {
	if k.Name != o.Name {
		return k.Name < o.Name
	}
	if k.Segment != o.Segment {
		return k.Segment < o.Segment
	}
	return k.Offset < o.Offset
}

// Location is the operand of every TAC instruction and the unit the
// register allocator colors.
type Location struct {
	Name     string
	Segment  Segment
	Offset   int
	Register Register
}

// New constructs a Location. Callers share the returned pointer among
// every TAC operand and AST Loc field that refers to the same variable
// or temporary, so a later register assignment is visible everywhere.
func New(name string, seg Segment, offset int) *Location {
	return &Location{Name: name, Segment: seg, Offset: offset}
}

// Key returns l's stable identity.
func (l *Location) Key() Key {
	return Key{Name: l.Name, Segment: l.Segment, Offset: l.Offset}
}

// Spilled reports whether l has no register assignment and must be
// addressed through memory.
func (l *Location) Spilled() bool {
	return l.Register == RegNone
}

func (l *Location) String() string {
	if l == nil {
		return "<nil loc>"
	}
	return fmt.Sprintf("%s(%s%+d)", l.Name, l.Segment, l.Offset)
}
