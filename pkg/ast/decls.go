package ast

import (
	"github.com/decaflang/dcc/pkg/location"
	"github.com/decaflang/dcc/pkg/types"
)

// VarDecl is a variable declaration: a global, a formal, a field, or a
// local. Loc is assigned by the Layout Planner and must be non-nil by
// the time the TAC Emitter resolves any reference to this VarDecl.
type VarDecl struct {
	base
	Name string
	Type *types.Type
	Pos  Position
	Loc  *location.Location

	// IsField marks a VarDecl that the Layout Planner placed in a
	// class's object layout rather than a stack frame or the global
	// segment. A field access through it needs an explicit Load/Store
	// against an object pointer; every other VarDecl's Loc is directly
	// addressable on its own.
	IsField bool
}

func NewVarDecl(name string, t *types.Type) *VarDecl {
	return &VarDecl{Name: name, Type: t}
}

func (v *VarDecl) declNode() {}

// FnDecl is a function or method declaration. Label is the assembly
// label assigned by the Layout Planner ("main", "_name", or
// "_Class.method"). Offset is the per-function frame cursor; it starts
// at -8 and descends by 4 for every local/temporary allocated while the
// TAC Emitter walks Body; the final value becomes the function's frame
// size, backpatched into its BeginFunc instruction. Formals is the
// ordered list of formal Locations, positive offsets from fp, assigned
// by the Layout Planner before the body is emitted.
type FnDecl struct {
	base
	Name       string
	ReturnType *types.Type
	Formals    []*VarDecl
	Body       *BlockStmt // nil for prototypes (interface methods)
	IsMethod   bool       // true if this is a class method (has a hidden `this`)

	Label       string
	Offset      int // frame cursor, descends from -8 while the body is lowered
	FormalLocs  []*location.Location
	ThisLoc     *location.Location // only set when IsMethod
}

func NewFnDecl(name string, ret *types.Type) *FnDecl {
	f := &FnDecl{Name: name, ReturnType: ret}
	f.Vars = make(map[string]*VarDecl)
	return f
}

func (f *FnDecl) declNode() {}

// AddFormal appends a formal parameter and adopts it, registering it
// into the function's scope table.
func (f *FnDecl) AddFormal(v *VarDecl) {
	f.Formals = append(f.Formals, v)
	adopt(f, v)
	f.Vars[v.Name] = v
}

// SetBody attaches and adopts the function's body block.
func (f *FnDecl) SetBody(b *BlockStmt) {
	f.Body = b
	adopt(f, b)
}

// NextTemp allocates a fresh fp-relative Location for a compiler
// temporary named "_tmpN", descending the frame cursor.
func (f *FnDecl) NextTemp(n int) *location.Location {
	loc := location.New(tempName(n), location.FPRelative, f.Offset)
	f.Offset -= 4
	return loc
}

// NextLocal allocates a fresh fp-relative Location for a declared local
// variable, descending the frame cursor.
func (f *FnDecl) NextLocal(name string) *location.Location {
	loc := location.New(name, location.FPRelative, f.Offset)
	f.Offset -= 4
	return loc
}

// FrameSize returns the backpatched frame size implied by the current
// cursor: -8 - offset.
func (f *FnDecl) FrameSize() int {
	return -8 - f.Offset
}

func tempName(n int) string {
	const digits = "0123456789"
	if n == 0 {
		return "_tmp0"
	}
	buf := make([]byte, 0, 8)
	for n > 0 {
		buf = append([]byte{digits[n%10]}, buf...)
		n /= 10
	}
	return "_tmp" + string(buf)
}

// ClassDecl is a class declaration: identifier, optional parent, a list
// of implemented interfaces (semantic-checking concern only: no codegen
// artifact derives from Implements), fields, methods, the
// inherited+own vtable slot list, and the instance size in bytes.
type ClassDecl struct {
	base
	Name       string
	ParentName string // empty if no parent
	Implements []string

	Fields  []*VarDecl
	Methods []*FnDecl

	// VTableLabels is the inheritance-preserving ordered list of method
	// labels: inherited slots keep their index, overrides replace the
	// label at the existing index, new methods append.
	VTableLabels []string
	// MethodSlot maps a method name to its index in VTableLabels.
	MethodSlot map[string]int
	// Size is 4 (vtable pointer) + 4*len(fields), including inherited.
	Size int

	isPlanned bool // memoization guard for the Layout Planner's class pass
}

// Planned reports whether the Layout Planner has already processed this
// class.
func (c *ClassDecl) Planned() bool { return c.isPlanned }

// MarkPlanned records that the Layout Planner has finished this class.
func (c *ClassDecl) MarkPlanned() { c.isPlanned = true }

func NewClassDecl(name, parent string) *ClassDecl {
	c := &ClassDecl{Name: name, ParentName: parent}
	c.Vars = make(map[string]*VarDecl)
	c.Funcs = make(map[string]*FnDecl)
	c.MethodSlot = make(map[string]int)
	return c
}

func (c *ClassDecl) declNode() {}

// AddField appends and adopts a field declaration.
func (c *ClassDecl) AddField(v *VarDecl) {
	v.IsField = true
	c.Fields = append(c.Fields, v)
	adopt(c, v)
}

// AddMethod appends and adopts a method declaration, registering it into
// the class's function scope table.
func (c *ClassDecl) AddMethod(f *FnDecl) {
	c.Methods = append(c.Methods, f)
	adopt(c, f)
	c.Funcs[f.Name] = f
}

// InterfaceDecl declares an interface: a name plus member function
// prototypes (no bodies). Interfaces contribute nothing to code
// generation directly; they exist in this package only so a checked AST
// that names one round-trips.
type InterfaceDecl struct {
	base
	Name    string
	Methods []*FnDecl // prototypes: Body is always nil
}

func NewInterfaceDecl(name string) *InterfaceDecl {
	return &InterfaceDecl{Name: name}
}

func (i *InterfaceDecl) declNode() {}

func (i *InterfaceDecl) AddMethod(f *FnDecl) {
	i.Methods = append(i.Methods, f)
	adopt(i, f)
}
