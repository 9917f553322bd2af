// Package ast defines the checked abstract syntax tree consumed by the
// Decaf back end. The front end (lexer, parser, and semantic analyzer)
// is out of scope; everything in this package describes the tree
// *after* name resolution and type checking have already run, which is
// the only contract the back end relies on.
package ast

import (
	"github.com/decaflang/dcc/pkg/location"
	"github.com/decaflang/dcc/pkg/types"
)

// Position is a source location, carried for diagnostics only; the back
// end never needs it for correctness.
type Position struct {
	Line, Column int
}

// Identifier is a name plus the position where it was written. Two
// Identifiers are the same symbol if their Name strings are equal;
// interning is by string equality, not object identity, since the
// checked tree may hand back the same name from independent nodes.
type Identifier struct {
	Name string
	Pos  Position
}

// Node is the root of every declaration, statement, and expression.
// Parent is a non-owning back-reference, set once by whichever
// constructor adopts the child; it exists purely so statements like
// Break can climb to the nearest enclosing loop and so a field access
// can climb to the enclosing function/class/program scope.
type Node interface {
	Parent() Node
	setParent(Node)
}

// base is embedded by every concrete node and supplies the Node
// interface plus the two scope tables a node may host. Only
// Program, FnDecl, ClassDecl, and BlockStmt actually populate these; every other
// node carries them unused at zero cost (nil maps).
type base struct {
	parent Node
	Vars   map[string]*VarDecl
	Funcs  map[string]*FnDecl
}

func (b *base) Parent() Node     { return b.parent }
func (b *base) setParent(p Node) { b.parent = p }

// adopt sets child's parent to owner, if child is non-nil. It is called
// by every declaration/statement constructor that owns children, right
// after building the struct literal, so the parent pointer is set
// before anything else can observe the node. A plain back-pointer is
// enough here: Go's GC collects the resulting cycles on its own.
func adopt(owner Node, children ...Node) {
	for _, c := range children {
		if c != nil {
			c.setParent(owner)
		}
	}
}

// LookupVar climbs from n toward the root looking for name in a Vars
// scope table, implementing the resolution order
// for field access: function locals/formals, then enclosing class, then
// program globals (climbing naturally visits locals before outer scopes
// because BlockStmt/FnDecl scopes sit below ClassDecl/Program in the
// tree).
func LookupVar(n Node, name string) *VarDecl {
	for cur := n; cur != nil; cur = cur.Parent() {
		if tbl := varsOf(cur); tbl != nil {
			if vd, ok := tbl[name]; ok {
				return vd
			}
		}
	}
	return nil
}

// LookupFunc climbs from n toward the root looking for name in a Funcs
// scope table (top-level functions and, for a method body, the
// enclosing class's methods including inherited ones).
func LookupFunc(n Node, name string) *FnDecl {
	for cur := n; cur != nil; cur = cur.Parent() {
		if tbl := funcsOf(cur); tbl != nil {
			if fd, ok := tbl[name]; ok {
				return fd
			}
		}
	}
	return nil
}

// EnclosingFunction returns the nearest FnDecl ancestor of n, or nil at
// the program root. Used to find "this" and the current return target.
func EnclosingFunction(n Node) *FnDecl {
	for cur := n; cur != nil; cur = cur.Parent() {
		if fd, ok := cur.(*FnDecl); ok {
			return fd
		}
	}
	return nil
}

// EnclosingClass returns the nearest ClassDecl ancestor of n, or nil if
// n is not inside a method body.
func EnclosingClass(n Node) *ClassDecl {
	for cur := n; cur != nil; cur = cur.Parent() {
		if cd, ok := cur.(*ClassDecl); ok {
			return cd
		}
	}
	return nil
}

// LoopStmt is implemented by ForStmt and WhileStmt: the node that owns
// the label a Break statement inside it targets.
type LoopStmt interface {
	Stmt
	EndLabel() string
	setEndLabel(string)
}

// EnclosingLoop returns the nearest loop statement ancestor of n.
func EnclosingLoop(n Node) LoopStmt {
	for cur := n; cur != nil; cur = cur.Parent() {
		if ls, ok := cur.(LoopStmt); ok {
			return ls
		}
	}
	return nil
}

func varsOf(n Node) map[string]*VarDecl {
	switch t := n.(type) {
	case *Program:
		return t.Vars
	case *FnDecl:
		return t.Vars
	case *BlockStmt:
		return t.Vars
	case *ClassDecl:
		return t.Vars
	}
	return nil
}

func funcsOf(n Node) map[string]*FnDecl {
	switch t := n.(type) {
	case *Program:
		return t.Funcs
	case *ClassDecl:
		return t.Funcs
	}
	return nil
}

// Program is the root of the tree: the program's top-level globals,
// functions, and classes/interfaces, in declaration order.
type Program struct {
	base
	Decls []Decl
}

// NewProgram returns an empty Program with initialized scope tables.
func NewProgram() *Program {
	p := &Program{}
	p.Vars = make(map[string]*VarDecl)
	p.Funcs = make(map[string]*FnDecl)
	return p
}

// AddDecl appends a top-level declaration, adopts it, and, for
// VarDecl/FnDecl, registers it into the program's scope tables so
// later LookupVar/LookupFunc calls see it.
func (p *Program) AddDecl(d Decl) {
	p.Decls = append(p.Decls, d)
	adopt(p, d)
	switch t := d.(type) {
	case *VarDecl:
		p.Vars[t.Name] = t
	case *FnDecl:
		p.Funcs[t.Name] = t
	}
}

// Decl, Stmt, and Expr are closed categories, dispatched by a Go type
// switch in every consumer (layout planner, emitter) rather than a
// dynamic_cast chain.
type Decl interface {
	Node
	declNode()
}

type Stmt interface {
	Node
	stmtNode()
}

type Expr interface {
	Node
	exprNode()
	// Loc returns the Location holding this expression's runtime value,
	// set by the emitter before any consumer reads it. Nil until emitted.
	Loc() *location.Location
	setLoc(*location.Location)
	// AssignType overrides the expression's static Type. The JSON
	// decoder (pkg/ast/json.go) uses this to attach the out-of-scope
	// checker's computed type to composite expressions whose Type can't
	// be derived structurally (e.g. a field access's Base, needed to
	// resolve which class's layout to read).
	AssignType(*types.Type)
	// StaticType returns the type AssignType last recorded.
	StaticType() *types.Type
}

// exprBase is embedded by every expression and supplies the Loc
// bookkeeping plus the declared static Type (already computed by the
// out-of-scope type checker).
type exprBase struct {
	base
	Type *types.Type
	loc  *location.Location
}

func (e *exprBase) exprNode()                  {}
func (e *exprBase) Loc() *location.Location     { return e.loc }
func (e *exprBase) setLoc(l *location.Location) { e.loc = l }
func (e *exprBase) AssignType(t *types.Type)    { e.Type = t }
func (e *exprBase) StaticType() *types.Type     { return e.Type }

// SetLoc records the Location holding e's runtime value. Exported as a
// free function (rather than an exported interface method) so the
// emitter is the only caller expected to ever set it; every other
// package only reads Loc().
func SetLoc(e Expr, loc *location.Location) {
	e.setLoc(loc)
}

// SetLoopEndLabel records the label a Break inside ls should jump to.
// Exported as a free function for the same reason as SetLoc: the
// emitter is the only caller that needs write access.
func SetLoopEndLabel(ls LoopStmt, label string) {
	ls.setEndLabel(label)
}
