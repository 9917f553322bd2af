package ast

import "github.com/decaflang/dcc/pkg/types"

// Operator is the closed set of binary operators, as a tagged enum
// rather than a stringly-typed operator field, so every consumer
// dispatches with an exhaustive type switch instead of string compares.
type Operator uint8

const (
	OpAdd Operator = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpLess
	OpGreater
	OpLessEq
	OpGreaterEq
	OpEqual
	OpNotEqual
	OpAnd
	OpOr
)

func (o Operator) String() string {
	switch o {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMod:
		return "%"
	case OpLess:
		return "<"
	case OpGreater:
		return ">"
	case OpLessEq:
		return "<="
	case OpGreaterEq:
		return ">="
	case OpEqual:
		return "=="
	case OpNotEqual:
		return "!="
	case OpAnd:
		return "&&"
	case OpOr:
		return "||"
	default:
		return "<bad-op>"
	}
}

// IntLit, DoubleLit, BoolLit, StringLit, NullLit are the constant
// expression forms. The double kind exists only so a checked tree that
// declares a double constant parses; it has no codegen path.
type IntLit struct {
	exprBase
	Value int64
}

func NewIntLit(v int64) *IntLit {
	e := &IntLit{Value: v}
	e.Type = types.Int
	return e
}

type DoubleLit struct {
	exprBase
	Value float64
}

func NewDoubleLit(v float64) *DoubleLit {
	e := &DoubleLit{Value: v}
	e.Type = types.Double
	return e
}

type BoolLit struct {
	exprBase
	Value bool
}

func NewBoolLit(v bool) *BoolLit {
	e := &BoolLit{Value: v}
	e.Type = types.Bool
	return e
}

type StringLit struct {
	exprBase
	Value string
}

func NewStringLit(v string) *StringLit {
	e := &StringLit{Value: v}
	e.Type = types.String
	return e
}

type NullLit struct {
	exprBase
}

func NewNullLit() *NullLit {
	e := &NullLit{}
	e.Type = types.Null
	return e
}

// FieldAccess is either a bare identifier (Base == nil, resolved by
// scope walk: locals/formals, enclosing class, program globals) or an
// explicit member access `base.field`.
// Decl is resolved by the emitter the first time this node is lowered
// and cached here.
type FieldAccess struct {
	exprBase
	Base  Expr // nil for a bare identifier
	Field string

	Decl *VarDecl // resolved VarDecl this access refers to
}

func NewFieldAccess(base Expr, field string) *FieldAccess {
	e := &FieldAccess{Base: base, Field: field}
	if base != nil {
		adopt(e, base)
	}
	return e
}

// Resolve looks up the VarDecl this bare-identifier access names and
// caches it on Decl.
func (e *FieldAccess) Resolve() *VarDecl {
	if e.Decl != nil {
		return e.Decl
	}
	if e.Base != nil {
		return nil // member access: resolved against the base's class, not scope
	}
	e.Decl = LookupVar(e, e.Field)
	return e.Decl
}

// ArrayAccess is `base[index]`, bounds-checked at emission.
type ArrayAccess struct {
	exprBase
	Base  Expr
	Index Expr
}

func NewArrayAccess(base, index Expr) *ArrayAccess {
	e := &ArrayAccess{Base: base, Index: index}
	adopt(e, base, index)
	return e
}

// AssignExpr is `lhs = rhs`; its own Loc, once emitted, is the rhs's
// Loc (assignment is itself an expression in Decaf and yields the
// assigned value).
type AssignExpr struct {
	exprBase
	LHS Expr
	RHS Expr
}

func NewAssignExpr(lhs, rhs Expr) *AssignExpr {
	e := &AssignExpr{LHS: lhs, RHS: rhs}
	adopt(e, lhs, rhs)
	return e
}

// BinaryExpr covers arithmetic, relational, equality, and logical forms.
// Which TAC shape a given Op lowers to is the emitter's job, not this
// node's: And/Or short-circuit, the others are straight-line.
type BinaryExpr struct {
	exprBase
	Op  Operator
	LHS Expr
	RHS Expr
}

func NewBinaryExpr(op Operator, lhs, rhs Expr) *BinaryExpr {
	e := &BinaryExpr{Op: op, LHS: lhs, RHS: rhs}
	adopt(e, lhs, rhs)
	return e
}

// UnaryMinusExpr lowers to `0 - rhs`.
type UnaryMinusExpr struct {
	exprBase
	RHS Expr
}

func NewUnaryMinusExpr(rhs Expr) *UnaryMinusExpr {
	e := &UnaryMinusExpr{RHS: rhs}
	adopt(e, rhs)
	return e
}

// UnaryNotExpr lowers to `rhs == false`.
type UnaryNotExpr struct {
	exprBase
	RHS Expr
}

func NewUnaryNotExpr(rhs Expr) *UnaryNotExpr {
	e := &UnaryNotExpr{RHS: rhs}
	adopt(e, rhs)
	return e
}

// CallExpr is either a plain function call (Base == nil) or a method
// call (Base is an object expression, or implicit `this` when Base is
// nil but the call resolves inside a class), distinguished by the
// emitter via scope lookup.
type CallExpr struct {
	exprBase
	Base   Expr // nil for a plain function call or implicit-this method call
	Method string
	Args   []Expr
}

func NewCallExpr(base Expr, method string, args []Expr) *CallExpr {
	e := &CallExpr{Base: base, Method: method, Args: args}
	if base != nil {
		adopt(e, base)
	}
	for _, a := range args {
		adopt(e, a)
	}
	return e
}

// ThisExpr loads the "this" Location from the enclosing method's
// formals.
type ThisExpr struct {
	exprBase
}

func NewThisExpr() *ThisExpr { return &ThisExpr{} }

// NewObjectExpr allocates and initializes an instance of Class.
type NewObjectExpr struct {
	exprBase
	Class string
}

func NewNewObjectExpr(class string) *NewObjectExpr {
	e := &NewObjectExpr{Class: class}
	e.Type = types.Named(class)
	return e
}

// NewArrayExpr allocates a length-prefixed array of Elem, Size elements.
type NewArrayExpr struct {
	exprBase
	Elem *types.Type
	Size Expr
}

func NewNewArrayExpr(elem *types.Type, size Expr) *NewArrayExpr {
	e := &NewArrayExpr{Elem: elem, Size: size}
	adopt(e, size)
	e.Type = types.ArrayOf(elem)
	return e
}

// ReadIntegerExpr and ReadLineExpr call the `_ReadInteger`/`_ReadLine`
// builtins with no arguments.
type ReadIntegerExpr struct{ exprBase }
type ReadLineExpr struct{ exprBase }

func NewReadIntegerExpr() *ReadIntegerExpr {
	e := &ReadIntegerExpr{}
	e.Type = types.Int
	return e
}

func NewReadLineExpr() *ReadLineExpr {
	e := &ReadLineExpr{}
	e.Type = types.String
	return e
}
