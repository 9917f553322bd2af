package ast

// This file implements the front-end/back-end seam: the lexer, parser,
// and checker are out of scope here, but they have to hand the back end
// something, and the wire format is a JSON AST dump, the same idea as a
// `--dump-ast` flag built on `encoding/json`. Decode follows the same
// convention: every polymorphic node is a small envelope carrying a
// string "kind" tag plus the fields for that kind, decoded with a type
// switch exactly like the Go-side Decl/Stmt/Expr type switches the rest
// of the back end already uses.

import (
	"encoding/json"
	"fmt"

	"github.com/decaflang/dcc/pkg/types"
)

// wireType is the JSON shape of a types.Type.
type wireType struct {
	Kind string    `json:"kind"`
	Name string    `json:"name,omitempty"`
	Elem *wireType `json:"elem,omitempty"`
}

func decodeType(w *wireType) (*types.Type, error) {
	if w == nil {
		return types.Void, nil
	}
	switch w.Kind {
	case "int":
		return types.Int, nil
	case "double":
		return types.Double, nil
	case "bool":
		return types.Bool, nil
	case "string":
		return types.String, nil
	case "void":
		return types.Void, nil
	case "null":
		return types.Null, nil
	case "named":
		return types.Named(w.Name), nil
	case "array":
		elem, err := decodeType(w.Elem)
		if err != nil {
			return nil, err
		}
		return types.ArrayOf(elem), nil
	default:
		return nil, fmt.Errorf("ast: unknown type kind %q", w.Kind)
	}
}

type wireVarDecl struct {
	Name string    `json:"name"`
	Type *wireType `json:"type"`
}

func decodeVarDecl(w *wireVarDecl) (*VarDecl, error) {
	t, err := decodeType(w.Type)
	if err != nil {
		return nil, err
	}
	return NewVarDecl(w.Name, t), nil
}

type wireFnDecl struct {
	Name       string         `json:"name"`
	ReturnType *wireType      `json:"returnType"`
	Formals    []*wireVarDecl `json:"formals"`
	Body       *wireStmt      `json:"body,omitempty"`
	IsMethod   bool           `json:"isMethod,omitempty"`
}

func decodeFnDecl(w *wireFnDecl) (*FnDecl, error) {
	ret, err := decodeType(w.ReturnType)
	if err != nil {
		return nil, err
	}
	fn := NewFnDecl(w.Name, ret)
	fn.IsMethod = w.IsMethod
	for _, wv := range w.Formals {
		vd, err := decodeVarDecl(wv)
		if err != nil {
			return nil, err
		}
		fn.AddFormal(vd)
	}
	if w.Body != nil {
		body, err := decodeStmt(w.Body)
		if err != nil {
			return nil, err
		}
		block, ok := body.(*BlockStmt)
		if !ok {
			return nil, fmt.Errorf("ast: function %q body must be a block", w.Name)
		}
		fn.SetBody(block)
	}
	return fn, nil
}

type wireClassDecl struct {
	Name       string         `json:"name"`
	Parent     string         `json:"parent,omitempty"`
	Implements []string       `json:"implements,omitempty"`
	Fields     []*wireVarDecl `json:"fields,omitempty"`
	Methods    []*wireFnDecl  `json:"methods,omitempty"`
}

func decodeClassDecl(w *wireClassDecl) (*ClassDecl, error) {
	c := NewClassDecl(w.Name, w.Parent)
	c.Implements = w.Implements
	for _, wv := range w.Fields {
		vd, err := decodeVarDecl(wv)
		if err != nil {
			return nil, err
		}
		c.AddField(vd)
	}
	for _, wf := range w.Methods {
		fn, err := decodeFnDecl(wf)
		if err != nil {
			return nil, err
		}
		fn.IsMethod = true
		c.AddMethod(fn)
	}
	return c, nil
}

type wireInterfaceDecl struct {
	Name    string        `json:"name"`
	Methods []*wireFnDecl `json:"methods,omitempty"`
}

func decodeInterfaceDecl(w *wireInterfaceDecl) (*InterfaceDecl, error) {
	i := NewInterfaceDecl(w.Name)
	for _, wf := range w.Methods {
		fn, err := decodeFnDecl(wf)
		if err != nil {
			return nil, err
		}
		i.AddMethod(fn)
	}
	return i, nil
}

type wireDecl struct {
	Kind          string             `json:"kind"`
	VarDecl       *wireVarDecl       `json:"varDecl,omitempty"`
	FnDecl        *wireFnDecl        `json:"fnDecl,omitempty"`
	ClassDecl     *wireClassDecl     `json:"classDecl,omitempty"`
	InterfaceDecl *wireInterfaceDecl `json:"interfaceDecl,omitempty"`
}

func decodeDecl(w *wireDecl) (Decl, error) {
	switch w.Kind {
	case "var":
		return decodeVarDecl(w.VarDecl)
	case "fn":
		return decodeFnDecl(w.FnDecl)
	case "class":
		return decodeClassDecl(w.ClassDecl)
	case "interface":
		return decodeInterfaceDecl(w.InterfaceDecl)
	default:
		return nil, fmt.Errorf("ast: unknown decl kind %q", w.Kind)
	}
}

type wireStmt struct {
	Kind string `json:"kind"`

	// block
	Locals []*wireVarDecl `json:"locals,omitempty"`
	Stmts  []*wireStmt    `json:"stmts,omitempty"`
	// if
	Test *wireExpr `json:"test,omitempty"`
	Then *wireStmt `json:"then,omitempty"`
	Else *wireStmt `json:"else,omitempty"`
	// while/for
	Init *wireExpr `json:"init,omitempty"`
	Step *wireExpr `json:"step,omitempty"`
	Body *wireStmt `json:"body,omitempty"`
	// return
	Value *wireExpr `json:"value,omitempty"`
	// print
	Args []*wireExpr `json:"args,omitempty"`
	// expr-statement
	X *wireExpr `json:"x,omitempty"`
}

func decodeStmt(w *wireStmt) (Stmt, error) {
	switch w.Kind {
	case "block":
		b := NewBlockStmt()
		for _, wv := range w.Locals {
			vd, err := decodeVarDecl(wv)
			if err != nil {
				return nil, err
			}
			b.AddLocal(vd)
		}
		for _, ws := range w.Stmts {
			s, err := decodeStmt(ws)
			if err != nil {
				return nil, err
			}
			b.AddStmt(s)
		}
		return b, nil
	case "if":
		test, err := decodeExpr(w.Test)
		if err != nil {
			return nil, err
		}
		then, err := decodeStmt(w.Then)
		if err != nil {
			return nil, err
		}
		var els Stmt
		if w.Else != nil {
			els, err = decodeStmt(w.Else)
			if err != nil {
				return nil, err
			}
		}
		return NewIfStmt(test, then, els), nil
	case "while":
		test, err := decodeExpr(w.Test)
		if err != nil {
			return nil, err
		}
		body, err := decodeStmt(w.Body)
		if err != nil {
			return nil, err
		}
		return NewWhileStmt(test, body), nil
	case "for":
		var init, test, step Expr
		var err error
		if w.Init != nil {
			if init, err = decodeExpr(w.Init); err != nil {
				return nil, err
			}
		}
		if w.Test != nil {
			if test, err = decodeExpr(w.Test); err != nil {
				return nil, err
			}
		}
		if w.Step != nil {
			if step, err = decodeExpr(w.Step); err != nil {
				return nil, err
			}
		}
		body, err := decodeStmt(w.Body)
		if err != nil {
			return nil, err
		}
		return NewForStmt(init, test, step, body), nil
	case "break":
		return NewBreakStmt(), nil
	case "return":
		var v Expr
		var err error
		if w.Value != nil {
			if v, err = decodeExpr(w.Value); err != nil {
				return nil, err
			}
		}
		return NewReturnStmt(v), nil
	case "print":
		args, err := decodeExprs(w.Args)
		if err != nil {
			return nil, err
		}
		return NewPrintStmt(args...), nil
	case "expr":
		x, err := decodeExpr(w.X)
		if err != nil {
			return nil, err
		}
		return NewExprStmt(x), nil
	default:
		return nil, fmt.Errorf("ast: unknown stmt kind %q", w.Kind)
	}
}

type wireExpr struct {
	Kind string    `json:"kind"`
	Type *wireType `json:"type,omitempty"`

	IntValue    int64   `json:"intValue,omitempty"`
	DoubleValue float64 `json:"doubleValue,omitempty"`
	BoolValue   bool    `json:"boolValue,omitempty"`
	StringValue string  `json:"stringValue,omitempty"`

	Base  *wireExpr `json:"base,omitempty"`
	Field string    `json:"field,omitempty"`
	Index *wireExpr `json:"index,omitempty"`

	LHS *wireExpr `json:"lhs,omitempty"`
	RHS *wireExpr `json:"rhs,omitempty"`
	Op  string    `json:"op,omitempty"`

	Method string      `json:"method,omitempty"`
	Args   []*wireExpr `json:"args,omitempty"`

	Class string    `json:"class,omitempty"`
	Elem  *wireType `json:"elem,omitempty"`
	Size  *wireExpr `json:"size,omitempty"`
}

var opByName = map[string]Operator{
	"+": OpAdd, "-": OpSub, "*": OpMul, "/": OpDiv, "%": OpMod,
	"<": OpLess, ">": OpGreater, "<=": OpLessEq, ">=": OpGreaterEq,
	"==": OpEqual, "!=": OpNotEqual, "&&": OpAnd, "||": OpOr,
}

func decodeExprs(ws []*wireExpr) ([]Expr, error) {
	out := make([]Expr, 0, len(ws))
	for _, w := range ws {
		e, err := decodeExpr(w)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func decodeExpr(w *wireExpr) (Expr, error) {
	e, err := decodeExprKind(w)
	if err != nil {
		return nil, err
	}
	// Composite expressions carry an explicit checker-computed type;
	// literals already set their own Type in their constructor and
	// don't need an override.
	if w.Type != nil {
		t, err := decodeType(w.Type)
		if err != nil {
			return nil, err
		}
		e.AssignType(t)
	}
	return e, nil
}

func decodeExprKind(w *wireExpr) (Expr, error) {
	if w == nil {
		return nil, fmt.Errorf("ast: nil expression")
	}
	switch w.Kind {
	case "int":
		return NewIntLit(w.IntValue), nil
	case "double":
		return NewDoubleLit(w.DoubleValue), nil
	case "bool":
		return NewBoolLit(w.BoolValue), nil
	case "string":
		return NewStringLit(w.StringValue), nil
	case "null":
		return NewNullLit(), nil
	case "field":
		var base Expr
		var err error
		if w.Base != nil {
			if base, err = decodeExpr(w.Base); err != nil {
				return nil, err
			}
		}
		return NewFieldAccess(base, w.Field), nil
	case "index":
		base, err := decodeExpr(w.Base)
		if err != nil {
			return nil, err
		}
		idx, err := decodeExpr(w.Index)
		if err != nil {
			return nil, err
		}
		return NewArrayAccess(base, idx), nil
	case "assign":
		lhs, err := decodeExpr(w.LHS)
		if err != nil {
			return nil, err
		}
		rhs, err := decodeExpr(w.RHS)
		if err != nil {
			return nil, err
		}
		return NewAssignExpr(lhs, rhs), nil
	case "binary":
		op, ok := opByName[w.Op]
		if !ok {
			return nil, fmt.Errorf("ast: unknown operator %q", w.Op)
		}
		lhs, err := decodeExpr(w.LHS)
		if err != nil {
			return nil, err
		}
		rhs, err := decodeExpr(w.RHS)
		if err != nil {
			return nil, err
		}
		return NewBinaryExpr(op, lhs, rhs), nil
	case "neg":
		rhs, err := decodeExpr(w.RHS)
		if err != nil {
			return nil, err
		}
		return NewUnaryMinusExpr(rhs), nil
	case "not":
		rhs, err := decodeExpr(w.RHS)
		if err != nil {
			return nil, err
		}
		return NewUnaryNotExpr(rhs), nil
	case "call":
		var base Expr
		var err error
		if w.Base != nil {
			if base, err = decodeExpr(w.Base); err != nil {
				return nil, err
			}
		}
		args, err := decodeExprs(w.Args)
		if err != nil {
			return nil, err
		}
		return NewCallExpr(base, w.Method, args), nil
	case "this":
		return NewThisExpr(), nil
	case "new":
		return NewNewObjectExpr(w.Class), nil
	case "newarray":
		elem, err := decodeType(w.Elem)
		if err != nil {
			return nil, err
		}
		size, err := decodeExpr(w.Size)
		if err != nil {
			return nil, err
		}
		return NewNewArrayExpr(elem, size), nil
	case "readinteger":
		return NewReadIntegerExpr(), nil
	case "readline":
		return NewReadLineExpr(), nil
	default:
		return nil, fmt.Errorf("ast: unknown expr kind %q", w.Kind)
	}
}

type wireProgram struct {
	Decls []*wireDecl `json:"decls"`
}

// DecodeProgram decodes a JSON checked-AST into a *Program. The JSON
// shape is the wire contract between the (out-of-scope) front end and
// this back end.
func DecodeProgram(data []byte) (*Program, error) {
	var wp wireProgram
	if err := json.Unmarshal(data, &wp); err != nil {
		return nil, fmt.Errorf("ast: decoding program: %w", err)
	}
	prog := NewProgram()
	for _, wd := range wp.Decls {
		d, err := decodeDecl(wd)
		if err != nil {
			return nil, err
		}
		prog.AddDecl(d)
	}
	return prog, nil
}
