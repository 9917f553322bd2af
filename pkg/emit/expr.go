package emit

import (
	"fmt"

	"github.com/decaflang/dcc/pkg/ast"
	"github.com/decaflang/dcc/pkg/location"
	"github.com/decaflang/dcc/pkg/tac"
	"github.com/decaflang/dcc/pkg/types"
)

// emitExpr lowers a single expression, appending its TAC to e.prog and
// recording the Location holding its result on the node itself.
func (e *Emitter) emitExpr(x ast.Expr) (*location.Location, error) {
	switch t := x.(type) {
	case *ast.IntLit:
		return e.emitConstInt(t, t.Value), nil
	case *ast.BoolLit:
		return e.emitConstBool(t, t.Value), nil
	case *ast.StringLit:
		return e.emitConstString(t, t.Value), nil
	case *ast.NullLit:
		return e.emitConstInt(t, 0), nil
	case *ast.DoubleLit:
		return nil, fmt.Errorf("emit: double has no code generation support")
	case *ast.FieldAccess:
		return e.emitFieldAccess(t)
	case *ast.ArrayAccess:
		return e.emitArrayRead(t)
	case *ast.AssignExpr:
		return e.emitAssign(t)
	case *ast.BinaryExpr:
		return e.emitBinary(t)
	case *ast.UnaryMinusExpr:
		return e.emitUnaryMinus(t)
	case *ast.UnaryNotExpr:
		return e.emitUnaryNot(t)
	case *ast.CallExpr:
		return e.emitCall(t)
	case *ast.ThisExpr:
		loc := e.thisLoc()
		ast.SetLoc(t, loc)
		return loc, nil
	case *ast.NewObjectExpr:
		return e.emitNewObject(t)
	case *ast.NewArrayExpr:
		return e.emitNewArray(t)
	case *ast.ReadIntegerExpr:
		dst := e.newTemp()
		e.prog.Emit(&tac.Instruction{Op: tac.OpLCall, Dst: dst, FuncLabel: BuiltinReadInteger})
		ast.SetLoc(t, dst)
		return dst, nil
	case *ast.ReadLineExpr:
		dst := e.newTemp()
		e.prog.Emit(&tac.Instruction{Op: tac.OpLCall, Dst: dst, FuncLabel: BuiltinReadLine})
		ast.SetLoc(t, dst)
		return dst, nil
	default:
		return nil, fmt.Errorf("emit: unsupported expression %T", x)
	}
}

func (e *Emitter) emitConstInt(x ast.Expr, v int64) *location.Location {
	dst := e.newTemp()
	e.prog.Emit(&tac.Instruction{Op: tac.OpLoadConstInt, Dst: dst, ImmInt: v})
	ast.SetLoc(x, dst)
	return dst
}

func (e *Emitter) emitConstBool(x ast.Expr, v bool) *location.Location {
	imm := int64(0)
	if v {
		imm = 1
	}
	dst := e.newTemp()
	e.prog.Emit(&tac.Instruction{Op: tac.OpLoadConstBool, Dst: dst, ImmInt: imm})
	ast.SetLoc(x, dst)
	return dst
}

func (e *Emitter) emitConstString(x ast.Expr, v string) *location.Location {
	dst := e.newTemp()
	e.prog.Emit(&tac.Instruction{Op: tac.OpLoadConstString, Dst: dst, ImmStr: v})
	ast.SetLoc(x, dst)
	return dst
}

// emitFieldAccess lowers a bare identifier or a `base.field` read. A
// bare identifier resolving to a local, formal, or global yields its
// Location directly with no instruction emitted; one resolving to a
// field (implicit `this`, per the enclosing method, or the class whose
// layout Plan recorded) loads through the object pointer.
func (e *Emitter) emitFieldAccess(fa *ast.FieldAccess) (*location.Location, error) {
	if fa.Base == nil {
		vd := fa.Resolve()
		if vd == nil {
			return nil, fmt.Errorf("emit: undefined identifier %q", fa.Field)
		}
		if !vd.IsField {
			ast.SetLoc(fa, vd.Loc)
			return vd.Loc, nil
		}
		return e.loadField(fa, e.thisLoc(), vd)
	}

	baseLoc, err := e.emitExpr(fa.Base)
	if err != nil {
		return nil, err
	}
	vd, err := e.resolveField(fa.Base, fa.Field)
	if err != nil {
		return nil, err
	}
	fa.Decl = vd
	return e.loadField(fa, baseLoc, vd)
}

// resolveField looks up the field named name on base's static class.
func (e *Emitter) resolveField(base ast.Expr, name string) (*ast.VarDecl, error) {
	cls := e.classOf(base.StaticType())
	if cls == nil {
		return nil, fmt.Errorf("emit: %s has no fields", base.StaticType())
	}
	vd, ok := cls.Vars[name]
	if !ok {
		return nil, fmt.Errorf("emit: unknown field %q on %s", name, cls.Name)
	}
	return vd, nil
}

func (e *Emitter) loadField(fa *ast.FieldAccess, base *location.Location, vd *ast.VarDecl) (*location.Location, error) {
	dst := e.newTemp()
	e.prog.Emit(&tac.Instruction{Op: tac.OpLoad, Dst: dst, Src1: base, Offset: vd.Loc.Offset})
	ast.SetLoc(fa, dst)
	return dst, nil
}

// emitArrayRead lowers `base[index]` in value position.
func (e *Emitter) emitArrayRead(aa *ast.ArrayAccess) (*location.Location, error) {
	addr, err := e.arrayElemAddr(aa)
	if err != nil {
		return nil, err
	}
	dst := e.newTemp()
	e.prog.Emit(&tac.Instruction{Op: tac.OpLoad, Dst: dst, Src1: addr, Offset: 0})
	ast.SetLoc(aa, dst)
	return dst, nil
}

// arrayElemAddr evaluates base and index, emits the bounds check every
// array access requires (a length-prefixed array stores its length at
// base-4), and returns the element's address as a fresh Location; the
// caller Loads from or Stores to it at Offset 0.
func (e *Emitter) arrayElemAddr(aa *ast.ArrayAccess) (*location.Location, error) {
	baseLoc, err := e.emitExpr(aa.Base)
	if err != nil {
		return nil, err
	}
	indexLoc, err := e.emitExpr(aa.Index)
	if err != nil {
		return nil, err
	}

	lenLoc := e.newTemp()
	e.prog.Emit(&tac.Instruction{Op: tac.OpLoad, Dst: lenLoc, Src1: baseLoc, Offset: -4})

	zero := e.newTemp()
	e.prog.Emit(&tac.Instruction{Op: tac.OpLoadConstInt, Dst: zero, ImmInt: 0})
	ltZero := e.newTemp()
	e.prog.Emit(&tac.Instruction{Op: tac.OpBinaryOp, Dst: ltZero, Src1: indexLoc, Src2: zero, BinOp: tac.BinLess})

	ltLen := e.newTemp()
	e.prog.Emit(&tac.Instruction{Op: tac.OpBinaryOp, Dst: ltLen, Src1: indexLoc, Src2: lenLoc, BinOp: tac.BinLess})
	falseC := e.newTemp()
	e.prog.Emit(&tac.Instruction{Op: tac.OpLoadConstBool, Dst: falseC, ImmInt: 0})
	geLen := e.newTemp()
	e.prog.Emit(&tac.Instruction{Op: tac.OpBinaryOp, Dst: geLen, Src1: ltLen, Src2: falseC, BinOp: tac.BinEqual})

	bad := e.newTemp()
	e.prog.Emit(&tac.Instruction{Op: tac.OpBinaryOp, Dst: bad, Src1: ltZero, Src2: geLen, BinOp: tac.BinOr})
	e.emitTrap(bad, ErrArrayOutOfBounds)

	four := e.newTemp()
	e.prog.Emit(&tac.Instruction{Op: tac.OpLoadConstInt, Dst: four, ImmInt: 4})
	byteOff := e.newTemp()
	e.prog.Emit(&tac.Instruction{Op: tac.OpBinaryOp, Dst: byteOff, Src1: indexLoc, Src2: four, BinOp: tac.BinMul})
	addr := e.newTemp()
	e.prog.Emit(&tac.Instruction{Op: tac.OpBinaryOp, Dst: addr, Src1: baseLoc, Src2: byteOff, BinOp: tac.BinAdd})
	return addr, nil
}

// emitTrap emits: if cond is zero, fall through; otherwise print message
// and halt. Used for every runtime bounds/size check.
func (e *Emitter) emitTrap(cond *location.Location, message string) {
	lOk := e.newLabel("L")
	e.prog.Emit(&tac.Instruction{Op: tac.OpIfZ, Src1: cond, Label: lOk})

	msg := e.newTemp()
	e.prog.Emit(&tac.Instruction{Op: tac.OpLoadConstString, Dst: msg, ImmStr: message})
	e.prog.Emit(&tac.Instruction{Op: tac.OpPushParam, Src1: msg})
	e.prog.Emit(&tac.Instruction{Op: tac.OpLCall, FuncLabel: BuiltinPrintString})
	e.prog.Emit(&tac.Instruction{Op: tac.OpPopParams, NumBytes: 4})
	e.prog.Emit(&tac.Instruction{Op: tac.OpLCall, FuncLabel: BuiltinHalt})

	e.prog.Emit(&tac.Instruction{Op: tac.OpLabel, Label: lOk})
}

// emitAssign lowers `lhs = rhs`. AssignExpr's own Loc is always the
// rhs's Loc, since assignment yields the assigned value (ast.AssignExpr
// doc).
func (e *Emitter) emitAssign(a *ast.AssignExpr) (*location.Location, error) {
	rhsLoc, err := e.emitExpr(a.RHS)
	if err != nil {
		return nil, err
	}

	switch lhs := a.LHS.(type) {
	case *ast.FieldAccess:
		if lhs.Base == nil {
			vd := lhs.Resolve()
			if vd == nil {
				return nil, fmt.Errorf("emit: assignment to undefined identifier %q", lhs.Field)
			}
			if !vd.IsField {
				e.prog.Emit(&tac.Instruction{Op: tac.OpAssign, Dst: vd.Loc, Src1: rhsLoc})
			} else {
				e.prog.Emit(&tac.Instruction{Op: tac.OpStore, Dst: e.thisLoc(), Src1: rhsLoc, Offset: vd.Loc.Offset})
			}
			ast.SetLoc(a, rhsLoc)
			return rhsLoc, nil
		}

		baseLoc, err := e.emitExpr(lhs.Base)
		if err != nil {
			return nil, err
		}
		vd, err := e.resolveField(lhs.Base, lhs.Field)
		if err != nil {
			return nil, err
		}
		lhs.Decl = vd
		e.prog.Emit(&tac.Instruction{Op: tac.OpStore, Dst: baseLoc, Src1: rhsLoc, Offset: vd.Loc.Offset})
		ast.SetLoc(a, rhsLoc)
		return rhsLoc, nil

	case *ast.ArrayAccess:
		addr, err := e.arrayElemAddr(lhs)
		if err != nil {
			return nil, err
		}
		e.prog.Emit(&tac.Instruction{Op: tac.OpStore, Dst: addr, Src1: rhsLoc, Offset: 0})
		ast.SetLoc(a, rhsLoc)
		return rhsLoc, nil

	default:
		return nil, fmt.Errorf("emit: unsupported assignment target %T", a.LHS)
	}
}

// emitBinary lowers arithmetic, relational, equality, and logical forms.
// Relational forms not directly representable as a single BinaryOp
// rewrite to combinations of `<` and `==`; string equality dispatches to
// the runtime comparison builtin instead of a raw BinaryOp.
func (e *Emitter) emitBinary(b *ast.BinaryExpr) (*location.Location, error) {
	switch b.Op {
	case ast.OpAnd:
		return e.emitLogical(b, true)
	case ast.OpOr:
		return e.emitLogical(b, false)
	}

	lhsLoc, err := e.emitExpr(b.LHS)
	if err != nil {
		return nil, err
	}
	rhsLoc, err := e.emitExpr(b.RHS)
	if err != nil {
		return nil, err
	}

	if (b.Op == ast.OpEqual || b.Op == ast.OpNotEqual) && b.LHS.StaticType().Equal(types.String) {
		return e.emitStringCompare(b, lhsLoc, rhsLoc, b.Op == ast.OpNotEqual)
	}

	switch b.Op {
	case ast.OpAdd:
		return e.emitSimpleBinary(b, tac.BinAdd, lhsLoc, rhsLoc), nil
	case ast.OpSub:
		return e.emitSimpleBinary(b, tac.BinSub, lhsLoc, rhsLoc), nil
	case ast.OpMul:
		return e.emitSimpleBinary(b, tac.BinMul, lhsLoc, rhsLoc), nil
	case ast.OpDiv:
		return e.emitSimpleBinary(b, tac.BinDiv, lhsLoc, rhsLoc), nil
	case ast.OpMod:
		return e.emitSimpleBinary(b, tac.BinMod, lhsLoc, rhsLoc), nil
	case ast.OpLess:
		return e.emitSimpleBinary(b, tac.BinLess, lhsLoc, rhsLoc), nil
	case ast.OpGreater:
		// a > b rewrites to b < a.
		return e.emitSimpleBinary(b, tac.BinLess, rhsLoc, lhsLoc), nil
	case ast.OpEqual:
		return e.emitSimpleBinary(b, tac.BinEqual, lhsLoc, rhsLoc), nil
	case ast.OpNotEqual:
		eq := e.newTemp()
		e.prog.Emit(&tac.Instruction{Op: tac.OpBinaryOp, Dst: eq, Src1: lhsLoc, Src2: rhsLoc, BinOp: tac.BinEqual})
		return e.notOf(b, eq), nil
	case ast.OpLessEq:
		// a <= b rewrites to (a < b) || (a == b).
		lt := e.newTemp()
		e.prog.Emit(&tac.Instruction{Op: tac.OpBinaryOp, Dst: lt, Src1: lhsLoc, Src2: rhsLoc, BinOp: tac.BinLess})
		eq := e.newTemp()
		e.prog.Emit(&tac.Instruction{Op: tac.OpBinaryOp, Dst: eq, Src1: lhsLoc, Src2: rhsLoc, BinOp: tac.BinEqual})
		dst := e.newTemp()
		e.prog.Emit(&tac.Instruction{Op: tac.OpBinaryOp, Dst: dst, Src1: lt, Src2: eq, BinOp: tac.BinOr})
		ast.SetLoc(b, dst)
		return dst, nil
	case ast.OpGreaterEq:
		// a >= b rewrites to (b < a) || (a == b).
		lt := e.newTemp()
		e.prog.Emit(&tac.Instruction{Op: tac.OpBinaryOp, Dst: lt, Src1: rhsLoc, Src2: lhsLoc, BinOp: tac.BinLess})
		eq := e.newTemp()
		e.prog.Emit(&tac.Instruction{Op: tac.OpBinaryOp, Dst: eq, Src1: lhsLoc, Src2: rhsLoc, BinOp: tac.BinEqual})
		dst := e.newTemp()
		e.prog.Emit(&tac.Instruction{Op: tac.OpBinaryOp, Dst: dst, Src1: lt, Src2: eq, BinOp: tac.BinOr})
		ast.SetLoc(b, dst)
		return dst, nil
	default:
		return nil, fmt.Errorf("emit: unsupported binary operator %s", b.Op)
	}
}

func (e *Emitter) emitSimpleBinary(b *ast.BinaryExpr, op tac.BinOp, l, r *location.Location) *location.Location {
	dst := e.newTemp()
	e.prog.Emit(&tac.Instruction{Op: tac.OpBinaryOp, Dst: dst, Src1: l, Src2: r, BinOp: op})
	ast.SetLoc(b, dst)
	return dst
}

// emitStringCompare dispatches `==`/`!=` between string operands to the
// `_StringEqual` builtin: Decaf strings compare by content, not pointer
// identity.
func (e *Emitter) emitStringCompare(b *ast.BinaryExpr, l, r *location.Location, negate bool) (*location.Location, error) {
	e.prog.Emit(&tac.Instruction{Op: tac.OpPushParam, Src1: r})
	e.prog.Emit(&tac.Instruction{Op: tac.OpPushParam, Src1: l})
	eq := e.newTemp()
	e.prog.Emit(&tac.Instruction{Op: tac.OpLCall, Dst: eq, FuncLabel: BuiltinStringEqual})
	e.prog.Emit(&tac.Instruction{Op: tac.OpPopParams, NumBytes: 8})
	if !negate {
		ast.SetLoc(b, eq)
		return eq, nil
	}
	return e.notOf(b, eq), nil
}

// notOf emits `v == false` and records the result as x's Loc (the
// UnaryNotExpr lowering rule, reused wherever a boolean needs negating).
func (e *Emitter) notOf(x ast.Expr, v *location.Location) *location.Location {
	falseC := e.newTemp()
	e.prog.Emit(&tac.Instruction{Op: tac.OpLoadConstBool, Dst: falseC, ImmInt: 0})
	dst := e.newTemp()
	e.prog.Emit(&tac.Instruction{Op: tac.OpBinaryOp, Dst: dst, Src1: v, Src2: falseC, BinOp: tac.BinEqual})
	ast.SetLoc(x, dst)
	return dst
}

// emitLogical lowers short-circuit `&&`/`||`: rhs is only evaluated when
// its value can change the result.
func (e *Emitter) emitLogical(b *ast.BinaryExpr, isAnd bool) (*location.Location, error) {
	result := e.newTemp()
	lhsLoc, err := e.emitExpr(b.LHS)
	if err != nil {
		return nil, err
	}
	e.prog.Emit(&tac.Instruction{Op: tac.OpAssign, Dst: result, Src1: lhsLoc})

	lSkip := e.newLabel("L")
	if isAnd {
		e.prog.Emit(&tac.Instruction{Op: tac.OpIfZ, Src1: result, Label: lSkip})
	} else {
		lEval := e.newLabel("L")
		e.prog.Emit(&tac.Instruction{Op: tac.OpIfZ, Src1: result, Label: lEval})
		e.prog.Emit(&tac.Instruction{Op: tac.OpGoto, Label: lSkip})
		e.prog.Emit(&tac.Instruction{Op: tac.OpLabel, Label: lEval})
	}

	rhsLoc, err := e.emitExpr(b.RHS)
	if err != nil {
		return nil, err
	}
	e.prog.Emit(&tac.Instruction{Op: tac.OpAssign, Dst: result, Src1: rhsLoc})
	e.prog.Emit(&tac.Instruction{Op: tac.OpLabel, Label: lSkip})

	ast.SetLoc(b, result)
	return result, nil
}

func (e *Emitter) emitUnaryMinus(u *ast.UnaryMinusExpr) (*location.Location, error) {
	rhsLoc, err := e.emitExpr(u.RHS)
	if err != nil {
		return nil, err
	}
	zero := e.newTemp()
	e.prog.Emit(&tac.Instruction{Op: tac.OpLoadConstInt, Dst: zero, ImmInt: 0})
	dst := e.newTemp()
	e.prog.Emit(&tac.Instruction{Op: tac.OpBinaryOp, Dst: dst, Src1: zero, Src2: rhsLoc, BinOp: tac.BinSub})
	ast.SetLoc(u, dst)
	return dst, nil
}

func (e *Emitter) emitUnaryNot(u *ast.UnaryNotExpr) (*location.Location, error) {
	rhsLoc, err := e.emitExpr(u.RHS)
	if err != nil {
		return nil, err
	}
	return e.notOf(u, rhsLoc), nil
}

// emitCall lowers a call, which is one of: the `array.length()`
// pseudo-call, a plain top-level function call (static, via LCall), or
// a method call, implicit or explicit `this`, always dispatched
// dynamically through the callee object's vtable (via ACall) since an
// overriding subclass instance must run its own override regardless of
// the static receiver type.
func (e *Emitter) emitCall(c *ast.CallExpr) (*location.Location, error) {
	if c.Base != nil {
		if bt := c.Base.StaticType(); bt != nil && bt.Kind == types.KindArray && c.Method == "length" {
			return e.emitArrayLength(c)
		}
	}

	if c.Base == nil {
		if fd := ast.LookupFunc(c, c.Method); fd != nil && !fd.IsMethod {
			if err := e.emitArgs(c.Args); err != nil {
				return nil, err
			}
			return e.finishCall(c, tac.OpLCall, fd.Label, nil, 4*len(c.Args)), nil
		}
	}

	var baseLoc *location.Location
	var baseType *types.Type
	if c.Base != nil {
		loc, err := e.emitExpr(c.Base)
		if err != nil {
			return nil, err
		}
		baseLoc, baseType = loc, c.Base.StaticType()
	} else {
		cls := ast.EnclosingClass(c)
		if cls == nil {
			return nil, fmt.Errorf("emit: call to undefined function %q", c.Method)
		}
		baseLoc, baseType = e.thisLoc(), types.Named(cls.Name)
	}

	slot, ok := e.methodSlot(baseType, c.Method)
	if !ok {
		return nil, fmt.Errorf("emit: no method %q on type %s", c.Method, baseType)
	}

	if err := e.emitArgs(c.Args); err != nil {
		return nil, err
	}
	e.prog.Emit(&tac.Instruction{Op: tac.OpPushParam, Src1: baseLoc})

	vt := e.newTemp()
	e.prog.Emit(&tac.Instruction{Op: tac.OpLoad, Dst: vt, Src1: baseLoc, Offset: 0})
	target := e.newTemp()
	e.prog.Emit(&tac.Instruction{Op: tac.OpLoad, Dst: target, Src1: vt, Offset: slot * 4})

	return e.finishCall(c, tac.OpACall, "", target, 4*(len(c.Args)+1)), nil
}

func (e *Emitter) emitArrayLength(c *ast.CallExpr) (*location.Location, error) {
	baseLoc, err := e.emitExpr(c.Base)
	if err != nil {
		return nil, err
	}
	dst := e.newTemp()
	e.prog.Emit(&tac.Instruction{Op: tac.OpLoad, Dst: dst, Src1: baseLoc, Offset: -4})
	ast.SetLoc(c, dst)
	return dst, nil
}

// methodSlot resolves method on a receiver of static type t: a known
// class consults its own planned vtable slots; a named type absent from
// the planner's class table is assumed to be an interface, whose
// methods the Layout Planner reserves at a slot shared by every
// implementing class.
func (e *Emitter) methodSlot(t *types.Type, method string) (int, bool) {
	if t == nil {
		return 0, false
	}
	if cls := e.classOf(t); cls != nil {
		idx, ok := cls.MethodSlot[method]
		return idx, ok
	}
	if t.Kind == types.KindNamed {
		return e.planner.InterfaceMethodSlot(t.Name, method)
	}
	return 0, false
}

// emitArgs evaluates and pushes args right-to-left, matching the
// formal-offset assignment in pkg/layout (the leftmost formal sits at
// the lowest positive frame offset, so it must be pushed last).
func (e *Emitter) emitArgs(args []ast.Expr) error {
	for i := len(args) - 1; i >= 0; i-- {
		loc, err := e.emitExpr(args[i])
		if err != nil {
			return err
		}
		e.prog.Emit(&tac.Instruction{Op: tac.OpPushParam, Src1: loc})
	}
	return nil
}

// finishCall emits the LCall/ACall instruction (with a Dst only when x
// has a non-void static type) followed by PopParams, and records the
// result Location on x.
func (e *Emitter) finishCall(x ast.Expr, op tac.Op, funcLabel string, target *location.Location, numBytes int) *location.Location {
	instr := &tac.Instruction{Op: op, FuncLabel: funcLabel, Src1: target}
	if rt := x.StaticType(); rt == nil || !rt.Equal(types.Void) {
		instr.Dst = e.newTemp()
	}
	e.prog.Emit(instr)
	e.prog.Emit(&tac.Instruction{Op: tac.OpPopParams, NumBytes: numBytes})
	if instr.Dst != nil {
		ast.SetLoc(x, instr.Dst)
	}
	return instr.Dst
}

func (e *Emitter) emitNewObject(n *ast.NewObjectExpr) (*location.Location, error) {
	cls, ok := e.planner.Class(n.Class)
	if !ok {
		return nil, fmt.Errorf("emit: unknown class %q", n.Class)
	}

	sizeC := e.newTemp()
	e.prog.Emit(&tac.Instruction{Op: tac.OpLoadConstInt, Dst: sizeC, ImmInt: int64(cls.Size)})
	e.prog.Emit(&tac.Instruction{Op: tac.OpPushParam, Src1: sizeC})
	obj := e.newTemp()
	e.prog.Emit(&tac.Instruction{Op: tac.OpLCall, Dst: obj, FuncLabel: BuiltinAlloc})
	e.prog.Emit(&tac.Instruction{Op: tac.OpPopParams, NumBytes: 4})

	vlabel := e.newTemp()
	e.prog.Emit(&tac.Instruction{Op: tac.OpLoadLabel, Dst: vlabel, Label: vtableLabel(cls.Name)})
	e.prog.Emit(&tac.Instruction{Op: tac.OpStore, Dst: obj, Src1: vlabel, Offset: 0})

	ast.SetLoc(n, obj)
	return obj, nil
}

// emitNewArray lowers array allocation: a runtime size check, an _Alloc call for (size+1)*4 bytes (the extra
// word holds the length), the length stored at offset 0, and the
// returned array value pointing past it at the first element.
func (e *Emitter) emitNewArray(n *ast.NewArrayExpr) (*location.Location, error) {
	sizeLoc, err := e.emitExpr(n.Size)
	if err != nil {
		return nil, err
	}

	oneC := e.newTemp()
	e.prog.Emit(&tac.Instruction{Op: tac.OpLoadConstInt, Dst: oneC, ImmInt: 1})
	ltOne := e.newTemp()
	e.prog.Emit(&tac.Instruction{Op: tac.OpBinaryOp, Dst: ltOne, Src1: sizeLoc, Src2: oneC, BinOp: tac.BinLess})
	e.emitTrap(ltOne, ErrArrayBadSize)

	sizePlus1 := e.newTemp()
	e.prog.Emit(&tac.Instruction{Op: tac.OpBinaryOp, Dst: sizePlus1, Src1: sizeLoc, Src2: oneC, BinOp: tac.BinAdd})
	four := e.newTemp()
	e.prog.Emit(&tac.Instruction{Op: tac.OpLoadConstInt, Dst: four, ImmInt: 4})
	bytes := e.newTemp()
	e.prog.Emit(&tac.Instruction{Op: tac.OpBinaryOp, Dst: bytes, Src1: sizePlus1, Src2: four, BinOp: tac.BinMul})

	e.prog.Emit(&tac.Instruction{Op: tac.OpPushParam, Src1: bytes})
	raw := e.newTemp()
	e.prog.Emit(&tac.Instruction{Op: tac.OpLCall, Dst: raw, FuncLabel: BuiltinAlloc})
	e.prog.Emit(&tac.Instruction{Op: tac.OpPopParams, NumBytes: 4})

	e.prog.Emit(&tac.Instruction{Op: tac.OpStore, Dst: raw, Src1: sizeLoc, Offset: 0})

	arrPtr := e.newTemp()
	e.prog.Emit(&tac.Instruction{Op: tac.OpBinaryOp, Dst: arrPtr, Src1: raw, Src2: four, BinOp: tac.BinAdd})
	ast.SetLoc(n, arrPtr)
	return arrPtr, nil
}
