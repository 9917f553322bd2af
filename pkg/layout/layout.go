// Package layout implements the Layout Planner: the first AST walk,
// which assigns every variable a Location, every class a size and
// vtable, and every function a label, before the TAC Emitter's second
// walk consumes any of it.
package layout

import (
	"fmt"

	"github.com/decaflang/dcc/pkg/ast"
	"github.com/decaflang/dcc/pkg/location"
)

// Planner runs the Program pass and the (memoized, recursive) Class
// pass over a checked *ast.Program. It is a value threaded through
// emission, not a process-wide singleton.
type Planner struct {
	classes map[string]*ast.ClassDecl

	// ifaceSlots maps an interface name to its methods' globally unique
	// vtable slot indices: every class implementing a given interface
	// method is required to place it at the same slot, so a call through
	// an interface-typed expression can dispatch without knowing the
	// concrete receiver class.
	ifaceSlots    map[string]map[string]int
	nextIfaceSlot int
}

// New returns a Planner ready to plan prog.
func New() *Planner {
	return &Planner{
		classes:    make(map[string]*ast.ClassDecl),
		ifaceSlots: make(map[string]map[string]int),
	}
}

// Plan runs the Program pass followed by the Class pass over every
// registered class. It must run before any TAC is
// emitted for prog.
func (p *Planner) Plan(prog *ast.Program) error {
	nextGlobal := 0
	for _, d := range prog.Decls {
		switch t := d.(type) {
		case *ast.VarDecl:
			t.Loc = location.New(t.Name, location.GPRelative, nextGlobal)
			nextGlobal += 4
		case *ast.FnDecl:
			t.Label = functionLabel(t.Name)
		case *ast.ClassDecl:
			p.classes[t.Name] = t
		case *ast.InterfaceDecl:
			p.registerInterfaceSlots(t)
		}
	}

	for _, c := range p.classes {
		if err := p.planClass(c); err != nil {
			return err
		}
	}
	return nil
}

// registerInterfaceSlots assigns every method of ifc a slot from a
// single counter shared across all interfaces, so two unrelated
// interfaces never collide on the same index.
func (p *Planner) registerInterfaceSlots(ifc *ast.InterfaceDecl) {
	slots := make(map[string]int, len(ifc.Methods))
	for _, m := range ifc.Methods {
		slots[m.Name] = p.nextIfaceSlot
		p.nextIfaceSlot++
	}
	p.ifaceSlots[ifc.Name] = slots
}

// InterfaceMethodSlot returns the vtable slot reserved for method on
// iface, if iface was declared and names it.
func (p *Planner) InterfaceMethodSlot(iface, method string) (int, bool) {
	slots, ok := p.ifaceSlots[iface]
	if !ok {
		return 0, false
	}
	idx, ok := slots[method]
	return idx, ok
}

// Class returns the ClassDecl registered under name, if any. Used by
// the TAC Emitter to resolve a static object type to its vtable/field
// layout when lowering field access, array-of-object layout, and method
// calls.
func (p *Planner) Class(name string) (*ast.ClassDecl, bool) {
	c, ok := p.classes[name]
	return c, ok
}

// functionLabel is the top-level function naming rule: "main" is
// special, everything else gets an underscore prefix.
func functionLabel(name string) string {
	if name == "main" {
		return "main"
	}
	return "_" + name
}

// planClass assigns c's field offsets, vtable slots, method labels, and
// instance size, recursively planning c's parent first if it hasn't been
// planned yet. A missing parent is a caller bug, since semantic analysis
// (out of scope here) already verified inheritance is well-formed, so it
// panics rather than returning a user-facing error.
func (p *Planner) planClass(c *ast.ClassDecl) error {
	if c.Planned() {
		return nil
	}

	var parent *ast.ClassDecl
	inheritedSize := 0
	if c.ParentName != "" {
		var ok bool
		parent, ok = p.classes[c.ParentName]
		if !ok {
			panic(fmt.Sprintf("layout: class %q has unknown parent %q (semantic analysis should have rejected this)", c.Name, c.ParentName))
		}
		if err := p.planClass(parent); err != nil {
			return err
		}
		inheritedSize = parent.Size

		for k, v := range parent.Vars {
			c.Vars[k] = v
		}
		for k, v := range parent.Funcs {
			c.Funcs[k] = v
		}
		c.VTableLabels = append(c.VTableLabels, parent.VTableLabels...)
		for name, idx := range parent.MethodSlot {
			c.MethodSlot[name] = idx
		}
	}

	// inheritedSize is parent.Size, which already counts the vtable
	// pointer at offset 0, so the first own field continues right where
	// the parent's fields left off. With no parent, the vtable pointer
	// still has to be skipped explicitly.
	offset := inheritedSize
	if parent == nil {
		offset = 4
	}
	for _, f := range c.Fields {
		f.Loc = location.New(f.Name, location.FPRelative, offset)
		// Field Locations are not frame-relative in the usual sense: they
		// are object-relative byte offsets, reusing FPRelative's
		// addressed-by-base-plus-offset shape. Field access always
		// computes an explicit base (an object pointer), never the
		// current frame pointer, so there's no ambiguity with genuine
		// stack locals at emission time.
		offset += 4
		c.Vars[f.Name] = f
	}

	// Reserve the implemented interfaces' method slots before assigning
	// c's own methods, so a method also declared by an implemented
	// interface lands at the slot every other implementor uses too.
	// Iteration over each interface's slot map is unordered, but the
	// result doesn't depend on order: every method name maps to a fixed
	// global slot regardless of which one is reserved first.
	for _, ifaceName := range c.Implements {
		for name, slot := range p.ifaceSlots[ifaceName] {
			if _, already := c.MethodSlot[name]; already {
				continue
			}
			for len(c.VTableLabels) <= slot {
				c.VTableLabels = append(c.VTableLabels, "")
			}
			c.MethodSlot[name] = slot
		}
	}

	for _, m := range c.Methods {
		m.Label = fmt.Sprintf("_%s.%s", c.Name, m.Name)
		m.IsMethod = true
		c.Funcs[m.Name] = m
		if idx, overriding := c.MethodSlot[m.Name]; overriding {
			c.VTableLabels[idx] = m.Label
		} else {
			c.MethodSlot[m.Name] = len(c.VTableLabels)
			c.VTableLabels = append(c.VTableLabels, m.Label)
		}
	}

	c.Size = 4 + len(allFields(c))*4
	c.MarkPlanned()
	return nil
}

// allFields returns every field reachable from c's Vars table that was
// assigned an FPRelative Location (every field, inherited or own),
// used only to compute c.Size without re-walking the inheritance chain.
func allFields(c *ast.ClassDecl) []*ast.VarDecl {
	out := make([]*ast.VarDecl, 0, len(c.Vars))
	for _, v := range c.Vars {
		if v.Loc != nil && v.Loc.Segment == location.FPRelative {
			out = append(out, v)
		}
	}
	return out
}

// PlanFormals assigns Location to every formal of fn: the hidden
// `this` (if fn is a method) sits at fp+4 and named formals
// start at fp+8; otherwise named formals start at fp+4. Formals are
// pushed right-to-left by the caller so the leftmost formal sits at the
// lowest positive offset. This runs once, right before the TAC Emitter
// lowers fn's body, so the body's identifier references resolve against
// real Locations.
func PlanFormals(fn *ast.FnDecl) {
	offset := 4
	if fn.IsMethod {
		fn.ThisLoc = location.New("this", location.FPRelative, offset)
		offset += 4
	}
	fn.FormalLocs = make([]*location.Location, len(fn.Formals))
	for i, f := range fn.Formals {
		loc := location.New(f.Name, location.FPRelative, offset)
		f.Loc = loc
		fn.FormalLocs[i] = loc
		offset += 4
	}
	fn.Offset = -8
}
