package location

import (
	"sort"
	"strings"
)

// Set is an ordered set of Locations, keyed by Key so membership and
// union/diff operations are independent of the Register annotation.
// Iteration is always in canonical (name, segment, offset) order,
// required for byte-identical MIPS output across runs.
type Set struct {
	items map[Key]*Location
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{items: make(map[Key]*Location)}
}

// Add inserts loc, returning true if the set changed.
func (s *Set) Add(loc *Location) bool {
	if loc == nil {
		return false
	}
	k := loc.Key()
	if _, ok := s.items[k]; ok {
		return false
	}
	s.items[k] = loc
	return true
}

// Contains reports whether loc (by Key) is a member.
func (s *Set) Contains(loc *Location) bool {
	if loc == nil {
		return false
	}
	_, ok := s.items[loc.Key()]
	return ok
}

// Len returns the number of members.
func (s *Set) Len() int {
	return len(s.items)
}

// Sorted returns the members in canonical order.
func (s *Set) Sorted() []*Location {
	out := make([]*Location, 0, len(s.items))
	for _, l := range s.items {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key().Less(out[j].Key()) })
	return out
}

// Union returns a new Set containing the members of s and other.
func (s *Set) Union(other *Set) *Set {
	out := NewSet()
	for _, l := range s.items {
		out.Add(l)
	}
	if other != nil {
		for _, l := range other.items {
			out.Add(l)
		}
	}
	return out
}

// Minus returns a new Set containing members of s not present in other.
func (s *Set) Minus(other *Set) *Set {
	out := NewSet()
	for k, l := range s.items {
		if other != nil {
			if _, dead := other.items[k]; dead {
				continue
			}
		}
		out.Add(l)
	}
	return out
}

// Equal reports whether s and other contain the same Keys.
func (s *Set) Equal(other *Set) bool {
	if other == nil {
		return len(s.items) == 0
	}
	if len(s.items) != len(other.items) {
		return false
	}
	for k := range s.items {
		if _, ok := other.items[k]; !ok {
			return false
		}
	}
	return true
}

// Clone returns a shallow copy of s.
func (s *Set) Clone() *Set {
	out := NewSet()
	for _, l := range s.items {
		out.Add(l)
	}
	return out
}

// String renders s in canonical order as a comma-separated brace list,
// e.g. "{a, b, c}", used by the liveness debug dump.
func (s *Set) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, l := range s.Sorted() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(l.String())
	}
	b.WriteByte('}')
	return b.String()
}
