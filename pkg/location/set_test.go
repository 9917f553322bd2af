package location

import "testing"

func TestSetAddReportsChange(t *testing.T) {
	s := NewSet()
	a := New("a", FPRelative, -4)
	if !s.Add(a) {
		t.Error("first Add of a fresh Location should report true")
	}
	if s.Add(a) {
		t.Error("second Add of the same Key should report false")
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestSetUnionAndMinus(t *testing.T) {
	a := New("a", FPRelative, -4)
	b := New("b", FPRelative, -8)
	c := New("c", FPRelative, -12)

	s1 := NewSet()
	s1.Add(a)
	s1.Add(b)

	s2 := NewSet()
	s2.Add(b)
	s2.Add(c)

	u := s1.Union(s2)
	if u.Len() != 3 {
		t.Fatalf("Union Len() = %d, want 3", u.Len())
	}

	d := s1.Minus(s2)
	if d.Len() != 1 || !d.Contains(a) {
		t.Errorf("Minus should leave only a, got %s", d)
	}
}

func TestSetEqualIgnoresRegisterAnnotation(t *testing.T) {
	a1 := New("a", FPRelative, -4)
	a2 := New("a", FPRelative, -4)
	a2.Register = 9

	s1 := NewSet()
	s1.Add(a1)
	s2 := NewSet()
	s2.Add(a2)

	if !s1.Equal(s2) {
		t.Error("Equal should compare by Key, not by Register")
	}
}

func TestSetSortedIsCanonicalOrder(t *testing.T) {
	s := NewSet()
	s.Add(New("c", FPRelative, 0))
	s.Add(New("a", FPRelative, 0))
	s.Add(New("b", FPRelative, 0))

	sorted := s.Sorted()
	names := make([]string, len(sorted))
	for i, l := range sorted {
		names[i] = l.Name
	}
	want := []string{"a", "b", "c"}
	for i, n := range want {
		if names[i] != n {
			t.Errorf("Sorted()[%d] = %q, want %q (got %v)", i, names[i], n, names)
		}
	}
}

func TestSetStringRendersBraceList(t *testing.T) {
	s := NewSet()
	s.Add(New("a", FPRelative, 0))
	s.Add(New("b", FPRelative, 0))
	got := s.String()
	want := "{a(fp+0), b(fp+0)}"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestSetMinusWithNilOtherKeepsAll(t *testing.T) {
	s := NewSet()
	s.Add(New("a", FPRelative, 0))
	d := s.Minus(nil)
	if d.Len() != 1 {
		t.Errorf("Minus(nil) should keep all members, got Len() = %d", d.Len())
	}
}
