package location

import "testing"

func TestKeyLessOrdersByNameThenSegmentThenOffset(t *testing.T) {
	tests := []struct {
		name string
		a, b Key
		want bool
	}{
		{"name wins", Key{Name: "a", Offset: 100}, Key{Name: "b", Offset: -100}, true},
		{"segment breaks name tie", Key{Name: "x", Segment: GPRelative}, Key{Name: "x", Segment: FPRelative}, true},
		{"offset breaks segment tie", Key{Name: "x", Segment: FPRelative, Offset: -8}, Key{Name: "x", Segment: FPRelative, Offset: -4}, true},
		{"equal keys", Key{Name: "x"}, Key{Name: "x"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Less(tt.b); got != tt.want {
				t.Errorf("Less() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLocationSpilledReflectsRegisterField(t *testing.T) {
	l := New("x", FPRelative, -8)
	if !l.Spilled() {
		t.Error("freshly constructed Location should be Spilled (RegNone)")
	}
	l.Register = 3
	if l.Spilled() {
		t.Error("Location with a non-RegNone Register should not be Spilled")
	}
}

func TestSharedPointerIdentityVisibleAcrossReferences(t *testing.T) {
	// Two TAC operands referring to "the same" variable must share one
	// *Location so a register assignment is visible through either
	// reference, per the package doc's design note.
	l := New("x", FPRelative, -8)
	dst := l
	src := l
	dst.Register = 5
	if src.Register != 5 {
		t.Errorf("expected shared pointer to see register write, got %d", src.Register)
	}
}

func TestKeyIdentityIndependentOfRegister(t *testing.T) {
	a := New("x", FPRelative, -8)
	b := New("x", FPRelative, -8)
	b.Register = 7
	if a.Key() != b.Key() {
		t.Error("Key should ignore Register: two Locations with the same name/segment/offset must compare equal")
	}
}
