package types

import "testing"

func TestEqualStructural(t *testing.T) {
	tests := []struct {
		name string
		a, b *Type
		want bool
	}{
		{"same primitive", Int, Int, true},
		{"different primitive", Int, Bool, false},
		{"named same class", Named("Animal"), Named("Animal"), true},
		{"named different class", Named("Animal"), Named("Rock"), false},
		{"array of equal elems", ArrayOf(Int), ArrayOf(Int), true},
		{"array of unequal elems", ArrayOf(Int), ArrayOf(Bool), false},
		{"array vs primitive", ArrayOf(Int), Int, false},
		{"nested arrays", ArrayOf(ArrayOf(Named("X"))), ArrayOf(ArrayOf(Named("X"))), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEqualNilHandling(t *testing.T) {
	if !((*Type)(nil)).Equal(nil) {
		t.Error("nil.Equal(nil) should be true")
	}
	if Int.Equal(nil) {
		t.Error("Int.Equal(nil) should be false")
	}
}

func TestIsNumeric(t *testing.T) {
	for _, ty := range []*Type{Int, Double} {
		if !ty.IsNumeric() {
			t.Errorf("%s should be numeric", ty)
		}
	}
	for _, ty := range []*Type{Bool, String, Void, Null, Named("C"), ArrayOf(Int)} {
		if ty.IsNumeric() {
			t.Errorf("%s should not be numeric", ty)
		}
	}
}

func TestStringRendering(t *testing.T) {
	tests := []struct {
		ty   *Type
		want string
	}{
		{Int, "int"},
		{Bool, "bool"},
		{String, "string"},
		{Named("Shape"), "Shape"},
		{ArrayOf(Int), "int[]"},
		{ArrayOf(Named("Shape")), "Shape[]"},
		{ArrayOf(ArrayOf(Int)), "int[][]"},
	}
	for _, tt := range tests {
		if got := tt.ty.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestSizeIsAlwaysOneWord(t *testing.T) {
	for _, ty := range []*Type{Int, Bool, String, Named("C"), ArrayOf(Int)} {
		if got := ty.Size(); got != 4 {
			t.Errorf("%s.Size() = %d, want 4", ty, got)
		}
	}
}
