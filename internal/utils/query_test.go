package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	cases := []struct {
		in   string
		def  int
		want int
	}{
		{"42", 0, 42},
		{" 7 ", 0, 7},
		{"", 10, 10},
		{"x", 5, 5},
		{"-3", 1, -3},
	}
	for _, tc := range cases {
		if got := AtoiDefault(tc.in, tc.def); got != tc.want {
			t.Fatalf("AtoiDefault(%q, %d) = %d, want %d", tc.in, tc.def, got, tc.want)
		}
	}
}

func TestBoundedAtoi(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"30", 30},
		{"50", 50},
		{"500", 50},
		{"0", 20},
		{"-1", 20},
		{"", 20},
		{"ten", 20},
	}
	for _, tc := range cases {
		if got := BoundedAtoi(tc.in, 20, 50); got != tc.want {
			t.Fatalf("BoundedAtoi(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
