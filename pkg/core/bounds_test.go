package core

import "testing"

func TestParseBounds(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Bounds
		ok       bool
	}{
		{
			name:     "simple rect",
			input:    "[0,0][100,200]",
			expected: Bounds{X: 0, Y: 0, Width: 100, Height: 200},
			ok:       true,
		},
		{
			name:     "offset rect",
			input:    "[10,20][110,220]",
			expected: Bounds{X: 10, Y: 20, Width: 100, Height: 200},
			ok:       true,
		},
		{
			name:     "spaces tolerated",
			input:    "[ 5, 6][ 15, 26]",
			expected: Bounds{X: 5, Y: 6, Width: 10, Height: 20},
			ok:       true,
		},
		{
			name:  "empty string",
			input: "",
			ok:    false,
		},
		{
			name:  "garbage",
			input: "not-bounds",
			ok:    false,
		},
		{
			name:  "missing corner",
			input: "[0,0]",
			ok:    false,
		},
		{
			name:  "non numeric",
			input: "[a,b][c,d]",
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseBounds(tt.input)
			if ok != tt.ok {
				t.Fatalf("got ok=%v, want %v", ok, tt.ok)
			}
			if ok && got != tt.expected {
				t.Errorf("got %+v, want %+v", got, tt.expected)
			}
		})
	}
}

func TestBounds_Center(t *testing.T) {
	tests := []struct {
		name     string
		bounds   Bounds
		expected LogicalPoint
	}{
		{
			name:     "origin rect",
			bounds:   Bounds{X: 0, Y: 0, Width: 100, Height: 200},
			expected: LogicalPoint{X: 50, Y: 100},
		},
		{
			name:     "offset rect",
			bounds:   Bounds{X: 10, Y: 20, Width: 30, Height: 40},
			expected: LogicalPoint{X: 25, Y: 40},
		},
		{
			name:     "odd dimensions floor",
			bounds:   Bounds{X: 0, Y: 0, Width: 5, Height: 7},
			expected: LogicalPoint{X: 2, Y: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.bounds.Center(); got != tt.expected {
				t.Errorf("got %+v, want %+v", got, tt.expected)
			}
		})
	}
}

func TestBounds_Contains(t *testing.T) {
	b := Bounds{X: 10, Y: 10, Width: 20, Height: 20}

	tests := []struct {
		name     string
		x, y     int
		expected bool
	}{
		{"inside", 15, 15, true},
		{"top-left corner inclusive", 10, 10, true},
		{"bottom-right corner exclusive", 30, 30, false},
		{"left of bounds", 9, 15, false},
		{"below bounds", 15, 31, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.Contains(tt.x, tt.y); got != tt.expected {
				t.Errorf("Contains(%d,%d)=%v, want %v", tt.x, tt.y, got, tt.expected)
			}
		})
	}
}

func TestBounds_IsZero(t *testing.T) {
	tests := []struct {
		name     string
		bounds   Bounds
		expected bool
	}{
		{"empty", Bounds{}, true},
		{"1x1", Bounds{Width: 1, Height: 1}, false},
		{"zero width", Bounds{Width: 0, Height: 5}, true},
		{"zero height", Bounds{Width: 5, Height: 0}, true},
		{"negative width", Bounds{Width: -3, Height: 5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.bounds.IsZero(); got != tt.expected {
				t.Errorf("got %v, want %v", got, tt.expected)
			}
		})
	}
}
