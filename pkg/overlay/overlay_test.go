package overlay

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/devicelab-dev/uipilot/pkg/core"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 40, G: 40, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestClampGridSize(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		expected int
	}{
		{"zero uses default", 0, 10},
		{"negative uses default", -3, 10},
		{"below minimum clamps up", 3, 5},
		{"minimum kept", 5, 5},
		{"in range kept", 12, 12},
		{"maximum kept", 20, 20},
		{"above maximum clamps down", 50, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampGridSize(tt.input); got != tt.expected {
				t.Errorf("ClampGridSize(%d)=%d, want %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCellLabel(t *testing.T) {
	tests := []struct {
		col, row int
		expected string
	}{
		{0, 0, "A1"},
		{1, 0, "B1"},
		{0, 1, "A2"},
		{9, 9, "J10"},
		{19, 19, "T20"},
	}

	for _, tt := range tests {
		if got := CellLabel(tt.col, tt.row); got != tt.expected {
			t.Errorf("CellLabel(%d,%d)=%q, want %q", tt.col, tt.row, got, tt.expected)
		}
	}
}

func TestGrid(t *testing.T) {
	tests := []struct {
		name               string
		physW, physH       int
		logicalW, logicalH int
		gridSize           int
		wantCells          int
	}{
		{"1x 10x10", 390, 844, 390, 844, 10, 100},
		{"3x retina 10x10", 1170, 2532, 390, 844, 10, 100},
		{"5x5 grid", 390, 844, 390, 844, 5, 25},
		{"20x20 grid", 780, 1688, 390, 844, 20, 400},
		{"different axis scales", 1170, 1688, 390, 844, 10, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shot := testPNG(t, tt.physW, tt.physH)
			out, gridMap, err := Grid(shot, tt.logicalW, tt.logicalH, tt.gridSize)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(out) == 0 {
				t.Fatal("empty overlay output")
			}
			if len(gridMap) != tt.wantCells {
				t.Fatalf("got %d cells, want %d", len(gridMap), tt.wantCells)
			}

			// Every center must land inside the window and inside its
			// own cell, off-by-one tolerated from physical flooring.
			cellW := float64(tt.logicalW) / float64(tt.gridSize)
			cellH := float64(tt.logicalH) / float64(tt.gridSize)
			for row := 0; row < tt.gridSize; row++ {
				for col := 0; col < tt.gridSize; col++ {
					label := CellLabel(col, row)
					center, ok := gridMap[label]
					if !ok {
						t.Fatalf("missing cell %s", label)
					}
					wantX := (float64(col) + 0.5) * cellW
					wantY := (float64(row) + 0.5) * cellH
					if diff := float64(center.X) - wantX; diff < -1.5 || diff > 1.5 {
						t.Errorf("%s: got X=%d, want about %.1f", label, center.X, wantX)
					}
					if diff := float64(center.Y) - wantY; diff < -1.5 || diff > 1.5 {
						t.Errorf("%s: got Y=%d, want about %.1f", label, center.Y, wantY)
					}
					if center.X < 0 || center.X >= tt.logicalW || center.Y < 0 || center.Y >= tt.logicalH {
						t.Errorf("%s: center %+v outside window", label, center)
					}
				}
			}

			if w, h, err := Dimensions(out); err != nil || w != tt.physW || h != tt.physH {
				t.Errorf("overlay dimensions got %dx%d (%v), want %dx%d", w, h, err, tt.physW, tt.physH)
			}
		})
	}
}

func TestGrid_InvalidWindow(t *testing.T) {
	shot := testPNG(t, 100, 100)
	if _, _, err := Grid(shot, 0, 844, 10); err == nil {
		t.Fatal("want error for zero window width")
	}
}

func TestGrid_BadScreenshot(t *testing.T) {
	if _, _, err := Grid([]byte("not a png"), 390, 844, 10); err == nil {
		t.Fatal("want error for undecodable screenshot")
	}
}

func TestNumericTags(t *testing.T) {
	elements := []*core.UIElement{
		{ElementID: "0", Text: "Header", Visible: true, Bounds: &core.Bounds{X: 0, Y: 0, Width: 390, Height: 60}},
		{ElementID: "1", Text: "Login", Clickable: true, Visible: true, Bounds: &core.Bounds{X: 45, Y: 700, Width: 300, Height: 60}},
		{ElementID: "2", Text: "Hidden", Clickable: true, Visible: false, Bounds: &core.Bounds{X: 0, Y: 0, Width: 50, Height: 50}},
		{ElementID: "3", Text: "Help", Clickable: true, Visible: true, Bounds: &core.Bounds{X: 10, Y: 10, Width: 50, Height: 50}},
	}

	shot := testPNG(t, 390, 844)
	out, mapping, err := NumericTags(shot, elements, core.Scale{X: 1, Y: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("empty overlay output")
	}

	if len(mapping) != 2 {
		t.Fatalf("got %d tags, want 2", len(mapping))
	}
	if mapping[1].ElementID != "1" {
		t.Errorf("tag 1: got element %s, want 1 (traversal order)", mapping[1].ElementID)
	}
	if mapping[2].ElementID != "3" {
		t.Errorf("tag 2: got element %s, want 3", mapping[2].ElementID)
	}
}

func TestNumericTags_NoTargetables(t *testing.T) {
	shot := testPNG(t, 100, 100)
	_, mapping, err := NumericTags(shot, nil, core.Scale{X: 1, Y: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mapping) != 0 {
		t.Errorf("got %d tags, want 0", len(mapping))
	}
}

func TestDimensions(t *testing.T) {
	shot := testPNG(t, 1170, 2532)
	w, h, err := Dimensions(shot)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w != 1170 || h != 2532 {
		t.Errorf("got %dx%d, want 1170x2532", w, h)
	}

	if _, _, err := Dimensions([]byte("junk")); err == nil {
		t.Error("want error for non-image data")
	}
}
