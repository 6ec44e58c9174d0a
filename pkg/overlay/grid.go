package overlay

import (
	"fmt"

	"github.com/fogleman/gg"

	"github.com/devicelab-dev/uipilot/pkg/core"
)

// Grid size limits.
const (
	MinGridSize     = 5
	DefaultGridSize = 10
	MaxGridSize     = 20
)

// ClampGridSize normalizes a configured grid size into the supported range.
func ClampGridSize(n int) int {
	switch {
	case n <= 0:
		return DefaultGridSize
	case n < MinGridSize:
		return MinGridSize
	case n > MaxGridSize:
		return MaxGridSize
	default:
		return n
	}
}

// CellLabel returns the label for a 0-indexed column and row, e.g. "A1".
func CellLabel(col, row int) string {
	return fmt.Sprintf("%c%d", 'A'+col, row+1)
}

// Grid draws an NxN labeled grid onto the screenshot's physical pixel
// canvas and returns the overlaid PNG plus the label-to-logical-center map.
//
// The screenshot is often 2x-3x the logical window size; lines and labels
// are drawn in physical pixels, while the returned centers are converted
// back to logical coordinates for gesture execution.
func Grid(screenshot []byte, logicalW, logicalH, gridSize int) ([]byte, map[string]core.LogicalPoint, error) {
	if logicalW <= 0 || logicalH <= 0 {
		return nil, nil, fmt.Errorf("invalid window size %dx%d", logicalW, logicalH)
	}
	gridSize = ClampGridSize(gridSize)

	img, physW, physH, err := decodePNG(screenshot)
	if err != nil {
		return nil, nil, err
	}

	scale := core.NewScale(physW, physH, logicalW, logicalH)
	cellW := float64(physW) / float64(gridSize)
	cellH := float64(physH) / float64(gridSize)

	lineWidth := 2 * scale.X
	if lineWidth < 2 {
		lineWidth = 2
	}
	fontSize := 14 * scale.Y
	if fontSize < 14 {
		fontSize = 14
	}

	dc := gg.NewContextForImage(img)
	dc.SetFontFace(fontFace(fontSize))

	dc.SetRGBA(1, 1, 1, 0.7)
	dc.SetLineWidth(lineWidth)
	for i := 1; i < gridSize; i++ {
		x := float64(i) * cellW
		dc.DrawLine(x, 0, x, float64(physH))
		y := float64(i) * cellH
		dc.DrawLine(0, y, float64(physW), y)
	}
	dc.Stroke()

	gridMap := make(map[string]core.LogicalPoint, gridSize*gridSize)
	for row := 0; row < gridSize; row++ {
		for col := 0; col < gridSize; col++ {
			label := CellLabel(col, row)

			center := core.PhysicalPoint{
				X: (float64(col) + 0.5) * cellW,
				Y: (float64(row) + 0.5) * cellH,
			}
			gridMap[label] = scale.ToLogical(center)

			lx := float64(col)*cellW + 4*scale.X
			ly := float64(row)*cellH + fontSize
			dc.SetRGBA(1, 1, 0, 0.9)
			dc.DrawString(label, lx, ly)
		}
	}

	out, err := encodePNG(dc)
	if err != nil {
		return nil, nil, err
	}
	return out, gridMap, nil
}
