package core

// LogicalPoint is a point in the device's window-size coordinate space.
// Gestures consume logical coordinates only.
type LogicalPoint struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// PhysicalPoint is a point in the screenshot's pixel space.
// Only overlay drawing happens in physical space.
type PhysicalPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Scale maps logical coordinates onto the screenshot's pixel grid.
// Axes may differ (e.g. 3x by 2x on some devices).
type Scale struct {
	X float64
	Y float64
}

// NewScale computes the physical/logical scale for a screenshot.
func NewScale(physicalW, physicalH, logicalW, logicalH int) Scale {
	return Scale{
		X: float64(physicalW) / float64(logicalW),
		Y: float64(physicalH) / float64(logicalH),
	}
}

// ToPhysical maps a logical point into screenshot pixels.
func (s Scale) ToPhysical(p LogicalPoint) PhysicalPoint {
	return PhysicalPoint{X: float64(p.X) * s.X, Y: float64(p.Y) * s.Y}
}

// ToLogical maps a screenshot pixel back into logical coordinates,
// flooring to integer units.
func (s Scale) ToLogical(p PhysicalPoint) LogicalPoint {
	return LogicalPoint{X: int(p.X / s.X), Y: int(p.Y / s.Y)}
}

// PercentPoint is a screen position expressed as percentages in [0,100],
// as returned by the pure-vision tier.
type PercentPoint struct {
	XPercent float64 `json:"x_percent"`
	YPercent float64 `json:"y_percent"`
}

// ToLogical converts a percentage position to logical pixels for a window
// of the given size, flooring on each axis.
func (p PercentPoint) ToLogical(width, height int) LogicalPoint {
	return LogicalPoint{
		X: int(float64(width) * p.XPercent / 100),
		Y: int(float64(height) * p.YPercent / 100),
	}
}
