package core

// TouchAction is a single entry in a per-finger gesture timeline.
type TouchAction struct {
	// Type is one of press, wait, move, release.
	Type string
	// X, Y are logical coordinates for press/move actions.
	X int
	Y int
	// DurationMs applies to wait and move actions.
	DurationMs int
}

// Touch action types.
const (
	TouchPress   = "press"
	TouchWait    = "wait"
	TouchMove    = "move"
	TouchRelease = "release"
)

// DeviceSession is the only capability the core requires from the device
// transport. Implementations: Appium W3C client, mock.
//
// All coordinates are logical (window-size space).
type DeviceSession interface {
	// PageSource returns the UTF-8 accessibility dump.
	PageSource() (string, error)

	// CurrentActivity returns the foreground identifier (may fail).
	CurrentActivity() (string, error)

	// WindowSize returns the window size in logical pixels.
	WindowSize() (width, height int, err error)

	// Screenshot captures the screen as PNG bytes.
	Screenshot() ([]byte, error)

	// Tap performs a single touch at the coordinate.
	Tap(x, y int) error

	// LongPress presses and holds for durationMs.
	LongPress(x, y, durationMs int) error

	// SwipeGesture runs a single-finger press/wait/move/release timeline.
	SwipeGesture(actions []TouchAction) error

	// MultiTouch runs synchronized per-finger timelines.
	MultiTouch(fingers [][]TouchAction) error

	// TypeKeys injects characters into the focused element.
	TypeKeys(text string) error

	// HideKeyboard dismisses the on-screen keyboard if shown.
	HideKeyboard() error

	// Pause idles the device input queue for ms milliseconds.
	Pause(ms int) error

	// Capabilities returns platform information for the session.
	Capabilities() DeviceInfo
}
