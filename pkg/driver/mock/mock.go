// Package mock provides a scripted DeviceSession for testing without a
// real device.
package mock

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/devicelab-dev/uipilot/pkg/core"
)

// Gesture is one recorded device interaction.
type Gesture struct {
	Kind       string // tap, long_press, swipe, multi_touch, type_keys, hide_keyboard, pause
	X, Y       int
	DurationMs int
	Text       string
	Timeline   []core.TouchAction
	Fingers    [][]core.TouchAction
}

// Device is a scripted core.DeviceSession. Page sources are consumed
// from a queue (the last one repeats); every gesture is recorded.
type Device struct {
	// Sources is the page-source queue. Empty means blank dumps.
	Sources []string
	// ScreenshotPNG is returned by Screenshot. When nil a PNG of
	// ScreenW x ScreenH (physical) pixels is generated.
	ScreenshotPNG []byte
	// Window size in logical pixels.
	WindowW, WindowH int
	// Physical screenshot size; defaults to the window size.
	ScreenW, ScreenH int
	// Activity reported by CurrentActivity.
	Activity string
	// Info reported by Capabilities.
	Info core.DeviceInfo

	// Failure injection.
	SourceErr     error
	ScreenshotErr error
	WindowErr     error
	GestureErr    error

	// Gestures holds every recorded interaction in order.
	Gestures []Gesture

	sourceIndex int
}

// New creates a mock device with a 390x844 window.
func New() *Device {
	return &Device{
		WindowW:  390,
		WindowH:  844,
		Activity: "com.example/.MainActivity",
		Info:     core.DeviceInfo{Platform: "android", PlatformVersion: "14", DeviceName: "mock-device"},
	}
}

// PageSource pops the next queued dump; the final entry repeats.
func (d *Device) PageSource() (string, error) {
	if d.SourceErr != nil {
		return "", d.SourceErr
	}
	if len(d.Sources) == 0 {
		return "<hierarchy></hierarchy>", nil
	}
	source := d.Sources[d.sourceIndex]
	if d.sourceIndex < len(d.Sources)-1 {
		d.sourceIndex++
	}
	return source, nil
}

// CurrentActivity returns the scripted activity.
func (d *Device) CurrentActivity() (string, error) {
	if d.Activity == "" {
		return "", fmt.Errorf("no activity")
	}
	return d.Activity, nil
}

// WindowSize returns the logical window size.
func (d *Device) WindowSize() (int, int, error) {
	if d.WindowErr != nil {
		return 0, 0, d.WindowErr
	}
	return d.WindowW, d.WindowH, nil
}

// Screenshot returns the canned PNG, generating a solid image at the
// physical size when none is scripted.
func (d *Device) Screenshot() ([]byte, error) {
	if d.ScreenshotErr != nil {
		return nil, d.ScreenshotErr
	}
	if d.ScreenshotPNG != nil {
		return d.ScreenshotPNG, nil
	}

	w, h := d.ScreenW, d.ScreenH
	if w == 0 || h == 0 {
		w, h = d.WindowW, d.WindowH
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 32, G: 32, B: 32, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Tap records a tap.
func (d *Device) Tap(x, y int) error {
	if d.GestureErr != nil {
		return d.GestureErr
	}
	d.Gestures = append(d.Gestures, Gesture{Kind: "tap", X: x, Y: y})
	return nil
}

// LongPress records a long press.
func (d *Device) LongPress(x, y, durationMs int) error {
	if d.GestureErr != nil {
		return d.GestureErr
	}
	d.Gestures = append(d.Gestures, Gesture{Kind: "long_press", X: x, Y: y, DurationMs: durationMs})
	return nil
}

// SwipeGesture records a single-finger timeline.
func (d *Device) SwipeGesture(actions []core.TouchAction) error {
	if d.GestureErr != nil {
		return d.GestureErr
	}
	d.Gestures = append(d.Gestures, Gesture{Kind: "swipe", Timeline: actions})
	return nil
}

// MultiTouch records per-finger timelines.
func (d *Device) MultiTouch(fingers [][]core.TouchAction) error {
	if d.GestureErr != nil {
		return d.GestureErr
	}
	d.Gestures = append(d.Gestures, Gesture{Kind: "multi_touch", Fingers: fingers})
	return nil
}

// TypeKeys records injected text.
func (d *Device) TypeKeys(text string) error {
	if d.GestureErr != nil {
		return d.GestureErr
	}
	d.Gestures = append(d.Gestures, Gesture{Kind: "type_keys", Text: text})
	return nil
}

// HideKeyboard records the dismissal.
func (d *Device) HideKeyboard() error {
	d.Gestures = append(d.Gestures, Gesture{Kind: "hide_keyboard"})
	return nil
}

// Pause records the idle request without sleeping.
func (d *Device) Pause(ms int) error {
	d.Gestures = append(d.Gestures, Gesture{Kind: "pause", DurationMs: ms})
	return nil
}

// Capabilities returns the scripted device info.
func (d *Device) Capabilities() core.DeviceInfo {
	return d.Info
}

// GestureKinds lists the recorded gesture kinds in order.
func (d *Device) GestureKinds() []string {
	var kinds []string
	for _, g := range d.Gestures {
		kinds = append(kinds, g.Kind)
	}
	return kinds
}
