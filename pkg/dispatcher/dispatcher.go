// Package dispatcher turns ActionDecisions into device gestures. All
// coordinates handled here are logical (window-size space).
package dispatcher

import (
	"fmt"

	"github.com/devicelab-dev/uipilot/pkg/core"
	"github.com/devicelab-dev/uipilot/pkg/logger"
)

// Gesture timing constants.
const (
	swipeDurationMs     = 100
	doubleTapGapMs      = 75
	longPressDurationMs = 1000
	longPressSettleMs   = 500
	pinchDurationMs     = 250
	pinchOuterOffsetPx  = 100
	pinchInnerOffsetPx  = 10

	defaultSwipeDistance  = 0.5
	defaultScrollDistance = 0.3
)

// Dispatcher executes decisions against a device session, persisting
// before/after screenshots when an artifact store is configured.
type Dispatcher struct {
	device    core.DeviceSession
	artifacts *core.ArtifactStore
}

// New creates a dispatcher. artifacts may be nil.
func New(device core.DeviceSession, artifacts *core.ArtifactStore) *Dispatcher {
	return &Dispatcher{device: device, artifacts: artifacts}
}

// Execute performs the gesture a decision requests. target may be nil;
// when the decision carries explicit coordinates those win over the
// element center. stepIndex names the screenshot artifacts.
func (d *Dispatcher) Execute(decision *core.ActionDecision, target *core.UIElement, stepIndex int) error {
	point, err := d.resolvePoint(decision, target)
	if err != nil {
		return err
	}

	d.saveScreenshot(stepIndex, "before")

	switch decision.Action {
	case core.ActionClick, core.ActionTap:
		err = d.tap(point)
	case core.ActionDoubleTap:
		err = d.doubleTap(point)
	case core.ActionLongPress:
		err = d.longPress(point)
	case core.ActionTypeText:
		err = d.typeText(point, decision.TextParameter())
	case core.ActionSwipe:
		err = d.swipe(decision.DirectionParameter(), decision.DistanceParameter(defaultSwipeDistance))
	case core.ActionScroll:
		err = d.swipe(decision.DirectionParameter(), defaultScrollDistance)
	case core.ActionPinch:
		err = d.pinchZoom(point, pinchOuterOffsetPx, pinchInnerOffsetPx)
	case core.ActionZoom:
		err = d.pinchZoom(point, pinchInnerOffsetPx, pinchOuterOffsetPx)
	default:
		err = core.ErrGesture.WithMessage(fmt.Sprintf("unsupported action %q", decision.Action))
	}
	if err != nil {
		return err
	}

	if decision.Action == core.ActionLongPress {
		// Fixed pause; long-press often raises a dialog whose source
		// churns past the settle window.
		if perr := d.device.Pause(longPressSettleMs); perr != nil {
			logger.Warn("post long-press pause failed: %v", perr)
		}
	} else {
		WaitForSettle(d.device, DefaultSettleTimeoutMs, DefaultSettlePollMs)
	}

	d.saveScreenshot(stepIndex, "after")
	return nil
}

// resolvePoint picks the gesture coordinate. Explicit decision
// coordinates win over the element center. Swipe and scroll act on the
// screen, not a point, so they never fail resolution.
func (d *Dispatcher) resolvePoint(decision *core.ActionDecision, target *core.UIElement) (core.LogicalPoint, error) {
	if decision.Coordinates != nil {
		return *decision.Coordinates, nil
	}
	if target != nil && target.Bounds != nil && !target.Bounds.IsZero() {
		return target.Bounds.Center(), nil
	}
	switch decision.Action {
	case core.ActionSwipe, core.ActionScroll:
		return core.LogicalPoint{}, nil
	case core.ActionPinch, core.ActionZoom:
		// Default to screen center.
		if w, h, err := d.device.WindowSize(); err == nil {
			return core.LogicalPoint{X: w / 2, Y: h / 2}, nil
		}
		return core.LogicalPoint{}, nil
	}
	return core.LogicalPoint{}, core.ErrNoTarget.WithMessage(
		fmt.Sprintf("no element or coordinates to %s", decision.Action))
}

func (d *Dispatcher) tap(p core.LogicalPoint) error {
	logger.Debug("tap at (%d, %d)", p.X, p.Y)
	if err := d.device.Tap(p.X, p.Y); err != nil {
		return core.ErrGesture.WithMessage("tap failed").WithCause(err)
	}
	return nil
}

func (d *Dispatcher) doubleTap(p core.LogicalPoint) error {
	logger.Debug("double tap at (%d, %d)", p.X, p.Y)
	if err := d.device.Tap(p.X, p.Y); err != nil {
		return core.ErrGesture.WithMessage("double tap failed").WithCause(err)
	}
	if err := d.device.Pause(doubleTapGapMs); err != nil {
		return core.ErrGesture.WithMessage("double tap pause failed").WithCause(err)
	}
	if err := d.device.Tap(p.X, p.Y); err != nil {
		return core.ErrGesture.WithMessage("double tap failed").WithCause(err)
	}
	return nil
}

func (d *Dispatcher) longPress(p core.LogicalPoint) error {
	logger.Debug("long press at (%d, %d)", p.X, p.Y)
	if err := d.device.LongPress(p.X, p.Y, longPressDurationMs); err != nil {
		return core.ErrGesture.WithMessage("long press failed").WithCause(err)
	}
	return nil
}

func (d *Dispatcher) typeText(p core.LogicalPoint, text string) error {
	logger.Debug("type %q at (%d, %d)", text, p.X, p.Y)
	if err := d.device.Tap(p.X, p.Y); err != nil {
		return core.ErrGesture.WithMessage("focus tap failed").WithCause(err)
	}
	WaitForSettle(d.device, DefaultSettleTimeoutMs, DefaultSettlePollMs)

	if err := d.device.TypeKeys(text); err != nil {
		return core.ErrGesture.WithMessage("key injection failed").WithCause(err)
	}
	if err := d.device.HideKeyboard(); err != nil {
		logger.Debug("hide keyboard: %v", err)
	}
	return nil
}

// swipe runs start to end across the screen center. Deflection along
// the swipe axis is the window extent times distance.
func (d *Dispatcher) swipe(direction string, distance float64) error {
	w, h, err := d.device.WindowSize()
	if err != nil {
		return core.ErrGesture.WithMessage("window size unavailable for swipe").WithCause(err)
	}

	cx, cy := w/2, h/2
	var dx, dy int
	switch direction {
	case "up":
		dy = -int(float64(h) * distance)
	case "down":
		dy = int(float64(h) * distance)
	case "left":
		dx = -int(float64(w) * distance)
	case "right":
		dx = int(float64(w) * distance)
	default:
		return core.ErrGesture.WithMessage(fmt.Sprintf("unknown swipe direction %q", direction))
	}

	startX, startY := cx-dx/2, cy-dy/2
	endX, endY := cx+dx/2, cy+dy/2
	logger.Debug("swipe %s from (%d, %d) to (%d, %d)", direction, startX, startY, endX, endY)

	actions := []core.TouchAction{
		{Type: core.TouchPress, X: startX, Y: startY},
		{Type: core.TouchWait, DurationMs: swipeDurationMs},
		{Type: core.TouchMove, X: endX, Y: endY, DurationMs: swipeDurationMs},
		{Type: core.TouchRelease},
	}
	if err := d.device.SwipeGesture(actions); err != nil {
		return core.ErrGesture.WithMessage("swipe failed").WithCause(err)
	}
	return nil
}

// pinchZoom moves two fingers symmetrically around the center, from
// fromOffset to toOffset along the diagonal.
func (d *Dispatcher) pinchZoom(center core.LogicalPoint, fromOffset, toOffset int) error {
	logger.Debug("pinch/zoom at (%d, %d): offset %d to %d", center.X, center.Y, fromOffset, toOffset)

	finger := func(sign int) []core.TouchAction {
		return []core.TouchAction{
			{Type: core.TouchPress, X: center.X + sign*fromOffset, Y: center.Y + sign*fromOffset},
			{Type: core.TouchMove, X: center.X + sign*toOffset, Y: center.Y + sign*toOffset, DurationMs: pinchDurationMs},
			{Type: core.TouchRelease},
		}
	}
	if err := d.device.MultiTouch([][]core.TouchAction{finger(-1), finger(1)}); err != nil {
		return core.ErrGesture.WithMessage("pinch gesture failed").WithCause(err)
	}
	return nil
}

// saveScreenshot is best-effort; capture or write failures never fail
// the action.
func (d *Dispatcher) saveScreenshot(stepIndex int, phase string) {
	if d.artifacts == nil {
		return
	}
	shot, err := d.device.Screenshot()
	if err != nil {
		logger.Debug("artifact screenshot (%s) failed: %v", phase, err)
		return
	}
	if _, err := d.artifacts.SaveStepScreenshot(stepIndex, phase, shot); err != nil {
		logger.Debug("artifact write (%s) failed: %v", phase, err)
	}
}
