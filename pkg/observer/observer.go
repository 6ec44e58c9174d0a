package observer

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/devicelab-dev/uipilot/pkg/core"
	"github.com/devicelab-dev/uipilot/pkg/logger"
	"github.com/devicelab-dev/uipilot/pkg/overlay"
)

// Observer captures UIState snapshots from a device session. It is pure
// with respect to the device: two snapshots taken in the same UI state are
// semantically equivalent modulo timestamps.
type Observer struct {
	device core.DeviceSession
}

// New creates an observer bound to a device session.
func New(device core.DeviceSession) *Observer {
	return &Observer{device: device}
}

// Snapshot captures the accessibility tree and, depending on mode, a raw
// or overlaid screenshot. gridSize applies to CaptureGrid only.
func (o *Observer) Snapshot(mode core.CaptureMode, gridSize int) (*core.UIState, error) {
	source, err := o.device.PageSource()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page source: %w", err)
	}

	elements := ParseSource(source)
	if elements == nil && source != "" {
		logger.Warn("page source parse failed, keeping raw dump (%d bytes)", len(source))
	}

	state := &core.UIState{
		Activity:  o.currentActivity(),
		Elements:  elements,
		XMLSource: source,
		Device:    o.device.Capabilities(),
		Mode:      mode,
		Timestamp: time.Now(),
	}

	if mode == core.CaptureNone {
		return state, nil
	}

	shot, err := o.device.Screenshot()
	if err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}

	switch mode {
	case core.CaptureScreenshot:
		state.ScreenshotBase64 = base64.StdEncoding.EncodeToString(shot)

	case core.CaptureTagged:
		scale, err := o.screenshotScale(shot)
		if err != nil {
			return nil, err
		}
		overlaid, mapping, err := overlay.NumericTags(shot, state.Elements, scale)
		if err != nil {
			return nil, fmt.Errorf("failed to render tag overlay: %w", err)
		}
		state.ScreenshotBase64 = base64.StdEncoding.EncodeToString(overlaid)
		state.TagMapping = mapping
		logger.Debug("tagged snapshot: %d tags", len(mapping))

	case core.CaptureGrid:
		w, h, err := o.device.WindowSize()
		if err != nil {
			return nil, fmt.Errorf("failed to query window size: %w", err)
		}
		overlaid, gridMap, err := overlay.Grid(shot, w, h, gridSize)
		if err != nil {
			return nil, fmt.Errorf("failed to render grid overlay: %w", err)
		}
		state.ScreenshotBase64 = base64.StdEncoding.EncodeToString(overlaid)
		state.GridMap = gridMap
		logger.Debug("grid snapshot: %d cells", len(gridMap))
	}

	return state, nil
}

// currentActivity is best-effort; failures record "Unknown".
func (o *Observer) currentActivity() string {
	activity, err := o.device.CurrentActivity()
	if err != nil || activity == "" {
		return "Unknown"
	}
	return activity
}

func (o *Observer) screenshotScale(shot []byte) (core.Scale, error) {
	physW, physH, err := overlay.Dimensions(shot)
	if err != nil {
		return core.Scale{}, err
	}
	w, h, err := o.device.WindowSize()
	if err != nil || w <= 0 || h <= 0 {
		// Without a window size, treat the screenshot as 1:1.
		return core.Scale{X: 1, Y: 1}, nil
	}
	return core.NewScale(physW, physH, w, h), nil
}
