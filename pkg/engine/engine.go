// Package engine implements the cascading decision pipeline: hierarchy
// reasoning first, then numeric-tag vision, grid-overlay vision, and
// pure-vision percentage coordinates as successive fallbacks.
package engine

import (
	"context"
	"fmt"

	"github.com/devicelab-dev/uipilot/pkg/config"
	"github.com/devicelab-dev/uipilot/pkg/core"
	"github.com/devicelab-dev/uipilot/pkg/llm"
	"github.com/devicelab-dev/uipilot/pkg/logger"
	"github.com/devicelab-dev/uipilot/pkg/observer"
	"github.com/devicelab-dev/uipilot/pkg/overlay"
	"github.com/devicelab-dev/uipilot/pkg/prompt"
)

// Engine decides the next action for an instruction. One engine drives
// one device session; concurrent Decide calls on the same instance are
// not supported.
type Engine struct {
	device   core.DeviceSession
	observer *observer.Observer
	provider llm.Provider
	cfg      *config.Config
}

// New creates an engine over a device session and model provider.
func New(device core.DeviceSession, provider llm.Provider, cfg *config.Config) *Engine {
	return &Engine{
		device:   device,
		observer: observer.New(device),
		provider: provider,
		cfg:      cfg,
	}
}

// Outcome is one decision plus the snapshot context it was made in.
// Target is nil for coordinate-based decisions; when set it references
// an element present in State.
type Outcome struct {
	Decision *core.ActionDecision
	Target   *core.UIElement
	State    *core.UIState
}

// Decide runs the cascade for one instruction. history carries prior
// "action-reasoning" lines from the session.
func (e *Engine) Decide(ctx context.Context, instruction string, history []string) (*Outcome, error) {
	if e.cfg.VisionConfig.PureVisionOnly {
		logger.Info("deciding (pure vision only): %s", instruction)
		return e.pureVision(ctx, instruction, history)
	}

	logger.Info("deciding: %s", instruction)
	outcome, err := e.hierarchy(ctx, instruction, history)

	if !e.cfg.VisionEnabled() {
		if err != nil {
			return nil, err
		}
		if outcome.Decision.IsError() {
			return nil, core.ErrParseFailure.WithMessage(
				"hierarchy decision failed and vision fallback is disabled: " + outcome.Decision.Reasoning)
		}
		return outcome, nil
	}

	if err != nil {
		logger.Warn("hierarchy tier failed: %v", err)
	} else if !e.shouldFallbackToVision(outcome.Decision, outcome.Target) {
		return outcome, nil
	} else {
		logger.Info("falling back to vision: %s", fallbackReason(outcome.Decision, outcome.Target, e.cfg))
	}

	return e.visionCascade(ctx, instruction, history, err)
}

// visionCascade runs tiers 2 through 4. lastErr carries the most recent
// tier failure so an exhausted cascade reports a cause.
func (e *Engine) visionCascade(ctx context.Context, instruction string, history []string, lastErr error) (*Outcome, error) {
	outcome, err := e.tagged(ctx, instruction, history)
	if err == nil {
		return outcome, nil
	}
	logger.Warn("tagged tier failed: %v", err)
	lastErr = err

	outcome, err = e.grid(ctx, instruction, history)
	if err == nil {
		return outcome, nil
	}
	logger.Warn("grid tier failed: %v", err)
	lastErr = err

	if !e.cfg.VisionConfig.PureVisionEnabled() {
		return nil, lastErr
	}

	outcome, err = e.pureVision(ctx, instruction, history)
	if err != nil {
		logger.Error("all decision tiers exhausted: %v", err)
		return nil, err
	}
	return outcome, nil
}

// shouldFallbackToVision implements the fallback predicate. Confidence
// the model never reported does not trigger the low-confidence clause.
func (e *Engine) shouldFallbackToVision(decision *core.ActionDecision, target *core.UIElement) bool {
	v := &e.cfg.VisionConfig

	if v.AlwaysUseVision {
		return true
	}
	if v.FallbackOnElementNotFoundEnabled() && decision.ElementID != "" && target == nil {
		return true
	}
	if v.FallbackOnLowConfidenceEnabled() {
		if conf, ok := decision.ConfidenceValue(); ok && conf < v.ConfidenceThreshold {
			return true
		}
	}
	return decision.IsError()
}

func fallbackReason(decision *core.ActionDecision, target *core.UIElement, cfg *config.Config) string {
	switch {
	case cfg.VisionConfig.AlwaysUseVision:
		return "alwaysUseVision is set"
	case decision.IsError():
		return "hierarchy decision errored: " + decision.Reasoning
	case decision.ElementID != "" && target == nil:
		return fmt.Sprintf("element %q not found in snapshot", decision.ElementID)
	default:
		conf, _ := decision.ConfidenceValue()
		return fmt.Sprintf("confidence %.2f below threshold %.2f", conf, cfg.VisionConfig.ConfidenceThreshold)
	}
}

// hierarchy is tier 1: accessibility tree plus a text-only query.
func (e *Engine) hierarchy(ctx context.Context, instruction string, history []string) (*Outcome, error) {
	state, err := e.observer.Snapshot(core.CaptureNone, 0)
	if err != nil {
		return nil, err
	}

	p := prompt.Hierarchy(instruction, state, history)
	response, err := e.provider.Query(ctx, p, prompt.System)
	if err != nil {
		return nil, fmt.Errorf("hierarchy query failed: %w", err)
	}

	decision := parseHierarchy(response)
	var target *core.UIElement
	if decision.ElementID != "" {
		target = state.ElementByID(decision.ElementID)
	}
	logDecision(decision)
	return &Outcome{Decision: decision, Target: target, State: state}, nil
}

// tagged is tier 2: numeric overlay plus a vision query. The returned
// target is the tagged element from this tier's own snapshot.
func (e *Engine) tagged(ctx context.Context, instruction string, history []string) (*Outcome, error) {
	state, err := e.observer.Snapshot(core.CaptureTagged, 0)
	if err != nil {
		return nil, err
	}

	p := prompt.Tagged(instruction, state.TagMapping, history)
	response, err := e.provider.QueryWithVision(ctx, p, state.ScreenshotBase64, prompt.System)
	if err != nil {
		return nil, fmt.Errorf("tagged query failed: %w", err)
	}

	decision, target, err := parseTagged(response, state.TagMapping)
	if err != nil {
		return nil, err
	}
	logDecision(decision)
	return &Outcome{Decision: decision, Target: target, State: state}, nil
}

// grid is tier 3: labeled grid overlay. Decisions are coordinate-based,
// so the target is cleared rather than carried over from tier 1.
func (e *Engine) grid(ctx context.Context, instruction string, history []string) (*Outcome, error) {
	gridSize := overlay.ClampGridSize(e.cfg.VisionConfig.GridSize)
	state, err := e.observer.Snapshot(core.CaptureGrid, gridSize)
	if err != nil {
		return nil, err
	}

	p := prompt.Grid(instruction, gridSize, history)
	response, err := e.provider.QueryWithVision(ctx, p, state.ScreenshotBase64, prompt.System)
	if err != nil {
		return nil, fmt.Errorf("grid query failed: %w", err)
	}

	decision, err := parseGrid(response, state.GridMap)
	if err != nil {
		return nil, err
	}
	logDecision(decision)
	return &Outcome{Decision: decision, Target: nil, State: state}, nil
}

// pureVision is tier 4: raw screenshot, percentage coordinates. A
// reported confidence below the configured minimum ends the cascade.
func (e *Engine) pureVision(ctx context.Context, instruction string, history []string) (*Outcome, error) {
	state, err := e.observer.Snapshot(core.CaptureScreenshot, 0)
	if err != nil {
		return nil, err
	}

	width, height, err := e.device.WindowSize()
	if err != nil {
		return nil, fmt.Errorf("window size unavailable for pure vision: %w", err)
	}

	p := prompt.PureVision(instruction, width, height, history)
	response, err := e.provider.QueryWithVision(ctx, p, state.ScreenshotBase64, prompt.System)
	if err != nil {
		return nil, fmt.Errorf("pure vision query failed: %w", err)
	}

	decision, err := parsePureVision(response, width, height)
	if err != nil {
		return nil, err
	}

	minimum := e.cfg.VisionConfig.PureVisionConfig.MinimumConfidence
	if conf, ok := decision.ConfidenceValue(); ok && conf < minimum {
		return nil, core.ErrLowConfidence.WithMessage(
			fmt.Sprintf("pure vision confidence %.2f below minimum %.2f", conf, minimum))
	}

	logDecision(decision)
	return &Outcome{Decision: decision, Target: nil, State: state}, nil
}

func logDecision(d *core.ActionDecision) {
	if conf, ok := d.ConfidenceValue(); ok {
		logger.Debug("decision [%s]: %s confidence=%.2f: %s", d.Method, d.Action, conf, d.Reasoning)
	} else {
		logger.Debug("decision [%s]: %s: %s", d.Method, d.Action, d.Reasoning)
	}
}
