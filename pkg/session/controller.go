package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/devicelab-dev/uipilot/pkg/config"
	"github.com/devicelab-dev/uipilot/pkg/core"
	"github.com/devicelab-dev/uipilot/pkg/dispatcher"
	"github.com/devicelab-dev/uipilot/pkg/engine"
	"github.com/devicelab-dev/uipilot/pkg/llm"
	"github.com/devicelab-dev/uipilot/pkg/logger"
)

// Wait defaults for the verification-as-wait primitive.
const (
	DefaultWaitTimeoutMs = 5000
	DefaultWaitPollMs    = 500
)

// Controller holds the singleton session and drives the engine and
// dispatcher. It assumes single-tasked use; concurrent calls on one
// controller are undefined.
type Controller struct {
	device     core.DeviceSession
	engine     *engine.Engine
	dispatcher *dispatcher.Dispatcher
	artifacts  *core.ArtifactStore
	cfg        *config.Config

	session *Session
	closed  bool
}

// NewController wires a controller over a connected device session.
// The artifact store may be nil when no directory is configured.
func NewController(device core.DeviceSession, provider llm.Provider, cfg *config.Config) (*Controller, error) {
	artifacts, err := core.NewArtifactStore(cfg.ArtifactsDir)
	if err != nil {
		return nil, err
	}
	return &Controller{
		device:     device,
		engine:     engine.New(device, provider, cfg),
		dispatcher: dispatcher.New(device, artifacts),
		artifacts:  artifacts,
		cfg:        cfg,
	}, nil
}

// Engine exposes the decision engine for state queries.
func (c *Controller) Engine() *engine.Engine { return c.engine }

// Config exposes the live configuration for runtime tuning.
func (c *Controller) Config() *config.Config { return c.cfg }

// Session returns the current session record, or nil before start.
func (c *Controller) Session() *Session { return c.session }

// StartSession opens the singleton session and takes the initial
// snapshot so a broken transport fails fast.
func (c *Controller) StartSession() (*Session, error) {
	if c.session != nil && !c.closed {
		return nil, core.ErrSessionActive
	}

	if _, err := c.engine.CurrentState(false); err != nil {
		return nil, fmt.Errorf("initial snapshot failed: %w", err)
	}

	c.session = newSession(c.device.Capabilities())
	c.closed = false
	logger.Info("session %s started", c.session.ID)
	return c.session, nil
}

func (c *Controller) guard() error {
	if c.session == nil {
		return core.ErrNoSession
	}
	if c.closed {
		return core.ErrSessionClosed
	}
	return nil
}

// Execute decides and performs one instruction. Every call appends
// exactly one step, success or failure.
func (c *Controller) Execute(ctx context.Context, instruction string) (*ActionStep, error) {
	if err := c.guard(); err != nil {
		return nil, err
	}

	index := len(c.session.Steps)
	outcome, err := c.engine.Decide(ctx, instruction, c.session.history())
	if err != nil {
		step := c.recordFailure(index, instruction, nil, err)
		return step, err
	}

	err = c.dispatcher.Execute(outcome.Decision, outcome.Target, index)
	if err != nil {
		step := c.recordFailure(index, instruction, outcome.Decision, err)
		return step, err
	}

	step := ActionStep{
		Index:       index,
		Instruction: instruction,
		ActionType:  outcome.Decision.Action,
		ElementID:   outcome.Decision.ElementID,
		Coordinates: outcome.Decision.Coordinates,
		Method:      outcome.Decision.Method,
		Reasoning:   outcome.Decision.Reasoning,
		Confidence:  outcome.Decision.Confidence,
		Success:     true,
		Timestamp:   time.Now(),
	}
	c.session.Steps = append(c.session.Steps, step)
	logger.Info("step %d ok: %s via %s", index, step.ActionType, step.Method)
	return &c.session.Steps[index], nil
}

// recordFailure appends a failed step. With no decision available the
// action type falls back to click so the record stays well-formed.
func (c *Controller) recordFailure(index int, instruction string, decision *core.ActionDecision, cause error) *ActionStep {
	step := ActionStep{
		Index:       index,
		Instruction: instruction,
		ActionType:  core.ActionClick,
		Success:     false,
		Error:       cause.Error(),
		Timestamp:   time.Now(),
	}
	if decision != nil {
		step.ActionType = decision.Action
		step.ElementID = decision.ElementID
		step.Coordinates = decision.Coordinates
		step.Method = decision.Method
		step.Reasoning = decision.Reasoning
		step.Confidence = decision.Confidence
	}
	c.session.Steps = append(c.session.Steps, step)
	logger.Error("step %d failed: %v", index, cause)
	return &c.session.Steps[index]
}

// Assert verifies a condition and records the result. It never returns
// an error to the caller: internal failures record an error
// verification and report false.
func (c *Controller) Assert(ctx context.Context, condition string) bool {
	if err := c.guard(); err != nil {
		logger.Error("assert %q outside a session: %v", condition, err)
		return false
	}

	point := VerificationPoint{
		Condition: condition,
		Timestamp: time.Now(),
	}

	result, err := c.engine.Verify(ctx, condition)
	switch {
	case err != nil:
		point.Status = core.VerificationError
		point.Error = err.Error()
	case result.Passed:
		point.Status = core.VerificationPassed
		point.Result = result
	default:
		point.Status = core.VerificationFailed
		point.Result = result
	}

	c.session.Verifications = append(c.session.Verifications, point)
	logger.Info("assert %q: %s", condition, point.Status)
	return point.Status == core.VerificationPassed
}

// WaitForCondition polls a one-shot verification until it passes or the
// deadline elapses. Polled checks are not recorded on the session.
func (c *Controller) WaitForCondition(ctx context.Context, condition string, timeoutMs, pollMs int) bool {
	if err := c.guard(); err != nil {
		logger.Error("wait %q outside a session: %v", condition, err)
		return false
	}
	if timeoutMs <= 0 {
		timeoutMs = DefaultWaitTimeoutMs
	}
	if pollMs <= 0 {
		pollMs = DefaultWaitPollMs
	}

	deadline := time.Now().Add(time.Duration(timeoutMs) * time.Millisecond)
	for {
		result, err := c.engine.Verify(ctx, condition)
		if err != nil {
			logger.Debug("wait check failed: %v", err)
		} else if result.Passed {
			return true
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			logger.Warn("condition %q not met within %d ms", condition, timeoutMs)
			return false
		}
		interval := time.Duration(pollMs) * time.Millisecond
		if remaining < interval {
			interval = remaining
		}
		time.Sleep(interval)
	}
}

// ExecuteAndWait performs an instruction then waits for a condition.
func (c *Controller) ExecuteAndWait(ctx context.Context, instruction, condition string, timeoutMs, pollMs int) (bool, error) {
	if _, err := c.Execute(ctx, instruction); err != nil {
		return false, err
	}
	return c.WaitForCondition(ctx, condition, timeoutMs, pollMs), nil
}

// StopSession seals the session with the caller-supplied status and
// persists session.json when an artifact directory is configured.
func (c *Controller) StopSession(status string) (*Session, error) {
	if err := c.guard(); err != nil {
		return nil, err
	}
	if status == "" {
		status = StatusSuccess
	}

	c.session.seal(status)
	c.closed = true
	logger.Info("session %s stopped: %s after %d ms (%d steps, %d verifications)",
		c.session.ID, c.session.Status, c.session.DurationMs,
		len(c.session.Steps), len(c.session.Verifications))

	if data, err := json.MarshalIndent(c.session, "", "  "); err == nil {
		if path, err := c.artifacts.SaveFile("session.json", data); err != nil {
			logger.Warn("failed to persist session record: %v", err)
		} else if path != "" {
			logger.Info("session record written to %s", path)
		}
	}

	return c.session, nil
}

// CurrentState returns a fresh snapshot of the device UI.
func (c *Controller) CurrentState(includeScreenshot bool) (*core.UIState, error) {
	if err := c.guard(); err != nil {
		return nil, err
	}
	return c.engine.CurrentState(includeScreenshot)
}
