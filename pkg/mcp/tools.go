package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"github.com/devicelab-dev/uipilot/pkg/core"
	"github.com/devicelab-dev/uipilot/pkg/session"
)

// Tool argument schemas.
var (
	schemaStartSession = json.RawMessage(`{
  "type": "object",
  "properties": {}
}`)
	schemaStopSession = json.RawMessage(`{
  "type": "object",
  "properties": {
    "status": {"type": "string", "description": "Final session status: success, failure, or aborted", "enum": ["success", "failure", "aborted"]}
  }
}`)
	schemaExecute = json.RawMessage(`{
  "type": "object",
  "properties": {
    "instruction": {"type": "string", "description": "Natural-language action to perform, e.g. 'tap the login button'"},
    "visionMode": {"type": "string", "description": "Override decision mode for this call", "enum": ["auto", "always", "pure", "disabled"]}
  },
  "required": ["instruction"]
}`)
	schemaAssert = json.RawMessage(`{
  "type": "object",
  "properties": {
    "condition": {"type": "string", "description": "Condition to verify on the current screen"}
  },
  "required": ["condition"]
}`)
	schemaTakeScreenshot = json.RawMessage(`{
  "type": "object",
  "properties": {
    "saveToFile": {"type": "string", "description": "Path to write the PNG to; omit to receive base64"}
  }
}`)
	schemaGetState = json.RawMessage(`{
  "type": "object",
  "properties": {
    "includeScreenshot": {"type": "boolean", "description": "Attach a base64 screenshot to the state"}
  }
}`)
	schemaConfigure = json.RawMessage(`{
  "type": "object",
  "properties": {
    "confidenceThreshold": {"type": "number", "description": "Hierarchy confidence below which vision kicks in"},
    "gridSize": {"type": "integer", "description": "Grid overlay dimension (5-20)"},
    "alwaysUseVision": {"type": "boolean"},
    "pureVisionOnly": {"type": "boolean"},
    "fallbackOnElementNotFound": {"type": "boolean"},
    "fallbackOnLowConfidence": {"type": "boolean"},
    "minimumConfidence": {"type": "number", "description": "Pure-vision rejection threshold"}
  }
}`)
)

type startSessionRequest struct{}

type startSessionResponse struct {
	SessionID string          `json:"sessionId"`
	Device    core.DeviceInfo `json:"device"`
}

type stopSessionRequest struct {
	Status string `json:"status"`
}

type stopSessionResponse struct {
	SessionID     string `json:"sessionId"`
	Status        string `json:"status"`
	Success       bool   `json:"success"`
	DurationMs    int64  `json:"durationMs"`
	Steps         int    `json:"steps"`
	Verifications int    `json:"verifications"`
}

type executeRequest struct {
	Instruction string `json:"instruction"`
	VisionMode  string `json:"visionMode"`
}

type executeResponse struct {
	Step *session.ActionStep `json:"step"`
}

type assertRequest struct {
	Condition string `json:"condition"`
}

type assertResponse struct {
	Passed       bool                       `json:"passed"`
	Verification *session.VerificationPoint `json:"verification,omitempty"`
}

type takeScreenshotRequest struct {
	SaveToFile string `json:"saveToFile"`
}

type takeScreenshotResponse struct {
	Path             string `json:"path,omitempty"`
	ScreenshotBase64 string `json:"screenshotBase64,omitempty"`
}

type getStateRequest struct {
	IncludeScreenshot bool `json:"includeScreenshot"`
}

type getStateResponse struct {
	Activity         string `json:"activity"`
	Platform         string `json:"platform"`
	ElementCount     int    `json:"elementCount"`
	TargetableCount  int    `json:"targetableCount"`
	ScreenshotBase64 string `json:"screenshotBase64,omitempty"`
}

type configureRequest struct {
	ConfidenceThreshold       *float64 `json:"confidenceThreshold"`
	GridSize                  *int     `json:"gridSize"`
	AlwaysUseVision           *bool    `json:"alwaysUseVision"`
	PureVisionOnly            *bool    `json:"pureVisionOnly"`
	FallbackOnElementNotFound *bool    `json:"fallbackOnElementNotFound"`
	FallbackOnLowConfidence   *bool    `json:"fallbackOnLowConfidence"`
	MinimumConfidence         *float64 `json:"minimumConfidence"`
}

type configureResponse struct {
	ConfidenceThreshold float64 `json:"confidenceThreshold"`
	GridSize            int     `json:"gridSize"`
	AlwaysUseVision     bool    `json:"alwaysUseVision"`
	PureVisionOnly      bool    `json:"pureVisionOnly"`
	MinimumConfidence   float64 `json:"minimumConfidence"`
}

func (s *Server) tools() []Tool {
	return []Tool{
		NewTool("start_session",
			"Open an automation session on the connected device. Required before any other tool.",
			schemaStartSession, s.startSession),
		NewTool("stop_session",
			"Seal the session with a final status and persist its record.",
			schemaStopSession, s.stopSession),
		NewTool("execute",
			"Decide and perform one UI action from a natural-language instruction.",
			schemaExecute, s.execute),
		NewTool("assert",
			"Verify a condition against the current screen.",
			schemaAssert, s.assertCondition),
		NewTool("take_screenshot",
			"Capture the screen as PNG, returned as base64 or written to a file.",
			schemaTakeScreenshot, s.takeScreenshot),
		NewTool("get_state",
			"Summarize the current UI state, optionally with a screenshot.",
			schemaGetState, s.getState),
		NewTool("configure",
			"Tune decision thresholds and vision-mode toggles at runtime.",
			schemaConfigure, s.configure),
	}
}

func (s *Server) startSession(ctx context.Context, req startSessionRequest) (*startSessionResponse, error) {
	sess, err := s.controller.StartSession()
	if err != nil {
		return nil, err
	}
	return &startSessionResponse{SessionID: sess.ID, Device: sess.Device}, nil
}

func (s *Server) stopSession(ctx context.Context, req stopSessionRequest) (*stopSessionResponse, error) {
	sess, err := s.controller.StopSession(req.Status)
	if err != nil {
		return nil, err
	}
	return &stopSessionResponse{
		SessionID:     sess.ID,
		Status:        sess.Status,
		Success:       sess.Success,
		DurationMs:    sess.DurationMs,
		Steps:         len(sess.Steps),
		Verifications: len(sess.Verifications),
	}, nil
}

func (s *Server) execute(ctx context.Context, req executeRequest) (*executeResponse, error) {
	restore, err := s.applyVisionMode(req.VisionMode)
	if err != nil {
		return nil, err
	}
	defer restore()

	step, err := s.controller.Execute(ctx, req.Instruction)
	if err != nil {
		return nil, err
	}
	return &executeResponse{Step: step}, nil
}

// applyVisionMode temporarily overrides the decision mode for one call.
// The controller is single-tasked, so mutate-and-restore is safe.
func (s *Server) applyVisionMode(mode string) (func(), error) {
	cfg := s.controller.Config()
	switch mode {
	case "", "auto":
		return func() {}, nil
	case "always":
		prev := cfg.VisionConfig.AlwaysUseVision
		cfg.VisionConfig.AlwaysUseVision = true
		return func() { cfg.VisionConfig.AlwaysUseVision = prev }, nil
	case "pure":
		prev := cfg.VisionConfig.PureVisionOnly
		cfg.VisionConfig.PureVisionOnly = true
		return func() { cfg.VisionConfig.PureVisionOnly = prev }, nil
	case "disabled":
		prev := cfg.VisionConfig.Enabled
		off := false
		cfg.VisionConfig.Enabled = &off
		return func() { cfg.VisionConfig.Enabled = prev }, nil
	default:
		return nil, fmt.Errorf("unknown vision mode %q", mode)
	}
}

func (s *Server) assertCondition(ctx context.Context, req assertRequest) (*assertResponse, error) {
	passed := s.controller.Assert(ctx, req.Condition)

	resp := &assertResponse{Passed: passed}
	if sess := s.controller.Session(); sess != nil && len(sess.Verifications) > 0 {
		resp.Verification = &sess.Verifications[len(sess.Verifications)-1]
	}
	return resp, nil
}

func (s *Server) takeScreenshot(ctx context.Context, req takeScreenshotRequest) (*takeScreenshotResponse, error) {
	state, err := s.controller.CurrentState(true)
	if err != nil {
		return nil, err
	}

	if req.SaveToFile == "" {
		return &takeScreenshotResponse{ScreenshotBase64: state.ScreenshotBase64}, nil
	}

	png, err := base64.StdEncoding.DecodeString(state.ScreenshotBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode screenshot: %w", err)
	}
	if err := os.WriteFile(req.SaveToFile, png, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write screenshot: %w", err)
	}
	return &takeScreenshotResponse{Path: req.SaveToFile}, nil
}

func (s *Server) getState(ctx context.Context, req getStateRequest) (*getStateResponse, error) {
	state, err := s.controller.CurrentState(req.IncludeScreenshot)
	if err != nil {
		return nil, err
	}
	return &getStateResponse{
		Activity:         state.Activity,
		Platform:         state.Device.Platform,
		ElementCount:     len(state.Elements),
		TargetableCount:  len(state.TargetableElements()),
		ScreenshotBase64: state.ScreenshotBase64,
	}, nil
}

func (s *Server) configure(ctx context.Context, req configureRequest) (*configureResponse, error) {
	cfg := s.controller.Config()
	v := &cfg.VisionConfig

	if req.ConfidenceThreshold != nil {
		if *req.ConfidenceThreshold < 0 || *req.ConfidenceThreshold > 1 {
			return nil, fmt.Errorf("confidenceThreshold must be in [0,1]")
		}
		v.ConfidenceThreshold = *req.ConfidenceThreshold
	}
	if req.GridSize != nil {
		v.GridSize = *req.GridSize
	}
	if req.AlwaysUseVision != nil {
		v.AlwaysUseVision = *req.AlwaysUseVision
	}
	if req.PureVisionOnly != nil {
		v.PureVisionOnly = *req.PureVisionOnly
	}
	if req.FallbackOnElementNotFound != nil {
		v.FallbackOnElementNotFound = req.FallbackOnElementNotFound
	}
	if req.FallbackOnLowConfidence != nil {
		v.FallbackOnLowConfidence = req.FallbackOnLowConfidence
	}
	if req.MinimumConfidence != nil {
		if *req.MinimumConfidence < 0 || *req.MinimumConfidence > 1 {
			return nil, fmt.Errorf("minimumConfidence must be in [0,1]")
		}
		v.PureVisionConfig.MinimumConfidence = *req.MinimumConfidence
	}

	return &configureResponse{
		ConfidenceThreshold: v.ConfidenceThreshold,
		GridSize:            v.GridSize,
		AlwaysUseVision:     v.AlwaysUseVision,
		PureVisionOnly:      v.PureVisionOnly,
		MinimumConfidence:   v.PureVisionConfig.MinimumConfidence,
	}, nil
}
