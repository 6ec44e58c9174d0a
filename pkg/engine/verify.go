package engine

import (
	"context"
	"fmt"

	"github.com/devicelab-dev/uipilot/pkg/core"
	"github.com/devicelab-dev/uipilot/pkg/logger"
	"github.com/devicelab-dev/uipilot/pkg/prompt"
)

// Verify checks a natural-language condition against the current
// screen. Callers decide whether and how the result is recorded.
func (e *Engine) Verify(ctx context.Context, condition string) (*core.VerificationResult, error) {
	state, err := e.observer.Snapshot(core.CaptureNone, 0)
	if err != nil {
		return nil, err
	}

	p := prompt.Verification(condition, state)
	response, err := e.provider.Query(ctx, p, prompt.System)
	if err != nil {
		return nil, fmt.Errorf("verification query failed: %w", err)
	}

	result, err := parseVerification(response)
	if err != nil {
		return nil, err
	}

	logger.Debug("verification %q: passed=%v confidence=%.2f issues=%d",
		condition, result.Passed, result.Confidence, len(result.Issues))
	return result, nil
}

// CurrentState snapshots the screen without deciding anything.
func (e *Engine) CurrentState(withScreenshot bool) (*core.UIState, error) {
	mode := core.CaptureNone
	if withScreenshot {
		mode = core.CaptureScreenshot
	}
	return e.observer.Snapshot(mode, 0)
}
