package engine

import (
	"fmt"
	"strings"

	"github.com/devicelab-dev/uipilot/pkg/core"
	"github.com/devicelab-dev/uipilot/pkg/llm"
)

// Default confidences assigned when a vision tier omits one.
const (
	defaultTaggedConfidence = 0.8
	defaultGridConfidence   = 0.7
)

// decodeCommon reads the fields shared by every tier response. A model
// that reports no confidence leaves the pointer nil so the fallback
// predicate can tell silence from low.
func decodeCommon(obj map[string]any, method core.DecisionMethod) *core.ActionDecision {
	d := &core.ActionDecision{
		Action:     core.ActionType(strings.TrimSpace(llm.String(obj, "action"))),
		Parameters: llm.StringMap(obj, "parameters"),
		Reasoning:  llm.String(obj, "reasoning"),
		Method:     method,
	}
	if conf, ok := llm.Number(obj, "confidence"); ok {
		d.Confidence = core.Float64Ptr(conf)
	}
	return d
}

// parseHierarchy never fails: malformed responses become the error
// sentinel with explicit zero confidence so the cascade proceeds.
func parseHierarchy(response string) *core.ActionDecision {
	obj, err := llm.ExtractObject(response)
	if err != nil {
		return core.ErrorDecision(core.MethodHierarchy, "unparseable model response: "+err.Error())
	}

	d := decodeCommon(obj, core.MethodHierarchy)
	if d.Action == "" {
		return core.ErrorDecision(core.MethodHierarchy, "model response missing action")
	}

	switch id := obj["element_id"].(type) {
	case string:
		d.ElementID = id
	case float64:
		d.ElementID = fmt.Sprintf("%d", int(id))
	}
	return d
}

// parseTagged resolves the tag id against the overlay mapping. The
// decision carries the element's center so a stale hierarchy lookup can
// never redirect the gesture.
func parseTagged(response string, tagMapping map[int]*core.UIElement) (*core.ActionDecision, *core.UIElement, error) {
	obj, err := llm.ExtractObject(response)
	if err != nil {
		return nil, nil, core.ErrParseFailure.WithCause(err)
	}

	d := decodeCommon(obj, core.MethodVisionTagging)
	if d.Action == "" {
		return nil, nil, core.ErrParseFailure.WithMessage("tagged response missing action")
	}
	if d.IsError() {
		return nil, nil, core.ErrParseFailure.WithMessage("model reported error: " + d.Reasoning)
	}

	tag, ok := llm.Number(obj, "tag_id")
	if !ok {
		return nil, nil, core.ErrParseFailure.WithMessage("tagged response missing tag_id")
	}
	d.TagID = int(tag)

	el, ok := tagMapping[d.TagID]
	if !ok || el == nil {
		return nil, nil, core.ErrTagNotResolved.WithMessage(
			fmt.Sprintf("tag %d is not in the overlay mapping", d.TagID))
	}

	d.ElementID = el.ElementID
	if el.Bounds != nil && !el.Bounds.IsZero() {
		center := el.Bounds.Center()
		d.Coordinates = &center
	}
	if d.Confidence == nil {
		d.Confidence = core.Float64Ptr(defaultTaggedConfidence)
	}
	return d, el, nil
}

// parseGrid resolves the cell label against the grid map.
func parseGrid(response string, gridMap map[string]core.LogicalPoint) (*core.ActionDecision, error) {
	obj, err := llm.ExtractObject(response)
	if err != nil {
		return nil, core.ErrParseFailure.WithCause(err)
	}

	d := decodeCommon(obj, core.MethodGridOverlay)
	if d.Action == "" {
		return nil, core.ErrParseFailure.WithMessage("grid response missing action")
	}
	if d.IsError() {
		return nil, core.ErrParseFailure.WithMessage("model reported error: " + d.Reasoning)
	}

	cell := strings.ToUpper(strings.TrimSpace(llm.String(obj, "grid_position")))
	if cell == "" {
		return nil, core.ErrParseFailure.WithMessage("grid response missing grid_position")
	}
	d.GridPosition = cell

	point, ok := gridMap[cell]
	if !ok {
		return nil, core.ErrGridNotResolved.WithMessage(
			fmt.Sprintf("cell %q is not in the grid map", cell))
	}
	d.Coordinates = &point
	if d.Confidence == nil {
		d.Confidence = core.Float64Ptr(defaultGridConfidence)
	}
	return d, nil
}

// parsePureVision converts percentage coordinates to logical pixels for
// a width x height window.
func parsePureVision(response string, width, height int) (*core.ActionDecision, error) {
	obj, err := llm.ExtractObject(response)
	if err != nil {
		return nil, core.ErrParseFailure.WithCause(err)
	}

	d := decodeCommon(obj, core.MethodPureVision)
	if d.Action == "" {
		return nil, core.ErrParseFailure.WithMessage("pure vision response missing action")
	}
	if d.IsError() {
		return nil, core.ErrParseFailure.WithMessage("model reported error: " + d.Reasoning)
	}

	loc := llm.Object(obj, "location")
	if loc == nil {
		return nil, core.ErrParseFailure.WithMessage("pure vision response missing location")
	}
	xp, okX := llm.Number(loc, "x_percent")
	yp, okY := llm.Number(loc, "y_percent")
	if !okX || !okY {
		return nil, core.ErrParseFailure.WithMessage("pure vision location missing x_percent/y_percent")
	}
	if xp < 0 || xp > 100 || yp < 0 || yp > 100 {
		return nil, core.ErrParseFailure.WithMessage(
			fmt.Sprintf("pure vision location out of range: (%.1f, %.1f)", xp, yp))
	}

	pp := core.PercentPoint{XPercent: xp, YPercent: yp}
	d.Location = &pp
	point := pp.ToLogical(width, height)
	d.Coordinates = &point

	if desc := llm.String(obj, "element"); desc != "" && d.Reasoning == "" {
		d.Reasoning = desc
	}
	return d, nil
}

// parseVerification reads the assert response.
func parseVerification(response string) (*core.VerificationResult, error) {
	obj, err := llm.ExtractObject(response)
	if err != nil {
		return nil, core.ErrParseFailure.WithCause(err)
	}

	passed, ok := llm.Bool(obj, "passed")
	if !ok {
		return nil, core.ErrParseFailure.WithMessage("verification response missing passed")
	}

	result := &core.VerificationResult{
		Passed:     passed,
		Assertions: llm.Strings(obj, "assertions"),
		Issues:     llm.Strings(obj, "issues"),
	}
	if conf, ok := llm.Number(obj, "confidence"); ok {
		result.Confidence = conf
	}
	return result, nil
}
