// Package prompt renders the per-tier LLM prompts. Templates are kept
// as data (format strings plus a literal example response) so wording
// changes never touch engine code.
package prompt

import (
	"fmt"
	"strings"

	"github.com/devicelab-dev/uipilot/pkg/core"
)

// System is the system prompt shared by every decision query.
const System = `You are a mobile UI automation assistant. You decide the single next action to perform on a device screen. Always respond with a single JSON object and nothing else. Do not wrap the JSON in markdown fences.`

// maxVerificationElements bounds the element list in verification
// prompts so the payload stays inside the response token budget.
const maxVerificationElements = 50

const hierarchyTemplate = `Current screen: %s (platform: %s)

Interactive elements:
%s
%sTask: %s

Choose one action on one element. Respond with JSON:
{
  "action": "click|double_tap|long_press|type_text|swipe|scroll|pinch|zoom",
  "element_id": "<id from the list above>",
  "parameters": {},
  "reasoning": "<why this element and action>",
  "confidence": 0.0-1.0
}

Example response:
{"action": "click", "element_id": "5", "parameters": {}, "reasoning": "The Login button submits the form", "confidence": 0.92}

If the task cannot be performed on this screen, respond with:
{"action": "error", "reasoning": "<what is missing>", "confidence": 0}`

const taggedTemplate = `The screenshot shows the current screen with numbered red tags over interactive elements.

Tagged elements:
%s
%sTask: %s

Pick the tag to act on. Respond with JSON:
{
  "action": "click|double_tap|long_press|type_text|swipe|scroll|pinch|zoom",
  "tag_id": <number from a tag on the screenshot>,
  "parameters": {},
  "reasoning": "<why this tag and action>",
  "confidence": 0.0-1.0
}

Example response:
{"action": "type_text", "tag_id": 3, "parameters": {"text": "alice@example.com"}, "reasoning": "Tag 3 is the email field", "confidence": 0.85}

If the task cannot be performed on this screen, respond with:
{"action": "error", "reasoning": "<what is missing>", "confidence": 0}`

const gridTemplate = `The screenshot shows the current screen with a %dx%d labeled grid. Columns are letters (A, B, C, ...) left to right and rows are numbers (1, 2, 3, ...) top to bottom, so "C7" is column C, row 7.

%sTask: %s

Pick the grid cell whose center is closest to where the action should happen. Respond with JSON:
{
  "action": "click|double_tap|long_press|type_text|swipe|scroll|pinch|zoom",
  "grid_position": "<cell label like C7>",
  "parameters": {},
  "reasoning": "<what is at that cell and why>",
  "confidence": 0.0-1.0
}

Example response:
{"action": "click", "grid_position": "E5", "parameters": {}, "reasoning": "The Submit button sits in cell E5", "confidence": 0.8}

If the task cannot be performed on this screen, respond with:
{"action": "error", "reasoning": "<what is missing>", "confidence": 0}`

const pureVisionTemplate = `The screenshot shows the current screen of a %dx%d display.

%sTask: %s

Describe the element to interact with and give its position as percentages of the screen, where x_percent runs 0 (left edge) to 100 (right edge) and y_percent runs 0 (top) to 100 (bottom). Respond with JSON:
{
  "element": "<short description of the target>",
  "location": {"x_percent": 0-100, "y_percent": 0-100},
  "action": "click|double_tap|long_press|type_text|swipe|scroll|pinch|zoom",
  "parameters": {},
  "reasoning": "<why this target>",
  "confidence": 0.0-1.0
}

Example response:
{"element": "blue Sign In button below the password field", "location": {"x_percent": 50, "y_percent": 62}, "action": "click", "parameters": {}, "reasoning": "Signing in completes the task", "confidence": 0.75}

If the task cannot be performed on this screen, respond with:
{"action": "error", "reasoning": "<what is missing>", "confidence": 0}`

const verificationTemplate = `Current screen: %s

Visible elements:
%s
Condition to verify: %s

Check whether the condition holds on this screen. Respond with JSON:
{
  "passed": true|false,
  "assertions": ["<each individual check performed>"],
  "issues": ["<each discrepancy found, empty when passed>"],
  "confidence": 0.0-1.0
}

Example response:
{"passed": true, "assertions": ["A welcome banner is visible", "The username matches"], "issues": [], "confidence": 0.9}`

// Hierarchy renders the tier-1 prompt over the targetable elements of
// the snapshot.
func Hierarchy(instruction string, state *core.UIState, history []string) string {
	var sb strings.Builder
	for _, el := range state.TargetableElements() {
		fmt.Fprintf(&sb, "[%s] %s (%s) bounds=%s\n", el.ElementID, el.Label(), el.Type, el.Bounds)
	}
	if sb.Len() == 0 {
		sb.WriteString("(none found)\n")
	}
	return fmt.Sprintf(hierarchyTemplate,
		state.Activity, state.Device.Platform, sb.String(), historyBlock(history), instruction)
}

// Tagged renders the tier-2 prompt. The tag list mirrors the numeric
// overlays drawn on the screenshot.
func Tagged(instruction string, tagMapping map[int]*core.UIElement, history []string) string {
	var sb strings.Builder
	for tag := 1; ; tag++ {
		el, ok := tagMapping[tag]
		if !ok {
			break
		}
		fmt.Fprintf(&sb, "[%d] %s (%s)\n", tag, el.Label(), el.Type)
	}
	if sb.Len() == 0 {
		sb.WriteString("(none found)\n")
	}
	return fmt.Sprintf(taggedTemplate, sb.String(), historyBlock(history), instruction)
}

// Grid renders the tier-3 prompt for an NxN overlay.
func Grid(instruction string, gridSize int, history []string) string {
	return fmt.Sprintf(gridTemplate, gridSize, gridSize, historyBlock(history), instruction)
}

// PureVision renders the tier-4 prompt with the logical screen size.
func PureVision(instruction string, width, height int, history []string) string {
	return fmt.Sprintf(pureVisionTemplate, width, height, historyBlock(history), instruction)
}

// Verification renders the assertion prompt over at most 50 visible
// elements.
func Verification(condition string, state *core.UIState) string {
	var sb strings.Builder
	for _, el := range state.VisibleElements(maxVerificationElements) {
		fmt.Fprintf(&sb, "- %s (%s)\n", el.Label(), el.Type)
	}
	if sb.Len() == 0 {
		sb.WriteString("(none found)\n")
	}
	return fmt.Sprintf(verificationTemplate, state.Activity, sb.String(), condition)
}

func historyBlock(history []string) string {
	if len(history) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Previous actions this session:\n")
	for _, h := range history {
		sb.WriteString("- ")
		sb.WriteString(h)
		sb.WriteByte('\n')
	}
	sb.WriteByte('\n')
	return sb.String()
}
