package appium

import (
	"encoding/base64"
	"fmt"

	"github.com/devicelab-dev/uipilot/pkg/core"
)

// The client itself is the DeviceSession; all gestures ride the W3C
// actions endpoint with a touch pointer input.

// PageSource returns the accessibility dump XML.
func (c *Client) PageSource() (string, error) {
	resp, err := c.get(c.sessionPath() + "/source")
	if err != nil {
		return "", err
	}
	source, _ := resp["value"].(string)
	return source, nil
}

// CurrentActivity returns the foreground activity. Only Android reports
// one; other platforms get an error the caller treats as unknown.
func (c *Client) CurrentActivity() (string, error) {
	if c.info.Platform != "android" {
		return "", fmt.Errorf("current activity not supported on %q", c.info.Platform)
	}
	resp, err := c.get(c.sessionPath() + "/appium/device/current_activity")
	if err != nil {
		return "", err
	}
	activity, _ := resp["value"].(string)
	return activity, nil
}

// WindowSize returns the window rect in logical pixels.
func (c *Client) WindowSize() (int, int, error) {
	resp, err := c.get(c.sessionPath() + "/window/rect")
	if err != nil {
		return 0, 0, err
	}
	value, ok := resp["value"].(map[string]interface{})
	if !ok {
		return 0, 0, fmt.Errorf("invalid window rect response")
	}
	w, _ := value["width"].(float64)
	h, _ := value["height"].(float64)
	return int(w), int(h), nil
}

// Screenshot returns the screen as PNG bytes.
func (c *Client) Screenshot() ([]byte, error) {
	resp, err := c.get(c.sessionPath() + "/screenshot")
	if err != nil {
		return nil, err
	}
	encoded, ok := resp["value"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid screenshot response")
	}
	return base64.StdEncoding.DecodeString(encoded)
}

// Tap performs a single touch at the coordinate.
func (c *Client) Tap(x, y int) error {
	return c.performActions([][]map[string]interface{}{{
		{"type": "pointerMove", "duration": 0, "x": x, "y": y, "origin": "viewport"},
		{"type": "pointerDown", "button": 0},
		{"type": "pause", "duration": 50},
		{"type": "pointerUp", "button": 0},
	}})
}

// LongPress presses and holds for durationMs.
func (c *Client) LongPress(x, y, durationMs int) error {
	return c.performActions([][]map[string]interface{}{{
		{"type": "pointerMove", "duration": 0, "x": x, "y": y, "origin": "viewport"},
		{"type": "pointerDown", "button": 0},
		{"type": "pause", "duration": durationMs},
		{"type": "pointerUp", "button": 0},
	}})
}

// SwipeGesture runs a single-finger timeline.
func (c *Client) SwipeGesture(actions []core.TouchAction) error {
	return c.performActions([][]map[string]interface{}{convertTimeline(actions)})
}

// MultiTouch runs synchronized per-finger timelines.
func (c *Client) MultiTouch(fingers [][]core.TouchAction) error {
	converted := make([][]map[string]interface{}, 0, len(fingers))
	for _, finger := range fingers {
		converted = append(converted, convertTimeline(finger))
	}
	return c.performActions(converted)
}

// TypeKeys injects characters via W3C key actions, falling back to the
// Appium active-element value endpoint for drivers without key input.
func (c *Client) TypeKeys(text string) error {
	var keyActions []map[string]interface{}
	for _, ch := range text {
		keyActions = append(keyActions,
			map[string]interface{}{"type": "keyDown", "value": string(ch)},
			map[string]interface{}{"type": "keyUp", "value": string(ch)},
		)
	}

	_, err := c.post(c.sessionPath()+"/actions", map[string]interface{}{
		"actions": []map[string]interface{}{
			{
				"type":    "key",
				"id":      "keyboard",
				"actions": keyActions,
			},
		},
	})
	if err != nil {
		_, err = c.post(c.sessionPath()+"/appium/element/active/value", map[string]interface{}{
			"text": text,
		})
	}
	return err
}

// HideKeyboard dismisses the on-screen keyboard if shown.
func (c *Client) HideKeyboard() error {
	_, err := c.post(c.sessionPath()+"/appium/device/hide_keyboard", nil)
	return err
}

// Pause idles the device input queue for ms milliseconds.
func (c *Client) Pause(ms int) error {
	return c.performActions([][]map[string]interface{}{{
		{"type": "pause", "duration": ms},
	}})
}

// Capabilities returns the platform information negotiated at Connect.
func (c *Client) Capabilities() core.DeviceInfo {
	return c.info
}

// convertTimeline maps a press/wait/move/release timeline onto W3C
// pointer actions.
func convertTimeline(actions []core.TouchAction) []map[string]interface{} {
	var out []map[string]interface{}
	for _, a := range actions {
		switch a.Type {
		case core.TouchPress:
			out = append(out,
				map[string]interface{}{"type": "pointerMove", "duration": 0, "x": a.X, "y": a.Y, "origin": "viewport"},
				map[string]interface{}{"type": "pointerDown", "button": 0},
			)
		case core.TouchWait:
			out = append(out, map[string]interface{}{"type": "pause", "duration": a.DurationMs})
		case core.TouchMove:
			out = append(out, map[string]interface{}{
				"type": "pointerMove", "duration": a.DurationMs, "x": a.X, "y": a.Y, "origin": "viewport",
			})
		case core.TouchRelease:
			out = append(out, map[string]interface{}{"type": "pointerUp", "button": 0})
		}
	}
	return out
}

func (c *Client) performActions(fingers [][]map[string]interface{}) error {
	payload := make([]map[string]interface{}, 0, len(fingers))
	for i, actions := range fingers {
		payload = append(payload, map[string]interface{}{
			"type":       "pointer",
			"id":         fmt.Sprintf("finger%d", i+1),
			"parameters": map[string]interface{}{"pointerType": "touch"},
			"actions":    actions,
		})
	}
	_, err := c.post(c.sessionPath()+"/actions", map[string]interface{}{"actions": payload})
	return err
}
