package core

import "strings"

// ElementType classifies a UI element by its class name.
type ElementType string

// Element types inferred from class names.
const (
	ElementButton       ElementType = "button"
	ElementEditText     ElementType = "edit_text"
	ElementTextView     ElementType = "text_view"
	ElementImageView    ElementType = "image_view"
	ElementRecyclerView ElementType = "recycler_view"
	ElementListView     ElementType = "list_view"
	ElementWebView      ElementType = "webview"
	ElementDialog       ElementType = "dialog"
	ElementToggle       ElementType = "toggle"
	ElementSpinner      ElementType = "spinner"
	ElementUnknown      ElementType = "unknown"
)

// typePatterns is checked in order; the first substring match wins.
var typePatterns = []struct {
	substr string
	t      ElementType
}{
	{"button", ElementButton},
	{"edittext", ElementEditText},
	{"textfield", ElementEditText},
	{"textview", ElementTextView},
	{"statictext", ElementTextView},
	{"imageview", ElementImageView},
	{"image", ElementImageView},
	{"recyclerview", ElementRecyclerView},
	{"listview", ElementListView},
	{"table", ElementListView},
	{"webview", ElementWebView},
	{"dialog", ElementDialog},
	{"alert", ElementDialog},
	{"toggle", ElementToggle},
	{"switch", ElementToggle},
	{"spinner", ElementSpinner},
	{"picker", ElementSpinner},
}

// InferElementType maps a class name to an ElementType by case-insensitive
// substring search.
func InferElementType(className string) ElementType {
	lower := strings.ToLower(className)
	for _, p := range typePatterns {
		if strings.Contains(lower, p.substr) {
			return p.t
		}
	}
	return ElementUnknown
}

// UIElement is a single node parsed from the device accessibility tree.
type UIElement struct {
	ElementID   string      `json:"elementId"`
	Text        string      `json:"text,omitempty"`
	ResourceID  string      `json:"resourceId,omitempty"`
	ClassName   string      `json:"className,omitempty"`
	ContentDesc string      `json:"contentDesc,omitempty"`
	Type        ElementType `json:"elementType"`

	// Bounds is nil when the platform reported no geometry. An element
	// without bounds is not targetable by coordinate.
	Bounds *Bounds `json:"bounds,omitempty"`

	Clickable     bool `json:"clickable"`
	Scrollable    bool `json:"scrollable"`
	Focusable     bool `json:"focusable"`
	LongClickable bool `json:"longClickable"`
	Checked       bool `json:"checked"`
	Enabled       bool `json:"enabled"`
	Visible       bool `json:"visible"`
}

// Targetable reports whether the element can receive a coordinate gesture.
func (e *UIElement) Targetable() bool {
	return e.Clickable && e.Visible && e.Bounds != nil && !e.Bounds.IsZero()
}

// Label returns the best human-readable identifier for prompts.
func (e *UIElement) Label() string {
	switch {
	case e.Text != "":
		return e.Text
	case e.ContentDesc != "":
		return e.ContentDesc
	case e.ResourceID != "":
		return e.ResourceID
	default:
		return string(e.Type)
	}
}
