// Package observer produces immutable UIState snapshots: accessibility
// tree, screenshot, and tier-specific overlays.
package observer

import (
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/devicelab-dev/uipilot/pkg/core"
)

// Root container tags that wrap the hierarchy but are not elements.
var containerTags = map[string]bool{
	"hierarchy": true,
	"AppiumAUT": true,
}

// iOS element types that accept taps. XCUITest dumps carry no clickable
// attribute, so tappability is inferred from the element type.
var iosTappableTypes = map[string]bool{
	"XCUIElementTypeButton":          true,
	"XCUIElementTypeCell":            true,
	"XCUIElementTypeLink":            true,
	"XCUIElementTypeSwitch":          true,
	"XCUIElementTypeTextField":       true,
	"XCUIElementTypeSecureTextField": true,
	"XCUIElementTypeSearchField":     true,
}

// ParseSource parses an accessibility dump into a depth-first ordered
// element sequence. Element ids are sequential traversal indices, unique
// within the snapshot. Android and iOS attribute sets are both handled.
//
// On malformed input the parse yields nil; the caller keeps the raw
// source for UI-settle comparison. A well-formed dump with no elements
// yields an empty, non-nil sequence.
func ParseSource(xmlData string) []*core.UIElement {
	decoder := xml.NewDecoder(strings.NewReader(xmlData))

	elements := []*core.UIElement{}
	index := 0

	for {
		token, err := decoder.Token()
		if err != nil {
			// EOF ends the walk; anything else invalidates the parse.
			if err.Error() != "EOF" {
				return nil
			}
			break
		}

		start, ok := token.(xml.StartElement)
		if !ok {
			continue
		}
		if containerTags[start.Name.Local] {
			continue
		}

		elem := parseElement(start)
		elem.ElementID = strconv.Itoa(index)
		index++
		elements = append(elements, elem)
	}

	return elements
}

func parseElement(start xml.StartElement) *core.UIElement {
	elem := &core.UIElement{
		ClassName: start.Name.Local,
		Enabled:   true,
		Visible:   true,
	}

	var iosRect core.Bounds
	var hasIOSRect bool
	var label, value string

	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "text":
			elem.Text = attr.Value
		case "resource-id":
			elem.ResourceID = attr.Value
		case "content-desc":
			elem.ContentDesc = attr.Value
		case "class":
			elem.ClassName = attr.Value
		case "bounds":
			if b, ok := core.ParseBounds(attr.Value); ok {
				bounds := b
				elem.Bounds = &bounds
			}
		case "clickable":
			elem.Clickable = attr.Value == "true"
		case "scrollable":
			elem.Scrollable = attr.Value == "true"
		case "focusable":
			elem.Focusable = attr.Value == "true"
		case "long-clickable":
			elem.LongClickable = attr.Value == "true"
		case "checked":
			elem.Checked = attr.Value == "true"
		case "enabled":
			elem.Enabled = attr.Value != "false"
		case "displayed", "visible":
			elem.Visible = attr.Value != "false"

		// iOS attributes
		case "type":
			elem.ClassName = attr.Value
		case "name":
			elem.ResourceID = attr.Value
		case "label":
			label = attr.Value
		case "value":
			value = attr.Value
		case "x":
			if v, err := strconv.Atoi(attr.Value); err == nil {
				iosRect.X = v
				hasIOSRect = true
			}
		case "y":
			if v, err := strconv.Atoi(attr.Value); err == nil {
				iosRect.Y = v
				hasIOSRect = true
			}
		case "width":
			if v, err := strconv.Atoi(attr.Value); err == nil {
				iosRect.Width = v
				hasIOSRect = true
			}
		case "height":
			if v, err := strconv.Atoi(attr.Value); err == nil {
				iosRect.Height = v
				hasIOSRect = true
			}
		}
	}

	if elem.Text == "" && label != "" {
		elem.Text = label
	}
	if elem.Text == "" && value != "" {
		elem.Text = value
	}
	if elem.ContentDesc == "" && label != "" {
		elem.ContentDesc = label
	}
	if elem.Bounds == nil && hasIOSRect {
		rect := iosRect
		elem.Bounds = &rect
	}
	if !elem.Clickable && iosTappableTypes[elem.ClassName] {
		elem.Clickable = true
	}

	elem.Type = core.InferElementType(elem.ClassName)
	return elem
}
