package overlay

import (
	"strconv"

	"github.com/fogleman/gg"

	"github.com/devicelab-dev/uipilot/pkg/core"
)

const tagRadius = 20.0

// NumericTags draws a numbered circle at the center of every targetable
// element and returns the overlaid PNG plus the tag-to-element mapping.
// Tags are 1-indexed in traversal order. Non-clickable, invisible, or
// bounds-less elements are excluded.
func NumericTags(screenshot []byte, elements []*core.UIElement, scale core.Scale) ([]byte, map[int]*core.UIElement, error) {
	img, _, _, err := decodePNG(screenshot)
	if err != nil {
		return nil, nil, err
	}

	dc := gg.NewContextForImage(img)
	dc.SetFontFace(fontFace(tagRadius))

	mapping := make(map[int]*core.UIElement)
	tag := 0
	for _, elem := range elements {
		if !elem.Targetable() {
			continue
		}
		tag++
		mapping[tag] = elem

		center := scale.ToPhysical(elem.Bounds.Center())
		drawTag(dc, center.X, center.Y, tag)
	}

	out, err := encodePNG(dc)
	if err != nil {
		return nil, nil, err
	}
	return out, mapping, nil
}

func drawTag(dc *gg.Context, x, y float64, tag int) {
	dc.DrawCircle(x, y, tagRadius)
	dc.SetRGBA(0.86, 0.15, 0.15, 0.92)
	dc.Fill()

	dc.DrawCircle(x, y, tagRadius)
	dc.SetRGB(1, 1, 1)
	dc.SetLineWidth(2)
	dc.Stroke()

	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored(strconv.Itoa(tag), x, y, 0.5, 0.5)
}
