// Package overlay renders numeric-tag and grid overlays onto device
// screenshots. Drawing happens in the screenshot's physical pixel space;
// every coordinate handed back to callers is logical.
package overlay

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/devicelab-dev/uipilot/pkg/core"
)

var labelFont *truetype.Font

func init() {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		panic(fmt.Sprintf("overlay: parse embedded font: %v", err))
	}
	labelFont = f
}

func fontFace(size float64) font.Face {
	return truetype.NewFace(labelFont, &truetype.Options{Size: size})
}

// decodePNG decodes a screenshot and validates its dimensions.
func decodePNG(data []byte) (image.Image, int, int, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to decode screenshot: %w", err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, 0, 0, core.ErrScreenshotDims
	}
	return img, b.Dx(), b.Dy(), nil
}

func encodePNG(dc *gg.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, fmt.Errorf("failed to encode overlay: %w", err)
	}
	return buf.Bytes(), nil
}

// Dimensions reads the intrinsic pixel size of a PNG screenshot.
func Dimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read screenshot metadata: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, core.ErrScreenshotDims
	}
	return cfg.Width, cfg.Height, nil
}
