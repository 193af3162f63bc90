package annotate

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/colornames"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/menta2k/image-grounding/pkg/types"
)

const (
	// DefaultColor is the outline color used when none is configured
	DefaultColor = "white"
	// DefaultStrokeWidth is the outline width in pixels
	DefaultStrokeWidth = 3
)

// Annotate draws the outline of box onto img and returns img.
//
// The corners are inclusive and the stroke grows inward from the box edge.
// Anything outside the image bounds is clipped.
func Annotate(img draw.Image, box types.PixelBox, c color.Color, strokeWidth int) draw.Image {
	if strokeWidth < 1 {
		strokeWidth = 1
	}

	r := box.Rect()
	outer := image.Rect(r.Min.X, r.Min.Y, r.Max.X+1, r.Max.Y+1)
	w := strokeWidth

	bands := []image.Rectangle{
		image.Rect(outer.Min.X, outer.Min.Y, outer.Max.X, outer.Min.Y+w), // top
		image.Rect(outer.Min.X, outer.Max.Y-w, outer.Max.X, outer.Max.Y), // bottom
		image.Rect(outer.Min.X, outer.Min.Y, outer.Min.X+w, outer.Max.Y), // left
		image.Rect(outer.Max.X-w, outer.Min.Y, outer.Max.X, outer.Max.Y), // right
	}

	src := image.NewUniform(c)
	for _, band := range bands {
		band = band.Intersect(outer).Intersect(img.Bounds())
		if band.Empty() {
			continue
		}
		draw.Draw(img, band, src, image.Point{}, draw.Src)
	}
	return img
}

// Label writes text just above box, or just inside it when there is no room above
func Label(img draw.Image, box types.PixelBox, text string, c color.Color) draw.Image {
	if text == "" {
		return img
	}
	face := basicfont.Face7x13
	r := box.Rect()

	baseline := r.Min.Y - face.Descent - 1
	if baseline-face.Ascent < img.Bounds().Min.Y {
		baseline = r.Min.Y + DefaultStrokeWidth + face.Ascent + 1
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(r.Min.X+DefaultStrokeWidth, baseline),
	}
	d.DrawString(text)
	return img
}

// ParseColor resolves an SVG color name (e.g. "white") or a #rrggbb value
func ParseColor(s string) (color.Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := colornames.Map[s]; ok {
		return c, nil
	}
	if strings.HasPrefix(s, "#") && len(s) == 7 {
		var r, g, b uint8
		if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &r, &g, &b); err == nil {
			return color.RGBA{R: r, G: g, B: b, A: 255}, nil
		}
	}
	return nil, fmt.Errorf("unknown color %q", s)
}
