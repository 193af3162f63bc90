package annotate

import "github.com/menta2k/image-grounding/pkg/types"

// Scale is the extent of the normalized coordinate space used by box_2d
const Scale = 1000

// ToPixel maps a normalized box onto an image of the given size.
// Values are truncated with floor division, not rounded, and are not validated.
func ToPixel(res types.Resolution, box types.NormalizedBox) types.PixelBox {
	return types.PixelBox{
		YMin: floorDiv(box.YMin*res.Height, Scale),
		XMin: floorDiv(box.XMin*res.Width, Scale),
		YMax: floorDiv(box.YMax*res.Height, Scale),
		XMax: floorDiv(box.XMax*res.Width, Scale),
	}
}

// ToNormalized maps a pixel box back into the 0..1000 space, flooring like ToPixel
func ToNormalized(res types.Resolution, box types.PixelBox) types.NormalizedBox {
	return types.NormalizedBox{
		YMin: floorDiv(box.YMin*Scale, res.Height),
		XMin: floorDiv(box.XMin*Scale, res.Width),
		YMax: floorDiv(box.YMax*Scale, res.Height),
		XMax: floorDiv(box.XMax*Scale, res.Width),
	}
}

// floorDiv divides rounding toward negative infinity
func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
