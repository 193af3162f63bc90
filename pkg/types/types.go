package types

import (
	"encoding/json"
	"fmt"
	"image"
)

// Resolution is an image size in pixels
type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ResolutionOf returns the pixel size of img
func ResolutionOf(img image.Image) Resolution {
	b := img.Bounds()
	return Resolution{Width: b.Dx(), Height: b.Dy()}
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// Coordinate is a pixel position with the origin at the top-left corner
type Coordinate struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// CropPlan lists the top-left origins of square tiles in output order
type CropPlan []Coordinate

// NormalizedBox is a detection box scaled to 0..1000 of the image height (y) and width (x).
// Components are not required to be ordered.
type NormalizedBox struct {
	YMin int
	XMin int
	YMax int
	XMax int
}

// MarshalJSON encodes the box as [ymin, xmin, ymax, xmax]
func (b NormalizedBox) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]int{b.YMin, b.XMin, b.YMax, b.XMax})
}

// UnmarshalJSON decodes a [ymin, xmin, ymax, xmax] array
func (b *NormalizedBox) UnmarshalJSON(data []byte) error {
	var v []int
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if len(v) != 4 {
		return fmt.Errorf("box_2d must have 4 values, got %d", len(v))
	}
	b.YMin, b.XMin, b.YMax, b.XMax = v[0], v[1], v[2], v[3]
	return nil
}

// PixelBox is a detection box in pixel units of the original image
type PixelBox struct {
	YMin int `json:"ymin"`
	XMin int `json:"xmin"`
	YMax int `json:"ymax"`
	XMax int `json:"xmax"`
}

// Rect returns the box as an image.Rectangle. The rectangle is canonicalized by
// the image package, so swapped components are reordered.
func (b PixelBox) Rect() image.Rectangle {
	return image.Rect(b.XMin, b.YMin, b.XMax, b.YMax)
}

// Fragment is one piece of a streamed model response
type Fragment struct {
	Text    string
	Thought bool
}

// Detection is the first object reported by the vision model
type Detection struct {
	Label string        `json:"label,omitempty"`
	Box   NormalizedBox `json:"box_2d"`
}
