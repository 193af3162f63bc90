package annotate

import (
	"image"
	"image/color"
	"testing"

	"github.com/menta2k/image-grounding/pkg/types"
)

var (
	black = color.NRGBA{0, 0, 0, 255}
	white = color.NRGBA{255, 255, 255, 255}
)

func createTestImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, black)
		}
	}
	return img
}

func TestAnnotateDrawsInwardStroke(t *testing.T) {
	img := createTestImage(20, 20)
	box := types.PixelBox{YMin: 3, XMin: 2, YMax: 15, XMax: 12}

	got := Annotate(img, box, white, 3)
	if got != img {
		t.Fatal("Annotate should return the image it was given")
	}

	whitePoints := []image.Point{
		{2, 3}, {12, 3}, {2, 15}, {12, 15}, // corners
		{7, 5},  // top band, third row
		{7, 13}, // bottom band, third row from the bottom
		{4, 9},  // left band
		{10, 9}, // right band
	}
	for _, p := range whitePoints {
		if c := img.NRGBAAt(p.X, p.Y); c != white {
			t.Errorf("Expected white at %v, got %+v", p, c)
		}
	}

	blackPoints := []image.Point{
		{5, 6}, {9, 12}, // interior
		{1, 3}, {13, 9}, {7, 2}, {7, 16}, // just outside
	}
	for _, p := range blackPoints {
		if c := img.NRGBAAt(p.X, p.Y); c != black {
			t.Errorf("Expected black at %v, got %+v", p, c)
		}
	}
}

func TestAnnotateUnorderedBox(t *testing.T) {
	img := createTestImage(20, 20)
	Annotate(img, types.PixelBox{YMin: 15, XMin: 12, YMax: 3, XMax: 2}, white, 1)

	if img.NRGBAAt(2, 3) != white || img.NRGBAAt(12, 15) != white {
		t.Error("Expected swapped box to be outlined")
	}
	if img.NRGBAAt(3, 4) != black {
		t.Error("Expected one pixel stroke to leave the interior untouched")
	}
}

func TestAnnotateClipsToImage(t *testing.T) {
	img := createTestImage(10, 10)
	Annotate(img, types.PixelBox{YMin: 2, XMin: -5, YMax: 40, XMax: 50}, white, 2)

	if img.NRGBAAt(0, 2) != white || img.NRGBAAt(9, 3) != white {
		t.Error("Expected visible part of the top edge to be drawn")
	}
	if img.NRGBAAt(0, 5) != black || img.NRGBAAt(9, 9) != black {
		t.Error("Expected edges outside the image to be dropped")
	}
}

func TestAnnotateStrokeWiderThanBox(t *testing.T) {
	img := createTestImage(10, 10)
	Annotate(img, types.PixelBox{YMin: 1, XMin: 1, YMax: 3, XMax: 3}, white, 5)

	for y := 1; y <= 3; y++ {
		for x := 1; x <= 3; x++ {
			if img.NRGBAAt(x, y) != white {
				t.Errorf("Expected box fully filled at (%d,%d)", x, y)
			}
		}
	}
	if img.NRGBAAt(4, 4) != black {
		t.Error("Stroke should not grow outside the box")
	}
}

func TestLabel(t *testing.T) {
	img := createTestImage(100, 60)
	Label(img, types.PixelBox{YMin: 30, XMin: 10, YMax: 50, XMax: 90}, "chrome", white)

	if n := countNonBlack(img, image.Rect(0, 0, 100, 30)); n == 0 {
		t.Error("Expected label pixels above the box")
	}

	top := createTestImage(100, 60)
	Label(top, types.PixelBox{YMin: 0, XMin: 10, YMax: 50, XMax: 90}, "chrome", white)
	if n := countNonBlack(top, image.Rect(0, 0, 100, 30)); n == 0 {
		t.Error("Expected label drawn inside the box when there is no room above")
	}

	empty := createTestImage(20, 20)
	Label(empty, types.PixelBox{YMin: 10, XMin: 0, YMax: 19, XMax: 19}, "", white)
	if n := countNonBlack(empty, empty.Bounds()); n != 0 {
		t.Errorf("Expected no pixels for empty label, got %d", n)
	}
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor(DefaultColor)
	if err != nil {
		t.Fatalf("ParseColor(%q) failed: %v", DefaultColor, err)
	}
	if r, g, b, a := c.RGBA(); r != 0xffff || g != 0xffff || b != 0xffff || a != 0xffff {
		t.Errorf("Expected white, got %v", c)
	}

	c, err = ParseColor("#FF8000")
	if err != nil {
		t.Fatalf("ParseColor hex failed: %v", err)
	}
	if got := c.(color.RGBA); got != (color.RGBA{255, 128, 0, 255}) {
		t.Errorf("Expected orange, got %+v", got)
	}

	for _, bad := range []string{"", "notacolor", "#12", "#zzzzzz"} {
		if _, err := ParseColor(bad); err == nil {
			t.Errorf("Expected error for %q", bad)
		}
	}
}

func countNonBlack(img *image.NRGBA, r image.Rectangle) int {
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if img.NRGBAAt(x, y) != black {
				n++
			}
		}
	}
	return n
}
