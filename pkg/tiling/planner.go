package tiling

import (
	"image"
	"math"

	"github.com/menta2k/image-grounding/pkg/types"
)

// Overlap is the fraction of a tile shared with its neighbour along the scan axis
const Overlap = 0.5

// SideLength returns the edge length of every tile for an image of the given size
func SideLength(res types.Resolution) int {
	if res.Width < res.Height {
		return res.Width
	}
	return res.Height
}

// Step returns the distance between consecutive tile origins along the scan axis.
// Halves are rounded to even and the step never drops below one pixel.
func Step(side int) int {
	step := int(math.RoundToEven(float64(side) * Overlap))
	if step < 1 {
		step = 1
	}
	return step
}

// Plan computes the ordered tile origins covering an image of the given size.
//
// Tiles advance along x when the image is wider than tall and along y otherwise.
// The first tile is always at (0,0). When the regular walk stops short of the far
// edge, one extra tile flush with that edge is appended.
func Plan(res types.Resolution) types.CropPlan {
	side := SideLength(res)
	step := Step(side)

	plan := types.CropPlan{{X: 0, Y: 0}}

	if res.Width > res.Height {
		for x := step; x+side <= res.Width; x += step {
			plan = append(plan, types.Coordinate{X: x, Y: 0})
		}
		if final := res.Width - side; final > plan[len(plan)-1].X {
			plan = append(plan, types.Coordinate{X: final, Y: 0})
		}
		return plan
	}

	for y := step; y+side <= res.Height; y += step {
		plan = append(plan, types.Coordinate{X: 0, Y: y})
	}
	if final := res.Height - side; final > plan[len(plan)-1].Y {
		plan = append(plan, types.Coordinate{X: 0, Y: final})
	}
	return plan
}

// CropRect returns the square region of a tile with the given origin
func CropRect(origin types.Coordinate, side int) image.Rectangle {
	return image.Rect(origin.X, origin.Y, origin.X+side, origin.Y+side)
}
