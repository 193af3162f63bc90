package tiling

import (
	"image"
	"reflect"
	"testing"

	"github.com/menta2k/image-grounding/pkg/types"
)

func TestPlan(t *testing.T) {
	tests := []struct {
		name string
		res  types.Resolution
		want types.CropPlan
	}{
		{
			name: "landscape exact fit",
			res:  types.Resolution{Width: 1200, Height: 800},
			want: types.CropPlan{{0, 0}, {400, 0}},
		},
		{
			name: "landscape with remainder",
			res:  types.Resolution{Width: 1000, Height: 600},
			want: types.CropPlan{{0, 0}, {300, 0}, {400, 0}},
		},
		{
			name: "wide panorama",
			res:  types.Resolution{Width: 2000, Height: 800},
			want: types.CropPlan{{0, 0}, {400, 0}, {800, 0}, {1200, 0}},
		},
		{
			name: "portrait with remainder",
			res:  types.Resolution{Width: 600, Height: 1000},
			want: types.CropPlan{{0, 0}, {0, 300}, {0, 400}},
		},
		{
			name: "square",
			res:  types.Resolution{Width: 512, Height: 512},
			want: types.CropPlan{{0, 0}},
		},
		{
			name: "single pixel",
			res:  types.Resolution{Width: 1, Height: 1},
			want: types.CropPlan{{0, 0}},
		},
		{
			name: "one pixel tall strip",
			res:  types.Resolution{Width: 3, Height: 1},
			want: types.CropPlan{{0, 0}, {1, 0}, {2, 0}},
		},
		{
			name: "odd side rounds half to even",
			res:  types.Resolution{Width: 1000, Height: 801},
			want: types.CropPlan{{0, 0}, {199, 0}},
		},
		{
			name: "slightly wider than tall",
			res:  types.Resolution{Width: 801, Height: 800},
			want: types.CropPlan{{0, 0}, {1, 0}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Plan(tt.res)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Plan(%v) = %v, want %v", tt.res, got, tt.want)
			}
		})
	}
}

func TestStep(t *testing.T) {
	tests := map[int]int{1: 1, 2: 1, 3: 2, 5: 2, 7: 4, 800: 400, 801: 400, 803: 402}
	for side, want := range tests {
		if got := Step(side); got != want {
			t.Errorf("Step(%d) = %d, want %d", side, got, want)
		}
	}
}

func TestPlanCoversImage(t *testing.T) {
	sizes := []int{1, 2, 3, 4, 5, 7, 10, 17, 33, 64, 99, 100, 101, 255, 640, 1080, 1920}

	for _, w := range sizes {
		for _, h := range sizes {
			res := types.Resolution{Width: w, Height: h}
			plan := Plan(res)
			side := SideLength(res)
			bounds := image.Rect(0, 0, w, h)

			if len(plan) == 0 || plan[0] != (types.Coordinate{}) {
				t.Fatalf("%v: plan must start at origin, got %v", res, plan)
			}
			if w == h && len(plan) != 1 {
				t.Errorf("%v: square image should have one tile, got %v", res, plan)
			}

			scan := func(c types.Coordinate) int {
				if w > h {
					return c.X
				}
				return c.Y
			}
			extent := h
			if w > h {
				extent = w
			}

			for i, c := range plan {
				if !CropRect(c, side).In(bounds) {
					t.Errorf("%v: tile %d at %v leaves the image", res, i, c)
				}
				if i == 0 {
					continue
				}
				gap := scan(c) - scan(plan[i-1])
				if gap <= 0 {
					t.Errorf("%v: tile %d does not advance (%v after %v)", res, i, c, plan[i-1])
				}
				if gap > side {
					t.Errorf("%v: gap of %d between tiles %d and %d exceeds side %d", res, gap, i-1, i, side)
				}
			}

			if last := scan(plan[len(plan)-1]); last+side != extent {
				t.Errorf("%v: last tile ends at %d, want %d", res, last+side, extent)
			}
		}
	}
}

func TestPlanIsDeterministic(t *testing.T) {
	res := types.Resolution{Width: 3000, Height: 1234}
	if !reflect.DeepEqual(Plan(res), Plan(res)) {
		t.Error("Plan should return the same result for the same input")
	}
}

func TestCropRect(t *testing.T) {
	got := CropRect(types.Coordinate{X: 400, Y: 0}, 800)
	want := image.Rect(400, 0, 1200, 800)
	if got != want {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func BenchmarkPlan(b *testing.B) {
	res := types.Resolution{Width: 20000, Height: 100}
	for i := 0; i < b.N; i++ {
		Plan(res)
	}
}
