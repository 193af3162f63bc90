package tiling

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/menta2k/image-grounding/pkg/types"
)

// TileSize is the width and height of every rendered tile
const TileSize = 768

// ImageSaver persists an image to a path
type ImageSaver interface {
	SaveImage(img image.Image, path string) error
}

// Renderer crops planned tiles out of an image, resizes them to TileSize and saves them
type Renderer struct {
	saver  ImageSaver
	outDir string
	ext    string
}

// NewRenderer creates a renderer writing tiles into outDir with the given extension
// (".png" when empty)
func NewRenderer(saver ImageSaver, outDir, ext string) *Renderer {
	if ext == "" {
		ext = ".png"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return &Renderer{saver: saver, outDir: outDir, ext: strings.ToLower(ext)}
}

// TilePath returns the output path of the tile with the given index
func (r *Renderer) TilePath(baseName string, index int) string {
	return filepath.Join(r.outDir, fmt.Sprintf("%s_crop_%d%s", baseName, index, r.ext))
}

// Render writes one tile per plan entry and returns the number of tiles written
func (r *Renderer) Render(img image.Image, plan types.CropPlan, baseName string) (int, error) {
	side := SideLength(types.ResolutionOf(img))
	offset := img.Bounds().Min

	for i, origin := range plan {
		rect := CropRect(origin, side).Add(offset)
		tile := imaging.Resize(imaging.Crop(img, rect), TileSize, TileSize, imaging.Lanczos)

		if err := r.saver.SaveImage(tile, r.TilePath(baseName, i)); err != nil {
			return i, fmt.Errorf("failed to save tile %d: %w", i, err)
		}
	}
	return len(plan), nil
}
