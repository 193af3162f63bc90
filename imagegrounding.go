// Package imagegrounding tiles images into overlapping squares and grounds
// vision-model detections back onto the original pixels.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"log"
//
//		imagegrounding "github.com/menta2k/image-grounding"
//		"github.com/menta2k/image-grounding/pkg/detection"
//		"github.com/menta2k/image-grounding/pkg/gemini"
//		"github.com/menta2k/image-grounding/pkg/processing"
//	)
//
//	func main() {
//		g := imagegrounding.New()
//
//		// Split a screenshot into 768x768 tiles with 50% overlap
//		n, err := g.CropFile("screenshot.png")
//		if err != nil {
//			log.Fatal(err)
//		}
//		log.Printf("created %d tiles", n)
//
//		// Ask Gemini where the target is and outline it
//		client, err := gemini.NewClient(context.Background(), "")
//		if err != nil {
//			log.Fatal(err)
//		}
//		g.SetDetector(detection.NewDetector(client, processing.NewProcessor(), gemini.DefaultModel))
//		res, err := g.DetectFile(context.Background(), "screenshot.png", "screenshot_anno.png")
//		if err != nil {
//			log.Fatal(err)
//		}
//		log.Printf("box_2d=%v pixels=%+v", res.Detection.Box, res.Pixel)
//	}
//
// The package is built from these components:
//
//  1. Tiling (pkg/tiling): plans tile origins and renders the tiles
//  2. Annotate (pkg/annotate): maps 0-1000 boxes to pixels and draws outlines
//  3. Detection (pkg/detection): prompts a vision model and parses the ```json block it returns
//  4. Backends (pkg/gemini, pkg/ollama, pkg/llamacpp): stream model responses
//  5. Processing (pkg/processing): loads, encodes and saves images
package imagegrounding

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/menta2k/image-grounding/internal/utils"
	"github.com/menta2k/image-grounding/pkg/annotate"
	"github.com/menta2k/image-grounding/pkg/detection"
	"github.com/menta2k/image-grounding/pkg/processing"
	"github.com/menta2k/image-grounding/pkg/tiling"
	"github.com/menta2k/image-grounding/pkg/types"
)

// Version of the image grounding library
const Version = "1.0.0"

// ErrNoDetector is returned by detection calls when no detector was configured
var ErrNoDetector = errors.New("no detector configured")

// Options configures a Grounder
type Options struct {
	OutputDir   string
	TileFormat  string
	Processing  processing.Options
	Color       color.Color
	StrokeWidth int
	ShowLabel   bool
}

// DefaultOptions returns the options used by New
func DefaultOptions() Options {
	return Options{
		OutputDir:   ".",
		TileFormat:  "png",
		Processing:  processing.DefaultOptions(),
		Color:       color.White,
		StrokeWidth: annotate.DefaultStrokeWidth,
	}
}

// Grounder provides a high-level interface for tiling and detection grounding
type Grounder struct {
	processor *processing.Processor
	renderer  *tiling.Renderer
	detector  *detection.Detector
	opts      Options
}

// New creates a new Grounder with default configuration and no detector
func New() *Grounder {
	return NewWithOptions(DefaultOptions(), nil)
}

// NewWithOptions creates a new Grounder with custom options. detector may be nil
// when only tiling is needed.
func NewWithOptions(opts Options, detector *detection.Detector) *Grounder {
	if opts.Color == nil {
		opts.Color = color.White
	}
	if opts.StrokeWidth < 1 {
		opts.StrokeWidth = annotate.DefaultStrokeWidth
	}
	processor := processing.NewProcessorWithOptions(opts.Processing)

	return &Grounder{
		processor: processor,
		renderer:  tiling.NewRenderer(processor, opts.OutputDir, opts.TileFormat),
		detector:  detector,
		opts:      opts,
	}
}

// SetDetector sets the detector used by DetectImage and DetectFile
func (g *Grounder) SetDetector(detector *detection.Detector) {
	g.detector = detector
}

// Processor returns the image processor used for loading and saving
func (g *Grounder) Processor() *processing.Processor {
	return g.processor
}

// Plan returns the tile origins for img
func (g *Grounder) Plan(img image.Image) types.CropPlan {
	return tiling.Plan(types.ResolutionOf(img))
}

// CropImage renders the tiles of img as <baseName>_crop_<i> files and returns how many were written
func (g *Grounder) CropImage(img image.Image, baseName string) (int, error) {
	if err := g.processor.ValidateImage(img); err != nil {
		return 0, err
	}
	return g.renderer.Render(img, g.Plan(img), baseName)
}

// CropFile loads an image and renders its tiles
func (g *Grounder) CropFile(path string) (int, error) {
	img, err := g.processor.LoadImageSmart(path)
	if err != nil {
		return 0, fmt.Errorf("failed to load image: %w", err)
	}
	return g.CropImage(img, utils.BaseName(path))
}

// TilePath returns where CropFile writes tile i of path
func (g *Grounder) TilePath(path string, i int) string {
	return g.renderer.TilePath(utils.BaseName(path), i)
}

// Grounding is a detection mapped onto the pixels of the source image
type Grounding struct {
	Detection  types.Detection  `json:"detection"`
	Resolution types.Resolution `json:"resolution"`
	Pixel      types.PixelBox   `json:"pixel"`
	Output     string           `json:"output,omitempty"`
	Raw        string           `json:"-"`
}

// DetectImage asks the detector for the target in img and maps the result to pixels
func (g *Grounder) DetectImage(ctx context.Context, img image.Image) (*Grounding, error) {
	if g.detector == nil {
		return nil, ErrNoDetector
	}
	res, err := g.detector.Detect(ctx, img)
	if err != nil {
		return nil, err
	}
	resolution := types.ResolutionOf(img)
	return &Grounding{
		Detection:  res.Detection,
		Resolution: resolution,
		Pixel:      annotate.ToPixel(resolution, res.Detection.Box),
		Raw:        res.Raw,
	}, nil
}

// Annotate outlines the grounded box on img in place and returns img
func (g *Grounder) Annotate(img *image.NRGBA, gr *Grounding) *image.NRGBA {
	annotate.Annotate(img, gr.Pixel, g.opts.Color, g.opts.StrokeWidth)
	if g.opts.ShowLabel {
		annotate.Label(img, gr.Pixel, gr.Detection.Label, g.opts.Color)
	}
	return img
}

// DetectFile detects the target in the image at in, draws the box and writes the
// result to out
func (g *Grounder) DetectFile(ctx context.Context, in, out string) (*Grounding, error) {
	src, err := g.processor.LoadImageSmart(in)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}

	gr, err := g.DetectImage(ctx, src)
	if err != nil {
		return nil, err
	}

	annotated := g.Annotate(g.processor.ToDrawable(src), gr)
	if err := g.processor.SaveImage(annotated, out); err != nil {
		return gr, fmt.Errorf("failed to save annotated image: %w", err)
	}
	gr.Output = out
	return gr, nil
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
