package detection

import (
	"context"
	"fmt"
	"image"
	"io"

	"github.com/menta2k/image-grounding/pkg/client"
	"github.com/menta2k/image-grounding/pkg/types"
)

// DefaultTarget is the object the default prompt asks the model to locate
const DefaultTarget = "Chrome"

// PromptTemplate asks for a single box in the 0-1000 box_2d convention
const PromptTemplate = "Detect the %s in the image. The box_2d should be [ymin, xmin, ymax, xmax] normalized to 0-1000."

// DefaultPrompt is the prompt for DefaultTarget
var DefaultPrompt = PromptFor(DefaultTarget)

// PromptFor returns the grounding prompt for target
func PromptFor(target string) string {
	return fmt.Sprintf(PromptTemplate, target)
}

// ImageEncoder turns an image into bytes suitable for a vision model
type ImageEncoder interface {
	EncodeForModel(img image.Image) ([]byte, string, error)
}

// Result is a parsed detection together with the raw model output
type Result struct {
	Detection types.Detection `json:"detection"`
	Raw       string          `json:"raw"`
}

// Detector locates an object in an image using a vision model
type Detector struct {
	client  client.VisionClient
	encoder ImageEncoder
	model   string
	prompt  string
	echo    io.Writer
}

// NewDetector creates a new detector with a vision client
func NewDetector(client client.VisionClient, encoder ImageEncoder, model string) *Detector {
	return &Detector{client: client, encoder: encoder, model: model, prompt: DefaultPrompt}
}

// SetPrompt replaces the prompt used by Detect
func (d *Detector) SetPrompt(prompt string) {
	d.prompt = prompt
}

// SetEcho makes the detector copy streamed fragments to w as they arrive
func (d *Detector) SetEcho(w io.Writer) {
	d.echo = w
}

// Detect locates the configured target in img
func (d *Detector) Detect(ctx context.Context, img image.Image) (*Result, error) {
	return d.DetectWithPrompt(ctx, img, d.prompt)
}

// DetectWithPrompt streams the model response for prompt and parses the first box.
// The stream is read to completion before parsing.
func (d *Detector) DetectWithPrompt(ctx context.Context, img image.Image, prompt string) (*Result, error) {
	data, mime, err := d.encoder.EncodeForModel(img)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	raw, err := client.Collect(ctx, d.client, client.Request{
		Model:    d.model,
		Prompt:   prompt,
		Image:    data,
		MIMEType: mime,
	}, d.echo)
	if err != nil {
		return nil, fmt.Errorf("detection request failed: %w", err)
	}

	det, err := Parse(raw)
	if err != nil {
		return &Result{Raw: raw}, err
	}
	return &Result{Detection: det, Raw: raw}, nil
}
