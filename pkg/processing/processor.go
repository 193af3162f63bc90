package processing

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Options controls how images are written and how they are prepared for a vision model
type Options struct {
	Quality  int  // JPEG/WebP quality (1-100)
	Lossless bool // WebP lossless mode

	SendFormat  string // format sent to the model: jpg|png
	SendSize    int    // max long side sent to the model, 0=original
	SendQuality int    // JPEG quality for the image sent to the model
}

// DefaultOptions returns the options used by NewProcessor
func DefaultOptions() Options {
	return Options{
		Quality:     90,
		SendFormat:  "png",
		SendQuality: 85,
	}
}

// Processor handles image loading, saving and encoding
type Processor struct {
	opts Options
}

// NewProcessor creates a new image processor
func NewProcessor() *Processor {
	return &Processor{opts: DefaultOptions()}
}

// NewProcessorWithOptions creates a processor with custom options
func NewProcessorWithOptions(opts Options) *Processor {
	return &Processor{opts: opts}
}

// LoadImageFromURL downloads and loads an image from a URL
func (p *Processor) LoadImageFromURL(imageURL string) (image.Image, error) {
	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme: %s (only http and https are supported)", parsedURL.Scheme)
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	req, err := http.NewRequest("GET", imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Image-Grounding/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: HTTP %d %s", resp.StatusCode, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("URL does not point to an image (Content-Type: %s)", contentType)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return p.decodeImageFromBytes(imageData)
}

// LoadImage loads an image from a file path with WebP support
func (p *Processor) LoadImage(path string) (image.Image, error) {
	img, openErr := imaging.Open(path)
	if openErr == nil {
		return img, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	// Fallback: explicit WebP decode
	if strings.EqualFold(filepath.Ext(path), ".webp") {
		if img, err := webp.Decode(f); err == nil {
			return img, nil
		}
	}
	return nil, fmt.Errorf("failed to decode image %s: %w", path, openErr)
}

// LoadImageSmart loads an image from either a file path or URL
func (p *Processor) LoadImageSmart(source string) (image.Image, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return p.LoadImageFromURL(source)
	}
	return p.LoadImage(source)
}

func (p *Processor) decodeImageFromBytes(data []byte) (image.Image, error) {
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	return nil, fmt.Errorf("image: unknown or unsupported format")
}

// EncodeForModel encodes an image for upload to a vision model and returns the
// encoded bytes together with their MIME type.
func (p *Processor) EncodeForModel(img image.Image) ([]byte, string, error) {
	if maxDim := p.opts.SendSize; maxDim > 0 {
		b := img.Bounds()
		w, h := b.Dx(), b.Dy()
		if w > maxDim || h > maxDim {
			if w >= h {
				img = imaging.Resize(img, maxDim, 0, imaging.Lanczos)
			} else {
				img = imaging.Resize(img, 0, maxDim, imaging.Lanczos)
			}
		}
	}

	var buf bytes.Buffer
	switch strings.ToLower(p.opts.SendFormat) {
	case "jpg", "jpeg":
		quality := p.opts.SendQuality
		if quality <= 0 {
			quality = 85
		}
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/jpeg", nil
	default: // png
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/png", nil
	}
}

// SaveImage saves an image using the format implied by the file extension
func (p *Processor) SaveImage(img image.Image, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".webp":
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		opts := &webp.Options{Lossless: p.opts.Lossless, Quality: float32(p.opts.Quality)}
		if err := webp.Encode(f, img, opts); err != nil {
			f.Close()
			return fmt.Errorf("failed to encode webp: %w", err)
		}
		return f.Close()
	case ".jpg", ".jpeg":
		if err := imaging.Save(img, path, imaging.JPEGQuality(p.opts.Quality)); err != nil {
			return fmt.Errorf("failed to save %s: %w", path, err)
		}
		return nil
	default:
		if err := imaging.Save(img, path); err != nil {
			return fmt.Errorf("failed to save %s: %w", path, err)
		}
		return nil
	}
}

// ToDrawable returns a mutable copy of img that the caller owns
func (p *Processor) ToDrawable(img image.Image) *image.NRGBA {
	return imaging.Clone(img)
}

// ValidateImage checks that an image has a usable size
func (p *Processor) ValidateImage(img image.Image) error {
	b := img.Bounds()
	if b.Dx() < 1 || b.Dy() < 1 {
		return fmt.Errorf("invalid image dimensions: %dx%d", b.Dx(), b.Dy())
	}
	return nil
}
