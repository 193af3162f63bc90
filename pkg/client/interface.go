package client

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/menta2k/image-grounding/pkg/types"
)

// Request is a single image + prompt query to a vision model
type Request struct {
	Model    string
	Prompt   string
	Image    []byte
	MIMEType string
}

// VisionClient streams a model response as text fragments in arrival order.
// fn is called once per fragment; a non-nil error from fn stops the stream.
type VisionClient interface {
	Stream(ctx context.Context, req Request, fn func(types.Fragment) error) error
}

// Collect runs req and concatenates every fragment, thoughts included, in arrival
// order. Each fragment is also written to echo when echo is not nil.
func Collect(ctx context.Context, c VisionClient, req Request, echo io.Writer) (string, error) {
	var sb strings.Builder
	err := c.Stream(ctx, req, func(f types.Fragment) error {
		sb.WriteString(f.Text)
		if echo != nil {
			if _, err := io.WriteString(echo, f.Text); err != nil {
				return fmt.Errorf("failed to echo fragment: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}
