package gemini

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/menta2k/image-grounding/pkg/client"
	"github.com/menta2k/image-grounding/pkg/types"
)

const (
	// DefaultModel is the Gemini model used for grounding
	DefaultModel = "gemini-2.5-pro"
	// DefaultThinkingBudget caps the thinking tokens of a request
	DefaultThinkingBudget = 256
	// DefaultTimeout bounds a request whose context has no deadline
	DefaultTimeout = 300 * time.Second
)

// Client streams grounding responses from the Gemini API
type Client struct {
	client         *genai.Client
	thinkingBudget int32
	timeout        time.Duration
}

// NewClient creates a Gemini client. An empty apiKey lets the SDK read
// GEMINI_API_KEY / GOOGLE_API_KEY from the environment.
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Client{
		client:         c,
		thinkingBudget: DefaultThinkingBudget,
		timeout:        DefaultTimeout,
	}, nil
}

// SetTimeout changes the timeout applied when the context has no deadline
func (c *Client) SetTimeout(d time.Duration) {
	c.timeout = d
}

// SetThinkingBudget changes the thinking token budget; 0 disables thinking output
func (c *Client) SetThinkingBudget(budget int32) {
	c.thinkingBudget = budget
}

// Stream sends the image followed by the prompt and forwards every text part
func (c *Client) Stream(ctx context.Context, req client.Request, fn func(types.Fragment) error) error {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	model := req.Model
	if model == "" {
		model = DefaultModel
	}
	mime := req.MIMEType
	if mime == "" {
		mime = "image/png"
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(req.Image, mime),
			genai.NewPartFromText(req.Prompt),
		}, genai.RoleUser),
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0),
	}
	if c.thinkingBudget > 0 {
		config.ThinkingConfig = &genai.ThinkingConfig{
			IncludeThoughts: true,
			ThinkingBudget:  genai.Ptr(c.thinkingBudget),
		}
	}

	for resp, err := range c.client.Models.GenerateContentStream(ctx, model, contents, config) {
		if err != nil {
			return fmt.Errorf("gemini stream error: %w", err)
		}
		for _, f := range fragments(resp) {
			if err := fn(f); err != nil {
				return err
			}
		}
	}
	return nil
}

// fragments extracts the text parts of the first candidate of a streamed chunk
func fragments(resp *genai.GenerateContentResponse) []types.Fragment {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	content := resp.Candidates[0].Content
	if content == nil {
		return nil
	}

	out := make([]types.Fragment, 0, len(content.Parts))
	for _, part := range content.Parts {
		if part == nil || part.Text == "" {
			continue
		}
		out = append(out, types.Fragment{Text: part.Text, Thought: part.Thought})
	}
	return out
}
