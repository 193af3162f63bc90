package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/menta2k/image-grounding/pkg/client"
	"github.com/menta2k/image-grounding/pkg/types"
)

// DefaultTimeout bounds a request whose context has no deadline
const DefaultTimeout = 300 * time.Second

// Client wraps the Ollama API client
type Client struct {
	client  *api.Client
	timeout time.Duration
}

// NewClient creates a new Ollama client
func NewClient(ollamaURL string) (*Client, error) {
	parsedURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid URL: %q", ollamaURL)
	}

	// Create base URL from the provided URL (removing path like /api/chat)
	baseURL := &url.URL{
		Scheme: parsedURL.Scheme,
		Host:   parsedURL.Host,
	}

	return &Client{
		client:  api.NewClient(baseURL, http.DefaultClient),
		timeout: DefaultTimeout,
	}, nil
}

// SetTimeout changes the timeout applied when the context has no deadline
func (c *Client) SetTimeout(d time.Duration) {
	c.timeout = d
}

// Stream sends the image and prompt and forwards thinking and content chunks as they arrive
func (c *Client) Stream(ctx context.Context, req client.Request, fn func(types.Fragment) error) error {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	streamTrue := true
	chatReq := &api.ChatRequest{
		Model: req.Model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: req.Prompt,
				Images:  []api.ImageData{api.ImageData(req.Image)},
			},
		},
		Stream: &streamTrue,
		Options: map[string]any{
			"temperature": 0.0,
		},
	}

	err := c.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		if resp.Message.Thinking != "" {
			if err := fn(types.Fragment{Text: resp.Message.Thinking, Thought: true}); err != nil {
				return err
			}
		}
		if resp.Message.Content != "" {
			return fn(types.Fragment{Text: resp.Message.Content})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("ollama chat error: %w", err)
	}
	return nil
}
