package llamacpp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/menta2k/image-grounding/pkg/client"
	"github.com/menta2k/image-grounding/pkg/types"
)

// DefaultTimeout bounds a request whose context has no deadline
const DefaultTimeout = 300 * time.Second

type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// OpenAI-compatible message format
type Message struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"` // Can be string or []ContentPart
}

type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

// OpenAI-compatible chat completion request
type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream"`
}

// ChatCompletionChunk is one server-sent event of a streamed completion
type ChatCompletionChunk struct {
	ID      string        `json:"id"`
	Object  string        `json:"object"`
	Created int64         `json:"created"`
	Model   string        `json:"model"`
	Choices []ChunkChoice `json:"choices"`
}

type ChunkChoice struct {
	Index        int    `json:"index"`
	Delta        Delta  `json:"delta"`
	FinishReason string `json:"finish_reason,omitempty"`
}

type Delta struct {
	Role             string `json:"role,omitempty"`
	Content          string `json:"content,omitempty"`
	ReasoningContent string `json:"reasoning_content,omitempty"`
}

func NewClient(serverURL string) (*Client, error) {
	if serverURL == "" {
		serverURL = "http://localhost:8080"
	}

	return &Client{
		baseURL:    strings.TrimSuffix(serverURL, "/"),
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
	}, nil
}

// SetTimeout changes the timeout applied when the context has no deadline
func (c *Client) SetTimeout(d time.Duration) {
	c.timeout = d
}

// Stream posts a streaming chat completion and forwards reasoning and content deltas
func (c *Client) Stream(ctx context.Context, req client.Request, fn func(types.Fragment) error) error {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	content := []ContentPart{
		{
			Type: "text",
			Text: req.Prompt,
		},
	}

	if len(req.Image) > 0 {
		mime := req.MIMEType
		if mime == "" {
			mime = "image/png"
		}
		content = append(content, ContentPart{
			Type: "image_url",
			ImageURL: &ImageURL{
				URL: "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(req.Image),
			},
		})
	}

	payload := ChatCompletionRequest{
		Model: req.Model,
		Messages: []Message{
			{
				Role:    "user",
				Content: content,
			},
		},
		Temperature: 0,
		MaxTokens:   4096,
		Stream:      true,
	}

	body, err := c.sendRequest(ctx, "/v1/chat/completions", payload)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer body.Close()

	return readEvents(body, fn)
}

// readEvents decodes "data: {...}" lines until "data: [DONE]" or end of stream
func readEvents(r io.Reader, fn func(types.Fragment) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			return nil
		}

		var chunk ChatCompletionChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return fmt.Errorf("failed to parse stream chunk: %w", err)
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		delta := chunk.Choices[0].Delta
		if delta.ReasoningContent != "" {
			if err := fn(types.Fragment{Text: delta.ReasoningContent, Thought: true}); err != nil {
				return err
			}
		}
		if delta.Content != "" {
			if err := fn(types.Fragment{Text: delta.Content}); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read stream: %w", err)
	}
	return nil
}

func (c *Client) sendRequest(ctx context.Context, endpoint string, payload interface{}) (io.ReadCloser, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	return resp.Body, nil
}
