package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// DefaultModelName is the model used for coaching answers and reports.
const DefaultModelName = "gemini-1.5-flash"

// Client wraps the GenAI SDK behind the assistant's Generator interface.
// One client is created at process start and shared.
type Client struct {
	client *genai.Client
	model  string
}

// NewClient creates a GenAI client. model may be empty to use the default.
func NewClient(ctx context.Context, model string) (*Client, error) {
	if model == "" {
		model = DefaultModelName
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewClient: create genai client: %w", err)
	}

	return &Client{client: client, model: model}, nil
}

// GenerateText sends the prompt to the model and returns its text response.
// The call is cancelled when ctx is.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt},
			},
		},
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("GenerateText: generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("GenerateText: empty response from model")
	}

	return text, nil
}
