// Package gemini implements the text, grounded and vision generators on top
// of the Google genai SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gemini-2.5-flash"

// ErrNoAPIKey is returned by New when the key is missing or a placeholder.
var ErrNoAPIKey = errors.New("gemini: missing API key")

// Client talks to Gemini. It implements ai.TextGenerator and
// ai.VisionGenerator; grounded calls attach the Google Search tool.
type Client struct {
	client *genai.Client
	model  string
	log    *zap.SugaredLogger
}

// New creates a Gemini client. The placeholder key shipped in example config
// files is rejected the same as an empty one.
func New(ctx context.Context, apiKey, model string, log *zap.SugaredLogger) (*Client, error) {
	if apiKey == "" || apiKey == "your_gemini_api_key_here" {
		return nil, ErrNoAPIKey
	}
	if model == "" {
		model = DefaultModel
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	log.Infow("gemini client initialized", "model", model)
	return &Client{client: client, model: model, log: log}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

// Generate runs a plain text completion.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return extractText(resp)
}

// GenerateGrounded runs a completion with the Google Search tool attached so
// the model can pull in current information.
func (c *Client) GenerateGrounded(ctx context.Context, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{
			{GoogleSearch: &genai.GoogleSearch{}},
		},
	}
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini grounded generate: %w", err)
	}
	text, err := extractText(resp)
	if err == nil {
		c.log.Debugw("grounded response generated", "model", c.model)
	}
	return text, err
}

// GenerateVision runs a completion over a prompt plus image bytes.
func (c *Client) GenerateVision(ctx context.Context, prompt string, data []byte, mimeType string) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
		genai.NewPartFromBytes(data, mimeType),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini vision: %w", err)
	}
	return extractText(resp)
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}
	var b strings.Builder
	candidate := resp.Candidates[0]
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				b.WriteString(part.Text)
			}
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return text, nil
}
