// Package claude implements llm.Generator on the Anthropic Messages API.
package claude

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	// responseTokens bounds a single triage note.
	responseTokens = 512

	systemPrompt = "You rewrite operating-system log events as short on-call " +
		"runbook notes: what happened, severity, and recommended actions. " +
		"Be concise and operational."
)

// Client is an llm.Generator backed by the Anthropic API.
type Client struct {
	client anthropic.Client
	model  string
}

// New creates a client for the given API key and model name.
func New(apiKey, model string) *Client {
	return &Client{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Load verifies the credentials and model with a minimal one-token request.
// The heavy initialization lives on Anthropic's side; what can fail here is
// auth, the model name, or reachability, and we want that surfaced at load
// time rather than on the first triage.
func (c *Client) Load(ctx context.Context) error {
	_, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 1,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("ping")),
		},
	})
	if err != nil {
		return fmt.Errorf("probe model %s: %w", c.model, err)
	}
	return nil
}

// Generate produces a triage note for the given prompt.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: responseTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return textContent(msg), nil
}

// Location identifies the backing resource for health reporting.
func (c *Client) Location() string {
	return "anthropic:" + c.model
}

// textContent concatenates the text blocks of a response.
func textContent(msg *anthropic.Message) string {
	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}
