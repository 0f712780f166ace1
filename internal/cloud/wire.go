// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"github.com/jeranaias/settlesmart/internal/prompt"
)

// ChatMessage represents a single message in a chat conversation.
type ChatMessage struct {
	Role    string `json:"role"`    // "system" or "user"
	Content string `json:"content"` // The message content
}

// ResponseFormat is the chat-completions structured output selector.
type ResponseFormat struct {
	Type       string                    `json:"type"`
	JSONSchema *prompt.SchemaDescription `json:"json_schema,omitempty"`
}

// ChatRequest represents a request to the chat completions endpoint.
type ChatRequest struct {
	Model          string          `json:"model"`
	Messages       []ChatMessage   `json:"messages"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
	Temperature    float64         `json:"temperature"`
}

// TextFormat is the responses-endpoint structured output selector. The
// schema fields sit beside the type rather than nested.
type TextFormat struct {
	Type   string         `json:"type"`
	Name   string         `json:"name,omitempty"`
	Strict *bool          `json:"strict,omitempty"`
	Schema map[string]any `json:"schema,omitempty"`
}

// ResponsesRequest represents a request to the responses endpoint.
type ResponsesRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
	Text  struct {
		Format TextFormat `json:"format"`
	} `json:"text"`
	Temperature float64 `json:"temperature"`
}

// wireRequest maps a prompt request onto the configured endpoint's body.
func (c *Client) wireRequest(req prompt.Request) any {
	if c.endpoint == EndpointResponses {
		r := ResponsesRequest{
			Model:       c.model,
			Input:       req.Combined(),
			Temperature: c.temperature,
		}
		r.Text.Format = TextFormat{Type: string(prompt.StrategyJSONObject)}
		if req.Schema != nil {
			strict := req.Schema.Strict
			r.Text.Format = TextFormat{
				Type:   string(prompt.StrategyJSONSchema),
				Name:   req.Schema.Name,
				Strict: &strict,
				Schema: req.Schema.Schema,
			}
		}
		return r
	}

	r := ChatRequest{
		Model: c.model,
		Messages: []ChatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		ResponseFormat: &ResponseFormat{Type: string(prompt.StrategyJSONObject)},
		Temperature:    c.temperature,
	}
	if req.Schema != nil {
		r.ResponseFormat = &ResponseFormat{
			Type:       string(prompt.StrategyJSONSchema),
			JSONSchema: req.Schema,
		}
	}
	return r
}
