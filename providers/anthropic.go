// Package providers contains clients for the external AI collaborator.
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
	"waypoint/config"
)

const anthropicVersion = "2023-06-01"

// StopReasonMaxTokens indicates the model ran out of output budget and
// the response is truncated.
const StopReasonMaxTokens = "max_tokens"

// StopReasonRefusal indicates the model declined to produce the
// requested content.
const StopReasonRefusal = "refusal"

// AnthropicClient handles communication with the Anthropic messages API
type AnthropicClient struct {
	httpClient *http.Client
	apiURL     string
	apiKey     string
}

// NewAnthropicClient creates a new Anthropic API client
func NewAnthropicClient(cfg *config.Config) *AnthropicClient {
	return &AnthropicClient{
		httpClient: &http.Client{Timeout: 120 * time.Second},
		apiURL:     cfg.AnthropicAPIURL,
		apiKey:     cfg.AnthropicAPIKey,
	}
}

// ChatMessage is a single conversation turn sent to the model
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest describes one completion call
type CompletionRequest struct {
	Model       string
	System      string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
}

// CompletionResult is the model's reply plus enough metadata for
// callers to detect truncation
type CompletionResult struct {
	Text       string
	StopReason string
	Usage      Usage
}

// Usage represents token usage information
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// createMessageRequest is the wire shape of the messages API request
type createMessageRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	System      string        `json:"system,omitempty"`
	Temperature float64       `json:"temperature"`
}

// createMessageResponse is the wire shape of the messages API response
type createMessageResponse struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Role       string         `json:"role"`
	Content    []contentBlock `json:"content"`
	Model      string         `json:"model"`
	StopReason string         `json:"stop_reason"`
	Usage      Usage          `json:"usage"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Complete sends a completion request and returns the concatenated
// text of the response
func (c *AnthropicClient) Complete(ctx context.Context, request CompletionRequest) (*CompletionResult, error) {
	body := createMessageRequest{
		Model:       request.Model,
		Messages:    request.Messages,
		MaxTokens:   request.MaxTokens,
		System:      request.System,
		Temperature: request.Temperature,
	}

	requestBody, err := json.Marshal(body)
	if err != nil {
		return nil, serr.Wrap(err, "failed to marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.apiURL, bytes.NewReader(requestBody))
	if err != nil {
		return nil, serr.Wrap(err, "failed to create request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	logger.Debug("Anthropic API request", "model", request.Model, "max_tokens", request.MaxTokens)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, serr.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, serr.Wrap(err, "failed to read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, serr.New(fmt.Sprintf("API error: %s - %s", resp.Status, string(respBody)))
	}

	var response createMessageResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return nil, serr.Wrap(err, "failed to parse response")
	}

	var text string
	for _, block := range response.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	logger.Debug("Anthropic API response",
		"model", response.Model,
		"stop_reason", response.StopReason,
		"output_tokens", response.Usage.OutputTokens)

	return &CompletionResult{
		Text:       text,
		StopReason: response.StopReason,
		Usage:      response.Usage,
	}, nil
}
