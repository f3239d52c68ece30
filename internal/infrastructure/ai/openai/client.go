// Package openai implements the language-model port against any
// chat-completions compatible endpoint: the OpenAI API when a key is
// configured, a local Ollama otherwise.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mealmind/v1/internal/ports/outbound"
)

// Config selects the endpoint and model.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Client implements outbound.LanguageModel over the chat-completions API.
type Client struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// NewClient creates a language-model client. With no API key configured it
// falls back to a local Ollama so the assistant stays usable in development.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("MEALMIND_AI_OPENAI_KEY")
	}

	if cfg.APIKey == "" {
		logger.Info("OpenAI API key not found, using local Ollama for language-model features")
		cfg.BaseURL = "http://localhost:11434/v1"
		cfg.APIKey = "ollama" // dummy key, Ollama ignores it
		if cfg.Model == "" {
			cfg.Model = "llama3.2:3b"
		}
	} else {
		if cfg.BaseURL == "" {
			cfg.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Model == "" {
			cfg.Model = "gpt-4o-mini"
		}
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.2
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1500
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.Named("openai"),
	}
}

// Wire structures for the chat-completions API.

type apiMessage struct {
	Role       string        `json:"role"`
	Content    string        `json:"content"`
	ToolCalls  []apiToolCall `json:"tool_calls,omitempty"`
	ToolCallID string        `json:"tool_call_id,omitempty"`
	Name       string        `json:"name,omitempty"`
}

type apiToolCall struct {
	ID       string      `json:"id"`
	Type     string      `json:"type"`
	Function apiFunction `json:"function"`
}

type apiFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type apiTool struct {
	Type     string        `json:"type"`
	Function apiToolSchema `json:"function"`
}

type apiToolSchema struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []apiMessage    `json:"messages"`
	Tools          []apiTool       `json:"tools,omitempty"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message      apiMessage `json:"message"`
		FinishReason string     `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Chat runs one turn of the tool-calling conversation.
func (c *Client) Chat(ctx context.Context, messages []outbound.ChatMessage, tools []outbound.ToolDefinition) (*outbound.ChatResponse, error) {
	req := chatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    toAPIMessages(messages),
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}
	for _, t := range tools {
		req.Tools = append(req.Tools, apiTool{
			Type: "function",
			Function: apiToolSchema{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}

	resp, err := c.call(ctx, req)
	if err != nil {
		return nil, err
	}

	msg := resp.Choices[0].Message
	out := &outbound.ChatResponse{Content: msg.Content}
	for _, tc := range msg.ToolCalls {
		args := tc.Function.Arguments
		if strings.TrimSpace(args) == "" {
			args = "{}"
		}
		out.ToolCalls = append(out.ToolCalls, outbound.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(args),
		})
	}
	return out, nil
}

// CompleteJSON asks for a strict-JSON reply and unmarshals it into out.
func (c *Client) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string, out any) error {
	req := chatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []apiMessage{
			{Role: outbound.RoleSystem, Content: systemPrompt},
			{Role: outbound.RoleUser, Content: userPrompt},
		},
		Temperature:    c.cfg.Temperature,
		MaxTokens:      c.cfg.MaxTokens,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	resp, err := c.call(ctx, req)
	if err != nil {
		return err
	}

	payload, err := extractJSON(resp.Choices[0].Message.Content)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return nil
}

// CompleteText returns a plain-text completion.
func (c *Client) CompleteText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	req := chatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []apiMessage{
			{Role: outbound.RoleSystem, Content: systemPrompt},
			{Role: outbound.RoleUser, Content: userPrompt},
		},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}

	resp, err := c.call(ctx, req)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *Client) call(ctx context.Context, reqBody chatCompletionRequest) (*chatCompletionResponse, error) {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/chat/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	var chatResp chatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("no response choices returned")
	}

	c.logger.Debug("chat completion succeeded",
		zap.String("model", c.cfg.Model),
		zap.Int("prompt_tokens", chatResp.Usage.PromptTokens),
		zap.Int("completion_tokens", chatResp.Usage.CompletionTokens),
	)
	return &chatResp, nil
}

func toAPIMessages(messages []outbound.ChatMessage) []apiMessage {
	out := make([]apiMessage, len(messages))
	for i, m := range messages {
		am := apiMessage{
			Role:       m.Role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
			Name:       m.Name,
		}
		for _, tc := range m.ToolCalls {
			am.ToolCalls = append(am.ToolCalls, apiToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: apiFunction{
					Name:      tc.Name,
					Arguments: string(tc.Arguments),
				},
			})
		}
		out[i] = am
	}
	return out
}

// extractJSON pulls the JSON object out of a completion. Smaller models
// sometimes wrap the payload in prose or markdown fences.
func extractJSON(response string) (string, error) {
	response = strings.TrimSpace(response)
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no valid JSON found in response")
	}
	return response[start : end+1], nil
}
