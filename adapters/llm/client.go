package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"datachat/ports"
)

// OpenAIClient implements ports.LLMClient against an OpenAI-compatible
// chat completions endpoint
type OpenAIClient struct {
	APIKey      string
	BaseURL     string
	Timeout     time.Duration
	Temperature float64
}

// NewOpenAIClient creates a client for the given endpoint
func NewOpenAIClient(apiKey, baseURL string, timeout time.Duration, temperature float64) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing API key")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAIClient{
		APIKey:      apiKey,
		BaseURL:     baseURL,
		Timeout:     timeout,
		Temperature: temperature,
	}, nil
}

var _ ports.LLMClient = (*OpenAIClient)(nil)

func (c *OpenAIClient) ChatCompletion(ctx context.Context, model string, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	if strings.TrimSpace(model) == "" {
		return "", fmt.Errorf("missing model")
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	type msg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	type respFormat struct {
		Type string `json:"type"`
	}
	type reqBody struct {
		Model          string     `json:"model"`
		Messages       []msg      `json:"messages"`
		Temperature    float64    `json:"temperature"`
		MaxTokens      int        `json:"max_tokens,omitempty"`
		ResponseFormat respFormat `json:"response_format"`
	}
	body := reqBody{
		Model: model,
		Messages: []msg{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature:    c.Temperature,
		MaxTokens:      maxTokens,
		ResponseFormat: respFormat{Type: "json_object"},
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	client := &http.Client{Timeout: c.Timeout}
	url := strings.TrimRight(c.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("llm request failed: %w", err)
	}
	defer resp.Body.Close()

	respRaw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("llm http %d: %s", resp.StatusCode, string(respRaw))
	}

	type choice struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	type respBody struct {
		Choices []choice `json:"choices"`
	}
	var decoded respBody
	if err := json.Unmarshal(respRaw, &decoded); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("llm response missing choices")
	}
	return decoded.Choices[0].Message.Content, nil
}

// MockLLMClient is a canned LLM client for testing
type MockLLMClient struct {
	Response string
	Error    error

	// Calls records the user prompts seen, in order
	Calls []string
}

var _ ports.LLMClient = (*MockLLMClient)(nil)

func (m *MockLLMClient) ChatCompletion(ctx context.Context, model string, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	m.Calls = append(m.Calls, userPrompt)
	if m.Error != nil {
		return "", m.Error
	}
	if m.Response != "" {
		return m.Response, nil
	}
	return `{"answer": "The total amount is 300.", "chart": null}`, nil
}
