package ports

import "context"

// LLMClient interface for chat-completion LLM providers
type LLMClient interface {
	ChatCompletion(ctx context.Context, model string, systemPrompt, userPrompt string, maxTokens int) (string, error)
}
