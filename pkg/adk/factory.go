package adk

import (
	"context"
	"fmt"
)

// NewAnalyzer builds the analyzer for a configured provider name.
func NewAnalyzer(ctx context.Context, providerName, apiKey, modelName string) (Analyzer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("no API key configured for provider %s", providerName)
	}
	switch providerName {
	case "gemini":
		return NewGeminiProvider(ctx, apiKey, modelName)
	case "openai":
		return NewOpenAIProvider(apiKey, modelName), nil
	case "anthropic":
		return NewAnthropicProvider(apiKey, modelName), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", providerName)
	}
}
