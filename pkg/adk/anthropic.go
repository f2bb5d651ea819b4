package adk

import (
	"context"
	"net/http"
	"strings"
)

const (
	anthropicBaseURL = "https://api.anthropic.com"
	anthropicVersion = "2023-06-01"
)

type AnthropicProvider struct {
	APIKey    string
	Model     string
	MaxTokens int
	BaseURL   string
	Client    *http.Client
}

func NewAnthropicProvider(apiKey, model string) *AnthropicProvider {
	if model == "" {
		model = "claude-sonnet-4-5"
	}
	return &AnthropicProvider{
		APIKey:    apiKey,
		Model:     model,
		MaxTokens: 4096,
		BaseURL:   anthropicBaseURL,
		Client:    defaultHTTPClient(),
	}
}

func (p *AnthropicProvider) headers() map[string]string {
	return map[string]string{
		"x-api-key":         p.APIKey,
		"anthropic-version": anthropicVersion,
	}
}

func (p *AnthropicProvider) ListModels(ctx context.Context) ([]string, error) {
	var result struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := doJSON(ctx, p.Client, http.MethodGet, p.BaseURL+"/v1/models", p.headers(), nil, &result); err != nil {
		return nil, err
	}
	models := make([]string, 0, len(result.Data))
	for _, m := range result.Data {
		models = append(models, m.ID)
	}
	return models, nil
}

// Analyze sends the contract to the messages API and joins the text blocks
// of the reply.
func (p *AnthropicProvider) Analyze(ctx context.Context, req AuditRequest) (string, error) {
	body := map[string]any{
		"model":      p.Model,
		"max_tokens": p.MaxTokens,
		"system":     GetSystemPrompt(),
		"messages": []map[string]string{
			{"role": "user", "content": UserPrompt(req)},
		},
	}

	var result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := doJSON(ctx, p.Client, http.MethodPost, p.BaseURL+"/v1/messages", p.headers(), body, &result); err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, c := range result.Content {
		if c.Type == "text" {
			sb.WriteString(c.Text)
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}
