package adk

import (
	"context"
	"net/http"
	"strings"
)

const openAIBaseURL = "https://api.openai.com"

type OpenAIProvider struct {
	APIKey  string
	Model   string
	BaseURL string
	Client  *http.Client
}

func NewOpenAIProvider(apiKey, model string) *OpenAIProvider {
	if model == "" {
		model = "gpt-4o"
	}
	return &OpenAIProvider{APIKey: apiKey, Model: model, BaseURL: openAIBaseURL, Client: defaultHTTPClient()}
}

func (p *OpenAIProvider) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + p.APIKey}
}

func (p *OpenAIProvider) ListModels(ctx context.Context) ([]string, error) {
	var result struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := doJSON(ctx, p.Client, http.MethodGet, p.BaseURL+"/v1/models", p.headers(), nil, &result); err != nil {
		return nil, err
	}

	var models []string
	for _, m := range result.Data {
		// chat-capable families only
		if strings.HasPrefix(m.ID, "gpt-") || strings.HasPrefix(m.ID, "o") {
			models = append(models, m.ID)
		}
	}
	return models, nil
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Analyze asks the chat completions API for a JSON report.
func (p *OpenAIProvider) Analyze(ctx context.Context, req AuditRequest) (string, error) {
	body := map[string]any{
		"model":       p.Model,
		"temperature": 0,
		"messages": []openAIMessage{
			{Role: "system", Content: GetSystemPrompt()},
			{Role: "user", Content: UserPrompt(req)},
		},
		"response_format": map[string]string{"type": "json_object"},
	}

	var result struct {
		Choices []struct {
			Message openAIMessage `json:"message"`
		} `json:"choices"`
	}
	if err := doJSON(ctx, p.Client, http.MethodPost, p.BaseURL+"/v1/chat/completions", p.headers(), body, &result); err != nil {
		return "", err
	}
	if len(result.Choices) == 0 || strings.TrimSpace(result.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}
	return result.Choices[0].Message.Content, nil
}
