package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/coder4-c/survivor-support/internal/config"
)

// Provider is one chat completion backend.
type Provider interface {
	Name() string
	Complete(ctx context.Context, history []Message, prompt string) (string, error)
}

// PiProvider talks to the Pi conversational API.
type PiProvider struct {
	url    string
	apiKey string
	model  string
	client *http.Client
}

func NewPiProvider(cfg *config.Config) *PiProvider {
	return &PiProvider{
		url:    cfg.PiAPIURL,
		apiKey: cfg.PiAPIKey,
		model:  cfg.PiModel,
		client: &http.Client{Timeout: cfg.PiTimeout},
	}
}

func (p *PiProvider) Name() string { return "pi" }

// Configured reports whether the provider has enough configuration to call.
func (p *PiProvider) Configured() bool { return p.url != "" && p.apiKey != "" }

func (p *PiProvider) Complete(ctx context.Context, history []Message, prompt string) (string, error) {
	type apiMessage struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	payload := struct {
		Model    string       `json:"model"`
		Messages []apiMessage `json:"messages"`
	}{Model: p.model}
	for _, m := range history {
		payload.Messages = append(payload.Messages, apiMessage{Role: string(m.Role), Content: m.Content})
	}
	payload.Messages = append(payload.Messages, apiMessage{Role: string(RoleUser), Content: prompt})

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call pi api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("pi api returned status %d", resp.StatusCode)
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("pi api returned no completion")
	}
	return out.Choices[0].Message.Content, nil
}

// GeminiProvider talks to the Gemini generateContent API.
type GeminiProvider struct {
	url    string
	apiKey string
	client *http.Client
}

func NewGeminiProvider(cfg *config.Config) *GeminiProvider {
	return &GeminiProvider{
		url:    cfg.GeminiAPIURL,
		apiKey: cfg.GeminiAPIKey,
		client: &http.Client{Timeout: cfg.GeminiTimeout},
	}
}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) Configured() bool { return p.url != "" && p.apiKey != "" }

func (p *GeminiProvider) Complete(ctx context.Context, history []Message, prompt string) (string, error) {
	type part struct {
		Text string `json:"text"`
	}
	type content struct {
		Role  string `json:"role"`
		Parts []part `json:"parts"`
	}
	payload := struct {
		Contents []content `json:"contents"`
	}{}
	for _, m := range history {
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		payload.Contents = append(payload.Contents, content{Role: role, Parts: []part{{Text: m.Content}}})
	}
	payload.Contents = append(payload.Contents, content{Role: "user", Parts: []part{{Text: prompt}}})

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call gemini api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini api returned status %d", resp.StatusCode)
	}

	var out struct {
		Candidates []struct {
			Content struct {
				Parts []part `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini api returned no candidates")
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}
