package chat

import (
	"context"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/coder4-c/survivor-support/internal/config"
	"github.com/coder4-c/survivor-support/internal/infrastructure/metrics"
	"github.com/coder4-c/survivor-support/internal/utils/platformerrors"
)

const maxPromptLen = 2000

// Service proxies chat completions through a chain of providers. Each
// provider is tried in order and the canned responder always answers, so a
// caller never sees a provider outage.
type Service struct {
	providers     []Provider
	historyWindow int
	log           zerolog.Logger
}

func NewService(cfg *config.Config, log zerolog.Logger) *Service {
	s := &Service{
		historyWindow: cfg.ChatHistoryWindow,
		log:           log.With().Str("component", "chat-service").Logger(),
	}
	if pi := NewPiProvider(cfg); pi.Configured() {
		s.providers = append(s.providers, pi)
	}
	if gemini := NewGeminiProvider(cfg); gemini.Configured() {
		s.providers = append(s.providers, gemini)
	}
	return s
}

// NewServiceWithProviders wires an explicit provider chain.
func NewServiceWithProviders(providers []Provider, historyWindow int, log zerolog.Logger) *Service {
	return &Service{
		providers:     providers,
		historyWindow: historyWindow,
		log:           log.With().Str("component", "chat-service").Logger(),
	}
}

// Reply produces a response for prompt given the recent conversation
// history. Only the most recent turns inside the history window are passed
// to providers.
func (s *Service) Reply(ctx context.Context, history []Message, prompt string) (*Reply, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation, "message is required", nil,
			"a5b6c7d8-e9f0-4a1b-2c3d-4e5f6a7b8c50")
	}
	if len(prompt) > maxPromptLen {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation, "message too long", nil,
			"b6c7d8e9-f0a1-4b2c-3d4e-5f6a7b8c9d51")
	}

	if s.historyWindow > 0 && len(history) > s.historyWindow {
		history = history[len(history)-s.historyWindow:]
	}

	for _, provider := range s.providers {
		text, err := provider.Complete(ctx, history, prompt)
		if err != nil {
			metrics.RecordChat(provider.Name(), "error")
			s.log.Warn().Err(err).Str("provider", provider.Name()).Msg("chat provider failed")
			continue
		}
		metrics.RecordChat(provider.Name(), "success")
		return &Reply{Message: text, Provider: provider.Name()}, nil
	}

	metrics.RecordChat("canned", "success")
	return &Reply{Message: cannedResponse(prompt), Provider: "canned"}, nil
}

// cannedResponse picks a supportive reply by keyword when no provider is
// reachable.
func cannedResponse(prompt string) string {
	lower := strings.ToLower(prompt)
	switch {
	case containsWord(lower, "hello", "hi", "hey"):
		return "Hello. I'm here to listen and support you. How can I help you today?"
	case containsAny(lower, "help", "resource", "support"):
		return "You can reach out through our support form and a member of our team will follow up. If you are in immediate danger, please contact your local emergency services."
	case containsAny(lower, "evidence", "upload", "document"):
		return "You can upload documents and images through the evidence page. Each file gets a private access link that only you hold."
	case containsAny(lower, "thank"):
		return "You're welcome. Take care of yourself, and reach out any time."
	default:
		return "I hear you. What you're going through matters, and you don't have to face it alone. Would you like to tell me more, or can I point you to our support resources?"
	}
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// containsWord matches whole words only; "hi" must not match inside
// "something".
func containsWord(s string, words ...string) bool {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, field := range fields {
		for _, w := range words {
			if field == w {
				return true
			}
		}
	}
	return false
}
