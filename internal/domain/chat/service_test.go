package chat

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coder4-c/survivor-support/internal/config"
)

type stubProvider struct {
	name        string
	reply       string
	err         error
	seenHistory []Message
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Complete(ctx context.Context, history []Message, prompt string) (string, error) {
	p.seenHistory = history
	if p.err != nil {
		return "", p.err
	}
	return p.reply, nil
}

func TestReplyUsesFirstHealthyProvider(t *testing.T) {
	primary := &stubProvider{name: "primary", reply: "from primary"}
	secondary := &stubProvider{name: "secondary", reply: "from secondary"}
	svc := NewServiceWithProviders([]Provider{primary, secondary}, 5, zerolog.Nop())

	reply, err := svc.Reply(context.Background(), nil, "hello there")
	require.NoError(t, err)
	assert.Equal(t, "from primary", reply.Message)
	assert.Equal(t, "primary", reply.Provider)
}

func TestReplyFallsBackThroughChain(t *testing.T) {
	primary := &stubProvider{name: "primary", err: errors.New("down")}
	secondary := &stubProvider{name: "secondary", reply: "backup answer"}
	svc := NewServiceWithProviders([]Provider{primary, secondary}, 5, zerolog.Nop())

	reply, err := svc.Reply(context.Background(), nil, "are you there")
	require.NoError(t, err)
	assert.Equal(t, "backup answer", reply.Message)
	assert.Equal(t, "secondary", reply.Provider)
}

func TestReplyCannedWhenAllProvidersFail(t *testing.T) {
	broken := &stubProvider{name: "broken", err: errors.New("down")}
	svc := NewServiceWithProviders([]Provider{broken}, 5, zerolog.Nop())

	reply, err := svc.Reply(context.Background(), nil, "hello")
	require.NoError(t, err)
	assert.Equal(t, "canned", reply.Provider)
	assert.Contains(t, reply.Message, "here to listen")
}

func TestReplyCannedKeywords(t *testing.T) {
	svc := NewServiceWithProviders(nil, 5, zerolog.Nop())

	cases := map[string]string{
		"I need help finding resources": "support form",
		"how do I upload evidence":      "private access link",
		"thank you so much":             "You're welcome",
		"something unrelated entirely":  "you don't have to face it alone",
	}
	for prompt, want := range cases {
		reply, err := svc.Reply(context.Background(), nil, prompt)
		require.NoError(t, err)
		assert.Contains(t, reply.Message, want, "prompt %q", prompt)
	}
}

func TestReplyTrimsHistoryToWindow(t *testing.T) {
	provider := &stubProvider{name: "p", reply: "ok"}
	svc := NewServiceWithProviders([]Provider{provider}, 3, zerolog.Nop())

	history := []Message{
		{Role: RoleUser, Content: "1"},
		{Role: RoleAssistant, Content: "2"},
		{Role: RoleUser, Content: "3"},
		{Role: RoleAssistant, Content: "4"},
		{Role: RoleUser, Content: "5"},
	}
	_, err := svc.Reply(context.Background(), history, "6")
	require.NoError(t, err)
	require.Len(t, provider.seenHistory, 3)
	assert.Equal(t, "3", provider.seenHistory[0].Content)
}

func TestReplyRejectsEmptyPrompt(t *testing.T) {
	svc := NewServiceWithProviders(nil, 5, zerolog.Nop())
	_, err := svc.Reply(context.Background(), nil, "   ")
	require.Error(t, err)
}

func TestPiProviderParsesCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"hello from pi"}}]}`))
	}))
	defer server.Close()

	provider := NewPiProvider(&config.Config{
		PiAPIURL:  server.URL,
		PiAPIKey:  "test-key",
		PiModel:   "Pi-3.1",
		PiTimeout: 2 * time.Second,
	})
	require.True(t, provider.Configured())

	text, err := provider.Complete(context.Background(), nil, "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello from pi", text)
}

func TestGeminiProviderParsesCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"hello from gemini"}]}}]}`))
	}))
	defer server.Close()

	provider := NewGeminiProvider(&config.Config{
		GeminiAPIURL:  server.URL,
		GeminiAPIKey:  "test-key",
		GeminiTimeout: 2 * time.Second,
	})
	require.True(t, provider.Configured())

	text, err := provider.Complete(context.Background(), nil, "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello from gemini", text)
}

func TestProviderErrorStatusSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	provider := NewPiProvider(&config.Config{
		PiAPIURL:  server.URL,
		PiAPIKey:  "k",
		PiTimeout: 2 * time.Second,
	})
	_, err := provider.Complete(context.Background(), nil, "hi")
	require.Error(t, err)
}
