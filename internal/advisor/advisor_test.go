package advisor_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"catia_backend/internal/advisor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newClient points a test client at a fake provider
func newClient(url string) *advisor.Client {
	c := advisor.NewClient("super-secret-key")
	c.Endpoint = url
	return c
}

func TestChatSendsTheFixedPayload(t *testing.T) {
	var captured struct {
		Model       string `json:"model"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		Temperature float64 `json:"temperature"`
		TopP        float64 `json:"top_p"`
		MaxTokens   int     `json:"max_tokens"`
		Stream      bool    `json:"stream"`
	}
	var authHeader, contentType string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		authHeader = r.Header.Get("Authorization")
		contentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"miau, vas bien"}}]}`))
	}))
	defer srv.Close()

	text, err := newClient(srv.URL).Chat(context.Background(), "hola CatIA")
	require.NoError(t, err)
	assert.Equal(t, "miau, vas bien", text)

	assert.Equal(t, "Bearer super-secret-key", authHeader)
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, "meta/llama-3.1-70b-instruct", captured.Model)
	require.Len(t, captured.Messages, 1)
	assert.Equal(t, "user", captured.Messages[0].Role)
	assert.Equal(t, "hola CatIA", captured.Messages[0].Content)
	assert.EqualValues(t, 1, captured.Temperature)
	assert.EqualValues(t, 0.7, captured.TopP)
	assert.Equal(t, 2048, captured.MaxTokens)
	assert.False(t, captured.Stream)
}

func TestChatProviderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"internal provider stack trace"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).Chat(context.Background(), "hola")
	require.ErrorIs(t, err, advisor.ErrProvider)
	// Neither provider internals nor the bearer key may surface
	assert.NotContains(t, err.Error(), "stack trace")
	assert.NotContains(t, err.Error(), "super-secret-key")
}

func TestChatMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("definitely not json"))
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).Chat(context.Background(), "hola")
	assert.ErrorIs(t, err, advisor.ErrProvider)
}

func TestChatMissingChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).Chat(context.Background(), "hola")
	assert.ErrorIs(t, err, advisor.ErrProvider)
}

func TestChatTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // Nobody listens anymore

	_, err := newClient(srv.URL).Chat(context.Background(), "hola")
	assert.ErrorIs(t, err, advisor.ErrProvider)
}

func TestChatHonorsCallerContext(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release // Hold the request until the test ends
	}))
	defer func() {
		close(release)
		srv.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := newClient(srv.URL).Chat(ctx, "hola")
	require.ErrorIs(t, err, advisor.ErrProvider)
	assert.Less(t, time.Since(start), 5*time.Second, "a dead client must abort the outbound call")
}

func TestOpinionPromptEmbedsUserData(t *testing.T) {
	data := map[string]any{"billeteras": []map[string]any{{"nombre": "Ahorros", "monto": 1250}}}
	prompt := advisor.OpinionPrompt(data)

	assert.Contains(t, prompt, `"nombre":"Ahorros"`)
	assert.Contains(t, prompt, `"monto":1250`)
	assert.Contains(t, prompt, "CatIA")
	assert.Contains(t, prompt, "menos de 70 palabras")
	assert.Contains(t, prompt, "pesos colombianos")
	assert.Contains(t, prompt, "no debes sugerir continuar la conversacion")
	assert.Contains(t, prompt, "no referirte a ti en tercera persona")
}

func TestAdvicePromptUsesNameAndCity(t *testing.T) {
	prompt := advisor.AdvicePrompt("Laura", "Medellín")

	assert.Contains(t, prompt, "mi nombre es Laura")
	assert.Contains(t, prompt, "vivo en Medellín")
	assert.Contains(t, prompt, "consejo diferente")
	assert.Contains(t, prompt, "menos de 70 palabras")
	// The two prompt modes share the persona but not the financial data
	assert.True(t, strings.Contains(prompt, "CatIA"))
	assert.NotContains(t, prompt, "estos datos")
}
