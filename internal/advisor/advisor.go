package advisor

import (
	"bytes"         // Request body buffer
	"context"       // Cancellation and deadlines for the outbound call
	"encoding/json" // JSON encoding/decoding
	"errors"        // Sentinel errors
	"net/http"      // HTTP client
	"time"          // Request timeout

	"github.com/sirupsen/logrus" // Logging library
)

// Fixed provider parameters. The endpoint is a field on Client only so
// tests can point it at a local server.
const (
	defaultEndpoint = "https://integrate.api.nvidia.com/v1/chat/completions" // NVIDIA chat-completion endpoint
	defaultModel    = "meta/llama-3.1-70b-instruct"                          // Model identifier
	defaultTimeout  = 30 * time.Second                                       // Hard cap on one provider call
)

// ErrProvider is the uniform error for any provider failure: network error,
// non-2xx status, malformed body or missing fields. Provider internals and
// the bearer key never travel past this boundary.
var ErrProvider = errors.New("provider request failed")

// Client calls the chat-completion provider. Stateless: every call is an
// independent request, no retries, no caching.
type Client struct {
	Endpoint   string       // Provider URL, overridable in tests
	Model      string       // Model identifier sent on every call
	HTTPClient *http.Client // Transport with the request timeout applied
	apiKey     string       // Bearer key, kept out of logs and errors
}

// NewClient builds a provider client around a server-held API key
func NewClient(apiKey string) *Client {
	return &Client{
		Endpoint:   defaultEndpoint,                       // Fixed production endpoint
		Model:      defaultModel,                          // Fixed model
		HTTPClient: &http.Client{Timeout: defaultTimeout}, // Bounded outbound call
		apiKey:     apiKey,                                // Server-side secret
	}
}

// chatRequest is the provider payload
type chatRequest struct {
	Model       string        `json:"model"`       // Model identifier
	Messages    []chatMessage `json:"messages"`    // Single user-role message
	Temperature float64       `json:"temperature"` // 1: maximize variety
	TopP        float64       `json:"top_p"`       // Nucleus sampling
	MaxTokens   int           `json:"max_tokens"`  // Output cap
	Stream      bool          `json:"stream"`      // Streaming disabled
}

// chatMessage is one message in the provider payload
type chatMessage struct {
	Role    string `json:"role"`    // Always "user"
	Content string `json:"content"` // The constructed prompt
}

// chatResponse holds the part of the provider reply the gateway reads
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"` // Generated text
		} `json:"message"`
	} `json:"choices"`
}

// Chat sends one prompt to the provider and returns the generated text.
// The caller's context bounds the call, so a disconnected client aborts
// the outbound request.
func (c *Client) Chat(ctx context.Context, prompt string) (string, error) {
	payload := chatRequest{
		Model: c.Model, // Fixed model
		Messages: []chatMessage{
			{Role: "user", Content: prompt}, // Single user-role message
		},
		Temperature: 1,    // Maximize variety
		TopP:        0.7,  // Nucleus sampling
		MaxTokens:   2048, // Output cap
		Stream:      false,
	}
	body, err := json.Marshal(payload) // Marshal the payload
	if err != nil {
		return "", ErrProvider
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", ErrProvider
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey) // Bearer auth with the server-held key
	req.Header.Set("Content-Type", "application/json")  // JSON body
	resp, err := c.HTTPClient.Do(req)                   // Single synchronous call
	if err != nil {
		// Log the transport failure; the key never appears in fields
		logrus.WithFields(logrus.Fields{
			"error": err.Error(), // Transport error
		}).Warn("Advisor provider call failed")
		return "", ErrProvider
	}
	defer resp.Body.Close() // Always release the body
	// Any non-2xx status is a provider failure
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logrus.WithFields(logrus.Fields{
			"status": resp.StatusCode, // Provider status code
		}).Warn("Advisor provider returned an error status")
		return "", ErrProvider
	}
	var parsed chatResponse // Decode the reply
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		logrus.WithFields(logrus.Fields{
			"error": err.Error(), // Decoding error
		}).Warn("Advisor provider returned a malformed body")
		return "", ErrProvider
	}
	// The generated text lives in choices[0].message.content
	if len(parsed.Choices) == 0 {
		logrus.Warn("Advisor provider returned no choices")
		return "", ErrProvider
	}
	return parsed.Choices[0].Message.Content, nil
}
