package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Client abstracts a chat-completion service.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// KeyedClient performs a completion with an explicit credential.
type KeyedClient interface {
	Complete(ctx context.Context, apiKey string, req Request) (Response, error)
}

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a single chat-completion request.
type Request struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature *float32
}

// Response is the parsed completion result.
type Response struct {
	ID      string
	Model   string
	Content string
	Usage   *Usage
}

// Usage reports token accounting when the service returns it.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Temperature returns a pointer for Request.Temperature.
func Temperature(v float32) *float32 {
	return &v
}

// APIError is a non-success answer from the completion service.
type APIError struct {
	StatusCode int
	Type       string
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "llm api error: status %d", e.StatusCode)
	if e.Code != "" {
		fmt.Fprintf(&b, " code=%s", e.Code)
	}
	if e.Type != "" {
		fmt.Fprintf(&b, " type=%s", e.Type)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// IsAuthRejected reports whether err means the service refused the credential.
// Typed API errors are checked first; otherwise the message text is matched
// for "invalid_api_key" or "401".
func IsAuthRejected(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusUnauthorized || strings.EqualFold(apiErr.Code, "invalid_api_key") {
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "invalid_api_key") || strings.Contains(msg, "401")
}

// KeySuffix returns the last four characters of a credential for logging.
func KeySuffix(key string) string {
	if len(key) <= 4 {
		return key
	}
	return key[len(key)-4:]
}
