package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"resume-ingest/internal/llm"
)

const (
	DefaultBaseURL    = "https://api.groq.com/openai/v1"
	DefaultProbeModel = "llama3-8b-8192"
	defaultTimeout    = 120 * time.Second
	maxErrorBody      = 4 << 10
)

// Client calls an OpenAI-compatible chat completions endpoint. The credential
// is supplied per call so a key pool can rotate it.
type Client struct {
	baseURL    string
	probeModel string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API root (".../v1").
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimRight(strings.TrimSpace(url), "/"); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithProbeModel sets the model used for credential probes.
func WithProbeModel(model string) Option {
	return func(c *Client) {
		if strings.TrimSpace(model) != "" {
			c.probeModel = strings.TrimSpace(model)
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient constructs a client with defaults applied.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		probeModel: DefaultProbeModel,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []llm.Message `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature *float32      `json:"temperature,omitempty"`
}

type apiErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    any    `json:"code"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message llm.Message `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *apiErrorBody `json:"error,omitempty"`
}

// Complete sends one chat completion with the given credential.
func (c *Client) Complete(ctx context.Context, apiKey string, req llm.Request) (llm.Response, error) {
	if strings.TrimSpace(req.Model) == "" {
		return llm.Response{}, errors.New("llm request model is required")
	}
	if strings.TrimSpace(apiKey) == "" {
		return llm.Response{}, &llm.APIError{StatusCode: http.StatusUnauthorized, Code: "invalid_api_key", Message: "empty api key"}
	}

	payload, err := json.Marshal(chatRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return llm.Response{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return llm.Response{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return llm.Response{}, fmt.Errorf("llm request timeout: %w", err)
		}
		return llm.Response{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return llm.Response{}, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return llm.Response{}, decodeAPIError(resp.StatusCode, body)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return llm.Response{}, fmt.Errorf("llm response parse: %w", err)
	}
	if parsed.Error != nil {
		return llm.Response{}, toAPIError(resp.StatusCode, parsed.Error)
	}
	if len(parsed.Choices) == 0 {
		return llm.Response{}, errors.New("llm response missing choices")
	}

	out := llm.Response{
		ID:      parsed.ID,
		Model:   parsed.Model,
		Content: parsed.Choices[0].Message.Content,
	}
	if parsed.Usage != nil {
		out.Usage = &llm.Usage{
			PromptTokens:     parsed.Usage.PromptTokens,
			CompletionTokens: parsed.Usage.CompletionTokens,
			TotalTokens:      parsed.Usage.TotalTokens,
		}
	}
	logUsage(out)
	return out, nil
}

// Probe makes the smallest possible call to check that a credential is accepted.
func (c *Client) Probe(ctx context.Context, apiKey string) error {
	_, err := c.Complete(ctx, apiKey, llm.Request{
		Model:     c.probeModel,
		Messages:  []llm.Message{{Role: "user", Content: "test"}},
		MaxTokens: 1,
	})
	return err
}

func decodeAPIError(status int, body []byte) error {
	var envelope struct {
		Error *apiErrorBody `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		return toAPIError(status, envelope.Error)
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody]
	}
	return &llm.APIError{StatusCode: status, Message: msg}
}

func toAPIError(status int, body *apiErrorBody) *llm.APIError {
	code := ""
	switch v := body.Code.(type) {
	case string:
		code = v
	case float64:
		code = fmt.Sprintf("%d", int(v))
	}
	return &llm.APIError{
		StatusCode: status,
		Type:       body.Type,
		Code:       code,
		Message:    body.Message,
	}
}

func logUsage(resp llm.Response) {
	if resp.Usage == nil {
		log.Printf("llm response model=%s", resp.Model)
		return
	}
	log.Printf("llm response model=%s prompt_tokens=%d completion_tokens=%d total_tokens=%d",
		resp.Model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resp.Usage.TotalTokens)
}

var _ llm.KeyedClient = (*Client)(nil)
