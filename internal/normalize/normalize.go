// Package normalize turns an extracted resume into fixed-schema candidate
// records by way of a chat completion.
package normalize

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"resume-ingest/internal/extract"
	"resume-ingest/internal/llm"
)

const (
	DefaultModel       = "llama3-8b-8192"
	DefaultMaxTokens   = 1024
	DefaultTemperature = 0.9
)

//go:embed prompts/system.txt
var systemPrompt string

// Normalizer asks a completion service for candidate records.
type Normalizer struct {
	LLM         llm.Client
	Model       string
	MaxTokens   int
	Temperature float32
}

// New returns a Normalizer with the default model settings.
func New(client llm.Client) *Normalizer {
	return &Normalizer{
		LLM:         client,
		Model:       DefaultModel,
		MaxTokens:   DefaultMaxTokens,
		Temperature: DefaultTemperature,
	}
}

// BuildMessages renders the system instructions and the document as chat turns.
func BuildMessages(doc extract.Document) ([]llm.Message, error) {
	contact, err := json.MarshalIndent(doc.ContactInfo, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal contact info: %w", err)
	}
	sections := doc.Sections
	if sections == nil {
		sections = []extract.Section{}
	}
	sectionJSON, err := json.MarshalIndent(sections, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal sections: %w", err)
	}

	var b strings.Builder
	b.WriteString("Raw Text:\n")
	b.WriteString(doc.RawText)
	b.WriteString("\n\nContact Information:\n")
	b.Write(contact)
	b.WriteString("\n\nSections:\n")
	b.Write(sectionJSON)
	b.WriteString("\n")

	return []llm.Message{
		{Role: "system", Content: strings.TrimSpace(systemPrompt)},
		{Role: "user", Content: b.String()},
	}, nil
}

// Normalize sends the document to the completion service and parses the reply.
// Completion errors are returned as-is wrapped; an unparseable reply is not an
// error and yields a raw Result.
func (n *Normalizer) Normalize(ctx context.Context, doc extract.Document) (Result, error) {
	if n.LLM == nil {
		return Result{}, errors.New("normalize: completion client is nil")
	}
	msgs, err := BuildMessages(doc)
	if err != nil {
		return Result{}, err
	}

	model := n.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := n.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	resp, err := n.LLM.Complete(ctx, llm.Request{
		Model:       model,
		Messages:    msgs,
		MaxTokens:   maxTokens,
		Temperature: llm.Temperature(n.Temperature),
	})
	if err != nil {
		return Result{}, fmt.Errorf("normalize: completion: %w", err)
	}
	return ParseOutput(resp.Content), nil
}
