// Package summary turns a finalized transcript into structured meeting
// minutes through an LLM collaborator.
package summary

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/scribeai/scribe/internal/llm"
)

const systemPrompt = "You are an assistant generating meeting minutes."

const userTemplate = `Given the following meeting transcript, provide:
- Key Points
- Decisions
- Action Items (with owners if mentioned)

Transcript:

{{transcript}}`

// Summarizer completes the minutes prompt against a configured LLM client.
// Each Summarize call retries internally with backoff; callers never
// re-drive a failed summarization.
type Summarizer struct {
	client llm.Client
	sleep  func(time.Duration)
}

func New(client llm.Client) *Summarizer {
	return &Summarizer{
		client: client,
		sleep:  time.Sleep,
	}
}

// NewFromModel builds a summarizer for a "provider/model_name" spec.
func NewFromModel(model, apiKey string, opts ...llm.Option) (*Summarizer, error) {
	provider, modelName, err := llm.ParseModel(model)
	if err != nil {
		return nil, err
	}

	client, err := llm.NewClient(provider, apiKey, modelName, opts...)
	if err != nil {
		return nil, fmt.Errorf("create llm client: %w", err)
	}
	return New(client), nil
}

func (s *Summarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	prompt := strings.ReplaceAll(userTemplate, "{{transcript}}", transcript)

	backoff := []time.Duration{1 * time.Second, 4 * time.Second, 16 * time.Second}
	var lastErr error
	for attempt := range backoff {
		result, err := s.client.Complete(ctx, systemPrompt, prompt)
		if err == nil {
			return strings.TrimSpace(result), nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if attempt < len(backoff)-1 {
			s.sleep(backoff[attempt])
		}
	}
	return "", fmt.Errorf("summarize failed after retries: %w", lastErr)
}
