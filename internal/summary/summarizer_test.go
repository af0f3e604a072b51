package summary

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/scribeai/scribe/internal/llm"
)

type llmMock struct {
	mu        sync.Mutex
	calls     int
	failures  int
	result    string
	gotSystem string
	gotUser   string
}

func (m *llmMock) Complete(_ context.Context, system, user string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.gotSystem = system
	m.gotUser = user
	if m.calls <= m.failures {
		return "", errors.New("rate limited")
	}
	return m.result, nil
}

func newTestSummarizer(client llm.Client) (*Summarizer, *[]time.Duration) {
	s := New(client)
	var slept []time.Duration
	s.sleep = func(d time.Duration) { slept = append(slept, d) }
	return s, &slept
}

func TestSummarizePromptShape(t *testing.T) {
	mock := &llmMock{result: "Key Points:\n- we met"}
	s, _ := newTestSummarizer(mock)

	got, err := s.Summarize(context.Background(), "Hello team, quick sync today.")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if got != "Key Points:\n- we met" {
		t.Fatalf("summary = %q", got)
	}

	if mock.gotSystem != systemPrompt {
		t.Fatalf("system prompt = %q", mock.gotSystem)
	}
	if !strings.Contains(mock.gotUser, "Hello team, quick sync today.") {
		t.Fatalf("transcript missing from prompt: %q", mock.gotUser)
	}
	if strings.Contains(mock.gotUser, "{{transcript}}") {
		t.Fatal("template placeholder was not substituted")
	}
}

func TestSummarizeRetriesWithBackoff(t *testing.T) {
	mock := &llmMock{failures: 2, result: "eventually fine"}
	s, slept := newTestSummarizer(mock)

	got, err := s.Summarize(context.Background(), "transcript")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if got != "eventually fine" {
		t.Fatalf("summary = %q", got)
	}
	if mock.calls != 3 {
		t.Fatalf("calls = %d, want 3", mock.calls)
	}
	if len(*slept) != 2 || (*slept)[0] != time.Second || (*slept)[1] != 4*time.Second {
		t.Fatalf("backoff = %v", *slept)
	}
}

func TestSummarizeExhaustsRetries(t *testing.T) {
	mock := &llmMock{failures: 10}
	s, slept := newTestSummarizer(mock)

	if _, err := s.Summarize(context.Background(), "transcript"); err == nil {
		t.Fatal("want error after exhausted retries")
	}
	if mock.calls != 3 {
		t.Fatalf("calls = %d, want 3", mock.calls)
	}
	if len(*slept) != 2 {
		t.Fatalf("sleeps = %d, want 2 (no sleep after the last attempt)", len(*slept))
	}
}

func TestSummarizeStopsOnCancelledContext(t *testing.T) {
	mock := &llmMock{failures: 10}
	s, slept := newTestSummarizer(mock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Summarize(ctx, "transcript"); err == nil {
		t.Fatal("want error on cancelled context")
	}
	if mock.calls != 1 {
		t.Fatalf("calls = %d, want 1 (no retries after cancel)", mock.calls)
	}
	if len(*slept) != 0 {
		t.Fatalf("sleeps = %v, want none", *slept)
	}
}

func TestNewFromModelRejectsBadSpec(t *testing.T) {
	if _, err := NewFromModel("gpt-4o", "key"); err == nil {
		t.Fatal("model spec without provider must be rejected")
	}
	if _, err := NewFromModel("martian/model-1", "key"); err == nil {
		t.Fatal("unknown provider must be rejected")
	}
}
