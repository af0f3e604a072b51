package transcribe

import (
	"context"
	"strings"
	"testing"
)

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), "whisperx", "key", "model")
	if err == nil {
		t.Fatal("unknown provider must be rejected")
	}
	if !strings.Contains(err.Error(), "whisperx") {
		t.Fatalf("error %q should name the bad provider", err)
	}
}

func TestNewDeepgram(t *testing.T) {
	tr, err := New(context.Background(), "deepgram", "key", "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if tr == nil {
		t.Fatal("nil transcriber")
	}
}
