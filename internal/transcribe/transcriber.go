// Package transcribe wraps the external speech-to-text collaborators. A
// transcriber turns one raw audio fragment into text; calls are stateless
// and latency-bound, and a failed call only ever costs that one fragment.
package transcribe

import (
	"context"
	"fmt"
)

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// New selects a provider implementation by name.
func New(ctx context.Context, provider, apiKey, model string) (Transcriber, error) {
	switch provider {
	case "gemini":
		return NewGemini(ctx, apiKey, model)
	case "deepgram":
		return NewDeepgram(apiKey, model), nil
	default:
		return nil, fmt.Errorf("unknown transcription provider %q: supported providers are gemini, deepgram", provider)
	}
}
