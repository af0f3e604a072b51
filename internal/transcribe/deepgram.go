package transcribe

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	api "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	client "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"
)

// Deepgram transcribes audio fragments through the prerecorded REST API.
// Fragments arrive as discrete chunks here, so the batch endpoint fits
// better than a live stream.
type Deepgram struct {
	dg      *api.Client
	options *interfaces.PreRecordedTranscriptionOptions
}

func NewDeepgram(apiKey, model string) *Deepgram {
	if strings.TrimSpace(model) == "" {
		model = "nova-2"
	}

	c := client.NewREST(apiKey, &interfaces.ClientOptions{})
	return &Deepgram{
		dg: api.New(c),
		options: &interfaces.PreRecordedTranscriptionOptions{
			Model:       model,
			Punctuate:   true,
			SmartFormat: true,
		},
	}
}

func (d *Deepgram) Transcribe(ctx context.Context, audio []byte, _ string) (string, error) {
	if len(audio) == 0 {
		return "", nil
	}

	res, err := d.dg.FromStream(ctx, bytes.NewReader(audio), d.options)
	if err != nil {
		return "", fmt.Errorf("deepgram transcription: %w", err)
	}

	if res == nil || len(res.Results.Channels) == 0 || len(res.Results.Channels[0].Alternatives) == 0 {
		return "", nil
	}

	return strings.TrimSpace(res.Results.Channels[0].Alternatives[0].Transcript), nil
}
