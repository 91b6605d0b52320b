package asr

import (
	"context"
	"fmt"
	"log"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"

	"github.com/tanuki-create/voicechat/internal/config"
)

// GoogleRecognizer performs one-shot recognition against Google Cloud
// Speech-to-Text. Authentication uses Application Default Credentials.
type GoogleRecognizer struct {
	client *speech.Client
	cfg    config.ASRConfig
}

// NewGoogleRecognizer creates the Speech client.
func NewGoogleRecognizer(ctx context.Context, cfg config.ASRConfig) (*GoogleRecognizer, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}
	return &GoogleRecognizer{client: client, cfg: cfg}, nil
}

// Close releases the underlying client connection.
func (r *GoogleRecognizer) Close() error {
	return r.client.Close()
}

// Recognize transcribes a single audio unit. The input is expected to
// be mono LINEAR16 at the configured sample rate.
func (r *GoogleRecognizer) Recognize(ctx context.Context, audio []byte) (string, error) {
	resp, err := r.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:            int32(r.cfg.SampleRateHertz),
			LanguageCode:               r.cfg.LanguageCode,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return "", fmt.Errorf("recognize request failed: %w", err)
	}

	var transcript strings.Builder
	for _, result := range resp.Results {
		if len(result.Alternatives) == 0 {
			continue
		}
		transcript.WriteString(result.Alternatives[0].Transcript)
	}

	text := transcript.String()
	log.Printf("[asr] transcribed %d bytes into %d chars", len(audio), len(text))
	return text, nil
}
