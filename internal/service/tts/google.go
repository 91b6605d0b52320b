package tts

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/google/uuid"

	"github.com/tanuki-create/voicechat/internal/config"
)

// URLPrefix is the path prefix under which synthesized artifacts are
// served back to clients.
const URLPrefix = "/audio/"

// GoogleSynthesizer renders text to MP3 through Google Cloud
// Text-to-Speech and stores each artifact under a unique name.
type GoogleSynthesizer struct {
	client   *texttospeech.Client
	cfg      config.TTSConfig
	audioDir string
}

// NewGoogleSynthesizer creates the TTS client and ensures the artifact
// directory exists.
func NewGoogleSynthesizer(ctx context.Context, cfg config.TTSConfig, audioDir string) (*GoogleSynthesizer, error) {
	client, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create text-to-speech client: %w", err)
	}

	if err := os.MkdirAll(audioDir, 0o755); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to create audio directory: %w", err)
	}

	return &GoogleSynthesizer{client: client, cfg: cfg, audioDir: audioDir}, nil
}

// Close releases the underlying client connection.
func (s *GoogleSynthesizer) Close() error {
	return s.client.Close()
}

// Synthesize renders the reply and writes one new MP3 artifact.
func (s *GoogleSynthesizer) Synthesize(ctx context.Context, text string) (string, error) {
	resp, err := s.client.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: s.cfg.LanguageCode,
			Name:         s.cfg.Voice,
			SsmlGender:   texttospeechpb.SsmlVoiceGender_NEUTRAL,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
			SpeakingRate:  s.cfg.SpeakingRate,
			Pitch:         s.cfg.Pitch,
		},
	})
	if err != nil {
		return "", fmt.Errorf("synthesize request failed: %w", err)
	}

	filename := uuid.NewString() + ".mp3"
	path := filepath.Join(s.audioDir, filename)
	if err := os.WriteFile(path, resp.AudioContent, 0o644); err != nil {
		return "", fmt.Errorf("failed to write audio artifact: %w", err)
	}

	log.Printf("[tts] synthesized audio saved to %s", path)
	return URLPrefix + filename, nil
}
