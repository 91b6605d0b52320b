package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every setting the service needs.
type Config struct {
	Server  ServerConfig
	LLM     LLMConfig
	ASR     ASRConfig
	TTS     TTSConfig
	Storage StorageConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	llm, err := loadLLMConfig()
	if err != nil {
		return nil, err
	}

	asr, err := loadASRConfig()
	if err != nil {
		return nil, err
	}

	tts, err := loadTTSConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:  server,
		LLM:     llm,
		ASR:     asr,
		TTS:     tts,
		Storage: loadStorageConfig(),
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8000"
	}

	if strings.Contains(port, ":") {
		// Allow ":8000" or "127.0.0.1:8000" verbatim.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// LLMConfig describes the chat-completion backend.
type LLMConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   *int
	Temperature *float64
}

// Enabled reports whether the required credentials are present.
func (c LLMConfig) Enabled() bool {
	return c.APIKey != "" && c.Model != ""
}

// NewChatModel builds an eino chat model from the configuration.
func (c LLMConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("OPENAI_API_KEY and OPENAI_MODEL are required for response generation")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	cfg := &openai.ChatModelConfig{
		BaseURL:     c.BaseURL,
		APIKey:      c.APIKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
	}

	return openai.NewChatModel(ctx, cfg)
}

func loadLLMConfig() (LLMConfig, error) {
	temperature, err := parseOptionalFloatEnv("OPENAI_TEMPERATURE")
	if err != nil {
		return LLMConfig{}, err
	}
	if temperature == nil {
		val := 0.7
		temperature = &val
	}

	maxTokens, err := parseOptionalIntEnv("OPENAI_MAX_TOKENS")
	if err != nil {
		return LLMConfig{}, err
	}
	if maxTokens == nil {
		val := 150
		maxTokens = &val
	}

	return LLMConfig{
		APIKey:      strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		Model:       getEnvOrDefault("OPENAI_MODEL", "gpt-3.5-turbo"),
		BaseURL:     getEnvOrDefault("OPENAI_BASE_URL", ""),
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}, nil
}

// ASRConfig describes the speech-recognition backend. The relay assumes
// mono LINEAR16 input from the client.
type ASRConfig struct {
	LanguageCode    string
	SampleRateHertz int
}

func loadASRConfig() (ASRConfig, error) {
	sampleRate := 16000
	if override, err := parseOptionalIntEnv("ASR_SAMPLE_RATE"); err != nil {
		return ASRConfig{}, err
	} else if override != nil {
		sampleRate = *override
	}

	return ASRConfig{
		LanguageCode:    getEnvOrDefault("ASR_LANGUAGE", "ja-JP"),
		SampleRateHertz: sampleRate,
	}, nil
}

// TTSConfig describes the speech-synthesis backend.
type TTSConfig struct {
	LanguageCode string
	Voice        string
	SpeakingRate float64
	Pitch        float64
}

func loadTTSConfig() (TTSConfig, error) {
	rate := 1.0
	if override, err := parseOptionalFloatEnv("TTS_SPEAKING_RATE"); err != nil {
		return TTSConfig{}, err
	} else if override != nil {
		rate = *override
	}

	pitch := 0.0
	if override, err := parseOptionalFloatEnv("TTS_PITCH"); err != nil {
		return TTSConfig{}, err
	} else if override != nil {
		pitch = *override
	}

	return TTSConfig{
		LanguageCode: getEnvOrDefault("TTS_LANGUAGE", "ja-JP"),
		Voice:        getEnvOrDefault("TTS_VOICE", "ja-JP-Neural2-B"),
		SpeakingRate: rate,
		Pitch:        pitch,
	}, nil
}

// StorageConfig locates the on-disk artifacts the relay produces.
type StorageConfig struct {
	AudioDir string
	LogDir   string
	DBPath   string
}

func loadStorageConfig() StorageConfig {
	return StorageConfig{
		AudioDir: getEnvOrDefault("AUDIO_DIR", "audio_files"),
		LogDir:   getEnvOrDefault("LOG_DIR", "conversation_logs"),
		DBPath:   getEnvOrDefault("DB_PATH", "voicechat.db"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
