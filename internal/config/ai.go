package config

import (
	"os"
	"strings"
)

// AIModels defines which provider models serve each call site
type AIModels struct {
	// Examiner generates questions, acknowledgments, redirects and relevance verdicts
	Examiner string `json:"examiner"`

	// Scorer produces the final rubric report (quality over speed)
	Scorer string `json:"scorer"`

	// Speech and Voice select text-to-speech
	Speech string `json:"speech"`
	Voice  string `json:"voice"`

	// Transcription is the speech-to-text model
	Transcription string `json:"transcription"`
}

// AIConfig holds all provider configuration
type AIConfig struct {
	APIKey    string   `json:"-"` // Never serialize
	BaseURL   string   `json:"baseUrl"`
	Models    AIModels `json:"models"`
	TimeoutMS int      `json:"timeoutMs"`
}

// DefaultAIConfig returns the provider configuration from the environment
func DefaultAIConfig() *AIConfig {
	return &AIConfig{
		APIKey:  os.Getenv("OPENAI_API_KEY"),
		BaseURL: strings.TrimRight(getEnvOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"), "/"),
		Models: AIModels{
			Examiner:      getEnvOrDefault("OPENAI_MODEL_EXAMINER", "gpt-4o-mini"),
			Scorer:        getEnvOrDefault("OPENAI_MODEL_SCORER", "gpt-4o"),
			Speech:        getEnvOrDefault("OPENAI_MODEL_TTS", "tts-1"),
			Voice:         getEnvOrDefault("OPENAI_TTS_VOICE", "alloy"),
			Transcription: getEnvOrDefault("OPENAI_MODEL_STT", "whisper-1"),
		},
		TimeoutMS: getEnvInt("OPENAI_TIMEOUT_MS", 30000),
	}
}

// IsEnabled returns true if the provider is configured
func (c *AIConfig) IsEnabled() bool {
	return c.APIKey != ""
}

// Endpoint returns the full URL for an API path such as "/chat/completions"
func (c *AIConfig) Endpoint(path string) string {
	return c.BaseURL + path
}
