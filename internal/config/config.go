// Package config handles daemon configuration from environment and YAML.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/probewise/interview/internal/errors"
)

// Config holds the full daemon configuration. Environment variables provide
// defaults; an optional YAML file overrides them field by field.
type Config struct {
	HTTPAddr string `yaml:"http_addr"`

	Interview InterviewConfig `yaml:"interview"`
	Decision  DecisionConfig  `yaml:"decision"`
	Streaming StreamingConfig `yaml:"streaming"`
	Audio     AudioConfig     `yaml:"audio"`
	Store     StoreConfig     `yaml:"store"`
}

// InterviewConfig is the per-question survey configuration.
type InterviewConfig struct {
	QuestionID          string        `yaml:"question_id"`
	QuestionText        string        `yaml:"question_text"`
	ProbingInstructions string        `yaml:"probing_instructions"`
	ProbingIntensity    string        `yaml:"probing_intensity"` // none|moderate|deep
	MinTurn             time.Duration `yaml:"min_turn"`
	GraceWindow         time.Duration `yaml:"grace_window"`
}

// DecisionConfig configures the follow-up decision endpoint.
type DecisionConfig struct {
	URL         string        `yaml:"url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxAttempts int           `yaml:"max_attempts"`
	RetryDelay  time.Duration `yaml:"retry_delay"`
}

// StreamingConfig configures the speech-to-text provider.
type StreamingConfig struct {
	APIKey     string `yaml:"api_key"`
	APIBaseURL string `yaml:"api_base_url"`
	Model      string `yaml:"model"`
	Language   string `yaml:"language"`
}

// AudioConfig describes how microphone audio is captured and pumped.
type AudioConfig struct {
	SampleRate    int           `yaml:"sample_rate"`
	Channels      int           `yaml:"channels"`
	ChunkInterval time.Duration `yaml:"chunk_interval"`
	KeepAlive     time.Duration `yaml:"keep_alive"`
}

// StoreConfig configures the completion record store.
type StoreConfig struct {
	DSN string `yaml:"dsn"`
}

// Load builds configuration from the environment.
func Load() *Config {
	return &Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":8000"),
		Interview: InterviewConfig{
			QuestionID:          getEnv("QUESTION_ID", ""),
			QuestionText:        getEnv("QUESTION_TEXT", ""),
			ProbingInstructions: getEnv("PROBING_INSTRUCTIONS", ""),
			ProbingIntensity:    getEnv("PROBING_INTENSITY", "moderate"),
			MinTurn:             getEnvDuration("MIN_TURN", time.Second),
			GraceWindow:         getEnvDuration("GRACE_WINDOW", 400*time.Millisecond),
		},
		Decision: DecisionConfig{
			URL:         getEnv("DECISION_URL", ""),
			APIKey:      getEnv("DECISION_API_KEY", ""),
			Model:       getEnv("DECISION_MODEL", ""),
			Timeout:     getEnvDuration("DECISION_TIMEOUT", 30*time.Second),
			MaxAttempts: getEnvInt("DECISION_MAX_ATTEMPTS", 2),
			RetryDelay:  getEnvDuration("DECISION_RETRY_DELAY", time.Second),
		},
		Streaming: StreamingConfig{
			APIKey:     getEnv("STREAMING_API_KEY", ""),
			APIBaseURL: getEnv("STREAMING_API_BASE_URL", ""),
			Model:      getEnv("STREAMING_MODEL", ""),
			Language:   getEnv("STREAMING_LANGUAGE", ""),
		},
		Audio: AudioConfig{
			SampleRate:    getEnvInt("SAMPLE_RATE", 16000),
			Channels:      getEnvInt("AUDIO_CHANNELS", 1),
			ChunkInterval: getEnvDuration("AUDIO_CHUNK_INTERVAL", time.Second),
			KeepAlive:     getEnvDuration("STREAMING_KEEP_ALIVE", 8*time.Second),
		},
		Store: StoreConfig{
			DSN: getEnv("STORE_DSN", "interview.db"),
		},
	}
}

// LoadFile overlays YAML file settings on top of environment defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Load()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.CodeConfigInvalid, "read config file %s", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, apperrors.Wrapf(err, apperrors.CodeConfigInvalid, "parse config file %s", path)
	}
	return cfg, nil
}

// Validate checks required settings. Failures here are fatal: no session
// may be created from an incomplete configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Interview.QuestionText) == "" {
		return apperrors.New(apperrors.CodeConfigMissing, "interview question text is required")
	}
	if strings.TrimSpace(c.Decision.URL) == "" {
		return apperrors.New(apperrors.CodeConfigMissing, "decision endpoint URL is required")
	}
	if strings.TrimSpace(c.Streaming.APIKey) == "" {
		return apperrors.New(apperrors.CodeConfigMissing, "streaming API key is required")
	}
	switch c.Interview.ProbingIntensity {
	case "none", "moderate", "deep":
	default:
		return apperrors.Newf(apperrors.CodeConfigInvalid, "unknown probing intensity %q", c.Interview.ProbingIntensity)
	}
	if c.Interview.MinTurn < 0 || c.Interview.GraceWindow < 0 {
		return apperrors.New(apperrors.CodeConfigInvalid, "turn floor and grace window must be non-negative")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
