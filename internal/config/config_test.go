package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/probewise/interview/internal/errors"
)

func validConfig() *Config {
	cfg := Load()
	cfg.Interview.QuestionText = "What did you think of the product?"
	cfg.Decision.URL = "https://decisions.example.com/v1"
	cfg.Streaming.APIKey = "dg-key"
	return cfg
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.HTTPAddr != ":8000" {
		t.Errorf("HTTPAddr = %q, want :8000", cfg.HTTPAddr)
	}
	if cfg.Interview.ProbingIntensity != "moderate" {
		t.Errorf("ProbingIntensity = %q, want moderate", cfg.Interview.ProbingIntensity)
	}
	if cfg.Interview.MinTurn != time.Second {
		t.Errorf("MinTurn = %v, want 1s", cfg.Interview.MinTurn)
	}
	if cfg.Interview.GraceWindow != 400*time.Millisecond {
		t.Errorf("GraceWindow = %v, want 400ms", cfg.Interview.GraceWindow)
	}
	if cfg.Audio.SampleRate != 16000 {
		t.Errorf("SampleRate = %d, want 16000", cfg.Audio.SampleRate)
	}
	if cfg.Decision.MaxAttempts != 2 {
		t.Errorf("MaxAttempts = %d, want 2", cfg.Decision.MaxAttempts)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("QUESTION_TEXT", "Why?")
	t.Setenv("PROBING_INTENSITY", "deep")
	t.Setenv("MIN_TURN", "2s")
	t.Setenv("SAMPLE_RATE", "48000")

	cfg := Load()

	if cfg.Interview.QuestionText != "Why?" {
		t.Errorf("QuestionText = %q", cfg.Interview.QuestionText)
	}
	if cfg.Interview.ProbingIntensity != "deep" {
		t.Errorf("ProbingIntensity = %q", cfg.Interview.ProbingIntensity)
	}
	if cfg.Interview.MinTurn != 2*time.Second {
		t.Errorf("MinTurn = %v", cfg.Interview.MinTurn)
	}
	if cfg.Audio.SampleRate != 48000 {
		t.Errorf("SampleRate = %d", cfg.Audio.SampleRate)
	}
}

func TestLoadEnvIgnoresMalformed(t *testing.T) {
	t.Setenv("SAMPLE_RATE", "not-a-number")
	t.Setenv("MIN_TURN", "not-a-duration")

	cfg := Load()
	if cfg.Audio.SampleRate != 16000 {
		t.Errorf("SampleRate = %d, want default", cfg.Audio.SampleRate)
	}
	if cfg.Interview.MinTurn != time.Second {
		t.Errorf("MinTurn = %v, want default", cfg.Interview.MinTurn)
	}
}

func TestLoadFileOverlay(t *testing.T) {
	t.Setenv("QUESTION_TEXT", "from env")

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
interview:
  question_text: from file
  probing_intensity: deep
decision:
  url: https://decisions.example.com
  timeout: 10s
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Interview.QuestionText != "from file" {
		t.Errorf("QuestionText = %q, want file value to win", cfg.Interview.QuestionText)
	}
	if cfg.Decision.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v", cfg.Decision.Timeout)
	}
	// Fields absent from the file keep env/default values.
	if cfg.HTTPAddr != ":8000" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if !apperrors.IsCode(err, apperrors.CodeConfigInvalid) {
		t.Errorf("LoadFile() error = %v, want config_invalid", err)
	}
}

func TestLoadFileEmptyPath(t *testing.T) {
	cfg, err := LoadFile("")
	if err != nil || cfg == nil {
		t.Errorf("LoadFile(\"\") = %v, %v", cfg, err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		wantCode apperrors.ErrorCode
	}{
		{"valid", func(*Config) {}, ""},
		{"missing question", func(c *Config) { c.Interview.QuestionText = "  " }, apperrors.CodeConfigMissing},
		{"missing decision url", func(c *Config) { c.Decision.URL = "" }, apperrors.CodeConfigMissing},
		{"missing streaming key", func(c *Config) { c.Streaming.APIKey = "" }, apperrors.CodeConfigMissing},
		{"bad intensity", func(c *Config) { c.Interview.ProbingIntensity = "extreme" }, apperrors.CodeConfigInvalid},
		{"negative floor", func(c *Config) { c.Interview.MinTurn = -time.Second }, apperrors.CodeConfigInvalid},
		{"intensity none is valid", func(c *Config) { c.Interview.ProbingIntensity = "none" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantCode == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !apperrors.IsCode(err, tt.wantCode) {
				t.Errorf("Validate() = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}
