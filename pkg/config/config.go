package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"superhero/pkg/superhero"
)

// Config is read from the environment. A .env file in the working directory
// is loaded first by cmd.
type Config struct {
	APIBase     string        `env:"SUPERHERO_API_BASE"     envDefault:"https://akabab.github.io/superhero-api/api"`
	CatalogSize int           `env:"SUPERHERO_CATALOG_SIZE" envDefault:"563"`
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT"           envDefault:"0s"`

	Port     string `env:"PORT"      envDefault:"8080"`
	ImageDir string `env:"IMAGE_DIR" envDefault:"images/portraits"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	OpenAIKey     string `env:"OPENAI_API_KEY"`
	OpenAIModel   string `env:"OPENAI_MODEL"    envDefault:"gpt-4o-mini"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`
	GeminiKey     string `env:"GEMINI_API_KEY"`
	GeminiModel   string `env:"GEMINI_MODEL"    envDefault:"gemini-2.5-flash"`

	BlurbTTL time.Duration `env:"BLURB_TTL" envDefault:"1h"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the environment into a Config and rejects values the rest of
// the program cannot use.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.CatalogSize < 1 {
		return Config{}, fmt.Errorf("SUPERHERO_CATALOG_SIZE must be positive, got %d", cfg.CatalogSize)
	}
	if cfg.HTTPTimeout < 0 {
		return Config{}, fmt.Errorf("HTTP_TIMEOUT must not be negative, got %s", cfg.HTTPTimeout)
	}
	if cfg.APIBase == "" {
		cfg.APIBase = superhero.DefaultBaseURL
	}
	return cfg, nil
}

// Addr is the listen address for Port.
func (c Config) Addr() string { return ":" + c.Port }

// Inference names the blurb backend the config selects: "gemini", "openai"
// or "" when none is configured.
func (c Config) Inference() string {
	switch {
	case c.GeminiKey != "":
		return "gemini"
	case c.OpenAIKey != "" || c.OpenAIBaseURL != "":
		return "openai"
	default:
		return ""
	}
}
