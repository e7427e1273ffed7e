package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

const (
	StoreBackendMemory   = "memory"
	StoreBackendPostgres = "postgres"
	StoreBackendRedis    = "redis"

	LLMProviderHTTP   = "http"
	LLMProviderOpenAI = "openai"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort     string `env:"HTTP_PORT" envDefault:"8080"`
	StoreBackend string `env:"STORE_BACKEND" envDefault:"memory"`
	DatabaseURL  string `env:"DATABASE_URL"`

	RedisAddr       string `env:"REDIS_ADDR"`
	RedisPassword   string `env:"REDIS_PASSWORD"`
	RedisDB         int    `env:"REDIS_DB" envDefault:"0"`
	SessionTTLHours int    `env:"SESSION_TTL_HOURS" envDefault:"0"`

	LLMProvider string `env:"LLM_PROVIDER" envDefault:"http"`
	LLMAPIKey   string `env:"LLM_API_KEY"`
	LLMBaseURL  string `env:"LLM_BASE_URL" envDefault:"https://api.openai.com/v1"`
	LLMModel    string `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`

	CollaboratorTimeoutSeconds int `env:"COLLABORATOR_TIMEOUT_SECONDS" envDefault:"20"`
	DominantTraitLimit         int `env:"DOMINANT_TRAIT_LIMIT" envDefault:"15"`
	RevealInterval             int `env:"REVEAL_INTERVAL" envDefault:"10"`
	RevealTraitLimit           int `env:"REVEAL_TRAIT_LIMIT" envDefault:"10"`

	AuthSecret                string `env:"AUTH_SECRET"`
	DecisionRateLimit         int    `env:"DECISION_RATE_LIMIT" envDefault:"0"`
	DecisionRateWindowSeconds int    `env:"DECISION_RATE_WINDOW_SECONDS" envDefault:"60"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate revisa combinaciones que env no puede expresar con tags.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreBackendMemory:
	case StoreBackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for store backend %q", c.StoreBackend)
		}
	case StoreBackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for store backend %q", c.StoreBackend)
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.LLMProvider != LLMProviderHTTP && c.LLMProvider != LLMProviderOpenAI {
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}
	if c.CollaboratorTimeoutSeconds <= 0 {
		return fmt.Errorf("COLLABORATOR_TIMEOUT_SECONDS must be positive")
	}
	if c.RevealInterval <= 0 {
		return fmt.Errorf("REVEAL_INTERVAL must be positive")
	}
	if c.DecisionRateLimit > 0 && c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required when DECISION_RATE_LIMIT is set")
	}
	return nil
}

// CollaboratorTimeout es el limite de cada llamada a un colaborador.
func (c *Config) CollaboratorTimeout() time.Duration {
	return time.Duration(c.CollaboratorTimeoutSeconds) * time.Second
}

// SessionTTL es 0 cuando los snapshots no expiran.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

func (c *Config) DecisionRateWindow() time.Duration {
	return time.Duration(c.DecisionRateWindowSeconds) * time.Second
}
