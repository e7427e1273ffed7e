package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"STORE_BACKEND", "LLM_PROVIDER", "COLLABORATOR_TIMEOUT_SECONDS", "REVEAL_INTERVAL", "DOMINANT_TRAIT_LIMIT"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.StoreBackend != StoreBackendMemory {
		t.Fatalf("expected memory backend, got %q", cfg.StoreBackend)
	}
	if cfg.CollaboratorTimeout() != 20*time.Second {
		t.Fatalf("expected 20s collaborator timeout, got %s", cfg.CollaboratorTimeout())
	}
	if cfg.RevealInterval != 10 || cfg.DominantTraitLimit != 15 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadConfigRequiresDatabaseForPostgres(t *testing.T) {
	t.Setenv("STORE_BACKEND", StoreBackendPostgres)
	t.Setenv("DATABASE_URL", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error when DATABASE_URL missing")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory ok", Config{StoreBackend: StoreBackendMemory, LLMProvider: LLMProviderHTTP, CollaboratorTimeoutSeconds: 10, RevealInterval: 10}, false},
		{"redis without addr", Config{StoreBackend: StoreBackendRedis, LLMProvider: LLMProviderHTTP, CollaboratorTimeoutSeconds: 10, RevealInterval: 10}, true},
		{"unknown backend", Config{StoreBackend: "mongo", LLMProvider: LLMProviderHTTP, CollaboratorTimeoutSeconds: 10, RevealInterval: 10}, true},
		{"unknown provider", Config{StoreBackend: StoreBackendMemory, LLMProvider: "bard", CollaboratorTimeoutSeconds: 10, RevealInterval: 10}, true},
		{"zero timeout", Config{StoreBackend: StoreBackendMemory, LLMProvider: LLMProviderOpenAI, RevealInterval: 10}, true},
		{"rate limit without redis", Config{StoreBackend: StoreBackendMemory, LLMProvider: LLMProviderHTTP, CollaboratorTimeoutSeconds: 10, RevealInterval: 10, DecisionRateLimit: 5}, true},
		{"rate limit with redis", Config{StoreBackend: StoreBackendMemory, LLMProvider: LLMProviderHTTP, CollaboratorTimeoutSeconds: 10, RevealInterval: 10, DecisionRateLimit: 5, RedisAddr: "localhost:6379"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}
