package internal

import (
	"strings"
	"testing"
	"time"

	"github.com/starford/planinsta/internal/storage"
)

func TestDefaultConfig_Valid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should pass: %v", err)
	}
}

func TestAccessConfig_EmptyModeDefaultsDemo(t *testing.T) {
	cfg := AccessConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to demo: %v", err)
	}
	if cfg.Mode != AccessModeDemo || !cfg.Demo() {
		t.Errorf("mode = %q, want %q", cfg.Mode, AccessModeDemo)
	}
	if cfg.DefaultTier != "free" {
		t.Errorf("default tier = %q, want free", cfg.DefaultTier)
	}
}

func TestAccessConfig_TokenModeEmptySecret(t *testing.T) {
	cfg := AccessConfig{Mode: AccessModeToken}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty secret should fail")
	}
	if !strings.Contains(err.Error(), "secret is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAccessConfig_TokenModeValid(t *testing.T) {
	cfg := AccessConfig{Mode: AccessModeToken, Secret: "s3cret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with secret should pass: %v", err)
	}
	if cfg.Demo() {
		t.Error("token mode should not be demo")
	}
}

func TestAccessConfig_InvalidValues(t *testing.T) {
	if err := (&AccessConfig{Mode: "magic"}).Validate(); err == nil {
		t.Error("invalid mode should fail validation")
	}
	if err := (&AccessConfig{DefaultTier: "gold"}).Validate(); err == nil {
		t.Error("invalid default tier should fail validation")
	}
}

func TestStorageConfig_BackendRequirements(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Storage.Backend = storage.BackendRedis
	if err := cfg.Validate(); err == nil {
		t.Fatal("redis backend without addr should fail")
	}
	cfg.Storage.Redis.Addr = "localhost:6379"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("redis backend with addr should pass: %v", err)
	}

	cfg.Storage.Backend = storage.BackendSQLite
	cfg.Storage.SQLitePath = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("sqlite backend without path should fail")
	}

	cfg.Storage.Backend = "s3"
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown backend should fail")
	}
}

func TestAIConfig_Validation(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.AI.Timeout = 10 * time.Millisecond
	if err := cfg.Validate(); err == nil {
		t.Error("sub-second timeout should fail")
	}
	cfg = NewDefaultConfig()
	cfg.AI.Temperature = 3
	if err := cfg.Validate(); err == nil {
		t.Error("temperature above 2 should fail")
	}
}

func TestApplicationConfig_Validation(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.App.LogFormat = "xml"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown log format should fail")
	}
	cfg = NewDefaultConfig()
	cfg.App.HTTP.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Error("port 0 should fail")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("PLANINSTA_AI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "google-key")
	t.Setenv("OPENAI_BASE_URL", "http://localhost:9999/v1")
	t.Setenv("OPENAI_MODEL_NAME", "local-model")

	cfg := NewDefaultConfig()
	cfg.ApplyEnv()
	if cfg.AI.APIKey != "google-key" {
		t.Errorf("api key = %q, want google-key", cfg.AI.APIKey)
	}
	if cfg.AI.BaseURL != "http://localhost:9999/v1" {
		t.Errorf("base url = %q", cfg.AI.BaseURL)
	}
	if cfg.AI.Model != "local-model" {
		t.Errorf("model = %q", cfg.AI.Model)
	}

	t.Setenv("PLANINSTA_AI_API_KEY", "own-key")
	cfg = NewDefaultConfig()
	cfg.ApplyEnv()
	if cfg.AI.APIKey != "own-key" {
		t.Errorf("api key = %q, want own-key", cfg.AI.APIKey)
	}
}

func TestApplyEnv_FileWins(t *testing.T) {
	t.Setenv("PLANINSTA_AI_API_KEY", "env-key")
	cfg := NewDefaultConfig()
	cfg.AI.APIKey = "file-key"
	cfg.ApplyEnv()
	if cfg.AI.APIKey != "file-key" {
		t.Errorf("api key = %q, want file-key", cfg.AI.APIKey)
	}
}
