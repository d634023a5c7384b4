package internal

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/planinsta/internal/access"
	"github.com/starford/planinsta/internal/logging"
	"github.com/starford/planinsta/internal/prefs"
	"github.com/starford/planinsta/internal/storage"
	"github.com/starford/planinsta/internal/store"
)

// Access modes.
const (
	AccessModeDemo  = "demo"
	AccessModeToken = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Storage StorageConfig     `yaml:"storage"`
	AI      AIConfig          `yaml:"ai"`
	Access  AccessConfig      `yaml:"access"`
	Events  EventsConfig      `yaml:"events"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.AI.Validate(); err != nil {
		return fmt.Errorf("ai: %w", err)
	}
	return c.Access.Validate()
}

// ApplyEnv fills the AI credential from the environment when the file left it
// empty. OPENAI_BASE_URL and OPENAI_MODEL_NAME always override.
func (c *Config) ApplyEnv() {
	if c.AI.APIKey == "" {
		c.AI.APIKey = firstEnv("PLANINSTA_AI_API_KEY", "GOOGLE_API_KEY")
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.AI.BaseURL = v
	}
	if v := os.Getenv("OPENAI_MODEL_NAME"); v != "" {
		c.AI.Model = v
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel  slog.Level `yaml:"log_level"`
	LogFormat string     `yaml:"log_format"`
	Theme     string     `yaml:"theme"`
	HTTP      HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.In(logging.FormatJSON, logging.FormatConsole)),
		validation.Field(&c.Theme, validation.In(prefs.ThemeLight, prefs.ThemeDark)),
	); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StorageConfig selects where the plan slot lives.
type StorageConfig struct {
	Backend    string      `yaml:"backend"`
	Path       string      `yaml:"path"`
	SQLitePath string      `yaml:"sqlite_path"`
	Redis      RedisConfig `yaml:"redis"`
	Key        string      `yaml:"key"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required, validation.In(storage.BackendFile, storage.BackendSQLite, storage.BackendRedis)),
		validation.Field(&c.Key, validation.Required),
		validation.Field(&c.Path, validation.When(c.Backend == storage.BackendFile, validation.Required)),
		validation.Field(&c.SQLitePath, validation.When(c.Backend == storage.BackendSQLite, validation.Required)),
		validation.Field(&c.Redis, validation.By(func(any) error {
			if c.Backend == storage.BackendRedis && c.Redis.Addr == "" {
				return fmt.Errorf("addr is required for the redis backend")
			}
			return nil
		})),
	)
}

// AIConfig configures the language model client. An empty APIKey disables AI features.
type AIConfig struct {
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Validate validates the AI configuration.
func (c *AIConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Model, validation.Required),
		validation.Field(&c.Temperature, validation.Min(float32(0)), validation.Max(float32(2))),
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Second)),
	)
}

// AccessConfig controls how callers obtain a tier.
//
// Mode controls how tiers are granted:
//   - "demo" (default): anyone may request a token for any tier via the API.
//     Secret may be empty, a random one is generated per process.
//   - "token": tokens are minted offline with `planinsta token`; Secret is required.
type AccessConfig struct {
	Mode        string        `yaml:"mode"`
	Secret      string        `yaml:"secret"`
	DefaultTier string        `yaml:"default_tier"`
	TokenTTL    time.Duration `yaml:"token_ttl"`
}

// Validate validates the access configuration.
func (c *AccessConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AccessModeDemo
	}
	if c.DefaultTier == "" {
		c.DefaultTier = string(access.TierFree)
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AccessModeDemo, AccessModeToken)),
		validation.Field(&c.DefaultTier, validation.In(string(access.TierFree), string(access.TierPaid))),
		validation.Field(&c.TokenTTL, validation.Min(time.Duration(0))),
	); err != nil {
		return fmt.Errorf("access: %w", err)
	}
	if c.Mode == AccessModeToken && c.Secret == "" {
		return fmt.Errorf("access: mode is %q but secret is empty", AccessModeToken)
	}
	return nil
}

// Demo reports whether the API may mint tokens.
func (c *AccessConfig) Demo() bool {
	return c.Mode == AccessModeDemo
}

// EventsConfig tunes the SSE broker.
type EventsConfig struct {
	Throttle time.Duration `yaml:"throttle"`
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel:  slog.LevelInfo,
			LogFormat: logging.FormatJSON,
			Theme:     prefs.ThemeLight,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Storage: StorageConfig{
			Backend:    storage.BackendFile,
			Path:       "./data",
			SQLitePath: "./planinsta.db",
			Key:        store.DefaultKey,
		},
		AI: AIConfig{
			BaseURL:     "https://generativelanguage.googleapis.com/v1beta/openai/",
			Model:       "gemini-2.0-flash",
			Temperature: 0.7,
			Timeout:     2 * time.Minute,
		},
		Access: AccessConfig{
			Mode:        AccessModeDemo,
			DefaultTier: string(access.TierFree),
			TokenTTL:    30 * 24 * time.Hour,
		},
		Events: EventsConfig{
			Throttle: 2 * time.Second,
		},
	}
}
