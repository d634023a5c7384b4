package internal

import (
	"log/slog"

	"github.com/starford/planinsta/internal/planservice"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	ai     planservice.AI
	logger *slog.Logger
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithGateway replaces the language model client built from configuration.
func WithGateway(ai planservice.AI) Option {
	return func(a *application) {
		a.ai = ai
	}
}

// WithLogger replaces the logger built from configuration.
func WithLogger(logger *slog.Logger) Option {
	return func(a *application) {
		a.logger = logger
	}
}
