package observability

import (
	"strings"

	"github.com/solobill/solobill/internal/config"
)

// Config holds observability configuration derived from environment
// and application config.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string
}

func LoadConfig(cfg config.Config) Config {
	serviceName := strings.TrimSpace(cfg.AppName)
	if serviceName == "" {
		serviceName = "solobill"
	}

	return Config{
		ServiceName: serviceName,
		Environment: strings.TrimSpace(cfg.Environment),
		Version:     strings.TrimSpace(cfg.AppVersion),
		LogLevel:    "info",
		LogFormat:   "json",
	}
}

// Debug reports whether the service runs in a non-production environment.
func (c Config) Debug() bool {
	return c.Environment != "production"
}
