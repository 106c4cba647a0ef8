// Package config reads the function's cold-start configuration.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

const (
	EnvTableName           = "FEEDBACK_TABLE_NAME"
	EnvAllowedOrigins      = "CORS_ALLOWED_ORIGINS"
	EnvAllowedOriginsParam = "CORS_ALLOWED_ORIGINS_PARAM"
	EnvLogLevel            = "LOG_LEVEL"
)

// ParamGetter resolves a single SSM parameter value.
type ParamGetter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// Config is read once per process.
type Config struct {
	TableName           string
	AllowedOrigins      []string
	AllowedOriginsParam string
	LogLevel            slog.Level
}

// FromEnv builds a Config from lookup, which is usually os.Getenv.
func FromEnv(lookup func(string) string) (Config, error) {
	cfg := Config{
		TableName:           strings.TrimSpace(lookup(EnvTableName)),
		AllowedOrigins:      ParseOrigins(lookup(EnvAllowedOrigins)),
		AllowedOriginsParam: strings.TrimSpace(lookup(EnvAllowedOriginsParam)),
		LogLevel:            ParseLevel(lookup(EnvLogLevel)),
	}
	if cfg.TableName == "" {
		return Config{}, fmt.Errorf("config: %s is required", EnvTableName)
	}
	if len(cfg.AllowedOrigins) == 0 && cfg.AllowedOriginsParam == "" {
		return Config{}, fmt.Errorf("config: one of %s or %s is required", EnvAllowedOrigins, EnvAllowedOriginsParam)
	}
	return cfg, nil
}

// NeedsParamStore reports whether origins still have to be fetched from SSM.
func (c Config) NeedsParamStore() bool {
	return len(c.AllowedOrigins) == 0 && c.AllowedOriginsParam != ""
}

// ResolveOrigins fills AllowedOrigins from SSM when the environment did not
// provide them directly.
func (c *Config) ResolveOrigins(ctx context.Context, params ParamGetter) error {
	if !c.NeedsParamStore() {
		return nil
	}
	if params == nil {
		return errors.New("config: param getter must not be nil")
	}
	raw, err := params.GetParameter(ctx, c.AllowedOriginsParam)
	if err != nil {
		return fmt.Errorf("config: load allowed origins: %w", err)
	}
	origins := ParseOrigins(raw)
	if len(origins) == 0 {
		return fmt.Errorf("config: parameter %q holds no origins", c.AllowedOriginsParam)
	}
	c.AllowedOrigins = origins
	return nil
}

// ParseOrigins splits a comma-separated origin list, dropping blanks and
// trailing slashes.
func ParseOrigins(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}

func ParseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
