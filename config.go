package inject

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the file form of kernel options.
//
//	freeze_policy: constructed   # or "any"
//	log_level: debug             # debug, info, warn, error
type Config struct {
	FreezePolicy string `yaml:"freeze_policy"`
	LogLevel     string `yaml:"log_level"`

	policy FreezePolicy
	level  slog.Level
}

// LoadConfig decodes and validates a YAML kernel configuration.
// An empty document yields the defaults.
func LoadConfig(r io.Reader) (*Config, error) {
	cfg := &Config{}

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode kernel config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	policy, err := ParseFreezePolicy(c.FreezePolicy)
	if err != nil {
		return fmt.Errorf("invalid kernel config: %w", err)
	}
	c.policy = policy

	c.level = slog.LevelInfo
	if c.LogLevel != "" {
		if err := c.level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
			return fmt.Errorf("invalid kernel config: log_level: %w", err)
		}
	}

	return nil
}

// Options converts the configuration into kernel options. Kernel logs
// below the configured level are discarded; logger defaults to slog.Default.
func (c *Config) Options(logger *slog.Logger) []Option {
	if logger == nil {
		logger = slog.Default()
	}

	return []Option{
		WithFreezePolicy(c.policy),
		WithLogger(slog.New(&levelHandler{level: c.level, next: logger.Handler()})),
	}
}

// levelHandler raises the minimum level of the handler it wraps.
type levelHandler struct {
	level slog.Leveler
	next  slog.Handler
}

func (h *levelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level.Level() && h.next.Enabled(ctx, level)
}

func (h *levelHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.next.Handle(ctx, r)
}

func (h *levelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelHandler{level: h.level, next: h.next.WithAttrs(attrs)}
}

func (h *levelHandler) WithGroup(name string) slog.Handler {
	return &levelHandler{level: h.level, next: h.next.WithGroup(name)}
}
