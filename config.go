package persistent

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/lixenwraith/config"
)

// RetentionPeriod enumerates how long day-split log files are kept.
type RetentionPeriod int

const (
	RetentionUnlimited RetentionPeriod = iota
	RetentionThreeDays
	RetentionOneWeek
	RetentionTwoWeeks
	RetentionOneMonth
)

// Duration returns the retention window; zero means unlimited retention.
func (r RetentionPeriod) Duration() time.Duration {
	switch r {
	case RetentionThreeDays:
		return 3 * 24 * time.Hour
	case RetentionOneWeek:
		return 7 * 24 * time.Hour
	case RetentionTwoWeeks:
		return 14 * 24 * time.Hour
	case RetentionOneMonth:
		return 30 * 24 * time.Hour
	default:
		return 0
	}
}

// String returns the config spelling of the retention period.
func (r RetentionPeriod) String() string {
	switch r {
	case RetentionThreeDays:
		return "3d"
	case RetentionOneWeek:
		return "1w"
	case RetentionTwoWeeks:
		return "2w"
	case RetentionOneMonth:
		return "1m"
	default:
		return ""
	}
}

// ParseRetention converts a retention string to its enum value.
// The empty string means unlimited retention.
func ParseRetention(s string) (RetentionPeriod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return RetentionUnlimited, nil
	case "3d":
		return RetentionThreeDays, nil
	case "1w":
		return RetentionOneWeek, nil
	case "2w":
		return RetentionTwoWeeks, nil
	case "1m":
		return RetentionOneMonth, nil
	default:
		return 0, fmtErrorf("invalid retention period: '%s' (use 3d, 1w, 2w, 1m or empty)", s)
	}
}

// Config holds all history configuration values. The toggles are mutually
// independent; see DefaultConfig for the defaults.
type Config struct {
	// File naming and formatting
	Extension       string `toml:"extension"`        // File extension without dot
	TimestampFormat string `toml:"timestamp_format"` // Time format for block headers

	// Buffering and capacity
	BufferSize       int64 `toml:"buffer_size"`         // 0 = flush every record
	FlushOnError     bool  `toml:"flush_on_error"`      // Flush immediately on error/critical
	MaxCapacity      int64 `toml:"max_capacity"`        // Bound for store records and count rotation
	MaxFileSizeBytes int64 `toml:"max_file_size_bytes"` // 0 = size rotation disabled

	// Sinks
	EnableStore bool `toml:"enable_store"` // Embedded record store sink
	EnableFile  bool `toml:"enable_file"`  // On-disk file sink

	// Day splitting and retention
	SplitByDay      bool   `toml:"split_by_day"`     // One file per calendar date
	RetentionPeriod string `toml:"retention_period"` // "3d", "1w", "2w", "1m", "" = unlimited

	// Concurrency
	UseWorker bool `toml:"use_worker"` // false = direct synchronous file I/O

	// Internal error handling
	InternalErrorsToStderr bool `toml:"internal_errors_to_stderr"`
}

// defaultConfig is the single source for all configurable default values
var defaultConfig = Config{
	Extension:       "log",
	TimestampFormat: time.RFC3339Nano,

	BufferSize:       0,
	FlushOnError:     true,
	MaxCapacity:      1000,
	MaxFileSizeBytes: 0,

	EnableStore: true,
	EnableFile:  true,

	SplitByDay:      false,
	RetentionPeriod: "",

	UseWorker: true,

	InternalErrorsToStderr: false,
}

// DefaultConfig returns a copy of the default configuration
func DefaultConfig() *Config {
	copiedConfig := defaultConfig
	return &copiedConfig
}

// Clone returns a copy of the configuration
func (c *Config) Clone() *Config {
	copied := *c
	return &copied
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if c.BufferSize < 0 {
		return fmtErrorf("buffer_size cannot be negative: %d", c.BufferSize)
	}
	if c.MaxCapacity < 0 {
		return fmtErrorf("max_capacity cannot be negative: %d", c.MaxCapacity)
	}
	if c.MaxFileSizeBytes < 0 {
		return fmtErrorf("max_file_size_bytes cannot be negative: %d", c.MaxFileSizeBytes)
	}
	if strings.HasPrefix(c.Extension, ".") {
		return fmtErrorf("extension should not start with dot: %s", c.Extension)
	}
	if _, err := ParseRetention(c.RetentionPeriod); err != nil {
		return err
	}
	return nil
}

// retention returns the parsed retention enum; validation has already
// rejected unparsable values.
func (c *Config) retention() RetentionPeriod {
	r, err := ParseRetention(c.RetentionPeriod)
	if err != nil {
		return RetentionUnlimited
	}
	return r
}

// NewConfigFromFile loads configuration from a TOML file and returns a
// validated Config. Missing file falls back to defaults.
func NewConfigFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	loader := config.New()
	if err := loader.RegisterStruct("history.", *cfg); err != nil {
		return nil, fmtErrorf("failed to register config struct: %w", err)
	}
	if err := loader.Load(path, nil); err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return nil, fmtErrorf("failed to load config from %s: %w", path, err)
	}
	if err := extractConfig(loader, "history.", cfg); err != nil {
		return nil, fmtErrorf("failed to extract config values: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// extractConfig copies values from the loader into the Config struct, keyed
// by toml tags.
func extractConfig(loader *config.Config, prefix string, cfg *Config) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tomlTag := field.Tag.Get("toml")
		if tomlTag == "" {
			continue
		}

		val, found := loader.Get(prefix + tomlTag)
		if !found {
			continue
		}
		if err := setFieldValue(v.Field(i), val); err != nil {
			return fmt.Errorf("failed to set field %s: %w", field.Name, err)
		}
	}
	return nil
}

// setFieldValue assigns a loader value to a struct field with type conversion.
func setFieldValue(field reflect.Value, val any) error {
	switch field.Kind() {
	case reflect.String:
		s, ok := val.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", val)
		}
		field.SetString(s)
	case reflect.Bool:
		b, ok := val.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", val)
		}
		field.SetBool(b)
	case reflect.Int64, reflect.Int:
		switch n := val.(type) {
		case int64:
			field.SetInt(n)
		case int:
			field.SetInt(int64(n))
		case float64:
			field.SetInt(int64(n))
		default:
			return fmt.Errorf("expected integer, got %T", val)
		}
	default:
		return fmt.Errorf("unsupported field kind %s", field.Kind())
	}
	return nil
}

// applyConfigField applies one "key=value" override to the Config struct.
func applyConfigField(cfg *Config, key, value string) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Tag.Get("toml") != key {
			continue
		}

		fv := v.Field(i)
		switch fv.Kind() {
		case reflect.String:
			fv.SetString(value)
		case reflect.Bool:
			b, err := strconv.ParseBool(value)
			if err != nil {
				return fmtErrorf("invalid bool value for '%s': %s", key, value)
			}
			fv.SetBool(b)
		case reflect.Int64, reflect.Int:
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmtErrorf("invalid integer value for '%s': %s", key, value)
			}
			fv.SetInt(n)
		}
		return nil
	}
	return fmtErrorf("unknown config key: '%s'", key)
}

// parseKeyValue splits a "key=value" override string.
func parseKeyValue(arg string) (string, string, error) {
	parts := strings.SplitN(strings.TrimSpace(arg), "=", 2)
	if len(parts) != 2 {
		return "", "", fmtErrorf("invalid format in override string '%s', expected key=value", arg)
	}
	key := strings.TrimSpace(parts[0])
	value := strings.TrimSpace(parts[1])
	if key == "" {
		return "", "", fmtErrorf("key cannot be empty in override string '%s'", arg)
	}
	return key, value, nil
}
