package persistent

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "log", cfg.Extension)
	assert.Equal(t, time.RFC3339Nano, cfg.TimestampFormat)
	assert.Equal(t, int64(0), cfg.BufferSize)
	assert.True(t, cfg.FlushOnError)
	assert.Equal(t, int64(1000), cfg.MaxCapacity)
	assert.True(t, cfg.EnableStore)
	assert.True(t, cfg.EnableFile)
	assert.False(t, cfg.SplitByDay)
	assert.True(t, cfg.UseWorker)
	require.NoError(t, cfg.Validate())
}

func TestConfigCloneIsIndependent(t *testing.T) {
	cfg := DefaultConfig()
	clone := cfg.Clone()
	clone.BufferSize = 99
	clone.Extension = "txt"
	assert.Equal(t, int64(0), cfg.BufferSize)
	assert.Equal(t, "log", cfg.Extension)
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative buffer", func(c *Config) { c.BufferSize = -1 }},
		{"negative capacity", func(c *Config) { c.MaxCapacity = -5 }},
		{"negative file size", func(c *Config) { c.MaxFileSizeBytes = -1 }},
		{"dotted extension", func(c *Config) { c.Extension = ".log" }},
		{"bad retention", func(c *Config) { c.RetentionPeriod = "6d" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestParseRetention(t *testing.T) {
	cases := []struct {
		in   string
		want RetentionPeriod
		days int
	}{
		{"", RetentionUnlimited, 0},
		{"3d", RetentionThreeDays, 3},
		{"1w", RetentionOneWeek, 7},
		{"2w", RetentionTwoWeeks, 14},
		{"1m", RetentionOneMonth, 30},
		{" 1W ", RetentionOneWeek, 7},
	}
	for _, tc := range cases {
		got, err := ParseRetention(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
		assert.Equal(t, time.Duration(tc.days)*24*time.Hour, got.Duration())
	}

	_, err := ParseRetention("forever")
	assert.Error(t, err)
}

func TestRetentionStringRoundTrip(t *testing.T) {
	for _, r := range []RetentionPeriod{
		RetentionUnlimited, RetentionThreeDays, RetentionOneWeek,
		RetentionTwoWeeks, RetentionOneMonth,
	} {
		parsed, err := ParseRetention(r.String())
		require.NoError(t, err)
		assert.Equal(t, r, parsed)
	}
}

func TestApplyConfigField(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, applyConfigField(cfg, "buffer_size", "25"))
	require.NoError(t, applyConfigField(cfg, "split_by_day", "true"))
	require.NoError(t, applyConfigField(cfg, "extension", "txt"))
	assert.Equal(t, int64(25), cfg.BufferSize)
	assert.True(t, cfg.SplitByDay)
	assert.Equal(t, "txt", cfg.Extension)

	assert.Error(t, applyConfigField(cfg, "buffer_size", "lots"))
	assert.Error(t, applyConfigField(cfg, "use_worker", "maybe"))
	assert.Error(t, applyConfigField(cfg, "no_such_key", "1"))
}

func TestParseKeyValue(t *testing.T) {
	key, value, err := parseKeyValue(" buffer_size = 10 ")
	require.NoError(t, err)
	assert.Equal(t, "buffer_size", key)
	assert.Equal(t, "10", value)

	_, _, err = parseKeyValue("no-equals-sign")
	assert.Error(t, err)
	_, _, err = parseKeyValue("=value")
	assert.Error(t, err)
}

func TestNewConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.toml")
	data := `[history]
buffer_size = 5
flush_on_error = false
split_by_day = true
retention_period = "1w"
extension = "txt"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := NewConfigFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, int64(5), cfg.BufferSize)
	assert.False(t, cfg.FlushOnError)
	assert.True(t, cfg.SplitByDay)
	assert.Equal(t, "1w", cfg.RetentionPeriod)
	assert.Equal(t, "txt", cfg.Extension)
	// Untouched keys keep their defaults
	assert.Equal(t, int64(1000), cfg.MaxCapacity)
}

func TestNewConfigFromFileMissing(t *testing.T) {
	cfg, err := NewConfigFromFile(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestNewConfigFromFileInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.toml")
	data := `[history]
retention_period = "6d"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	_, err := NewConfigFromFile(path)
	assert.Error(t, err)
}
