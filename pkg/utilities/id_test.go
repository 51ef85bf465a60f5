package utilities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSnowflakeIDIsUnique(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := NewSnowflakeIDWithNode(3)
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestNewSnowflakeIDFallsBackToKSUID(t *testing.T) {
	// node ids are 10 bits wide; 5000 cannot be initialized
	id := NewSnowflakeIDWithNode(5000)
	assert.Len(t, id, 27)
}

func TestNewSnowflakeIDReadsNodeFromEnv(t *testing.T) {
	t.Setenv("SNOWFLAKE_NODE", "not-a-number")
	assert.NotEmpty(t, NewSnowflakeID())

	t.Setenv("SNOWFLAKE_NODE", "7")
	assert.NotEmpty(t, NewSnowflakeID())
}

func TestLevelFromString(t *testing.T) {
	assert.Equal(t, "debug", levelFromString("debug").String())
	assert.Equal(t, "warn", levelFromString("warning").String())
	assert.Equal(t, "info", levelFromString("nope").String())
}

func TestConfigFromEnvDefaults(t *testing.T) {
	t.Setenv("LOG_DEV", "1")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FILE", "")
	cfg := ConfigFromEnv()
	assert.True(t, cfg.Dev)
	assert.Equal(t, "debug", cfg.Level)
	assert.Empty(t, cfg.File)
}
