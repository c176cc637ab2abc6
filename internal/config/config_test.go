package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetters(t *testing.T) {
	t.Setenv("DONAID_TEST_STR", "value")
	t.Setenv("DONAID_TEST_INT", "42")
	t.Setenv("DONAID_TEST_BAD_INT", "forty")
	t.Setenv("DONAID_TEST_FLOAT", "2.5")
	t.Setenv("DONAID_TEST_DUR", "90s")
	t.Setenv("DONAID_TEST_BOOL", "true")

	assert.Equal(t, "value", GetEnv("DONAID_TEST_STR", "x"))
	assert.Equal(t, "x", GetEnv("DONAID_TEST_MISSING", "x"))
	assert.Equal(t, 42, GetIntEnv("DONAID_TEST_INT", 1))
	assert.Equal(t, 1, GetIntEnv("DONAID_TEST_BAD_INT", 1))
	assert.Equal(t, 2.5, GetFloatEnv("DONAID_TEST_FLOAT", 0))
	assert.Equal(t, 90*time.Second, GetDurationEnv("DONAID_TEST_DUR", time.Second))
	assert.True(t, GetBoolEnv("DONAID_TEST_BOOL", false))
	assert.False(t, GetBoolEnv("DONAID_TEST_MISSING", false))
}

func TestStatsStore(t *testing.T) {
	t.Setenv("STATS_STORE", "Mongo")
	assert.Equal(t, "mongo", StatsStore())

	t.Setenv("STATS_STORE", "")
	assert.Equal(t, "postgres", StatsStore())
}
