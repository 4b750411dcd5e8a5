package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModerationValidate(t *testing.T) {
	assert.NoError(t, DefaultModeration().Validate())
	assert.ErrorIs(t, Moderation{SuspendThreshold: 3, RemoveThreshold: 3}.Validate(), ErrConfiguration)
	assert.ErrorIs(t, Moderation{SuspendThreshold: 4, RemoveThreshold: 2}.Validate(), ErrConfiguration)
	assert.ErrorIs(t, Moderation{SuspendThreshold: 0, RemoveThreshold: 2}.Validate(), ErrConfiguration)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORAGE", "memory")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("REPORT_SUSPEND_THRESHOLD", "")
	t.Setenv("REPORT_REMOVE_THRESHOLD", "")
	t.Setenv("OUTBOX_INTERVAL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage)
	assert.Equal(t, DefaultModeration(), cfg.Moderation)
	assert.Equal(t, time.Second, cfg.OutboxInterval)
	assert.False(t, cfg.KafkaEnabled())
}

func TestLoadRejectsBadThresholds(t *testing.T) {
	t.Setenv("STORAGE", "memory")
	t.Setenv("REPORT_SUSPEND_THRESHOLD", "5")
	t.Setenv("REPORT_REMOVE_THRESHOLD", "4")

	_, err := Load()
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestLoadRejectsNonInteger(t *testing.T) {
	t.Setenv("STORAGE", "memory")
	t.Setenv("REPORT_SUSPEND_THRESHOLD", "two")

	_, err := Load()
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestLoadKafkaBrokers(t *testing.T) {
	t.Setenv("STORAGE", "memory")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled())
}
