package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"CLAIMAUDIT_ADDR", "NARRATIVE_TIMEOUT", "OCR_URL", "NARRATIVE_API_KEY", "OPENAI_API_KEY", "KAFKA_TOPIC"} {
		t.Setenv(key, "")
	}
	cfg := FromEnv()
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 60*time.Second, cfg.Narrative.Timeout)
	assert.Equal(t, 20*time.Second, cfg.OCR.Timeout)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, 720*time.Hour, cfg.Redis.FingerprintTTL)
	assert.Equal(t, "claim-assessments", cfg.Kafka.Topic)
	assert.Empty(t, cfg.OCR.URL)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("CLAIMAUDIT_ADDR", ":9090")
	t.Setenv("NARRATIVE_TIMEOUT", "45")
	t.Setenv("OCR_TIMEOUT", "5s")
	t.Setenv("NORMALIZE_CONCURRENCY", "not-a-number")
	t.Setenv("NARRATIVE_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg := FromEnv()
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 45*time.Second, cfg.Narrative.Timeout)
	assert.Equal(t, 5*time.Second, cfg.OCR.Timeout)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, "sk-test", cfg.Narrative.APIKey)
}
