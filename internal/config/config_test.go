package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "deny", cfg.Access.Policy)
	assert.Equal(t, []string{"product", "region"}, cfg.Access.Controlled)
	assert.Equal(t, time.Minute, cfg.Access.GrantCacheTTL)
	assert.False(t, cfg.MQTT.Enabled)
	assert.Equal(t, "planner:events", cfg.Events.Stream)
	assert.False(t, cfg.LLM.Enabled())
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "planner.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  addr: ":9090"
db_enabled: false
access:
  policy: allow
  controlled: [product]
  grant_cache_ttl: 5m
llm:
  base_url: http://llm.local/v1
  model: local-model
mqtt:
  enabled: true
  broker: tcp://broker:1883
  topic_prefix: plan
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("HTTP_ADDR", ":7070")
	t.Setenv("ACCESS_CONTROLLED_DIMENSIONS", "product, region ,time")
	t.Setenv("DB_HOST", "db.internal")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.HTTP.Addr)
	assert.False(t, cfg.DBEnabled)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "allow", cfg.Access.Policy)
	assert.Equal(t, []string{"product", "region", "time"}, cfg.Access.Controlled)
	assert.Equal(t, 5*time.Minute, cfg.Access.GrantCacheTTL)
	assert.True(t, cfg.LLM.Enabled())
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, "tcp://broker:1883", cfg.MQTT.Broker)
	assert.Equal(t, "plan", cfg.MQTT.TopicPrefix)
}

func TestLoad_BadFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	assert.Error(t, err)
}
