package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	commoncfg "github.com/raviakasapu/generative-planner-vision-sub000/common/config"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config planner-data（HTTP API）配置
type Config struct {
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	DBEnabled bool                     `yaml:"db_enabled"`
	Database  commoncfg.DatabaseConfig `yaml:"database"`
	Redis     commoncfg.RedisConfig    `yaml:"redis"`
	Log       struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Access AccessConfig        `yaml:"access"`
	LLM    commoncfg.LLMConfig `yaml:"llm"`
	MQTT   MQTTConfig          `yaml:"mqtt"`
	Events EventsConfig        `yaml:"events"`
}

// AccessConfig 维度访问控制配置
type AccessConfig struct {
	Policy        string        `yaml:"policy"`          // deny | allow
	Controlled    []string      `yaml:"controlled"`      // 受控维度类型
	GrantCacheTTL time.Duration `yaml:"grant_cache_ttl"` // 0 关闭缓存
	SessionIdle   time.Duration `yaml:"session_idle"`    // grid 会话空闲过期
}

// MQTTConfig MQTT 事件发布配置（默认关闭）
type MQTTConfig struct {
	commoncfg.MQTTConfig `yaml:",inline"`
	Enabled              bool   `yaml:"enabled"`
	TopicPrefix          string `yaml:"topic_prefix"`
}

// EventsConfig Redis Streams 事件配置
type EventsConfig struct {
	StreamEnabled bool   `yaml:"stream_enabled"`
	Stream        string `yaml:"stream"`
}

// Load reads .env (when present), then the YAML file named by CONFIG_FILE,
// then environment variables. Later sources win.
func Load() (*Config, error) {
	return LoadFile(os.Getenv("CONFIG_FILE"))
}

// LoadFile is Load with an explicit YAML path. An empty path skips the file.
func LoadFile(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = ":8080"
	// Default to true for local dev: if DB is unavailable, planner-data falls back to memory repositories.
	cfg.DBEnabled = true
	cfg.Database = commoncfg.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		Database: "planner",
		SSLMode:  "disable",
		MaxConns: 25,
		MaxIdle:  5,
	}
	cfg.Redis.Addr = "localhost:6379"
	cfg.Log.Level = "info"
	cfg.Log.Format = "json"

	cfg.Access.Policy = "deny"
	cfg.Access.Controlled = []string{"product", "region"}
	cfg.Access.GrantCacheTTL = 60 * time.Second
	cfg.Access.SessionIdle = 30 * time.Minute

	cfg.LLM.Model = "gpt-4o-mini"
	cfg.LLM.Timeout = 30 * time.Second
	cfg.LLM.RetryCount = 2

	cfg.MQTT.Broker = "tcp://localhost:1883"
	cfg.MQTT.ClientID = "planner-data"
	cfg.MQTT.QoS = 1
	cfg.MQTT.TopicPrefix = "planner/events"

	cfg.Events.StreamEnabled = true
	cfg.Events.Stream = "planner:events"
	return cfg
}

func (c *Config) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.HTTP.Addr = getEnv("HTTP_ADDR", c.HTTP.Addr)
	c.DBEnabled = parseBool(getEnv("DB_ENABLED", ""), c.DBEnabled)
	c.Database.LoadFromEnv("DB")
	c.Redis.LoadFromEnv("REDIS")
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)

	c.Access.Policy = getEnv("ACCESS_POLICY", c.Access.Policy)
	if v := getEnv("ACCESS_CONTROLLED_DIMENSIONS", ""); v != "" {
		c.Access.Controlled = splitList(v)
	}
	c.Access.GrantCacheTTL = parseDuration(getEnv("ACCESS_GRANT_CACHE_TTL", ""), c.Access.GrantCacheTTL)
	c.Access.SessionIdle = parseDuration(getEnv("GRID_SESSION_IDLE", ""), c.Access.SessionIdle)

	c.LLM.LoadFromEnv("LLM")

	c.MQTT.Enabled = parseBool(getEnv("MQTT_ENABLED", ""), c.MQTT.Enabled)
	c.MQTT.MQTTConfig.LoadFromEnv("MQTT")
	c.MQTT.TopicPrefix = getEnv("MQTT_TOPIC_PREFIX", c.MQTT.TopicPrefix)

	c.Events.StreamEnabled = parseBool(getEnv("EVENTS_STREAM_ENABLED", ""), c.Events.StreamEnabled)
	c.Events.Stream = getEnv("EVENTS_STREAM", c.Events.Stream)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseBool(s string, def bool) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return b
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

func splitList(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
