package config

import (
	"time"

	"github.com/caarlos0/env"
)

type Config struct {
	ApiPort                  string        `env:"API_PORT" envDefault:"8001"`
	RelayPort                string        `env:"RELAY_PORT" envDefault:"8002"`
	PostgresqlHosts          string        `env:"POSTGRESQL_HOSTS" envSeparator:":" envDefault:"localhost"`
	PostgresqlDbName         string        `env:"POSTGRESQL_DB_NAME" envDefault:"postgres"`
	PostgresqlUsername       string        `env:"POSTGRESQL_USERNAME"`
	PostgresqlPassword       string        `env:"POSTGRESQL_PASSWORD"`
	PostgresqlSslMode        string        `env:"POSTGRESQL_SSL_MODE" envDefault:"disable"`
	PostgresqlPort           string        `env:"POSTGRESQL_PORT" envDefault:"5432"`
	PostgresqlReadTimeout    time.Duration `env:"POSTGRESQL_READ_TIME_OUT" envDefault:"2s"`
	PostgresqlWriteTimeout   time.Duration `env:"POSTGRESQL_WRITE_TIME_OUT" envDefault:"1s"`
	RedisHosts               string        `env:"REDIS_HOSTS" envSeparator:":" envDefault:"localhost"`
	RedisPort                string        `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword            string        `env:"REDIS_PASSWORD"`
	RedisReadTimeout         time.Duration `env:"REDIS_READ_TIME_OUT" envDefault:"1s"`
	RedisWriteTimeout        time.Duration `env:"REDIS_WRITE_TIME_OUT" envDefault:"500ms"`
	SettingsCacheTtl         time.Duration `env:"SETTINGS_CACHE_TTL" envDefault:"1h"`
	SessionCacheTtl          time.Duration `env:"SESSION_CACHE_TTL" envDefault:"24h"`
	InMemoryDbUpdateInterval time.Duration `env:"IN_MEMORY_DB_UPDATE_INTERVAL" envDefault:"5s"`
	OpenAiKey                string        `env:"OPENAI_API_KEY"`
	ChatEndpoint             string        `env:"CHAT_ENDPOINT" envDefault:"https://api.openai.com/v1/chat/completions"`
	SpeechEndpoint           string        `env:"SPEECH_ENDPOINT" envDefault:"https://api.openai.com/v1/audio/speech"`
	ChatModel                string        `env:"CHAT_MODEL" envDefault:"gpt-3.5-turbo"`
	ChatTemperature          float64       `env:"CHAT_TEMPERATURE" envDefault:"0.7"`
	VisionModel              string        `env:"VISION_MODEL" envDefault:"gpt-4o"`
	VisionMaxTokens          int           `env:"VISION_MAX_TOKENS" envDefault:"500"`
	SpeechModel              string        `env:"SPEECH_MODEL" envDefault:"tts-1"`
	SpeechVoice              string        `env:"SPEECH_VOICE" envDefault:"nova"`
	SpeechResponseFormat     string        `env:"SPEECH_RESPONSE_FORMAT" envDefault:"mp3"`
	UpstreamTimeout          time.Duration `env:"UPSTREAM_TIME_OUT" envDefault:"180s"`
	PersonaCatalogPath       string        `env:"PERSONA_CATALOG_PATH" envDefault:"personas.yaml"`
	PersonaCatalogWatch      bool          `env:"PERSONA_CATALOG_WATCH" envDefault:"false"`
	TelemetryProvider        string        `env:"TELEMETRY_PROVIDER" envDefault:"statsd"`
	StatsEnabled             bool          `env:"STATS_ENABLED" envDefault:"false"`
	StatsAddress             string        `env:"STATS_ADDRESS" envDefault:"127.0.0.1:8125"`
	PrometheusEnabled        bool          `env:"PROMETHEUS_ENABLED" envDefault:"false"`
	PrometheusPort           string        `env:"PROMETHEUS_PORT" envDefault:"2112"`
	OpenTelemetryEnabled     bool          `env:"OPENTELEMETRY_ENABLED" envDefault:"false"`
	OpenTelemetryEndpoint    string        `env:"OPENTELEMETRY_ENDPOINT" envDefault:"localhost:4318"`
	AdminPass                string        `env:"ADMIN_PASS"`
}

func ParseEnvVariables() (*Config, error) {
	cfg := &Config{}
	err := env.Parse(cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}
