package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Memory    MemoryConfig    `mapstructure:"memory"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Tasks     TasksConfig     `mapstructure:"tasks"`
	External  ExternalConfig  `mapstructure:"external"`
	GCS       GCSConfig       `mapstructure:"gcs"`
	Voice     VoiceConfig     `mapstructure:"voice"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	EmbeddedWorkers bool          `mapstructure:"embedded_workers"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type MongoConfig struct {
	URI            string `mapstructure:"uri"`
	DB             string `mapstructure:"db"`
	MaxPoolSize    uint64 `mapstructure:"max_pool_size"`
	ForceTLSConfig bool   `mapstructure:"force_tls_config"`
	InsecureTLS    bool   `mapstructure:"insecure_tls"`
}

type RedisConfig struct {
	Addr string `mapstructure:"addr"`
}

// PostgresConfig is optional; an empty URI disables the conversation archive.
type PostgresConfig struct {
	URI string `mapstructure:"uri"`
}

// KafkaConfig is optional; without brokers chat-turn events are archived inline.
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

type MemoryConfig struct {
	SessionMaxTurns int           `mapstructure:"session_max_turns"`
	SessionTTL      time.Duration `mapstructure:"session_ttl"`
	SemanticScanCap int           `mapstructure:"semantic_scan_cap"`
	SemanticTopK    int           `mapstructure:"semantic_top_k"`
	FactTopK        int           `mapstructure:"fact_top_k"`
	ContextTurns    int           `mapstructure:"context_turns"`
}

type LLMConfig struct {
	Gemini        GeminiConfig    `mapstructure:"gemini"`
	OpenAI        OpenAIConfig    `mapstructure:"openai"`
	Anthropic     AnthropicConfig `mapstructure:"anthropic"`
	Local         LocalLLMConfig  `mapstructure:"local"`
	Retries       int             `mapstructure:"retries"`
	RetrySleep    time.Duration   `mapstructure:"retry_sleep"`
	HealthTimeout time.Duration   `mapstructure:"health_timeout"`
	Timeout       time.Duration   `mapstructure:"timeout"`
	MaxTokens     int             `mapstructure:"max_tokens"`
	Temperature   float32         `mapstructure:"temperature"`
}

type GeminiConfig struct {
	Project  string   `mapstructure:"project"`
	Location string   `mapstructure:"location"`
	Models   []string `mapstructure:"models"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

type AnthropicConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

type LocalLLMConfig struct {
	URL   string `mapstructure:"url"`
	Model string `mapstructure:"model"`
}

type EmbeddingConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	APIKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`
	Dims     int    `mapstructure:"dims"`
}

type TasksConfig struct {
	Timeout         time.Duration `mapstructure:"timeout"`
	WhatsAppTimeout time.Duration `mapstructure:"whatsapp_timeout"`
	Workers         int           `mapstructure:"workers"`
	Stream          string        `mapstructure:"stream"`
	Group           string        `mapstructure:"group"`
	SweepInterval   time.Duration `mapstructure:"sweep_interval"`
}

type ExternalConfig struct {
	WeatherAPIKey    string `mapstructure:"weather_api_key"`
	NewsAPIKey       string `mapstructure:"news_api_key"`
	SearchAPIKey     string `mapstructure:"search_api_key"`
	SearchEngineID   string `mapstructure:"search_engine_id"`
	TranslateAPIKey  string `mapstructure:"translate_api_key"`
	YouTubeAPIKey    string `mapstructure:"youtube_api_key"`
	WhatsAppToken    string `mapstructure:"whatsapp_token"`
	WhatsAppPhoneID  string `mapstructure:"whatsapp_phone_id"`
	WhatsAppEndpoint string `mapstructure:"whatsapp_endpoint"`
}

type GCSConfig struct {
	Bucket string `mapstructure:"bucket"`
}

type VoiceConfig struct {
	STTEnabled bool          `mapstructure:"stt_enabled"`
	ClipTTL    time.Duration `mapstructure:"clip_ttl"`
}

type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
}

// Load reads .env (if present), an optional config.yaml and the environment.
// Environment variables win over the file; nested keys map to UPPER_SNAKE names.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	if f := os.Getenv("CONFIG_FILE"); f != "" {
		v.SetConfigFile(f)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	setDefaults(v)
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("server.embedded_workers", true)

	v.SetDefault("log.level", "info")

	v.SetDefault("mongo.uri", "")
	v.SetDefault("mongo.db", "yooassist")
	v.SetDefault("mongo.max_pool_size", 10)
	v.SetDefault("mongo.force_tls_config", false)
	v.SetDefault("mongo.insecure_tls", false)

	v.SetDefault("redis.addr", "")
	v.SetDefault("postgres.uri", "")

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "chat-turns")
	v.SetDefault("kafka.group_id", "yooassist-archive")

	v.SetDefault("memory.session_max_turns", 20)
	v.SetDefault("memory.session_ttl", "2h")
	v.SetDefault("memory.semantic_scan_cap", 200)
	v.SetDefault("memory.semantic_top_k", 5)
	v.SetDefault("memory.fact_top_k", 5)
	v.SetDefault("memory.context_turns", 10)

	v.SetDefault("llm.gemini.project", "")
	v.SetDefault("llm.gemini.location", "us-central1")
	v.SetDefault("llm.gemini.models", []string{"gemini-2.0-flash", "gemini-1.5-pro", "gemini-1.5-flash"})
	v.SetDefault("llm.openai.api_key", "")
	v.SetDefault("llm.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.openai.model", "gpt-3.5-turbo")
	v.SetDefault("llm.anthropic.api_key", "")
	v.SetDefault("llm.anthropic.base_url", "https://api.anthropic.com/v1")
	v.SetDefault("llm.anthropic.model", "claude-3-haiku-20240307")
	v.SetDefault("llm.local.url", "")
	v.SetDefault("llm.local.model", "llama3")
	v.SetDefault("llm.retries", 2)
	v.SetDefault("llm.retry_sleep", "1s")
	v.SetDefault("llm.health_timeout", "5s")
	v.SetDefault("llm.timeout", "30s")
	v.SetDefault("llm.max_tokens", 500)
	v.SetDefault("llm.temperature", 0.7)

	v.SetDefault("embedding.endpoint", "")
	v.SetDefault("embedding.api_key", "")
	v.SetDefault("embedding.model", "text-embedding-3-small")
	v.SetDefault("embedding.dims", 768)

	v.SetDefault("tasks.timeout", "10s")
	v.SetDefault("tasks.whatsapp_timeout", "30s")
	v.SetDefault("tasks.workers", 4)
	v.SetDefault("tasks.stream", "tasks:stream")
	v.SetDefault("tasks.group", "task-workers")
	v.SetDefault("tasks.sweep_interval", "10m")

	for _, k := range []string{
		"weather_api_key", "news_api_key", "search_api_key", "search_engine_id",
		"translate_api_key", "youtube_api_key", "whatsapp_token", "whatsapp_phone_id",
	} {
		v.SetDefault("external."+k, "")
	}
	v.SetDefault("external.whatsapp_endpoint", "https://graph.facebook.com/v19.0")

	v.SetDefault("gcs.bucket", "")
	v.SetDefault("voice.stt_enabled", true)
	v.SetDefault("voice.clip_ttl", "168h")
	v.SetDefault("metrics.namespace", "yooassist")
}

func bindEnv(v *viper.Viper) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Short names kept for existing deployments.
	_ = v.BindEnv("server.port", "SERVER_PORT", "PORT")
	_ = v.BindEnv("redis.addr", "REDIS_ADDR", "REDIS_URI", "REDIS_URL")
	_ = v.BindEnv("mongo.force_tls_config", "MONGO_FORCE_TLS_CONFIG")
	_ = v.BindEnv("mongo.insecure_tls", "MONGO_INSECURE_TLS")
	_ = v.BindEnv("llm.gemini.project", "LLM_GEMINI_PROJECT", "GOOGLE_CLOUD_PROJECT")
	_ = v.BindEnv("llm.openai.api_key", "LLM_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("llm.anthropic.api_key", "LLM_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("llm.local.url", "LLM_LOCAL_URL", "OLLAMA_URL")
	_ = v.BindEnv("external.weather_api_key", "EXTERNAL_WEATHER_API_KEY", "OPENWEATHER_API_KEY")
	_ = v.BindEnv("external.news_api_key", "EXTERNAL_NEWS_API_KEY", "NEWS_API_KEY")
	_ = v.BindEnv("gcs.bucket", "GCS_BUCKET")
}

func validate(cfg *Config) error {
	if cfg.Mongo.URI == "" {
		return errors.New("mongo.uri (MONGO_URI) is required")
	}
	if cfg.Redis.Addr == "" {
		return errors.New("redis.addr (REDIS_ADDR, REDIS_URI or REDIS_URL) is required")
	}
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}
	if cfg.Memory.SessionMaxTurns < 1 {
		return fmt.Errorf("memory.session_max_turns must be at least 1, got %d", cfg.Memory.SessionMaxTurns)
	}
	if cfg.Memory.SemanticScanCap < 1 {
		return fmt.Errorf("memory.semantic_scan_cap must be at least 1, got %d", cfg.Memory.SemanticScanCap)
	}
	if cfg.Tasks.Timeout <= 0 || cfg.Tasks.WhatsAppTimeout <= 0 {
		return errors.New("tasks.timeout and tasks.whatsapp_timeout must be positive")
	}
	if cfg.LLM.Retries < 1 {
		cfg.LLM.Retries = 1
	}
	if cfg.Tasks.Workers < 1 {
		cfg.Tasks.Workers = 1
	}
	return nil
}
