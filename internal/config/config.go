package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig       `toml:"app"`
	Session   SessionConfig   `toml:"session"`
	LLM       LLMConfig       `toml:"llm"`
	Database  DatabaseConfig  `toml:"database"`
	Storage   StorageConfig   `toml:"storage"`
	Ingest    IngestConfig    `toml:"ingest"`
	Retrieval RetrievalConfig `toml:"retrieval"`
	Index     IndexConfig     `toml:"index"`
	Redis     RedisConfig     `toml:"redis"`
	RabbitMQ  RabbitMQConfig  `toml:"rabbitmq"`
}

type AppConfig struct {
	Name        string   `toml:"name"`
	Env         string   `toml:"env"`
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	GinMode     string   `toml:"gin_mode"`
	CORSOrigins []string `toml:"cors_origins"`
}

type SessionConfig struct {
	Secret      string `toml:"secret"`
	CookieName  string `toml:"cookie_name"`
	MaxAgeHours int    `toml:"max_age_hours"`
	Secure      bool   `toml:"secure"`
}

type LLMConfig struct {
	BaseURL            string  `toml:"base_url"`
	APIKey             string  `toml:"api_key"`
	Model              string  `toml:"model"`
	EmbeddingModel     string  `toml:"embedding_model"`
	Temperature        float64 `toml:"temperature"`
	TimeoutSeconds     int     `toml:"timeout_seconds"`
	RequestsPerMinute  int     `toml:"requests_per_minute"`
	BreakerMaxFailures int     `toml:"breaker_max_failures"`
}

// DatabaseConfig selects the relational store. An empty URL means the embedded
// SQLite file at SQLitePath.
type DatabaseConfig struct {
	URL        string `toml:"url"`
	SQLitePath string `toml:"sqlite_path"`
}

type StorageConfig struct {
	UploadDir     string `toml:"upload_dir"`
	MaxUploadSize int64  `toml:"max_upload_size"`
}

type IngestConfig struct {
	ChunkSize          int `toml:"chunk_size"`
	ChunkOverlap       int `toml:"chunk_overlap"`
	EmbeddingBatchSize int `toml:"embedding_batch_size"`
	SummaryInputChars  int `toml:"summary_input_chars"`
}

type RetrievalConfig struct {
	DocumentTopK       int `toml:"document_top_k"`
	PerDocumentTopK    int `toml:"per_document_top_k"`
	GeneralContextMax  int `toml:"general_context_max"`
	HistoryTurns       int `toml:"history_turns"`
	SearchPerDocument  int `toml:"search_per_document"`
	SearchMaxResults   int `toml:"search_max_results"`
	CompareCharsPerDoc int `toml:"compare_chars_per_doc"`
}

type IndexConfig struct {
	Backend     string `toml:"backend"`
	PgvectorDSN string `toml:"pgvector_dsn"`
}

type RedisConfig struct {
	Addr              string `toml:"addr"`
	Password          string `toml:"password"`
	DB                int    `toml:"db"`
	HistoryTTLSeconds int    `toml:"history_ttl_seconds"`
}

type RabbitMQConfig struct {
	URL        string `toml:"url"`
	EventQueue string `toml:"event_queue"`
}

func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("load .env failed: %w", err)
		}
	}

	cfg := defaultConfig()

	configPath := getEnv("CONFIG_FILE", "configs/config.toml")
	if _, err := os.Stat(configPath); err == nil {
		if _, err := toml.DecodeFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("decode config file failed: %w", err)
		}
	}

	overrideByEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.App.Host, c.App.Port)
}

// Validate rejects settings the services cannot run with.
func (c *Config) Validate() error {
	if c.Ingest.ChunkSize <= 0 {
		return fmt.Errorf("ingest.chunk_size must be positive, got %d", c.Ingest.ChunkSize)
	}
	if c.Ingest.ChunkOverlap < 0 || c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		return fmt.Errorf("ingest.chunk_overlap must be in [0, chunk_size), got %d", c.Ingest.ChunkOverlap)
	}
	if strings.TrimSpace(c.Session.Secret) == "" {
		return fmt.Errorf("session secret is empty")
	}
	if c.App.Env != "dev" && c.Session.Secret == defaultSessionSecret {
		return fmt.Errorf("session secret must be changed outside the dev environment (app.env=%q)", c.App.Env)
	}
	switch c.Index.Backend {
	case "sql":
	case "pgvector":
		if c.Index.PgvectorDSN == "" {
			return fmt.Errorf("index.pgvector_dsn is required for the pgvector backend")
		}
	default:
		return fmt.Errorf("unknown index backend %q", c.Index.Backend)
	}
	return nil
}

const defaultSessionSecret = "change-me-in-production"

func defaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "research-assistant",
			Env:         "dev",
			Host:        "0.0.0.0",
			Port:        8080,
			GinMode:     "debug",
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:8080"},
		},
		Session: SessionConfig{
			Secret:      defaultSessionSecret,
			CookieName:  "ra_session",
			MaxAgeHours: 24 * 30,
		},
		LLM: LLMConfig{
			BaseURL:            "https://api.openai.com/v1",
			Model:              "gpt-4o",
			EmbeddingModel:     "text-embedding-3-small",
			Temperature:        0.7,
			TimeoutSeconds:     90,
			RequestsPerMinute:  120,
			BreakerMaxFailures: 5,
		},
		Database: DatabaseConfig{
			SQLitePath: "data/research.db",
		},
		Storage: StorageConfig{
			UploadDir:     "uploads",
			MaxUploadSize: 16 << 20,
		},
		Ingest: IngestConfig{
			ChunkSize:          1000,
			ChunkOverlap:       200,
			EmbeddingBatchSize: 10,
			SummaryInputChars:  3000,
		},
		Retrieval: RetrievalConfig{
			DocumentTopK:       3,
			PerDocumentTopK:    2,
			GeneralContextMax:  5,
			HistoryTurns:       5,
			SearchPerDocument:  3,
			SearchMaxResults:   10,
			CompareCharsPerDoc: 2000,
		},
		Index: IndexConfig{
			Backend: "sql",
		},
		Redis: RedisConfig{
			HistoryTTLSeconds: 60,
		},
		RabbitMQ: RabbitMQConfig{
			EventQueue: "documents.events",
		},
	}
}

func overrideByEnv(cfg *Config) {
	cfg.App.Name = getEnv("APP_NAME", cfg.App.Name)
	cfg.App.Env = getEnv("APP_ENV", cfg.App.Env)
	cfg.App.Host = getEnv("APP_HOST", cfg.App.Host)
	cfg.App.Port = getEnvAsInt("APP_PORT", cfg.App.Port)
	cfg.App.GinMode = getEnv("GIN_MODE", cfg.App.GinMode)
	if origins := getEnv("CORS_ORIGINS", ""); origins != "" {
		cfg.App.CORSOrigins = strings.Split(origins, ",")
	}

	cfg.Session.Secret = getEnv("SESSION_SECRET", cfg.Session.Secret)
	cfg.Session.CookieName = getEnv("SESSION_COOKIE_NAME", cfg.Session.CookieName)

	// OPENAI_API_KEY is accepted for deployments that predate LLM_API_KEY.
	cfg.LLM.APIKey = getEnv("OPENAI_API_KEY", cfg.LLM.APIKey)
	cfg.LLM.APIKey = getEnv("LLM_API_KEY", cfg.LLM.APIKey)
	cfg.LLM.BaseURL = getEnv("LLM_BASE_URL", cfg.LLM.BaseURL)
	cfg.LLM.Model = getEnv("LLM_MODEL", cfg.LLM.Model)
	cfg.LLM.EmbeddingModel = getEnv("LLM_EMBEDDING_MODEL", cfg.LLM.EmbeddingModel)
	cfg.LLM.RequestsPerMinute = getEnvAsInt("LLM_REQUESTS_PER_MINUTE", cfg.LLM.RequestsPerMinute)

	cfg.Database.URL = getEnv("DATABASE_URL", cfg.Database.URL)
	cfg.Database.SQLitePath = getEnv("SQLITE_PATH", cfg.Database.SQLitePath)

	cfg.Storage.UploadDir = getEnv("UPLOAD_DIR", cfg.Storage.UploadDir)

	cfg.Ingest.ChunkSize = getEnvAsInt("CHUNK_SIZE", cfg.Ingest.ChunkSize)
	cfg.Ingest.ChunkOverlap = getEnvAsInt("CHUNK_OVERLAP", cfg.Ingest.ChunkOverlap)

	cfg.Index.Backend = getEnv("INDEX_BACKEND", cfg.Index.Backend)
	cfg.Index.PgvectorDSN = getEnv("PGVECTOR_DSN", cfg.Index.PgvectorDSN)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.HistoryTTLSeconds = getEnvAsInt("REDIS_HISTORY_TTL_SECONDS", cfg.Redis.HistoryTTLSeconds)

	cfg.RabbitMQ.URL = getEnv("RABBITMQ_URL", cfg.RabbitMQ.URL)
	cfg.RabbitMQ.EventQueue = getEnv("RABBITMQ_EVENT_QUEUE", cfg.RabbitMQ.EventQueue)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
