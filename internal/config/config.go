package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service configuration, loaded from the environment.
type Config struct {
	AppEnv   string
	LogLevel string

	HTTP     HTTPConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Jobs     JobsConfig
	Queue    QueueConfig
	Storage  StorageConfig
	Detect   DetectConfig
	Generate GenerateConfig
	Limits   LimitsConfig
}

type HTTPConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	URL      string
	MaxConns int32
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JobsConfig controls the detection job ledger. TerminalTTL must be shorter
// than PendingTTL: finished jobs are meant to be collected by the poller.
type JobsConfig struct {
	StoreDriver string // redis | memory
	KeyPrefix   string
	PendingTTL  time.Duration
	TerminalTTL time.Duration
}

type QueueConfig struct {
	QueueKey          string
	ProcessingKey     string
	VisibilityTimeout time.Duration
	ReapInterval      time.Duration
	Workers           int
	Embedded          bool
}

type StorageConfig struct {
	Driver         string // local | gcs
	Path           string
	BaseURL        string
	GCSBucket      string
	MaxUploadBytes int64
}

type DetectConfig struct {
	Provider string // gemini | yolo
	YOLOURL  string
	Timeout  time.Duration
}

type GenerateConfig struct {
	Provider      string // gemini | openai
	GeminiAPIKey  string
	GeminiModel   string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	Timeout       time.Duration
}

type LimitsConfig struct {
	UploadPerMinute   int
	GeneratePerMinute int
}

// Load reads configuration from environment variables and applies defaults.
func Load() *Config {
	return &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", ""),
		HTTP: HTTPConfig{
			Addr:         getEnv("HTTP_ADDR", ":8080"),
			ReadTimeout:  getEnvDuration("HTTP_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvDuration("HTTP_WRITE_TIMEOUT", 90*time.Second),
			IdleTimeout:  getEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			URL:      os.Getenv("DATABASE_URL"),
			MaxConns: int32(getEnvInt("DB_MAX_CONNS", 10)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Jobs: JobsConfig{
			StoreDriver: getEnv("JOB_STORE_DRIVER", "redis"),
			KeyPrefix:   getEnv("JOB_KEY_PREFIX", "jobs:record:"),
			PendingTTL:  getEnvDuration("JOB_PENDING_TTL", 30*time.Minute),
			TerminalTTL: getEnvDuration("JOB_TERMINAL_TTL", 10*time.Minute),
		},
		Queue: QueueConfig{
			QueueKey:          getEnv("REDIS_QUEUE_KEY", "jobs:queue"),
			ProcessingKey:     getEnv("REDIS_PROCESSING_KEY", "jobs:processing"),
			VisibilityTimeout: getEnvDuration("QUEUE_VISIBILITY_TIMEOUT", 5*time.Minute),
			ReapInterval:      getEnvDuration("REAPER_INTERVAL", 30*time.Second),
			Workers:           getEnvInt("WORKERS", 4),
			Embedded:          getEnvBool("WORKER_EMBEDDED", false),
		},
		Storage: StorageConfig{
			Driver:         getEnv("STORAGE_DRIVER", "local"),
			Path:           getEnv("STORAGE_PATH", "./storage/public"),
			BaseURL:        getEnv("STORAGE_BASE_URL", "http://localhost:8080/storage"),
			GCSBucket:      os.Getenv("GCS_BUCKET"),
			MaxUploadBytes: getEnvInt64("MAX_UPLOAD_BYTES", 15*1024*1024),
		},
		Detect: DetectConfig{
			Provider: getEnv("DETECTOR", "gemini"),
			YOLOURL:  getEnv("YOLO_URL", "http://localhost:8001"),
			Timeout:  getEnvDuration("DETECT_TIMEOUT", 60*time.Second),
		},
		Generate: GenerateConfig{
			Provider:      getEnv("GENERATOR", "gemini"),
			GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
			GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
			OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Timeout:       getEnvDuration("GENERATE_TIMEOUT", 60*time.Second),
		},
		Limits: LimitsConfig{
			UploadPerMinute:   getEnvInt("RATE_LIMIT_UPLOAD_PER_MIN", 10),
			GeneratePerMinute: getEnvInt("RATE_LIMIT_GENERATE_PER_MIN", 5),
		},
	}
}

// ValidateAPI checks what the HTTP binary needs.
func (c *Config) ValidateAPI() error {
	var problems []string
	if c.Database.URL == "" {
		problems = append(problems, "DATABASE_URL is required")
	}
	if c.Storage.MaxUploadBytes <= 0 {
		problems = append(problems, "MAX_UPLOAD_BYTES must be positive")
	}
	if c.Jobs.StoreDriver == "memory" && !c.Queue.Embedded {
		problems = append(problems, "JOB_STORE_DRIVER=memory requires WORKER_EMBEDDED=true")
	}
	problems = append(problems, c.commonProblems()...)
	if c.Generate.Timeout <= 0 {
		problems = append(problems, "GENERATE_TIMEOUT must be positive")
	}
	switch c.Generate.Provider {
	case "gemini":
		if c.Generate.GeminiAPIKey == "" {
			problems = append(problems, "GEMINI_API_KEY is required for GENERATOR=gemini")
		}
	case "openai":
		if c.Generate.OpenAIAPIKey == "" {
			problems = append(problems, "OPENAI_API_KEY is required for GENERATOR=openai")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown GENERATOR %q", c.Generate.Provider))
	}
	return joinProblems(problems)
}

// ValidateWorker checks what the detection worker needs.
func (c *Config) ValidateWorker() error {
	problems := c.commonProblems()
	if c.Jobs.StoreDriver != "redis" {
		problems = append(problems, "the standalone worker requires JOB_STORE_DRIVER=redis")
	}
	return joinProblems(problems)
}

func (c *Config) commonProblems() []string {
	var problems []string
	switch c.Jobs.StoreDriver {
	case "redis", "memory":
	default:
		problems = append(problems, fmt.Sprintf("unknown JOB_STORE_DRIVER %q", c.Jobs.StoreDriver))
	}
	if c.Jobs.PendingTTL <= 0 || c.Jobs.TerminalTTL <= 0 {
		problems = append(problems, "JOB_PENDING_TTL and JOB_TERMINAL_TTL must be positive")
	} else if c.Jobs.TerminalTTL >= c.Jobs.PendingTTL {
		problems = append(problems, "JOB_TERMINAL_TTL must be shorter than JOB_PENDING_TTL")
	}
	if c.Detect.Timeout <= 0 {
		problems = append(problems, "DETECT_TIMEOUT must be positive")
	}
	if c.Queue.VisibilityTimeout <= c.Detect.Timeout {
		problems = append(problems, "QUEUE_VISIBILITY_TIMEOUT must exceed DETECT_TIMEOUT")
	}
	switch c.Storage.Driver {
	case "local":
	case "gcs":
		if c.Storage.GCSBucket == "" {
			problems = append(problems, "GCS_BUCKET is required for STORAGE_DRIVER=gcs")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown STORAGE_DRIVER %q", c.Storage.Driver))
	}
	switch c.Detect.Provider {
	case "yolo":
		if c.Detect.YOLOURL == "" {
			problems = append(problems, "YOLO_URL is required for DETECTOR=yolo")
		}
	case "gemini":
		if c.Generate.GeminiAPIKey == "" {
			problems = append(problems, "GEMINI_API_KEY is required for DETECTOR=gemini")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown DETECTOR %q", c.Detect.Provider))
	}
	return problems
}

func joinProblems(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("config: %s", strings.Join(problems, "; "))
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return i
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
