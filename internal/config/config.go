package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	LLM       LLMConfig
	Search    SearchConfig
	Fetch     FetchConfig
	Pipeline  PipelineConfig
	Cleanup   CleanupConfig
	Telemetry TelemetryConfig
}

type AppConfig struct {
	AppName     string
	Environment string
	HTTPPort    string
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type DatabaseConfig struct {
	Driver string

	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	ConnectTimeout      time.Duration
	PoolMaxConns        int32
	PoolMinConns        int32
	PoolMaxConnLifetime time.Duration
	PoolMaxConnIdleTime time.Duration

	SQLitePath string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	TTL      time.Duration
}

const (
	ProviderOpenAI = "openai"
	ProviderAzure  = "azure"
)

type LLMConfig struct {
	Provider    string
	APIKey      string
	BaseURL     string
	APIVersion  string
	Model       string
	Temperature float32
	CallBudget  int
}

type SearchConfig struct {
	TavilyAPIKey string
	BaseURL      string
	MaxResults   int
	Depth        string
}

const (
	FetchModeHTTP     = "http"
	FetchModeHeadless = "headless"
)

type FetchConfig struct {
	Timeout   time.Duration
	Mode      string
	UserAgent string
}

type PipelineConfig struct {
	TopCompanies []string
}

type CleanupConfig struct {
	RetentionDays int
	Schedule      string
}

type TelemetryConfig struct {
	Enabled      bool
	SampleRatio  float64
	OTLPEndpoint string
	OTLPInsecure bool
}

var errMissingRequiredEnv = errors.New("missing required environment variables")

var defaultTopCompanies = []string{
	"Google", "Meta", "Amazon", "Microsoft", "Apple", "Netflix",
	"Uber", "Airbnb", "Stripe", "Databricks", "Snowflake", "OpenAI",
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{}

	var missing []string
	var invalid []string
	req := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}
	opt := func(key string, def string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return def
		}
		return v
	}
	optInt := func(key string, def int) int {
		raw := opt(key, "")
		if raw == "" {
			return def
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			invalid = append(invalid, key)
			return def
		}
		return v
	}
	optSeconds := func(key string, def time.Duration) time.Duration {
		raw := opt(key, "")
		if raw == "" {
			return def
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			invalid = append(invalid, key)
			return def
		}
		return time.Duration(v) * time.Second
	}
	optFloat := func(key string, def float64) float64 {
		raw := opt(key, "")
		if raw == "" {
			return def
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			invalid = append(invalid, key)
			return def
		}
		return v
	}

	cfg.App = AppConfig{
		AppName:     opt("APP_NAME", "syllabus-gap"),
		Environment: opt("APP_ENV", "development"),
		HTTPPort:    opt("HTTP_PORT", "8080"),
	}

	cfg.Database = DatabaseConfig{
		Driver:              strings.ToLower(opt("DB_DRIVER", DriverPostgres)),
		DBHost:              opt("DB_HOST", "localhost"),
		DBPort:              opt("DB_PORT", "5432"),
		DBName:              opt("DB_NAME", ""),
		DBUser:              opt("DB_USER", ""),
		DBPassword:          opt("DB_PASSWORD", ""),
		DBSSLMode:           opt("DB_SSL_MODE", "disable"),
		ConnectTimeout:      optSeconds("DB_CONNECT_TIMEOUT_SECONDS", 5*time.Second),
		PoolMaxConns:        int32(optInt("DB_POOL_MAX_CONNS", 10)),
		PoolMinConns:        int32(optInt("DB_POOL_MIN_CONNS", 0)),
		PoolMaxConnLifetime: optSeconds("DB_POOL_MAX_CONN_LIFETIME_SECONDS", time.Hour),
		PoolMaxConnIdleTime: optSeconds("DB_POOL_MAX_CONN_IDLE_SECONDS", 30*time.Minute),
		SQLitePath:          opt("SQLITE_PATH", "syllabus_gap.db"),
	}
	switch cfg.Database.Driver {
	case DriverPostgres:
		cfg.Database.DBName = req("DB_NAME")
		cfg.Database.DBUser = req("DB_USER")
	case DriverSQLite:
	default:
		invalid = append(invalid, "DB_DRIVER")
	}

	cfg.Redis = RedisConfig{
		Host:     opt("REDIS_HOST", "localhost"),
		Port:     opt("REDIS_PORT", "6379"),
		Password: opt("REDIS_PASSWORD", ""),
		TTL:      optSeconds("REDIS_TTL", 600*time.Second),
	}

	cfg.LLM = LLMConfig{
		Provider:    strings.ToLower(opt("LLM_PROVIDER", ProviderOpenAI)),
		APIKey:      req("LLM_API_KEY"),
		BaseURL:     opt("LLM_BASE_URL", ""),
		APIVersion:  opt("LLM_API_VERSION", "2024-02-15-preview"),
		Model:       opt("LLM_MODEL", "gpt-4o-mini"),
		Temperature: float32(optFloat("LLM_TEMPERATURE", 0.1)),
		CallBudget:  optInt("LLM_CALL_BUDGET", 12),
	}
	switch cfg.LLM.Provider {
	case ProviderOpenAI:
	case ProviderAzure:
		if cfg.LLM.BaseURL == "" {
			missing = append(missing, "LLM_BASE_URL")
		}
	default:
		invalid = append(invalid, "LLM_PROVIDER")
	}

	cfg.Search = SearchConfig{
		TavilyAPIKey: opt("TAVILY_API_KEY", ""),
		BaseURL:      opt("TAVILY_BASE_URL", "https://api.tavily.com"),
		MaxResults:   optInt("SEARCH_MAX_RESULTS", 10),
		Depth:        opt("SEARCH_DEPTH", "advanced"),
	}

	cfg.Fetch = FetchConfig{
		Timeout:   optSeconds("FETCH_TIMEOUT_SECONDS", 10*time.Second),
		Mode:      strings.ToLower(opt("FETCH_MODE", FetchModeHTTP)),
		UserAgent: opt("FETCH_USER_AGENT", "Mozilla/5.0 (compatible; SyllabusGapBot/1.0)"),
	}
	if cfg.Fetch.Mode != FetchModeHTTP && cfg.Fetch.Mode != FetchModeHeadless {
		invalid = append(invalid, "FETCH_MODE")
	}

	cfg.Pipeline = PipelineConfig{
		TopCompanies: splitList(opt("TOP_COMPANIES", ""), defaultTopCompanies),
	}

	cfg.Cleanup = CleanupConfig{
		RetentionDays: optInt("CLEANUP_RETENTION_DAYS", 0),
		Schedule:      opt("CLEANUP_SCHEDULE", "@daily"),
	}

	cfg.Telemetry = TelemetryConfig{
		Enabled:      parseBool(opt("OTEL_ENABLED", "")),
		SampleRatio:  optFloat("OTEL_SAMPLER_RATIO", 1),
		OTLPEndpoint: opt("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTLPInsecure: parseBool(opt("OTEL_EXPORTER_OTLP_INSECURE", "")),
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errMissingRequiredEnv, strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func (c DatabaseConfig) UsesSQLite() bool {
	return c.Driver == DriverSQLite
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func splitList(raw string, def []string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		out := make([]string, len(def))
		copy(out, def)
		return out
	}
	out := make([]string, 0)
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
