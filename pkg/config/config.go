package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Supported DB_DRIVER values.
const (
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	CORS     CORSConfig
	Log      LogConfig
	Parser   ParserConfig
	Cache    ParseCacheConfig
	Batch    BatchConfig
	Exports  ExportsConfig
	Identity IdentityConfig
}

type DatabaseConfig struct {
	Driver       string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	Path         string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ParserConfig tunes document flattening and extraction.
type ParserConfig struct {
	MaxInputBytes      int64
	LineSplitThreshold int
	LineTolerance      float64
	DefaultDegree      string
	Institution        string
}

// ParseCacheConfig governs caching of parse results in Redis.
type ParseCacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// BatchConfig configures the directory batch parser.
type BatchConfig struct {
	Workers   int
	Retries   int
	OutputDir string
}

// ExportsConfig sets where rendered exports are written by the CLIs.
type ExportsConfig struct {
	StorageDir string
}

// IdentityConfig names the header carrying the caller identity set by the
// upstream authentication layer.
type IdentityConfig struct {
	Header string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Driver:       strings.ToLower(v.GetString("DB_DRIVER")),
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		Path:         v.GetString("DB_PATH"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	maxInput := v.GetInt64("PARSER_MAX_INPUT_BYTES")
	if maxInput <= 0 {
		maxInput = 10 * 1024 * 1024
	}
	cfg.Parser = ParserConfig{
		MaxInputBytes:      maxInput,
		LineSplitThreshold: v.GetInt("PARSER_LINE_SPLIT_THRESHOLD"),
		LineTolerance:      v.GetFloat64("PARSER_LINE_TOLERANCE"),
		DefaultDegree:      v.GetString("PARSER_DEFAULT_DEGREE"),
		Institution:        v.GetString("PARSER_INSTITUTION"),
	}

	cfg.Cache = ParseCacheConfig{
		Enabled: v.GetBool("ENABLE_PARSE_CACHE"),
		TTL:     parseDuration(v.GetString("PARSE_CACHE_TTL"), 30*time.Minute),
	}

	cfg.Batch = BatchConfig{
		Workers:   positive(v.GetInt("BATCH_WORKERS"), 4),
		Retries:   v.GetInt("BATCH_RETRIES"),
		OutputDir: v.GetString("BATCH_OUTPUT_DIR"),
	}

	cfg.Exports = ExportsConfig{StorageDir: v.GetString("EXPORTS_STORAGE_DIR")}

	cfg.Identity = IdentityConfig{Header: v.GetString("IDENTITY_HEADER")}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "transcripts")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_PATH", "transcripts.db")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_PARSE_CACHE", false)
	v.SetDefault("PARSE_CACHE_TTL", "30m")

	v.SetDefault("PARSER_MAX_INPUT_BYTES", 10*1024*1024)
	v.SetDefault("PARSER_LINE_SPLIT_THRESHOLD", 100)
	v.SetDefault("PARSER_LINE_TOLERANCE", 5.0)
	v.SetDefault("PARSER_DEFAULT_DEGREE", "")
	v.SetDefault("PARSER_INSTITUTION", "")

	v.SetDefault("BATCH_WORKERS", 4)
	v.SetDefault("BATCH_RETRIES", 1)
	v.SetDefault("BATCH_OUTPUT_DIR", "./parsed")

	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("IDENTITY_HEADER", "X-User-ID")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// isMissingFile reports a missing .env file, which viper surfaces as a path
// error when SetConfigFile is used.
func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func positive(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}
