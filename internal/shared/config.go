package shared

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	DriverMySQL = "mysql"
	DriverMongo = "mongo"
	DriverBolt  = "bolt"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string

	StoreDriver  string
	MySQLDSN     string
	MongoURI     string
	MongoDB      string
	BoltPath     string
	StoreTimeout time.Duration

	RedisAddr string
	RedisDB   int
	RedisPass string
	CacheTTL  time.Duration

	RateLimitRPS   float64
	RateLimitBurst int
	CORSOrigins    []string

	ImportWorkers int
	ImportSource  string
	ImportRPS     int
	ImportAPIKey  string
}

// Load reads the environment, after merging an optional .env file from the
// working directory. Variables already set in the environment win.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("could not read .env")
	}

	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),

		StoreDriver:  strings.ToLower(env("STORE_DRIVER", DriverMySQL)),
		MySQLDSN:     env("MYSQL_DSN", "root:root@tcp(localhost:3306)/hotels?parseTime=true&charset=utf8mb4&loc=UTC"),
		MongoURI:     env("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:      env("MONGO_DB", "hotels"),
		BoltPath:     env("BOLT_PATH", "hotels.db"),
		StoreTimeout: time.Duration(atoi("STORE_TIMEOUT_MS", 5000)) * time.Millisecond,

		RedisAddr: env("REDIS_ADDR", ""),
		RedisPass: env("REDIS_PASSWORD", ""),
		RedisDB:   atoi("REDIS_DB", 0),
		CacheTTL:  time.Duration(atoi("CACHE_TTL_SECONDS", 60)) * time.Second,

		RateLimitRPS:   atof("RATE_LIMIT_RPS", 50),
		RateLimitBurst: atoi("RATE_LIMIT_BURST", 100),
		CORSOrigins:    csv(env("CORS_ORIGINS", "*")),

		ImportWorkers: atoi("IMPORT_WORKERS", 8),
		ImportSource:  env("IMPORT_SOURCE", ""),
		ImportRPS:     atoi("IMPORT_RPS", 5),
		ImportAPIKey:  env("IMPORT_API_KEY", ""),
	}

	switch c.StoreDriver {
	case DriverMySQL, DriverMongo, DriverBolt:
	default:
		log.Warn().Str("driver", c.StoreDriver).Msg("unknown STORE_DRIVER, using mysql")
		c.StoreDriver = DriverMySQL
	}
	if c.RedisAddr == "" {
		log.Info().Msg("REDIS_ADDR is empty, read cache disabled")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoi(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
	}
	return def
}

func atof(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Warn().Str("key", k).Str("value", v).Msg("not a number, using default")
	}
	return def
}

func csv(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
