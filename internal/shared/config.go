package shared

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"travel_booking/internal/adapters/images"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string
	CORSOrigins []string

	StoreDriver   string // mongo | mysql | memory
	MongoURI      string
	MongoDatabase string
	MySQLDSN      string

	RedisAddr string
	RedisDB   int
	RedisPass string
	CacheTTL  time.Duration

	ImageDriver   string // local | s3
	UploadDir     string
	PublicBaseURL string
	MaxUploadMB   int
	S3            images.S3Config

	APIBaseURL     string
	ClientRPS      int
	SeedWorkers    int
	RequestTimeout time.Duration
}

// Load reads the environment, after merging a .env file from the working
// directory when one exists. Variables already set win over .env.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("could not read .env")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		LogLevel:    env("LOG_LEVEL", "info"),
		HTTPAddr:    env("HTTP_ADDR", ":5000"),
		MetricsAddr: env("METRICS_ADDR", ""),
		CORSOrigins: list(env("CORS_ORIGINS", "*")),

		StoreDriver:   strings.ToLower(env("STORE_DRIVER", "mongo")),
		MongoURI:      env("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: env("MONGO_DATABASE", "travel_booking"),
		MySQLDSN:      env("MYSQL_DSN", "root:root@tcp(localhost:3306)/travel_booking?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),

		RedisAddr: env("REDIS_ADDR", ""),
		RedisPass: env("REDIS_PASSWORD", ""),
		RedisDB:   atoi("REDIS_DB", 0),
		CacheTTL:  time.Duration(atoi("CACHE_TTL_SECONDS", 60)) * time.Second,

		ImageDriver:   strings.ToLower(env("IMAGE_DRIVER", "local")),
		UploadDir:     env("UPLOAD_DIR", "./uploads"),
		PublicBaseURL: env("PUBLIC_BASE_URL", ""),
		MaxUploadMB:   atoi("MAX_UPLOAD_MB", 10),
		S3: images.S3Config{
			Endpoint:     env("S3_ENDPOINT", ""),
			Region:       env("S3_REGION", "us-east-1"),
			Bucket:       env("S3_BUCKET", ""),
			AccessKey:    env("S3_ACCESS_KEY", ""),
			SecretKey:    env("S3_SECRET_KEY", ""),
			UsePathStyle: envBool("S3_USE_PATH_STYLE", true),
			PublicURL:    env("S3_PUBLIC_URL", ""),
		},

		APIBaseURL:     env("API_BASE_URL", "http://localhost:5000"),
		ClientRPS:      atoi("CLIENT_RPS", 5),
		SeedWorkers:    atoi("SEED_WORKERS", 4),
		RequestTimeout: time.Duration(atoi("REQUEST_TIMEOUT_SECONDS", 15)) * time.Second,
	}
	if c.StoreDriver == "memory" {
		log.Warn().Msg("STORE_DRIVER=memory: records are lost on restart")
	}
	return c
}

// MaxUploadBytes is MAX_UPLOAD_MB in bytes.
func (c Config) MaxUploadBytes() int64 { return int64(c.MaxUploadMB) << 20 }

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envBool(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// list splits a comma-separated value, dropping blanks.
func list(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
