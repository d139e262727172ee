package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	BackendBase string
	BackendKey  string
	BackendRPS  int
	Refreshers  int
	CacheTTL    time.Duration
	RefreshIntv time.Duration
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/frontdesk?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),
		BackendBase: env("BACKEND_BASE_URL", ""),
		BackendKey:  env("BACKEND_API_KEY", ""),
		BackendRPS:  atoi("BACKEND_RPS", 5),
		Refreshers:  atoi("REFRESH_WORKERS", 2),
		CacheTTL:    time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		RefreshIntv: time.Duration(atoi("REFRESH_INTERVAL_SECONDS", 30)) * time.Second,
	}
	if c.BackendBase != "" && c.BackendKey == "" {
		log.Warn().Msg("BACKEND_API_KEY is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
