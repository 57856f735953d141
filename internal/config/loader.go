package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies SPOTBOT_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known SPOTBOT_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Binance ──
	setStr(&cfg.Binance.APIKey, "SPOTBOT_BINANCE_API_KEY")
	setStr(&cfg.Binance.APISecret, "SPOTBOT_BINANCE_API_SECRET")
	setBool(&cfg.Binance.UseTestnet, "SPOTBOT_BINANCE_USE_TESTNET")
	setInt64(&cfg.Binance.RecvWindowMs, "SPOTBOT_BINANCE_RECV_WINDOW_MS")
	setDuration(&cfg.Binance.Timeout, "SPOTBOT_BINANCE_TIMEOUT")

	// ── Feed ──
	setBool(&cfg.Feed.Enabled, "SPOTBOT_FEED_ENABLED")
	setStr(&cfg.Feed.StreamURL, "SPOTBOT_FEED_STREAM_URL")
	setStringSlice(&cfg.Feed.Symbols, "SPOTBOT_FEED_SYMBOLS")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "SPOTBOT_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "SPOTBOT_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "SPOTBOT_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "SPOTBOT_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "SPOTBOT_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "SPOTBOT_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "SPOTBOT_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "SPOTBOT_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "SPOTBOT_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "SPOTBOT_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "SPOTBOT_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "SPOTBOT_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "SPOTBOT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "SPOTBOT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "SPOTBOT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "SPOTBOT_REDIS_POOL_SIZE")
	setBool(&cfg.Redis.TLSEnabled, "SPOTBOT_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "SPOTBOT_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "SPOTBOT_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "SPOTBOT_S3_REGION")
	setStr(&cfg.S3.Bucket, "SPOTBOT_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "SPOTBOT_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "SPOTBOT_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "SPOTBOT_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "SPOTBOT_S3_FORCE_PATH_STYLE")

	// ── Backtest ──
	setStr(&cfg.Backtest.DataPath, "SPOTBOT_BACKTEST_DATA_PATH")
	setStr(&cfg.Backtest.S3Key, "SPOTBOT_BACKTEST_S3_KEY")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "SPOTBOT_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "SPOTBOT_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "SPOTBOT_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "SPOTBOT_SERVER_API_KEY")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "SPOTBOT_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "SPOTBOT_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "SPOTBOT_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "SPOTBOT_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "SPOTBOT_MODE")
	setStr(&cfg.LogLevel, "SPOTBOT_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
