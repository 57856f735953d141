package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alanyoungcy/spotbot/internal/backtest"
	s3blob "github.com/alanyoungcy/spotbot/internal/blob/s3"
	"github.com/alanyoungcy/spotbot/internal/cache/redis"
	"github.com/alanyoungcy/spotbot/internal/config"
	"github.com/alanyoungcy/spotbot/internal/domain"
	"github.com/alanyoungcy/spotbot/internal/notify"
	"github.com/alanyoungcy/spotbot/internal/platform/binance"
	"github.com/alanyoungcy/spotbot/internal/quantize"
	"github.com/alanyoungcy/spotbot/internal/service"
	"github.com/alanyoungcy/spotbot/internal/store/postgres"
)

// Dependencies bundles every dependency that the application modes need to
// operate. It is constructed by Wire and torn down by the returned cleanup
// function.
type Dependencies struct {
	// Exchange
	Exchange  *binance.Client
	Orders    *service.OrderService
	Portfolio *service.PortfolioService

	// Backtest
	Ticks     *backtest.TickStore
	Simulator *backtest.Simulator

	// Stores and caches
	TradeLog   domain.TradeLogStore
	PriceCache domain.PriceCache
	BlobReader domain.BlobReader
	BlobWriter domain.BlobWriter

	// Notifications
	Notifier *notify.Notifier

	// FilterSymbols is the number of symbols in the exchange filter snapshot,
	// surfaced by the health endpoint. Zero when no exchange client is wired.
	FilterSymbols int
}

// needsExchange returns true for modes that place live orders.
func needsExchange(mode string) bool {
	return mode == "live" || mode == "server"
}

// needsTicks returns true for modes that simulate fills against historical
// data. Server mode simulates only when a dataset is configured.
func needsTicks(cfg *config.Config, mode string) bool {
	if mode == "backtest" {
		return true
	}
	return mode == "server" && (cfg.Backtest.DataPath != "" || cfg.Backtest.S3Key != "")
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}
	mode := strings.ToLower(cfg.Mode)

	// --- PostgreSQL trade log (optional) ---
	var tradeLog *postgres.TradeLogStore
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		tradeLog = postgres.NewTradeLogStore(pgClient)
		deps.TradeLog = tradeLog
	}

	// --- Redis price cache (optional) ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.PriceCache = redis.NewPriceCache(redisClient)
	}

	// --- S3 blob storage (optional) ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}

		deps.BlobReader = s3blob.NewReader(s3Client)
		deps.BlobWriter = s3blob.NewWriter(s3Client)
	}

	// When both the trade log and blob storage are wired, the log is exported
	// to the bucket on shutdown so a fresh database can be seeded from the
	// archive.
	if deps.BlobWriter != nil && tradeLog != nil {
		archiver := s3blob.NewArchiver(deps.BlobWriter, tradeLog)
		closers = append(closers, func() {
			archiveCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			n, err := archiver.ArchiveFills(archiveCtx, time.Now().UTC())
			if err != nil {
				logger.Warn("trade log archive failed",
					slog.String("error", err.Error()))
				return
			}
			if n > 0 {
				logger.Info("trade log archived",
					slog.Int64("fills", n))
			}
		})
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	if len(senders) > 0 {
		deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)
	}

	// --- Exchange client and live dispatch path ---
	if needsExchange(mode) {
		baseURL := binance.MainnetBaseURL
		if cfg.Binance.UseTestnet {
			baseURL = binance.TestnetBaseURL
		}
		deps.Exchange = binance.NewClient(binance.Config{
			BaseURL:      baseURL,
			APIKey:       cfg.Binance.APIKey,
			APISecret:    cfg.Binance.APISecret,
			RecvWindowMs: cfg.Binance.RecvWindowMs,
			Timeout:      cfg.Binance.Timeout.Duration,
		})

		// One filter snapshot per process; quantization works off this
		// immutable table for the lifetime of the run.
		table, err := deps.Exchange.ExchangeInfo(ctx)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: exchange info: %w", err)
		}
		logger.InfoContext(ctx, "exchange filters loaded",
			slog.Int("symbols", table.Symbols()))
		deps.FilterSymbols = table.Symbols()

		deps.Orders = service.NewOrderService(quantize.New(table), deps.Exchange, logger)
		if deps.TradeLog != nil {
			deps.Orders = deps.Orders.WithTradeLog(deps.TradeLog)
		}
		if deps.Notifier != nil {
			deps.Orders = deps.Orders.WithNotifier(deps.Notifier)
		}
		deps.Portfolio = service.NewPortfolioService(deps.Exchange, deps.PriceCache, logger)
	}

	// --- Historical tick store and simulator ---
	if needsTicks(cfg, mode) {
		var (
			store *backtest.TickStore
			err   error
		)
		if cfg.Backtest.S3Key != "" {
			if deps.BlobReader == nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: backtest s3_key set but s3 is not enabled")
			}
			store, err = backtest.LoadBlob(ctx, deps.BlobReader, cfg.Backtest.S3Key)
		} else {
			store, err = backtest.LoadFile(cfg.Backtest.DataPath)
		}
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: tick store: %w", err)
		}
		logger.InfoContext(ctx, "tick store loaded",
			slog.Int("ticks", store.Len()))

		deps.Ticks = store
		deps.Simulator = backtest.NewSimulator(store)
	}

	return deps, cleanup, nil
}
