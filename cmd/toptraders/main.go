// Package main ranks the most profitable wallets trading through a Solana
// program over several trailing windows:
// - Signatures are paginated backwards per window through a shared rate gate
// - Every transaction is classified and applied to a per-window ledger
// - The top traders of each window are enriched and reported
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"solana-top-traders/internal/classifier"
	"solana-top-traders/internal/config"
	"solana-top-traders/internal/domain"
	"solana-top-traders/internal/feed"
	"solana-top-traders/internal/ingestion"
	"solana-top-traders/internal/metrics"
	"solana-top-traders/internal/observability"
	"solana-top-traders/internal/orchestrator"
	"solana-top-traders/internal/price"
	"solana-top-traders/internal/ratelimit"
	"solana-top-traders/internal/reporting"
	"solana-top-traders/internal/solana"
	chstore "solana-top-traders/internal/storage/clickhouse"
	"solana-top-traders/internal/storage/migrations"
	pgstore "solana-top-traders/internal/storage/postgres"
)

func main() {
	logger := log.New(os.Stdout, "[toptraders] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Flags override env values
	address := flag.String("address", cfg.Address, "Monitored program address or alias (raydium, pumpfun)")
	rpcURL := flag.String("rpc-url", cfg.RPCURL, "Solana RPC HTTP endpoint")
	windowsFile := flag.String("windows", cfg.WindowsFile, "YAML file with window definitions")
	interval := flag.Duration("interval", cfg.RequestInterval, "Minimum spacing between provider calls")
	topK := flag.Int("top", cfg.TopK, "Number of traders to rank per window")
	minTrades := flag.Int("min-trades", cfg.MinTrades, "Minimum trades to qualify")
	attribution := flag.String("attribution", string(cfg.Attribution), "Volume attribution: PER_PARTICIPANT_FULL, SPLIT_EVENLY, SENDER_ONLY")
	excludeProgramOwned := flag.Bool("exclude-program-owned", cfg.ExcludeProgramOwned, "Drop off-curve owners such as pool vaults")
	outDir := flag.String("out", cfg.OutDir, "Directory for report.md and report.csv")
	metricsAddr := flag.String("metrics-addr", cfg.MetricsAddr, "Prometheus metrics HTTP address (empty disables)")
	feedAddr := flag.String("feed-addr", cfg.FeedAddr, "Websocket progress feed address (empty disables)")
	postgresDSN := flag.String("postgres-dsn", cfg.PostgresDSN, "PostgreSQL DSN for the report archive")
	clickhouseDSN := flag.String("clickhouse-dsn", cfg.ClickhouseDSN, "ClickHouse DSN for the report archive")

	flag.Parse()

	cfg.Address = solana.ResolveProgram(*address)
	cfg.RPCURL = *rpcURL
	cfg.RequestInterval = *interval
	cfg.TopK = *topK
	cfg.MinTrades = *minTrades
	cfg.Attribution = domain.VolumeAttribution(*attribution)
	cfg.ExcludeProgramOwned = *excludeProgramOwned
	cfg.OutDir = *outDir
	cfg.MetricsAddr = *metricsAddr
	cfg.FeedAddr = *feedAddr
	cfg.PostgresDSN = *postgresDSN
	cfg.ClickhouseDSN = *clickhouseDSN
	if *windowsFile != cfg.WindowsFile {
		windows, err := config.LoadWindows(*windowsFile)
		if err != nil {
			logger.Fatalf("Failed to load windows: %v", err)
		}
		cfg.WindowsFile = *windowsFile
		cfg.Windows = windows
	}

	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid config: %v", err)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, stopping...", sig)
		cancel()

		// Second signal exits immediately
		<-sigCh
		os.Exit(1)
	}()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Printf("Run failed: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	runID := uuid.NewString()
	now := time.Now()

	logger.Printf("Run %s: program %s, rpc %s (api key %s), windows %d",
		runID, cfg.Address, cfg.RPCURL, cfg.MaskedAPIKey(), len(cfg.Windows))

	// Sinks
	console := reporting.NewConsoleSink(os.Stdout)
	sinks := reporting.MultiSink{console}

	var fileSink *reporting.FileSink
	if cfg.OutDir != "" {
		fileSink = reporting.NewFileSink(cfg.OutDir)
		sinks = append(sinks, fileSink)
	}

	if cfg.FeedAddr != "" {
		broadcaster := feed.NewBroadcaster(logger)
		defer broadcaster.Close()
		sinks = append(sinks, broadcaster)

		mux := http.NewServeMux()
		mux.Handle("/ws", broadcaster.Handler())
		go serve(logger, "feed", cfg.FeedAddr, mux)
	}

	if cfg.MetricsAddr != "" {
		go serve(logger, "metrics", cfg.MetricsAddr, metricsMux())
	}

	// Shared rate gate for RPC and price calls
	gate := ratelimit.NewGate(
		ratelimit.WithInterval(cfg.RequestInterval),
		ratelimit.WithBaseDelay(cfg.RetryBase),
		ratelimit.WithMaxDelay(cfg.RetryMaxDelay),
		ratelimit.WithMaxAttempts(cfg.RetryMaxAttempts),
		ratelimit.WithOnBackoff(func(attempt int, wait time.Duration, err error) {
			sinks.Status(fmt.Sprintf("rate limited (attempt %d), retrying in %s", attempt, wait.Round(time.Millisecond)))
		}),
	)

	rpc := solana.NewLimitedClient(solana.NewHTTPClient(cfg.RPCEndpoint()), gate)

	oracle, closeOracle, err := buildOracle(ctx, cfg, gate, logger)
	if err != nil {
		return err
	}
	defer closeOracle()

	// Report archive
	archives, closeArchive, err := buildArchive(ctx, cfg, runID, now, logger)
	if err != nil {
		return err
	}
	defer closeArchive()
	for _, a := range archives {
		sinks = append(sinks, a)
	}

	orch := orchestrator.New(orchestrator.Options{
		RPC: rpc,
		Paginator: ingestion.NewPaginator(ingestion.PaginatorOptions{
			RPC:          rpc,
			PageSize:     cfg.PageSize,
			MaxPerWindow: cfg.MaxPerWindow,
			Logger:       logger,
		}),
		Classifier: classifier.New(cfg.DustThreshold),
		Oracle:     oracle,
		Sink:       sinks,
		Address:    cfg.Address,
		RunID:      runID,
		Windows:    cfg.Windows,
		Criteria: metrics.Criteria{
			MinTrades:       cfg.MinTrades,
			MinWinRate:      metrics.DefaultMinWinRate,
			K:               cfg.TopK,
			ExcludeOffCurve: cfg.ExcludeProgramOwned,
		},
		Attribution:   cfg.Attribution,
		PriceBase:     cfg.PriceBase,
		PriceQuote:    cfg.PriceQuote,
		MaxPerPeriod:  cfg.MaxPerPeriod,
		SnapshotEvery: cfg.SnapshotEvery,
		Logger:        logger,
	})

	result, err := orch.Run(ctx, now)
	if err != nil {
		return err
	}

	if fileSink != nil {
		if err := fileSink.Close(); err != nil {
			return fmt.Errorf("write reports: %w", err)
		}
		logger.Printf("Reports written to %s", cfg.OutDir)
	}

	// Archives only receive runs that completed every window.
	for _, a := range archives {
		if err := a.Flush(); err != nil {
			return err
		}
	}

	logger.Printf("Run %s complete: %d windows at %s = %s", result.RunID, len(result.Reports), result.PriceSymbol, result.Price)
	return nil
}

// buildOracle wraps Binance with the shared gate and, when configured, a Redis cache.
func buildOracle(ctx context.Context, cfg *config.Config, gate *ratelimit.Gate, logger *log.Logger) (price.Oracle, func(), error) {
	var oracle price.Oracle = price.NewLimitedOracle(price.NewBinanceOracle(price.WithBaseURL(cfg.BinanceBaseURL)), gate)

	if cfg.RedisAddr == "" {
		return oracle, func() {}, nil
	}

	client, err := price.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("connect price cache: %w", err)
	}
	logger.Printf("Price cache: redis %s, ttl %s", cfg.RedisAddr, cfg.PriceCacheTTL)

	cached := price.NewCachedOracle(price.CacheOptions{
		Client: client,
		Next:   oracle,
		TTL:    cfg.PriceCacheTTL,
		Logger: logger,
	})
	return cached, func() { client.Close() }, nil
}

// buildArchive connects the configured report stores and runs their migrations.
func buildArchive(ctx context.Context, cfg *config.Config, runID string, now time.Time, logger *log.Logger) ([]*reporting.ArchiveSink, func(), error) {
	run := &domain.RunRecord{
		RunID:       runID,
		Address:     cfg.Address,
		StartedAt:   now.UnixMilli(),
		PriceSymbol: price.Symbol(cfg.PriceBase, cfg.PriceQuote),
		Attribution: cfg.Attribution,
	}

	var (
		sinks   []*reporting.ArchiveSink
		closers []func()
	)
	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}

	if cfg.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, cleanup, fmt.Errorf("connect to postgres: %w", err)
		}
		closers = append(closers, pool.Close)

		applied, err := migrations.RunPostgresMigrations(ctx, pool)
		if err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("postgres migrations: %w", err)
		}
		for _, name := range applied {
			logger.Printf("Applied postgres migration %s", name)
		}

		sinks = append(sinks, reporting.NewArchiveSink(ctx, reporting.ArchiveOptions{
			Store:   pgstore.NewReportStore(pool),
			Backend: "postgres",
			Run:     run,
			Logger:  logger,
		}))
		logger.Println("Report archive: postgres")
	}

	if cfg.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		if err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("clickhouse migrations: %w", err)
		}
		closers = append(closers, func() { conn.Close() })

		sinks = append(sinks, reporting.NewArchiveSink(ctx, reporting.ArchiveOptions{
			Store:   chstore.NewReportStore(conn),
			Backend: "clickhouse",
			Run:     run,
			Logger:  logger,
		}))
		logger.Println("Report archive: clickhouse")
	}

	return sinks, cleanup, nil
}

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics
	mux.Handle("/metrics", observability.Handler())
	return mux
}

func serve(logger *log.Logger, name, addr string, handler http.Handler) {
	logger.Printf("Starting %s server on %s", name, addr)
	if err := http.ListenAndServe(addr, handler); err != nil && err != http.ErrServerClosed {
		logger.Printf("%s server error: %v", name, err)
	}
}
