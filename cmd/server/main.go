package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"giftchain.backend/internal/config"
	"giftchain.backend/internal/infrastructure/blockchain"
	"giftchain.backend/internal/infrastructure/datasources/postgres"
	"giftchain.backend/internal/infrastructure/jobs"
	"giftchain.backend/internal/infrastructure/repositories"
	"giftchain.backend/internal/interfaces/http/handlers"
	"giftchain.backend/internal/usecases"
	"giftchain.backend/pkg/jwt"
	"giftchain.backend/pkg/logger"
	"giftchain.backend/pkg/metrics"
	"giftchain.backend/pkg/redis"
)

var (
	loadDotenv       = godotenv.Load
	loadCfg          = config.Load
	initLog          = logger.Init
	openDB           = postgres.NewConnection
	newRedis         = redis.New
	newClientFactory = blockchain.NewClientFactory
	runServer        = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownSignals  = []os.Signal{os.Interrupt, syscall.SIGTERM}
)

func main() {
	if err := runMainProcess(); err != nil {
		logger.Error(context.Background(), "Server exited", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func runMainProcess() error {
	dotenvErr := loadDotenv()

	cfg, err := loadCfg()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	initLog(cfg.Server.Env)
	defer logger.Sync()
	if dotenvErr != nil {
		logger.Debug(context.Background(), "No .env file found, using environment variables")
	}
	logger.Info(context.Background(), "Logger initialized", zap.String("env", cfg.Server.Env))

	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals...)
	defer stop()

	rdb, err := newRedis(cfg.Redis.URL, cfg.Redis.Password)
	if err != nil {
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	defer rdb.Close()
	logger.Info(ctx, "Redis initialized")

	db, err := openDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	logger.Info(ctx, "Connected to PostgreSQL")

	clientFactory := newClientFactory()
	defer clientFactory.Close()

	suiClient, err := clientFactory.GetSuiClient(ctx, cfg.Sui.RPCURL, blockchain.SuiOptions{
		RequestTimeout: cfg.Sui.RequestTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize sui client: %w", err)
	}
	solanaClient := clientFactory.GetSolanaClient(cfg.Solana.RPCURL, blockchain.SolanaOptions{
		RequestTimeout: cfg.Solana.RequestTimeout,
		InitialDelay:   cfg.Solana.InitialDelay,
		PollMaxElapsed: cfg.Solana.PollMaxElapsed,
	})

	// Repositories
	giftRepo := repositories.NewGiftRepository(db)
	userRepo := repositories.NewUserRepository(db)
	uow := repositories.NewUnitOfWork(db)

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	verificationMetrics := metrics.NewVerificationMetrics(registry)

	// Usecases
	verifiers := []usecases.ChainVerifier{
		usecases.NewSuiTransactionVerifier(suiClient, cfg.Sui.GiftPackageID, cfg.Sui.GiftModule),
		usecases.NewSolTransactionVerifier(solanaClient, cfg.Solana.TreasuryAddress),
	}
	settler := usecases.NewSettlementReconciler(uow, giftRepo, userRepo)
	verificationUsecase := usecases.NewVerificationUsecase(giftRepo, verifiers, settler, rdb, verificationMetrics, usecases.VerificationOptions{
		LockTTL: cfg.Verification.LockTTL,
		Timeout: cfg.Verification.Timeout,
	})
	giftUsecase := usecases.NewGiftUsecase(giftRepo)
	giftQueryUsecase := usecases.NewGiftQueryUsecase(giftRepo, userRepo)

	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := newRouter(routeDeps{
		giftHandler:         handlers.NewGiftHandler(giftUsecase, giftQueryUsecase),
		verificationHandler: handlers.NewVerificationHandler(verificationUsecase),
		userHandler:         handlers.NewUserHandler(giftQueryUsecase),
		tokenValidator:      jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiry),
		idempotencyStore:    rdb,
		metricsGatherer:     registry,
	})

	// Background jobs
	sweepJob := jobs.NewStaleGiftSweepJob(giftRepo, cfg.Jobs.StaleGiftTTL, cfg.Jobs.StaleGiftInterval)
	go sweepJob.Start(ctx)
	defer sweepJob.Stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- runServer(srv)
	}()
	logger.Info(ctx, "GiftChain backend started",
		zap.String("port", cfg.Server.Port),
		zap.Int("routes", len(r.Routes())),
	)

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
