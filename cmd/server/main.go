package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"ethlog/config"
	"ethlog/ethmodel"
	"ethlog/ingest"
	"ethlog/routes"
	"ethlog/store"
	"ethlog/subscriber"
)

func main() {
	initLogger()
	log.Info().Msg("starting ethlog ingestion service")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := connectDatabase(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database after retries")
	}

	eventStore, err := store.Init(db)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to run event store migrations")
	}
	if err := config.WaitForEventTable(db); err != nil {
		log.Fatal().Err(err).Msg("event store table validation failed")
	}

	if !common.IsHexAddress(cfg.EthTokenAddress) {
		log.Fatal().Str("token_address", cfg.EthTokenAddress).Msg("ETH_TOKEN_ADDRESS is not a valid address")
	}
	tokenAddress := common.HexToAddress(cfg.EthTokenAddress)
	timeout := time.Duration(cfg.EthSubscriptionTimeoutSeconds) * time.Second

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runFlag := &atomic.Bool{}
	runFlag.Store(true)

	sub := subscriber.New(cfg.EthWSURL, timeout, tokenAddress)
	decoded := make(chan ethmodel.Event)

	handle, err := sub.Subscribe(ctx, decoded, runFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("initial subscription failed")
	}
	log.Info().Str("token_address", tokenAddress.Hex()).Msg("subscriber connected")

	var lastPersistedID atomic.Uint64
	persisted, ingestDone := ingest.Start(decoded, eventStore, &lastPersistedID)

	// Drain the fan-out channel so ingest's fan-out buffer never fills;
	// nothing downstream consumes it in this process today, but the
	// channel must be kept empty.
	go func() {
		for range persisted {
		}
	}()

	router := routes.SetupRouter(eventStore, handle, runFlag, &lastPersistedID, cfg.JWTSecret)
	httpServer := &http.Server{
		Addr:    cfg.HTTPBindAddress,
		Handler: router,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPBindAddress).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server stopped unexpectedly")
		}
	}()

	waitForShutdownSignal()
	log.Info().Msg("shutdown signal received, draining")

	runFlag.Store(false)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("HTTP server shutdown did not complete cleanly")
	}

	<-handle.Done()
	close(decoded)
	<-ingestDone

	log.Info().Msg("ethlog ingestion service stopped cleanly")
}

func connectDatabase(cfg *config.Config) (*gorm.DB, error) {
	const maxRetries = 5
	const retryDelay = 3 * time.Second

	var db *gorm.DB
	var err error
	for i := 0; i < maxRetries; i++ {
		db, err = config.InitDB(cfg)
		if err == nil {
			break
		}
		log.Warn().Err(err).Int("attempt", i+1).Int("max_attempts", maxRetries).Msg("failed to connect to database")
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}
	if err != nil {
		return nil, err
	}
	if err := config.EnsureDatabaseConnection(db); err != nil {
		return nil, err
	}
	return db, nil
}

func waitForShutdownSignal() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
}

func initLogger() {
	zerolog.TimeFieldFormat = time.RFC3339
	level, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
}
