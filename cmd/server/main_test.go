package main

import (
	"errors"
	"net/http"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"giftchain.backend/internal/config"
	"giftchain.backend/pkg/logger"
)

func withMainHooks(t *testing.T) {
	t.Helper()
	origLoadDotenv := loadDotenv
	origLoadCfg := loadCfg
	origInitLog := initLog
	origOpenDB := openDB
	origNewRedis := newRedis
	origNewClientFactory := newClientFactory
	origRunServer := runServer
	origSignals := shutdownSignals

	t.Cleanup(func() {
		loadDotenv = origLoadDotenv
		loadCfg = origLoadCfg
		initLog = origInitLog
		openDB = origOpenDB
		newRedis = origNewRedis
		newClientFactory = origNewClientFactory
		runServer = origRunServer
		shutdownSignals = origSignals
	})

	loadDotenv = func(...string) error { return errors.New("no .env") }
	initLog = logger.Init
	openDB = func(config.DatabaseConfig) (*gorm.DB, error) {
		return gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	}
}

func baseTestConfig(redisAddr string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:            "0",
			Env:             "development",
			ShutdownTimeout: 5 * time.Second,
		},
		Redis: config.RedisConfig{URL: "redis://" + redisAddr},
		JWT:   config.JWTConfig{Secret: "secret", AccessExpiry: time.Hour},
		Sui: config.SuiConfig{
			RPCURL:        "http://127.0.0.1:1",
			GiftPackageID: "0x2",
			GiftModule:    "gift",
		},
		Solana: config.SolanaConfig{
			RPCURL:          "http://127.0.0.1:1",
			TreasuryAddress: "8JrTj8KwgdUZY6iWy5Pq1mGJ961XEGnkELH4jZeUhWdB",
		},
		Jobs: config.JobsConfig{StaleGiftTTL: 0, StaleGiftInterval: time.Hour},
	}
}

func TestRunMainProcess_ConfigError(t *testing.T) {
	withMainHooks(t)
	loadCfg = func() (*config.Config, error) { return nil, errors.New("SUI_GIFT_PACKAGE_ID is required") }

	err := runMainProcess()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestRunMainProcess_RedisInitError(t *testing.T) {
	withMainHooks(t)
	loadCfg = func() (*config.Config, error) { return baseTestConfig("127.0.0.1:1"), nil }

	err := runMainProcess()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize redis")
}

func TestRunMainProcess_DatabaseError(t *testing.T) {
	withMainHooks(t)
	mr := miniredis.RunT(t)
	loadCfg = func() (*config.Config, error) { return baseTestConfig(mr.Addr()), nil }
	openDB = func(config.DatabaseConfig) (*gorm.DB, error) { return nil, errors.New("connection refused") }

	err := runMainProcess()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to database")
}

func TestRunMainProcess_ServerError(t *testing.T) {
	withMainHooks(t)
	mr := miniredis.RunT(t)
	loadCfg = func() (*config.Config, error) { return baseTestConfig(mr.Addr()), nil }
	runServer = func(*http.Server) error { return errors.New("address already in use") }

	err := runMainProcess()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start server")
}

func TestRunMainProcess_ServerClosed(t *testing.T) {
	withMainHooks(t)
	mr := miniredis.RunT(t)
	loadCfg = func() (*config.Config, error) { return baseTestConfig(mr.Addr()), nil }

	var addr string
	runServer = func(srv *http.Server) error {
		addr = srv.Addr
		return http.ErrServerClosed
	}

	require.NoError(t, runMainProcess())
	assert.Equal(t, ":0", addr)
}

func TestRunMainProcess_GracefulShutdownOnSignal(t *testing.T) {
	withMainHooks(t)
	mr := miniredis.RunT(t)
	loadCfg = func() (*config.Config, error) { return baseTestConfig(mr.Addr()), nil }
	shutdownSignals = []os.Signal{syscall.SIGUSR1}

	started := make(chan struct{})
	runServer = func(srv *http.Server) error {
		srv.Addr = "127.0.0.1:0"
		close(started)
		return srv.ListenAndServe()
	}

	done := make(chan error, 1)
	go func() { done <- runMainProcess() }()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}
	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGUSR1))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
