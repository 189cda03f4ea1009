package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values
type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Sui          SuiConfig
	Solana       SolanaConfig
	Verification VerificationConfig
	Jobs         JobsConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string
	Env             string
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// URL returns the database connection URL
func (c DatabaseConfig) URL() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + strconv.Itoa(c.Port) + "/" + c.DBName + "?sslmode=" + c.SSLMode
}

// DSN returns the key/value connection string used by lib/pq
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string
	Password string
}

// JWTConfig holds bearer token validation settings
type JWTConfig struct {
	Secret       string
	AccessExpiry time.Duration
}

// SuiConfig holds the Sui fullnode and gift package settings
type SuiConfig struct {
	RPCURL         string
	GiftPackageID  string
	GiftModule     string
	RequestTimeout time.Duration
}

// GiftSentEventType is the fully qualified Move event type emitted per gift.
func (c SuiConfig) GiftSentEventType() string {
	return c.GiftPackageID + "::" + c.GiftModule + "::GiftSent"
}

// SolanaConfig holds the Solana RPC and treasury settings
type SolanaConfig struct {
	RPCURL          string
	TreasuryAddress string
	InitialDelay    time.Duration
	PollMaxElapsed  time.Duration
	RequestTimeout  time.Duration
}

// VerificationConfig holds settings for the verify endpoint
type VerificationConfig struct {
	LockTTL time.Duration
	Timeout time.Duration
}

// JobsConfig holds background job settings
type JobsConfig struct {
	StaleGiftTTL      time.Duration
	StaleGiftInterval time.Duration
}

var defaults = map[string]interface{}{
	"server.port":             "8080",
	"server.env":              "development",
	"server.shutdown_timeout": "15s",

	"database.host":           "localhost",
	"database.port":           5432,
	"database.user":           "postgres",
	"database.password":       "postgres",
	"database.name":           "giftchain",
	"database.sslmode":        "disable",
	"database.max_open_conns": 25,
	"database.max_idle_conns": 5,

	"redis.url":      "redis://localhost:6379",
	"redis.password": "",

	"jwt.secret":        "change-this-in-production",
	"jwt.access_expiry": "15m",

	"sui.rpc_url":         "https://fullnode.mainnet.sui.io:443",
	"sui.gift_package_id": "",
	"sui.gift_module":     "gift",
	"sui.request_timeout": "10s",

	"solana.rpc_url":          "https://api.mainnet-beta.solana.com",
	"solana.treasury_address": "",
	"solana.initial_delay":    "2s",
	"solana.poll_max_elapsed": "30s",
	"solana.request_timeout":  "10s",

	"verification.lock_ttl": "60s",
	"verification.timeout":  "45s",

	"jobs.stale_gift_ttl":      "168h",
	"jobs.stale_gift_interval": "1h",
}

// env names kept flat for compatibility with existing deployments
var envBindings = map[string]string{
	"server.port":             "SERVER_PORT",
	"server.env":              "SERVER_ENV",
	"server.shutdown_timeout": "SERVER_SHUTDOWN_TIMEOUT",

	"database.host":           "DB_HOST",
	"database.port":           "DB_PORT",
	"database.user":           "DB_USER",
	"database.password":       "DB_PASSWORD",
	"database.name":           "DB_NAME",
	"database.sslmode":        "DB_SSLMODE",
	"database.max_open_conns": "DB_MAX_OPEN_CONNS",
	"database.max_idle_conns": "DB_MAX_IDLE_CONNS",

	"redis.url":      "REDIS_URL",
	"redis.password": "REDIS_PASSWORD",

	"jwt.secret":        "JWT_SECRET",
	"jwt.access_expiry": "JWT_ACCESS_EXPIRY",

	"sui.rpc_url":         "SUI_RPC_URL",
	"sui.gift_package_id": "SUI_GIFT_PACKAGE_ID",
	"sui.gift_module":     "SUI_GIFT_MODULE",
	"sui.request_timeout": "SUI_REQUEST_TIMEOUT",

	"solana.rpc_url":          "SOLANA_RPC_URL",
	"solana.treasury_address": "SOLANA_TREASURY_ADDRESS",
	"solana.initial_delay":    "SOLANA_INITIAL_DELAY",
	"solana.poll_max_elapsed": "SOLANA_POLL_MAX_ELAPSED",
	"solana.request_timeout":  "SOLANA_REQUEST_TIMEOUT",

	"verification.lock_ttl": "VERIFY_LOCK_TTL",
	"verification.timeout":  "VERIFY_TIMEOUT",

	"jobs.stale_gift_ttl":      "STALE_GIFT_TTL",
	"jobs.stale_gift_interval": "STALE_GIFT_SWEEP_INTERVAL",
}

// Load layers defaults, the optional YAML file named by CONFIG_FILE, and environment
// variables, then validates the result.
func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetString("server.port"),
			Env:             v.GetString("server.env"),
			ShutdownTimeout: getDuration(v, "server.shutdown_timeout"),
		},
		Database: DatabaseConfig{
			Host:         v.GetString("database.host"),
			Port:         getInt(v, "database.port"),
			User:         v.GetString("database.user"),
			Password:     v.GetString("database.password"),
			DBName:       v.GetString("database.name"),
			SSLMode:      v.GetString("database.sslmode"),
			MaxOpenConns: getInt(v, "database.max_open_conns"),
			MaxIdleConns: getInt(v, "database.max_idle_conns"),
		},
		Redis: RedisConfig{
			URL:      v.GetString("redis.url"),
			Password: v.GetString("redis.password"),
		},
		JWT: JWTConfig{
			Secret:       v.GetString("jwt.secret"),
			AccessExpiry: getDuration(v, "jwt.access_expiry"),
		},
		Sui: SuiConfig{
			RPCURL:         strings.TrimSpace(v.GetString("sui.rpc_url")),
			GiftPackageID:  strings.ToLower(strings.TrimSpace(v.GetString("sui.gift_package_id"))),
			GiftModule:     strings.TrimSpace(v.GetString("sui.gift_module")),
			RequestTimeout: getDuration(v, "sui.request_timeout"),
		},
		Solana: SolanaConfig{
			RPCURL:          strings.TrimSpace(v.GetString("solana.rpc_url")),
			TreasuryAddress: strings.TrimSpace(v.GetString("solana.treasury_address")),
			InitialDelay:    getDuration(v, "solana.initial_delay"),
			PollMaxElapsed:  getDuration(v, "solana.poll_max_elapsed"),
			RequestTimeout:  getDuration(v, "solana.request_timeout"),
		},
		Verification: VerificationConfig{
			LockTTL: getDuration(v, "verification.lock_ttl"),
			Timeout: getDuration(v, "verification.timeout"),
		},
		Jobs: JobsConfig{
			StaleGiftTTL:      getDuration(v, "jobs.stale_gift_ttl"),
			StaleGiftInterval: getDuration(v, "jobs.stale_gift_interval"),
		},
	}

	return cfg, cfg.Validate()
}

// Validate checks settings the verifiers cannot run without
func (c *Config) Validate() error {
	if c.Sui.GiftPackageID == "" {
		return errors.New("SUI_GIFT_PACKAGE_ID is required")
	}
	if c.Sui.GiftModule == "" {
		return errors.New("SUI_GIFT_MODULE is required")
	}
	if c.Solana.TreasuryAddress == "" {
		return errors.New("SOLANA_TREASURY_ADDRESS is required")
	}
	if err := validateURL(c.Sui.RPCURL, "http"); err != nil {
		return fmt.Errorf("invalid SUI_RPC_URL: %w", err)
	}
	if err := validateURL(c.Solana.RPCURL, "http"); err != nil {
		return fmt.Errorf("invalid SOLANA_RPC_URL: %w", err)
	}
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET is required")
	}
	return nil
}

// IsProduction reports whether the server runs in production mode
func (c ServerConfig) IsProduction() bool {
	return c.Env == "production"
}

func validateURL(rawURL, protocol string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) || parsed.Host == "" {
		return errors.New("invalid URL protocol")
	}
	return nil
}

// getDuration falls back to the default when the configured value does not parse.
func getDuration(v *viper.Viper, key string) time.Duration {
	if d, err := time.ParseDuration(strings.TrimSpace(v.GetString(key))); err == nil && d > 0 {
		return d
	}
	d, _ := time.ParseDuration(defaults[key].(string))
	return d
}

func getInt(v *viper.Viper, key string) int {
	if n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key))); err == nil {
		return n
	}
	return defaults[key].(int)
}
