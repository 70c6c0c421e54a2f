/**
 * @description
 * This package handles the configuration management for the service. It uses the
 * Viper library to read configuration from environment variables, providing a
 * centralized and straightforward way to manage application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/creditline/ledger-service/internal/domain"
)

// Store backend selectors.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// DefaultAccountSeed provisions the reference deployment's five accounts for
// the memory backend: id:limit pairs, balances start at zero.
const DefaultAccountSeed = "1:100000,2:80000,3:1000000,4:10000000,5:500000"

// Config holds all the configuration variables for the ledger-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort               string `mapstructure:"SERVER_PORT"`
	StoreBackend             string `mapstructure:"STORE_BACKEND"`
	DatabaseURL              string `mapstructure:"DATABASE_URL"`
	AccountSeed              string `mapstructure:"ACCOUNT_SEED"`
	StatementLimit           int    `mapstructure:"STATEMENT_LIMIT"`
	RabbitMQURL              string `mapstructure:"RABBITMQ_URL"`
	TransactionEventExchange string `mapstructure:"TRANSACTION_EVENT_EXCHANGE"`
	RedisURL                 string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix     string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	PostRateLimitPerMinute   int    `mapstructure:"POST_RATE_LIMIT_PER_MINUTE"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("STORE_BACKEND", BackendPostgres)
	viper.SetDefault("ACCOUNT_SEED", DefaultAccountSeed)
	viper.SetDefault("STATEMENT_LIMIT", 10)
	viper.SetDefault("TRANSACTION_EVENT_EXCHANGE", "ledger_events")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "ledger:rate_limit")
	viper.SetDefault("POST_RATE_LIMIT_PER_MINUTE", 0) // disabled unless configured

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("STORE_BACKEND")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("ACCOUNT_SEED")
	_ = viper.BindEnv("STATEMENT_LIMIT")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("TRANSACTION_EVENT_EXCHANGE")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("POST_RATE_LIMIT_PER_MINUTE")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		// If the config file is not found, we can ignore the error.
		// For other errors, we should return them.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
		err = nil
	}

	// Unmarshal the configuration into the Config struct.
	if err = viper.Unmarshal(&config); err != nil {
		return
	}

	config.StoreBackend = strings.ToLower(strings.TrimSpace(config.StoreBackend))
	if config.StoreBackend == "" {
		config.StoreBackend = BackendPostgres
	}
	if config.StoreBackend != BackendPostgres && config.StoreBackend != BackendMemory {
		err = fmt.Errorf("unsupported store backend %q", config.StoreBackend)
		return
	}

	if config.StatementLimit <= 0 {
		log.Printf("level=warn component=config msg=\"non-positive statement limit configured; using default\" statement_limit=%d", config.StatementLimit)
		config.StatementLimit = 10
	}
	if config.PostRateLimitPerMinute < 0 {
		log.Printf("level=warn component=config msg=\"negative post rate limit configured; disabling\" limit=%d", config.PostRateLimitPerMinute)
		config.PostRateLimitPerMinute = 0
	}

	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisRateLimitPrefix = strings.TrimSpace(config.RedisRateLimitPrefix)
	if config.RedisRateLimitPrefix == "" {
		config.RedisRateLimitPrefix = "ledger:rate_limit"
	}

	return
}

// ParseAccountSeed parses the ACCOUNT_SEED value: a comma-separated list of
// `id:limit` or `id:limit:balance` triples. Ids must be unique, limits
// non-negative.
func ParseAccountSeed(seed string) ([]domain.Account, error) {
	trimmed := strings.TrimSpace(seed)
	if trimmed == "" {
		return nil, fmt.Errorf("account seed is empty")
	}

	seen := make(map[int64]bool)
	var accounts []domain.Account
	for _, part := range strings.Split(trimmed, ",") {
		fields := strings.Split(strings.TrimSpace(part), ":")
		if len(fields) != 2 && len(fields) != 3 {
			return nil, fmt.Errorf("malformed account seed entry %q", part)
		}

		id, err := strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed account id in seed entry %q: %w", part, err)
		}
		limit, err := strconv.ParseInt(strings.TrimSpace(fields[1]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed limit in seed entry %q: %w", part, err)
		}
		if limit < 0 {
			return nil, fmt.Errorf("negative limit in seed entry %q", part)
		}

		var balance int64
		if len(fields) == 3 {
			balance, err = strconv.ParseInt(strings.TrimSpace(fields[2]), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("malformed balance in seed entry %q: %w", part, err)
			}
			if balance < -limit {
				return nil, fmt.Errorf("seed balance below -limit in entry %q", part)
			}
		}

		if seen[id] {
			return nil, fmt.Errorf("duplicate account id %d in seed", id)
		}
		seen[id] = true

		accounts = append(accounts, domain.Account{ID: id, Limit: limit, Balance: balance})
	}

	return accounts, nil
}
