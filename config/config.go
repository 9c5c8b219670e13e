// Package config reads the tracker settings from the environment, after
// loading a .env file if one is present.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Ethereum (origin)
	EthereumRPCURL          string         `envconfig:"ETHEREUM_RPC_URL" required:"true"`
	OriginChainID           int64          `envconfig:"ORIGIN_CHAIN_ID" required:"true"`
	L1StandardBridgeAddress common.Address `envconfig:"L1_STANDARD_BRIDGE_ADDRESS" required:"true"`
	LightLinkPortalAddress  common.Address `envconfig:"LIGHTLINK_PORTAL_ADDRESS" required:"true"`
	MinGasLimit             uint32         `envconfig:"MIN_GAS_LIMIT" default:"200000"`

	// LightLink (destination)
	LightLinkRPCURL            string         `envconfig:"LL_RPC_URL" required:"true"`
	L2ToL1MessagePasserAddress common.Address `envconfig:"L2_TO_L1_MESSAGE_PASSER_ADDRESS" default:"0x4200000000000000000000000000000000000016"`

	// Bridge indexer database
	DatabaseURI  string `envconfig:"DATABASE_URI" required:"true"`
	DatabaseName string `envconfig:"DATABASE_NAME" default:"ll-bridge"`

	// Account, the key is only needed to deposit or finalize
	Account    common.Address `envconfig:"ACCOUNT_ADDRESS"`
	PrivateKey string         `envconfig:"PRIVATE_KEY"`

	// Tracker
	PollInterval        time.Duration `envconfig:"POLL_INTERVAL" default:"12s"`
	CallTimeout         time.Duration `envconfig:"CALL_TIMEOUT" default:"30s"`
	ResolverConcurrency int           `envconfig:"RESOLVER_CONCURRENCY" default:"4"`

	APIPort  string     `envconfig:"API_PORT" default:"8080"`
	LogLevel slog.Level `envconfig:"LOG_LEVEL" default:"INFO"`
}

// Load reads .env, when present, and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if cfg.ResolverConcurrency < 1 {
		return nil, fmt.Errorf("RESOLVER_CONCURRENCY must be at least 1, got %d", cfg.ResolverConcurrency)
	}

	return &cfg, nil
}
