// Package config содержит логику чтения конфигурации сервиса аукциона.
package config

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config содержит параметры конфигурации сервиса аукциона.
type Config struct {
	RunAddress          string `env:"RUN_ADDRESS"`
	DatabaseURI         string `env:"DATABASE_URI"`
	CatalogFeedAddress  string `env:"CATALOG_FEED_ADDRESS"`
	AuthSecret          string `env:"AUTH_SECRET"`
	LotSeconds          int    `env:"LOT_SECONDS"`
	BidExtensionSeconds int    `env:"BID_EXTENSION_SECONDS"`
	BidderBudget        int64  `env:"BIDDER_BUDGET"`
	EnforceIncrement    bool   `env:"ENFORCE_INCREMENT"`
	SkipSeed            bool   `env:"SKIP_SEED"`
}

const (
	defaultRunAddress   = "localhost:8080"
	defaultLotSeconds   = 90
	defaultBidExtension = 30
	defaultBidderBudget = 10_000_000
)

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Значения из окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	fromEnv := *cfg

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI for the result archive")
	flag.StringVar(&cfg.CatalogFeedAddress, "f", "", "external catalog feed address")
	flag.StringVar(&cfg.AuthSecret, "s", "", "secret for signing participant cookies")
	flag.IntVar(&cfg.LotSeconds, "lot-seconds", defaultLotSeconds, "countdown length for a new lot")
	flag.IntVar(&cfg.BidExtensionSeconds, "bid-extension", defaultBidExtension, "seconds guaranteed after an accepted bid")
	flag.Int64Var(&cfg.BidderBudget, "budget", defaultBidderBudget, "budget assigned to each team owner")
	flag.BoolVar(&cfg.EnforceIncrement, "enforce-increment", false, "reject bids below the tiered minimum increment")
	flag.BoolVar(&cfg.SkipSeed, "skip-seed", false, "start with an empty catalog")

	flag.Parse()

	if fromEnv.RunAddress != "" {
		cfg.RunAddress = fromEnv.RunAddress
	}
	if fromEnv.DatabaseURI != "" {
		cfg.DatabaseURI = fromEnv.DatabaseURI
	}
	if fromEnv.CatalogFeedAddress != "" {
		cfg.CatalogFeedAddress = fromEnv.CatalogFeedAddress
	}
	if fromEnv.AuthSecret != "" {
		cfg.AuthSecret = fromEnv.AuthSecret
	}
	if fromEnv.LotSeconds != 0 {
		cfg.LotSeconds = fromEnv.LotSeconds
	}
	if fromEnv.BidExtensionSeconds != 0 {
		cfg.BidExtensionSeconds = fromEnv.BidExtensionSeconds
	}
	if fromEnv.BidderBudget != 0 {
		cfg.BidderBudget = fromEnv.BidderBudget
	}
	if fromEnv.EnforceIncrement {
		cfg.EnforceIncrement = true
	}
	if fromEnv.SkipSeed {
		cfg.SkipSeed = true
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.LotSeconds <= 0 {
		return fmt.Errorf("lot seconds must be positive, got %d", c.LotSeconds)
	}
	if c.BidExtensionSeconds <= 0 {
		return fmt.Errorf("bid extension must be positive, got %d", c.BidExtensionSeconds)
	}
	if c.BidderBudget <= 0 {
		return fmt.Errorf("bidder budget must be positive, got %d", c.BidderBudget)
	}
	return nil
}
