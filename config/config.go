// Package config loads environment variables and provides a typed Config used across the service.
// It applies sensible defaults so the binary can run locally with minimal setup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// HTTP
	HTTPAddr string

	// Timeline paging
	PageLimit int

	// Currency enrichment
	CurrencyAPIURL  string
	CurrencyTimeout time.Duration

	// Session housekeeping
	SessionTTL time.Duration
}

// Load reads environment variables and applies defaults. Everything is optional;
// missing variables fall back to values suitable for local development.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	cfg.PageLimit = 1500
	if v := os.Getenv("PAGE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid PAGE_LIMIT %q", v)
		}
		cfg.PageLimit = n
	}

	cfg.CurrencyAPIURL = os.Getenv("CURRENCY_API_URL")
	if cfg.CurrencyAPIURL == "" {
		cfg.CurrencyAPIURL = "https://bcd-api-dca-ipa.cbsa-asfc.cloud-nuage.canada.ca/exchange-rate-lambda/exchange-rates"
	}

	cfg.CurrencyTimeout = 10 * time.Second
	if v := os.Getenv("CURRENCY_TIMEOUT_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid CURRENCY_TIMEOUT_SECONDS %q", v)
		}
		cfg.CurrencyTimeout = time.Duration(n) * time.Second
	}

	cfg.SessionTTL = 2 * time.Hour
	if v := os.Getenv("SESSION_TTL_MINUTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid SESSION_TTL_MINUTES %q", v)
		}
		cfg.SessionTTL = time.Duration(n) * time.Minute
	}

	return cfg, nil
}
