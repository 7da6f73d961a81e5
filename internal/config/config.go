// Package config holds the marketplace policy constants. All limits are
// read from the environment with sensible defaults so deployments can tune
// them without code changes.
package config

import (
	"os"
	"strconv"
)

// Policy holds the caller-visible marketplace limits. Every mutating
// operation re-checks these inside its transaction; handlers may use them
// for advisory pre-checks.
type Policy struct {
	MinPriceCents     int64
	MaxPriceCents     int64
	MaxActiveListings int
	MaxActiveTrades   int
	MaxOffersPerTrade int
	DailyLimitCents   int64
	CommissionRate    float64
}

// DefaultPolicy returns the built-in limits: $0.01–$1000 prices, 10 active
// listings, 10 active trades, 20 offers per trade, a $2000 daily purchase
// ceiling and a 5% sale commission.
func DefaultPolicy() Policy {
	return Policy{
		MinPriceCents:     1,
		MaxPriceCents:     100_000,
		MaxActiveListings: 10,
		MaxActiveTrades:   10,
		MaxOffersPerTrade: 20,
		DailyLimitCents:   200_000,
		CommissionRate:    0.05,
	}
}

// PolicyFromEnv returns the default policy overridden by TRZNICA_*
// environment variables. Monetary values are decimal dollars.
func PolicyFromEnv() Policy {
	p := DefaultPolicy()
	p.MinPriceCents = envCents("TRZNICA_MIN_PRICE", p.MinPriceCents)
	p.MaxPriceCents = envCents("TRZNICA_MAX_PRICE", p.MaxPriceCents)
	p.MaxActiveListings = envInt("TRZNICA_MAX_LISTINGS", p.MaxActiveListings)
	p.MaxActiveTrades = envInt("TRZNICA_MAX_TRADES", p.MaxActiveTrades)
	p.MaxOffersPerTrade = envInt("TRZNICA_MAX_OFFERS", p.MaxOffersPerTrade)
	p.DailyLimitCents = envCents("TRZNICA_DAILY_LIMIT", p.DailyLimitCents)
	p.CommissionRate = envFloat("TRZNICA_COMMISSION_RATE", p.CommissionRate)
	return p
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 && f < 1 {
			return f
		}
	}
	return fallback
}

func envCents(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return int64(f * 100)
		}
	}
	return fallback
}
