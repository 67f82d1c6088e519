package configs

import (
	"time"

	"github.com/shopspring/decimal"
)

// Serving tunes the ad decisioning path.
type Serving struct {
	// CacheTTL bounds how stale a cached response for an (app, ad types)
	// pair may get. Spend accounting is never skipped on cache hits, only
	// targeting freshness lags.
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"5m"`

	// EstimatedCost is the per-impression cost used for budget admission
	// and debiting, in currency units.
	EstimatedCost string `env:"ESTIMATED_COST" envDefault:"0.01"`

	// LimitedAdmissionRate is the fraction of requests admitted for a
	// campaign with the continue_limited action once its daily budget is
	// exceeded. The stored per-campaign frequency cap is intentionally
	// not consulted here.
	LimitedAdmissionRate float64 `env:"LIMITED_ADMISSION_RATE" envDefault:"0.1"`
}

// Cost parses EstimatedCost into a decimal amount. Invalid values fall
// back to 0.01.
func (s Serving) Cost() decimal.Decimal {
	cost, err := decimal.NewFromString(s.EstimatedCost)
	if err != nil || !cost.IsPositive() {
		return decimal.New(1, -2)
	}
	return cost
}
