package port

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"atlas-ads/internal/core/domain"
)

// SpendLedger is the per-campaign, per-day spend accumulator. The
// (campaign, day) row is the only shared mutable state on the serving
// path, so implementations must make RecordSpend an atomic
// increment-and-check: concurrent increments never lose updates and
// exactly one writer per day observes the exceeded crossing.
type SpendLedger interface {
	// DailySpent returns the amount spent so far, lazily materializing a
	// zero row for unseen (campaign, day) pairs.
	DailySpent(ctx context.Context, campaignID uuid.UUID, day time.Time) (decimal.Decimal, error)

	// RecordSpend atomically adds amount to the day's total. When the
	// post-increment total reaches dailyBudget the sticky exceeded flag
	// flips; Crossed is true only for the writer that flipped it.
	RecordSpend(ctx context.Context, campaignID uuid.UUID, day time.Time, amount, dailyBudget decimal.Decimal) (domain.SpendRecord, error)

	// IsExceeded reports the sticky exceeded flag for the day.
	IsExceeded(ctx context.Context, campaignID uuid.UUID, day time.Time) (bool, error)

	// ResetDay clears the exceeded flag for the given day and returns how
	// many rows were reset. A non-nil campaignID restricts the reset to
	// that campaign. Run from the daily cron entry point, never on the
	// serving path.
	ResetDay(ctx context.Context, day time.Time, campaignID *uuid.UUID) (int64, error)
}
