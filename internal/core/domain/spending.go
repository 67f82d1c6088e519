package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DailySpending is the budget ledger's state for one (campaign, day)
// pair. AmountSpent only grows within a day, and BudgetExceeded is sticky
// for the day: only a fresh day (or an explicit reset) clears it.
type DailySpending struct {
	ID             uuid.UUID
	CampaignID     uuid.UUID
	Day            time.Time
	AmountSpent    decimal.Decimal
	BudgetExceeded bool
}

// RemainingBudget returns how much of the daily budget is left, floored
// at zero.
func (d *DailySpending) RemainingBudget(dailyBudget decimal.Decimal) decimal.Decimal {
	remaining := dailyBudget.Sub(d.AmountSpent)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// SpendRecord is the outcome of one atomic spend increment. Crossed is
// true for exactly one writer per (campaign, day): the one whose
// increment flipped the sticky exceeded flag.
type SpendRecord struct {
	TotalSpent decimal.Decimal
	Exceeded   bool
	Crossed    bool
}

// Day truncates t to its calendar date in UTC, the ledger's key
// granularity.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
