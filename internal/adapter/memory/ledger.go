package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"atlas-ads/internal/core/domain"
)

// SpendLedger is a mutex-guarded in-memory implementation of
// port.SpendLedger, keyed by (campaign, day). The serialized critical
// section makes the increment and the exceeded-flag transition a single
// atomic step, so concurrent writers never lose updates and exactly one
// of them observes the crossing.
type SpendLedger struct {
	mu   sync.Mutex
	rows map[ledgerKey]*domain.DailySpending
}

type ledgerKey struct {
	campaignID uuid.UUID
	day        time.Time
}

// NewSpendLedger creates an empty ledger.
func NewSpendLedger() *SpendLedger {
	return &SpendLedger{rows: make(map[ledgerKey]*domain.DailySpending)}
}

func (l *SpendLedger) row(campaignID uuid.UUID, day time.Time) *domain.DailySpending {
	key := ledgerKey{campaignID: campaignID, day: domain.Day(day)}
	row, ok := l.rows[key]
	if !ok {
		row = &domain.DailySpending{
			ID:          uuid.New(),
			CampaignID:  campaignID,
			Day:         key.day,
			AmountSpent: decimal.Zero,
		}
		l.rows[key] = row
	}
	return row
}

// DailySpent returns the amount spent so far, materializing a zero row
// for unseen pairs.
func (l *SpendLedger) DailySpent(_ context.Context, campaignID uuid.UUID, day time.Time) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.row(campaignID, day).AmountSpent, nil
}

// RecordSpend atomically increments the day's total and flips the sticky
// exceeded flag at the crossing.
func (l *SpendLedger) RecordSpend(_ context.Context, campaignID uuid.UUID, day time.Time, amount, dailyBudget decimal.Decimal) (domain.SpendRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	row := l.row(campaignID, day)
	row.AmountSpent = row.AmountSpent.Add(amount)

	record := domain.SpendRecord{TotalSpent: row.AmountSpent}
	if row.AmountSpent.GreaterThanOrEqual(dailyBudget) {
		record.Crossed = !row.BudgetExceeded
		row.BudgetExceeded = true
	}
	record.Exceeded = row.BudgetExceeded
	return record, nil
}

// IsExceeded reports the sticky exceeded flag for the day. A non-positive
// daily budget is handled by the caller, not the ledger.
func (l *SpendLedger) IsExceeded(_ context.Context, campaignID uuid.UUID, day time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.row(campaignID, day).BudgetExceeded, nil
}

// ResetDay clears the exceeded flag for the given day, restricted to one
// campaign when campaignID is non-nil.
func (l *SpendLedger) ResetDay(_ context.Context, day time.Time, campaignID *uuid.UUID) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	target := domain.Day(day)
	var reset int64
	for key, row := range l.rows {
		if !key.day.Equal(target) || !row.BudgetExceeded {
			continue
		}
		if campaignID != nil && key.campaignID != *campaignID {
			continue
		}
		row.BudgetExceeded = false
		reset++
	}
	return reset, nil
}
